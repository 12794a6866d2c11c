package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults applied",
			values: map[string]any{
				"repo-path":  "/tmp/project",
				"server-url": "http://127.0.0.1:8080/codemodel",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultIgnoreFile, cfg.IgnoreFile)
				assert.Equal(t, DefaultBabelConfigFile, cfg.BabelConfigFile)
				assert.Equal(t, DefaultMaxUploadTrials, cfg.MaxUploadTrials)
				assert.Equal(t, DefaultRetryDelay, cfg.RetryDelay)
				assert.Equal(t, "info", cfg.Logger.Level)
				assert.False(t, cfg.FullReimport)
			},
		},
		{
			name: "trailing slash stripped from server url",
			values: map[string]any{
				"repo-path":  "/tmp/project",
				"server-url": "http://rifle.example.com/codemodel/",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://rifle.example.com/codemodel", cfg.ServerURL)
			},
		},
		{
			name: "overrides respected",
			values: map[string]any{
				"repo-path":           "/tmp/project",
				"server-url":          "http://localhost:8080",
				"max-upload-trials":   3,
				"retry-delay":         "0s",
				"reimport-full-branch": true,
				"log-level":           "debug",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.MaxUploadTrials)
				assert.Equal(t, time.Duration(0), cfg.RetryDelay)
				assert.True(t, cfg.FullReimport)
				assert.Equal(t, "debug", cfg.Logger.Level)
			},
		},
		{
			name:    "missing repo path",
			values:  map[string]any{"server-url": "http://localhost:8080"},
			wantErr: "repository path must be set",
		},
		{
			name:    "missing server url",
			values:  map[string]any{"repo-path": "/tmp/project"},
			wantErr: "server URL must be set",
		},
		{
			name: "negative trials rejected",
			values: map[string]any{
				"repo-path":         "/tmp/project",
				"server-url":        "http://localhost:8080",
				"max-upload-trials": -1,
			},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			for k, v := range tt.values {
				viper.Set(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

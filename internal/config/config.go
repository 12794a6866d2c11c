// Package config loads and validates the tool's configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/riflesync/internal/logger"
)

// Defaults mirroring the conventional file names next to the project.
const (
	DefaultIgnoreFile      = "codemodel_rifle_ignore"
	DefaultBabelConfigFile = "codemodel_rifle_babel"
	DefaultMaxUploadTrials = 10
	DefaultRetryDelay      = 500 * time.Millisecond
)

// Config holds the application's configuration values.
type Config struct {
	// RepoPath is the git repository of the project, relative or absolute.
	RepoPath string
	// ServerURL is the root path of the Codemodel Rifle application,
	// e.g. http://127.0.0.1:8080/codemodel. Stored without a trailing slash.
	ServerURL string
	// IgnoreFile lists path substrings excluded from import, one per line.
	IgnoreFile string
	// BabelConfigFile lists extra Babel CLI flags, one per line.
	BabelConfigFile string
	// MaxUploadTrials bounds upload retries after a transport failure:
	// a value of N allows N retries on top of the first attempt.
	MaxUploadTrials int
	// RetryDelay is the initial wait between upload retries; it doubles
	// on every subsequent retry of the same entry.
	RetryDelay time.Duration
	// FullReimport forces a whole-branch import regardless of what the
	// server has recorded for the revision.
	FullReimport bool

	Logger logger.Config
}

// Load reads configuration from viper (CLI flags bound by the command
// layer, RIFLE_* environment variables) and validates required fields.
func Load() (*Config, error) {
	viper.SetDefault("ignore-file", DefaultIgnoreFile)
	viper.SetDefault("babel-config-file", DefaultBabelConfigFile)
	viper.SetDefault("max-upload-trials", DefaultMaxUploadTrials)
	viper.SetDefault("retry-delay", DefaultRetryDelay)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")

	cfg := &Config{
		RepoPath:        viper.GetString("repo-path"),
		ServerURL:       strings.TrimRight(viper.GetString("server-url"), "/"),
		IgnoreFile:      viper.GetString("ignore-file"),
		BabelConfigFile: viper.GetString("babel-config-file"),
		MaxUploadTrials: viper.GetInt("max-upload-trials"),
		RetryDelay:      viper.GetDuration("retry-delay"),
		FullReimport:    viper.GetBool("reimport-full-branch"),
		Logger: logger.Config{
			Level:  viper.GetString("log-level"),
			Format: viper.GetString("log-format"),
		},
	}

	if cfg.RepoPath == "" {
		return nil, fmt.Errorf("repository path must be set")
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL must be set")
	}
	if cfg.MaxUploadTrials < 0 {
		return nil, fmt.Errorf("max upload trials must not be negative, got %d", cfg.MaxUploadTrials)
	}

	return cfg, nil
}

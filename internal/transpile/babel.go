// Package transpile stages source files for upload by running them
// through the Babel CLI into a temporary directory tree.
package transpile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Transpiler transforms source files into the server-understood dialect.
//
// Implemented by Babel; faked in tests so staging logic can be exercised
// without a Babel installation.
type Transpiler interface {
	TranspileTree(ctx context.Context, sourceRoot, destRoot string, ignores, extraFlags []string) error
	TranspileFile(ctx context.Context, sourceRoot, relPath, destPath string, extraFlags []string) error
}

// Babel invokes the babel CLI. Commands run with the repository root as
// working directory so relative paths in Babel's output stay repository
// relative.
type Babel struct {
	Logger *slog.Logger
}

// NewBabel returns a Babel transpiler.
func NewBabel(logger *slog.Logger) *Babel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Babel{Logger: logger}
}

// TranspileTree transpiles the whole source tree in one invocation.
// Ignored files are excluded by Babel itself via --ignore.
func (b *Babel) TranspileTree(ctx context.Context, sourceRoot, destRoot string, ignores, extraFlags []string) error {
	args := []string{".", "--out-dir", destRoot}
	if len(ignores) > 0 {
		args = append(args, "--ignore", strings.Join(ignores, ","))
	}
	args = append(args, extraFlags...)

	return b.run(ctx, sourceRoot, args)
}

// TranspileFile transpiles a single file into destPath.
func (b *Babel) TranspileFile(ctx context.Context, sourceRoot, relPath, destPath string, extraFlags []string) error {
	args := []string{relPath, "--out-file", destPath}
	args = append(args, extraFlags...)

	return b.run(ctx, sourceRoot, args)
}

func (b *Babel) run(ctx context.Context, dir string, args []string) error {
	b.Logger.Debug("running babel", "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "babel", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("babel %s failed: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return nil
}

// LoadFlags reads newline-separated Babel CLI flags from path. A missing
// file is not an error; Babel then runs with its own defaults.
func LoadFlags(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read babel config file %s: %w", path, err)
	}

	var flags []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			flags = append(flags, line)
		}
	}
	return flags, nil
}

// NewStagingRoot creates the temporary directory that holds transpiled
// files for one run. The caller owns its lifecycle and must remove it on
// every exit path.
func NewStagingRoot() (string, error) {
	pattern := "codemodel_rifle_temp_*" + time.Now().Format("_2006-01-02_150405")
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return dir, nil
}

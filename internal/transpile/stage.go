package transpile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sevigo/riflesync/internal/core"
)

// Stage writes the transpiled form of each changed file beneath a
// staging root and records where it landed.
type Stage struct {
	transpiler  Transpiler
	repoPath    string
	stagingRoot string
	ignores     []string
	flags       []string
	logger      *slog.Logger
}

// NewStage returns a Stage that transpiles files from repoPath into
// stagingRoot with the given Babel flags. The ignore rules are only
// consulted in full mode, where Babel itself skips them.
func NewStage(transpiler Transpiler, repoPath, stagingRoot string, ignores, flags []string, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		transpiler:  transpiler,
		repoPath:    repoPath,
		stagingRoot: stagingRoot,
		ignores:     ignores,
		flags:       flags,
		logger:      logger,
	}
}

// Run stages every entry. In full mode the whole tree is transpiled with
// a single invocation and each entry's staged path is derived from it.
// In incremental mode each added or modified file is transpiled on its
// own; deleted files have nothing to stage.
//
// Any transpile failure aborts the run before uploads start: a half
// staged batch would leave the server inconsistent with the commit being
// imported.
func (s *Stage) Run(ctx context.Context, entries []core.ChangeEntry, full bool) ([]core.StagedEntry, error) {
	if full {
		return s.runFull(ctx, entries)
	}
	return s.runIncremental(ctx, entries)
}

func (s *Stage) runFull(ctx context.Context, entries []core.ChangeEntry) ([]core.StagedEntry, error) {
	if err := s.transpiler.TranspileTree(ctx, s.repoPath, s.stagingRoot, s.ignores, s.flags); err != nil {
		return nil, fmt.Errorf("tree transpile failed: %w", err)
	}

	staged := make([]core.StagedEntry, 0, len(entries))
	for _, e := range entries {
		staged = append(staged, core.StagedEntry{
			ChangeEntry: e,
			StagedPath:  filepath.Join(s.stagingRoot, filepath.FromSlash(e.Path)),
		})
	}
	return staged, nil
}

func (s *Stage) runIncremental(ctx context.Context, entries []core.ChangeEntry) ([]core.StagedEntry, error) {
	staged := make([]core.StagedEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == core.Deleted {
			staged = append(staged, core.StagedEntry{ChangeEntry: e})
			continue
		}

		dest := filepath.Join(s.stagingRoot, filepath.FromSlash(e.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create staging directory for %s: %w", e.Path, err)
		}

		s.logger.Debug("transpiling", "file", e.Path)
		if err := s.transpiler.TranspileFile(ctx, s.repoPath, e.Path, dest, s.flags); err != nil {
			return nil, fmt.Errorf("transpile of %s failed: %w", e.Path, err)
		}
		staged = append(staged, core.StagedEntry{ChangeEntry: e, StagedPath: dest})
	}
	return staged, nil
}

// Package changeset turns git history into the list of file changes to
// import.
package changeset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/riflesync/internal/core"
	"github.com/sevigo/riflesync/internal/gitutil"
)

// SourcePattern selects the files the Rifle server analyses.
const SourcePattern = "*.js"

// VCS is the slice of the git client the resolver needs.
type VCS interface {
	ListTrackedFiles(ctx context.Context, repoPath, pattern string) ([]string, error)
	DiffNameStatus(ctx context.Context, repoPath, fromCommit, toCommit, pattern string) ([]gitutil.NameStatus, error)
}

// Resolver computes the change set for a run.
type Resolver struct {
	vcs      VCS
	repoPath string
	logger   *slog.Logger
}

// NewResolver returns a Resolver for the repository at repoPath.
func NewResolver(vcs VCS, repoPath string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{vcs: vcs, repoPath: repoPath, logger: logger}
}

// Resolve returns the ordered change set since lastImported. When
// lastImported is empty there is nothing recorded on the server, so
// every tracked source file is reported as Added; downstream stages then
// treat a full import exactly like a large incremental one.
func (r *Resolver) Resolve(ctx context.Context, lastImported string) ([]core.ChangeEntry, error) {
	if lastImported == "" {
		files, err := r.vcs.ListTrackedFiles(ctx, r.repoPath, SourcePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to list tracked files: %w", err)
		}
		entries := make([]core.ChangeEntry, 0, len(files))
		for _, path := range files {
			entries = append(entries, core.ChangeEntry{Kind: core.Added, Path: path})
		}
		r.logger.Debug("resolved full change set", "files", len(entries))
		return entries, nil
	}

	changes, err := r.vcs.DiffNameStatus(ctx, r.repoPath, lastImported, "HEAD", SourcePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to diff against %s: %w", lastImported, err)
	}

	entries := make([]core.ChangeEntry, 0, len(changes))
	for _, ch := range changes {
		kind, err := core.ParseChangeKind(ch.Status)
		if err != nil {
			return nil, fmt.Errorf("unexpected diff entry for %s: %w", ch.Path, err)
		}
		entries = append(entries, core.ChangeEntry{Kind: kind, Path: ch.Path})
	}
	r.logger.Debug("resolved incremental change set", "since", lastImported, "files", len(entries))
	return entries, nil
}

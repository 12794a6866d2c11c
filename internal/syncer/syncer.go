// Package syncer sequences one synchronization run: decide full versus
// incremental import, compute and filter the change set, stage the
// transpiled files, and replay them against the Rifle server.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sevigo/riflesync/internal/changeset"
	"github.com/sevigo/riflesync/internal/config"
	"github.com/sevigo/riflesync/internal/core"
	"github.com/sevigo/riflesync/internal/gitutil"
	"github.com/sevigo/riflesync/internal/ignore"
	"github.com/sevigo/riflesync/internal/transpile"
)

// VCS is the slice of the git client the syncer needs.
type VCS interface {
	ListTrackedFiles(ctx context.Context, repoPath, pattern string) ([]string, error)
	DiffNameStatus(ctx context.Context, repoPath, fromCommit, toCommit, pattern string) ([]gitutil.NameStatus, error)
	ResolveRevision(repoPath string) (core.RevisionInfo, error)
}

// Remote answers what the server has recorded for a revision.
type Remote interface {
	LastCommit(ctx context.Context, revision string) (string, error)
}

// Uploader replays a staged change set against the server.
type Uploader interface {
	Upload(ctx context.Context, entries []core.StagedEntry, rev core.RevisionInfo) (*core.UploadReport, error)
}

// Result summarizes one run.
type Result struct {
	Revision   core.RevisionInfo
	FullImport bool
	// UpToDate is set when the server already holds the HEAD commit and
	// the run ended without any further work.
	UpToDate bool
	// Changes is the size of the filtered change set.
	Changes int
	// Report holds per-entry upload outcomes; nil for up-to-date runs.
	Report *core.UploadReport
}

// Syncer runs the synchronization pipeline.
type Syncer struct {
	cfg        *config.Config
	vcs        VCS
	remote     Remote
	uploader   Uploader
	transpiler transpile.Transpiler
	logger     *slog.Logger
}

// New wires a Syncer from its collaborators.
func New(cfg *config.Config, vcs VCS, remote Remote, uploader Uploader, transpiler transpile.Transpiler, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		cfg:        cfg,
		vcs:        vcs,
		remote:     remote,
		uploader:   uploader,
		transpiler: transpiler,
		logger:     logger,
	}
}

// Run executes one synchronization pass. Stage failures are fatal and
// abort the run; per-file server rejections during upload are recorded
// in the result without failing it.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	rules, err := ignore.Load(s.cfg.IgnoreFile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ignore rules loaded", "file", s.cfg.IgnoreFile, "rules", len(rules))

	flags, err := transpile.LoadFlags(s.cfg.BabelConfigFile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("babel config loaded", "file", s.cfg.BabelConfigFile, "flags", len(flags))

	rev, err := s.vcs.ResolveRevision(s.cfg.RepoPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("resolved working tree", "revision", rev.Revision, "head", rev.HeadSHA)

	lastImported, err := s.remote.LastCommit(ctx, rev.Revision)
	if err != nil {
		return nil, err
	}

	result := &Result{Revision: rev}
	result.FullImport = lastImported == "" || s.cfg.FullReimport

	if !result.FullImport && rev.HeadSHA == lastImported {
		s.logger.Info("current commit already imported, nothing to do", "commit", rev.HeadSHA)
		result.UpToDate = true
		return result, nil
	}

	if result.FullImport {
		s.logger.Info("importing full branch",
			"revision", rev.Revision, "forced", s.cfg.FullReimport)
	} else {
		s.logger.Info("importing incrementally",
			"revision", rev.Revision, "since", lastImported)
	}

	since := lastImported
	if result.FullImport {
		since = ""
	}
	entries, err := changeset.NewResolver(s.vcs, s.cfg.RepoPath, s.logger).Resolve(ctx, since)
	if err != nil {
		return nil, err
	}

	entries = rules.Filter(entries)
	result.Changes = len(entries)
	s.logger.Info("change set computed", "files", len(entries))

	stagingRoot, err := transpile.NewStagingRoot()
	if err != nil {
		return nil, err
	}
	defer func() {
		if removeErr := os.RemoveAll(stagingRoot); removeErr != nil {
			s.logger.Warn("failed to remove staging directory", "path", stagingRoot, "error", removeErr)
		}
	}()

	stage := transpile.NewStage(s.transpiler, s.cfg.RepoPath, stagingRoot, rules, flags, s.logger)
	staged, err := stage.Run(ctx, entries, result.FullImport)
	if err != nil {
		return nil, fmt.Errorf("staging failed: %w", err)
	}
	s.logger.Info("files staged", "path", stagingRoot, "files", len(staged))

	report, err := s.uploader.Upload(ctx, staged, rev)
	result.Report = report
	if err != nil {
		return result, fmt.Errorf("upload failed: %w", err)
	}

	s.logger.Info("import finished",
		"uploaded", report.Count(core.UploadSucceeded),
		"rejected", report.Count(core.UploadRejected))
	return result, nil
}

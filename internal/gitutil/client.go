// Package gitutil provides a client for querying Git repositories.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/sevigo/riflesync/internal/core"
)

// NameStatus is one line of `git diff --name-status` output.
type NameStatus struct {
	Status string
	Path   string
}

// Client handles interacting with a Git repository. Every operation takes
// the repository root explicitly; the process working directory is never
// changed.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// ListTrackedFiles returns all tracked files matching the pathspec,
// relative to the repository root.
func (c *Client) ListTrackedFiles(ctx context.Context, repoPath, pattern string) ([]string, error) {
	// go-git has no ls-files with pathspec support, so use the git CLI.
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--", pattern)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-files failed: %s: %w", exitDetail(err), err)
	}

	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// DiffNameStatus lists files that changed between two commits, filtered
// to added/modified/deleted status and the given pathspec. Renames are
// disabled so a rename appears as a delete plus an add.
func (c *Client) DiffNameStatus(ctx context.Context, repoPath, fromCommit, toCommit, pattern string) ([]NameStatus, error) {
	// The exact flag set matters here (rename detection off, status
	// filter, minimal algorithm), which go-git cannot express.
	cmd := exec.CommandContext(ctx, "git", "diff",
		"--name-status",
		"--diff-algorithm=minimal",
		"--no-renames",
		"--diff-filter=ADM",
		fromCommit, toCommit,
		"--", pattern,
	)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff %s..%s failed: %s: %w", fromCommit, toCommit, exitDetail(err), err)
	}
	return parseNameStatus(string(out))
}

// ResolveRevision returns the current revision name and HEAD commit of
// the repository. With a detached HEAD the commit hash doubles as the
// revision name, so the result is always a valid remote key.
func (c *Client) ResolveRevision(repoPath string) (core.RevisionInfo, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return core.RevisionInfo{}, fmt.Errorf("failed to open repository at %s: %w", repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		return core.RevisionInfo{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	info := core.RevisionInfo{HeadSHA: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Revision = head.Name().Short()
	} else {
		info.Revision = info.HeadSHA
	}

	c.Logger.Debug("resolved revision", "revision", info.Revision, "head", info.HeadSHA)
	return info, nil
}

func parseNameStatus(out string) ([]NameStatus, error) {
	var changes []NameStatus
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		status, path, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("malformed name-status line %q", line)
		}
		changes = append(changes, NameStatus{Status: status, Path: path})
	}
	return changes, nil
}

// exitDetail extracts captured stderr from an exec error, if any.
func exitDetail(err error) string {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	return err.Error()
}

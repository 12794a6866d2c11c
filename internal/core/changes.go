// Package core defines the shared data model that flows through the
// synchronization pipeline: change entries computed from git history,
// staged (transpiled) files, and the per-entry upload outcome.
package core

import "fmt"

// ChangeKind classifies a single file-level change between two commits.
// Renames never occur; git is queried with renames disabled, so a rename
// surfaces as a Deleted entry plus an Added entry.
type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Deleted
)

// String returns the git name-status letter for the kind.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "A"
	case Modified:
		return "M"
	case Deleted:
		return "D"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// ParseChangeKind maps a git name-status letter to a ChangeKind.
func ParseChangeKind(status string) (ChangeKind, error) {
	switch status {
	case "A":
		return Added, nil
	case "M":
		return Modified, nil
	case "D":
		return Deleted, nil
	default:
		return 0, fmt.Errorf("unsupported diff status %q", status)
	}
}

// ChangeEntry is one file-level change, with Path relative to the
// repository root using forward slashes.
type ChangeEntry struct {
	Kind ChangeKind
	Path string
}

// StagedEntry is a ChangeEntry whose transpiled content has been written
// beneath the temporary staging root. StagedPath is empty for Deleted
// entries, which have no content to stage.
type StagedEntry struct {
	ChangeEntry
	StagedPath string
}

// RevisionInfo identifies the state of the working tree being imported.
// Revision is the checked-out branch name, or the commit hash itself when
// HEAD is detached, so it is always a usable remote key.
type RevisionInfo struct {
	Revision string
	HeadSHA  string
}

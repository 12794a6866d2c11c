package gitutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

type fixtureRepo struct {
	path string
	repo *git.Repository
	wt   *git.Worktree
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()
	path := t.TempDir()
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixtureRepo{path: path, repo: repo, wt: wt}
}

func (f *fixtureRepo) write(t *testing.T, name, content string) {
	t.Helper()
	full := filepath.Join(f.path, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	_, err := f.wt.Add(name)
	require.NoError(t, err)
}

func (f *fixtureRepo) remove(t *testing.T, name string) {
	t.Helper()
	_, err := f.wt.Remove(name)
	require.NoError(t, err)
}

func (f *fixtureRepo) commit(t *testing.T, msg string) string {
	t.Helper()
	hash, err := f.wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestListTrackedFiles(t *testing.T) {
	requireGit(t)

	f := newFixtureRepo(t)
	f.write(t, "app.js", "var a = 1;\n")
	f.write(t, "lib/util.js", "var b = 2;\n")
	f.write(t, "README.md", "docs\n")
	f.commit(t, "initial")

	client := NewClient(nil)
	files, err := client.ListTrackedFiles(context.Background(), f.path, "*.js")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app.js", "lib/util.js"}, files)
}

func TestListTrackedFiles_NotARepo(t *testing.T) {
	requireGit(t)

	client := NewClient(nil)
	_, err := client.ListTrackedFiles(context.Background(), t.TempDir(), "*.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git ls-files failed")
}

func TestDiffNameStatus(t *testing.T) {
	requireGit(t)

	f := newFixtureRepo(t)
	f.write(t, "a.js", "var a = 1;\n")
	f.write(t, "b.js", "var b = 2;\n")
	f.write(t, "notes.txt", "text\n")
	first := f.commit(t, "first")

	f.write(t, "a.js", "var a = 42;\n")
	f.write(t, "c.js", "var c = 3;\n")
	f.remove(t, "b.js")
	f.write(t, "notes.txt", "more text\n")
	second := f.commit(t, "second")

	client := NewClient(nil)
	changes, err := client.DiffNameStatus(context.Background(), f.path, first, second, "*.js")
	require.NoError(t, err)

	assert.ElementsMatch(t, []NameStatus{
		{Status: "M", Path: "a.js"},
		{Status: "D", Path: "b.js"},
		{Status: "A", Path: "c.js"},
	}, changes)
}

func TestDiffNameStatus_RenameSurfacesAsDeleteAdd(t *testing.T) {
	requireGit(t)

	f := newFixtureRepo(t)
	f.write(t, "old.js", "var x = 'same content kept verbatim';\n")
	first := f.commit(t, "first")

	f.remove(t, "old.js")
	f.write(t, "new.js", "var x = 'same content kept verbatim';\n")
	second := f.commit(t, "rename")

	client := NewClient(nil)
	changes, err := client.DiffNameStatus(context.Background(), f.path, first, second, "*.js")
	require.NoError(t, err)

	assert.ElementsMatch(t, []NameStatus{
		{Status: "D", Path: "old.js"},
		{Status: "A", Path: "new.js"},
	}, changes)
}

func TestResolveRevision_OnBranch(t *testing.T) {
	f := newFixtureRepo(t)
	f.write(t, "a.js", "var a = 1;\n")
	sha := f.commit(t, "first")

	client := NewClient(nil)
	info, err := client.ResolveRevision(f.path)
	require.NoError(t, err)
	assert.Equal(t, "master", info.Revision)
	assert.Equal(t, sha, info.HeadSHA)
}

func TestResolveRevision_DetachedHead(t *testing.T) {
	f := newFixtureRepo(t)
	f.write(t, "a.js", "var a = 1;\n")
	first := f.commit(t, "first")
	f.write(t, "a.js", "var a = 2;\n")
	f.commit(t, "second")

	require.NoError(t, f.wt.Checkout(&git.CheckoutOptions{
		Hash: plumbing.NewHash(first),
	}))

	client := NewClient(nil)
	info, err := client.ResolveRevision(f.path)
	require.NoError(t, err)
	assert.Equal(t, first, info.HeadSHA)
	assert.Equal(t, first, info.Revision)
}

func TestParseNameStatus(t *testing.T) {
	changes, err := parseNameStatus("M\ta.js\nD\tlib/b.js\n\nA\tc.js\n")
	require.NoError(t, err)
	assert.Equal(t, []NameStatus{
		{Status: "M", Path: "a.js"},
		{Status: "D", Path: "lib/b.js"},
		{Status: "A", Path: "c.js"},
	}, changes)

	_, err = parseNameStatus("garbage-without-tab\n")
	require.Error(t, err)
}

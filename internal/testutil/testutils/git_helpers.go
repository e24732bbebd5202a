package helpers

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// testSignatureBase is the fixed author time used for fixture commits. Each commit is
// one minute after the previous so history order is stable.
var testSignatureBase = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// SetupTestGitRepo initializes a temporary git repository for testing.
// Returns the repository, its worktree, and the absolute path to the temporary directory.
func SetupTestGitRepo(t *testing.T) (*git.Repository, *git.Worktree, string) {
	t.Helper()

	tempDir := t.TempDir()

	repo, err := git.PlainInit(tempDir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	return repo, w, tempDir
}

// CommitFile writes content to rel inside the worktree, stages it and commits.
func CommitFile(t *testing.T, w *git.Worktree, rel, content, message string) plumbing.Hash {
	t.Helper()

	root := w.Filesystem.Root()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("failed to create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	if _, err := w.Add(rel); err != nil {
		t.Fatalf("failed to stage %s: %v", rel, err)
	}

	hash, err := w.Commit(message, &git.CommitOptions{Author: nextSignature()})
	if err != nil {
		t.Fatalf("failed to commit %s: %v", rel, err)
	}
	return hash
}

var commitCounter atomic.Int64

func nextSignature() *object.Signature {
	n := commitCounter.Add(1)
	return &object.Signature{
		Name:  "Test",
		Email: "test@example.com",
		When:  testSignatureBase.Add(time.Duration(n) * time.Minute),
	}
}

// Tag creates a lightweight tag pointing at hash.
func Tag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	if _, err := repo.CreateTag(name, hash, nil); err != nil {
		t.Fatalf("failed to create tag %s: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag object pointing at hash.
func AnnotatedTag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	opts := &git.CreateTagOptions{Tagger: nextSignature(), Message: "release " + name}
	if _, err := repo.CreateTag(name, hash, opts); err != nil {
		t.Fatalf("failed to create annotated tag %s: %v", name, err)
	}
}

// CheckoutBranch creates and checks out a new branch at HEAD.
func CheckoutBranch(t *testing.T, w *git.Worktree, name string) {
	t.Helper()
	err := w.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Create: true})
	if err != nil {
		t.Fatalf("failed to checkout branch %s: %v", name, err)
	}
}

// CheckoutDetached checks out hash with a detached HEAD.
func CheckoutDetached(t *testing.T, w *git.Worktree, hash plumbing.Hash) {
	t.Helper()
	if err := w.Checkout(&git.CheckoutOptions{Hash: hash}); err != nil {
		t.Fatalf("failed to checkout %s: %v", hash, err)
	}
}

// AddRemote registers a remote named name with url.
func AddRemote(t *testing.T, repo *git.Repository, name, url string) {
	t.Helper()
	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		t.Fatalf("failed to add remote %s: %v", name, err)
	}
}

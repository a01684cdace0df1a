package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestNewGitOpener(t *testing.T) {
	opener := NewGitOpener()
	if opener == nil {
		t.Fatal("NewGitOpener() returned nil")
	}
}

func TestGitOpener_PlainOpen(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}
	if repo == nil {
		t.Fatal("PlainOpen() returned nil repository")
	}
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	opener := NewGitOpener()
	_, err := opener.PlainOpen("/nonexistent/path")
	if err == nil {
		t.Error("PlainOpen() should return error for non-existent path")
	}
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	repoPath := initTestRepo(t)

	// Create a subdirectory
	subDir := filepath.Join(repoPath, "subdir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	opener := NewGitOpener()
	repo, err := opener.PlainOpenWithDetect(subDir)
	if err != nil {
		t.Fatalf("PlainOpenWithDetect() error = %v", err)
	}
	if repo == nil {
		t.Fatal("PlainOpenWithDetect() returned nil repository")
	}
}

func TestGitRepository_Head(t *testing.T) {
	repoPath := initTestRepoWithCommit(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head == nil {
		t.Fatal("Head() returned nil")
	}

	hash := head.Hash()
	if hash.IsZero() {
		t.Error("Hash() returned zero hash")
	}
}

func TestGitRepository_RepoPath(t *testing.T) {
	repoPath := initTestRepo(t)

	opener := NewGitOpener()
	repo, err := opener.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen() error = %v", err)
	}

	got := repo.RepoPath()
	if got == "" {
		t.Fatal("RepoPath() returned empty string")
	}

	// Resolve symlinks so macOS /tmp vs /private/tmp both compare equal.
	wantResolved, _ := filepath.EvalSymlinks(repoPath)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("RepoPath() = %q, want %q", gotResolved, wantResolved)
	}
}

func TestDefaultOpener(t *testing.T) {
	opener := DefaultOpener()
	if opener == nil {
		t.Fatal("DefaultOpener() returned nil")
	}

	custom := NewGitOpener()
	SetDefaultOpener(custom)
	defer SetDefaultOpener(opener)

	if DefaultOpener() != Opener(custom) {
		t.Error("SetDefaultOpener() should replace the default")
	}
}

// initTestRepo creates an empty git repository in a temp directory.
func initTestRepo(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()
	if _, err := git.PlainInit(repoPath, false); err != nil {
		t.Fatal(err)
	}
	return repoPath
}

// initTestRepoWithCommit creates a git repository with one commit.
func initTestRepoWithCommit(t *testing.T) string {
	t.Helper()
	repoPath := t.TempDir()

	repo, err := git.PlainInit(repoPath, false)
	if err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(repoPath, "main.py")
	if err := os.WriteFile(testFile, []byte("def main():\n    pass\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add("main.py"); err != nil {
		t.Fatal(err)
	}
	_, err = w.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	return repoPath
}

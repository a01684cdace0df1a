// Package vcs wraps the go-git operations the scanner needs: opening a
// repository and locating its worktree root. The interfaces exist so the
// scanner service can be tested without a real repository on disk.
package vcs

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository exposes the subset of repository state the scanner reads.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// RepoPath returns the root of the repository worktree.
	RepoPath() string
}

// Reference is a resolved git reference.
type Reference interface {
	Hash() plumbing.Hash
}

// Opener opens repositories by path.
type Opener interface {
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect walks up from path looking for a .git directory.
	PlainOpenWithDetect(path string) (Repository, error)
}

// GitOpener is the go-git backed Opener.
type GitOpener struct{}

func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

func (o *GitOpener) PlainOpen(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo}, nil
}

func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo}, nil
}

type gitRepository struct {
	repo *git.Repository
}

func (r *gitRepository) Head() (Reference, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, err
	}
	return &gitReference{ref: ref}, nil
}

func (r *gitRepository) RepoPath() string {
	wt, err := r.repo.Worktree()
	if err != nil {
		return ""
	}
	return wt.Filesystem.Root()
}

type gitReference struct {
	ref *plumbing.Reference
}

func (r *gitReference) Hash() plumbing.Hash {
	return r.ref.Hash()
}

var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the process-wide opener.
func DefaultOpener() Opener {
	return defaultOpener
}

// SetDefaultOpener replaces the process-wide opener, for tests.
func SetDefaultOpener(opener Opener) {
	defaultOpener = opener
}

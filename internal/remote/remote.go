// Package remote detects remote repository targets and clones them into a
// temporary directory so the rest of the pipeline sees a plain local path.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// knownHosts are forges recognized without a scheme prefix.
var knownHosts = []string{"github.com/", "gitlab.com/", "bitbucket.org/"}

// Parse detects whether a path refers to a remote repository. A path that
// exists on the filesystem is always treated as local and returns nil.
// Recognized remote forms: "owner/repo", "github.com/owner/repo", full
// https URLs, and SSH URLs. Any form may carry an "@ref" suffix.
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	path, ref := splitRef(path)

	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return &Source{URL: path, Ref: ref}, nil
	case strings.HasPrefix(path, "git@"):
		return &Source{URL: path, Ref: ref}, nil
	}

	for _, host := range knownHosts {
		if strings.HasPrefix(path, host) {
			return &Source{URL: "https://" + path, Ref: ref}, nil
		}
	}

	if isGitHubShorthand(path) {
		return &Source{
			URL: "https://github.com/" + path,
			Ref: ref,
		}, nil
	}

	return nil, nil
}

// splitRef separates an "@ref" suffix from a path. The "@" only counts
// when it appears after the last slash, so SSH URLs like
// "git@github.com:owner/repo.git" pass through untouched.
func splitRef(path string) (string, string) {
	idx := strings.LastIndex(path, "@")
	if idx == -1 || idx < strings.LastIndex(path, "/") {
		return path, ""
	}
	return path[:idx], path[idx+1:]
}

// isGitHubShorthand returns true if path matches the owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// A dot before the slash would indicate a domain
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone fetches the repository into a fresh temp directory and records it
// in CloneDir. A shallow clone is only used when no ref is requested,
// since resolving an arbitrary ref needs history.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "reaper-clone-*")
	if err != nil {
		return fmt.Errorf("create clone dir: %w", err)
	}

	opts := &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
	}
	if shallow && s.Ref == "" {
		opts.Depth = 1
		opts.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("clone %s: %w", s.URL, err)
	}

	if s.Ref != "" {
		if err := checkout(repo, s.Ref); err != nil {
			os.RemoveAll(dir)
			return fmt.Errorf("checkout %s: %w", s.Ref, err)
		}
	}

	s.CloneDir = dir
	return nil
}

// checkout moves the worktree to ref, trying branch, then tag, then an
// arbitrary revision (SHA, short SHA).
func checkout(repo *git.Repository, ref string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(ref)}); err == nil {
		return nil
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewTagReferenceName(ref)}); err == nil {
		return nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash})
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() {
	if s.CloneDir != "" {
		os.RemoveAll(s.CloneDir)
		s.CloneDir = ""
	}
}

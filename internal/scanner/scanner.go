// Package scanner walks directory trees for Python sources, applying the
// configured excludes and any .gitignore patterns found in the repository.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/jphelan/reaper/internal/vcs"
	"github.com/jphelan/reaper/pkg/config"
	"github.com/jphelan/reaper/pkg/parser"
)

// Scanner finds Python source files under a root directory.
type Scanner struct {
	config *config.Config
	excl   *excluder
}

// NewScanner creates a scanner. A nil config uses the defaults.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// excluder matches paths against the combined exclusion rules. Config
// patterns and directory excludes are parsed with gitignore semantics so
// one matcher covers both sources.
type excluder struct {
	matcher gitignore.Matcher
}

func newExcluder(cfg *config.Config, scanRoot string) *excluder {
	var patterns []gitignore.Pattern

	for _, p := range cfg.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	for _, dir := range cfg.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}

	if cfg.Exclude.Gitignore {
		if gitRoot := gitRootOf(scanRoot); gitRoot != "" {
			// ReadPatterns picks up every .gitignore in the tree.
			billyFS := osfs.New(gitRoot)
			if ignored, err := gitignore.ReadPatterns(billyFS, nil); err == nil {
				patterns = append(patterns, ignored...)
			}
		}
	}

	if len(patterns) == 0 {
		return &excluder{}
	}
	return &excluder{matcher: gitignore.NewMatcher(patterns)}
}

// Skip reports whether the relative path matches an exclusion rule.
func (e *excluder) Skip(rel string, isDir bool) bool {
	if e == nil || e.matcher == nil {
		return false
	}
	return e.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

// gitRootOf returns the worktree root of the repository containing path,
// or "" when path is not inside one.
func gitRootOf(path string) string {
	repo, err := vcs.DefaultOpener().PlainOpenWithDetect(path)
	if err != nil {
		return ""
	}
	return repo.RepoPath()
}

// ScanDir recursively collects Python files under root. Symlinks that
// escape the root are not followed, so a linked site-packages tree cannot
// pull foreign sources into the analysis.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.excl = newExcluder(s.config, root)

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		rel, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 && !s.symlinkStaysInside(path, absRoot) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.excl.Skip(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.excl.Skip(rel, false) && parser.IsSupported(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// symlinkStaysInside resolves a symlink and checks the target is still
// under the scan root.
func (s *Scanner) symlinkStaysInside(path, absRoot string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	return isWithinRoot(resolved, absRoot)
}

func isWithinRoot(path, root string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)
	root = filepath.Clean(root)
	// The separator check keeps "/work2" from matching root "/work".
	return abs == root || strings.HasPrefix(abs, root+string(filepath.Separator))
}

// ScanFile reports whether a single file would be included in a scan.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	if s.excl == nil {
		s.excl = newExcluder(s.config, filepath.Dir(path))
	}
	if s.excl.Skip(filepath.Base(path), false) {
		return false, nil
	}
	return parser.IsSupported(path), nil
}

// FilterBySize drops files larger than maxSize bytes and returns the kept
// list with the skip count. Unreadable files are skipped too. A maxSize
// of zero disables the filter.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	kept := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		kept = append(kept, f)
	}
	return kept, skipped
}

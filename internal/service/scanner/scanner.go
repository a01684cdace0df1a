// Package scanner provides the file discovery service used by commands.
package scanner

import (
	"path/filepath"

	"github.com/jphelan/reaper/internal/scanner"
	"github.com/jphelan/reaper/internal/vcs"
	"github.com/jphelan/reaper/pkg/config"
)

// ScanResult is the outcome of one discovery pass.
type ScanResult struct {
	// Files are the Python sources that will enter extraction.
	Files []string
	// RepoRoot is the enclosing git worktree, "" outside a repository.
	RepoRoot string
	// SkippedLarge counts files dropped by the size cap.
	SkippedLarge int
}

// Service discovers the files a command will analyze.
type Service struct {
	config *config.Config
	opener vcs.Opener
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener, for tests.
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// New creates a scanner service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths walks every path and returns the Python sources found, after
// applying the configured size cap. Empty input scans the working
// directory.
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	walker := scanner.NewScanner(s.config)
	var files []string
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		found, err := walker.ScanDir(abs)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		files = append(files, found...)
	}

	files, skipped := scanner.FilterBySize(files, s.config.Analysis.MaxFileSize)

	result := &ScanResult{
		Files:        files,
		SkippedLarge: skipped,
	}
	if root, err := s.repoRoot(paths[0]); err == nil {
		result.RepoRoot = root
	}
	return result, nil
}

// repoRoot returns the git worktree root enclosing path.
func (s *Service) repoRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	repo, err := s.opener.PlainOpenWithDetect(abs)
	if err != nil {
		return "", err
	}
	return repo.RepoPath(), nil
}

// PathError indicates an invalid input path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a directory walk failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Package locator resolves a user-supplied target to a file or a set of
// functions in the call graph. Targets may be exact paths, glob patterns,
// bare filenames, or function names.
package locator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jphelan/reaper/pkg/models"
)

// TargetType indicates whether the target resolved to a file or functions.
type TargetType string

const (
	TargetFile     TargetType = "file"
	TargetFunction TargetType = "function"
)

// Result contains the resolved target. For TargetFile, Path holds the
// normalized file path. For TargetFunction, Functions holds every graph
// node the name matched. Candidates is populated alongside
// ErrAmbiguousMatch when a glob matches several files.
type Result struct {
	Type       TargetType
	Path       string
	Functions  []models.FunctionID
	Candidates []string
}

var (
	ErrNotFound       = errors.New("no file or function found")
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// Options configures the Locate behavior.
type Options struct {
	BaseDir string
}

// Option is a functional option for Locate.
type Option func(*Options)

// WithBaseDir sets the base directory for glob and basename searches.
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		o.BaseDir = dir
	}
}

// Locate resolves a target to a file or functions.
// Resolution order: exact path -> glob -> basename -> function name.
func Locate(target string, nodes []models.FunctionID, opts ...Option) (*Result, error) {
	options := &Options{
		BaseDir: ".",
	}
	for _, opt := range opts {
		opt(options)
	}

	// Exact file path takes precedence over everything else
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, err
		}
		return &Result{
			Type: TargetFile,
			Path: models.NormalizePath(abs),
		}, nil
	}

	if containsGlobChars(target) {
		return locateByGlob(target, options.BaseDir)
	}

	if looksLikeFilename(target) {
		return locateByBasename(target, options.BaseDir)
	}

	return locateByName(target, nodes)
}

func containsGlobChars(s string) bool {
	return strings.Contains(s, "*") || strings.Contains(s, "?") || strings.Contains(s, "[")
}

func locateByGlob(pattern, baseDir string) (*Result, error) {
	matches, err := doublestar.Glob(os.DirFS(baseDir), pattern)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	var absPaths []string
	for _, m := range matches {
		abs, err := filepath.Abs(filepath.Join(baseDir, m))
		if err != nil {
			return nil, err
		}
		absPaths = append(absPaths, models.NormalizePath(abs))
	}

	if len(absPaths) == 1 {
		return &Result{
			Type: TargetFile,
			Path: absPaths[0],
		}, nil
	}

	return &Result{Candidates: absPaths}, ErrAmbiguousMatch
}

func looksLikeFilename(s string) bool {
	ext := filepath.Ext(s)
	return ext != "" && !strings.Contains(s, string(filepath.Separator))
}

func locateByBasename(filename, baseDir string) (*Result, error) {
	return locateByGlob("**/"+filename, baseDir)
}

// locateByName matches the bare or qualified function name against the
// graph nodes. A bare name also matches methods on any class, so "save"
// finds both "save" and "Repo.save".
func locateByName(name string, nodes []models.FunctionID) (*Result, error) {
	var matches []models.FunctionID
	for _, id := range nodes {
		if id.Name == name || strings.HasSuffix(id.Name, "."+name) {
			matches = append(matches, id)
		}
	}

	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	return &Result{
		Type:      TargetFunction,
		Functions: matches,
	}, nil
}

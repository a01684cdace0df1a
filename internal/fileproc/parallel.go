// Package fileproc fans per-file work out across a bounded goroutine
// pool. Each task gets its own parser since tree-sitter parsers are not
// safe for concurrent use.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/jphelan/reaper/pkg/parser"
)

// FileError records a failure on one input file.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// FileErrors accumulates per-file failures across workers.
type FileErrors struct {
	mu     sync.Mutex
	Errors []FileError
}

func (e *FileErrors) add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, FileError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any failure was recorded.
func (e *FileErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

func (e *FileErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// ProgressFunc is called once per processed file, failures included.
type ProgressFunc func()

// ErrorFunc receives the path and error of a failed file.
type ErrorFunc func(path string, err error)

// workerCount resolves the pool size. Extraction mixes disk reads with
// CGO parse calls, so 2x NumCPU keeps the cores busy during I/O waits.
func workerCount(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU() * 2
}

// MapFiles runs fn over files in parallel and returns the results in
// arbitrary order. Failed files are dropped silently; use MapFilesN for
// callbacks or MapFilesWithContext to collect the errors.
func MapFiles[T any](files []string, fn func(*parser.Parser, string) (T, error)) []T {
	return MapFilesN(files, 0, fn, nil, nil)
}

// MapFilesN runs fn over files with an explicit worker count and optional
// progress and error callbacks. A non-positive worker count uses the
// default sizing.
func MapFilesN[T any](files []string, workers int, fn func(*parser.Parser, string) (T, error), onProgress ProgressFunc, onError ErrorFunc) []T {
	if len(files) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		results = make([]T, 0, len(files))
	)

	p := pool.New().WithMaxGoroutines(workerCount(workers))
	for _, path := range files {
		p.Go(func() {
			psr := parser.New()
			defer psr.Close()

			result, err := fn(psr, path)
			if onProgress != nil {
				defer onProgress()
			}
			if err != nil {
				if onError != nil {
					onError(path, err)
				}
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}

// MapFilesWithContext runs fn over files until ctx is cancelled. Results
// gathered before cancellation are returned along with the collected
// errors, which include context errors for the files never processed.
func MapFilesWithContext[T any](ctx context.Context, files []string, fn func(*parser.Parser, string) (T, error)) ([]T, *FileErrors) {
	return MapFilesWithContextN(ctx, files, 0, fn, nil)
}

// MapFilesWithContextN is MapFilesWithContext with an explicit worker
// count and progress callback.
func MapFilesWithContextN[T any](ctx context.Context, files []string, workers int, fn func(*parser.Parser, string) (T, error), onProgress ProgressFunc) ([]T, *FileErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		results = make([]T, 0, len(files))
		errs    = &FileErrors{}
	)

	p := pool.New().WithMaxGoroutines(workerCount(workers)).WithContext(ctx)
	for _, path := range files {
		p.Go(func(ctx context.Context) error {
			if onProgress != nil {
				defer onProgress()
			}

			select {
			case <-ctx.Done():
				errs.add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			psr := parser.New()
			defer psr.Close()

			result, err := fn(psr, path)
			if err != nil {
				// One bad file must not stop the pool.
				errs.add(path, err)
				return nil
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	// Context errors are already in errs.
	_ = p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

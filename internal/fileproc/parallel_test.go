package fileproc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jphelan/reaper/pkg/parser"
)

func TestMapFiles(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "file1.py", "def main():\n    pass\n"),
		createTestFile(t, tmpDir, "file2.py", "def helper():\n    pass\n"),
		createTestFile(t, tmpDir, "file3.py", "def validate():\n    pass\n"),
	}

	results := MapFiles(files, func(p *parser.Parser, path string) (string, error) {
		return filepath.Base(path), nil
	})

	if len(results) != len(files) {
		t.Errorf("Expected %d results, got %d", len(files), len(results))
	}

	resultMap := make(map[string]bool)
	for _, r := range results {
		resultMap[r] = true
	}

	for _, expected := range []string{"file1.py", "file2.py", "file3.py"} {
		if !resultMap[expected] {
			t.Errorf("Missing expected result: %s", expected)
		}
	}
}

func TestMapFiles_EmptyFileList(t *testing.T) {
	results := MapFiles([]string{}, func(p *parser.Parser, path string) (string, error) {
		return path, nil
	})

	if results != nil {
		t.Errorf("Expected nil for empty file list, got %v", results)
	}
}

func TestMapFiles_ErrorsSkipped(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "good1.py", "x = 1\n"),
		createTestFile(t, tmpDir, "bad.py", "x = 1\n"),
		createTestFile(t, tmpDir, "good2.py", "x = 1\n"),
	}

	results := MapFiles(files, func(p *parser.Parser, path string) (string, error) {
		if filepath.Base(path) == "bad.py" {
			return "", fmt.Errorf("simulated error")
		}
		return filepath.Base(path), nil
	})

	if len(results) != 2 {
		t.Errorf("Expected 2 successful results (errors skipped), got %d", len(results))
	}
}

func TestMapFilesN_ErrorCallback(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "good.py", "x = 1\n"),
		createTestFile(t, tmpDir, "bad.py", "x = 1\n"),
	}

	var errCount atomic.Int32
	results := MapFilesN(files, 0, func(p *parser.Parser, path string) (string, error) {
		if filepath.Base(path) == "bad.py" {
			return "", fmt.Errorf("simulated error")
		}
		return filepath.Base(path), nil
	}, nil, func(path string, err error) {
		errCount.Add(1)
	})

	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
	if errCount.Load() != 1 {
		t.Errorf("Expected 1 error callback, got %d", errCount.Load())
	}
}

func TestMapFilesN_ProgressCallback(t *testing.T) {
	tmpDir := t.TempDir()

	files := make([]string, 5)
	for i := range files {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.py", i), "x = 1\n")
	}

	var progressCount atomic.Int32
	results := MapFilesN(files, 0, func(p *parser.Parser, path string) (int, error) {
		return 1, nil
	}, func() {
		progressCount.Add(1)
	}, nil)

	if len(results) != len(files) {
		t.Errorf("Expected %d results, got %d", len(files), len(results))
	}
	if int(progressCount.Load()) != len(files) {
		t.Errorf("Expected progress callback %d times, got %d", len(files), progressCount.Load())
	}
}

func TestMapFiles_ParserAvailable(t *testing.T) {
	tmpDir := t.TempDir()
	file := createTestFile(t, tmpDir, "test.py", "def main():\n    pass\n")

	results := MapFiles([]string{file}, func(p *parser.Parser, path string) (bool, error) {
		if p == nil {
			t.Error("Parser should not be nil")
			return false, nil
		}

		result, err := p.ParseFile(path)
		if err != nil {
			return false, err
		}
		return result != nil && result.Tree != nil, nil
	})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if !results[0] {
		t.Error("Parser should have successfully parsed the file")
	}
}

func TestMapFilesN_WorkerCount(t *testing.T) {
	tmpDir := t.TempDir()

	files := make([]string, 8)
	for i := range files {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.py", i), "x = 1\n")
	}

	// A single worker still processes everything
	results := MapFilesN(files, 1, func(p *parser.Parser, path string) (int, error) {
		return 1, nil
	}, nil, nil)

	if len(results) != len(files) {
		t.Errorf("Expected %d results, got %d", len(files), len(results))
	}
}

func TestMapFilesWithContext(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "file1.py", "x = 1\n"),
		createTestFile(t, tmpDir, "file2.py", "x = 1\n"),
	}

	results, errs := MapFilesWithContext(context.Background(), files, func(p *parser.Parser, path string) (string, error) {
		return filepath.Base(path), nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(results))
	}
}

func TestMapFilesWithContext_FileErrors(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "good.py", "x = 1\n"),
		createTestFile(t, tmpDir, "bad.py", "x = 1\n"),
	}

	results, errs := MapFilesWithContext(context.Background(), files, func(p *parser.Parser, path string) (string, error) {
		if filepath.Base(path) == "bad.py" {
			return "", fmt.Errorf("simulated error")
		}
		return filepath.Base(path), nil
	})

	if len(results) != 1 {
		t.Errorf("Expected 1 successful result, got %d", len(results))
	}
	if errs == nil || len(errs.Errors) != 1 {
		t.Errorf("Expected 1 error, got %v", errs)
	}
}

func TestMapFilesWithContext_Cancellation(t *testing.T) {
	tmpDir := t.TempDir()

	fileCount := 100
	files := make([]string, fileCount)
	for i := 0; i < fileCount; i++ {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.py", i), "x = 1\n")
	}

	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int32
	go func() {
		for processed.Load() < 10 {
			runtime.Gosched()
		}
		cancel()
	}()

	results, errs := MapFilesWithContext(ctx, files, func(p *parser.Parser, path string) (string, error) {
		processed.Add(1)
		for i := 0; i < 1000; i++ {
			runtime.Gosched()
		}
		return filepath.Base(path), nil
	})

	t.Logf("Processed %d files, got %d results", processed.Load(), len(results))

	errorCount := 0
	if errs != nil {
		errorCount = len(errs.Errors)
	}
	if len(results)+errorCount > fileCount {
		t.Errorf("Results (%d) + errors (%d) should not exceed file count (%d)",
			len(results), errorCount, fileCount)
	}
}

func TestMapFilesWithContextN_Progress(t *testing.T) {
	tmpDir := t.TempDir()

	files := make([]string, 4)
	for i := range files {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.py", i), "x = 1\n")
	}

	var progressCount atomic.Int32
	results, errs := MapFilesWithContextN(context.Background(), files, 0, func(p *parser.Parser, path string) (int, error) {
		if filepath.Base(path) == "file2.py" {
			return 0, fmt.Errorf("simulated error")
		}
		return 1, nil
	}, func() {
		progressCount.Add(1)
	})

	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
	if errs == nil || len(errs.Errors) != 1 {
		t.Errorf("Expected 1 error, got %v", errs)
	}
	// Progress fires for failed files too
	if int(progressCount.Load()) != len(files) {
		t.Errorf("Expected progress callback %d times, got %d", len(files), progressCount.Load())
	}
}

func TestMapFilesWithContext_ActualParsing(t *testing.T) {
	tmpDir := t.TempDir()

	fileCount := 20
	files := make([]string, fileCount)
	for i := 0; i < fileCount; i++ {
		content := fmt.Sprintf("def test%d():\n    pass\n", i)
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.py", i), content)
	}

	results, errs := MapFilesWithContext(context.Background(), files, func(p *parser.Parser, path string) (string, error) {
		result, err := p.ParseFile(path)
		if err != nil {
			return "", err
		}
		if result == nil || result.Tree == nil {
			return "", fmt.Errorf("parse result or tree is nil")
		}
		return result.Path, nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != fileCount {
		t.Errorf("Expected %d results, got %d", fileCount, len(results))
	}

	resultSet := make(map[string]bool)
	for _, r := range results {
		resultSet[r] = true
	}
	for _, file := range files {
		if !resultSet[file] {
			t.Errorf("Missing result for file: %s", file)
		}
	}
}

func TestFileError(t *testing.T) {
	err := FileError{Path: "/path/to/file.py", Err: fmt.Errorf("parse failed")}
	expected := "/path/to/file.py: parse failed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestFileErrors(t *testing.T) {
	errs := &FileErrors{}

	if errs.HasErrors() {
		t.Error("Empty FileErrors should not have errors")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Empty error message = %q, want 'no errors'", errs.Error())
	}

	errs.add("/file1.py", fmt.Errorf("error1"))
	if !errs.HasErrors() {
		t.Error("FileErrors with one error should have errors")
	}
	if errs.Error() != "/file1.py: error1" {
		t.Errorf("Single error message = %q", errs.Error())
	}

	errs.add("/file2.py", fmt.Errorf("error2"))
	if len(errs.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errs.Errors))
	}
	errMsg := errs.Error()
	if errMsg != "2 files failed (first: /file1.py: error1)" {
		t.Errorf("Multiple error message = %q", errMsg)
	}
}

func TestFileErrors_ThreadSafe(t *testing.T) {
	errs := &FileErrors{}
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs.add(fmt.Sprintf("/file%d.py", n), fmt.Errorf("error %d", n))
		}(i)
	}
	wg.Wait()

	if len(errs.Errors) != 100 {
		t.Errorf("Expected 100 errors, got %d", len(errs.Errors))
	}
}

func TestWorkerCount(t *testing.T) {
	if got := workerCount(4); got != 4 {
		t.Errorf("workerCount(4) = %d", got)
	}
	if got := workerCount(0); got != runtime.NumCPU()*2 {
		t.Errorf("workerCount(0) = %d, want %d", got, runtime.NumCPU()*2)
	}
	if got := workerCount(-1); got != runtime.NumCPU()*2 {
		t.Errorf("workerCount(-1) = %d, want %d", got, runtime.NumCPU()*2)
	}
}

func TestMapFilesWithContext_LargeFileSet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large file set test in short mode")
	}

	tmpDir := t.TempDir()

	fileCount := 1000
	files := make([]string, fileCount)
	for i := 0; i < fileCount; i++ {
		files[i] = createTestFile(t, tmpDir, fmt.Sprintf("file%d.py", i), "x = 1\n")
	}

	results, errs := MapFilesWithContext(context.Background(), files, func(p *parser.Parser, path string) (int, error) {
		return 1, nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != fileCount {
		t.Errorf("Expected %d results, got %d", fileCount, len(results))
	}
}

func BenchmarkMapFiles_Parallel(b *testing.B) {
	tmpDir := b.TempDir()

	fileCount := 100
	files := make([]string, fileCount)
	for i := 0; i < fileCount; i++ {
		files[i] = createTestFile(b, tmpDir, fmt.Sprintf("file%d.py", i), "def test():\n    pass\n")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := MapFiles(files, func(p *parser.Parser, path string) (int, error) {
			_, err := p.ParseFile(path)
			if err != nil {
				return 0, err
			}
			return 1, nil
		})

		if len(results) != fileCount {
			b.Fatalf("Expected %d results, got %d", fileCount, len(results))
		}
	}
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file %s: %v", name, err)
	}
	return path
}

package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jphelan/reaper/pkg/config"
	"github.com/jphelan/reaper/pkg/models"
)

func writeFiles(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		paths = append(paths, path)
	}
	return paths
}

func findingNames(analysis *models.DeadCodeAnalysis) []string {
	names := make([]string, 0, len(analysis.Findings))
	for _, f := range analysis.Findings {
		names = append(names, f.Function.Name)
	}
	return names
}

func TestNew(t *testing.T) {
	svc := New()
	require.NotNil(t, svc)
	require.NotNil(t, svc.config)
}

func TestNewWithConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	svc := New(WithConfig(cfg))
	assert.Same(t, cfg, svc.config)
}

func TestAnalyzeDeadCode(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"utils.py": "def helper():\n    pass\n\ndef orphan():\n    pass\n",
		"app.py":   "from utils import helper\n\ndef main():\n    helper()\n",
	})

	svc := New(WithConfig(config.DefaultConfig()))
	analysis, err := svc.AnalyzeDeadCode(context.Background(), paths, DeadCodeOptions{})
	require.NoError(t, err)

	assert.Contains(t, findingNames(analysis), "orphan")
}

func TestAnalyzeDeadCode_ConfigThreshold(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"a.py": "def helper_a():\n    pass\n\ndef helper_b():\n    pass\n",
		"b.py": "from a import *\n\nhelper_a()\n",
	})

	cfg := config.DefaultConfig()
	cfg.DeadCode.MinConfidence = "high"

	svc := New(WithConfig(cfg))
	analysis, err := svc.AnalyzeDeadCode(context.Background(), paths, DeadCodeOptions{})
	require.NoError(t, err)

	// helper_b only has a wildcard exposure, which is below the high
	// threshold from config.
	assert.Contains(t, findingNames(analysis), "helper_b",
		"config min_confidence=high should report weakly used functions")
}

func TestAnalyzeDeadCode_OptionOverridesConfig(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"a.py": "def helper():\n    pass\n\ndef orphan():\n    pass\n",
		"b.py": "from a import helper\n\nhelper()\n",
	})

	cfg := config.DefaultConfig()
	cfg.DeadCode.MinConfidence = "high"

	svc := New(WithConfig(cfg))
	analysis, err := svc.AnalyzeDeadCode(context.Background(), paths, DeadCodeOptions{
		MinConfidence: models.ConfidenceLow,
	})
	require.NoError(t, err)

	assert.NotContains(t, findingNames(analysis), "helper",
		"explicit Low threshold should keep helper alive")
}

func TestBuildProject(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"utils.py": "def helper():\n    pass\n",
		"app.py":   "from utils import helper\n\ndef main():\n    helper()\n",
	})

	svc := New(WithConfig(config.DefaultConfig()))
	proj, err := svc.BuildProject(context.Background(), paths, ProjectOptions{})
	require.NoError(t, err)

	require.NotNil(t, proj.Graph)
	require.NotNil(t, proj.Resolver)
	assert.Equal(t, 2, proj.Graph.NodeCount())
	assert.Equal(t, 1, proj.Graph.EdgeCount())
	assert.Equal(t, 2, proj.FileCount)
}

func TestAnalyzeDeadCode_ResultCache(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"utils.py": "def helper():\n    pass\n\ndef orphan():\n    pass\n",
		"app.py":   "from utils import helper\n\nhelper()\n",
	})

	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")

	svc := New(WithConfig(cfg))
	first, err := svc.AnalyzeDeadCode(context.Background(), paths, DeadCodeOptions{})
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.Cache.Dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries, "expected a cache entry after analysis")

	second, err := svc.AnalyzeDeadCode(context.Background(), paths, DeadCodeOptions{})
	require.NoError(t, err)
	assert.Len(t, second.Findings, len(first.Findings))

	// Editing a source file must invalidate the cached result.
	var utilsPath string
	for _, p := range paths {
		if filepath.Base(p) == "utils.py" {
			utilsPath = p
		}
	}
	require.NoError(t, os.WriteFile(utilsPath, []byte("def helper():\n    pass\n"), 0644))

	third, err := svc.AnalyzeDeadCode(context.Background(), paths, DeadCodeOptions{})
	require.NoError(t, err)
	assert.NotContains(t, findingNames(third), "orphan",
		"orphan was deleted from source but still reported")
}

func TestAnalyzeDeadCode_EmptyInput(t *testing.T) {
	svc := New(WithConfig(config.DefaultConfig()))
	analysis, err := svc.AnalyzeDeadCode(context.Background(), nil, DeadCodeOptions{})
	require.NoError(t, err)
	assert.Empty(t, analysis.Findings)
}

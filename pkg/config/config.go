package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for reaper.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis"`

	// Resolver settings
	Resolver ResolverConfig `koanf:"resolver"`

	// Dead code settings
	DeadCode DeadCodeConfig `koanf:"deadcode"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output"`

	// Result cache settings
	Cache CacheConfig `koanf:"cache"`
}

// AnalysisConfig controls the extraction phase.
type AnalysisConfig struct {
	Workers     int      `koanf:"workers"`       // 0 = 2x NumCPU
	Roots       []string `koanf:"roots"`         // extra roots for absolute imports
	MaxFileSize int64    `koanf:"max_file_size"` // bytes, 0 = no limit
}

// ResolverConfig controls symbol resolution.
type ResolverConfig struct {
	MaxDepth int `koanf:"max_depth"` // import traversal circuit breaker
}

// DeadCodeConfig controls classification.
type DeadCodeConfig struct {
	MinConfidence string `koanf:"min_confidence"` // low, medium, high
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// CacheConfig controls the on-disk analysis result cache.
type CacheConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Dir      string `koanf:"dir"`
	TTLHours int    `koanf:"ttl_hours"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Workers:     0,
			MaxFileSize: 1 << 20,
		},
		Resolver: ResolverConfig{
			MaxDepth: 10,
		},
		DeadCode: DeadCodeConfig{
			MinConfidence: "low",
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.py",
			},
			Dirs: []string{
				".git",
				".reaper",
				"venv",
				".venv",
				"__pycache__",
				"build",
				"dist",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
		Cache: CacheConfig{
			Enabled:  false,
			Dir:      filepath.Join(".reaper", "cache"),
			TTLHours: 168,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	// Load the config file
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"reaper.toml",
		"reaper.yaml",
		"reaper.yml",
		"reaper.json",
		".reaper.toml",
		".reaper.yaml",
		".reaper.yml",
		".reaper.json",
	}

	searchDirs := []string{".", ".reaper"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}

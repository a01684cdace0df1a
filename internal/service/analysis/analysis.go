// Package analysis orchestrates the dead code pipeline for commands.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jphelan/reaper/internal/cache"
	"github.com/jphelan/reaper/pkg/analyzer/deadcode"
	"github.com/jphelan/reaper/pkg/config"
	"github.com/jphelan/reaper/pkg/models"
)

// Service orchestrates code analysis operations.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DeadCodeOptions configures dead code detection.
type DeadCodeOptions struct {
	MinConfidence models.Confidence
	MaxDepth      int
	Workers       int
	OnProgress    func()
}

// analyzerOptions merges command-level options with the loaded config.
func (s *Service) analyzerOptions(minConfidence models.Confidence, maxDepth, workers int, onProgress func()) []deadcode.Option {
	if minConfidence == models.ConfidenceUnknown {
		if c, err := models.ParseConfidence(s.config.DeadCode.MinConfidence); err == nil {
			minConfidence = c
		} else {
			minConfidence = models.ConfidenceLow
		}
	}
	if maxDepth <= 0 {
		maxDepth = s.config.Resolver.MaxDepth
	}
	if workers <= 0 {
		workers = s.config.Analysis.Workers
	}

	opts := []deadcode.Option{
		deadcode.WithMinConfidence(minConfidence),
		deadcode.WithMaxDepth(maxDepth),
		deadcode.WithWorkers(workers),
	}
	if len(s.config.Analysis.Roots) > 0 {
		opts = append(opts, deadcode.WithRoots(s.config.Analysis.Roots...))
	}
	if onProgress != nil {
		opts = append(opts, deadcode.WithProgress(onProgress))
	}
	return opts
}

// AnalyzeDeadCode detects functions with no confident callers. When the
// result cache is enabled and no source file changed since the last run,
// the stored analysis is returned without re-parsing.
func (s *Service) AnalyzeDeadCode(ctx context.Context, files []string, opts DeadCodeOptions) (*models.DeadCodeAnalysis, error) {
	resultCache, cacheKey, contentHash := s.openCache("deadcode", files, opts)
	if resultCache != nil {
		if data, ok := resultCache.GetWithHash(cacheKey, contentHash); ok {
			var analysis models.DeadCodeAnalysis
			if err := json.Unmarshal(data, &analysis); err == nil {
				return &analysis, nil
			}
		}
	}

	a := deadcode.New(s.analyzerOptions(opts.MinConfidence, opts.MaxDepth, opts.Workers, opts.OnProgress)...)
	analysis, err := a.AnalyzeProject(ctx, files)
	if err != nil {
		return nil, err
	}

	if resultCache != nil {
		if data, err := json.Marshal(analysis); err == nil {
			// Cache writes are best effort
			_ = resultCache.SetWithHash(cacheKey, contentHash, data)
		}
	}
	return analysis, nil
}

// openCache returns the result cache with the key and content hash for this
// run, or nil when caching is disabled. The key covers the operation and
// every option that changes the output; the hash covers the file contents.
func (s *Service) openCache(op string, files []string, opts DeadCodeOptions) (*cache.Cache, string, string) {
	cc := s.config.Cache
	if !cc.Enabled {
		return nil, "", ""
	}
	c, err := cache.New(cc.Dir, cc.TTLHours, true)
	if err != nil {
		return nil, "", ""
	}
	key := fmt.Sprintf("%s:conf=%s:cfgconf=%s:depth=%d:roots=%v",
		op, opts.MinConfidence, s.config.DeadCode.MinConfidence, opts.MaxDepth, s.config.Analysis.Roots)
	return c, key, cache.ProjectHash(files)
}

// ProjectOptions configures call graph construction.
type ProjectOptions struct {
	MaxDepth   int
	Workers    int
	OnProgress func()
}

// BuildProject runs extraction and resolution and returns the call graph
// along with the frozen resolver, for queries that need more than findings.
func (s *Service) BuildProject(ctx context.Context, files []string, opts ProjectOptions) (*deadcode.Project, error) {
	a := deadcode.New(s.analyzerOptions(models.ConfidenceUnknown, opts.MaxDepth, opts.Workers, opts.OnProgress)...)
	return a.BuildGraph(ctx, files)
}

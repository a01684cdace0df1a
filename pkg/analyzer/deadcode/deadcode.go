// Package deadcode finds unreachable functions using a confidence-scored
// project call graph.
package deadcode

import (
	"context"
	"sort"

	"github.com/jphelan/reaper/internal/fileproc"
	"github.com/jphelan/reaper/pkg/analyzer/callgraph"
	"github.com/jphelan/reaper/pkg/analyzer/extract"
	"github.com/jphelan/reaper/pkg/analyzer/resolve"
	"github.com/jphelan/reaper/pkg/models"
	"github.com/jphelan/reaper/pkg/parser"
)

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMinConfidence sets the usage threshold below which functions are
// reported dead.
func WithMinConfidence(c models.Confidence) Option {
	return func(a *Analyzer) {
		a.minConfidence = c
	}
}

// WithMaxDepth overrides the resolver's import traversal limit.
func WithMaxDepth(n int) Option {
	return func(a *Analyzer) {
		a.maxDepth = n
	}
}

// WithWorkers sets the extraction worker count (0 means 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithRoots adds project roots for absolute import resolution.
func WithRoots(roots ...string) Option {
	return func(a *Analyzer) {
		a.roots = append(a.roots, roots...)
	}
}

// WithProgress sets a callback invoked once per extracted file.
func WithProgress(fn func()) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// Analyzer runs the full dead-code pipeline.
type Analyzer struct {
	minConfidence models.Confidence
	maxDepth      int
	workers       int
	roots         []string
	onProgress    func()
}

// New creates an analyzer. The default threshold is Low: any caller at Low
// confidence or above keeps a function alive.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		minConfidence: models.ConfidenceLow,
		maxDepth:      resolve.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Project holds the shared intermediate state of one run: the graph, the
// frozen resolver behind it, and the accumulated warnings.
type Project struct {
	Graph     *callgraph.Graph
	Resolver  *resolve.Resolver
	Warnings  *models.WarningSet
	FileCount int
}

// BuildGraph runs extraction, the sequential fold, and graph construction.
// Per-file failures degrade to warnings; partial results stay valid when ctx
// is cancelled mid-run.
func (a *Analyzer) BuildGraph(ctx context.Context, files []string) (*Project, error) {
	warnings := models.NewWarningSet()
	ex := extract.New()

	facts, procErrs := fileproc.MapFilesWithContextN(ctx, files, a.workers,
		func(p *parser.Parser, path string) (*extract.FileFacts, error) {
			return ex.File(p, path)
		}, a.onProgress)
	if procErrs != nil {
		for _, pe := range procErrs.Errors {
			warnings.Add(models.WarnFileUnreadable, models.NormalizePath(pe.Path), 0, pe.Err.Error())
		}
	}

	// The fold is sequential and order-normalized so identical inputs
	// produce identical resolvers regardless of worker scheduling.
	sort.Slice(facts, func(i, j int) bool { return facts[i].Path < facts[j].Path })
	for _, f := range facts {
		for _, w := range f.Warnings {
			warnings.Add(w.Kind, w.File, w.Line, w.Detail)
		}
	}

	rb := resolve.NewBuilder(
		resolve.WithMaxDepth(a.maxDepth),
		resolve.WithWarnings(warnings),
		resolve.WithRoots(a.roots...),
	)
	for _, f := range facts {
		rb.AddFile(f)
	}
	resolver := rb.Build()

	return &Project{
		Graph:     callgraph.NewBuilder(resolver, callgraph.WithWarnings(warnings)).Build(facts),
		Resolver:  resolver,
		Warnings:  warnings,
		FileCount: len(facts),
	}, ctx.Err()
}

// AnalyzeProject runs the full pipeline and classifies every function
// against the configured confidence threshold.
func (a *Analyzer) AnalyzeProject(ctx context.Context, files []string) (*models.DeadCodeAnalysis, error) {
	proj, err := a.BuildGraph(ctx, files)
	engine := NewEngine(proj.Graph)

	analysis := &models.DeadCodeAnalysis{
		Summary: models.NewDeadCodeSummary(),
	}
	analysis.Summary.TotalFunctions = proj.Graph.NodeCount()
	analysis.Summary.TotalCallSites = proj.Graph.EdgeCount()
	analysis.Summary.TotalFilesAnalyzed = proj.FileCount

	for _, fn := range proj.Graph.Nodes() {
		finding := engine.ClassifyAt(fn, a.minConfidence)
		if !finding.Dead {
			continue
		}
		analysis.Findings = append(analysis.Findings, finding)
		analysis.Summary.AddFinding(finding)
	}

	analysis.Warnings = proj.Warnings.All()
	for kind, count := range proj.Warnings.CountByKind() {
		analysis.Summary.WarningCounts[string(kind)] = count
	}

	return analysis, err
}

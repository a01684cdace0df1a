package deadcode

import (
	"fmt"
	"path"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/jphelan/reaper/pkg/analyzer/callgraph"
	"github.com/jphelan/reaper/pkg/models"
)

// Engine answers usage queries over a built call graph. Per confidence tier
// a roaring bitmap records which functions have at least one caller at that
// tier or above, so IsUsed is a single bitmap lookup.
type Engine struct {
	graph *callgraph.Graph
	ids   map[models.FunctionID]uint32
	used  [models.ConfidenceHigh + 1]*roaring.Bitmap
}

// NewEngine indexes a graph for usage queries.
func NewEngine(g *callgraph.Graph) *Engine {
	e := &Engine{
		graph: g,
		ids:   make(map[models.FunctionID]uint32, g.NodeCount()),
	}
	for tier := range e.used {
		e.used[tier] = roaring.New()
	}

	for i, id := range g.Nodes() {
		e.ids[id] = uint32(i)
	}
	for _, site := range g.Edges() {
		id, ok := e.ids[site.Callee]
		if !ok {
			continue
		}
		for tier := models.ConfidenceUnknown; tier <= site.Confidence; tier++ {
			e.used[tier].Add(id)
		}
	}
	return e
}

// IsUsed reports whether fn has at least one caller at or above the given
// confidence. A minConfidence of Unknown asks for any caller at all.
func (e *Engine) IsUsed(fn models.FunctionID, minConfidence models.Confidence) bool {
	id, ok := e.ids[fn]
	if !ok {
		return false
	}
	return e.used[minConfidence].Contains(id)
}

// Callers returns the call sites targeting fn.
func (e *Engine) Callers(fn models.FunctionID) []models.CallSite {
	return e.graph.Callers(fn)
}

// Classify produces the verdict for one function. Zero callers anywhere in
// the project is High-confidence-dead. Functions with callers are live; the
// finding reports the strongest caller confidence and the sites, which is
// below High whenever only weak evidence reached the function.
func (e *Engine) Classify(fn models.FunctionID) models.DeadCodeFinding {
	def, hasDef := e.graph.Definition(fn)
	if hasDef && isEntryPoint(def) {
		return models.DeadCodeFinding{
			Function:   fn,
			Dead:       false,
			Confidence: models.ConfidenceHigh,
			Reason:     "entry point",
		}
	}

	callers := e.graph.Callers(fn)
	if len(callers) == 0 {
		return models.DeadCodeFinding{
			Function:   fn,
			Dead:       true,
			Confidence: models.ConfidenceHigh,
			Reason:     "no callers found in project",
		}
	}

	best := models.ConfidenceUnknown
	for _, site := range callers {
		best = best.Max(site.Confidence)
	}
	return models.DeadCodeFinding{
		Function:       fn,
		Dead:           false,
		Confidence:     best,
		Reason:         fmt.Sprintf("called from %d site(s)", len(callers)),
		UsageLocations: callers,
	}
}

// ClassifyAt applies a usage threshold: functions whose strongest caller
// falls below minConfidence are reported dead, at reduced certainty since
// weak evidence of use exists.
func (e *Engine) ClassifyAt(fn models.FunctionID, minConfidence models.Confidence) models.DeadCodeFinding {
	finding := e.Classify(fn)
	if finding.Dead || finding.Reason == "entry point" {
		return finding
	}
	if e.IsUsed(fn, minConfidence) {
		return finding
	}

	// Callers exist but none meet the threshold.
	certainty := models.ConfidenceLow
	if finding.Confidence <= models.ConfidenceLow {
		certainty = models.ConfidenceMedium
	}
	return models.DeadCodeFinding{
		Function:       fn,
		Dead:           true,
		Confidence:     certainty,
		Reason:         fmt.Sprintf("no callers at %s confidence or above", minConfidence),
		UsageLocations: finding.UsageLocations,
	}
}

// isEntryPoint reports functions that are externally invoked and therefore
// never dead: mains, dunder methods, and test functions.
func isEntryPoint(def models.Definition) bool {
	if def.Name == "main" {
		return true
	}
	if strings.HasPrefix(def.Name, "__") && strings.HasSuffix(def.Name, "__") {
		return true
	}
	if strings.HasPrefix(def.Name, "test_") {
		return true
	}
	base := path.Base(def.File)
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
}

// Package callgraph builds a project-wide call graph from per-file facts and
// a frozen resolver.
package callgraph

import (
	"sort"

	"github.com/jphelan/reaper/pkg/models"
)

// Graph is an immutable call graph with adjacency indices for constant-time
// caller and callee lookups.
type Graph struct {
	nodes   map[models.FunctionID]models.Definition
	edges   []models.CallSite
	callers map[models.FunctionID][]int
	callees map[models.FunctionID][]int
}

func newGraph(nodes map[models.FunctionID]models.Definition, edges []models.CallSite) *Graph {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Callee.File != b.Callee.File {
			return a.Callee.File < b.Callee.File
		}
		return a.Callee.Name < b.Callee.Name
	})

	g := &Graph{
		nodes:   nodes,
		edges:   edges,
		callers: make(map[models.FunctionID][]int),
		callees: make(map[models.FunctionID][]int),
	}
	for i, e := range edges {
		g.callers[e.Callee] = append(g.callers[e.Callee], i)
		if e.Caller != nil {
			g.callees[*e.Caller] = append(g.callees[*e.Caller], i)
		}
	}
	return g
}

// Nodes returns all function IDs sorted by file, line, then name.
func (g *Graph) Nodes() []models.FunctionID {
	out := make([]models.FunctionID, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Definition returns the definition behind a node.
func (g *Graph) Definition(id models.FunctionID) (models.Definition, bool) {
	def, ok := g.nodes[id]
	return def, ok
}

// Edges returns a copy of all call sites in deterministic order.
func (g *Graph) Edges() []models.CallSite {
	out := make([]models.CallSite, len(g.edges))
	copy(out, g.edges)
	return out
}

// Callers returns the call sites targeting fn.
func (g *Graph) Callers(fn models.FunctionID) []models.CallSite {
	idxs := g.callers[fn]
	out := make([]models.CallSite, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, g.edges[i])
	}
	return out
}

// Callees returns the call sites made from fn.
func (g *Graph) Callees(fn models.FunctionID) []models.CallSite {
	idxs := g.callees[fn]
	out := make([]models.CallSite, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, g.edges[i])
	}
	return out
}

// NodeCount returns the number of functions in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of call sites in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

package callgraph

import (
	"sort"

	"github.com/jphelan/reaper/pkg/analyzer/extract"
	"github.com/jphelan/reaper/pkg/analyzer/resolve"
	"github.com/jphelan/reaper/pkg/models"
)

// Builder assembles a Graph from extracted facts. Edges are derived from
// file content only, so the graph is identical regardless of the order files
// were processed in.
type Builder struct {
	resolver *resolve.Resolver
	warnings *models.WarningSet
}

// Option configures a Builder.
type Option func(*Builder)

// WithWarnings routes unresolvable-reference warnings into ws.
func WithWarnings(ws *models.WarningSet) Option {
	return func(b *Builder) {
		b.warnings = ws
	}
}

// NewBuilder creates a builder backed by a frozen resolver.
func NewBuilder(r *resolve.Resolver, opts ...Option) *Builder {
	b := &Builder{resolver: r}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs the graph in two passes. Pass one binds same-class
// self/cls calls against local definitions only, at High confidence and with
// no resolver involvement. Pass two routes everything else through the
// resolver with the caller's file as context.
func (b *Builder) Build(facts []*extract.FileFacts) *Graph {
	sorted := make([]*extract.FileFacts, len(facts))
	copy(sorted, facts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	nodes := make(map[models.FunctionID]models.Definition)
	for _, f := range sorted {
		for _, def := range f.Definitions {
			if def.Callable() {
				nodes[def.FunctionID()] = def
			}
		}
	}

	var edges []models.CallSite
	for _, f := range sorted {
		consumed := make([]bool, len(f.Calls))

		// Pass 1: intra-file self calls.
		for i, call := range f.Calls {
			if call.Receiver != "self" && call.Receiver != "cls" {
				continue
			}
			if call.OwnerClass == "" {
				continue
			}
			method, ok := b.resolver.Method(f.Path, call.OwnerClass, call.Callee)
			if !ok {
				continue
			}
			edges = append(edges, models.NewCallSite(
				callerID(f.Path, call),
				method.FunctionID(),
				f.Path, call.Line,
				models.ConfidenceHigh,
			))
			consumed[i] = true
		}

		// Pass 2: cross-file resolution.
		for i, call := range f.Calls {
			if consumed[i] || call.Receiver == "self" || call.Receiver == "cls" {
				continue
			}
			if site, ok := b.resolveCall(f.Path, call); ok {
				edges = append(edges, site)
			} else {
				b.warnUnresolved(f.Path, call)
			}
		}

		edges = append(edges, b.wildcardExposure(f)...)
	}

	return newGraph(nodes, edges)
}

// callerID builds the caller identifier for a raw call, nil for module-level
// code. Construction goes through NewFunctionID so it is byte-identical to
// the IDs minted from definitions.
func callerID(file string, call extract.RawCall) *models.FunctionID {
	if call.CallerName == "" {
		return nil
	}
	id := models.NewFunctionID(file, call.CallerName, call.CallerLine)
	return &id
}

// warnUnresolved records a bare-name call that bound to no definition.
// Only bare names are reported: they should resolve within lexical scope or
// through an import, while attribute calls on local values are invisible to
// a static resolver and stay silent. Builtins are exempt.
func (b *Builder) warnUnresolved(file string, call extract.RawCall) {
	if b.warnings == nil || call.Receiver != "" || pythonBuiltins[call.Callee] {
		return
	}
	b.warnings.Add(models.WarnUnresolvable, file, call.Line, "no definition found for "+call.Callee)
}

// resolveCall turns one raw call into an edge, when the callee resolves to a
// callable definition. Unresolvable callees yield no edge; absence of
// evidence is handled by the confidence model, not by guessing.
func (b *Builder) resolveCall(file string, call extract.RawCall) (models.CallSite, bool) {
	if call.Receiver == "" {
		def, conf, ok := b.resolver.Resolve(file, call.Callee)
		if !ok || !def.Callable() {
			return models.CallSite{}, false
		}
		return models.NewCallSite(callerID(file, call), def.FunctionID(), file, call.Line, conf), true
	}

	// Module attribute call: `utils.helper()` via `import utils`.
	if def, conf, ok := b.resolver.Resolve(file, call.Receiver+"."+call.Callee); ok && def.Callable() {
		return models.NewCallSite(callerID(file, call), def.FunctionID(), file, call.Line, conf), true
	}

	// Value receiver: module singleton or class.
	recv, recvConf, ok := b.resolver.Resolve(file, call.Receiver)
	if !ok {
		return models.CallSite{}, false
	}

	switch recv.Kind {
	case models.DefModuleInstance:
		return b.singletonMethodCall(file, call, recv, recvConf)
	case models.DefClass:
		method, ok := b.resolver.Method(recv.File, recv.Name, call.Callee)
		if !ok {
			return models.CallSite{}, false
		}
		return models.NewCallSite(callerID(file, call), method.FunctionID(), file, call.Line, recvConf), true
	default:
		return models.CallSite{}, false
	}
}

// singletonMethodCall resolves `mgr.add(...)` where mgr is a module-level
// instance: the constructed type is resolved from the instance's defining
// file, then the method looked up on that class. The edge carries the
// weakest confidence along the chain.
func (b *Builder) singletonMethodCall(file string, call extract.RawCall, inst models.Definition, instConf models.Confidence) (models.CallSite, bool) {
	class, classConf, ok := b.resolver.Resolve(inst.File, inst.OwnerType)
	if !ok || class.Kind != models.DefClass {
		return models.CallSite{}, false
	}
	method, ok := b.resolver.Method(class.File, class.Name, call.Callee)
	if !ok {
		return models.CallSite{}, false
	}
	conf := instConf.Min(classConf).Min(inst.Confidence)
	return models.NewCallSite(callerID(file, call), method.FunctionID(), file, call.Line, conf), true
}

// wildcardExposure adds a Low-confidence potential-use site for every
// exported callable of each wildcard-imported module. A `from x import *`
// makes every export reachable by name, so none of them can be declared dead
// with certainty.
func (b *Builder) wildcardExposure(f *extract.FileFacts) []models.CallSite {
	var line uint32
	hasWildcard := false
	for _, imp := range f.Imports {
		if imp.Kind == models.ImportWildcard {
			hasWildcard = true
			line = imp.Line
			break
		}
	}
	if !hasWildcard {
		return nil
	}

	sources := b.resolver.WildcardSources(f.Path)
	seen := make(map[string]bool, len(sources))
	var sites []models.CallSite
	for _, src := range sources {
		if seen[src] {
			continue
		}
		seen[src] = true
		for _, def := range b.resolver.ExportedDefinitions(src) {
			if !def.Callable() {
				continue
			}
			sites = append(sites, models.NewCallSite(nil, def.FunctionID(), f.Path, line, models.ConfidenceLow))
		}
	}
	return sites
}

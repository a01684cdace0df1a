// Package resolve builds a project-wide symbol resolver from per-file facts.
// A sequential fold accumulates definitions, import bindings, and export
// sets; Build freezes the result into a Resolver that is read-only (except
// for its memo cache) and safe for concurrent queries.
package resolve

import (
	"path"
	"sort"
	"strings"

	"github.com/jphelan/reaper/pkg/analyzer/extract"
	"github.com/jphelan/reaper/pkg/models"
)

// DefaultMaxDepth bounds import-chain traversal. Deeper chains, almost
// always circular re-exports, resolve to Unknown instead of recursing
// forever.
const DefaultMaxDepth = 10

// Option configures a Builder.
type Option func(*Builder)

// WithMaxDepth overrides the traversal depth limit.
func WithMaxDepth(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxDepth = n
		}
	}
}

// WithWarnings routes resolver warnings into a shared set.
func WithWarnings(ws *models.WarningSet) Option {
	return func(b *Builder) {
		b.warnings = ws
	}
}

// WithRoots adds project roots consulted when resolving absolute imports.
func WithRoots(roots ...string) Option {
	return func(b *Builder) {
		for _, r := range roots {
			b.roots = append(b.roots, models.NormalizePath(r))
		}
	}
}

// Builder accumulates file facts before freezing them into a Resolver.
// AddFile is sequential; call Build exactly once.
type Builder struct {
	maxDepth int
	warnings *models.WarningSet
	roots    []string
	files    map[string]*fileRecord
	order    []string
}

type fileRecord struct {
	defs    map[string]models.Definition
	methods map[string]map[string]models.Definition
	imports []models.Import
	exports []string
}

// NewBuilder creates a Builder with default settings.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		maxDepth: DefaultMaxDepth,
		warnings: models.NewWarningSet(),
		files:    make(map[string]*fileRecord),
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.roots) == 0 {
		b.roots = []string{"."}
	}
	return b
}

// AddFile folds one file's facts into the builder. Later definitions of the
// same name in the same file shadow earlier ones, matching runtime behavior.
func (b *Builder) AddFile(facts *extract.FileFacts) {
	file := models.NormalizePath(facts.Path)
	rec, ok := b.files[file]
	if !ok {
		rec = &fileRecord{
			defs:    make(map[string]models.Definition),
			methods: make(map[string]map[string]models.Definition),
		}
		b.files[file] = rec
		b.order = append(b.order, file)
	}

	for _, def := range facts.Definitions {
		if def.Kind == models.DefMethod {
			owner := rec.methods[def.OwnerType]
			if owner == nil {
				owner = make(map[string]models.Definition)
				rec.methods[def.OwnerType] = owner
			}
			owner[def.Name] = def
			continue
		}
		rec.defs[def.Name] = def
	}
	rec.imports = append(rec.imports, facts.Imports...)
	rec.exports = append(rec.exports, facts.ExplicitExports...)
}

// symbolBinding maps a local name to a symbol in another file.
type symbolBinding struct {
	source string
	name   string
	conf   models.Confidence
}

// moduleBinding maps a local name (or dotted path) to a module file.
type moduleBinding struct {
	source string
	conf   models.Confidence
}

type wildcardSource struct {
	source string
	conf   models.Confidence
}

// Resolver answers project-wide symbol queries. Frozen after Build; the only
// mutable state is the memo cache and the shared warning set, both safe for
// concurrent use.
type Resolver struct {
	maxDepth  int
	warnings  *models.WarningSet
	defs      map[string]map[string]models.Definition
	methods   map[string]map[string]map[string]models.Definition
	symbols   map[string]map[string]symbolBinding
	modules   map[string]map[string]moduleBinding
	wildcards map[string][]wildcardSource
	exports   map[string][]models.Definition
	exportSet map[string]map[string]bool
	cache     *cache
}

// Build freezes the accumulated facts into a Resolver and reports import
// cycles as warnings.
func (b *Builder) Build() *Resolver {
	r := &Resolver{
		maxDepth:  b.maxDepth,
		warnings:  b.warnings,
		defs:      make(map[string]map[string]models.Definition, len(b.files)),
		methods:   make(map[string]map[string]map[string]models.Definition, len(b.files)),
		symbols:   make(map[string]map[string]symbolBinding, len(b.files)),
		modules:   make(map[string]map[string]moduleBinding, len(b.files)),
		wildcards: make(map[string][]wildcardSource),
		exports:   make(map[string][]models.Definition, len(b.files)),
		exportSet: make(map[string]map[string]bool, len(b.files)),
		cache:     newCache(),
	}

	for file, rec := range b.files {
		r.defs[file] = rec.defs
		r.methods[file] = rec.methods
	}

	for file, rec := range b.files {
		r.computeExports(file, rec)
	}

	importEdges := make(map[string]map[string]bool)
	for _, file := range b.order {
		rec := b.files[file]
		r.symbols[file] = make(map[string]symbolBinding)
		r.modules[file] = make(map[string]moduleBinding)
		for _, imp := range rec.imports {
			b.bindImport(r, file, imp, importEdges)
		}
		sort.Slice(r.wildcards[file], func(i, j int) bool {
			return r.wildcards[file][i].source < r.wildcards[file][j].source
		})
	}

	b.reportCycles(importEdges)
	return r
}

// computeExports determines which definitions a wildcard import exposes:
// the explicit __all__ list when present, otherwise every top-level
// definition whose name does not start with an underscore.
func (r *Resolver) computeExports(file string, rec *fileRecord) {
	set := make(map[string]bool)
	if len(rec.exports) > 0 {
		for _, name := range rec.exports {
			set[name] = true
		}
	} else {
		for name := range rec.defs {
			if !strings.HasPrefix(name, "_") {
				set[name] = true
			}
		}
	}
	r.exportSet[file] = set

	var defs []models.Definition
	for name := range set {
		if def, ok := rec.defs[name]; ok {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Name != defs[j].Name {
			return defs[i].Name < defs[j].Name
		}
		return defs[i].Line < defs[j].Line
	})
	r.exports[file] = defs
}

// edgeConfidence scores an import edge per its shape: absolute or aliased
// imports are High, shallow relative imports Medium, deep relative Low.
func edgeConfidence(depth int) models.Confidence {
	switch {
	case depth == 0:
		return models.ConfidenceHigh
	case depth <= 2:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// bindImport records the bindings one import statement introduces.
func (b *Builder) bindImport(r *Resolver, file string, imp models.Import, edges map[string]map[string]bool) {
	conf := edgeConfidence(imp.RelativeDepth)

	switch imp.Kind {
	case models.ImportDirect:
		source, srcConf, ok := b.moduleFile(file, imp.Module, 0)
		if !ok {
			return
		}
		conf = conf.Min(srcConf)
		local := imp.LocalName()
		r.modules[file][local] = moduleBinding{source: source, conf: conf}
		if imp.Alias == "" && imp.Module != local {
			// `import a.b.c` also answers for the full dotted receiver.
			r.modules[file][imp.Module] = moduleBinding{source: source, conf: conf}
		}
		addEdge(edges, file, source)

	case models.ImportFrom:
		for _, name := range imp.Names {
			src, srcConf, viaModule, ok := b.fromSource(file, imp, name.Name)
			if !ok {
				continue
			}
			bound := conf.Min(srcConf)
			if viaModule {
				r.modules[file][name.Local()] = moduleBinding{source: src, conf: bound}
			} else {
				r.symbols[file][name.Local()] = symbolBinding{source: src, name: name.Name, conf: bound}
			}
			addEdge(edges, file, src)
		}

	case models.ImportWildcard:
		source, _, ok := b.moduleFile(file, imp.Module, imp.RelativeDepth)
		if !ok {
			return
		}
		// Wildcard exposure is Low regardless of the module's distance.
		r.wildcards[file] = append(r.wildcards[file], wildcardSource{source: source, conf: models.ConfidenceLow})
		addEdge(edges, file, source)
	}
}

// fromSource locates the file that provides one name of a from-import.
// `from pkg import X` may mean a symbol in pkg's module (or package init) or
// the submodule pkg/X; the package-init ambiguity caps confidence at Medium.
func (b *Builder) fromSource(file string, imp models.Import, name string) (string, models.Confidence, bool, bool) {
	if imp.Module != "" {
		source, conf, ok := b.moduleFile(file, imp.Module, imp.RelativeDepth)
		if ok {
			if strings.HasSuffix(source, "/__init__.py") || source == "__init__.py" {
				// Name may instead be the submodule pkg/name.py.
				sub, subConf, subOK := b.moduleFile(file, imp.Module+"."+name, imp.RelativeDepth)
				if subOK && !b.fileExports(source, name) {
					return sub, subConf, true, true
				}
				conf = conf.Min(models.ConfidenceMedium)
			}
			return source, conf, false, true
		}
		// The module itself may be a package directory: bind the submodule.
		sub, subConf, subOK := b.moduleFile(file, imp.Module+"."+name, imp.RelativeDepth)
		if subOK {
			return sub, subConf, true, true
		}
		return "", models.ConfidenceUnknown, false, false
	}

	// `from . import name` binds the sibling module when it exists,
	// otherwise a symbol from the package init.
	sub, subConf, subOK := b.moduleFile(file, name, imp.RelativeDepth)
	if subOK {
		return sub, subConf, true, true
	}
	init, initConf, initOK := b.moduleFile(file, "", imp.RelativeDepth)
	if initOK {
		return init, initConf, false, true
	}
	return "", models.ConfidenceUnknown, false, false
}

// fileExports reports whether the given file exports name.
func (b *Builder) fileExports(file, name string) bool {
	rec, ok := b.files[file]
	if !ok {
		return false
	}
	if len(rec.exports) > 0 {
		for _, e := range rec.exports {
			if e == name {
				return true
			}
		}
		return false
	}
	_, hasDef := rec.defs[name]
	return hasDef && !strings.HasPrefix(name, "_")
}

// moduleFile maps a dotted module reference to a known project file. The
// candidate bases are the importing file's directory (walked up for relative
// imports) and the configured roots. Returns Medium-capped confidence when
// the match lands on a package __init__.
func (b *Builder) moduleFile(fromFile, module string, depth int) (string, models.Confidence, bool) {
	rel := strings.ReplaceAll(module, ".", "/")

	var bases []string
	if depth > 0 {
		base := path.Dir(fromFile)
		for i := 1; i < depth; i++ {
			base = path.Dir(base)
		}
		bases = []string{base}
	} else {
		bases = append(bases, path.Dir(fromFile))
		bases = append(bases, b.roots...)
	}

	for _, base := range bases {
		stem := models.NormalizePath(path.Join(base, rel))
		if module == "" {
			stem = models.NormalizePath(base)
		}
		if candidate := stem + ".py"; module != "" && b.knownFile(candidate) {
			return models.NormalizePath(candidate), models.ConfidenceHigh, true
		}
		if candidate := models.NormalizePath(path.Join(stem, "__init__.py")); b.knownFile(candidate) {
			return candidate, models.ConfidenceMedium, true
		}
	}
	return "", models.ConfidenceUnknown, false
}

func (b *Builder) knownFile(file string) bool {
	_, ok := b.files[models.NormalizePath(file)]
	return ok
}

func addEdge(edges map[string]map[string]bool, from, to string) {
	if from == to {
		return
	}
	if edges[from] == nil {
		edges[from] = make(map[string]bool)
	}
	edges[from][to] = true
}

// Resolve answers where a name used in file binds to. The result is
// deterministic for a frozen resolver. ok is false when the reference cannot
// be resolved; the confidence is then Unknown.
func (r *Resolver) Resolve(file, name string) (models.Definition, models.Confidence, bool) {
	file = models.NormalizePath(file)
	def, conf, ok, _ := r.resolveWithDepth(file, name, 0)
	return def, conf, ok
}

// resolveWithDepth is the recursive core. Every import traversal increments
// depth; exceeding the limit is the circuit breaker for circular imports.
// truncated results are not cached because a different entry point may still
// resolve them within the depth limit.
func (r *Resolver) resolveWithDepth(file, name string, depth int) (models.Definition, models.Confidence, bool, bool) {
	if depth > r.maxDepth {
		r.warnings.Add(models.WarnCycleExceeded, file, 0, "resolution of "+name+" exceeded max depth")
		return models.Definition{}, models.ConfidenceUnknown, false, true
	}

	if entry, ok := r.cache.get(file, name); ok {
		return entry.def, entry.conf, entry.ok, false
	}

	def, conf, ok, truncated := r.resolveUncached(file, name, depth)
	if !truncated {
		r.cache.put(file, name, cacheEntry{def: def, conf: conf, ok: ok})
	}
	return def, conf, ok, truncated
}

func (r *Resolver) resolveUncached(file, name string, depth int) (models.Definition, models.Confidence, bool, bool) {
	// Dotted references traverse a module binding first: `u.helper` with
	// `import utils as u` resolves helper inside utils.
	if idx := strings.LastIndex(name, "."); idx > 0 {
		head, rest := name[:idx], name[idx+1:]
		if mb, ok := r.moduleBindingFor(file, head); ok {
			def, conf, found, truncated := r.resolveWithDepth(mb.source, rest, depth+1)
			return def, conf.Min(mb.conf), found, truncated
		}
	}

	if def, ok := r.defs[file][name]; ok {
		return def, def.Confidence, true, false
	}

	if sb, ok := r.symbols[file][name]; ok {
		def, conf, found, truncated := r.resolveWithDepth(sb.source, sb.name, depth+1)
		if truncated {
			return models.Definition{}, models.ConfidenceUnknown, false, true
		}
		if !found {
			return models.Definition{}, models.ConfidenceUnknown, false, false
		}
		return def, conf.Min(sb.conf), true, false
	}

	for _, ws := range r.wildcards[file] {
		if !r.exportSet[ws.source][name] {
			continue
		}
		def, conf, found, truncated := r.resolveWithDepth(ws.source, name, depth+1)
		if truncated {
			return models.Definition{}, models.ConfidenceUnknown, false, true
		}
		if found {
			return def, conf.Min(ws.conf), true, false
		}
	}

	return models.Definition{}, models.ConfidenceUnknown, false, false
}

// moduleBindingFor looks up a module binding for a bare or dotted local name.
func (r *Resolver) moduleBindingFor(file, name string) (moduleBinding, bool) {
	mb, ok := r.modules[file][name]
	return mb, ok
}

// Method looks up a method on a class defined in file.
func (r *Resolver) Method(file, owner, name string) (models.Definition, bool) {
	def, ok := r.methods[models.NormalizePath(file)][owner][name]
	return def, ok
}

// Methods returns all methods of a class defined in file, sorted by name.
func (r *Resolver) Methods(file, owner string) []models.Definition {
	byName := r.methods[models.NormalizePath(file)][owner]
	out := make([]models.Definition, 0, len(byName))
	for _, def := range byName {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WildcardSources returns the files a wildcard import in file draws from.
func (r *Resolver) WildcardSources(file string) []string {
	srcs := r.wildcards[models.NormalizePath(file)]
	out := make([]string, 0, len(srcs))
	for _, ws := range srcs {
		out = append(out, ws.source)
	}
	return out
}

// ExportedDefinitions returns the definitions a wildcard import of file
// exposes, sorted by name.
func (r *Resolver) ExportedDefinitions(file string) []models.Definition {
	return r.exports[models.NormalizePath(file)]
}

// CacheSize reports the number of memoized resolutions.
func (r *Resolver) CacheSize() int {
	return r.cache.len()
}

// Warnings exposes the shared warning set.
func (r *Resolver) Warnings() *models.WarningSet {
	return r.warnings
}

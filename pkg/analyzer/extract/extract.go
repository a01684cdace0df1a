// Package extract collects per-file facts from Python ASTs: import
// statements, definitions, and raw call sites. Each file is processed in
// isolation; project-wide resolution happens later.
package extract

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jphelan/reaper/pkg/models"
	"github.com/jphelan/reaper/pkg/parser"
)

// FileFacts is everything the downstream passes need from one file. The AST
// is dropped once facts are extracted.
type FileFacts struct {
	Path            string
	Imports         []models.Import
	Definitions     []models.Definition
	Calls           []RawCall
	ExplicitExports []string
	Warnings        []models.Warning
}

// RawCall is an unresolved call observed in a file. CallerName is the
// qualified name of the enclosing function ("" for module-level code).
// Receiver holds the object expression before the final attribute, e.g.
// "self" in self.add() or "mgr" in mgr.add().
type RawCall struct {
	CallerName string
	CallerLine uint32
	OwnerClass string
	Receiver   string
	Callee     string
	Line       uint32
}

// Extractor turns parse results into FileFacts.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// File parses and extracts facts from a single file.
func (e *Extractor) File(p *parser.Parser, path string) (*FileFacts, error) {
	result, err := p.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}
	return e.Facts(result), nil
}

// Facts extracts facts from an already parsed file.
func (e *Extractor) Facts(result *parser.ParseResult) *FileFacts {
	facts := &FileFacts{Path: models.NormalizePath(result.Path)}
	c := &collector{facts: facts, source: result.Source}
	c.visit(result.Tree.RootNode(), scope{topLevel: true})
	return facts
}

// scope carries lexical context down the AST walk.
type scope struct {
	class       string
	funcName    string
	funcLine    uint32
	conditional bool
	topLevel    bool
}

type collector struct {
	facts  *FileFacts
	source []byte
}

func (c *collector) text(node *sitter.Node) string {
	return parser.GetNodeText(node, c.source)
}

func (c *collector) line(node *sitter.Node) uint32 {
	return node.StartPoint().Row + 1
}

func (c *collector) warn(kind models.WarningKind, node *sitter.Node, detail string) {
	c.facts.Warnings = append(c.facts.Warnings, models.Warning{
		Kind:   kind,
		File:   c.facts.Path,
		Line:   c.line(node),
		Detail: detail,
	})
}

func (c *collector) visit(node *sitter.Node, sc scope) {
	switch node.Type() {
	case "import_statement":
		c.importStatement(node)
		return
	case "import_from_statement":
		c.fromImport(node)
		return
	case "future_import_statement":
		return
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			c.visit(def, sc)
		}
		return
	case "function_definition":
		c.functionDef(node, sc)
		return
	case "class_definition":
		c.classDef(node, sc)
		return
	case "assignment":
		c.assignment(node, sc)
	case "call":
		c.call(node, sc)
	case "if_statement", "try_statement", "while_statement", "for_statement", "with_statement", "match_statement":
		sc.conditional = true
	case "ERROR":
		c.warn(models.WarnParse, node, "skipped malformed statement")
		return
	}

	for _, child := range parser.NamedChildren(node) {
		c.visit(child, sc)
	}
}

// importStatement handles `import m` and `import m as a`.
func (c *collector) importStatement(node *sitter.Node) {
	for _, child := range parser.NamedChildren(node) {
		switch child.Type() {
		case "dotted_name":
			c.facts.Imports = append(c.facts.Imports, models.Import{
				Kind:   models.ImportDirect,
				Module: c.text(child),
				File:   c.facts.Path,
				Line:   c.line(node),
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				c.warn(models.WarnParse, child, "skipped malformed aliased import")
				continue
			}
			c.facts.Imports = append(c.facts.Imports, models.Import{
				Kind:   models.ImportDirect,
				Module: c.text(name),
				Alias:  c.text(alias),
				File:   c.facts.Path,
				Line:   c.line(node),
			})
		default:
			c.warn(models.WarnParse, child, "skipped malformed import clause")
		}
	}
}

// fromImport handles `from m import a, b as c` and `from m import *`.
// Relative imports keep their dot count; no path resolution happens here.
func (c *collector) fromImport(node *sitter.Node) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		c.warn(models.WarnParse, node, "skipped from-import without module")
		return
	}

	module := ""
	depth := 0
	switch moduleNode.Type() {
	case "dotted_name":
		module = c.text(moduleNode)
	case "relative_import":
		for _, part := range parser.NamedChildren(moduleNode) {
			switch part.Type() {
			case "import_prefix":
				depth = strings.Count(c.text(part), ".")
			case "dotted_name":
				module = c.text(part)
			}
		}
		if depth == 0 {
			depth = strings.Count(c.text(moduleNode), ".") - strings.Count(module, ".")
		}
	default:
		c.warn(models.WarnParse, moduleNode, "skipped unrecognized module reference")
		return
	}

	imp := models.Import{
		Kind:          models.ImportFrom,
		Module:        module,
		RelativeDepth: depth,
		File:          c.facts.Path,
		Line:          c.line(node),
	}

	for _, child := range parser.NamedChildren(node) {
		if child.Equal(moduleNode) {
			continue
		}
		switch child.Type() {
		case "wildcard_import":
			imp.Kind = models.ImportWildcard
			imp.Names = nil
			c.facts.Imports = append(c.facts.Imports, imp)
			return
		case "dotted_name":
			imp.Names = append(imp.Names, models.ImportedName{Name: c.text(child)})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				c.warn(models.WarnParse, child, "skipped malformed aliased import")
				continue
			}
			imp.Names = append(imp.Names, models.ImportedName{Name: c.text(name), Alias: c.text(alias)})
		case "import_prefix":
			// Part of the relative module reference, already handled.
		default:
			c.warn(models.WarnParse, child, "skipped malformed import clause")
		}
	}

	if len(imp.Names) == 0 {
		c.warn(models.WarnParse, node, "skipped from-import without names")
		return
	}
	c.facts.Imports = append(c.facts.Imports, imp)
}

func (c *collector) functionDef(node *sitter.Node, sc scope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		c.warn(models.WarnParse, node, "skipped unnamed function")
		return
	}
	name := c.text(nameNode)

	def := models.Definition{
		File:       c.facts.Path,
		Name:       name,
		Kind:       models.DefFunction,
		Line:       c.line(node),
		EndLine:    node.EndPoint().Row + 1,
		Confidence: models.ConfidenceHigh,
	}
	if sc.class != "" && sc.funcName == "" {
		def.Kind = models.DefMethod
		def.OwnerType = sc.class
	}
	c.facts.Definitions = append(c.facts.Definitions, def)

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	inner := scope{
		class:    sc.class,
		funcName: def.QualifiedName(),
		funcLine: def.Line,
	}
	for _, child := range parser.NamedChildren(body) {
		c.visit(child, inner)
	}
}

func (c *collector) classDef(node *sitter.Node, sc scope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		c.warn(models.WarnParse, node, "skipped unnamed class")
		return
	}
	name := c.text(nameNode)

	c.facts.Definitions = append(c.facts.Definitions, models.Definition{
		File:       c.facts.Path,
		Name:       name,
		Kind:       models.DefClass,
		Line:       c.line(node),
		EndLine:    node.EndPoint().Row + 1,
		Confidence: models.ConfidenceHigh,
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	inner := scope{class: name}
	for _, child := range parser.NamedChildren(body) {
		c.visit(child, inner)
	}
}

// assignment records module-level singletons (`mgr = Manager()`) and
// explicit export lists (`__all__ = [...]`). Assignments nested under
// conditional statements are kept at Low confidence rather than dropped.
func (c *collector) assignment(node *sitter.Node, sc scope) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return
	}
	name := c.text(left)

	if name == "__all__" && sc.topLevel {
		c.facts.ExplicitExports = append(c.facts.ExplicitExports, c.stringList(right)...)
		return
	}

	if !sc.topLevel || right.Type() != "call" {
		return
	}
	typeName := c.callTarget(right)
	if typeName == "" || !startsUpper(typeName) {
		return
	}

	conf := models.ConfidenceHigh
	if sc.conditional {
		conf = models.ConfidenceLow
	}
	c.facts.Definitions = append(c.facts.Definitions, models.Definition{
		File:       c.facts.Path,
		Name:       name,
		Kind:       models.DefModuleInstance,
		OwnerType:  typeName,
		Line:       c.line(node),
		Confidence: conf,
	})
}

// callTarget returns the rightmost name of the called expression:
// "Manager" for Manager(), "Manager" for models.Manager().
func (c *collector) callTarget(call *sitter.Node) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return c.text(fn)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return c.text(attr)
		}
	}
	return ""
}

func (c *collector) call(node *sitter.Node, sc scope) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var receiver, callee string
	switch fn.Type() {
	case "identifier":
		callee = c.text(fn)
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		obj := fn.ChildByFieldName("object")
		if attr == nil || obj == nil {
			return
		}
		callee = c.text(attr)
		receiver = c.text(obj)
	default:
		return
	}

	c.detectDynamicImport(node, receiver, callee)

	c.facts.Calls = append(c.facts.Calls, RawCall{
		CallerName: sc.funcName,
		CallerLine: sc.funcLine,
		OwnerClass: sc.class,
		Receiver:   receiver,
		Callee:     callee,
		Line:       c.line(node),
	})
}

// detectDynamicImport flags __import__("m") and importlib.import_module("m")
// with literal arguments. Non-literal arguments stay invisible and the
// referenced symbols resolve to Unknown.
func (c *collector) detectDynamicImport(call *sitter.Node, receiver, callee string) {
	isDynamic := (receiver == "" && callee == "__import__") ||
		(receiver == "importlib" && callee == "import_module")
	if !isDynamic {
		return
	}

	args := call.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for _, arg := range parser.NamedChildren(args) {
		if arg.Type() == "string" {
			c.warn(models.WarnDynamicImport, call, "dynamic import of "+stripQuotes(c.text(arg)))
			return
		}
	}
}

// stringList extracts string literals from a list or tuple expression.
func (c *collector) stringList(node *sitter.Node) []string {
	if node.Type() != "list" && node.Type() != "tuple" {
		return nil
	}
	var out []string
	for _, child := range parser.NamedChildren(node) {
		if child.Type() == "string" {
			if s := stripQuotes(c.text(child)); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func stripQuotes(s string) string {
	s = strings.TrimLeft(s, "rbufRBUF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

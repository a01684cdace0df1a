package callgraph

// pythonBuiltins lists the builtin callables that never resolve to a project
// definition and therefore never warrant an unresolvable-reference warning.
var pythonBuiltins = map[string]bool{
	"abs":          true,
	"all":          true,
	"any":          true,
	"bool":         true,
	"bytearray":    true,
	"bytes":        true,
	"callable":     true,
	"classmethod":  true,
	"compile":      true,
	"complex":      true,
	"delattr":      true,
	"dict":         true,
	"dir":          true,
	"divmod":       true,
	"enumerate":    true,
	"eval":         true,
	"exec":         true,
	"filter":       true,
	"float":        true,
	"format":       true,
	"frozenset":    true,
	"getattr":      true,
	"globals":      true,
	"hasattr":      true,
	"hash":         true,
	"hex":          true,
	"id":           true,
	"input":        true,
	"int":          true,
	"isinstance":   true,
	"issubclass":   true,
	"iter":         true,
	"len":          true,
	"list":         true,
	"locals":       true,
	"map":          true,
	"max":          true,
	"min":          true,
	"next":         true,
	"object":       true,
	"oct":          true,
	"open":         true,
	"ord":          true,
	"pow":          true,
	"print":        true,
	"property":     true,
	"range":        true,
	"repr":         true,
	"reversed":     true,
	"round":        true,
	"set":          true,
	"setattr":      true,
	"slice":        true,
	"sorted":       true,
	"staticmethod": true,
	"str":          true,
	"sum":          true,
	"super":        true,
	"tuple":        true,
	"type":         true,
	"vars":         true,
	"zip":          true,
	"__import__":   true,

	"ArithmeticError":     true,
	"AssertionError":      true,
	"AttributeError":      true,
	"Exception":           true,
	"IndexError":          true,
	"KeyError":            true,
	"NotImplementedError": true,
	"OSError":             true,
	"RuntimeError":        true,
	"StopIteration":       true,
	"TypeError":           true,
	"ValueError":          true,
}

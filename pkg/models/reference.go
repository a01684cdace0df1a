package models

import (
	"fmt"
	"path/filepath"
)

// NormalizePath cleans a path and converts separators to forward slashes so
// identifiers built from paths compare byte-for-byte across platforms.
func NormalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// FunctionID uniquely identifies a callable unit in the project. It is a
// comparable value type usable as a map key; construct it through
// NewFunctionID so the file path is normalized.
type FunctionID struct {
	File string `json:"file"`
	Name string `json:"name"`
	Line uint32 `json:"line"`
}

// NewFunctionID builds a FunctionID with a normalized file path. Name is the
// qualified name ("helper" or "Manager.add_message" for methods).
func NewFunctionID(file, name string, line uint32) FunctionID {
	return FunctionID{File: NormalizePath(file), Name: name, Line: line}
}

func (id FunctionID) String() string {
	return fmt.Sprintf("%s:%d:%s", id.File, id.Line, id.Name)
}

// IsZero reports whether the ID is the zero value.
func (id FunctionID) IsZero() bool {
	return id.File == "" && id.Name == "" && id.Line == 0
}

// ImportKind classifies an import statement.
type ImportKind string

const (
	// ImportDirect covers `import m` and `import m as a`.
	ImportDirect ImportKind = "direct"
	// ImportFrom covers `from m import a, b as c`.
	ImportFrom ImportKind = "from"
	// ImportWildcard covers `from m import *`.
	ImportWildcard ImportKind = "wildcard"
)

// ImportedName is one name brought in by a from-import, with its optional
// local alias.
type ImportedName struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// Local returns the name the symbol is bound to in the importing file.
func (n ImportedName) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// Import is one import statement found in a source file. Relative imports
// record their dot count in RelativeDepth; resolution to a concrete file
// happens later, with full project context.
type Import struct {
	Kind          ImportKind     `json:"kind"`
	Module        string         `json:"module"`
	Names         []ImportedName `json:"names,omitempty"`
	Alias         string         `json:"alias,omitempty"`
	RelativeDepth int            `json:"relative_depth,omitempty"`
	File          string         `json:"file"`
	Line          uint32         `json:"line"`
}

// LocalName returns the binding a direct import introduces: the alias when
// present, otherwise the first segment of the module path.
func (i Import) LocalName() string {
	if i.Alias != "" {
		return i.Alias
	}
	for j := 0; j < len(i.Module); j++ {
		if i.Module[j] == '.' {
			return i.Module[:j]
		}
	}
	return i.Module
}

// DefinitionKind classifies a collected definition.
type DefinitionKind string

const (
	DefFunction DefinitionKind = "function"
	DefMethod   DefinitionKind = "method"
	DefClass    DefinitionKind = "class"
	// DefModuleInstance is a module-level singleton like `mgr = Manager()`.
	DefModuleInstance DefinitionKind = "module_instance"
)

// Definition is a named entity collected from a single file. OwnerType holds
// the enclosing class for methods and the constructed type for module
// instances. Confidence is High for plain definitions and Low for
// conditionally assigned module instances.
type Definition struct {
	File       string         `json:"file"`
	Name       string         `json:"name"`
	Kind       DefinitionKind `json:"kind"`
	OwnerType  string         `json:"owner_type,omitempty"`
	Line       uint32         `json:"line"`
	EndLine    uint32         `json:"end_line,omitempty"`
	Confidence Confidence     `json:"confidence"`
}

// QualifiedName returns "Owner.name" for methods and the bare name otherwise.
func (d Definition) QualifiedName() string {
	if d.Kind == DefMethod && d.OwnerType != "" {
		return d.OwnerType + "." + d.Name
	}
	return d.Name
}

// FunctionID returns the identifier for this definition's graph node.
func (d Definition) FunctionID() FunctionID {
	return NewFunctionID(d.File, d.QualifiedName(), d.Line)
}

// Callable reports whether the definition can appear as a call-graph node.
func (d Definition) Callable() bool {
	return d.Kind == DefFunction || d.Kind == DefMethod
}

package models

import (
	"sort"
	"sync"
)

// WarningKind classifies a recoverable analysis condition. Per-file and
// per-resolution failures degrade to warnings; they never abort a batch.
type WarningKind string

const (
	// WarnParse marks malformed syntax skipped during extraction.
	WarnParse WarningKind = "parse"
	// WarnFileUnreadable marks files that could not be read or parsed at all.
	WarnFileUnreadable WarningKind = "file_unreadable"
	// WarnCycleExceeded marks resolutions abandoned by the depth circuit breaker.
	WarnCycleExceeded WarningKind = "cycle_exceeded"
	// WarnUnresolvable marks references that resolved to no definition.
	WarnUnresolvable WarningKind = "unresolvable"
	// WarnImportCycle marks a strongly connected component in the import graph.
	WarnImportCycle WarningKind = "import_cycle"
	// WarnDynamicImport marks __import__/importlib calls with literal arguments.
	WarnDynamicImport WarningKind = "dynamic_import"
)

// Warning is one recoverable condition observed during analysis.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	File   string      `json:"file,omitempty"`
	Line   uint32      `json:"line,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

// WarningSet accumulates warnings from concurrent phases and renders a batch
// summary. Safe for concurrent use.
type WarningSet struct {
	mu       sync.Mutex
	warnings []Warning
}

// NewWarningSet creates an empty warning set.
func NewWarningSet() *WarningSet {
	return &WarningSet{}
}

// Add records a warning.
func (w *WarningSet) Add(kind WarningKind, file string, line uint32, detail string) {
	w.mu.Lock()
	w.warnings = append(w.warnings, Warning{Kind: kind, File: file, Line: line, Detail: detail})
	w.mu.Unlock()
}

// Len returns the number of recorded warnings.
func (w *WarningSet) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.warnings)
}

// All returns the warnings sorted by file, line, then kind.
func (w *WarningSet) All() []Warning {
	w.mu.Lock()
	out := make([]Warning, len(w.warnings))
	copy(out, w.warnings)
	w.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// CountByKind aggregates warning counts for the batch summary.
func (w *WarningSet) CountByKind() map[WarningKind]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	counts := make(map[WarningKind]int)
	for _, warning := range w.warnings {
		counts[warning.Kind]++
	}
	return counts
}

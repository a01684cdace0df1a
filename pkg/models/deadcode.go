package models

// DeadCodeFinding is the classification verdict for a single function.
// Dead findings carry the confidence that the function is unused; live
// findings carry the maximum confidence among the call sites that reached it.
type DeadCodeFinding struct {
	Function       FunctionID `json:"function"`
	Dead           bool       `json:"dead"`
	Confidence     Confidence `json:"confidence"`
	Reason         string     `json:"reason"`
	UsageLocations []CallSite `json:"usage_locations,omitempty"`
}

// DeadCodeSummary provides aggregate statistics for a run.
type DeadCodeSummary struct {
	TotalFunctions     int            `json:"total_functions"`
	TotalCallSites     int            `json:"total_call_sites"`
	DeadFunctions      int            `json:"dead_functions"`
	ByFile             map[string]int `json:"by_file"`
	TotalFilesAnalyzed int            `json:"total_files_analyzed"`
	WarningCounts      map[string]int `json:"warning_counts,omitempty"`
}

// NewDeadCodeSummary creates an initialized summary.
func NewDeadCodeSummary() DeadCodeSummary {
	return DeadCodeSummary{
		ByFile:        make(map[string]int),
		WarningCounts: make(map[string]int),
	}
}

// AddFinding updates the summary with a dead finding.
func (s *DeadCodeSummary) AddFinding(f DeadCodeFinding) {
	if !f.Dead {
		return
	}
	s.DeadFunctions++
	s.ByFile[f.Function.File]++
}

// DeadCodeAnalysis is the full result of an AnalyzeProject run.
type DeadCodeAnalysis struct {
	Findings []DeadCodeFinding `json:"findings"`
	Summary  DeadCodeSummary   `json:"summary"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

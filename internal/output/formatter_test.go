package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// findingsTable builds a small table shaped like the deadcode command output.
func findingsTable() *Table {
	return NewTable(
		"Potentially Dead Functions",
		[]string{"Location", "Function", "Certainty"},
		[][]string{
			{"src/utils.py:42", "orphan_helper", "high"},
			{"src/models.py:108", "User.legacy_save", "medium"},
		},
		nil,
		nil,
	)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"mermaid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterStdout(t *testing.T) {
	f, err := NewFormatter(FormatText, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()

	if f.Format() != FormatText {
		t.Errorf("Format() = %q, want %q", f.Format(), FormatText)
	}
	if !f.Colored() {
		t.Error("Colored() = false, want true")
	}
	if f.file != nil {
		t.Error("file should be nil for stdout")
	}
	if f.Writer() == nil {
		t.Error("Writer() should not be nil")
	}
}

func TestNewFormatterFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "findings.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if f.file == nil {
		t.Error("file should be set for file output")
	}
	if f.Colored() {
		t.Error("color should be stripped when writing to a file")
	}

	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	if _, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false); err == nil {
		t.Error("NewFormatter() should error for an unwritable path")
	}
}

func TestFormatterCloseStdout(t *testing.T) {
	f, err := NewFormatter(FormatText, "", false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() should not error for stdout: %v", err)
	}
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := findingsTable().RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Potentially Dead Functions",
		"LOCATION", "FUNCTION", "CERTAINTY",
		"src/utils.py:42", "orphan_helper", "high",
		"User.legacy_save",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, out)
		}
	}
}

func TestTableRenderTextFooter(t *testing.T) {
	table := NewTable(
		"Summary",
		[]string{"Metric", "Count"},
		[][]string{
			{"Functions", "120"},
			{"Dead", "7"},
		},
		[]string{"Dead ratio", "5.8%"},
		nil,
	)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Summary", "Functions", "120", "5.8%"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, out)
		}
	}
}

func TestTableRenderTextNoTitle(t *testing.T) {
	table := NewTable("", []string{"A", "B"}, [][]string{{"1", "2"}}, nil, nil)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if strings.Contains(buf.String(), "=") {
		t.Error("untitled table should not render a title underline")
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := findingsTable().RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"## Potentially Dead Functions",
		"| Location | Function | Certainty |",
		"| --- | --- | --- |",
		"| src/utils.py:42 | orphan_helper | high |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", want, out)
		}
	}
}

func TestTableRenderData(t *testing.T) {
	t.Run("wrapped_data_wins", func(t *testing.T) {
		data := map[string]any{"findings": 2}
		table := NewTable("T", []string{"H"}, [][]string{{"r"}}, nil, data)

		m, ok := table.RenderData().(map[string]any)
		if !ok || m["findings"] != 2 {
			t.Errorf("RenderData() = %v, want wrapped data", table.RenderData())
		}
	})

	t.Run("rows_to_maps", func(t *testing.T) {
		rows, ok := findingsTable().RenderData().([]map[string]string)
		if !ok {
			t.Fatalf("RenderData() = %T, want []map[string]string", findingsTable().RenderData())
		}
		if len(rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(rows))
		}
		if rows[0]["Function"] != "orphan_helper" || rows[0]["Certainty"] != "high" {
			t.Errorf("row 0 = %v", rows[0])
		}
	})

	t.Run("short_row", func(t *testing.T) {
		table := NewTable("T", []string{"A", "B", "C"}, [][]string{{"1", "2"}}, nil, nil)
		rows := table.RenderData().([]map[string]string)
		if len(rows[0]) != 2 {
			t.Errorf("short row should only map present columns, got %v", rows[0])
		}
	})
}

func TestSectionRenderText(t *testing.T) {
	section := &Section{
		Title:   "Summary",
		Content: "7 dead of 120 functions across 14 files",
		Sections: []Section{
			{Title: "Warnings", Content: "- src/app.py:3 [dynamic_import] importlib.import_module"},
		},
	}

	var buf bytes.Buffer
	if err := section.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Summary", "=======",
		"7 dead of 120 functions",
		"Warnings", "--------",
		"dynamic_import",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, out)
		}
	}
}

func TestSectionRenderMarkdown(t *testing.T) {
	section := &Section{
		Title:   "Summary",
		Content: "No dead functions found",
		Sections: []Section{
			{Title: "Inputs", Content: "src/"},
		},
	}

	var buf bytes.Buffer
	if err := section.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"## Summary", "No dead functions found", "### Inputs", "src/"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderMarkdown() missing %q in output:\n%s", want, out)
		}
	}
}

func TestSectionRenderData(t *testing.T) {
	data := map[string]any{"dead": 7}
	withData := &Section{Data: data}
	if m, ok := withData.RenderData().(map[string]any); !ok || m["dead"] != 7 {
		t.Error("RenderData() should return the Data field when set")
	}

	plain := &Section{Title: "Summary"}
	if plain.RenderData() != plain {
		t.Error("RenderData() should return the section itself when Data is nil")
	}
}

func TestReportRenderText(t *testing.T) {
	report := &Report{
		Title: "Dead Code Analysis",
		Sections: []Renderable{
			findingsTable(),
			&Section{Title: "Summary", Content: "2 dead of 120 functions"},
		},
	}

	var buf bytes.Buffer
	if err := report.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Dead Code Analysis",
		"orphan_helper",
		"Summary",
		"2 dead of 120 functions",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q in output:\n%s", want, out)
		}
	}
}

func TestReportRenderMarkdown(t *testing.T) {
	report := &Report{
		Title: "Dead Code Analysis",
		Sections: []Renderable{
			&Section{Title: "Summary", Content: "No dead functions found"},
		},
	}

	var buf bytes.Buffer
	if err := report.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# Dead Code Analysis") || !strings.Contains(out, "## Summary") {
		t.Errorf("RenderMarkdown() output:\n%s", out)
	}
}

func TestReportRenderData(t *testing.T) {
	t.Run("wrapped_data_wins", func(t *testing.T) {
		data := map[string]any{"findings": []string{"orphan_helper"}}
		report := &Report{Title: "ignored", Data: data}
		m, ok := report.RenderData().(map[string]any)
		if !ok {
			t.Fatalf("RenderData() = %T", report.RenderData())
		}
		if _, hasTitle := m["title"]; hasTitle {
			t.Error("wrapped data should replace the synthesized map")
		}
	})

	t.Run("synthesized", func(t *testing.T) {
		report := &Report{
			Title:    "Dead Code Analysis",
			Sections: []Renderable{&Section{Title: "Summary"}},
		}
		m, ok := report.RenderData().(map[string]any)
		if !ok {
			t.Fatalf("RenderData() = %T, want map", report.RenderData())
		}
		if m["title"] != "Dead Code Analysis" {
			t.Errorf("title = %v", m["title"])
		}
		if sections, ok := m["sections"].([]any); !ok || len(sections) != 1 {
			t.Errorf("sections = %v", m["sections"])
		}
	})
}

func TestFormatterOutputAllFormats(t *testing.T) {
	report := &Report{
		Title: "Dead Code Analysis",
		Sections: []Renderable{
			findingsTable(),
			&Section{Title: "Summary", Content: "2 dead of 120 functions"},
		},
	}

	for _, format := range []Format{FormatText, FormatJSON, FormatMarkdown, FormatTOON} {
		t.Run(string(format), func(t *testing.T) {
			outputPath := filepath.Join(t.TempDir(), "report."+string(format))

			f, err := NewFormatter(format, outputPath, false)
			if err != nil {
				t.Fatalf("NewFormatter() error: %v", err)
			}
			if err := f.Output(report); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			f.Close()

			content, err := os.ReadFile(outputPath)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if !strings.Contains(string(content), "orphan_helper") {
				t.Errorf("%s output missing finding:\n%s", format, content)
			}
		})
	}
}

func TestFormatterOutputRawData(t *testing.T) {
	type resolution struct {
		Name       string `json:"name"`
		Resolved   bool   `json:"resolved"`
		Confidence string `json:"confidence"`
	}
	raw := resolution{Name: "Manager.add_message", Resolved: true, Confidence: "high"}

	for _, format := range []Format{FormatJSON, FormatMarkdown, FormatTOON, FormatText} {
		t.Run(string(format), func(t *testing.T) {
			outputPath := filepath.Join(t.TempDir(), "out.txt")

			f, err := NewFormatter(format, outputPath, false)
			if err != nil {
				t.Fatalf("NewFormatter() error: %v", err)
			}
			if err := f.Output(raw); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			f.Close()

			content, err := os.ReadFile(outputPath)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if !strings.Contains(string(content), "Manager.add_message") {
				t.Errorf("%s output missing data:\n%s", format, content)
			}
		})
	}
}

func TestFormatterMarkdownRawDataFenced(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "out.md")

	f, err := NewFormatter(FormatMarkdown, outputPath, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if err := f.Output(map[string]int{"dead": 7}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(content), "```json") {
		t.Error("markdown raw output should be fenced as json")
	}
}

func TestFormatterJSONRoundTrip(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, outputPath, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if err := f.Output(map[string]any{
		"function":   "orphan_helper",
		"line":       42,
		"confidence": "high",
	}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	f.Close()

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if decoded["function"] != "orphan_helper" {
		t.Errorf("function = %v", decoded["function"])
	}
	if decoded["line"].(float64) != 42 {
		t.Errorf("line = %v", decoded["line"])
	}
}

func TestFormatterMessages(t *testing.T) {
	tests := []struct {
		name   string
		method func(*Formatter, string, ...any)
		format string
		args   []any
		want   string
	}{
		{"success", (*Formatter).Success, "analyzed %d files", []any{14}, "analyzed 14 files"},
		{"warning", (*Formatter).Warning, "unresolved import %s", []any{"os.path"}, "WARNING: unresolved import os.path"},
		{"error", (*Formatter).Error, "parse failed", nil, "ERROR: parse failed"},
		{"info", (*Formatter).Info, "scanning src/", nil, "scanning src/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputPath := filepath.Join(t.TempDir(), "out.txt")

			f, err := NewFormatter(FormatText, outputPath, false)
			if err != nil {
				t.Fatalf("NewFormatter() error: %v", err)
			}
			tt.method(f, tt.format, tt.args...)
			f.Close()

			content, err := os.ReadFile(outputPath)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if !strings.Contains(string(content), tt.want) {
				t.Errorf("output = %q, want to contain %q", content, tt.want)
			}
		})
	}
}

func TestConfidenceColor(t *testing.T) {
	for _, confidence := range []string{"high", "HIGH", "medium", "low", "unknown", ""} {
		if got := ConfidenceColor(confidence, "finding"); got == "" {
			t.Errorf("ConfidenceColor(%q) returned empty string", confidence)
		}
	}
	if got := ConfidenceColor("unknown", "plain"); got != "plain" {
		t.Errorf("unknown confidence should pass text through, got %q", got)
	}
}

func TestFormatterEmptyRenderables(t *testing.T) {
	tests := []struct {
		name string
		data Renderable
	}{
		{"empty_table", NewTable("", nil, nil, nil, nil)},
		{"empty_section", &Section{}},
		{"empty_report", &Report{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(FormatText, filepath.Join(t.TempDir(), "out.txt"), false)
			if err != nil {
				t.Fatalf("NewFormatter() error: %v", err)
			}
			defer f.Close()

			if err := f.Output(tt.data); err != nil {
				t.Errorf("Output() error with empty %s: %v", tt.name, err)
			}
		})
	}
}

func TestFormatterColoredRender(t *testing.T) {
	report := &Report{
		Title: "Dead Code Analysis",
		Sections: []Renderable{
			findingsTable(),
			&Section{Title: "Summary", Content: "2 dead"},
		},
	}

	var buf bytes.Buffer
	if err := report.RenderText(&buf, true); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("colored render should produce output")
	}
}

func TestFormatterSequentialOutputs(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "out.txt")

	f, err := NewFormatter(FormatText, outputPath, false)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}

	if err := f.Output(&Section{Title: "First pass", Content: "7 findings"}); err != nil {
		t.Errorf("Output() error: %v", err)
	}
	if err := f.Output(&Section{Title: "Second pass", Content: "0 findings"}); err != nil {
		t.Errorf("Output() error: %v", err)
	}
	f.Close()

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	out := string(content)
	if !strings.Contains(out, "First pass") || !strings.Contains(out, "Second pass") {
		t.Error("both outputs should be written to the file")
	}
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/jphelan/reaper/internal/output"
	"github.com/jphelan/reaper/internal/progress"
	"github.com/jphelan/reaper/internal/service/analysis"
	scannerSvc "github.com/jphelan/reaper/internal/service/scanner"
	"github.com/jphelan/reaper/pkg/models"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"dag"},
		Usage:     "Generate the project call graph (Mermaid output)",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "Import traversal depth limit (0 uses config)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Extraction worker count (0 uses 2x CPU count)",
			},
		},
		Action: runGraph,
	}
}

func runGraph(c *cli.Context) error {
	paths, cleanup, err := resolvePaths(c, getPaths(c))
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	scanSvc := scannerSvc.New(scannerSvc.WithConfig(cfg))
	scanResult, err := scanSvc.ScanPaths(paths)
	if err != nil {
		return err
	}

	if len(scanResult.Files) == 0 {
		color.Yellow("No Python files found")
		return nil
	}

	tracker := progress.NewTracker("Building call graph...", len(scanResult.Files))
	svc := analysis.New(analysis.WithConfig(cfg))
	proj, err := svc.BuildProject(context.Background(), scanResult.Files, analysis.ProjectOptions{
		MaxDepth:   c.Int("max-depth"),
		Workers:    c.Int("workers"),
		OnProgress: tracker.Tick,
	})
	tracker.FinishSuccess()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	// For JSON/TOON, output structured data
	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(struct {
			Nodes []models.FunctionID `json:"nodes"`
			Edges []models.CallSite   `json:"edges"`
		}{proj.Graph.Nodes(), proj.Graph.Edges()})
	}

	// Generate Mermaid diagram for text/markdown
	fmt.Fprintln(formatter.Writer(), "```mermaid")
	fmt.Fprintln(formatter.Writer(), "graph TD")
	for _, node := range proj.Graph.Nodes() {
		fmt.Fprintf(formatter.Writer(), "    %s[%s]\n", sanitizeID(node.String()), node.Name)
	}
	for _, edge := range proj.Graph.Edges() {
		from := sanitizeID(edge.File + ":module")
		if edge.Caller != nil {
			from = sanitizeID(edge.Caller.String())
		}
		fmt.Fprintf(formatter.Writer(), "    %s -->|%s| %s\n", from, edge.Confidence, sanitizeID(edge.Callee.String()))
	}
	fmt.Fprintln(formatter.Writer(), "```")

	fmt.Fprintf(formatter.Writer(), "\n%d functions, %d call sites across %d files\n",
		proj.Graph.NodeCount(), proj.Graph.EdgeCount(), proj.FileCount)

	if c.Bool("verbose") {
		warnings := proj.Warnings.All()
		if len(warnings) > 0 {
			color.Yellow("\nWarnings (%d):", len(warnings))
			for _, w := range warnings {
				fmt.Fprintf(formatter.Writer(), "  - %s:%d [%s] %s\n", w.File, w.Line, w.Kind, w.Detail)
			}
		}
	}

	return nil
}

// sanitizeID replaces non-alphanumeric characters for Mermaid diagram IDs.
func sanitizeID(id string) string {
	var result strings.Builder
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result.WriteRune(c)
		} else {
			result.WriteRune('_')
		}
	}
	return result.String()
}

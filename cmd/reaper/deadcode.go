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

func deadcodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "deadcode",
		Aliases:   []string{"dc"},
		Usage:     "Detect functions with no confident callers",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "confidence",
				Usage: "Minimum caller confidence that keeps a function alive: low, medium, high",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "Import traversal depth limit (0 uses config)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Extraction worker count (0 uses 2x CPU count)",
			},
		},
		Action: runDeadCode,
	}
}

func runDeadCode(c *cli.Context) error {
	paths, cleanup, err := resolvePaths(c, getPaths(c))
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var minConfidence models.Confidence
	if s := c.String("confidence"); s != "" {
		minConfidence, err = models.ParseConfidence(s)
		if err != nil {
			return err
		}
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
	result, err := svc.AnalyzeDeadCode(context.Background(), scanResult.Files, analysis.DeadCodeOptions{
		MinConfidence: minConfidence,
		MaxDepth:      c.Int("max-depth"),
		Workers:       c.Int("workers"),
		OnProgress:    tracker.Tick,
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

	// For JSON/TOON, output the full analysis
	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(result)
	}

	report := &output.Report{
		Title: "Dead Code Analysis",
		Data:  result,
	}

	if len(result.Findings) > 0 {
		var rows [][]string
		for _, f := range result.Findings {
			confStr := f.Confidence.String()
			if formatter.Colored() {
				confStr = output.ConfidenceColor(confStr, confStr)
			}

			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", f.Function.File, f.Function.Line),
				f.Function.Name,
				confStr,
				f.Reason,
			})
		}

		report.Sections = append(report.Sections, output.NewTable(
			"Potentially Dead Functions",
			[]string{"Location", "Function", "Certainty", "Reason"},
			rows,
			nil,
			nil,
		))
	} else {
		report.Sections = append(report.Sections, &output.Section{
			Content: "No dead functions found",
		})
	}

	report.Sections = append(report.Sections, &output.Section{
		Title: "Summary",
		Content: fmt.Sprintf("%d dead of %d functions across %d files (%d call sites)",
			result.Summary.DeadFunctions,
			result.Summary.TotalFunctions,
			result.Summary.TotalFilesAnalyzed,
			result.Summary.TotalCallSites),
	})

	if c.Bool("verbose") && len(result.Warnings) > 0 {
		var b strings.Builder
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s:%d [%s] %s\n", w.File, w.Line, w.Kind, w.Detail)
		}
		report.Sections = append(report.Sections, &output.Section{
			Title:   fmt.Sprintf("Warnings (%d)", len(result.Warnings)),
			Content: strings.TrimRight(b.String(), "\n"),
		})
	}

	return formatter.Output(report)
}

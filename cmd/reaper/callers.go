package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/jphelan/reaper/internal/locator"
	"github.com/jphelan/reaper/internal/output"
	"github.com/jphelan/reaper/internal/progress"
	"github.com/jphelan/reaper/internal/service/analysis"
	scannerSvc "github.com/jphelan/reaper/internal/service/scanner"
	"github.com/jphelan/reaper/pkg/models"
)

func callersCmd() *cli.Command {
	return &cli.Command{
		Name:      "callers",
		Usage:     "List call sites that reach a function or file",
		ArgsUsage: "<function|file|glob> [path...]",
		Action:    runCallers,
	}
}

func runCallers(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("target required (a function name like Manager.add_message, a file, or a glob)")
	}
	target := c.Args().First()
	paths := c.Args().Tail()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	paths, cleanup, err := resolvePaths(c, paths)
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

	loc, err := locator.Locate(target, proj.Graph.Nodes(), locator.WithBaseDir(paths[0]))
	if err != nil {
		if errors.Is(err, locator.ErrAmbiguousMatch) {
			return fmt.Errorf("%q matches multiple files: %s", target, strings.Join(loc.Candidates, ", "))
		}
		if errors.Is(err, locator.ErrNotFound) {
			return fmt.Errorf("function %q not found in project", target)
		}
		return err
	}

	var matched []models.FunctionID
	switch loc.Type {
	case locator.TargetFile:
		for _, id := range proj.Graph.Nodes() {
			if id.File == loc.Path {
				matched = append(matched, id)
			}
		}
		if len(matched) == 0 {
			return fmt.Errorf("no functions found in %s", loc.Path)
		}
	case locator.TargetFunction:
		matched = loc.Functions
	}

	type callerEntry struct {
		Function models.FunctionID `json:"function"`
		Sites    []models.CallSite `json:"sites"`
	}
	var entries []callerEntry
	for _, id := range matched {
		entries = append(entries, callerEntry{Function: id, Sites: proj.Graph.Callers(id)})
	}

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(entries)
	}

	for _, entry := range entries {
		var rows [][]string
		for _, site := range entry.Sites {
			caller := "<module>"
			if site.Caller != nil {
				caller = site.Caller.Name
			}
			confStr := site.Confidence.String()
			if formatter.Colored() {
				confStr = output.ConfidenceColor(confStr, confStr)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%s:%d", site.File, site.Line),
				caller,
				confStr,
			})
		}

		title := fmt.Sprintf("Callers of %s (%s:%d)", entry.Function.Name, entry.Function.File, entry.Function.Line)
		if len(rows) == 0 {
			formatter.Warning("%s: no callers found", title)
			continue
		}

		table := output.NewTable(
			title,
			[]string{"Call Site", "Caller", "Confidence"},
			rows,
			[]string{fmt.Sprintf("Total: %d", len(rows)), "", ""},
			nil,
		)
		if err := formatter.Output(table); err != nil {
			return err
		}
	}

	return nil
}

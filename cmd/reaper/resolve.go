package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/jphelan/reaper/internal/output"
	"github.com/jphelan/reaper/internal/progress"
	"github.com/jphelan/reaper/internal/service/analysis"
	scannerSvc "github.com/jphelan/reaper/internal/service/scanner"
	"github.com/jphelan/reaper/pkg/models"
)

func resolveCmd() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a name from a file's perspective through the import graph",
		ArgsUsage: "<file> <name> [path...]",
		Action:    runResolve,
	}
}

func runResolve(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: reaper resolve <file> <name> [path...]")
	}
	fromFile := c.Args().Get(0)
	name := c.Args().Get(1)
	paths := c.Args().Slice()[2:]
	if len(paths) == 0 {
		paths = []string{filepath.Dir(fromFile)}
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

	tracker := progress.NewTracker("Resolving imports...", len(scanResult.Files))
	svc := analysis.New(analysis.WithConfig(cfg))
	proj, err := svc.BuildProject(context.Background(), scanResult.Files, analysis.ProjectOptions{
		OnProgress: tracker.Tick,
	})
	tracker.FinishSuccess()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	absFile, err := filepath.Abs(fromFile)
	if err != nil {
		return fmt.Errorf("invalid file %s: %w", fromFile, err)
	}

	def, conf, ok := proj.Resolver.Resolve(models.NormalizePath(absFile), name)

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	type resolution struct {
		Name       string             `json:"name"`
		From       string             `json:"from"`
		Resolved   bool               `json:"resolved"`
		Definition *models.Definition `json:"definition,omitempty"`
		Confidence models.Confidence  `json:"confidence"`
	}
	res := resolution{Name: name, From: fromFile, Resolved: ok, Confidence: conf}
	if ok {
		res.Definition = &def
	}

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(res)
	}

	if !ok {
		formatter.Warning("%s could not be resolved from %s", name, fromFile)
		return nil
	}

	confStr := conf.String()
	if formatter.Colored() {
		confStr = output.ConfidenceColor(confStr, confStr)
	}
	formatter.Success("%s resolves to %s (%s:%d)", name, def.QualifiedName(), def.File, def.Line)
	fmt.Fprintf(formatter.Writer(), "  kind: %s\n  confidence: %s\n", def.Kind, confStr)

	return nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/jphelan/reaper/internal/progress"
	"github.com/jphelan/reaper/internal/remote"
	"github.com/jphelan/reaper/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

// resolvePaths swaps remote targets (owner/repo, git URLs) for local clone
// directories. The returned cleanup removes every clone and is safe to call
// when nothing was cloned.
func resolvePaths(c *cli.Context, paths []string) ([]string, func(), error) {
	var sources []*remote.Source
	cleanup := func() {
		for _, s := range sources {
			s.Cleanup()
		}
	}

	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		src, err := remote.Parse(p)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if src == nil {
			resolved = append(resolved, p)
			continue
		}

		spinner := progress.NewSpinner(fmt.Sprintf("Cloning %s...", src.URL))
		if err := src.Clone(c.Context, io.Discard, c.Bool("shallow")); err != nil {
			spinner.FinishError(err)
			cleanup()
			return nil, nil, err
		}
		spinner.FinishSuccess()
		sources = append(sources, src)
		resolved = append(resolved, src.CloneDir)
	}
	return resolved, cleanup, nil
}

// loadConfig loads the config file named by --config, or searches the
// standard locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

func main() {
	app := &cli.App{
		Name:     "reaper",
		Usage:    "Dead code detection for Python projects",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `Reaper builds a confidence-scored call graph across a Python project
and reports functions that nothing calls. Import resolution follows
aliases, relative imports, re-export chains, and wildcard imports,
scoring each call edge by how certain the resolution is.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"REAPER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output",
			},
			&cli.BoolFlag{
				Name:  "shallow",
				Usage: "Shallow clone when analyzing remote repositories",
			},
			&cli.StringFlag{
				Name:  "pprof",
				Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
			},
		},
		Before: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
					color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC() // Get up-to-date statistics
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
				color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
			}
			return nil
		},
		Commands: []*cli.Command{
			deadcodeCmd(),
			callersCmd(),
			resolveCmd(),
			graphCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

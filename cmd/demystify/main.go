package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/demystify/internal/config"
	"github.com/standardbeagle/demystify/internal/render"
	"github.com/standardbeagle/demystify/internal/version"
)

// loadConfigWithOverrides loads configuration from --config (or dir when the
// flag is unset) and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context, dir string) (*config.Config, error) {
	configDir := c.String("config")
	if configDir == "" {
		configDir = dir
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configDir, err)
	}

	if c.IsSet("parameters") {
		mode, err := render.ParseParameterMode(c.String("parameters"))
		if err != nil {
			return nil, err
		}
		cfg.Render.Parameters = mode.String()
	}
	if c.IsSet("markers") {
		cfg.Render.Markers = c.Bool("markers")
	}
	if c.IsSet("no-locations") {
		cfg.Render.Locations = !c.Bool("no-locations")
	}
	if c.IsSet("no-collapse") && c.Bool("no-collapse") {
		cfg.Filter.Collapse = nil
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// renderFlags are shared by every command that renders traces
func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "parameters",
			Aliases: []string{"p"},
			Usage:   "Parameter rendering: types, full, short or none",
		},
		&cli.BoolFlag{
			Name:  "markers",
			Usage: "Wrap return types and parameter lists in ‹ › markers",
		},
		&cli.BoolFlag{
			Name:  "no-locations",
			Usage: "Omit (at file:line) suffixes",
		},
		&cli.BoolFlag{
			Name:  "no-collapse",
			Usage: "Show framework frames instead of collapsing them",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "demystify",
		Usage:                  "Readable stack traces from compiler-generated frames",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Directory holding .demystify.kdl or .demystify.toml (default: current or watched directory)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Aliases:   []string{"r"},
				Usage:     "Demystify every exception of one or more trace dumps",
				ArgsUsage: "FILE|GLOB...",
				Flags: append(renderFlags(),
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Dumps rendered concurrently",
						Value:   defaultJobs(),
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				),
				Action: renderCommand,
			},
			{
				Name:      "parse",
				Usage:     "Decode compiler-generated member names",
				ArgsUsage: "NAME...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Only show names of this kind (lambda, local, state_machine, a tag character, ...)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: parseCommand,
			},
			{
				Name:  "watch",
				Usage: "Demystify dumps as they are written into a directory",
				Flags: append(renderFlags(),
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Directory to watch",
						Value:   ".",
					},
				),
				Action: watchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start MCP (Model Context Protocol) server with stdio transport",
				Action: mcpCommand,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

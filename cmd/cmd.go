// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/roster/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatNames() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// queryFlags selects the leaderboard query shared by students and export.
func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Search by name, or by phone when the text is all digits",
		},
		&cli.StringFlag{
			Name:    "track",
			Aliases: []string{"t"},
			Usage:   "Filter by track ID",
		},
	}
}

// setupCommand handles database and fixture setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "seed",
				Usage: "Load tracks and students from a TOML fixture",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the fixture file",
						Required: true,
					},
				},
				Action: r.SetupSeed,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// studentsCommand prints one leaderboard page.
func studentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "students",
		Aliases: []string{"ls", "board"},
		Usage:   "Show one page of the leaderboard",
		Flags: append(queryFlags(),
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "Page number, starting at 1",
				Value:   1,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + formatNames(),
				Value:   string(formatter.Text),
			},
		),
		Action: r.Students,
	}
}

// tracksCommand lists the track catalog.
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List tracks",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Tracks,
	}
}

// exportCommand writes every page of a query, or every track, to disk.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the full leaderboard to a file",
		Flags: append(queryFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file, or directory with --all-tracks",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + formatNames(),
				Value:   string(formatter.CSV),
			},
			&cli.BoolFlag{
				Name:  "all-tracks",
				Usage: "Write one report per track plus a manifest",
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "Stop after this many pages (0 for all)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent track exports with --all-tracks",
				Value: 3,
			},
		),
		Action: r.Export,
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the leaderboard as JSON over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive leaderboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive leaderboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/roster-tui.log",
			},
		},
		Action: r.TUI,
	}
}

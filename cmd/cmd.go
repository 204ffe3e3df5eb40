// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/urfave/cli/v3"
)

// globalFlags are read by [Runner.Load] before any command runs.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error (overrides logging.level)",
		},
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to --config",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// runsCommand inspects the run history
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect recorded generation runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs, newest first",
				Flags: append(scopeFlags(),
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only runs of this kind: " + string(models.RunTracks) + ", " + string(models.RunSynteny) + " or " + string(models.RunCleanup),
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only runs with this status: " + string(models.RunCompleted) + ", " + string(models.RunPartial) + " or " + string(models.RunAborted),
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				),
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show one run and its failed tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "sequence"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a run from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "sequence"},
				},
				Action: r.RunsDelete,
			},
		},
	}
}

// pathsCommand exposes the path resolver
func pathsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "paths",
		Usage: "Resolve and convert track paths",
		Commands: []*cli.Command{
			{
				Name:  "resolve",
				Usage: "Resolve a sheet path (relative, absolute, URL or AUTO)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: append(scopeFlags(),
					&cli.StringFlag{
						Name:  "auto-type",
						Usage: "Genome file for AUTO paths: fasta or gff",
						Value: "gff",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.PathsResolve,
			},
			{
				Name:  "web",
				Usage: "Convert a filesystem path to its web URI",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.PathsWeb,
			},
			{
				Name:  "fs",
				Usage: "Convert a web URI to its filesystem path",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "uri"},
				},
				Action: r.PathsFS,
			},
			{
				Name:  "track-dir",
				Usage: "Print (and create) the data directory for a track type",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "type"},
				},
				Flags:  scopeFlags(),
				Action: r.PathsTrackDir,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing and removing tracks.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse and remove generated tracks interactively",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Start with dry run on (toggle with t)",
			},
		},
		Action: r.TUI,
	}
}

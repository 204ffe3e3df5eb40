package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/services"
	"github.com/urfave/cli/v3"
)

// Sync regenerates every sheet listed in a manifest.
//
// Entries run in order. A failing entry is reported and the next one still
// runs; the command fails at the end if any entry failed.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	manifest, err := services.LoadManifest(cmd.String("manifest"))
	if err != nil {
		return err
	}

	only := cmd.String("only")
	forceAll := cmd.Bool("force")
	dryRun := cmd.Bool("dry-run")

	total := models.NewBatchReport()
	var errs []error
	ran := 0
	for _, entry := range manifest.Sheets {
		if only != "" && entry.Label() != only {
			continue
		}
		ran++

		r.writePlainln("▶ %s", entry.Label())
		force := forcePolicy(forceAll, entry.Force)
		clean := entry.Clean || cmd.Bool("clean")

		var report *models.BatchReport
		switch entry.Kind {
		case services.KindSynteny:
			report, err = r.runSynteny(ctx, syntenyJob{
				SheetID: entry.SheetID, GID: entry.GID, Force: force, DryRun: dryRun, Clean: clean,
			})
		default:
			report, err = r.runTracks(ctx, trackJob{
				SheetID: entry.SheetID, GID: entry.GID, Organism: entry.Organism, Assembly: entry.Assembly,
				Force: force, DryRun: dryRun, Clean: clean,
			})
		}

		if report != nil {
			total.Merge(report)
			c := report.Counts
			r.writePlain("  %d created, %d skipped, %d failed\n", c.Created, c.Skipped, c.Failed)
		}
		if err != nil {
			r.logger.Error("sheet failed", "sheet", entry.Label(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", entry.Label(), err))
		}
	}

	if only != "" && ran == 0 {
		return fmt.Errorf("no manifest entry named %q", only)
	}

	title := fmt.Sprintf("Sync of %d sheets%s", ran, dryRunLabel(dryRun))
	r.writeSummary(title, total)
	if exportErr := r.exportReport(cmd, total, title); exportErr != nil {
		errs = append(errs, exportErr)
	}
	return errors.Join(errs...)
}

// syncCommand regenerates all sheets of a deployment
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Regenerate every sheet listed in a YAML manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "Path to the sheets manifest",
				Value:   "sheets.yaml",
			},
			&cli.StringFlag{
				Name:  "only",
				Usage: "Run only the entry with this name",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Regenerate every track, even when its config exists",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be generated without writing anything",
			},
			&cli.BoolFlag{
				Name:  "clean",
				Usage: "Remove orphaned track configs for every entry",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write the combined batch report to this file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: " + formatList() + " (default: from file extension)",
			},
		},
		Action: r.Sync,
	}
}

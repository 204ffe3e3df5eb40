package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jbtracks/internal/formatter"
	"github.com/desertthunder/jbtracks/internal/handlers"
	"github.com/desertthunder/jbtracks/internal/manager"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/desertthunder/jbtracks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// trackJob is one track sheet to generate.
type trackJob struct {
	SheetID  string
	GID      string
	Organism string
	Assembly string
	Force    models.ForcePolicy
	DryRun   bool
	Clean    bool
}

// forcePolicy maps --force and --force-id onto a [models.ForcePolicy]. --force wins.
func forcePolicy(all bool, ids []string) models.ForcePolicy {
	switch {
	case all:
		return models.ForceAll()
	case len(ids) > 0:
		return models.ForceOnly(ids...)
	default:
		return models.NoForce()
	}
}

// watchProgress prints progress updates until the returned stop function is called.
func (r *Runner) watchProgress() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.GenerateRegular, tasks.GenerateCombo, tasks.GenerateSynteny:
				r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.Complete:
				r.logger.Debug(update.Message)
			}
		}
	}()
	return progress, func() {
		close(progress)
		<-done
	}
}

// runTracks loads a track sheet, generates its tracks and optionally removes orphans.
//
// A non-dry run is recorded in the run history, including aborted ones.
func (r *Runner) runTracks(ctx context.Context, job trackJob) (*models.BatchReport, error) {
	if job.SheetID == "" || job.Organism == "" || job.Assembly == "" {
		return nil, fmt.Errorf("%w: sheet, organism and assembly", shared.ErrMissingArgument)
	}
	if err := r.validated(); err != nil {
		return nil, err
	}

	gen, err := tasks.NewTrackGenerator(tasks.Options{Resolver: r.resolver, Logger: r.logger, Source: r.sheets})
	if err != nil {
		return nil, err
	}

	run := models.NewGenerationRun(models.RunTracks, job.Organism, job.Assembly)
	run.SetSheet(job.SheetID, job.GID)

	r.logger.Info("loading track sheet", "sheet", job.SheetID, "gid", job.GID, "organism", job.Organism, "assembly", job.Assembly)
	sheet, err := gen.LoadFromSheet(ctx, job.SheetID, job.GID, job.Organism, job.Assembly)
	if err != nil {
		if !job.DryRun {
			run.Complete(nil, err)
			r.recordRun(run)
		}
		return nil, err
	}
	r.writePlain("Loaded %d tracks and %d combo tracks for %s/%s%s\n",
		len(sheet.Regular), len(sheet.Combo), job.Organism, job.Assembly, dryRunLabel(job.DryRun))

	progress, stop := r.watchProgress()
	report, genErr := gen.GenerateTracks(sheet.Regular, sheet.Combo, tasks.GenerateOptions{
		Force:    job.Force,
		DryRun:   job.DryRun,
		Progress: progress,
	})
	stop()

	if genErr == nil && job.Clean {
		ids := make([]string, 0, len(sheet.Regular)+len(sheet.Combo))
		for _, t := range sheet.Regular {
			ids = append(ids, t.TrackID)
		}
		for _, c := range sheet.Combo {
			ids = append(ids, c.TrackID)
		}
		run.SetRemoved(r.cleanTracks(gen, ids, job))
	}

	if !job.DryRun {
		run.Complete(report, genErr)
		r.recordRun(run)
	}
	return report, genErr
}

// cleanTracks removes orphans after generation. Dry runs only preview the removal.
func (r *Runner) cleanTracks(gen *tasks.TrackGenerator, ids []string, job trackJob) int {
	if job.DryRun {
		res := r.manager().CleanOrphanedTracks(ids, job.Organism, job.Assembly, manager.Options{DryRun: true})
		for _, item := range res.ItemsRemoved {
			r.writePlain("  would remove %s\n", item)
		}
		return len(res.ItemsRemoved)
	}
	removed := gen.CleanOrphanedTracks(ids, job.Organism, job.Assembly)
	r.writePlain("Removed %d orphaned tracks\n", removed)
	return removed
}

func dryRunLabel(dryRun bool) string {
	if dryRun {
		return handlers.DryRunLabel
	}
	return ""
}

// writeSummary prints the counts and failures of a batch.
func (r *Runner) writeSummary(title string, report *models.BatchReport) {
	c := report.Counts
	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Total: %d\n", c.Total)
	r.writePlain("✓ Created: %d\n", c.Created)
	r.writePlain("- Skipped: %d\n", c.Skipped)
	r.writePlain("✗ Failed: %d\n", c.Failed)

	if len(report.Failed) > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, f := range report.Failed {
			r.writePlain("  - %s (%s): %s\n", f.ID, f.Name, f.Error)
		}
	}
}

// exportReport writes the report when --report is set.
func (r *Runner) exportReport(cmd *cli.Command, report *models.BatchReport, title string) error {
	path := cmd.String("report")
	if path == "" || report == nil {
		return nil
	}
	var format formatter.Format
	if f := cmd.String("format"); f != "" {
		parsed, err := formatter.ParseFormat(f)
		if err != nil {
			return err
		}
		format = parsed
	}
	if err := formatter.WriteReport(path, format, report, title); err != nil {
		return err
	}
	r.logger.Info("report written", "path", path)
	return nil
}

// Generate loads one track sheet and writes its track configs.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	job := trackJob{
		SheetID:  cmd.String("sheet"),
		GID:      cmd.String("gid"),
		Organism: cmd.String("organism"),
		Assembly: cmd.String("assembly"),
		Force:    forcePolicy(cmd.Bool("force"), cmd.StringSlice("force-id")),
		DryRun:   cmd.Bool("dry-run"),
		Clean:    cmd.Bool("clean"),
	}

	report, err := r.runTracks(ctx, job)
	if report != nil {
		title := fmt.Sprintf("Tracks for %s/%s%s", job.Organism, job.Assembly, dryRunLabel(job.DryRun))
		r.writeSummary(title, report)
		if exportErr := r.exportReport(cmd, report, title); exportErr != nil && err == nil {
			err = exportErr
		}
	}
	return err
}

// generationFlags are shared by every command that generates tracks.
func generationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Regenerate every track, even when its config exists",
		},
		&cli.StringSliceFlag{
			Name:  "force-id",
			Usage: "Regenerate only the given track IDs (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Report what would be generated without writing anything",
		},
		&cli.BoolFlag{
			Name:  "clean",
			Usage: "Remove track configs that are no longer in the sheet",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write the batch report to this file",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Report format: " + formatList() + " (default: from file extension)",
		},
	}
}

func formatList() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// generateCommand generates the tracks of one organism and assembly
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate track configs for an assembly from a spreadsheet tab",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "sheet",
				Aliases:  []string{"s"},
				Usage:    "Spreadsheet ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "gid",
				Usage: "Spreadsheet tab gid",
				Value: "0",
			},
			&cli.StringFlag{
				Name:     "organism",
				Aliases:  []string{"o"},
				Usage:    "Organism directory name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "assembly",
				Aliases:  []string{"a"},
				Usage:    "Assembly directory name",
				Required: true,
			},
		}, generationFlags()...),
		Action: r.Generate,
	}
}

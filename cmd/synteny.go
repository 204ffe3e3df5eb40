package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/desertthunder/jbtracks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// syntenyJob is one synteny sheet to generate.
type syntenyJob struct {
	SheetID string
	GID     string
	Force   models.ForcePolicy
	DryRun  bool
	Clean   bool
}

// runSynteny loads a synteny sheet, generates its pair tracks and optionally
// removes orphans from every assembly pair the sheet mentions.
func (r *Runner) runSynteny(ctx context.Context, job syntenyJob) (*models.BatchReport, error) {
	if job.SheetID == "" {
		return nil, fmt.Errorf("%w: sheet", shared.ErrMissingArgument)
	}
	if err := r.validated(); err != nil {
		return nil, err
	}

	gen, err := tasks.NewSyntenyTrackGenerator(tasks.Options{Resolver: r.resolver, Logger: r.logger, Source: r.sheets})
	if err != nil {
		return nil, err
	}

	run := models.NewGenerationRun(models.RunSynteny, "", "")
	run.SetSheet(job.SheetID, job.GID)

	r.logger.Info("loading synteny sheet", "sheet", job.SheetID, "gid", job.GID)
	sheet, err := gen.LoadFromSheet(ctx, job.SheetID, job.GID)
	if err != nil {
		if !job.DryRun {
			run.Complete(nil, err)
			r.recordRun(run)
		}
		return nil, err
	}
	r.writePlain("Loaded %d synteny tracks%s\n", len(sheet.Tracks), dryRunLabel(job.DryRun))

	progress, stop := r.watchProgress()
	report, genErr := gen.GenerateTracks(sheet.Tracks, tasks.GenerateOptions{
		Force:    job.Force,
		DryRun:   job.DryRun,
		Progress: progress,
	})
	stop()

	if genErr == nil && job.Clean {
		if job.DryRun {
			r.writePlain("Skipping synteny cleanup in dry run\n")
		} else {
			removed := 0
			for _, pair := range pairIDs(sheet.Tracks) {
				removed += gen.CleanOrphanedTracks(pair.ids, pair.assembly1, pair.assembly2)
			}
			r.writePlain("Removed %d orphaned synteny tracks\n", removed)
			run.SetRemoved(removed)
		}
	}

	if !job.DryRun {
		run.Complete(report, genErr)
		r.recordRun(run)
	}
	return report, genErr
}

type pairTracks struct {
	assembly1 string
	assembly2 string
	ids       []string
}

// pairIDs groups track IDs by assembly pair in pair name order.
func pairIDs(tracks []*models.SyntenyTrackDescriptor) []pairTracks {
	byPair := map[string]*pairTracks{}
	for _, t := range tracks {
		if t.Assembly1 == "" || t.Assembly2 == "" {
			continue
		}
		name := paths.AssemblyPairName(t.Assembly1, t.Assembly2)
		p, ok := byPair[name]
		if !ok {
			p = &pairTracks{assembly1: t.Assembly1, assembly2: t.Assembly2}
			byPair[name] = p
		}
		p.ids = append(p.ids, t.TrackID)
	}

	names := make([]string, 0, len(byPair))
	for name := range byPair {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]pairTracks, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, *byPair[name])
	}
	return pairs
}

// Synteny loads one synteny sheet and writes its dual-assembly track configs.
func (r *Runner) Synteny(ctx context.Context, cmd *cli.Command) error {
	job := syntenyJob{
		SheetID: cmd.String("sheet"),
		GID:     cmd.String("gid"),
		Force:   forcePolicy(cmd.Bool("force"), cmd.StringSlice("force-id")),
		DryRun:  cmd.Bool("dry-run"),
		Clean:   cmd.Bool("clean"),
	}

	report, err := r.runSynteny(ctx, job)
	if report != nil {
		title := "Synteny tracks" + dryRunLabel(job.DryRun)
		r.writeSummary(title, report)
		if exportErr := r.exportReport(cmd, report, title); exportErr != nil && err == nil {
			err = exportErr
		}
	}
	return err
}

// syntenyCommand generates dual-assembly tracks
func syntenyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "synteny",
		Aliases: []string{"syn"},
		Usage:   "Generate synteny track configs from a spreadsheet tab",
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
		}, generationFlags()...),
		Action: r.Synteny,
	}
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/jbtracks/internal/formatter"
	"github.com/desertthunder/jbtracks/internal/manager"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/desertthunder/jbtracks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ErrRemovalFailed is returned when a removal finished with errors.
var ErrRemovalFailed = errors.New("removal finished with errors")

func removeOptions(cmd *cli.Command) manager.Options {
	return manager.Options{DryRun: cmd.Bool("dry-run"), RemoveData: cmd.Bool("data")}
}

// writeRemoval prints a removal result and turns failures into an error.
func (r *Runner) writeRemoval(cmd *cli.Command, res *manager.Result, title string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	data, err := formatter.ExportRemoval(res, format, title)
	if err != nil {
		return err
	}
	if err := r.writeRaw(data); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: %d errors", ErrRemovalFailed, len(res.Errors))
	}
	return nil
}

// RemoveTrack removes one track config and optionally its data files.
func (r *Runner) RemoveTrack(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}
	organism, assembly, err := scope(cmd)
	if err != nil {
		return err
	}
	opts := removeOptions(cmd)
	res := r.manager().RemoveTrack(trackID, organism, assembly, opts)
	return r.writeRemoval(cmd, res, fmt.Sprintf("Remove %s from %s/%s%s", trackID, organism, assembly, dryRunLabel(opts.DryRun)))
}

// RemoveAssembly removes everything generated for an assembly.
func (r *Runner) RemoveAssembly(ctx context.Context, cmd *cli.Command) error {
	organism, assembly, err := scope(cmd)
	if err != nil {
		return err
	}
	opts := removeOptions(cmd)
	res := r.manager().RemoveAssembly(organism, assembly, opts)
	return r.writeRemoval(cmd, res, fmt.Sprintf("Remove %s/%s%s", organism, assembly, dryRunLabel(opts.DryRun)))
}

// RemoveOrganism removes everything generated for an organism.
func (r *Runner) RemoveOrganism(ctx context.Context, cmd *cli.Command) error {
	organism := cmd.String("organism")
	if organism == "" {
		return fmt.Errorf("%w: --organism", shared.ErrMissingArgument)
	}
	opts := removeOptions(cmd)
	res := r.manager().RemoveOrganism(organism, opts)
	return r.writeRemoval(cmd, res, fmt.Sprintf("Remove %s%s", organism, dryRunLabel(opts.DryRun)))
}

// RemoveOrphans removes every track of an assembly that its sheet no longer lists.
//
// Non-dry runs are recorded as cleanup runs.
func (r *Runner) RemoveOrphans(ctx context.Context, cmd *cli.Command) error {
	organism, assembly, err := scope(cmd)
	if err != nil {
		return err
	}
	sheetID, gid := cmd.String("sheet"), cmd.String("gid")
	if sheetID == "" {
		return fmt.Errorf("%w: --sheet", shared.ErrMissingArgument)
	}

	gen, err := tasks.NewTrackGenerator(tasks.Options{Resolver: r.resolver, Logger: r.logger, Source: r.sheets})
	if err != nil {
		return err
	}
	sheet, err := gen.LoadFromSheet(ctx, sheetID, gid, organism, assembly)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(sheet.Regular)+len(sheet.Combo))
	for _, t := range sheet.Regular {
		ids = append(ids, t.TrackID)
	}
	for _, c := range sheet.Combo {
		ids = append(ids, c.TrackID)
	}

	opts := removeOptions(cmd)
	res := r.manager().CleanOrphanedTracks(ids, organism, assembly, opts)

	if !opts.DryRun {
		run := models.NewGenerationRun(models.RunCleanup, organism, assembly)
		run.SetSheet(sheetID, gid)
		run.SetRemoved(len(res.ItemsRemoved))
		var runErr error
		if !res.Success {
			runErr = fmt.Errorf("%w: %d errors", ErrRemovalFailed, len(res.Errors))
		}
		run.Complete(nil, runErr)
		r.recordRun(run)
	}
	return r.writeRemoval(cmd, res, fmt.Sprintf("Orphans of %s/%s%s", organism, assembly, dryRunLabel(opts.DryRun)))
}

func removalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Report what would be removed without deleting anything",
		},
		&cli.BoolFlag{
			Name:  "data",
			Usage: "Also remove genome and track data files",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: " + formatList(),
			Value: string(formatter.Text),
		},
	}
}

// removeCommand removes generated track configs
func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Aliases: []string{"rm"},
		Usage:   "Remove generated track configs",
		Commands: []*cli.Command{
			{
				Name:  "track",
				Usage: "Remove one track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Flags:  append(scopeFlags(), removalFlags()...),
				Action: r.RemoveTrack,
			},
			{
				Name:   "assembly",
				Usage:  "Remove every config of an assembly",
				Flags:  append(scopeFlags(), removalFlags()...),
				Action: r.RemoveAssembly,
			},
			{
				Name:   "organism",
				Usage:  "Remove every config of an organism",
				Flags:  append(scopeFlags()[:1], removalFlags()...),
				Action: r.RemoveOrganism,
			},
			{
				Name:  "orphans",
				Usage: "Remove tracks no longer listed in the sheet",
				Flags: append(append(scopeFlags(),
					&cli.StringFlag{
						Name:    "sheet",
						Aliases: []string{"s"},
						Usage:   "Spreadsheet ID",
					},
					&cli.StringFlag{
						Name:  "gid",
						Usage: "Spreadsheet tab gid",
						Value: "0",
					},
				), removalFlags()...),
				Action: r.RemoveOrphans,
			},
		},
	}
}

package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/jbtracks/internal/formatter"
	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/urfave/cli/v3"
)

// outputFormat parses the --format flag, defaulting to plain text.
func outputFormat(cmd *cli.Command) (formatter.Format, error) {
	f := cmd.String("format")
	if f == "" {
		return formatter.Text, nil
	}
	return formatter.ParseFormat(f)
}

func scope(cmd *cli.Command) (string, string, error) {
	organism, assembly := cmd.String("organism"), cmd.String("assembly")
	if organism == "" || assembly == "" {
		return "", "", fmt.Errorf("%w: --organism and --assembly", shared.ErrMissingArgument)
	}
	return organism, assembly, nil
}

// TracksList prints every generated track of an assembly.
func (r *Runner) TracksList(ctx context.Context, cmd *cli.Command) error {
	organism, assembly, err := scope(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	tracks, err := r.manager().ListTracks(organism, assembly)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}
	data, err := formatter.ExportTracks(tracks, format, fmt.Sprintf("%s/%s", organism, assembly))
	if err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		if err := formatter.WriteExport(out, data); err != nil {
			return err
		}
		r.logger.Info("track listing written", "path", out, "tracks", len(tracks))
		return nil
	}
	return r.writeRaw(data)
}

// TracksStatus prints the ID, type, name and category of every track as JSON.
func (r *Runner) TracksStatus(ctx context.Context, cmd *cli.Command) error {
	organism, assembly, err := scope(cmd)
	if err != nil {
		return err
	}
	status, err := r.manager().TrackStatus(organism, assembly)
	if err != nil {
		return fmt.Errorf("failed to read track status: %w", err)
	}
	return r.writeJSON(status, cmd.Bool("pretty"))
}

// TracksStats prints per-type and per-access counts and the total data size.
func (r *Runner) TracksStats(ctx context.Context, cmd *cli.Command) error {
	organism, assembly, err := scope(cmd)
	if err != nil {
		return err
	}
	stats, err := r.manager().GetTrackStatistics(organism, assembly)
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s/%s", organism, assembly))
	r.writePlain("Tracks: %d\n", stats.Total)
	r.writePlain("Total size: %d bytes\n", stats.TotalSize)
	r.writeCounts("By type", stats.ByType)
	r.writeCounts("By access", stats.ByAccess)
	return nil
}

func (r *Runner) writeCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r.writePlain("\n%s:\n", title)
	for _, k := range keys {
		r.writePlain("  %-14s %d\n", k, counts[k])
	}
}

// TracksOrganisms lists organisms with track configs.
func (r *Runner) TracksOrganisms(ctx context.Context, cmd *cli.Command) error {
	organisms, err := r.manager().ListOrganisms()
	if err != nil {
		return fmt.Errorf("failed to list organisms: %w", err)
	}
	for _, o := range organisms {
		r.writePlain("%s\n", o)
	}
	return nil
}

// TracksAssemblies lists the assemblies of an organism.
func (r *Runner) TracksAssemblies(ctx context.Context, cmd *cli.Command) error {
	organism := cmd.String("organism")
	if organism == "" {
		return fmt.Errorf("%w: --organism", shared.ErrMissingArgument)
	}
	assemblies, err := r.manager().ListAssemblies(organism)
	if err != nil {
		return fmt.Errorf("failed to list assemblies: %w", err)
	}
	for _, a := range assemblies {
		r.writePlain("%s\n", a)
	}
	return nil
}

func scopeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "organism",
			Aliases: []string{"o"},
			Usage:   "Organism directory name",
		},
		&cli.StringFlag{
			Name:    "assembly",
			Aliases: []string{"a"},
			Usage:   "Assembly directory name",
		},
	}
}

// tracksCommand inspects generated track configs
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Inspect generated track configs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the tracks of an assembly",
				Flags: append(scopeFlags(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: " + formatList(),
						Value: string(formatter.Text),
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Write the listing to this file instead of stdout",
					},
				),
				Action: r.TracksList,
			},
			{
				Name:  "status",
				Usage: "Print track status as JSON",
				Flags: append(scopeFlags(),
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				),
				Action: r.TracksStatus,
			},
			{
				Name:  "stats",
				Usage: "Summarize the tracks of an assembly",
				Flags: append(scopeFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.TracksStats,
			},
			{
				Name:   "organisms",
				Usage:  "List organisms with track configs",
				Action: r.TracksOrganisms,
			},
			{
				Name:   "assemblies",
				Usage:  "List the assemblies of an organism",
				Flags:  scopeFlags()[:1],
				Action: r.TracksAssemblies,
			},
		},
	}
}

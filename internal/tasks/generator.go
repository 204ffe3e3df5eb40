package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/handlers"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/services"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// TrackGenerator generates single-assembly track configs.
type TrackGenerator struct {
	resolver *paths.Resolver
	registry *handlers.Registry
	source   services.SheetSource
	logger   *log.Logger
}

// NewTrackGenerator creates a generator over opts.Handlers, or every single-assembly
// handler when none are given.
func NewTrackGenerator(opts Options) (*TrackGenerator, error) {
	logger, reg, err := prepare(opts, handlers.SingleAssembly)
	if err != nil {
		return nil, err
	}
	return &TrackGenerator{resolver: opts.Resolver, registry: reg, source: opts.Source, logger: logger}, nil
}

// Types returns the registered type identifiers in registration order.
func (g *TrackGenerator) Types() []string { return g.registry.Types() }

// DetermineTrackType returns the type of path, or false when no handler claims it.
func (g *TrackGenerator) DetermineTrackType(path string) (string, bool) {
	return g.registry.DetermineType(path)
}

// TrackExists reports whether an artifact named exactly trackID exists under any
// registered type. Combo descriptors are checked case-insensitively by the combo pass.
func (g *TrackGenerator) TrackExists(trackID, organism, assembly string) bool {
	for _, t := range g.registry.Types() {
		if shared.FileExists(g.resolver.TrackConfigPath(organism, assembly, t, trackID)) {
			return true
		}
	}
	return false
}

// LoadFromSheet downloads and parses a track sheet.
//
// A sheet without the required columns is an [shared.ErrSchema] error.
func (g *TrackGenerator) LoadFromSheet(ctx context.Context, sheetID, gid, organism, assembly string) (*services.ParsedSheet, error) {
	if g.source == nil {
		return nil, fmt.Errorf("%w: no sheet source configured", shared.ErrConfiguration)
	}
	raw, err := g.source.Download(ctx, sheetID, gid)
	if err != nil {
		return nil, err
	}
	sheet, err := services.ParseTracks(raw, organism, assembly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSchema, err)
	}
	if missing := services.MissingColumns(sheet.Columns, services.RequiredColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: sheet %s is missing required columns: %s", shared.ErrSchema, sheetID, strings.Join(missing, ", "))
	}
	g.logger.Info("loaded sheet", "sheet_id", sheetID, "gid", gid, "regular", len(sheet.Regular), "combo", len(sheet.Combo))
	return sheet, nil
}

// GenerateTracks generates regular tracks, then combo tracks.
//
// Existing artifacts are skipped unless opts.Force applies to the track. The
// report accounts for every descriptor. A configuration error, including an
// unset metadata root, stops the batch and is returned with the partial report.
func (g *TrackGenerator) GenerateTracks(tracks []*models.TrackDescriptor, combos []*models.ComboTrackDescriptor, opts GenerateOptions) (*models.BatchReport, error) {
	report := models.NewBatchReport()
	if err := g.resolver.CheckMetadataRoot(); err != nil {
		g.logger.Error("aborting generation", "error", err)
		return report, err
	}
	total := len(tracks) + len(combos)
	step := 0

	for _, d := range tracks {
		step++
		res, err := g.generateTrack(d, opts)
		report.Record(d.TrackID, d.Name, res)
		sendProgress(opts.Progress, trackUpdate(GenerateRegular, step, total, d, res, opts.DryRun))
		if err != nil {
			g.logger.Error("aborting generation", "track_id", d.TrackID, "error", err)
			return report, err
		}
	}

	for _, c := range combos {
		step++
		res, err := g.generateCombo(c, opts)
		report.Record(c.TrackID, c.Name, res)
		sendProgress(opts.Progress, trackUpdate(GenerateCombo, step, total, &c.TrackDescriptor, res, opts.DryRun))
		if err != nil {
			g.logger.Error("aborting generation", "track_id", c.TrackID, "error", err)
			return report, err
		}
	}

	sendProgress(opts.Progress, completeUpdate(report, opts.DryRun))
	g.logger.Info("track generation finished"+label(opts.DryRun),
		"total", report.Counts.Total, "created", report.Counts.Created,
		"skipped", report.Counts.Skipped, "failed", report.Counts.Failed)
	return report, nil
}

func (g *TrackGenerator) generateTrack(d *models.TrackDescriptor, opts GenerateOptions) (models.GenerationResult, error) {
	force := opts.Force.Applies(d.TrackID)
	if !force && g.TrackExists(d.TrackID, d.Organism, d.Assembly) {
		g.logger.Debug("track exists, skipping", "track_id", d.TrackID)
		return models.SkippedResult(), nil
	}

	typeID, ok := g.DetermineTrackType(d.SourcePath)
	if !ok {
		g.logger.Warn("unknown track type", "track_id", d.TrackID, "path", d.SourcePath)
		return models.FailedResult(fmt.Sprintf("%v: %s", shared.ErrUnknownTrackType, d.SourcePath)), nil
	}
	return dispatch(g.registry, typeID, d, d.Organism, d.Assembly, handlers.Options{Force: force, DryRun: opts.DryRun})
}

func (g *TrackGenerator) generateCombo(c *models.ComboTrackDescriptor, opts GenerateOptions) (models.GenerationResult, error) {
	force := opts.Force.Applies(c.TrackID)
	if !force && shared.FileExists(g.resolver.ComboConfigPath(c.Organism, c.Assembly, c.TrackID)) {
		g.logger.Debug("combo track exists, skipping", "track_id", c.TrackID)
		return models.SkippedResult(), nil
	}
	return dispatch(g.registry, handlers.ComboType, c, c.Organism, c.Assembly, handlers.Options{Force: force, DryRun: opts.DryRun})
}

// CleanOrphanedTracks removes every artifact of organism/assembly whose ID is
// not in currentIDs and returns how many were removed. Combo IDs compare
// case-insensitively. Removal is best-effort.
func (g *TrackGenerator) CleanOrphanedTracks(currentIDs []string, organism, assembly string) int {
	keep := idSet(currentIDs)
	keepCombo := make(map[string]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		keepCombo[strings.ToLower(id)] = struct{}{}
	}

	removed := 0
	for _, t := range g.registry.Types() {
		set := keep
		if t == handlers.ComboType {
			set = keepCombo
		}
		removed += removeOrphans(g.resolver.TrackConfigDir(organism, assembly, t), func(id string) bool {
			_, ok := set[id]
			return ok
		}, g.logger)
	}
	return removed
}

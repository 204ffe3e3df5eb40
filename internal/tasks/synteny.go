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

// SyntenyTrackGenerator generates dual-assembly track configs, stored per
// canonical assembly pair.
type SyntenyTrackGenerator struct {
	resolver *paths.Resolver
	registry *handlers.Registry
	source   services.SheetSource
	logger   *log.Logger
}

// NewSyntenyTrackGenerator creates a generator over opts.Handlers, or every
// dual-assembly handler when none are given.
func NewSyntenyTrackGenerator(opts Options) (*SyntenyTrackGenerator, error) {
	logger, reg, err := prepare(opts, handlers.DualAssembly)
	if err != nil {
		return nil, err
	}
	return &SyntenyTrackGenerator{resolver: opts.Resolver, registry: reg, source: opts.Source, logger: logger}, nil
}

// AssemblyPairName returns the order-independent storage key of two assemblies.
func (g *SyntenyTrackGenerator) AssemblyPairName(assembly1, assembly2 string) string {
	return paths.AssemblyPairName(assembly1, assembly2)
}

func (g *SyntenyTrackGenerator) Types() []string { return g.registry.Types() }

func (g *SyntenyTrackGenerator) DetermineTrackType(path string) (string, bool) {
	return g.registry.DetermineType(path)
}

// TrackExists reports whether trackID exists under any registered type of the pair.
func (g *SyntenyTrackGenerator) TrackExists(trackID, assembly1, assembly2 string) bool {
	pair := g.AssemblyPairName(assembly1, assembly2)
	for _, t := range g.registry.Types() {
		if shared.FileExists(g.resolver.SyntenyConfigPath(pair, t, trackID)) {
			return true
		}
	}
	return false
}

// LoadFromSheet downloads and parses a synteny sheet.
func (g *SyntenyTrackGenerator) LoadFromSheet(ctx context.Context, sheetID, gid string) (*services.ParsedSyntenySheet, error) {
	if g.source == nil {
		return nil, fmt.Errorf("%w: no sheet source configured", shared.ErrConfiguration)
	}
	raw, err := g.source.Download(ctx, sheetID, gid)
	if err != nil {
		return nil, err
	}
	sheet, err := services.ParseSyntenyTracks(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSchema, err)
	}
	if missing := services.MissingColumns(sheet.Columns, services.RequiredSyntenyColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: sheet %s is missing required columns: %s", shared.ErrSchema, sheetID, strings.Join(missing, ", "))
	}
	g.logger.Info("loaded synteny sheet", "sheet_id", sheetID, "gid", gid, "tracks", len(sheet.Tracks))
	return sheet, nil
}

// GenerateTracks follows the same protocol as [TrackGenerator.GenerateTracks].
func (g *SyntenyTrackGenerator) GenerateTracks(tracks []*models.SyntenyTrackDescriptor, opts GenerateOptions) (*models.BatchReport, error) {
	report := models.NewBatchReport()
	if err := g.resolver.CheckMetadataRoot(); err != nil {
		g.logger.Error("aborting synteny generation", "error", err)
		return report, err
	}
	for i, d := range tracks {
		res, err := g.generate(d, opts)
		report.Record(d.TrackID, d.Name, res)
		sendProgress(opts.Progress, trackUpdate(GenerateSynteny, i+1, len(tracks), &d.TrackDescriptor, res, opts.DryRun))
		if err != nil {
			g.logger.Error("aborting synteny generation", "track_id", d.TrackID, "error", err)
			return report, err
		}
	}

	sendProgress(opts.Progress, completeUpdate(report, opts.DryRun))
	g.logger.Info("synteny generation finished"+label(opts.DryRun),
		"total", report.Counts.Total, "created", report.Counts.Created,
		"skipped", report.Counts.Skipped, "failed", report.Counts.Failed)
	return report, nil
}

func (g *SyntenyTrackGenerator) generate(d *models.SyntenyTrackDescriptor, opts GenerateOptions) (models.GenerationResult, error) {
	force := opts.Force.Applies(d.TrackID)
	if !force && g.TrackExists(d.TrackID, d.Assembly1, d.Assembly2) {
		g.logger.Debug("synteny track exists, skipping", "track_id", d.TrackID)
		return models.SkippedResult(), nil
	}

	typeID, ok := g.DetermineTrackType(d.SourcePath)
	if !ok {
		g.logger.Warn("unknown synteny track type", "track_id", d.TrackID, "path", d.SourcePath)
		return models.FailedResult(fmt.Sprintf("%v: %s", shared.ErrUnknownTrackType, d.SourcePath)), nil
	}
	return dispatch(g.registry, typeID, d, d.Organism1, d.Assembly1, handlers.Options{Force: force, DryRun: opts.DryRun})
}

// CleanOrphanedTracks removes every artifact of the pair whose ID is not in currentIDs.
func (g *SyntenyTrackGenerator) CleanOrphanedTracks(currentIDs []string, assembly1, assembly2 string) int {
	keep := idSet(currentIDs)
	pair := g.AssemblyPairName(assembly1, assembly2)
	removed := 0
	for _, t := range g.registry.Types() {
		removed += removeOrphans(g.resolver.SyntenyConfigDir(pair, t), func(id string) bool {
			_, ok := keep[id]
			return ok
		}, g.logger)
	}
	return removed
}

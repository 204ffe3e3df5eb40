package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
)

// Type identifiers of the dual-assembly formats.
const (
	PAFType    = "paf"
	PIFType    = "pif"
	MAFType    = "maf"
	MCScanType = "mcscan"
)

func asSynteny(d models.Descriptor) (*models.SyntenyTrackDescriptor, error) {
	s, ok := d.(*models.SyntenyTrackDescriptor)
	if !ok || s == nil {
		return nil, fmt.Errorf("expected a synteny descriptor, got %T", d)
	}
	return s, nil
}

// SyntenyHandler handles whole-genome alignments between two assemblies.
//
// The organism and assembly passed to Generate resolve relative and AUTO paths;
// the pair itself is read from the descriptor.
type SyntenyHandler struct {
	base
	typeID      string
	extensions  []string
	adapterType func(path string) string
	locationKey func(path string) string
	index       []string
	needsBeds   bool
}

// NewPAFHandler handles plain and gzipped PAF alignments.
func NewPAFHandler(resolver *paths.Resolver, logger *log.Logger) *SyntenyHandler {
	return &SyntenyHandler{
		base:        newBase(resolver, logger),
		typeID:      PAFType,
		extensions:  []string{".paf", ".paf.gz"},
		adapterType: fixed("PAFAdapter"),
		locationKey: fixed("pafLocation"),
	}
}

// NewPIFHandler handles tabix-indexed pairwise PAF (PIF) files.
func NewPIFHandler(resolver *paths.Resolver, logger *log.Logger) *SyntenyHandler {
	return &SyntenyHandler{
		base:        newBase(resolver, logger),
		typeID:      PIFType,
		extensions:  []string{".pif.gz"},
		adapterType: fixed("PairwiseIndexedPAFAdapter"),
		locationKey: fixed("pifGzLocation"),
		index:       tabixSuffixes,
	}
}

// NewMAFHandler handles multiple alignment format files.
func NewMAFHandler(resolver *paths.Resolver, logger *log.Logger) *SyntenyHandler {
	return &SyntenyHandler{
		base:        newBase(resolver, logger),
		typeID:      MAFType,
		extensions:  []string{".maf", ".maf.gz"},
		adapterType: fixed("MAFAdapter"),
		locationKey: fixed("mafLocation"),
	}
}

// NewMCScanHandler handles MCScan anchor files. Both BED files are required.
func NewMCScanHandler(resolver *paths.Resolver, logger *log.Logger) *SyntenyHandler {
	simple := func(path string) bool { return paths.HasExtension(path, ".anchors.simple") }
	return &SyntenyHandler{
		base:       newBase(resolver, logger),
		typeID:     MCScanType,
		extensions: []string{".anchors.simple", ".anchors"},
		adapterType: func(path string) string {
			if simple(path) {
				return "MCScanSimpleAnchorsAdapter"
			}
			return "MCScanAnchorsAdapter"
		},
		locationKey: func(path string) string {
			if simple(path) {
				return "mcscanSimpleAnchorsLocation"
			}
			return "mcscanAnchorsLocation"
		},
		needsBeds: true,
	}
}

func fixed(s string) func(string) string {
	return func(string) string { return s }
}

func (h *SyntenyHandler) Type() string         { return h.typeID }
func (h *SyntenyHandler) Extensions() []string { return h.extensions }

func (h *SyntenyHandler) Validate(d models.Descriptor) (*Validation, error) {
	v := newValidation()
	s, err := asSynteny(d)
	if err != nil {
		v.Fail("%v", err)
		return v, nil
	}
	for _, f := range []struct{ label, value string }{
		{"organism1", s.Organism1}, {"assembly1", s.Assembly1},
		{"organism2", s.Organism2}, {"assembly2", s.Assembly2},
	} {
		if strings.TrimSpace(f.value) == "" {
			v.Fail("%s is required", f.label)
		}
	}

	src, err := h.checkSource(v, "track path", s.SourcePath, s.Organism1, s.Assembly1, "")
	if err != nil {
		return nil, err
	}
	if len(h.index) > 0 && src.Location != "" {
		h.checkIndex(v, src, h.index...)
	}
	if h.needsBeds {
		for _, bed := range []struct{ label, path string }{{"bed1 path", s.Bed1Path}, {"bed2 path", s.Bed2Path}} {
			if _, err := h.checkSource(v, bed.label, bed.path, s.Organism1, s.Assembly1, ""); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

func (h *SyntenyHandler) Generate(d models.Descriptor, organism, assembly string, opts Options) (*Artifact, error) {
	s, err := asSynteny(d)
	if err != nil {
		return nil, h.fail(d.Track(), h.typeID, err)
	}
	t := s.Track()
	src, err := h.locate(s.SourcePath, organism, assembly, "")
	if err != nil {
		return nil, h.fail(t, h.typeID, err)
	}

	asm1, asm2 := s.Assembly1, s.Assembly2
	cfg := newTrackConfig("SyntenyTrack", h.typeID, t, organism, assembly, asm1, asm2)
	adapter := Adapter{"type": h.adapterType(src.Location), "assemblyNames": []string{asm1, asm2}}
	adapter[h.locationKey(src.Location)] = uriLocation(src.URI)

	var idx *source
	if len(h.index) > 0 {
		i, ok := h.findIndex(src, h.index...)
		if !ok {
			return nil, h.fail(t, h.typeID, missingIndex(src))
		}
		adapter["index"] = indexBlock(i)
		idx = &i
	}
	if h.needsBeds {
		bed1, err := h.locate(s.Bed1Path, organism, assembly, "")
		if err != nil {
			return nil, h.fail(t, h.typeID, fmt.Errorf("bed1: %w", err))
		}
		bed2, err := h.locate(s.Bed2Path, organism, assembly, "")
		if err != nil {
			return nil, h.fail(t, h.typeID, fmt.Errorf("bed2: %w", err))
		}
		adapter["bed1Location"] = uriLocation(bed1.URI)
		adapter["bed2Location"] = uriLocation(bed2.URI)
		cfg.Metadata["bed1_path"] = bed1.Location
		cfg.Metadata["bed2_path"] = bed2.Location
	}

	cfg.Adapter = adapter
	cfg.Displays = []Display{{
		"type":      "LinearSyntenyDisplay",
		"displayId": t.TrackID + "-LinearSyntenyDisplay",
	}}
	cfg.Metadata["organism1"] = s.Organism1
	cfg.Metadata["assembly1"] = s.Assembly1
	cfg.Metadata["organism2"] = s.Organism2
	cfg.Metadata["assembly2"] = s.Assembly2
	cfg.setFile(src, idx)

	// Pair directories sit beside the organism directories, under "synteny".
	pair := paths.AssemblyPairName(s.Assembly1, s.Assembly2)
	return h.write(h.typeID, paths.SyntenyDir, pair, t.TrackID, t.TrackID, cfg, opts)
}

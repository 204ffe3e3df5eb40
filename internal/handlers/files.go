package handlers

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
)

// Type identifiers of the single-file formats.
const (
	BigWigType = "bigwig"
	VCFType    = "vcf"
	BEDType    = "bed"
	GTFType    = "gtf"
	GFFType    = "gff"
)

var tabixSuffixes = []string{".tbi", ".csi"}

type adapterSpec struct {
	adapterType string
	locationKey string
}

// FileHandler handles formats backed by a single data file, with an optional
// tabix-indexed variant for bgzipped files.
type FileHandler struct {
	base
	typeID     string
	trackType  string
	extensions []string
	plain      adapterSpec
	tabix      *adapterSpec
	displays   func(t *models.TrackDescriptor) []Display
}

// NewBigWigHandler handles .bw and .bigwig coverage files.
func NewBigWigHandler(resolver *paths.Resolver, logger *log.Logger) *FileHandler {
	return &FileHandler{
		base:       newBase(resolver, logger),
		typeID:     BigWigType,
		trackType:  "QuantitativeTrack",
		extensions: []string{".bw", ".bigwig"},
		plain:      adapterSpec{"BigWigAdapter", "bigWigLocation"},
		displays:   wiggleDisplays,
	}
}

// NewVCFHandler handles plain and bgzipped VCF files.
func NewVCFHandler(resolver *paths.Resolver, logger *log.Logger) *FileHandler {
	return &FileHandler{
		base:       newBase(resolver, logger),
		typeID:     VCFType,
		trackType:  "VariantTrack",
		extensions: []string{".vcf.gz", ".vcf"},
		plain:      adapterSpec{"VcfAdapter", "vcfLocation"},
		tabix:      &adapterSpec{"VcfTabixAdapter", "vcfGzLocation"},
	}
}

// NewBEDHandler handles plain and bgzipped BED files.
func NewBEDHandler(resolver *paths.Resolver, logger *log.Logger) *FileHandler {
	return &FileHandler{
		base:       newBase(resolver, logger),
		typeID:     BEDType,
		trackType:  "FeatureTrack",
		extensions: []string{".bed.gz", ".bed"},
		plain:      adapterSpec{"BedAdapter", "bedLocation"},
		tabix:      &adapterSpec{"BedTabixAdapter", "bedGzLocation"},
	}
}

// NewGTFHandler handles GTF annotation files.
func NewGTFHandler(resolver *paths.Resolver, logger *log.Logger) *FileHandler {
	return &FileHandler{
		base:       newBase(resolver, logger),
		typeID:     GTFType,
		trackType:  "FeatureTrack",
		extensions: []string{".gtf"},
		plain:      adapterSpec{"GtfAdapter", "gtfLocation"},
	}
}

// NewGFFHandler handles plain and bgzipped GFF3 files.
func NewGFFHandler(resolver *paths.Resolver, logger *log.Logger) *FileHandler {
	return &FileHandler{
		base:       newBase(resolver, logger),
		typeID:     GFFType,
		trackType:  "FeatureTrack",
		extensions: []string{".gff3.gz", ".gff.gz", ".gff3", ".gff"},
		plain:      adapterSpec{"Gff3Adapter", "gffLocation"},
		tabix:      &adapterSpec{"Gff3TabixAdapter", "gffGzLocation"},
	}
}

func (h *FileHandler) Type() string         { return h.typeID }
func (h *FileHandler) Extensions() []string { return h.extensions }

func (h *FileHandler) indexed(path string) bool {
	return h.tabix != nil && paths.HasExtension(path, ".gz")
}

func (h *FileHandler) Validate(d models.Descriptor) (*Validation, error) {
	t := d.Track()
	v := newValidation()
	src, err := h.checkSource(v, "track path", t.SourcePath, t.Organism, t.Assembly, "")
	if err != nil {
		return nil, err
	}
	if v.Valid && h.indexed(src.Location) {
		h.checkIndex(v, src, tabixSuffixes...)
	}
	return v, nil
}

func (h *FileHandler) Generate(d models.Descriptor, organism, assembly string, opts Options) (*Artifact, error) {
	t := d.Track()
	src, err := h.locate(t.SourcePath, organism, assembly, "")
	if err != nil {
		return nil, h.fail(t, h.typeID, err)
	}

	cfg := newTrackConfig(h.trackType, h.typeID, t, organism, assembly)
	if h.indexed(src.Location) {
		idx, ok := h.findIndex(src, tabixSuffixes...)
		if !ok {
			return nil, h.fail(t, h.typeID, missingIndex(src))
		}
		cfg.Adapter = Adapter{
			"type":              h.tabix.adapterType,
			h.tabix.locationKey: uriLocation(src.URI),
			"index":             indexBlock(idx),
		}
		cfg.setFile(src, &idx)
	} else {
		cfg.Adapter = Adapter{"type": h.plain.adapterType, h.plain.locationKey: uriLocation(src.URI)}
		cfg.setFile(src, nil)
	}
	if h.displays != nil {
		cfg.Displays = h.displays(t)
	}

	return h.write(h.typeID, organism, assembly, t.TrackID, t.TrackID, cfg, opts)
}

func wiggleDisplays(t *models.TrackDescriptor) []Display {
	if t.Color == "" {
		return nil
	}
	return []Display{{
		"type":      "LinearWiggleDisplay",
		"displayId": t.TrackID + "-LinearWiggleDisplay",
		"renderers": map[string]any{
			"XYPlotRenderer": map[string]any{"type": "XYPlotRenderer", "color": t.Color},
		},
	}}
}

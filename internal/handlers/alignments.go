package handlers

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
)

const (
	BAMType  = "bam"
	CRAMType = "cram"
)

var (
	baiSuffixes  = []string{".bai", "-.bai"}
	craiSuffixes = []string{".crai", "-.crai"}
	faiSuffixes  = []string{".fai"}
)

// BAMHandler handles indexed BAM alignments.
type BAMHandler struct{ base }

func NewBAMHandler(resolver *paths.Resolver, logger *log.Logger) *BAMHandler {
	return &BAMHandler{newBase(resolver, logger)}
}

func (h *BAMHandler) Type() string         { return BAMType }
func (h *BAMHandler) Extensions() []string { return []string{".bam"} }

func (h *BAMHandler) Validate(d models.Descriptor) (*Validation, error) {
	t := d.Track()
	v := newValidation()
	src, err := h.checkSource(v, "track path", t.SourcePath, t.Organism, t.Assembly, "")
	if err != nil {
		return nil, err
	}
	if v.Valid {
		h.checkIndex(v, src, baiSuffixes...)
	}
	return v, nil
}

func (h *BAMHandler) Generate(d models.Descriptor, organism, assembly string, opts Options) (*Artifact, error) {
	t := d.Track()
	src, err := h.locate(t.SourcePath, organism, assembly, "")
	if err != nil {
		return nil, h.fail(t, BAMType, err)
	}
	idx, ok := h.findIndex(src, baiSuffixes...)
	if !ok {
		return nil, h.fail(t, BAMType, missingIndex(src))
	}

	cfg := newTrackConfig("AlignmentsTrack", BAMType, t, organism, assembly)
	cfg.Adapter = Adapter{
		"type":        "BamAdapter",
		"bamLocation": uriLocation(src.URI),
		"index":       map[string]any{"location": uriLocation(idx.URI), "indexType": "BAI"},
	}
	cfg.setFile(src, &idx)
	return h.write(BAMType, organism, assembly, t.TrackID, t.TrackID, cfg, opts)
}

// CRAMHandler handles indexed CRAM alignments. The assembly reference FASTA is resolved through AUTO.
type CRAMHandler struct{ base }

func NewCRAMHandler(resolver *paths.Resolver, logger *log.Logger) *CRAMHandler {
	return &CRAMHandler{newBase(resolver, logger)}
}

func (h *CRAMHandler) Type() string         { return CRAMType }
func (h *CRAMHandler) Extensions() []string { return []string{".cram"} }

func (h *CRAMHandler) Validate(d models.Descriptor) (*Validation, error) {
	t := d.Track()
	v := newValidation()
	src, err := h.checkSource(v, "track path", t.SourcePath, t.Organism, t.Assembly, "")
	if err != nil {
		return nil, err
	}
	if v.Valid {
		h.checkIndex(v, src, craiSuffixes...)
	}

	fasta, err := h.checkSource(v, "reference fasta", paths.AutoKeyword, t.Organism, t.Assembly, "fasta")
	if err != nil {
		return nil, err
	}
	if fasta.Location != "" && v.Valid {
		h.checkIndex(v, fasta, faiSuffixes...)
	}
	return v, nil
}

func (h *CRAMHandler) Generate(d models.Descriptor, organism, assembly string, opts Options) (*Artifact, error) {
	t := d.Track()
	src, err := h.locate(t.SourcePath, organism, assembly, "")
	if err != nil {
		return nil, h.fail(t, CRAMType, err)
	}
	idx, ok := h.findIndex(src, craiSuffixes...)
	if !ok {
		return nil, h.fail(t, CRAMType, missingIndex(src))
	}
	fasta, err := h.locate(paths.AutoKeyword, organism, assembly, "fasta")
	if err != nil {
		return nil, h.fail(t, CRAMType, err)
	}
	fai, ok := h.findIndex(fasta, faiSuffixes...)
	if !ok {
		return nil, h.fail(t, CRAMType, missingIndex(fasta))
	}

	cfg := newTrackConfig("AlignmentsTrack", CRAMType, t, organism, assembly)
	cfg.Adapter = Adapter{
		"type":         "CramAdapter",
		"cramLocation": uriLocation(src.URI),
		"craiLocation": uriLocation(idx.URI),
		"sequenceAdapter": Adapter{
			"type":          "IndexedFastaAdapter",
			"fastaLocation": uriLocation(fasta.URI),
			"faiLocation":   uriLocation(fai.URI),
		},
	}
	cfg.setFile(src, &idx)
	return h.write(CRAMType, organism, assembly, t.TrackID, t.TrackID, cfg, opts)
}

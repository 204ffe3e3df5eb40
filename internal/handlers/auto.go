package handlers

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
)

// AutoTypeColumn is the sheet column that selects what an AUTO track points at.
const AutoTypeColumn = "auto_type"

// AutoHandler handles AUTO tracks: the assembly reference sequence or its standard annotations.
//
// The auto_type column chooses "fasta" or "gff"; gff is the default.
type AutoHandler struct{ base }

func NewAutoHandler(resolver *paths.Resolver, logger *log.Logger) *AutoHandler {
	return &AutoHandler{newBase(resolver, logger)}
}

func (h *AutoHandler) Type() string { return AutoType }

// Extensions is empty: AUTO tracks are recognized by keyword.
func (h *AutoHandler) Extensions() []string { return nil }

func autoKind(t *models.TrackDescriptor) string {
	if kind := strings.ToLower(strings.TrimSpace(t.Meta(AutoTypeColumn))); kind != "" {
		return kind
	}
	return "gff"
}

func (h *AutoHandler) Validate(d models.Descriptor) (*Validation, error) {
	t := d.Track()
	v := newValidation()
	if !paths.Path(t.SourcePath).IsAuto() {
		v.Fail("track path %q is not AUTO", t.SourcePath)
		return v, nil
	}

	kind := autoKind(t)
	src, err := h.checkSource(v, "AUTO "+kind, t.SourcePath, t.Organism, t.Assembly, kind)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		return v, nil
	}
	if kind == "fasta" {
		h.checkIndex(v, src, faiSuffixes...)
	} else {
		h.checkIndex(v, src, tabixSuffixes...)
	}
	return v, nil
}

func (h *AutoHandler) Generate(d models.Descriptor, organism, assembly string, opts Options) (*Artifact, error) {
	t := d.Track()
	kind := autoKind(t)
	src, err := h.locate(t.SourcePath, organism, assembly, kind)
	if err != nil {
		return nil, h.fail(t, AutoType, err)
	}

	var cfg *TrackConfig
	var idx source
	var ok bool
	if kind == "fasta" {
		if idx, ok = h.findIndex(src, faiSuffixes...); !ok {
			return nil, h.fail(t, AutoType, missingIndex(src))
		}
		cfg = newTrackConfig("ReferenceSequenceTrack", AutoType, t, organism, assembly)
		cfg.Adapter = Adapter{
			"type":          "IndexedFastaAdapter",
			"fastaLocation": uriLocation(src.URI),
			"faiLocation":   uriLocation(idx.URI),
		}
	} else {
		if idx, ok = h.findIndex(src, tabixSuffixes...); !ok {
			return nil, h.fail(t, AutoType, missingIndex(src))
		}
		cfg = newTrackConfig("FeatureTrack", AutoType, t, organism, assembly)
		cfg.Adapter = Adapter{
			"type":          "Gff3TabixAdapter",
			"gffGzLocation": uriLocation(src.URI),
			"index":         indexBlock(idx),
		}
	}
	cfg.Metadata[AutoTypeColumn] = kind
	cfg.setFile(src, &idx)
	return h.write(AutoType, organism, assembly, t.TrackID, t.TrackID, cfg, opts)
}

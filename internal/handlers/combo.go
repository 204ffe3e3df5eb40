package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
)

const ComboType = paths.ComboType

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// palettes maps a color scheme identifier onto the colors assigned to group members in order.
var palettes = map[string][]string{
	"blues":   {"#08519c", "#3182bd", "#6baed6", "#9ecae1", "#c6dbef"},
	"reds":    {"#a50f15", "#de2d26", "#fb6a4a", "#fc9272", "#fcbba1"},
	"greens":  {"#006d2c", "#31a354", "#74c476", "#a1d99b", "#c7e9c0"},
	"purples": {"#54278f", "#756bb1", "#9e9ac8", "#bcbddc", "#dadaeb"},
	"oranges": {"#a63603", "#e6550d", "#fd8d3c", "#fdae6b", "#fdd0a2"},
	"grays":   {"#252525", "#636363", "#969696", "#bdbdbd", "#d9d9d9"},
	"rainbow": {"#e41a1c", "#ff7f00", "#ffd92f", "#4daf4a", "#377eb8", "#984ea3"},
}

const defaultPalette = "grays"

// Palette returns the colors of a scheme. A literal #rrggbb scheme is a single-color palette.
// Unknown names fall back to grays.
func Palette(scheme string) ([]string, bool) {
	scheme = strings.TrimSpace(scheme)
	if hexColor.MatchString(scheme) {
		return []string{scheme}, true
	}
	if p, ok := palettes[strings.ToLower(scheme)]; ok {
		return p, true
	}
	return palettes[defaultPalette], false
}

// ComboHandler synthesizes one multi-wiggle track from the member tracks of every group.
type ComboHandler struct{ base }

func NewComboHandler(resolver *paths.Resolver, logger *log.Logger) *ComboHandler {
	return &ComboHandler{newBase(resolver, logger)}
}

func (h *ComboHandler) Type() string { return ComboType }

// Extensions is empty: combo tracks come from combo blocks, not file suffixes.
func (h *ComboHandler) Extensions() []string { return nil }

func asCombo(d models.Descriptor) (*models.ComboTrackDescriptor, error) {
	c, ok := d.(*models.ComboTrackDescriptor)
	if !ok || c == nil {
		return nil, fmt.Errorf("expected a combo descriptor, got %T", d)
	}
	return c, nil
}

func (h *ComboHandler) Validate(d models.Descriptor) (*Validation, error) {
	v := newValidation()
	c, err := asCombo(d)
	if err != nil {
		v.Fail("%v", err)
		return v, nil
	}

	nonEmpty := 0
	for _, g := range c.Groups {
		if len(g.Tracks) > 0 {
			nonEmpty++
		}
		if _, ok := Palette(g.ColorScheme); !ok && g.ColorScheme != "" {
			h.logger.Warn("unknown color scheme, using "+defaultPalette, "track_id", c.TrackID, "group", g.Name, "scheme", g.ColorScheme)
		}
	}
	if nonEmpty == 0 {
		v.Fail("combo track %s has no non-empty group", c.TrackID)
		return v, nil
	}

	for _, m := range c.Members() {
		label := fmt.Sprintf("member %s", m.TrackID)
		if !paths.HasExtension(m.SourcePath, ".bw") && !paths.HasExtension(m.SourcePath, ".bigwig") {
			v.Fail("%s is not a bigwig file: %s", label, m.SourcePath)
			continue
		}
		if _, err := h.checkSource(v, label, m.SourcePath, c.Organism, c.Assembly, ""); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (h *ComboHandler) Generate(d models.Descriptor, organism, assembly string, opts Options) (*Artifact, error) {
	c, err := asCombo(d)
	if err != nil {
		return nil, h.fail(d.Track(), ComboType, err)
	}

	var subadapters []Adapter
	var members, files []string
	var size int64
	groups := map[string][]string{}
	for _, g := range c.Groups {
		palette, _ := Palette(g.ColorScheme)
		for i, m := range g.Tracks {
			src, err := h.locate(m.SourcePath, organism, assembly, "")
			if err != nil {
				return nil, h.fail(&c.TrackDescriptor, ComboType, fmt.Errorf("member %s: %w", m.TrackID, err))
			}
			color := m.Color
			if color == "" {
				color = palette[i%len(palette)]
			}
			subadapters = append(subadapters, Adapter{
				"type":           "BigWigAdapter",
				"name":           m.Name,
				"source":         m.TrackID,
				"color":          color,
				"bigWigLocation": uriLocation(src.URI),
			})
			members = append(members, m.TrackID)
			files = append(files, src.Location)
			groups[g.Name] = append(groups[g.Name], m.TrackID)
			size += src.Size
		}
	}

	t := c.Track()
	cfg := newTrackConfig("MultiQuantitativeTrack", ComboType, t, organism, assembly)
	cfg.Adapter = Adapter{"type": "MultiWiggleAdapter", "subadapters": subadapters}
	cfg.Displays = []Display{{
		"type":      "MultiLinearWiggleDisplay",
		"displayId": t.TrackID + "-MultiLinearWiggleDisplay",
	}}
	cfg.Metadata["members"] = members
	cfg.Metadata["groups"] = groups
	// A list, so removing the combo never touches member data.
	cfg.Metadata[MetaFilePath] = files
	cfg.Metadata[MetaFileSize] = size

	return h.write(ComboType, organism, assembly, t.TrackID, strings.ToLower(t.TrackID), cfg, opts)
}

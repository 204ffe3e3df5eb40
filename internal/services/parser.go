package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/mitchellh/mapstructure"
)

var (
	comboOpen  = regexp.MustCompile(`^# (.+)`)
	comboGroup = regexp.MustCompile(`^## (\S+):\s*(.+)`)
	slugChars  = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParsedSheet is the result of parsing a track sheet.
type ParsedSheet struct {
	Columns []string
	Regular []*models.TrackDescriptor
	Combo   []*models.ComboTrackDescriptor
}

// ParsedSyntenySheet is the result of parsing a synteny sheet.
type ParsedSyntenySheet struct {
	Columns []string
	Tracks  []*models.SyntenyTrackDescriptor
}

// trackRow is one decoded sheet row; Extra collects the free-text columns.
type trackRow struct {
	TrackID     string                 `mapstructure:"track_id"`
	Name        string                 `mapstructure:"name"`
	TrackPath   string                 `mapstructure:"track_path"`
	Category    string                 `mapstructure:"category"`
	AccessLevel string                 `mapstructure:"access_level"`
	Color       string                 `mapstructure:"color"`
	Technique   string                 `mapstructure:"technique"`
	Institute   string                 `mapstructure:"institute"`
	Description string                 `mapstructure:"description"`
	Extra       map[string]interface{} `mapstructure:",remain"`
}

type syntenyRow struct {
	trackRow  `mapstructure:",squash"`
	Organism1 string `mapstructure:"organism1"`
	Assembly1 string `mapstructure:"assembly1"`
	Organism2 string `mapstructure:"organism2"`
	Assembly2 string `mapstructure:"assembly2"`
	Bed1Path  string `mapstructure:"bed1_path"`
	Bed2Path  string `mapstructure:"bed2_path"`
}

// header holds the kept column names by position; dropped columns are "".
type header []string

func parseHeader(line string) header {
	cells := strings.Split(line, "\t")
	h := make(header, len(cells))
	for i, c := range cells {
		c = strings.ToLower(strings.TrimSpace(c))
		if strings.HasPrefix(c, "#") {
			continue
		}
		h[i] = c
	}
	return h
}

func (h header) columns() []string {
	var cols []string
	for _, c := range h {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func (h header) record(line string) map[string]interface{} {
	rec := make(map[string]interface{}, len(h))
	for i, v := range strings.Split(line, "\t") {
		if i >= len(h) || h[i] == "" {
			continue
		}
		rec[h[i]] = strings.TrimSpace(v)
	}
	return rec
}

func decode(rec map[string]interface{}, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(rec)
}

func (r trackRow) complete() bool {
	return r.TrackID != "" && r.Name != "" && r.TrackPath != ""
}

func (r trackRow) descriptor(organism, assembly string) *models.TrackDescriptor {
	d := &models.TrackDescriptor{
		TrackID:     r.TrackID,
		Name:        r.Name,
		SourcePath:  r.TrackPath,
		Category:    r.Category,
		AccessLevel: models.ParseAccessLevel(r.AccessLevel),
		Organism:    organism,
		Assembly:    assembly,
		Color:       r.Color,
		Technique:   r.Technique,
		Institute:   r.Institute,
		Description: r.Description,
	}
	if len(r.Extra) > 0 {
		d.Metadata = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			if s := fmt.Sprint(v); s != "" {
				d.Metadata[k] = s
			}
		}
	}
	return d
}

// lines splits raw into lines and returns the header plus the remaining lines.
func lines(raw string) (header, []string) {
	all := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i, l := range all {
		if strings.TrimSpace(l) == "" {
			continue
		}
		return parseHeader(l), all[i+1:]
	}
	return nil, nil
}

// ComboID derives a combo track ID from its block name.
func ComboID(name string) string {
	if id := strings.Trim(slugChars.ReplaceAllString(strings.ToLower(name), "_"), "_"); id != "" {
		return id
	}
	return "combo"
}

// ParseTracks parses a track sheet export.
//
// A "# Name" line opens a combo block, "## scheme: Group" declares a color group inside it
// and "###" closes it. Rows inside a block are combo members only. Rows missing
// track_id, name or track_path are dropped.
func ParseTracks(raw, organism, assembly string) (*ParsedSheet, error) {
	h, rest := lines(raw)
	sheet := &ParsedSheet{
		Columns: h.columns(),
		Regular: []*models.TrackDescriptor{},
		Combo:   []*models.ComboTrackDescriptor{},
	}

	var combo *models.ComboTrackDescriptor
	var group *models.ComboGroup
	closeCombo := func() {
		if combo != nil {
			finishCombo(combo)
			sheet.Combo = append(sheet.Combo, combo)
		}
		combo, group = nil, nil
	}

	for n, line := range rest {
		// Markers only count at the start of a line.
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, "###"):
			closeCombo()
			continue
		case comboGroup.MatchString(line):
			if combo == nil {
				continue
			}
			m := comboGroup.FindStringSubmatch(line)
			group = &models.ComboGroup{Name: strings.TrimSpace(m[2]), ColorScheme: m[1]}
			combo.Groups = append(combo.Groups, group)
			continue
		case comboOpen.MatchString(line):
			closeCombo()
			name := strings.TrimSpace(comboOpen.FindStringSubmatch(line)[1])
			combo = &models.ComboTrackDescriptor{
				TrackDescriptor: models.TrackDescriptor{
					TrackID:     ComboID(name),
					Name:        name,
					AccessLevel: models.AccessPublic,
					Organism:    organism,
					Assembly:    assembly,
				},
				Groups: []*models.ComboGroup{},
			}
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}

		var row trackRow
		if err := decode(h.record(line), &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}
		if !row.complete() {
			continue
		}
		d := row.descriptor(organism, assembly)
		if combo == nil {
			sheet.Regular = append(sheet.Regular, d)
			continue
		}
		if group == nil {
			group = &models.ComboGroup{Name: combo.Name}
			combo.Groups = append(combo.Groups, group)
		}
		group.Tracks = append(group.Tracks, d)
	}
	closeCombo()
	return sheet, nil
}

// finishCombo derives the combo access level and category from its members.
func finishCombo(c *models.ComboTrackDescriptor) {
	for _, m := range c.Members() {
		c.AccessLevel = c.AccessLevel.MoreRestrictive(m.AccessLevel)
		if c.Category == "" {
			c.Category = m.Category
		}
	}
}

// ParseSyntenyTracks parses a synteny sheet export. Lines starting with "#" are ignored.
func ParseSyntenyTracks(raw string) (*ParsedSyntenySheet, error) {
	h, rest := lines(raw)
	sheet := &ParsedSyntenySheet{Columns: h.columns(), Tracks: []*models.SyntenyTrackDescriptor{}}

	for n, line := range rest {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		var row syntenyRow
		if err := decode(h.record(line), &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}
		if !row.complete() {
			continue
		}
		d := row.descriptor(row.Organism1, row.Assembly1)
		sheet.Tracks = append(sheet.Tracks, &models.SyntenyTrackDescriptor{
			TrackDescriptor: *d,
			Organism1:       row.Organism1,
			Assembly1:       row.Assembly1,
			Organism2:       row.Organism2,
			Assembly2:       row.Assembly2,
			Bed1Path:        row.Bed1Path,
			Bed2Path:        row.Bed2Path,
		})
	}
	return sheet, nil
}

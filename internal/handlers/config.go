package handlers

import (
	"strings"
	"time"

	"github.com/desertthunder/jbtracks/internal/models"
)

// TrackConfig is the browser track configuration written for each track.
type TrackConfig struct {
	Type          string         `json:"type"`
	TrackID       string         `json:"trackId"`
	Name          string         `json:"name"`
	Category      []string       `json:"category,omitempty"`
	AssemblyNames []string       `json:"assemblyNames"`
	Adapter       Adapter        `json:"adapter"`
	Displays      []Display      `json:"displays,omitempty"`
	Metadata      map[string]any `json:"metadata"`
}

// Adapter is a format-specific data adapter block.
type Adapter map[string]any

// Display is a browser display block.
type Display map[string]any

// Location is a browser file location.
type Location struct {
	URI          string `json:"uri"`
	LocationType string `json:"locationType"`
}

func uriLocation(uri string) Location {
	return Location{URI: uri, LocationType: "UriLocation"}
}

// indexBlock is the {location, indexType} pair of tabix-indexed adapters.
func indexBlock(idx source) map[string]any {
	indexType := "TBI"
	if strings.HasSuffix(strings.ToLower(idx.Location), ".csi") {
		indexType = "CSI"
	}
	return map[string]any{"location": uriLocation(idx.URI), "indexType": indexType}
}

// Metadata keys written into every artifact.
const (
	MetaFilePath    = "file_path"
	MetaFileSize    = "file_size"
	MetaIndexPath   = "index_path"
	MetaTrackType   = "track_type"
	MetaAccessLevel = "access_level"
	MetaOrganism    = "organism"
	MetaAssembly    = "assembly"
	MetaGeneratedAt = "generated_at"
)

// categories splits a "Parent/Child" category into its path elements.
func categories(category string) []string {
	var out []string
	for _, part := range strings.Split(category, "/") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// newTrackConfig fills the fields shared by every artifact.
func newTrackConfig(jbType, typeID string, d *models.TrackDescriptor, organism, assembly string, assemblyNames ...string) *TrackConfig {
	if len(assemblyNames) == 0 {
		assemblyNames = []string{assembly}
	}
	return &TrackConfig{
		Type:          jbType,
		TrackID:       d.TrackID,
		Name:          d.Name,
		Category:      categories(d.Category),
		AssemblyNames: assemblyNames,
		Metadata:      trackMetadata(typeID, d, organism, assembly),
	}
}

// trackMetadata builds the metadata object. Free-text columns never overwrite reserved keys.
func trackMetadata(typeID string, d *models.TrackDescriptor, organism, assembly string) map[string]any {
	meta := map[string]any{}
	for k, v := range d.Metadata {
		if v != "" {
			meta[k] = v
		}
	}
	for k, v := range map[string]string{
		"technique":   d.Technique,
		"institute":   d.Institute,
		"description": d.Description,
		"color":       d.Color,
	} {
		if v != "" {
			meta[k] = v
		}
	}

	access := d.AccessLevel
	if access == "" {
		access = models.AccessPublic
	}
	meta[MetaTrackType] = typeID
	meta[MetaAccessLevel] = string(access)
	meta[MetaOrganism] = organism
	meta[MetaAssembly] = assembly
	meta[MetaGeneratedAt] = time.Now().UTC().Format(time.RFC3339)
	return meta
}

// setFile records the data file and, when known, its size and index.
func (c *TrackConfig) setFile(src source, idx *source) {
	c.Metadata[MetaFilePath] = src.Location
	if !src.IsRemote {
		c.Metadata[MetaFileSize] = src.Size
	}
	if idx != nil && idx.Location != "" {
		c.Metadata[MetaIndexPath] = idx.Location
	}
}

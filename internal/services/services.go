package services

import (
	"context"
	"strings"
)

// SheetSource downloads a publicly shared spreadsheet tab as tab-separated text.
type SheetSource interface {
	// Download fetches the tab identified by gid of the spreadsheet sheetID.
	Download(ctx context.Context, sheetID, gid string) (string, error)
}

// Column names recognized by the parsers.
const (
	ColTrackID     = "track_id"
	ColName        = "name"
	ColTrackPath   = "track_path"
	ColCategory    = "category"
	ColAccessLevel = "access_level"
	ColColor       = "color"
	ColTechnique   = "technique"
	ColInstitute   = "institute"
	ColDescription = "description"
	ColOrganism1   = "organism1"
	ColAssembly1   = "assembly1"
	ColOrganism2   = "organism2"
	ColAssembly2   = "assembly2"
	ColBed1Path    = "bed1_path"
	ColBed2Path    = "bed2_path"
)

// RequiredColumns must be present in every track sheet header.
var RequiredColumns = []string{ColTrackID, ColName, ColTrackPath}

// RequiredSyntenyColumns must be present in every synteny sheet header.
var RequiredSyntenyColumns = []string{ColTrackID, ColName, ColTrackPath, ColOrganism1, ColAssembly1, ColOrganism2, ColAssembly2}

// MissingColumns returns the required columns absent from a parsed header.
func MissingColumns(columns []string, required ...string) []string {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	var missing []string
	for _, r := range required {
		if _, ok := have[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

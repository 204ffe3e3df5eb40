package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/jbtracks/internal/shared"
	"gopkg.in/yaml.v2"
)

// Sheet kinds accepted in a manifest.
const (
	KindTracks  = "tracks"
	KindSynteny = "synteny"
)

// Manifest lists the spreadsheets a deployment is generated from.
type Manifest struct {
	Sheets []ManifestEntry `yaml:"sheets"`
}

// ManifestEntry is one spreadsheet tab to load.
//
// Synteny entries carry their assemblies per row, so Organism and Assembly are ignored for them.
type ManifestEntry struct {
	Name     string   `yaml:"name"`
	SheetID  string   `yaml:"sheet_id"`
	GID      string   `yaml:"gid"`
	Organism string   `yaml:"organism"`
	Assembly string   `yaml:"assembly"`
	Kind     string   `yaml:"kind"`
	Clean    bool     `yaml:"clean"`
	Force    []string `yaml:"force"`
}

// Label identifies the entry in logs.
func (e ManifestEntry) Label() string {
	if e.Name != "" {
		return e.Name
	}
	if e.Kind == KindSynteny {
		return e.SheetID + "/" + e.GID
	}
	return e.Organism + "/" + e.Assembly
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if shared.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a YAML manifest, defaulting kind to tracks and gid to 0.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", shared.ErrInvalidConfig, err)
	}
	for i := range m.Sheets {
		e := &m.Sheets[i]
		e.Kind = strings.ToLower(strings.TrimSpace(e.Kind))
		if e.Kind == "" {
			e.Kind = KindTracks
		}
		if e.GID == "" {
			e.GID = "0"
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every entry can be loaded.
func (m *Manifest) Validate() error {
	for i, e := range m.Sheets {
		if e.SheetID == "" {
			return fmt.Errorf("%w: sheets[%d]: sheet_id is required", shared.ErrInvalidConfig, i)
		}
		switch e.Kind {
		case KindTracks:
			if e.Organism == "" || e.Assembly == "" {
				return fmt.Errorf("%w: sheets[%d]: organism and assembly are required", shared.ErrInvalidConfig, i)
			}
		case KindSynteny:
		default:
			return fmt.Errorf("%w: sheets[%d]: unknown kind %q", shared.ErrInvalidConfig, i, e.Kind)
		}
	}
	return nil
}

// package models defines the data model for track generation
package models

import (
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// AccessLevel is the visibility tier of a track.
type AccessLevel string

const (
	AccessPublic       AccessLevel = "PUBLIC"
	AccessCollaborator AccessLevel = "COLLABORATOR"
	AccessAdmin        AccessLevel = "ADMIN"
)

// ParseAccessLevel maps a spreadsheet value onto an [AccessLevel].
//
// Empty values are public. Unrecognized values are treated as collaborator-only.
func ParseAccessLevel(s string) AccessLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "PUBLIC", "ALL":
		return AccessPublic
	case "ADMIN", "PRIVATE":
		return AccessAdmin
	default:
		return AccessCollaborator
	}
}

// rank orders access levels from least to most restrictive.
func (a AccessLevel) rank() int {
	switch a {
	case AccessPublic:
		return 0
	case AccessCollaborator:
		return 1
	default:
		return 2
	}
}

// MoreRestrictive returns whichever of a and b is more restrictive.
func (a AccessLevel) MoreRestrictive(b AccessLevel) AccessLevel {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Descriptor is implemented by every descriptor variant accepted by a track type handler.
type Descriptor interface {
	Track() *TrackDescriptor
}

// TrackDescriptor is one track row parsed from the source spreadsheet.
type TrackDescriptor struct {
	TrackID     string            `json:"track_id"`
	Name        string            `json:"name"`
	SourcePath  string            `json:"track_path"`
	Category    string            `json:"category,omitempty"`
	AccessLevel AccessLevel       `json:"access_level"`
	Organism    string            `json:"organism"`
	Assembly    string            `json:"assembly"`
	Color       string            `json:"color,omitempty"`
	Technique   string            `json:"technique,omitempty"`
	Institute   string            `json:"institute,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"` // Remaining free-text columns
}

// Track returns d itself.
func (d *TrackDescriptor) Track() *TrackDescriptor { return d }

// Meta returns a free-text metadata column, or "" when absent.
func (d *TrackDescriptor) Meta(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// ComboGroup is one color group of a combo track.
type ComboGroup struct {
	Name        string             `json:"name"`
	ColorScheme string             `json:"color_scheme"`
	Tracks      []*TrackDescriptor `json:"tracks"`
}

// ComboTrackDescriptor is a composite track synthesized from its member tracks.
//
// The embedded descriptor has no SourcePath of its own.
type ComboTrackDescriptor struct {
	TrackDescriptor
	Groups []*ComboGroup `json:"groups"`
}

// Members returns every member track in group order.
func (c *ComboTrackDescriptor) Members() []*TrackDescriptor {
	var members []*TrackDescriptor
	for _, g := range c.Groups {
		members = append(members, g.Tracks...)
	}
	return members
}

// SyntenyTrackDescriptor relates two organism/assembly pairs.
//
// Bed1Path and Bed2Path are only used by anchor file formats.
type SyntenyTrackDescriptor struct {
	TrackDescriptor
	Organism1 string `json:"organism1"`
	Assembly1 string `json:"assembly1"`
	Organism2 string `json:"organism2"`
	Assembly2 string `json:"assembly2"`
	Bed1Path  string `json:"bed1_path,omitempty"`
	Bed2Path  string `json:"bed2_path,omitempty"`
}

// ResolvedPath is a concrete location for a track source path.
type ResolvedPath struct {
	Location string `json:"location"` // Absolute filesystem path or http(s) URL
	IsRemote bool   `json:"is_remote"`
}

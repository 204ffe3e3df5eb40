package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// DryRunLabel is appended to messages and result labels of dry runs.
const DryRunLabel = " [DRY RUN]"

// Handler validates one track format and writes its browser configuration artifact.
type Handler interface {
	// Type is the registry key and the artifact type subdirectory.
	Type() string
	// Extensions lists recognized file suffixes in match order.
	Extensions() []string
	// Validate checks format preconditions. The error is reserved for configuration errors;
	// ordinary failures are reported through [Validation].
	Validate(d models.Descriptor) (*Validation, error)
	// Generate writes the artifact, or only builds it when opts.DryRun is set.
	Generate(d models.Descriptor, organism, assembly string, opts Options) (*Artifact, error)
}

// Options controls a single Generate call.
type Options struct {
	Force  bool
	DryRun bool
}

// Validation collects the reasons a descriptor cannot be generated.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newValidation() *Validation {
	return &Validation{Valid: true, Errors: []string{}}
}

// Fail records a validation error.
func (v *Validation) Fail(format string, args ...any) {
	v.Valid = false
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Reason joins every error into one line.
func (v *Validation) Reason() string {
	return strings.Join(v.Errors, "; ")
}

// Err returns nil for a valid descriptor, otherwise an error wrapping [shared.ErrValidation].
func (v *Validation) Err() error {
	if v.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", shared.ErrValidation, v.Reason())
}

// Artifact describes a generated (or, in dry runs, planned) configuration file.
type Artifact struct {
	Type    string       `json:"type"`
	TrackID string       `json:"track_id"`
	Path    string       `json:"path"`
	Written bool         `json:"written"`
	Config  *TrackConfig `json:"config"`
}

// source is a resolved data file plus its browser-facing URI.
type source struct {
	models.ResolvedPath
	URI  string
	Size int64
}

// base carries the dependencies shared by every handler.
type base struct {
	resolver *paths.Resolver
	logger   *log.Logger
}

func newBase(resolver *paths.Resolver, logger *log.Logger) base {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return base{resolver: resolver, logger: logger}
}

// locate resolves a raw path and maps it onto a URI.
func (b base) locate(raw, organism, assembly, autoType string) (source, error) {
	rp, err := b.resolver.ResolveTrackPath(raw, organism, assembly, autoType)
	if err != nil {
		return source{}, err
	}
	uri, err := b.resolver.ToWebURI(rp.Location)
	if err != nil {
		return source{}, err
	}
	src := source{ResolvedPath: rp, URI: uri}
	if !rp.IsRemote {
		src.Size = shared.FileSize(rp.Location)
	}
	return src, nil
}

// checkSource resolves raw and records why it is unusable.
//
// Configuration errors are returned; every other problem is added to v.
func (b base) checkSource(v *Validation, label, raw, organism, assembly, autoType string) (source, error) {
	if strings.TrimSpace(raw) == "" {
		v.Fail("%s is empty", label)
		return source{}, nil
	}
	src, err := b.locate(raw, organism, assembly, autoType)
	if err != nil {
		if errors.Is(err, shared.ErrConfiguration) {
			return source{}, err
		}
		v.Fail("%s: %v", label, err)
		return source{}, nil
	}
	if !src.IsRemote && !shared.FileExists(src.Location) {
		v.Fail("%s not found: %s", label, src.Location)
	}
	return src, nil
}

// checkIndex locates a co-located index file and records its absence.
//
// Remote files cannot be probed, so the first candidate is assumed.
func (b base) checkIndex(v *Validation, src source, suffixes ...string) (source, bool) {
	idx, ok := b.findIndex(src, suffixes...)
	if !ok {
		v.Fail("index file not found for %s (tried %s)", src.Location, strings.Join(suffixes, ", "))
	}
	return idx, ok
}

// findIndex returns the first existing index candidate for src.
//
// A suffix beginning with "-" replaces the data file extension instead of
// being appended, so "-.bai" turns x.bam into x.bai.
func (b base) findIndex(src source, suffixes ...string) (source, bool) {
	for _, suffix := range suffixes {
		loc := indexLocation(src.Location, suffix)
		if src.IsRemote || shared.FileExists(loc) {
			uri, err := b.resolver.ToWebURI(loc)
			if err != nil {
				continue
			}
			return source{ResolvedPath: models.ResolvedPath{Location: loc, IsRemote: src.IsRemote}, URI: uri}, true
		}
	}
	return source{}, false
}

func indexLocation(location, suffix string) string {
	if rest, ok := strings.CutPrefix(suffix, "-"); ok {
		clean := paths.StripQuery(location)
		if i := strings.LastIndex(clean, "."); i > strings.LastIndex(clean, "/") {
			return clean[:i] + rest
		}
		return clean + rest
	}
	if q := strings.IndexAny(location, "?#"); q >= 0 {
		return location[:q] + suffix + location[q:]
	}
	return location + suffix
}

// write stores cfg as {metadata}/.../{organism}/{assembly}/{typeID}/{fileID}.json,
// or only logs the plan in dry runs. An unset metadata root is a configuration
// error in both modes.
func (b base) write(typeID, organism, assembly, trackID, fileID string, cfg *TrackConfig, opts Options) (*Artifact, error) {
	if err := b.resolver.CheckMetadataRoot(); err != nil {
		return nil, err
	}
	if opts.DryRun {
		path := paths.ArtifactPath(b.resolver.TrackConfigDir(organism, assembly, typeID), fileID)
		b.logger.Info("would write track config"+DryRunLabel, "track_id", trackID, "type", typeID, "path", path)
		return &Artifact{Type: typeID, TrackID: trackID, Path: path, Config: cfg}, nil
	}

	data, err := shared.MarshalJSON(cfg, true)
	if err != nil {
		return nil, err
	}
	dir, err := b.resolver.MetadataDirectory(organism, assembly, typeID)
	if err != nil {
		b.logger.Error("failed to create metadata directory", "track_id", trackID, "type", typeID, "error", err)
		return nil, err
	}
	path := paths.ArtifactPath(dir, fileID)
	if err := shared.WriteFileAtomic(path, data); err != nil {
		b.logger.Error("failed to write track config", "track_id", trackID, "path", path, "error", err)
		return nil, err
	}
	b.logger.Debug("wrote track config", "track_id", trackID, "type", typeID, "path", path)
	return &Artifact{Type: typeID, TrackID: trackID, Path: path, Written: true, Config: cfg}, nil
}

// fail logs and returns a generation error for d.
func (b base) fail(d *models.TrackDescriptor, typeID string, err error) error {
	b.logger.Error("track generation failed", "track_id", d.TrackID, "type", typeID, "path", d.SourcePath, "error", err)
	return err
}

func missingIndex(src source) error {
	return fmt.Errorf("%w: index file not found for %s", shared.ErrValidation, src.Location)
}

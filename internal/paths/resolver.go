package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
)

const (
	configsDir    = "jbrowse2-configs"
	tracksDir     = "tracks"
	assembliesDir = "assemblies"
	cacheDir      = "cache"

	// SyntenyDir is the tracks subdirectory holding dual-assembly artifacts.
	SyntenyDir = "synteny"
	// ComboType is the type subdirectory for combo tracks.
	ComboType = "combo"
)

// AUTO file names inside {genomes}/{organism}/{assembly}.
const (
	ReferenceFasta    = "reference.fasta"
	AnnotationsGFF    = "annotations.gff3.gz"
	autoTypeFasta     = "fasta"
	autoTypeGFF       = "gff"
	artifactExtension = ".json"
)

// Settings is the explicit configuration value a [Resolver] is built from.
type Settings struct {
	SiteRoot      string // absolute site root, e.g. /var/www/html/moop
	SiteName      string // site directory name, e.g. moop
	GenomesDir    string
	TracksDir     string
	MetadataDir   string
	RemoteEnabled bool
	RemoteURL     string
}

// SettingsFromConfig extracts resolver settings from the application config.
func SettingsFromConfig(cfg *shared.Config) Settings {
	return Settings{
		SiteRoot:      filepath.Clean(cfg.Site.Path),
		SiteName:      strings.Trim(cfg.Site.Name, "/"),
		GenomesDir:    cfg.Directories.Genomes,
		TracksDir:     cfg.Directories.Tracks,
		MetadataDir:   cfg.Directories.Metadata,
		RemoteEnabled: cfg.TracksServer.Enabled,
		RemoteURL:     cfg.TracksServer.URL,
	}
}

// Remote reports whether a remote tracks server is configured.
func (s Settings) Remote() bool {
	return s.RemoteEnabled && strings.TrimSpace(s.RemoteURL) != ""
}

// Resolver is the single authority for filesystem and web URI translation.
type Resolver struct {
	settings Settings
}

// NewResolver creates a resolver over the given settings.
func NewResolver(s Settings) *Resolver {
	if s.SiteRoot != "" {
		s.SiteRoot = filepath.Clean(s.SiteRoot)
	}
	s.SiteName = strings.Trim(s.SiteName, "/")
	return &Resolver{settings: s}
}

// Settings returns a copy of the resolver settings.
func (r *Resolver) Settings() Settings { return r.settings }

// ToWebURI maps a filesystem path onto a browser-servable URI.
//
// Reference genome paths are always local. With a remote tracks server configured
// other paths become <url><path relative to site root>. Local URIs start at the
// site directory segment.
func (r *Resolver) ToWebURI(fsPath string) (string, error) {
	fsPath = strings.TrimSpace(fsPath)
	if fsPath == "" {
		return "", fmt.Errorf("%w: empty filesystem path", shared.ErrInvalidPath)
	}
	p := Path(fsPath)
	if p.IsURL() {
		return fsPath, nil
	}

	if r.settings.Remote() && !p.IsReferenceGenome() {
		rel, err := r.siteRelative(fsPath)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(r.settings.RemoteURL, "/") + rel, nil
	}

	rel, err := r.siteRelative(fsPath)
	if err != nil {
		return "", err
	}
	return "/" + r.settings.SiteName + rel, nil
}

// siteRelative returns the part of fsPath after the site root, with a leading slash
// when non-empty. Paths outside the site root fall back to the first site directory segment.
func (r *Resolver) siteRelative(fsPath string) (string, error) {
	clean := filepath.Clean(fsPath)
	if root := r.settings.SiteRoot; root != "" && root != "/" {
		if clean == root {
			return "", nil
		}
		if strings.HasPrefix(clean, root+"/") {
			return clean[len(root):], nil
		}
	}

	name := r.settings.SiteName
	if name == "" {
		return "", fmt.Errorf("%w: site name is not configured", shared.ErrConfiguration)
	}
	segment := "/" + name
	if i := strings.Index(clean, segment+"/"); i >= 0 {
		return clean[i+len(segment):], nil
	}
	if strings.HasSuffix(clean, segment) {
		return "", nil
	}
	return "", fmt.Errorf("%w: %q is not inside site directory %q", shared.ErrInvalidPath, fsPath, name)
}

// ToFilesystemPath is the inverse of [Resolver.ToWebURI] for local URIs. URLs pass through unchanged.
func (r *Resolver) ToFilesystemPath(webURI string) (string, error) {
	webURI = strings.TrimSpace(webURI)
	if webURI == "" {
		return "", fmt.Errorf("%w: empty web URI", shared.ErrInvalidPath)
	}
	if IsRemote(webURI) {
		return webURI, nil
	}
	if r.settings.SiteRoot == "" {
		return "", fmt.Errorf("%w: site path is not configured", shared.ErrConfiguration)
	}

	rest := webURI
	segment := "/" + r.settings.SiteName
	if r.settings.SiteName != "" && (rest == segment || strings.HasPrefix(rest, segment+"/")) {
		rest = strings.TrimPrefix(rest, segment)
	}
	return filepath.Join(r.settings.SiteRoot, rest), nil
}

// ResolveTrackPath resolves a raw source path into a concrete location.
//
// organism, assembly and autoType are only consulted for the AUTO keyword.
func (r *Resolver) ResolveTrackPath(source, organism, assembly, autoType string) (models.ResolvedPath, error) {
	p := Path(strings.TrimSpace(source))
	switch {
	case p.IsEmpty():
		return models.ResolvedPath{}, shared.ErrEmptyPath
	case p.IsAuto():
		loc, err := r.ResolveAuto(organism, assembly, autoType)
		if err != nil {
			return models.ResolvedPath{}, err
		}
		return models.ResolvedPath{Location: loc}, nil
	case p.IsURL():
		return models.ResolvedPath{Location: string(p), IsRemote: true}, nil
	case p.IsAbsolute():
		return models.ResolvedPath{Location: string(p)}, nil
	default:
		if r.settings.SiteRoot == "" {
			return models.ResolvedPath{}, fmt.Errorf("%w: site path is required for relative path %q", shared.ErrConfiguration, p)
		}
		return models.ResolvedPath{Location: filepath.Join(r.settings.SiteRoot, string(p))}, nil
	}
}

// ResolveAuto returns the standard genome file for an organism assembly.
// autoType is "fasta" or "gff".
func (r *Resolver) ResolveAuto(organism, assembly, autoType string) (string, error) {
	organism, assembly = strings.TrimSpace(organism), strings.TrimSpace(assembly)
	autoType = strings.ToLower(strings.TrimSpace(autoType))
	if organism == "" || assembly == "" || autoType == "" {
		return "", fmt.Errorf("%w: AUTO requires organism, assembly and type", shared.ErrMissingParameters)
	}
	if r.settings.GenomesDir == "" {
		return "", fmt.Errorf("%w: genomes directory is not configured", shared.ErrConfiguration)
	}

	dir := filepath.Join(r.settings.GenomesDir, organism, assembly)
	switch autoType {
	case autoTypeFasta:
		return filepath.Join(dir, ReferenceFasta), nil
	case autoTypeGFF:
		return filepath.Join(dir, AnnotationsGFF), nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedAutoType, autoType)
	}
}

// IsRemote reports whether path is an http(s) URL.
func (r *Resolver) IsRemote(path string) bool { return IsRemote(path) }

// CheckMetadataRoot returns a configuration error when no metadata root is set.
func (r *Resolver) CheckMetadataRoot() error {
	if strings.TrimSpace(r.settings.MetadataDir) == "" {
		return fmt.Errorf("%w: metadata directory is not configured", shared.ErrConfiguration)
	}
	return nil
}

// TrackDirectory returns {tracks}/{organism}/{assembly}/{type}, creating it if absent.
func (r *Resolver) TrackDirectory(organism, assembly, trackType string) (string, error) {
	if strings.TrimSpace(r.settings.TracksDir) == "" {
		return "", fmt.Errorf("%w: tracks directory is not configured", shared.ErrConfiguration)
	}
	dir := filepath.Join(r.settings.TracksDir, organism, assembly, trackType)
	if err := shared.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// MetadataDirectory returns the artifact directory for a type, creating it if absent.
func (r *Resolver) MetadataDirectory(organism, assembly, trackType string) (string, error) {
	if err := r.CheckMetadataRoot(); err != nil {
		return "", err
	}
	dir := r.TrackConfigDir(organism, assembly, trackType)
	if err := shared.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// TracksRoot is {metadata}/jbrowse2-configs/tracks.
func (r *Resolver) TracksRoot() string {
	return filepath.Join(r.settings.MetadataDir, configsDir, tracksDir)
}

// OrganismConfigDir is the artifact directory of every assembly of an organism.
func (r *Resolver) OrganismConfigDir(organism string) string {
	return filepath.Join(r.TracksRoot(), organism)
}

// AssemblyConfigDir is the artifact directory of every type of an assembly.
func (r *Resolver) AssemblyConfigDir(organism, assembly string) string {
	return filepath.Join(r.TracksRoot(), organism, assembly)
}

// TrackConfigDir is the artifact directory for one type. It is not created.
func (r *Resolver) TrackConfigDir(organism, assembly, trackType string) string {
	return filepath.Join(r.TracksRoot(), organism, assembly, trackType)
}

// TrackConfigPath is the artifact file of a track. It is not created.
func (r *Resolver) TrackConfigPath(organism, assembly, trackType, trackID string) string {
	return filepath.Join(r.TrackConfigDir(organism, assembly, trackType), trackID+artifactExtension)
}

// ComboConfigPath is the artifact file of a combo track, keyed by lower-cased ID.
func (r *Resolver) ComboConfigPath(organism, assembly, trackID string) string {
	return r.TrackConfigPath(organism, assembly, ComboType, strings.ToLower(trackID))
}

// SyntenyRoot is the directory holding every assembly pair.
func (r *Resolver) SyntenyRoot() string {
	return filepath.Join(r.TracksRoot(), SyntenyDir)
}

// SyntenyConfigDir is the artifact directory for one pair and type.
func (r *Resolver) SyntenyConfigDir(pair, trackType string) string {
	return filepath.Join(r.SyntenyRoot(), pair, trackType)
}

// SyntenyConfigPath is the artifact file of a synteny track.
func (r *Resolver) SyntenyConfigPath(pair, trackType, trackID string) string {
	return filepath.Join(r.SyntenyConfigDir(pair, trackType), trackID+artifactExtension)
}

// AssemblyConfigPath is {metadata}/jbrowse2-configs/assemblies/{organism}_{assembly}.json.
func (r *Resolver) AssemblyConfigPath(organism, assembly string) string {
	return filepath.Join(r.settings.MetadataDir, configsDir, assembliesDir, organism+"_"+assembly+artifactExtension)
}

// AssembliesDir holds every assembly metadata file.
func (r *Resolver) AssembliesDir() string {
	return filepath.Join(r.settings.MetadataDir, configsDir, assembliesDir)
}

// CacheDir holds cached browser configs for an assembly; an empty assembly yields the organism directory.
func (r *Resolver) CacheDir(organism, assembly string) string {
	return filepath.Join(r.settings.MetadataDir, configsDir, cacheDir, organism, assembly)
}

// GenomeDir is the reference genome data directory; an empty assembly yields the organism directory.
func (r *Resolver) GenomeDir(organism, assembly string) string {
	if r.settings.GenomesDir == "" {
		return ""
	}
	return filepath.Join(r.settings.GenomesDir, organism, assembly)
}

// TrackDataDir is the track data directory; an empty assembly yields the organism directory.
func (r *Resolver) TrackDataDir(organism, assembly string) string {
	if r.settings.TracksDir == "" {
		return ""
	}
	return filepath.Join(r.settings.TracksDir, organism, assembly)
}

// ArtifactPath is the artifact file for trackID inside dir.
func ArtifactPath(dir, trackID string) string {
	return filepath.Join(dir, trackID+artifactExtension)
}

// ArtifactIDs lists the track IDs of the artifacts stored directly in dir, sorted.
// A missing directory has no artifacts.
func ArtifactIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, artifactExtension) || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, artifactExtension))
	}
	return ids, nil
}

package manager

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Jeffail/gabs"
	"github.com/desertthunder/jbtracks/internal/handlers"
	"github.com/desertthunder/jbtracks/internal/paths"
)

// TrackInfo describes one artifact on disk.
type TrackInfo struct {
	TrackID     string `json:"track_id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	AccessLevel string `json:"access_level,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	IndexPath   string `json:"index_path,omitempty"`
	FileSize    int64  `json:"file_size"`
	Path        string `json:"path"`
}

// TrackStatus is the summary of a track exposed to callers.
type TrackStatus struct {
	TrackID  string `json:"track_id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Statistics summarizes the artifacts of an assembly.
type Statistics struct {
	Organism  string         `json:"organism"`
	Assembly  string         `json:"assembly"`
	Total     int            `json:"total"`
	ByType    map[string]int `json:"by_type"`
	ByAccess  map[string]int `json:"by_access"`
	TotalSize int64          `json:"total_size"`
}

// artifact holds the fields read back from a track config.
type artifact struct {
	Name        string
	Category    string
	FilePath    string
	IndexPath   string
	AccessLevel string
	FileSize    int64
}

func readArtifact(path string) (*artifact, error) {
	parsed, err := gabs.ParseJSONFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track config %s: %w", path, err)
	}

	a := &artifact{
		Name:        stringAt(parsed, "name"),
		FilePath:    stringAt(parsed, "metadata."+handlers.MetaFilePath),
		IndexPath:   stringAt(parsed, "metadata."+handlers.MetaIndexPath),
		AccessLevel: stringAt(parsed, "metadata."+handlers.MetaAccessLevel),
	}
	switch size := parsed.Path("metadata." + handlers.MetaFileSize).Data().(type) {
	case float64:
		a.FileSize = int64(size)
	}

	if children, err := parsed.Path("category").Children(); err == nil {
		var parts []string
		for _, c := range children {
			if s, ok := c.Data().(string); ok {
				parts = append(parts, s)
			}
		}
		a.Category = strings.Join(parts, "/")
	} else {
		a.Category = stringAt(parsed, "category")
	}
	return a, nil
}

func stringAt(c *gabs.Container, path string) string {
	s, _ := c.Path(path).Data().(string)
	return s
}

// subdirs lists the directory names inside dir, sorted. A missing dir is empty.
func subdirs(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ListOrganisms lists organisms with track configs.
func (m *Manager) ListOrganisms() ([]string, error) {
	names, err := subdirs(m.resolver.TracksRoot())
	if err != nil {
		return nil, err
	}
	organisms := names[:0]
	for _, n := range names {
		if n != paths.SyntenyDir {
			organisms = append(organisms, n)
		}
	}
	return organisms, nil
}

// ListAssemblies lists the assemblies of an organism that have track configs or genome data.
func (m *Manager) ListAssemblies(organism string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, dir := range []string{m.resolver.OrganismConfigDir(organism), m.resolver.GenomeDir(organism, "")} {
		names, err := subdirs(dir)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	assemblies := make([]string, 0, len(seen))
	for n := range seen {
		assemblies = append(assemblies, n)
	}
	sort.Strings(assemblies)
	return assemblies, nil
}

// ListTracks reads every artifact of an assembly, in type then ID order.
// Unreadable artifacts are listed with their ID and type only.
func (m *Manager) ListTracks(organism, assembly string) ([]TrackInfo, error) {
	var tracks []TrackInfo
	for _, t := range m.types {
		dir := m.resolver.TrackConfigDir(organism, assembly, t)
		ids, err := paths.ArtifactIDs(dir)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			info := TrackInfo{TrackID: id, Type: t, Path: paths.ArtifactPath(dir, id)}
			a, err := readArtifact(info.Path)
			if err != nil {
				m.logger.Warn("unreadable track config", "path", info.Path, "error", err)
			} else {
				info.Name = a.Name
				info.Category = a.Category
				info.AccessLevel = a.AccessLevel
				info.FilePath = a.FilePath
				info.IndexPath = a.IndexPath
				info.FileSize = a.FileSize
			}
			tracks = append(tracks, info)
		}
	}
	return tracks, nil
}

// TrackStatus summarizes every track of an assembly.
func (m *Manager) TrackStatus(organism, assembly string) ([]TrackStatus, error) {
	tracks, err := m.ListTracks(organism, assembly)
	if err != nil {
		return nil, err
	}
	status := make([]TrackStatus, 0, len(tracks))
	for _, t := range tracks {
		status = append(status, TrackStatus{TrackID: t.TrackID, Type: t.Type, Name: t.Name, Category: t.Category})
	}
	return status, nil
}

// GetTrackStatistics counts the tracks of an assembly and sums their file sizes.
// Tracks without a file size count as zero.
func (m *Manager) GetTrackStatistics(organism, assembly string) (*Statistics, error) {
	tracks, err := m.ListTracks(organism, assembly)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{
		Organism: organism,
		Assembly: assembly,
		ByType:   make(map[string]int),
		ByAccess: make(map[string]int),
	}
	for _, t := range tracks {
		stats.Total++
		stats.ByType[t.Type]++
		if t.AccessLevel != "" {
			stats.ByAccess[t.AccessLevel]++
		}
		stats.TotalSize += t.FileSize
	}
	return stats, nil
}

// Package manager removes, lists and summarizes generated track configs.
//
// It works only on the artifact tree written by the generators. Cascading
// removals run every step even when an earlier one fails and report each step
// in [Result.Steps]. Dry runs make the same decisions without touching the
// filesystem, and label every removed item with the dry-run suffix.
package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/handlers"
	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// Options controls a removal.
type Options struct {
	DryRun     bool // Decide and report without deleting
	RemoveData bool // Also delete the data and index files named by the artifact
}

// StepResult is the outcome of one step of a removal.
type StepResult struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Removed int    `json:"removed"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a removal. Success is true only when Errors is empty.
type Result struct {
	Success      bool         `json:"success"`
	ItemsRemoved []string     `json:"items_removed"`
	Errors       []string     `json:"errors"`
	Steps        []StepResult `json:"steps"`
}

func newResult() *Result {
	return &Result{ItemsRemoved: []string{}, Errors: []string{}, Steps: []StepResult{}}
}

func (r *Result) fail(err error) {
	r.Errors = append(r.Errors, err.Error())
}

func (r *Result) finish() *Result {
	r.Success = len(r.Errors) == 0
	return r
}

// Manager manages the artifacts of one deployment.
type Manager struct {
	resolver *paths.Resolver
	types    []string
	logger   *log.Logger
}

// New creates a manager scanning the given type directories. With no types
// it scans every single-assembly type.
func New(resolver *paths.Resolver, types []string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if len(types) == 0 {
		reg := handlers.NewRegistry()
		for _, h := range handlers.SingleAssembly(resolver, logger) {
			reg.Register(h)
		}
		types = reg.Types()
	}
	return &Manager{resolver: resolver, types: types, logger: logger}
}

// Types returns the scanned type directories.
func (m *Manager) Types() []string { return append([]string(nil), m.types...) }

func label(item string, dryRun bool) string {
	if dryRun {
		return item + handlers.DryRunLabel
	}
	return item
}

// artifactPath is the artifact of trackID in the type directory t.
func (m *Manager) artifactPath(organism, assembly, t, trackID string) string {
	if t == handlers.ComboType {
		return m.resolver.ComboConfigPath(organism, assembly, trackID)
	}
	return m.resolver.TrackConfigPath(organism, assembly, t, trackID)
}

// findTrack returns every artifact of trackID, keyed by type, in scan order.
func (m *Manager) findTrack(trackID, organism, assembly string) []located {
	var found []located
	for _, t := range m.types {
		if path := m.artifactPath(organism, assembly, t, trackID); shared.FileExists(path) {
			found = append(found, located{typeID: t, path: path})
		}
	}
	return found
}

type located struct {
	typeID string
	path   string
}

// removeFile deletes path, or only records it in dry runs.
func (r *Result) removeFile(path string, opts Options, logger *log.Logger) bool {
	if !opts.DryRun {
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove file", "path", path, "error", err)
			r.fail(fmt.Errorf("failed to remove %s: %w", path, err))
			return false
		}
	}
	logger.Info("removed"+label("", opts.DryRun), "path", path)
	r.ItemsRemoved = append(r.ItemsRemoved, label(path, opts.DryRun))
	return true
}

// RemoveTrack removes every artifact of trackID and, with opts.RemoveData, the
// local data and index files recorded in its metadata.
func (m *Manager) RemoveTrack(trackID, organism, assembly string, opts Options) *Result {
	res := newResult()
	found := m.findTrack(trackID, organism, assembly)
	if len(found) == 0 {
		res.fail(fmt.Errorf("%w: %s in %s/%s", shared.ErrTrackNotFound, trackID, organism, assembly))
		return res.finish()
	}

	for _, f := range found {
		m.removeLocated(res, f, opts)
	}
	return res.finish()
}

// removeLocated removes one artifact and, with opts.RemoveData, its data files.
func (m *Manager) removeLocated(res *Result, f located, opts Options) {
	step := StepResult{Name: "track " + f.typeID, Path: f.path}
	if opts.RemoveData {
		step.Removed += m.removeData(res, f.path, opts)
	}
	if res.removeFile(f.path, opts, m.logger) {
		step.Removed++
	} else {
		step.Error = res.Errors[len(res.Errors)-1]
	}
	res.Steps = append(res.Steps, step)
}

// removeData deletes the local files an artifact points at. Remote files and
// files already gone are left alone.
func (m *Manager) removeData(res *Result, artifact string, opts Options) int {
	a, err := readArtifact(artifact)
	if err != nil {
		res.fail(err)
		return 0
	}
	removed := 0
	for _, path := range []string{a.FilePath, a.IndexPath} {
		if path == "" || paths.IsRemote(path) || !shared.FileExists(path) {
			continue
		}
		if res.removeFile(path, opts, m.logger) {
			removed++
		}
	}
	return removed
}

// removeTree deletes path child-first and returns how many files and
// directories were (or, in dry runs, would be) removed. A missing path removes nothing.
func removeTree(path string, dryRun bool) (int, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if !info.IsDir() {
		if !dryRun {
			if err := os.Remove(path); err != nil {
				return 0, err
			}
		}
		return 1, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, err
	}
	count := 0
	var errs []error
	for _, e := range entries {
		n, err := removeTree(filepath.Join(path, e.Name()), dryRun)
		count += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return count, errors.Join(errs...)
	}
	if !dryRun {
		if err := os.Remove(path); err != nil {
			return count, err
		}
	}
	return count + 1, nil
}

// step runs one best-effort removal of path and records it.
func (m *Manager) step(res *Result, name, path string, opts Options) {
	if path == "" {
		return
	}
	s := StepResult{Name: name, Path: path}
	n, err := removeTree(path, opts.DryRun)
	s.Removed = n
	if err != nil {
		s.Error = err.Error()
		res.fail(fmt.Errorf("%s: %w", name, err))
		m.logger.Warn("removal step failed", "step", name, "path", path, "error", err)
	}
	if n > 0 {
		res.ItemsRemoved = append(res.ItemsRemoved, label(path, opts.DryRun))
		m.logger.Info("removed"+label("", opts.DryRun), "step", name, "path", path, "items", n)
	}
	res.Steps = append(res.Steps, s)
}

// RemoveAssembly removes the track configs, assembly metadata and cached configs
// of an assembly, and with opts.RemoveData its genome and track data.
func (m *Manager) RemoveAssembly(organism, assembly string, opts Options) *Result {
	res := newResult()
	if organism == "" || assembly == "" {
		res.fail(fmt.Errorf("%w: organism and assembly", shared.ErrMissingArgument))
		return res.finish()
	}
	m.step(res, "track metadata", m.resolver.AssemblyConfigDir(organism, assembly), opts)
	m.step(res, "assembly metadata", m.resolver.AssemblyConfigPath(organism, assembly), opts)
	m.step(res, "cached configs", m.resolver.CacheDir(organism, assembly), opts)
	if opts.RemoveData {
		m.step(res, "genome data", m.resolver.GenomeDir(organism, assembly), opts)
		m.step(res, "track data", m.resolver.TrackDataDir(organism, assembly), opts)
	}
	return res.finish()
}

// RemoveOrganism removes every assembly of an organism.
func (m *Manager) RemoveOrganism(organism string, opts Options) *Result {
	res := newResult()
	if organism == "" {
		res.fail(fmt.Errorf("%w: organism", shared.ErrMissingArgument))
		return res.finish()
	}

	assemblies, err := m.ListAssemblies(organism)
	if err != nil {
		res.fail(err)
	}
	for _, asm := range assemblies {
		m.step(res, "assembly metadata", m.resolver.AssemblyConfigPath(organism, asm), opts)
	}
	m.step(res, "track metadata", m.resolver.OrganismConfigDir(organism), opts)
	m.step(res, "cached configs", m.resolver.CacheDir(organism, ""), opts)
	if opts.RemoveData {
		m.step(res, "genome data", m.resolver.GenomeDir(organism, ""), opts)
		m.step(res, "track data", m.resolver.TrackDataDir(organism, ""), opts)
	}
	return res.finish()
}

// CleanOrphanedTracks removes every track of an assembly whose ID is not in
// validIDs. Combo IDs compare case-insensitively. Only the orphaned artifact is
// removed, so an ID still valid under another type keeps that artifact.
func (m *Manager) CleanOrphanedTracks(validIDs []string, organism, assembly string, opts Options) *Result {
	res := newResult()
	valid := make(map[string]struct{}, len(validIDs))
	validCombo := make(map[string]struct{}, len(validIDs))
	for _, id := range validIDs {
		valid[id] = struct{}{}
		validCombo[strings.ToLower(id)] = struct{}{}
	}

	tracks, err := m.ListTracks(organism, assembly)
	if err != nil {
		res.fail(err)
		return res.finish()
	}
	for _, t := range tracks {
		set := valid
		if t.Type == handlers.ComboType {
			set = validCombo
		}
		if _, ok := set[t.TrackID]; ok {
			continue
		}
		m.removeLocated(res, located{typeID: t.Type, path: t.Path}, opts)
	}
	return res.finish()
}

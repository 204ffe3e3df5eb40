// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/jbtracks/internal/paths"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FakeSheetSource serves canned spreadsheet exports keyed by "sheetID/gid".
type FakeSheetSource struct {
	mu     sync.Mutex
	Sheets map[string]string
	Err    error
	Calls  []string
}

func NewFakeSheetSource(sheets map[string]string) *FakeSheetSource {
	return &FakeSheetSource{Sheets: sheets}
}

func (f *FakeSheetSource) Download(ctx context.Context, sheetID, gid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sheetID + "/" + gid
	f.Calls = append(f.Calls, key)
	if f.Err != nil {
		return "", f.Err
	}
	raw, ok := f.Sheets[key]
	if !ok {
		return "", errors.New("sheet not found: " + key)
	}
	return raw, nil
}

// Site is a throwaway deployment rooted in a temp dir.
type Site struct {
	Root     string
	Settings paths.Settings
}

// NewSite lays out {root}/data/genomes, {root}/data/tracks and {root}/metadata settings.
// Directories are created lazily by the code under test.
func NewSite(t *testing.T) *Site {
	t.Helper()
	root := t.TempDir()
	return &Site{
		Root: root,
		Settings: paths.Settings{
			SiteRoot:    root,
			SiteName:    filepath.Base(root),
			GenomesDir:  filepath.Join(root, "data", "genomes"),
			TracksDir:   filepath.Join(root, "data", "tracks"),
			MetadataDir: filepath.Join(root, "metadata"),
		},
	}
}

func (s *Site) Resolver() *paths.Resolver { return paths.NewResolver(s.Settings) }

// DataFile writes content at rel under the site root and returns the absolute path.
func (s *Site) DataFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(s.Root, rel)
	MustWriteFile(t, path, content)
	return path
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func MustWriteJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal %s: %v", path, err)
	}
	MustWriteFile(t, path, string(data))
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustReadJSON decodes the JSON object at path.
func MustReadJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(MustReadFile(t, path)), &out); err != nil {
		t.Fatalf("Failed to decode %s: %v", path, err)
	}
	return out
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

// SnapshotTree maps every path under root to its content. Directories map to "/".
func SnapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	snap := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			snap[rel] = "/"
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		snap[rel] = string(data)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Failed to snapshot %s: %v", root, err)
	}
	return snap
}

// AssertSameTree fails when before and after differ.
func AssertSameTree(t *testing.T, before, after map[string]string) {
	t.Helper()
	for path, content := range before {
		got, ok := after[path]
		if !ok {
			t.Errorf("%s was removed", path)
			continue
		}
		if got != content {
			t.Errorf("%s was modified", path)
		}
	}
	for path := range after {
		if _, ok := before[path]; !ok {
			t.Errorf("%s was created", path)
		}
	}
}

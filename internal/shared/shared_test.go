package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestIsHTTPURL(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want bool
	}{
		{name: "http", in: "http://example.org/x.bw", want: true},
		{name: "https", in: "https://example.org/x.bw", want: true},
		{name: "mixed case scheme", in: "HTTPS://example.org/x.bw", want: true},
		{name: "absolute path", in: "/data/x.bw", want: false},
		{name: "ftp", in: "ftp://example.org/x.bw", want: false},
		{name: "scheme not at start", in: "see http://example.org", want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHTTPURL(tt.in); got != tt.want {
				t.Errorf("IsHTTPURL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	if got := ParseLogLevel("debug"); got != log.DebugLevel {
		t.Errorf("expected debug level, got %v", got)
	}
	if got := ParseLogLevel(""); got != log.InfoLevel {
		t.Errorf("expected info level for empty input, got %v", got)
	}
	if got := ParseLogLevel("chatty"); got != log.InfoLevel {
		t.Errorf("expected info level for unknown input, got %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf)
	logger.Info("hello", "track_id", "cov1")

	if !bytes.Contains(buf.Bytes(), []byte("track_id=cov1")) {
		t.Errorf("expected key/value pair in output, got %s", buf.String())
	}
}

func TestFS(t *testing.T) {
	t.Run("EnsureDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b", "c")
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir failed: %v", err)
		}
		if !DirExists(dir) {
			t.Error("expected directory to exist")
		}
	})

	t.Run("EnsureDir under a file fails", func(t *testing.T) {
		base := t.TempDir()
		file := filepath.Join(base, "file")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		err := EnsureDir(filepath.Join(file, "child"))
		if !errors.Is(err, ErrDirectoryCreate) {
			t.Errorf("expected ErrDirectoryCreate, got %v", err)
		}
	})

	t.Run("WriteFileAtomic", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "track.json")

		if err := WriteFileAtomic(path, []byte(`{"a":1}`)); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		if !FileExists(path) {
			t.Fatal("expected file to exist")
		}
		if FileSize(path) != 7 {
			t.Errorf("expected size 7, got %d", FileSize(path))
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("expected no leftover temp files, got %d entries", len(entries))
		}
	})

	t.Run("FileSize of missing file", func(t *testing.T) {
		if FileSize(filepath.Join(t.TempDir(), "missing")) != 0 {
			t.Error("expected zero size for missing file")
		}
	})
}

package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Site.Name != "moop" {
			t.Errorf("expected site name moop, got %s", config.Site.Name)
		}

		if config.Site.Path != "/var/www/html/moop" {
			t.Errorf("expected site path /var/www/html/moop, got %s", config.Site.Path)
		}

		if config.TracksServer.Enabled {
			t.Error("expected tracks server to be disabled by default")
		}

		if config.Database.Path != "./jbtracks.db" {
			t.Errorf("expected database path ./jbtracks.db, got %s", config.Database.Path)
		}

		if config.Sheets.MaxRetries != 3 {
			t.Errorf("expected 3 sheet retries, got %d", config.Sheets.MaxRetries)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Directories.Metadata != DefaultConfig().Directories.Metadata {
			t.Errorf("created config metadata dir doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[site]
path = "/data/moop"
name = "moop"

[directories]
genomes = "/data/moop/data/genomes"
tracks = "/data/moop/data/tracks"
metadata = "/data/moop/metadata"

[tracks_server]
enabled = true
url = "https://tracks.example.org"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Site.Path != "/data/moop" {
			t.Errorf("expected site path /data/moop, got %s", config.Site.Path)
		}
		if !config.TracksServer.Enabled || config.TracksServer.URL != "https://tracks.example.org" {
			t.Errorf("unexpected tracks server config: %+v", config.TracksServer)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig with missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("JBTRACKS_SITE_PATH", "/opt/moop")
		t.Setenv("JBTRACKS_TRACKS_SERVER_ENABLED", "true")
		t.Setenv("JBTRACKS_TRACKS_SERVER_URL", "https://remote.example.org")

		config := DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			t.Fatalf("ApplyEnv failed: %v", err)
		}

		if config.Site.Path != "/opt/moop" {
			t.Errorf("expected env site path, got %s", config.Site.Path)
		}
		if config.Site.Name != "moop" {
			t.Errorf("unset env var should keep TOML value, got %s", config.Site.Name)
		}
		if !config.TracksServer.Enabled {
			t.Error("expected tracks server enabled from env")
		}
		if config.TracksServer.URL != "https://remote.example.org" {
			t.Errorf("expected env tracks server url, got %s", config.TracksServer.URL)
		}
	})

	t.Run("ApplyEnv with invalid bool", func(t *testing.T) {
		t.Setenv("JBTRACKS_TRACKS_SERVER_ENABLED", "maybe")

		config := DefaultConfig()
		if err := config.ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "missing site path", mutate: func(c *Config) { c.Site.Path = "" }},
			{name: "missing site name", mutate: func(c *Config) { c.Site.Name = "" }},
			{name: "missing metadata dir", mutate: func(c *Config) { c.Directories.Metadata = "" }},
			{name: "remote enabled without url", mutate: func(c *Config) {
				c.TracksServer.Enabled = true
				c.TracksServer.URL = ""
			}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrConfiguration) {
					t.Errorf("expected ErrConfiguration, got %v", err)
				}
			})
		}
	})
}

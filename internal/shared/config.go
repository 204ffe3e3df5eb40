package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is the prefix for environment variables that override the TOML configuration.
const EnvPrefix = "JBTRACKS"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Site         SiteConfig         `toml:"site"`
	Directories  DirectoriesConfig  `toml:"directories"`
	TracksServer TracksServerConfig `toml:"tracks_server"`
	Sheets       SheetsConfig       `toml:"sheets"`
	Database     DatabaseConfig     `toml:"database"`
	Logging      LoggingConfig      `toml:"logging"`
}

// SiteConfig locates the deployed site on disk.
//
// Name is the site directory name (e.g. "moop") used to anchor filesystem to web URI translation.
type SiteConfig struct {
	Path string `toml:"path"`
	Name string `toml:"name"`
}

// DirectoriesConfig contains the storage roots for genomes, track data and generated metadata.
type DirectoriesConfig struct {
	Genomes  string `toml:"genomes"`
	Tracks   string `toml:"tracks"`
	Metadata string `toml:"metadata"`
}

// TracksServerConfig describes an optional remote host serving track data files.
type TracksServerConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
}

// SheetsConfig contains spreadsheet download settings.
type SheetsConfig struct {
	BaseURL        string  `toml:"base_url"`
	RateLimit      float64 `toml:"rate_limit"`
	MaxRetries     int     `toml:"max_retries"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// DatabaseConfig contains run history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// envOverrides lists every setting that may be overridden from the environment.
//
// Unset variables leave the TOML value untouched.
type envOverrides struct {
	SitePath            string `envconfig:"SITE_PATH"`
	SiteName            string `envconfig:"SITE_NAME"`
	GenomesDir          string `envconfig:"GENOMES_DIR"`
	TracksDir           string `envconfig:"TRACKS_DIR"`
	MetadataDir         string `envconfig:"METADATA_DIR"`
	TracksServerEnabled *bool  `envconfig:"TRACKS_SERVER_ENABLED"`
	TracksServerURL     string `envconfig:"TRACKS_SERVER_URL"`
	DatabasePath        string `envconfig:"DATABASE_PATH"`
	LogLevel            string `envconfig:"LOG_LEVEL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides configuration values from JBTRACKS_* environment variables.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setIf(&c.Site.Path, env.SitePath)
	setIf(&c.Site.Name, env.SiteName)
	setIf(&c.Directories.Genomes, env.GenomesDir)
	setIf(&c.Directories.Tracks, env.TracksDir)
	setIf(&c.Directories.Metadata, env.MetadataDir)
	setIf(&c.TracksServer.URL, env.TracksServerURL)
	setIf(&c.Database.Path, env.DatabasePath)
	setIf(&c.Logging.Level, env.LogLevel)
	if env.TracksServerEnabled != nil {
		c.TracksServer.Enabled = *env.TracksServerEnabled
	}
	return nil
}

// Validate reports configuration that makes track placement impossible.
func (c *Config) Validate() error {
	var missing []string
	if c.Site.Path == "" {
		missing = append(missing, "site.path")
	}
	if c.Site.Name == "" {
		missing = append(missing, "site.name")
	}
	if c.Directories.Metadata == "" {
		missing = append(missing, "directories.metadata")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.TracksServer.Enabled && !IsHTTPURL(c.TracksServer.URL) {
		return fmt.Errorf("%w: tracks_server.url must be an http(s) URL when enabled", ErrConfiguration)
	}
	return nil
}

// LoadOrDefault loads the config at path when it exists, otherwise the embedded defaults, then applies env overrides.
func LoadOrDefault(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// Package config resolves runtime settings for the server and the CLI.
//
// Values are layered: built-in defaults, then <DataDir>/config.yaml, then
// NOISEDETOX_* environment variables, then command-line flags. Each layer
// only overrides the fields it actually sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/noisedetox/internal/kv"
)

const (
	// EnvPrefix prefixes every environment variable Load reads.
	EnvPrefix = "NOISEDETOX"

	// FileName is the optional YAML file inside the data directory.
	FileName = "config.yaml"

	defaultDirName = ".noisedetox"
)

// Config holds resolved settings.
type Config struct {
	// DataDir holds the database, the per-key files and config.yaml.
	DataDir string `envconfig:"DATA_DIR" yaml:"-"`

	// Backend selects the kv medium: sqlite, file or memory.
	Backend string `envconfig:"BACKEND" yaml:"backend"`

	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level"`

	// ExportDir is where export files land. Empty means the working directory.
	ExportDir string `envconfig:"EXPORT_DIR" yaml:"export_dir,omitempty"`

	// Timezone is an IANA zone name used for day boundaries and display.
	// Empty means the host zone.
	Timezone string `envconfig:"TIMEZONE" yaml:"timezone,omitempty"`
}

// Overrides carries flag values. Empty fields leave the lower layers alone.
type Overrides struct {
	DataDir  string
	Backend  string
	LogLevel string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  defaultDataDir(),
		Backend:  kv.BackendSQLite,
		LogLevel: "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

// Load resolves the configuration. The data directory is settled first
// (flag, then environment, then default) because it locates config.yaml.
func Load(o Overrides) (*Config, error) {
	cfg := DefaultConfig()

	switch {
	case o.DataDir != "":
		cfg.DataDir = o.DataDir
	case os.Getenv(EnvPrefix+"_DATA_DIR") != "":
		cfg.DataDir = os.Getenv(EnvPrefix + "_DATA_DIR")
	}

	if err := cfg.readFile(Path(cfg.DataDir)); err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile merges the YAML file at path into c. A missing file is not an
// error.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the backend, log level and timezone.
func (c *Config) Validate() error {
	switch c.Backend {
	case kv.BackendSQLite, kv.BackendFile, kv.BackendMemory:
	default:
		return fmt.Errorf("config: unknown backend %q (want %s, %s or %s)",
			c.Backend, kv.BackendSQLite, kv.BackendFile, kv.BackendMemory)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return errors.New("config: data dir is empty")
	}
	return nil
}

// Location loads the configured timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Save writes the file-backed fields to <DataDir>/config.yaml.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", c.DataDir, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(Path(c.DataDir), data, 0o644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// Path returns the YAML file location for dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

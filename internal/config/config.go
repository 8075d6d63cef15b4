package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"pimparse/internal/parser"
)

// Environment variables that override file values after ApplyEnv.
const (
	EnvListen     = "PIMPARSE_LISTEN"
	EnvTimezone   = "PIMPARSE_TIMEZONE"
	EnvFloatingTZ = "PIMPARSE_FLOATING_TZ"
	EnvLogLevel   = "PIMPARSE_LOG_LEVEL"
)

// SourceConfig describes a single local document to load.
type SourceConfig struct {
	// ID is an internal identifier used for lookups and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Path is the file to read.
	Path string `yaml:"path" json:"path"`
	// Kind forces the format (ics, vcf, csv, tsv). Empty means infer from
	// the file extension.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// ResolveKind returns the configured kind, or the one implied by Path.
func (s SourceConfig) ResolveKind() (parser.Kind, error) {
	if s.Kind != "" {
		return parser.ParseKind(s.Kind)
	}
	return parser.KindFromPath(s.Path)
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone occurrences are displayed in (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// FloatingTimezone anchors date-times written without a zone. Empty or
	// "local" means the host's local zone.
	FloatingTimezone string `yaml:"floating_timezone" json:"floating_timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Output is the CLI output format: "json" (default) or "yaml".
	Output string `yaml:"output" json:"output"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic reloading of Sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is the number of future days /api/occurrences expands by default.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// MaxOccurrences caps the instances expanded per recurring event.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences"`

	// Sources is the list of documents loaded by the server.
	Sources []SourceConfig `yaml:"sources" json:"sources"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		Timezone:         "UTC",
		FloatingTimezone: "local",
		LogLevel:         "info",
		Output:           "json",
		RefreshCron:      "*/15 * * * *",
		HorizonDays:      7,
		MaxOccurrences:   5000,
		Sources:          []SourceConfig{},
		BasicAuth:        nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.FloatingTimezone == "" {
		c.FloatingTimezone = d.FloatingTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	switch strings.ToLower(c.Output) {
	case "json", "yaml":
		c.Output = strings.ToLower(c.Output)
	default:
		// Unknown value; fall back to json.
		c.Output = d.Output
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = d.MaxOccurrences
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
	for i := range c.Sources {
		if c.Sources[i].ID == "" {
			c.Sources[i].ID = strings.TrimSuffix(filepath.Base(c.Sources[i].Path), filepath.Ext(c.Sources[i].Path))
		}
		if c.Sources[i].Name == "" {
			c.Sources[i].Name = c.Sources[i].ID
		}
	}
}

// ApplyEnv loads a .env file from the working directory when one exists and
// lets PIMPARSE_* variables override file values.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	for env, dst := range map[string]*string{
		EnvListen:     &c.Listen,
		EnvTimezone:   &c.Timezone,
		EnvFloatingTZ: &c.FloatingTimezone,
		EnvLogLevel:   &c.LogLevel,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate checks values that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.RefreshCron, err)
	}
	if _, err := c.DisplayLocation(); err != nil {
		return err
	}
	if _, err := c.FloatingLocation(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("source %q has no path", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
		if _, err := s.ResolveKind(); err != nil {
			return fmt.Errorf("source %q: %w", s.ID, err)
		}
	}
	return nil
}

// DisplayLocation resolves Timezone.
func (c *Config) DisplayLocation() (*time.Location, error) {
	return resolveLocation(c.Timezone)
}

// FloatingLocation resolves FloatingTimezone.
func (c *Config) FloatingLocation() (*time.Location, error) {
	return resolveLocation(c.FloatingTimezone)
}

func resolveLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".pimparse-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

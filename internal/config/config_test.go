package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.Output != "json" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
output: YAML
sources:
  - path: /data/team.ics
  - id: people
    path: /data/contacts.vcf
    kind: vcard
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "yaml" || cfg.HorizonDays != 7 || cfg.RefreshCron == "" {
		t.Fatalf("not normalized: %+v", cfg)
	}
	if cfg.Sources[0].ID != "team" || cfg.Sources[0].Name != "team" {
		t.Fatalf("source id not derived: %+v", cfg.Sources[0])
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Sources = []SourceConfig{{ID: "a", Name: "A", Path: "a.csv"}}
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Sources) != 1 || got.Sources[0].Path != "a.csv" || got.BasicAuth == nil || got.BasicAuth.Username != "u" {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad cron", func(c *Config) { c.RefreshCron = "every five minutes" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad floating timezone", func(c *Config) { c.FloatingTimezone = "Nowhere/Land" }},
		{"unknown kind", func(c *Config) { c.Sources = []SourceConfig{{ID: "x", Path: "x.ods"}} }},
		{"missing path", func(c *Config) { c.Sources = []SourceConfig{{ID: "x"}} }},
		{"duplicate id", func(c *Config) {
			c.Sources = []SourceConfig{{ID: "x", Path: "a.ics"}, {ID: "x", Path: "b.ics"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvListen, ":9999")
	t.Setenv(EnvFloatingTZ, "Europe/Berlin")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Listen != ":9999" || cfg.FloatingTimezone != "Europe/Berlin" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unset env changed log level: %q", cfg.LogLevel)
	}
}

func TestApplyEnvDotFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvLogLevel+"=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvLogLevel) })

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
}

func TestFloatingLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.FloatingLocation()
	if err != nil || loc != time.Local {
		t.Fatalf("default floating = %v, %v", loc, err)
	}
	cfg.FloatingTimezone = "UTC"
	loc, err = cfg.FloatingLocation()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("floating = %v, %v", loc, err)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"pimparse/internal/config"
	"pimparse/internal/ics"
	appLog "pimparse/internal/log"
	"pimparse/internal/metric"
	"pimparse/internal/model"
	"pimparse/internal/parser"
	"pimparse/internal/source"
	"pimparse/internal/vcard"
	"pimparse/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values before they are merged into the config.
type flagConfig struct {
	configPath string
	kind       string
	out        string
	emit       bool
	expandDays int
	serve      bool
	listen     string
	logLevel   string
	files      []string
}

func parseFlags(args []string) (flagConfig, error) {
	var cfg flagConfig
	fs := flag.NewFlagSet("pimparse", flag.ContinueOnError)

	fs.StringVar(&cfg.configPath, "config", "", "Path to config file (required with -serve)")
	fs.StringVar(&cfg.kind, "kind", "", "Document kind: ics, vcf, csv, tsv (default: from file extension)")
	fs.StringVar(&cfg.out, "out", "", "Output format: json or yaml (overrides config)")
	fs.BoolVar(&cfg.emit, "emit", false, "Re-serialize calendars and cards instead of printing their structure")
	fs.IntVar(&cfg.expandDays, "expand-days", 0, "Print calendar occurrences for the next N days")
	fs.BoolVar(&cfg.serve, "serve", false, "Serve configured sources over HTTP")
	fs.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.files = fs.Args()
	if !cfg.serve && len(cfg.files) == 0 {
		return cfg, errors.New("no input files; pass files to parse or -serve")
	}
	if cfg.serve && cfg.configPath == "" {
		return cfg, errors.New("-serve requires -config")
	}
	if cfg.emit && cfg.expandDays > 0 {
		return cfg, errors.New("-emit and -expand-days are mutually exclusive")
	}
	return cfg, nil
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	flags, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		appLog.Error("invalid arguments", err)
		return 2
	}

	conf, err := loadConfig(flags)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}
	if lvl, err := appLog.ParseLevel(conf.LogLevel); err == nil {
		appLog.SetLevel(lvl)
	}

	appLog.Debug("effective config",
		"version", version,
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"floating_timezone", conf.FloatingTimezone,
		"output", conf.Output,
		"sources", len(conf.Sources),
	)

	floating, err := conf.FloatingLocation()
	if err != nil {
		appLog.Error("invalid floating timezone", err)
		return 1
	}

	if flags.serve {
		if err := serve(ctx, conf, floating); err != nil {
			appLog.Error("server failed", err)
			return 1
		}
		return 0
	}

	sources := make([]config.SourceConfig, 0, len(flags.files))
	for _, path := range flags.files {
		sources = append(sources, config.SourceConfig{ID: path, Name: path, Path: path, Kind: flags.kind})
	}
	docs, err := source.NewLoader(sources, floating, nil).LoadAll(ctx)
	if err != nil {
		appLog.Error("load interrupted", err)
		return 1
	}

	failed := false
	for _, d := range docs {
		if d.Err() != nil {
			appLog.Error("parse failed", d.Err(), "path", d.Source.Path)
			failed = true
		}
	}

	if err := writeOutput(stdout, conf, flags, docs); err != nil {
		appLog.Error("write output failed", err)
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

func loadConfig(flags flagConfig) (*config.Config, error) {
	conf := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		conf = loaded
	}
	if err := conf.ApplyEnv(); err != nil {
		return nil, err
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.out != "" {
		conf.Output = flags.out
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func serve(ctx context.Context, conf *config.Config, floating *time.Location) error {
	m := metric.New()
	loader := source.NewLoader(conf.Sources, floating, m)
	sched := source.NewScheduler(loader, conf.RefreshCron)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	return web.NewServer(conf, loader, sched, m).Serve(ctx)
}

func writeOutput(w io.Writer, conf *config.Config, flags flagConfig, docs []source.Document) error {
	switch {
	case flags.emit:
		return emit(w, docs)
	case flags.expandDays > 0:
		occs, err := expand(conf, docs, flags.expandDays)
		if err != nil {
			return err
		}
		return encode(w, conf.Output, occs)
	default:
		return encode(w, conf.Output, docs)
	}
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes every calendar and card document back in its own format.
// Tables have no textual form and are skipped.
func emit(w io.Writer, docs []source.Document) error {
	for _, d := range docs {
		switch {
		case d.Calendar != nil:
			out, err := ics.Encode(d.Calendar)
			if err != nil {
				return fmt.Errorf("%s: %w", d.Source.Path, err)
			}
			if _, err := io.WriteString(w, out); err != nil {
				return err
			}
		case d.Cards != nil:
			var buf bytes.Buffer
			if err := vcard.Encode(&buf, d.Cards); err != nil {
				return fmt.Errorf("%s: %w", d.Source.Path, err)
			}
			if _, err := w.Write(buf.Bytes()); err != nil {
				return err
			}
		case d.Table != nil:
			appLog.Warn("emit skips tables", "path", d.Source.Path, "kind", d.Kind)
		}
	}
	return nil
}

func expand(conf *config.Config, docs []source.Document, days int) ([]model.Occurrence, error) {
	loc, err := conf.DisplayLocation()
	if err != nil {
		return nil, err
	}
	now := time.Now().In(loc)
	occs := []model.Occurrence{}
	for _, d := range docs {
		if d.Calendar == nil {
			if d.Kind != "" && d.Kind != parser.ICS {
				appLog.Warn("expand skips non-calendar document", "path", d.Source.Path, "kind", d.Kind)
			}
			continue
		}
		res, err := ics.Expand(d.Calendar, ics.ExpandConfig{
			SourceID:               d.Source.ID,
			DisplayLocation:        loc,
			RangeStart:             now,
			RangeEnd:               now.AddDate(0, 0, days),
			MaxOccurrencesPerEvent: conf.MaxOccurrences,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Source.Path, err)
		}
		occs = append(occs, res.Occurrences...)
	}
	slices.SortStableFunc(occs, model.ByStart)
	return occs, nil
}

// Package source loads the configured local documents and keeps the most
// recent parse of each one.
package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pimparse/internal/config"
	"pimparse/internal/ics"
	appLog "pimparse/internal/log"
	"pimparse/internal/metric"
	"pimparse/internal/parser"
	"pimparse/internal/sheet"
	"pimparse/internal/vcard"
)

// maxConcurrentLoads bounds how many documents are read and parsed at once.
const maxConcurrentLoads = 4

// Document is the outcome of loading one source. Exactly one of Calendar,
// Cards and Table is set when Error is empty.
type Document struct {
	Source   config.SourceConfig `json:"source" yaml:"source"`
	Kind     parser.Kind         `json:"kind" yaml:"kind"`
	Calendar *ics.Calendar       `json:"calendar,omitempty" yaml:"calendar,omitempty"`
	Cards    []vcard.Card        `json:"cards,omitempty" yaml:"cards,omitempty"`
	Table    *sheet.Table        `json:"table,omitempty" yaml:"table,omitempty"`
	Hash     string              `json:"hash,omitempty" yaml:"hash,omitempty"`
	LoadedAt time.Time           `json:"loaded_at" yaml:"loaded_at"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

// Err returns the read or parse failure, if any.
func (d Document) Err() error { return d.err }

// Loader reads and parses documents. Sources whose content hash matches the
// previous successful load are not parsed again.
type Loader struct {
	sources []config.SourceConfig
	ics     *ics.Parser
	metrics *metric.Metrics

	mu    sync.Mutex
	cache map[string]Document // by source ID
}

// NewLoader returns a Loader for sources. floating anchors date-times
// without a zone; metrics may be nil.
func NewLoader(sources []config.SourceConfig, floating *time.Location, metrics *metric.Metrics) *Loader {
	return &Loader{
		sources: sources,
		ics:     ics.NewParser(ics.WithFloatingLocation(floating)),
		metrics: metrics,
		cache:   make(map[string]Document),
	}
}

// Sources returns the configured sources in order.
func (l *Loader) Sources() []config.SourceConfig {
	return l.sources
}

// LoadAll loads every source concurrently. Per-source failures are recorded
// on the returned Document; the error is non-nil only when ctx ends first.
func (l *Loader) LoadAll(ctx context.Context) ([]Document, error) {
	runID := uuid.NewString()
	start := time.Now()
	docs := make([]Document, len(l.sources))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, src := range l.sources {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			docs[i] = l.Load(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, d := range docs {
		if d.err != nil {
			failed++
		}
	}
	if l.metrics != nil {
		l.metrics.SetDocuments(len(docs) - failed)
	}
	appLog.Info("sources loaded",
		"run_id", runID,
		"count", len(docs),
		"failed", failed,
		"elapsed", time.Since(start),
	)
	return docs, nil
}

// Load reads and parses a single source.
func (l *Loader) Load(src config.SourceConfig) Document {
	doc := Document{Source: src, LoadedAt: time.Now().UTC()}

	kind, err := src.ResolveKind()
	if err != nil {
		return doc.fail(err)
	}
	doc.Kind = kind

	data, err := os.ReadFile(src.Path)
	if err != nil {
		appLog.Error("source read failed", err, "id", src.ID, "path", src.Path)
		return doc.fail(err)
	}
	sum := sha256.Sum256(data)
	doc.Hash = hex.EncodeToString(sum[:])

	l.mu.Lock()
	prev, ok := l.cache[src.ID]
	l.mu.Unlock()
	if ok && prev.Hash == doc.Hash && prev.Kind == kind {
		appLog.Debug("source unchanged", "id", src.ID, "hash", doc.Hash[:12])
		return prev
	}

	text, err := parser.ReadText(bytes.NewReader(data))
	if err != nil {
		return doc.fail(err)
	}
	if err := l.parseInto(&doc, text); err != nil {
		appLog.Error("source parse failed", err, "id", src.ID, "kind", kind)
		return doc.fail(err)
	}

	l.mu.Lock()
	l.cache[src.ID] = doc
	l.mu.Unlock()
	appLog.Debug("source parsed", "id", src.ID, "kind", kind, "hash", doc.Hash[:12])
	return doc
}

// Parse parses text of the given kind without touching the cache.
func (l *Loader) Parse(kind parser.Kind, text string) (Document, error) {
	doc := Document{Kind: kind, LoadedAt: time.Now().UTC()}
	if err := l.parseInto(&doc, text); err != nil {
		return doc.fail(err), err
	}
	return doc, nil
}

func (l *Loader) parseInto(doc *Document, text string) (err error) {
	if l.metrics != nil {
		defer func(start time.Time) {
			l.metrics.Observe(string(doc.Kind), start, err)
		}(time.Now())
	}

	switch doc.Kind {
	case parser.ICS:
		doc.Calendar, err = l.ics.Parse(text)
	case parser.VCF:
		doc.Cards, err = vcard.NewParser().Parse(text)
	case parser.CSV:
		doc.Table, err = sheet.CSVParser{}.Parse(text)
	case parser.TSV:
		doc.Table, err = sheet.TSVParser{}.Parse(text)
	default:
		err = fmt.Errorf("unsupported document kind %q", doc.Kind)
	}
	return err
}

func (d Document) fail(err error) Document {
	d.Calendar, d.Cards, d.Table = nil, nil, nil
	d.err = err
	d.Error = err.Error()
	return d
}

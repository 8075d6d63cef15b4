package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "pimparse/internal/log"
)

// Scheduler reloads sources on a cron schedule and serves the latest
// snapshot to concurrent readers.
type Scheduler struct {
	loader *Loader
	spec   string
	cron   *cron.Cron

	mu        sync.RWMutex
	docs      []Document
	refreshed time.Time
}

func NewScheduler(loader *Loader, spec string) *Scheduler {
	return &Scheduler{loader: loader, spec: spec}
}

// Start loads once, then schedules Refresh on spec until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cron != nil {
		return errors.New("scheduler already started")
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	c := cron.New(cron.WithLogger(cronLogger{}))
	if _, err := c.AddFunc(s.spec, func() {
		if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.cron = c
	c.Start()
	appLog.Info("refresh scheduled", "spec", s.spec, "sources", len(s.loader.Sources()))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Debug("refresh scheduler stopped")
	}()
	return nil
}

// Refresh reloads every source and swaps in the new snapshot.
func (s *Scheduler) Refresh(ctx context.Context) error {
	docs, err := s.loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs = docs
	s.refreshed = time.Now().UTC()
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the latest documents and when they were loaded.
func (s *Scheduler) Snapshot() ([]Document, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.docs), s.refreshed
}

// Document looks up a source by ID in the latest snapshot.
func (s *Scheduler) Document(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.docs, func(d Document) bool { return d.Source.ID == id })
	if i < 0 {
		return Document{}, false
	}
	return s.docs[i], true
}

// cronLogger routes cron's own diagnostics into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}

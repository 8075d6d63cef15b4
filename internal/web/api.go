package web

import (
	"bytes"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"pimparse/internal/ics"
	appLog "pimparse/internal/log"
	"pimparse/internal/metric"
	"pimparse/internal/model"
	"pimparse/internal/parser"
	"pimparse/internal/perr"
	"pimparse/internal/source"
	"pimparse/internal/vcard"
)

// POST /api/parse?kind=ics|vcf|csv|tsv[&emit=1]
//
// The request body is the document. Parse failures answer 422 with the error
// kind; emit=1 re-serializes calendars and cards instead of returning JSON.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := parser.ParseKind(q.Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := parser.ReadText(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := s.loader.Parse(kind, text)
	if err != nil {
		status := http.StatusBadRequest
		if perr.KindOf(err) != 0 {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: metric.Result(err)})
		return
	}

	if q.Get("emit") != "1" {
		writeJSON(w, http.StatusOK, doc)
		return
	}

	switch kind {
	case parser.ICS:
		out, err := ics.Encode(doc.Calendar)
		if err != nil {
			appLog.Error("api parse: encode calendar failed", err)
			writeError(w, http.StatusInternalServerError, "failed to encode calendar")
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		_, _ = w.Write([]byte(out))
	case parser.VCF:
		var buf bytes.Buffer
		if err := vcard.Encode(&buf, doc.Cards); err != nil {
			appLog.Error("api parse: encode cards failed", err)
			writeError(w, http.StatusInternalServerError, "failed to encode cards")
			return
		}
		w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	default:
		writeError(w, http.StatusBadRequest, "emit is only supported for ics and vcf")
	}
}

type sourceSummary struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Kind     parser.Kind `json:"kind,omitempty"`
	Hash     string      `json:"hash,omitempty"`
	LoadedAt time.Time   `json:"loaded_at"`
	Items    int         `json:"items"`
	Error    string      `json:"error,omitempty"`
}

type sourcesResponse struct {
	Sources     []sourceSummary `json:"sources"`
	RefreshedAt time.Time       `json:"refreshed_at"`
}

func summarize(d source.Document) sourceSummary {
	sum := sourceSummary{
		ID:       d.Source.ID,
		Name:     d.Source.Name,
		Path:     d.Source.Path,
		Kind:     d.Kind,
		Hash:     d.Hash,
		LoadedAt: d.LoadedAt,
		Error:    d.Error,
	}
	switch {
	case d.Calendar != nil:
		c := d.Calendar
		sum.Items = len(c.Events) + len(c.Todos) + len(c.Journals) + len(c.FreeBusy) + len(c.TimeZones)
	case d.Table != nil:
		sum.Items = len(d.Table.Rows)
	default:
		sum.Items = len(d.Cards)
	}
	return sum
}

// GET /api/sources
func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	docs, refreshed := s.sched.Snapshot()
	resp := sourcesResponse{Sources: make([]sourceSummary, 0, len(docs)), RefreshedAt: refreshed}
	for _, d := range docs {
		resp.Sources = append(resp.Sources, summarize(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/sources/{id}
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, ok := s.sched.Document(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown source "+strconv.Quote(id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type occurrencesResponse struct {
	Occurrences     []model.Occurrence `json:"occurrences"`
	TruncatedUIDs   []string           `json:"truncated_uids,omitempty"`
	SkippedUIDs     []string           `json:"skipped_uids,omitempty"`
	RangeStart      time.Time          `json:"range_start"`
	RangeEnd        time.Time          `json:"range_end"`
	DisplayTimeZone string             `json:"display_timezone"`
}

// occurrenceCache remembers the last expansion so repeated requests for the
// same window and snapshot skip recurrence expansion.
type occurrenceCache struct {
	mu        sync.RWMutex
	key       occurrenceKey
	resp      occurrencesResponse
	updatedAt time.Time
}

type occurrenceKey struct {
	days, backfill int
	refreshed      time.Time
}

const occurrenceCacheTTL = 30 * time.Second

func (c *occurrenceCache) get(key occurrenceKey, now time.Time) (occurrencesResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.key != key || c.updatedAt.IsZero() || now.Sub(c.updatedAt) >= occurrenceCacheTTL {
		return occurrencesResponse{}, false
	}
	return c.resp, true
}

func (c *occurrenceCache) put(key occurrenceKey, resp occurrencesResponse, now time.Time) {
	c.mu.Lock()
	c.key, c.resp, c.updatedAt = key, resp, now
	c.mu.Unlock()
}

// GET /api/occurrences?days=7&backfill=1
//   - days:     how many days ahead to expand (default config horizon_days)
//   - backfill: how many past days to include (default 1)
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := parseIntDefault(q.Get("days"), s.cfg.HorizonDays)
	if days <= 0 {
		days = s.cfg.HorizonDays
	}
	backfill := parseIntDefault(q.Get("backfill"), 1)
	if backfill < 0 {
		backfill = 0
	}

	docs, refreshed := s.sched.Snapshot()
	key := occurrenceKey{days: days, backfill: backfill, refreshed: refreshed}
	now := time.Now()
	if resp, ok := s.occurrences.get(key, now); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	local := now.In(s.loc)
	resp := occurrencesResponse{
		Occurrences:     []model.Occurrence{},
		RangeStart:      local.AddDate(0, 0, -backfill),
		RangeEnd:        local.AddDate(0, 0, days),
		DisplayTimeZone: s.loc.String(),
	}

	for _, d := range docs {
		if d.Calendar == nil {
			continue
		}
		res, err := ics.Expand(d.Calendar, ics.ExpandConfig{
			SourceID:               d.Source.ID,
			DisplayLocation:        s.loc,
			RangeStart:             resp.RangeStart,
			RangeEnd:               resp.RangeEnd,
			MaxOccurrencesPerEvent: s.cfg.MaxOccurrences,
		})
		if err != nil {
			appLog.Error("api occurrences: expand failed", err, "id", d.Source.ID)
			writeError(w, http.StatusInternalServerError, "failed to expand events")
			return
		}
		resp.Occurrences = append(resp.Occurrences, res.Occurrences...)
		resp.TruncatedUIDs = append(resp.TruncatedUIDs, res.TruncatedEvents...)
		resp.SkippedUIDs = append(resp.SkippedUIDs, res.Skipped...)
	}
	slices.SortStableFunc(resp.Occurrences, model.ByStart)

	appLog.Info("api occurrences request",
		"days", days,
		"backfill", backfill,
		"range_start", resp.RangeStart.Format(time.RFC3339),
		"range_end", resp.RangeEnd.Format(time.RFC3339),
		"count", len(resp.Occurrences),
	)

	s.occurrences.put(key, resp, now)
	writeJSON(w, http.StatusOK, resp)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

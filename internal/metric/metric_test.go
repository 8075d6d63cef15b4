package metric

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pimparse/internal/perr"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{perr.Structural("missing END:VEVENT", nil), "structural"},
		{perr.Missing("UID", "VEVENT"), "validation"},
		{errors.New("disk on fire"), "error"},
	}
	for _, tt := range tests {
		if got := Result(tt.err); got != tt.want {
			t.Errorf("Result(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Observe("ics", time.Now(), nil)
	m.Observe("ics", time.Now(), perr.Missing("UID", "VEVENT"))
	m.SetDocuments(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`pimparse_parse_total{kind="ics",result="ok"} 1`,
		`pimparse_parse_total{kind="ics",result="validation"} 1`,
		`pimparse_documents_loaded 3`,
		`pimparse_parse_seconds_count{kind="ics"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

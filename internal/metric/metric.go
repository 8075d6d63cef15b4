// Package metric exposes Prometheus instruments for document parsing.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pimparse/internal/perr"
)

// Metrics owns a private registry so independent servers and tests never
// collide on registration.
type Metrics struct {
	reg          *prometheus.Registry
	parseTotal   *prometheus.CounterVec
	parseSeconds *prometheus.HistogramVec
	documents    prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		parseTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pimparse_parse_total",
			Help: "Documents parsed, by kind and result (ok, structural, validation, error)",
		}, []string{"kind", "result"}),
		parseSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pimparse_parse_seconds",
			Help:    "Time spent parsing one document",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind"}),
		documents: f.NewGauge(prometheus.GaugeOpts{
			Name: "pimparse_documents_loaded",
			Help: "Documents held in the latest source snapshot",
		}),
	}
}

// Result maps a parse error to its result label.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	switch perr.KindOf(err) {
	case perr.KindStructural:
		return "structural"
	case perr.KindValidation:
		return "validation"
	default:
		return "error"
	}
}

// Observe records one parse of kind that began at start.
func (m *Metrics) Observe(kind string, start time.Time, err error) {
	m.parseTotal.WithLabelValues(kind, Result(err)).Inc()
	m.parseSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetDocuments(n int) {
	m.documents.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

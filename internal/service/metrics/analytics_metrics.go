package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ViewMetrics measures how long each session view takes to assemble.
type ViewMetrics struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

// NewViewMetrics registers the collectors on reg.
func NewViewMetrics(reg prometheus.Registerer) *ViewMetrics {
	f := promauto.With(reg)
	return &ViewMetrics{
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "umkm",
				Subsystem: "analysis",
				Name:      "latency_seconds",
				Help:      "Latency of session analysis views",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "umkm",
				Subsystem: "analysis",
				Name:      "errors_total",
				Help:      "Errors by session analysis view",
			},
			[]string{"view", "kind"},
		),
	}
}

// Observe records one view request. kind is empty on success. Nil-safe.
func (m *ViewMetrics) Observe(view string, start time.Time, kind string) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(view).Observe(time.Since(start).Seconds())
	if kind != "" {
		m.errors.WithLabelValues(view, kind).Inc()
	}
}

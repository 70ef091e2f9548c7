package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	backendCalls    *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	trainings       *prometheus.CounterVec
	trainingLatency prometheus.Histogram
	profitGain      *prometheus.GaugeVec
}

// New registers the recorder's collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		backendCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "umkm_backend_calls_total",
				Help: "Calls to the forecasting backend by operation and result",
			},
			[]string{"operation", "result"},
		),
		backendLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "umkm_backend_call_duration_seconds",
				Help:    "Forecasting backend call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"operation"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "umkm_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		trainings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "umkm_trainings_total",
				Help: "Training runs by outcome",
			},
			[]string{"outcome"},
		),
		trainingLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "umkm_training_duration_seconds",
				Help:    "End-to-end training duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
		profitGain: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "umkm_profit_improvement_percent",
				Help: "Latest profit improvement of the ML scenario over baseline, by best model",
			},
			[]string{"model"},
		),
	}
}

// RecordBackendCall records one backend call and its latency.
func (r *Recorder) RecordBackendCall(op, result string, seconds float64) {
	r.backendCalls.WithLabelValues(op, result).Inc()
	r.backendLatency.WithLabelValues(op).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordTraining records a finished training run.
func (r *Recorder) RecordTraining(outcome string, seconds float64) {
	r.trainings.WithLabelValues(outcome).Inc()
	r.trainingLatency.Observe(seconds)
}

// RecordProfitImprovement sets the latest profit improvement for model.
func (r *Recorder) RecordProfitImprovement(model string, pct float64) {
	r.profitGain.WithLabelValues(model).Set(pct)
}

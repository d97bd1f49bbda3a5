package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	dirScore    *prometheus.GaugeVec
	volScore    *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		analyses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volposture_analyses_total",
				Help: "Completed analyses by quadrant and permission verdict",
			},
			[]string{"quadrant", "verdict"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volposture_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		dirScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volposture_direction_score",
				Help: "Last direction score per symbol",
			},
			[]string{"symbol"},
		),
		volScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volposture_vol_score",
				Help: "Last volatility score per symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volposture_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis records one completed analysis.
func (r *Recorder) RecordAnalysis(quadrant, verdict string) {
	r.analyses.WithLabelValues(quadrant, verdict).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScores records the latest scores for a symbol.
func (r *Recorder) RecordScores(symbol string, direction, vol float64) {
	r.dirScore.WithLabelValues(symbol).Set(direction)
	r.volScore.WithLabelValues(symbol).Set(vol)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

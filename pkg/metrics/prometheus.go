package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictionsTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	rateLimitedTotal *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volatiq_predictions_total",
				Help: "Total number of rows served, by route",
			},
			[]string{"route"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volatiq_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		rateLimitedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volatiq_rate_limited_total",
				Help: "Total number of requests denied by the rate limiter",
			},
			[]string{"route"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volatiq_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records rows served on a route.
func (r *Recorder) RecordPrediction(route string, rows int) {
	r.predictionsTotal.WithLabelValues(route).Add(float64(rows))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRateLimited records a rate-limit denial.
func (r *Recorder) RecordRateLimited(route string) {
	r.rateLimitedTotal.WithLabelValues(route).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

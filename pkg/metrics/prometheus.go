package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cosmicoptic"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	confidence  *prometheus.HistogramVec
	latency     *prometheus.HistogramVec
}

// Option configures the recorder.
type Option func(*options)

type options struct {
	reg prometheus.Registerer
}

// WithRegisterer registers collectors on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// New creates a new Prometheus metrics recorder.
func New(opts ...Option) *Recorder {
	o := &options{reg: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}
	f := promauto.With(o.reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of analyses served",
			},
			[]string{"truth", "label"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		confidence: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_confidence",
				Help:      "Distribution of reported confidence",
				Buckets:   []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1},
			},
			[]string{"label"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts one analysis and observes its confidence.
func (r *Recorder) RecordPrediction(truth, label string, confidence float64) {
	r.predictions.WithLabelValues(truth, label).Inc()
	r.confidence.WithLabelValues(label).Observe(confidence)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

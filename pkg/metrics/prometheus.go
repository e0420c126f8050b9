package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cascadeSource    *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	forecasts        *prometheus.CounterVec
	forecastDuration *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg. A nil reg
// means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		cascadeSource: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_cascade_source_total",
				Help: "Datasets resolved per cascade stage, split by cache hit",
			},
			[]string{"source", "cache"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_cache_lookups_total",
				Help: "Dataset cache lookups by result",
			},
			[]string{"result"},
		),
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_forecast_total",
				Help: "Forecast runs by model kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		forecastDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_forecast_duration_seconds",
				Help:    "Forecast run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCascadeSource counts a dataset resolved by a cascade stage.
func (r *Recorder) RecordCascadeSource(stage string, hit bool) {
	r.cascadeSource.WithLabelValues(stage, hitLabel(hit)).Inc()
}

func (r *Recorder) RecordCacheLookup(hit bool) {
	r.cacheLookups.WithLabelValues(hitLabel(hit)).Inc()
}

// RecordForecast counts a finished run and observes its duration.
func (r *Recorder) RecordForecast(kind, outcome string, seconds float64) {
	r.forecasts.WithLabelValues(kind, outcome).Inc()
	r.forecastDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func hitLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

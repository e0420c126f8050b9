// Package metrics holds Prometheus collectors for calls to the external
// model service. Register is called once when the remote backend is chosen.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ModelCallLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fincast",
		Subsystem: "model_service",
		Name:      "call_duration_seconds",
		Help:      "Duration of model service calls by model kind and operation.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"model", "op"})

	ModelCallErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fincast",
		Subsystem: "model_service",
		Name:      "call_errors_total",
		Help:      "Failed model service calls.",
	}, []string{"model", "op"})

	ModelRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fincast",
		Subsystem: "model_service",
		Name:      "retries_total",
		Help:      "Model service calls repeated after a retryable failure.",
	}, []string{"model", "op"})
)

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ModelCallLatency, ModelCallErrors, ModelRetries)
	})
}

// ObserveModelCall is deferred with the address of a named error result.
func ObserveModelCall(model, op string, start time.Time, errp *error) {
	ModelCallLatency.WithLabelValues(model, op).Observe(time.Since(start).Seconds())
	if errp != nil && *errp != nil {
		ModelCallErrors.WithLabelValues(model, op).Inc()
	}
}

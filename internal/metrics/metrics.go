// Package metrics exposes retrieval stage and dependency metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
	OutcomeSkip  = "skip"
)

// Recorder records retrieval metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	stages     *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	dependency *prometheus.GaugeVec
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lawsearch_stage_total",
			Help: "Retrieval stage attempts by operation, stage and outcome.",
		}, []string{"operation", "stage", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lawsearch_operation_duration_seconds",
			Help:    "Retrieval operation duration in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		dependency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lawsearch_dependency_up",
			Help: "Whether an optional dependency passed its last health probe.",
		}, []string{"dependency"}),
	}
	r.registry.MustRegister(
		r.stages,
		r.durations,
		r.dependency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Stage counts one strategy attempt.
func (r *Recorder) Stage(operation, stage, outcome string) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(operation, stage, outcome).Inc()
}

// Observe records the duration of an operation started at start.
func (r *Recorder) Observe(operation string, start time.Time) {
	if r == nil {
		return
	}
	r.durations.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Dependency records the health of a dependency.
func (r *Recorder) Dependency(name string, up bool) {
	if r == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	r.dependency.WithLabelValues(name).Set(v)
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

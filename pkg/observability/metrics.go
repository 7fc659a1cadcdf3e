package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

// Metrics groups the collectors of one service.
type Metrics struct {
	registry *prometheus.Registry

	compilations    *prometheus.CounterVec
	compileDuration prometheus.Histogram
	plannerCalls    *prometheus.CounterVec
	plannerDuration prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	warnings        prometheus.Counter
}

// NewMetrics creates and registers the flowplan collectors on a fresh registry,
// along with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowplan_compilations_total",
				Help: "Total number of flow compilations",
			},
			[]string{"result"},
		),
		compileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowplan_compile_duration_seconds",
				Help:    "Duration of flow compilations",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
		plannerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowplan_planner_calls_total",
				Help: "Total number of calls to the external planner",
			},
			[]string{"result"},
		),
		plannerDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowplan_planner_duration_seconds",
				Help:    "Duration of external planner calls",
				Buckets: prometheus.DefBuckets,
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowplan_plan_cache_lookups_total",
				Help: "Plan cache lookups by result",
			},
			[]string{"result"},
		),
		warnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flowplan_reconstruction_warnings_total",
				Help: "Planner output lines skipped during reconstruction",
			},
		),
	}
	m.registry.MustRegister(
		m.compilations, m.compileDuration,
		m.plannerCalls, m.plannerDuration,
		m.cacheLookups, m.warnings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveCompile records one compilation.
func (m *Metrics) ObserveCompile(d time.Duration, err error) {
	m.compilations.WithLabelValues(result(err)).Inc()
	m.compileDuration.Observe(d.Seconds())
}

// ObservePlanner records one planner call.
func (m *Metrics) ObservePlanner(d time.Duration, err error) {
	m.plannerCalls.WithLabelValues(result(err)).Inc()
	m.plannerDuration.Observe(d.Seconds())
}

// ObserveCache records one cache lookup with ResultHit, ResultMiss or ResultError.
func (m *Metrics) ObserveCache(outcome string) {
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// AddWarnings counts skipped plan lines.
func (m *Metrics) AddWarnings(n int) {
	if n > 0 {
		m.warnings.Add(float64(n))
	}
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

package engine

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps the engine's Prometheus instrumentation: step latency,
// retry counts, circuit breaker state, and a runs_total counter,
// grounded directly on graph.PrometheusMetrics (same
// promauto-factory-over-a-Registerer construction, same histogram bucket
// boundaries) and narrowed to the signals this engine's step loop and
// breaker actually produce.
type Metrics struct {
	stepLatency  *prometheus.HistogramVec
	retries      *prometheus.CounterVec
	breakerState prometheus.Gauge
	runsTotal    *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics registers the engine's metrics with registry (the default
// global registerer if nil), namespaced "aiworkflow".
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		enabled: true,
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aiworkflow",
			Name:      "step_latency_ms",
			Help:      "Step dispatch duration in milliseconds, from first attempt to final outcome",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
		}, []string{"run_id", "step_name", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aiworkflow",
			Name:      "step_retries_total",
			Help:      "Cumulative count of step retry attempts",
		}, []string{"run_id", "step_name"}),
		breakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "aiworkflow",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0=closed, 1=half_open, 2=open",
		}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aiworkflow",
			Name:      "runs_total",
			Help:      "Cumulative count of completed Execute calls by terminal status",
		}, []string{"workflow_id", "status"}),
	}
}

func (m *Metrics) isEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Disable stops metric recording; useful for tests that construct an
// Engine without caring about Prometheus side effects.
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable resumes metric recording after Disable.
func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

// RecordStepLatency observes one step_latency_ms sample.
func (m *Metrics) RecordStepLatency(runID, stepName string, latency time.Duration, status string) {
	if !m.isEnabled() {
		return
	}
	m.stepLatency.WithLabelValues(runID, stepName, status).Observe(float64(latency.Milliseconds()))
}

// IncrementRetries increments the retry counter for one step.
func (m *Metrics) IncrementRetries(runID, stepName string) {
	if !m.isEnabled() {
		return
	}
	m.retries.WithLabelValues(runID, stepName).Inc()
}

// UpdateBreakerState mirrors the CircuitBreaker's current state into
// the gauge: 0=closed, 1=half_open, 2=open.
func (m *Metrics) UpdateBreakerState(state BreakerState) {
	if !m.isEnabled() {
		return
	}
	var v float64
	switch state {
	case HalfOpen:
		v = 1
	case Open:
		v = 2
	default:
		v = 0
	}
	m.breakerState.Set(v)
}

// RecordRun increments runs_total for the given workflow and terminal
// status ("completed" or "failed").
func (m *Metrics) RecordRun(workflowID string, status RunStatus) {
	if !m.isEnabled() {
		return
	}
	m.runsTotal.WithLabelValues(workflowID, string(status)).Inc()
}

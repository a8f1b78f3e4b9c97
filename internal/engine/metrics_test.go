package engine

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersAgainstGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)
	require.True(t, m.isEnabled())
}

func TestMetrics_RecordStepLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordStepLatency("r1", "fetch", 25*time.Millisecond, "completed")

	count := testutil.CollectAndCount(m.stepLatency)
	require.Equal(t, 1, count)
}

func TestMetrics_IncrementRetries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IncrementRetries("r1", "fetch")
	m.IncrementRetries("r1", "fetch")

	require.Equal(t, float64(2), testutil.ToFloat64(m.retries.WithLabelValues("r1", "fetch")))
}

func TestMetrics_UpdateBreakerState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.UpdateBreakerState(Closed)
	require.Equal(t, float64(0), testutil.ToFloat64(m.breakerState))

	m.UpdateBreakerState(HalfOpen)
	require.Equal(t, float64(1), testutil.ToFloat64(m.breakerState))

	m.UpdateBreakerState(Open)
	require.Equal(t, float64(2), testutil.ToFloat64(m.breakerState))
}

func TestMetrics_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRun("wf1", RunCompleted)

	require.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("wf1", string(RunCompleted))))
}

func TestMetrics_DisableStopsRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Disable()

	m.RecordStepLatency("r1", "fetch", time.Millisecond, "completed")
	require.Equal(t, 0, testutil.CollectAndCount(m.stepLatency))

	m.Enable()
	m.RecordStepLatency("r1", "fetch", time.Millisecond, "completed")
	require.Equal(t, 1, testutil.CollectAndCount(m.stepLatency))
}

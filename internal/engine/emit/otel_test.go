package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attributeMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func TestOtelEmitter_Emit_CreatesSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	e := NewOtelEmitter(tracer, nil)

	e.Emit(LogEntry{RunID: "r1", Event: "step_started", StepName: "fetch", StepIndex: 0, Level: LevelInfo})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "step_started", spans[0].Name)

	attrs := attributeMap(spans[0].Attributes)
	require.Equal(t, "r1", attrs["run_id"])
	require.Equal(t, int64(0), attrs["step_index"])
	require.Equal(t, "fetch", attrs["step_name"])
}

func TestOtelEmitter_Emit_ErrorPayloadSetsErrorStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	e := NewOtelEmitter(tracer, nil)

	e.Emit(LogEntry{
		RunID: "r1", Event: "step_failed", Level: LevelError,
		Payload: map[string]any{"error": "boom"},
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status.Code)
	require.Equal(t, "boom", spans[0].Status.Description)
	require.NotEmpty(t, spans[0].Events)
}

func TestOtelEmitter_Emit_ForwardsToDelegate(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	delegate := NewBufferedEmitter()
	e := NewOtelEmitter(tracer, delegate)

	e.Emit(LogEntry{RunID: "r1", Event: "run_started"})

	require.Len(t, delegate.GetHistory("r1"), 1)
	require.Len(t, exporter.GetSpans(), 1)
}

func TestOtelEmitter_EmitBatch(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tracer := otel.Tracer("test")
	e := NewOtelEmitter(tracer, nil)

	err := e.EmitBatch(context.Background(), []LogEntry{
		{RunID: "r1", Event: "a"},
		{RunID: "r1", Event: "b"},
	})
	require.NoError(t, err)
	require.Len(t, exporter.GetSpans(), 2)
}

func TestOtelEmitter_EmitBatch_CancelledContext(t *testing.T) {
	tracer := otel.Tracer("test")
	e := NewOtelEmitter(tracer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.EmitBatch(ctx, []LogEntry{{RunID: "r1", Event: "a"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOtelEmitter_Flush_DelegatesWhenPresent(t *testing.T) {
	tracer := otel.Tracer("test")
	delegate := NewBufferedEmitter()
	e := NewOtelEmitter(tracer, delegate)

	require.NoError(t, e.Flush(context.Background()))
}

func TestOtelEmitter_Flush_NoDelegateIsNoop(t *testing.T) {
	tracer := otel.Tracer("test")
	e := NewOtelEmitter(tracer, nil)

	require.NoError(t, e.Flush(context.Background()))
}

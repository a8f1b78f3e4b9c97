package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OtelEmitter turns each log entry into an instant OpenTelemetry span,
// following graph/emit/otel.go's OTelEmitter shape: one span per event,
// named after the event kind, with run/step attributes and an error
// status when the entry carries one. Unlike a single-purpose tracer,
// this emitter also forwards every entry to a delegate (typically a
// LogEmitter) so a deployment gets both a trace and a durable log from
// one write.
type OtelEmitter struct {
	tracer   trace.Tracer
	delegate Emitter
}

// NewOtelEmitter wraps delegate with OpenTelemetry span emission.
// delegate may be nil to trace only.
func NewOtelEmitter(tracer trace.Tracer, delegate Emitter) *OtelEmitter {
	return &OtelEmitter{tracer: tracer, delegate: delegate}
}

func (o *OtelEmitter) Emit(entry LogEntry) {
	_, span := o.tracer.Start(context.Background(), entry.Event)
	o.annotate(span, entry)
	span.End()

	if o.delegate != nil {
		o.delegate.Emit(entry)
	}
}

func (o *OtelEmitter) annotate(span trace.Span, entry LogEntry) {
	span.SetAttributes(
		attribute.String("run_id", entry.RunID),
		attribute.Int("step_index", entry.StepIndex),
		attribute.String("step_name", entry.StepName),
		attribute.String("level", string(entry.Level)),
	)
	for k, v := range entry.Payload {
		span.SetAttributes(attribute.String("payload."+k, fmt.Sprint(v)))
	}
	if errMsg, ok := entry.Payload["error"].(string); ok && errMsg != "" {
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(fmt.Errorf("%s", errMsg))
	}
}

func (o *OtelEmitter) EmitBatch(ctx context.Context, entries []LogEntry) error {
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		o.Emit(entry)
	}
	return nil
}

func (o *OtelEmitter) Flush(ctx context.Context) error {
	if o.delegate != nil {
		return o.delegate.Flush(ctx)
	}
	return nil
}

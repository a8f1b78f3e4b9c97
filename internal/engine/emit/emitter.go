package emit

import "context"

// Emitter is the sink every ExecutionLog writes through. Grounded on
// graph/emit.Emitter: a single-entry Emit plus a batch and flush path
// for sinks that buffer.
type Emitter interface {
	Emit(entry LogEntry)
	EmitBatch(ctx context.Context, entries []LogEntry) error
	Flush(ctx context.Context) error
}

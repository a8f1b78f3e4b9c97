package emit

import (
	"context"
	"sync"
)

// BufferedEmitter retains every entry in memory, keyed by run_id, so
// tests can inspect a run's full event history after the fact.
// Grounded on the buffered-emitter-plus-history-filter usage in
// examples/tracing.
type BufferedEmitter struct {
	mu      sync.Mutex
	history map[string][]LogEntry
}

// NewBufferedEmitter constructs an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{history: make(map[string][]LogEntry)}
}

func (e *BufferedEmitter) Emit(entry LogEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history[entry.RunID] = append(e.history[entry.RunID], entry)
}

func (e *BufferedEmitter) EmitBatch(ctx context.Context, entries []LogEntry) error {
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.Emit(entry)
	}
	return nil
}

func (e *BufferedEmitter) Flush(ctx context.Context) error { return nil }

// GetHistory returns a copy of every entry recorded for runID, in
// emission order.
func (e *BufferedEmitter) GetHistory(runID string) []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	src := e.history[runID]
	out := make([]LogEntry, len(src))
	copy(out, src)
	return out
}

// GetHistoryWithFilter returns only entries for runID whose Event
// matches eventName.
func (e *BufferedEmitter) GetHistoryWithFilter(runID, eventName string) []LogEntry {
	var out []LogEntry
	for _, entry := range e.GetHistory(runID) {
		if entry.Event == eventName {
			out = append(out, entry)
		}
	}
	return out
}

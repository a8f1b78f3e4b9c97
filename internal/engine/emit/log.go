package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogEmitter writes one JSON object per line (or a compact text line)
// per entry, following graph/emit/log.go's LogEmitter shape: a writer
// plus a json/text mode switch, defaulting to os.Stdout when no writer
// is given.
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter builds a LogEmitter over writer (os.Stdout if nil) in
// either JSON-lines or compact text mode.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (e *LogEmitter) Emit(entry LogEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.jsonMode {
		e.emitJSON(entry)
	} else {
		e.emitText(entry)
	}
}

func (e *LogEmitter) emitJSON(entry LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(e.writer, `{"event":"log_marshal_error","error":%q}`+"\n", err.Error())
		return
	}
	e.writer.Write(data)
	e.writer.Write([]byte("\n"))
}

func (e *LogEmitter) emitText(entry LogEntry) {
	fmt.Fprintf(e.writer, "[%s] run_id=%s step=%d step_name=%s level=%s payload=%v\n",
		entry.Event, entry.RunID, entry.StepIndex, entry.StepName, entry.Level, entry.Payload)
}

func (e *LogEmitter) EmitBatch(ctx context.Context, entries []LogEntry) error {
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

// Flush is a no-op: every write already goes straight to the
// underlying writer.
func (e *LogEmitter) Flush(ctx context.Context) error {
	return nil
}

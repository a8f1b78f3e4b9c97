package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogEmitter_JSONMode(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	e.Emit(LogEntry{RunID: "r1", Event: "run_started", StepIndex: -1, Level: LevelInfo})

	var decoded LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "r1", decoded.RunID)
	require.Equal(t, "run_started", decoded.Event)
}

func TestLogEmitter_TextMode(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, false)
	e.Emit(LogEntry{RunID: "r1", Event: "step_started", StepName: "fetch", StepIndex: 0, Level: LevelInfo})

	out := buf.String()
	require.Contains(t, out, "step_started")
	require.Contains(t, out, "run_id=r1")
	require.Contains(t, out, "step_name=fetch")
}

func TestLogEmitter_NilWriterDefaultsToStdout(t *testing.T) {
	e := NewLogEmitter(nil, true)
	require.NotNil(t, e)
}

func TestLogEmitter_EmitBatch(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	err := e.EmitBatch(context.Background(), []LogEntry{
		{RunID: "r1", Event: "a"},
		{RunID: "r1", Event: "b"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestLogEmitter_EmitBatch_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	e := NewLogEmitter(&buf, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.EmitBatch(ctx, []LogEntry{{RunID: "r1", Event: "a"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLogEmitter_Flush(t *testing.T) {
	e := NewLogEmitter(&bytes.Buffer{}, false)
	require.NoError(t, e.Flush(context.Background()))
}

// Package emit implements the execution logger: a flat, append-only,
// per-run structured event log suitable for streaming. Grounded on
// graph/emit's Emitter interface, Event struct, and LogEmitter,
// generalized from a run/node/step triple to this engine's
// run/step-name/step-index triple and widened with a log level per
// entry.
package emit

import "time"

// LogLevel is the severity attached to a single ExecutionLog entry.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogEntry is one line of a run's execution log.
type LogEntry struct {
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Event     string         `json:"event"`
	StepName  string         `json:"step_name,omitempty"`
	StepIndex int            `json:"step_index"`
	Payload   map[string]any `json:"payload,omitempty"`
}

package emit

import (
	"context"
	"sync"
	"time"
)

// ExecutionLog is the per-run handle: StartLog returns it, the step
// loop calls its methods as steps progress, and FinishLog seals it so
// no further entry can be appended.
type ExecutionLog struct {
	mu      sync.Mutex
	runID   string
	emitter Emitter
	sealed  bool
}

// StartLog opens a new ExecutionLog for runID and emits a run_started
// entry carrying the workflow/agent identity and raw inputs.
func StartLog(emitter Emitter, runID, workflowID, workflowName, agent string, inputs map[string]any) *ExecutionLog {
	log := &ExecutionLog{runID: runID, emitter: emitter}
	log.append(LevelInfo, "run_started", "", -1, map[string]any{
		"workflow_id":   workflowID,
		"workflow_name": workflowName,
		"agent":         agent,
		"inputs":        inputs,
	})
	return log
}

func (l *ExecutionLog) append(level LogLevel, event, stepName string, stepIndex int, payload map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sealed {
		return
	}
	l.emitter.Emit(LogEntry{
		RunID:     l.runID,
		Timestamp: time.Now(),
		Level:     level,
		Event:     event,
		StepName:  stepName,
		StepIndex: stepIndex,
		Payload:   payload,
	})
}

// StepStarted logs step_started.
func (l *ExecutionLog) StepStarted(stepName string, stepIndex int) {
	l.append(LevelInfo, "step_started", stepName, stepIndex, nil)
}

// StepCompleted logs step_completed with its duration and output.
func (l *ExecutionLog) StepCompleted(stepName string, stepIndex int, duration time.Duration, output any) {
	l.append(LevelInfo, "step_completed", stepName, stepIndex, map[string]any{
		"duration_ms": duration.Milliseconds(),
		"output":      output,
	})
}

// StepFailed logs step_failed with its duration and error.
func (l *ExecutionLog) StepFailed(stepName string, stepIndex int, errMsg string, duration time.Duration) {
	l.append(LevelError, "step_failed", stepName, stepIndex, map[string]any{
		"duration_ms": duration.Milliseconds(),
		"error":       errMsg,
	})
}

// StepSkipped logs step_skipped for a step whose conditions evaluated
// false.
func (l *ExecutionLog) StepSkipped(stepName string, stepIndex int) {
	l.append(LevelInfo, "step_skipped", stepName, stepIndex, nil)
}

// StepRetrying logs step_retrying with the attempt index, the
// effective max, and the computed delay before the next attempt.
func (l *ExecutionLog) StepRetrying(stepName string, stepIndex, attempt, max int, delay time.Duration) {
	l.append(LevelWarn, "step_retrying", stepName, stepIndex, map[string]any{
		"attempt":  attempt,
		"max":      max,
		"delay_ms": delay.Milliseconds(),
	})
}

// RollbackInvoked logs that the rollback hook ran, and with what
// outcome.
func (l *ExecutionLog) RollbackInvoked(errMsg string) {
	payload := map[string]any{}
	if errMsg != "" {
		payload["error"] = errMsg
	}
	l.append(LevelWarn, "rollback_invoked", "", -1, payload)
}

// FinishLog emits run_completed or run_failed and seals the log: no
// further entry is appended after this call, even if the caller keeps
// a reference to the handle.
func (l *ExecutionLog) FinishLog(success bool, outputs map[string]any, errMsg string) {
	event := "run_completed"
	level := LevelInfo
	if !success {
		event = "run_failed"
		level = LevelError
	}
	payload := map[string]any{"outputs": outputs}
	if errMsg != "" {
		payload["error"] = errMsg
	}
	l.append(level, event, "", -1, payload)

	l.mu.Lock()
	l.sealed = true
	l.mu.Unlock()

	_ = l.emitter.Flush(context.Background())
}

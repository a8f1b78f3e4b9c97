// Package engine implements the workflow execution engine: the driver
// loop, variable resolution, condition evaluation, retry policy,
// circuit breaker and the durable-checkpoint contract that lets an
// interrupted run resume where it stopped.
package engine

import "time"

// ErrorHandling is the workflow-level policy applied when a step fails.
type ErrorHandling string

const (
	ErrorHandlingContinue ErrorHandling = "continue"
	ErrorHandlingStop     ErrorHandling = "stop"
	ErrorHandlingRollback ErrorHandling = "rollback"
)

// InputParam declares one of a workflow's accepted inputs.
type InputParam struct {
	Name     string
	Required bool
	Default  any
}

// StepErrorHandling carries the per-step retry budget.
type StepErrorHandling struct {
	MaxRetries int
}

// Step is a single unit of work in a workflow: either an agent task
// (Action = "agent.<task>") or a tool invocation (Action =
// "<tool>.<operation>").
type Step struct {
	ID             string
	Name           string
	Action         string
	Inputs         map[string]any
	OutputVariable string
	Conditions     []string
	ErrorHandling  StepErrorHandling
	AgentHints     map[string]any
}

// CompatibilityFunc reports whether a workflow may run under the named
// agent. A nil func is treated as "compatible with everything".
type CompatibilityFunc func(agentName string) bool

// Workflow is the validated shape the engine consumes. It is produced
// by an external parser (internal/workflowdef); the engine only reads
// it.
type Workflow struct {
	ID            string
	Name          string
	Steps         []Step
	InputParams   []InputParam
	RequiredTools []string
	ErrorHandling ErrorHandling
	Compatible    CompatibilityFunc
}

// GetRequiredTools returns the workflow's declared required tools.
func (w *Workflow) GetRequiredTools() []string {
	return w.RequiredTools
}

// IsCompatibleWith applies the workflow's compatibility predicate.
func (w *Workflow) IsCompatibleWith(agentName string) bool {
	if w.Compatible == nil {
		return true
	}
	return w.Compatible(agentName)
}

// AgentCapabilities describes the agent bound to a run.
type AgentCapabilities struct {
	Name        string
	Version     string
	Provider    string
	ToolCalling bool
	Reasoning   bool
}

// StepStatus is the terminal (or skipped) disposition of a step.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult records the outcome of a single step dispatch.
type StepResult struct {
	StepID      string
	Status      StepStatus
	Output      any
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
	Retries     int
}

// RunStatus is the terminal disposition of a whole run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// WorkflowResult is the self-contained report returned by Execute.
type WorkflowResult struct {
	RunID       string
	WorkflowID  string
	AgentName   string
	Status      RunStatus
	StepResults []StepResult
	Output      map[string]any
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Config is the engine's typed configuration record. Per the
// re-architecture design note, a heterogeneous "config: mapping of
// string to any" becomes a concrete struct for the engine's own known
// keys; anything else a deployment wants to carry goes in Extra, which
// the engine stores but never inspects.
type Config struct {
	AgentPrimary string
	Extra        map[string]any
}

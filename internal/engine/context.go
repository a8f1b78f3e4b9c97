package engine

import "time"

// ExecutionContext lives only for the duration of a single run. It is
// never persisted directly — the state store persists an
// ExecutionRecord and a StepCheckpoint per step, from which a resumed
// run's variables are reconstructed.
type ExecutionContext struct {
	RunID            string
	Workflow         *Workflow
	AgentName        string
	Capabilities     AgentCapabilities
	Inputs           map[string]any
	Variables        map[string]any
	CurrentStepIndex int
	StartedAt        time.Time
	Config           *Config
}

// newExecutionContext builds a fresh context for a run, seeding
// Variables with a copy of inputs merged over declared defaults.
func newExecutionContext(runID string, wf *Workflow, agentName string, caps AgentCapabilities, inputs map[string]any, cfg *Config) *ExecutionContext {
	vars := make(map[string]any, len(inputs))
	for _, p := range wf.InputParams {
		if p.Default != nil {
			vars[p.Name] = p.Default
		}
	}
	for k, v := range inputs {
		vars[k] = v
	}

	inCopy := make(map[string]any, len(inputs))
	for k, v := range inputs {
		inCopy[k] = v
	}

	return &ExecutionContext{
		RunID:        runID,
		Workflow:     wf,
		AgentName:    agentName,
		Capabilities: caps,
		Inputs:       inCopy,
		Variables:    vars,
		StartedAt:    time.Now(),
		Config:       cfg,
	}
}

// scope merges inputs and variables into one lookup table for template
// resolution and condition evaluation, with variables taking
// precedence on key collision (later steps see their own output over a
// raw caller-supplied input of the same name).
func (c *ExecutionContext) scope() map[string]any {
	merged := make(map[string]any, len(c.Inputs)+len(c.Variables))
	for k, v := range c.Inputs {
		merged[k] = v
	}
	for k, v := range c.Variables {
		merged[k] = v
	}
	return merged
}

// outputSnapshot returns a shallow copy of Variables suitable for
// embedding in a WorkflowResult or ExecutionRecord.
func (c *ExecutionContext) outputSnapshot() map[string]any {
	snap := make(map[string]any, len(c.Variables))
	for k, v := range c.Variables {
		snap[k] = v
	}
	return snap
}

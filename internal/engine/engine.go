package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marktoflow/workflow-engine/internal/engine/emit"
	"github.com/marktoflow/workflow-engine/internal/engine/store"
)

// Engine is the driver: it holds one-way references to its four
// collaborators (store, logger, breaker, registries) and never calls
// back into anything that calls it, a flattened ownership model.
// Grounded on graph.Engine[S] — same "engine holds collaborators, not
// the reverse" shape, generalized from a generic reducer-state engine
// to one operating over the fixed ExecutionContext/Workflow shapes
// this domain needs.
type Engine struct {
	store        store.Store
	logEmitter   emit.Emitter
	breaker      *CircuitBreaker
	retryPolicy  RetryPolicy
	rollback     RollbackHook
	config       *Config
	toolRegistry ToolRegistry
	agents       map[string]AgentAdapter
	metrics      *Metrics

	// cancelled is a single, coarse-grained flag: Cancel() stops every
	// run currently in flight on this Engine at its next per-step poll.
	cancelled atomic.Bool
}

// Option configures an Engine at construction time, following the
// functional-options idiom graph.Engine[S] uses.
type Option func(*Engine)

// WithAgentAdapter registers an adapter under agentName.
func WithAgentAdapter(agentName string, adapter AgentAdapter) Option {
	return func(e *Engine) { e.agents[agentName] = adapter }
}

// WithToolRegistry sets the tool registry.
func WithToolRegistry(reg ToolRegistry) Option {
	return func(e *Engine) { e.toolRegistry = reg }
}

// WithRetryPolicy overrides the engine-level default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) { e.retryPolicy = p }
}

// WithCircuitBreaker overrides the default circuit breaker.
func WithCircuitBreaker(b *CircuitBreaker) Option {
	return func(e *Engine) { e.breaker = b }
}

// WithRollbackHook overrides the default no-op rollback hook.
func WithRollbackHook(hook RollbackHook) Option {
	return func(e *Engine) { e.rollback = hook }
}

// WithConfig sets the engine's typed configuration record.
func WithConfig(cfg *Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithMetrics attaches a Prometheus metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an Engine over st and logEmitter (the two collaborators
// every run needs) plus whatever Options the caller supplies.
func New(st store.Store, logEmitter emit.Emitter, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		logEmitter:  logEmitter,
		breaker:     NewCircuitBreaker(0, 0, 0),
		retryPolicy: DefaultRetryPolicy(),
		rollback:    NoopRollback,
		config:      &Config{AgentPrimary: "default"},
		agents:      make(map[string]AgentAdapter),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cancel atomically stops every run currently executing on this
// Engine. The step loop observes it once per iteration, between steps;
// it never aborts an in-flight agent/tool call.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

// Resume clears a prior Cancel so the Engine can run again.
func (e *Engine) Resume() {
	e.cancelled.Store(false)
}

// Execute runs workflow to completion (or failure), optionally
// resuming an interrupted run. It is the engine's single public
// operation.
func (e *Engine) Execute(ctx context.Context, wf *Workflow, inputs map[string]any, agentOverride, resumeFrom string) (*WorkflowResult, error) {
	if !e.breaker.CanExecute() {
		return &WorkflowResult{
			RunID:       resumeFrom,
			WorkflowID:  wf.ID,
			AgentName:   agentOverride,
			Status:      RunFailed,
			Error:       ErrCircuitOpen.Error() + ": too many recent failures",
			StartedAt:   time.Now(),
			CompletedAt: time.Now(),
		}, nil
	}

	agentName := agentOverride
	if agentName == "" && e.config != nil {
		agentName = e.config.AgentPrimary
	}

	runID, startStep, resuming, err := e.resolveRunStart(ctx, wf, resumeFrom)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	caps := e.capabilitiesFor(agentName)
	ectx := newExecutionContext(runID, wf, agentName, caps, inputs, e.config)

	if resuming {
		if err := e.reloadVariables(ctx, ectx, startStep); err != nil {
			return nil, fmt.Errorf("engine: reload variables for resume: %w", err)
		}
	}

	execLog := emit.StartLog(e.logEmitter, runID, wf.ID, wf.Name, agentName, inputs)

	if !resuming {
		rec := &store.ExecutionRecord{
			RunID:      runID,
			WorkflowID: wf.ID,
			Status:     store.StatusRunning,
			StartedAt:  started,
			TotalSteps: len(wf.Steps),
			Agent:      agentName,
			Inputs:     inputs,
		}
		if err := e.store.CreateExecution(ctx, rec); err != nil {
			return nil, fmt.Errorf("engine: create execution record: %w", err)
		}
	}

	if errs := e.validate(wf, ectx); len(errs) > 0 {
		verr := &ValidationError{Messages: errs}
		e.finalize(ctx, runID, false, verr.Error(), execLog, nil)
		return &WorkflowResult{
			RunID:       runID,
			WorkflowID:  wf.ID,
			AgentName:   agentName,
			Status:      RunFailed,
			Error:       verr.Error(),
			StartedAt:   started,
			CompletedAt: time.Now(),
		}, nil
	}

	result := e.runStepLoop(ctx, wf, ectx, execLog, runID, startStep)

	if result.Status == RunCompleted {
		e.breaker.RecordSuccess()
	} else {
		e.breaker.RecordFailure()
	}
	if e.metrics != nil {
		e.metrics.RecordRun(wf.ID, result.Status)
		e.metrics.UpdateBreakerState(e.breaker.State())
	}

	var outputs map[string]any
	if result.Status == RunCompleted {
		outputs = ectx.outputSnapshot()
	}
	e.finalize(ctx, runID, result.Status == RunCompleted, result.Error, execLog, outputs)

	result.RunID = runID
	result.WorkflowID = wf.ID
	result.AgentName = agentName
	result.StartedAt = started
	result.CompletedAt = time.Now()
	result.Output = ectx.outputSnapshot()
	return result, nil
}

// resolveRunStart allocates a fresh run_id, or — when resumeFrom names
// an existing record — reuses it and computes its resume point.
// resumeFrom naming a record the store doesn't have is an explicit
// caller error (ErrRunNotFound), not silently treated as a fresh run.
func (e *Engine) resolveRunStart(ctx context.Context, wf *Workflow, resumeFrom string) (runID string, startStep int, resuming bool, err error) {
	if resumeFrom == "" {
		return generateRunID(wf.ID), 0, false, nil
	}
	if _, getErr := e.store.GetExecution(ctx, resumeFrom); getErr != nil {
		return "", 0, false, fmt.Errorf("engine: resume %s: %w", resumeFrom, ErrRunNotFound)
	}
	point, err := e.store.GetResumePoint(ctx, resumeFrom, len(wf.Steps))
	if err != nil {
		return "", 0, false, fmt.Errorf("engine: resume point for %s: %w", resumeFrom, err)
	}
	return resumeFrom, point, true, nil
}

// reloadVariables reconstructs variables bound by steps at indices
// below startStep from their persisted checkpoint outputs, so a
// resumed run sees the same scope a from-scratch run would have built
// up by that point.
func (e *Engine) reloadVariables(ctx context.Context, ectx *ExecutionContext, startStep int) error {
	cps, err := e.store.GetCheckpoints(ctx, ectx.RunID)
	if err != nil {
		return err
	}
	byIndex := make(map[int]*store.StepCheckpoint, len(cps))
	for _, cp := range cps {
		byIndex[cp.StepIndex] = cp
	}
	for i := 0; i < startStep && i < len(ectx.Workflow.Steps); i++ {
		step := ectx.Workflow.Steps[i]
		cp, ok := byIndex[i]
		if !ok || cp.Status != "completed" || step.OutputVariable == "" {
			continue
		}
		if out, ok := cp.Outputs["output"]; ok {
			ectx.Variables[step.OutputVariable] = out
		}
	}
	return nil
}

func (e *Engine) capabilitiesFor(agentName string) AgentCapabilities {
	return AgentCapabilities{Name: agentName}
}

// validate runs the engine's pre-run checks: required tools, required
// inputs, and agent compatibility.
func (e *Engine) validate(wf *Workflow, ectx *ExecutionContext) []string {
	var errs []string

	if e.toolRegistry != nil {
		for _, toolName := range wf.GetRequiredTools() {
			if !e.toolRegistry.HasTool(toolName, ectx.AgentName) {
				errs = append(errs, fmt.Sprintf("Required tool not available: %s", toolName))
			}
		}
	}

	for _, p := range wf.InputParams {
		if p.Required {
			if _, present := ectx.Inputs[p.Name]; !present && p.Default == nil {
				errs = append(errs, fmt.Sprintf("Required input not provided: %s", p.Name))
			}
		}
	}

	if !wf.IsCompatibleWith(ectx.AgentName) {
		errs = append(errs, fmt.Sprintf("Workflow not compatible with agent: %s", ectx.AgentName))
	}

	return errs
}

// runStepLoop is the sequential step loop. It never returns an error:
// every failure mode becomes a WorkflowResult with Status=failed.
func (e *Engine) runStepLoop(ctx context.Context, wf *Workflow, ectx *ExecutionContext, execLog *emit.ExecutionLog, runID string, startStep int) (result *WorkflowResult) {
	result = &WorkflowResult{Status: RunCompleted}

	defer func() {
		if r := recover(); r != nil {
			result.Status = RunFailed
			result.Error = fmt.Sprintf("Unexpected error: %v", r)
		}
	}()

	for i := startStep; i < len(wf.Steps); i++ {
		if e.cancelled.Load() {
			result.Status = RunFailed
			result.Error = ErrCancelled.Error()
			break
		}
		select {
		case <-ctx.Done():
			result.Status = RunFailed
			result.Error = ctx.Err().Error()
			return result
		default:
		}

		step := wf.Steps[i]
		ectx.CurrentStepIndex = i
		execLog.StepStarted(step.Name, i)

		if !evaluateConditions(step.Conditions, ectx.scope()) {
			result.StepResults = append(result.StepResults, StepResult{
				StepID:      step.ID,
				Status:      StepSkipped,
				StartedAt:   time.Now(),
				CompletedAt: time.Now(),
			})
			execLog.StepSkipped(step.Name, i)
			continue
		}

		stepResult := e.executeStepWithRetry(ctx, step, ectx, execLog, i)
		result.StepResults = append(result.StepResults, stepResult)

		e.saveCheckpoint(ctx, runID, i, step, stepResult)

		if stepResult.Status == StepCompleted && step.OutputVariable != "" && stepResult.Output != nil {
			ectx.Variables[step.OutputVariable] = stepResult.Output
		}

		duration := stepResult.CompletedAt.Sub(stepResult.StartedAt)
		if stepResult.Status == StepCompleted {
			execLog.StepCompleted(step.Name, i, duration, stepResult.Output)
		} else {
			execLog.StepFailed(step.Name, i, stepResult.Error, duration)
		}

		if stepResult.Status == StepFailed {
			switch wf.ErrorHandling {
			case ErrorHandlingStop:
				result.Status = RunFailed
				result.Error = fmt.Sprintf("Step '%s' failed: %s", step.ID, stepResult.Error)
				return result
			case ErrorHandlingRollback:
				result.Status = RunFailed
				result.Error = fmt.Sprintf("Step '%s' failed, rollback triggered", step.ID)
				e.invokeRollback(ctx, result.StepResults, ectx, execLog)
				return result
			default: // continue
			}
		}
	}

	return result
}

func (e *Engine) invokeRollback(ctx context.Context, results []StepResult, ectx *ExecutionContext, execLog *emit.ExecutionLog) {
	err := e.rollback(ctx, results, ectx)
	if err != nil {
		execLog.RollbackInvoked(err.Error())
	} else {
		execLog.RollbackInvoked("")
	}
}

// executeStepWithRetry wraps a single step dispatch in the retry
// policy: total attempts = effective_max_retries + 1, sleeping
// get_delay(k) between attempts k and k+1.
func (e *Engine) executeStepWithRetry(ctx context.Context, step Step, ectx *ExecutionContext, execLog *emit.ExecutionLog, stepIndex int) StepResult {
	started := time.Now()
	maxRetries := EffectiveMaxRetries(step.ErrorHandling.MaxRetries, e.retryPolicy.MaxRetries)

	var lastErr string
	for attempt := 0; attempt <= maxRetries; attempt++ {
		output, err := e.dispatchStep(ctx, step, ectx)
		if e.metrics != nil {
			e.metrics.RecordStepLatency(ectx.RunID, step.Name, time.Since(started), outcomeLabel(err))
		}
		if err == nil {
			return StepResult{
				StepID:      step.ID,
				Status:      StepCompleted,
				Output:      output,
				StartedAt:   started,
				CompletedAt: time.Now(),
				Retries:     attempt,
			}
		}
		lastErr = err.Error()

		if attempt < maxRetries {
			delay := e.retryPolicy.GetDelay(attempt+1, nil)
			execLog.StepRetrying(step.Name, stepIndex, attempt+1, maxRetries, delay)
			if e.metrics != nil {
				e.metrics.IncrementRetries(ectx.RunID, step.Name)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return StepResult{
					StepID:      step.ID,
					Status:      StepFailed,
					Error:       ctx.Err().Error(),
					StartedAt:   started,
					CompletedAt: time.Now(),
					Retries:     attempt,
				}
			}
		}
	}

	return StepResult{
		StepID:      step.ID,
		Status:      StepFailed,
		Error:       lastErr,
		StartedAt:   started,
		CompletedAt: time.Now(),
		Retries:     maxRetries,
	}
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// dispatchStep resolves a step's templated inputs and routes to either
// the agent adapter or the tool registry depending on the action
// prefix.
func (e *Engine) dispatchStep(ctx context.Context, step Step, ectx *ExecutionContext) (any, error) {
	resolved := resolveInputs(step.Inputs, ectx.scope())

	if strings.HasPrefix(step.Action, "agent.") {
		adapter, ok := e.agents[ectx.AgentName]
		if !ok {
			return nil, ErrNoAgentAdapter
		}
		// Hints win on collision against resolved inputs, per the
		// confirmed open question in the design notes.
		merged := make(map[string]any, len(resolved)+len(step.AgentHints))
		for k, v := range resolved {
			merged[k] = v
		}
		for k, v := range step.AgentHints {
			merged[k] = v
		}
		return adapter.ExecuteStep(ctx, step, merged, ectx)
	}

	toolName, operation, ok := splitToolAction(step.Action)
	if !ok {
		return nil, ErrInvalidAction
	}
	if e.toolRegistry == nil {
		return nil, ErrNoToolRegistry
	}
	tool, ok := e.toolRegistry.GetTool(toolName, ectx.AgentName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}
	return tool.Execute(ctx, operation, resolved)
}

// splitToolAction parses "<tool>.<operation>".
func splitToolAction(action string) (tool, operation string, ok bool) {
	idx := strings.Index(action, ".")
	if idx < 0 {
		return "", "", false
	}
	return action[:idx], action[idx+1:], true
}

func resolveInputs(inputs map[string]any, scope map[string]any) map[string]any {
	out := make(map[string]any, len(inputs))
	for k, v := range inputs {
		out[k] = resolveTemplates(v, scope)
	}
	return out
}

func (e *Engine) saveCheckpoint(ctx context.Context, runID string, stepIndex int, step Step, result StepResult) {
	status := "completed"
	if result.Status != StepCompleted {
		status = "failed"
	}
	var outputs map[string]any
	if result.Output != nil {
		outputs = map[string]any{"output": result.Output}
	}
	completedAt := result.CompletedAt
	cp := &store.StepCheckpoint{
		RunID:       runID,
		StepIndex:   stepIndex,
		StepName:    step.Name,
		Status:      status,
		StartedAt:   result.StartedAt,
		CompletedAt: &completedAt,
		Outputs:     outputs,
		Error:       result.Error,
		RetryCount:  result.Retries,
	}
	// A checkpoint write failure is ignored: nothing is logged, the step
	// keeps its success, and the run goes on with the next step.
	_ = e.store.SaveCheckpoint(ctx, cp)
}

func (e *Engine) finalize(ctx context.Context, runID string, success bool, errMsg string, execLog *emit.ExecutionLog, outputs map[string]any) {
	if rec, err := e.store.GetExecution(ctx, runID); err == nil {
		now := time.Now()
		rec.CompletedAt = &now
		if success {
			rec.Status = store.StatusCompleted
		} else {
			rec.Status = store.StatusFailed
		}
		rec.Outputs = outputs
		rec.Error = errMsg
		_ = e.store.UpdateExecution(ctx, rec)
	}
	execLog.FinishLog(success, outputs, errMsg)
}

// generateRunID produces the deterministic form:
// <workflow_id>-<YYYYMMDD-HHMMSS>-<8 hex chars>. The 8 hex characters
// are the leading octets of a random v4 UUID rather than a direct
// crypto/rand read.
func generateRunID(workflowID string) string {
	ts := time.Now().Format("20060102-150405")
	id := uuid.New().String()
	suffix := strings.ReplaceAll(id, "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", workflowID, ts, suffix)
}

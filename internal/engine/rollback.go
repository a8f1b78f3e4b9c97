package engine

import "context"

// RollbackHook is invoked once, synchronously from the step loop, when a run fails under
// the "rollback" error-handling policy. It receives the accumulated
// step results in workflow order so an implementation can walk them in
// reverse and undo successful steps' side effects. The default hook is
// a no-op, matching the original engine's _rollback (a bare pass) —
// this module keeps the interface always-invocable rather than
// conditionally wiring it.
type RollbackHook func(ctx context.Context, results []StepResult, ectx *ExecutionContext) error

// NoopRollback is the default RollbackHook.
func NoopRollback(ctx context.Context, results []StepResult, ectx *ExecutionContext) error {
	return nil
}

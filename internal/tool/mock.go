package tool

import (
	"context"
	"sync"
)

// MockTool is a test double satisfying engine.Tool, adapted from
// graph/tool.MockTool: configurable response sequence, error injection,
// and call-history tracking, reshaped around Execute(ctx, operation,
// inputs) instead of Call(ctx, input).
type MockTool struct {
	// Responses is the sequence of outputs returned by successive
	// calls; once exhausted, the last response repeats.
	Responses []any

	// Err, if set, is returned instead of a response.
	Err error

	// Calls records every invocation, in order.
	Calls []MockCall

	mu        sync.Mutex
	callIndex int
}

// MockCall records a single Execute invocation.
type MockCall struct {
	Operation string
	Inputs    map[string]any
}

// Execute implements engine.Tool.
func (m *MockTool) Execute(ctx context.Context, operation string, inputs map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Operation: operation, Inputs: inputs})

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears call history and rewinds the response cursor.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of Execute invocations so far.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

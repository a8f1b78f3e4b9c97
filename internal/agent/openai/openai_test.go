package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

type stubClient struct {
	text             string
	err              error
	gotSystem, gotUser string
}

func (s *stubClient) createChatCompletion(ctx context.Context, system, user string) (string, error) {
	s.gotSystem = system
	s.gotUser = user
	return s.text, s.err
}

func TestExecuteStep_Success(t *testing.T) {
	stub := &stubClient{text: "42"}
	a := &Adapter{client: stub}

	out, err := a.ExecuteStep(context.Background(), engine.Step{ID: "s1"}, map[string]any{
		"prompt": "what is the answer",
		"system": "be terse",
	}, &engine.ExecutionContext{})

	require.NoError(t, err)
	require.Equal(t, "42", out)
	require.Equal(t, "be terse", stub.gotSystem)
	require.Equal(t, "what is the answer", stub.gotUser)
}

func TestExecuteStep_Error(t *testing.T) {
	stub := &stubClient{err: errors.New("rate limited")}
	a := &Adapter{client: stub}

	_, err := a.ExecuteStep(context.Background(), engine.Step{ID: "s1"}, map[string]any{"prompt": "x"}, &engine.ExecutionContext{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
}

func TestExecuteStep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &Adapter{client: &stubClient{}}
	_, err := a.ExecuteStep(ctx, engine.Step{ID: "s1"}, nil, &engine.ExecutionContext{})
	require.ErrorIs(t, err, context.Canceled)
}

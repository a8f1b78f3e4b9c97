package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marktoflow/workflow-engine/internal/engine"
	"github.com/marktoflow/workflow-engine/internal/engine/emit"
	"github.com/marktoflow/workflow-engine/internal/engine/store"
	"github.com/marktoflow/workflow-engine/internal/tool"
)

func testEngine(mock *tool.MockTool) *engine.Engine {
	reg := tool.NewRegistry()
	reg.Register("tool", mock)
	return engine.New(store.NewMemStore(), emit.NewBufferedEmitter(), engine.WithToolRegistry(reg))
}

func echoWorkflow() *engine.Workflow {
	return &engine.Workflow{
		ID:   "ping",
		Name: "Ping",
		Steps: []engine.Step{
			{ID: "s1", Action: "tool.echo", Inputs: map[string]any{"x": "pong"}, OutputVariable: "out"},
		},
	}
}

func TestScheduler_FiresMatchingJob(t *testing.T) {
	mock := &tool.MockTool{}
	eng := testEngine(mock)
	spec, err := ParseCronSpec("* * * * *")
	require.NoError(t, err)

	jobs := []Job{{ID: "job1", Workflow: echoWorkflow(), Spec: spec}}
	sched := New(eng, jobs, WithTickInterval(10*time.Millisecond), WithMaxConcurrent(2))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = sched.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Eventually(t, func() bool { return mock.CallCount() > 0 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_SkipsNonMatchingJob(t *testing.T) {
	mock := &tool.MockTool{}
	eng := testEngine(mock)
	spec, err := ParseCronSpec("59 23 31 12 0")
	require.NoError(t, err)

	jobs := []Job{{ID: "job1", Workflow: echoWorkflow(), Spec: spec}}
	sched := New(eng, jobs, WithTickInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err = sched.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 0, mock.CallCount())
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newMem/newFile build the two backends under test; the suite below
// runs identically against both so the shared Store contract is
// exercised once per backend.
func newMem(t *testing.T) Store  { return NewMemStore() }
func newFile(t *testing.T) Store {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)
	return st
}

func storeSuite(t *testing.T, build func(t *testing.T) Store) {
	t.Run("CreateAndGetExecution", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		rec := &ExecutionRecord{RunID: "r1", WorkflowID: "wf1", Status: StatusRunning, StartedAt: time.Now(), TotalSteps: 2}

		require.NoError(t, st.CreateExecution(ctx, rec))

		got, err := st.GetExecution(ctx, "r1")
		require.NoError(t, err)
		require.Equal(t, "r1", got.RunID)
		require.Equal(t, StatusRunning, got.Status)
	})

	t.Run("CreateExecution_Duplicate", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		rec := &ExecutionRecord{RunID: "r1", WorkflowID: "wf1"}
		require.NoError(t, st.CreateExecution(ctx, rec))
		require.ErrorIs(t, st.CreateExecution(ctx, rec), ErrAlreadyExists)
	})

	t.Run("GetExecution_NotFound", func(t *testing.T) {
		st := build(t)
		_, err := st.GetExecution(context.Background(), "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateExecution", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		rec := &ExecutionRecord{RunID: "r1", WorkflowID: "wf1", Status: StatusRunning}
		require.NoError(t, st.CreateExecution(ctx, rec))

		rec.Status = StatusCompleted
		rec.Outputs = map[string]any{"x": 1.0}
		require.NoError(t, st.UpdateExecution(ctx, rec))

		got, err := st.GetExecution(ctx, "r1")
		require.NoError(t, err)
		require.Equal(t, StatusCompleted, got.Status)
		require.Equal(t, 1.0, got.Outputs["x"])
	})

	t.Run("UpdateExecution_NotFound", func(t *testing.T) {
		st := build(t)
		err := st.UpdateExecution(context.Background(), &ExecutionRecord{RunID: "missing"})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SaveCheckpoint_ThenGetCheckpoints", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		require.NoError(t, st.CreateExecution(ctx, &ExecutionRecord{RunID: "r1", WorkflowID: "wf1"}))

		cp := &StepCheckpoint{RunID: "r1", StepIndex: 0, StepName: "s1", Status: "completed"}
		require.NoError(t, st.SaveCheckpoint(ctx, cp))

		cps, err := st.GetCheckpoints(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, cps, 1)
		require.Equal(t, "s1", cps[0].StepName)
	})

	t.Run("SaveCheckpoint_UpsertsOnSameIndex", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		require.NoError(t, st.CreateExecution(ctx, &ExecutionRecord{RunID: "r1", WorkflowID: "wf1"}))

		require.NoError(t, st.SaveCheckpoint(ctx, &StepCheckpoint{RunID: "r1", StepIndex: 0, Status: "running"}))
		require.NoError(t, st.SaveCheckpoint(ctx, &StepCheckpoint{RunID: "r1", StepIndex: 0, Status: "completed"}))

		cps, err := st.GetCheckpoints(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, cps, 1)
		require.Equal(t, "completed", cps[0].Status)
	})

	t.Run("GetResumePoint_NoCheckpointsStartsAtZero", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		require.NoError(t, st.CreateExecution(ctx, &ExecutionRecord{RunID: "r1", WorkflowID: "wf1"}))

		point, err := st.GetResumePoint(ctx, "r1", 3)
		require.NoError(t, err)
		require.Equal(t, 0, point)
	})

	t.Run("GetResumePoint_FirstIncompleteStep", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		require.NoError(t, st.CreateExecution(ctx, &ExecutionRecord{RunID: "r1", WorkflowID: "wf1"}))
		require.NoError(t, st.SaveCheckpoint(ctx, &StepCheckpoint{RunID: "r1", StepIndex: 0, Status: "completed"}))
		require.NoError(t, st.SaveCheckpoint(ctx, &StepCheckpoint{RunID: "r1", StepIndex: 1, Status: "failed"}))

		point, err := st.GetResumePoint(ctx, "r1", 3)
		require.NoError(t, err)
		require.Equal(t, 1, point)
	})

	t.Run("GetResumePoint_AllCompletedReturnsTotalSteps", func(t *testing.T) {
		st := build(t)
		ctx := context.Background()
		require.NoError(t, st.CreateExecution(ctx, &ExecutionRecord{RunID: "r1", WorkflowID: "wf1"}))
		require.NoError(t, st.SaveCheckpoint(ctx, &StepCheckpoint{RunID: "r1", StepIndex: 0, Status: "completed"}))
		require.NoError(t, st.SaveCheckpoint(ctx, &StepCheckpoint{RunID: "r1", StepIndex: 1, Status: "completed"}))

		point, err := st.GetResumePoint(ctx, "r1", 2)
		require.NoError(t, err)
		require.Equal(t, 2, point)
	})
}

func TestMemStore_Suite(t *testing.T) {
	storeSuite(t, newMem)
}

func TestFileStore_Suite(t *testing.T) {
	storeSuite(t, newFile)
}

func TestResumePointFromCheckpoints(t *testing.T) {
	require.Equal(t, 0, resumePointFromCheckpoints(nil, 3))
	require.Equal(t, 2, resumePointFromCheckpoints([]*StepCheckpoint{
		{StepIndex: 0, Status: "completed"},
		{StepIndex: 1, Status: "completed"},
	}, 3))
	require.Equal(t, 3, resumePointFromCheckpoints([]*StepCheckpoint{
		{StepIndex: 0, Status: "completed"},
		{StepIndex: 1, Status: "completed"},
		{StepIndex: 2, Status: "completed"},
	}, 3))
}

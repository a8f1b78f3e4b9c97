package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	lhs, rhs, op := parseCondition("status == done")
	require.Equal(t, "status", lhs)
	require.Equal(t, "done", rhs)
	require.Equal(t, opEquals, op)

	lhs, rhs, op = parseCondition("score >= 10")
	require.Equal(t, "score", lhs)
	require.Equal(t, "10", rhs)
	require.Equal(t, opGreaterOrEqual, op)

	_, _, op = parseCondition("nonsense")
	require.Equal(t, opInvalid, op)
}

func TestEvaluateCondition_Equals(t *testing.T) {
	scope := map[string]any{"status": "done"}
	require.True(t, evaluateCondition("{{status}} == done", scope))
	require.False(t, evaluateCondition("{{status}} == pending", scope))
}

func TestEvaluateCondition_GreaterOrEqual(t *testing.T) {
	scope := map[string]any{"score": float64(42)}
	require.True(t, evaluateCondition("{{score}} >= 10", scope))
	require.False(t, evaluateCondition("{{score}} >= 100", scope))
}

func TestEvaluateCondition_UnparseableNumbersFail(t *testing.T) {
	scope := map[string]any{"score": "not-a-number"}
	require.False(t, evaluateCondition("{{score}} >= 10", scope))
}

func TestEvaluateCondition_InvalidGrammarFails(t *testing.T) {
	require.False(t, evaluateCondition("just text", nil))
}

func TestEvaluateConditions_EmptyMeansAlwaysRun(t *testing.T) {
	require.True(t, evaluateConditions(nil, nil))
	require.True(t, evaluateConditions([]string{}, nil))
}

func TestEvaluateConditions_AllMustHold(t *testing.T) {
	scope := map[string]any{"a": "1", "b": "2"}
	require.True(t, evaluateConditions([]string{"{{a}} == 1", "{{b}} == 2"}, scope))
	require.False(t, evaluateConditions([]string{"{{a}} == 1", "{{b}} == 3"}, scope))
}

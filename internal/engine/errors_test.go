package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Messages: []string{"a", "b"}}
	require.Equal(t, "engine: validation failed: a: b", err.Error())
}

func TestEngineError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &EngineError{Code: "E001", Message: "something broke", Cause: cause}

	require.Equal(t, "E001: something broke: root cause", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestEngineError_NoCause(t *testing.T) {
	err := &EngineError{Code: "E002", Message: "no cause here"}
	require.Equal(t, "E002: no cause here", err.Error())
	require.Nil(t, err.Unwrap())
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNoAgentAdapter, ErrNoToolRegistry, ErrToolNotFound,
		ErrCircuitOpen, ErrCancelled, ErrInvalidAction, ErrRunNotFound,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				require.NotErrorIs(t, a, b)
			}
		}
	}
}

package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	require.Equal(t, 3, p.MaxRetries)
	require.Equal(t, time.Second, p.BaseDelay)
	require.Equal(t, 30*time.Second, p.MaxDelay)
	require.Equal(t, 2.0, p.ExponentialBase)
	require.Equal(t, 0.0, p.Jitter)
}

func TestGetDelay_ExponentialGrowth(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, ExponentialBase: 2.0}

	require.Equal(t, time.Second, p.GetDelay(1, nil))
	require.Equal(t, 2*time.Second, p.GetDelay(2, nil))
	require.Equal(t, 4*time.Second, p.GetDelay(3, nil))
}

func TestGetDelay_ClampsToMaxDelay(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, ExponentialBase: 2.0, MaxDelay: 3 * time.Second}
	require.Equal(t, 3*time.Second, p.GetDelay(10, nil))
}

func TestGetDelay_AttemptBelowOneClampsToOne(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, ExponentialBase: 2.0}
	require.Equal(t, p.GetDelay(1, nil), p.GetDelay(0, nil))
	require.Equal(t, p.GetDelay(1, nil), p.GetDelay(-5, nil))
}

func TestGetDelay_JitterStaysWithinBounds(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, ExponentialBase: 2.0, Jitter: 0.5}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		d := p.GetDelay(1, rng)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestGetDelay_NeverNegative(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Millisecond, ExponentialBase: 2.0, Jitter: 1.0}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		require.GreaterOrEqual(t, p.GetDelay(1, rng), time.Duration(0))
	}
}

func TestGetDelay_DefaultBaseWhenNonPositive(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, ExponentialBase: 0}
	require.Equal(t, 2*time.Second, p.GetDelay(2, nil))
}

func TestEffectiveMaxRetries_SmallerWins(t *testing.T) {
	require.Equal(t, 2, EffectiveMaxRetries(2, 5))
	require.Equal(t, 3, EffectiveMaxRetries(5, 3))
	require.Equal(t, 3, EffectiveMaxRetries(3, 3))
}

package engine

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy is a pure, stateless delay calculator: attempt number in,
// delay out. Grounded on the computeBackoff shape (a free function
// taking a *rand.Rand for deterministic tests), but using a
// configurable exponential-base-and-symmetric-jitter formula rather
// than a fixed base-2 bit shift with one-sided jitter.
type RetryPolicy struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          float64 // in [0, 1]
}

// DefaultRetryPolicy is the engine-level policy used when a workflow or
// step does not override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		BaseDelay:       1 * time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          0.0,
	}
}

// GetDelay returns the sleep duration before attempt n+1, for 1-based
// attempt n. It is total: it never returns a negative duration, and it
// never exceeds MaxDelay once MaxDelay > 0.
//
// delay = base_delay * exponential_base^(n-1)
// if jitter > 0: delay += uniform(-jitter*delay, +jitter*delay)
// delay = max(0, min(delay, max_delay))
//
// rng may be nil, in which case the package-level rand source is used;
// tests pass a seeded *rand.Rand for determinism.
func (p RetryPolicy) GetDelay(attempt int, rng *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.ExponentialBase
	if base <= 0 {
		base = 2.0
	}
	delay := float64(p.BaseDelay) * math.Pow(base, float64(attempt-1))

	if p.Jitter > 0 {
		span := p.Jitter * delay
		var sample float64
		if rng != nil {
			sample = rng.Float64()
		} else {
			sample = rand.Float64()
		}
		delay += (sample*2 - 1) * span
	}

	if delay < 0 {
		delay = 0
	}
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

// EffectiveMaxRetries composes a step's declared retry budget with the
// engine's own: the smaller of the two wins.
func EffectiveMaxRetries(stepMaxRetries, engineMaxRetries int) int {
	if stepMaxRetries < engineMaxRetries {
		return stepMaxRetries
	}
	return engineMaxRetries
}

package engine

import (
	"sync"
	"time"
)

// BreakerState is one of the three states a CircuitBreaker can be in.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker isolates the engine from a collaborator (agent
// backend, tool) that is failing repeatedly. It gates whole runs, not
// individual steps, and every operation is safe for concurrent
// use since multiple runs share one breaker.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryTimeout  time.Duration
	halfOpenMaxCalls int

	state             BreakerState
	failureCount      int
	halfOpenSuccesses int
	lastFailureTime   time.Time
}

// NewCircuitBreaker constructs a breaker with the given thresholds.
// Non-positive values fall back to the documented defaults:
// failure_threshold=5, recovery_timeout=30s, half_open_max_calls=3.
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration, halfOpenMaxCalls int) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 30 * time.Second
	}
	if halfOpenMaxCalls <= 0 {
		halfOpenMaxCalls = 3
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		halfOpenMaxCalls: halfOpenMaxCalls,
		state:            Closed,
	}
}

// maybeDecay performs the lazy Open -> HalfOpen transition once
// recovery_timeout has elapsed since the last recorded failure. Caller
// must hold mu.
func (b *CircuitBreaker) maybeDecay() {
	if b.state == Open && !b.lastFailureTime.IsZero() && time.Since(b.lastFailureTime) >= b.recoveryTimeout {
		b.state = HalfOpen
		b.halfOpenSuccesses = 0
	}
}

// State returns the current state, performing the time-based
// Open->HalfOpen transition lazily.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeDecay()
	return b.state
}

// CanExecute reports whether a new run may start.
func (b *CircuitBreaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeDecay()
	return b.state != Open
}

// RecordSuccess notes a successful run. In Closed it resets the
// failure counter; in HalfOpen it counts toward the trial quota and
// closes the breaker once half_open_max_calls successes are observed.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeDecay()

	switch b.state {
	case HalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.halfOpenMaxCalls {
			b.state = Closed
			b.failureCount = 0
			b.halfOpenSuccesses = 0
		}
	default:
		b.failureCount = 0
	}
}

// RecordFailure notes a failed run. A HalfOpen failure snaps straight
// back to Open and refreshes the failure timestamp; a Closed failure
// increments the counter and trips the breaker once the threshold is
// crossed, in the same call (P5).
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeDecay()

	b.lastFailureTime = time.Now()
	switch b.state {
	case HalfOpen:
		b.state = Open
		b.halfOpenSuccesses = 0
	default:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.state = Open
		}
	}
}

// Reset forces the breaker back to Closed and clears all counters.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failureCount = 0
	b.halfOpenSuccesses = 0
	b.lastFailureTime = time.Time{}
}

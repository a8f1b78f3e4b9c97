// Package scheduler implements the cron-style trigger: on each matching
// tick it hands the engine a workflow and a fixed input map, exactly as
// a webhook or CLI invocation would. Concurrently firing jobs are
// bounded by a semaphore.Weighted so a burst of matching schedules
// cannot unbound the number of simultaneously in-flight Execute calls —
// the engine itself allows concurrent runs, but an unbounded
// scheduler-driven fan-out is not the same guarantee.
package scheduler

import (
	"context"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// Job is one scheduled workflow trigger.
type Job struct {
	ID       string
	Workflow *engine.Workflow
	Inputs   map[string]any
	Agent    string
	Spec     CronSpec
}

// Scheduler polls its job list once a minute and fires every job whose
// CronSpec matches the current minute.
type Scheduler struct {
	eng    *engine.Engine
	jobs   []Job
	sem    *semaphore.Weighted
	logger *charmlog.Logger
	tick   time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxConcurrent bounds the number of concurrently executing jobs.
// Defaults to 4.
func WithMaxConcurrent(n int64) Option {
	return func(s *Scheduler) { s.sem = semaphore.NewWeighted(n) }
}

// WithLogger overrides the scheduler's diagnostic logger.
func WithLogger(logger *charmlog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithTickInterval overrides the polling interval, primarily for
// tests; production use leaves this at the default one minute since
// CronSpec resolves to minute granularity.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.tick = d }
}

// New builds a Scheduler bound to eng, with the given jobs.
func New(eng *engine.Engine, jobs []Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		eng:    eng,
		jobs:   jobs,
		sem:    semaphore.NewWeighted(4),
		logger: charmlog.New(os.Stderr),
		tick:   time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks, firing matching jobs on each tick, until ctx is
// cancelled. Each fired job acquires a semaphore slot before running
// and releases it on completion; Run does not wait for in-flight jobs
// before returning on cancellation, matching a scheduler process that
// is torn down alongside its jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.fireMatching(ctx, now)
		}
	}
}

func (s *Scheduler) fireMatching(ctx context.Context, now time.Time) {
	for _, job := range s.jobs {
		if !job.Spec.Matches(now) {
			continue
		}
		s.fire(ctx, job)
	}
}

func (s *Scheduler) fire(ctx context.Context, job Job) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.logger.Error("scheduler: acquire failed", "job", job.ID, "error", err)
		return
	}

	go func() {
		defer s.sem.Release(1)

		result, err := s.eng.Execute(ctx, job.Workflow, job.Inputs, job.Agent, "")
		if err != nil {
			s.logger.Error("scheduler: run failed", "job", job.ID, "error", err)
			return
		}
		s.logger.Info("scheduler: run finished", "job", job.ID, "run_id", result.RunID, "status", result.Status)
	}()
}

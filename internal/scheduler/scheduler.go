// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scheduler dispatches jobs to a bounded pool of execution slots.
//
// A single coordinator goroutine owns the slot pool and the in-flight count.
// Every dispatched job runs on its own goroutine and reports back over a
// channel, so no scheduler state is shared between goroutines. The coordinator
// only takes the next job from its input when a slot is free, which keeps the
// input from being read further ahead than the jobs can run. With an ordered
// window it also waits while the results held back for input order would
// exceed the slot capacity.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/matt-FFFFFF/spread/internal/backend"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/matt-FFFFFF/spread/internal/progress"
	"github.com/matt-FFFFFF/spread/internal/signalbroker"
)

// ErrNoSlots is returned when the scheduler is created without any slots.
var ErrNoSlots = errors.New("no execution slots configured")

// BackendFor returns the backend that runs jobs on a host.
type BackendFor func(h hosts.Host) backend.Backend

// ConfirmFunc is asked before a job is dispatched. Returning false skips the job.
type ConfirmFunc func(ctx context.Context, spec *job.Spec) (bool, error)

// Stats summarises a run.
type Stats struct {
	Dispatched  int
	Completed   int // Ran to completion, whatever the exit status
	Failed      int // Could not be run
	Skipped     int
	MaxInFlight int
	Cancelled   bool // Dispatch stopped before the input was exhausted
}

// Scheduler runs jobs in slots.
type Scheduler struct {
	allocs       []hosts.Allocation
	backendFor   BackendFor
	retries      int
	retryDelay   time.Duration
	reporter     progress.Reporter
	confirm      ConfirmFunc
	waitOnCancel bool
	dryRun       bool
	nextEmitted  func() int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRetries retries a job up to n more times when its backend reports a transport error.
// Retries use the same slot and the job stays dispatched.
func WithRetries(n int) Option {
	return func(s *Scheduler) {
		s.retries = max(n, 0)
	}
}

// WithRetryDelay waits d between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		s.retryDelay = d
	}
}

// WithReporter sends job lifecycle events to r.
func WithReporter(r progress.Reporter) Option {
	return func(s *Scheduler) {
		s.reporter = r
	}
}

// WithConfirm asks fn before every job is dispatched.
func WithConfirm(fn ConfirmFunc) Option {
	return func(s *Scheduler) {
		s.confirm = fn
	}
}

// WithWaitOnCancel lets running jobs finish when the run context is cancelled.
// Dispatch still stops.
func WithWaitOnCancel() Option {
	return func(s *Scheduler) {
		s.waitOnCancel = true
	}
}

// WithDryRun completes every job with its rendered command as output, without running it.
func WithDryRun() Option {
	return func(s *Scheduler) {
		s.dryRun = true
	}
}

// WithOrderedWindow keeps dispatch at most one slot capacity ahead of the
// output. nextEmitted returns the sequence number of the next result the sink
// will write; it is called from the coordinator goroutine, like the sink.
// An unbounded capacity has no window.
func WithOrderedWindow(nextEmitted func() int) Option {
	return func(s *Scheduler) {
		s.nextEmitted = nextEmitted
	}
}

// New creates a scheduler with the given slot allocations.
func New(allocs []hosts.Allocation, backendFor BackendFor, opts ...Option) (*Scheduler, error) {
	if len(allocs) == 0 {
		return nil, ErrNoSlots
	}

	for _, a := range allocs {
		if a.Slots == 0 || a.Slots < hosts.Unlimited {
			return nil, &hosts.CapacityConfigurationError{Value: a.Host.String(), Reason: "host has no slots"}
		}
	}

	s := &Scheduler{
		allocs:     allocs,
		backendFor: backendFor,
		reporter:   progress.NewNullReporter(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.reporter = progress.OrNull(s.reporter)

	return s, nil
}

// completion is sent from a job goroutine to the coordinator.
type completion struct {
	slot job.Slot
	res  *job.Result
}

// Run dispatches specs until the channel is closed, dispatch is stopped by a drain
// request or ctx is cancelled, then waits for the running jobs.
// sink is called from the coordinator goroutine once per finished job, in completion order.
func (s *Scheduler) Run(ctx context.Context, specs <-chan *job.Spec, sink func(*job.Result)) Stats {
	logger := ctxlog.Logger(ctx)
	pool := newSlotPool(s.allocs)
	done := make(chan completion)

	jobCtx := ctx
	if s.waitOnCancel {
		jobCtx = context.WithoutCancel(ctx)
	}

	var (
		stats    Stats
		inFlight int
		finished int
		nextSeq  int
		stopped  bool
	)

	window := pool.capacity()

	windowOpen := func() bool {
		if s.nextEmitted == nil || window == hosts.Unlimited {
			return true
		}

		return nextSeq-s.nextEmitted() < window
	}

	input := specs
	drain := signalbroker.Draining(ctx)
	cancelled := ctx.Done()

	finalize := func(res *job.Result) {
		finished++
		res.CompletionOrder = finished

		switch {
		case res.Skipped:
			stats.Skipped++
		case res.State == job.Failed:
			stats.Failed++
		default:
			stats.Completed++
		}

		sink(res)
	}

	logger.Debug("scheduler starting", "capacity", pool.capacity())

	for {
		var next <-chan *job.Spec
		if !stopped && input != nil && pool.hasFree() && windowOpen() {
			next = input
		}

		if next == nil && inFlight == 0 {
			break
		}

		select {
		case spec, ok := <-next:
			if !ok {
				input = nil
				continue
			}

			nextSeq = spec.Seq + 1

			if spec.Err != nil {
				logger.Debug("job cannot be run", "seq", spec.Seq+1, "error", spec.Err)
				s.reporter.Report(progress.Event{Seq: spec.Seq, Type: progress.EventFailed, Data: progress.EventData{Error: spec.Err, ExitCode: -1}})
				finalize(job.FailedResult(spec, spec.Err))

				continue
			}

			if s.confirm != nil {
				run, err := s.confirm(ctx, spec)
				if err != nil {
					logger.Warn("confirmation failed, stopping dispatch", "error", err)

					stopped = true
					stats.Cancelled = true

					continue
				}

				if !run {
					res := &job.Result{
						Seq:     spec.Seq,
						Args:    spec.Args,
						Command: spec.Command,
						State:   job.Completed,
						Skipped: true,
					}
					s.reporter.Report(progress.Event{Seq: spec.Seq, Type: progress.EventSkipped})
					finalize(res)

					continue
				}
			}

			slot := pool.acquire()
			inFlight++
			stats.Dispatched++
			stats.MaxInFlight = max(stats.MaxInFlight, inFlight)

			logger.Debug("dispatching job", "seq", spec.Seq+1, "host", slot.Host.String(), "slot", slot.ID)

			go s.execute(jobCtx, spec, slot, done)

		case c := <-done:
			inFlight--
			pool.release(c.slot)
			finalize(c.res)

		case <-drain:
			logger.Info("draining, no new jobs will be started", "running", inFlight)

			drain = nil
			stopped = true
			stats.Cancelled = stats.Cancelled || input != nil

		case <-cancelled:
			logger.Info("run cancelled", "running", inFlight)

			cancelled = nil
			stopped = true
			stats.Cancelled = true
		}
	}

	logger.Debug("scheduler finished", "dispatched", stats.Dispatched, "maxInFlight", stats.MaxInFlight)

	return stats
}

// execute runs one job, retrying transport errors, and reports the result to the coordinator.
func (s *Scheduler) execute(ctx context.Context, spec *job.Spec, slot job.Slot, done chan<- completion) {
	logger := ctxlog.Logger(ctx).With("seq", spec.Seq+1, "host", slot.Host.String(), "slot", slot.ID)
	command := spec.CommandFor(slot)

	s.reporter.Report(progress.Event{
		Seq:  spec.Seq,
		Host: slot.Host.String(),
		Slot: slot.ID,
		Type: progress.EventStarted,
		Data: progress.EventData{Command: command},
	})

	start := time.Now()

	var (
		res      *job.Result
		err      error
		attempts int
	)

	for {
		attempts++

		if s.dryRun {
			res = &job.Result{
				Seq:     spec.Seq,
				Args:    spec.Args,
				Command: command,
				Host:    slot.Host,
				Slot:    slot.ID,
				Stdout:  []byte(command + "\n"),
				Start:   start,
			}

			break
		}

		res, err = s.backendFor(slot.Host).Submit(ctx, spec, slot)
		if err == nil || !backend.IsTransportError(err) || attempts > s.retries || ctx.Err() != nil {
			break
		}

		logger.Warn("transport error, retrying job", "attempt", attempts, "error", err)
		s.reporter.Report(progress.Event{
			Seq:  spec.Seq,
			Host: slot.Host.String(),
			Slot: slot.ID,
			Type: progress.EventRetrying,
			Data: progress.EventData{Attempt: attempts, Error: err},
		})

		if !sleepCtx(ctx, s.retryDelay) {
			break
		}
	}

	if err != nil {
		res = job.FailedResult(spec, err)
		res.Command = command
		res.Host = slot.Host
		res.Slot = slot.ID
		res.Start = start
		res.Duration = time.Since(start)
	}

	res.Attempts = attempts
	res.State = job.Completed

	ev := progress.Event{
		Seq:  spec.Seq,
		Host: slot.Host.String(),
		Slot: slot.ID,
		Type: progress.EventCompleted,
		Data: progress.EventData{ExitCode: res.ExitCode, Error: res.Err},
	}

	if res.Err != nil {
		res.State = job.Failed
		ev.Type = progress.EventFailed

		logger.Debug("job failed", "error", res.Err)
	}

	s.reporter.Report(ev)

	done <- completion{slot: slot, res: res}
}

// sleepCtx waits for d, returning false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

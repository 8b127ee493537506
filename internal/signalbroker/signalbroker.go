// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker provides a way to listen for OS signals and handle them gracefully.
// By default it listens for os.Interrupt, syscall.SIGINT, syscall.SIGTERM, and syscall.SIGQUIT signals.
//
// The first signal of a type asks the run to drain: no new jobs are started and
// running jobs are allowed to finish. The second signal of the same type cancels
// the run context, which terminates running jobs.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	os.Interrupt,
}

// New creates a new signal broker that listens for OS signals that should terminate the process.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

type drainKey struct{}

// WithDrain returns a context carrying a drain channel, and the function that closes it.
// The function may be called more than once.
func WithDrain(ctx context.Context) (context.Context, func()) {
	ch := make(chan struct{})

	var once sync.Once

	return context.WithValue(ctx, drainKey{}, ch), func() {
		once.Do(func() { close(ch) })
	}
}

// Draining returns a channel that is closed when the run should stop starting new work.
// It returns nil, which blocks forever in a select, if the context has no drain channel.
func Draining(ctx context.Context) <-chan struct{} {
	ch, ok := ctx.Value(drainKey{}).(chan struct{})
	if !ok {
		return nil
	}

	return ch
}

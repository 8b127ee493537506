// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatch(ctx context.Context, sigCh chan os.Signal, drain func(), cancel context.CancelFunc) *sync.WaitGroup {
	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, drain, cancel)
	}()

	return &wg
}

func TestWatch_FirstSignalDrains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	ctx, drain := WithDrain(ctx)

	sigCh := make(chan os.Signal, 1)
	wg := startWatch(ctx, sigCh, drain, cancel)

	sigCh <- os.Interrupt

	select {
	case <-Draining(ctx):
	case <-time.After(time.Second):
		t.Fatal("first signal should drain")
	}

	assert.NoError(t, ctx.Err(), "first signal must not cancel")

	close(sigCh)
	wg.Wait()
}

func TestWatch_SecondSignalCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	ctx, drain := WithDrain(ctx)

	sigCh := make(chan os.Signal, 2)
	wg := startWatch(ctx, sigCh, drain, cancel)

	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("second signal should cancel")
	}

	wg.Wait()
}

func TestWatch_DifferentSignalsOnlyDrain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, drain := WithDrain(ctx)

	sigCh := make(chan os.Signal, 2)
	wg := startWatch(ctx, sigCh, drain, cancel)

	sigCh <- syscall.SIGINT
	sigCh <- syscall.SIGTERM

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, ctx.Err())

	close(sigCh)
	wg.Wait()
}

func TestWatch_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := startWatch(ctx, make(chan os.Signal), nil, cancel)

	cancel()
	wg.Wait()
}

func TestDraining_NoDrainChannel(t *testing.T) {
	assert.Nil(t, Draining(context.Background()))
}

func TestWithDrain_Idempotent(t *testing.T) {
	ctx, drain := WithDrain(context.Background())

	drain()
	assert.NotPanics(t, drain)

	_, open := <-Draining(ctx)
	assert.False(t, open)
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"os/signal"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
)

// Watch monitors the signal channel until it is closed or the context is done.
// The first signal of a type calls drain, the second signal of the same type calls cancel.
func Watch(ctx context.Context, sigCh chan os.Signal, drain func(), cancel context.CancelFunc) {
	sigMap := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, seen := sigMap[sig]; seen {
				ctxlog.Logger(ctx).Warn("watchdog", "detail", "received second signal of type, terminating running jobs", "signal", sig.String())
				signal.Stop(sigCh)
				cancel()

				return
			}

			ctxlog.Logger(ctx).Warn("watchdog", "detail", "received signal, waiting for running jobs, repeat to terminate them", "signal", sig.String())

			sigMap[sig] = struct{}{}

			if drain != nil {
				drain()
			}
		}
	}
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/teereader"
)

const (
	maxBufferSize         = 8 * 1024 * 1024 // 8MB
	defaultKillGrace      = 5 * time.Second
	outputReportInterval  = 500 * time.Millisecond
	outputLastLineDisplay = 120
)

// process is a single operating system process to run to completion.
type process struct {
	Path      string
	Args      []string // Arguments, not including the executable name
	Env       []string
	Dir       string
	KillGrace time.Duration // Time between SIGTERM and SIGKILL on cancellation
	// OnOutput is called periodically with the last line of stdout while the process runs.
	OnOutput func(line string)
}

// processResult is what a finished process left behind.
type processResult struct {
	Started  bool
	ExitCode int
	Signal   string
	Stdout   []byte
	Stderr   []byte
	Err      error
}

// run starts the process and waits for it. Both output streams are drained
// while the process runs. Output beyond maxBufferSize is discarded and reported
// with ErrBufferOverflow.
// When ctx is done the process is sent SIGTERM, then killed after the grace period.
func (p *process) run(ctx context.Context) *processResult {
	logger := ctxlog.Logger(ctx).With("path", p.Path)
	res := &processResult{ExitCode: -1}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		res.Err = errors.Join(ErrFailedToCreatePipe, err)
		return res
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		_ = rOut.Close()
		_ = wOut.Close()
		res.Err = errors.Join(ErrFailedToCreatePipe, err)

		return res
	}

	stdin, err := os.Open(os.DevNull)
	if err != nil {
		stdin = nil
	}

	args := slices.Concat([]string{filepath.Base(p.Path)}, p.Args)

	ps, err := os.StartProcess(p.Path, args, &os.ProcAttr{
		Dir:   p.Dir,
		Env:   p.Env,
		Files: []*os.File{stdin, wOut, wErr},
		Sys:   sysProcAttr(),
	})

	// the child holds its own copies, ours must be closed for the readers to see EOF
	_ = wOut.Close()
	_ = wErr.Close()

	if stdin != nil {
		_ = stdin.Close()
	}

	if err != nil {
		_ = rOut.Close()
		_ = rErr.Close()
		res.Err = errors.Join(ErrCouldNotStartProcess, err)

		return res
	}

	logger.Debug("process started", "pid", ps.Pid)

	res.Started = true

	stdout := teereader.NewLastLineTeeReader(rOut, teereader.WithMaxBytes(maxBufferSize))
	stderr := teereader.NewLastLineTeeReader(rErr, teereader.WithMaxBytes(maxBufferSize))

	var (
		drains    sync.WaitGroup
		drainErrs = make([]error, 2)
	)

	for i, r := range []io.Reader{stdout, stderr} {
		drains.Add(1)

		go func() {
			defer drains.Done()

			if _, err := io.Copy(io.Discard, r); err != nil {
				drainErrs[i] = errors.Join(ErrFailedToReadBuffer, err)
			}
		}()
	}

	done := make(chan struct{})
	watchdogDone := make(chan struct{})

	var stopReason error

	// watchdog for context cancellation and output reporting
	go func() {
		defer close(watchdogDone)

		ticker := time.NewTicker(outputReportInterval)
		defer ticker.Stop()

		lastReported := ""

		for {
			select {
			case <-ticker.C:
				if p.OnOutput == nil {
					continue
				}

				if line := stdout.LastLine(outputLastLineDisplay); line != lastReported {
					lastReported = line
					p.OnOutput(line)
				}

			case <-ctx.Done():
				select {
				case <-done:
					return
				default:
				}

				stopReason = ErrTerminated
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					stopReason = ErrTimeoutExceeded
				}

				logger.Info("context done, terminating process", "pid", ps.Pid, "reason", stopReason)
				terminatePs(ctx, ps, p.killGrace(), done)

				return

			case <-done:
				return
			}
		}
	}()

	state, waitErr := ps.Wait()

	close(done)
	<-watchdogDone
	drains.Wait()

	_ = rOut.Close()
	_ = rErr.Close()

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	res.Err = errors.Join(append(drainErrs, waitErr, stopReason)...)

	if stdout.Truncated() || stderr.Truncated() {
		logger.Debug("output truncated", "maxBytes", maxBufferSize)
		res.Err = errors.Join(res.Err, ErrBufferOverflow)
	}

	if state != nil {
		res.ExitCode = state.ExitCode()
		res.Signal = exitSignal(state)
	}

	logger.Debug("process finished", "pid", ps.Pid, "exitCode", res.ExitCode, "signal", res.Signal)

	return res
}

func (p *process) killGrace() time.Duration {
	if p.KillGrace > 0 {
		return p.KillGrace
	}

	return defaultKillGrace
}

// terminatePs asks the process group to stop and kills it if the process has not
// exited within the grace period. It returns when the process is done or has been killed.
func terminatePs(ctx context.Context, ps *os.Process, grace time.Duration, done <-chan struct{}) {
	if err := signalGroup(ps, syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return
		}

		// no SIGTERM on this platform, go straight to kill
		killPs(ctx, ps)

		return
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		killPs(ctx, ps)
	}
}

// killPs kills the process group.
func killPs(ctx context.Context, ps *os.Process) {
	if err := killGroup(ps); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", ps.Pid)
}

// exitSignal returns the name of the signal that terminated the process, if any.
func exitSignal(state *os.ProcessState) string {
	ws, ok := state.Sys().(interface {
		Signaled() bool
		Signal() syscall.Signal
	})
	if !ok || !ws.Signaled() {
		return ""
	}

	return ws.Signal().String()
}

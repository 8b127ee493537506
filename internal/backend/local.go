// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/matt-FFFFFF/spread/internal/progress"
)

const (
	// EnvSeq is set to the 1-based sequence number of the job.
	EnvSeq = "SPREAD_SEQ"
	// EnvSlot is set to the slot number the job runs in.
	EnvSlot = "SPREAD_SLOT"
)

// Backend runs a job in a slot and reports its result.
type Backend interface {
	Submit(ctx context.Context, spec *job.Spec, slot job.Slot) (*job.Result, error)
}

var _ Backend = (*Local)(nil)

// Local runs jobs as processes on this machine.
type Local struct {
	Shell     Shell
	Env       map[string]string // Added to the environment of every job
	Dir       string            // Working directory, empty for the current directory
	Timeout   time.Duration     // Per-job timeout, 0 for none
	KillGrace time.Duration     // Time between SIGTERM and SIGKILL
	Reporter  progress.Reporter
}

// Submit implements Backend. A job that cannot be started is returned as an error;
// a job that ran has a result whatever its exit status.
func (l *Local) Submit(ctx context.Context, spec *job.Spec, slot job.Slot) (*job.Result, error) {
	command := spec.CommandFor(slot)
	logger := ctxlog.Logger(ctx).With("seq", spec.Seq+1, "slot", slot.ID)
	logger.Debug("running local job", "command", command)

	if l.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	shell := l.Shell
	if shell.Path == "" {
		shell = DefaultShell(ctx)
	}

	p := &process{
		Path:      shell.Path,
		Args:      shell.argv(command),
		Env:       l.environ(spec, slot),
		Dir:       l.Dir,
		KillGrace: l.KillGrace,
	}

	if l.Reporter != nil {
		p.OnOutput = func(line string) {
			l.Reporter.Report(progress.Event{
				Seq:  spec.Seq,
				Host: slot.Host.String(),
				Slot: slot.ID,
				Type: progress.EventOutput,
				Data: progress.EventData{OutputLine: line},
			})
		}
	}

	start := time.Now()
	pr := p.run(ctx)

	if !pr.Started {
		return nil, fmt.Errorf("job %d: %w", spec.Seq+1, pr.Err)
	}

	return &job.Result{
		Seq:      spec.Seq,
		Args:     spec.Args,
		Command:  command,
		Host:     slot.Host,
		Slot:     slot.ID,
		ExitCode: pr.ExitCode,
		Signal:   pr.Signal,
		Stdout:   pr.Stdout,
		Stderr:   pr.Stderr,
		Err:      pr.Err,
		Start:    start,
		Duration: time.Since(start),
	}, nil
}

func (l *Local) environ(spec *job.Spec, slot job.Slot) []string {
	env := os.Environ()

	for _, k := range slices.Sorted(maps.Keys(l.Env)) {
		env = append(env, k+"="+l.Env[k])
	}

	return append(env,
		EnvSeq+"="+strconv.Itoa(spec.Seq+1),
		EnvSlot+"="+strconv.Itoa(slot.ID),
	)
}

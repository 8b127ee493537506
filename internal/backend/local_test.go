// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/spread/internal/cmdtemplate"
	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/matt-FFFFFF/spread/internal/input"
	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/matt-FFFFFF/spread/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var sh = Shell{Path: "/bin/sh", Args: []string{"-c"}}

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == goosWindows {
		t.Skip("requires a POSIX shell")
	}
}

func spec(t *testing.T, seq int, tmpl string, args ...string) *job.Spec {
	t.Helper()

	g := input.Group{}
	for _, a := range args {
		g.Records = append(g.Records, input.NewRecord(a))
	}

	s := job.NewSpec(seq, g, cmdtemplate.MustParse(tmpl))
	require.NoError(t, s.Err)

	return s
}

var localSlot = job.Slot{ID: 1, Host: hosts.Local}

func TestLocal_Success(t *testing.T) {
	skipOnWindows(t)

	l := &Local{Shell: sh}

	res, err := l.Submit(context.Background(), spec(t, 0, "echo {}", "hello"), localSlot)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	require.NoError(t, res.Err)
	assert.Equal(t, "hello\n", string(res.Stdout))
	assert.Empty(t, res.Stderr)
	assert.Equal(t, "echo hello", res.Command)
	assert.True(t, res.Host.IsLocal())
}

func TestLocal_NonZeroExitIsNotAnError(t *testing.T) {
	skipOnWindows(t)

	l := &Local{Shell: sh}

	res, err := l.Submit(context.Background(), spec(t, 0, "echo oops >&2; exit 3"), localSlot)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", string(res.Stderr))
}

func TestLocal_Environment(t *testing.T) {
	skipOnWindows(t)

	l := &Local{Shell: sh, Env: map[string]string{"GREETING": "hi"}}

	res, err := l.Submit(context.Background(), spec(t, 4, `echo "$GREETING $SPREAD_SEQ $SPREAD_SLOT"`), job.Slot{ID: 2, Host: hosts.Local})
	require.NoError(t, err)
	assert.Equal(t, "hi 5 2\n", string(res.Stdout))
}

func TestLocal_WorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	l := &Local{Shell: sh, Dir: dir}

	res, err := l.Submit(context.Background(), spec(t, 0, "pwd -P"), localSlot)
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(string(res.Stdout)))
}

func TestLocal_LargeOutputDoesNotDeadlock(t *testing.T) {
	skipOnWindows(t)

	l := &Local{Shell: sh}

	// 1MiB on both streams, far larger than a pipe buffer
	cmd := "head -c 1048576 /dev/zero; head -c 1048576 /dev/zero >&2"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := l.Submit(ctx, spec(t, 0, cmd), localSlot)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Len(t, res.Stdout, 1048576)
	assert.Len(t, res.Stderr, 1048576)
}

func TestLocal_OutputOverflow(t *testing.T) {
	skipOnWindows(t)

	l := &Local{Shell: sh}

	res, err := l.Submit(context.Background(), spec(t, 0, "head -c 9000000 /dev/zero"), localSlot)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, ErrBufferOverflow)
	assert.Len(t, res.Stdout, maxBufferSize)
	assert.Equal(t, 0, res.ExitCode)
}

func TestLocal_Timeout(t *testing.T) {
	skipOnWindows(t)

	l := &Local{Shell: sh, Timeout: 100 * time.Millisecond, KillGrace: 100 * time.Millisecond}

	start := time.Now()

	res, err := l.Submit(context.Background(), spec(t, 0, "sleep 10"), localSlot)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, ErrTimeoutExceeded)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLocal_CancelTerminates(t *testing.T) {
	skipOnWindows(t)

	l := &Local{Shell: sh, KillGrace: 100 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res, err := l.Submit(ctx, spec(t, 0, "sleep 10; echo done"), localSlot)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, ErrTerminated)
	assert.NotContains(t, string(res.Stdout), "done")
	assert.Equal(t, "terminated", res.Signal)
}

func TestLocal_CannotStart(t *testing.T) {
	l := &Local{Shell: Shell{Path: "/not/a/real/shell", Args: []string{"-c"}}}

	res, err := l.Submit(context.Background(), spec(t, 0, "true"), localSlot)
	require.ErrorIs(t, err, ErrCouldNotStartProcess)
	assert.Nil(t, res)
	assert.False(t, IsTransportError(err))
}

type recordingReporter struct {
	events chan progress.Event
}

func (r *recordingReporter) Report(e progress.Event) {
	select {
	case r.events <- e:
	default:
	}
}

func (r *recordingReporter) Close() {}

func TestLocal_ReportsOutput(t *testing.T) {
	skipOnWindows(t)

	rep := &recordingReporter{events: make(chan progress.Event, 16)}
	l := &Local{Shell: sh, Reporter: rep}

	_, err := l.Submit(context.Background(), spec(t, 2, "echo working; sleep 1"), localSlot)
	require.NoError(t, err)

	require.NotEmpty(t, rep.events)

	e := <-rep.events
	assert.Equal(t, progress.EventOutput, e.Type)
	assert.Equal(t, 2, e.Seq)
	assert.Equal(t, "working", e.Data.OutputLine)
}

func TestLookupShell(t *testing.T) {
	skipOnWindows(t)

	s, err := LookupShell("sh")
	require.NoError(t, err)
	assert.Equal(t, []string{"-c"}, s.Args)

	_, err = LookupShell("definitely-not-a-shell")
	require.ErrorIs(t, err, ErrNoShell)
}

func TestDefaultShell(t *testing.T) {
	skipOnWindows(t)

	t.Setenv("SHELL", "")
	assert.Equal(t, Shell{Path: binSh, Args: []string{"-c"}}, DefaultShell(context.Background()))

	t.Setenv("SHELL", "/bin/bash")
	assert.Equal(t, "/bin/bash", DefaultShell(context.Background()).Path)
}

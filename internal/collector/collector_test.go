// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package collector

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/spread/internal/color"
	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/matt-FFFFFF/spread/internal/input"
	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(seq int, arg, stdout string) *job.Result {
	return &job.Result{
		Seq:     seq,
		Args:    input.Group{Records: []input.Record{input.NewRecord(arg)}},
		Command: "echo " + arg,
		Host:    hosts.Local,
		Slot:    1,
		Stdout:  []byte(stdout),
		State:   job.Completed,
	}
}

func newCollector(t *testing.T, opts ...Option) (*Collector, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	c, err := New(context.Background(), &stdout, &stderr, opts...)
	require.NoError(t, err)

	return c, &stdout, &stderr
}

func TestCollect_CompletionOrder(t *testing.T) {
	c, stdout, _ := newCollector(t)

	c.Collect(result(2, "c", "c\n"))
	c.Collect(result(0, "a", "a\n"))
	c.Collect(result(1, "b", "b\n"))

	_, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, "c\na\nb\n", stdout.String())
}

func TestCollect_InputOrder(t *testing.T) {
	c, stdout, _ := newCollector(t, WithMode(InputOrder))

	c.Collect(result(2, "c", "c\n"))
	assert.Empty(t, stdout.String(), "held back until 0 and 1 arrive")
	assert.Equal(t, 1, c.Buffered())

	c.Collect(result(0, "a", "a\n"))
	assert.Equal(t, "a\n", stdout.String())

	c.Collect(result(1, "b", "b\n"))
	assert.Equal(t, "a\nb\nc\n", stdout.String())
	assert.Zero(t, c.Buffered())
}

func TestCollect_InputOrderMatchesSortedCompletionOutput(t *testing.T) {
	const n = 200

	rng := rand.New(rand.NewSource(42))
	order := rng.Perm(n)

	c, stdout, _ := newCollector(t, WithMode(InputOrder))

	var want strings.Builder

	for i := range n {
		want.WriteString(strconv.Itoa(i) + "\n")
	}

	for _, seq := range order {
		c.Collect(result(seq, strconv.Itoa(seq), strconv.Itoa(seq)+"\n"))
	}

	summary, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, want.String(), stdout.String())
	assert.Equal(t, n, summary.Succeeded)
}

func TestCollect_CloseFlushesGaps(t *testing.T) {
	c, stdout, _ := newCollector(t, WithMode(InputOrder))

	c.Collect(result(3, "d", "d\n"))
	c.Collect(result(1, "b", "b\n"))
	assert.Empty(t, stdout.String())

	_, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, "b\nd\n", stdout.String())
}

func TestCollect_Tag(t *testing.T) {
	c, stdout, stderr := newCollector(t, WithTag())

	r := result(0, "file one", "line1\nline2\n")
	r.Stderr = []byte("warn\npartial")

	c.Collect(r)

	_, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, "file one\tline1\nfile one\tline2\n", stdout.String())
	assert.Equal(t, "file one\twarn\nfile one\tpartial", stderr.String())
}

func TestCollect_JobErrorsGoToStderr(t *testing.T) {
	c, stdout, stderr := newCollector(t)

	r := result(4, "x", "")
	r.Err = errors.New("connection refused")
	r.ExitCode = -1
	r.State = job.Failed

	c.Collect(r)

	summary, err := c.Close()
	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "spread: job 5 (x): connection refused\n", stderr.String())
	assert.Equal(t, 1, summary.Failed)
}

func TestCollect_SkippedWritesNothing(t *testing.T) {
	c, stdout, stderr := newCollector(t)

	r := result(0, "x", "")
	r.Skipped = true

	c.Collect(r)

	summary, err := c.Close()
	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
	assert.Equal(t, Summary{Jobs: 1, Skipped: 1}, summary)
	assert.Equal(t, 0, summary.ExitCode())
}

func TestSummary_ExitCode(t *testing.T) {
	tests := []struct {
		failed int
		want   int
	}{
		{0, 0},
		{1, 1},
		{3, 3},
		{101, 101},
		{500, MaxFailureExitCode},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.failed), func(t *testing.T) {
			assert.Equal(t, tt.want, Summary{Failed: tt.failed}.ExitCode())
		})
	}
}

func TestCollect_NonZeroExitCountsAsFailure(t *testing.T) {
	c, _, _ := newCollector(t)

	ok := result(0, "a", "")
	bad := result(1, "b", "")
	bad.ExitCode = 2

	c.Collect(ok)
	c.Collect(bad)

	summary, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, Summary{Jobs: 2, Succeeded: 1, Failed: 1}, summary)
	assert.Equal(t, 1, summary.ExitCode())
}

func TestCollect_JobLog(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, _, _ := newCollector(t, WithFs(fs), WithJobLog("run.log"))

	r := result(0, "a", "a\n")
	r.Start = time.UnixMilli(1700000000500)
	r.Duration = 1500 * time.Millisecond
	r.ExitCode = 3

	c.Collect(r)

	_, err := c.Close()
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "run.log")
	require.NoError(t, err)
	assert.Equal(t,
		"Seq\tHost\tStarttime\tJobRuntime\tExitval\tSignal\tCommand\n"+
			"1\tlocal\t1700000000.500\t1.500\t3\t0\techo a\n",
		string(data))
}

func TestCollect_ResultsDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, _, _ := newCollector(t, WithFs(fs), WithResultsDir("out"))

	r := result(6, "a", "hello\n")
	r.Stderr = []byte("oops\n")
	r.ExitCode = 1

	c.Collect(r)

	_, err := c.Close()
	require.NoError(t, err)

	tests := map[string]string{
		"out/7/stdout":  "hello\n",
		"out/7/stderr":  "oops\n",
		"out/7/exitval": "1\n",
	}

	for name, want := range tests {
		data, err := afero.ReadFile(fs, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, string(data), name)
	}
}

func TestCollect_JobLogCannotBeCreated(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := New(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, WithFs(fs), WithJobLog("run.log"))
	require.ErrorIs(t, err, ErrOpenJobLog)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCollect_WriteErrorIsReturnedOnClose(t *testing.T) {
	c, err := New(context.Background(), failingWriter{}, &bytes.Buffer{})
	require.NoError(t, err)

	c.Collect(result(0, "a", "a\n"))

	_, err = c.Close()
	require.ErrorIs(t, err, ErrWriteOutput)
}

func TestSavedResults_RoundTripAndText(t *testing.T) {
	restore := color.SetEnabled(false)
	defer restore()

	var file bytes.Buffer

	c, _, _ := newCollector(t, WithSaveTo(&file))

	bad := result(1, "b", "")
	bad.ExitCode = 2
	bad.Stderr = []byte("no such file\n")
	bad.Err = errors.New("timed out")

	skipped := result(2, "c", "")
	skipped.Skipped = true

	c.Collect(result(0, "a", "a\n"))
	c.Collect(bad)
	c.Collect(skipped)

	_, err := c.Close()
	require.NoError(t, err)

	saved, err := ReadSaved(&file)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.True(t, saved.HasFailure())
	assert.Equal(t, "timed out", saved[1].Error)

	var text bytes.Buffer
	require.NoError(t, saved.WriteText(&text, nil))
	assert.Equal(t,
		"✓ job 1 echo a [local]\n"+
			"✗ job 2 echo b [local] (exit code: 2)\n"+
			"  ➜ Error: timed out\n"+
			"  ➜ Error Output:\n"+
			"     no such file\n"+
			"~ job 3 echo c [local]\n",
		text.String())
}

func TestReadSaved_Garbage(t *testing.T) {
	_, err := ReadSaved(strings.NewReader("not gob"))
	require.ErrorIs(t, err, ErrDecodeResults)
}

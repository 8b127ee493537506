// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package collector turns job results into the output of a run.
//
// Results arrive in completion order. The collector writes them either as they
// arrive or in input order, optionally tags every line with the arguments of
// the job, and keeps the joblog, the results directory and the saved result
// file up to date. It also computes the exit status of the run.
package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/spf13/afero"
)

const (
	// MaxFailureExitCode caps the exit status of a run with failed jobs.
	MaxFailureExitCode = 101
	// ExitCodeFatal is the exit status of a run that could not start or was cancelled.
	ExitCodeFatal = 255
)

var (
	// ErrWriteOutput is returned when job output cannot be written.
	ErrWriteOutput = errors.New("failed to write job output")
	// ErrOpenJobLog is returned when the joblog cannot be created.
	ErrOpenJobLog = errors.New("failed to open joblog")
)

// Mode is the order results are written in.
type Mode int

const (
	// CompletionOrder writes every result as soon as it arrives.
	CompletionOrder Mode = iota
	// InputOrder buffers results and writes them in ascending sequence.
	InputOrder
)

// String implements the Stringer interface for Mode.
func (m Mode) String() string {
	if m == InputOrder {
		return "keep-order"
	}

	return "completion"
}

// Summary counts the results of a run.
type Summary struct {
	Jobs      int
	Succeeded int
	Failed    int // Non-zero exit or could not be run
	Skipped   int
}

// ExitCode returns 0 when no job failed, otherwise the number of failed jobs capped at MaxFailureExitCode.
func (s Summary) ExitCode() int {
	if s.Failed == 0 {
		return 0
	}

	return min(s.Failed, MaxFailureExitCode)
}

// Collector writes job results. Collect is not safe for concurrent use,
// the scheduler calls it from a single goroutine.
type Collector struct {
	stdout  io.Writer
	stderr  io.Writer
	mode    Mode
	tag     bool
	fs      afero.Fs
	logPath string
	joblog  *JobLog
	results *ResultsDir
	saveTo  io.Writer
	saved   SavedResults
	logger  *slog.Logger

	pending map[int]*job.Result
	next    int
	summary Summary
	err     error
}

// Option configures a Collector.
type Option func(*Collector)

// WithMode sets the order results are written in.
func WithMode(m Mode) Option {
	return func(c *Collector) {
		c.mode = m
	}
}

// WithTag prefixes every output line with the arguments of the job and a tab.
func WithTag() Option {
	return func(c *Collector) {
		c.tag = true
	}
}

// WithFs sets the filesystem used for the joblog and the results directory.
func WithFs(fs afero.Fs) Option {
	return func(c *Collector) {
		c.fs = fs
	}
}

// WithJobLog records every finished job in a tab-separated file.
func WithJobLog(path string) Option {
	return func(c *Collector) {
		c.logPath = path
	}
}

// WithResultsDir stores the output of every job below dir.
func WithResultsDir(dir string) Option {
	return func(c *Collector) {
		c.results = &ResultsDir{Dir: dir}
	}
}

// WithSaveTo writes all results, gob encoded, to w when the collector is closed.
func WithSaveTo(w io.Writer) Option {
	return func(c *Collector) {
		c.saveTo = w
	}
}

// New creates a collector writing job stdout to stdout and job stderr to stderr.
func New(ctx context.Context, stdout, stderr io.Writer, opts ...Option) (*Collector, error) {
	c := &Collector{
		stdout:  stdout,
		stderr:  stderr,
		fs:      afero.NewOsFs(),
		pending: make(map[int]*job.Result),
		logger:  ctxlog.Logger(ctx),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.results != nil {
		c.results.Fs = c.fs
	}

	if c.logPath != "" {
		f, err := c.fs.Create(c.logPath)
		if err != nil {
			return nil, errors.Join(ErrOpenJobLog, err)
		}

		c.joblog = NewJobLog(f)
		if err := c.joblog.WriteHeader(); err != nil {
			f.Close() // nolint:errcheck
			return nil, errors.Join(ErrOpenJobLog, err)
		}
	}

	return c, nil
}

// Collect accepts a finished job.
func (c *Collector) Collect(res *job.Result) {
	c.count(res)

	if c.mode == CompletionOrder {
		c.emit(res)
		return
	}

	c.pending[res.Seq] = res

	for {
		r, ok := c.pending[c.next]
		if !ok {
			return
		}

		delete(c.pending, c.next)
		c.next++
		c.emit(r)
	}
}

// Buffered returns the number of results held back to keep input order.
func (c *Collector) Buffered() int {
	return len(c.pending)
}

// NextSeq returns the sequence number of the next result written in input
// order. Results arriving in completion order are written at once, so there is
// nothing to wait for and NextSeq reports the number of results collected.
func (c *Collector) NextSeq() int {
	if c.mode == CompletionOrder {
		return c.summary.Jobs
	}

	return c.next
}

// Close writes any results still buffered, in sequence order, and finishes the
// joblog and the saved result file.
func (c *Collector) Close() (Summary, error) {
	// sequence gaps are left by jobs that were never dispatched
	for _, seq := range slices.Sorted(maps.Keys(c.pending)) {
		c.emit(c.pending[seq])
		delete(c.pending, seq)
	}

	if c.joblog != nil {
		if err := c.joblog.Close(); err != nil {
			c.err = errors.Join(c.err, err)
		}
	}

	if c.saveTo != nil {
		if err := WriteSaved(c.saveTo, c.saved); err != nil {
			c.err = errors.Join(c.err, err)
		}
	}

	return c.summary, c.err
}

// Summary returns the counts so far.
func (c *Collector) Summary() Summary {
	return c.summary
}

func (c *Collector) count(res *job.Result) {
	c.summary.Jobs++

	switch {
	case res.Skipped:
		c.summary.Skipped++
	case res.Succeeded():
		c.summary.Succeeded++
	default:
		c.summary.Failed++
	}
}

func (c *Collector) emit(res *job.Result) {
	if res.Skipped {
		c.logger.Debug("job skipped", "seq", res.Seq+1)
	} else {
		c.write(c.stdout, c.format(res, res.Stdout))
		c.write(c.stderr, c.format(res, res.Stderr))

		if res.Err != nil {
			c.write(c.stderr, fmt.Appendf(nil, "spread: job %d (%s): %v\n", res.Seq+1, res.Args, res.Err))
		}
	}

	if c.joblog != nil && !res.Skipped {
		if err := c.joblog.Write(res); err != nil {
			c.fail(err)
		}
	}

	if c.results != nil && !res.Skipped {
		if err := c.results.Write(res); err != nil {
			c.fail(err)
		}
	}

	if c.saveTo != nil {
		c.saved = append(c.saved, Save(res))
	}
}

func (c *Collector) format(res *job.Result, data []byte) []byte {
	if !c.tag || len(data) == 0 {
		return data
	}

	return tagLines(res.Args.String()+"\t", data)
}

func (c *Collector) write(w io.Writer, data []byte) {
	if len(data) == 0 {
		return
	}

	if _, err := w.Write(data); err != nil {
		c.fail(errors.Join(ErrWriteOutput, err))
	}
}

func (c *Collector) fail(err error) {
	c.logger.Warn("collector error", "error", err)
	c.err = errors.Join(c.err, err)
}

// tagLines prefixes every line of data. A final line without a newline is kept as is.
func tagLines(prefix string, data []byte) []byte {
	var buf bytes.Buffer

	buf.Grow(len(data) + bytes.Count(data, []byte{'\n'})*len(prefix) + len(prefix))

	for len(data) > 0 {
		line := data

		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line = data[:i+1]
		}

		data = data[len(line):]

		buf.WriteString(prefix)
		buf.Write(line)
	}

	return buf.Bytes()
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package collector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/spread/internal/job"
)

// ErrWriteJobLog is returned when a joblog line cannot be written.
var ErrWriteJobLog = errors.New("failed to write joblog")

var jobLogColumns = []string{"Seq", "Host", "Starttime", "JobRuntime", "Exitval", "Signal", "Command"}

// JobLog writes one tab-separated line per finished job.
type JobLog struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewJobLog creates a joblog on w. If w is an io.Closer it is closed by Close.
func NewJobLog(w io.Writer) *JobLog {
	l := &JobLog{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}

	return l
}

// WriteHeader writes the column names.
func (l *JobLog) WriteHeader() error {
	if _, err := l.w.WriteString(strings.Join(jobLogColumns, "\t") + "\n"); err != nil {
		return errors.Join(ErrWriteJobLog, err)
	}

	return nil
}

// Write records a result. Start time is in seconds since the epoch and the runtime in seconds.
func (l *JobLog) Write(res *job.Result) error {
	signal := res.Signal
	if signal == "" {
		signal = "0"
	}

	var start float64
	if !res.Start.IsZero() {
		start = float64(res.Start.UnixMilli()) / 1000
	}

	_, err := fmt.Fprintf(l.w, "%d\t%s\t%.3f\t%.3f\t%d\t%s\t%s\n",
		res.Seq+1,
		res.Host.String(),
		start,
		res.Duration.Seconds(),
		res.ExitCode,
		signal,
		strings.ReplaceAll(res.Command, "\n", " "),
	)
	if err != nil {
		return errors.Join(ErrWriteJobLog, err)
	}

	// flushed per line so the log is useful while the run is in progress
	if err := l.w.Flush(); err != nil {
		return errors.Join(ErrWriteJobLog, err)
	}

	return nil
}

// Close flushes the log and closes the underlying writer.
func (l *JobLog) Close() error {
	err := l.w.Flush()

	if l.closer != nil {
		err = errors.Join(err, l.closer.Close())
	}

	if err != nil {
		return errors.Join(ErrWriteJobLog, err)
	}

	return nil
}

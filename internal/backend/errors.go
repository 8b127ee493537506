// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferOverflow is set on a result whose output exceeded the capture limit.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrFailedToReadBuffer is returned when the output of the process could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrTimeoutExceeded is set on a result when the job ran past its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrTerminated is set on a result when the job was stopped because the run was cancelled.
	ErrTerminated = errors.New("terminated")
	// ErrNoShell is returned when no shell could be found to run commands with.
	ErrNoShell = errors.New("no shell found")
)

// TransportError is a failure to reach a remote host or move files to or from it.
// It is the only error the scheduler retries.
type TransportError struct {
	Host string
	Op   string // put, get, run, remove, probe
	Err  error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s on %s: %v", e.Op, e.Host, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

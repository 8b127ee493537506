// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is an update about a single job.
type Event struct {
	Seq       int       // 0-based job sequence number
	Host      string    // Host the job runs on
	Slot      int       // Slot the job runs in
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a job has been dispatched to a slot.
	EventStarted EventType = iota
	// EventRetrying indicates a job is being retried after a transport failure.
	EventRetrying
	// EventOutput indicates new output from a running job.
	EventOutput
	// EventCompleted indicates the job ran to completion, whatever its exit code.
	EventCompleted
	// EventFailed indicates the job could not be run.
	EventFailed
	// EventSkipped indicates the job was declined at the prompt.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventRetrying:
		return "retrying"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// IsFinal reports whether no further events follow for the job.
func (et EventType) IsFinal() bool {
	return et == EventCompleted || et == EventFailed || et == EventSkipped
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventStarted
	Command string

	// For EventOutput
	OutputLine string // Last complete output line
	IsStderr   bool

	// For EventCompleted/EventFailed
	ExitCode int
	Error    error

	// For EventRetrying
	Attempt int
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends a progress event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent.
	Close()
}

// Listener receives progress events.
type Listener interface {
	// OnEvent is called for every event, it should return quickly.
	OnEvent(event Event)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (NullReporter) Report(Event) {}

// Close implements Reporter.Close by doing nothing.
func (NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return NullReporter{}
}

// OrNull returns r, or a NullReporter if r is nil.
func OrNull(r Reporter) Reporter {
	if r == nil {
		return NullReporter{}
	}

	return r
}

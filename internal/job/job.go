// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package job holds the unit of work that flows through spread:
// the job specification produced from the input, the slot it runs in and
// the result it produces.
package job

import (
	"time"

	"github.com/matt-FFFFFF/spread/internal/cmdtemplate"
	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/matt-FFFFFF/spread/internal/input"
)

// State is the lifecycle state of a job.
type State int

const (
	// Pending jobs wait for a free slot.
	Pending State = iota
	// Dispatched jobs are running, retries stay in this state.
	Dispatched
	// Completed jobs ran to completion, whatever their exit code.
	Completed
	// Failed jobs could not be run.
	Failed
)

// String implements the Stringer interface for State.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Dispatched:
		return "dispatched"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Spec is one unit of work. It is not modified after it has been produced.
type Spec struct {
	Seq     int         // 0-based position in the input
	Args    input.Group // Arguments the command was rendered from
	Command string      // Rendered command
	Err     error       // Set when the job cannot be run, e.g. a placeholder has no value

	tmpl *cmdtemplate.Template
}

// NewSpec renders the template for the argument group.
// A render error is recorded on the spec rather than returned, it only affects this job.
func NewSpec(seq int, args input.Group, tmpl *cmdtemplate.Template) *Spec {
	s := &Spec{
		Seq:  seq,
		Args: args,
		Err:  args.Err,
		tmpl: tmpl,
	}

	if s.Err != nil {
		return s
	}

	// {%} is only known at dispatch, render it as the first slot until then
	cmd, err := tmpl.Render(cmdtemplate.Values{Args: args, Seq: seq, Slot: 1})
	if err != nil {
		s.Err = err
		return s
	}

	s.Command = cmd

	return s
}

// CommandFor returns the command to run in the given slot.
func (s *Spec) CommandFor(slot Slot) string {
	if s.tmpl == nil || !s.tmpl.UsesSlot() || s.Err != nil {
		return s.Command
	}

	cmd, err := s.tmpl.Render(cmdtemplate.Values{Args: s.Args, Seq: s.Seq, Slot: slot.ID})
	if err != nil {
		return s.Command
	}

	return cmd
}

// Values returns the template values of the job in the given slot.
func (s *Spec) Values(slot Slot) cmdtemplate.Values {
	return cmdtemplate.Values{Args: s.Args, Seq: s.Seq, Slot: slot.ID}
}

// Slot is one unit of concurrent capacity on a host.
type Slot struct {
	ID   int // 1-based within the host
	Host hosts.Host
}

// Result is the outcome of a job.
type Result struct {
	Seq             int
	Args            input.Group
	Command         string
	Host            hosts.Host
	Slot            int
	ExitCode        int
	Signal          string // Signal that terminated the process, if any
	Stdout          []byte
	Stderr          []byte
	Err             error
	State           State
	CompletionOrder int // 1-based order in which the job finished
	Attempts        int
	Start           time.Time
	Duration        time.Duration
	Skipped         bool // Declined at the interactive prompt
}

// Succeeded reports whether the job ran and exited zero.
func (r *Result) Succeeded() bool {
	return r.State == Completed && r.ExitCode == 0 && r.Err == nil && !r.Skipped
}

// FailedResult returns the result of a job that could not be run.
func FailedResult(s *Spec, err error) *Result {
	return &Result{
		Seq:      s.Seq,
		Args:     s.Args,
		Command:  s.Command,
		ExitCode: -1,
		Err:      err,
		State:    Failed,
	}
}

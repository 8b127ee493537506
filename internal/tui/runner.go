// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"bytes"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/spread/internal/progress"
)

// Runner owns the display program. The display never reads the keyboard,
// stdin may carry job input, and interrupts are left to the signal handler of the caller.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *Reporter
	done     chan error
	once     sync.Once
}

// Reporter implements progress.Reporter and forwards events to the display.
type Reporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

var _ progress.Reporter = (*Reporter)(nil)

// Report implements progress.Reporter.
func (tr *Reporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(EventMsg{Event: event})
}

// Close implements progress.Reporter.
func (tr *Reporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	tr.closed = true
}

// NewRunner creates a display for total jobs, drawn on out.
func NewRunner(total int, out io.Writer, opts ...tea.ProgramOption) *Runner {
	model := NewModel(total)
	opts = append([]tea.ProgramOption{
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	}, opts...)
	program := tea.NewProgram(model, opts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: &Reporter{program: program},
		done:     make(chan error, 1),
	}
}

// Reporter returns the progress reporter feeding this display.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Model returns the display state.
func (r *Runner) Model() *Model {
	return r.model
}

// Start draws the display until Stop is called.
func (r *Runner) Start() {
	go func() {
		_, err := r.program.Run()
		r.done <- err
	}()
}

// Stop draws the final status line and waits for the display to exit.
func (r *Runner) Stop() error {
	var err error

	r.once.Do(func() {
		r.program.Send(DoneMsg{})
		err = <-r.done
		r.reporter.Close()
	})

	return err
}

// LogBuffer collects log lines while the display owns the terminal.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (l *LogBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buf.Write(p)
}

// WriteTo writes the collected lines to w and empties the buffer.
func (l *LogBuffer) WriteTo(w io.Writer) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buf.WriteTo(w)
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"slices"
	"strings"
	"sync"
	"time"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/spread/internal/progress"
)

const (
	defaultWidth = 80
	barWidth     = 30
	// maxRunningRows caps the running jobs listed below the bar.
	maxRunningRows = 10
)

// JobStatus represents the state of a job in the display.
type JobStatus int

const (
	StatusRunning JobStatus = iota
	StatusRetrying
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String returns a string representation of the job status.
func (s JobStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusRetrying:
		return "retrying"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// JobRow is a running job shown below the progress bar.
type JobRow struct {
	Seq        int
	Host       string
	Slot       int
	Command    string
	Status     JobStatus
	Attempt    int
	LastOutput string
	StartTime  time.Time
}

// Counts are the totals shown next to the progress bar.
type Counts struct {
	Total     int // 0 when the number of jobs is not known in advance
	Succeeded int
	Failed    int
	Skipped   int
}

// Finished returns the number of jobs that will not produce further events.
func (c Counts) Finished() int {
	return c.Succeeded + c.Failed + c.Skipped
}

// Model is the state of the progress display.
type Model struct {
	running map[int]*JobRow
	counts  Counts
	width   int
	done    bool
	bar     bar.Model
	spinner spinner.Model
	styles  *Styles
	mutex   sync.RWMutex
}

// Styles contains all the styling for the display.
type Styles struct {
	Title   lipgloss.Style
	Running lipgloss.Style
	Retry   lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Output  lipgloss.Style
	Faint   lipgloss.Style
}

// NewStyles creates the default styling.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Retry: lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Faint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
	}
}

// NewModel creates a display for total jobs, 0 when the total is unknown.
func NewModel(total int) *Model {
	return &Model{
		running: make(map[int]*JobRow),
		counts:  Counts{Total: total},
		width:   defaultWidth,
		bar:     bar.New(bar.WithDefaultGradient(), bar.WithWidth(barWidth), bar.WithoutPercentage()),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  NewStyles(),
	}
}

// Counts returns the current totals.
func (m *Model) Counts() Counts {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.counts
}

// Running returns the running jobs in sequence order.
func (m *Model) Running() []JobRow {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rows := make([]JobRow, 0, len(m.running))
	for _, r := range m.running {
		rows = append(rows, *r)
	}

	slices.SortFunc(rows, func(a, b JobRow) int { return a.Seq - b.Seq })

	return rows
}

// processEvent applies a job event to the model.
func (m *Model) processEvent(e progress.Event) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch e.Type {
	case progress.EventStarted:
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}

		m.running[e.Seq] = &JobRow{
			Seq:       e.Seq,
			Host:      e.Host,
			Slot:      e.Slot,
			Command:   e.Data.Command,
			Status:    StatusRunning,
			StartTime: e.Timestamp,
		}

	case progress.EventRetrying:
		if r, ok := m.running[e.Seq]; ok {
			r.Status = StatusRetrying
			r.Attempt = e.Data.Attempt
		}

	case progress.EventOutput:
		if r, ok := m.running[e.Seq]; ok {
			r.Status = StatusRunning
			r.LastOutput = lastLine(e.Data.OutputLine)
		}

	case progress.EventCompleted:
		delete(m.running, e.Seq)

		if e.Data.ExitCode == 0 && e.Data.Error == nil {
			m.counts.Succeeded++
		} else {
			m.counts.Failed++
		}

	case progress.EventFailed:
		delete(m.running, e.Seq)
		m.counts.Failed++

	case progress.EventSkipped:
		delete(m.running, e.Seq)
		m.counts.Skipped++
	}
}

// lastLine keeps only the last non-empty line, trimmed.
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}

	return s
}

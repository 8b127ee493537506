// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/matt-FFFFFF/spread/internal/progress"
)

const (
	jobDurationRounding = 100 * time.Millisecond
	ellipsis            = "…"
)

// EventMsg wraps a job event for the tea framework.
type EventMsg struct {
	Event progress.Event
}

// DoneMsg indicates that the run has finished and the display should exit.
type DoneMsg struct{}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.processEvent(msg.Event)
		return m, nil

	case DoneMsg:
		m.mutex.Lock()
		m.done = true
		m.mutex.Unlock()

		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.mutex.Unlock()

		return m, nil

	case spinner.TickMsg:
		m.mutex.Lock()
		defer m.mutex.Unlock()

		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var b strings.Builder

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	if m.done {
		return b.String()
	}

	rows := m.sortedRows()
	for i, r := range rows {
		if i == maxRunningRows {
			b.WriteString(m.styles.Faint.Render(fmt.Sprintf("  … %d more running", len(rows)-maxRunningRows)))
			b.WriteString("\n")

			break
		}

		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	return b.String()
}

// statusLine renders the bar and the counts.
func (m *Model) statusLine() string {
	c := m.counts

	var b strings.Builder

	if m.done {
		b.WriteString(m.styles.Title.Render("spread"))
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.Title.Render("spread"))
	}

	b.WriteString(" ")

	if c.Total > 0 {
		b.WriteString(m.bar.ViewAs(float64(c.Finished()) / float64(c.Total)))
		b.WriteString(fmt.Sprintf(" %d/%d", c.Finished(), c.Total))
	} else {
		b.WriteString(strconv.Itoa(c.Finished()) + " done")
	}

	b.WriteString(fmt.Sprintf("  %s %d", m.styles.Running.Render("⚡"), len(m.running)))
	b.WriteString(fmt.Sprintf("  %s %d", m.styles.Success.Render("✓"), c.Succeeded))
	b.WriteString(fmt.Sprintf("  %s %d", m.styles.Failed.Render("✗"), c.Failed))

	if c.Skipped > 0 {
		b.WriteString(fmt.Sprintf("  %s %d", m.styles.Skipped.Render("~"), c.Skipped))
	}

	return b.String()
}

func (m *Model) sortedRows() []*JobRow {
	rows := make([]*JobRow, 0, len(m.running))
	for _, r := range m.running {
		rows = append(rows, r)
	}

	slices.SortFunc(rows, func(a, b *JobRow) int { return a.Seq - b.Seq })

	return rows
}

// renderRow renders one running job with its last output line.
func (m *Model) renderRow(r *JobRow) string {
	where := r.Host
	if r.Slot > 0 {
		where = fmt.Sprintf("%s:%d", r.Host, r.Slot)
	}

	left := fmt.Sprintf("  #%d [%s] %s", r.Seq+1, where, r.Command)
	if !r.StartTime.IsZero() {
		left += fmt.Sprintf(" (%v)", time.Since(r.StartTime).Round(jobDurationRounding))
	}

	var right string

	switch {
	case r.Status == StatusRetrying:
		right = m.styles.Retry.Render(fmt.Sprintf("retry %d", r.Attempt))
	case r.LastOutput != "":
		right = m.styles.Output.Render(r.LastOutput)
	}

	half := max(m.width/2, len(ellipsis)+1) // nolint:mnd
	left = ansi.Truncate(left, half, ellipsis)

	if right == "" {
		return left
	}

	pad := max(half-ansi.StringWidth(left), 1)

	return left + strings.Repeat(" ", pad) + ansi.Truncate(right, max(m.width-half-1, len(ellipsis)+1), ellipsis)
}

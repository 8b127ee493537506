// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package collector

import (
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/spread/internal/color"
)

// OutputOptions controls what is included in the text rendering of saved results.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include stdout in the output
	IncludeStdErr      bool // Whether to include stderr in the output
	ShowSuccessDetails bool // Whether to show details for successful jobs
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
	}
}

// WriteText writes one status line per job, with the output of failed jobs below it.
func (r SavedResults) WriteText(w io.Writer, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, s := range r {
		if err := writeSavedResult(w, s, options); err != nil {
			return err
		}
	}

	return nil
}

func writeSavedResult(w io.Writer, s *SavedResult, options *OutputOptions) error {
	var statusStr, labelPrefix string

	switch {
	case s.Skipped:
		statusStr = color.Colorize("~", color.FgYellow)
		labelPrefix = color.ControlString(color.Bold, color.FgYellow)
	case s.Succeeded():
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	default:
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	}

	if _, err := fmt.Fprintf(
		w,
		"%s %sjob %d%s %s",
		statusStr,
		labelPrefix,
		s.Seq+1,
		color.ControlString(color.Reset),
		s.Command,
	); err != nil {
		return err
	}

	if s.Host != "" {
		fmt.Fprintf(w, " [%s]", s.Host) // nolint:errcheck
	}

	if s.ExitCode != 0 {
		fmt.Fprintf(w, " (exit code: %d)", s.ExitCode) // nolint:errcheck
	}

	if s.Signal != "" {
		fmt.Fprintf(w, " (signal: %s)", s.Signal) // nolint:errcheck
	}

	fmt.Fprintln(w) // nolint:errcheck

	if s.Error != "" {
		fmt.Fprintf( // nolint:errcheck
			w,
			"  %s %s%s\n",
			color.ColorizeNoReset("➜ Error:", color.FgRed),
			s.Error,
			color.ControlString(color.Reset),
		)
	}

	showDetails := !s.Succeeded() || options.ShowSuccessDetails

	if showDetails && options.IncludeStdOut && len(s.Stdout) > 0 {
		fmt.Fprintf(w, "  ➜ Output:\n%s", formatOutput(s.Stdout, "     ")) // nolint:errcheck
	}

	if showDetails && options.IncludeStdErr && len(s.Stderr) > 0 {
		fmt.Fprintf(w, "  %s\n%s", color.Colorize("➜ Error Output:", color.FgHiRed), formatOutput(s.Stderr, "     ")) // nolint:errcheck
	}

	return nil
}

// formatOutput indents every non-empty line of output.
func formatOutput(output []byte, indent string) string {
	sb := strings.Builder{}
	lines := strings.Split(strings.TrimSuffix(string(output), "\n"), "\n")
	sb.Grow(len(output) + len(lines)*(len(indent)+1))

	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

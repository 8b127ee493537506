// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"strings"

	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/matt-FFFFFF/spread/internal/scheduler"
	"github.com/peterh/liner"
)

// ErrPrompt is returned when the confirmation prompt fails or is aborted.
var ErrPrompt = errors.New("confirmation prompt failed")

// prompter reads one answer from the terminal, liner.State satisfies it.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// confirmWith asks before every job. Anything starting with y runs the job.
// Aborting the prompt stops dispatch.
func confirmWith(p prompter) scheduler.ConfirmFunc {
	return func(_ context.Context, spec *job.Spec) (bool, error) {
		answer, err := p.Prompt(spec.Command + " ?...")
		if err != nil {
			return false, errors.Join(ErrPrompt, err)
		}

		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y"), nil
	}
}

// newPrompt opens the terminal for the interactive prompt.
func newPrompt() (*liner.State, func()) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	return line, func() {
		_ = line.Close()
	}
}

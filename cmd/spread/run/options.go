// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/matt-FFFFFF/spread/internal/input"
	"github.com/urfave/cli/v3"
)

const trcTransfer = "{}"

var (
	// ErrInteractiveStdin is returned when the interactive prompt would compete with stdin input.
	ErrInteractiveStdin = errors.New("--interactive cannot be used while arguments are read from stdin")
	// ErrInteractiveBar is returned when the prompt and the progress display are both requested.
	ErrInteractiveBar = errors.New("--interactive cannot be combined with --bar")
	// ErrInvalidCancelPolicy is returned for an unknown --cancel-policy.
	ErrInvalidCancelPolicy = errors.New("invalid cancel policy")
)

// options is the resolved configuration of a run: flags, with profile values
// filling in the flags that were not given.
type options struct {
	jobs         string
	maxArgs      int
	keepOrder    bool
	tag          bool
	dryRun       bool
	sshLogins    []string
	sshLoginFile string
	ssh          string
	transfer     string
	ret          string
	cleanup      bool
	retries      int
	timeout      time.Duration
	argFiles     []string
	ranges       []string
	files        []string
	delimiter    string
	colsep       string
	header       bool
	noQuote      bool
	shell        string
	envFile      string
	jobLog       string
	results      string
	out          string
	bar          bool
	interactive  bool
	cancelPolicy string
}

// pick returns the profile value when the flag was not set on the command line
// and the profile has a value for it.
func pick[T comparable](cmd *cli.Command, name string, flagValue, profileValue T) T {
	var zero T
	if cmd.IsSet(name) || profileValue == zero {
		return flagValue
	}

	return profileValue
}

// newOptions reads the flags of cmd. p may be nil.
func newOptions(cmd *cli.Command, p *config.Profile) (*options, error) {
	if p == nil {
		p = &config.Profile{}
	}

	o := &options{
		jobs:         pick(cmd, jobsFlag, cmd.String(jobsFlag), p.Jobs),
		maxArgs:      pick(cmd, maxArgsFlag, cmd.Int(maxArgsFlag), p.MaxArgs),
		keepOrder:    pick(cmd, keepOrderFlag, cmd.Bool(keepOrderFlag), p.KeepOrder),
		tag:          pick(cmd, tagFlag, cmd.Bool(tagFlag), p.Tag),
		dryRun:       cmd.Bool(dryRunFlag),
		sshLogins:    cmd.StringSlice(sshLoginFlag),
		sshLoginFile: pick(cmd, sshLoginFileFlag, cmd.String(sshLoginFileFlag), p.SSHLoginFile),
		ssh:          pick(cmd, sshFlag, cmd.String(sshFlag), p.SSH),
		transfer:     pick(cmd, transferFlag, cmd.String(transferFlag), p.Transfer),
		ret:          pick(cmd, returnFlag, cmd.String(returnFlag), p.Return),
		cleanup:      pick(cmd, cleanupFlag, cmd.Bool(cleanupFlag), p.Cleanup),
		retries:      pick(cmd, retriesFlag, cmd.Int(retriesFlag), p.Retries),
		timeout:      pick(cmd, timeoutFlag, cmd.Duration(timeoutFlag), p.TimeoutDuration()),
		argFiles:     cmd.StringSlice(argFileFlag),
		ranges:       cmd.StringSlice(rangeFlag),
		files:        cmd.StringSlice(filesFlag),
		delimiter:    unescape(cmd.String(delimiterFlag)),
		colsep:       unescape(cmd.String(colsepFlag)),
		header:       cmd.Bool(headerFlag),
		noQuote:      cmd.Bool(noQuoteFlag),
		shell:        pick(cmd, shellFlag, cmd.String(shellFlag), p.Shell),
		envFile:      pick(cmd, envFileFlag, cmd.String(envFileFlag), p.EnvFile),
		jobLog:       pick(cmd, jobLogFlag, cmd.String(jobLogFlag), p.JobLog),
		results:      pick(cmd, resultsFlag, cmd.String(resultsFlag), p.Results),
		out:          cmd.String(outFlag),
		bar:          cmd.Bool(barFlag),
		interactive:  cmd.Bool(interactiveFlag),
		cancelPolicy: pick(cmd, cancelPolicyFlag, cmd.String(cancelPolicyFlag), p.CancelPolicy),
	}

	if !cmd.IsSet(sshLoginFlag) && len(p.SSHLogins) > 0 {
		o.sshLogins = p.SSHLogins
	}

	if cmd.Bool(nullFlag) {
		o.delimiter = input.NullDelimiter
	}

	if trc := cmd.String(trcFlag); trc != "" {
		o.transfer = trcTransfer
		o.ret = trc
		o.cleanup = true
	}

	switch o.cancelPolicy {
	case config.CancelPolicyTerminate, config.CancelPolicyWait:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCancelPolicy, o.cancelPolicy)
	}

	if o.interactive && o.bar {
		return nil, ErrInteractiveBar
	}

	return o, nil
}

// remote reports whether any job may leave this machine.
func (o *options) remote() bool {
	return len(o.sshLogins) > 0 || o.sshLoginFile != ""
}

// unescape turns "\t" or "\n" given on the command line into the character.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	u, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return s
	}

	return u
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run command, which renders a command for every
// input item and runs the jobs locally or on remote hosts.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/spread/internal/backend"
	"github.com/matt-FFFFFF/spread/internal/cmdtemplate"
	"github.com/matt-FFFFFF/spread/internal/collector"
	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/matt-FFFFFF/spread/internal/input"
	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/matt-FFFFFF/spread/internal/progress"
	"github.com/matt-FFFFFF/spread/internal/scheduler"
	"github.com/matt-FFFFFF/spread/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	jobsFlag         = "jobs"
	maxArgsFlag      = "max-args"
	keepOrderFlag    = "keep-order"
	tagFlag          = "tag"
	dryRunFlag       = "dry-run"
	sshLoginFlag     = "sshlogin"
	sshLoginFileFlag = "sshloginfile"
	sshFlag          = "ssh"
	transferFlag     = "transfer"
	returnFlag       = "return"
	cleanupFlag      = "cleanup"
	trcFlag          = "trc"
	retriesFlag      = "retries"
	timeoutFlag      = "timeout"
	argFileFlag      = "arg-file"
	rangeFlag        = "range"
	filesFlag        = "files"
	delimiterFlag    = "delimiter"
	nullFlag         = "null"
	colsepFlag       = "colsep"
	headerFlag       = "header"
	noQuoteFlag      = "no-quote"
	shellFlag        = "shell"
	envFileFlag      = "env-file"
	jobLogFlag       = "joblog"
	resultsFlag      = "results"
	outFlag          = "out"
	barFlag          = "bar"
	interactiveFlag  = "interactive"
	cancelPolicyFlag = "cancel-policy"
	configFlag       = "config"

	categoryInput  = "Input"
	categoryOutput = "Output"
	categoryRemote = "Remote hosts"
)

// ErrReadInput is returned when the input stops with an error part way through the run.
var ErrReadInput = errors.New("failed to read input")

const description = `Run a command once for every input item, several at a time.

The command is everything before the first ::: or ::::. Items come from the
arguments after ::: , from the files named after :::: , from --arg-file, --range
or --files, and from stdin when none of these is given. Several lists are
combined, every item of one list with every item of the next.

Placeholders in the command are replaced for every job:

  {}    the item           {.}   the item without extension
  {/}   the basename       {//}  the directory
  {/.}  basename without extension
  {#}   the job number     {%}   the slot number
  {n}   field n of the item ({1}, {2}, ... with --colsep or several lists)
  {name} the field named in the --header line

A command without placeholders gets the items appended. Items are shell-quoted
unless --no-quote is given.

Put -- before the command when the command itself takes options:

  spread run -j 4 -- grep -c TODO ::: *.go

Profiles given with --config use Hashicorp's go-getter syntax, see
https://github.com/hashicorp/go-getter. Flags on the command line win over
profile values.`

// RunCmd is the command that runs a command template over the input.
var RunCmd = NewCommand()

// NewCommand returns a new run command. Flag state lives in the command, so
// every invocation in the same process needs its own.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:        "run",
		Usage:       "Run a command for every input item",
		Description: description,
		ArgsUsage:   "[--] COMMAND... [::: ARGS...] [:::: ARGFILES...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    jobsFlag,
				Aliases: []string{"j"},
				Usage: "Jobs per host: N, +N or -N relative to the core count, N% of the cores, " +
					"or 0 or unbounded for no limit",
				Value:       "100%",
				DefaultText: "one per core",
				OnlyOnce:    true,
			},
			&cli.IntFlag{
				Name:     maxArgsFlag,
				Aliases:  []string{"n"},
				Usage:    "Use up to N items per job, 0 runs the command without items",
				Value:    1,
				Category: categoryInput,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     keepOrderFlag,
				Aliases:  []string{"k"},
				Usage:    "Print job output in input order instead of completion order",
				Category: categoryOutput,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     tagFlag,
				Usage:    "Prefix every output line with the job's items and a tab",
				Category: categoryOutput,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     dryRunFlag,
				Usage:    "Print the commands instead of running them",
				OnlyOnce: true,
			},
			&cli.StringSliceFlag{
				Name:     sshLoginFlag,
				Aliases:  []string{"S"},
				Usage:    "Run jobs on [N/][user@]host, : is this machine. Repeat or separate with commas",
				Category: categoryRemote,
			},
			&cli.StringFlag{
				Name:      sshLoginFileFlag,
				Usage:     "Read hosts from a file or go-getter URL, one per line",
				TakesFile: true,
				Category:  categoryRemote,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:     sshFlag,
				Usage:    "ssh client used to reach remote hosts",
				Value:    "ssh",
				Category: categoryRemote,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     transferFlag,
				Usage:    "Copy the files named by this template to the remote host before the job",
				Category: categoryRemote,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     returnFlag,
				Usage:    "Copy the files named by this template back from the remote host after the job",
				Category: categoryRemote,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     cleanupFlag,
				Usage:    "Remove the remote staging directory after the job",
				Category: categoryRemote,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     trcFlag,
				Usage:    "Shorthand for --transfer {} --return TEMPLATE --cleanup",
				Category: categoryRemote,
				OnlyOnce: true,
			},
			&cli.IntFlag{
				Name:     retriesFlag,
				Usage:    "Retry a job up to N times when the remote host cannot be reached",
				Category: categoryRemote,
				OnlyOnce: true,
			},
			&cli.DurationFlag{
				Name:     timeoutFlag,
				Usage:    "Terminate jobs running longer than this, e.g. 30s or 5m",
				OnlyOnce: true,
			},
			&cli.StringSliceFlag{
				Name:      argFileFlag,
				Aliases:   []string{"a"},
				Usage:     "Read items from a file, - for stdin. Repeat to combine files",
				TakesFile: true,
				Category:  categoryInput,
			},
			&cli.StringSliceFlag{
				Name:     rangeFlag,
				Usage:    "Use the numbers FROM..TO or FROM..TO..STEP as items",
				Category: categoryInput,
			},
			&cli.StringSliceFlag{
				Name:     filesFlag,
				Usage:    "Use the files matching a glob pattern as items",
				Category: categoryInput,
			},
			&cli.StringFlag{
				Name:     delimiterFlag,
				Aliases:  []string{"d"},
				Usage:    `Items are separated by this string, escapes such as \t are understood`,
				Value:       input.DefaultDelimiter,
				DefaultText: `\n`,
				Category:    categoryInput,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     nullFlag,
				Aliases:  []string{"z"},
				Usage:    "Items are separated by NUL characters, as printed by find -print0",
				Category: categoryInput,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     colsepFlag,
				Usage:    "Split items into fields on this regular expression",
				Category: categoryInput,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     headerFlag,
				Usage:    "The first item names the fields, for {name} placeholders",
				Category: categoryInput,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     noQuoteFlag,
				Usage:    "Substitute items verbatim instead of shell-quoting them",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     shellFlag,
				Usage:    "Shell running local jobs, defaults to $SHELL",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      envFileFlag,
				Usage:     "Add the variables of a dotenv file to the environment of local jobs",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      jobLogFlag,
				Usage:     "Write a tab-separated line per finished job to this file",
				TakesFile: true,
				Category:  categoryOutput,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      resultsFlag,
				Usage:     "Store stdout, stderr and exit value of every job under DIR/<job number>/",
				TakesFile: true,
				Category:  categoryOutput,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      outFlag,
				Usage:     "Save the results to a file that spread show can display",
				TakesFile: true,
				Category:  categoryOutput,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:     barFlag,
				Usage:    "Show a progress display on stderr",
				Category: categoryOutput,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     interactiveFlag,
				Aliases:  []string{"p"},
				Usage:    "Ask before running every job",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name: cancelPolicyFlag,
				Usage: "On the second interrupt, terminate running jobs, or wait for them. " +
					"The first interrupt always stops starting new jobs",
				Value:    config.CancelPolicyTerminate,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      configFlag,
				Aliases:   []string{"c"},
				Usage:     "Read default flag values from a YAML or HCL profile, a file or go-getter URL",
				TakesFile: true,
				OnlyOnce:  true,
			},
		},
		Action: actionFunc,
	}
}

// fatal reports an error that stops the run before or outside of the jobs.
func fatal(err error) error {
	return cli.Exit(err.Error(), collector.ExitCodeFatal)
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	var profile *config.Profile

	if url := cmd.String(configFlag); url != "" {
		p, err := config.Load(ctx, url, hosts.NumCPU())
		if err != nil {
			return fatal(err)
		}

		profile = p
	}

	o, err := newOptions(cmd, profile)
	if err != nil {
		return fatal(err)
	}

	command, lists, err := splitArgs(cmd.Args().Slice())
	if err != nil {
		return fatal(err)
	}

	if o.interactive && readsStdin(o, lists) {
		return fatal(ErrInteractiveStdin)
	}

	r := &runner{
		opts:   o,
		stdin:  cmd.Root().Reader,
		stdout: cmd.Root().Writer,
		stderr: cmd.Root().ErrWriter,
	}

	return r.run(ctx, strings.Join(command, " "), lists)
}

// runner holds the state of one run.
type runner struct {
	opts   *options
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (r *runner) run(ctx context.Context, command string, lists []argList) error {
	o := r.opts

	var tmplOpts []cmdtemplate.Option
	if o.noQuote {
		tmplOpts = append(tmplOpts, cmdtemplate.WithoutQuoting())
	}

	tmpl, err := cmdtemplate.Parse(command, tmplOpts...)
	if err != nil {
		return fatal(err)
	}

	capacity, err := hosts.ParseCapacity(o.jobs)
	if err != nil {
		return fatal(err)
	}

	roster, err := config.LoadRoster(ctx, o.sshLoginFile, o.sshLogins)
	if err != nil {
		return fatal(err)
	}

	transport := &backend.SSHTransport{SSH: o.ssh}

	// a dry run contacts no host
	var prober hosts.Prober = transport
	if o.dryRun {
		prober = hosts.NoProbe{}
	}

	allocs, err := hosts.Resolve(ctx, roster, capacity, prober)
	if err != nil {
		return fatal(err)
	}

	srcs, closeSources, err := sources(ctx, o, lists, r.stdin)
	if err != nil {
		return fatal(err)
	}

	defer closeSources()

	var tokOpts []input.TokenizerOption

	tokOpts = append(tokOpts, input.WithColumnSeparator(o.colsep))
	if o.header {
		tokOpts = append(tokOpts, input.WithHeader())
	}

	tok, err := input.NewTokenizer(input.Product(srcs...), tokOpts...)
	if err != nil {
		return fatal(err)
	}

	groups, err := input.NewGrouper(tok, o.maxArgs)
	if err != nil {
		return fatal(err)
	}

	var (
		reporter  = progress.NewNullReporter()
		jobStderr = r.stderr
		held      *tui.LogBuffer
		display   *tui.Runner
	)

	if o.bar {
		held = &tui.LogBuffer{}
		ctx = ctxlog.New(ctx, ctxlog.NewForTUI(held))
		jobStderr = held
		display = tui.NewRunner(groups.Len(), r.stderr)
		reporter = display.Reporter()
	}

	backendFor, err := backends(ctx, o, transport, reporter)
	if err != nil {
		return fatal(err)
	}

	coll, closeOut, err := r.collector(ctx, jobStderr)
	if err != nil {
		return fatal(err)
	}

	defer closeOut()

	schedOpts := []scheduler.Option{
		scheduler.WithRetries(o.retries),
		scheduler.WithReporter(reporter),
	}

	if o.dryRun {
		schedOpts = append(schedOpts, scheduler.WithDryRun())
	}

	if o.keepOrder {
		schedOpts = append(schedOpts, scheduler.WithOrderedWindow(coll.NextSeq))
	}

	if o.cancelPolicy == config.CancelPolicyWait {
		schedOpts = append(schedOpts, scheduler.WithWaitOnCancel())
	}

	if o.interactive {
		line, closeLine := newPrompt()
		defer closeLine()

		schedOpts = append(schedOpts, scheduler.WithConfirm(confirmWith(line)))
	}

	sched, err := scheduler.New(allocs, backendFor, schedOpts...)
	if err != nil {
		return fatal(err)
	}

	ctxlog.Debug(ctx, "starting run", "slots", hosts.Total(allocs), "hosts", len(allocs), "template", tmpl.String())

	producerCtx, stopProducer := context.WithCancel(ctx)
	producer := job.NewProducer(groups, tmpl)

	if display != nil {
		display.Start()
	}

	stats := sched.Run(ctx, producer.Start(producerCtx), coll.Collect)

	stopProducer()

	if display != nil {
		if err := display.Stop(); err != nil {
			ctxlog.Debug(ctx, "progress display stopped with error", "error", err)
		}

		_, _ = held.WriteTo(r.stderr)
	}

	summary, closeErr := coll.Close()

	ctxlog.Info(ctx, "run finished",
		"jobs", summary.Jobs, "succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)

	switch {
	case closeErr != nil:
		return fatal(closeErr)
	case stats.Cancelled || ctx.Err() != nil:
		return cli.Exit(fmt.Sprintf("run stopped, %d jobs finished", summary.Jobs), collector.ExitCodeFatal)
	}

	// the input channel was closed, so the producer has stopped
	if err := producer.Err(); err != nil {
		return fatal(errors.Join(ErrReadInput, err))
	}

	if code := summary.ExitCode(); code != 0 {
		return cli.Exit("", code)
	}

	return nil
}

// collector creates the result collector with the requested outputs. The
// returned function closes the saved results file.
func (r *runner) collector(ctx context.Context, jobStderr io.Writer) (*collector.Collector, func(), error) {
	o := r.opts
	fs := config.FsFactory()
	closeOut := func() {}

	opts := []collector.Option{collector.WithFs(fs)}

	if o.keepOrder {
		opts = append(opts, collector.WithMode(collector.InputOrder))
	}

	if o.tag {
		opts = append(opts, collector.WithTag())
	}

	if o.jobLog != "" {
		opts = append(opts, collector.WithJobLog(o.jobLog))
	}

	if o.results != "" {
		opts = append(opts, collector.WithResultsDir(o.results))
	}

	if o.out != "" {
		f, err := fs.Create(o.out)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file %s: %w", o.out, err)
		}

		closeOut = func() { _ = f.Close() }

		opts = append(opts, collector.WithSaveTo(f))
	}

	c, err := collector.New(ctx, r.stdout, jobStderr, opts...)
	if err != nil {
		closeOut()
		return nil, nil, err
	}

	return c, closeOut, nil
}

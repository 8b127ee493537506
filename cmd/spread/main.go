// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the spread command-line interface (CLI).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/spread"
	"github.com/matt-FFFFFF/spread/cmd/spread/hosts"
	"github.com/matt-FFFFFF/spread/cmd/spread/run"
	"github.com/matt-FFFFFF/spread/cmd/spread/schema"
	"github.com/matt-FFFFFF/spread/cmd/spread/show"
	"github.com/matt-FFFFFF/spread/internal/collector"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		hosts.HostsCmd,
		show.ShowCmd,
		schema.SchemaCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "spread",
	Description: `Spread runs a command once for every input item, many at a time,
on this machine or spread across remote hosts reached with ssh.
Items come from stdin, files, ranges or the command line and are substituted
into the command through placeholders such as {}, {.} and {1}.`,
	Usage:     "seq 10 | spread run -j 4 -- echo {}",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
	// exit codes are decided in main so deferred cleanup runs
	ExitErrHandler: func(context.Context, *cli.Command, error) {},
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	ctx, drain := signalbroker.WithDrain(ctx)

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, drain, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", spread.Version, spread.Commit)

	err := rootCmd.Run(ctx, os.Args)
	code := exitCode(err)

	if msg := errorMessage(err); msg != "" {
		ctxlog.Error(ctx, "command failed", "error", msg)
	}

	cancel()
	os.Exit(code)
}

// exitCode maps the error returned by a command to the process exit status.
// Commands report job failures with cli.Exit; any other error is fatal.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	return collector.ExitCodeFatal
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

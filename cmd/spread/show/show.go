// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the show command, which displays results saved by run --out.
package show

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/spread/internal/collector"
	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/urfave/cli/v3"
)

const (
	fileArg                  = "file"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	exitCodeFailures         = 1
)

var (
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrWriteResults is returned when the results cannot be written to stdout.
	ErrWriteResults = errors.New("failed to write results to stdout")
	// ErrNoFile is returned when no file is given.
	ErrNoFile = errors.New("no results file given")
)

// ShowCmd is the command that shows previously saved results.
var ShowCmd = NewCommand()

// NewCommand returns a new show command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Show results saved with run --out",
		Description: "Show previously saved results. The exit status is 1 when a saved job failed.",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      fileArg,
				UsageText: "FILE",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        outputSuccessDetailsFlag,
				Aliases:     []string{"success"},
				Usage:       "Include the output of successful jobs",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        noOutputStdErrFlag,
				Aliases:     []string{"no-stderr"},
				Usage:       "Exclude stderr output in the results",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        outputStdOutFlag,
				Aliases:     []string{"stdout"},
				Usage:       "Include stdout output in the results",
				DefaultText: "false",
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	name := cmd.StringArg(fileArg)
	if name == "" {
		return ErrNoFile
	}

	file, err := config.FsFactory().Open(name)
	if err != nil {
		return errors.Join(ErrReadFile, err)
	}

	defer file.Close() // nolint:errcheck

	results, err := collector.ReadSaved(file)
	if err != nil {
		return err
	}

	opts := collector.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	if err := results.WriteText(cmd.Root().Writer, opts); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	if results.HasFailure() {
		return cli.Exit("", exitCodeFailures)
	}

	return nil
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hosts implements the hosts command, which prints the resolved host
// roster and the number of jobs every host will run at once.
package hosts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/matt-FFFFFF/spread/internal/backend"
	"github.com/matt-FFFFFF/spread/internal/collector"
	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/urfave/cli/v3"
)

const (
	jobsFlag         = "jobs"
	sshLoginFlag     = "sshlogin"
	sshLoginFileFlag = "sshloginfile"
	sshFlag          = "ssh"
)

// HostsCmd is the command that prints the host roster.
var HostsCmd = NewCommand()

// NewCommand returns a new hosts command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "hosts",
		Usage: "Print the hosts of a run and their slot counts",
		Description: `Resolve the host roster the way run does and print every host with the
number of jobs it runs at once. Remote core counts are probed over ssh when
the job count depends on them.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     jobsFlag,
				Aliases:  []string{"j"},
				Usage:    "Jobs per host, as for run",
				Value:    "100%",
				OnlyOnce: true,
			},
			&cli.StringSliceFlag{
				Name:    sshLoginFlag,
				Aliases: []string{"S"},
				Usage:   "Host as [N/][user@]host, : is this machine",
			},
			&cli.StringFlag{
				Name:      sshLoginFileFlag,
				Usage:     "Read hosts from a file or go-getter URL, one per line",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:     sshFlag,
				Usage:    "ssh client used to reach remote hosts",
				Value:    "ssh",
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	capacity, err := hosts.ParseCapacity(cmd.String(jobsFlag))
	if err != nil {
		return cli.Exit(err.Error(), collector.ExitCodeFatal)
	}

	roster, err := config.LoadRoster(ctx, cmd.String(sshLoginFileFlag), cmd.StringSlice(sshLoginFlag))
	if err != nil {
		return cli.Exit(err.Error(), collector.ExitCodeFatal)
	}

	allocs, err := hosts.Resolve(ctx, roster, capacity, &backend.SSHTransport{SSH: cmd.String(sshFlag)})
	if err != nil {
		return cli.Exit(err.Error(), collector.ExitCodeFatal)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, render(allocs))

	return err
}

// render draws the allocations as a table with a total row.
func render(allocs []hosts.Allocation) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("HOST", "SLOTS", "CORES", "NOTE")

	for _, a := range allocs {
		cores := "-"
		if a.Cores > 0 {
			cores = strconv.Itoa(a.Cores)
		}

		note := ""
		if a.Warning != nil {
			note = a.Warning.Error()
		}

		t.Row(a.Host.String(), slots(a.Slots), cores, note)
	}

	t.Row("total", slots(hosts.Total(allocs)), "", "")

	return t.String()
}

func slots(n int) string {
	if n == hosts.Unlimited {
		return "unbounded"
	}

	return strconv.Itoa(n)
}

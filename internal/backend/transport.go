// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"

	"github.com/matt-FFFFFF/spread/internal/hosts"
)

// Output is what a command run on a remote host left behind.
type Output struct {
	ExitCode int
	Signal   string
	Stdout   []byte
	Stderr   []byte
	Err      error // Set when the command was stopped or its output truncated
}

// Transport moves files to and from a remote host and runs commands on it.
// Failures to reach the host must be reported as *TransportError.
type Transport interface {
	// Mkdir creates a directory and its parents on the host.
	Mkdir(ctx context.Context, h hosts.Host, dir string) error
	// Put copies a local file to the host.
	Put(ctx context.Context, h hosts.Host, local, remote string) error
	// Get copies a file from the host to the local machine.
	Get(ctx context.Context, h hosts.Host, remote, local string) error
	// Run runs a command in dir on the host. A non-zero exit status of the command is not an error.
	Run(ctx context.Context, h hosts.Host, dir, command string) (*Output, error)
	// Remove deletes a file or directory tree on the host.
	Remove(ctx context.Context, h hosts.Host, path string) error
	// ProbeCores returns the number of cores of the host.
	ProbeCores(ctx context.Context, h hosts.Host) (int, error)
}

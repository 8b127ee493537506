// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/hosts"
)

const (
	// sshConnectionFailure is the exit status ssh uses for its own errors.
	sshConnectionFailure = 255
	probeCoresCommand    = "getconf _NPROCESSORS_ONLN 2>/dev/null || nproc"
)

var _ Transport = (*SSHTransport)(nil)

// SSHTransport reaches remote hosts with the ssh and scp clients.
type SSHTransport struct {
	SSH       string   // ssh client, default "ssh"
	SCP       string   // scp client, default "scp"
	Options   []string // Extra options passed to both clients, e.g. "-o", "BatchMode=yes"
	KillGrace time.Duration
}

// Mkdir implements Transport.
func (t *SSHTransport) Mkdir(ctx context.Context, h hosts.Host, dir string) error {
	_, err := t.ssh(ctx, h, "mkdir", "mkdir -p -- "+shellquote.Join(dir))
	return err
}

// Put implements Transport.
func (t *SSHTransport) Put(ctx context.Context, h hosts.Host, local, remote string) error {
	return t.scp(ctx, h, "put", local, h.Address()+":"+shellquote.Join(remote))
}

// Get implements Transport.
func (t *SSHTransport) Get(ctx context.Context, h hosts.Host, remote, local string) error {
	return t.scp(ctx, h, "get", h.Address()+":"+shellquote.Join(remote), local)
}

// Run implements Transport.
func (t *SSHTransport) Run(ctx context.Context, h hosts.Host, dir, command string) (*Output, error) {
	if dir != "" {
		command = "cd " + shellquote.Join(dir) + " && " + command
	}

	return t.ssh(ctx, h, "run", command)
}

// Remove implements Transport.
func (t *SSHTransport) Remove(ctx context.Context, h hosts.Host, path string) error {
	_, err := t.ssh(ctx, h, "remove", "rm -rf -- "+shellquote.Join(path))
	return err
}

// ProbeCores implements Transport and hosts.Prober.
func (t *SSHTransport) ProbeCores(ctx context.Context, h hosts.Host) (int, error) {
	out, err := t.ssh(ctx, h, "probe", probeCoresCommand)
	if err != nil {
		return 0, err
	}

	if out.ExitCode != 0 {
		return 0, &TransportError{Host: h.String(), Op: "probe", Err: fmt.Errorf("exit status %d: %s", out.ExitCode, strings.TrimSpace(string(out.Stderr)))}
	}

	n, err := strconv.Atoi(strings.TrimSpace(string(out.Stdout)))
	if err != nil {
		return 0, &TransportError{Host: h.String(), Op: "probe", Err: err}
	}

	return n, nil
}

// ssh runs command on the host. Commands other than "run" must exit zero.
func (t *SSHTransport) ssh(ctx context.Context, h hosts.Host, op, command string) (*Output, error) {
	args := slices.Concat(t.Options, []string{h.Address(), "--", command})

	out, err := t.exec(ctx, h, op, t.client(t.SSH, "ssh"), args)
	if err != nil {
		return nil, err
	}

	if op != "run" && op != "probe" && out.ExitCode != 0 {
		return nil, &TransportError{Host: h.String(), Op: op, Err: fmt.Errorf("exit status %d: %s", out.ExitCode, strings.TrimSpace(string(out.Stderr)))}
	}

	return out, nil
}

func (t *SSHTransport) scp(ctx context.Context, h hosts.Host, op, from, to string) error {
	args := slices.Concat([]string{"-q"}, t.Options, []string{from, to})

	out, err := t.exec(ctx, h, op, t.client(t.SCP, "scp"), args)
	if err != nil {
		return err
	}

	if out.ExitCode != 0 {
		return &TransportError{Host: h.String(), Op: op, Err: fmt.Errorf("exit status %d: %s", out.ExitCode, strings.TrimSpace(string(out.Stderr)))}
	}

	return nil
}

// exec runs a transport client. Failing to start the client, or the client
// reporting a connection failure, is a *TransportError.
func (t *SSHTransport) exec(ctx context.Context, h hosts.Host, op, client string, args []string) (*Output, error) {
	path, err := exec.LookPath(client)
	if err != nil {
		return nil, &TransportError{Host: h.String(), Op: op, Err: err}
	}

	ctxlog.Debug(ctx, "transport", "op", op, "host", h.String(), "client", path, "args", args)

	p := &process{
		Path:      path,
		Args:      args,
		Env:       os.Environ(),
		KillGrace: t.KillGrace,
	}

	pr := p.run(ctx)
	if !pr.Started {
		return nil, &TransportError{Host: h.String(), Op: op, Err: pr.Err}
	}

	if pr.ExitCode == sshConnectionFailure {
		msg := strings.TrimSpace(string(pr.Stderr))
		if msg == "" {
			msg = "connection failed"
		}

		return nil, &TransportError{Host: h.String(), Op: op, Err: errors.New(msg)}
	}

	return &Output{
		ExitCode: pr.ExitCode,
		Signal:   pr.Signal,
		Stdout:   pr.Stdout,
		Stderr:   pr.Stderr,
		Err:      pr.Err,
	}, nil
}

func (t *SSHTransport) client(configured, fallback string) string {
	if configured != "" {
		return configured
	}

	return fallback
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/spread/internal/backend"
	"github.com/matt-FFFFFF/spread/internal/cmdtemplate"
	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/matt-FFFFFF/spread/internal/progress"
	"github.com/matt-FFFFFF/spread/internal/scheduler"
)

// ErrFileTemplate is returned when a --transfer or --return template cannot be parsed.
var ErrFileTemplate = errors.New("invalid file template")

// backends builds the local and remote backends and returns the function
// choosing between them for a host.
func backends(ctx context.Context, o *options, transport backend.Transport, reporter progress.Reporter) (scheduler.BackendFor, error) {
	local := &backend.Local{
		Timeout:  o.timeout,
		Reporter: reporter,
	}

	if o.shell != "" {
		shell, err := backend.LookupShell(o.shell)
		if err != nil {
			return nil, err
		}

		local.Shell = shell
	}

	if o.envFile != "" {
		env, err := config.LoadEnvFile(o.envFile)
		if err != nil {
			return nil, err
		}

		local.Env = env
	}

	remote := &backend.Remote{
		Transport: transport,
		Cleanup:   o.cleanup,
		Timeout:   o.timeout,
	}

	var err error

	if remote.Transfer, err = fileTemplate(o.transfer, o.noQuote); err != nil {
		return nil, err
	}

	if remote.Return, err = fileTemplate(o.ret, o.noQuote); err != nil {
		return nil, err
	}

	if !o.remote() && (o.transfer != "" || o.ret != "" || o.cleanup) {
		ctxlog.Warn(ctx, "--transfer, --return and --cleanup only apply to remote hosts")
	}

	return func(h hosts.Host) backend.Backend {
		if h.IsLocal() {
			return local
		}

		return remote
	}, nil
}

func fileTemplate(source string, noQuote bool) (*cmdtemplate.Template, error) {
	if source == "" {
		return nil, nil
	}

	var opts []cmdtemplate.Option
	if noQuote {
		opts = append(opts, cmdtemplate.WithoutQuoting())
	}

	t, err := cmdtemplate.Parse(source, opts...)
	if err != nil {
		return nil, errors.Join(ErrFileTemplate, err)
	}

	return t, nil
}

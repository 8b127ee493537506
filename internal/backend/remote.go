// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/spread/internal/cmdtemplate"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/job"
)

const (
	// StagingRoot is the directory, relative to the remote home directory,
	// that holds the per-job staging directories.
	StagingRoot    = ".spread"
	cleanupTimeout = 30 * time.Second
)

var _ Backend = (*Remote)(nil)

// Remote runs jobs on another host through a Transport.
//
// Every job gets its own staging directory, StagingRoot/<uuid>, which is the
// working directory of the command. Transfer, Return and Cleanup can each be
// enabled on their own.
type Remote struct {
	Transport Transport
	// Transfer names the local files to copy into the staging directory, nil for none.
	// Relative paths keep their directory structure, absolute paths are placed by basename.
	Transfer *cmdtemplate.Template
	// Return names the files, relative to the staging directory, to copy back after the command ran.
	Return *cmdtemplate.Template
	// ReturnDir is the local directory returned files are written to, empty for the current directory.
	ReturnDir string
	// Cleanup removes the staging directory after the job, whatever happened to it.
	Cleanup bool
	Timeout time.Duration
	// NewID returns the name of a staging directory. It defaults to a random UUID.
	NewID func() string
}

// Submit implements Backend. Failures to stage or run are returned as *TransportError.
// Failures to retrieve a returned file are kept in the Err of the result.
func (r *Remote) Submit(ctx context.Context, spec *job.Spec, slot job.Slot) (res *job.Result, err error) {
	h := slot.Host
	command := spec.CommandFor(slot)
	values := spec.Values(slot)
	dir := path.Join(StagingRoot, r.newID())
	logger := ctxlog.Logger(ctx).With("seq", spec.Seq+1, "host", h.String(), "dir", dir)

	if r.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if err := r.Transport.Mkdir(ctx, h, dir); err != nil {
		return nil, err
	}

	if r.Cleanup {
		defer func() {
			// cleanup must run even when the run has been cancelled
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
			defer cancel()

			if rmErr := r.Transport.Remove(cctx, h, dir); rmErr != nil {
				logger.Warn("remote cleanup failed", "error", rmErr)

				if res != nil {
					res.Err = errors.Join(res.Err, rmErr)
				}

				return
			}

			logger.Debug("remote staging directory removed")
		}()
	}

	if r.Transfer != nil {
		files, err := r.Transfer.RenderList(values)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			remote := stagedPath(dir, f)
			if d := path.Dir(remote); d != dir {
				if err := r.Transport.Mkdir(ctx, h, d); err != nil {
					return nil, err
				}
			}

			logger.Debug("transferring file", "local", f, "remote", remote)

			if err := r.Transport.Put(ctx, h, f, remote); err != nil {
				return nil, err
			}
		}
	}

	start := time.Now()

	out, err := r.Transport.Run(ctx, h, dir, command)
	if err != nil {
		return nil, err
	}

	res = &job.Result{
		Seq:      spec.Seq,
		Args:     spec.Args,
		Command:  command,
		Host:     h,
		Slot:     slot.ID,
		ExitCode: out.ExitCode,
		Signal:   out.Signal,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Err:      out.Err,
		Start:    start,
		Duration: time.Since(start),
	}

	// the command has run, so a file that cannot be returned fails the job
	// without discarding its output, and the job is not run again
	if r.Return != nil && ctx.Err() == nil {
		files, err := r.Return.RenderList(values)
		if err != nil {
			res.Err = errors.Join(res.Err, err)
			return res, nil
		}

		for _, f := range files {
			local := filepath.Join(r.ReturnDir, filepath.FromSlash(f))
			logger.Debug("returning file", "remote", path.Join(dir, f), "local", local)

			if err := r.Transport.Get(ctx, h, path.Join(dir, f), local); err != nil {
				logger.Warn("returning file failed", "remote", path.Join(dir, f), "error", err)
				res.Err = errors.Join(res.Err, fmt.Errorf("return %s: %w", f, err))
			}
		}
	}

	return res, nil
}

func (r *Remote) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}

	return uuid.NewString()
}

// stagedPath returns where a transferred local file is placed in the staging directory.
func stagedPath(dir, local string) string {
	slashed := filepath.ToSlash(local)
	if filepath.IsAbs(local) || path.IsAbs(slashed) {
		return path.Join(dir, path.Base(slashed))
	}

	staged := path.Join(dir, slashed)
	if !strings.HasPrefix(staged, dir+"/") {
		return path.Join(dir, path.Base(slashed))
	}

	return staged
}

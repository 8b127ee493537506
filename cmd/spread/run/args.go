// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/matt-FFFFFF/spread/internal/input"
)

const (
	argsSeparator     = ":::"
	argFilesSeparator = "::::"
	stdinName         = "-"
)

var (
	// ErrNoCommand is returned when no command template was given.
	ErrNoCommand = errors.New("no command given")
	// ErrEmptyArgumentList is returned for a ::: or :::: without arguments.
	ErrEmptyArgumentList = errors.New("argument separator without arguments")
	// ErrOpenArgFile is returned when an argument file cannot be opened.
	ErrOpenArgFile = errors.New("failed to open argument file")
)

// argList is the arguments following one ::: or :::: separator.
type argList struct {
	files bool // :::: names files to read arguments from
	items []string
}

// splitArgs separates the command template from the argument lists on the command line.
func splitArgs(args []string) ([]string, []argList, error) {
	var (
		command []string
		lists   []argList
	)

	for _, a := range args {
		switch {
		case a == argsSeparator || a == argFilesSeparator:
			if n := len(lists); n > 0 && len(lists[n-1].items) == 0 {
				return nil, nil, fmt.Errorf("%w: %s", ErrEmptyArgumentList, a)
			}

			lists = append(lists, argList{files: a == argFilesSeparator})
		case len(lists) > 0:
			lists[len(lists)-1].items = append(lists[len(lists)-1].items, a)
		default:
			command = append(command, a)
		}
	}

	if len(command) == 0 {
		return nil, nil, ErrNoCommand
	}

	if n := len(lists); n > 0 && len(lists[n-1].items) == 0 {
		return nil, nil, ErrEmptyArgumentList
	}

	return command, lists, nil
}

// sources opens the input sources of the run. Flag sources come first, in the
// order arg files, ranges, file globs, followed by the command line lists.
// Without any source, stdin is read. The returned closer closes opened files.
func sources(ctx context.Context, o *options, lists []argList, stdin io.Reader) ([]input.Source, func(), error) {
	var (
		srcs    []input.Source
		closers []io.Closer
	)

	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	openFile := func(name string) error {
		if name == stdinName {
			s, err := input.NewReaderSource(stdin, o.delimiter)
			if err != nil {
				return err
			}

			srcs = append(srcs, s)

			return nil
		}

		f, err := config.FsFactory().Open(name)
		if err != nil {
			return errors.Join(ErrOpenArgFile, err)
		}

		closers = append(closers, f)

		s, err := input.NewReaderSource(f, o.delimiter)
		if err != nil {
			return err
		}

		srcs = append(srcs, s)

		return nil
	}

	for _, name := range o.argFiles {
		if err := openFile(name); err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	for _, r := range o.ranges {
		s, err := input.NewRangeSource(r)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		srcs = append(srcs, s)
	}

	if len(o.files) > 0 {
		cwd, err := os.Getwd()
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		s, err := input.NewGlobSource(ctx, config.FsFactory(), cwd, o.files...)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		srcs = append(srcs, s)
	}

	for _, l := range lists {
		if !l.files {
			srcs = append(srcs, input.NewListSource(l.items))
			continue
		}

		for _, name := range l.items {
			if err := openFile(name); err != nil {
				closeAll()
				return nil, nil, err
			}
		}
	}

	if len(srcs) == 0 {
		s, err := input.NewReaderSource(stdin, o.delimiter)
		if err != nil {
			return nil, nil, err
		}

		srcs = append(srcs, s)
	}

	return srcs, closeAll, nil
}

// readsStdin reports whether the arguments come from stdin.
func readsStdin(o *options, lists []argList) bool {
	if len(o.argFiles) == 0 && len(o.ranges) == 0 && len(o.files) == 0 && len(lists) == 0 {
		return true
	}

	for _, l := range lists {
		if l.files && slices.Contains(l.items, stdinName) {
			return true
		}
	}

	return slices.Contains(o.argFiles, stdinName)
}

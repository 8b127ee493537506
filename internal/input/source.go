// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package input

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
)

const (
	// DefaultDelimiter separates records read from a stream.
	DefaultDelimiter = "\n"
	// NullDelimiter separates records produced by find -print0 and friends.
	NullDelimiter = "\x00"

	initialBufferSize = 64 * 1024
	maxRecordSize     = 16 * 1024 * 1024 // 16MB
)

var (
	// ErrReadInput is returned when the underlying stream cannot be read.
	// Unlike MalformedInputError this aborts the run.
	ErrReadInput = errors.New("failed to read input")
	// ErrEmptyDelimiter is returned when an empty delimiter is configured.
	ErrEmptyDelimiter = errors.New("delimiter must not be empty")
	// ErrGlob is returned when a file pattern is invalid or cannot be listed.
	ErrGlob = errors.New("failed to list files")
)

// Source yields input records one at a time.
// Next returns io.EOF once the source is exhausted.
type Source interface {
	Next() (Record, error)
}

// Sized is implemented by sources that know how many records they hold.
type Sized interface {
	Len() int
}

// ReaderSource splits a byte stream into records on a delimiter.
type ReaderSource struct {
	scanner *bufio.Scanner
	trimCR  bool
}

var _ Source = (*ReaderSource)(nil)

// NewReaderSource creates a source that splits r on delim.
// A trailing carriage return is removed when the delimiter is a newline.
func NewReaderSource(r io.Reader, delim string) (*ReaderSource, error) {
	if delim == "" {
		return nil, ErrEmptyDelimiter
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, initialBufferSize), maxRecordSize)
	s.Split(splitOn([]byte(delim)))

	return &ReaderSource{
		scanner: s,
		trimCR:  delim == DefaultDelimiter,
	}, nil
}

// Next implements Source.
func (s *ReaderSource) Next() (Record, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return Record{}, errors.Join(ErrReadInput, err)
		}

		return Record{}, io.EOF
	}

	b := s.scanner.Bytes()
	if s.trimCR {
		b = bytes.TrimSuffix(b, []byte("\r"))
	}

	return NewRecord(string(b)), nil
}

// splitOn returns a bufio.SplitFunc that splits on an arbitrary delimiter.
// A final record without a trailing delimiter is still returned.
func splitOn(delim []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}

		if i := bytes.Index(data, delim); i >= 0 {
			return i + len(delim), data[:i], nil
		}

		if atEOF {
			return len(data), data, nil
		}

		return 0, nil, nil
	}
}

// ListSource yields a fixed list of items, for example the arguments after ':::'.
type ListSource struct {
	items []string
	pos   int
}

var (
	_ Source = (*ListSource)(nil)
	_ Sized  = (*ListSource)(nil)
)

// NewListSource creates a source over the given items.
func NewListSource(items []string) *ListSource {
	return &ListSource{items: slices.Clone(items)}
}

// Next implements Source.
func (s *ListSource) Next() (Record, error) {
	if s.pos >= len(s.items) {
		return Record{}, io.EOF
	}

	s.pos++

	return NewRecord(s.items[s.pos-1]), nil
}

// Len implements Sized.
func (s *ListSource) Len() int {
	return len(s.items)
}

// NewGlobSource lists the files matching each pattern, in pattern order.
// Matches of a single pattern are sorted. Relative patterns are resolved against cwd.
func NewGlobSource(ctx context.Context, fs afero.Fs, cwd string, patterns ...string) (*ListSource, error) {
	var paths []string

	for _, pattern := range patterns {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		search := pattern
		if !filepath.IsAbs(pattern) && cwd != "" {
			search = filepath.Join(cwd, pattern)
		}

		matches, err := afero.Glob(fs, search)
		if err != nil {
			return nil, errors.Join(ErrGlob, fmt.Errorf("pattern %q: %w", pattern, err))
		}

		slices.Sort(matches)

		paths = append(paths, matches...)
	}

	return NewListSource(paths), nil
}

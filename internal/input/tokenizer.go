// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package input

import (
	"errors"
	"fmt"
	"io"
	"regexp"
)

// ErrInvalidColumnSeparator is returned when the column separator is not a valid regular expression.
var ErrInvalidColumnSeparator = errors.New("invalid column separator")

// MalformedInputError is returned for a record that does not match the declared structure.
// It only affects the job the record belongs to.
type MalformedInputError struct {
	Record int    // 1-based record number, the header is record 0
	Want   int    // Number of columns declared by the header
	Got    int    // Number of columns found
	Raw    string // The offending record
}

// Error implements the error interface for MalformedInputError.
func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input record %d: expected %d columns, found %d in %q", e.Record, e.Want, e.Got, e.Raw)
}

// Tokenizer splits records from a source into fields and applies the header.
type Tokenizer struct {
	src       Source
	colsep    *regexp.Regexp
	useHeader bool
	header    Header
	count     int
	started   bool
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer) error

// WithColumnSeparator splits every record on the regular expression sep.
func WithColumnSeparator(sep string) TokenizerOption {
	return func(t *Tokenizer) error {
		if sep == "" {
			return nil
		}

		re, err := regexp.Compile(sep)
		if err != nil {
			return errors.Join(ErrInvalidColumnSeparator, err)
		}

		t.colsep = re

		return nil
	}
}

// WithHeader treats the first record as the column names.
func WithHeader() TokenizerOption {
	return func(t *Tokenizer) error {
		t.useHeader = true
		return nil
	}
}

// NewTokenizer creates a tokenizer reading from src.
func NewTokenizer(src Source, opts ...TokenizerOption) (*Tokenizer, error) {
	t := &Tokenizer{src: src}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Header returns the column names, it is only populated after the first call to Next.
func (t *Tokenizer) Header() Header {
	return t.header
}

// Next returns the next record split into fields.
// A *MalformedInputError is returned together with the record when the record
// does not match the header; any other error is fatal.
func (t *Tokenizer) Next() (Record, error) {
	if !t.started {
		t.started = true

		if t.useHeader {
			first, err := t.src.Next()
			if err != nil {
				return Record{}, err
			}

			t.header = Header(t.split(first).Fields)
		}
	}

	r, err := t.src.Next()
	if err != nil {
		return Record{}, err
	}

	t.count++
	r = t.split(r)

	if t.useHeader && len(r.Fields) != len(t.header) {
		return r, &MalformedInputError{
			Record: t.count,
			Want:   len(t.header),
			Got:    len(r.Fields),
			Raw:    r.Raw,
		}
	}

	return r, nil
}

func (t *Tokenizer) split(r Record) Record {
	if t.colsep == nil {
		return r
	}

	var fields []string
	for _, f := range r.Fields {
		fields = append(fields, t.colsep.Split(f, -1)...)
	}

	return Record{Raw: r.Raw, Fields: fields}
}

// Len reports the number of records the tokenizer will produce, or -1 if unknown.
func (t *Tokenizer) Len() int {
	sized, ok := t.src.(Sized)
	if !ok {
		return -1
	}

	n := sized.Len()
	if n < 0 {
		return -1
	}

	if t.useHeader && n > 0 {
		n--
	}

	return n
}

// isEOF reports whether err marks the end of the input.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

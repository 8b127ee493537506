// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package input

import (
	"errors"
	"fmt"
	"io"
)

// ErrInvalidGroupSize is returned for a negative group size.
var ErrInvalidGroupSize = errors.New("group size must not be negative")

// Grouper bundles consecutive records into argument groups.
//
// A group size of 0 consumes one record per group but passes no arguments,
// which repeats the command once per input item.
// The last group may hold fewer records than the group size.
type Grouper struct {
	tok  *Tokenizer
	size int
	done bool
}

// NewGrouper creates a grouper with the given group size.
func NewGrouper(tok *Tokenizer, size int) (*Grouper, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGroupSize, size)
	}

	return &Grouper{tok: tok, size: size}, nil
}

// Next returns the next group, or io.EOF when the input is exhausted.
// Records that do not match the header mark the group with Err but do not stop the input.
func (g *Grouper) Next() (Group, error) {
	if g.done {
		return Group{}, io.EOF
	}

	want := max(g.size, 1)
	group := Group{}

	for len(group.Records) < want {
		r, err := g.tok.Next()

		var malformed *MalformedInputError

		switch {
		case err == nil:
		case errors.As(err, &malformed):
			group.Err = errors.Join(group.Err, err)
		case isEOF(err):
			g.done = true
		default:
			return Group{}, err
		}

		if g.done {
			break
		}

		group.Records = append(group.Records, r)
	}

	group.Header = g.tok.Header()

	if len(group.Records) == 0 {
		return Group{}, io.EOF
	}

	if g.size == 0 {
		group.Records = nil
	}

	return group, nil
}

// Len returns the number of groups that will be produced, or -1 if unknown.
func (g *Grouper) Len() int {
	n := g.tok.Len()
	if n < 0 || g.size <= 1 {
		return n
	}

	return (n + g.size - 1) / g.size
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package input

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const rangeSeparator = ".."

// ErrInvalidRange is returned when a numeric range cannot be parsed.
var ErrInvalidRange = errors.New("invalid numeric range, expected FROM..TO or FROM..TO..STEP")

// RangeSource yields the integers of an inclusive range.
type RangeSource struct {
	from, to, step int
	next           int
}

var (
	_ Source = (*RangeSource)(nil)
	_ Sized  = (*RangeSource)(nil)
)

// NewRangeSource parses FROM..TO or FROM..TO..STEP.
// The step is always positive, the direction follows FROM and TO.
func NewRangeSource(spec string) (*RangeSource, error) {
	parts := strings.Split(strings.TrimSpace(spec), rangeSeparator)
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, spec)
	}

	nums := make([]int, len(parts))

	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Join(fmt.Errorf("%w: %q", ErrInvalidRange, spec), err)
		}

		nums[i] = n
	}

	step := 1
	if len(nums) == 3 {
		step = nums[2]
	}

	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive in %q", ErrInvalidRange, spec)
	}

	if nums[1] < nums[0] {
		step = -step
	}

	return &RangeSource{
		from: nums[0],
		to:   nums[1],
		step: step,
		next: nums[0],
	}, nil
}

// Next implements Source.
func (s *RangeSource) Next() (Record, error) {
	if (s.step > 0 && s.next > s.to) || (s.step < 0 && s.next < s.to) {
		return Record{}, io.EOF
	}

	n := s.next
	s.next += s.step

	return NewRecord(strconv.Itoa(n)), nil
}

// Len implements Sized.
func (s *RangeSource) Len() int {
	// to-from and step always share a sign, so the quotient is never negative.
	return (s.to-s.from)/s.step + 1
}

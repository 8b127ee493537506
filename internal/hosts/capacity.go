// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hosts

import (
	"fmt"
	"strconv"
	"strings"
)

// Unlimited is the slot count of an unbounded capacity.
const Unlimited = -1

// CapacityKind says how a capacity value relates to the core count of a host.
type CapacityKind int

const (
	// Absolute is a fixed slot count: "4".
	Absolute CapacityKind = iota
	// Relative adds to or subtracts from the core count: "+2", "-1".
	Relative
	// Percent is a share of the core count: "50%".
	Percent
	// Unbounded removes the cap: "0" or "unbounded".
	Unbounded
)

// CapacityConfigurationError is returned at startup for a capacity that cannot be satisfied.
type CapacityConfigurationError struct {
	Value  string
	Reason string
}

// Error implements the error interface for CapacityConfigurationError.
func (e *CapacityConfigurationError) Error() string {
	return fmt.Sprintf("invalid job count %q: %s", e.Value, e.Reason)
}

// Capacity is the slot policy applied to every host without an explicit slot count.
type Capacity struct {
	Kind  CapacityKind
	Value int
	text  string
}

// DefaultCapacity runs one job per core.
var DefaultCapacity = Capacity{Kind: Percent, Value: 100, text: "100%"}

// ParseCapacity parses a job count.
func ParseCapacity(s string) (Capacity, error) {
	s = strings.TrimSpace(s)
	c := Capacity{text: s}

	if s == "" {
		return DefaultCapacity, nil
	}

	if strings.EqualFold(s, "unbounded") {
		c.Kind = Unbounded
		return c, nil
	}

	num := s

	switch {
	case strings.HasSuffix(s, "%"):
		c.Kind = Percent
		num = strings.TrimSuffix(s, "%")
	case strings.HasPrefix(s, "+"), strings.HasPrefix(s, "-"):
		c.Kind = Relative
	}

	n, err := strconv.Atoi(num)
	if err != nil {
		return Capacity{}, &CapacityConfigurationError{Value: s, Reason: "not a number"}
	}

	c.Value = n

	switch c.Kind {
	case Absolute:
		if n == 0 {
			c.Kind = Unbounded
		}
	case Percent:
		if n <= 0 {
			return Capacity{}, &CapacityConfigurationError{Value: s, Reason: "percentage must be positive"}
		}
	}

	return c, nil
}

// NeedsCores reports whether the slot count depends on the core count of the host.
func (c Capacity) NeedsCores() bool {
	return c.Kind == Relative || c.Kind == Percent
}

// String returns the capacity as it was configured.
func (c Capacity) String() string {
	if c.text != "" {
		return c.text
	}

	switch c.Kind {
	case Unbounded:
		return "unbounded"
	case Percent:
		return fmt.Sprintf("%d%%", c.Value)
	case Relative:
		return fmt.Sprintf("%+d", c.Value)
	default:
		return strconv.Itoa(c.Value)
	}
}

// Slots returns the slot count for a host with the given number of cores.
// Relative and percentage capacities never go below one slot.
func (c Capacity) Slots(cores int) (int, error) {
	switch c.Kind {
	case Unbounded:
		return Unlimited, nil
	case Absolute:
		if c.Value < 0 {
			return 0, &CapacityConfigurationError{Value: c.String(), Reason: "negative job count"}
		}

		return c.Value, nil
	case Relative:
		return max(cores+c.Value, 1), nil
	case Percent:
		return max(cores*c.Value/100, 1), nil
	default:
		return 0, &CapacityConfigurationError{Value: c.String(), Reason: "unknown capacity kind"}
	}
}

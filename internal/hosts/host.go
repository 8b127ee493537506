// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hosts describes where jobs run: the host roster and the
// per-host slot capacity policy.
package hosts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// LocalName is the roster entry that denotes the local machine.
const LocalName = ":"

// ErrInvalidHost is returned for a roster entry that cannot be parsed.
var ErrInvalidHost = errors.New("invalid host entry")

// Host is a place where jobs run.
type Host struct {
	Name  string // Host name, or LocalName for the local machine
	Login string // Optional remote user
	Slots int    // Explicit slot count override, 0 means use the capacity policy
}

// Local is the local machine.
var Local = Host{Name: LocalName}

// IsLocal reports whether the host is the local machine.
func (h Host) IsLocal() bool {
	return h.Name == LocalName || h.Name == ""
}

// Address returns the destination used by the remote transport, [login@]name.
func (h Host) Address() string {
	if h.Login == "" {
		return h.Name
	}

	return h.Login + "@" + h.Name
}

// String returns the host in roster notation.
func (h Host) String() string {
	if h.IsLocal() {
		return "local"
	}

	return h.Address()
}

// ParseHost parses a roster entry of the form [N/][login@]host.
// The entry ":" denotes the local machine.
func ParseHost(s string) (Host, error) {
	s = strings.TrimSpace(s)
	h := Host{}

	if slots, rest, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(slots)
		if err != nil || n < 1 {
			return Host{}, fmt.Errorf("%w: %q: slot count must be a positive integer", ErrInvalidHost, s)
		}

		h.Slots = n
		s = rest
	}

	if login, name, ok := strings.Cut(s, "@"); ok {
		if login == "" {
			return Host{}, fmt.Errorf("%w: %q: empty login", ErrInvalidHost, s)
		}

		h.Login = login
		s = name
	}

	if s == "" || strings.ContainsAny(s, " \t") {
		return Host{}, fmt.Errorf("%w: %q", ErrInvalidHost, s)
	}

	h.Name = s

	if h.IsLocal() && h.Login != "" {
		return Host{}, fmt.Errorf("%w: the local host takes no login", ErrInvalidHost)
	}

	return h, nil
}

// Roster is the ordered set of hosts a run uses.
type Roster []Host

// ParseRoster reads one host entry per line. Blank lines and lines starting with # are ignored.
// All invalid entries are reported together.
func ParseRoster(r io.Reader) (Roster, error) {
	var (
		roster Roster
		result *multierror.Error
	)

	sc := bufio.NewScanner(r)
	line := 0

	for sc.Scan() {
		line++

		entry := strings.TrimSpace(sc.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}

		h, err := ParseHost(entry)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("line %d: %w", line, err))
			continue
		}

		roster = append(roster, h)
	}

	if err := sc.Err(); err != nil {
		result = multierror.Append(result, err)
	}

	return roster, result.ErrorOrNil()
}

// ParseEntries parses roster entries given on the command line.
func ParseEntries(entries []string) (Roster, error) {
	var (
		roster Roster
		result *multierror.Error
	)

	for _, e := range entries {
		// a single flag value may hold a comma separated list
		for _, part := range strings.Split(e, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}

			h, err := ParseHost(part)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}

			roster = append(roster, h)
		}
	}

	return roster, result.ErrorOrNil()
}

// Dedup removes repeated hosts, keeping the first occurrence.
func (r Roster) Dedup() Roster {
	seen := make(map[string]struct{}, len(r))
	out := make(Roster, 0, len(r))

	for _, h := range r {
		key := h.Address()
		if h.IsLocal() {
			key = LocalName
		}

		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		out = append(out, h)
	}

	return out
}

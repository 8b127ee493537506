// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"context"
	"errors"

	"github.com/matt-FFFFFF/spread/internal/hosts"
)

// ErrRoster is returned when the host roster cannot be built.
var ErrRoster = errors.New("invalid host roster")

// LoadRoster builds the roster from a roster file, fetched like a profile, and
// command line entries. File entries come first. Duplicate hosts are dropped.
func LoadRoster(ctx context.Context, file string, entries []string) (hosts.Roster, error) {
	var roster hosts.Roster

	if file != "" {
		data, err := Fetch(ctx, file)
		if err != nil {
			return nil, errors.Join(ErrRoster, err)
		}

		fromFile, err := hosts.ParseRoster(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Join(ErrRoster, err)
		}

		roster = append(roster, fromFile...)
	}

	fromArgs, err := hosts.ParseEntries(entries)
	if err != nil {
		return nil, errors.Join(ErrRoster, err)
	}

	return append(roster, fromArgs...).Dedup(), nil
}

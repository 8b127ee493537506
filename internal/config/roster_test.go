// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoster(t *testing.T) {
	memFs(t, map[string]string{
		"/hosts": "# build farm\n4/alice@build1\nbuild2\n\n:\n",
	})

	roster, err := LoadRoster(context.Background(), "/hosts", []string{"build2", "2/build3"})
	require.NoError(t, err)

	names := make([]string, 0, len(roster))
	for _, h := range roster {
		names = append(names, h.String())
	}

	assert.Equal(t, []string{"alice@build1", "build2", "local", "build3"}, names)
	assert.Equal(t, 4, roster[0].Slots)
	assert.Equal(t, 2, roster[3].Slots)
}

func TestLoadRoster_Errors(t *testing.T) {
	memFs(t, map[string]string{"/bad": "x/host\n"})

	_, err := LoadRoster(context.Background(), "/bad", nil)
	require.ErrorIs(t, err, ErrRoster)

	_, err = LoadRoster(context.Background(), "", []string{"0/host"})
	require.ErrorIs(t, err, ErrRoster)
}

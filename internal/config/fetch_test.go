// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_FromFs(t *testing.T) {
	memFs(t, map[string]string{"/p.yaml": "jobs: 2\n"})

	data, err := Fetch(context.Background(), "/p.yaml")
	require.NoError(t, err)
	assert.Equal(t, "jobs: 2\n", string(data))
}

func TestFetch_Empty(t *testing.T) {
	_, err := Fetch(context.Background(), "")
	require.ErrorIs(t, err, ErrGetConfigFile)
}

func TestFetch_Getter(t *testing.T) {
	memFs(t, nil)

	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tag: true\n"), 0o600))

	data, err := Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "tag: true\n", string(data))
}

func TestFetch_Missing(t *testing.T) {
	memFs(t, nil)

	_, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, ErrGetConfigFile)
}

func TestSplitFileNameFromGetterURL(t *testing.T) {
	tests := []struct {
		url      string
		wantURL  string
		wantFile string
	}{
		{
			url:      "git::https://github.com/org/repo//profiles/build.yaml?ref=main",
			wantURL:  "git::https://github.com/org/repo//profiles?ref=main",
			wantFile: "build.yaml",
		},
		{
			url:      "git::https://github.com/org/repo//build.yaml",
			wantURL:  "git::https://github.com/org/repo",
			wantFile: "build.yaml",
		},
		{
			url:      "https://example.com/build.yaml",
			wantURL:  "https://example.com",
			wantFile: "build.yaml",
		},
		{
			url: "git::https://github.com/org/repo//",
		},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			gotURL, gotFile := splitFileNameFromGetterURL(tt.url)
			assert.Equal(t, tt.wantURL, gotURL)
			assert.Equal(t, tt.wantFile, gotFile)
		})
	}
}

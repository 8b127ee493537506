// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runSchema(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := &cli.Command{
		Name:           "spread",
		Commands:       []*cli.Command{NewCommand()},
		Writer:         &out,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	err := root.Run(context.Background(), append([]string{"spread", "schema"}, args...))

	return out.String(), err
}

func TestSchema_YAMLExampleIsAProfile(t *testing.T) {
	out, err := runSchema(t)
	require.NoError(t, err)

	p, err := config.DecodeYAML([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, config.ExampleProfile(), p)
}

func TestSchema_JSON(t *testing.T) {
	out, err := runSchema(t, "--format", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	props, ok := got["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "sshlogin")
	assert.Contains(t, props, "cancel_policy")
}

func TestSchema_Markdown(t *testing.T) {
	out, err := runSchema(t, "-f", "md")
	require.NoError(t, err)
	assert.Contains(t, out, "| `jobs` | string |")
}

func TestSchema_InvalidFormat(t *testing.T) {
	_, err := runSchema(t, "--format", "toml")

	var ec cli.ExitCoder
	require.True(t, errors.As(err, &ec))
	assert.Equal(t, exitCodeUsage, ec.ExitCode())
}

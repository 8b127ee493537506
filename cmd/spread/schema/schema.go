// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema provides the schema command for displaying the profile schema.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/spread/internal/config"
	"github.com/matt-FFFFFF/spread/internal/schema"
	"github.com/urfave/cli/v3"
)

const (
	formatFlag = "format"

	formatYAML     = "yaml"
	formatJSON     = "json"
	formatMarkdown = "markdown"
	formatMD       = "md"

	exitCodeUsage = 1

	title       = "Spread profile"
	description = "Default values for spread run, loaded with --config. HCL profiles use the same names."
)

// SchemaCmd is the command that displays the profile schema.
var SchemaCmd = NewCommand()

// NewCommand returns a new schema command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:        "schema",
		Usage:       "Display the profile schema",
		Description: "Display the fields a profile given to run --config can set, as a commented YAML example, JSON schema or Markdown.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        formatFlag,
				Aliases:     []string{"f"},
				Usage:       "Output format: yaml, markdown, or json",
				DefaultText: formatYAML,
				Value:       formatYAML,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(_ context.Context, cmd *cli.Command) error {
	doc, err := schema.Generate(title, description, config.ExampleProfile())
	if err != nil {
		return err
	}

	w := cmd.Root().Writer

	switch format := strings.ToLower(cmd.String(formatFlag)); format {
	case formatYAML:
		return doc.WriteYAMLExample(w)
	case formatJSON:
		return doc.WriteJSONSchema(w)
	case formatMarkdown, formatMD:
		return doc.WriteMarkdown(w)
	default:
		return cli.Exit(fmt.Sprintf("Invalid format: %s. Valid formats: yaml, markdown, json", format), exitCodeUsage)
	}
}

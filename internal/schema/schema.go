// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema describes configuration structs for users. Fields are found by
// reflection: the yaml tag names the field, docdesc describes it and docenum
// lists the allowed values, comma separated.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

const jsonSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// ErrNotStruct is returned when the described value is not a struct.
var ErrNotStruct = errors.New("expected struct type")

// Field represents a field in a JSON schema.
type Field struct {
	Name        string   `json:"name"`
	GoName      string   `json:"-"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Items       *Field   `json:"items,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Document describes one configuration struct.
type Document struct {
	Title       string
	Description string
	Fields      []Field
	example     reflect.Value
}

// Generate builds the document for example, which must be a struct or a pointer to one.
// The values of example are used by WriteYAMLExample.
func Generate(title, description string, example any) (*Document, error) {
	v := reflect.ValueOf(example)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %s", ErrNotStruct, v.Kind())
	}

	fields := extractFields(v.Type())

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})

	return &Document{
		Title:       title,
		Description: description,
		Fields:      fields,
		example:     v,
	}, nil
}

// extractFields extracts schema fields from a struct type using reflection.
func extractFields(t reflect.Type) []Field {
	var fields []Field

	for i := range t.NumField() {
		field := t.Field(i)

		// exported fields of an embedded struct are promoted even when the struct type is not
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			fields = append(fields, extractFields(field.Type)...)
			continue
		}

		if !field.IsExported() {
			continue
		}

		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "-" {
			continue
		}

		name := strings.ToLower(field.Name)
		if n, _, _ := strings.Cut(yamlTag, ","); n != "" {
			name = n
		}

		f := Field{
			Name:        name,
			GoName:      field.Name,
			Type:        schemaType(field.Type),
			Description: field.Tag.Get("docdesc"),
		}

		if enum := field.Tag.Get("docenum"); enum != "" {
			f.Enum = strings.Split(enum, ",")
		}

		if f.Type == "array" {
			f.Items = &Field{Type: schemaType(field.Type.Elem())}
		}

		fields = append(fields, f)
	}

	return fields
}

// schemaType converts a Go type to a JSON schema type.
func schemaType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return schemaType(t.Elem())
	default:
		return "string"
	}
}

func (f Field) property() map[string]any {
	prop := map[string]any{
		"type": f.Type,
	}

	if f.Description != "" {
		prop["description"] = f.Description
	}

	if len(f.Enum) > 0 {
		prop["enum"] = f.Enum
	}

	if f.Items != nil {
		prop["items"] = f.Items.property()
	}

	return prop
}

// WriteJSONSchema writes the document as a JSON schema. Every field is optional
// and unknown fields are not allowed.
func (d *Document) WriteJSONSchema(w io.Writer) error {
	properties := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		properties[f.Name] = f.property()
	}

	root := map[string]any{
		"$schema":              jsonSchemaDraft,
		"type":                 "object",
		"title":                d.Title,
		"description":          d.Description,
		"properties":           properties,
		"additionalProperties": false,
	}

	b, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", b)

	return err
}

// WriteYAMLExample writes every field of the example with its description as a comment.
// Fields left at their zero value are commented out.
func (d *Document) WriteYAMLExample(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s\n# %s\n\n", d.Title, d.Description); err != nil {
		return err
	}

	for _, f := range d.Fields {
		v := d.example.FieldByName(f.GoName)

		// values promoted through an unexported embedded struct cannot be read, show them unset
		shown := v.CanInterface() && !v.IsZero()

		value := reflect.Zero(v.Type()).Interface()
		if shown {
			value = v.Interface()
		}

		b, err := yaml.Marshal(map[string]any{f.Name: value})
		if err != nil {
			return err
		}

		var sb strings.Builder

		if f.Description != "" {
			sb.WriteString("# " + f.Description + "\n")
		}

		for _, line := range strings.SplitAfter(strings.TrimRight(string(b), "\n")+"\n", "\n") {
			if line == "" {
				continue
			}

			if !shown {
				sb.WriteString("# ")
			}

			sb.WriteString(line)
		}

		sb.WriteString("\n")

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}

	return nil
}

// WriteMarkdown writes the document as a Markdown table.
func (d *Document) WriteMarkdown(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("# " + d.Title + "\n\n")
	sb.WriteString(d.Description + "\n\n")
	sb.WriteString("| Field | Type | Description |\n")
	sb.WriteString("|-------|------|-------------|\n")

	for _, f := range d.Fields {
		typ := f.Type
		if f.Items != nil {
			typ = fmt.Sprintf("array of %s", f.Items.Type)
		}

		desc := f.Description
		if len(f.Enum) > 0 {
			desc += fmt.Sprintf(" One of: `%s`.", strings.Join(f.Enum, "`, `"))
		}

		fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", f.Name, typ, strings.TrimSpace(desc))
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

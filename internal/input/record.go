// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package input

import (
	"slices"
	"strings"
)

// Record is a single input item and the fields it was split into.
// Without a column separator a record has exactly one field, the raw value.
type Record struct {
	Raw    string   // The item as read from its source
	Fields []string // Fields of the item, never empty
}

// NewRecord creates a record with a single field holding the raw value.
func NewRecord(raw string) Record {
	return Record{
		Raw:    raw,
		Fields: []string{raw},
	}
}

// Header holds column names taken from the first input record.
type Header []string

// Index returns the 0-based column index of name, or -1.
func (h Header) Index(name string) int {
	return slices.Index(h, name)
}

// Group is the ordered argument group of one job.
type Group struct {
	Records []Record // Records in input order, empty when the group size is 0
	Header  Header   // Column names, nil when no header was declared
	Err     error    // Set when a record of this group could not be parsed
}

// Values returns the raw value of every record in the group.
func (g Group) Values() []string {
	values := make([]string, len(g.Records))
	for i, r := range g.Records {
		values[i] = r.Raw
	}

	return values
}

// Fields returns the fields of all records, flattened in order.
func (g Group) Fields() []string {
	var fields []string
	for _, r := range g.Records {
		fields = append(fields, r.Fields...)
	}

	return fields
}

// Field returns field n (1-based) of the flattened fields.
func (g Group) Field(n int) (string, bool) {
	if n < 1 {
		return "", false
	}

	i := n - 1
	for _, r := range g.Records {
		if i < len(r.Fields) {
			return r.Fields[i], true
		}

		i -= len(r.Fields)
	}

	return "", false
}

// Named returns the value of the named column for each record in the group.
// It reports false if there is no header, the column does not exist
// or a record is missing the column.
func (g Group) Named(name string) ([]string, bool) {
	col := g.Header.Index(name)
	if col < 0 || len(g.Records) == 0 {
		return nil, false
	}

	values := make([]string, 0, len(g.Records))

	for _, r := range g.Records {
		if col >= len(r.Fields) {
			return nil, false
		}

		values = append(values, r.Fields[col])
	}

	return values, true
}

// String joins the raw values with a space, this is used to tag output lines.
func (g Group) String() string {
	return strings.Join(g.Values(), " ")
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdtemplate parses command templates and renders them for a job.
//
// A template is parsed once into a closed set of parts: literal text and
// placeholders. Supported placeholders:
//
//	{}        all values of the argument group
//	{n}       field n of the group (1-based)
//	{name}    column "name" when the input has a header
//	{#}       the job sequence number (1-based)
//	{%}       the slot number the job runs in
//
// {}, {n} and {name} accept a path transform suffix:
//
//	{.}   remove the extension      dir/a.tar.gz -> dir/a.tar
//	{/}   basename                  dir/a.txt    -> a.txt
//	{//}  dirname                   dir/a.txt    -> dir
//	{/.}  basename, no extension    dir/a.txt    -> a
//
// Braces that contain anything other than placeholder characters, contain "..",
// or follow a dollar sign are literal text, so `awk '{print $1}'`, `{1..3}` and
// `${HOME}` are left alone.
//
// A template without any placeholder gets the values of the group appended.
package cmdtemplate

// Kind identifies what a placeholder selects.
type Kind int

const (
	// WholeItem selects every value of the argument group: {}.
	WholeItem Kind = iota
	// Positional selects a single field by number: {1}.
	Positional
	// Named selects a header column: {name}.
	Named
	// SeqNumber is the 1-based job sequence number: {#}.
	SeqNumber
	// SlotNumber is the slot the job was dispatched to: {%}.
	SlotNumber
)

// String implements the Stringer interface for Kind.
func (k Kind) String() string {
	switch k {
	case WholeItem:
		return "whole-item"
	case Positional:
		return "positional"
	case Named:
		return "named"
	case SeqNumber:
		return "sequence"
	case SlotNumber:
		return "slot"
	default:
		return "unknown"
	}
}

// Transform is a path manipulation applied to a selected value.
type Transform int

const (
	// NoTransform leaves the value unchanged.
	NoTransform Transform = iota
	// NoExt removes the extension: {.}.
	NoExt
	// Basename keeps the last path element: {/}.
	Basename
	// Dirname keeps everything but the last path element: {//}.
	Dirname
	// BasenameNoExt keeps the last path element without its extension: {/.}.
	BasenameNoExt
)

// transformSuffixes is ordered so that longer suffixes are tried first.
var transformSuffixes = []struct {
	suffix    string
	transform Transform
}{
	{"/.", BasenameNoExt},
	{"//", Dirname},
	{"/", Basename},
	{".", NoExt},
}

// Part is a piece of a parsed template, either a Literal or a Placeholder.
type Part interface {
	part()
}

// Literal is text copied to the rendered command unchanged.
type Literal string

func (Literal) part() {}

// Placeholder is a substitution point in the template.
type Placeholder struct {
	Kind      Kind
	Index     int    // Field number for Positional
	Name      string // Column name for Named
	Transform Transform
	Text      string // Original text including braces, used in error messages
}

func (Placeholder) part() {}

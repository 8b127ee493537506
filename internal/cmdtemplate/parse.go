// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdtemplate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownPlaceholder is returned at parse time for brace expressions that look
// like placeholders but are not one of the supported forms.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// ErrEmptyTemplate is returned when the template has no text at all.
var ErrEmptyTemplate = errors.New("command template is empty")

// Template is a parsed command template.
type Template struct {
	source string
	parts  []Part
	quote  bool
	// explicit is true when the template has any placeholder.
	// Templates without one get the group appended.
	explicit bool
	usesSlot bool
}

// Option configures how a template renders.
type Option func(*Template)

// WithoutQuoting substitutes values verbatim instead of shell-quoting them.
func WithoutQuoting() Option {
	return func(t *Template) {
		t.quote = false
	}
}

// Parse parses a command template.
func Parse(source string, opts ...Option) (*Template, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptyTemplate
	}

	t := &Template{
		source: source,
		quote:  true,
	}

	for _, opt := range opts {
		opt(t)
	}

	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, Literal(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(source); i++ {
		c := source[i]
		if c != '{' || (i > 0 && source[i-1] == '$') {
			lit.WriteByte(c)
			continue
		}

		end := strings.IndexByte(source[i+1:], '}')
		if end < 0 {
			lit.WriteByte(c)
			continue
		}

		body := source[i+1 : i+1+end]
		if !isPlaceholderCandidate(body) {
			lit.WriteByte(c)
			continue
		}

		p, err := parsePlaceholder(body)
		if err != nil {
			return nil, err
		}

		flush()

		t.parts = append(t.parts, p)

		// any placeholder means the arguments are placed by the template
		t.explicit = true

		if p.Kind == SlotNumber {
			t.usesSlot = true
		}

		i += end + 1
	}

	flush()

	return t, nil
}

// MustParse is like Parse but panics on error. It is intended for tests and constants.
func MustParse(source string, opts ...Option) *Template {
	t, err := Parse(source, opts...)
	if err != nil {
		panic(err)
	}

	return t
}

// String returns the template source.
func (t *Template) String() string {
	return t.source
}

// Parts returns the parsed parts of the template.
func (t *Template) Parts() []Part {
	return t.parts
}

// UsesSlot reports whether the template contains {%}, which can only be rendered at dispatch.
func (t *Template) UsesSlot() bool {
	return t.usesSlot
}

// isPlaceholderCandidate reports whether the brace body only uses characters that may
// appear in a placeholder. Anything else is treated as literal text.
func isPlaceholderCandidate(body string) bool {
	// shell brace expansion such as {1..3}
	if strings.Contains(body, "..") {
		return false
	}

	for _, r := range body {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_-./#%", r):
		default:
			return false
		}
	}

	return true
}

func parsePlaceholder(body string) (Placeholder, error) {
	p := Placeholder{Text: "{" + body + "}"}

	switch body {
	case "#":
		p.Kind = SeqNumber
		return p, nil
	case "%":
		p.Kind = SlotNumber
		return p, nil
	}

	selector := body

	for _, ts := range transformSuffixes {
		if strings.HasSuffix(body, ts.suffix) {
			selector = strings.TrimSuffix(body, ts.suffix)
			p.Transform = ts.transform

			break
		}
	}

	switch {
	case selector == "":
		p.Kind = WholeItem
	case isDigits(selector):
		n, err := strconv.Atoi(selector)
		if err != nil || n < 1 {
			return p, fmt.Errorf("%w: %s, field numbers start at 1", ErrUnknownPlaceholder, p.Text)
		}

		p.Kind = Positional
		p.Index = n
	case isIdentifier(selector):
		p.Kind = Named
		p.Name = selector
	default:
		return p, fmt.Errorf("%w: %s", ErrUnknownPlaceholder, p.Text)
	}

	return p, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}

	return s != ""
}

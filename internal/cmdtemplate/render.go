// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdtemplate

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/spread/internal/input"
)

// PlaceholderResolutionError is returned when a placeholder has no value in the
// argument group of a job.
type PlaceholderResolutionError struct {
	Placeholder string
	Seq         int
	Reason      string
}

// Error implements the error interface for PlaceholderResolutionError.
func (e *PlaceholderResolutionError) Error() string {
	return fmt.Sprintf("job %d: cannot resolve %s: %s", e.Seq+1, e.Placeholder, e.Reason)
}

// Values holds everything a template can reference when rendered.
type Values struct {
	Args input.Group
	Seq  int // 0-based, rendered 1-based by {#}
	Slot int
}

// Render substitutes the placeholders of the template with values.
func (t *Template) Render(v Values) (string, error) {
	var sb strings.Builder

	for _, p := range t.parts {
		switch p := p.(type) {
		case Literal:
			sb.WriteString(string(p))
		case Placeholder:
			s, err := t.resolve(p, v)
			if err != nil {
				return "", err
			}

			sb.WriteString(s)
		}
	}

	if !t.explicit && len(v.Args.Records) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(t.join(v.Args.Values()))
	}

	return sb.String(), nil
}

// RenderList renders the template and splits the result into words.
// It is used for templates that name files, such as the remote transfer list.
func (t *Template) RenderList(v Values) ([]string, error) {
	s, err := t.Render(v)
	if err != nil {
		return nil, err
	}

	if !t.quote {
		return strings.Fields(s), nil
	}

	return shellquote.Split(s)
}

func (t *Template) resolve(p Placeholder, v Values) (string, error) {
	var values []string

	switch p.Kind {
	case SeqNumber:
		return strconv.Itoa(v.Seq + 1), nil
	case SlotNumber:
		return strconv.Itoa(v.Slot), nil
	case WholeItem:
		values = v.Args.Values()
	case Positional:
		f, ok := v.Args.Field(p.Index)
		if !ok {
			return "", &PlaceholderResolutionError{
				Placeholder: p.Text,
				Seq:         v.Seq,
				Reason:      fmt.Sprintf("argument group has %d fields", len(v.Args.Fields())),
			}
		}

		values = []string{f}
	case Named:
		if len(v.Args.Header) == 0 {
			return "", &PlaceholderResolutionError{
				Placeholder: p.Text,
				Seq:         v.Seq,
				Reason:      "input has no header",
			}
		}

		named, ok := v.Args.Named(p.Name)
		if !ok {
			return "", &PlaceholderResolutionError{
				Placeholder: p.Text,
				Seq:         v.Seq,
				Reason:      fmt.Sprintf("no column %q in header %v", p.Name, []string(v.Args.Header)),
			}
		}

		values = named
	}

	out := make([]string, len(values))
	for i, s := range values {
		out[i] = applyTransform(p.Transform, s)
	}

	return t.join(out), nil
}

func (t *Template) join(values []string) string {
	if !t.quote {
		return strings.Join(values, " ")
	}

	return shellquote.Join(values...)
}

func applyTransform(tr Transform, s string) string {
	switch tr {
	case NoExt:
		return strings.TrimSuffix(s, path.Ext(s))
	case Basename:
		return path.Base(s)
	case Dirname:
		return path.Dir(s)
	case BasenameNoExt:
		b := path.Base(s)
		return strings.TrimSuffix(b, path.Ext(b))
	default:
		return s
	}
}

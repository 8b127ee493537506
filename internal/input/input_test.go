// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainRecords(t *testing.T, s Source) []string {
	t.Helper()

	var out []string

	for {
		r, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out
		}

		require.NoError(t, err)

		out = append(out, r.Raw)
	}
}

func drainGroups(t *testing.T, g *Grouper) []Group {
	t.Helper()

	var out []Group

	for {
		grp, err := g.Next()
		if errors.Is(err, io.EOF) {
			return out
		}

		require.NoError(t, err)

		out = append(out, grp)
	}
}

func TestReaderSource(t *testing.T) {
	tests := []struct {
		name  string
		input string
		delim string
		want  []string
	}{
		{
			name:  "newline delimited",
			input: "a\nb\nc\n",
			delim: DefaultDelimiter,
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "no trailing newline",
			input: "a\nb",
			delim: DefaultDelimiter,
			want:  []string{"a", "b"},
		},
		{
			name:  "crlf is trimmed",
			input: "a\r\nb\r\n",
			delim: DefaultDelimiter,
			want:  []string{"a", "b"},
		},
		{
			name:  "empty lines are items",
			input: "a\n\nb\n",
			delim: DefaultDelimiter,
			want:  []string{"a", "", "b"},
		},
		{
			name:  "null delimited",
			input: "one two\x00three\x00",
			delim: NullDelimiter,
			want:  []string{"one two", "three"},
		},
		{
			name:  "multi byte delimiter",
			input: "x::y::z",
			delim: "::",
			want:  []string{"x", "y", "z"},
		},
		{
			name:  "empty input",
			input: "",
			delim: DefaultDelimiter,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewReaderSource(strings.NewReader(tt.input), tt.delim)
			require.NoError(t, err)
			assert.Equal(t, tt.want, drainRecords(t, s))
		})
	}
}

func TestReaderSource_EmptyDelimiter(t *testing.T) {
	_, err := NewReaderSource(strings.NewReader("a"), "")
	require.ErrorIs(t, err, ErrEmptyDelimiter)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestReaderSource_ReadErrorIsFatal(t *testing.T) {
	s, err := NewReaderSource(failingReader{}, DefaultDelimiter)
	require.NoError(t, err)

	_, err = s.Next()
	require.ErrorIs(t, err, ErrReadInput)
}

func TestRangeSource(t *testing.T) {
	tests := []struct {
		spec    string
		want    []string
		wantErr bool
	}{
		{spec: "1..5", want: []string{"1", "2", "3", "4", "5"}},
		{spec: "5..1", want: []string{"5", "4", "3", "2", "1"}},
		{spec: "0..10..5", want: []string{"0", "5", "10"}},
		{spec: "10..1..4", want: []string{"10", "6", "2"}},
		{spec: "3..3", want: []string{"3"}},
		{spec: "1..5..0", wantErr: true},
		{spec: "a..b", wantErr: true},
		{spec: "1", wantErr: true},
		{spec: "1..2..3..4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			s, err := NewRangeSource(tt.spec)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRange)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, len(tt.want), s.Len())
			assert.Equal(t, tt.want, drainRecords(t, s))
		})
	}
}

func TestGlobSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/data/b.csv", "/data/a.csv", "/data/c.txt"} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0o644))
	}

	s, err := NewGlobSource(context.Background(), fs, "", "/data/*.csv", "/data/*.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"/data/a.csv", "/data/b.csv", "/data/c.txt"}, drainRecords(t, s))
}

func TestProduct(t *testing.T) {
	p := Product(NewListSource([]string{"a", "b"}), NewListSource([]string{"1", "2"}))

	sized, ok := p.(Sized)
	require.True(t, ok)
	assert.Equal(t, 4, sized.Len())

	var fields [][]string

	for {
		r, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		fields = append(fields, r.Fields)
	}

	assert.Equal(t, [][]string{{"a", "1"}, {"a", "2"}, {"b", "1"}, {"b", "2"}}, fields)
}

func TestProduct_EmptyTailYieldsNothing(t *testing.T) {
	p := Product(NewListSource([]string{"a"}), NewListSource(nil))
	assert.Empty(t, drainRecords(t, p))
}

func TestProduct_SingleSourceUnchanged(t *testing.T) {
	src := NewListSource([]string{"a"})
	assert.Same(t, src, Product(src))
}

func TestTokenizer_ColumnSeparator(t *testing.T) {
	tok, err := NewTokenizer(NewListSource([]string{"a.txt,b.txt"}), WithColumnSeparator(","))
	require.NoError(t, err)

	r, err := tok.Next()
	require.NoError(t, err)
	assert.Equal(t, "a.txt,b.txt", r.Raw)
	assert.Equal(t, []string{"a.txt", "b.txt"}, r.Fields)
}

func TestTokenizer_InvalidSeparator(t *testing.T) {
	_, err := NewTokenizer(NewListSource(nil), WithColumnSeparator("("))
	require.ErrorIs(t, err, ErrInvalidColumnSeparator)
}

func TestTokenizer_HeaderMismatch(t *testing.T) {
	src := NewListSource([]string{"name\tsize", "a\t1", "b", "c\t3"})
	tok, err := NewTokenizer(src, WithColumnSeparator("\t"), WithHeader())
	require.NoError(t, err)
	assert.Equal(t, 3, tok.Len())

	_, err = tok.Next()
	require.NoError(t, err)
	assert.Equal(t, Header{"name", "size"}, tok.Header())

	r, err := tok.Next()

	var malformed *MalformedInputError

	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Record)
	assert.Equal(t, 2, malformed.Want)
	assert.Equal(t, 1, malformed.Got)
	assert.Equal(t, "b", r.Raw)

	_, err = tok.Next()
	require.NoError(t, err, "a malformed record must not stop the input")
}

func TestGrouper_GroupSizeHundred(t *testing.T) {
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%d", i)
	}

	tok, err := NewTokenizer(NewListSource(lines))
	require.NoError(t, err)

	g, err := NewGrouper(tok, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, g.Len())

	groups := drainGroups(t, g)
	require.Len(t, groups, 10)

	for i, grp := range groups {
		assert.Len(t, grp.Records, 100)
		assert.Equal(t, fmt.Sprintf("line-%d", i*100), grp.Records[0].Raw)
	}
}

func TestGrouper_PartialFinalGroup(t *testing.T) {
	tok, err := NewTokenizer(NewListSource([]string{"1", "2", "3", "4", "5"}))
	require.NoError(t, err)

	g, err := NewGrouper(tok, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	groups := drainGroups(t, g)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"5"}, groups[2].Values())
}

func TestGrouper_ZeroSizeRepeatsWithoutArguments(t *testing.T) {
	tok, err := NewTokenizer(NewListSource([]string{"x", "y", "z"}))
	require.NoError(t, err)

	g, err := NewGrouper(tok, 0)
	require.NoError(t, err)

	groups := drainGroups(t, g)
	require.Len(t, groups, 3)

	for _, grp := range groups {
		assert.Empty(t, grp.Records)
	}
}

func TestGrouper_NegativeSize(t *testing.T) {
	tok, err := NewTokenizer(NewListSource(nil))
	require.NoError(t, err)

	_, err = NewGrouper(tok, -1)
	require.ErrorIs(t, err, ErrInvalidGroupSize)
}

func TestGrouper_MalformedRecordMarksGroup(t *testing.T) {
	tok, err := NewTokenizer(NewListSource([]string{"a,b", "1,2", "3"}), WithColumnSeparator(","), WithHeader())
	require.NoError(t, err)

	g, err := NewGrouper(tok, 1)
	require.NoError(t, err)

	groups := drainGroups(t, g)
	require.Len(t, groups, 2)
	require.NoError(t, groups[0].Err)

	var malformed *MalformedInputError

	require.ErrorAs(t, groups[1].Err, &malformed)
}

func TestGroup_Accessors(t *testing.T) {
	g := Group{
		Header: Header{"src", "dst"},
		Records: []Record{
			{Raw: "a,b", Fields: []string{"a", "b"}},
			{Raw: "c,d", Fields: []string{"c", "d"}},
		},
	}

	assert.Equal(t, []string{"a,b", "c,d"}, g.Values())
	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Fields())
	assert.Equal(t, "a,b c,d", g.String())

	f, ok := g.Field(3)
	assert.True(t, ok)
	assert.Equal(t, "c", f)

	_, ok = g.Field(5)
	assert.False(t, ok)

	_, ok = g.Field(0)
	assert.False(t, ok)

	named, ok := g.Named("dst")
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "d"}, named)

	_, ok = g.Named("missing")
	assert.False(t, ok)
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLineTeeReader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLast string
		partial  string
	}{
		{name: "empty", input: "", wantLast: "", partial: ""},
		{name: "no newline", input: "hello", wantLast: "", partial: "hello"},
		{name: "single line", input: "hello\n", wantLast: "hello", partial: ""},
		{name: "multiple lines", input: "one\ntwo\nthree\n", wantLast: "three", partial: ""},
		{name: "trailing partial", input: "one\ntwo\nthr", wantLast: "two", partial: "thr"},
		{name: "crlf", input: "one\r\n", wantLast: "one", partial: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := NewLastLineTeeReader(strings.NewReader(tt.input))
			_, err := io.Copy(io.Discard, lt)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLast, lt.LastLine(0))
			assert.Equal(t, tt.partial, lt.PartialLine())
			assert.Equal(t, tt.input, string(lt.Bytes()))
			assert.False(t, lt.Truncated())
		})
	}
}

func TestLastLineTeeReader_ByteAtATime(t *testing.T) {
	lt := NewLastLineTeeReader(iotest.OneByteReader(strings.NewReader("first\nsecond line\npart")))
	_, err := io.Copy(io.Discard, lt)
	require.NoError(t, err)

	assert.Equal(t, "second line", lt.LastLine(0))
	assert.Equal(t, "part", lt.PartialLine())
}

func TestLastLineTeeReader_LastLineTruncation(t *testing.T) {
	lt := NewLastLineTeeReader(strings.NewReader("a very long line of output\n"))
	_, err := io.Copy(io.Discard, lt)
	require.NoError(t, err)

	assert.Equal(t, "a very ...", lt.LastLine(10))
}

func TestLastLineTeeReader_MaxBytes(t *testing.T) {
	input := strings.Repeat("x", 100) + "\nlast\n"
	lt := NewLastLineTeeReader(strings.NewReader(input), WithMaxBytes(10))

	n, err := io.Copy(io.Discard, lt)
	require.NoError(t, err)

	assert.Equal(t, int64(len(input)), n, "all data is read from the source")
	assert.Equal(t, strings.Repeat("x", 10), string(lt.Bytes()))
	assert.True(t, lt.Truncated())
	assert.Equal(t, "last", lt.LastLine(0))
}

func TestLastLineTeeReader_ErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	lt := NewLastLineTeeReader(iotest.ErrReader(boom))

	_, err := lt.Read(make([]byte, 8))
	require.ErrorIs(t, err, boom)
}

func TestLastLineTeeReader_ConcurrentAccess(t *testing.T) {
	pr, pw := io.Pipe()
	lt := NewLastLineTeeReader(pr)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		for range 100 {
			_, _ = io.WriteString(pw, "line\n")
		}

		_ = pw.Close()
	}()

	go func() {
		defer wg.Done()

		for range 100 {
			_ = lt.LastLine(0)
			_ = lt.Bytes()
		}
	}()

	_, err := io.Copy(io.Discard, lt)
	require.NoError(t, err)
	wg.Wait()

	assert.Len(t, lt.Bytes(), 500)
}

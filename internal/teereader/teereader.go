// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// LastLineTeeReader wraps an io.Reader, captures what is read from it and
// tracks the last complete line. It is safe for concurrent use.
type LastLineTeeReader struct {
	reader    io.Reader
	buf       bytes.Buffer
	maxBytes  int64
	truncated bool
	lastLine  string
	partial   strings.Builder
	mu        sync.RWMutex
}

// Option configures a LastLineTeeReader.
type Option func(*LastLineTeeReader)

// WithMaxBytes limits the captured output. Data beyond the limit is still read
// from the underlying reader and used for line tracking, but is not kept.
func WithMaxBytes(n int64) Option {
	return func(lt *LastLineTeeReader) {
		lt.maxBytes = n
	}
}

// NewLastLineTeeReader creates a new LastLineTeeReader that wraps the given reader.
func NewLastLineTeeReader(r io.Reader, opts ...Option) *LastLineTeeReader {
	lt := &LastLineTeeReader{reader: r}
	for _, opt := range opts {
		opt(lt)
	}

	return lt
}

// Read implements io.Reader.
func (lt *LastLineTeeReader) Read(p []byte) (int, error) {
	n, err := lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		lt.capture(p[:n])
		lt.processNewData(p[:n])
		lt.mu.Unlock()
	}

	return n, err //nolint:wrapcheck
}

// capture must be called with the write lock held.
func (lt *LastLineTeeReader) capture(data []byte) {
	if lt.maxBytes <= 0 {
		lt.buf.Write(data)
		return
	}

	room := lt.maxBytes - int64(lt.buf.Len())
	if room <= 0 {
		lt.truncated = true
		return
	}

	if int64(len(data)) > room {
		data = data[:room]
		lt.truncated = true
	}

	lt.buf.Write(data)
}

// processNewData must be called with the write lock held.
func (lt *LastLineTeeReader) processNewData(data []byte) {
	i := bytes.LastIndexByte(data, '\n')
	if i < 0 {
		lt.partial.Write(data)
		return
	}

	complete := data[:i]
	if j := bytes.LastIndexByte(complete, '\n'); j >= 0 {
		lt.lastLine = string(complete[j+1:])
	} else {
		lt.partial.Write(complete)
		lt.lastLine = lt.partial.String()
	}

	lt.lastLine = strings.TrimSuffix(lt.lastLine, "\r")

	lt.partial.Reset()
	lt.partial.Write(data[i+1:])
}

// LastLine returns the last complete line read so far.
// If maxLength > 3 the line is truncated to that length, ending in "...".
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	result := lt.lastLine
	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}

// Bytes returns a copy of the captured output.
func (lt *LastLineTeeReader) Bytes() []byte {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return bytes.Clone(lt.buf.Bytes())
}

// Truncated reports whether output was discarded because of the size limit.
func (lt *LastLineTeeReader) Truncated() bool {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.truncated
}

// PartialLine returns the data read after the last newline.
func (lt *LastLineTeeReader) PartialLine() string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.partial.String()
}

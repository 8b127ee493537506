// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package collector

import (
	"encoding/gob"
	"errors"
	"io"
	"time"

	"github.com/matt-FFFFFF/spread/internal/job"
)

var (
	// ErrWriteGob is returned when writing the results to a binary format fails.
	ErrWriteGob = errors.New("failed to write binary results")
	// ErrDecodeResults is returned when a saved result file cannot be decoded.
	ErrDecodeResults = errors.New("failed to decode results")
)

// SavedResult is the persisted form of a job result.
// Errors are stored as their message so the file can be decoded without the error types.
type SavedResult struct {
	Seq      int
	Args     string
	Command  string
	Host     string
	Slot     int
	ExitCode int
	Signal   string
	Stdout   []byte
	Stderr   []byte
	Error    string
	Skipped  bool
	Attempts int
	Start    time.Time
	Duration time.Duration
}

// SavedResults is the content of a saved result file, in the order the results were written.
type SavedResults []*SavedResult

// Save converts a result into its persisted form.
func Save(res *job.Result) *SavedResult {
	s := &SavedResult{
		Seq:      res.Seq,
		Args:     res.Args.String(),
		Command:  res.Command,
		Host:     res.Host.String(),
		Slot:     res.Slot,
		ExitCode: res.ExitCode,
		Signal:   res.Signal,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Skipped:  res.Skipped,
		Attempts: res.Attempts,
		Start:    res.Start,
		Duration: res.Duration,
	}

	if res.Err != nil {
		s.Error = res.Err.Error()
	}

	return s
}

// Succeeded reports whether the job ran and exited zero.
func (s *SavedResult) Succeeded() bool {
	return !s.Skipped && s.ExitCode == 0 && s.Error == ""
}

// HasFailure reports whether any saved job failed.
func (r SavedResults) HasFailure() bool {
	for _, s := range r {
		if !s.Skipped && !s.Succeeded() {
			return true
		}
	}

	return false
}

// WriteSaved writes results to w.
func WriteSaved(w io.Writer, results SavedResults) error {
	if err := gob.NewEncoder(w).Encode(results); err != nil {
		return errors.Join(ErrWriteGob, err)
	}

	return nil
}

// ReadSaved reads results written by WriteSaved.
func ReadSaved(r io.Reader) (SavedResults, error) {
	var results SavedResults
	if err := gob.NewDecoder(r).Decode(&results); err != nil {
		return nil, errors.Join(ErrDecodeResults, err)
	}

	return results, nil
}

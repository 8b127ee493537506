// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package collector

import (
	"errors"
	"path/filepath"
	"strconv"

	"github.com/matt-FFFFFF/spread/internal/job"
	"github.com/spf13/afero"
)

// ErrWriteResultsDir is returned when a job's files cannot be written to the results directory.
var ErrWriteResultsDir = errors.New("failed to write results directory")

const (
	resultsDirPerm  = 0o755
	resultsFilePerm = 0o644
)

// ResultsDir stores the output of every job in Dir/<seq>/, where seq is 1-based.
// The directory holds the files stdout, stderr and exitval.
type ResultsDir struct {
	Fs  afero.Fs
	Dir string
}

// Path returns the directory of a job.
func (d *ResultsDir) Path(seq int) string {
	return filepath.Join(d.Dir, strconv.Itoa(seq+1))
}

// Write stores a result.
func (d *ResultsDir) Write(res *job.Result) error {
	fs := d.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	dir := d.Path(res.Seq)
	if err := fs.MkdirAll(dir, resultsDirPerm); err != nil {
		return errors.Join(ErrWriteResultsDir, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{"stdout", res.Stdout},
		{"stderr", res.Stderr},
		{"exitval", []byte(strconv.Itoa(res.ExitCode) + "\n")},
	}

	for _, f := range files {
		if err := afero.WriteFile(fs, filepath.Join(dir, f.name), f.data, resultsFilePerm); err != nil {
			return errors.Join(ErrWriteResultsDir, err)
		}
	}

	return nil
}

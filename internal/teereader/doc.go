// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader captures the output of a running job.
// It keeps the output up to a size limit and tracks the last complete line so
// the progress display can show what a job is doing while it runs.
package teereader

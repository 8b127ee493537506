// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui draws the live progress display of a run: a progress bar with
// success, failure and skip counts, and below it the running jobs with the
// host and slot they run in and the last line of their output.
//
// The display is fed by progress events and writes to stderr so the job output
// on stdout is left untouched.
package tui

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package backend runs a rendered job command and reports its result.
//
// Local runs the command in a shell on this machine. Remote runs it on another
// host through a Transport, optionally staging input files into a per-job
// directory, fetching result files back and removing the directory afterwards.
// Both implement Backend so the scheduler is written once against the interface.
//
// A non-zero exit status is a normal result. An error from Submit means the job
// could not be run at all; a *TransportError is worth retrying.
package backend

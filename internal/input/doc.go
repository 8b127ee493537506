// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package input turns raw input into argument groups for jobs.
//
// A Source yields records one at a time: lines or delimiter-separated items
// from a reader, literal arguments, a numeric range or file paths matching a glob.
// Several sources combine as a cartesian product.
// A Tokenizer splits each record into fields (--colsep) and optionally names
// them from a header line, and a Grouper bundles consecutive records into the
// argument group of a single job (-n).
//
// Everything is a single forward pass, input of any size is never fully buffered
// unless it takes part in a product as a non-leading source.
package input

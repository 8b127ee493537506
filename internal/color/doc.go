// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color colorizes terminal output with ANSI escape codes.
// Color is used when stdout is a terminal, unless NO_COLOR is set.
// FORCE_COLOR enables it for any destination.
package color

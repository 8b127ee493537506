// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries job lifecycle events from the scheduler and the
// backends to whatever displays them, such as the terminal progress bar.
// Reporting never blocks the sender, events are dropped when nobody keeps up.
package progress

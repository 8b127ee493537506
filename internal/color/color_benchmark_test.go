// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"testing"
)

// a tagged output line as written with --tag
const benchLine = "build1:/srv/data/file-0042.csv\tprocessed 1024 rows"

func BenchmarkWrap(b *testing.B) {
	for b.Loop() {
		Wrap(benchLine, Bold, FgHiWhite)
	}
}

func BenchmarkColorize(b *testing.B) {
	benchmarks := []struct {
		name    string
		enabled bool
	}{
		{"enabled", true},
		{"disabled", false},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			restore := SetEnabled(bm.enabled)
			defer restore()

			for b.Loop() {
				Colorize(benchLine, FgRed)
			}
		})
	}
}

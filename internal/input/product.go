// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package input

import (
	"errors"
	"io"
	"slices"
	"strings"
)

// ProductSource combines several sources as a cartesian product.
// The first source is streamed, the others are read completely on first use.
// The last source varies fastest, so `::: a b ::: 1 2` yields a 1, a 2, b 1, b 2.
type ProductSource struct {
	head    Source
	tails   []Source
	buffers [][]Record
	current Record
	idx     []int
	started bool
	empty   bool
}

var _ Source = (*ProductSource)(nil)

// Product returns a source yielding every combination of the given sources.
// A single source is returned unchanged.
func Product(sources ...Source) Source {
	if len(sources) == 1 {
		return sources[0]
	}

	return &ProductSource{
		head:  sources[0],
		tails: sources[1:],
	}
}

// Len implements Sized when every source is sized.
func (p *ProductSource) Len() int {
	n := 1

	for _, s := range slices.Concat([]Source{p.head}, p.tails) {
		sized, ok := s.(Sized)
		if !ok {
			return -1
		}

		n *= sized.Len()
	}

	return n
}

// Next implements Source.
func (p *ProductSource) Next() (Record, error) {
	if !p.started {
		if err := p.fill(); err != nil {
			return Record{}, err
		}

		p.started = true
	}

	if p.empty {
		return Record{}, io.EOF
	}

	if p.idx == nil || p.advance() {
		head, err := p.head.Next()
		if err != nil {
			return Record{}, err
		}

		p.current = head
		p.idx = make([]int, len(p.buffers))
	}

	return p.combine(), nil
}

// fill reads every non-leading source into memory.
func (p *ProductSource) fill() error {
	p.buffers = make([][]Record, len(p.tails))

	for i, s := range p.tails {
		for {
			r, err := s.Next()
			if errors.Is(err, io.EOF) {
				break
			}

			if err != nil {
				return err
			}

			p.buffers[i] = append(p.buffers[i], r)
		}

		if len(p.buffers[i]) == 0 {
			p.empty = true
		}
	}

	return nil
}

// advance moves the odometer over the buffered sources by one position.
// It returns true when every combination for the current head record has been used.
func (p *ProductSource) advance() bool {
	for i := len(p.idx) - 1; i >= 0; i-- {
		p.idx[i]++
		if p.idx[i] < len(p.buffers[i]) {
			return false
		}

		p.idx[i] = 0
	}

	return true
}

func (p *ProductSource) combine() Record {
	raws := []string{p.current.Raw}
	fields := slices.Clone(p.current.Fields)

	for i, b := range p.buffers {
		r := b[p.idx[i]]
		raws = append(raws, r.Raw)
		fields = append(fields, r.Fields...)
	}

	return Record{
		Raw:    strings.Join(raws, " "),
		Fields: fields,
	}
}

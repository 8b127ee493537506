// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package job

import (
	"context"
	"errors"
	"io"

	"github.com/matt-FFFFFF/spread/internal/cmdtemplate"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/matt-FFFFFF/spread/internal/input"
)

// GroupSource yields argument groups, input.Grouper satisfies it.
type GroupSource interface {
	Next() (input.Group, error)
}

// Producer turns argument groups into job specs.
// It reads its input only as fast as the consumer takes specs.
type Producer struct {
	src  GroupSource
	tmpl *cmdtemplate.Template
	err  error
	done chan struct{}
}

// NewProducer creates a producer rendering tmpl for every group from src.
func NewProducer(src GroupSource, tmpl *cmdtemplate.Template) *Producer {
	return &Producer{
		src:  src,
		tmpl: tmpl,
		done: make(chan struct{}),
	}
}

// Start begins producing specs. The channel is closed when the input is exhausted,
// the input fails or the context is cancelled.
func (p *Producer) Start(ctx context.Context) <-chan *Spec {
	out := make(chan *Spec)

	go func() {
		defer close(p.done)
		defer close(out)

		for seq := 0; ctx.Err() == nil; seq++ {
			group, err := p.src.Next()
			if errors.Is(err, io.EOF) {
				ctxlog.Debug(ctx, "input exhausted", "jobs", seq)
				return
			}

			if err != nil {
				p.err = err
				ctxlog.Error(ctx, "reading input failed", "error", err)

				return
			}

			spec := NewSpec(seq, group, p.tmpl)

			select {
			case out <- spec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Err returns the fatal input error, if any. It waits until the producer has stopped.
func (p *Producer) Err() error {
	<-p.done
	return p.err
}

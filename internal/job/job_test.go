// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package job

import (
	"context"
	"errors"
	"testing"

	"github.com/matt-FFFFFF/spread/internal/cmdtemplate"
	"github.com/matt-FFFFFF/spread/internal/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func grouper(t *testing.T, items []string, size int, opts ...input.TokenizerOption) *input.Grouper {
	t.Helper()

	tok, err := input.NewTokenizer(input.NewListSource(items), opts...)
	require.NoError(t, err)

	g, err := input.NewGrouper(tok, size)
	require.NoError(t, err)

	return g
}

func TestProducer(t *testing.T) {
	p := NewProducer(grouper(t, []string{"1", "2", "3"}, 1), cmdtemplate.MustParse("echo {}"))

	var specs []*Spec
	for s := range p.Start(context.Background()) {
		specs = append(specs, s)
	}

	require.NoError(t, p.Err())
	require.Len(t, specs, 3)

	for i, s := range specs {
		assert.Equal(t, i, s.Seq)
		require.NoError(t, s.Err)
	}

	assert.Equal(t, "echo 3", specs[2].Command)
}

func TestProducer_PlaceholderErrorMarksJob(t *testing.T) {
	p := NewProducer(grouper(t, []string{"a,b", "c"}, 1, input.WithColumnSeparator(",")), cmdtemplate.MustParse("echo {2}"))

	var specs []*Spec
	for s := range p.Start(context.Background()) {
		specs = append(specs, s)
	}

	require.Len(t, specs, 2)
	require.NoError(t, specs[0].Err)

	var resErr *cmdtemplate.PlaceholderResolutionError

	require.ErrorAs(t, specs[1].Err, &resErr)
}

type brokenSource struct{ n int }

func (b *brokenSource) Next() (input.Group, error) {
	b.n++
	if b.n > 1 {
		return input.Group{}, errors.New("pipe closed")
	}

	return input.Group{Records: []input.Record{input.NewRecord("x")}}, nil
}

func TestProducer_InputErrorIsReported(t *testing.T) {
	p := NewProducer(&brokenSource{}, cmdtemplate.MustParse("echo"))

	count := 0
	for range p.Start(context.Background()) {
		count++
	}

	assert.Equal(t, 1, count)
	require.ErrorContains(t, p.Err(), "pipe closed")
}

type endless struct{}

func (endless) Next() (input.Group, error) {
	return input.Group{Records: []input.Record{input.NewRecord("y")}}, nil
}

func TestProducer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewProducer(endless{}, cmdtemplate.MustParse("yes"))

	ch := p.Start(ctx)
	<-ch
	cancel()

	for range ch {
	}

	require.NoError(t, p.Err())
}

func TestSpec_CommandFor(t *testing.T) {
	args := input.Group{Records: []input.Record{input.NewRecord("f")}}

	s := NewSpec(0, args, cmdtemplate.MustParse("gpu --device {%} {}"))
	assert.Equal(t, "gpu --device 1 f", s.Command)
	assert.Equal(t, "gpu --device 3 f", s.CommandFor(Slot{ID: 3}))

	plain := NewSpec(0, args, cmdtemplate.MustParse("echo {}"))
	assert.Equal(t, "echo f", plain.CommandFor(Slot{ID: 3}))
}

func TestSpec_GroupErrorCarriesOver(t *testing.T) {
	args := input.Group{Err: &input.MalformedInputError{Record: 1, Want: 2, Got: 1}}
	s := NewSpec(0, args, cmdtemplate.MustParse("echo {}"))

	var malformed *input.MalformedInputError

	require.ErrorAs(t, s.Err, &malformed)
	assert.Empty(t, s.Command)
}

func TestResult_Succeeded(t *testing.T) {
	assert.True(t, (&Result{State: Completed}).Succeeded())
	assert.False(t, (&Result{State: Completed, ExitCode: 1}).Succeeded())
	assert.False(t, (&Result{State: Failed}).Succeeded())
	assert.False(t, (&Result{State: Completed, Skipped: true}).Succeeded())
	assert.Equal(t, "dispatched", Dispatched.String())
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package hosts

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/matt-FFFFFF/spread/internal/ctxlog"
)

// NumCPU returns the core count of the local machine. It is a variable so tests can stub it.
var NumCPU = runtime.NumCPU

// DegradedCapabilityWarning reports a host whose core count could not be determined.
// The host is given a single slot and the run continues.
type DegradedCapabilityWarning struct {
	Host Host
	Err  error
}

// Error implements the error interface for DegradedCapabilityWarning.
func (w *DegradedCapabilityWarning) Error() string {
	return fmt.Sprintf("cannot determine core count of %s, using 1 slot: %v", w.Host, w.Err)
}

// Unwrap returns the probe error.
func (w *DegradedCapabilityWarning) Unwrap() error {
	return w.Err
}

// Prober determines the core count of a remote host.
type Prober interface {
	ProbeCores(ctx context.Context, h Host) (int, error)
}

// ErrNotProbed is returned by a Prober that does not contact hosts.
var ErrNotProbed = errors.New("host not probed")

// NoProbe is the Prober of a run that executes nothing, such as a dry run.
// Hosts whose slot count depends on their cores get a single slot, without a warning.
type NoProbe struct{}

// ProbeCores implements Prober and always returns ErrNotProbed.
func (NoProbe) ProbeCores(context.Context, Host) (int, error) {
	return 0, ErrNotProbed
}

// Allocation is the number of slots a host provides for the run.
type Allocation struct {
	Host    Host
	Slots   int // Unlimited for an unbounded capacity
	Cores   int // 0 when not probed
	Warning *DegradedCapabilityWarning
}

// Resolve computes the slot count of every host in the roster.
// An explicit slot count on a host wins over the capacity.
// Remote core counts are only probed when the capacity depends on them.
func Resolve(ctx context.Context, roster Roster, c Capacity, prober Prober) ([]Allocation, error) {
	if len(roster) == 0 {
		roster = Roster{Local}
	}

	allocs := make([]Allocation, 0, len(roster))

	for _, h := range roster {
		a := Allocation{Host: h}

		if h.Slots > 0 {
			a.Slots = h.Slots
			allocs = append(allocs, a)

			continue
		}

		cores := 0

		if c.NeedsCores() {
			switch {
			case h.IsLocal():
				cores = NumCPU()
			case prober == nil:
				a.Warning = &DegradedCapabilityWarning{Host: h, Err: fmt.Errorf("no prober configured")}
			default:
				n, err := prober.ProbeCores(ctx, h)
				if errors.Is(err, ErrNotProbed) {
					ctxlog.Debug(ctx, "host not probed, using 1 slot", "host", h.String())
					a.Slots = 1
					allocs = append(allocs, a)

					continue
				}

				if err != nil || n < 1 {
					if err == nil {
						err = fmt.Errorf("probe returned %d cores", n)
					}

					a.Warning = &DegradedCapabilityWarning{Host: h, Err: err}
				}

				cores = n
			}
		}

		if a.Warning != nil {
			ctxlog.Warn(ctx, "degraded host capacity", "host", h.String(), "error", a.Warning.Err)
			a.Slots = 1
			allocs = append(allocs, a)

			continue
		}

		slots, err := c.Slots(cores)
		if err != nil {
			return nil, err
		}

		a.Cores = cores
		a.Slots = slots

		if slots == Unlimited {
			ctxlog.Warn(ctx, "unbounded job count, nothing limits how many jobs run at once", "host", h.String())
		}

		allocs = append(allocs, a)
	}

	return allocs, nil
}

// Total returns the sum of the slot counts, or Unlimited if any host is unbounded.
func Total(allocs []Allocation) int {
	total := 0

	for _, a := range allocs {
		if a.Slots == Unlimited {
			return Unlimited
		}

		total += a.Slots
	}

	return total
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"slices"

	"github.com/matt-FFFFFF/spread/internal/hosts"
	"github.com/matt-FFFFFF/spread/internal/job"
)

// hostSlots tracks the free slots of one host. Free slot IDs are kept sorted
// so the lowest free ID is always reused first.
type hostSlots struct {
	host hosts.Host
	size int // hosts.Unlimited grows on demand
	free []int
	next int // highest ID handed out so far
}

func (h *hostSlots) hasFree() bool {
	return len(h.free) > 0 || h.size == hosts.Unlimited
}

func (h *hostSlots) acquire() int {
	if len(h.free) > 0 {
		id := h.free[0]
		h.free = h.free[1:]

		return id
	}

	h.next++

	return h.next
}

func (h *hostSlots) release(id int) {
	i, _ := slices.BinarySearch(h.free, id)
	h.free = slices.Insert(h.free, i, id)
}

// slotPool hands out slots round-robin across hosts.
// It is only used from the coordinator goroutine.
type slotPool struct {
	hosts  []*hostSlots
	byHost map[hosts.Host]*hostSlots
	cursor int
}

func newSlotPool(allocs []hosts.Allocation) *slotPool {
	p := &slotPool{byHost: make(map[hosts.Host]*hostSlots, len(allocs))}

	for _, a := range allocs {
		h := &hostSlots{host: a.Host, size: a.Slots}

		if a.Slots != hosts.Unlimited {
			for id := 1; id <= a.Slots; id++ {
				h.free = append(h.free, id)
			}

			h.next = a.Slots
		}

		p.hosts = append(p.hosts, h)
		p.byHost[a.Host] = h
	}

	return p
}

func (p *slotPool) hasFree() bool {
	for _, h := range p.hosts {
		if h.hasFree() {
			return true
		}
	}

	return false
}

// acquire returns a free slot. It must only be called when hasFree is true.
func (p *slotPool) acquire() job.Slot {
	n := len(p.hosts)

	for i := range n {
		idx := (p.cursor + i) % n

		h := p.hosts[idx]
		if !h.hasFree() {
			continue
		}

		p.cursor = (idx + 1) % n

		return job.Slot{ID: h.acquire(), Host: h.host}
	}

	panic("scheduler: acquire called without a free slot")
}

func (p *slotPool) release(s job.Slot) {
	if h, ok := p.byHost[s.Host]; ok {
		h.release(s.ID)
	}
}

// capacity returns the total number of slots, or hosts.Unlimited.
func (p *slotPool) capacity() int {
	total := 0

	for _, h := range p.hosts {
		if h.size == hosts.Unlimited {
			return hosts.Unlimited
		}

		total += h.size
	}

	return total
}

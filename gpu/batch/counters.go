// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

// Counters are the per-layer aggregate object-state counts used to skip
// whole draw passes.  They are updated on every portion append and every
// flag or color mutation, so they always equal the sum over per-portion
// state (see TestCounterConsistency).
type Counters struct {
	Objects     int
	Visible     int
	Transparent int
	Ghosted     int
	Highlighted int
	Selected    int
	Edged       int
	Clippable   int
	Pickable    int
}

// addFlags applies the counter deltas for newly set flags.
func (ct *Counters) addFlags(fl PortionFlags) {
	ct.applyFlags(fl, 1)
}

// updateFlags applies the counter deltas for a flags transition.
func (ct *Counters) updateFlags(old, new PortionFlags) {
	ct.applyFlags(old, -1)
	ct.applyFlags(new, 1)
}

func (ct *Counters) applyFlags(fl PortionFlags, delta int) {
	if fl.Has(Visible) {
		ct.Visible += delta
	}
	if fl.Has(Ghosted) {
		ct.Ghosted += delta
	}
	if fl.Has(Highlighted) {
		ct.Highlighted += delta
	}
	if fl.Has(Selected) {
		ct.Selected += delta
	}
	if fl.Has(Edges) {
		ct.Edged += delta
	}
	if fl.Has(Clippable) {
		ct.Clippable += delta
	}
	if fl.Has(Pickable) {
		ct.Pickable += delta
	}
}

// updateAlpha applies the transparent-count delta when a portion's color
// alpha crosses the opaque boundary.
func (ct *Counters) updateAlpha(old, new uint8) {
	if old < 255 {
		ct.Transparent--
	}
	if new < 255 {
		ct.Transparent++
	}
}

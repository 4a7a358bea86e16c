// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

// PortionFlags is the per-object state bitmask.  Flags are broadcast to
// every vertex of the object in two 4-byte streams (see encode methods),
// so the shaders can gate whole objects without index rewrites.
type PortionFlags int32

const (
	// Visible objects participate in the fill and edge passes.
	Visible PortionFlags = 1 << iota

	// Ghosted objects render in the ghosted silhouette pass instead of
	// the normal fill.
	Ghosted

	// Highlighted objects additionally render in the highlight pass.
	Highlighted

	// Selected objects additionally render in the selected pass.
	Selected

	// Clippable objects are cut by active section planes.
	Clippable

	// Edges objects render their edge indices in the edge passes.
	Edges

	// Pickable objects participate in the pick pass.
	Pickable
)

// Has reports whether all given flags are set.
func (fl PortionFlags) Has(f PortionFlags) bool {
	return fl&f == f
}

// encodeFlags returns the first per-vertex flags word:
// {visible, ghosted, highlighted, clippable} as 0/255 booleans.
func (fl PortionFlags) encodeFlags() [4]uint8 {
	var b [4]uint8
	if fl.Has(Visible) {
		b[0] = 255
	}
	if fl.Has(Ghosted) {
		b[1] = 255
	}
	if fl.Has(Highlighted) {
		b[2] = 255
	}
	if fl.Has(Clippable) {
		b[3] = 255
	}
	return b
}

// encodeFlags2 returns the second per-vertex flags word:
// {selected, edges, pickable, 0} as 0/255 booleans.
func (fl PortionFlags) encodeFlags2() [4]uint8 {
	var b [4]uint8
	if fl.Has(Selected) {
		b[0] = 255
	}
	if fl.Has(Edges) {
		b[1] = 255
	}
	if fl.Has(Pickable) {
		b[2] = 255
	}
	return b
}

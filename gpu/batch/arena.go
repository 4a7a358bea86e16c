// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

import (
	"fmt"
	"log/slog"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/math32"
	"github.com/bbrangeo/xeokit-sdk/gpu"
	"github.com/bbrangeo/xeokit-sdk/gpu/quant"
)

// Arena is the growable scratch region that one layer at a time packs
// source meshes into before upload.  Positions accumulate in layer
// reference space as float32 (quantization happens at finalize, once the
// layer-wide bounds are known); normals are oct-encoded on append; all
// per-object scalar state is broadcast per vertex.
//
// Single-writer discipline: the first append claims the arena for its
// layer, and the claim is released only by that layer's finalize.
// Appends on behalf of any other layer fail loudly.
type Arena struct {
	positions   math32.ArrayF32 // stride 3, layer reference space
	normals     []int8          // stride 4: oct x, y, padding
	colors      []uint8         // stride 4 RGBA
	flags       []uint8         // stride 4: visible, ghosted, highlighted, clippable
	flags2      []uint8         // stride 4: selected, edges, pickable, 0
	pickColors  []uint8         // stride 4 RGBA
	indices     math32.ArrayU32
	edgeIndices math32.ArrayU32

	// owner is the layer currently packing into this arena; nil when
	// unclaimed.  Explicit token rather than package state, so multiple
	// viewers in one process cannot interfere.
	owner *Layer
}

// NewArena returns an arena preallocated for about the given number of
// vertices, to reduce regrowth during loading.  It grows as needed.
func NewArena(vertexCapacity int) *Arena {
	if vertexCapacity <= 0 {
		vertexCapacity = 4096
	}
	return &Arena{
		positions:   make(math32.ArrayF32, 0, vertexCapacity*3),
		normals:     make([]int8, 0, vertexCapacity*4),
		colors:      make([]uint8, 0, vertexCapacity*4),
		flags:       make([]uint8, 0, vertexCapacity*4),
		flags2:      make([]uint8, 0, vertexCapacity*4),
		pickColors:  make([]uint8, 0, vertexCapacity*4),
		indices:     make(math32.ArrayU32, 0, vertexCapacity*3),
		edgeIndices: make(math32.ArrayU32, 0, vertexCapacity*2),
	}
}

// NumVertices returns the number of vertices currently packed.
func (ar *Arena) NumVertices() int {
	return len(ar.positions) / 3
}

// CanAppend reports whether an object with the given vertex count fits
// under the capacity ceiling of the given index format.
func (ar *Arena) CanAppend(vertexCount int, format gpu.IndexFormats) bool {
	return ar.NumVertices()+vertexCount <= format.MaxVertices()
}

// portionSpan records where one object landed in the packed arrays.
type portionSpan struct {
	vertexBase  int
	vertexCount int
	indexBase   int
	indexCount  int
	edgeBase    int
	edgeCount   int
}

// appendFor packs one object's geometry for the given layer, returning
// its span and its axis-aligned bounds in layer reference space.
// Claims the arena for the layer on first use.
func (ar *Arena) appendFor(ly *Layer, p *PortionParams) (portionSpan, math32.Box3, error) {
	var span portionSpan
	aabb := math32.B3Empty()
	if ar.owner == nil {
		ar.owner = ly
	} else if ar.owner != ly {
		return span, aabb, errors.Log(fmt.Errorf("batch.Arena: arena is claimed by layer %q; cannot pack layer %q (single-writer invariant)", ar.owner.Name, ly.Name))
	}
	nv := len(p.Positions) / 3
	if !ar.CanAppend(nv, ly.indexFormat) {
		return span, aabb, errors.Log(fmt.Errorf("batch.Arena: appending %d vertices exceeds %s capacity %d (capacity invariant; call CanCreatePortion first)", nv, ly.indexFormat, ly.indexFormat.MaxVertices()))
	}

	base := ar.NumVertices()
	span.vertexBase = base
	span.vertexCount = nv
	span.indexBase = len(ar.indices)
	span.indexCount = len(p.Indices)
	span.edgeBase = len(ar.edgeIndices)
	span.edgeCount = len(p.EdgeIndices)

	// positions: transform into layer space and expand the bounds in the
	// same traversal.
	for i := 0; i+2 < len(p.Positions); i += 3 {
		v := math32.Vec3(p.Positions[i], p.Positions[i+1], p.Positions[i+2])
		if p.Matrix != nil {
			v = v.MulMatrix4(p.Matrix)
		}
		aabb.ExpandByPoint(v)
		ar.positions = append(ar.positions, v.X, v.Y, v.Z)
	}

	// normals: orientation-correct transform (inverse transpose), then
	// oct-encode.  Objects without normals get zero entries so all
	// streams stay vertex-aligned.
	if len(p.Normals) >= nv*3 {
		nmat := normalMatrix(p.Matrix)
		for i := 0; i < nv*3; i += 3 {
			n := math32.Vec3(p.Normals[i], p.Normals[i+1], p.Normals[i+2])
			if nmat != nil {
				n = n.MulMatrix4AsVector4(nmat, 0).Normal()
			}
			ox, oy := quant.OctEncode(n)
			ar.normals = append(ar.normals, ox, oy, 0, 0)
		}
	} else {
		for i := 0; i < nv; i++ {
			ar.normals = append(ar.normals, 0, 0, 0, 0)
		}
	}

	// per-object scalars broadcast across every vertex.
	fb := p.Flags.encodeFlags()
	fb2 := p.Flags.encodeFlags2()
	for i := 0; i < nv; i++ {
		ar.colors = append(ar.colors, p.Color[0], p.Color[1], p.Color[2], p.Color[3])
		ar.flags = append(ar.flags, fb[0], fb[1], fb[2], fb[3])
		ar.flags2 = append(ar.flags2, fb2[0], fb2[1], fb2[2], fb2[3])
		ar.pickColors = append(ar.pickColors, p.PickColor[0], p.PickColor[1], p.PickColor[2], p.PickColor[3])
	}

	// indices rebased onto the shared vertex arrays.
	for _, ix := range p.Indices {
		ar.indices = append(ar.indices, ix+uint32(base))
	}
	for _, ix := range p.EdgeIndices {
		ar.edgeIndices = append(ar.edgeIndices, ix+uint32(base))
	}
	return span, aabb, nil
}

// release clears the single-writer claim and resets all length counters,
// keeping capacity for the next layer.  Only the owning layer may
// release.
func (ar *Arena) release(ly *Layer) error {
	if ar.owner != ly {
		return errors.Log(fmt.Errorf("batch.Arena: release by layer %q but arena is claimed by %q", ly.Name, ownerName(ar.owner)))
	}
	ar.owner = nil
	ar.positions = ar.positions[:0]
	ar.normals = ar.normals[:0]
	ar.colors = ar.colors[:0]
	ar.flags = ar.flags[:0]
	ar.flags2 = ar.flags2[:0]
	ar.pickColors = ar.pickColors[:0]
	ar.indices = ar.indices[:0]
	ar.edgeIndices = ar.edgeIndices[:0]
	return nil
}

func ownerName(ly *Layer) string {
	if ly == nil {
		return "<none>"
	}
	return ly.Name
}

// normalMatrix returns the inverse transpose of the given transform, or
// nil when no transform applies.  A singular transform falls back to the
// original matrix with a warning: normals skew but geometry still draws.
func normalMatrix(m *math32.Matrix4) *math32.Matrix4 {
	if m == nil {
		return nil
	}
	inv, err := m.Inverse()
	if err != nil {
		slog.Warn("batch: singular portion transform; normals will not be orientation-corrected", "err", err)
		return m
	}
	return inv.Transpose()
}

// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

// Types is the list of vertex attribute data types used by batched
// geometry buffers.  Quantized attributes use compact integer formats;
// every stream is padded to a 4-byte multiple per vertex because WebGPU
// requires vertex strides to be multiples of 4 and has no 3-component
// 16-bit format.
type Types int32

const (
	// Uint16Vector4 is the quantized position format: x,y,z in
	// [0, 65535] plus one padding word.
	Uint16Vector4 Types = iota

	// Snorm8Vector4 is the oct-encoded normal format: x,y oct components
	// in [-1, 1] plus two padding bytes.
	Snorm8Vector4

	// Unorm8Vector4 is the RGBA color and pick-color format.
	Unorm8Vector4

	// Uint8Vector4 is the per-vertex flags format, each component a
	// 0/255 boolean broadcast.
	Uint8Vector4
)

// TypeSizes gives data type sizes in bytes.
var TypeSizes = map[Types]int{
	Uint16Vector4: 8,
	Snorm8Vector4: 4,
	Unorm8Vector4: 4,
	Uint8Vector4:  4,
}

// Bytes returns number of bytes for this type.
func (tp Types) Bytes() int {
	return TypeSizes[tp]
}

// IndexFormats selects the index element width for a layer's index and
// edge-index buffers, chosen from device capabilities at construction.
type IndexFormats int32

const (
	// Index16 uses uint16 indices, capping a layer around 65k vertices.
	Index16 IndexFormats = iota

	// Index32 uses uint32 indices, for layers of several million vertices.
	Index32
)

// Bytes returns the per-index size in bytes.
func (ix IndexFormats) Bytes() int {
	if ix == Index32 {
		return 4
	}
	return 2
}

func (ix IndexFormats) String() string {
	if ix == Index32 {
		return "uint32"
	}
	return "uint16"
}

// MaxVertices returns the highest addressable vertex count for the format,
// with a small safety margin held back against primitive-restart values
// and rounding at the top of the range.
func (ix IndexFormats) MaxVertices() int {
	if ix == Index32 {
		return 1 << 23 // practical ceiling; device memory binds first
	}
	return 1<<16 - 6
}

// Topologies selects the primitive topology compiled into a program's
// fill pipelines.  It participates in the program cache key: layers with
// different topologies need different pipelines even under identical
// shading.
type Topologies int32

const (
	// TriangleTopology renders indexed triangle lists.
	TriangleTopology Topologies = iota

	// LineTopology renders indexed line lists.
	LineTopology

	// PointTopology renders indexed point lists.
	PointTopology
)

// Vertex attribute slot assignments, fixed across all batched-geometry
// pipelines so layers and shaders agree without negotiation.
const (
	PositionSlot = iota
	NormalSlot
	ColorSlot
	FlagsSlot
	Flags2Slot
	PickColorSlot
	VertexSlotsN
)

// Uniform bind group assignments.
const (
	// CameraGroup holds the frame-wide view and projection matrices.
	CameraGroup = 0

	// LayerGroup holds per-layer uniforms: the position decode matrix
	// and the silhouette color.
	LayerGroup = 1
)

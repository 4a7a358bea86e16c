// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu provides the device, buffer, and program layer that the
// batched geometry renderer is built on.  The production implementation
// runs on WebGPU via github.com/cogentcore/webgpu; a headless in-memory
// implementation ([MemDevice]) serves tests and CI, where no adapter is
// available.
package gpu

// Debug enables additional logging and validation checks.
var Debug = false

// Caps reports device capabilities relevant to batched geometry.
type Caps struct {
	// Index32 is true if 32-bit index buffers are supported.
	// All WebGPU adapters support them; software fallbacks may not.
	Index32 bool

	// MaxBufferSize is the maximum size of a single buffer in bytes.
	MaxBufferSize int
}

// BufferUsages are the ways a [Buffer] can be used by the renderer,
// determining the underlying usage flags at creation time.
type BufferUsages int32

const (
	// VertexBuffer holds per-vertex attribute data.
	VertexBuffer BufferUsages = iota

	// IndexBuffer holds triangle or line indices.
	IndexBuffer

	// UniformBuffer holds uniform data such as decode and camera matrices.
	UniformBuffer
)

// Buffer is a device-resident buffer of bytes.  After creation its size is
// immutable: updates go through [Buffer.WriteAt], which patches a sub-range
// in place and never reallocates.
type Buffer interface {
	// Label returns the debug label given at creation.
	Label() string

	// Size returns the buffer size in bytes.
	Size() int

	// WriteAt copies data into the buffer starting at the given byte
	// offset.  The write must fit within the existing allocation.
	WriteAt(offset int, data []byte) error

	// Release frees the underlying device memory.  The buffer must not
	// be used afterward.
	Release()
}

// Program is a compiled set of pipelines for one shading configuration,
// obtained from a [ProgramCache].  One Program covers all pass variants;
// individual pipelines are compiled lazily per variant.
type Program interface {
	// ID uniquely identifies this program within its device, so render
	// state tracking can detect redundant rebinds.
	ID() uint64

	// Valid reports whether the program survives on the current device
	// context.  After a context loss it returns false and the program
	// must be re-obtained from the cache.
	Valid() bool

	// Release frees the compiled pipelines.  Called by the cache when
	// the reference count reaches zero; not by layers directly.
	Release()
}

// ProgramVariants enumerates the pipeline variants a [Program] compiles,
// one per category of draw pass.
type ProgramVariants int32

const (
	// OpaqueVariant is the standard lit fill with depth write, no blending.
	OpaqueVariant ProgramVariants = iota

	// TransparentVariant is the lit fill with alpha blending enabled.
	TransparentVariant

	// SilhouetteVariant is the flat single-color fill used for the
	// ghosted, highlighted, and selected passes.
	SilhouetteVariant

	// EdgesVariant renders the edge index buffer as lines.
	EdgesVariant

	// PickVariant writes per-object pick colors to an offscreen target.
	PickVariant

	ProgramVariantsN
)

var programVariantNames = map[ProgramVariants]string{
	OpaqueVariant:      "opaque",
	TransparentVariant: "transparent",
	SilhouetteVariant:  "silhouette",
	EdgesVariant:       "edges",
	PickVariant:        "pick",
}

func (pv ProgramVariants) String() string {
	if nm, ok := programVariantNames[pv]; ok {
		return nm
	}
	return "unknown"
}

// RenderEncoder records draw commands for one pass.  The WebGPU
// implementation wraps a wgpu.RenderPassEncoder; the headless one records
// calls for inspection.
type RenderEncoder interface {
	// SetProgram binds the pipeline for the given program and variant.
	SetProgram(p Program, variant ProgramVariants) error

	// SetVertexBuffer binds a vertex buffer to the given slot.
	SetVertexBuffer(slot int, b Buffer)

	// SetIndexBuffer binds the index buffer with the given format.
	SetIndexBuffer(b Buffer, format IndexFormats)

	// SetUniforms binds the uniform buffer for the given bind group slot.
	SetUniforms(group int, b Buffer)

	// DrawIndexed draws count indices from the bound index buffer.
	DrawIndexed(count int)
}

// Device creates buffers and compiles programs.  Implementations:
// [NewWebGPUDevice] for production rendering, [NewMemDevice] for headless
// tests.
type Device interface {
	// CreateBuffer creates an immutable-size buffer initialized with the
	// given contents.
	CreateBuffer(label string, usage BufferUsages, contents []byte) (Buffer, error)

	// CreateProgram compiles a program for the given configuration.
	CreateProgram(cfg *ProgramConfig) (Program, error)

	// Caps returns device capabilities.
	Caps() Caps

	// Generation returns the context generation, incremented on every
	// context loss / restore cycle.  Programs compiled under an older
	// generation are invalid.
	Generation() int
}

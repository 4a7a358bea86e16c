// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package batch merges many small meshes into shared GPU buffers
// ("layers") so scenes with hundreds of thousands of objects draw in a
// handful of calls.  Each object becomes a portion: a sub-range of the
// layer's vertex and index arrays, with per-object state (color, flags,
// pick id) broadcast across its vertices so it can be updated in place
// with a partial buffer write, never a re-upload.
package batch

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/slicesx"
	"cogentcore.org/core/math32"
	"github.com/bbrangeo/xeokit-sdk/gpu"
	"github.com/bbrangeo/xeokit-sdk/gpu/quant"
	"github.com/cogentcore/webgpu/wgpu"
)

// LayerStates is the lifecycle state of a [Layer].
type LayerStates int32

const (
	// Building accepts portions; nothing is on the GPU yet.
	Building LayerStates = iota

	// Finalized has uploaded its buffers; portions can be mutated but
	// not added.
	Finalized

	// Destroyed has released its GPU resources.
	Destroyed
)

var layerStateNames = map[LayerStates]string{
	Building:  "building",
	Finalized: "finalized",
	Destroyed: "destroyed",
}

func (st LayerStates) String() string {
	if nm, ok := layerStateNames[st]; ok {
		return nm
	}
	return "unknown"
}

// PortionParams is the source geometry and initial state for one object
// added to a layer.
type PortionParams struct {
	// Positions are the object-space vertex positions, stride 3.
	Positions []float32

	// Normals are the object-space unit normals, stride 3; may be empty
	// for unlit primitives.
	Normals []float32

	// Indices are triangle (or line, or point) indices into Positions.
	Indices []uint32

	// EdgeIndices are line-list indices for the edge passes; may be empty.
	EdgeIndices []uint32

	// Matrix transforms the object into layer reference space; nil means
	// positions are already in layer space.
	Matrix *math32.Matrix4

	// Color is the initial RGBA color; alpha below 255 makes the object
	// transparent.
	Color [4]uint8

	// PickColor is the RGBA pick id written by the pick pass.
	PickColor [4]uint8

	// Flags is the initial object state.
	Flags PortionFlags
}

// Portion is the record of one object inside a finalized layer.
type Portion struct {
	span  portionSpan
	aabb  math32.Box3
	flags PortionFlags
	color [4]uint8
	pick  [4]uint8
}

// AABB returns the object's bounds in layer reference space.
func (pt *Portion) AABB() math32.Box3 { return pt.aabb }

// Flags returns the object's current state flags.
func (pt *Portion) Flags() PortionFlags { return pt.flags }

// Color returns the object's current RGBA color.
func (pt *Portion) Color() [4]uint8 { return pt.color }

// LayerOptions configures a new [Layer].
type LayerOptions struct {
	// Primitive is the geometry primitive type; invalid values fall back
	// to [Triangles].
	Primitive Primitives

	// Lights is the light configuration; layers with identical lighting
	// and clipping share one compiled program.  Nil gets defaults.
	Lights *gpu.Lights

	// SectionPlanes is the clipping configuration; nil means no clipping.
	SectionPlanes *gpu.SectionPlanes

	// Source overrides the built-in shader sources, for engines that
	// generate WGSL from the light and plane configuration.
	Source func(variant gpu.ProgramVariants) string
}

// Defaults fills unset options.
func (lo *LayerOptions) Defaults() {
	lo.Primitive = ValidPrimitive(lo.Primitive)
	if lo.Lights == nil {
		lo.Lights = &gpu.Lights{}
		lo.Lights.Defaults()
	}
}

// Layer owns one set of shared GPU buffers and the portions packed into
// them.  Build it by appending portions through an [Arena], then call
// [Layer.Finalize] once to quantize and upload; after that, per-object
// state changes patch the buffers in place.
//
// Layers are not safe for concurrent use; all scene mutation and
// rendering runs on one goroutine.
type Layer struct {
	// Name labels the layer and its buffers for debugging.
	Name string

	// Options are the construction options, defaulted.
	Options LayerOptions

	// Counters are the aggregate object-state counts driving pass skips.
	Counters Counters

	dev         gpu.Device
	cache       *gpu.ProgramCache
	arena       *Arena
	indexFormat gpu.IndexFormats
	state       LayerStates
	portions    []Portion
	aabb        math32.Box3
	decode      math32.Matrix4

	positionsBuf gpu.Buffer
	normalsBuf   gpu.Buffer
	colorsBuf    gpu.Buffer
	flagsBuf     gpu.Buffer
	flags2Buf    gpu.Buffer
	pickBuf      gpu.Buffer
	indicesBuf   gpu.Buffer
	edgesBuf     gpu.Buffer
	uniformsBuf  gpu.Buffer

	program gpu.Program
	progKey gpu.ProgramKey
	progCfg gpu.ProgramConfig

	// stream lengths captured at finalize, after which the arena counters
	// are gone.
	numVertices    int
	numIndices     int
	numEdgeIndices int

	// scratch holds broadcast bytes for partial updates, reused across
	// mutations and sized to the largest portion touched so far.
	scratch []uint8
}

// NewLayer returns a layer in the [Building] state, packing into the
// given arena.  The index format is chosen from device capabilities.
func NewLayer(dev gpu.Device, cache *gpu.ProgramCache, arena *Arena, name string, opts *LayerOptions) *Layer {
	ly := &Layer{Name: name, dev: dev, cache: cache, arena: arena}
	if opts != nil {
		ly.Options = *opts
	}
	ly.Options.Defaults()
	ly.indexFormat = gpu.Index16
	if dev.Caps().Index32 {
		ly.indexFormat = gpu.Index32
	}
	ly.aabb = math32.B3Empty()
	ly.progKey = gpu.ProgramKey{
		LightsHash:        ly.Options.Lights.Hash(),
		SectionPlanesHash: ly.Options.SectionPlanes.Hash(),
		Topology:          ly.Options.Primitive.Topology(),
	}
	ly.progCfg = gpu.ProgramConfig{
		Name:   name,
		Key:    ly.progKey,
		Lights: ly.Options.Lights,
		Source: ly.Options.Source,
	}
	return ly
}

// State returns the lifecycle state.
func (ly *Layer) State() LayerStates { return ly.state }

// NumPortions returns the number of objects in the layer.
func (ly *Layer) NumPortions() int { return len(ly.portions) }

// NumVertices returns the packed vertex count, valid after finalize.
func (ly *Layer) NumVertices() int { return ly.numVertices }

// AABB returns the union bounds of all portions, in layer reference
// space.
func (ly *Layer) AABB() math32.Box3 { return ly.aabb }

// DecodeMatrix returns the position decode matrix computed at finalize.
func (ly *Layer) DecodeMatrix() math32.Matrix4 { return ly.decode }

// IndexFormat returns the index element format chosen at construction.
func (ly *Layer) IndexFormat() gpu.IndexFormats { return ly.indexFormat }

// Portion returns the record for the given portion id.
func (ly *Layer) Portion(id int) (*Portion, error) {
	if id < 0 || id >= len(ly.portions) {
		return nil, errors.Log(fmt.Errorf("batch.Layer %q: no portion %d (have %d)", ly.Name, id, len(ly.portions)))
	}
	return &ly.portions[id], nil
}

// CanCreatePortion reports whether an object with the given vertex count
// still fits in this layer.  Callers use it to decide when to finalize
// the current layer and start a new one.
func (ly *Layer) CanCreatePortion(vertexCount int) bool {
	return ly.state == Building && ly.arena.CanAppend(vertexCount, ly.indexFormat)
}

// CreatePortion packs one object into the layer and returns its portion
// id.  Only valid in the [Building] state.
func (ly *Layer) CreatePortion(p *PortionParams) (int, error) {
	if ly.state != Building {
		return -1, errors.Log(fmt.Errorf("batch.Layer %q: CreatePortion in state %v; portions can only be added before finalize", ly.Name, ly.state))
	}
	if err := ly.validateParams(p); err != nil {
		return -1, err
	}
	if ly.Options.Primitive == Points && len(p.Indices) == 0 {
		pp := *p
		pp.Indices = sequentialIndices(len(p.Positions) / 3)
		p = &pp
	}
	span, aabb, err := ly.arena.appendFor(ly, p)
	if err != nil {
		return -1, err
	}
	ly.portions = append(ly.portions, Portion{
		span:  span,
		aabb:  aabb,
		flags: p.Flags,
		color: p.Color,
		pick:  p.PickColor,
	})
	ly.aabb.ExpandByBox(aabb)
	ly.Counters.Objects++
	ly.Counters.addFlags(p.Flags)
	if p.Color[3] < 255 {
		ly.Counters.Transparent++
	}
	return len(ly.portions) - 1, nil
}

func (ly *Layer) validateParams(p *PortionParams) error {
	nv := len(p.Positions) / 3
	if nv == 0 || len(p.Positions)%3 != 0 {
		return errors.Log(fmt.Errorf("batch.Layer %q: portion positions must be non-empty with stride 3, got %d floats", ly.Name, len(p.Positions)))
	}
	if ly.Options.Primitive != Points && len(p.Indices) == 0 {
		return errors.Log(fmt.Errorf("batch.Layer %q: %v portion requires indices", ly.Name, ly.Options.Primitive))
	}
	for _, ix := range p.Indices {
		if int(ix) >= nv {
			return errors.Log(fmt.Errorf("batch.Layer %q: index %d out of range for %d vertices", ly.Name, ix, nv))
		}
	}
	for _, ix := range p.EdgeIndices {
		if int(ix) >= nv {
			return errors.Log(fmt.Errorf("batch.Layer %q: edge index %d out of range for %d vertices", ly.Name, ix, nv))
		}
	}
	return nil
}

// Finalize quantizes the packed geometry against the layer-wide bounds,
// uploads every stream to the device, compiles (or shares) the program,
// and releases the arena claim.  A second call is an error: buffers are
// immutable after upload and must not be silently replaced.
func (ly *Layer) Finalize() error {
	switch ly.state {
	case Finalized:
		return errors.Log(fmt.Errorf("batch.Layer %q: already finalized", ly.Name))
	case Destroyed:
		return errors.Log(fmt.Errorf("batch.Layer %q: finalize after destroy", ly.Name))
	}
	ar := ly.arena
	if ar.owner != nil && ar.owner != ly {
		return errors.Log(fmt.Errorf("batch.Layer %q: finalize while arena is claimed by layer %q", ly.Name, ar.owner.Name))
	}
	quantized, decode := quant.CompressPositions(ar.positions, ly.aabb)
	ly.decode = decode

	var err error
	ly.positionsBuf, err = ly.createBuf("positions", gpu.VertexBuffer, packUint16x3To4(quantized), &Stats.Positions, err)
	ly.normalsBuf, err = ly.createBuf("normals", gpu.VertexBuffer, int8Bytes(ar.normals), &Stats.Normals, err)
	ly.colorsBuf, err = ly.createBuf("colors", gpu.VertexBuffer, ar.colors, &Stats.Colors, err)
	ly.flagsBuf, err = ly.createBuf("flags", gpu.VertexBuffer, ar.flags, &Stats.Flags, err)
	ly.flags2Buf, err = ly.createBuf("flags2", gpu.VertexBuffer, ar.flags2, &Stats.Flags, err)
	ly.pickBuf, err = ly.createBuf("pick-colors", gpu.VertexBuffer, ar.pickColors, &Stats.PickColors, err)
	ly.indicesBuf, err = ly.createBuf("indices", gpu.IndexBuffer, packIndices(ar.indices, ly.indexFormat), &Stats.Indices, err)
	ly.edgesBuf, err = ly.createBuf("edge-indices", gpu.IndexBuffer, packIndices(ar.edgeIndices, ly.indexFormat), &Stats.EdgeIndices, err)
	ly.uniformsBuf, err = ly.createBuf("uniforms", gpu.UniformBuffer, ly.uniformBytes(), &Stats.Uniforms, err)
	if err != nil {
		ly.subStats()
		ly.releaseBuffers()
		return errors.Log(fmt.Errorf("batch.Layer %q: finalize: %w", ly.Name, err))
	}

	ly.program, err = ly.cache.Get(&ly.progCfg)
	if err != nil {
		ly.subStats()
		ly.releaseBuffers()
		return errors.Log(fmt.Errorf("batch.Layer %q: finalize: %w", ly.Name, err))
	}

	ly.numVertices = ar.NumVertices()
	ly.numIndices = len(ar.indices)
	ly.numEdgeIndices = len(ar.edgeIndices)
	if ar.owner == ly {
		if err := ar.release(ly); err != nil {
			return err
		}
	}
	Stats.Layers++
	ly.state = Finalized
	return nil
}

// createBuf creates one stream buffer and attributes its size to the
// given stat.  Empty streams create no buffer.  Threads a prior error
// through so finalize reads as a flat sequence.
func (ly *Layer) createBuf(label string, usage gpu.BufferUsages, data []byte, stat *int, prior error) (gpu.Buffer, error) {
	if prior != nil {
		return nil, prior
	}
	if len(data) == 0 {
		return nil, nil
	}
	b, err := ly.dev.CreateBuffer(ly.Name+":"+label, usage, data)
	if err != nil {
		return nil, err
	}
	*stat += len(data)
	return b, nil
}

// uniformBytes packs the layer uniform block: the column-major decode
// matrix followed by the silhouette color (initially transparent black).
func (ly *Layer) uniformBytes() []byte {
	fs := make([]float32, 20)
	copy(fs, ly.decode[:])
	return wgpu.ToBytes(fs)
}

// SetSilhouetteColor updates the color used by the silhouette and edge
// passes.  The dispatcher sets it per pass (ghost, highlight, select
// materials differ).  Only valid on a finalized layer.
func (ly *Layer) SetSilhouetteColor(color math32.Vector4) error {
	if ly.state != Finalized {
		return errors.Log(fmt.Errorf("batch.Layer %q: SetSilhouetteColor in state %v", ly.Name, ly.state))
	}
	return ly.uniformsBuf.WriteAt(64, wgpu.ToBytes([]float32{color.X, color.Y, color.Z, color.W}))
}

// SetFlags changes one object's state flags, updating the aggregate
// counters and patching the object's vertex range in both flags streams.
func (ly *Layer) SetFlags(id int, fl PortionFlags) error {
	pt, err := ly.mutablePortion(id)
	if err != nil {
		return err
	}
	if pt.flags == fl {
		return nil
	}
	ly.Counters.updateFlags(pt.flags, fl)
	pt.flags = fl
	if err := ly.broadcast(ly.flagsBuf, pt.span, fl.encodeFlags()); err != nil {
		return err
	}
	return ly.broadcast(ly.flags2Buf, pt.span, fl.encodeFlags2())
}

// SetColor changes one object's RGBA color, updating the transparent
// counter when the alpha crosses the opaque boundary.
func (ly *Layer) SetColor(id int, color [4]uint8) error {
	pt, err := ly.mutablePortion(id)
	if err != nil {
		return err
	}
	if pt.color == color {
		return nil
	}
	ly.Counters.updateAlpha(pt.color[3], color[3])
	pt.color = color
	return ly.broadcast(ly.colorsBuf, pt.span, color)
}

// SetPickColor changes one object's pick id color.
func (ly *Layer) SetPickColor(id int, color [4]uint8) error {
	pt, err := ly.mutablePortion(id)
	if err != nil {
		return err
	}
	if pt.pick == color {
		return nil
	}
	pt.pick = color
	return ly.broadcast(ly.pickBuf, pt.span, color)
}

func (ly *Layer) mutablePortion(id int) (*Portion, error) {
	if ly.state != Finalized {
		return nil, errors.Log(fmt.Errorf("batch.Layer %q: mutation in state %v; portions are mutable only after finalize", ly.Name, ly.state))
	}
	return ly.Portion(id)
}

// broadcast replicates a 4-byte word across the portion's vertex range,
// patching only the portion's own byte range of the buffer.
func (ly *Layer) broadcast(buf gpu.Buffer, span portionSpan, word [4]uint8) error {
	if buf == nil {
		return nil
	}
	n := span.vertexCount * 4
	ly.scratch = slicesx.SetLength(ly.scratch, n)
	for i := 0; i < n; i += 4 {
		copy(ly.scratch[i:i+4], word[:])
	}
	return buf.WriteAt(span.vertexBase*4, ly.scratch)
}

// ensureProgram refreshes the layer's program handle after a context
// loss.  The extra Get/Put pair leaves the reference count unchanged
// while forcing a recompile of a stale entry.
func (ly *Layer) ensureProgram() error {
	if ly.program != nil && ly.program.Valid() {
		return nil
	}
	prog, err := ly.cache.Get(&ly.progCfg)
	if err != nil {
		return err
	}
	ly.cache.Put(ly.progKey)
	ly.program = prog
	return nil
}

// Destroy releases the layer's buffers and its program reference.
// Counters and memory stats are rolled back; a destroyed layer rejects
// all further operations.
func (ly *Layer) Destroy() error {
	switch ly.state {
	case Destroyed:
		return errors.Log(fmt.Errorf("batch.Layer %q: already destroyed", ly.Name))
	case Building:
		// never uploaded: just give the arena back.
		if ly.arena.owner == ly {
			if err := ly.arena.release(ly); err != nil {
				return err
			}
		}
		ly.state = Destroyed
		return nil
	}
	ly.subStats()
	ly.releaseBuffers()
	ly.cache.Put(ly.progKey)
	ly.program = nil
	Stats.Layers--
	ly.state = Destroyed
	return nil
}

// subStats rolls back the memory stats attributed to the layer's buffers,
// on destroy and when finalize fails partway through the uploads.
func (ly *Layer) subStats() {
	subStat(&Stats.Positions, ly.positionsBuf)
	subStat(&Stats.Normals, ly.normalsBuf)
	subStat(&Stats.Colors, ly.colorsBuf)
	subStat(&Stats.Flags, ly.flagsBuf)
	subStat(&Stats.Flags, ly.flags2Buf)
	subStat(&Stats.PickColors, ly.pickBuf)
	subStat(&Stats.Indices, ly.indicesBuf)
	subStat(&Stats.EdgeIndices, ly.edgesBuf)
	subStat(&Stats.Uniforms, ly.uniformsBuf)
}

func subStat(stat *int, b gpu.Buffer) {
	if b != nil {
		*stat -= b.Size()
	}
}

func (ly *Layer) releaseBuffers() {
	for _, b := range []gpu.Buffer{
		ly.positionsBuf, ly.normalsBuf, ly.colorsBuf, ly.flagsBuf,
		ly.flags2Buf, ly.pickBuf, ly.indicesBuf, ly.edgesBuf, ly.uniformsBuf,
	} {
		if b != nil {
			b.Release()
		}
	}
	ly.positionsBuf, ly.normalsBuf, ly.colorsBuf = nil, nil, nil
	ly.flagsBuf, ly.flags2Buf, ly.pickBuf = nil, nil, nil
	ly.indicesBuf, ly.edgesBuf, ly.uniformsBuf = nil, nil, nil
}

// packUint16x3To4 converts stride-3 quantized positions to the stride-4
// byte layout required for the Uint16x4 vertex format, padding the
// fourth component with zero.
func packUint16x3To4(q []uint16) []byte {
	nv := len(q) / 3
	out := make([]uint16, nv*4)
	for i := 0; i < nv; i++ {
		out[i*4] = q[i*3]
		out[i*4+1] = q[i*3+1]
		out[i*4+2] = q[i*3+2]
	}
	return wgpu.ToBytes(out)
}

func int8Bytes(s []int8) []byte {
	return wgpu.ToBytes(s)
}

func sequentialIndices(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

// packIndices serializes indices at the width of the given format.
// Arena indices are always uint32; the 16-bit path narrows, which the
// capacity ceiling guarantees is lossless.
func packIndices(ix math32.ArrayU32, format gpu.IndexFormats) []byte {
	if len(ix) == 0 {
		return nil
	}
	if format == gpu.Index32 {
		return wgpu.ToBytes([]uint32(ix))
	}
	narrow := make([]uint16, len(ix))
	for i, v := range ix {
		narrow[i] = uint16(v)
	}
	return wgpu.ToBytes(narrow)
}

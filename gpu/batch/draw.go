// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/bbrangeo/xeokit-sdk/gpu"
)

// Passes enumerates the draw passes a frame dispatches layers through.
type Passes int32

const (
	// OpaquePass is the standard depth-writing lit fill.
	OpaquePass Passes = iota

	// TransparentPass is the blended lit fill, after all opaque geometry.
	TransparentPass

	// GhostedPass fills ghosted objects with the ghost material color.
	GhostedPass

	// HighlightedPass fills highlighted objects with the highlight color.
	HighlightedPass

	// SelectedPass fills selected objects with the selection color.
	SelectedPass

	// EdgesPass draws edge indices as lines.
	EdgesPass

	// PickPass writes pick id colors to an offscreen target, only on
	// picking requests, never as part of the normal frame.
	PickPass

	PassesN
)

var passNames = map[Passes]string{
	OpaquePass:      "opaque",
	TransparentPass: "transparent",
	GhostedPass:     "ghosted",
	HighlightedPass: "highlighted",
	SelectedPass:    "selected",
	EdgesPass:       "edges",
	PickPass:        "pick",
}

func (ps Passes) String() string {
	if nm, ok := passNames[ps]; ok {
		return nm
	}
	return "unknown"
}

// Variant returns the program variant the pass renders with.
func (ps Passes) Variant() gpu.ProgramVariants {
	switch ps {
	case TransparentPass:
		return gpu.TransparentVariant
	case GhostedPass, HighlightedPass, SelectedPass:
		return gpu.SilhouetteVariant
	case EdgesPass:
		return gpu.EdgesVariant
	case PickPass:
		return gpu.PickVariant
	}
	return gpu.OpaqueVariant
}

// NeedsPass reports whether the layer has anything to draw in the given
// pass, from the aggregate counters alone.  This is the whole point of
// maintaining the counters: an entire layer drops out of a pass with one
// integer comparison and no per-object walk.
func (ly *Layer) NeedsPass(pass Passes) bool {
	if ly.state != Finalized {
		return false
	}
	ct := &ly.Counters
	switch pass {
	case OpaquePass:
		return ct.Visible > 0 && ct.Transparent < ct.Objects &&
			ct.Ghosted < ct.Objects && ly.numIndices > 0
	case TransparentPass:
		return ct.Visible > 0 && ct.Transparent > 0 &&
			ct.Ghosted < ct.Objects && ly.numIndices > 0
	case GhostedPass:
		return ct.Visible > 0 && ct.Ghosted > 0 && ly.numIndices > 0
	case HighlightedPass:
		return ct.Visible > 0 && ct.Highlighted > 0 && ly.numIndices > 0
	case SelectedPass:
		return ct.Visible > 0 && ct.Selected > 0 && ly.numIndices > 0
	case EdgesPass:
		return ct.Visible > 0 && ct.Edged > 0 && ly.numEdgeIndices > 0
	case PickPass:
		return ct.Visible > 0 && ct.Pickable > 0 && ly.numIndices > 0
	}
	return false
}

// DrawPass records the layer's draw for the given pass, or nothing when
// [Layer.NeedsPass] says the pass has no work.
func (ly *Layer) DrawPass(fc *FrameContext, pass Passes) error {
	if !ly.NeedsPass(pass) {
		return nil
	}
	if err := ly.ensureProgram(); err != nil {
		return err
	}
	if err := fc.bindProgram(ly.program, pass.Variant()); err != nil {
		return err
	}
	enc := fc.Encoder
	if fc.Camera != nil {
		enc.SetUniforms(gpu.CameraGroup, fc.Camera)
	}
	enc.SetUniforms(gpu.LayerGroup, ly.uniformsBuf)
	enc.SetVertexBuffer(gpu.PositionSlot, ly.positionsBuf)
	enc.SetVertexBuffer(gpu.NormalSlot, ly.normalsBuf)
	enc.SetVertexBuffer(gpu.ColorSlot, ly.colorsBuf)
	enc.SetVertexBuffer(gpu.FlagsSlot, ly.flagsBuf)
	enc.SetVertexBuffer(gpu.Flags2Slot, ly.flags2Buf)
	enc.SetVertexBuffer(gpu.PickColorSlot, ly.pickBuf)
	if pass == EdgesPass {
		enc.SetIndexBuffer(ly.edgesBuf, ly.indexFormat)
		enc.DrawIndexed(ly.numEdgeIndices)
	} else {
		enc.SetIndexBuffer(ly.indicesBuf, ly.indexFormat)
		enc.DrawIndexed(ly.numIndices)
	}
	fc.DrawCalls++
	return nil
}

// FrameContext carries per-frame render state across layers: the pass
// encoder, the camera uniforms, and the last-bound program so redundant
// pipeline binds are skipped when consecutive layers share a program.
type FrameContext struct {
	// Encoder records the draw commands for the current pass.
	Encoder gpu.RenderEncoder

	// Camera is the frame-wide camera uniform buffer.
	Camera gpu.Buffer

	// DrawCalls counts indexed draws issued this frame.
	DrawCalls int

	// ProgramBinds counts actual pipeline binds this frame; the gap to
	// DrawCalls measures how well layer ordering shares programs.
	ProgramBinds int

	lastProgram uint64
	lastVariant gpu.ProgramVariants
	haveProgram bool
}

// Reset points the context at a new pass encoder and clears the bind
// tracking.  Frame counters carry across passes; see
// [FrameContext.ResetFrame].
func (fc *FrameContext) Reset(enc gpu.RenderEncoder) {
	fc.Encoder = enc
	fc.haveProgram = false
}

// ResetFrame clears the per-frame statistics.
func (fc *FrameContext) ResetFrame() {
	fc.DrawCalls = 0
	fc.ProgramBinds = 0
	fc.haveProgram = false
}

func (fc *FrameContext) bindProgram(p gpu.Program, variant gpu.ProgramVariants) error {
	if fc.Encoder == nil {
		return errors.Log(fmt.Errorf("batch.FrameContext: no encoder; call Reset with the pass encoder first"))
	}
	if fc.haveProgram && fc.lastProgram == p.ID() && fc.lastVariant == variant {
		return nil
	}
	if err := fc.Encoder.SetProgram(p, variant); err != nil {
		return err
	}
	fc.lastProgram = p.ID()
	fc.lastVariant = variant
	fc.haveProgram = true
	fc.ProgramBinds++
	return nil
}

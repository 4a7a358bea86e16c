// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/ordmap"
	"cogentcore.org/core/math32"
	"github.com/bbrangeo/xeokit-sdk/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// PassMaterials are the flat colors used by the silhouette and edge
// passes, set into each layer's uniforms as its pass is dispatched.
type PassMaterials struct {
	// Ghosted is the ghost fill color, typically translucent.
	Ghosted math32.Vector4

	// Highlighted is the highlight fill color.
	Highlighted math32.Vector4

	// Selected is the selection fill color.
	Selected math32.Vector4

	// Edges is the edge line color.
	Edges math32.Vector4
}

// Defaults sets the standard materials: translucent blue-gray ghosting,
// translucent yellow highlight, translucent green selection, dark edges.
func (pm *PassMaterials) Defaults() {
	pm.Ghosted = math32.Vec4(0.7, 0.7, 0.9, 0.4)
	pm.Highlighted = math32.Vec4(1.0, 1.0, 0.0, 0.5)
	pm.Selected = math32.Vec4(0.0, 1.0, 0.0, 0.5)
	pm.Edges = math32.Vec4(0.2, 0.2, 0.2, 1.0)
}

// color returns the material for the given pass, or false for the fill
// passes, which take their colors from the vertex streams.
func (pm *PassMaterials) color(pass Passes) (math32.Vector4, bool) {
	switch pass {
	case GhostedPass:
		return pm.Ghosted, true
	case HighlightedPass:
		return pm.Highlighted, true
	case SelectedPass:
		return pm.Selected, true
	case EdgesPass:
		return pm.Edges, true
	}
	return math32.Vector4{}, false
}

// framePasses is the fixed dispatch order of a normal frame.  Opaque
// geometry first to prime the depth buffer, then blended passes back to
// front in emphasis priority, edges last on top.  Picking is excluded:
// it runs on demand against its own target.
var framePasses = []Passes{
	OpaquePass, TransparentPass, GhostedPass, HighlightedPass, SelectedPass, EdgesPass,
}

// Dispatcher owns the layer registry and walks it once per pass, in
// insertion order, letting each layer's counters veto its draw.  It also
// owns the frame-wide camera uniform buffer.
//
// Not safe for concurrent use; one dispatcher serves one render thread.
type Dispatcher struct {
	// Materials are the silhouette and edge pass colors.
	Materials PassMaterials

	// Frame is the per-frame render state and statistics.
	Frame FrameContext

	dev    gpu.Device
	layers ordmap.Map[string, *Layer]
}

// NewDispatcher returns a dispatcher on the given device, with an
// identity camera until [Dispatcher.SetCamera] is called.
func NewDispatcher(dev gpu.Device) (*Dispatcher, error) {
	ds := &Dispatcher{dev: dev}
	ds.Materials.Defaults()
	var view, proj math32.Matrix4
	view.SetIdentity()
	proj.SetIdentity()
	cam, err := dev.CreateBuffer("frame:camera", gpu.UniformBuffer, cameraBytes(&view, &proj))
	if err != nil {
		return nil, errors.Log(fmt.Errorf("batch.NewDispatcher: %w", err))
	}
	ds.Frame.Camera = cam
	Stats.Uniforms += cam.Size()
	return ds, nil
}

// Add registers a layer under its name.  Insertion order is dispatch
// order, so group layers sharing a program to minimize pipeline binds.
func (ds *Dispatcher) Add(ly *Layer) error {
	if _, ok := ds.layers.ValueByKeyTry(ly.Name); ok {
		return errors.Log(fmt.Errorf("batch.Dispatcher: layer %q already registered", ly.Name))
	}
	ds.layers.Add(ly.Name, ly)
	return nil
}

// Layer returns the registered layer with the given name, or nil.
func (ds *Dispatcher) Layer(name string) *Layer {
	ly, _ := ds.layers.ValueByKeyTry(name)
	return ly
}

// NumLayers returns the number of registered layers.
func (ds *Dispatcher) NumLayers() int {
	return ds.layers.Len()
}

// Remove unregisters and destroys the named layer.
func (ds *Dispatcher) Remove(name string) error {
	ly, ok := ds.layers.ValueByKeyTry(name)
	if !ok {
		return errors.Log(fmt.Errorf("batch.Dispatcher: no layer %q", name))
	}
	ds.layers.DeleteKey(name)
	return ly.Destroy()
}

// SetCamera updates the frame camera uniforms in place.
func (ds *Dispatcher) SetCamera(view, proj *math32.Matrix4) error {
	return ds.Frame.Camera.WriteAt(0, cameraBytes(view, proj))
}

// DispatchPass walks every registered layer through one pass, applying
// the pass material to layers that will draw.
func (ds *Dispatcher) DispatchPass(pass Passes) error {
	color, hasColor := ds.Materials.color(pass)
	for _, kv := range ds.layers.Order {
		ly := kv.Value
		if !ly.NeedsPass(pass) {
			continue
		}
		if hasColor {
			if err := ly.SetSilhouetteColor(color); err != nil {
				return err
			}
		}
		if err := ly.DrawPass(&ds.Frame, pass); err != nil {
			return err
		}
	}
	return nil
}

// DispatchFrame records one full frame into the given pass encoder:
// every normal pass in fixed order, pick excluded.
func (ds *Dispatcher) DispatchFrame(enc gpu.RenderEncoder) error {
	ds.Frame.Reset(enc)
	ds.Frame.ResetFrame()
	for _, pass := range framePasses {
		if err := ds.DispatchPass(pass); err != nil {
			return err
		}
	}
	return nil
}

// DispatchPick records the pick pass into the given encoder, which must
// target the offscreen pick attachment.
func (ds *Dispatcher) DispatchPick(enc gpu.RenderEncoder) error {
	ds.Frame.Reset(enc)
	return ds.DispatchPass(PickPass)
}

// Destroy removes and destroys every layer and releases the camera
// buffer.
func (ds *Dispatcher) Destroy() error {
	var first error
	for _, kv := range ds.layers.Order {
		if err := kv.Value.Destroy(); err != nil && first == nil {
			first = err
		}
	}
	ds.layers.Reset()
	if ds.Frame.Camera != nil {
		Stats.Uniforms -= ds.Frame.Camera.Size()
		ds.Frame.Camera.Release()
		ds.Frame.Camera = nil
	}
	return first
}

// cameraBytes packs the camera uniform block: column-major view then
// projection.
func cameraBytes(view, proj *math32.Matrix4) []byte {
	fs := make([]float32, 32)
	copy(fs[:16], view[:])
	copy(fs[16:], proj[:])
	return wgpu.ToBytes(fs)
}

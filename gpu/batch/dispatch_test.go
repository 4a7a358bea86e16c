// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

import (
	"encoding/binary"
	"math"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/bbrangeo/xeokit-sdk/gpu"
	"github.com/stretchr/testify/assert"
)

func buildLayer(t *testing.T, dev gpu.Device, cache *gpu.ProgramCache, name string, colors [][4]uint8, flags []PortionFlags) *Layer {
	t.Helper()
	ly := NewLayer(dev, cache, NewArena(0), name, nil)
	for i := range colors {
		_, err := ly.CreatePortion(triangleParams(float32(i*2), colors[i], flags[i]))
		assert.NoError(t, err)
	}
	assert.NoError(t, ly.Finalize())
	return ly
}

func variantCounts(draws []gpu.MemDraw) map[gpu.ProgramVariants]int {
	counts := map[gpu.ProgramVariants]int{}
	for _, d := range draws {
		counts[d.Variant]++
	}
	return counts
}

func TestDispatchFramePassGating(t *testing.T) {
	dev := gpu.NewMemDevice()
	cache := gpu.NewProgramCache(dev)
	opaque := [4]uint8{200, 200, 200, 255}
	glass := [4]uint8{100, 100, 255, 120}

	// one opaque layer with edges, one fully transparent, one fully
	// ghosted, one hidden.
	la := buildLayer(t, dev, cache, "walls",
		[][4]uint8{opaque, opaque}, []PortionFlags{Visible | Edges, Visible | Edges})
	lb := buildLayer(t, dev, cache, "windows",
		[][4]uint8{glass}, []PortionFlags{Visible})
	lc := buildLayer(t, dev, cache, "context",
		[][4]uint8{opaque}, []PortionFlags{Visible | Ghosted})
	ld := buildLayer(t, dev, cache, "hidden",
		[][4]uint8{opaque}, []PortionFlags{0})

	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)
	for _, ly := range []*Layer{la, lb, lc, ld} {
		assert.NoError(t, ds.Add(ly))
	}

	enc := &gpu.MemEncoder{}
	assert.NoError(t, ds.DispatchFrame(enc))

	counts := variantCounts(enc.Draws)
	assert.Equal(t, 1, counts[gpu.OpaqueVariant], "only the opaque layer draws opaque")
	assert.Equal(t, 1, counts[gpu.TransparentVariant])
	assert.Equal(t, 1, counts[gpu.SilhouetteVariant], "only the ghosted layer draws silhouette")
	assert.Equal(t, 1, counts[gpu.EdgesVariant])
	assert.Equal(t, 0, counts[gpu.PickVariant], "picking never runs in the normal frame")
	assert.Equal(t, 4, ds.Frame.DrawCalls)

	// edge draws use the edge index count: 2 portions x 6 edge indices.
	for _, d := range enc.Draws {
		if d.Variant == gpu.EdgesVariant {
			assert.Equal(t, 12, d.IndexCount)
		}
	}
}

func TestDispatchSkipsEmptyFrame(t *testing.T) {
	dev := gpu.NewMemDevice()
	cache := gpu.NewProgramCache(dev)
	ly := buildLayer(t, dev, cache, "hidden",
		[][4]uint8{{255, 255, 255, 255}}, []PortionFlags{0})

	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)
	assert.NoError(t, ds.Add(ly))

	enc := &gpu.MemEncoder{}
	assert.NoError(t, ds.DispatchFrame(enc))
	assert.Empty(t, enc.Draws)
	assert.Equal(t, 0, ds.Frame.ProgramBinds)

	// making the object visible brings the layer back with no re-upload.
	assert.NoError(t, ly.SetFlags(0, Visible))
	enc = &gpu.MemEncoder{}
	assert.NoError(t, ds.DispatchFrame(enc))
	assert.Len(t, enc.Draws, 1)
}

func TestProgramBindDedupe(t *testing.T) {
	dev := gpu.NewMemDevice()
	cache := gpu.NewProgramCache(dev)
	white := [4]uint8{255, 255, 255, 255}
	la := buildLayer(t, dev, cache, "a", [][4]uint8{white}, []PortionFlags{Visible})
	lb := buildLayer(t, dev, cache, "b", [][4]uint8{white}, []PortionFlags{Visible})

	// identical shading: one compiled program for both layers.
	assert.Equal(t, 1, cache.Len())

	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)
	assert.NoError(t, ds.Add(la))
	assert.NoError(t, ds.Add(lb))

	enc := &gpu.MemEncoder{}
	assert.NoError(t, ds.DispatchFrame(enc))
	assert.Equal(t, 2, ds.Frame.DrawCalls)
	assert.Equal(t, 1, ds.Frame.ProgramBinds, "consecutive layers sharing a program bind it once")
}

func TestDispatchPick(t *testing.T) {
	dev := gpu.NewMemDevice()
	cache := gpu.NewProgramCache(dev)
	ly := buildLayer(t, dev, cache, "scene",
		[][4]uint8{{255, 0, 0, 255}}, []PortionFlags{Visible | Pickable})

	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)
	assert.NoError(t, ds.Add(ly))

	enc := &gpu.MemEncoder{}
	assert.NoError(t, ds.DispatchPick(enc))
	assert.Len(t, enc.Draws, 1)
	assert.Equal(t, gpu.PickVariant, enc.Draws[0].Variant)
}

func TestSilhouetteMaterialApplied(t *testing.T) {
	dev := gpu.NewMemDevice()
	cache := gpu.NewProgramCache(dev)
	ly := buildLayer(t, dev, cache, "scene",
		[][4]uint8{{255, 0, 0, 255}}, []PortionFlags{Visible | Highlighted})

	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)
	assert.NoError(t, ds.Add(ly))
	ds.Frame.Reset(&gpu.MemEncoder{})
	assert.NoError(t, ds.DispatchPass(HighlightedPass))

	ub := bufBytes(ly.uniformsBuf)
	want := ds.Materials.Highlighted
	assert.Equal(t, want.X, math.Float32frombits(binary.LittleEndian.Uint32(ub[64:])))
	assert.Equal(t, want.W, math.Float32frombits(binary.LittleEndian.Uint32(ub[76:])))
}

func TestSetCamera(t *testing.T) {
	dev := gpu.NewMemDevice()
	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)

	var view, proj math32.Matrix4
	view.Set(
		1, 0, 0, 4,
		0, 1, 0, 5,
		0, 0, 1, 6,
		0, 0, 0, 1,
	)
	proj.SetIdentity()
	assert.NoError(t, ds.SetCamera(&view, &proj))

	cb := bufBytes(ds.Frame.Camera)
	assert.Equal(t, 128, len(cb))
	// translation lives in the fourth column of the view matrix.
	assert.Equal(t, float32(4), math.Float32frombits(binary.LittleEndian.Uint32(cb[48:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(cb[64:])))
}

func TestContextLossRecovery(t *testing.T) {
	dev := gpu.NewMemDevice()
	cache := gpu.NewProgramCache(dev)
	ly := buildLayer(t, dev, cache, "scene",
		[][4]uint8{{255, 0, 0, 255}}, []PortionFlags{Visible})

	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)
	assert.NoError(t, ds.Add(ly))

	enc := &gpu.MemEncoder{}
	assert.NoError(t, ds.DispatchFrame(enc))
	assert.Len(t, enc.Draws, 1)

	dev.LoseContext()
	cache.InvalidateAll()

	// layers refresh their programs lazily on the next draw.
	enc = &gpu.MemEncoder{}
	assert.NoError(t, ds.DispatchFrame(enc))
	assert.Len(t, enc.Draws, 1)
	assert.Equal(t, 1, cache.Len())
}

func TestDispatcherRegistry(t *testing.T) {
	base := Stats
	dev := gpu.NewMemDevice()
	cache := gpu.NewProgramCache(dev)
	ly := buildLayer(t, dev, cache, "scene",
		[][4]uint8{{255, 0, 0, 255}}, []PortionFlags{Visible})

	ds, err := NewDispatcher(dev)
	assert.NoError(t, err)
	assert.NoError(t, ds.Add(ly))
	assert.Error(t, ds.Add(ly))
	assert.Equal(t, 1, ds.NumLayers())
	assert.Same(t, ly, ds.Layer("scene"))
	assert.Nil(t, ds.Layer("missing"))

	assert.NoError(t, ds.Remove("scene"))
	assert.Error(t, ds.Remove("scene"))
	assert.Equal(t, Destroyed, ly.State())
	assert.Equal(t, 0, ds.NumLayers())

	assert.NoError(t, ds.Destroy())
	assert.Equal(t, base, Stats)
	assert.Equal(t, 0, dev.LiveBuffers())
}

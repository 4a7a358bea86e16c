// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
)

func testConfig(name string) *ProgramConfig {
	lights := &Lights{}
	lights.Defaults()
	return &ProgramConfig{
		Name:   name,
		Key:    ProgramKey{LightsHash: lights.Hash()},
		Lights: lights,
	}
}

func TestProgramCacheSharing(t *testing.T) {
	dev := NewMemDevice()
	pc := NewProgramCache(dev)
	cfg := testConfig("a")

	p1, err := pc.Get(cfg)
	assert.NoError(t, err)
	p2, err := pc.Get(cfg)
	assert.NoError(t, err)
	assert.Equal(t, p1.ID(), p2.ID())
	assert.Equal(t, 1, pc.Len())

	pc.Put(cfg.Key)
	assert.Equal(t, 1, pc.Len())
	pc.Put(cfg.Key)
	assert.Equal(t, 0, pc.Len())
	assert.False(t, p1.Valid())
}

func TestProgramCacheDistinctKeys(t *testing.T) {
	dev := NewMemDevice()
	pc := NewProgramCache(dev)
	a := testConfig("a")
	b := testConfig("b")
	b.Key.SectionPlanesHash = 12345

	pa, err := pc.Get(a)
	assert.NoError(t, err)
	pb, err := pc.Get(b)
	assert.NoError(t, err)
	assert.NotEqual(t, pa.ID(), pb.ID())
	assert.Equal(t, 2, pc.Len())
}

func TestProgramCacheContextLoss(t *testing.T) {
	dev := NewMemDevice()
	pc := NewProgramCache(dev)
	cfg := testConfig("a")

	p1, err := pc.Get(cfg)
	assert.NoError(t, err)
	assert.True(t, p1.Valid())

	dev.LoseContext()
	pc.InvalidateAll()
	assert.False(t, p1.Valid())

	// recompiles in place, preserving the existing reference.
	p2, err := pc.Get(cfg)
	assert.NoError(t, err)
	assert.True(t, p2.Valid())
	assert.NotEqual(t, p1.ID(), p2.ID())
	assert.Equal(t, 1, pc.Len())

	pc.Put(cfg.Key)
	assert.Equal(t, 1, pc.Len())
	pc.Put(cfg.Key)
	assert.Equal(t, 0, pc.Len())
}

func TestLightsHash(t *testing.T) {
	var a, b Lights
	a.Defaults()
	b.Defaults()
	assert.Equal(t, a.Hash(), b.Hash())

	b.Dir[0].Dir = math32.Vec3(0, -1, 0)
	assert.NotEqual(t, a.Hash(), b.Hash())

	var sp *SectionPlanes
	assert.Equal(t, uint64(0), sp.Hash())
	sp = &SectionPlanes{Planes: []math32.Vector4{math32.Vec4(0, 1, 0, 2)}}
	assert.NotEqual(t, uint64(0), sp.Hash())
}

func TestIndexFormatStrings(t *testing.T) {
	assert.Equal(t, "uint16", Index16.String())
	assert.Equal(t, "uint32", Index32.String())
}

func TestFillSourcesPartitionObjects(t *testing.T) {
	op := DefaultSource(OpaqueVariant)
	tr := DefaultSource(TransparentVariant)
	assert.NotEqual(t, op, tr)

	// ghosted objects draw as silhouettes, never in a fill pass.
	assert.Contains(t, op, "flags.y != 0u")
	assert.Contains(t, tr, "flags.y != 0u")

	// each fill keeps only its side of the alpha boundary, so a mixed
	// layer draws every object in exactly one of the two passes.
	assert.Contains(t, op, "color.a < 1.0")
	assert.NotContains(t, op, "color.a >= 1.0")
	assert.Contains(t, tr, "color.a >= 1.0")
	assert.NotContains(t, tr, "color.a < 1.0")

	assert.NotContains(t, op, "%")
	assert.NotContains(t, tr, "%")
}

func TestMemBufferWriteAt(t *testing.T) {
	dev := NewMemDevice()
	b, err := dev.CreateBuffer("t", VertexBuffer, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	assert.NoError(t, err)

	mb := b.(*MemBuffer)
	assert.NoError(t, b.WriteAt(2, []byte{9, 9}))
	assert.Equal(t, []byte{1, 2, 9, 9, 5, 6, 7, 8}, mb.Bytes())
	assert.Equal(t, 1, mb.Writes)

	assert.Error(t, b.WriteAt(6, []byte{0, 0, 0}))
	assert.Error(t, b.WriteAt(-1, []byte{0}))
}

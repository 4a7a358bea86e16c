// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"cogentcore.org/core/math32"
)

// MaxLights is the upper limit on the number of directional lights.
const MaxLights = 8

// AmbientLight provides diffuse uniform illumination.
type AmbientLight struct {
	// Color is the color and intensity of the light.
	Color math32.Vector3
}

// DirLight is a directional light from a given direction,
// which is the direction the light is shining *toward*.
type DirLight struct {
	// Color is the color and intensity of the light.
	Color math32.Vector3

	// Dir is the direction of the light.
	Dir math32.Vector3
}

// Lights is the light configuration shared by all layers that render with
// the same program.  Its [Lights.Hash] participates in the program cache
// key: layers with identical lighting share one compiled program.
type Lights struct {
	// Ambient light, always applied.
	Ambient AmbientLight

	// Dir are the directional lights, up to [MaxLights].
	Dir []DirLight
}

// Defaults sets a standard configuration: dim white ambient plus a single
// directional light from above and behind the viewer.
func (ls *Lights) Defaults() {
	ls.Ambient.Color = math32.Vec3(0.25, 0.25, 0.25)
	ls.Dir = []DirLight{{
		Color: math32.Vec3(1, 1, 1),
		Dir:   math32.Vec3(-0.5, -0.6, -0.4).Normal(),
	}}
}

// Hash returns a structural hash of the light configuration, suitable as
// a program cache key component.
func (ls *Lights) Hash() uint64 {
	h := fnv.New64a()
	hashVec := func(v math32.Vector3) {
		var b [12]byte
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Z))
		h.Write(b[:])
	}
	hashVec(ls.Ambient.Color)
	n := len(ls.Dir)
	if n > MaxLights {
		n = MaxLights
	}
	for i := 0; i < n; i++ {
		hashVec(ls.Dir[i].Color)
		hashVec(ls.Dir[i].Dir)
	}
	return h.Sum64()
}

// SectionPlanes is a clipping plane configuration: each plane is given as
// (nx, ny, nz, d) with the normal pointing into the retained half-space.
type SectionPlanes struct {
	Planes []math32.Vector4
}

// Hash returns a structural hash of the plane configuration, suitable as
// a program cache key component.  An empty configuration hashes to 0.
func (sp *SectionPlanes) Hash() uint64 {
	if sp == nil || len(sp.Planes) == 0 {
		return 0
	}
	h := fnv.New64a()
	var b [16]byte
	for _, p := range sp.Planes {
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(p.Z))
		binary.LittleEndian.PutUint32(b[12:], math.Float32bits(p.W))
		h.Write(b[:])
	}
	return h.Sum64()
}

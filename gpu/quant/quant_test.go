// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quant

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
)

func TestPositionRoundTrip(t *testing.T) {
	positions := []float32{
		-10, -5, 2,
		10, 5, 8,
		0, 0, 5,
		-9.99, 4.2, 7.77,
		3.14159, -2.71828, 6.5,
	}
	bounds := math32.B3Empty()
	for i := 0; i+2 < len(positions); i += 3 {
		bounds.ExpandByPoint(math32.Vec3(positions[i], positions[i+1], positions[i+2]))
	}
	q, decode := CompressPositions(positions, bounds)
	assert.Equal(t, len(positions), len(q))

	ext := bounds.Size()
	for i := 0; i+2 < len(positions); i += 3 {
		dec := DecompressPosition(q[i], q[i+1], q[i+2], &decode)
		assert.InDelta(t, positions[i], dec.X, float64(ext.X)/65535)
		assert.InDelta(t, positions[i+1], dec.Y, float64(ext.Y)/65535)
		assert.InDelta(t, positions[i+2], dec.Z, float64(ext.Z)/65535)
	}
}

func TestPositionRangeEnds(t *testing.T) {
	bounds := math32.B3(-1, -1, -1, 1, 1, 1)
	q, decode := CompressPositions([]float32{-1, -1, -1, 1, 1, 1}, bounds)
	assert.Equal(t, uint16(0), q[0])
	assert.Equal(t, uint16(PositionRange), q[3])
	lo := DecompressPosition(q[0], q[1], q[2], &decode)
	hi := DecompressPosition(q[3], q[4], q[5], &decode)
	assert.InDelta(t, -1, lo.X, 1e-6)
	assert.InDelta(t, 1, hi.X, 1e-6)
}

func TestDegenerateAxis(t *testing.T) {
	// flat in z: zero extent must not divide by zero, and must decode
	// exactly to the axis minimum.
	bounds := math32.B3(0, 0, 5, 10, 10, 5)
	q, decode := CompressPositions([]float32{2, 3, 5, 7, 8, 5}, bounds)
	assert.Equal(t, uint16(0), q[2])
	assert.Equal(t, uint16(0), q[5])
	dec := DecompressPosition(q[0], q[1], q[2], &decode)
	assert.Equal(t, float32(5), dec.Z)
}

func TestOutOfBoundsClamped(t *testing.T) {
	bounds := math32.B3(0, 0, 0, 1, 1, 1)
	q, _ := CompressPositions([]float32{-0.5, 2, 0.5}, bounds)
	assert.Equal(t, uint16(0), q[0])
	assert.Equal(t, uint16(PositionRange), q[1])
}

func TestOctRoundTrip(t *testing.T) {
	normals := []math32.Vector3{
		math32.Vec3(1, 0, 0), math32.Vec3(-1, 0, 0),
		math32.Vec3(0, 1, 0), math32.Vec3(0, -1, 0),
		math32.Vec3(0, 0, 1), math32.Vec3(0, 0, -1),
		math32.Vec3(1, 1, 1).Normal(),
		math32.Vec3(-1, 1, -1).Normal(),
		math32.Vec3(0.3, -0.8, 0.52).Normal(),
		math32.Vec3(-0.9, 0.1, -0.43).Normal(),
		math32.Vec3(0.01, 0.01, -0.999).Normal(),
	}
	for _, n := range normals {
		x, y := OctEncode(n)
		dec := OctDecode(x, y)
		assert.Greater(t, dec.Dot(n), float32(0.99), "normal %v decoded to %v", n, dec)
	}
}

func TestOctCandidateOptimality(t *testing.T) {
	// the encoder picks the best of the four floor/ceil rounding
	// candidates; always-floor and always-ceil must never beat it.
	for _, n := range []math32.Vector3{
		math32.Vec3(0.41, -0.29, 0.866).Normal(),
		math32.Vec3(-0.77, 0.21, 0.6).Normal(),
		math32.Vec3(0.33, 0.57, -0.75).Normal(),
	} {
		x, y := OctEncode(n)
		best := OctDecode(x, y).Dot(n)
		for _, rp := range roundPairs {
			s := math32.Abs(n.X) + math32.Abs(n.Y) + math32.Abs(n.Z)
			u, v := n.X/s, n.Y/s
			if n.Z < 0 {
				u, v = foldOct(u, v)
			}
			cx := clampByte(rp.x(u*127.5 + bias(u)))
			cy := clampByte(rp.y(v*127.5 + bias(v)))
			got := OctDecode(cx, cy).Dot(n)
			assert.LessOrEqual(t, got, best+1e-6)
		}
	}
}

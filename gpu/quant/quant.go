// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quant implements the lossy codecs used to shrink batched
// geometry: linear position quantization into 16-bit integers with a
// 4x4 decode matrix, and octahedral encoding of unit normals into two
// signed bytes.
package quant

import (
	"cogentcore.org/core/math32"
)

// PositionRange is the top of the quantized position range.  It is held
// slightly below the 65535 representable maximum so rounding at the upper
// bound can never overflow the 16-bit storage.
const PositionRange = 65525

// CompressPositions linearly maps each component of positions (stride 3,
// x,y,z) from the given bounds into [0, PositionRange], rounding to
// nearest, and returns the quantized array together with the decode
// matrix m such that m * q restores the original position to within half
// a quantization step ((max-min)/PositionRange) per axis.
//
// A degenerate axis (zero extent) maps to 0 and decodes exactly to the
// axis minimum; there is no division by zero.
func CompressPositions(positions []float32, bounds math32.Box3) ([]uint16, math32.Matrix4) {
	ext := bounds.Size()
	var mult math32.Vector3
	if ext.X != 0 {
		mult.X = PositionRange / ext.X
	}
	if ext.Y != 0 {
		mult.Y = PositionRange / ext.Y
	}
	if ext.Z != 0 {
		mult.Z = PositionRange / ext.Z
	}
	out := make([]uint16, len(positions))
	for i := 0; i+2 < len(positions); i += 3 {
		out[i] = quantize(positions[i], bounds.Min.X, mult.X)
		out[i+1] = quantize(positions[i+1], bounds.Min.Y, mult.Y)
		out[i+2] = quantize(positions[i+2], bounds.Min.Z, mult.Z)
	}
	return out, DecodeMatrix(bounds)
}

func quantize(v, min, mult float32) uint16 {
	q := math32.Round((v - min) * mult)
	if q < 0 {
		return 0
	}
	if q > PositionRange {
		return PositionRange
	}
	return uint16(q)
}

// DecodeMatrix returns the decode transform for the given quantization
// bounds: translate(min) x scale(extent/PositionRange).
func DecodeMatrix(bounds math32.Box3) math32.Matrix4 {
	ext := bounds.Size()
	sx := ext.X / PositionRange
	sy := ext.Y / PositionRange
	sz := ext.Z / PositionRange
	var m math32.Matrix4
	m.Set(
		sx, 0, 0, bounds.Min.X,
		0, sy, 0, bounds.Min.Y,
		0, 0, sz, bounds.Min.Z,
		0, 0, 0, 1,
	)
	return m
}

// DecompressPosition applies the decode matrix to one quantized position.
func DecompressPosition(x, y, z uint16, decode *math32.Matrix4) math32.Vector3 {
	return math32.Vec3(float32(x), float32(y), float32(z)).MulMatrix4(decode)
}

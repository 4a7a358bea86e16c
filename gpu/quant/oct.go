// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quant

import (
	"cogentcore.org/core/math32"
)

// Oct-encoding: a unit vector is projected onto the octahedron
// |x|+|y|+|z| = 1; the lower hemisphere is folded into the upper square,
// and the (u, v) square coordinates are stored as two signed bytes.
// Quantizing (u, v) independently does not minimize angular error, so the
// encoder tries all four floor/ceil rounding combinations and keeps the
// candidate whose decoded vector is closest (by dot product) to the input.

// roundPair is one rounding-direction combination for the two oct
// components.
type roundPair struct {
	x, y func(float32) float32
}

var roundPairs = [4]roundPair{
	{math32.Floor, math32.Floor},
	{math32.Floor, math32.Ceil},
	{math32.Ceil, math32.Floor},
	{math32.Ceil, math32.Ceil},
}

// OctEncode encodes a unit normal into two signed bytes, searching the
// four rounding candidates for the one that decodes closest to the input.
// A zero vector encodes as (0, 0).
func OctEncode(n math32.Vector3) (x, y int8) {
	s := math32.Abs(n.X) + math32.Abs(n.Y) + math32.Abs(n.Z)
	if s == 0 {
		return 0, 0
	}
	u := n.X / s
	v := n.Y / s
	if n.Z < 0 {
		u, v = foldOct(u, v)
	}
	best := float32(-2)
	for _, rp := range roundPairs {
		cx := clampByte(rp.x(u*127.5 + bias(u)))
		cy := clampByte(rp.y(v*127.5 + bias(v)))
		d := OctDecode(cx, cy).Dot(n)
		if d > best {
			best = d
			x, y = cx, cy
		}
	}
	return x, y
}

// OctDecode decodes two signed bytes back into a unit normal,
// renormalizing after unfolding.
func OctDecode(xb, yb int8) math32.Vector3 {
	x := float32(xb)
	y := float32(yb)
	if x < 0 {
		x /= 127
	} else {
		x /= 128
	}
	if y < 0 {
		y /= 127
	} else {
		y /= 128
	}
	z := 1 - math32.Abs(x) - math32.Abs(y)
	if z < 0 {
		x, y = foldOct(x, y)
	}
	return math32.Vec3(x, y, z).Normal()
}

// foldOct reflects the lower-hemisphere projection into the upper square.
func foldOct(u, v float32) (float32, float32) {
	fu := (1 - math32.Abs(v)) * sign(u)
	fv := (1 - math32.Abs(u)) * sign(v)
	return fu, fv
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func bias(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 0
}

func clampByte(v float32) int8 {
	if v < -128 {
		return -128
	}
	if v > 127 {
		return 127
	}
	return int8(v)
}

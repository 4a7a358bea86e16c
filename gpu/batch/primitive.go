// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

import (
	"log/slog"

	"github.com/bbrangeo/xeokit-sdk/gpu"
)

// Primitives enumerates the geometry primitive types a layer can batch.
type Primitives int32

const (
	// Triangles is the default: indexed triangle lists.
	Triangles Primitives = iota

	// Lines renders the index buffer as line lists.
	Lines

	// Points renders vertices only; the index buffer is ignored.
	Points

	PrimitivesN
)

var primitiveNames = map[Primitives]string{
	Triangles: "triangles",
	Lines:     "lines",
	Points:    "points",
}

func (pr Primitives) String() string {
	if nm, ok := primitiveNames[pr]; ok {
		return nm
	}
	return "unknown"
}

// Topology returns the pipeline topology for the primitive.
func (pr Primitives) Topology() gpu.Topologies {
	switch pr {
	case Lines:
		return gpu.LineTopology
	case Points:
		return gpu.PointTopology
	}
	return gpu.TriangleTopology
}

// ValidPrimitive returns the primitive unchanged if it is a known value,
// or substitutes Triangles with a warning.  Bad model data degrades
// instead of failing the load.
func ValidPrimitive(pr Primitives) Primitives {
	if pr >= 0 && pr < PrimitivesN {
		return pr
	}
	slog.Warn("batch: unknown primitive type; substituting triangles", "primitive", int32(pr))
	return Triangles
}

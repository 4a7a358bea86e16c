// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

// MemStats tracks GPU memory attributed to batched geometry, by stream.
// Incremented on finalize, decremented on destroy.  The single-threaded
// frame model means no synchronization is needed.
type MemStats struct {
	Positions   int
	Normals     int
	Colors      int
	Flags       int
	PickColors  int
	Indices     int
	EdgeIndices int
	Uniforms    int

	// Layers is the number of live finalized layers.
	Layers int
}

// Total returns the total accounted GPU bytes.
func (ms *MemStats) Total() int {
	return ms.Positions + ms.Normals + ms.Colors + ms.Flags +
		ms.PickColors + ms.Indices + ms.EdgeIndices + ms.Uniforms
}

// Stats is the global memory accounting for all layers in the process.
var Stats MemStats

// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"log/slog"

	"cogentcore.org/core/base/errors"
)

// ProgramKey identifies one shading configuration within a device.
// Layers with equal keys share one compiled [Program].
type ProgramKey struct {
	// LightsHash is the structural hash of the light configuration.
	LightsHash uint64

	// SectionPlanesHash is the structural hash of the clipping plane
	// configuration; 0 when no planes are active.
	SectionPlanesHash uint64

	// Topology is the primitive topology of the fill pipelines.
	Topology Topologies
}

// ProgramConfig specifies everything needed to compile a [Program].
// Shader source generation is external to this package: Source supplies
// the WGSL for each pass variant.  A nil Source uses the built-in
// default sources.
type ProgramConfig struct {
	// Name labels the program and its pipelines for debugging.
	Name string

	// Key is the cache key this program is compiled for.
	Key ProgramKey

	// Lights is the light configuration compiled into the program.
	Lights *Lights

	// Source returns the WGSL source for the given pass variant.
	Source func(variant ProgramVariants) string
}

// WGSL returns the source for the given variant, falling back to the
// built-in defaults when no Source function was supplied.
func (pc *ProgramConfig) WGSL(variant ProgramVariants) string {
	if pc.Source != nil {
		return pc.Source(variant)
	}
	return DefaultSource(variant)
}

// ProgramCache compiles and caches programs keyed by shading
// configuration, reference counted across the layers that share them.
// It is not safe for concurrent use; all rendering runs on one
// goroutine (frame-driven model).
type ProgramCache struct {
	device  Device
	entries map[ProgramKey]*cacheEntry
}

type cacheEntry struct {
	program Program
	refs    int

	// generation the program was compiled under; stale entries are
	// recompiled on the next Get after a context loss.
	generation int
}

// NewProgramCache returns a cache compiling on the given device.
func NewProgramCache(dev Device) *ProgramCache {
	return &ProgramCache{
		device:  dev,
		entries: make(map[ProgramKey]*cacheEntry),
	}
}

// Len returns the number of live cache entries.
func (pc *ProgramCache) Len() int {
	return len(pc.entries)
}

// Get returns the program for the given configuration, compiling it if no
// valid entry exists, and increments its reference count.  Callers must
// balance every Get with a [ProgramCache.Put].
func (pc *ProgramCache) Get(cfg *ProgramConfig) (Program, error) {
	gen := pc.device.Generation()
	if ent, ok := pc.entries[cfg.Key]; ok {
		if ent.generation == gen && ent.program.Valid() {
			ent.refs++
			return ent.program, nil
		}
		// stale after context loss: recompile in place, preserving refs
		// held by surviving layers.
		prog, err := pc.device.CreateProgram(cfg)
		if err != nil {
			return nil, errors.Log(fmt.Errorf("gpu.ProgramCache.Get: recompile %q: %w", cfg.Name, err))
		}
		ent.program.Release()
		ent.program = prog
		ent.generation = gen
		ent.refs++
		return prog, nil
	}
	prog, err := pc.device.CreateProgram(cfg)
	if err != nil {
		return nil, errors.Log(fmt.Errorf("gpu.ProgramCache.Get: compile %q: %w", cfg.Name, err))
	}
	pc.entries[cfg.Key] = &cacheEntry{program: prog, refs: 1, generation: gen}
	if Debug {
		slog.Info("gpu.ProgramCache: compiled program", "name", cfg.Name, "entries", len(pc.entries))
	}
	return prog, nil
}

// Put decrements the reference count for the given key.  At zero the
// program is released and the entry evicted.
func (pc *ProgramCache) Put(key ProgramKey) {
	ent, ok := pc.entries[key]
	if !ok {
		slog.Error("gpu.ProgramCache.Put: no entry for key", "key", key)
		return
	}
	ent.refs--
	if ent.refs > 0 {
		return
	}
	if ent.refs < 0 {
		slog.Error("gpu.ProgramCache.Put: unbalanced Put", "key", key)
	}
	ent.program.Release()
	delete(pc.entries, key)
}

// InvalidateAll marks every cached program stale, so the next Get per key
// recompiles.  Call after a device context loss / restore.  Reference
// counts are preserved: layers keep their handles and re-Get lazily.
func (pc *ProgramCache) InvalidateAll() {
	for _, ent := range pc.entries {
		ent.generation = -1
	}
}

// Release frees every cached program regardless of reference counts.
// Only for device teardown.
func (pc *ProgramCache) Release() {
	for key, ent := range pc.entries {
		ent.program.Release()
		delete(pc.entries, key)
	}
}

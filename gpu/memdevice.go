// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"cogentcore.org/core/base/errors"
)

// MemDevice is a headless [Device] retaining buffer contents in main
// memory.  It backs tests and CI, where no WebGPU adapter is available,
// and lets callers assert the exact GPU-visible bytes after uploads and
// partial updates.
type MemDevice struct {
	// Index32Supported controls the reported capability, so tests can
	// exercise the 16-bit index path.
	Index32Supported bool

	generation int
	nextID     uint64
	buffers    []*MemBuffer
}

// NewMemDevice returns a headless device with full capabilities.
func NewMemDevice() *MemDevice {
	return &MemDevice{Index32Supported: true, generation: 1}
}

func (dv *MemDevice) Caps() Caps {
	return Caps{Index32: dv.Index32Supported, MaxBufferSize: 1 << 28}
}

func (dv *MemDevice) Generation() int { return dv.generation }

// LoseContext simulates a device context loss / restore cycle.
func (dv *MemDevice) LoseContext() { dv.generation++ }

// LiveBuffers returns the number of created but not yet released buffers.
func (dv *MemDevice) LiveBuffers() int {
	n := 0
	for _, b := range dv.buffers {
		if !b.released {
			n++
		}
	}
	return n
}

func (dv *MemDevice) CreateBuffer(label string, usage BufferUsages, contents []byte) (Buffer, error) {
	b := &MemBuffer{
		label: label,
		usage: usage,
		data:  append([]byte(nil), contents...),
	}
	dv.buffers = append(dv.buffers, b)
	return b, nil
}

func (dv *MemDevice) CreateProgram(cfg *ProgramConfig) (Program, error) {
	dv.nextID++
	return &memProgram{dv: dv, id: dv.nextID, generation: dv.generation}, nil
}

// MemBuffer is the in-memory [Buffer], exposing its bytes and a count of
// partial writes for test assertions.
type MemBuffer struct {
	label    string
	usage    BufferUsages
	data     []byte
	released bool

	// Writes counts WriteAt calls since creation.
	Writes int
}

func (b *MemBuffer) Label() string { return b.label }
func (b *MemBuffer) Size() int     { return len(b.data) }

// Bytes returns the current buffer contents.  The slice aliases internal
// storage; callers must not mutate it.
func (b *MemBuffer) Bytes() []byte { return b.data }

func (b *MemBuffer) WriteAt(offset int, data []byte) error {
	if b.released {
		return errors.Log(fmt.Errorf("gpu.MemBuffer.WriteAt %s: buffer is released", b.label))
	}
	if offset < 0 || offset+len(data) > len(b.data) {
		return errors.Log(fmt.Errorf("gpu.MemBuffer.WriteAt %s: range [%d, %d) outside buffer size %d", b.label, offset, offset+len(data), len(b.data)))
	}
	copy(b.data[offset:], data)
	b.Writes++
	return nil
}

func (b *MemBuffer) Release() { b.released = true }

type memProgram struct {
	dv         *MemDevice
	id         uint64
	generation int
	released   bool
}

func (pg *memProgram) ID() uint64 { return pg.id }

func (pg *memProgram) Valid() bool {
	return !pg.released && pg.generation == pg.dv.generation
}

func (pg *memProgram) Release() { pg.released = true }

// MemEncoder records render commands for pass-gating tests.
type MemEncoder struct {
	// ProgramBinds counts SetProgram calls.
	ProgramBinds int

	// Draws records one entry per DrawIndexed call.
	Draws []MemDraw

	curProgram uint64
	curVariant ProgramVariants
}

// MemDraw is one recorded DrawIndexed call.
type MemDraw struct {
	Program    uint64
	Variant    ProgramVariants
	IndexCount int
}

func (en *MemEncoder) SetProgram(p Program, variant ProgramVariants) error {
	if !p.Valid() {
		return errors.Log(fmt.Errorf("gpu.MemEncoder.SetProgram: program %d is invalid", p.ID()))
	}
	en.ProgramBinds++
	en.curProgram = p.ID()
	en.curVariant = variant
	return nil
}

func (en *MemEncoder) SetVertexBuffer(slot int, b Buffer)           {}
func (en *MemEncoder) SetIndexBuffer(b Buffer, format IndexFormats) {}
func (en *MemEncoder) SetUniforms(group int, b Buffer)              {}

func (en *MemEncoder) DrawIndexed(count int) {
	en.Draws = append(en.Draws, MemDraw{
		Program:    en.curProgram,
		Variant:    en.curVariant,
		IndexCount: count,
	})
}

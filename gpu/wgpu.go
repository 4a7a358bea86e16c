// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// WebGPUDevice is the production [Device], backed by a wgpu device and
// queue obtained from the window or offscreen surface setup (external to
// this package).
type WebGPUDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	// Format is the color target format of the surface or render
	// texture that batched geometry draws into.
	Format wgpu.TextureFormat

	// DepthFormat is the depth attachment format.
	DepthFormat wgpu.TextureFormat

	// uniformLayout is the shared bind group layout used for the camera
	// and layer uniform groups of every batched-geometry pipeline.
	uniformLayout *wgpu.BindGroupLayout

	generation int
	nextID     uint64
}

// NewWebGPUDevice wraps an existing wgpu device and queue.
func NewWebGPUDevice(dev *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat) (*WebGPUDevice, error) {
	dv := &WebGPUDevice{
		device:      dev,
		queue:       queue,
		Format:      format,
		DepthFormat: wgpu.TextureFormatDepth24Plus,
		generation:  1,
	}
	lay, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "batch-uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	dv.uniformLayout = lay
	return dv, nil
}

// Restore re-points the device at a fresh wgpu device and queue after a
// context loss, bumping the generation so cached programs recompile.
func (dv *WebGPUDevice) Restore(dev *wgpu.Device, queue *wgpu.Queue) error {
	dv.device = dev
	dv.queue = queue
	dv.generation++
	lay, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "batch-uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}},
	})
	if errors.Log(err) != nil {
		return err
	}
	dv.uniformLayout = lay
	return nil
}

func (dv *WebGPUDevice) Caps() Caps {
	return Caps{Index32: true, MaxBufferSize: 1 << 28}
}

func (dv *WebGPUDevice) Generation() int {
	return dv.generation
}

func (dv *WebGPUDevice) bufferUsages(usage BufferUsages) wgpu.BufferUsage {
	switch usage {
	case IndexBuffer:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case UniformBuffer:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	}
}

// CreateBuffer creates a device buffer initialized with contents.
func (dv *WebGPUDevice) CreateBuffer(label string, usage BufferUsages, contents []byte) (Buffer, error) {
	buf, err := dv.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    dv.bufferUsages(usage),
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	return &wgpuBuffer{dv: dv, buffer: buf, label: label, size: len(contents), usage: usage}, nil
}

type wgpuBuffer struct {
	dv     *WebGPUDevice
	buffer *wgpu.Buffer
	label  string
	size   int
	usage  BufferUsages

	// group is the lazily created uniform bind group; only for
	// UniformBuffer usage.
	group *wgpu.BindGroup
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() int     { return b.size }

func (b *wgpuBuffer) WriteAt(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > b.size {
		return errors.Log(fmt.Errorf("gpu.Buffer.WriteAt %s: range [%d, %d) outside buffer size %d", b.label, offset, offset+len(data), b.size))
	}
	return b.dv.queue.WriteBuffer(b.buffer, uint64(offset), data)
}

func (b *wgpuBuffer) Release() {
	if b.group != nil {
		b.group.Release()
		b.group = nil
	}
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

// bindGroup returns the uniform bind group for this buffer, making it on
// first use.
func (b *wgpuBuffer) bindGroup() (*wgpu.BindGroup, error) {
	if b.group != nil {
		return b.group, nil
	}
	bg, err := b.dv.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  b.label,
		Layout: b.dv.uniformLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  b.buffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	b.group = bg
	return bg, nil
}

// vertexLayouts is the fixed vertex buffer layout for all batched-geometry
// pipelines, one buffer per attribute stream, slots per types.go.
func vertexLayouts() []wgpu.VertexBufferLayout {
	mk := func(stride int, format wgpu.VertexFormat, location int) wgpu.VertexBufferLayout {
		return wgpu.VertexBufferLayout{
			ArrayStride: uint64(stride),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{{
				Format:         format,
				Offset:         0,
				ShaderLocation: uint32(location),
			}},
		}
	}
	return []wgpu.VertexBufferLayout{
		mk(Uint16Vector4.Bytes(), wgpu.VertexFormatUint16x4, PositionSlot),
		mk(Snorm8Vector4.Bytes(), wgpu.VertexFormatSnorm8x4, NormalSlot),
		mk(Unorm8Vector4.Bytes(), wgpu.VertexFormatUnorm8x4, ColorSlot),
		mk(Uint8Vector4.Bytes(), wgpu.VertexFormatUint8x4, FlagsSlot),
		mk(Uint8Vector4.Bytes(), wgpu.VertexFormatUint8x4, Flags2Slot),
		mk(Unorm8Vector4.Bytes(), wgpu.VertexFormatUnorm8x4, PickColorSlot),
	}
}

// CreateProgram compiles a program for the given configuration.
// Pipelines per variant are compiled lazily on first bind.
func (dv *WebGPUDevice) CreateProgram(cfg *ProgramConfig) (Program, error) {
	dv.nextID++
	return &wgpuProgram{
		dv:         dv,
		cfg:        *cfg,
		id:         dv.nextID,
		generation: dv.generation,
	}, nil
}

type wgpuProgram struct {
	dv         *WebGPUDevice
	cfg        ProgramConfig
	id         uint64
	generation int

	pipelines [ProgramVariantsN]*wgpu.RenderPipeline
}

func (pg *wgpuProgram) ID() uint64 { return pg.id }

func (pg *wgpuProgram) Valid() bool {
	return pg.generation == pg.dv.generation
}

func (pg *wgpuProgram) Release() {
	for i, pl := range pg.pipelines {
		if pl != nil {
			pl.Release()
			pg.pipelines[i] = nil
		}
	}
}

// pipeline returns the compiled pipeline for the variant, building it on
// first use.
func (pg *wgpuProgram) pipeline(variant ProgramVariants) (*wgpu.RenderPipeline, error) {
	if pl := pg.pipelines[variant]; pl != nil {
		return pl, nil
	}
	name := fmt.Sprintf("%s-%s", pg.cfg.Name, variant)
	module, err := pg.dv.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: pg.cfg.WGSL(variant),
		},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	defer module.Release()

	layout, err := pg.dv.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{pg.dv.uniformLayout, pg.dv.uniformLayout},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	defer layout.Release()

	topology := wgpu.PrimitiveTopologyTriangleList
	switch {
	case variant == EdgesVariant, pg.cfg.Key.Topology == LineTopology:
		topology = wgpu.PrimitiveTopologyLineList
	case pg.cfg.Key.Topology == PointTopology:
		topology = wgpu.PrimitiveTopologyPointList
	}
	var blend *wgpu.BlendState
	depthWrite := true
	switch variant {
	case TransparentVariant, SilhouetteVariant:
		blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
		depthWrite = false
	}

	pl, err := pg.dv.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  name,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    pg.dv.Format,
				Blend:     blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            pg.dv.DepthFormat,
			DepthWriteEnabled: depthWrite,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	pg.pipelines[variant] = pl
	return pl, nil
}

// Encoder wraps a wgpu render pass encoder as a [RenderEncoder].
func (dv *WebGPUDevice) Encoder(rp *wgpu.RenderPassEncoder) RenderEncoder {
	return &wgpuEncoder{dv: dv, rp: rp}
}

type wgpuEncoder struct {
	dv *WebGPUDevice
	rp *wgpu.RenderPassEncoder
}

func (en *wgpuEncoder) SetProgram(p Program, variant ProgramVariants) error {
	pg, ok := p.(*wgpuProgram)
	if !ok {
		return errors.Log(fmt.Errorf("gpu: SetProgram: program is not a WebGPU program"))
	}
	pl, err := pg.pipeline(variant)
	if err != nil {
		return err
	}
	en.rp.SetPipeline(pl)
	return nil
}

func (en *wgpuEncoder) SetVertexBuffer(slot int, b Buffer) {
	wb := b.(*wgpuBuffer)
	en.rp.SetVertexBuffer(uint32(slot), wb.buffer, 0, wgpu.WholeSize)
}

func (en *wgpuEncoder) SetIndexBuffer(b Buffer, format IndexFormats) {
	wb := b.(*wgpuBuffer)
	ixf := wgpu.IndexFormatUint16
	if format == Index32 {
		ixf = wgpu.IndexFormatUint32
	}
	en.rp.SetIndexBuffer(wb.buffer, ixf, 0, wgpu.WholeSize)
}

func (en *wgpuEncoder) SetUniforms(group int, b Buffer) {
	wb := b.(*wgpuBuffer)
	bg, err := wb.bindGroup()
	if err != nil {
		return
	}
	en.rp.SetBindGroup(uint32(group), bg, nil)
}

func (en *wgpuEncoder) DrawIndexed(count int) {
	en.rp.DrawIndexed(uint32(count), 1, 0, 0, 0)
}

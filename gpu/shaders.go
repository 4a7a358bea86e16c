// Copyright (c) 2026, The xeokit-sdk Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import "fmt"

// Built-in WGSL sources for the batched-geometry pipelines.  Shader
// generation (lights loop expansion, section plane count) is owned by the
// caller via [ProgramConfig.Source]; these defaults compile a single
// directional light plus ambient, which matches [Lights.Defaults].
//
// All variants share the vertex input layout fixed by the vertex slot
// constants in types.go: quantized positions, oct-encoded normals,
// colors, two flags streams, and pick colors.

const shaderCommon = `
struct Camera {
	view: mat4x4<f32>,
	proj: mat4x4<f32>,
}
struct LayerParams {
	decode: mat4x4<f32>,
	silhouette: vec4<f32>,
}
@group(0) @binding(0) var<uniform> camera: Camera;
@group(1) @binding(0) var<uniform> layer: LayerParams;

fn world_pos(qpos: vec4<u32>) -> vec4<f32> {
	let p = layer.decode * vec4<f32>(f32(qpos.x), f32(qpos.y), f32(qpos.z), 1.0);
	return vec4<f32>(p.xyz, 1.0);
}

fn oct_decode(oct: vec4<f32>) -> vec3<f32> {
	var x = oct.x;
	var y = oct.y;
	let z = 1.0 - abs(x) - abs(y);
	if (z < 0.0) {
		let fx = (1.0 - abs(y)) * sign(x);
		let fy = (1.0 - abs(x)) * sign(y);
		x = fx;
		y = fy;
	}
	return normalize(vec3<f32>(x, y, z));
}
`

// fillSource is the lit fill shader template shared by the opaque and
// transparent variants; the %s placeholder is the per-variant vertex drop
// condition.  Dropped vertices collapse to a degenerate position so whole
// objects drop out without an index-buffer rewrite.  Hidden and ghosted
// objects never draw in a fill pass (ghosted ones draw as silhouettes
// instead), and each fill variant keeps only its own side of the alpha
// boundary so a mixed layer draws every object exactly once.
const fillSource = shaderCommon + `
struct VertexOut {
	@builtin(position) pos: vec4<f32>,
	@location(0) color: vec4<f32>,
	@location(1) normal: vec3<f32>,
}

@vertex
fn vs_main(
	@location(0) qpos: vec4<u32>,
	@location(1) oct: vec4<f32>,
	@location(2) color: vec4<f32>,
	@location(3) flags: vec4<u32>,
	@location(4) flags2: vec4<u32>,
	@location(5) pick: vec4<f32>,
) -> VertexOut {
	var out: VertexOut;
	if (%s) {
		out.pos = vec4<f32>(0.0, 0.0, 2.0, 0.0);
		return out;
	}
	out.pos = camera.proj * camera.view * world_pos(qpos);
	out.color = color;
	out.normal = oct_decode(oct);
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	let ambient = vec3<f32>(0.25, 0.25, 0.25);
	let light_dir = normalize(vec3<f32>(-0.5, -0.6, -0.4));
	let diff = max(dot(in.normal, -light_dir), 0.0);
	let lit = ambient + vec3<f32>(1.0, 1.0, 1.0) * diff;
	return vec4<f32>(in.color.rgb * lit, in.color.a);
}
`

var (
	drawOpaqueSource      = fmt.Sprintf(fillSource, "flags.x == 0u || flags.y != 0u || color.a < 1.0")
	drawTransparentSource = fmt.Sprintf(fillSource, "flags.x == 0u || flags.y != 0u || color.a >= 1.0")
)

// silhouetteSource is the flat single-color fill for the ghosted,
// highlighted, and selected passes; the color comes from layer uniforms.
// flags.y/z gate ghosted/highlighted, flags2.x gates selected; the
// dispatcher guarantees only one silhouette category draws per pass, so a
// vertex is kept when any of the three is set.
const silhouetteSource = shaderCommon + `
struct VertexOut {
	@builtin(position) pos: vec4<f32>,
}

@vertex
fn vs_main(
	@location(0) qpos: vec4<u32>,
	@location(1) oct: vec4<f32>,
	@location(2) color: vec4<f32>,
	@location(3) flags: vec4<u32>,
	@location(4) flags2: vec4<u32>,
	@location(5) pick: vec4<f32>,
) -> VertexOut {
	var out: VertexOut;
	if (flags.x == 0u || (flags.y == 0u && flags.z == 0u && flags2.x == 0u)) {
		out.pos = vec4<f32>(0.0, 0.0, 2.0, 0.0);
		return out;
	}
	out.pos = camera.proj * camera.view * world_pos(qpos);
	return out;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
	return layer.silhouette;
}
`

// edgesSource renders the edge index buffer as lines in the layer's
// silhouette color.
const edgesSource = shaderCommon + `
struct VertexOut {
	@builtin(position) pos: vec4<f32>,
}

@vertex
fn vs_main(
	@location(0) qpos: vec4<u32>,
	@location(1) oct: vec4<f32>,
	@location(2) color: vec4<f32>,
	@location(3) flags: vec4<u32>,
	@location(4) flags2: vec4<u32>,
	@location(5) pick: vec4<f32>,
) -> VertexOut {
	var out: VertexOut;
	if (flags.x == 0u || flags2.y == 0u) {
		out.pos = vec4<f32>(0.0, 0.0, 2.0, 0.0);
		return out;
	}
	out.pos = camera.proj * camera.view * world_pos(qpos);
	return out;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
	return layer.silhouette;
}
`

// pickSource writes per-object pick colors to the pick target.
const pickSource = shaderCommon + `
struct VertexOut {
	@builtin(position) pos: vec4<f32>,
	@location(0) pick: vec4<f32>,
}

@vertex
fn vs_main(
	@location(0) qpos: vec4<u32>,
	@location(1) oct: vec4<f32>,
	@location(2) color: vec4<f32>,
	@location(3) flags: vec4<u32>,
	@location(4) flags2: vec4<u32>,
	@location(5) pick: vec4<f32>,
) -> VertexOut {
	var out: VertexOut;
	if (flags.x == 0u || flags2.z == 0u) {
		out.pos = vec4<f32>(0.0, 0.0, 2.0, 0.0);
		return out;
	}
	out.pos = camera.proj * camera.view * world_pos(qpos);
	out.pick = pick;
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	return in.pick;
}
`

// DefaultSource returns the built-in WGSL for the given pass variant.
func DefaultSource(variant ProgramVariants) string {
	switch variant {
	case TransparentVariant:
		return drawTransparentSource
	case SilhouetteVariant:
		return silhouetteSource
	case EdgesVariant:
		return edgesSource
	case PickVariant:
		return pickSource
	}
	return drawOpaqueSource
}

package gpu

import (
	"strings"
	"testing"

	"github.com/gekko3d/meshlight/render/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedProgramsMatchHostLayout(t *testing.T) {
	for _, p := range shaders.All() {
		t.Run(p.Name, func(t *testing.T) {
			assert.NoError(t, ValidateShaderBindings(p))
		})
	}
}

func TestParseShaderLayout(t *testing.T) {
	p, ok := shaders.Lookup("instanced")
	require.True(t, ok)

	layout, err := ParseShaderLayout(p.Source, shaders.VertexEntryPoint)
	require.NoError(t, err)

	require.Len(t, layout.Uniforms, 2)
	assert.Equal(t, UniformDecl{Group: 0, Binding: 0, Name: "camera", Type: "Camera", Size: 80}, layout.Uniforms[0])
	assert.Equal(t, UniformDecl{Group: 1, Binding: 0, Name: "light", Type: "Light", Size: 32}, layout.Uniforms[1])
	assert.Equal(t, []uint32{0, 1}, layout.Groups())

	assert.Len(t, layout.Inputs, 10)
	assert.Equal(t, "vec3<f32>", layout.Inputs[0])
	assert.Equal(t, "vec2<f32>", layout.Inputs[1])
	assert.Equal(t, "vec4<f32>", layout.Inputs[8])
	assert.Equal(t, "vec3<f32>", layout.Inputs[11])
}

func TestDebugProgramUsesCameraOnly(t *testing.T) {
	p, ok := shaders.Lookup("debug")
	require.True(t, ok)

	layout, err := ParseShaderLayout(p.Source, shaders.VertexEntryPoint)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, layout.Groups())
}

func TestParseShaderLayoutEntryParams(t *testing.T) {
	src := `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32, @location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}`
	layout, err := ParseShaderLayout(src, "vs_main")
	require.NoError(t, err)
	assert.Equal(t, map[uint32]string{0: "vec3<f32>"}, layout.Inputs)

	_, err = ParseShaderLayout(src, "missing")
	assert.Error(t, err)
}

func TestParseShaderLayoutAttributeOrder(t *testing.T) {
	src := `
struct Light {
    position: vec3<f32>,
    color: vec3<f32>,
}
@binding(0) @group(3)
var<uniform> light: Light;

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position + light.position, 1.0);
}`
	layout, err := ParseShaderLayout(src, "vs_main")
	require.NoError(t, err)
	require.Len(t, layout.Uniforms, 1)
	assert.Equal(t, UniformDecl{Group: 3, Binding: 0, Name: "light", Type: "Light", Size: 32}, layout.Uniforms[0])
	assert.Equal(t, []uint32{3}, layout.Groups())
}

func TestParseShaderLayoutSkipsBlockComments(t *testing.T) {
	src := `
struct Camera {
    view_pos: vec4<f32>,
    view_proj: mat4x4<f32>,
}
@group(0) @binding(0)
var<uniform> camera: Camera;

/*
@group(4) @binding(0)
var<uniform> stale: Camera;
*/

@vertex
fn vs_main(/* @location(7) unused: f32, */ @location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return camera.view_proj * vec4<f32>(position, 1.0);
}`
	layout, err := ParseShaderLayout(src, "vs_main")
	require.NoError(t, err)
	require.Len(t, layout.Uniforms, 1)
	assert.Equal(t, "camera", layout.Uniforms[0].Name)
	assert.Equal(t, uint64(CameraUniformSize), layout.Uniforms[0].Size)
	assert.Equal(t, map[uint32]string{0: "vec3<f32>"}, layout.Inputs)
}

func TestParseShaderLayoutRejectsInvalidSource(t *testing.T) {
	_, err := ParseShaderLayout("fn vs_main( {", "vs_main")
	assert.Error(t, err)
}

func mutate(t *testing.T, name, old, replacement string) shaders.Program {
	t.Helper()
	p, ok := shaders.Lookup(name)
	require.True(t, ok)
	require.Contains(t, p.Source, old)
	p.Source = strings.Replace(p.Source, old, replacement, 1)
	return p
}

func TestValidateShaderBindingsMismatch(t *testing.T) {
	tests := []struct {
		name    string
		program shaders.Program
		message string
	}{
		{
			name:    "light struct grows",
			program: mutate(t, "shader", "color: vec3<f32>,", "color: vec3<f32>,\n    direction: vec3<f32>,"),
			message: "48 bytes",
		},
		{
			name:    "light in wrong group",
			program: mutate(t, "shader", "@group(1) @binding(0)", "@group(2) @binding(0)"),
			message: "group 2 binding 0",
		},
		{
			name:    "light with binding before group",
			program: mutate(t, "shader", "@group(1) @binding(0)", "@binding(0) @group(3)"),
			message: "group 3 binding 0",
		},
		{
			name: "position declared as vec4",
			program: shaders.Program{Name: "wide", Source: `
@vertex
fn vs_main(@location(0) position: vec4<f32>) -> @builtin(position) vec4<f32> {
    return position;
}`},
			message: "@location(0) is vec4<f32>",
		},
		{
			name:    "normal moved off the vertex stream",
			program: mutate(t, "shader", "@location(2) normal: vec3<f32>", "@location(3) normal: vec3<f32>"),
			message: "@location(3) is not provided",
		},
		{
			name: "instance inputs without instance stream",
			program: func() shaders.Program {
				p, _ := shaders.Lookup("instanced")
				p.Instanced = false
				return p
			}(),
			message: "@location(5) is not provided",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateShaderBindings(tc.program)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBindingMismatch)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestBindingLayoutDescriptor(t *testing.T) {
	desc := LightBinding.LayoutDescriptor()
	require.Len(t, desc.Entries, 1)
	entry := desc.Entries[0]
	assert.Equal(t, uint32(0), entry.Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entry.Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entry.Buffer.Type)
	assert.Equal(t, uint64(LightUniformSize), entry.Buffer.MinBindingSize)
}

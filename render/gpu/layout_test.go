package gpu

import (
	"testing"
	"unsafe"

	"github.com/gekko3d/meshlight/render/core"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexBufferLayout(t *testing.T) {
	layout, err := VertexBufferLayout(ModelVertex{}, wgpu.VertexStepModeVertex)
	require.NoError(t, err)

	assert.Equal(t, uint64(32), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{
		{ShaderLocation: 0, Offset: 0, Format: wgpu.VertexFormatFloat32x3},
		{ShaderLocation: 1, Offset: 12, Format: wgpu.VertexFormatFloat32x2},
		{ShaderLocation: 2, Offset: 20, Format: wgpu.VertexFormatFloat32x3},
	}, layout.Attributes)
}

func TestInstanceBufferLayout(t *testing.T) {
	layout, err := VertexBufferLayout(InstanceRecord{}, wgpu.VertexStepModeInstance)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, layout.StepMode)
	require.Len(t, layout.Attributes, 7)

	offsets := []uint64{0, 16, 32, 48, 64, 76, 88}
	for i, a := range layout.Attributes {
		assert.Equal(t, uint32(5+i), a.ShaderLocation)
		assert.Equal(t, offsets[i], a.Offset)
		if i < 4 {
			assert.Equal(t, wgpu.VertexFormatFloat32x4, a.Format)
		} else {
			assert.Equal(t, wgpu.VertexFormatFloat32x3, a.Format)
		}
	}
}

func TestHostRecordsMatchCoreTypes(t *testing.T) {
	assert.Equal(t, unsafe.Sizeof(core.Vertex{}), unsafe.Sizeof(ModelVertex{}))
	assert.Equal(t, unsafe.Sizeof(core.InstanceRaw{}), unsafe.Sizeof(InstanceRecord{}))
}

func TestStreamLayouts(t *testing.T) {
	plain, err := StreamLayouts(false)
	require.NoError(t, err)
	assert.Len(t, plain, 1)

	instanced, err := StreamLayouts(true)
	require.NoError(t, err)
	require.Len(t, instanced, 2)
	assert.Equal(t, wgpu.VertexStepModeInstance, instanced[1].StepMode)
}

func TestVertexBufferLayoutErrors(t *testing.T) {
	type badFormat struct {
		P mgl32.Vec3 `meshlight:"layout" format:"half3" location:"0"`
	}
	type badLocation struct {
		P mgl32.Vec3 `meshlight:"layout" format:"float3" location:"x"`
	}

	_, err := VertexBufferLayout(badFormat{}, wgpu.VertexStepModeVertex)
	assert.Error(t, err)
	_, err = VertexBufferLayout(badLocation{}, wgpu.VertexStepModeVertex)
	assert.Error(t, err)
	_, err = VertexBufferLayout(42, wgpu.VertexStepModeVertex)
	assert.Error(t, err)
}

func TestUntaggedFieldsAdvanceOffset(t *testing.T) {
	type padded struct {
		Pad float32
		P   mgl32.Vec3 `meshlight:"layout" format:"float3" location:"3"`
	}
	layout, err := VertexBufferLayout(padded{}, wgpu.VertexStepModeVertex)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), layout.ArrayStride)
	require.Len(t, layout.Attributes, 1)
	assert.Equal(t, uint64(4), layout.Attributes[0].Offset)
}

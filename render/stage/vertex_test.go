package stage

import (
	"testing"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func testCamera() core.CameraUniform {
	cam := core.NewOrbitCamera(4, 0.4, 0.9, mgl32.Vec3{0, 0, 0}, 16.0/9.0)
	u := core.NewCameraUniform()
	u.Update(cam)
	return u
}

func scaledRotatedInstance() core.InstanceRaw {
	tr := core.NewTransform()
	tr.Position = mgl32.Vec3{3, -2, 7}
	tr.Rotation = mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0})
	tr.Scale = mgl32.Vec3{2, 0.5, 3}
	return tr.Instance()
}

func TestVertexStageInstanceTransformIsInert(t *testing.T) {
	cam := testCamera()
	v := core.Vertex{
		Position:  mgl32.Vec3{0.25, -1.5, 2},
		TexCoords: mgl32.Vec2{0.3, 0.7},
		Normal:    mgl32.Vec3{0, 2, 0},
	}
	inst := scaledRotatedInstance()

	plain := VertexStage{}.Run(cam, v, nil)
	instanced := VertexStage{}.Run(cam, v, &inst)

	assert.Equal(t, v.Position, instanced.WorldPosition)
	assert.Equal(t, cam.ViewProj.Mul4x1(v.Position.Vec4(1.0)), instanced.ClipPosition)
	assert.Equal(t, plain, instanced)
	assert.Equal(t, v.Normal, instanced.WorldNormal, "normal passes through unnormalized")
	assert.Equal(t, v.TexCoords, instanced.TexCoords)
}

func TestVertexStageClipIsViewProjTimesWorld(t *testing.T) {
	cam := testCamera()
	positions := []mgl32.Vec3{
		{0, 0, 0},
		{1, 2, 3},
		{-4.5, 0.125, 9},
		{1e3, -1e3, 0.5},
	}
	for _, p := range positions {
		out := VertexStage{}.Run(cam, core.Vertex{Position: p}, nil)
		assert.Equal(t, cam.ViewProj.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1.0}), out.ClipPosition)
		assert.Equal(t, p, out.WorldPosition)
	}
}

func TestVertexStageApplyInstanceTransform(t *testing.T) {
	cam := testCamera()
	inst := scaledRotatedInstance()
	v := core.Vertex{Position: mgl32.Vec3{1, 1, 1}, Normal: mgl32.Vec3{0, 1, 0}}

	out := VertexStage{ApplyInstanceTransform: true}.Run(cam, v, &inst)

	world := inst.ModelMatrix().Mul4x1(v.Position.Vec4(1.0))
	assert.Equal(t, world.Vec3(), out.WorldPosition)
	assert.Equal(t, cam.ViewProj.Mul4x1(world), out.ClipPosition)
	assert.Equal(t, inst.NormalMatrix().Mul3x1(v.Normal), out.WorldNormal)

	// Without an instance the flag has nothing to apply.
	plain := VertexStage{ApplyInstanceTransform: true}.Run(cam, v, nil)
	assert.Equal(t, v.Position, plain.WorldPosition)
}

func TestVertexStagePropagatesNaN(t *testing.T) {
	cam := core.NewCameraUniform()
	cam.ViewProj[0] = float32NaN()

	out := VertexStage{}.Run(cam, core.Vertex{Position: mgl32.Vec3{1, 0, 0}}, nil)
	assert.True(t, isNaN(out.ClipPosition.X()))
	assert.Equal(t, mgl32.Vec3{}, out.WorldNormal)
}

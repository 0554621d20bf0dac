package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrustumCulling(t *testing.T) {
	// Camera at origin looking down -Z
	// Perspective: 90 deg FOV, Aspect 1.0, Near 1, Far 100
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 1.0, 100.0)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},  // Eye
		mgl32.Vec3{0, 0, -1}, // Center
		mgl32.Vec3{0, 1, 0},  // Up
	)
	viewProj := OpenGLToWGPU.Mul4(proj).Mul4(view)
	planes := ExtractFrustum(viewProj)

	tests := []struct {
		name     string
		aabbMin  mgl32.Vec3
		aabbMax  mgl32.Vec3
		expected bool
	}{
		{"Inside (center)", mgl32.Vec3{-1, -1, -10}, mgl32.Vec3{1, 1, -5}, true},
		{"Outside (Left)", mgl32.Vec3{-20, -1, -10}, mgl32.Vec3{-15, 1, -5}, false},
		{"Outside (Right)", mgl32.Vec3{15, -1, -10}, mgl32.Vec3{20, 1, -5}, false},
		{"Outside (Behind/Near)", mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 5}, false},
		{"Outside (Far)", mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}, false},
		// Left edge is at roughly -10 (tan(45)*10)
		{"Intersecting (Left Plane)", mgl32.Vec3{-15, -1, -10}, mgl32.Vec3{-5, 1, -5}, true},
		{"Encompassing (Huge box)", mgl32.Vec3{-1000, -1000, -1000}, mgl32.Vec3{1000, 1000, 1000}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			aabb := [2]mgl32.Vec3{tc.aabbMin, tc.aabbMax}
			assert.Equal(t, tc.expected, AABBInFrustum(aabb, planes))
		})
	}
}

func TestTransformAABB(t *testing.T) {
	box := [2]mgl32.Vec3{{-1, -1, -1}, {1, 1, 1}}
	m := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1))

	out := TransformAABB(box, m)

	assert.Equal(t, mgl32.Vec3{8, -1, -1}, out[0])
	assert.Equal(t, mgl32.Vec3{12, 1, 1}, out[1])
}

func TestOrbitCameraEye(t *testing.T) {
	cam := NewOrbitCamera(2, 0, 0, mgl32.Vec3{0, 0, 0}, 16.0/9.0)

	eye := cam.Eye()
	assert.InDelta(t, 0, eye.X(), 1e-6)
	assert.InDelta(t, 0, eye.Y(), 1e-6)
	assert.InDelta(t, 2, eye.Z(), 1e-6)

	cam.Target = mgl32.Vec3{1, 2, 3}
	eye = cam.Eye()
	assert.InDelta(t, 5, eye.Z(), 1e-6)
	assert.InDelta(t, 2, eye.Y(), 1e-6)
}

func TestOrbitCameraBounds(t *testing.T) {
	cam := NewOrbitCamera(2, 0, 0, mgl32.Vec3{}, 1)
	minDist := float32(1.1)
	cam.Bounds.MinDistance = &minDist

	cam.AddDistance(-5)
	assert.Equal(t, minDist, cam.Distance)

	cam.AddPitch(10)
	assert.Equal(t, cam.Bounds.MaxPitch, cam.Pitch)
	cam.AddPitch(-20)
	assert.Equal(t, cam.Bounds.MinPitch, cam.Pitch)
}

func TestOrbitCameraResizeIgnoresZero(t *testing.T) {
	cam := NewOrbitCamera(2, 0, 0, mgl32.Vec3{}, 1.5)
	cam.ResizeProjection(0, 720)
	assert.Equal(t, float32(1.5), cam.Aspect)

	cam.ResizeProjection(800, 400)
	assert.Equal(t, float32(2), cam.Aspect)
}

func TestOrbitCameraTargetProjectsToCenter(t *testing.T) {
	cam := NewOrbitCamera(3, 0.3, 0.7, mgl32.Vec3{1, 0, -1}, 1)
	clip := cam.ViewProjection().Mul4x1(cam.Target.Vec4(1))
	require.Greater(t, clip.W(), float32(0))

	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.GreaterOrEqual(t, ndc.Z(), float32(0))
	assert.LessOrEqual(t, ndc.Z(), float32(1))
}

func TestCameraUniformUpdate(t *testing.T) {
	cam := NewOrbitCamera(2, 0, 0, mgl32.Vec3{}, 1)
	u := NewCameraUniform()
	assert.Equal(t, mgl32.Ident4(), u.ViewProj)

	u.Update(cam)
	assert.Equal(t, float32(1), u.ViewPos.W())
	assert.Equal(t, cam.ViewProjection(), u.ViewProj)
	assert.Equal(t, cam.Eye(), u.ViewPos.Vec3())
}

func TestCameraControllerRotateAndPan(t *testing.T) {
	cam := NewOrbitCamera(2, 0, 0, mgl32.Vec3{}, 1)
	ctl := NewCameraController(0.0025, 0.1)

	assert.False(t, ctl.ApplyMotion(cam, 10, 10))

	ctl.SetPrimaryButton(true)
	require.True(t, ctl.ApplyMotion(cam, 100, 0))
	assert.InDelta(t, -0.25, cam.Yaw, 1e-6)

	ctl.SetPrimaryButton(false)
	ctl.SetPanModifier(true)
	before := cam.Target
	require.True(t, ctl.ApplyMotion(cam, 10, 0))
	assert.NotEqual(t, before, cam.Target)
	assert.True(t, ctl.Panning())
	assert.False(t, ctl.Rotating())
}

func TestCameraControllerScroll(t *testing.T) {
	cam := NewOrbitCamera(2, 0, 0, mgl32.Vec3{}, 1)
	ctl := NewCameraController(0.0025, 0.1)

	assert.False(t, ctl.ApplyScroll(cam, 0))
	assert.True(t, ctl.ApplyScroll(cam, 5))
	assert.InDelta(t, 1.5, cam.Distance, 1e-6)
}

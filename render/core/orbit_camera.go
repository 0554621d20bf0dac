package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OpenGLToWGPU remaps clip depth from -w..w to the 0..w range WebGPU expects.
var OpenGLToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// OrbitCameraBounds limits the orbit. Nil fields are unbounded.
type OrbitCameraBounds struct {
	MinDistance *float32
	MaxDistance *float32
	MinPitch    float32
	MaxPitch    float32
	MinYaw      *float32
	MaxYaw      *float32
}

func DefaultOrbitCameraBounds() OrbitCameraBounds {
	return OrbitCameraBounds{
		MinPitch: -math.Pi/2 + 0.1,
		MaxPitch: math.Pi/2 - 0.1,
	}
}

// OrbitCamera circles a target at a distance. Yaw rotates about +Y,
// pitch raises the eye above the XZ plane.
type OrbitCamera struct {
	Distance float32
	Pitch    float32
	Yaw      float32
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	Bounds   OrbitCameraBounds

	Aspect float32
	FovY   float32 // radians
	ZNear  float32
	ZFar   float32
}

func NewOrbitCamera(distance, pitch, yaw float32, target mgl32.Vec3, aspect float32) *OrbitCamera {
	c := &OrbitCamera{
		Target: target,
		Up:     mgl32.Vec3{0, 1, 0},
		Bounds: DefaultOrbitCameraBounds(),
		Aspect: aspect,
		FovY:   mgl32.DegToRad(45),
		ZNear:  0.1,
		ZFar:   1000.0,
	}
	c.SetDistance(distance)
	c.SetPitch(pitch)
	c.SetYaw(yaw)
	return c
}

// Eye returns the world-space eye position.
func (c *OrbitCamera) Eye() mgl32.Vec3 {
	cp, sp := cosSin(c.Pitch)
	cy, sy := cosSin(c.Yaw)
	offset := mgl32.Vec3{c.Distance * cp * sy, c.Distance * sp, c.Distance * cp * cy}
	return c.Target.Add(offset)
}

func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, c.Up)
}

func (c *OrbitCamera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, c.Aspect, c.ZNear, c.ZFar)
}

// ViewProjection returns the combined matrix in WebGPU clip conventions.
func (c *OrbitCamera) ViewProjection() mgl32.Mat4 {
	return OpenGLToWGPU.Mul4(c.Projection()).Mul4(c.View())
}

func (c *OrbitCamera) SetDistance(distance float32) {
	if c.Bounds.MinDistance != nil {
		distance = max(distance, *c.Bounds.MinDistance)
	}
	if c.Bounds.MaxDistance != nil {
		distance = min(distance, *c.Bounds.MaxDistance)
	}
	c.Distance = distance
}

func (c *OrbitCamera) AddDistance(delta float32) {
	c.SetDistance(c.Distance + delta)
}

func (c *OrbitCamera) SetPitch(pitch float32) {
	c.Pitch = mgl32.Clamp(pitch, c.Bounds.MinPitch, c.Bounds.MaxPitch)
}

func (c *OrbitCamera) AddPitch(delta float32) {
	c.SetPitch(c.Pitch + delta)
}

func (c *OrbitCamera) SetYaw(yaw float32) {
	if c.Bounds.MinYaw != nil {
		yaw = max(yaw, *c.Bounds.MinYaw)
	}
	if c.Bounds.MaxYaw != nil {
		yaw = min(yaw, *c.Bounds.MaxYaw)
	}
	c.Yaw = yaw
}

func (c *OrbitCamera) AddYaw(delta float32) {
	c.SetYaw(c.Yaw + delta)
}

// Pan moves the target in the camera's screen plane, scaled by distance.
func (c *OrbitCamera) Pan(dx, dy float32) {
	forward := c.Target.Sub(c.Eye()).Normalize()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward).Normalize()
	c.Target = c.Target.
		Sub(right.Mul(dx * c.Distance)).
		Add(up.Mul(dy * c.Distance))
}

// ResizeProjection updates the aspect ratio. Zero-sized windows are ignored.
func (c *OrbitCamera) ResizeProjection(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

func cosSin(a float32) (float32, float32) {
	s, co := math.Sincos(float64(a))
	return float32(co), float32(s)
}

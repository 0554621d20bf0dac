package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places one instance: scale, then rotate, then translate.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// AxisAngle sets the rotation; a zero angle resets it to identity.
func (t *Transform) AxisAngle(axis mgl32.Vec3, radians float32) {
	if radians == 0 || axis.Len() == 0 {
		t.Rotation = mgl32.QuatIdent()
		return
	}
	t.Rotation = mgl32.QuatRotate(radians, axis.Normalize())
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

func (t *Transform) WorldToObject() mgl32.Mat4 {
	// unit quaternion: the conjugate is the inverse rotation
	return mgl32.Scale3D(1/t.Scale[0], 1/t.Scale[1], 1/t.Scale[2]).
		Mul4(t.Rotation.Conjugate().Mat4()).
		Mul4(mgl32.Translate3D(-t.Position[0], -t.Position[1], -t.Position[2]))
}

// NormalMatrix is the inverse-transpose of the upper 3x3 of ObjectToWorld,
// which for this composition equals R * inv(S).
func (t *Transform) NormalMatrix() mgl32.Mat3 {
	return t.WorldToObject().Mat3().Transpose()
}

// Instance packs the transform into an instance stream record.
func (t *Transform) Instance() InstanceRaw {
	return NewInstanceRaw(t.ObjectToWorld(), t.NormalMatrix())
}

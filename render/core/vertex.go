package core

import "github.com/go-gl/mathgl/mgl32"

// Vertex is one object-space mesh vertex. Normals are not required to be
// unit length.
type Vertex struct {
	Position  mgl32.Vec3
	TexCoords mgl32.Vec2
	Normal    mgl32.Vec3
}

// InstanceRaw is the per-instance record read from the instance stream.
// Model holds the columns of the 4x4 model matrix, Normal the columns of
// the 3x3 normal matrix.
type InstanceRaw struct {
	Model  [4]mgl32.Vec4
	Normal [3]mgl32.Vec3
}

func IdentityInstance() InstanceRaw {
	return NewInstanceRaw(mgl32.Ident4(), mgl32.Ident3())
}

func NewInstanceRaw(model mgl32.Mat4, normal mgl32.Mat3) InstanceRaw {
	return InstanceRaw{
		Model:  [4]mgl32.Vec4{model.Col(0), model.Col(1), model.Col(2), model.Col(3)},
		Normal: [3]mgl32.Vec3{normal.Col(0), normal.Col(1), normal.Col(2)},
	}
}

func (i InstanceRaw) ModelMatrix() mgl32.Mat4 {
	return mgl32.Mat4FromCols(i.Model[0], i.Model[1], i.Model[2], i.Model[3])
}

func (i InstanceRaw) NormalMatrix() mgl32.Mat3 {
	return mgl32.Mat3FromCols(i.Normal[0], i.Normal[1], i.Normal[2])
}

// VertexOutput is produced once per vertex and interpolated across a
// primitive before fragment shading. Nothing in it is normalized.
type VertexOutput struct {
	ClipPosition  mgl32.Vec4
	WorldNormal   mgl32.Vec3
	WorldPosition mgl32.Vec3
	TexCoords     mgl32.Vec2
}

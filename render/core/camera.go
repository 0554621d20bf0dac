package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraUniform is the per-frame camera snapshot bound at group 0, binding 0.
// ViewProj combines view and projection and is never split by the stages.
type CameraUniform struct {
	ViewPos  mgl32.Vec4 // eye position, homogeneous (w = 1) for 16 byte alignment
	ViewProj mgl32.Mat4
}

func NewCameraUniform() CameraUniform {
	return CameraUniform{ViewProj: mgl32.Ident4()}
}

// Update copies the eye and combined matrix of the orbit camera.
func (c *CameraUniform) Update(cam *OrbitCamera) {
	eye := cam.Eye()
	c.ViewPos = mgl32.Vec4{eye.X(), eye.Y(), eye.Z(), 1.0}
	c.ViewProj = cam.ViewProjection()
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0 with the normal pointing inside.
// Depth is expected in WebGPU clip range 0..w.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes[0] = r3.Add(r0) // Left
	planes[1] = r3.Sub(r0) // Right
	planes[2] = r3.Add(r1) // Bottom
	planes[3] = r3.Sub(r1) // Top
	planes[4] = r2         // Near (0..w depth)
	planes[5] = r3.Sub(r2) // Far

	for i := 0; i < 6; i++ {
		length := float32(math.Sqrt(float64(planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2])))
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}

// AABBInFrustum reports whether the box is at least partially inside all planes.
func AABBInFrustum(aabb [2]mgl32.Vec3, planes [6]mgl32.Vec4) bool {
	for _, plane := range planes {
		// most-inside corner along the plane normal
		var p mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane[axis] > 0 {
				p[axis] = aabb[1][axis]
			} else {
				p[axis] = aabb[0][axis]
			}
		}
		if plane.Dot(p.Vec4(1.0)) < 0 {
			return false
		}
	}
	return true
}

// TransformAABB returns the world-space box enclosing the 8 transformed corners.
func TransformAABB(aabb [2]mgl32.Vec3, m mgl32.Mat4) [2]mgl32.Vec3 {
	inf := float32(math.Inf(1))
	out := [2]mgl32.Vec3{{inf, inf, inf}, {-inf, -inf, -inf}}
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{
			aabb[i&1][0],
			aabb[(i>>1)&1][1],
			aabb[(i>>2)&1][2],
		}
		w := m.Mul4x1(corner.Vec4(1.0)).Vec3()
		for axis := 0; axis < 3; axis++ {
			out[0][axis] = min(out[0][axis], w[axis])
			out[1][axis] = max(out[1][axis], w[axis])
		}
	}
	return out
}

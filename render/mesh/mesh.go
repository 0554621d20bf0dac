// Package mesh holds CPU-side triangle meshes fed to both the software
// rasterizer and the GPU buffers.
package mesh

import (
	"math"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Mesh is an indexed triangle list with counter-clockwise front faces.
type Mesh struct {
	ID       uuid.UUID
	Name     string
	Vertices []core.Vertex
	Indices  []uint32
	Bounds   [2]mgl32.Vec3
}

func New(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		ID:       uuid.New(),
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}
	m.Bounds = ComputeBounds(vertices)
	return m
}

func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i int) [3]core.Vertex {
	return [3]core.Vertex{
		m.Vertices[m.Indices[3*i]],
		m.Vertices[m.Indices[3*i+1]],
		m.Vertices[m.Indices[3*i+2]],
	}
}

func ComputeBounds(vertices []core.Vertex) [2]mgl32.Vec3 {
	if len(vertices) == 0 {
		return [2]mgl32.Vec3{}
	}
	inf := float32(math.Inf(1))
	b := [2]mgl32.Vec3{{inf, inf, inf}, {-inf, -inf, -inf}}
	for _, v := range vertices {
		for axis := 0; axis < 3; axis++ {
			b[0][axis] = min(b[0][axis], v.Position[axis])
			b[1][axis] = max(b[1][axis], v.Position[axis])
		}
	}
	return b
}

var cubeFaces = [6]struct {
	normal mgl32.Vec3
	u, v   mgl32.Vec3
}{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// appendCube adds an axis-aligned cube with flat per-face normals.
func appendCube(vertices []core.Vertex, indices []uint32, center mgl32.Vec3, half float32) ([]core.Vertex, []uint32) {
	for _, f := range cubeFaces {
		base := uint32(len(vertices))
		c := center.Add(f.normal.Mul(half))
		corners := [4]struct {
			su, sv float32
			uv     mgl32.Vec2
		}{
			{-1, -1, mgl32.Vec2{0, 1}},
			{1, -1, mgl32.Vec2{1, 1}},
			{1, 1, mgl32.Vec2{1, 0}},
			{-1, 1, mgl32.Vec2{0, 0}},
		}
		for _, k := range corners {
			p := c.Add(f.u.Mul(k.su * half)).Add(f.v.Mul(k.sv * half))
			vertices = append(vertices, core.Vertex{Position: p, TexCoords: k.uv, Normal: f.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// Cube returns a single cube of the given edge length centered on the origin.
func Cube(size float32) *Mesh {
	v, i := appendCube(nil, nil, mgl32.Vec3{}, size/2)
	return New("cube", v, i)
}

// CubeGrid lays n*n*n cubes of edge size on a grid with the given spacing,
// centered on the origin.
func CubeGrid(n int, size, spacing float32) *Mesh {
	if n < 1 {
		n = 1
	}
	var vertices []core.Vertex
	var indices []uint32
	offset := float32(n-1) * spacing / 2
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				center := mgl32.Vec3{
					float32(x)*spacing - offset,
					float32(y)*spacing - offset,
					float32(z)*spacing - offset,
				}
				vertices, indices = appendCube(vertices, indices, center, size/2)
			}
		}
	}
	return New("manycubes", vertices, indices)
}

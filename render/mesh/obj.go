package mesh

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// LoadOBJ reads a Wavefront OBJ file into one mesh. Polygons are fan
// triangulated. Faces without normals get their flat face normal.
func LoadOBJ(path string) (*Mesh, error) {
	dec, err := obj.Decode(path, "")
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var vertices []core.Vertex
	var indices []uint32

	position := func(i int) (mgl32.Vec3, bool) {
		if i < 0 || 3*i+2 >= len(dec.Vertices) {
			return mgl32.Vec3{}, false
		}
		return mgl32.Vec3{dec.Vertices[3*i], dec.Vertices[3*i+1], dec.Vertices[3*i+2]}, true
	}
	normal := func(face obj.Face, k int) (mgl32.Vec3, bool) {
		if k >= len(face.Normals) {
			return mgl32.Vec3{}, false
		}
		i := face.Normals[k]
		if i < 0 || 3*i+2 >= len(dec.Normals) {
			return mgl32.Vec3{}, false
		}
		return mgl32.Vec3{dec.Normals[3*i], dec.Normals[3*i+1], dec.Normals[3*i+2]}, true
	}
	uv := func(face obj.Face, k int) mgl32.Vec2 {
		if k >= len(face.Uvs) {
			return mgl32.Vec2{}
		}
		i := face.Uvs[k]
		if i < 0 || 2*i+1 >= len(dec.Uvs) {
			return mgl32.Vec2{}
		}
		return mgl32.Vec2{dec.Uvs[2*i], dec.Uvs[2*i+1]}
	}

	for _, object := range dec.Objects {
		for _, face := range object.Faces {
			if len(face.Vertices) < 3 {
				continue
			}
			corners := make([]core.Vertex, 0, len(face.Vertices))
			for k, vi := range face.Vertices {
				p, ok := position(vi)
				if !ok {
					return nil, fmt.Errorf("decode %s: object %q: vertex index %d out of range", path, object.Name, vi)
				}
				corners = append(corners, core.Vertex{Position: p, TexCoords: uv(face, k)})
			}
			flat := corners[1].Position.Sub(corners[0].Position).
				Cross(corners[2].Position.Sub(corners[0].Position))
			if flat.Len() > 0 {
				flat = flat.Normalize()
			}
			for k := range corners {
				if n, ok := normal(face, k); ok {
					corners[k].Normal = n
				} else {
					corners[k].Normal = flat
				}
			}

			base := uint32(len(vertices))
			vertices = append(vertices, corners...)
			for k := 1; k+1 < len(corners); k++ {
				indices = append(indices, base, base+uint32(k), base+uint32(k+1))
			}
		}
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("decode %s: no triangles", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, vertices, indices), nil
}

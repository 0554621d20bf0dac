package stage

import (
	"github.com/gekko3d/meshlight/render/core"
)

// VertexStage maps object-space vertices to clip space.
//
// ApplyInstanceTransform is off by default: the instance matrices are
// assembled but do not touch position or normal, so instanced copies all
// land on top of each other. Turning it on multiplies the position by the
// model matrix and the normal by the instance's normal matrix. That path
// previously produced visible stretching and is kept behind the flag until
// the normal-matrix derivation is re-checked.
type VertexStage struct {
	ApplyInstanceTransform bool
}

// Run shades one vertex. inst may be nil for non-instanced draws.
func (s VertexStage) Run(cam core.CameraUniform, v core.Vertex, inst *core.InstanceRaw) core.VertexOutput {
	worldPosition := v.Position.Vec4(1.0)
	worldNormal := v.Normal

	if inst != nil {
		model := inst.ModelMatrix()
		normal := inst.NormalMatrix()
		if s.ApplyInstanceTransform {
			worldPosition = model.Mul4x1(worldPosition)
			worldNormal = normal.Mul3x1(worldNormal)
		}
	}

	return core.VertexOutput{
		ClipPosition:  cam.ViewProj.Mul4x1(worldPosition),
		WorldNormal:   worldNormal,
		WorldPosition: worldPosition.Vec3(),
		TexCoords:     v.TexCoords,
	}
}

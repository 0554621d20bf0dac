package stage

import (
	"math"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/go-gl/mathgl/mgl32"
)

// FragmentStage shades interpolated vertex output with one point light.
type FragmentStage struct {
	Config ShadingConfig
}

func NewFragmentStage(cfg ShadingConfig) FragmentStage {
	return FragmentStage{Config: cfg}
}

// Run returns the RGBA color for one fragment. The world normal is used as
// interpolated; callers wanting exact lighting supply unit normals.
func (s FragmentStage) Run(cam core.CameraUniform, light core.LightUniform, in core.VertexOutput) mgl32.Vec4 {
	if s.Config.BaseColorMode == BaseColorDebug {
		return in.WorldNormal.Vec4(1.0)
	}
	base := s.Config.Albedo

	n := in.WorldNormal
	lightDir := normalize(light.Position.Sub(in.WorldPosition))
	viewDir := normalize(cam.ViewPos.Vec3().Sub(in.WorldPosition))
	halfDir := normalize(viewDir.Add(lightDir))

	ambient := light.Color.Mul(s.Config.AmbientStrength)

	diffuseStrength := max(n.Dot(lightDir), 0.0)
	diffuse := light.Color.Mul(diffuseStrength)

	specularStrength := pow(max(n.Dot(halfDir), 0.0), s.Config.Shininess)
	specular := light.Color.Mul(specularStrength)

	result := mulComponents(ambient.Add(diffuse).Add(specular), base.Vec3())

	if s.Config.ApplyRim {
		result = result.Mul(RimFactor(cam, in))
	}

	return result.Vec4(base.W())
}

// RimFactor is the Fresnel-style intensity blend: 0.5 where the view vector
// grazes the surface, 1.0 where it faces it. The world position is divided
// by the eye's w before forming the view vector.
func RimFactor(cam core.CameraUniform, in core.VertexOutput) float32 {
	w := cam.ViewPos.W()
	eyeRelative := mgl32.Vec3{in.WorldPosition[0] / w, in.WorldPosition[1] / w, in.WorldPosition[2] / w}
	viewVec := normalize(cam.ViewPos.Vec3().Sub(eyeRelative))
	fresnel := abs(viewVec.Dot(in.WorldNormal))
	return mix(0.5, 1.0, fresnel)
}

// normalize divides by the length; a zero vector yields NaN components.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	return mgl32.Vec3{v[0] / l, v[1] / l, v[2] / l}
}

func mulComponents(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func pow(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

func abs(x float32) float32 {
	return float32(math.Abs(float64(x)))
}

func mix(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

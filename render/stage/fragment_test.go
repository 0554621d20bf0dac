package stage

import (
	"math"
	"testing"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float32NaN() float32 { return float32(math.NaN()) }

func isNaN(f float32) bool { return f != f }

// eyeOnZ places the eye and the light on +z above the origin.
func eyeOnZ() (core.CameraUniform, core.LightUniform) {
	cam := core.NewCameraUniform()
	cam.ViewPos = mgl32.Vec4{0, 0, 3, 1}
	light := core.LightUniform{
		Position: mgl32.Vec3{0, 0, 5},
		Color:    mgl32.Vec3{1, 1, 1},
	}
	return cam, light
}

func litConfig(ambient float32, rim bool) ShadingConfig {
	return ShadingConfig{
		BaseColorMode:   BaseColorFixedAlbedo,
		Albedo:          DefaultAlbedo,
		ApplyRim:        rim,
		AmbientStrength: ambient,
		Shininess:       32,
	}
}

func TestFragmentStageDebugIgnoresLighting(t *testing.T) {
	cfg, ok := Preset(PresetDebug)
	require.True(t, ok)
	fs := NewFragmentStage(cfg)

	in := core.VertexOutput{
		WorldNormal:   mgl32.Vec3{0.2, -3, 0.5},
		WorldPosition: mgl32.Vec3{1, 2, 3},
	}

	cam, light := eyeOnZ()
	a := fs.Run(cam, light, in)

	light.Color = mgl32.Vec3{0, 0, 0}
	light.Position = mgl32.Vec3{-100, 4, 2}
	cam.ViewPos = mgl32.Vec4{9, 9, 9, 2}
	b := fs.Run(cam, light, in)

	assert.Equal(t, mgl32.Vec4{0.2, -3, 0.5, 1.0}, a)
	assert.Equal(t, a, b)
}

func TestFragmentStageBlackLight(t *testing.T) {
	cam, light := eyeOnZ()
	light.Color = mgl32.Vec3{0, 0, 0}

	for _, rim := range []bool{false, true} {
		fs := NewFragmentStage(litConfig(0.2, rim))
		out := fs.Run(cam, light, core.VertexOutput{
			WorldNormal:   mgl32.Vec3{0, 0, 1},
			WorldPosition: mgl32.Vec3{0.3, -0.1, 0},
		})
		assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, out, "rim=%v", rim)
	}
}

func TestFragmentStageSaturatedTerms(t *testing.T) {
	cam, light := eyeOnZ()
	fs := NewFragmentStage(litConfig(0.2, false))

	out := fs.Run(cam, light, core.VertexOutput{
		WorldNormal:   mgl32.Vec3{0, 0, 1},
		WorldPosition: mgl32.Vec3{0, 0, 0},
	})

	ambient, diffuse, specular := float32(0.2), float32(1.0), float32(1.0)
	sum := ambient + diffuse + specular
	expected := mgl32.Vec4{
		sum * DefaultAlbedo[0],
		sum * DefaultAlbedo[1],
		sum * DefaultAlbedo[2],
		1.0,
	}
	assert.Equal(t, expected, out)
	assert.Greater(t, out.X(), float32(1), "output is not clamped")
}

func TestFragmentStageRimBlend(t *testing.T) {
	cam, light := eyeOnZ()
	plain := NewFragmentStage(litConfig(0.1, false))
	rim := NewFragmentStage(litConfig(0.1, true))

	tests := []struct {
		name   string
		normal mgl32.Vec3
		factor float32
	}{
		{"perpendicular", mgl32.Vec3{1, 0, 0}, 0.5},
		{"parallel", mgl32.Vec3{0, 0, 1}, 1.0},
		{"facing away", mgl32.Vec3{0, 0, -1}, 1.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := core.VertexOutput{WorldNormal: tc.normal}
			assert.Equal(t, tc.factor, RimFactor(cam, in))

			base := plain.Run(cam, light, in)
			got := rim.Run(cam, light, in)
			assert.Equal(t, base.Vec3().Mul(tc.factor), got.Vec3())
			assert.Equal(t, base.W(), got.W())
		})
	}
}

func TestRimFactorDividesPositionByEyeW(t *testing.T) {
	cam := core.NewCameraUniform()
	cam.ViewPos = mgl32.Vec4{0, 0, 4, 2}
	// world/w = (0,2,0); view vector (0,-2,4) normalized
	in := core.VertexOutput{
		WorldNormal:   mgl32.Vec3{0, 0, 1},
		WorldPosition: mgl32.Vec3{0, 4, 0},
	}
	f := RimFactor(cam, in)
	expectedDot := 4 / float32(math.Sqrt(20))
	assert.InDelta(t, 0.5+0.5*expectedDot, f, 1e-6)
}

func TestRimFactorDividesEachComponent(t *testing.T) {
	scaled := core.NewCameraUniform()
	scaled.ViewPos = mgl32.Vec4{0.5, 1.5, 2.5, 3}
	unit := scaled
	unit.ViewPos[3] = 1

	for i := 0; i < 1000; i++ {
		p := mgl32.Vec3{float32(i) * 0.0131, 1 - float32(i)*0.0027, float32(i%37) * 0.071}
		in := core.VertexOutput{WorldNormal: mgl32.Vec3{0.2, 0.9, 0.4}, WorldPosition: p}
		divided := in
		divided.WorldPosition = mgl32.Vec3{p[0] / 3, p[1] / 3, p[2] / 3}

		require.Equal(t, math.Float32bits(RimFactor(unit, divided)), math.Float32bits(RimFactor(scaled, in)),
			"position %v", p)
	}
}

func TestFragmentStageDeterministic(t *testing.T) {
	cam := testCamera()
	light := core.DefaultLight()
	in := core.VertexOutput{
		WorldNormal:   mgl32.Vec3{0.3, 0.8, -0.2},
		WorldPosition: mgl32.Vec3{0.1, 0.25, -0.4},
	}

	for _, name := range PresetNames() {
		cfg, _ := Preset(name)
		fs := NewFragmentStage(cfg)
		first := fs.Run(cam, light, in)
		for i := 0; i < 16; i++ {
			again := fs.Run(cam, light, in)
			for c := 0; c < 4; c++ {
				assert.Equal(t, math.Float32bits(first[c]), math.Float32bits(again[c]), "preset %s", name)
			}
		}
	}
}

func TestFragmentStageZeroLengthPropagatesNaN(t *testing.T) {
	cam, light := eyeOnZ()
	fs := NewFragmentStage(litConfig(0.1, false))

	// Fragment exactly at the light: light_dir is 0/0.
	out := fs.Run(cam, light, core.VertexOutput{
		WorldNormal:   mgl32.Vec3{0, 0, 1},
		WorldPosition: light.Position,
	})
	assert.True(t, isNaN(out.X()))
	assert.Equal(t, float32(1), out.W())
}

func TestFragmentStageBackFacingKeepsAmbient(t *testing.T) {
	cam, light := eyeOnZ()
	fs := NewFragmentStage(litConfig(0.1, false))

	out := fs.Run(cam, light, core.VertexOutput{WorldNormal: mgl32.Vec3{0, 0, -1}})

	ambient := float32(0.1)
	assert.Equal(t, ambient*DefaultAlbedo[0], out.X())
	assert.Equal(t, ambient*DefaultAlbedo[1], out.Y())
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{PresetDebug, PresetInstanced, PresetLit, PresetRim}, PresetNames())

	rim, _ := Preset(PresetRim)
	assert.Equal(t, DefaultShadingConfig(), rim)
	assert.True(t, rim.ApplyRim)

	inst, _ := Preset(PresetInstanced)
	assert.Equal(t, float32(0.2), inst.AmbientStrength)
	assert.False(t, inst.ApplyRim)

	_, ok := Preset("nope")
	assert.False(t, ok)
}

func TestParseBaseColorMode(t *testing.T) {
	m, err := ParseBaseColorMode("debug")
	require.NoError(t, err)
	assert.Equal(t, BaseColorDebug, m)
	assert.Equal(t, "debug", m.String())

	m, err = ParseBaseColorMode("")
	require.NoError(t, err)
	assert.Equal(t, BaseColorFixedAlbedo, m)

	_, err = ParseBaseColorMode("textured")
	assert.Error(t, err)
}

package stage

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// BaseColorMode selects where the fragment base color comes from.
type BaseColorMode int

const (
	// BaseColorFixedAlbedo shades a constant albedo with Blinn-Phong.
	BaseColorFixedAlbedo BaseColorMode = iota
	// BaseColorDebug writes the world normal as color and skips lighting.
	BaseColorDebug
)

func (m BaseColorMode) String() string {
	switch m {
	case BaseColorFixedAlbedo:
		return "albedo"
	case BaseColorDebug:
		return "debug"
	default:
		return fmt.Sprintf("BaseColorMode(%d)", int(m))
	}
}

// ParseBaseColorMode accepts the names produced by String.
func ParseBaseColorMode(name string) (BaseColorMode, error) {
	switch name {
	case "albedo", "lit", "":
		return BaseColorFixedAlbedo, nil
	case "debug", "normals":
		return BaseColorDebug, nil
	}
	return 0, fmt.Errorf("unknown base color mode %q", name)
}

// DefaultAlbedo is the fixed surface color of the lit shaders.
var DefaultAlbedo = mgl32.Vec4{0.9, 0.8, 0.8, 1.0}

// ShadingConfig selects one of the fragment shading variants.
type ShadingConfig struct {
	BaseColorMode   BaseColorMode
	Albedo          mgl32.Vec4
	ApplyRim        bool
	AmbientStrength float32
	Shininess       float32
}

// Named presets matching the shipped shader programs.
const (
	PresetDebug     = "debug"
	PresetLit       = "lit"
	PresetRim       = "rim"
	PresetInstanced = "instanced"
)

var presets = map[string]ShadingConfig{
	PresetDebug: {
		BaseColorMode:   BaseColorDebug,
		Albedo:          DefaultAlbedo,
		AmbientStrength: 0.1,
		Shininess:       32,
	},
	PresetLit: {
		BaseColorMode:   BaseColorFixedAlbedo,
		Albedo:          DefaultAlbedo,
		AmbientStrength: 0.1,
		Shininess:       32,
	},
	PresetRim: {
		BaseColorMode:   BaseColorFixedAlbedo,
		Albedo:          DefaultAlbedo,
		ApplyRim:        true,
		AmbientStrength: 0.1,
		Shininess:       32,
	},
	PresetInstanced: {
		BaseColorMode:   BaseColorFixedAlbedo,
		Albedo:          DefaultAlbedo,
		AmbientStrength: 0.2,
		Shininess:       32,
	},
}

// Preset returns a named configuration.
func Preset(name string) (ShadingConfig, bool) {
	c, ok := presets[name]
	return c, ok
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultShadingConfig is the lit variant with the rim factor.
func DefaultShadingConfig() ShadingConfig {
	return presets[PresetRim]
}

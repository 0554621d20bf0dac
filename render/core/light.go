package core

import "github.com/go-gl/mathgl/mgl32"

// LightUniform is the single point light bound at group 1, binding 0.
// Color is linear radiance and may exceed 1.
type LightUniform struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

func DefaultLight() LightUniform {
	return LightUniform{
		Position: mgl32.Vec3{2, 2, 2},
		Color:    mgl32.Vec3{1, 1, 1},
	}
}

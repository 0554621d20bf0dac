// Package stage implements the vertex and fragment stages of the mesh
// lighting core as pure functions over fixed-layout inputs.
//
// Both stages are total: they never fail and never guard against degenerate
// input. A zero-length vector normalizes to NaN and the NaN is passed on.
// Colors are not clamped.
package stage

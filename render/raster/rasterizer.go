package raster

import (
	"context"
	"math"
	"runtime"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/gekko3d/meshlight/render/mesh"
	"github.com/gekko3d/meshlight/render/stage"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

type PolygonMode int

const (
	PolygonFill PolygonMode = iota
	PolygonLine
)

type CullMode int

const (
	CullBack CullMode = iota
	CullNone
)

// minClipW rejects triangles touching or crossing the eye plane; there is
// no near-plane clipping.
const minClipW = 1e-6

// Pipeline is the fixed state of one draw.
type Pipeline struct {
	Vertex   stage.VertexStage
	Fragment stage.FragmentStage
	Cull     CullMode
	Polygon  PolygonMode
}

// Uniforms is the read-only snapshot shared by every invocation of a draw.
type Uniforms struct {
	Camera core.CameraUniform
	Light  core.LightUniform
}

// DrawCall draws a mesh once, or once per instance when Instances is set.
type DrawCall struct {
	Mesh      *mesh.Mesh
	Instances []core.InstanceRaw
}

// Stats counts the work done by one draw.
type Stats struct {
	Instances       int
	InstancesCulled int
	Triangles       int
	BackfaceCulled  int
	ClipRejected    int
	Fragments       int
}

// Add accumulates another draw's counters.
func (s *Stats) Add(o Stats) {
	s.Instances += o.Instances
	s.InstancesCulled += o.InstancesCulled
	s.Triangles += o.Triangles
	s.BackfaceCulled += o.BackfaceCulled
	s.ClipRejected += o.ClipRejected
	s.Fragments += o.Fragments
}

// Rasterizer runs draws on a framebuffer. Workers bounds the goroutines
// used per stage; zero means GOMAXPROCS.
type Rasterizer struct {
	Workers int
}

func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

func (r *Rasterizer) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// screenVertex is a shaded vertex after perspective divide.
type screenVertex struct {
	X, Y  float64 // pixels, y down
	Z     float32 // 0..1 depth
	InvW  float32
	Input core.VertexOutput
}

type setupTriangle struct {
	v          [3]screenVertex
	minY, maxY int
}

// Draw shades the draw call into fb. Invocations share no mutable state:
// vertices are shaded in independent chunks, fragments in disjoint row
// bands. If ctx is cancelled the framebuffer may be partially written and
// should be discarded.
func (r *Rasterizer) Draw(ctx context.Context, fb *Framebuffer, pipe Pipeline, uni Uniforms, draw DrawCall) (Stats, error) {
	var stats Stats
	if draw.Mesh == nil || fb.Width == 0 || fb.Height == 0 {
		return stats, nil
	}

	instances := []*core.InstanceRaw{nil}
	if len(draw.Instances) > 0 {
		instances = make([]*core.InstanceRaw, len(draw.Instances))
		for i := range draw.Instances {
			instances[i] = &draw.Instances[i]
		}
	}
	stats.Instances = len(instances)

	planes := core.ExtractFrustum(uni.Camera.ViewProj)
	var tris []setupTriangle
	for _, inst := range instances {
		if !r.instanceVisible(pipe, draw.Mesh, inst, planes) {
			stats.InstancesCulled++
			continue
		}
		outputs, err := r.shadeVertices(ctx, pipe.Vertex, uni.Camera, draw.Mesh.Vertices, inst)
		if err != nil {
			return stats, err
		}
		tris = r.setup(tris, fb, pipe, draw.Mesh, outputs, &stats)
	}

	fragments, err := r.shadeFragments(ctx, fb, pipe, uni, tris)
	stats.Fragments = fragments
	return stats, err
}

// instanceVisible culls against the frustum. Bounds only move with the
// instance when the vertex stage applies the instance transform.
func (r *Rasterizer) instanceVisible(pipe Pipeline, m *mesh.Mesh, inst *core.InstanceRaw, planes [6]mgl32.Vec4) bool {
	bounds := m.Bounds
	if inst != nil && pipe.Vertex.ApplyInstanceTransform {
		bounds = core.TransformAABB(bounds, inst.ModelMatrix())
	}
	return core.AABBInFrustum(bounds, planes)
}

func (r *Rasterizer) shadeVertices(ctx context.Context, vs stage.VertexStage, cam core.CameraUniform, vertices []core.Vertex, inst *core.InstanceRaw) ([]core.VertexOutput, error) {
	out := make([]core.VertexOutput, len(vertices))
	workers := r.workers()
	chunk := (len(vertices) + workers - 1) / workers
	if chunk < 256 {
		chunk = 256
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(vertices); start += chunk {
		start, end := start, min(start+chunk, len(vertices))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = vs.Run(cam, vertices[i], inst)
			}
			return nil
		})
	}
	return out, g.Wait()
}

func (r *Rasterizer) setup(tris []setupTriangle, fb *Framebuffer, pipe Pipeline, m *mesh.Mesh, outputs []core.VertexOutput, stats *Stats) []setupTriangle {
	w, h := float64(fb.Width), float64(fb.Height)
	for t := 0; t < m.TriangleCount(); t++ {
		stats.Triangles++

		var st setupTriangle
		var ndc [3]mgl32.Vec3
		rejected := false
		for k := 0; k < 3; k++ {
			o := outputs[m.Indices[3*t+k]]
			clip := o.ClipPosition
			if !(clip.W() > minClipW) {
				rejected = true
				break
			}
			invW := 1 / clip.W()
			ndc[k] = clip.Vec3().Mul(invW)
			st.v[k] = screenVertex{
				X:     (float64(ndc[k].X()) + 1) * 0.5 * w,
				Y:     (1 - float64(ndc[k].Y())) * 0.5 * h,
				Z:     ndc[k].Z(),
				InvW:  invW,
				Input: o,
			}
		}
		if rejected || outsideClipVolume(ndc) {
			stats.ClipRejected++
			continue
		}

		// counter-clockwise in NDC (y up) is front facing
		area := (ndc[1].X()-ndc[0].X())*(ndc[2].Y()-ndc[0].Y()) - (ndc[2].X()-ndc[0].X())*(ndc[1].Y()-ndc[0].Y())
		if pipe.Cull == CullBack && !(area > 0) {
			stats.BackfaceCulled++
			continue
		}

		minY := math.Floor(min(st.v[0].Y, st.v[1].Y, st.v[2].Y))
		maxY := math.Ceil(max(st.v[0].Y, st.v[1].Y, st.v[2].Y))
		st.minY = int(max(0, minY))
		st.maxY = int(min(h-1, maxY))
		tris = append(tris, st)
	}
	return tris
}

// outsideClipVolume reports triangles entirely beyond one clip plane.
func outsideClipVolume(ndc [3]mgl32.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		lo, hi := float32(-1), float32(1)
		if axis == 2 {
			lo = 0
		}
		below, above := 0, 0
		for _, p := range ndc {
			if p[axis] < lo {
				below++
			}
			if p[axis] > hi {
				above++
			}
		}
		if below == 3 || above == 3 {
			return true
		}
	}
	return false
}

func (r *Rasterizer) shadeFragments(ctx context.Context, fb *Framebuffer, pipe Pipeline, uni Uniforms, tris []setupTriangle) (int, error) {
	if len(tris) == 0 {
		return 0, nil
	}
	bands := min(r.workers(), fb.Height)
	rows := (fb.Height + bands - 1) / bands
	counts := make([]int, bands)

	g, ctx := errgroup.WithContext(ctx)
	for b := 0; b < bands; b++ {
		b := b
		y0, y1 := b*rows, min((b+1)*rows, fb.Height)-1
		g.Go(func() error {
			band := bandRaster{fb: fb, pipe: pipe, uni: uni, y0: y0, y1: y1}
			for i := range tris {
				if i%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				tri := &tris[i]
				if tri.maxY < y0 || tri.minY > y1 {
					continue
				}
				if pipe.Polygon == PolygonLine {
					band.wireframe(tri)
				} else {
					band.fill(tri)
				}
			}
			counts[b] = band.fragments
			return nil
		})
	}
	err := g.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	return total, err
}

// bandRaster owns rows y0..y1 (inclusive) of the framebuffer.
type bandRaster struct {
	fb        *Framebuffer
	pipe      Pipeline
	uni       Uniforms
	y0, y1    int
	fragments int
}

func (b *bandRaster) fill(tri *setupTriangle) {
	v := tri.v
	area := edge(v[0].X, v[0].Y, v[1].X, v[1].Y, v[2].X, v[2].Y)
	if area == 0 {
		return
	}

	minX := int(max(0, math.Floor(min(v[0].X, v[1].X, v[2].X))))
	maxX := int(min(float64(b.fb.Width-1), math.Ceil(max(v[0].X, v[1].X, v[2].X))))
	minY := max(tri.minY, b.y0)
	maxY := min(tri.maxY, b.y1)

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5

			w0 := edge(v[1].X, v[1].Y, v[2].X, v[2].Y, px, py) / area
			w1 := edge(v[2].X, v[2].Y, v[0].X, v[0].Y, px, py) / area
			w2 := edge(v[0].X, v[0].Y, v[1].X, v[1].Y, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			b.shade(x, y, tri, [3]float32{float32(w0), float32(w1), float32(w2)})
		}
	}
}

// wireframe draws the three edges of the triangle.
func (b *bandRaster) wireframe(tri *setupTriangle) {
	for k := 0; k < 3; k++ {
		a, c := k, (k+1)%3
		b.line(tri, a, c)
	}
}

func (b *bandRaster) line(tri *setupTriangle, ia, ib int) {
	va, vb := tri.v[ia], tri.v[ib]
	dx, dy := vb.X-va.X, vb.Y-va.Y
	steps := int(math.Ceil(max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Floor(va.X + dx*t))
		y := int(math.Floor(va.Y + dy*t))
		if y < b.y0 || y > b.y1 || x < 0 || x >= b.fb.Width {
			continue
		}
		var bary [3]float32
		bary[ia] = float32(1 - t)
		bary[ib] = float32(t)
		b.shade(x, y, tri, bary)
	}
}

// shade depth-tests and runs the fragment stage with perspective-correct
// interpolants. bary are screen-space weights.
func (b *bandRaster) shade(x, y int, tri *setupTriangle, bary [3]float32) {
	v := &tri.v
	z := bary[0]*v[0].Z + bary[1]*v[1].Z + bary[2]*v[2].Z
	if z < 0 || z > 1 {
		return
	}
	idx := y*b.fb.Width + x
	if !(z < b.fb.Depth[idx]) {
		return
	}

	pw := [3]float32{bary[0] * v[0].InvW, bary[1] * v[1].InvW, bary[2] * v[2].InvW}
	sum := pw[0] + pw[1] + pw[2]
	for k := range pw {
		pw[k] /= sum
	}
	in := interpolate(v, pw)

	b.fb.Depth[idx] = z
	b.fb.Color[idx] = b.pipe.Fragment.Run(b.uni.Camera, b.uni.Light, in)
	b.fragments++
}

func interpolate(v *[3]screenVertex, w [3]float32) core.VertexOutput {
	var out core.VertexOutput
	for k := 0; k < 3; k++ {
		in := v[k].Input
		out.ClipPosition = out.ClipPosition.Add(in.ClipPosition.Mul(w[k]))
		out.WorldNormal = out.WorldNormal.Add(in.WorldNormal.Mul(w[k]))
		out.WorldPosition = out.WorldPosition.Add(in.WorldPosition.Mul(w[k]))
		out.TexCoords = out.TexCoords.Add(in.TexCoords.Mul(w[k]))
	}
	return out
}

// edge is twice the signed area of (a, b, p).
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// Package raster is a software host for the shading stages: it runs the
// vertex stage per vertex, rasterizes triangles with a depth buffer and
// runs the fragment stage per covered pixel.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultClearColor is the viewer background.
var DefaultClearColor = mgl32.Vec4{0.1, 0.2, 0.3, 1.0}

// Framebuffer stores unclamped linear color and 0..1 depth, row-major with
// y pointing down.
type Framebuffer struct {
	Width  int
	Height int
	Color  []mgl32.Vec4
	Depth  []float32
}

func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		Color:  make([]mgl32.Vec4, width*height),
		Depth:  make([]float32, width*height),
	}
	fb.Clear(DefaultClearColor, 1.0)
	return fb
}

func (fb *Framebuffer) Clear(c mgl32.Vec4, depth float32) {
	n := len(fb.Color)
	if n == 0 {
		return
	}
	// copy-doubling fill
	fb.Color[0] = c
	fb.Depth[0] = depth
	for i := 1; i < n; i *= 2 {
		copy(fb.Color[i:], fb.Color[:i])
		copy(fb.Depth[i:], fb.Depth[:i])
	}
}

func (fb *Framebuffer) At(x, y int) mgl32.Vec4 {
	return fb.Color[y*fb.Width+x]
}

func (fb *Framebuffer) DepthAt(x, y int) float32 {
	return fb.Depth[y*fb.Width+x]
}

// ToImage converts to 8-bit RGBA. Channels are clamped to 0..1 here only;
// with srgb the linear values are encoded like an sRGB render target.
func (fb *Framebuffer) ToImage(srgb bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.At(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(c[0], srgb),
				G: toByte(c[1], srgb),
				B: toByte(c[2], srgb),
				A: toByte(c[3], false),
			})
		}
	}
	return img
}

func toByte(v float32, srgb bool) uint8 {
	f := float64(v)
	if f != f || f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	if srgb {
		f = linearToSRGB(f)
	}
	return uint8(math.Round(f * 255))
}

func linearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

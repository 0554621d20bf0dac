package meshlight

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/gekko3d/meshlight/render/mesh"
	"github.com/gekko3d/meshlight/render/raster"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Renderer draws a configured scene offline with the software rasterizer.
type Renderer struct {
	Config *Config
	Logger Logger
	Mesh   *mesh.Mesh
	Camera *core.OrbitCamera

	pipeline  raster.Pipeline
	raster    *raster.Rasterizer
	light     core.LightUniform
	instances []core.InstanceRaw
}

func NewRenderer(cfg *Config, logger Logger) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = loggerOrNop(logger)

	m, err := cfg.LoadMesh()
	if err != nil {
		return nil, fmt.Errorf("loading mesh: %w", err)
	}
	pipe, err := cfg.Pipeline()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		Config:    cfg,
		Logger:    logger,
		Mesh:      m,
		Camera:    cfg.OrbitCamera(),
		pipeline:  pipe,
		raster:    &raster.Rasterizer{Workers: cfg.Output.Workers},
		light:     cfg.LightUniform(),
		instances: cfg.InstanceRecords(),
	}
	logger.Debugf("mesh %s: %d vertices, %d triangles, %d instances",
		m.Name, len(m.Vertices), m.TriangleCount(), len(r.instances))
	return r, nil
}

// RenderFrame draws one frame from the current camera pose.
func (r *Renderer) RenderFrame(ctx context.Context) (*raster.Framebuffer, raster.Stats, error) {
	fb := raster.NewFramebuffer(r.Config.Width, r.Config.Height)
	fb.Clear(mgl32.Vec4(r.Config.Output.ClearColor), 1.0)

	cam := core.NewCameraUniform()
	cam.Update(r.Camera)

	stats, err := r.raster.Draw(ctx, fb, r.pipeline, raster.Uniforms{Camera: cam, Light: r.light}, raster.DrawCall{
		Mesh:      r.Mesh,
		Instances: r.instances,
	})
	if err != nil {
		return nil, stats, err
	}
	r.Logger.Debugf("frame: %d triangles, %d backface culled, %d clip rejected, %d fragments",
		stats.Triangles, stats.BackfaceCulled, stats.ClipRejected, stats.Fragments)
	return fb, stats, nil
}

// Turntable renders frames evenly spaced over one full yaw revolution,
// starting at the configured yaw. onFrame receives each frame in order.
func (r *Renderer) Turntable(ctx context.Context, frames int, onFrame func(i int, fb *raster.Framebuffer) error) (raster.Stats, error) {
	var total raster.Stats
	if frames < 1 {
		return total, fmt.Errorf("%w: turntable needs at least one frame", ErrInvalidConfig)
	}
	start := r.Camera.Yaw
	defer r.Camera.SetYaw(start)

	step := float32(2 * math.Pi / float64(frames))
	for i := 0; i < frames; i++ {
		r.Camera.SetYaw(start + float32(i)*step)
		fb, stats, err := r.RenderFrame(ctx)
		if err != nil {
			return total, fmt.Errorf("frame %d: %w", i, err)
		}
		total.Add(stats)
		if err := onFrame(i, fb); err != nil {
			return total, err
		}
	}
	return total, nil
}

// EncodeImage writes img as png, bmp or tiff.
func EncodeImage(w io.Writer, format string, img image.Image) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff", "tif":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: unsupported image format %q", ErrInvalidConfig, format)
}

// SaveImage encodes the framebuffer to path using the configured format and
// sRGB setting.
func (r *Renderer) SaveImage(path string, fb *raster.Framebuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := EncodeImage(f, r.Config.Output.Format, fb.ToImage(r.Config.Output.SRGB)); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

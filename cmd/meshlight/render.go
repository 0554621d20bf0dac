package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gekko3d/meshlight"
	"github.com/gekko3d/meshlight/render/raster"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	config string
	out    string
	frames int
	debug  bool
	format string
	width  int
	height int
}

func newRenderCommand(global *globalOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to an image, or a turntable sequence with --frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runRender(ctx, global.logger(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "YAML scene file (defaults when empty)")
	f.StringVarP(&opts.out, "out", "o", "frame.png", "output image; with --frames a %d verb or a frame number suffix is added")
	f.IntVar(&opts.frames, "frames", 0, "render a turntable of this many frames")
	f.BoolVar(&opts.debug, "debug", false, "shade world normals instead of lighting")
	f.StringVar(&opts.format, "format", "", "override the output format (png, bmp, tiff)")
	f.IntVar(&opts.width, "width", 0, "override the output width")
	f.IntVar(&opts.height, "height", 0, "override the output height")
	return cmd
}

func loadConfig(path string) (*meshlight.Config, error) {
	if path == "" {
		return meshlight.DefaultConfig(), nil
	}
	return meshlight.LoadConfig(path)
}

func runRender(ctx context.Context, logger meshlight.Logger, opts *renderOptions) error {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	cfg.SetDebug(opts.debug)
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.width > 0 {
		cfg.Width = opts.width
	}
	if opts.height > 0 {
		cfg.Height = opts.height
	}

	r, err := meshlight.NewRenderer(cfg, logger)
	if err != nil {
		return err
	}

	if opts.frames <= 0 {
		fb, stats, err := r.RenderFrame(ctx)
		if err != nil {
			return err
		}
		if err := r.SaveImage(opts.out, fb); err != nil {
			return err
		}
		logger.Infof("wrote %s (%d triangles, %d fragments)", opts.out, stats.Triangles, stats.Fragments)
		return nil
	}

	bar := progressbar.Default(int64(opts.frames), "rendering")
	defer bar.Close()

	total, err := r.Turntable(ctx, opts.frames, func(i int, fb *raster.Framebuffer) error {
		if err := r.SaveImage(framePath(opts.out, i), fb); err != nil {
			return err
		}
		return bar.Add(1)
	})
	if err != nil {
		return err
	}
	logger.Infof("wrote %d frames (%d triangles, %d fragments)", opts.frames, total.Triangles, total.Fragments)
	return nil
}

// framePath numbers a turntable frame: "out/f%03d.png" is formatted,
// anything else gets "_NNNN" before the extension.
func framePath(pattern string, i int) string {
	if strings.Contains(pattern, "%") {
		return fmt.Sprintf(pattern, i)
	}
	ext := filepath.Ext(pattern)
	return fmt.Sprintf("%s_%04d%s", strings.TrimSuffix(pattern, ext), i, ext)
}

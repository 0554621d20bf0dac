// Command meshview shows a scene in a WebGPU window. Drag to orbit, hold
// shift to pan, scroll to zoom, J toggles debug normals, Esc quits.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/gekko3d/meshlight"
	"github.com/gekko3d/meshlight/render/app"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML scene file")
	debug := flag.Bool("debug", false, "start with debug normals")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	logger := meshlight.NewDefaultLogger("meshview", *verbose)

	cfg := meshlight.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = meshlight.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	m, err := cfg.LoadMesh()
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, "meshview", nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	program := cfg.ProgramName()
	if program == "debug" {
		// J toggles debug; keep a lit program as the base
		program = "shader"
		if len(cfg.Instances) > 0 {
			program = "instanced"
		}
		*debug = true
	}

	drift, err := cfg.ProgramDrift(program)
	if err != nil {
		return err
	}
	if len(drift) > 0 {
		logger.Warnf("program %s ignores %s; meshlight render honors them", program, strings.Join(drift, ", "))
	}

	bg := cfg.Output.ClearColor
	application := app.NewApp(window, app.Scene{
		Mesh:       m,
		Instances:  cfg.InstanceRecords(),
		Light:      cfg.LightUniform(),
		Program:    program,
		ClearColor: wgpu.Color{R: float64(bg[0]), G: float64(bg[1]), B: float64(bg[2]), A: float64(bg[3])},
	}, cfg.OrbitCamera(), cfg.CameraController(), logger)
	application.DebugMode = *debug
	defer application.Release()
	if err := application.Init(); err != nil {
		return err
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleKey(key, action)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleMouseButton(button, action)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.HandleCursor(xpos, ypos)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		application.HandleScroll(yoff)
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
	return nil
}

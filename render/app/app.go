package app

import (
	"fmt"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/gekko3d/meshlight/render/gpu"
	"github.com/gekko3d/meshlight/render/mesh"
	"github.com/gekko3d/meshlight/render/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Logger is the subset of meshlight.Logger the viewer writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Scene is everything the viewer draws.
type Scene struct {
	Mesh      *mesh.Mesh
	Instances []core.InstanceRaw
	Light     core.LightUniform
	// Program is the lit program name; "debug" is always available via J.
	Program    string
	ClearColor wgpu.Color
}

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	DepthTexture *wgpu.Texture
	DepthView    *wgpu.TextureView

	BufferManager *gpu.BufferManager
	LitPipeline   *gpu.Pipeline
	DebugPipeline *gpu.Pipeline

	Scene         Scene
	Camera        *core.OrbitCamera
	Controller    *core.CameraController
	CameraUniform core.CameraUniform
	Logger        Logger

	DebugMode bool

	cursorX, cursorY float64
	hasCursor        bool

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

func NewApp(window *glfw.Window, scene Scene, camera *core.OrbitCamera, controller *core.CameraController, logger Logger) *App {
	return &App{
		Window:        window,
		Scene:         scene,
		Camera:        camera,
		Controller:    controller,
		CameraUniform: core.NewCameraUniform(),
		Logger:        logger,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)
	if err := a.setupDepth(width, height); err != nil {
		return err
	}
	a.Camera.ResizeProjection(width, height)

	a.BufferManager, err = gpu.NewBufferManager(a.Device)
	if err != nil {
		return err
	}

	lit, ok := shaders.Lookup(a.Scene.Program)
	if !ok {
		return fmt.Errorf("unknown shader program %q", a.Scene.Program)
	}
	a.LitPipeline, err = gpu.NewPipeline(a.Device, gpu.PipelineOptions{Program: lit, ColorFormat: a.Config.Format}, a.BufferManager.GroupLayouts())
	if err != nil {
		return err
	}
	debug, _ := shaders.Lookup("debug")
	a.DebugPipeline, err = gpu.NewPipeline(a.Device, gpu.PipelineOptions{Program: debug, ColorFormat: a.Config.Format}, a.BufferManager.GroupLayouts())
	if err != nil {
		return err
	}

	if _, err := a.BufferManager.UploadMesh(a.Scene.Mesh); err != nil {
		return err
	}
	if len(a.Scene.Instances) > 0 {
		if err := a.BufferManager.UploadInstances(a.Scene.Mesh.ID, a.Scene.Instances); err != nil {
			return err
		}
	}
	if err := a.BufferManager.UpdateLight(a.Scene.Light); err != nil {
		return fmt.Errorf("write light: %w", err)
	}

	a.Logger.Infof("viewer ready: %dx%d, mesh %s (%d triangles), program %s",
		width, height, a.Scene.Mesh.Name, a.Scene.Mesh.TriangleCount(), lit.Name)
	a.LastRenderTime = glfw.GetTime()
	return nil
}

func (a *App) setupDepth(w, h int) error {
	if w == 0 || h == 0 {
		return nil
	}
	if a.DepthView != nil {
		a.DepthView.Release()
	}
	if a.DepthTexture != nil {
		a.DepthTexture.Release()
	}

	var err error
	a.DepthTexture, err = a.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Tex",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        gpu.DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	a.DepthView, err = a.DepthTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create depth view: %w", err)
	}
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	if err := a.setupDepth(w, h); err != nil {
		a.Logger.Errorf("resize: %v", err)
	}
	a.Camera.ResizeProjection(w, h)
}

// ToggleDebug switches between the lit and debug-normal pipelines.
func (a *App) ToggleDebug() {
	a.DebugMode = !a.DebugMode
	a.Logger.Debugf("debug normals: %v", a.DebugMode)
}

func (a *App) HandleKey(key glfw.Key, action glfw.Action) {
	switch key {
	case glfw.KeyJ:
		if action == glfw.Press {
			a.ToggleDebug()
		}
	case glfw.KeyEscape:
		if action == glfw.Press {
			a.Window.SetShouldClose(true)
		}
	case glfw.KeyLeftShift:
		a.Controller.SetPanModifier(action != glfw.Release)
	}
}

func (a *App) HandleMouseButton(button glfw.MouseButton, action glfw.Action) {
	if button == glfw.MouseButtonLeft {
		a.Controller.SetPrimaryButton(action == glfw.Press)
	}
}

func (a *App) HandleCursor(x, y float64) {
	if a.hasCursor {
		a.Controller.ApplyMotion(a.Camera, x-a.cursorX, y-a.cursorY)
	}
	a.cursorX, a.cursorY = x, y
	a.hasCursor = true
}

func (a *App) HandleScroll(yoff float64) {
	a.Controller.ApplyScroll(a.Camera, float32(yoff))
}

func (a *App) Update() {
	a.CameraUniform.Update(a.Camera)
	if err := a.BufferManager.UpdateCamera(a.CameraUniform); err != nil {
		a.Logger.Errorf("write camera: %v", err)
	}
}

func (a *App) Render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: a.Scene.ClearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            a.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	pipeline := a.LitPipeline
	if a.DebugMode {
		pipeline = a.DebugPipeline
	}
	if err := a.BufferManager.Draw(pass, pipeline, a.Scene.Mesh.ID); err != nil {
		a.Logger.Errorf("draw: %v", err)
	}

	if err := pass.End(); err != nil {
		a.Logger.Errorf("render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Logger.Errorf("encoder Finish failed: %v", err)
		return
	}
	defer cmd.Release()
	a.Queue.Submit(cmd)
	a.Surface.Present()

	now := glfw.GetTime()
	a.FrameCount++
	a.FPSTime += now - a.LastRenderTime
	if a.FPSTime >= 1.0 {
		a.FPS = float64(a.FrameCount) / a.FPSTime
		a.Logger.Debugf("%.1f fps", a.FPS)
		a.FrameCount = 0
		a.FPSTime = 0
	}
	a.LastRenderTime = now
}

func (a *App) Release() {
	if a.LitPipeline != nil {
		a.LitPipeline.Release()
	}
	if a.DebugPipeline != nil {
		a.DebugPipeline.Release()
	}
	if a.BufferManager != nil {
		a.BufferManager.Release()
	}
	if a.DepthView != nil {
		a.DepthView.Release()
	}
	if a.DepthTexture != nil {
		a.DepthTexture.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

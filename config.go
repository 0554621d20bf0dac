package meshlight

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/gekko3d/meshlight/render/mesh"
	"github.com/gekko3d/meshlight/render/raster"
	"github.com/gekko3d/meshlight/render/shaders"
	"github.com/gekko3d/meshlight/render/stage"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure of a Config.
var ErrInvalidConfig = errors.New("invalid config")

// Config describes one scene: what to draw, from where, and how to shade it.
type Config struct {
	Width      int              `yaml:"width"`
	Height     int              `yaml:"height"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Camera     CameraConfig     `yaml:"camera"`
	Light      LightConfig      `yaml:"light"`
	Shading    ShadingConfig    `yaml:"shading"`
	Vertex     VertexConfig     `yaml:"vertex"`
	Instances  []InstanceConfig `yaml:"instances"`
	Controller ControllerConfig `yaml:"controller"`
	Output     OutputConfig     `yaml:"output"`
}

// MeshConfig loads Path when set, otherwise builds a Grid^3 cube grid.
type MeshConfig struct {
	Path    string  `yaml:"path"`
	Grid    int     `yaml:"grid"`
	Size    float32 `yaml:"size"`
	Spacing float32 `yaml:"spacing"`
}

type CameraConfig struct {
	Distance    float32    `yaml:"distance"`
	Yaw         float32    `yaml:"yaw"`   // radians
	Pitch       float32    `yaml:"pitch"` // radians
	Target      [3]float32 `yaml:"target"`
	FovY        float32    `yaml:"fovy"` // degrees
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	MinDistance *float32   `yaml:"min_distance"`
	MaxDistance *float32   `yaml:"max_distance"`
	MinPitch    *float32   `yaml:"min_pitch"`
	MaxPitch    *float32   `yaml:"max_pitch"`
}

type LightConfig struct {
	Position [3]float32 `yaml:"position"`
	Color    [3]float32 `yaml:"color"`
}

// ShadingConfig starts from a named preset; set fields override it.
type ShadingConfig struct {
	Preset          string      `yaml:"preset"`
	BaseColorMode   string      `yaml:"base_color_mode"`
	Albedo          *[4]float32 `yaml:"albedo"`
	ApplyRim        *bool       `yaml:"apply_rim"`
	AmbientStrength *float32    `yaml:"ambient_strength"`
	Shininess       *float32    `yaml:"shininess"`
}

type VertexConfig struct {
	ApplyInstanceTransform bool `yaml:"apply_instance_transform"`
}

// InstanceConfig is one placement of the mesh. A zero scale means 1.
type InstanceConfig struct {
	Translation [3]float32 `yaml:"translation"`
	Axis        [3]float32 `yaml:"axis"`
	Angle       float32    `yaml:"angle"` // degrees
	Scale       [3]float32 `yaml:"scale"`
}

type ControllerConfig struct {
	RotateSpeed float32 `yaml:"rotate_speed"`
	ZoomSpeed   float32 `yaml:"zoom_speed"`
}

type OutputConfig struct {
	Format     string     `yaml:"format"` // png, bmp or tiff
	SRGB       bool       `yaml:"srgb"`
	ClearColor [4]float32 `yaml:"clear_color"`
	Polygon    string     `yaml:"polygon"` // fill or line
	Cull       string     `yaml:"cull"`    // back or none
	Workers    int        `yaml:"workers"`
}

func DefaultConfig() *Config {
	minDistance := float32(1.1)
	return &Config{
		Width:  800,
		Height: 600,
		Mesh: MeshConfig{
			Grid:    3,
			Size:    0.25,
			Spacing: 0.5,
		},
		Camera: CameraConfig{
			Distance:    2,
			Pitch:       0.4,
			Yaw:         0.6,
			FovY:        45,
			Near:        0.1,
			Far:         1000,
			MinDistance: &minDistance,
		},
		Light: LightConfig{
			Position: [3]float32{2, 2, 2},
			Color:    [3]float32{1, 1, 1},
		},
		Shading: ShadingConfig{Preset: stage.PresetRim},
		Controller: ControllerConfig{
			RotateSpeed: 0.0025,
			ZoomSpeed:   0.1,
		},
		Output: OutputConfig{
			Format:     "png",
			SRGB:       true,
			ClearColor: [4]float32{0.1, 0.2, 0.3, 1},
			Polygon:    "fill",
			Cull:       "back",
		},
	}
}

// LoadConfig reads a YAML scene file on top of DefaultConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return invalid("size %dx%d must be positive", c.Width, c.Height)
	}
	if c.Mesh.Path == "" && c.Mesh.Grid < 1 {
		return invalid("mesh needs a path or a grid of at least 1")
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		return invalid("camera fovy %v must be in (0, 180) degrees", c.Camera.FovY)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return invalid("camera near %v / far %v must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.MinDistance != nil && c.Camera.MaxDistance != nil && *c.Camera.MinDistance > *c.Camera.MaxDistance {
		return invalid("camera min_distance exceeds max_distance")
	}
	for i, v := range c.Light.Color {
		if v < 0 {
			return invalid("light color[%d] %v is negative", i, v)
		}
	}
	if _, err := c.ShadingConfig(); err != nil {
		return err
	}
	if _, err := parsePolygon(c.Output.Polygon); err != nil {
		return err
	}
	if _, err := parseCull(c.Output.Cull); err != nil {
		return err
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "bmp", "tiff", "tif":
	default:
		return invalid("output format %q is not png, bmp or tiff", c.Output.Format)
	}
	for i, inst := range c.Instances {
		if inst.Angle != 0 && mgl32.Vec3(inst.Axis).Len() == 0 {
			return invalid("instance %d rotates about a zero axis", i)
		}
	}
	return nil
}

// ShadingConfig resolves the preset and its overrides.
func (c *Config) ShadingConfig() (stage.ShadingConfig, error) {
	name := c.Shading.Preset
	if name == "" {
		name = stage.PresetRim
	}
	sc, ok := stage.Preset(name)
	if !ok {
		return stage.ShadingConfig{}, invalid("unknown shading preset %q (want one of %s)",
			name, strings.Join(stage.PresetNames(), ", "))
	}
	if c.Shading.BaseColorMode != "" {
		mode, err := stage.ParseBaseColorMode(c.Shading.BaseColorMode)
		if err != nil {
			return stage.ShadingConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		sc.BaseColorMode = mode
	}
	if c.Shading.Albedo != nil {
		sc.Albedo = mgl32.Vec4(*c.Shading.Albedo)
	}
	if c.Shading.ApplyRim != nil {
		sc.ApplyRim = *c.Shading.ApplyRim
	}
	if c.Shading.AmbientStrength != nil {
		sc.AmbientStrength = *c.Shading.AmbientStrength
	}
	if c.Shading.Shininess != nil {
		sc.Shininess = *c.Shading.Shininess
	}
	return sc, nil
}

// SetDebug forces debug-normal shading.
func (c *Config) SetDebug(enabled bool) {
	if enabled {
		c.Shading.BaseColorMode = stage.BaseColorDebug.String()
	}
}

func (c *Config) OrbitCamera() *core.OrbitCamera {
	cam := &core.OrbitCamera{
		Target: mgl32.Vec3(c.Camera.Target),
		Up:     mgl32.Vec3{0, 1, 0},
		Bounds: core.DefaultOrbitCameraBounds(),
		Aspect: float32(c.Width) / float32(c.Height),
		FovY:   mgl32.DegToRad(c.Camera.FovY),
		ZNear:  c.Camera.Near,
		ZFar:   c.Camera.Far,
	}
	cam.Bounds.MinDistance = c.Camera.MinDistance
	cam.Bounds.MaxDistance = c.Camera.MaxDistance
	if c.Camera.MinPitch != nil {
		cam.Bounds.MinPitch = *c.Camera.MinPitch
	}
	if c.Camera.MaxPitch != nil {
		cam.Bounds.MaxPitch = *c.Camera.MaxPitch
	}
	cam.SetDistance(c.Camera.Distance)
	cam.SetPitch(c.Camera.Pitch)
	cam.SetYaw(c.Camera.Yaw)
	return cam
}

func (c *Config) CameraController() *core.CameraController {
	return core.NewCameraController(c.Controller.RotateSpeed, c.Controller.ZoomSpeed)
}

func (c *Config) LightUniform() core.LightUniform {
	return core.LightUniform{
		Position: mgl32.Vec3(c.Light.Position),
		Color:    mgl32.Vec3(c.Light.Color),
	}
}

// InstanceRecords builds T*R*S instance records; nil when none are configured.
func (c *Config) InstanceRecords() []core.InstanceRaw {
	if len(c.Instances) == 0 {
		return nil
	}
	out := make([]core.InstanceRaw, len(c.Instances))
	for i, inst := range c.Instances {
		t := core.NewTransform()
		t.Position = mgl32.Vec3(inst.Translation)
		t.AxisAngle(mgl32.Vec3(inst.Axis), mgl32.DegToRad(inst.Angle))
		for axis, s := range inst.Scale {
			if s != 0 {
				t.Scale[axis] = s
			}
		}
		out[i] = t.Instance()
	}
	return out
}

func (c *Config) LoadMesh() (*mesh.Mesh, error) {
	if c.Mesh.Path != "" {
		return mesh.LoadOBJ(c.Mesh.Path)
	}
	return mesh.CubeGrid(c.Mesh.Grid, c.Mesh.Size, c.Mesh.Spacing), nil
}

// Pipeline builds the CPU raster pipeline for this scene.
func (c *Config) Pipeline() (raster.Pipeline, error) {
	sc, err := c.ShadingConfig()
	if err != nil {
		return raster.Pipeline{}, err
	}
	polygon, err := parsePolygon(c.Output.Polygon)
	if err != nil {
		return raster.Pipeline{}, err
	}
	cull, err := parseCull(c.Output.Cull)
	if err != nil {
		return raster.Pipeline{}, err
	}
	return raster.Pipeline{
		Vertex:   stage.VertexStage{ApplyInstanceTransform: c.Vertex.ApplyInstanceTransform},
		Fragment: stage.NewFragmentStage(sc),
		Cull:     cull,
		Polygon:  polygon,
	}, nil
}

// ProgramName picks the embedded WGSL program closest to the shading preset.
func (c *Config) ProgramName() string {
	sc, err := c.ShadingConfig()
	if err == nil && sc.BaseColorMode == stage.BaseColorDebug {
		return "debug"
	}
	if len(c.Instances) > 0 || c.Shading.Preset == stage.PresetInstanced {
		return "instanced"
	}
	for _, p := range shaders.All() {
		if p.Preset == c.Shading.Preset {
			return p.Name
		}
	}
	return "shader"
}

// ProgramDrift lists the settings the named WGSL program renders differently
// from the offline renderer. Program constants are fixed in the source, so
// overrides that move away from its preset have no effect on the GPU.
func (c *Config) ProgramDrift(program string) ([]string, error) {
	p, ok := shaders.Lookup(program)
	if !ok {
		return nil, invalid("unknown shader program %q", program)
	}
	want, ok := stage.Preset(p.Preset)
	if !ok {
		return nil, fmt.Errorf("program %s has no preset %q", p.Name, p.Preset)
	}
	got, err := c.ShadingConfig()
	if err != nil {
		return nil, err
	}

	var drift []string
	if got.Albedo != want.Albedo {
		drift = append(drift, "shading.albedo")
	}
	if got.ApplyRim != want.ApplyRim {
		drift = append(drift, "shading.apply_rim")
	}
	if got.AmbientStrength != want.AmbientStrength {
		drift = append(drift, "shading.ambient_strength")
	}
	if got.Shininess != want.Shininess {
		drift = append(drift, "shading.shininess")
	}
	if c.Vertex.ApplyInstanceTransform {
		drift = append(drift, "vertex.apply_instance_transform")
	}
	return drift, nil
}

func parsePolygon(name string) (raster.PolygonMode, error) {
	switch strings.ToLower(name) {
	case "", "fill":
		return raster.PolygonFill, nil
	case "line":
		return raster.PolygonLine, nil
	}
	return 0, invalid("polygon mode %q is not fill or line", name)
}

func parseCull(name string) (raster.CullMode, error) {
	switch strings.ToLower(name) {
	case "", "back":
		return raster.CullBack, nil
	case "none":
		return raster.CullNone, nil
	}
	return 0, invalid("cull mode %q is not back or none", name)
}

package gpu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gekko3d/meshlight/render/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// ErrBindingMismatch is returned when a shader declares a uniform or vertex
// input that the host layout does not provide in the same shape.
var ErrBindingMismatch = errors.New("shader binding mismatch")

// Binding describes one uniform buffer the host binds.
type Binding struct {
	Name       string
	Group      uint32
	Binding    uint32
	Size       uint64
	Visibility wgpu.ShaderStage
}

var (
	CameraBinding = Binding{
		Name:       "camera",
		Group:      0,
		Binding:    0,
		Size:       CameraUniformSize,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	LightBinding = Binding{
		Name:       "light",
		Group:      1,
		Binding:    0,
		Size:       LightUniformSize,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
)

func HostBindings() []Binding {
	return []Binding{CameraBinding, LightBinding}
}

func (b Binding) LayoutDescriptor() *wgpu.BindGroupLayoutDescriptor {
	return &wgpu.BindGroupLayoutDescriptor{
		Label: b.Name + " bind group layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    b.Binding,
				Visibility: b.Visibility,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: b.Size,
				},
			},
		},
	}
}

// UniformDecl is a `var<uniform>` found in WGSL source.
type UniformDecl struct {
	Group   uint32
	Binding uint32
	Name    string
	Type    string
	Size    uint64
}

// ShaderLayout is what a WGSL program expects from the host.
type ShaderLayout struct {
	Uniforms []UniformDecl
	// Inputs maps each vertex entry @location to its WGSL type.
	Inputs map[uint32]string
}

// Groups returns the distinct bind groups the shader uses, ascending.
func (l ShaderLayout) Groups() []uint32 {
	seen := map[uint32]bool{}
	var out []uint32
	for _, u := range l.Uniforms {
		if !seen[u.Group] {
			seen[u.Group] = true
			out = append(out, u.Group)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseShaderLayout lowers WGSL source with naga and extracts the uniforms
// and the inputs of the named vertex entry point.
func ParseShaderLayout(src, entryPoint string) (ShaderLayout, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return ShaderLayout{}, fmt.Errorf("parse wgsl: %w", err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return ShaderLayout{}, fmt.Errorf("lower wgsl: %w", err)
	}

	layout := ShaderLayout{Inputs: map[uint32]string{}}
	for _, gv := range module.GlobalVariables {
		if gv.Space != ir.SpaceUniform || gv.Binding == nil {
			continue
		}
		layout.Uniforms = append(layout.Uniforms, UniformDecl{
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
			Name:    gv.Name,
			Type:    wgslTypeName(module, gv.Type),
			Size:    uint64(ir.TypeSize(module, gv.Type)),
		})
	}
	sort.Slice(layout.Uniforms, func(i, j int) bool {
		a, b := layout.Uniforms[i], layout.Uniforms[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Binding < b.Binding
	})

	var entry *ir.EntryPoint
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if ep.Stage == ir.StageVertex && ep.Name == entryPoint {
			entry = ep
			break
		}
	}
	if entry == nil {
		return ShaderLayout{}, fmt.Errorf("vertex entry point %q not found", entryPoint)
	}

	for _, arg := range entry.Function.Arguments {
		if arg.Binding != nil {
			if loc, ok := locationOf(*arg.Binding); ok {
				layout.Inputs[loc] = wgslTypeName(module, arg.Type)
			}
			// builtins such as vertex_index carry no host data
			continue
		}
		st, ok := module.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			return ShaderLayout{}, fmt.Errorf("entry %s: argument %s has no binding", entryPoint, arg.Name)
		}
		for _, m := range st.Members {
			if m.Binding == nil {
				continue
			}
			if loc, ok := locationOf(*m.Binding); ok {
				layout.Inputs[loc] = wgslTypeName(module, m.Type)
			}
		}
	}
	return layout, nil
}

func locationOf(b ir.Binding) (uint32, bool) {
	switch b := b.(type) {
	case ir.LocationBinding:
		return b.Location, true
	case *ir.LocationBinding:
		return b.Location, true
	}
	return 0, false
}

// wgslTypeName spells a type the way vertex attributes are declared, so it
// can be compared with Attribute.WGSL.
func wgslTypeName(module *ir.Module, handle ir.TypeHandle) string {
	if int(handle) >= len(module.Types) {
		return "?"
	}
	t := module.Types[handle]
	switch inner := t.Inner.(type) {
	case ir.ScalarType:
		return scalarName(inner)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", inner.Size, scalarName(inner.Scalar))
	case ir.MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", inner.Columns, inner.Rows, scalarName(inner.Scalar))
	}
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%T", t.Inner)
}

func scalarName(s ir.ScalarType) string {
	switch s.Kind {
	case ir.ScalarFloat:
		if s.Width == 2 {
			return "f16"
		}
		return "f32"
	case ir.ScalarSint:
		return "i32"
	case ir.ScalarUint:
		return "u32"
	case ir.ScalarBool:
		return "bool"
	}
	return fmt.Sprintf("scalar(%d)", s.Kind)
}

// ValidateShaderBindings checks a program against the host layout: every
// uniform must match a host binding in group, slot and size, and every vertex
// input must be fed by the vertex (or, for instanced programs, instance)
// stream with the same type.
func ValidateShaderBindings(p shaders.Program) error {
	layout, err := ParseShaderLayout(p.Source, shaders.VertexEntryPoint)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}

	var errs []error
	host := map[[2]uint32]Binding{}
	for _, b := range HostBindings() {
		host[[2]uint32{b.Group, b.Binding}] = b
	}
	for _, u := range layout.Uniforms {
		b, ok := host[[2]uint32{u.Group, u.Binding}]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %s: uniform %s at group %d binding %d has no host buffer",
				ErrBindingMismatch, p.Name, u.Name, u.Group, u.Binding))
		case b.Size != u.Size:
			errs = append(errs, fmt.Errorf("%w: %s: uniform %s is %d bytes, host %s buffer is %d",
				ErrBindingMismatch, p.Name, u.Name, u.Size, b.Name, b.Size))
		}
	}

	streams := []any{ModelVertex{}}
	if p.Instanced {
		streams = append(streams, InstanceRecord{})
	}
	attrs := map[uint32]Attribute{}
	for _, s := range streams {
		list, _, err := LayoutAttributes(s)
		if err != nil {
			return err
		}
		for _, a := range list {
			attrs[a.Location] = a
		}
	}

	locations := make([]uint32, 0, len(layout.Inputs))
	for loc := range layout.Inputs {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })
	for _, loc := range locations {
		typ := layout.Inputs[loc]
		a, ok := attrs[loc]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: %s: input @location(%d) is not provided by the host",
				ErrBindingMismatch, p.Name, loc))
		case a.WGSL != typ:
			errs = append(errs, fmt.Errorf("%w: %s: input @location(%d) is %s, host provides %s",
				ErrBindingMismatch, p.Name, loc, typ, a.WGSL))
		}
	}
	return errors.Join(errs...)
}

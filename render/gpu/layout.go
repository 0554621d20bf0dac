package gpu

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/gekko3d/meshlight/render/core"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ModelVertex is the host side of the per-vertex stream. It shares the field
// layout of core.Vertex so the two convert directly.
type ModelVertex struct {
	Position  mgl32.Vec3 `meshlight:"layout" format:"float3" location:"0"`
	TexCoords mgl32.Vec2 `meshlight:"layout" format:"float2" location:"1"`
	Normal    mgl32.Vec3 `meshlight:"layout" format:"float3" location:"2"`
}

// InstanceRecord is the host side of the per-instance stream: four model
// matrix columns followed by three normal matrix columns.
type InstanceRecord struct {
	Model0  mgl32.Vec4 `meshlight:"layout" format:"float4" location:"5"`
	Model1  mgl32.Vec4 `meshlight:"layout" format:"float4" location:"6"`
	Model2  mgl32.Vec4 `meshlight:"layout" format:"float4" location:"7"`
	Model3  mgl32.Vec4 `meshlight:"layout" format:"float4" location:"8"`
	Normal0 mgl32.Vec3 `meshlight:"layout" format:"float3" location:"9"`
	Normal1 mgl32.Vec3 `meshlight:"layout" format:"float3" location:"10"`
	Normal2 mgl32.Vec3 `meshlight:"layout" format:"float3" location:"11"`
}

func NewInstanceRecord(inst core.InstanceRaw) InstanceRecord {
	return InstanceRecord{
		Model0:  inst.Model[0],
		Model1:  inst.Model[1],
		Model2:  inst.Model[2],
		Model3:  inst.Model[3],
		Normal0: inst.Normal[0],
		Normal1: inst.Normal[1],
		Normal2: inst.Normal[2],
	}
}

// Attribute is one decoded layout field.
type Attribute struct {
	Location uint32
	Offset   uint64
	Format   wgpu.VertexFormat
	// WGSL is the shader type the attribute must be declared with.
	WGSL string
}

var vertexFormats = map[string]struct {
	format wgpu.VertexFormat
	wgsl   string
}{
	"float2": {wgpu.VertexFormatFloat32x2, "vec2<f32>"},
	"float3": {wgpu.VertexFormatFloat32x3, "vec3<f32>"},
	"float4": {wgpu.VertexFormatFloat32x4, "vec4<f32>"},
}

// LayoutAttributes walks the struct fields tagged `meshlight:"layout"` and
// returns their attributes together with the struct stride.
func LayoutAttributes(vertexType any) ([]Attribute, uint64, error) {
	t := reflect.TypeOf(vertexType)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, 0, fmt.Errorf("vertex layout: %v is not a struct", t)
	}

	var attributes []Attribute
	var offset uint64
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Tag.Get("meshlight") == "layout" {
			name := field.Tag.Get("format")
			f, ok := vertexFormats[name]
			if !ok {
				return nil, 0, fmt.Errorf("vertex layout %s.%s: unsupported format %q", t.Name(), field.Name, name)
			}
			location, err := strconv.Atoi(field.Tag.Get("location"))
			if err != nil {
				return nil, 0, fmt.Errorf("vertex layout %s.%s: bad location: %w", t.Name(), field.Name, err)
			}
			attributes = append(attributes, Attribute{
				Location: uint32(location),
				Offset:   offset,
				Format:   f.format,
				WGSL:     f.wgsl,
			})
		}

		offset += uint64(field.Type.Size())
	}
	sort.Slice(attributes, func(i, j int) bool { return attributes[i].Location < attributes[j].Location })
	return attributes, offset, nil
}

// VertexBufferLayout builds the wgpu layout for a tagged struct.
func VertexBufferLayout(vertexType any, stepMode wgpu.VertexStepMode) (wgpu.VertexBufferLayout, error) {
	attrs, stride, err := LayoutAttributes(vertexType)
	if err != nil {
		return wgpu.VertexBufferLayout{}, err
	}
	out := make([]wgpu.VertexAttribute, len(attrs))
	for i, a := range attrs {
		out[i] = wgpu.VertexAttribute{
			ShaderLocation: a.Location,
			Offset:         a.Offset,
			Format:         a.Format,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: stride,
		StepMode:    stepMode,
		Attributes:  out,
	}, nil
}

// StreamLayouts returns the vertex buffer layouts a program draws with:
// slot 0 is the vertex stream, slot 1 the instance stream when instanced.
func StreamLayouts(instanced bool) ([]wgpu.VertexBufferLayout, error) {
	vertex, err := VertexBufferLayout(ModelVertex{}, wgpu.VertexStepModeVertex)
	if err != nil {
		return nil, err
	}
	layouts := []wgpu.VertexBufferLayout{vertex}
	if instanced {
		instance, err := VertexBufferLayout(InstanceRecord{}, wgpu.VertexStepModeInstance)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, instance)
	}
	return layouts, nil
}

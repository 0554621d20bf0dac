package gpu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/gekko3d/meshlight/render/core"
)

const (
	CameraUniformSize = 80
	LightUniformSize  = 32
)

// MarshalCamera packs the camera as {view_pos vec4, view_proj mat4x4}.
func MarshalCamera(c core.CameraUniform) []byte {
	buf := make([]byte, CameraUniformSize)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(c.ViewPos[i]))
	}
	// mgl32.Mat4 is already column-major
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(c.ViewProj[i]))
	}
	return buf
}

// MarshalLight packs the light as {position vec3, pad, color vec3, pad}.
func MarshalLight(l core.LightUniform) []byte {
	buf := make([]byte, LightUniformSize)
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(l.Position[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(l.Color[i]))
	}
	return buf
}

func VertexBytes(vertices []core.Vertex) ([]byte, error) {
	records := make([]ModelVertex, len(vertices))
	for i, v := range vertices {
		records[i] = ModelVertex(v)
	}
	return toBufferBytes(records)
}

func InstanceBytes(instances []core.InstanceRaw) ([]byte, error) {
	records := make([]InstanceRecord, len(instances))
	for i, inst := range instances {
		records[i] = NewInstanceRecord(inst)
	}
	return toBufferBytes(records)
}

func IndexBytes(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func toBufferBytes(data any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := writeFieldBytes(reflect.ValueOf(data), buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFieldBytes flattens structs, arrays and slices of fixed-size scalars in
// declaration order without padding.
func writeFieldBytes(field reflect.Value, buf *bytes.Buffer) error {
	switch field.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			elem := field.Index(i)
			if elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			if err := writeFieldBytes(elem, buf); err != nil {
				return err
			}
		}

	case reflect.Struct:
		for i := 0; i < field.NumField(); i++ {
			if err := writeFieldBytes(field.Field(i), buf); err != nil {
				return err
			}
		}

	case reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Float32:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			return fmt.Errorf("failed to write scalar field: %w", err)
		}

	default:
		return fmt.Errorf("unsupported buffer field type: %v", field.Type())
	}
	return nil
}

package gpu

import (
	"fmt"

	"github.com/gekko3d/meshlight/render/core"
	"github.com/gekko3d/meshlight/render/mesh"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// MeshBuffers are the GPU copies of one mesh and its instances.
type MeshBuffers struct {
	Vertex   *wgpu.Buffer
	Index    *wgpu.Buffer
	Instance *wgpu.Buffer

	IndexCount    uint32
	InstanceCount uint32
}

func (b *MeshBuffers) release() {
	for _, buf := range []*wgpu.Buffer{b.Vertex, b.Index, b.Instance} {
		if buf != nil {
			buf.Release()
		}
	}
}

// BufferManager owns the uniform buffers, their bind groups and the mesh
// buffers keyed by mesh ID.
type BufferManager struct {
	Device *wgpu.Device

	CameraBuf *wgpu.Buffer
	LightBuf  *wgpu.Buffer

	CameraLayout *wgpu.BindGroupLayout
	LightLayout  *wgpu.BindGroupLayout

	CameraBindGroup *wgpu.BindGroup
	LightBindGroup  *wgpu.BindGroup

	meshes map[uuid.UUID]*MeshBuffers
}

func NewBufferManager(device *wgpu.Device) (*BufferManager, error) {
	m := &BufferManager{
		Device: device,
		meshes: make(map[uuid.UUID]*MeshBuffers),
	}

	var err error
	m.CameraBuf, m.CameraLayout, m.CameraBindGroup, err = m.createUniform(CameraBinding, MarshalCamera(core.NewCameraUniform()))
	if err != nil {
		m.Release()
		return nil, err
	}
	m.LightBuf, m.LightLayout, m.LightBindGroup, err = m.createUniform(LightBinding, MarshalLight(core.DefaultLight()))
	if err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (m *BufferManager) createUniform(b Binding, initial []byte) (*wgpu.Buffer, *wgpu.BindGroupLayout, *wgpu.BindGroup, error) {
	buf, err := m.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    b.Name + " uniform",
		Contents: initial,
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create %s buffer: %w", b.Name, err)
	}
	layout, err := m.Device.CreateBindGroupLayout(b.LayoutDescriptor())
	if err != nil {
		buf.Release()
		return nil, nil, nil, fmt.Errorf("create %s bind group layout: %w", b.Name, err)
	}
	group, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  b.Name + " bind group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: b.Binding, Buffer: buf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		layout.Release()
		buf.Release()
		return nil, nil, nil, fmt.Errorf("create %s bind group: %w", b.Name, err)
	}
	return buf, layout, group, nil
}

// GroupLayouts returns the bind group layouts by group index, as NewPipeline
// expects them.
func (m *BufferManager) GroupLayouts() map[uint32]*wgpu.BindGroupLayout {
	return map[uint32]*wgpu.BindGroupLayout{
		CameraBinding.Group: m.CameraLayout,
		LightBinding.Group:  m.LightLayout,
	}
}

func (m *BufferManager) BindGroup(group uint32) *wgpu.BindGroup {
	switch group {
	case CameraBinding.Group:
		return m.CameraBindGroup
	case LightBinding.Group:
		return m.LightBindGroup
	}
	return nil
}

func (m *BufferManager) UpdateCamera(c core.CameraUniform) error {
	return m.Device.GetQueue().WriteBuffer(m.CameraBuf, 0, MarshalCamera(c))
}

func (m *BufferManager) UpdateLight(l core.LightUniform) error {
	return m.Device.GetQueue().WriteBuffer(m.LightBuf, 0, MarshalLight(l))
}

// UploadMesh creates the vertex and index buffers once per mesh ID.
func (m *BufferManager) UploadMesh(msh *mesh.Mesh) (*MeshBuffers, error) {
	if b, ok := m.meshes[msh.ID]; ok {
		return b, nil
	}

	vertexBytes, err := VertexBytes(msh.Vertices)
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", msh.Name, err)
	}
	b := &MeshBuffers{IndexCount: uint32(len(msh.Indices))}
	b.Vertex, err = m.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    msh.Name + " vertices",
		Contents: vertexBytes,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh %s vertex buffer: %w", msh.Name, err)
	}
	b.Index, err = m.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    msh.Name + " indices",
		Contents: IndexBytes(msh.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		b.release()
		return nil, fmt.Errorf("mesh %s index buffer: %w", msh.Name, err)
	}
	if err := m.writeInstances(msh.Name, b, []core.InstanceRaw{core.IdentityInstance()}); err != nil {
		b.release()
		return nil, err
	}

	m.meshes[msh.ID] = b
	return b, nil
}

// UploadInstances replaces the instance stream of an uploaded mesh.
func (m *BufferManager) UploadInstances(id uuid.UUID, instances []core.InstanceRaw) error {
	b, ok := m.meshes[id]
	if !ok {
		return fmt.Errorf("mesh %s not uploaded", id)
	}
	if len(instances) == 0 {
		instances = []core.InstanceRaw{core.IdentityInstance()}
	}
	return m.writeInstances(id.String(), b, instances)
}

func (m *BufferManager) writeInstances(name string, b *MeshBuffers, instances []core.InstanceRaw) error {
	data, err := InstanceBytes(instances)
	if err != nil {
		return fmt.Errorf("%s instances: %w", name, err)
	}
	size := uint64(len(data))
	if b.Instance == nil || b.Instance.GetSize() < size {
		if b.Instance != nil {
			b.Instance.Release()
		}
		b.Instance, err = m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: name + " instances",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s instance buffer: %w", name, err)
		}
	}
	if err := m.Device.GetQueue().WriteBuffer(b.Instance, 0, data); err != nil {
		return fmt.Errorf("%s instances write: %w", name, err)
	}
	b.InstanceCount = uint32(len(instances))
	return nil
}

// Draw records an indexed draw of an uploaded mesh with the given pipeline.
// Non-instanced programs draw a single instance.
func (m *BufferManager) Draw(pass *wgpu.RenderPassEncoder, p *Pipeline, id uuid.UUID) error {
	b, ok := m.meshes[id]
	if !ok {
		return fmt.Errorf("mesh %s not uploaded", id)
	}
	pass.SetPipeline(p.Render)
	for _, g := range p.Groups {
		pass.SetBindGroup(g, m.BindGroup(g), nil)
	}
	pass.SetVertexBuffer(0, b.Vertex, 0, wgpu.WholeSize)
	instanceCount := uint32(1)
	if p.Program.Instanced {
		pass.SetVertexBuffer(1, b.Instance, 0, wgpu.WholeSize)
		instanceCount = b.InstanceCount
	}
	pass.SetIndexBuffer(b.Index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(b.IndexCount, instanceCount, 0, 0, 0)
	return nil
}

func (m *BufferManager) Release() {
	for id, b := range m.meshes {
		b.release()
		delete(m.meshes, id)
	}
	if m.CameraBindGroup != nil {
		m.CameraBindGroup.Release()
	}
	if m.LightBindGroup != nil {
		m.LightBindGroup.Release()
	}
	if m.CameraLayout != nil {
		m.CameraLayout.Release()
	}
	if m.LightLayout != nil {
		m.LightLayout.Release()
	}
	if m.CameraBuf != nil {
		m.CameraBuf.Release()
	}
	if m.LightBuf != nil {
		m.LightBuf.Release()
	}
}

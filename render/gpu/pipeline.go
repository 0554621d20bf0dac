package gpu

import (
	"fmt"

	"github.com/gekko3d/meshlight/render/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

const DepthFormat = wgpu.TextureFormatDepth32Float

type PipelineOptions struct {
	Program     shaders.Program
	ColorFormat wgpu.TextureFormat
	// CullNone disables back-face culling.
	CullNone bool
}

// Pipeline is a validated render pipeline plus the bind groups it reads.
type Pipeline struct {
	Program shaders.Program
	Groups  []uint32
	Render  *wgpu.RenderPipeline
	layout  *wgpu.PipelineLayout
}

// RenderPipelineDescriptor fills the fixed-function state shared by every
// program: CCW front faces, depth test Less against DepthFormat, one opaque
// color target.
func RenderPipelineDescriptor(opts PipelineOptions, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) (*wgpu.RenderPipelineDescriptor, error) {
	buffers, err := StreamLayouts(opts.Program.Instanced)
	if err != nil {
		return nil, err
	}
	cull := wgpu.CullModeBack
	if opts.CullNone {
		cull = wgpu.CullModeNone
	}
	return &wgpu.RenderPipelineDescriptor{
		Label:  opts.Program.Name + " pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: shaders.VertexEntryPoint,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: shaders.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    opts.ColorFormat,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cull,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionAlways,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationKeep,
				PassOp:      wgpu.StencilOperationKeep,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionAlways,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationKeep,
				PassOp:      wgpu.StencilOperationKeep,
			},
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	}, nil
}

// NewPipeline validates the program against the host bindings, compiles it
// and builds a pipeline layout over the bind groups it declares.
func NewPipeline(device *wgpu.Device, opts PipelineOptions, groupLayouts map[uint32]*wgpu.BindGroupLayout) (*Pipeline, error) {
	if err := ValidateShaderBindings(opts.Program); err != nil {
		return nil, err
	}
	shaderLayout, err := ParseShaderLayout(opts.Program.Source, shaders.VertexEntryPoint)
	if err != nil {
		return nil, err
	}
	groups := shaderLayout.Groups()

	var layouts []*wgpu.BindGroupLayout
	for i, g := range groups {
		if g != uint32(i) {
			return nil, fmt.Errorf("%w: %s: bind groups must be contiguous from 0, found group %d",
				ErrBindingMismatch, opts.Program.Name, g)
		}
		l, ok := groupLayouts[g]
		if !ok {
			return nil, fmt.Errorf("%w: %s: no layout for group %d", ErrBindingMismatch, opts.Program.Name, g)
		}
		layouts = append(layouts, l)
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          opts.Program.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: opts.Program.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", opts.Program.Name, err)
	}
	defer module.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            opts.Program.Name + " layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %s: %w", opts.Program.Name, err)
	}

	desc, err := RenderPipelineDescriptor(opts, module, pipelineLayout)
	if err != nil {
		pipelineLayout.Release()
		return nil, err
	}
	render, err := device.CreateRenderPipeline(desc)
	if err != nil {
		pipelineLayout.Release()
		return nil, fmt.Errorf("create render pipeline %s: %w", opts.Program.Name, err)
	}

	return &Pipeline{
		Program: opts.Program,
		Groups:  groups,
		Render:  render,
		layout:  pipelineLayout,
	}, nil
}

func (p *Pipeline) Release() {
	if p.Render != nil {
		p.Render.Release()
		p.Render = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}

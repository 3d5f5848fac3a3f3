//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/parcoords/gpucore"
)

// pipeline bundles a render pipeline with the objects it was built from.
// bindLayout and pipeLayout are nil-safe for pipelines with no bindings.
type pipeline struct {
	label      string
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	render     hal.RenderPipeline
}

// destroy releases objects in reverse creation order.
func (p *pipeline) destroy(device hal.Device) {
	if p.render != nil {
		device.DestroyRenderPipeline(p.render)
		p.render = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// CreatePipeline implements gpucore.Adapter.
func (a *HALAdapter) CreatePipeline(desc *gpucore.PipelineDesc) (gpucore.PipelineID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return gpucore.InvalidID, ErrClosed
	}
	p, err := a.createPipeline(desc)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.PipelineID(a.id())
	a.pipelines[id] = p
	a.logger.Debug("native: pipeline created", "label", desc.Label, "kind", desc.Kind.String())
	return id, nil
}

// DestroyPipeline implements gpucore.Adapter.
func (a *HALAdapter) DestroyPipeline(id gpucore.PipelineID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pipelines[id]; ok {
		p.destroy(a.device)
		delete(a.pipelines, id)
	}
}

func (a *HALAdapter) createPipeline(desc *gpucore.PipelineDesc) (*pipeline, error) {
	if desc.ShaderSource == "" {
		return nil, fmt.Errorf("pipeline %s: empty shader source", desc.Label)
	}
	p := &pipeline{label: desc.Label}

	source := hal.ShaderSource{WGSL: desc.ShaderSource}
	if a.opts.CompileSPIRV {
		spirv, err := CompileShaderToSPIRV(desc.ShaderSource)
		if err != nil {
			return nil, err
		}
		source = hal.ShaderSource{SPIRV: spirv}
	}
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label + "_shader",
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", desc.Label, err)
	}
	p.shader = shader

	var groups []hal.BindGroupLayout
	if len(desc.Bindings) > 0 {
		entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Bindings))
		for i, b := range desc.Bindings {
			entries[i] = gputypes.BindGroupLayoutEntry{
				Binding:    b.Binding,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: convertBindingType(b.Type)},
			}
		}
		layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   desc.Label + "_bind_layout",
			Entries: entries,
		})
		if err != nil {
			p.destroy(a.device)
			return nil, fmt.Errorf("create %s bind group layout: %w", desc.Label, err)
		}
		p.bindLayout = layout
		groups = []hal.BindGroupLayout{layout}
	}

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		p.destroy(a.device)
		return nil, fmt.Errorf("create %s pipeline layout: %w", desc.Label, err)
	}
	p.pipeLayout = pipeLayout

	rpd, err := renderPipelineDescriptor(desc, shader, pipeLayout)
	if err != nil {
		p.destroy(a.device)
		return nil, err
	}
	render, err := a.device.CreateRenderPipeline(rpd)
	if err != nil {
		p.destroy(a.device)
		return nil, fmt.Errorf("create %s pipeline: %w", desc.Label, err)
	}
	p.render = render
	return p, nil
}

// renderPipelineDescriptor maps a pipeline kind onto topology, blend and
// depth state.
func renderPipelineDescriptor(desc *gpucore.PipelineDesc, shader hal.ShaderModule, layout hal.PipelineLayout) (*hal.RenderPipelineDescriptor, error) {
	rpd := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: desc.VertexEntry,
			Buffers:    vertexLayout(desc),
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	target := gputypes.ColorTargetState{
		Format:    colorFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	switch desc.Kind {
	case gpucore.PipelineLines:
		premulBlend := gputypes.BlendStatePremultiplied()
		target.Blend = &premulBlend
		rpd.Primitive = gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyLineList,
			CullMode: gputypes.CullModeNone,
		}
		rpd.DepthStencil = depthState(true, gputypes.CompareFunctionLessEqual)
	case gpucore.PipelineClearRect:
		rpd.Primitive = gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		}
		rpd.DepthStencil = depthState(true, gputypes.CompareFunctionAlways)
	default:
		return nil, fmt.Errorf("pipeline %s: unknown kind %d", desc.Label, desc.Kind)
	}
	rpd.Fragment = &hal.FragmentState{
		Module:     shader,
		EntryPoint: desc.FragmentEntry,
		Targets:    []gputypes.ColorTargetState{target},
	}
	return rpd, nil
}

// depthState leaves the stencil untouched (Compare=Always, ops=Keep,
// masks=0x00).
func depthState(write bool, compare gputypes.CompareFunction) *hal.DepthStencilState {
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            depthFormat,
		DepthWriteEnabled: write,
		DepthCompare:      compare,
		StencilFront:      keep,
		StencilBack:       keep,
		StencilReadMask:   0x00,
		StencilWriteMask:  0x00,
	}
}

// vertexLayout packs desc.VertexAttributes vec4<f32> attributes into slot 0.
func vertexLayout(desc *gpucore.PipelineDesc) []gputypes.VertexBufferLayout {
	if desc.VertexStride == 0 || desc.VertexAttributes == 0 {
		return nil
	}
	attrs := make([]gputypes.VertexAttribute, desc.VertexAttributes)
	for i := range attrs {
		attrs[i] = gputypes.VertexAttribute{
			Format:         gputypes.VertexFormatFloat32x4,
			Offset:         uint64(i) * 16,
			ShaderLocation: uint32(i), //nolint:gosec // at most 16 attributes
		}
	}
	return []gputypes.VertexBufferLayout{{
		ArrayStride: desc.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}}
}

func convertBindingType(t gpucore.BindingType) gputypes.BufferBindingType {
	if t == gpucore.BindingTypeReadOnlyStorageBuffer {
		return gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BufferBindingTypeUniform
}

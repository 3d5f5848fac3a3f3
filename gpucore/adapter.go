package gpucore

// Adapter abstracts over the GPU backend used by the line renderers.
//
// The renderers only ever need buffers, two pipeline shapes, bind groups,
// offscreen targets and render passes. Keeping the surface this small lets
// the same renderer run on gogpu/wgpu HAL devices (backend/native) and on
// recording fakes in tests.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and must not be reused
//
// Adapters are not required to be safe for concurrent use. One renderer
// drives one adapter from a single goroutine.
type Adapter interface {
	// === Buffer Management ===

	// CreateBuffer creates a GPU buffer of the given size in bytes.
	CreateBuffer(label string, size uint64, usage BufferUsage) (BufferID, error)

	// WriteBuffer writes data to a buffer at the given byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// === Render Targets ===

	// CreateTarget creates an offscreen color target with a matching depth
	// attachment. Its contents start cleared to transparent black and far
	// depth.
	CreateTarget(label string, width, height uint32) (TargetID, error)

	// ReadTarget reads the target back as tightly packed RGBA8 rows.
	// This causes a GPU-CPU synchronization stall.
	ReadTarget(id TargetID) ([]byte, error)

	// DestroyTarget releases the target and its attachments.
	DestroyTarget(id TargetID)

	// === Pipelines ===

	// CreatePipeline compiles the shader and creates the render pipeline.
	CreatePipeline(desc *PipelineDesc) (PipelineID, error)

	// DestroyPipeline releases the pipeline, its layouts and shader module.
	DestroyPipeline(id PipelineID)

	// CreateBindGroup binds buffers to bind group 0 of the pipeline.
	CreateBindGroup(pipeline PipelineID, entries []BindGroupEntry) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// === Command Recording ===

	// BeginPass starts a render pass on the target that preserves the
	// target's existing contents. The pass is submitted by End.
	BeginPass(target TargetID, label string) (PassEncoder, error)
}

// PassEncoder records draw commands for one render pass.
//
// Usage:
//  1. Obtain encoder from Adapter.BeginPass()
//  2. Set scissor, pipeline, bind group and vertex buffer
//  3. Draw
//  4. Call End() to submit
//
// The encoder is single-use and cannot be reused after End().
type PassEncoder interface {
	// SetScissorRect restricts subsequent draws to the rectangle.
	SetScissorRect(r Rect)

	// SetPipeline sets the active render pipeline.
	SetPipeline(pipeline PipelineID)

	// SetBindGroup sets bind group 0.
	SetBindGroup(group BindGroupID)

	// SetVertexBuffer binds slot 0.
	SetVertexBuffer(buffer BufferID, offset uint64)

	// Draw draws vertexCount vertices starting at firstVertex.
	Draw(vertexCount, firstVertex uint32)

	// End finishes the pass and submits it to the GPU queue.
	End() error
}

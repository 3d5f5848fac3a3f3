package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TargetID is an opaque handle to an offscreen render target
// (color texture plus its depth attachment).
type TargetID uint64

// PipelineID is an opaque handle to a render pipeline together with its
// shader module and layouts.
type PipelineID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 5

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 7
)

// PipelineKind selects one of the fixed pipeline shapes the line renderer
// needs. Adapters translate a kind into backend descriptors.
type PipelineKind uint8

const (
	// PipelineLines draws line-list primitives from the packed vertex
	// layout with premultiplied alpha blending and depth testing
	// (LessEqual, depth write on).
	PipelineLines PipelineKind = iota + 1

	// PipelineClearRect draws one full-target triangle pair with no vertex
	// buffers, no blending and depth compare Always. Combined with a
	// scissor rect it clears a sub-rectangle of color and depth.
	PipelineClearRect
)

// String returns the debug name of the pipeline kind.
func (k PipelineKind) String() string {
	switch k {
	case PipelineLines:
		return "lines"
	case PipelineClearRect:
		return "clear_rect"
	default:
		return "unknown"
	}
}

// PipelineDesc describes a render pipeline.
type PipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Kind selects topology, blend and depth state.
	Kind PipelineKind

	// ShaderSource is the WGSL source containing both entry points.
	ShaderSource string

	// VertexEntry and FragmentEntry name the shader entry points.
	VertexEntry   string
	FragmentEntry string

	// VertexStride is the byte stride of vertex buffer slot 0. Zero means
	// the pipeline reads no vertex buffers.
	VertexStride uint64

	// VertexAttributes is the number of vec4<f32> attributes packed
	// back-to-back in slot 0, at shader locations 0..VertexAttributes-1.
	VertexAttributes int

	// Bindings describes bind group 0.
	Bindings []BindingLayout
}

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer
)

// BindingLayout describes a single buffer binding visible to the vertex
// and fragment stages.
type BindingLayout struct {
	// Binding is the binding index.
	Binding uint32

	// Type is the type of resource bound at this index.
	Type BindingType
}

// BindGroupEntry describes a single binding in a bind group.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind.
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	Size uint64
}

// Rect is a pixel rectangle in target space, origin top-left.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

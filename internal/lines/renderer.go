// Package lines draws one parallel-coordinates layer on the GPU.
//
// A Renderer owns its pipelines, buffers and render target. Geometry is
// uploaded once in New; every later Render only rewrites per-panel
// uniforms and replays draws through the block scheduler.
package lines

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/parcoords/gpucore"
	"github.com/gogpu/parcoords/internal/encode"
	"github.com/gogpu/parcoords/internal/filter"
	"github.com/gogpu/parcoords/internal/schedule"
)

//go:embed shaders/lines.wgsl
var linesShaderSource string

// clearVertexCount is the vertex count of the clear-rect quad.
const clearVertexCount = 6

// Errors returned by the renderer.
var (
	// ErrResourceExhaustion is returned when a GPU buffer, target or
	// pipeline cannot be allocated.
	ErrResourceExhaustion = errors.New("lines: GPU resource exhaustion")

	// ErrDestroyed is returned by calls on a destroyed renderer.
	ErrDestroyed = errors.New("lines: renderer destroyed")
)

// Layer selects the colouring and filtering behaviour of a renderer.
type Layer uint8

const (
	// LayerFocus draws samples passing every filter in palette colours.
	LayerFocus Layer = iota

	// LayerContext draws every sample in the dimmed context colour.
	LayerContext
)

// String returns the layer name, also used as the scheduler key.
func (l Layer) String() string {
	if l == LayerContext {
		return "context"
	}
	return "focus"
}

// State is the renderer lifecycle state.
type State uint8

// Renderer states.
const (
	StateUninitialized State = iota
	StateGeometryUploaded
	StateReady
	StateRendering
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateGeometryUploaded:
		return "geometry-uploaded"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// AxisView is the on-screen placement of one variable. Views passed to
// Render are in screen order, left to right.
type AxisView struct {
	// Variable is the original variable index, which is also its packed slot.
	Variable int

	// X is the axis position in target pixels.
	X float64
}

// Viewport is the target size and the vertical band lines are drawn in.
type Viewport struct {
	Width, Height uint32

	// PlotTop and PlotHeight place unit value 1 at PlotTop and 0 at
	// PlotTop+PlotHeight, in target pixels.
	PlotTop, PlotHeight float32

	// JitterPixels scales the per-sample jitter offset, in target pixels.
	JitterPixels float32
}

// FilterSource provides the packed filter matrix for the focus layer.
// *filter.State implements it.
type FilterSource interface {
	Pack() filter.Matrix
}

// Config configures a Renderer.
type Config struct {
	Layer    Layer
	Viewport Viewport

	// ContextColor is the straight-alpha RGBA colour of context lines.
	ContextColor [4]float32

	// BlockLines is the number of samples drawn per scheduler increment.
	BlockLines int

	Filters   FilterSource
	Scheduler *schedule.Scheduler
	Logger    *slog.Logger
}

// panel is the per-panel view state used for dirty checks.
type panel struct {
	left, right int
	x0, x1      float32
	scissor     gpucore.Rect
}

// Renderer draws one layer.
type Renderer struct {
	adapter gpucore.Adapter
	cfg     Config
	logger  *slog.Logger
	key     string

	state   State
	samples int

	pipeline      gpucore.PipelineID
	clearPipeline gpucore.PipelineID
	vertexBuf     gpucore.BufferID
	sampleBuf     gpucore.BufferID
	uniformBuf    gpucore.BufferID
	bindGroups    []gpucore.BindGroupID
	target        gpucore.TargetID

	panels     []panel
	incomplete []bool
	fullClear  bool

	// scratch holds one encoded Panel record.
	scratch []byte

	lastErr error
}

// New uploads geometry and allocates every GPU resource for one layer.
func New(adapter gpucore.Adapter, g *encode.Geometry, cfg Config) (*Renderer, error) {
	if adapter == nil {
		return nil, fmt.Errorf("lines: nil adapter")
	}
	if g == nil || g.Samples == 0 {
		return nil, fmt.Errorf("lines: empty geometry")
	}
	if cfg.Scheduler == nil {
		return nil, fmt.Errorf("lines: nil scheduler")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.BlockLines <= 0 {
		cfg.BlockLines = g.Samples
	}

	r := &Renderer{
		adapter: adapter,
		cfg:     cfg,
		logger:  logger.With("layer", cfg.Layer.String()),
		key:     cfg.Layer.String(),
		state:   StateUninitialized,
		samples: g.Samples,
		scratch: make([]byte, panelUniformSize),
	}
	if err := r.createPipelines(); err != nil {
		r.destroyResources()
		return nil, err
	}
	if err := r.upload(g); err != nil {
		r.destroyResources()
		return nil, err
	}
	if err := r.createTarget(); err != nil {
		r.destroyResources()
		return nil, err
	}
	r.state = StateGeometryUploaded
	r.logger.Debug("lines: geometry uploaded",
		"samples", g.Samples,
		"vertex_bytes", len(g.Vertices),
		"sample_bytes", len(g.SampleData))
	return r, nil
}

func exhausted(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrResourceExhaustion, what, err)
}

func (r *Renderer) createPipelines() error {
	bindings := []gpucore.BindingLayout{
		{Binding: 0, Type: gpucore.BindingTypeUniformBuffer},
		{Binding: 1, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
	}
	p, err := r.adapter.CreatePipeline(&gpucore.PipelineDesc{
		Label:            "parcoords_lines_" + r.key,
		Kind:             gpucore.PipelineLines,
		ShaderSource:     linesShaderSource,
		VertexEntry:      "vs_main",
		FragmentEntry:    "fs_main",
		VertexStride:     encode.VertexStride,
		VertexAttributes: encode.VertexAttributes,
		Bindings:         bindings,
	})
	if err != nil {
		return exhausted("lines pipeline", err)
	}
	r.pipeline = p

	c, err := r.adapter.CreatePipeline(&gpucore.PipelineDesc{
		Label:         "parcoords_clear_" + r.key,
		Kind:          gpucore.PipelineClearRect,
		ShaderSource:  linesShaderSource,
		VertexEntry:   "vs_clear",
		FragmentEntry: "fs_clear",
	})
	if err != nil {
		return exhausted("clear pipeline", err)
	}
	r.clearPipeline = c
	return nil
}

func (r *Renderer) upload(g *encode.Geometry) error {
	var err error
	r.vertexBuf, err = r.adapter.CreateBuffer("parcoords_vertices_"+r.key,
		uint64(len(g.Vertices)), gpucore.BufferUsageVertex|gpucore.BufferUsageCopyDst)
	if err != nil {
		return exhausted("vertex buffer", err)
	}
	r.adapter.WriteBuffer(r.vertexBuf, 0, g.Vertices)

	r.sampleBuf, err = r.adapter.CreateBuffer("parcoords_samples_"+r.key,
		uint64(len(g.SampleData)), gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst)
	if err != nil {
		return exhausted("sample buffer", err)
	}
	r.adapter.WriteBuffer(r.sampleBuf, 0, g.SampleData)

	r.uniformBuf, err = r.adapter.CreateBuffer("parcoords_panels_"+r.key,
		maxPanels*panelStride, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		return exhausted("uniform buffer", err)
	}
	return nil
}

func (r *Renderer) createTarget() error {
	vp := r.cfg.Viewport
	t, err := r.adapter.CreateTarget("parcoords_target_"+r.key, vp.Width, vp.Height)
	if err != nil {
		return exhausted("render target", err)
	}
	r.target = t
	return nil
}

// ensureBindGroups creates bind groups for the first n panels.
func (r *Renderer) ensureBindGroups(n int) error {
	for i := len(r.bindGroups); i < n; i++ {
		bg, err := r.adapter.CreateBindGroup(r.pipeline, []gpucore.BindGroupEntry{
			{Binding: 0, Buffer: r.uniformBuf, Offset: uint64(i) * panelStride, Size: panelUniformSize},
			{Binding: 1, Buffer: r.sampleBuf, Size: uint64(r.samples) * encode.SampleStride},
		})
		if err != nil {
			return exhausted("bind group", err)
		}
		r.bindGroups = append(r.bindGroups, bg)
	}
	return nil
}

// State returns the lifecycle state.
func (r *Renderer) State() State {
	return r.state
}

// Layer returns the layer this renderer draws.
func (r *Renderer) Layer() Layer {
	return r.cfg.Layer
}

// Target returns the render target.
func (r *Renderer) Target() gpucore.TargetID {
	return r.target
}

// Viewport returns the current viewport.
func (r *Renderer) Viewport() Viewport {
	return r.cfg.Viewport
}

// Err returns the last pass error. Passes run inside scheduler callbacks,
// so failures are recorded here instead of being returned.
func (r *Renderer) Err() error {
	return r.lastErr
}

// Render redraws the panels between adjacent views whose placement changed
// since the previous call. filtersChanged forces every panel to redraw
// with a freshly packed filter matrix. clearOnly clears the whole target
// and draws nothing.
//
// Render with no changed panel does nothing and leaves an in-flight
// redraw running. Otherwise panels left incomplete by the superseded
// redraw are drawn again along with the changed ones.
func (r *Renderer) Render(views []AxisView, filtersChanged, clearOnly bool) error {
	if r.state == StateDestroyed {
		return ErrDestroyed
	}
	if len(views) > filter.MaxVariables {
		return fmt.Errorf("lines: %d axis views, want at most %d", len(views), filter.MaxVariables)
	}
	if clearOnly {
		r.clear()
		return nil
	}

	next := r.layout(views)
	dirty := make([]bool, len(next))
	changed := false
	relayout := len(next) != len(r.panels)
	for i := range next {
		dirty[i] = filtersChanged || relayout || next[i] != r.panels[i]
		changed = changed || dirty[i]
	}
	if relayout {
		r.fullClear = true
	}
	if !changed && !r.fullClear {
		return nil
	}
	for i := range dirty {
		if i < len(r.incomplete) && r.incomplete[i] {
			dirty[i] = true
		}
	}
	if err := r.ensureBindGroups(len(next)); err != nil {
		return err
	}

	var matrix filter.Matrix
	if r.cfg.Layer == LayerFocus && r.cfg.Filters != nil {
		matrix = r.cfg.Filters.Pack()
	} else {
		matrix = filter.Permissive()
	}
	for i := range next {
		if dirty[i] {
			r.writePanel(i, &next[i], &matrix)
		}
	}

	r.panels = next
	r.incomplete = dirty
	r.draw(dirty)
	return nil
}

// layout turns screen-ordered views into panels.
func (r *Renderer) layout(views []AxisView) []panel {
	if len(views) < 2 {
		return nil
	}
	vp := r.cfg.Viewport
	width := float64(vp.Width)

	// Adjacent panels share the rounded axis column as their boundary so
	// a scissored clear never reaches into a neighbour.
	edges := make([]float64, len(views))
	for i, v := range views {
		edges[i] = math.Max(0, math.Min(math.Round(v.X), width))
	}
	edges[0], edges[len(edges)-1] = 0, width

	out := make([]panel, len(views)-1)
	for i := range out {
		x0, x1 := views[i].X, views[i+1].X
		lo := edges[i]
		hi := math.Max(lo, edges[i+1])
		out[i] = panel{
			left:  views[i].Variable,
			right: views[i+1].Variable,
			x0:    float32(x0),
			x1:    float32(x1),
			scissor: gpucore.Rect{
				X:      uint32(lo),
				Width:  uint32(hi - lo),
				Height: vp.Height,
			},
		}
	}
	return out
}

func (r *Renderer) writePanel(i int, p *panel, m *filter.Matrix) {
	vp := r.cfg.Viewport
	u := panelUniforms{
		left:    filter.OneHot(p.left),
		right:   filter.OneHot(p.right),
		filters: *m,
		band:    [4]float32{p.x0, p.x1, vp.PlotTop, vp.PlotHeight},
		canvas:  [4]float32{float32(vp.Width), float32(vp.Height), vp.JitterPixels, 0},
	}
	if r.cfg.Layer == LayerContext {
		u.canvas[3] = 1
		c := r.cfg.ContextColor
		u.context = [4]float32{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
	}
	u.encode(r.scratch)
	r.adapter.WriteBuffer(r.uniformBuf, uint64(i)*panelStride, r.scratch)
}

// draw schedules the block loop for the dirty panels.
func (r *Renderer) draw(dirty []bool) {
	panels := r.panels
	fullClear := r.fullClear
	r.state = StateRendering
	r.cfg.Scheduler.Schedule(r.key, r.samples, r.cfg.BlockLines,
		func(block, first, count int) {
			r.drawBlock(panels, dirty, block == 0 && fullClear, block == 0, first, count)
			if block == 0 {
				r.fullClear = false
			}
		},
		func() {
			r.incomplete = nil
			if r.state == StateRendering {
				r.state = StateReady
			}
		})
}

func (r *Renderer) drawBlock(panels []panel, dirty []bool, fullClear, first bool, start, count int) {
	pass, err := r.adapter.BeginPass(r.target, "parcoords_"+r.key)
	if err != nil {
		r.fail(err)
		return
	}
	if fullClear {
		r.clearRect(pass, r.fullRect())
	}
	for i := range panels {
		if !dirty[i] || panels[i].scissor.Empty() {
			continue
		}
		if first && !fullClear {
			r.clearRect(pass, panels[i].scissor)
		}
		pass.SetScissorRect(panels[i].scissor)
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(r.bindGroups[i])
		pass.SetVertexBuffer(r.vertexBuf, 0)
		pass.Draw(uint32(count*encode.VerticesPerSample), uint32(start*encode.VerticesPerSample)) //nolint:gosec // bounded by sample count
	}
	if err := pass.End(); err != nil {
		r.fail(err)
	}
}

func (r *Renderer) clearRect(pass gpucore.PassEncoder, rect gpucore.Rect) {
	if rect.Empty() {
		return
	}
	pass.SetScissorRect(rect)
	pass.SetPipeline(r.clearPipeline)
	pass.Draw(clearVertexCount, 0)
}

func (r *Renderer) fullRect() gpucore.Rect {
	return gpucore.Rect{Width: r.cfg.Viewport.Width, Height: r.cfg.Viewport.Height}
}

func (r *Renderer) fail(err error) {
	r.lastErr = err
	r.logger.Warn("lines: pass failed", "err", err)
}

// clear cancels in-flight work and clears the whole target. The next
// Render redraws every panel.
func (r *Renderer) clear() {
	r.cfg.Scheduler.Cancel(r.key)
	r.panels = nil
	r.incomplete = nil
	r.fullClear = false

	pass, err := r.adapter.BeginPass(r.target, "parcoords_clear_"+r.key)
	if err != nil {
		r.fail(err)
		return
	}
	r.clearRect(pass, r.fullRect())
	if err := pass.End(); err != nil {
		r.fail(err)
	}
	if r.state != StateGeometryUploaded {
		r.state = StateReady
	}
}

// Resize recreates the render target. The next Render redraws every panel.
func (r *Renderer) Resize(vp Viewport) error {
	if r.state == StateDestroyed {
		return ErrDestroyed
	}
	r.cfg.Scheduler.Cancel(r.key)
	old := r.cfg.Viewport
	r.cfg.Viewport = vp
	r.panels = nil
	r.incomplete = nil
	r.fullClear = true
	if r.state == StateRendering {
		r.state = StateReady
	}
	if old.Width == vp.Width && old.Height == vp.Height {
		return nil
	}
	r.adapter.DestroyTarget(r.target)
	r.target = gpucore.InvalidID
	return r.createTarget()
}

// Read returns the target contents as tightly packed RGBA8 rows.
func (r *Renderer) Read() ([]byte, error) {
	if r.state == StateDestroyed {
		return nil, ErrDestroyed
	}
	return r.adapter.ReadTarget(r.target)
}

// Destroy cancels in-flight work and releases every GPU resource. It is
// safe to call more than once.
func (r *Renderer) Destroy() {
	if r.state == StateDestroyed {
		return
	}
	r.cfg.Scheduler.Cancel(r.key)
	r.destroyResources()
	r.state = StateDestroyed
	r.logger.Debug("lines: destroyed")
}

// destroyResources releases resources in reverse creation order.
func (r *Renderer) destroyResources() {
	for _, bg := range r.bindGroups {
		r.adapter.DestroyBindGroup(bg)
	}
	r.bindGroups = nil
	if r.target != gpucore.InvalidID {
		r.adapter.DestroyTarget(r.target)
		r.target = gpucore.InvalidID
	}
	if r.uniformBuf != gpucore.InvalidID {
		r.adapter.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = gpucore.InvalidID
	}
	if r.sampleBuf != gpucore.InvalidID {
		r.adapter.DestroyBuffer(r.sampleBuf)
		r.sampleBuf = gpucore.InvalidID
	}
	if r.vertexBuf != gpucore.InvalidID {
		r.adapter.DestroyBuffer(r.vertexBuf)
		r.vertexBuf = gpucore.InvalidID
	}
	if r.clearPipeline != gpucore.InvalidID {
		r.adapter.DestroyPipeline(r.clearPipeline)
		r.clearPipeline = gpucore.InvalidID
	}
	if r.pipeline != gpucore.InvalidID {
		r.adapter.DestroyPipeline(r.pipeline)
		r.pipeline = gpucore.InvalidID
	}
}

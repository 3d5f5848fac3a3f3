package parcoords

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/gogpu/parcoords/gpucore"
	"github.com/gogpu/parcoords/internal/column"
	"github.com/gogpu/parcoords/internal/encode"
	"github.com/gogpu/parcoords/internal/filter"
	"github.com/gogpu/parcoords/internal/interact"
	"github.com/gogpu/parcoords/internal/lines"
	"github.com/gogpu/parcoords/internal/schedule"
	"github.com/gogpu/parcoords/render"
)

// Compositing order of the layer readbacks.
const (
	zContext = iota
	zFocus
)

// Chart is one interactive parallel-coordinates chart.
//
// A Chart owns two line layers on the adapter: the context layer shows
// every line dimmed while any filter is active, and the focus layer shows
// the lines passing all filters in palette colours. Geometry is uploaded
// once; brushing and reordering only change uniforms.
//
// All methods are safe for concurrent use. Callbacks run after the call
// that triggered them has released the chart, so they may call back in.
type Chart struct {
	mu sync.Mutex

	id      string
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	onAxisOrder func(chartID string, order []int)
	onBrush     func(chartID string, axis int, lo, hi float64)

	store   *column.Store
	filters *filter.State
	manual  *schedule.ManualHost // nil when the host drives frames
	sched   *schedule.Scheduler
	focus   *lines.Renderer
	context *lines.Renderer
	ctrl    *interact.Controller

	background color.Color
	pending    []func()
	destroyed  bool
}

// NewChart validates ds, uploads its geometry to adapter and draws the
// first frame. It returns ErrInvalidInput for a bad dataset and
// ErrResourceExhaustion when GPU allocation fails; nothing is left
// allocated on error.
func NewChart(ctx context.Context, adapter gpucore.Adapter, ds Dataset, cfg Config, opts ...ChartOption) (*Chart, error) {
	if adapter == nil {
		return nil, fmt.Errorf("parcoords: nil adapter")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o chartOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	logger := o.logger
	if logger == nil {
		logger = Logger()
	}
	logger = logger.With("chart", o.id)

	if err := ds.validate(); err != nil {
		return nil, err
	}
	store, err := column.Build(ctx, ds.columns(), column.Config{
		IntegerPadding: cfg.IntegerPadding,
		Logger:         logger,
	})
	if err != nil {
		return nil, wrapErr(err)
	}

	c := &Chart{
		id:          o.id,
		cfg:         cfg,
		logger:      logger,
		metrics:     o.metrics,
		onAxisOrder: o.onAxisOrder,
		onBrush:     o.onBrush,
		store:       store,
		filters:     filter.NewState(store.Len(), ds.initialFilters()),
	}
	c.background, _ = ParseHex(cfg.Background)

	geom, err := c.encode(ds.ColorBy)
	if err != nil {
		return nil, err
	}

	host := o.host
	if host == nil {
		c.manual = &schedule.ManualHost{}
		host = c.manual
	} else {
		host = &lockedHost{host: host, c: c}
	}
	c.sched = schedule.New(host, schedule.Config{
		RefreshInterval:  time.Duration(cfg.RefreshInterval),
		BudgetMultiplier: cfg.TimeBudgetMultiplier,
		Clock:            o.clock,
		Logger:           logger,
		Metrics:          o.metrics.schedulerMetrics(),
	})

	if err := c.createLayers(adapter, geom, ds.Order); err != nil {
		c.destroyLayers()
		return nil, err
	}

	c.mu.Lock()
	err = c.ctrl.Redraw(true)
	c.mu.Unlock()
	if err != nil {
		c.destroyLayers()
		return nil, wrapErr(err)
	}

	c.metrics.chartCreated()
	logger.Info("parcoords: chart created",
		"variables", store.Len(),
		"samples", store.SampleCount(),
		"vertexBytes", len(geom.Vertices))
	return c, nil
}

// encode builds the packed geometry, colouring by variable colorBy.
func (c *Chart) encode(colorBy int) (*encode.Geometry, error) {
	lo, hi := 0.0, 1.0
	var key []float32
	if colorBy != NoColor {
		key = c.store.Unit(colorBy)
		if c.cfg.ColorMin != 0 || c.cfg.ColorMax != 0 {
			s := c.store.Scale(colorBy)
			lo, hi = s.Unit(c.cfg.ColorMin), s.Unit(c.cfg.ColorMax)
		}
	}
	palette, err := newPalette(c.cfg.Palette, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	g, err := encode.Encode(encode.Input{
		Columns:  c.store.Columns(),
		ColorKey: key,
		Palette:  palette,
		Jitter:   c.cfg.Scatter > 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return g, nil
}

func (c *Chart) geometry() interact.Geometry {
	return interact.Geometry{
		Width:             c.cfg.Width,
		Height:            c.cfg.Height,
		HorizontalPadding: c.cfg.HorizontalPadding,
		VerticalPadding:   c.cfg.VerticalPadding,
		HandleHeight:      c.cfg.HandleHeight,
		HandleOverlap:     c.cfg.HandleOverlap,
		BrushCaptureWidth: c.cfg.BrushCaptureWidth,
		BrushVisibleWidth: c.cfg.BrushVisibleWidth,
		Overdrag:          c.cfg.Overdrag,
	}
}

// viewport returns the target viewport of f at the configured pixel
// ratio, with the scatter amplitude scaled to target pixels.
func (c *Chart) viewport(f interact.Frame) lines.Viewport {
	vp := f.Viewport(c.cfg.PixelRatio)
	vp.JitterPixels = float32(c.cfg.Scatter * c.cfg.PixelRatio)
	return vp
}

// createLayers creates the context layer, then the focus layer, then the
// controller that drives both.
func (c *Chart) createLayers(adapter gpucore.Adapter, g *encode.Geometry, order []int) error {
	vp := c.viewport(interact.Layout(c.geometry(), order, nil))
	contextColor, _ := ParseHex(c.cfg.ContextColor)
	base := lines.Config{
		Viewport:     vp,
		ContextColor: contextColor.WithAlpha(c.cfg.ContextOpacity).floats(),
		BlockLines:   c.cfg.BlockLines,
		Filters:      c.filters,
		Scheduler:    c.sched,
		Logger:       c.logger,
	}

	var err error
	cfg := base
	cfg.Layer = lines.LayerContext
	if c.context, err = lines.New(adapter, g, cfg); err != nil {
		return wrapErr(err)
	}
	cfg = base
	cfg.Layer = lines.LayerFocus
	if c.focus, err = lines.New(adapter, g, cfg); err != nil {
		return wrapErr(err)
	}

	scales := make([]interact.Scale, c.store.Len())
	for i := range scales {
		scales[i] = c.store.Scale(i)
	}
	c.ctrl, err = interact.NewController(scales, c.filters, c.focus, c.context, order, interact.Config{
		Geometry:          c.geometry(),
		PixelRatio:        c.cfg.PixelRatio,
		OrdinalSnapMargin: c.cfg.OrdinalSnapMargin,
		Callbacks: interact.Callbacks{
			OnAxisOrder: c.axisOrderChanged,
			OnBrush:     c.brushed,
		},
		Logger: c.logger,
	})
	return wrapErr(err)
}

// destroyLayers releases GPU resources in reverse creation order.
func (c *Chart) destroyLayers() {
	if c.sched != nil {
		c.sched.CancelAll()
	}
	if c.focus != nil {
		c.focus.Destroy()
	}
	if c.context != nil {
		c.context.Destroy()
	}
}

func (c *Chart) axisOrderChanged(order []int) {
	c.metrics.gesture("reorder")
	c.logger.Debug("parcoords: axis order changed", "order", order)
	if fn := c.onAxisOrder; fn != nil {
		id := c.id
		c.pending = append(c.pending, func() { fn(id, order) })
	}
}

func (c *Chart) brushed(axis int, lo, hi float64) {
	c.metrics.gesture("brush")
	if fn := c.onBrush; fn != nil {
		id := c.id
		c.pending = append(c.pending, func() { fn(id, axis, lo, hi) })
	}
}

// do runs fn under the chart lock and fires the callbacks it queued once
// the lock is released.
func (c *Chart) do(fn func() error) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}
	err := fn()
	fire := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, f := range fire {
		f()
	}
	return wrapErr(err)
}

// ID returns the chart id passed to callbacks.
func (c *Chart) ID() string { return c.id }

// Len returns the number of variables.
func (c *Chart) Len() int { return c.store.Len() }

// SampleCount returns the number of lines.
func (c *Chart) SampleCount() int { return c.store.SampleCount() }

// Name returns the name of variable i.
func (c *Chart) Name(i int) string { return c.store.Name(i) }

// Redraw redraws every panel of both layers.
func (c *Chart) Redraw() error {
	return c.do(func() error {
		return c.ctrl.Redraw(true)
	})
}

// PointerDown starts a gesture at (x, y) in layout pixels: a drag on an
// axis handle or a brush on an axis. It reports whether one started.
func (c *Chart) PointerDown(x, y float64) bool {
	started := false
	_ = c.do(func() error {
		started = c.ctrl.PointerDown(x, y)
		return nil
	})
	return started
}

// PointerMove advances the active gesture.
func (c *Chart) PointerMove(x, y float64) error {
	return c.do(func() error {
		return c.ctrl.PointerMove(x, y)
	})
}

// PointerUp completes the active gesture and fires its callback.
func (c *Chart) PointerUp(x, y float64) error {
	return c.do(func() error {
		return c.ctrl.PointerUp(x, y)
	})
}

// CancelGesture abandons the active gesture without a callback.
func (c *Chart) CancelGesture() error {
	return c.do(c.ctrl.Cancel)
}

// HoverEnabled reports whether the host should run line hover handling.
// It is false while an axis is being dragged.
func (c *Chart) HoverEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctrl.HoverEnabled()
}

// ContextVisible reports whether the dimmed context layer is showing,
// which is the case exactly while at least one filter is active.
func (c *Chart) ContextVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctrl.ContextVisible()
}

// AxisOrder returns the original variable indices in screen order.
func (c *Chart) AxisOrder() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctrl.Order()
}

// SetAxisOrder replaces the screen order. No callback fires.
func (c *Chart) SetAxisOrder(order []int) error {
	return c.do(func() error {
		return c.ctrl.SetOrder(order)
	})
}

// Filters returns the unit-space range of every variable, in original
// order. Unfiltered variables report [0, 1].
func (c *Chart) Filters() []Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.filters.Snapshot()
	out := make([]Range, len(snap))
	for i, r := range snap {
		out[i] = Range{Lo: r.Lo, Hi: r.Hi}
	}
	return out
}

// Filter returns the range of variable axis in domain units.
func (c *Chart) Filter(axis int) (Range, error) {
	if axis < 0 || axis >= c.store.Len() {
		return Range{}, invalidInput("axis %d out of range", axis)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.filters.Range(axis)
	s := c.store.Scale(axis)
	return Range{Lo: s.Domain(r.Lo), Hi: s.Domain(r.Hi)}, nil
}

// SetFilter brushes variable axis to [lo, hi] in domain units, with the
// same snapping and redraw as a brush gesture. lo == hi clears the
// filter. No callback fires.
func (c *Chart) SetFilter(axis int, lo, hi float64) error {
	if axis < 0 || axis >= c.store.Len() {
		return invalidInput("axis %d out of range", axis)
	}
	if !finite(lo, hi) {
		return invalidInput("filter bounds must be finite")
	}
	return c.do(func() error {
		r := filter.Full()
		if lo != hi {
			s := c.store.Scale(axis)
			r = filter.Range{Lo: s.Unit(lo), Hi: s.Unit(hi)}
		}
		return c.ctrl.SetRange(axis, r, false)
	})
}

// ResetFilter clears the filter of variable axis.
func (c *Chart) ResetFilter(axis int) error {
	if axis < 0 || axis >= c.store.Len() {
		return invalidInput("axis %d out of range", axis)
	}
	return c.do(func() error {
		return c.ctrl.SetRange(axis, filter.Full(), false)
	})
}

// BrushRect returns the on-screen rectangle of an active brush, rounded
// to layout pixels.
func (c *Chart) BrushRect(axis int) (image.Rectangle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	x0, y0, x1, y1, ok := c.ctrl.BrushRect(axis)
	if !ok {
		return image.Rectangle{}, false
	}
	return image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1))), true
}

// Selection returns the samples that pass every filter, evaluated with the
// same packed matrix and tolerance the focus layer uses on the GPU.
func (c *Chart) Selection() *roaring.Bitmap {
	c.mu.Lock()
	m := c.filters.Pack()
	c.mu.Unlock()

	bm := roaring.NewBitmap()
	cols := c.store.Columns()
	var b filter.Block
	for s := range c.store.SampleCount() {
		encode.FillBlock(&b, cols, s)
		if m.Visible(&b) {
			bm.Add(uint32(s))
		}
	}
	return bm
}

// Resize relayouts the chart at a new size and pixel ratio and redraws
// everything. A pixelRatio of zero keeps the current one.
func (c *Chart) Resize(width, height, pixelRatio float64) error {
	return c.do(func() error {
		next := c.cfg
		next.Width, next.Height = width, height
		if pixelRatio > 0 {
			next.PixelRatio = pixelRatio
		}
		if err := next.Validate(); err != nil {
			return err
		}
		c.cfg = next
		g := c.geometry()
		vp := c.viewport(interact.Layout(g, c.ctrl.Order(), nil))
		if err := multierr.Combine(c.context.Resize(vp), c.focus.Resize(vp)); err != nil {
			return err
		}
		c.logger.Debug("parcoords: resized", "width", vp.Width, "height", vp.Height)
		return c.ctrl.SetGeometry(g, next.PixelRatio)
	})
}

// Flush runs queued draw increments until both layers are complete and
// returns the number of frames it took. It only has work to do when the
// chart schedules frames itself, i.e. without WithFrameHost.
func (c *Chart) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manual == nil || c.destroyed {
		return 0
	}
	return c.manual.Drain()
}

// Err returns the last pass error of either layer. Draw increments run
// outside any call that could report them.
func (c *Chart) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wrapErr(multierr.Combine(c.context.Err(), c.focus.Err()))
}

// Snapshot flushes pending work and composites the context and focus
// layers over the background, at layout size.
func (c *Chart) Snapshot() (*image.RGBA, error) {
	c.Flush()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil, ErrDestroyed
	}
	vp := c.focus.Viewport()
	stack := render.NewLayers(int(vp.Width), int(vp.Height), c.background)
	if c.ctrl.ContextVisible() {
		px, err := c.context.Read()
		if err != nil {
			c.logger.Warn("parcoords: context readback failed", "err", err)
			return nil, wrapErr(err)
		}
		if err := stack.Set(zContext, px); err != nil {
			return nil, err
		}
	}
	px, err := c.focus.Read()
	if err != nil {
		c.logger.Warn("parcoords: focus readback failed", "err", err)
		return nil, wrapErr(err)
	}
	if err := stack.Set(zFocus, px); err != nil {
		return nil, err
	}
	img := stack.Composite()
	w := int(math.Round(c.cfg.Width))
	h := int(math.Round(c.cfg.Height))
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		img = render.Resample(img, w, h)
	}
	return img, nil
}

// Destroy cancels pending work and releases every GPU resource of the
// chart. Further calls return ErrDestroyed. Destroy is idempotent.
func (c *Chart) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.destroyLayers()
	c.pending = nil
	c.metrics.chartDestroyed()
	c.logger.Info("parcoords: chart destroyed")
}

// lockedHost runs host frame callbacks under the chart lock. The host
// must not run a callback from inside RequestFrame.
type lockedHost struct {
	host FrameHost
	c    *Chart
}

func (h *lockedHost) RequestFrame(fn func()) FrameHandle {
	return h.host.RequestFrame(func() {
		h.c.mu.Lock()
		defer h.c.mu.Unlock()
		if !h.c.destroyed {
			fn()
		}
	})
}

func (h *lockedHost) CancelFrame(handle FrameHandle) {
	h.host.CancelFrame(handle)
}

package interact

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/gogpu/parcoords/internal/filter"
	"github.com/gogpu/parcoords/internal/lines"
)

// DefaultOrdinalSnapMargin widens a brush that snapped onto a single
// ordinal tick by this much on each side.
const DefaultOrdinalSnapMargin = 0.05

var (
	// ErrUnknownVariable is returned for a variable index out of range.
	ErrUnknownVariable = errors.New("interact: unknown variable")

	// ErrInvalidOrder is returned for an axis order that is not a
	// permutation of the variables.
	ErrInvalidOrder = errors.New("interact: invalid axis order")
)

// Layer is the part of a line renderer the controller drives.
type Layer interface {
	Render(views []lines.AxisView, filtersChanged, clearOnly bool) error
}

// Scale is the part of a column scale the controller needs.
type Scale interface {
	Ordinal() bool
	Ticks() []float64
	Domain(u float64) float64
}

// Callbacks are invoked on gesture completion. Nil entries are skipped.
type Callbacks struct {
	// OnAxisOrder receives the original variable indices in screen order
	// after a reorder.
	OnAxisOrder func(order []int)

	// OnBrush receives the final brush of a variable in domain units.
	OnBrush func(variable int, lo, hi float64)
}

// Config configures a Controller.
type Config struct {
	Geometry   Geometry
	PixelRatio float64

	// OrdinalSnapMargin overrides DefaultOrdinalSnapMargin when positive.
	OrdinalSnapMargin float64

	Callbacks Callbacks
	Logger    *slog.Logger
}

type mode uint8

const (
	modeIdle mode = iota
	modeDrag
	modeBrush
)

// Controller owns the axis order and the filter state of one chart. It is
// the only writer of both, and it tells the focus and context layers what
// to redraw after each gesture step.
//
// Controller is not safe for concurrent use.
type Controller struct {
	geom       Geometry
	pixelRatio float64
	margin     float64
	callbacks  Callbacks
	logger     *slog.Logger

	scales  []Scale
	filters *filter.State
	focus   Layer
	context Layer

	order       []int
	contextOn   bool
	hover       bool
	mode        mode
	variable    int
	dragOffset  float64
	dragX       float64
	brushAnchor float64
}

// NewController creates a controller for len(scales) variables laid out in
// order. A nil order means original order. The context layer starts hidden
// unless some filter in state is already active.
func NewController(scales []Scale, state *filter.State, focus, context Layer, order []int, cfg Config) (*Controller, error) {
	if state.Len() != len(scales) {
		return nil, fmt.Errorf("interact: %d scales for %d filters", len(scales), state.Len())
	}
	if order == nil {
		order = make([]int, len(scales))
		for i := range order {
			order[i] = i
		}
	} else if err := validOrder(order, len(scales)); err != nil {
		return nil, err
	}
	if cfg.PixelRatio <= 0 {
		cfg.PixelRatio = 1
	}
	if cfg.OrdinalSnapMargin <= 0 {
		cfg.OrdinalSnapMargin = DefaultOrdinalSnapMargin
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		geom:       cfg.Geometry,
		pixelRatio: cfg.PixelRatio,
		margin:     cfg.OrdinalSnapMargin,
		callbacks:  cfg.Callbacks,
		logger:     cfg.Logger,
		scales:     scales,
		filters:    state,
		focus:      focus,
		context:    context,
		order:      slices.Clone(order),
		contextOn:  state.AnyActive(),
		hover:      true,
		variable:   -1,
	}, nil
}

func validOrder(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("%w: %d entries, want %d", ErrInvalidOrder, len(order), n)
	}
	seen := make([]bool, n)
	for _, v := range order {
		if v < 0 || v >= n || seen[v] {
			return fmt.Errorf("%w: entry %d", ErrInvalidOrder, v)
		}
		seen[v] = true
	}
	return nil
}

// Frame lays out the axes as they currently stand, including an axis that
// is mid-drag.
func (c *Controller) Frame() Frame {
	if c.mode == modeDrag {
		return Layout(c.geom, c.order, &DragPosition{Variable: c.variable, X: c.dragX})
	}
	return Layout(c.geom, c.order, nil)
}

// Order returns the original variable indices in screen order.
func (c *Controller) Order() []int {
	return slices.Clone(c.order)
}

// Geometry returns the current chart geometry.
func (c *Controller) Geometry() Geometry {
	return c.geom
}

// PixelRatio returns the layout-to-target pixel ratio.
func (c *Controller) PixelRatio() float64 {
	return c.pixelRatio
}

// ContextVisible reports whether the context layer is showing.
func (c *Controller) ContextVisible() bool {
	return c.contextOn
}

// HoverEnabled reports whether line hover handling should run. It is
// suspended for the duration of an axis drag.
func (c *Controller) HoverEnabled() bool {
	return c.hover
}

// Dragging reports whether an axis drag is in progress.
func (c *Controller) Dragging() bool { return c.mode == modeDrag }

// Brushing reports whether a brush gesture is in progress.
func (c *Controller) Brushing() bool { return c.mode == modeBrush }

// Redraw renders both layers for the current layout. filtersChanged forces
// every focus panel to redraw.
func (c *Controller) Redraw(filtersChanged bool) error {
	return c.renderAll(c.Frame(), filtersChanged)
}

// SetGeometry relayouts the chart, e.g. after a resize. The caller resizes
// the renderers first.
func (c *Controller) SetGeometry(g Geometry, pixelRatio float64) error {
	c.geom = g
	if pixelRatio > 0 {
		c.pixelRatio = pixelRatio
	}
	return c.Redraw(false)
}

// SetOrder replaces the axis order.
func (c *Controller) SetOrder(order []int) error {
	if err := validOrder(order, len(c.scales)); err != nil {
		return err
	}
	c.order = slices.Clone(order)
	return c.Redraw(false)
}

// PointerDown starts a drag on a handle or a brush on an axis. It reports
// whether a gesture started. Pointer-downs during a gesture are ignored.
func (c *Controller) PointerDown(x, y float64) bool {
	if c.mode != modeIdle {
		return false
	}
	frame := c.Frame()
	v, kind := frame.Hit(x, y)
	switch kind {
	case HitHandle:
		c.mode = modeDrag
		c.variable = v
		c.dragOffset = x - axisX(frame, v)
		c.dragX = axisX(frame, v)
		c.hover = false
		c.logger.Debug("interact: drag start", "variable", v)
		return true
	case HitBrush:
		c.mode = modeBrush
		c.variable = v
		c.brushAnchor = c.geom.UnitAt(y)
		c.logger.Debug("interact: brush start", "variable", v, "anchor", c.brushAnchor)
		return true
	}
	return false
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(x, y float64) error {
	switch c.mode {
	case modeDrag:
		return c.dragTo(x)
	case modeBrush:
		return c.brushTo(y)
	}
	return nil
}

// PointerUp completes the active gesture and fires its callback.
func (c *Controller) PointerUp(x, y float64) error {
	switch c.mode {
	case modeDrag:
		if err := c.dragTo(x); err != nil {
			c.endGesture()
			return err
		}
		c.endGesture()
		err := c.Redraw(false)
		if cb := c.callbacks.OnAxisOrder; cb != nil {
			cb(c.Order())
		}
		return err
	case modeBrush:
		v := c.variable
		err := c.brushTo(y)
		c.endGesture()
		if err != nil {
			return err
		}
		return c.finishBrush(v, true)
	}
	return nil
}

// Cancel abandons the active gesture, snapping a dragged axis back into a
// slot. Filter changes already applied are kept.
func (c *Controller) Cancel() error {
	if c.mode == modeIdle {
		return nil
	}
	wasDrag := c.mode == modeDrag
	c.endGesture()
	if wasDrag {
		return c.Redraw(false)
	}
	return nil
}

func (c *Controller) endGesture() {
	c.mode = modeIdle
	c.variable = -1
	c.hover = true
}

func axisX(f Frame, v int) float64 {
	for _, a := range f.Axes {
		if a.Variable == v {
			return a.X
		}
	}
	return 0
}

func (c *Controller) dragTo(x float64) error {
	c.dragX = c.geom.ClampX(x - c.dragOffset)
	frame := Layout(c.geom, c.order, &DragPosition{Variable: c.variable, X: c.dragX})
	c.order = frame.Order()
	return c.renderAll(frame, false)
}

func (c *Controller) brushTo(y float64) error {
	u := c.geom.UnitAt(y)
	r := filter.Range{Lo: math.Min(c.brushAnchor, u), Hi: math.Max(c.brushAnchor, u)}
	if r.Lo == r.Hi {
		r = filter.Full()
	}
	return c.applyRange(c.variable, r)
}

// SetRange sets the unit range of a variable as if it had been brushed,
// including ordinal snapping. notify controls whether OnBrush fires.
func (c *Controller) SetRange(variable int, r filter.Range, notify bool) error {
	if variable < 0 || variable >= len(c.scales) {
		return fmt.Errorf("%w: %d", ErrUnknownVariable, variable)
	}
	if err := c.applyRange(variable, r); err != nil {
		return err
	}
	return c.finishBrush(variable, notify)
}

func (c *Controller) finishBrush(v int, notify bool) error {
	r := c.filters.Range(v)
	if s := c.scales[v]; s.Ordinal() && r.Active() {
		r = SnapOrdinal(r, s.Ticks(), c.margin)
		if err := c.applyRange(v, r); err != nil {
			return err
		}
		r = c.filters.Range(v)
	}
	c.logger.Debug("interact: brush end", "variable", v, "lo", r.Lo, "hi", r.Hi)
	if cb := c.callbacks.OnBrush; notify && cb != nil {
		s := c.scales[v]
		cb(v, s.Domain(r.Lo), s.Domain(r.Hi))
	}
	return nil
}

// applyRange stores r and redraws what changed. The context layer turns
// on when the first filter becomes active and is cleared when the last one
// is removed.
func (c *Controller) applyRange(v int, r filter.Range) error {
	if !c.filters.Set(v, r) {
		return nil
	}
	frame := c.Frame()
	views := frame.Views(c.pixelRatio)
	if err := c.focus.Render(views, true, false); err != nil {
		return err
	}
	active := c.filters.AnyActive()
	switch {
	case active && !c.contextOn:
		c.contextOn = true
		c.logger.Debug("interact: context layer on")
		return c.context.Render(views, false, false)
	case !active && c.contextOn:
		c.contextOn = false
		c.logger.Debug("interact: context layer off")
		return c.context.Render(views, false, true)
	}
	return nil
}

func (c *Controller) renderAll(frame Frame, filtersChanged bool) error {
	views := frame.Views(c.pixelRatio)
	if err := c.focus.Render(views, filtersChanged, false); err != nil {
		return err
	}
	if !c.contextOn {
		return nil
	}
	return c.context.Render(views, false, false)
}

// SnapOrdinal moves both bounds of r to the nearest tick. A range that
// collapses onto one tick is widened by margin on each side and clamped
// to the unit interval.
func SnapOrdinal(r filter.Range, ticks []float64, margin float64) filter.Range {
	if len(ticks) == 0 {
		return r
	}
	lo, hi := nearestTick(ticks, r.Lo), nearestTick(ticks, r.Hi)
	if lo == hi {
		lo, hi = lo-margin, hi+margin
	}
	return filter.Range{Lo: math.Max(0, lo), Hi: math.Min(1, hi)}
}

func nearestTick(ticks []float64, u float64) float64 {
	best := ticks[0]
	for _, t := range ticks[1:] {
		if math.Abs(t-u) < math.Abs(best-u) {
			best = t
		}
	}
	return best
}

// BrushRect returns the on-screen rectangle of a variable's brush in
// layout pixels, or ok=false when the variable is unfiltered.
func (c *Controller) BrushRect(variable int) (x0, y0, x1, y1 float64, ok bool) {
	if variable < 0 || variable >= len(c.scales) {
		return 0, 0, 0, 0, false
	}
	r := c.filters.Range(variable)
	if !r.Active() {
		return 0, 0, 0, 0, false
	}
	x := axisX(c.Frame(), variable)
	w := c.geom.BrushVisibleWidth / 2
	return x - w, c.geom.YAt(r.Hi), x + w, c.geom.YAt(r.Lo), true
}

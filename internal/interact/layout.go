// Package interact turns generic pointer events into axis reorders and
// range brushes, and drives the line layers accordingly.
package interact

import (
	"math"
	"sort"

	"github.com/gogpu/parcoords/internal/lines"
)

// Geometry is the chart box in layout pixels together with the gesture
// tolerances that depend on it.
type Geometry struct {
	Width, Height float64

	// HorizontalPadding keeps the outer axes away from the canvas edge.
	HorizontalPadding float64

	// VerticalPadding is the empty band above the handles and below the
	// plot.
	VerticalPadding float64

	// HandleHeight is the height of the drag handle band above the plot;
	// HandleOverlap extends it down into the plot.
	HandleHeight  float64
	HandleOverlap float64

	// BrushCaptureWidth is the horizontal hit width around an axis.
	BrushCaptureWidth float64

	// BrushVisibleWidth is the drawn width of a brush rectangle.
	BrushVisibleWidth float64

	// Overdrag is how far past the canvas edge an axis may be dragged.
	Overdrag float64
}

// PlotTop returns the y of unit value 1.
func (g Geometry) PlotTop() float64 {
	return g.VerticalPadding + g.HandleHeight
}

// PlotHeight returns the height of the unit interval in pixels.
func (g Geometry) PlotHeight() float64 {
	return math.Max(1, g.Height-g.PlotTop()-g.VerticalPadding)
}

// SlotX returns the canonical x of screen slot i among n axes.
func (g Geometry) SlotX(i, n int) float64 {
	if n <= 1 {
		return g.Width / 2
	}
	inner := g.Width - 2*g.HorizontalPadding
	return g.HorizontalPadding + inner*float64(i)/float64(n-1)
}

// UnitAt converts a y position into a clamped unit value.
func (g Geometry) UnitAt(y float64) float64 {
	u := 1 - (y-g.PlotTop())/g.PlotHeight()
	return math.Max(0, math.Min(1, u))
}

// YAt converts a unit value into a y position.
func (g Geometry) YAt(u float64) float64 {
	return g.PlotTop() + (1-u)*g.PlotHeight()
}

// ClampX limits a dragged axis to [-Overdrag, Width+Overdrag].
func (g Geometry) ClampX(x float64) float64 {
	return math.Max(-g.Overdrag, math.Min(g.Width+g.Overdrag, x))
}

// Axis is one laid-out axis.
type Axis struct {
	Variable int
	X        float64
}

// DragPosition pins one variable at an explicit x.
type DragPosition struct {
	Variable int
	X        float64
}

// Frame is the immutable result of a layout pass: axes in screen order.
type Frame struct {
	Geometry Geometry
	Axes     []Axis
}

// Layout places the variables of order, given in screen order, at their
// canonical slots. A dragged variable sits at its drag x instead, and the
// result is re-sorted by x so that the frame order reflects the drag.
func Layout(g Geometry, order []int, drag *DragPosition) Frame {
	axes := make([]Axis, len(order))
	for i, v := range order {
		axes[i] = Axis{Variable: v, X: g.SlotX(i, len(order))}
		if drag != nil && drag.Variable == v {
			axes[i].X = g.ClampX(drag.X)
		}
	}
	sort.SliceStable(axes, func(i, j int) bool { return axes[i].X < axes[j].X })
	return Frame{Geometry: g, Axes: axes}
}

// Order returns the original variable indices in screen order.
func (f Frame) Order() []int {
	out := make([]int, len(f.Axes))
	for i, a := range f.Axes {
		out[i] = a.Variable
	}
	return out
}

// Views converts the frame to renderer views in target pixels.
func (f Frame) Views(pixelRatio float64) []lines.AxisView {
	out := make([]lines.AxisView, len(f.Axes))
	for i, a := range f.Axes {
		out[i] = lines.AxisView{Variable: a.Variable, X: a.X * pixelRatio}
	}
	return out
}

// Viewport returns the renderer viewport in target pixels.
func (f Frame) Viewport(pixelRatio float64) lines.Viewport {
	g := f.Geometry
	return lines.Viewport{
		Width:      uint32(math.Max(1, math.Round(g.Width*pixelRatio))),
		Height:     uint32(math.Max(1, math.Round(g.Height*pixelRatio))),
		PlotTop:    float32(g.PlotTop() * pixelRatio),
		PlotHeight: float32(g.PlotHeight() * pixelRatio),
	}
}

// HitKind is what a pointer-down landed on.
type HitKind uint8

// Hit kinds.
const (
	HitNone HitKind = iota
	HitHandle
	HitBrush
)

// Hit finds the axis under (x, y). Handles take precedence over brushes
// where HandleOverlap makes them overlap.
func (f Frame) Hit(x, y float64) (variable int, kind HitKind) {
	g := f.Geometry
	best, bestDist := -1, math.Inf(1)
	for _, a := range f.Axes {
		d := math.Abs(x - a.X)
		if d <= g.BrushCaptureWidth/2 && d < bestDist {
			best, bestDist = a.Variable, d
		}
	}
	if best < 0 {
		return -1, HitNone
	}
	top := g.PlotTop()
	switch {
	case y >= top-g.HandleHeight && y < top+g.HandleOverlap:
		return best, HitHandle
	case y >= top && y <= top+g.PlotHeight():
		return best, HitBrush
	default:
		return -1, HitNone
	}
}

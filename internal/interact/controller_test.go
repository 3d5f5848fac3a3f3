package interact

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/parcoords/internal/column"
	"github.com/gogpu/parcoords/internal/filter"
	"github.com/gogpu/parcoords/internal/lines"
)

type renderCall struct {
	views          []lines.AxisView
	filtersChanged bool
	clearOnly      bool
}

type fakeLayer struct {
	calls []renderCall
}

func (f *fakeLayer) Render(views []lines.AxisView, filtersChanged, clearOnly bool) error {
	f.calls = append(f.calls, renderCall{views, filtersChanged, clearOnly})
	return nil
}

func (f *fakeLayer) last() renderCall {
	return f.calls[len(f.calls)-1]
}

// testGeometry puts four axes at x = 100, 200, 300, 400 with the plot
// spanning y in [40, 140].
func testGeometry() Geometry {
	return Geometry{
		Width:             500,
		Height:            160,
		HorizontalPadding: 100,
		VerticalPadding:   20,
		HandleHeight:      20,
		HandleOverlap:     4,
		BrushCaptureWidth: 20,
		BrushVisibleWidth: 8,
		Overdrag:          45,
	}
}

type fixture struct {
	ctrl    *Controller
	state   *filter.State
	focus   *fakeLayer
	context *fakeLayer
	orders  [][]int
	brushes [][3]float64
}

func newFixture(t *testing.T, scales []Scale) *fixture {
	t.Helper()
	if scales == nil {
		for range 4 {
			scales = append(scales, column.NewLinear(0, 10))
		}
	}
	f := &fixture{
		state:   filter.NewState(len(scales), nil),
		focus:   &fakeLayer{},
		context: &fakeLayer{},
	}
	ctrl, err := NewController(scales, f.state, f.focus, f.context, nil, Config{
		Geometry: testGeometry(),
		Callbacks: Callbacks{
			OnAxisOrder: func(order []int) { f.orders = append(f.orders, order) },
			OnBrush: func(v int, lo, hi float64) {
				f.brushes = append(f.brushes, [3]float64{float64(v), lo, hi})
			},
		},
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	f.ctrl = ctrl
	return f
}

func TestLayoutSlots(t *testing.T) {
	frame := Layout(testGeometry(), []int{3, 1, 0, 2}, nil)
	want := []Axis{{3, 100}, {1, 200}, {0, 300}, {2, 400}}
	if diff := cmp.Diff(want, frame.Axes); diff != "" {
		t.Errorf("Layout mismatch (-want +got):\n%s", diff)
	}

	single := Layout(testGeometry(), []int{0}, nil)
	if single.Axes[0].X != 250 {
		t.Errorf("single axis X = %v, want 250", single.Axes[0].X)
	}
}

func TestLayoutDragClampsAndSorts(t *testing.T) {
	g := testGeometry()
	frame := Layout(g, []int{0, 1, 2, 3}, &DragPosition{Variable: 2, X: -1000})
	if diff := cmp.Diff([]int{2, 0, 1, 3}, frame.Order()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if frame.Axes[0].X != -g.Overdrag {
		t.Errorf("dragged X = %v, want %v", frame.Axes[0].X, -g.Overdrag)
	}
}

func TestFrameViewsAndViewport(t *testing.T) {
	frame := Layout(testGeometry(), []int{0, 1}, nil)
	views := frame.Views(2)
	want := []lines.AxisView{{Variable: 0, X: 200}, {Variable: 1, X: 800}}
	if diff := cmp.Diff(want, views); diff != "" {
		t.Errorf("Views mismatch (-want +got):\n%s", diff)
	}
	vp := frame.Viewport(2)
	if vp.Width != 1000 || vp.Height != 320 || vp.PlotTop != 80 || vp.PlotHeight != 200 {
		t.Errorf("Viewport = %+v", vp)
	}
}

func TestHit(t *testing.T) {
	frame := Layout(testGeometry(), []int{0, 1, 2, 3}, nil)
	tests := []struct {
		name     string
		x, y     float64
		variable int
		kind     HitKind
	}{
		{"handle", 205, 30, 1, HitHandle},
		{"handle overlap", 300, 42, 2, HitHandle},
		{"brush", 395, 100, 3, HitBrush},
		{"between axes", 150, 100, -1, HitNone},
		{"above handle", 100, 5, -1, HitNone},
		{"below plot", 100, 150, -1, HitNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, kind := frame.Hit(tt.x, tt.y)
			if v != tt.variable || kind != tt.kind {
				t.Errorf("Hit(%v, %v) = (%d, %d), want (%d, %d)", tt.x, tt.y, v, kind, tt.variable, tt.kind)
			}
		})
	}
}

func TestReorderDragLeft(t *testing.T) {
	f := newFixture(t, nil)

	if !f.ctrl.PointerDown(300, 30) {
		t.Fatal("expected drag to start on handle of variable 2")
	}
	if f.ctrl.HoverEnabled() {
		t.Error("hover should be suspended during drag")
	}
	if err := f.ctrl.PointerMove(-200, 30); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	if diff := cmp.Diff([]int{2, 0, 1, 3}, f.ctrl.Order()); diff != "" {
		t.Errorf("order mid-drag mismatch (-want +got):\n%s", diff)
	}
	mid := f.focus.last()
	if mid.filtersChanged || mid.clearOnly {
		t.Errorf("drag render = %+v, want plain redraw", mid)
	}
	if got := mid.views[0]; got.Variable != 2 || got.X != -45 {
		t.Errorf("dragged view = %+v, want variable 2 at -45", got)
	}

	if err := f.ctrl.PointerUp(-200, 30); err != nil {
		t.Fatalf("PointerUp failed: %v", err)
	}
	if !f.ctrl.HoverEnabled() {
		t.Error("hover should resume after drag")
	}
	if diff := cmp.Diff([][]int{{2, 0, 1, 3}}, f.orders); diff != "" {
		t.Errorf("OnAxisOrder mismatch (-want +got):\n%s", diff)
	}
	final := f.focus.last().views
	want := []lines.AxisView{{Variable: 2, X: 100}, {Variable: 0, X: 200}, {Variable: 1, X: 300}, {Variable: 3, X: 400}}
	if diff := cmp.Diff(want, final); diff != "" {
		t.Errorf("snapped views mismatch (-want +got):\n%s", diff)
	}
}

func TestDragKeepsGrabOffset(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.PointerDown(205, 30)
	if err := f.ctrl.PointerMove(215, 30); err != nil {
		t.Fatal(err)
	}
	views := f.focus.last().views
	if views[1].Variable != 1 || views[1].X != 210 {
		t.Errorf("view = %+v, want variable 1 at 210", views[1])
	}
}

func TestDragAndBrushAreExclusive(t *testing.T) {
	f := newFixture(t, nil)
	if !f.ctrl.PointerDown(100, 30) {
		t.Fatal("expected drag start")
	}
	if f.ctrl.PointerDown(200, 100) {
		t.Error("second pointer-down must not start a brush during drag")
	}
	if f.ctrl.Brushing() || !f.ctrl.Dragging() {
		t.Error("expected drag mode only")
	}
}

func TestBrushUpdatesFocusAndContext(t *testing.T) {
	f := newFixture(t, nil)

	// Plot spans y 40..140, so y=60 is u=0.8 and y=90 is u=0.5.
	if !f.ctrl.PointerDown(100, 60) {
		t.Fatal("expected brush start")
	}
	if err := f.ctrl.PointerMove(100, 90); err != nil {
		t.Fatal(err)
	}
	r := f.state.Range(0)
	if math.Abs(r.Lo-0.5) > 1e-9 || math.Abs(r.Hi-0.8) > 1e-9 {
		t.Errorf("range = %+v, want [0.5, 0.8]", r)
	}
	if !f.focus.last().filtersChanged {
		t.Error("focus must redraw with filtersChanged")
	}
	if !f.ctrl.ContextVisible() || len(f.context.calls) != 1 || f.context.last().clearOnly {
		t.Errorf("context should turn on once, calls = %+v", f.context.calls)
	}

	// Moving again keeps context on without another toggle.
	if err := f.ctrl.PointerMove(100, 100); err != nil {
		t.Fatal(err)
	}
	if len(f.context.calls) != 1 {
		t.Errorf("context calls = %d, want 1", len(f.context.calls))
	}

	if err := f.ctrl.PointerUp(100, 100); err != nil {
		t.Fatal(err)
	}
	if len(f.brushes) != 1 {
		t.Fatalf("OnBrush calls = %d, want 1", len(f.brushes))
	}
	b := f.brushes[0]
	if b[0] != 0 || math.Abs(b[1]-4) > 1e-9 || math.Abs(b[2]-8) > 1e-9 {
		t.Errorf("OnBrush = %v, want variable 0 [4, 8]", b)
	}
}

func TestDegenerateBrushResets(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.PointerDown(100, 60)
	_ = f.ctrl.PointerMove(100, 90)
	_ = f.ctrl.PointerUp(100, 90)
	if !f.ctrl.ContextVisible() {
		t.Fatal("expected context on")
	}

	// A click without movement is a zero-width brush.
	f.ctrl.PointerDown(100, 70)
	if err := f.ctrl.PointerUp(100, 70); err != nil {
		t.Fatal(err)
	}
	if r := f.state.Range(0); r != filter.Full() {
		t.Errorf("range = %+v, want full", r)
	}
	if f.ctrl.ContextVisible() {
		t.Error("context should be off after last filter cleared")
	}
	if last := f.context.last(); !last.clearOnly {
		t.Errorf("context last call = %+v, want clearOnly", last)
	}
	if got := f.brushes[len(f.brushes)-1]; got[1] != 0 || got[2] != 10 {
		t.Errorf("OnBrush reset = %v, want [0, 10]", got)
	}
}

func TestOrdinalBrushSnaps(t *testing.T) {
	ord := column.NewOrdinal([]float64{1, 2, 3, 4, 5}, 0)
	scales := []Scale{ord, column.NewLinear(0, 1)}
	f := newFixture(t, scales)

	if err := f.ctrl.SetRange(0, filter.Range{Lo: 0.23, Hi: 0.31}, true); err != nil {
		t.Fatal(err)
	}
	r := f.state.Range(0)
	if math.Abs(r.Lo-0.20) > 1e-9 || math.Abs(r.Hi-0.30) > 1e-9 {
		t.Errorf("snapped range = %+v, want [0.20, 0.30]", r)
	}

	if err := f.ctrl.SetRange(0, filter.Range{Lo: 0.1, Hi: 0.6}, false); err != nil {
		t.Fatal(err)
	}
	r = f.state.Range(0)
	if r.Lo != 0 || r.Hi != 0.5 {
		t.Errorf("snapped range = %+v, want [0, 0.5]", r)
	}
	if len(f.brushes) != 1 {
		t.Errorf("OnBrush calls = %d, want 1", len(f.brushes))
	}
}

func TestSnapOrdinal(t *testing.T) {
	ticks := []float64{0, 0.25, 0.5, 0.75, 1}
	tests := []struct {
		name string
		in   filter.Range
		want filter.Range
	}{
		{"collapse widens", filter.Range{Lo: 0.23, Hi: 0.31}, filter.Range{Lo: 0.2, Hi: 0.3}},
		{"spans ticks", filter.Range{Lo: 0.4, Hi: 0.8}, filter.Range{Lo: 0.5, Hi: 0.75}},
		{"clamped low", filter.Range{Lo: 0.01, Hi: 0.02}, filter.Range{Lo: 0, Hi: 0.05}},
		{"clamped high", filter.Range{Lo: 0.97, Hi: 0.99}, filter.Range{Lo: 0.95, Hi: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SnapOrdinal(tt.in, ticks, DefaultOrdinalSnapMargin)
			if math.Abs(got.Lo-tt.want.Lo) > 1e-9 || math.Abs(got.Hi-tt.want.Hi) > 1e-9 {
				t.Errorf("SnapOrdinal(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilterInvariantDuringBrush(t *testing.T) {
	f := newFixture(t, nil)
	f.ctrl.PointerDown(200, 50)
	for y := 0.0; y <= 200; y += 7 {
		if err := f.ctrl.PointerMove(200, y); err != nil {
			t.Fatal(err)
		}
		for i := range f.state.Len() {
			r := f.state.Range(i)
			if r.Lo < 0 || r.Hi > 1 || r.Lo >= r.Hi {
				t.Fatalf("y=%v: variable %d range %+v violates 0 <= lo < hi <= 1", y, i, r)
			}
		}
	}
}

func TestBrushRect(t *testing.T) {
	f := newFixture(t, nil)
	if _, _, _, _, ok := f.ctrl.BrushRect(1); ok {
		t.Error("unfiltered variable has no brush rect")
	}
	_ = f.ctrl.SetRange(1, filter.Range{Lo: 0.5, Hi: 0.8}, false)
	x0, y0, x1, y1, ok := f.ctrl.BrushRect(1)
	if !ok || x0 != 196 || x1 != 204 || math.Abs(y0-60) > 1e-9 || math.Abs(y1-90) > 1e-9 {
		t.Errorf("BrushRect = (%v, %v, %v, %v, %v)", x0, y0, x1, y1, ok)
	}
}

func TestNewControllerValidatesOrder(t *testing.T) {
	scales := []Scale{column.NewLinear(0, 1), column.NewLinear(0, 1)}
	state := filter.NewState(2, nil)
	if _, err := NewController(scales, state, &fakeLayer{}, &fakeLayer{}, []int{0, 0}, Config{}); err == nil {
		t.Error("expected error for duplicate order entry")
	}
	if _, err := NewController(scales, filter.NewState(3, nil), &fakeLayer{}, &fakeLayer{}, nil, Config{}); err == nil {
		t.Error("expected error for mismatched state")
	}
}

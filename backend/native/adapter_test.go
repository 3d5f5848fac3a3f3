//go:build !nogpu

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/parcoords/gpucore"
	"github.com/gogpu/parcoords/internal/encode"
	"github.com/gogpu/parcoords/internal/filter"
	"github.com/gogpu/parcoords/internal/lines"
	"github.com/gogpu/parcoords/internal/schedule"
)

func newNoopAdapter(t *testing.T) *HALAdapter {
	t.Helper()
	a, err := OpenNoop(Options{})
	if err != nil {
		t.Fatalf("OpenNoop failed: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestHALAdapterBuffers(t *testing.T) {
	a := newNoopAdapter(t)

	id, err := a.CreateBuffer("test", 256, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if id == gpucore.InvalidID {
		t.Fatal("expected valid buffer id")
	}
	a.WriteBuffer(id, 0, make([]byte, 256))
	a.DestroyBuffer(id)
	if len(a.buffers) != 0 {
		t.Errorf("buffers = %d after destroy, want 0", len(a.buffers))
	}
	// Unknown IDs are ignored.
	a.WriteBuffer(id, 0, []byte{1})
	a.DestroyBuffer(id)
}

func TestHALAdapterTargetReadback(t *testing.T) {
	a := newNoopAdapter(t)

	tests := []struct {
		name          string
		width, height uint32
	}{
		{"aligned rows", 64, 8},
		{"padded rows", 33, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := a.CreateTarget(tt.name, tt.width, tt.height)
			if err != nil {
				t.Fatalf("CreateTarget failed: %v", err)
			}
			defer a.DestroyTarget(id)

			px, err := a.ReadTarget(id)
			if err != nil {
				t.Fatalf("ReadTarget failed: %v", err)
			}
			if got, want := len(px), int(tt.width*tt.height*4); got != want {
				t.Errorf("len(pixels) = %d, want %d", got, want)
			}
		})
	}

	if _, err := a.CreateTarget("empty", 0, 10); err == nil {
		t.Error("expected error for empty target")
	}
	if _, err := a.ReadTarget(999); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("ReadTarget(unknown) = %v, want ErrUnknownResource", err)
	}
}

func TestHALAdapterPipelineKinds(t *testing.T) {
	a := newNoopAdapter(t)

	_, err := a.CreatePipeline(&gpucore.PipelineDesc{Label: "bad", Kind: gpucore.PipelineLines})
	if err == nil {
		t.Error("expected error for empty shader source")
	}
	if len(a.pipelines) != 0 {
		t.Errorf("pipelines = %d after failure, want 0", len(a.pipelines))
	}
}

func TestUnpackRows(t *testing.T) {
	// Two BGRA pixels per row, pitch 12 bytes.
	src := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0,
		9, 10, 11, 12, 13, 14, 15, 16, 0, 0, 0, 0,
	}
	got := unpackRows(src, 2, 2, 12)
	want := []byte{3, 2, 1, 4, 7, 6, 5, 8, 11, 10, 9, 12, 15, 14, 13, 16}
	if string(got) != string(want) {
		t.Errorf("unpackRows = %v, want %v", got, want)
	}
}

func TestConvertBufferUsage(t *testing.T) {
	u := convertBufferUsage(gpucore.BufferUsageVertex | gpucore.BufferUsageCopyDst)
	if u == 0 {
		t.Fatal("expected non-zero usage")
	}
	if convertBufferUsage(0) != 0 {
		t.Error("expected zero usage")
	}
}

// TestLinesRendererOnNoopDevice drives the full renderer through the HAL
// adapter: pipeline creation from the embedded WGSL, uploads, passes with
// scissor clears, and readback.
func TestLinesRendererOnNoopDevice(t *testing.T) {
	a := newNoopAdapter(t)

	cols := [][]float32{
		{0, 0.5, 1, 0.25},
		{1, 0.5, 0, 0.75},
		{0.2, 0.4, 0.6, 0.8},
	}
	g, err := encode.Encode(encode.Input{Columns: cols, ColorKey: cols[2]})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	host := &schedule.ManualHost{}
	sched := schedule.New(host, schedule.Config{})
	state := filter.NewState(len(cols), nil)

	r, err := lines.New(a, g, lines.Config{
		Layer:      lines.LayerFocus,
		Viewport:   lines.Viewport{Width: 120, Height: 80, PlotTop: 4, PlotHeight: 72},
		BlockLines: 2,
		Filters:    state,
		Scheduler:  sched,
	})
	if err != nil {
		t.Fatalf("lines.New failed: %v", err)
	}
	defer r.Destroy()

	views := []lines.AxisView{{Variable: 0, X: 10}, {Variable: 1, X: 60}, {Variable: 2, X: 110}}
	if err := r.Render(views, false, false); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	host.Drain()
	if err := r.Err(); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if r.State() != lines.StateReady {
		t.Errorf("State = %v, want ready", r.State())
	}

	px, err := r.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(px) != 120*80*4 {
		t.Errorf("len(pixels) = %d, want %d", len(px), 120*80*4)
	}
}

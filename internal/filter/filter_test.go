package filter

import (
	"math"
	"testing"
)

func TestRangeNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Range
		want Range
	}{
		{"already valid", Range{0.2, 0.6}, Range{0.2, 0.6}},
		{"swapped", Range{0.7, 0.1}, Range{0.1, 0.7}},
		{"clamped", Range{-0.5, 1.5}, Range{0, 1}},
		{"collapsed means full", Range{0.4, 0.4}, Full()},
		{"collapsed after clamp", Range{1.2, 3}, Full()},
		{"nan", Range{math.NaN(), 0.5}, Full()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got != tt.want {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Lo < 0 || got.Lo > got.Hi || got.Hi > 1 {
				t.Errorf("Normalize(%v) = %v violates 0 <= lo <= hi <= 1", tt.in, got)
			}
		})
	}
}

func TestRangeContainsEpsilon(t *testing.T) {
	r := Range{0.25, 0.5}
	if !r.Contains(0.25 - Epsilon/2) {
		t.Error("value just below lo should pass within epsilon")
	}
	if !r.Contains(0.5 + Epsilon/2) {
		t.Error("value just above hi should pass within epsilon")
	}
	if r.Contains(0.5 + 2*Epsilon) {
		t.Error("value beyond hi+epsilon should fail")
	}
}

func TestStateSetAndActive(t *testing.T) {
	s := NewState(3, []Range{{0.1, 0.2}})
	if got := s.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", got)
	}
	if s.Set(0, Range{0.1, 0.2}) {
		t.Error("Set with identical range reported a change")
	}
	if !s.Set(2, Range{0.3, 0.9}) {
		t.Error("Set with new range reported no change")
	}
	if got := s.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2", got)
	}
	s.Reset(0)
	s.Set(2, Range{0.5, 0.5})
	if s.AnyActive() {
		t.Error("AnyActive() = true after clearing every filter")
	}
}

func TestSlotLayout(t *testing.T) {
	tests := []struct {
		slot    int
		g, v, c int
	}{
		{0, 0, 0, 0},
		{3, 0, 0, 3},
		{4, 0, 1, 0},
		{15, 0, 3, 3},
		{16, 1, 0, 0},
		{63, 3, 3, 3},
	}
	for _, tt := range tests {
		g, v, c := Slot(tt.slot)
		if g != tt.g || v != tt.v || c != tt.c {
			t.Errorf("Slot(%d) = (%d,%d,%d), want (%d,%d,%d)", tt.slot, g, v, c, tt.g, tt.v, tt.c)
		}
	}
	if MaxGroups != 4 {
		t.Errorf("MaxGroups = %d, want 4", MaxGroups)
	}
}

func TestPackUsesSentinelForUnusedSlots(t *testing.T) {
	s := NewState(2, []Range{{0.2, 0.4}})
	m := s.Pack()

	lo, hi := m.Bounds(0)
	if lo != 0.2 || hi != 0.4 {
		t.Errorf("slot 0 bounds = (%v,%v), want (0.2,0.4)", lo, hi)
	}
	lo, hi = m.Bounds(1)
	if lo != 0 || hi != 1 {
		t.Errorf("slot 1 bounds = (%v,%v), want (0,1)", lo, hi)
	}
	for i := 2; i < MaxVariables; i++ {
		lo, hi = m.Bounds(i)
		if lo != -Epsilon || hi != 1+Epsilon {
			t.Fatalf("unused slot %d bounds = (%v,%v), want sentinel", i, lo, hi)
		}
	}
}

func TestMatrixVisibleMirrorsState(t *testing.T) {
	s := NewState(2, []Range{{0.2, 0.4}, {0.5, 1}})
	m := s.Pack()

	rows := [][]float32{
		{0.3, 0.7},
		{0.1, 0.7},
		{0.3, 0.4},
		{0.4 + Epsilon/2, 0.5},
	}
	for _, row := range rows {
		var b Block
		for i := 0; i < MaxVariables; i++ {
			b.Put(i, UnusedValue)
		}
		b.Put(0, row[0])
		b.Put(1, row[1])
		if got, want := m.Visible(&b), s.Passes(row); got != want {
			t.Errorf("row %v: Matrix.Visible = %v, State.Passes = %v", row, got, want)
		}
	}
}

func TestOneHot(t *testing.T) {
	b := OneHot(37)
	var sum float32
	for i := 0; i < MaxVariables; i++ {
		sum += b.Get(i)
	}
	if sum != 1 || b.Get(37) != 1 {
		t.Errorf("OneHot(37) not one-hot: sum=%v slot37=%v", sum, b.Get(37))
	}
}

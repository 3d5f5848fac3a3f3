// Package filter holds the per-variable brush ranges of a chart and packs
// them into the fixed-layout matrices the line shader consumes.
package filter

import "math"

// Epsilon widens every filter bound on both sides so that lines lying
// exactly on a brush edge survive float32 rounding on the GPU.
const Epsilon = 1e-3

// Range is an active sub-range of the unit interval.
//
// Lo == Hi is never stored: a collapsed range means "no filter" and is
// normalized to the full range.
type Range struct {
	Lo, Hi float64
}

// Full returns the full unit range [0, 1].
func Full() Range {
	return Range{Lo: 0, Hi: 1}
}

// Normalize clamps the bounds to [0, 1], orders them and maps a collapsed
// range to Full. NaN bounds reset to Full.
func (r Range) Normalize() Range {
	if math.IsNaN(r.Lo) || math.IsNaN(r.Hi) {
		return Full()
	}
	lo, hi := clamp01(r.Lo), clamp01(r.Hi)
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return Full()
	}
	return Range{Lo: lo, Hi: hi}
}

// IsFull reports whether the range selects the whole axis.
func (r Range) IsFull() bool {
	return r.Lo <= 0 && r.Hi >= 1
}

// Active reports whether the range hides anything.
func (r Range) Active() bool {
	return !r.IsFull()
}

// Contains reports whether the unit value u passes the range, including
// the Epsilon tolerance.
func (r Range) Contains(u float64) bool {
	return u >= r.Lo-Epsilon && u <= r.Hi+Epsilon
}

// Width returns Hi - Lo.
func (r Range) Width() float64 {
	return r.Hi - r.Lo
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

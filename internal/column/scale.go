package column

import (
	"math"
	"slices"
	"sort"
)

// degenerateWiden is the symmetric fraction by which a single-valued
// domain is widened before mapping.
const degenerateWiden = 0.1

// Scale maps a variable's domain onto the unit interval.
//
// Numeric scales are affine, u = A*x + B, with the observed minimum at 0
// and maximum at 1. Ordinal scales place each distinct level at an evenly
// spaced tick and interpolate linearly between neighbouring levels.
type Scale struct {
	ordinal bool

	// numeric
	a, b   float64
	lo, hi float64

	// ordinal
	levels []float64
	ticks  []float64
}

// NewLinear returns the affine scale for a numeric domain [lo, hi]. A
// degenerate domain is widened by ±10% of its value (±1 around zero).
func NewLinear(lo, hi float64) *Scale {
	if lo == hi {
		d := math.Abs(lo) * degenerateWiden
		if d == 0 {
			d = 1
		}
		lo, hi = lo-d, hi+d
	}
	a := 1 / (hi - lo)
	return &Scale{a: a, b: -lo * a, lo: lo, hi: hi}
}

// NewOrdinal returns a rank scale over the distinct values. padding in
// [0, 1] insets the extreme ticks by that fraction of a half pitch.
func NewOrdinal(values []float64, padding float64) *Scale {
	levels := slices.Clone(values)
	slices.Sort(levels)
	levels = slices.Compact(levels)

	n := len(levels)
	ticks := make([]float64, n)
	if n == 1 {
		ticks[0] = 0.5
	} else {
		den := float64(n-1) + padding
		for i := range ticks {
			ticks[i] = (float64(i) + padding/2) / den
		}
	}
	return &Scale{
		ordinal: true,
		levels:  levels,
		ticks:   ticks,
		lo:      levels[0],
		hi:      levels[n-1],
	}
}

// Ordinal reports whether this is a rank scale.
func (s *Scale) Ordinal() bool { return s.ordinal }

// Extent returns the (possibly widened) domain.
func (s *Scale) Extent() (lo, hi float64) { return s.lo, s.hi }

// Coefficients returns A and B of the affine map. Zero for ordinal scales.
func (s *Scale) Coefficients() (a, b float64) { return s.a, s.b }

// Ticks returns the unit positions of the ordinal levels, ascending.
func (s *Scale) Ticks() []float64 { return s.ticks }

// Levels returns the distinct ordinal values, ascending.
func (s *Scale) Levels() []float64 { return s.levels }

// Unit maps a domain value to the unit interval.
func (s *Scale) Unit(x float64) float64 {
	if !s.ordinal {
		return s.a*x + s.b
	}
	return interpolate(s.levels, s.ticks, x)
}

// Domain is the inverse of Unit.
func (s *Scale) Domain(u float64) float64 {
	if !s.ordinal {
		return (u - s.b) / s.a
	}
	return interpolate(s.ticks, s.levels, u)
}

// interpolate maps x from the ascending breakpoints xs onto ys piecewise
// linearly, clamping outside the breakpoints.
func interpolate(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 1 || x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x)
	if xs[i] == x {
		return ys[i]
	}
	t := (x - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + t*(ys[i]-ys[i-1])
}

package filter

// State is the mutable filter state of one chart: one Range per variable,
// indexed by the variable's original index.
//
// The interaction controller is the only writer. Renderers never read a
// State directly; they receive a Matrix packed from it on every render
// call, so a half-applied update can never reach the GPU.
type State struct {
	ranges []Range
}

// NewState creates a state for n variables. Initial ranges are normalized;
// missing entries default to Full.
func NewState(n int, initial []Range) *State {
	s := &State{ranges: make([]Range, n)}
	for i := range s.ranges {
		if i < len(initial) {
			s.ranges[i] = initial[i].Normalize()
		} else {
			s.ranges[i] = Full()
		}
	}
	return s
}

// Len returns the number of variables.
func (s *State) Len() int {
	return len(s.ranges)
}

// Range returns the current range of variable i.
func (s *State) Range(i int) Range {
	return s.ranges[i]
}

// Set normalizes r and stores it for variable i. It reports whether the
// stored range changed.
func (s *State) Set(i int, r Range) bool {
	r = r.Normalize()
	if s.ranges[i] == r {
		return false
	}
	s.ranges[i] = r
	return true
}

// Reset restores variable i to the full range.
func (s *State) Reset(i int) bool {
	return s.Set(i, Full())
}

// ActiveCount returns the number of variables with an active filter.
func (s *State) ActiveCount() int {
	n := 0
	for _, r := range s.ranges {
		if r.Active() {
			n++
		}
	}
	return n
}

// AnyActive reports whether at least one variable is filtered.
func (s *State) AnyActive() bool {
	for _, r := range s.ranges {
		if r.Active() {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of all ranges.
func (s *State) Snapshot() []Range {
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Pack builds a fresh filter matrix from the current ranges. Slots past
// Len() carry the permissive sentinel.
func (s *State) Pack() Matrix {
	m := Permissive()
	for i, r := range s.ranges {
		m.Set(i, float32(r.Lo), float32(r.Hi))
	}
	return m
}

// Passes reports whether a row of unit values (one per variable, original
// order) passes every filter.
func (s *State) Passes(row []float32) bool {
	for i, r := range s.ranges {
		if !r.Contains(float64(row[i])) {
			return false
		}
	}
	return true
}

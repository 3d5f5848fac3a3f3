package parcoords

import (
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/gogpu/parcoords/internal/column"
	"github.com/gogpu/parcoords/internal/filter"
)

// MaxVariables is the largest number of variables a chart can show.
const MaxVariables = filter.MaxVariables

// NoColor disables colouring by a variable; every line takes the middle
// of the palette.
const NoColor = -1

// Range is a closed interval. Lo == Hi means "no filter".
type Range struct {
	Lo, Hi float64
}

// Variable is one input column.
type Variable struct {
	Name string

	// Ordinal marks integer-valued variables laid out as evenly spaced
	// ticks, one per distinct value.
	Ordinal bool

	Values []float64

	// Filter is an optional initial brush in unit space, [0, 1] being the
	// variable's extent.
	Filter *Range
}

// Dataset is the input of a chart.
type Dataset struct {
	Variables []Variable

	// ColorBy is the index of the variable that keys line colour, or
	// NoColor.
	ColorBy int

	// Order is the initial screen order as original variable indices. Nil
	// keeps the input order.
	Order []int
}

// validate checks the parts of the dataset that the column store does
// not: colour variable, order and initial filters.
func (ds *Dataset) validate() error {
	n := len(ds.Variables)
	var err error
	if ds.ColorBy != NoColor && (ds.ColorBy < 0 || ds.ColorBy >= n) {
		err = multierr.Append(err, fmt.Errorf("color-by %d out of range [0, %d)", ds.ColorBy, n))
	}
	if ds.Order != nil {
		if len(ds.Order) != n {
			err = multierr.Append(err, fmt.Errorf("order has %d entries, want %d", len(ds.Order), n))
		} else {
			seen := make([]bool, n)
			for _, v := range ds.Order {
				if v < 0 || v >= n || seen[v] {
					err = multierr.Append(err, fmt.Errorf("order entry %d is invalid or repeated", v))
					continue
				}
				seen[v] = true
			}
		}
	}
	for i, v := range ds.Variables {
		if f := v.Filter; f != nil && !finite(f.Lo, f.Hi) {
			err = multierr.Append(err, &InputError{Variable: v.Name, Index: i, Err: fmt.Errorf("initial filter is not finite")})
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func (ds *Dataset) columns() []column.Variable {
	out := make([]column.Variable, len(ds.Variables))
	for i, v := range ds.Variables {
		out[i] = column.Variable{Name: v.Name, Ordinal: v.Ordinal, Values: v.Values}
	}
	return out
}

func (ds *Dataset) initialFilters() []filter.Range {
	out := make([]filter.Range, len(ds.Variables))
	for i, v := range ds.Variables {
		out[i] = filter.Full()
		if v.Filter != nil {
			out[i] = filter.Range{Lo: v.Filter.Lo, Hi: v.Filter.Hi}
		}
	}
	return out
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/gogpu/parcoords"
)

// Options selects and types the columns of a source.
type Options struct {
	// Columns lists the columns to load, in axis order. Empty loads every
	// numeric or text column in source order.
	Columns []string

	// Ordinal names numeric columns to lay out as integer categories.
	Ordinal []string

	// ColorBy names the column that keys line colour. Empty disables
	// colouring.
	ColorBy string
}

// column accumulates one source column across record batches.
type column struct {
	name    string
	ordinal bool
	numbers []float64
	text    []string
	isText  bool
}

// Table is a loaded dataset.
type Table struct {
	Dataset parcoords.Dataset

	levels map[string][]string
}

// Levels returns the sorted distinct strings of a text column, in tick
// order, or nil for a numeric column.
func (t *Table) Levels(name string) []string {
	return t.levels[name]
}

// collector builds a Table from columns appended in batches.
type collector struct {
	opts    Options
	columns []*column
	byName  map[string]*column
}

func newCollector(opts Options) *collector {
	return &collector{opts: opts, byName: make(map[string]*column)}
}

// column returns the accumulator for name, creating it on first use.
func (c *collector) column(name string, isText bool) (*column, error) {
	if col, ok := c.byName[name]; ok {
		if col.isText != isText {
			return nil, fmt.Errorf("%w: column %q changes type between batches", parcoords.ErrInvalidInput, name)
		}
		return col, nil
	}
	col := &column{
		name:    name,
		isText:  isText,
		ordinal: isText || slices.Contains(c.opts.Ordinal, name),
	}
	c.columns = append(c.columns, col)
	c.byName[name] = col
	return col, nil
}

// table finalizes the accumulated columns.
func (c *collector) table() (*Table, error) {
	t := &Table{levels: make(map[string][]string)}
	ds := &t.Dataset
	ds.ColorBy = parcoords.NoColor
	cols := c.columns
	if len(c.opts.Columns) > 0 {
		cols = cols[:0:0]
		var err error
		for _, name := range c.opts.Columns {
			col, ok := c.byName[name]
			if !ok {
				err = multierr.Append(err, fmt.Errorf("column %q not found or not numeric", name))
				continue
			}
			cols = append(cols, col)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", parcoords.ErrInvalidInput, err)
		}
	}

	for i, col := range cols {
		v := parcoords.Variable{Name: col.name, Ordinal: col.ordinal, Values: col.numbers}
		if col.isText {
			levels, codes := rank(col.text)
			v.Values = codes
			t.levels[col.name] = levels
		}
		if col.name == c.opts.ColorBy {
			ds.ColorBy = i
		}
		ds.Variables = append(ds.Variables, v)
	}
	if c.opts.ColorBy != "" && ds.ColorBy == parcoords.NoColor {
		return nil, fmt.Errorf("%w: color-by column %q not loaded", parcoords.ErrInvalidInput, c.opts.ColorBy)
	}
	return t, nil
}

// rank replaces each string by the 1-based position of its value among
// the sorted distinct values.
func rank(text []string) (levels []string, codes []float64) {
	levels = slices.Clone(text)
	slices.Sort(levels)
	levels = slices.Compact(levels)
	codes = make([]float64, len(text))
	for i, s := range text {
		j, _ := slices.BinarySearch(levels, s)
		codes[i] = float64(j + 1)
	}
	return levels, codes
}

// parseNumber accepts finite decimal numbers.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

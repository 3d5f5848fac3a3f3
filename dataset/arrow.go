package dataset

import (
	"fmt"
	"io"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/gogpu/parcoords"
)

// csvChunk is the number of CSV rows decoded per record batch.
const csvChunk = 4096

// FromRecord loads the numeric and string columns of rec. Columns of other
// types are skipped unless named in Options.Columns.
func FromRecord(rec arrow.Record, opts Options) (*Table, error) {
	c := newCollector(opts)
	if err := c.appendRecord(rec); err != nil {
		return nil, err
	}
	return c.table()
}

// ReadCSV loads a CSV stream with a header row. Column types are inferred
// from the first data row.
func ReadCSV(r io.Reader, opts Options) (*Table, error) {
	rd := csv.NewInferringReader(r,
		csv.WithHeader(true),
		csv.WithChunk(csvChunk),
		csv.WithAllocator(memory.NewGoAllocator()),
	)
	defer rd.Release()

	c := newCollector(opts)
	for rd.Next() {
		if err := c.appendRecord(rd.Record()); err != nil {
			return nil, err
		}
	}
	if err := rd.Err(); err != nil {
		return nil, fmt.Errorf("%w: csv: %w", parcoords.ErrInvalidInput, err)
	}
	return c.table()
}

func (c *collector) appendRecord(rec arrow.Record) error {
	schema := rec.Schema()
	for i, field := range schema.Fields() {
		arr := rec.Column(i)
		if !c.wants(field.Name) {
			continue
		}
		if arr.NullN() > 0 {
			return fmt.Errorf("%w: column %q has %d missing values", parcoords.ErrInvalidInput, field.Name, arr.NullN())
		}
		if s, ok := arr.(*array.String); ok {
			col, err := c.column(field.Name, true)
			if err != nil {
				return err
			}
			for j := range s.Len() {
				col.text = append(col.text, s.Value(j))
			}
			continue
		}
		vals, ok := numbers(arr)
		if !ok {
			if len(c.opts.Columns) > 0 {
				return fmt.Errorf("%w: column %q has unsupported type %s", parcoords.ErrInvalidInput, field.Name, field.Type)
			}
			continue
		}
		col, err := c.column(field.Name, false)
		if err != nil {
			return err
		}
		col.numbers = append(col.numbers, vals...)
	}
	return nil
}

// wants reports whether name would be loaded.
func (c *collector) wants(name string) bool {
	return len(c.opts.Columns) == 0 || slices.Contains(c.opts.Columns, name)
}

// numbers converts a numeric array to float64.
func numbers(arr arrow.Array) ([]float64, bool) {
	out := make([]float64, arr.Len())
	switch a := arr.(type) {
	case *array.Float64:
		copy(out, a.Float64Values())
	case *array.Float32:
		for i, v := range a.Float32Values() {
			out[i] = float64(v)
		}
	case *array.Int64:
		for i, v := range a.Int64Values() {
			out[i] = float64(v)
		}
	case *array.Int32:
		for i, v := range a.Int32Values() {
			out[i] = float64(v)
		}
	case *array.Int16:
		for i, v := range a.Int16Values() {
			out[i] = float64(v)
		}
	case *array.Int8:
		for i, v := range a.Int8Values() {
			out[i] = float64(v)
		}
	case *array.Uint64:
		for i, v := range a.Uint64Values() {
			out[i] = float64(v)
		}
	case *array.Uint32:
		for i, v := range a.Uint32Values() {
			out[i] = float64(v)
		}
	case *array.Uint16:
		for i, v := range a.Uint16Values() {
			out[i] = float64(v)
		}
	case *array.Uint8:
		for i, v := range a.Uint8Values() {
			out[i] = float64(v)
		}
	default:
		return nil, false
	}
	return out, true
}

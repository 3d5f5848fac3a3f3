package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gogpu/parcoords"
	"github.com/gogpu/parcoords/internal/gputest"
)

func testRecord(t *testing.T, withNull bool) arrow.Record {
	t.Helper()
	mem := memory.NewGoAllocator()

	fb := array.NewFloat64Builder(mem)
	defer fb.Release()
	fb.AppendValues([]float64{1.5, 2.5, 3.5}, nil)

	ib := array.NewInt64Builder(mem)
	defer ib.Release()
	ib.AppendValues([]int64{4, 6, 4}, nil)
	if withNull {
		ib.AppendNull()
		fb.Append(0)
	}

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues([]string{"setosa", "virginica", "setosa"}, nil)
	if withNull {
		sb.Append("x")
	}

	bb := array.NewBooleanBuilder(mem)
	defer bb.Release()
	bb.AppendValues([]bool{true, false, true}, nil)
	if withNull {
		bb.Append(true)
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "width", Type: arrow.PrimitiveTypes.Float64},
		{Name: "cylinders", Type: arrow.PrimitiveTypes.Int64},
		{Name: "species", Type: arrow.BinaryTypes.String},
		{Name: "flag", Type: arrow.FixedWidthTypes.Boolean},
	}, nil)
	cols := []arrow.Array{fb.NewArray(), ib.NewArray(), sb.NewArray(), bb.NewArray()}
	rec := array.NewRecord(schema, cols, int64(cols[0].Len()))
	for _, c := range cols {
		c.Release()
	}
	t.Cleanup(rec.Release)
	return rec
}

func TestFromRecord(t *testing.T) {
	tbl, err := FromRecord(testRecord(t, false), Options{Ordinal: []string{"cylinders"}, ColorBy: "width"})
	require.NoError(t, err)

	want := parcoords.Dataset{
		Variables: []parcoords.Variable{
			{Name: "width", Values: []float64{1.5, 2.5, 3.5}},
			{Name: "cylinders", Ordinal: true, Values: []float64{4, 6, 4}},
			{Name: "species", Ordinal: true, Values: []float64{1, 2, 1}},
		},
		ColorBy: 0,
	}
	if diff := cmp.Diff(want, tbl.Dataset); diff != "" {
		t.Errorf("Dataset mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"setosa", "virginica"}, tbl.Levels("species"))
	assert.Nil(t, tbl.Levels("width"))
}

func TestFromRecordColumns(t *testing.T) {
	tbl, err := FromRecord(testRecord(t, false), Options{Columns: []string{"species", "width"}})
	require.NoError(t, err)

	var names []string
	for _, v := range tbl.Dataset.Variables {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"species", "width"}, names)
	assert.Equal(t, parcoords.NoColor, tbl.Dataset.ColorBy)
}

func TestFromRecordErrors(t *testing.T) {
	tests := []struct {
		name     string
		withNull bool
		opts     Options
	}{
		{"missing values", true, Options{}},
		{"unknown column", false, Options{Columns: []string{"width", "height"}}},
		{"unsupported type", false, Options{Columns: []string{"flag"}}},
		{"color-by not loaded", false, Options{Columns: []string{"width"}, ColorBy: "species"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRecord(testRecord(t, tt.withNull), tt.opts)
			assert.True(t, errors.Is(err, parcoords.ErrInvalidInput), "error = %v", err)
		})
	}
}

func TestReadCSV(t *testing.T) {
	const src = `mpg,cylinders,origin
18.5,8,usa
31.0,4,japan
24.0,4,europe
`
	tbl, err := ReadCSV(strings.NewReader(src), Options{Ordinal: []string{"cylinders"}, ColorBy: "mpg"})
	require.NoError(t, err)

	want := []parcoords.Variable{
		{Name: "mpg", Values: []float64{18.5, 31, 24}},
		{Name: "cylinders", Ordinal: true, Values: []float64{8, 4, 4}},
		{Name: "origin", Ordinal: true, Values: []float64{3, 2, 1}},
	}
	if diff := cmp.Diff(want, tbl.Dataset.Variables); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"europe", "japan", "usa"}, tbl.Levels("origin"))
}

func TestReadCSVMalformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n"), Options{})
	assert.ErrorIs(t, err, parcoords.ErrInvalidInput)
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"length", "grade", "label"},
		{1.25, 2, "b"},
		{3.5, 1, "a"},
		{2, 3, "b"},
	})
	tbl, err := ReadXLSX(path, "", Options{Ordinal: []string{"grade"}})
	require.NoError(t, err)

	want := []parcoords.Variable{
		{Name: "length", Values: []float64{1.25, 3.5, 2}},
		{Name: "grade", Ordinal: true, Values: []float64{2, 1, 3}},
		{Name: "label", Ordinal: true, Values: []float64{2, 1, 2}},
	}
	if diff := cmp.Diff(want, tbl.Dataset.Variables); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}
}

func TestReadXLSXErrors(t *testing.T) {
	t.Run("empty cell", func(t *testing.T) {
		path := writeWorkbook(t, [][]any{{"a", "b"}, {1, 2}, {3}})
		_, err := ReadXLSX(path, "", Options{})
		assert.ErrorIs(t, err, parcoords.ErrInvalidInput)
	})
	t.Run("header only", func(t *testing.T) {
		path := writeWorkbook(t, [][]any{{"a", "b"}})
		_, err := ReadXLSX(path, "", Options{})
		assert.ErrorIs(t, err, parcoords.ErrInvalidInput)
	})
	t.Run("missing sheet", func(t *testing.T) {
		path := writeWorkbook(t, [][]any{{"a"}, {1}})
		_, err := ReadXLSX(path, "nope", Options{})
		assert.Error(t, err)
	})
}

func TestLoadedTableCharts(t *testing.T) {
	tbl, err := FromRecord(testRecord(t, false), Options{Ordinal: []string{"cylinders"}, ColorBy: "width"})
	require.NoError(t, err)

	c, err := parcoords.NewChart(context.Background(), gputest.New(), tbl.Dataset, parcoords.DefaultConfig())
	require.NoError(t, err)
	defer c.Destroy()
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 3, c.SampleCount())
}

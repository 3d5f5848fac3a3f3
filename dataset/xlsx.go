package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/gogpu/parcoords"
)

// ReadXLSX loads a worksheet whose first row holds column names. An empty
// sheet name selects the first sheet. A column is numeric when every
// non-header cell parses as a number and text otherwise.
func ReadXLSX(path, sheet string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSheet(f, sheet, opts)
}

// ReadXLSXFrom is ReadXLSX on a stream.
func ReadXLSXFrom(r io.Reader, sheet string, opts Options) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readSheet(f, sheet, opts)
}

func readSheet(f *excelize.File, sheet string, opts Options) (*Table, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %q has no data rows", parcoords.ErrInvalidInput, sheet)
	}

	header, data := rows[0], rows[1:]
	c := newCollector(opts)
	for j, name := range header {
		if name == "" || !c.wants(name) {
			continue
		}
		cells := make([]string, len(data))
		for i, row := range data {
			// GetRows drops trailing empty cells.
			if j >= len(row) || row[j] == "" {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				return nil, fmt.Errorf("%w: sheet %q: cell %s is empty", parcoords.ErrInvalidInput, sheet, cell)
			}
			cells[i] = row[j]
		}

		vals, numeric := make([]float64, len(cells)), true
		for i, s := range cells {
			if vals[i], numeric = parseNumber(s); !numeric {
				break
			}
		}
		col, err := c.column(name, !numeric)
		if err != nil {
			return nil, err
		}
		if numeric {
			col.numbers = vals
		} else {
			col.text = cells
		}
	}
	return c.table()
}

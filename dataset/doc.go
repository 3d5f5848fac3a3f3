// Package dataset loads parcoords datasets from Apache Arrow records, CSV
// files and Excel workbooks.
//
// Numeric columns become continuous variables unless named in
// Options.Ordinal. Text columns become ordinal variables whose values are
// the 1-based ranks of their distinct strings in sorted order; Levels
// returns those strings so callers can label the ticks.
package dataset

// Package filter holds the per-axis brush ranges of a chart and packs them
// into the 4x4 matrix blocks the line shader tests samples against.
//
// Ranges are in unit space. A range covering [0, 1] is inactive and never
// rejects a sample.
package filter

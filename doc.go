// Package parcoords draws interactive parallel-coordinates charts on the
// GPU.
//
// # Overview
//
// A chart shows every sample of a multivariate dataset as a polyline that
// crosses one vertical axis per variable. Lines are rendered as
// anti-aliased quads on two layers: a focus layer with the samples that
// pass every axis filter, and a faint context layer with all samples that
// appears once any filter is active. Large datasets are drawn
// progressively, in blocks sized to fit the host's display refresh.
//
// # Quick Start
//
//	dev, name, err := backend.Default(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	ds := parcoords.Dataset{
//	    Variables: []parcoords.Variable{
//	        {Name: "mpg", Values: mpg},
//	        {Name: "cylinders", Ordinal: true, Values: cyl},
//	        {Name: "weight", Values: weight},
//	    },
//	    ColorBy: 0,
//	}
//	c, err := parcoords.NewChart(ctx, dev, ds, parcoords.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Destroy()
//
// # Interaction
//
// Pointer events in layout pixels drive two gestures. Pressing on an axis
// handle above the plot drags the axis horizontally; releasing it reorders
// the axes and reports the new order through WithOnAxisOrder. Pressing
// inside the plot on an axis brushes a range on it; releasing reports the
// range through WithOnBrush. Ranges on ordinal axes snap to the nearest
// category ticks.
//
// Filters can also be set directly with SetFilter and read back with
// Filter, Filters and Selection.
//
// # Frames
//
// Without WithFrameHost the chart queues its draw blocks internally and
// Flush runs them. A host with a real refresh callback passes itself via
// WithFrameHost; callbacks are serialized with every other chart call.
//
// # Logging
//
// The package logs through log/slog and is silent by default. Use
// SetLogger to enable logging for all charts or WithLogger for one.
package parcoords

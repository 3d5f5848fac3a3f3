// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render composites the per-layer readbacks of a chart into a
// single image.
//
// Line layers are drawn into their own GPU targets with premultiplied
// alpha over a transparent clear. A Layers value stacks those pixel
// buffers in z-order over an opaque background and can downscale the
// result from target pixels to layout pixels.
//
// # Usage
//
//	l := render.NewLayers(w, h, color.White)
//	_ = l.Set(0, contextPixels)
//	_ = l.Set(1, focusPixels)
//	img := l.Composite()
package render

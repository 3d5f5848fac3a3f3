// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"

	xdraw "golang.org/x/image/draw"
)

// ErrSizeMismatch is returned when a layer buffer does not match the
// compositing size.
var ErrSizeMismatch = errors.New("render: layer size mismatch")

// layer is a single compositing layer.
type layer struct {
	img     *image.RGBA
	visible bool
}

// Layers stacks premultiplied RGBA8 layers in ascending z-order over an
// opaque background.
type Layers struct {
	background color.Color
	layers     map[int]*layer
	zOrder     []int // cached, nil when stale
	width      int
	height     int
}

// NewLayers creates an empty stack. A nil background is transparent.
func NewLayers(width, height int, background color.Color) *Layers {
	if background == nil {
		background = color.Transparent
	}
	return &Layers{
		background: background,
		layers:     make(map[int]*layer),
		width:      width,
		height:     height,
	}
}

// Width returns the stack width in pixels.
func (l *Layers) Width() int { return l.width }

// Height returns the stack height in pixels.
func (l *Layers) Height() int { return l.height }

// Set stores a tightly packed premultiplied RGBA8 buffer at z-order z,
// replacing any previous layer there. The buffer is copied.
func (l *Layers) Set(z int, pixels []byte) error {
	if want := l.width * l.height * 4; len(pixels) != want {
		return fmt.Errorf("%w: %d bytes, want %d", ErrSizeMismatch, len(pixels), want)
	}
	ly, ok := l.layers[z]
	if !ok {
		ly = &layer{img: image.NewRGBA(image.Rect(0, 0, l.width, l.height)), visible: true}
		l.layers[z] = ly
		l.zOrder = nil
	}
	copy(ly.img.Pix, pixels)
	return nil
}

// Remove deletes the layer at z.
func (l *Layers) Remove(z int) error {
	if _, ok := l.layers[z]; !ok {
		return fmt.Errorf("render: layer with z=%d does not exist", z)
	}
	delete(l.layers, z)
	l.zOrder = nil
	return nil
}

// SetVisible controls whether the layer at z takes part in compositing.
// Hidden layers keep their content.
func (l *Layers) SetVisible(z int, visible bool) {
	if ly, ok := l.layers[z]; ok {
		ly.visible = visible
	}
}

// Order returns all layer z-orders, ascending.
func (l *Layers) Order() []int {
	if l.zOrder == nil {
		l.zOrder = make([]int, 0, len(l.layers))
		for z := range l.layers {
			l.zOrder = append(l.zOrder, z)
		}
		slices.Sort(l.zOrder)
	}
	return slices.Clone(l.zOrder)
}

// Composite returns a new image with the background and every visible
// layer blended source-over in z-order.
func (l *Layers) Composite() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(l.background), image.Point{}, xdraw.Src)
	for _, z := range l.Order() {
		if ly := l.layers[z]; ly.visible {
			xdraw.Draw(dst, dst.Bounds(), ly.img, image.Point{}, xdraw.Over)
		}
	}
	return dst
}

// Resample scales src to width x height with bilinear filtering, used to
// bring target pixels back to layout pixels when the pixel ratio is not 1.
func Resample(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, xdraw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

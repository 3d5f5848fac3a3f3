//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/parcoords/gpucore"
)

// copyPitchAlignment is the WebGPU BytesPerRow alignment for texture copies.
const copyPitchAlignment = 256

// colorFormat is the format of every target's colour attachment.
const colorFormat = gputypes.TextureFormatBGRA8Unorm

// depthFormat is the format of every target's depth attachment.
const depthFormat = gputypes.TextureFormatDepth24PlusStencil8

// target is an offscreen colour texture with a matching depth texture.
//
//   - Color: 1x sample, BGRA8Unorm, RenderAttachment | CopySrc
//   - Depth: 1x sample, Depth24PlusStencil8, RenderAttachment
type target struct {
	label         string
	width, height uint32

	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
}

func (t *target) destroy(device hal.Device) {
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depthTex != nil {
		device.DestroyTexture(t.depthTex)
		t.depthTex = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.colorTex != nil {
		device.DestroyTexture(t.colorTex)
		t.colorTex = nil
	}
}

func createTarget(device hal.Device, label string, w, h uint32) (*target, error) {
	t := &target{label: label, width: w, height: h}
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label + "_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create color texture: %w", err)
	}
	t.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: label + "_color_view",
	})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("create color view: %w", err)
	}
	t.colorView = colorView

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label + "_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("create depth texture: %w", err)
	}
	t.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: label + "_depth_view",
	})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("create depth view: %w", err)
	}
	t.depthView = depthView
	return t, nil
}

// passDescriptor returns a pass over t. clear selects LoadOpClear for both
// attachments, otherwise contents are preserved.
func (t *target) passDescriptor(label string, clear bool) *hal.RenderPassDescriptor {
	load := gputypes.LoadOpLoad
	if clear {
		load = gputypes.LoadOpClear
	}
	return &hal.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.colorView,
			LoadOp:     load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              t.depthView,
			DepthLoadOp:       load,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     load,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		},
	}
}

// CreateTarget implements gpucore.Adapter. The new target is cleared with
// an empty pass so that later passes can load it.
func (a *HALAdapter) CreateTarget(label string, width, height uint32) (gpucore.TargetID, error) {
	if width == 0 || height == 0 {
		return gpucore.InvalidID, fmt.Errorf("create target %s: empty size %dx%d", label, width, height)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return gpucore.InvalidID, ErrClosed
	}
	t, err := createTarget(a.device, label, width, height)
	if err != nil {
		return gpucore.InvalidID, err
	}

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_init"})
	if err != nil {
		t.destroy(a.device)
		return gpucore.InvalidID, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label + "_init"); err != nil {
		t.destroy(a.device)
		return gpucore.InvalidID, fmt.Errorf("begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(t.passDescriptor(label+"_clear", true))
	rp.End()
	if err := a.submit(encoder); err != nil {
		t.destroy(a.device)
		return gpucore.InvalidID, err
	}

	id := gpucore.TargetID(a.id())
	a.targets[id] = t
	return id, nil
}

// DestroyTarget implements gpucore.Adapter.
func (a *HALAdapter) DestroyTarget(id gpucore.TargetID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.targets[id]; ok {
		t.destroy(a.device)
		delete(a.targets, id)
	}
}

// ReadTarget implements gpucore.Adapter.
func (a *HALAdapter) ReadTarget(id gpucore.TargetID) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.targets[id]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", ErrUnknownResource, id)
	}
	w, h := t.width, t.height

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: t.label + "_readback"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(t.label + "_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.label + "_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(t.colorTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.colorTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	if err := a.submit(encoder); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := a.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}
	return unpackRows(readback, w, h, alignedBytesPerRow), nil
}

// unpackRows strips row padding and converts BGRA to RGBA.
func unpackRows(src []byte, w, h, pitch uint32) []byte {
	rowBytes := int(w) * 4
	out := make([]byte, rowBytes*int(h))
	for row := 0; row < int(h); row++ {
		s := src[row*int(pitch) : row*int(pitch)+rowBytes]
		d := out[row*rowBytes : (row+1)*rowBytes]
		for i := 0; i < rowBytes; i += 4 {
			d[i+0] = s[i+2]
			d[i+1] = s[i+1]
			d[i+2] = s[i+0]
			d[i+3] = s[i+3]
		}
	}
	return out
}

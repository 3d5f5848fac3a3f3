//go:build !nogpu

// Package native implements gpucore.Adapter on a gogpu/wgpu HAL device.
package native

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/parcoords/gpucore"
)

// fenceTimeout bounds every wait for GPU completion.
const fenceTimeout = 5 * time.Second

var (
	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("native: adapter closed")
)

// Options configures a HALAdapter.
type Options struct {
	// CompileSPIRV compiles WGSL to SPIR-V with naga before creating shader
	// modules, for HAL backends that only accept SPIR-V.
	CompileSPIRV bool

	Logger *slog.Logger
}

// HALAdapter implements gpucore.Adapter using gogpu/wgpu/hal directly.
//
// Thread Safety: HALAdapter is safe for concurrent use; resource maps are
// guarded by a mutex. Renderers drive it from one goroutine in practice.
type HALAdapter struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	opts   Options
	logger *slog.Logger

	// release tears down a device this adapter opened itself.
	release func()

	nextID uint64
	closed bool

	buffers    map[gpucore.BufferID]hal.Buffer
	targets    map[gpucore.TargetID]*target
	pipelines  map[gpucore.PipelineID]*pipeline
	bindGroups map[gpucore.BindGroupID]hal.BindGroup
}

// New wraps an existing device and queue. The caller keeps ownership of
// the device.
func New(device hal.Device, queue hal.Queue, opts Options) (*HALAdapter, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("native: nil device or queue")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HALAdapter{
		device:     device,
		queue:      queue,
		opts:       opts,
		logger:     logger,
		buffers:    make(map[gpucore.BufferID]hal.Buffer),
		targets:    make(map[gpucore.TargetID]*target),
		pipelines:  make(map[gpucore.PipelineID]*pipeline),
		bindGroups: make(map[gpucore.BindGroupID]hal.BindGroup),
	}, nil
}

func (a *HALAdapter) id() uint64 {
	a.nextID++
	return a.nextID
}

// Device returns the underlying HAL device.
func (a *HALAdapter) Device() hal.Device {
	return a.device
}

// CreateBuffer implements gpucore.Adapter.
func (a *HALAdapter) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return gpucore.InvalidID, ErrClosed
	}
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create buffer %s: %w", label, err)
	}
	id := gpucore.BufferID(a.id())
	a.buffers[id] = buf
	return id, nil
}

// WriteBuffer implements gpucore.Adapter.
func (a *HALAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	a.mu.Lock()
	buf, ok := a.buffers[id]
	a.mu.Unlock()
	if !ok {
		a.logger.Warn("native: write to unknown buffer", "id", id)
		return
	}
	a.queue.WriteBuffer(buf, offset, data)
}

// DestroyBuffer implements gpucore.Adapter.
func (a *HALAdapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if buf, ok := a.buffers[id]; ok {
		a.device.DestroyBuffer(buf)
		delete(a.buffers, id)
	}
}

// CreateBindGroup implements gpucore.Adapter.
func (a *HALAdapter) CreateBindGroup(pid gpucore.PipelineID, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pipelines[pid]
	if !ok || p.bindLayout == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline %d", ErrUnknownResource, pid)
	}
	halEntries := make([]gputypes.BindGroupEntry, len(entries))
	for i, e := range entries {
		buf, ok := a.buffers[e.Buffer]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: buffer %d", ErrUnknownResource, e.Buffer)
		}
		halEntries[i] = gputypes.BindGroupEntry{
			Binding: e.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Offset: e.Offset,
				Size:   e.Size,
			},
		}
	}
	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.label + "_bind_group",
		Layout:  p.bindLayout,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("create bind group: %w", err)
	}
	id := gpucore.BindGroupID(a.id())
	a.bindGroups[id] = bg
	return id, nil
}

// DestroyBindGroup implements gpucore.Adapter.
func (a *HALAdapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bg, ok := a.bindGroups[id]; ok {
		a.device.DestroyBindGroup(bg)
		delete(a.bindGroups, id)
	}
}

// Close releases every resource still alive and, for adapters opened by
// OpenStandalone, the device itself.
func (a *HALAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for id, bg := range a.bindGroups {
		a.device.DestroyBindGroup(bg)
		delete(a.bindGroups, id)
	}
	for id, p := range a.pipelines {
		p.destroy(a.device)
		delete(a.pipelines, id)
	}
	for id, t := range a.targets {
		t.destroy(a.device)
		delete(a.targets, id)
	}
	for id, buf := range a.buffers {
		a.device.DestroyBuffer(buf)
		delete(a.buffers, id)
	}
	if a.release != nil {
		a.release()
		a.release = nil
	}
}

// submit ends the encoder, submits it and waits for completion.
func (a *HALAdapter) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)

	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

func convertBufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageMapRead != 0 {
		out |= gputypes.BufferUsageMapRead
	}
	if u&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageVertex != 0 {
		out |= gputypes.BufferUsageVertex
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	if u&gpucore.BufferUsageStorage != 0 {
		out |= gputypes.BufferUsageStorage
	}
	return out
}

// Package gputest provides a recording gpucore.Adapter for tests.
//
// The adapter keeps every buffer's bytes in memory and logs every pass
// command, so renderer tests can assert on uploaded uniforms and on the
// exact draw sequence without a GPU.
package gputest

import (
	"errors"
	"fmt"

	"github.com/gogpu/parcoords/gpucore"
)

// ErrInjected is returned by creation calls chosen to fail.
var ErrInjected = errors.New("gputest: injected failure")

// AllTargets selects every target in Draws.
const AllTargets = gpucore.TargetID(gpucore.InvalidID)

// Op identifies a recorded pass command.
type Op uint8

// Recorded pass commands.
const (
	OpBegin Op = iota + 1
	OpScissor
	OpPipeline
	OpBindGroup
	OpVertexBuffer
	OpDraw
	OpEnd
)

// String returns the command name.
func (o Op) String() string {
	switch o {
	case OpBegin:
		return "begin"
	case OpScissor:
		return "scissor"
	case OpPipeline:
		return "pipeline"
	case OpBindGroup:
		return "bindgroup"
	case OpVertexBuffer:
		return "vertexbuffer"
	case OpDraw:
		return "draw"
	case OpEnd:
		return "end"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Command is one recorded pass command.
type Command struct {
	Op     Op
	Target gpucore.TargetID
	Label  string

	Scissor   gpucore.Rect
	Pipeline  gpucore.PipelineID
	BindGroup gpucore.BindGroupID
	Buffer    gpucore.BufferID

	VertexCount uint32
	FirstVertex uint32
}

// Buffer is the in-memory state of a created buffer.
type Buffer struct {
	Label  string
	Usage  gpucore.BufferUsage
	Data   []byte
	Writes int
}

// Target is the in-memory state of a created target.
type Target struct {
	Label         string
	Width, Height uint32
	Pixels        []byte
}

// Adapter is a recording gpucore.Adapter.
type Adapter struct {
	// FailBufferAfter makes the n-th and later CreateBuffer calls fail
	// when positive.
	FailBufferAfter int

	// FailTargets makes every CreateTarget call fail.
	FailTargets bool

	// FailPipelines makes every CreatePipeline call fail.
	FailPipelines bool

	nextID      uint64
	bufferCalls int

	Buffers    map[gpucore.BufferID]*Buffer
	Targets    map[gpucore.TargetID]*Target
	Pipelines  map[gpucore.PipelineID]gpucore.PipelineDesc
	BindGroups map[gpucore.BindGroupID][]gpucore.BindGroupEntry
	Commands   []Command
	Passes     int
}

// New creates an empty recording adapter.
func New() *Adapter {
	return &Adapter{
		Buffers:    make(map[gpucore.BufferID]*Buffer),
		Targets:    make(map[gpucore.TargetID]*Target),
		Pipelines:  make(map[gpucore.PipelineID]gpucore.PipelineDesc),
		BindGroups: make(map[gpucore.BindGroupID][]gpucore.BindGroupEntry),
	}
}

func (a *Adapter) id() uint64 {
	a.nextID++
	return a.nextID
}

// CreateBuffer implements gpucore.Adapter.
func (a *Adapter) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	a.bufferCalls++
	if a.FailBufferAfter > 0 && a.bufferCalls >= a.FailBufferAfter {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q", ErrInjected, label)
	}
	id := gpucore.BufferID(a.id())
	a.Buffers[id] = &Buffer{Label: label, Usage: usage, Data: make([]byte, size)}
	return id, nil
}

// WriteBuffer implements gpucore.Adapter.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	b, ok := a.Buffers[id]
	if !ok {
		panic(fmt.Sprintf("gputest: write to unknown buffer %d", id))
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		panic(fmt.Sprintf("gputest: write of %d bytes at %d overflows buffer %q (%d bytes)",
			len(data), offset, b.Label, len(b.Data)))
	}
	copy(b.Data[offset:], data)
	b.Writes++
}

// DestroyBuffer implements gpucore.Adapter.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	delete(a.Buffers, id)
}

// CreateTarget implements gpucore.Adapter.
func (a *Adapter) CreateTarget(label string, width, height uint32) (gpucore.TargetID, error) {
	if a.FailTargets {
		return gpucore.InvalidID, fmt.Errorf("%w: target %q", ErrInjected, label)
	}
	id := gpucore.TargetID(a.id())
	a.Targets[id] = &Target{
		Label:  label,
		Width:  width,
		Height: height,
		Pixels: make([]byte, int(width)*int(height)*4),
	}
	return id, nil
}

// ReadTarget implements gpucore.Adapter.
func (a *Adapter) ReadTarget(id gpucore.TargetID) ([]byte, error) {
	t, ok := a.Targets[id]
	if !ok {
		return nil, fmt.Errorf("gputest: unknown target %d", id)
	}
	out := make([]byte, len(t.Pixels))
	copy(out, t.Pixels)
	return out, nil
}

// DestroyTarget implements gpucore.Adapter.
func (a *Adapter) DestroyTarget(id gpucore.TargetID) {
	delete(a.Targets, id)
}

// CreatePipeline implements gpucore.Adapter.
func (a *Adapter) CreatePipeline(desc *gpucore.PipelineDesc) (gpucore.PipelineID, error) {
	if a.FailPipelines {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline %q", ErrInjected, desc.Label)
	}
	id := gpucore.PipelineID(a.id())
	a.Pipelines[id] = *desc
	return id, nil
}

// DestroyPipeline implements gpucore.Adapter.
func (a *Adapter) DestroyPipeline(id gpucore.PipelineID) {
	delete(a.Pipelines, id)
}

// CreateBindGroup implements gpucore.Adapter.
func (a *Adapter) CreateBindGroup(pipeline gpucore.PipelineID, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	if _, ok := a.Pipelines[pipeline]; !ok {
		return gpucore.InvalidID, fmt.Errorf("gputest: unknown pipeline %d", pipeline)
	}
	for _, e := range entries {
		if _, ok := a.Buffers[e.Buffer]; !ok {
			return gpucore.InvalidID, fmt.Errorf("gputest: binding %d references unknown buffer %d", e.Binding, e.Buffer)
		}
	}
	id := gpucore.BindGroupID(a.id())
	a.BindGroups[id] = append([]gpucore.BindGroupEntry(nil), entries...)
	return id, nil
}

// DestroyBindGroup implements gpucore.Adapter.
func (a *Adapter) DestroyBindGroup(id gpucore.BindGroupID) {
	delete(a.BindGroups, id)
}

// BeginPass implements gpucore.Adapter.
func (a *Adapter) BeginPass(target gpucore.TargetID, label string) (gpucore.PassEncoder, error) {
	if _, ok := a.Targets[target]; !ok {
		return nil, fmt.Errorf("gputest: unknown target %d", target)
	}
	a.Passes++
	a.Commands = append(a.Commands, Command{Op: OpBegin, Target: target, Label: label})
	return &pass{a: a, target: target}, nil
}

// Live returns the number of resources not yet destroyed.
func (a *Adapter) Live() int {
	return len(a.Buffers) + len(a.Targets) + len(a.Pipelines) + len(a.BindGroups)
}

// Reset clears the command log.
func (a *Adapter) Reset() {
	a.Commands = nil
	a.Passes = 0
}

// Draws returns the recorded draw commands, optionally restricted to one
// target. Pass AllTargets for every target.
func (a *Adapter) Draws(target gpucore.TargetID) []Command {
	var out []Command
	current := gpucore.TargetID(gpucore.InvalidID)
	for _, c := range a.Commands {
		if c.Op == OpBegin {
			current = c.Target
		}
		if c.Op == OpDraw && (target == AllTargets || current == target) {
			c.Target = current
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many commands of kind op were recorded.
func (a *Adapter) Count(op Op) int {
	n := 0
	for _, c := range a.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

type pass struct {
	a      *Adapter
	target gpucore.TargetID
	ended  bool
}

func (p *pass) record(c Command) {
	if p.ended {
		panic("gputest: command recorded after End")
	}
	c.Target = p.target
	p.a.Commands = append(p.a.Commands, c)
}

func (p *pass) SetScissorRect(r gpucore.Rect) {
	p.record(Command{Op: OpScissor, Scissor: r})
}

func (p *pass) SetPipeline(pipeline gpucore.PipelineID) {
	p.record(Command{Op: OpPipeline, Pipeline: pipeline})
}

func (p *pass) SetBindGroup(group gpucore.BindGroupID) {
	p.record(Command{Op: OpBindGroup, BindGroup: group})
}

func (p *pass) SetVertexBuffer(buffer gpucore.BufferID, _ uint64) {
	p.record(Command{Op: OpVertexBuffer, Buffer: buffer})
}

func (p *pass) Draw(vertexCount, firstVertex uint32) {
	p.record(Command{Op: OpDraw, VertexCount: vertexCount, FirstVertex: firstVertex})
}

func (p *pass) End() error {
	p.record(Command{Op: OpEnd})
	p.ended = true
	return nil
}

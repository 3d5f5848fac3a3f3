//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/parcoords/gpucore"
)

// BeginPass implements gpucore.Adapter. The pass loads the target's
// existing colour and depth, and is submitted synchronously by End.
func (a *HALAdapter) BeginPass(id gpucore.TargetID, label string) (gpucore.PassEncoder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	t, ok := a.targets[id]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", ErrUnknownResource, id)
	}
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return &passEncoder{
		a:       a,
		encoder: encoder,
		rp:      encoder.BeginRenderPass(t.passDescriptor(label, false)),
	}, nil
}

// passEncoder resolves gpucore IDs at record time.
type passEncoder struct {
	a       *HALAdapter
	encoder hal.CommandEncoder
	rp      hal.RenderPassEncoder
	ended   bool
	err     error
}

func (p *passEncoder) SetScissorRect(r gpucore.Rect) {
	if p.ended {
		return
	}
	p.rp.SetScissorRect(r.X, r.Y, r.Width, r.Height)
}

func (p *passEncoder) SetPipeline(id gpucore.PipelineID) {
	if p.ended {
		return
	}
	p.a.mu.Lock()
	pl, ok := p.a.pipelines[id]
	p.a.mu.Unlock()
	if !ok {
		p.err = fmt.Errorf("%w: pipeline %d", ErrUnknownResource, id)
		return
	}
	p.rp.SetPipeline(pl.render)
}

func (p *passEncoder) SetBindGroup(id gpucore.BindGroupID) {
	if p.ended {
		return
	}
	p.a.mu.Lock()
	bg, ok := p.a.bindGroups[id]
	p.a.mu.Unlock()
	if !ok {
		p.err = fmt.Errorf("%w: bind group %d", ErrUnknownResource, id)
		return
	}
	p.rp.SetBindGroup(0, bg, nil)
}

func (p *passEncoder) SetVertexBuffer(id gpucore.BufferID, offset uint64) {
	if p.ended {
		return
	}
	p.a.mu.Lock()
	buf, ok := p.a.buffers[id]
	p.a.mu.Unlock()
	if !ok {
		p.err = fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
		return
	}
	p.rp.SetVertexBuffer(0, buf, offset)
}

func (p *passEncoder) Draw(vertexCount, firstVertex uint32) {
	if p.ended || p.err != nil {
		return
	}
	p.rp.Draw(vertexCount, 1, firstVertex, 0)
}

// End finishes the pass, submits it and waits for completion.
func (p *passEncoder) End() error {
	if p.ended {
		return nil
	}
	p.ended = true
	p.rp.End()
	if p.err != nil {
		p.encoder.DiscardEncoding()
		return p.err
	}
	return p.a.submit(p.encoder)
}

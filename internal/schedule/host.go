package schedule

// FrameHandle identifies one requested frame callback.
type FrameHandle uint64

// FrameHost is the host's display-refresh callback source: the equivalent
// of requestAnimationFrame / cancelAnimationFrame. Callbacks must run on
// the goroutine that drives the chart.
type FrameHost interface {
	RequestFrame(fn func()) FrameHandle
	CancelFrame(h FrameHandle)
}

// ManualHost is a FrameHost whose frames are stepped explicitly. Offline
// rendering uses it to drain all work, tests use it to observe turns.
type ManualHost struct {
	next    FrameHandle
	pending []frameRequest
}

type frameRequest struct {
	handle FrameHandle
	fn     func()
}

// RequestFrame queues fn for the next Step.
func (h *ManualHost) RequestFrame(fn func()) FrameHandle {
	h.next++
	h.pending = append(h.pending, frameRequest{handle: h.next, fn: fn})
	return h.next
}

// CancelFrame drops a queued callback.
func (h *ManualHost) CancelFrame(handle FrameHandle) {
	for i, r := range h.pending {
		if r.handle == handle {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			return
		}
	}
}

// Len returns the number of queued callbacks.
func (h *ManualHost) Len() int {
	return len(h.pending)
}

// Step runs the callbacks queued before the call, as one display refresh
// would. Callbacks requested while stepping wait for the next Step. It
// reports whether anything ran.
func (h *ManualHost) Step() bool {
	if len(h.pending) == 0 {
		return false
	}
	batch := h.pending
	h.pending = nil
	for _, r := range batch {
		r.fn()
	}
	return true
}

// Drain steps until no callbacks remain and returns the number of steps.
func (h *ManualHost) Drain() int {
	n := 0
	for h.Step() {
		n++
	}
	return n
}

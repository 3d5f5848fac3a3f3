// Package schedule issues draw work in time-sliced increments across
// display refreshes so that very large datasets never block the
// interaction thread.
package schedule

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultRefreshInterval is one display refresh at 60 Hz.
const DefaultRefreshInterval = time.Second / 60

// DrawFunc draws samples [first, first+count) for one block. block is the
// zero-based increment index within the current redraw.
type DrawFunc func(block, first, count int)

// Config configures a Scheduler.
type Config struct {
	// RefreshInterval is the host's display refresh period.
	RefreshInterval time.Duration

	// BudgetMultiplier scales RefreshInterval into the per-turn time budget.
	BudgetMultiplier float64

	// Clock measures elapsed time inside a turn. Defaults to the real
	// clock; tests use clock.NewMock().
	Clock clock.Clock

	Logger  *slog.Logger
	Metrics *Metrics
}

// Scheduler runs block draws for independent keys. It is not safe for
// concurrent use: the host must deliver frame callbacks on the same
// goroutine that calls Schedule.
type Scheduler struct {
	host    FrameHost
	clock   clock.Clock
	budget  time.Duration
	logger  *slog.Logger
	metrics *Metrics

	jobs map[string]*job
}

// job is one in-flight redraw for a key. A superseded job is marked
// cancelled; its continuation checks the flag before doing anything.
type job struct {
	key       string
	total     int
	block     int
	next      int
	index     int
	turns     int
	draw      DrawFunc
	done      func()
	handle    FrameHandle
	pending   bool
	cancelled bool
}

// New creates a scheduler driven by host.
func New(host FrameHost, cfg Config) *Scheduler {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	mult := cfg.BudgetMultiplier
	if mult <= 0 {
		mult = 1
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		host:    host,
		clock:   clk,
		budget:  time.Duration(float64(interval) * mult),
		logger:  logger,
		metrics: cfg.Metrics,
		jobs:    make(map[string]*job),
	}
}

// Budget returns the per-turn time budget.
func (s *Scheduler) Budget() time.Duration {
	return s.budget
}

// Schedule starts drawing total samples for key in blocks of blockLines,
// superseding any in-flight redraw for the same key. The first turn runs
// before Schedule returns; remaining turns run on later frame callbacks.
// done, if non-nil, runs once after the last block.
func (s *Scheduler) Schedule(key string, total, blockLines int, draw DrawFunc, done func()) {
	s.Cancel(key)
	if total <= 0 {
		if done != nil {
			done()
		}
		return
	}
	if blockLines <= 0 {
		blockLines = total
	}
	j := &job{key: key, total: total, block: blockLines, draw: draw, done: done}
	s.jobs[key] = j
	s.turn(j)
}

// Cancel invalidates the in-flight continuation for key, if any. A
// cancelled redraw is a normal outcome, not an error.
func (s *Scheduler) Cancel(key string) {
	j, ok := s.jobs[key]
	if !ok {
		return
	}
	delete(s.jobs, key)
	j.cancelled = true
	if j.pending {
		s.host.CancelFrame(j.handle)
		j.pending = false
	}
	s.metrics.cancelled(key)
	s.logger.Debug("redraw superseded", "key", key, "drawn", j.next, "total", j.total)
}

// Pending reports whether key has a continuation waiting for a frame.
func (s *Scheduler) Pending(key string) bool {
	j, ok := s.jobs[key]
	return ok && j.pending
}

// CancelAll cancels every in-flight redraw.
func (s *Scheduler) CancelAll() {
	for key := range s.jobs {
		s.Cancel(key)
	}
}

// turn draws at least one block, then keeps drawing while the turn is
// within budget. Leftover work is continued on the next frame.
func (s *Scheduler) turn(j *job) {
	start := s.clock.Now()
	j.turns++
	s.metrics.turn(j.key)
	for {
		count := min(j.block, j.total-j.next)
		j.draw(j.index, j.next, count)
		j.next += count
		j.index++
		s.metrics.block(j.key)

		if j.next >= j.total {
			s.finish(j)
			return
		}
		if s.clock.Since(start) >= s.budget {
			break
		}
	}
	j.pending = true
	j.handle = s.host.RequestFrame(func() { s.resume(j) })
}

func (s *Scheduler) resume(j *job) {
	if j.cancelled {
		return
	}
	j.pending = false
	s.turn(j)
}

func (s *Scheduler) finish(j *job) {
	if s.jobs[j.key] == j {
		delete(s.jobs, j.key)
	}
	s.logger.Debug("redraw complete", "key", j.key, "blocks", j.index, "turns", j.turns)
	if j.done != nil {
		j.done()
	}
}

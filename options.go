package parcoords

import (
	"log/slog"

	"github.com/benbjohnson/clock"

	"github.com/gogpu/parcoords/internal/schedule"
)

// FrameHost is the host's display-refresh callback source, the equivalent
// of requestAnimationFrame and cancelAnimationFrame.
type FrameHost = schedule.FrameHost

// FrameHandle identifies a requested frame callback.
type FrameHandle = schedule.FrameHandle

// ChartOption configures a Chart during creation.
//
// Example:
//
//	c, err := parcoords.NewChart(ctx, adapter, ds, cfg,
//	    parcoords.WithFrameHost(host),
//	    parcoords.WithOnBrush(func(id string, axis int, lo, hi float64) {
//	        log.Printf("%s: axis %d brushed to [%g, %g]", id, axis, lo, hi)
//	    }))
type ChartOption func(*chartOptions)

type chartOptions struct {
	host        FrameHost
	clock       clock.Clock
	metrics     *Metrics
	id          string
	logger      *slog.Logger
	onAxisOrder func(chartID string, order []int)
	onBrush     func(chartID string, axis int, lo, hi float64)
}

// WithFrameHost drives block scheduling from the host's refresh callback.
// Frame callbacks may arrive on any goroutine; the chart serializes them
// with its other calls. Without a host the chart queues frames internally
// and Flush runs them.
func WithFrameHost(h FrameHost) ChartOption {
	return func(o *chartOptions) {
		o.host = h
	}
}

// WithClock replaces the clock that measures scheduler budgets.
func WithClock(c clock.Clock) ChartOption {
	return func(o *chartOptions) {
		o.clock = c
	}
}

// WithMetrics records chart activity into m.
func WithMetrics(m *Metrics) ChartOption {
	return func(o *chartOptions) {
		o.metrics = m
	}
}

// WithChartID sets the id passed to callbacks. The default is a random
// UUID.
func WithChartID(id string) ChartOption {
	return func(o *chartOptions) {
		o.id = id
	}
}

// WithLogger overrides the package logger for one chart.
func WithLogger(l *slog.Logger) ChartOption {
	return func(o *chartOptions) {
		o.logger = l
	}
}

// WithOnAxisOrder is called after an axis drag ends, with the original
// variable indices in their new screen order.
func WithOnAxisOrder(fn func(chartID string, order []int)) ChartOption {
	return func(o *chartOptions) {
		o.onAxisOrder = fn
	}
}

// WithOnBrush is called after a brush gesture ends, with the final range
// of the axis in domain units. A cleared brush reports the full extent.
func WithOnBrush(fn func(chartID string, axis int, lo, hi float64)) ChartOption {
	return func(o *chartOptions) {
		o.onBrush = fn
	}
}

package parcoords

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting altogether.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the package-wide logger. Charts created afterwards
// pass it down to the scheduler, renderers and controller unless
// WithLogger overrides it per chart. By default nothing is logged.
//
// Log levels used by parcoords:
//   - [slog.LevelDebug]: buffer sizes, block counts, gesture transitions
//   - [slog.LevelInfo]: chart lifecycle, GPU adapter selection
//   - [slog.LevelWarn]: recoverable problems such as a failed readback
//
// Pass nil to restore the silent default. SetLogger is safe for concurrent
// use.
//
// Example:
//
//	parcoords.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the package-wide logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

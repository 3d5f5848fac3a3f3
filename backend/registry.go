package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/parcoords/gpucore"
)

// Backend names.
const (
	Vulkan = "vulkan"
	Noop   = "noop"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered or no backend could be opened.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Device is an opened GPU device. Close releases it and everything
// created on it.
type Device interface {
	gpucore.Adapter
	Close()
}

// Factory opens a device.
type Factory func(logger *slog.Logger) (Device, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)

	// Priority order for Default; the noop device is the last resort.
	priority = []string{Vulkan, Noop}
)

// Register registers a factory under name, replacing any previous one.
// It is typically called from init().
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend. Useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens the named backend.
func Open(name string, logger *slog.Logger) (Device, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return f(logger)
}

// Default opens the first backend in priority order that succeeds, then
// any other registered backend. It logs a warning for every backend that
// fails to open.
func Default(logger *slog.Logger) (Device, string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	names := Available()
	slices.SortStableFunc(names, func(a, b string) int {
		return rank(a) - rank(b)
	})
	for _, name := range names {
		dev, err := Open(name, logger)
		if err == nil {
			return dev, name, nil
		}
		logger.Warn("backend: open failed", "backend", name, "err", err)
	}
	return nil, "", ErrBackendNotAvailable
}

func rank(name string) int {
	if i := slices.Index(priority, name); i >= 0 {
		return i
	}
	return len(priority)
}

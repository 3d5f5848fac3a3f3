//go:build !nogpu

package native

import (
	"log/slog"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/parcoords/backend"
)

func init() {
	backend.Register(backend.Vulkan, func(logger *slog.Logger) (backend.Device, error) {
		return OpenStandalone(gputypes.BackendVulkan, Options{Logger: logger})
	})
	backend.Register(backend.Noop, func(logger *slog.Logger) (backend.Device, error) {
		return OpenNoop(Options{Logger: logger})
	})
}

// Package backend is the registry of GPU device backends a chart can be
// rendered on.
//
// Backends register a Factory from init() under a name. Importing
// backend/native registers "vulkan" and "noop":
//
//	import _ "github.com/gogpu/parcoords/backend/native"
//
// Use Open to request a backend by name, or Default to take the first one
// in priority order that opens successfully:
//
//	dev, err := backend.Open(backend.Vulkan, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// # Available Backends
//
//   - "vulkan": a standalone Vulkan device via gogpu/wgpu
//   - "noop": the wgpu noop device; every call succeeds and readbacks are
//     blank, which suits dry runs and CI
package backend

// Package gpucore provides the GPU abstraction used by the parcoords line
// renderers.
//
// This package defines the [Adapter] interface, which abstracts over the
// backend that owns the actual device, allowing the same renderer to work
// with:
//   - gogpu/wgpu HAL devices (see backend/native)
//   - recording fakes for deterministic tests (see internal/gputest)
//
// # Architecture
//
//	               +------------------+
//	               |  internal/lines  |
//	               | (line renderer)  |
//	               +--------+---------+
//	                        |
//	               +--------v---------+
//	               |  gpucore.Adapter |
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| native adapter  |          |  gputest fake   |
//	|  (hal.Device)   |          |   (recorder)    |
//	+-----------------+          +-----------------+
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [TargetID], etc.).
// Adapters are responsible for tracking the mapping between IDs and actual
// GPU resources. Nothing is released by garbage collection: every Create*
// has a matching Destroy* that the owner must call.
package gpucore

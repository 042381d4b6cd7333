// Package graphics manages GPU resources for a frame-graph renderer.
//
// # Overview
//
// graphics provides generation-tagged handles, per-kind resource pools and
// a declare/compile/execute frame graph on top of pluggable GPU backends.
// Transient render targets and buffers are declared every frame, resolved
// to pooled physical resources at execution time, and recycled across
// frames so that a steady-state frame performs no GPU allocations.
//
// # Quick Start
//
//	import (
//		"github.com/malliky/Graphics"
//		"github.com/malliky/Graphics/gpu"
//	)
//
//	backend, _ := gpu.InitDefault()
//	g, _ := graphics.NewGraph(graphics.GraphOptions{Backend: backend})
//	defer g.Close()
//
//	g.BeginExecution()
//	color, _ := g.CreateTexture(gpu.DefaultTextureDescription(1920, 1080,
//		gputypes.TextureFormatRGBA8Unorm))
//	g.AddPass("tonemap", graphics.PassDesc{
//		Writes: []graphics.Handle{color},
//		Execute: func(pc *graphics.PassContext) error {
//			id, err := pc.Texture(color)
//			// record GPU work against id
//			return err
//		},
//	})
//	err := g.Execute()
//
// # Handles
//
// A Handle names a resource within one execution of the graph. Handles
// carry a validity tag derived from the execution counter; a handle kept
// beyond its execution stops resolving instead of touching recycled
// memory. Shared resources carry a reserved tag and stay resolvable
// across executions until released.
//
// # Architecture
//
// The module is organized into:
//   - Public API: Graph, Handle, FrameController, Pool, records
//   - gpu: backend-neutral ids, descriptions, registry, headless backend
//   - gpu/wgpu: Pure Go GPU backend (gogpu/wgpu hal)
//   - gpu/vulkan: Vulkan backend (vulkan-go bindings)
//
// # Thread Safety
//
// Graph, FrameController, Pool and records are single-threaded: one
// goroutine declares, one execution runs at a time. The backend registry
// and the package logger are safe for concurrent use.
package graphics

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)

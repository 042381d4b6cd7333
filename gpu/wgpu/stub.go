//go:build nogpu

package wgpu

import "github.com/malliky/Graphics/gpu"

// init registers a nil-returning factory when the nogpu tag is set.
// This allows code to compile without GPU driver linkage while still
// allowing gpu.Get(gpu.BackendWGPU) to return nil gracefully.
func init() {
	gpu.Register(gpu.BackendWGPU, func() gpu.Backend {
		return nil
	})
}

// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !vulkan

package vulkan

import "github.com/malliky/Graphics/gpu"

// init registers a nil-returning factory when the vulkan tag is not set.
// This allows code to compile without the Vulkan loader linkage while
// still allowing gpu.Get(gpu.BackendVulkan) to return nil gracefully.
func init() {
	gpu.Register(gpu.BackendVulkan, func() gpu.Backend {
		return nil
	})
}

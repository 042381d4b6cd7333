// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package vulkan provides a GPU backend over the vulkan-go bindings.
//
// The backend is built only under the vulkan build tag, since it links
// against the Vulkan loader through cgo. Without the tag the package
// registers a nil factory so backend selection degrades gracefully.
//
// The application owns loader bring-up: call vk.SetGetInstanceProcAddr
// and vk.Init before Backend.Init. Every created texture and buffer
// carries its own dedicated vk.DeviceMemory allocation; pooling and
// aliasing happen in the resource layer above.
package vulkan

// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu defines the backend-neutral GPU surface of the module:
// resource identifiers, creation descriptors with structural hashing,
// the Backend interface, and the backend registry.
//
// # Overview
//
// A Backend owns physical GPU resources. Callers describe what they need
// with TextureDescription or BufferDescription and receive opaque ids:
//
//	b := gpu.MustDefault()
//	if err := b.Init(); err != nil {
//		// no usable backend on this machine
//	}
//	defer b.Close()
//
//	desc := gpu.DefaultTextureDescription(256, 256, gputypes.TextureFormatRGBA8Unorm)
//	id, err := b.CreateTexture(&desc)
//
// Descriptions hash structurally via Hash(). Two descriptions with the
// same dimensions, format and usage produce the same hash regardless of
// their Label, which is what allows pooling layers above this package to
// recycle physical resources between logically distinct users.
//
// Backends register themselves in init() and are selected by name or by
// priority through Default. The headless backend in this package is always
// registered and performs no driver calls, which makes it the natural
// target for tests and CI.
//
// # Thread Safety
//
// The registry is safe for concurrent use. Individual backends are
// single-threaded unless their documentation says otherwise.
package gpu

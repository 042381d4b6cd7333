// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

// TextureID identifies a physical texture owned by a Backend.
// The zero value is InvalidID and never refers to a live resource.
type TextureID uint64

// BufferID identifies a physical buffer owned by a Backend.
// The zero value is InvalidID and never refers to a live resource.
type BufferID uint64

// InvalidID is the zero resource id. Backends never return it from a
// successful create call.
const InvalidID = 0

// ResourceKind distinguishes the two resource families the module manages.
type ResourceKind uint8

const (
	// KindTexture covers texture-like resources: sampled textures,
	// render targets, depth attachments.
	KindTexture ResourceKind = iota

	// KindBuffer covers buffer-like resources: vertex, index, uniform
	// and storage buffers.
	KindBuffer
)

// String returns the kind name for logs and error messages.
func (k ResourceKind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

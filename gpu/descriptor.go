// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"hash"
	"hash/fnv"

	"github.com/gogpu/gputypes"
)

// TextureDescription describes parameters for creating a texture.
// This mirrors the WebGPU GPUTextureDescriptor specification.
type TextureDescription struct {
	// Label is an optional debug label. It is excluded from Hash so that
	// differently named resources can still share pooled physicals.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// Depth is the texture depth for 3D textures, or array layer count.
	// Use 1 for regular 2D textures.
	Depth uint32

	// MipLevelCount is the number of mipmap levels.
	// Use 1 for no mipmaps.
	MipLevelCount uint32

	// SampleCount is the number of samples for multisampling.
	// Use 1 for no multisampling.
	SampleCount uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage
}

// DefaultTextureDescription returns a TextureDescription with sensible
// defaults. Only Width, Height, and Format need to be set.
func DefaultTextureDescription(width, height uint32, format gputypes.TextureFormat) TextureDescription {
	return TextureDescription{
		Width:         width,
		Height:        height,
		Depth:         1,
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment,
	}
}

// Hash computes an FNV-1a hash over the structural fields of the
// description. Two descriptions with equal dimensions, format and usage
// hash identically; the Label does not participate. Distinct descriptions
// colliding on the same hash is accepted and treated as compatible for
// pooling purposes.
func (d *TextureDescription) Hash() uint64 {
	h := fnv.New64a()

	hashWriteUint32(h, d.Width)
	hashWriteUint32(h, d.Height)
	hashWriteUint32(h, d.Depth)
	hashWriteUint32(h, d.MipLevelCount)
	hashWriteUint32(h, d.SampleCount)
	hashWriteUint32(h, uint32(d.Format))
	hashWriteUint32(h, uint32(d.Usage))

	return h.Sum64()
}

// BufferDescription describes parameters for creating a buffer.
type BufferDescription struct {
	// Label is an optional debug label. It is excluded from Hash so that
	// differently named resources can still share pooled physicals.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage

	// MappedAtCreation requests the buffer mapped for writing on creation.
	MappedAtCreation bool
}

// DefaultBufferDescription returns a BufferDescription with sensible
// defaults for a shader-visible scratch buffer. Only Size needs to be set.
func DefaultBufferDescription(size uint64) BufferDescription {
	return BufferDescription{
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	}
}

// Hash computes an FNV-1a hash over the structural fields of the
// description. The Label does not participate.
func (d *BufferDescription) Hash() uint64 {
	h := fnv.New64a()

	hashWriteUint64(h, d.Size)
	hashWriteUint32(h, uint32(d.Usage))
	hashWriteBool(h, d.MappedAtCreation)

	return h.Sum64()
}

// =============================================================================
// Helper Functions for Hashing
// =============================================================================

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteUint64 writes a uint64 to the hash.
func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}

// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "github.com/gogpu/gputypes"

// FormatByteSize returns the bytes per pixel for a texture format.
// Unrecognized formats report 4, the RGBA8 size.
func FormatByteSize(format gputypes.TextureFormat) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatDepth24PlusStencil8:
		return 4
	default:
		return 4 // Default to RGBA8
	}
}

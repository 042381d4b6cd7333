// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build vulkan

package vulkan

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	vk "github.com/vulkan-go/vulkan"
)

// textureFormat maps a texture format to its Vulkan equivalent.
// Formats outside the supported set report an error.
func textureFormat(format gputypes.TextureFormat) (vk.Format, error) {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return vk.FormatR8Unorm, nil
	case gputypes.TextureFormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm, nil
	case gputypes.TextureFormatBGRA8Unorm:
		return vk.FormatB8g8r8a8Unorm, nil
	case gputypes.TextureFormatDepth24PlusStencil8:
		return vk.FormatD24UnormS8Uint, nil
	default:
		return vk.FormatUndefined, fmt.Errorf("vulkan: unsupported texture format %d", format)
	}
}

// isDepthFormat reports whether the format carries depth or stencil
// aspects. Render attachment usage maps to the depth-stencil attachment
// bit for these formats.
func isDepthFormat(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatDepth24PlusStencil8:
		return true
	default:
		return false
	}
}

// imageUsageFlags maps texture usage to Vulkan image usage bits.
// Usage bits outside the supported set report an error.
func imageUsageFlags(usage gputypes.TextureUsage, format gputypes.TextureFormat) (vk.ImageUsageFlags, error) {
	known := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
		gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment
	if rest := usage &^ known; rest != 0 {
		return 0, fmt.Errorf("vulkan: unsupported texture usage bits 0x%x", uint64(rest))
	}

	var flags vk.ImageUsageFlags
	if usage&gputypes.TextureUsageCopySrc != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if usage&gputypes.TextureUsageCopyDst != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	if usage&gputypes.TextureUsageTextureBinding != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if usage&gputypes.TextureUsageRenderAttachment != 0 {
		if isDepthFormat(format) {
			flags |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		} else {
			flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
		}
	}
	if flags == 0 {
		return 0, errors.New("vulkan: texture usage is empty")
	}
	return flags, nil
}

// bufferUsageFlags maps buffer usage to Vulkan buffer usage bits.
// MapRead and MapWrite select the memory domain rather than a usage bit
// and are handled by isMappable. Usage bits outside the supported set
// report an error.
func bufferUsageFlags(usage gputypes.BufferUsage) (vk.BufferUsageFlags, error) {
	known := gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst |
		gputypes.BufferUsageStorage | gputypes.BufferUsageUniform |
		gputypes.BufferUsageVertex |
		gputypes.BufferUsageMapRead | gputypes.BufferUsageMapWrite
	if rest := usage &^ known; rest != 0 {
		return 0, fmt.Errorf("vulkan: unsupported buffer usage bits 0x%x", uint64(rest))
	}

	var flags vk.BufferUsageFlags
	if usage&gputypes.BufferUsageCopySrc != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if usage&gputypes.BufferUsageCopyDst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	if usage&gputypes.BufferUsageStorage != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	if usage&gputypes.BufferUsageUniform != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if usage&gputypes.BufferUsageVertex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if flags == 0 {
		return 0, errors.New("vulkan: buffer usage has no device usage")
	}
	return flags, nil
}

// isMappable reports whether the buffer must live in host-visible
// memory so WriteBuffer can map it.
func isMappable(usage gputypes.BufferUsage) bool {
	return usage&(gputypes.BufferUsageMapRead|gputypes.BufferUsageMapWrite) != 0
}

// sampleCountFlag maps a sample count to the Vulkan flag. Zero counts
// mean 1.
func sampleCountFlag(samples uint32) (vk.SampleCountFlagBits, error) {
	switch samples {
	case 0, 1:
		return vk.SampleCount1Bit, nil
	case 2:
		return vk.SampleCount2Bit, nil
	case 4:
		return vk.SampleCount4Bit, nil
	case 8:
		return vk.SampleCount8Bit, nil
	default:
		return vk.SampleCount1Bit, fmt.Errorf("vulkan: unsupported sample count %d", samples)
	}
}

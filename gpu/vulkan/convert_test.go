// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build vulkan

package vulkan

import (
	"testing"

	"github.com/gogpu/gputypes"
	vk "github.com/vulkan-go/vulkan"
)

func TestTextureFormat(t *testing.T) {
	tests := []struct {
		name   string
		format gputypes.TextureFormat
		want   vk.Format
	}{
		{"r8", gputypes.TextureFormatR8Unorm, vk.FormatR8Unorm},
		{"rgba8", gputypes.TextureFormatRGBA8Unorm, vk.FormatR8g8b8a8Unorm},
		{"bgra8", gputypes.TextureFormatBGRA8Unorm, vk.FormatB8g8r8a8Unorm},
		{"depth24stencil8", gputypes.TextureFormatDepth24PlusStencil8, vk.FormatD24UnormS8Uint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := textureFormat(tt.format)
			if err != nil {
				t.Fatalf("textureFormat(%v) = %v", tt.format, err)
			}
			if got != tt.want {
				t.Errorf("textureFormat(%v) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestTextureFormatUnsupported(t *testing.T) {
	if _, err := textureFormat(gputypes.TextureFormatUndefined); err == nil {
		t.Error("textureFormat(Undefined) should error")
	}
}

func TestImageUsageFlagsColorAttachment(t *testing.T) {
	flags, err := imageUsageFlags(
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageRenderAttachment,
		gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("imageUsageFlags() = %v", err)
	}
	want := vk.ImageUsageFlags(vk.ImageUsageSampledBit) | vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	if flags != want {
		t.Errorf("imageUsageFlags() = 0x%x, want 0x%x", flags, want)
	}
}

func TestImageUsageFlagsDepthAttachment(t *testing.T) {
	// Render attachment on a depth format must pick the depth-stencil bit.
	flags, err := imageUsageFlags(
		gputypes.TextureUsageRenderAttachment,
		gputypes.TextureFormatDepth24PlusStencil8)
	if err != nil {
		t.Fatalf("imageUsageFlags() = %v", err)
	}
	if flags != vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit) {
		t.Errorf("imageUsageFlags() = 0x%x, want depth-stencil attachment", flags)
	}
}

func TestImageUsageFlagsUnknownBits(t *testing.T) {
	if _, err := imageUsageFlags(gputypes.TextureUsage(1<<30), gputypes.TextureFormatRGBA8Unorm); err == nil {
		t.Error("imageUsageFlags with unknown bits should error")
	}
}

func TestImageUsageFlagsEmpty(t *testing.T) {
	if _, err := imageUsageFlags(0, gputypes.TextureFormatRGBA8Unorm); err == nil {
		t.Error("imageUsageFlags(0) should error")
	}
}

func TestBufferUsageFlags(t *testing.T) {
	flags, err := bufferUsageFlags(gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("bufferUsageFlags() = %v", err)
	}
	want := vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit) | vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	if flags != want {
		t.Errorf("bufferUsageFlags() = 0x%x, want 0x%x", flags, want)
	}
}

func TestBufferUsageFlagsMapOnlySelectsNoDeviceUsage(t *testing.T) {
	// MapRead and MapWrite select the memory domain; alone they leave no
	// device usage bits, which is an error.
	if _, err := bufferUsageFlags(gputypes.BufferUsageMapWrite); err == nil {
		t.Error("bufferUsageFlags(MapWrite) should error")
	}
}

func TestBufferUsageFlagsUnknownBits(t *testing.T) {
	if _, err := bufferUsageFlags(gputypes.BufferUsage(1 << 30)); err == nil {
		t.Error("bufferUsageFlags with unknown bits should error")
	}
}

func TestIsMappable(t *testing.T) {
	if !isMappable(gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc) {
		t.Error("MapWrite buffer should be mappable")
	}
	if isMappable(gputypes.BufferUsageStorage) {
		t.Error("Storage-only buffer should not be mappable")
	}
}

func TestSampleCountFlag(t *testing.T) {
	tests := []struct {
		samples uint32
		want    vk.SampleCountFlagBits
		wantErr bool
	}{
		{0, vk.SampleCount1Bit, false},
		{1, vk.SampleCount1Bit, false},
		{2, vk.SampleCount2Bit, false},
		{4, vk.SampleCount4Bit, false},
		{8, vk.SampleCount8Bit, false},
		{3, 0, true},
		{16, 0, true},
	}
	for _, tt := range tests {
		got, err := sampleCountFlag(tt.samples)
		if tt.wantErr {
			if err == nil {
				t.Errorf("sampleCountFlag(%d) should error", tt.samples)
			}
			continue
		}
		if err != nil {
			t.Errorf("sampleCountFlag(%d) = %v", tt.samples, err)
			continue
		}
		if got != tt.want {
			t.Errorf("sampleCountFlag(%d) = %v, want %v", tt.samples, got, tt.want)
		}
	}
}

// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import (
	"fmt"
	"image"
	"image/draw"
	"math/bits"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/malliky/Graphics/gpu"
)

// ImageOptions configures ImportImage.
type ImageOptions struct {
	// Label is the debug name of the created texture.
	Label string

	// GenerateMips requests a full mip chain down to 1x1, scaled with
	// Catmull-Rom filtering.
	GenerateMips bool

	// Usage overrides the default TextureBinding|CopyDst usage.
	Usage gputypes.TextureUsage
}

// ImportImage uploads an image into a new RGBA8 texture owned by the
// graph and returns a shared handle for it. The handle stays valid
// across executions until ReleaseSharedTexture.
//
// Any image.Image is accepted; non-RGBA sources are converted. The
// backend must support texture uploads, otherwise
// gpu.ErrUploadNotSupported is returned.
func (g *Graph) ImportImage(img image.Image, opts ImageOptions) (Handle, error) {
	bounds := img.Bounds()
	width := uint32(bounds.Dx())
	height := uint32(bounds.Dy())
	if width == 0 || height == 0 {
		return Handle{}, fmt.Errorf("graphics: cannot import empty image (%dx%d)", width, height)
	}

	uploader, ok := g.backend.(gpu.TextureUploader)
	if !ok {
		return Handle{}, fmt.Errorf("%w: backend %q", gpu.ErrUploadNotSupported, g.backend.Name())
	}

	mipLevels := uint32(1)
	if opts.GenerateMips {
		mipLevels = MipLevelCount(width, height)
	}
	usage := opts.Usage
	if usage == 0 {
		usage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	}

	h, err := g.CreateSharedTexture(gpu.TextureDescription{
		Label:         opts.Label,
		Width:         width,
		Height:        height,
		Depth:         1,
		MipLevelCount: mipLevels,
		SampleCount:   1,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         usage,
	})
	if err != nil {
		return Handle{}, err
	}
	id := g.sharedTexture(h).physical

	level := toRGBA(img)
	if err := uploader.WriteTexture(id, 0, level.Pix); err != nil {
		_ = g.ReleaseSharedTexture(h)
		return Handle{}, fmt.Errorf("upload image %q: %w", opts.Label, err)
	}
	for mip := uint32(1); mip < mipLevels; mip++ {
		level = halveImage(level)
		if err := uploader.WriteTexture(id, mip, level.Pix); err != nil {
			_ = g.ReleaseSharedTexture(h)
			return Handle{}, fmt.Errorf("upload image %q mip %d: %w", opts.Label, mip, err)
		}
	}

	Logger().Debug("image imported",
		"name", opts.Label, "id", id, "width", width, "height", height, "mips", mipLevels)
	return h, nil
}

// MipLevelCount returns the length of the full mip chain for the given
// dimensions, down to and including 1x1.
func MipLevelCount(width, height uint32) uint32 {
	levels := uint32(bits.Len32(max(width, height)))
	if levels == 0 {
		return 1
	}
	return levels
}

// toRGBA normalizes an image to a tightly packed RGBA at the origin.
func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		if bounds.Min == (image.Point{}) && rgba.Stride == bounds.Dx()*4 {
			return rgba
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// halveImage scales an image down to the next mip level with Catmull-Rom
// filtering. Dimensions floor-halve and clamp at 1.
func halveImage(src *image.RGBA) *image.RGBA {
	w := src.Bounds().Dx() / 2
	if w < 1 {
		w = 1
	}
	h := src.Bounds().Dy() / 2
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

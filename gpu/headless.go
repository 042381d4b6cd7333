// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "fmt"

// HeadlessBackend is a driver-free backend that performs full resource
// bookkeeping without touching any GPU API.
//
// It allocates monotonically increasing ids, tracks live resources with
// byte-size accounting, and validates destroys, which makes it the
// reference backend for tests, CI, and dry runs. WriteTexture retains the
// uploaded bytes so tests can inspect what would have reached the GPU.
//
// HeadlessBackend is single-threaded, matching the execution model of the
// frame graph that drives it.
type HeadlessBackend struct {
	initialized bool

	nextTexture TextureID
	nextBuffer  BufferID

	textures   map[TextureID]TextureDescription
	buffers    map[BufferID]BufferDescription
	uploads    map[textureLevel][]byte
	bufferData map[BufferID][]byte

	allocatedBytes  uint64
	textureCreates  uint64
	bufferCreates   uint64
	textureDestroys uint64
	bufferDestroys  uint64
}

// textureLevel keys retained uploads by texture and mip level.
type textureLevel struct {
	id    TextureID
	level uint32
}

// init registers the headless backend on package import.
func init() {
	Register(BackendHeadless, func() Backend {
		return NewHeadlessBackend()
	})
}

// NewHeadlessBackend creates a new headless bookkeeping backend.
func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{}
}

// Name returns the backend identifier.
func (b *HeadlessBackend) Name() string {
	return BackendHeadless
}

// Init initializes the backend.
func (b *HeadlessBackend) Init() error {
	b.textures = make(map[TextureID]TextureDescription)
	b.buffers = make(map[BufferID]BufferDescription)
	b.uploads = make(map[textureLevel][]byte)
	b.bufferData = make(map[BufferID][]byte)
	b.initialized = true
	return nil
}

// Close releases all backend resources.
func (b *HeadlessBackend) Close() {
	b.textures = nil
	b.buffers = nil
	b.uploads = nil
	b.bufferData = nil
	b.allocatedBytes = 0
	b.initialized = false
}

// CreateTexture allocates a texture id and accounts for its size.
func (b *HeadlessBackend) CreateTexture(desc *TextureDescription) (TextureID, error) {
	if !b.initialized {
		return InvalidID, ErrNotInitialized
	}

	// Zero counts mean 1, matching WebGPU defaults.
	stored := *desc
	if stored.Depth == 0 {
		stored.Depth = 1
	}
	if stored.MipLevelCount == 0 {
		stored.MipLevelCount = 1
	}
	if stored.SampleCount == 0 {
		stored.SampleCount = 1
	}

	b.nextTexture++
	id := b.nextTexture
	b.textures[id] = stored
	b.allocatedBytes += textureByteSize(&stored)
	b.textureCreates++
	return id, nil
}

// DestroyTexture releases a texture id.
func (b *HeadlessBackend) DestroyTexture(id TextureID) error {
	if !b.initialized {
		return ErrNotInitialized
	}

	desc, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	delete(b.textures, id)
	for key := range b.uploads {
		if key.id == id {
			delete(b.uploads, key)
		}
	}
	b.allocatedBytes -= textureByteSize(&desc)
	b.textureDestroys++
	return nil
}

// CreateBuffer allocates a buffer id and accounts for its size.
func (b *HeadlessBackend) CreateBuffer(desc *BufferDescription) (BufferID, error) {
	if !b.initialized {
		return InvalidID, ErrNotInitialized
	}

	b.nextBuffer++
	id := b.nextBuffer
	b.buffers[id] = *desc
	b.allocatedBytes += desc.Size
	b.bufferCreates++
	return id, nil
}

// DestroyBuffer releases a buffer id.
func (b *HeadlessBackend) DestroyBuffer(id BufferID) error {
	if !b.initialized {
		return ErrNotInitialized
	}

	desc, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	delete(b.buffers, id)
	delete(b.bufferData, id)
	b.allocatedBytes -= desc.Size
	b.bufferDestroys++
	return nil
}

// WriteTexture retains the uploaded bytes for later inspection.
func (b *HeadlessBackend) WriteTexture(id TextureID, mipLevel uint32, data []byte) error {
	if !b.initialized {
		return ErrNotInitialized
	}

	desc, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	if mipLevel >= desc.MipLevelCount {
		return fmt.Errorf("%w: texture %d has no mip level %d", ErrUnknownResource, id, mipLevel)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	b.uploads[textureLevel{id: id, level: mipLevel}] = buf
	return nil
}

// WriteBuffer copies bytes into a live buffer at an offset, bounds
// checked against the declared size.
func (b *HeadlessBackend) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	if !b.initialized {
		return ErrNotInitialized
	}

	desc, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset+uint64(len(data)) > desc.Size {
		return fmt.Errorf("gpu: write of %d bytes at offset %d exceeds buffer %d size %d",
			len(data), offset, id, desc.Size)
	}

	buf := b.bufferData[id]
	if buf == nil {
		buf = make([]byte, desc.Size)
		b.bufferData[id] = buf
	}
	copy(buf[offset:], data)
	return nil
}

// UploadedBytes returns the bytes last written to a mip level of a
// texture, or nil if nothing was uploaded.
func (b *HeadlessBackend) UploadedBytes(id TextureID, mipLevel uint32) []byte {
	return b.uploads[textureLevel{id: id, level: mipLevel}]
}

// BufferBytes returns the current contents of a buffer, or nil when
// nothing was written to it.
func (b *HeadlessBackend) BufferBytes(id BufferID) []byte {
	return b.bufferData[id]
}

// TextureDescription returns the description a live texture was created
// with.
func (b *HeadlessBackend) TextureDescription(id TextureID) (TextureDescription, bool) {
	desc, ok := b.textures[id]
	return desc, ok
}

// AliveTextures returns the number of live textures.
func (b *HeadlessBackend) AliveTextures() int { return len(b.textures) }

// AliveBuffers returns the number of live buffers.
func (b *HeadlessBackend) AliveBuffers() int { return len(b.buffers) }

// AllocatedBytes returns the approximate bytes held by live resources.
// Texture sizes count mip level 0 only.
func (b *HeadlessBackend) AllocatedBytes() uint64 { return b.allocatedBytes }

// TextureCreates returns the total number of CreateTexture calls that
// succeeded since Init.
func (b *HeadlessBackend) TextureCreates() uint64 { return b.textureCreates }

// BufferCreates returns the total number of CreateBuffer calls that
// succeeded since Init.
func (b *HeadlessBackend) BufferCreates() uint64 { return b.bufferCreates }

// TextureDestroys returns the total number of DestroyTexture calls that
// succeeded since Init.
func (b *HeadlessBackend) TextureDestroys() uint64 { return b.textureDestroys }

// BufferDestroys returns the total number of DestroyBuffer calls that
// succeeded since Init.
func (b *HeadlessBackend) BufferDestroys() uint64 { return b.bufferDestroys }

// textureByteSize approximates the level-0 byte size of a texture.
func textureByteSize(desc *TextureDescription) uint64 {
	depth := desc.Depth
	if depth == 0 {
		depth = 1
	}
	return uint64(desc.Width) * uint64(desc.Height) * uint64(depth) * uint64(FormatByteSize(desc.Format))
}

// Ensure HeadlessBackend implements the backend contracts.
var (
	_ Backend         = (*HeadlessBackend)(nil)
	_ TextureUploader = (*HeadlessBackend)(nil)
	_ BufferUploader  = (*HeadlessBackend)(nil)
)

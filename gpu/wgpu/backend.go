// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package wgpu provides a Pure Go GPU backend using gogpu/wgpu/hal.
package wgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/malliky/Graphics/gpu"
)

// init registers the wgpu backend on package import.
func init() {
	gpu.Register(gpu.BackendWGPU, func() gpu.Backend {
		return New()
	})
}

// Backend creates physical resources on a gogpu/wgpu HAL device.
//
// The device either comes from an external provider (SetDeviceProvider)
// or is created standalone during Init via the Vulkan HAL backend.
// Resources are tracked in id maps so callers only ever see opaque ids.
//
// Thread Safety: Backend is safe for concurrent use. All resource
// operations are protected by a mutex.
type Backend struct {
	mu sync.RWMutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// nextID generates unique resource ids. 0 stays invalid.
	nextID atomic.Uint64

	textures map[gpu.TextureID]trackedTexture
	buffers  map[gpu.BufferID]hal.Buffer

	initialized    bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

// trackedTexture pairs a HAL texture with the description it was created
// with, so uploads can derive per-mip row layouts.
type trackedTexture struct {
	texture hal.Texture
	desc    gpu.TextureDescription
}

// New creates a wgpu backend. Init must be called before use.
func New() *Backend {
	b := &Backend{}
	b.nextID.Store(1)
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return gpu.BackendWGPU
}

// SetLogger sets the logger for this package.
// Called when the owning graph propagates logging configuration.
func (b *Backend) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetDeviceProvider switches the backend to a shared GPU device from an
// external provider (e.g., a gogpu application context). The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue.
//
// Must be called before Init. Resources created on a previous device are
// not migrated.
func (b *Backend) SetDeviceProvider(provider gpu.DeviceHandle) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return fmt.Errorf("wgpu: nil device provider")
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.externalDevice && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}

	b.device = device
	b.queue = queue
	b.externalDevice = true
	slogger().Debug("wgpu: switched to shared GPU device")
	return nil
}

// Init initializes the backend. Without an external device it creates a
// standalone Vulkan device on the first adapter, preferring discrete and
// integrated GPUs.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	if b.device == nil {
		if err := b.initStandalone(); err != nil {
			return err
		}
	}

	b.textures = make(map[gpu.TextureID]trackedTexture)
	b.buffers = make(map[gpu.BufferID]hal.Buffer)
	b.initialized = true
	return nil
}

// initStandalone creates an owned Vulkan device.
// Must be called with mu held.
func (b *Backend) initStandalone() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan HAL backend not registered", gpu.ErrBackendNotAvailable)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("%w: no GPU adapters found", gpu.ErrBackendNotAvailable)
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("wgpu: open device: %w", err)
	}

	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	slogger().Info("wgpu: GPU initialized", "adapter", selected.Info.Name)
	return nil
}

// Close destroys all live resources and, for standalone devices, the
// device and instance.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device != nil {
		for id, tracked := range b.textures {
			b.device.DestroyTexture(tracked.texture)
			delete(b.textures, id)
		}
		for id, buffer := range b.buffers {
			b.device.DestroyBuffer(buffer)
			delete(b.buffers, id)
		}
	}

	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.device = nil
	b.instance = nil
	b.queue = nil
	b.initialized = false
	b.externalDevice = false
}

// newID generates a unique resource id.
func (b *Backend) newID() uint64 {
	return b.nextID.Add(1) - 1
}

// CreateTexture allocates a HAL texture for the description.
func (b *Backend) CreateTexture(desc *gpu.TextureDescription) (gpu.TextureID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return gpu.InvalidID, gpu.ErrNotInitialized
	}

	// Zero counts mean 1, matching WebGPU defaults. The normalized copy is
	// retained so upload row math sees the values the texture was built with.
	normalized := *desc
	if normalized.Depth == 0 {
		normalized.Depth = 1
	}
	if normalized.MipLevelCount == 0 {
		normalized.MipLevelCount = 1
	}
	if normalized.SampleCount == 0 {
		normalized.SampleCount = 1
	}

	texture, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label: normalized.Label,
		Size: hal.Extent3D{
			Width:              normalized.Width,
			Height:             normalized.Height,
			DepthOrArrayLayers: normalized.Depth,
		},
		MipLevelCount: normalized.MipLevelCount,
		SampleCount:   normalized.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        normalized.Format,
		Usage:         normalized.Usage,
	})
	if err != nil {
		return gpu.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}

	id := gpu.TextureID(b.newID())
	b.textures[id] = trackedTexture{texture: texture, desc: normalized}
	return id, nil
}

// DestroyTexture releases a texture previously returned by CreateTexture.
func (b *Backend) DestroyTexture(id gpu.TextureID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return gpu.ErrNotInitialized
	}
	tracked, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrUnknownResource, id)
	}
	delete(b.textures, id)
	b.device.DestroyTexture(tracked.texture)
	return nil
}

// CreateBuffer allocates a HAL buffer for the description.
func (b *Backend) CreateBuffer(desc *gpu.BufferDescription) (gpu.BufferID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return gpu.InvalidID, gpu.ErrNotInitialized
	}

	// Align to 4 bytes for copy operations.
	const copyBufferAlignment uint64 = 4
	alignedSize := (desc.Size + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)

	buffer, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label:            desc.Label,
		Size:             alignedSize,
		Usage:            desc.Usage,
		MappedAtCreation: desc.MappedAtCreation,
	})
	if err != nil {
		return gpu.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}

	id := gpu.BufferID(b.newID())
	b.buffers[id] = buffer
	return id, nil
}

// DestroyBuffer releases a buffer previously returned by CreateBuffer.
func (b *Backend) DestroyBuffer(id gpu.BufferID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return gpu.ErrNotInitialized
	}
	buffer, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpu.ErrUnknownResource, id)
	}
	delete(b.buffers, id)
	b.device.DestroyBuffer(buffer)
	return nil
}

// WriteTexture copies tightly packed pixel data into one mip level of a
// texture through the queue.
func (b *Backend) WriteTexture(id gpu.TextureID, mipLevel uint32, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return gpu.ErrNotInitialized
	}
	tracked, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrUnknownResource, id)
	}
	if mipLevel >= tracked.desc.MipLevelCount {
		return fmt.Errorf("%w: texture %d has no mip level %d", gpu.ErrUnknownResource, id, mipLevel)
	}

	mipW := max(tracked.desc.Width>>mipLevel, 1)
	mipH := max(tracked.desc.Height>>mipLevel, 1)

	b.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tracked.texture,
			MipLevel: mipLevel,
			Origin:   hal.Origin3D{},
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  mipW * gpu.FormatByteSize(tracked.desc.Format),
			RowsPerImage: mipH,
		},
		&hal.Extent3D{Width: mipW, Height: mipH, DepthOrArrayLayers: 1},
	)
	return nil
}

// WriteBuffer copies bytes into a buffer at an offset through the queue.
func (b *Backend) WriteBuffer(id gpu.BufferID, offset uint64, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return gpu.ErrNotInitialized
	}
	buffer, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpu.ErrUnknownResource, id)
	}
	if len(data) == 0 {
		return nil
	}

	b.queue.WriteBuffer(buffer, offset, data)
	return nil
}

// AliveTextures returns the number of live textures.
func (b *Backend) AliveTextures() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.textures)
}

// AliveBuffers returns the number of live buffers.
func (b *Backend) AliveBuffers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buffers)
}

// Ensure Backend implements the backend contracts.
var (
	_ gpu.Backend             = (*Backend)(nil)
	_ gpu.TextureUploader     = (*Backend)(nil)
	_ gpu.BufferUploader      = (*Backend)(nil)
	_ gpu.DeviceProviderAware = (*Backend)(nil)
)

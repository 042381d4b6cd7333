// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build vulkan

package vulkan

import (
	"errors"
	"fmt"
	"log"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/malliky/Graphics/gpu"
)

// init registers the vulkan backend on package import.
func init() {
	gpu.Register(gpu.BackendVulkan, func() gpu.Backend {
		return New()
	})
}

// Backend creates physical resources through the vulkan-go bindings.
//
// The application must have initialized the Vulkan loader before Init is
// called (vk.SetGetInstanceProcAddr followed by vk.Init). Init then
// creates an instance, picks the first physical device with a graphics
// queue family, and creates a logical device. Every texture and buffer
// owns its backing vk.DeviceMemory allocation; suballocation is a layer
// above this backend.
//
// Backend is single-threaded, matching the execution model of the frame
// graph that drives it.
type Backend struct {
	initialized bool

	instance    vk.Instance
	physical    vk.PhysicalDevice
	device      vk.Device
	queue       vk.Queue
	queueFamily uint32
	memProps    vk.PhysicalDeviceMemoryProperties

	// nextID generates unique resource ids. 0 stays invalid.
	nextID uint64

	textures map[gpu.TextureID]textureAlloc
	buffers  map[gpu.BufferID]bufferAlloc
}

// textureAlloc is a live image with its dedicated memory allocation.
type textureAlloc struct {
	image  vk.Image
	memory vk.DeviceMemory
}

// bufferAlloc is a live buffer with its dedicated memory allocation.
// mappable records whether the memory is host visible, which WriteBuffer
// requires.
type bufferAlloc struct {
	buffer   vk.Buffer
	memory   vk.DeviceMemory
	size     uint64
	mappable bool
}

// New creates a vulkan backend. Init must be called before use.
func New() *Backend {
	return &Backend{nextID: 1}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return gpu.BackendVulkan
}

// vkErr converts a non-success result into an error naming the call.
func vkErr(op string, ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return fmt.Errorf("vulkan: %s: %s (%d)", op, vk.Error(ret).Error(), ret)
}

// Init creates the instance, selects a physical device and brings up a
// logical device with one graphics queue.
func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:            vk.StructureTypeApplicationInfo,
			PApplicationName: "graphics\x00",
			PEngineName:      "graphics\x00",
			ApiVersion:       vk.ApiVersion10,
		},
	}, nil, &instance)
	if err := vkErr("create instance", ret); err != nil {
		return fmt.Errorf("%w: %w", gpu.ErrBackendNotAvailable, err)
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return fmt.Errorf("vulkan: init instance: %w", err)
	}

	var gpuCount uint32
	ret = vk.EnumeratePhysicalDevices(instance, &gpuCount, nil)
	if err := vkErr("enumerate physical devices", ret); err != nil {
		vk.DestroyInstance(instance, nil)
		return err
	}
	if gpuCount == 0 {
		vk.DestroyInstance(instance, nil)
		return fmt.Errorf("%w: no Vulkan devices found", gpu.ErrBackendNotAvailable)
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	ret = vk.EnumeratePhysicalDevices(instance, &gpuCount, gpus)
	if err := vkErr("enumerate physical devices", ret); err != nil {
		vk.DestroyInstance(instance, nil)
		return err
	}
	physical := gpus[0]

	family, ok := graphicsQueueFamily(physical)
	if !ok {
		vk.DestroyInstance(instance, nil)
		return errors.New("vulkan: no graphics queue family on device 0")
	}

	var device vk.Device
	ret = vk.CreateDevice(physical, &vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
	}, nil, &device)
	if err := vkErr("create device", ret); err != nil {
		vk.DestroyInstance(instance, nil)
		return err
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)

	vk.GetPhysicalDeviceMemoryProperties(physical, &b.memProps)
	b.memProps.Deref()

	b.instance = instance
	b.physical = physical
	b.device = device
	b.queue = queue
	b.queueFamily = family
	b.textures = make(map[gpu.TextureID]textureAlloc)
	b.buffers = make(map[gpu.BufferID]bufferAlloc)
	b.initialized = true
	log.Println("vulkan: device initialized, queue family", family)
	return nil
}

// graphicsQueueFamily finds the first queue family with graphics support.
func graphicsQueueFamily(physical vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &count, nil)
	if count == 0 {
		return 0, false
	}
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &count, families)

	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		if families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			return i, true
		}
	}
	return 0, false
}

// Close destroys all live resources, the device and the instance.
func (b *Backend) Close() {
	if !b.initialized {
		return
	}

	vk.DeviceWaitIdle(b.device)
	for id, alloc := range b.textures {
		vk.DestroyImage(b.device, alloc.image, nil)
		vk.FreeMemory(b.device, alloc.memory, nil)
		delete(b.textures, id)
	}
	for id, alloc := range b.buffers {
		vk.DestroyBuffer(b.device, alloc.buffer, nil)
		vk.FreeMemory(b.device, alloc.memory, nil)
		delete(b.buffers, id)
	}

	vk.DestroyDevice(b.device, nil)
	vk.DestroyInstance(b.instance, nil)
	b.device = nil
	b.instance = nil
	b.queue = nil
	b.physical = nil
	b.initialized = false
}

// findMemoryType picks a memory type out of typeBits with the required
// property flags. required == 0 accepts any type in the mask.
func (b *Backend) findMemoryType(typeBits uint32, required vk.MemoryPropertyFlags) (uint32, bool) {
	for i := uint32(0); i < b.memProps.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		b.memProps.MemoryTypes[i].Deref()
		if b.memProps.MemoryTypes[i].PropertyFlags&required == required {
			return i, true
		}
	}
	return 0, false
}

// allocateFor allocates device memory satisfying the requirements,
// preferring the requested property flags and falling back to any
// compatible type.
func (b *Backend) allocateFor(reqs vk.MemoryRequirements, preferred vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	index, ok := b.findMemoryType(reqs.MemoryTypeBits, preferred)
	if !ok {
		index, ok = b.findMemoryType(reqs.MemoryTypeBits, 0)
	}
	if !ok {
		return nil, fmt.Errorf("vulkan: no memory type for bits 0x%x", reqs.MemoryTypeBits)
	}

	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(b.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: index,
	}, nil, &memory)
	if err := vkErr("allocate memory", ret); err != nil {
		return nil, err
	}
	return memory, nil
}

// CreateTexture allocates an image for the description and binds fresh
// device-local memory to it.
func (b *Backend) CreateTexture(desc *gpu.TextureDescription) (gpu.TextureID, error) {
	if !b.initialized {
		return gpu.InvalidID, gpu.ErrNotInitialized
	}

	format, err := textureFormat(desc.Format)
	if err != nil {
		return gpu.InvalidID, err
	}
	usage, err := imageUsageFlags(desc.Usage, desc.Format)
	if err != nil {
		return gpu.InvalidID, err
	}
	samples, err := sampleCountFlag(desc.SampleCount)
	if err != nil {
		return gpu.InvalidID, err
	}

	depth := desc.Depth
	if depth == 0 {
		depth = 1
	}
	mips := desc.MipLevelCount
	if mips == 0 {
		mips = 1
	}

	var image vk.Image
	ret := vk.CreateImage(b.device, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: desc.Width, Height: desc.Height, Depth: 1},
		MipLevels:     mips,
		ArrayLayers:   depth,
		Samples:       samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &image)
	if err := vkErr("create image", ret); err != nil {
		return gpu.InvalidID, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(b.device, image, &reqs)
	reqs.Deref()

	memory, err := b.allocateFor(reqs, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(b.device, image, nil)
		return gpu.InvalidID, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	if err := vkErr("bind image memory", vk.BindImageMemory(b.device, image, memory, 0)); err != nil {
		vk.FreeMemory(b.device, memory, nil)
		vk.DestroyImage(b.device, image, nil)
		return gpu.InvalidID, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}

	id := gpu.TextureID(b.nextID)
	b.nextID++
	b.textures[id] = textureAlloc{image: image, memory: memory}
	return id, nil
}

// DestroyTexture releases a texture previously returned by CreateTexture.
func (b *Backend) DestroyTexture(id gpu.TextureID) error {
	if !b.initialized {
		return gpu.ErrNotInitialized
	}
	alloc, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpu.ErrUnknownResource, id)
	}
	delete(b.textures, id)
	vk.DestroyImage(b.device, alloc.image, nil)
	vk.FreeMemory(b.device, alloc.memory, nil)
	return nil
}

// CreateBuffer allocates a buffer for the description. Mappable buffers
// get host-visible coherent memory so WriteBuffer can copy into them;
// everything else prefers device-local memory.
func (b *Backend) CreateBuffer(desc *gpu.BufferDescription) (gpu.BufferID, error) {
	if !b.initialized {
		return gpu.InvalidID, gpu.ErrNotInitialized
	}

	usage, err := bufferUsageFlags(desc.Usage)
	if err != nil {
		return gpu.InvalidID, err
	}
	if desc.Size == 0 {
		return gpu.InvalidID, fmt.Errorf("vulkan: buffer %q has zero size", desc.Label)
	}

	var buffer vk.Buffer
	ret := vk.CreateBuffer(b.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := vkErr("create buffer", ret); err != nil {
		return gpu.InvalidID, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.device, buffer, &reqs)
	reqs.Deref()

	mappable := isMappable(desc.Usage) || desc.MappedAtCreation
	preferred := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	if mappable {
		preferred = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}

	memory, err := b.allocateFor(reqs, preferred)
	if err != nil {
		vk.DestroyBuffer(b.device, buffer, nil)
		return gpu.InvalidID, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	if err := vkErr("bind buffer memory", vk.BindBufferMemory(b.device, buffer, memory, 0)); err != nil {
		vk.FreeMemory(b.device, memory, nil)
		vk.DestroyBuffer(b.device, buffer, nil)
		return gpu.InvalidID, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}

	id := gpu.BufferID(b.nextID)
	b.nextID++
	b.buffers[id] = bufferAlloc{buffer: buffer, memory: memory, size: desc.Size, mappable: mappable}
	return id, nil
}

// DestroyBuffer releases a buffer previously returned by CreateBuffer.
func (b *Backend) DestroyBuffer(id gpu.BufferID) error {
	if !b.initialized {
		return gpu.ErrNotInitialized
	}
	alloc, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpu.ErrUnknownResource, id)
	}
	delete(b.buffers, id)
	vk.DestroyBuffer(b.device, alloc.buffer, nil)
	vk.FreeMemory(b.device, alloc.memory, nil)
	return nil
}

// WriteBuffer maps a host-visible buffer and copies bytes into it at an
// offset. Buffers created without MapRead or MapWrite usage cannot be
// written through this path.
func (b *Backend) WriteBuffer(id gpu.BufferID, offset uint64, data []byte) error {
	if !b.initialized {
		return gpu.ErrNotInitialized
	}
	alloc, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpu.ErrUnknownResource, id)
	}
	if !alloc.mappable {
		return fmt.Errorf("%w: buffer %d is not host visible", gpu.ErrUploadNotSupported, id)
	}
	if offset+uint64(len(data)) > alloc.size {
		return fmt.Errorf("vulkan: write of %d bytes at offset %d exceeds buffer %d size %d",
			len(data), offset, id, alloc.size)
	}
	if len(data) == 0 {
		return nil
	}

	var ptr unsafe.Pointer
	ret := vk.MapMemory(b.device, alloc.memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &ptr)
	if err := vkErr("map memory", ret); err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(b.device, alloc.memory)
	return nil
}

// AliveTextures returns the number of live textures.
func (b *Backend) AliveTextures() int { return len(b.textures) }

// AliveBuffers returns the number of live buffers.
func (b *Backend) AliveBuffers() int { return len(b.buffers) }

// Ensure Backend implements the backend contracts.
var (
	_ gpu.Backend        = (*Backend)(nil)
	_ gpu.BufferUploader = (*Backend)(nil)
)

// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/malliky/Graphics/gpu"
)

// createNoopDevice creates a noop HAL device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// noopProvider shares a noop HAL device the way a gogpu application
// context would.
type noopProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p *noopProvider) Device() gpucontext.Device   { return nil }
func (p *noopProvider) Queue() gpucontext.Queue     { return nil }
func (p *noopProvider) Adapter() gpucontext.Adapter { return nil }

func (p *noopProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

func (p *noopProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop", Type: gpucontext.AdapterTypeSoftware}
}

func (p *noopProvider) HalDevice() any { return p.device }
func (p *noopProvider) HalQueue() any  { return p.queue }

// newSharedBackend returns a backend initialized over a noop device.
func newSharedBackend(t *testing.T) (*Backend, func()) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	b := New()
	if err := b.SetDeviceProvider(&noopProvider{device: device, queue: queue}); err != nil {
		cleanup()
		t.Fatalf("SetDeviceProvider failed: %v", err)
	}
	if err := b.Init(); err != nil {
		cleanup()
		t.Fatalf("Init failed: %v", err)
	}
	return b, func() {
		b.Close()
		cleanup()
	}
}

func TestBackendName(t *testing.T) {
	b := New()
	if b.Name() != gpu.BackendWGPU {
		t.Errorf("Name() = %q, want %q", b.Name(), gpu.BackendWGPU)
	}
}

func TestBackendRegistered(t *testing.T) {
	if !gpu.IsRegistered(gpu.BackendWGPU) {
		t.Fatal("wgpu backend not registered")
	}
	if gpu.Get(gpu.BackendWGPU) == nil {
		t.Error("Get(wgpu) returned nil")
	}
}

func TestBackendNotInitialized(t *testing.T) {
	b := New()

	desc := gpu.DefaultTextureDescription(16, 16, gputypes.TextureFormatRGBA8Unorm)
	if _, err := b.CreateTexture(&desc); !errors.Is(err, gpu.ErrNotInitialized) {
		t.Errorf("CreateTexture before Init error = %v, want ErrNotInitialized", err)
	}
	if err := b.DestroyTexture(1); !errors.Is(err, gpu.ErrNotInitialized) {
		t.Errorf("DestroyTexture before Init error = %v, want ErrNotInitialized", err)
	}
	if err := b.WriteTexture(1, 0, nil); !errors.Is(err, gpu.ErrNotInitialized) {
		t.Errorf("WriteTexture before Init error = %v, want ErrNotInitialized", err)
	}
}

func TestSetDeviceProviderRejectsNonHAL(t *testing.T) {
	b := New()

	if err := b.SetDeviceProvider(nil); err == nil {
		t.Error("SetDeviceProvider(nil) succeeded, want error")
	}

	// NullDeviceHandle satisfies the provider contract but exposes no
	// HAL types, so the backend must refuse it.
	if err := b.SetDeviceProvider(gpu.NullDeviceHandle{}); err == nil {
		t.Error("SetDeviceProvider(NullDeviceHandle) succeeded, want error")
	}
}

func TestSetBackendDeviceProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b := New()
	provider := &noopProvider{device: device, queue: queue}
	if err := gpu.SetBackendDeviceProvider(b, provider); err != nil {
		t.Fatalf("SetBackendDeviceProvider failed: %v", err)
	}
	if err := b.Init(); err != nil {
		t.Fatalf("Init over shared device failed: %v", err)
	}
	b.Close()
}

func TestBackendTextureLifecycle(t *testing.T) {
	b, cleanup := newSharedBackend(t)
	defer cleanup()

	desc := gpu.DefaultTextureDescription(64, 64, gputypes.TextureFormatRGBA8Unorm)
	id, err := b.CreateTexture(&desc)
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	if id == gpu.InvalidID {
		t.Fatal("CreateTexture returned InvalidID")
	}
	if got := b.AliveTextures(); got != 1 {
		t.Errorf("AliveTextures() = %d, want 1", got)
	}

	if err := b.DestroyTexture(id); err != nil {
		t.Errorf("DestroyTexture failed: %v", err)
	}
	if got := b.AliveTextures(); got != 0 {
		t.Errorf("AliveTextures() after destroy = %d, want 0", got)
	}

	if err := b.DestroyTexture(id); !errors.Is(err, gpu.ErrUnknownResource) {
		t.Errorf("double DestroyTexture error = %v, want ErrUnknownResource", err)
	}
}

func TestBackendBufferLifecycle(t *testing.T) {
	b, cleanup := newSharedBackend(t)
	defer cleanup()

	// Odd size exercises the copy alignment rounding.
	desc := gpu.DefaultBufferDescription(10)
	id, err := b.CreateBuffer(&desc)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if id == gpu.InvalidID {
		t.Fatal("CreateBuffer returned InvalidID")
	}
	if got := b.AliveBuffers(); got != 1 {
		t.Errorf("AliveBuffers() = %d, want 1", got)
	}

	if err := b.DestroyBuffer(id); err != nil {
		t.Errorf("DestroyBuffer failed: %v", err)
	}
	if err := b.DestroyBuffer(id); !errors.Is(err, gpu.ErrUnknownResource) {
		t.Errorf("double DestroyBuffer error = %v, want ErrUnknownResource", err)
	}
}

func TestBackendUniqueIDs(t *testing.T) {
	b, cleanup := newSharedBackend(t)
	defer cleanup()

	desc := gpu.DefaultTextureDescription(8, 8, gputypes.TextureFormatRGBA8Unorm)
	bufDesc := gpu.DefaultBufferDescription(256)

	seen := make(map[uint64]bool)
	for range 4 {
		tid, err := b.CreateTexture(&desc)
		if err != nil {
			t.Fatalf("CreateTexture failed: %v", err)
		}
		bid, err := b.CreateBuffer(&bufDesc)
		if err != nil {
			t.Fatalf("CreateBuffer failed: %v", err)
		}
		if seen[uint64(tid)] || seen[uint64(bid)] {
			t.Fatalf("duplicate resource id: texture %d buffer %d", tid, bid)
		}
		seen[uint64(tid)] = true
		seen[uint64(bid)] = true
	}
}

func TestBackendWriteTexture(t *testing.T) {
	b, cleanup := newSharedBackend(t)
	defer cleanup()

	desc := gpu.DefaultTextureDescription(8, 8, gputypes.TextureFormatRGBA8Unorm)
	desc.MipLevelCount = 3
	desc.Usage |= gputypes.TextureUsageCopyDst
	id, err := b.CreateTexture(&desc)
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}

	if err := b.WriteTexture(id, 0, make([]byte, 8*8*4)); err != nil {
		t.Errorf("WriteTexture(level 0) failed: %v", err)
	}
	if err := b.WriteTexture(id, 2, make([]byte, 2*2*4)); err != nil {
		t.Errorf("WriteTexture(level 2) failed: %v", err)
	}
	if err := b.WriteTexture(id, 3, nil); !errors.Is(err, gpu.ErrUnknownResource) {
		t.Errorf("WriteTexture(level 3) error = %v, want ErrUnknownResource", err)
	}
	if err := b.WriteTexture(999, 0, nil); !errors.Is(err, gpu.ErrUnknownResource) {
		t.Errorf("WriteTexture(unknown id) error = %v, want ErrUnknownResource", err)
	}
}

func TestBackendWriteTextureZeroValueCounts(t *testing.T) {
	b, cleanup := newSharedBackend(t)
	defer cleanup()

	// A raw description with zero counts must behave as if they were 1.
	desc := gpu.TextureDescription{
		Width:  4,
		Height: 4,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageCopyDst,
	}
	id, err := b.CreateTexture(&desc)
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	if err := b.WriteTexture(id, 0, make([]byte, 4*4*4)); err != nil {
		t.Errorf("WriteTexture(level 0) failed: %v", err)
	}
	if err := b.WriteTexture(id, 1, nil); !errors.Is(err, gpu.ErrUnknownResource) {
		t.Errorf("WriteTexture(level 1) error = %v, want ErrUnknownResource", err)
	}
}

func TestBackendWriteBuffer(t *testing.T) {
	b, cleanup := newSharedBackend(t)
	defer cleanup()

	desc := gpu.DefaultBufferDescription(64)
	id, err := b.CreateBuffer(&desc)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}

	if err := b.WriteBuffer(id, 16, []byte{1, 2, 3, 4}); err != nil {
		t.Errorf("WriteBuffer failed: %v", err)
	}
	if err := b.WriteBuffer(id, 0, nil); err != nil {
		t.Errorf("WriteBuffer(empty) failed: %v", err)
	}
	if err := b.WriteBuffer(999, 0, []byte{1}); !errors.Is(err, gpu.ErrUnknownResource) {
		t.Errorf("WriteBuffer(unknown id) error = %v, want ErrUnknownResource", err)
	}
}

func TestBackendClose(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b := New()
	if err := b.SetDeviceProvider(&noopProvider{device: device, queue: queue}); err != nil {
		t.Fatalf("SetDeviceProvider failed: %v", err)
	}
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	desc := gpu.DefaultTextureDescription(16, 16, gputypes.TextureFormatRGBA8Unorm)
	if _, err := b.CreateTexture(&desc); err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}

	b.Close()
	if got := b.AliveTextures(); got != 0 {
		t.Errorf("AliveTextures() after Close = %d, want 0", got)
	}
	if _, err := b.CreateTexture(&desc); !errors.Is(err, gpu.ErrNotInitialized) {
		t.Errorf("CreateTexture after Close error = %v, want ErrNotInitialized", err)
	}

	// The shared device stays alive after Close; only the deferred
	// cleanup owns it. A second Close is a no-op.
	b.Close()
}

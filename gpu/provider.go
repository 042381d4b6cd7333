// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle is the surface through which an embedding application
// shares its GPU device with a backend. It is the gpucontext provider
// contract; windowing layers built on gogpu implement it directly.
type DeviceHandle = gpucontext.DeviceProvider

// DeviceProviderAware is implemented by backends that can adopt a
// shared device instead of creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider DeviceHandle) error
}

// SetBackendDeviceProvider passes a device provider to a backend,
// enabling GPU device sharing. If the backend doesn't support device
// sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any
// methods that return wgpu/hal types; backends reject providers
// without them.
func SetBackendDeviceProvider(b Backend, provider DeviceHandle) error {
	if dpa, ok := b.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

// NullDeviceHandle is a DeviceHandle that shares nothing. It satisfies
// the provider contract without exposing HAL types, so backends given
// one fall back to creating their own device.
type NullDeviceHandle struct{}

func (NullDeviceHandle) Device() gpucontext.Device   { return nil }
func (NullDeviceHandle) Queue() gpucontext.Queue     { return nil }
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

var _ DeviceHandle = NullDeviceHandle{}

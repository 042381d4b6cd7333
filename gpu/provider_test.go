// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestSetBackendDeviceProviderNoOp(t *testing.T) {
	b := NewHeadlessBackend()
	// Headless has no device to adopt; the call must be a no-op.
	if err := SetBackendDeviceProvider(b, NullDeviceHandle{}); err != nil {
		t.Errorf("SetBackendDeviceProvider on headless = %v, want nil", err)
	}
}

func TestNullDeviceHandle(t *testing.T) {
	// Assigning to DeviceHandle asserts the full provider contract,
	// AdapterInfo included.
	var h DeviceHandle = NullDeviceHandle{}
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Error("NullDeviceHandle must share nothing")
	}
	if got := h.SurfaceFormat(); got != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v, want TextureFormatUndefined", got)
	}
	info := h.AdapterInfo()
	if info.Type != gpucontext.AdapterTypeUnknown {
		t.Errorf("AdapterInfo().Type = %v, want AdapterTypeUnknown", info.Type)
	}
	if info.Name != "" {
		t.Errorf("AdapterInfo().Name = %q, want empty", info.Name)
	}
}

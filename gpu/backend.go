// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("gpu: backend not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("gpu: backend not initialized")

	// ErrUnknownResource is returned when an id does not refer to a live
	// resource owned by the backend.
	ErrUnknownResource = errors.New("gpu: unknown resource id")

	// ErrUploadNotSupported is returned when a backend cannot service
	// texture uploads.
	ErrUploadNotSupported = errors.New("gpu: texture upload not supported")
)

// Backend owns physical GPU resources.
//
// Create calls are synchronous: when they return, the resource exists and
// the caller owns the returned id until it passes it back to the matching
// Destroy call. Backends never recycle resources on their own; pooling and
// aliasing are the concern of layers above this interface.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "headless", "wgpu").
	Name() string

	// Init initializes the backend.
	// This should be called before any resource operations.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// CreateTexture allocates a physical texture for the description.
	CreateTexture(desc *TextureDescription) (TextureID, error)

	// DestroyTexture releases a texture previously returned by CreateTexture.
	DestroyTexture(id TextureID) error

	// CreateBuffer allocates a physical buffer for the description.
	CreateBuffer(desc *BufferDescription) (BufferID, error)

	// DestroyBuffer releases a buffer previously returned by CreateBuffer.
	DestroyBuffer(id BufferID) error
}

// TextureUploader is an optional capability for backends that can copy
// pixel data into one mip level of a texture. The data is tightly
// packed; callers pad rows before upload when the backend requires
// alignment.
type TextureUploader interface {
	WriteTexture(id TextureID, mipLevel uint32, data []byte) error
}

// BufferUploader is an optional capability for backends that can copy
// bytes into a buffer at an offset.
type BufferUploader interface {
	WriteBuffer(id BufferID, offset uint64, data []byte) error
}

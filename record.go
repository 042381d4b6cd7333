// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import (
	"fmt"

	"github.com/malliky/Graphics/gpu"
)

// Record is the contract both resource record kinds satisfy.
//
// A record tracks one declared resource through a graph execution: its
// description, the physical id once created, and the ownership flags
// that decide whether the physical may be pooled or destroyed.
type Record interface {
	// Kind returns the resource kind of the record.
	Kind() gpu.ResourceKind

	// Name returns the debug name from the description.
	Name() string

	// IsCreated reports whether the record holds a physical resource.
	IsCreated() bool

	// Imported reports whether the physical is owned by external code.
	Imported() bool

	// Shared reports whether the resource persists across executions.
	Shared() bool
}

// TextureRecord tracks one declared texture through graph executions.
//
// The zero record is empty. Reset prepares a recycled record for a new
// declaration; the create and release methods move the physical id
// between the record, the pool and the backend.
//
// Lifecycle invariants:
//   - IsCreated exactly when the physical id is nonzero.
//   - The description hash is cached at creation and used for release,
//     so a description mutated mid-frame cannot strand the physical
//     under the wrong pool bucket.
//   - Imported physicals are never pooled and never destroyed here.
type TextureRecord struct {
	desc     gpu.TextureDescription
	physical gpu.TextureID
	pool     *Pool[gpu.TextureID]

	imported bool
	shared   bool

	// cachedHash is the description hash at creation time.
	// Valid only while IsCreated.
	cachedHash uint64

	// transientPassIndex is the first pass that uses the resource.
	// -1 until the graph schedules it.
	transientPassIndex int

	// lastUsePassIndex is the last pass that uses the resource.
	// -1 until the graph schedules it.
	lastUsePassIndex int

	// sharedLastFrameUsed is the frame index of the last execution that
	// resolved this shared resource.
	sharedLastFrameUsed int
}

// Reset clears the record for a new declaration and binds the pool the
// next pooled create will draw from. Pass nil for records that must not
// touch a pool (imported and shared resources).
func (r *TextureRecord) Reset(pool *Pool[gpu.TextureID]) {
	*r = TextureRecord{
		pool:               pool,
		transientPassIndex: -1,
		lastUsePassIndex:   -1,
	}
}

// Kind returns gpu.KindTexture.
func (r *TextureRecord) Kind() gpu.ResourceKind { return gpu.KindTexture }

// Name returns the debug name from the description.
func (r *TextureRecord) Name() string { return r.desc.Label }

// IsCreated reports whether the record holds a physical texture.
func (r *TextureRecord) IsCreated() bool { return r.physical != gpu.InvalidID }

// Imported reports whether the physical is owned by external code.
func (r *TextureRecord) Imported() bool { return r.imported }

// Shared reports whether the resource persists across executions.
func (r *TextureRecord) Shared() bool { return r.shared }

// Physical returns the physical texture id, or gpu.InvalidID when the
// record is not created.
func (r *TextureRecord) Physical() gpu.TextureID { return r.physical }

// Description returns the declared texture description.
func (r *TextureRecord) Description() gpu.TextureDescription { return r.desc }

// CreatePooledGraphicsResource satisfies the record from its pool,
// creating a fresh physical through the backend on a pool miss.
//
// Faults: ErrAlreadyCreated when the record already holds a physical
// (exactly on the second create call), ErrNotPooled without a bound
// pool, ErrImportedResource on imported records.
func (r *TextureRecord) CreatePooledGraphicsResource(backend gpu.Backend) error {
	if r.imported {
		return fmt.Errorf("%w: texture %q", ErrImportedResource, r.desc.Label)
	}
	if r.pool == nil {
		return fmt.Errorf("%w: texture %q", ErrNotPooled, r.desc.Label)
	}
	if r.IsCreated() {
		return fmt.Errorf("%w: texture %q", ErrAlreadyCreated, r.desc.Label)
	}

	hash := r.desc.Hash()
	id, pooled := r.pool.TryGetResource(hash)
	if !pooled {
		var err error
		id, err = backend.CreateTexture(&r.desc)
		if err != nil {
			return fmt.Errorf("create texture %q: %w", r.desc.Label, err)
		}
	}

	r.physical = id
	r.cachedHash = hash
	r.pool.RegisterFrameAllocation(hash, id)
	Logger().Debug("texture created",
		"name", r.desc.Label, "id", id, "hash", hash, "pooled", pooled)
	return nil
}

// CreateGraphicsResource creates a physical texture directly, bypassing
// the pool. Used for shared resources and owned upload targets.
func (r *TextureRecord) CreateGraphicsResource(backend gpu.Backend) error {
	if r.imported {
		return fmt.Errorf("%w: texture %q", ErrImportedResource, r.desc.Label)
	}
	if r.IsCreated() {
		return fmt.Errorf("%w: texture %q", ErrAlreadyCreated, r.desc.Label)
	}

	id, err := backend.CreateTexture(&r.desc)
	if err != nil {
		return fmt.Errorf("create texture %q: %w", r.desc.Label, err)
	}
	r.physical = id
	r.cachedHash = r.desc.Hash()
	Logger().Debug("texture created", "name", r.desc.Label, "id", id, "pooled", false)
	return nil
}

// ImportPhysical adopts a physical texture owned by external code.
// The record will never pool or destroy it.
func (r *TextureRecord) ImportPhysical(id gpu.TextureID) error {
	if r.IsCreated() {
		return fmt.Errorf("%w: texture %q", ErrAlreadyCreated, r.desc.Label)
	}
	if id == gpu.InvalidID {
		return fmt.Errorf("%w: cannot import invalid texture id", ErrNeverCreated)
	}
	r.physical = id
	r.imported = true
	return nil
}

// ReleasePooledGraphicsResource returns the physical to the pool under
// the creation-time hash, stamped with the releasing frame, then clears
// the record.
//
// Faults: ErrNeverCreated when no physical is held (exactly on a second
// release), ErrImportedResource on imported records, ErrNotPooled
// without a bound pool.
func (r *TextureRecord) ReleasePooledGraphicsResource(frameIndex int) error {
	if !r.IsCreated() {
		return fmt.Errorf("%w: texture %q", ErrNeverCreated, r.desc.Label)
	}
	if r.imported {
		return fmt.Errorf("%w: texture %q", ErrImportedResource, r.desc.Label)
	}
	if r.pool == nil {
		return fmt.Errorf("%w: texture %q", ErrNotPooled, r.desc.Label)
	}

	r.pool.UnregisterFrameAllocation(r.cachedHash, r.physical)
	r.pool.ReleaseResource(r.cachedHash, r.physical, frameIndex)
	Logger().Debug("texture released to pool",
		"name", r.desc.Label, "id", r.physical, "frame", frameIndex)

	pool := r.pool
	r.Reset(pool)
	return nil
}

// ReleaseGraphicsResource destroys the physical through the backend and
// clears the record. Imported physicals are not destroyed, only dropped.
//
// Faults: ErrNeverCreated when no physical is held.
func (r *TextureRecord) ReleaseGraphicsResource(backend gpu.Backend) error {
	if !r.IsCreated() {
		return fmt.Errorf("%w: texture %q", ErrNeverCreated, r.desc.Label)
	}

	if r.imported {
		r.Reset(nil)
		return nil
	}

	id := r.physical
	name := r.desc.Label
	r.Reset(nil)
	if err := backend.DestroyTexture(id); err != nil {
		Logger().Warn("texture destroy failed", "name", name, "id", id, "err", err)
		return fmt.Errorf("destroy texture %q: %w", name, err)
	}
	return nil
}

// BufferRecord tracks one declared buffer through graph executions.
// It mirrors TextureRecord for the buffer kind; see there for the
// lifecycle invariants.
//
//nolint:dupl // Intentional pattern: same lifecycle for both resource kinds
type BufferRecord struct {
	desc     gpu.BufferDescription
	physical gpu.BufferID
	pool     *Pool[gpu.BufferID]

	imported bool
	shared   bool

	cachedHash uint64

	transientPassIndex int
	lastUsePassIndex   int

	sharedLastFrameUsed int
}

// Reset clears the record for a new declaration and binds the pool the
// next pooled create will draw from.
func (r *BufferRecord) Reset(pool *Pool[gpu.BufferID]) {
	*r = BufferRecord{
		pool:               pool,
		transientPassIndex: -1,
		lastUsePassIndex:   -1,
	}
}

// Kind returns gpu.KindBuffer.
func (r *BufferRecord) Kind() gpu.ResourceKind { return gpu.KindBuffer }

// Name returns the debug name from the description.
func (r *BufferRecord) Name() string { return r.desc.Label }

// IsCreated reports whether the record holds a physical buffer.
func (r *BufferRecord) IsCreated() bool { return r.physical != gpu.InvalidID }

// Imported reports whether the physical is owned by external code.
func (r *BufferRecord) Imported() bool { return r.imported }

// Shared reports whether the resource persists across executions.
func (r *BufferRecord) Shared() bool { return r.shared }

// Physical returns the physical buffer id, or gpu.InvalidID when the
// record is not created.
func (r *BufferRecord) Physical() gpu.BufferID { return r.physical }

// Description returns the declared buffer description.
func (r *BufferRecord) Description() gpu.BufferDescription { return r.desc }

// CreatePooledGraphicsResource satisfies the record from its pool,
// creating a fresh physical through the backend on a pool miss.
//
//nolint:dupl // Intentional pattern: same lifecycle for both resource kinds
func (r *BufferRecord) CreatePooledGraphicsResource(backend gpu.Backend) error {
	if r.imported {
		return fmt.Errorf("%w: buffer %q", ErrImportedResource, r.desc.Label)
	}
	if r.pool == nil {
		return fmt.Errorf("%w: buffer %q", ErrNotPooled, r.desc.Label)
	}
	if r.IsCreated() {
		return fmt.Errorf("%w: buffer %q", ErrAlreadyCreated, r.desc.Label)
	}

	hash := r.desc.Hash()
	id, pooled := r.pool.TryGetResource(hash)
	if !pooled {
		var err error
		id, err = backend.CreateBuffer(&r.desc)
		if err != nil {
			return fmt.Errorf("create buffer %q: %w", r.desc.Label, err)
		}
	}

	r.physical = id
	r.cachedHash = hash
	r.pool.RegisterFrameAllocation(hash, id)
	Logger().Debug("buffer created",
		"name", r.desc.Label, "id", id, "hash", hash, "pooled", pooled)
	return nil
}

// CreateGraphicsResource creates a physical buffer directly, bypassing
// the pool.
func (r *BufferRecord) CreateGraphicsResource(backend gpu.Backend) error {
	if r.imported {
		return fmt.Errorf("%w: buffer %q", ErrImportedResource, r.desc.Label)
	}
	if r.IsCreated() {
		return fmt.Errorf("%w: buffer %q", ErrAlreadyCreated, r.desc.Label)
	}

	id, err := backend.CreateBuffer(&r.desc)
	if err != nil {
		return fmt.Errorf("create buffer %q: %w", r.desc.Label, err)
	}
	r.physical = id
	r.cachedHash = r.desc.Hash()
	Logger().Debug("buffer created", "name", r.desc.Label, "id", id, "pooled", false)
	return nil
}

// ImportPhysical adopts a physical buffer owned by external code.
func (r *BufferRecord) ImportPhysical(id gpu.BufferID) error {
	if r.IsCreated() {
		return fmt.Errorf("%w: buffer %q", ErrAlreadyCreated, r.desc.Label)
	}
	if id == gpu.InvalidID {
		return fmt.Errorf("%w: cannot import invalid buffer id", ErrNeverCreated)
	}
	r.physical = id
	r.imported = true
	return nil
}

// ReleasePooledGraphicsResource returns the physical to the pool under
// the creation-time hash, stamped with the releasing frame, then clears
// the record.
//
//nolint:dupl // Intentional pattern: same lifecycle for both resource kinds
func (r *BufferRecord) ReleasePooledGraphicsResource(frameIndex int) error {
	if !r.IsCreated() {
		return fmt.Errorf("%w: buffer %q", ErrNeverCreated, r.desc.Label)
	}
	if r.imported {
		return fmt.Errorf("%w: buffer %q", ErrImportedResource, r.desc.Label)
	}
	if r.pool == nil {
		return fmt.Errorf("%w: buffer %q", ErrNotPooled, r.desc.Label)
	}

	r.pool.UnregisterFrameAllocation(r.cachedHash, r.physical)
	r.pool.ReleaseResource(r.cachedHash, r.physical, frameIndex)
	Logger().Debug("buffer released to pool",
		"name", r.desc.Label, "id", r.physical, "frame", frameIndex)

	pool := r.pool
	r.Reset(pool)
	return nil
}

// ReleaseGraphicsResource destroys the physical through the backend and
// clears the record. Imported physicals are not destroyed, only dropped.
func (r *BufferRecord) ReleaseGraphicsResource(backend gpu.Backend) error {
	if !r.IsCreated() {
		return fmt.Errorf("%w: buffer %q", ErrNeverCreated, r.desc.Label)
	}

	if r.imported {
		r.Reset(nil)
		return nil
	}

	id := r.physical
	name := r.desc.Label
	r.Reset(nil)
	if err := backend.DestroyBuffer(id); err != nil {
		Logger().Warn("buffer destroy failed", "name", name, "id", id, "err", err)
		return fmt.Errorf("destroy buffer %q: %w", name, err)
	}
	return nil
}

// Ensure both record kinds satisfy the Record contract.
var (
	_ Record = (*TextureRecord)(nil)
	_ Record = (*BufferRecord)(nil)
)

// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import (
	"sync/atomic"

	"github.com/malliky/Graphics/gpu"
)

// DefaultEvictionAge is the number of frames a pooled resource may sit
// unused before PurgeUnused hands it back for destruction.
const DefaultEvictionAge = 3

// pooledEntry is a free physical resource waiting for reuse.
type pooledEntry[R comparable] struct {
	resource      R
	lastFrameUsed int
}

// Pool recycles physical GPU resources between graph executions.
//
// Resources are indexed by the structural hash of their description.
// A resource is either checked out (registered to the current frame) or
// sitting on a free list, never both. Release stamps the frame index so
// housekeeping can age out resources that stopped being requested.
//
// The pool never talks to a backend: it hands ids out and takes them
// back, and PurgeUnused returns the ids it evicted so the owner can
// destroy the physicals.
//
// All operations are fault-free. Bookkeeping violations (double
// registration, unregistering an unknown resource) are logged and
// counted, not returned, so a damaged frame still runs to completion.
//
// Pool is single-threaded apart from Stats and HitRate, which read
// their counters atomically.
type Pool[R comparable] struct {
	kind        gpu.ResourceKind
	evictionAge int

	// free holds released resources keyed by description hash.
	// Reuse pops the newest entry first.
	free map[uint64][]pooledEntry[R]

	// allocated maps checked-out resources to the hash they were
	// acquired under.
	allocated map[R]uint64

	// hits counts pool hits (atomic for lock-free reads).
	hits uint64

	// misses counts pool misses (atomic for lock-free reads).
	misses uint64

	// evicted counts resources handed back by PurgeUnused.
	evicted uint64

	// violations counts bookkeeping faults that were logged and ignored.
	violations uint64
}

// NewPool creates a pool for one resource kind.
// An evictionAge below 1 falls back to DefaultEvictionAge.
func NewPool[R comparable](kind gpu.ResourceKind, evictionAge int) *Pool[R] {
	if evictionAge < 1 {
		evictionAge = DefaultEvictionAge
	}
	return &Pool[R]{
		kind:        kind,
		evictionAge: evictionAge,
		free:        make(map[uint64][]pooledEntry[R]),
		allocated:   make(map[R]uint64),
	}
}

// TryGetResource pops a free resource matching the description hash.
// Returns the zero resource and false on a pool miss; the caller then
// creates a fresh physical and registers it.
func (p *Pool[R]) TryGetResource(hash uint64) (R, bool) {
	entries := p.free[hash]
	if len(entries) == 0 {
		atomic.AddUint64(&p.misses, 1)
		var zero R
		return zero, false
	}

	entry := entries[len(entries)-1]
	entries = entries[:len(entries)-1]
	if len(entries) == 0 {
		delete(p.free, hash)
	} else {
		p.free[hash] = entries
	}

	atomic.AddUint64(&p.hits, 1)
	return entry.resource, true
}

// RegisterFrameAllocation marks a resource as checked out under a hash.
// Called after TryGetResource succeeds or after a fresh create.
func (p *Pool[R]) RegisterFrameAllocation(hash uint64, r R) {
	if prev, ok := p.allocated[r]; ok {
		atomic.AddUint64(&p.violations, 1)
		Logger().Warn("frame allocation already registered",
			"kind", p.kind, "resource", r, "hash", hash, "previousHash", prev)
		return
	}
	p.allocated[r] = hash
}

// UnregisterFrameAllocation removes a resource from the checked-out set.
// Called before the resource is released back to the free list.
func (p *Pool[R]) UnregisterFrameAllocation(hash uint64, r R) {
	prev, ok := p.allocated[r]
	if !ok {
		atomic.AddUint64(&p.violations, 1)
		Logger().Warn("unregistering unknown frame allocation",
			"kind", p.kind, "resource", r, "hash", hash)
		return
	}
	if prev != hash {
		atomic.AddUint64(&p.violations, 1)
		Logger().Warn("frame allocation hash mismatch",
			"kind", p.kind, "resource", r, "hash", hash, "registeredHash", prev)
	}
	delete(p.allocated, r)
}

// ReleaseResource puts a resource on the free list, stamped with the
// frame that released it. A resource still registered as checked out is
// unregistered first so it cannot exist in both states.
func (p *Pool[R]) ReleaseResource(hash uint64, r R, frameIndex int) {
	if _, ok := p.allocated[r]; ok {
		atomic.AddUint64(&p.violations, 1)
		Logger().Warn("releasing resource still registered to the frame",
			"kind", p.kind, "resource", r, "hash", hash)
		delete(p.allocated, r)
	}

	p.free[hash] = append(p.free[hash], pooledEntry[R]{
		resource:      r,
		lastFrameUsed: frameIndex,
	})
}

// PurgeUnused removes free resources that have not been requested for
// more than the eviction age, in frames, and returns them. The caller
// owns the returned ids and must destroy the physicals. Checked-out
// resources are never touched.
func (p *Pool[R]) PurgeUnused(currentFrame int) []R {
	var evicted []R

	for hash, entries := range p.free {
		kept := entries[:0]
		for _, e := range entries {
			if currentFrame-e.lastFrameUsed > p.evictionAge {
				evicted = append(evicted, e.resource)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(p.free, hash)
		} else {
			p.free[hash] = kept
		}
	}

	if len(evicted) > 0 {
		atomic.AddUint64(&p.evicted, uint64(len(evicted)))
		Logger().Debug("purged unused pooled resources",
			"kind", p.kind, "count", len(evicted), "frame", currentFrame)
	}
	return evicted
}

// FreeCount returns the number of resources on the free lists.
func (p *Pool[R]) FreeCount() int {
	n := 0
	for _, entries := range p.free {
		n += len(entries)
	}
	return n
}

// CheckedOutCount returns the number of currently registered resources.
func (p *Pool[R]) CheckedOutCount() int {
	return len(p.allocated)
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Hits       uint64
	Misses     uint64
	Evicted    uint64
	Violations uint64
	FreeCount  int
	CheckedOut int
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[R]) Stats() PoolStats {
	return PoolStats{
		Hits:       atomic.LoadUint64(&p.hits),
		Misses:     atomic.LoadUint64(&p.misses),
		Evicted:    atomic.LoadUint64(&p.evicted),
		Violations: atomic.LoadUint64(&p.violations),
		FreeCount:  p.FreeCount(),
		CheckedOut: p.CheckedOutCount(),
	}
}

// HitRate returns the pool hit rate as a fraction (0.0 to 1.0).
// Returns 0.0 if no requests have been made.
func (p *Pool[R]) HitRate() float64 {
	hits := atomic.LoadUint64(&p.hits)
	misses := atomic.LoadUint64(&p.misses)
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

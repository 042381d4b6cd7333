// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import (
	"fmt"

	"github.com/malliky/Graphics/gpu"
)

// GraphOptions configures a Graph.
type GraphOptions struct {
	// Backend owns the physical resources. When nil, NewGraph selects
	// and initializes the default registered backend and closes it
	// again in Close.
	Backend gpu.Backend

	// EvictionAge is the number of frames a pooled resource may sit
	// unused before it is destroyed. Values below 1 select
	// DefaultEvictionAge.
	EvictionAge int
}

// Graph is a frame graph: passes declare the resources they read and
// write, and Execute resolves the declarations to pooled physical
// resources.
//
// Per-frame protocol:
//
//	g.BeginExecution()
//	color, _ := g.CreateTexture(desc)
//	g.AddPass("shade", graphics.PassDesc{Writes: []graphics.Handle{color}, Execute: shade})
//	err := g.Execute()
//
// Transient resources are created right before the first pass that uses
// them and returned to the pool right after the last one, so two
// non-overlapping passes in one frame can share a physical, and
// consecutive frames requesting the same descriptions allocate nothing.
// Housekeeping runs at the end of every execution and destroys pooled
// physicals that stopped being requested.
//
// Graph is single-threaded.
type Graph struct {
	backend     gpu.Backend
	ownsBackend bool

	controller  *FrameController
	texturePool *Pool[gpu.TextureID]
	bufferPool  *Pool[gpu.BufferID]

	textures arena[TextureRecord]
	buffers  arena[BufferRecord]

	// sharedTextures and sharedBuffers hold records that persist across
	// executions. Their handle indices descend from the top of the
	// index space; nil slots are vacated and reused.
	sharedTextures []*TextureRecord
	sharedBuffers  []*BufferRecord

	passes    []passNode
	executing bool
}

// passNode is one declared pass.
type passNode struct {
	name string
	desc PassDesc
}

// PassDesc declares a pass: the handles it touches and the callback
// that records its GPU work.
type PassDesc struct {
	// Reads lists handles the pass consumes.
	Reads []Handle

	// Writes lists handles the pass produces or mutates.
	Writes []Handle

	// Execute records the pass's GPU work. It receives a PassContext
	// for resolving handles to physical ids. A non-nil error aborts
	// the execution.
	Execute func(*PassContext) error
}

// NewGraph creates a graph over a backend.
//
// With a nil opts.Backend the default registered backend is initialized
// and owned by the graph. An explicitly provided backend stays owned by
// the caller and must already be initialized.
func NewGraph(opts GraphOptions) (*Graph, error) {
	backend := opts.Backend
	ownsBackend := false
	if backend == nil {
		b, err := gpu.InitDefault()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoBackend, err)
		}
		backend = b
		ownsBackend = true
		Logger().Info("graph backend selected", "backend", backend.Name())
	}

	propagateLogger(backend)

	return &Graph{
		backend:     backend,
		ownsBackend: ownsBackend,
		controller:  NewFrameController(),
		texturePool: NewPool[gpu.TextureID](gpu.KindTexture, opts.EvictionAge),
		bufferPool:  NewPool[gpu.BufferID](gpu.KindBuffer, opts.EvictionAge),
	}, nil
}

// Backend returns the backend the graph creates resources on.
func (g *Graph) Backend() gpu.Backend {
	return g.backend
}

// Controller returns the frame controller that validates this graph's
// handles.
func (g *Graph) Controller() *FrameController {
	return g.controller
}

// =============================================================================
// Execution lifecycle
// =============================================================================

// BeginExecution starts declaring the next frame. The validity tag
// advances, so handles from the previous execution go stale, and all
// transient record slots recycle.
func (g *Graph) BeginExecution() error {
	if g.executing {
		return ErrExecutionActive
	}

	g.controller.Advance()
	g.textures.recycle()
	g.buffers.recycle()
	g.passes = g.passes[:0]
	g.executing = true
	return nil
}

// Execute compiles the declared passes, runs them in declaration order,
// and performs end-of-frame housekeeping.
//
// Each transient resource is created before its first pass and released
// after its last. A pass error aborts the remaining passes; resources
// already created are still released and housekeeping still runs.
func (g *Graph) Execute() error {
	if !g.executing {
		return ErrNoExecution
	}

	err := g.run()
	g.finalize(err != nil)
	g.executing = false
	return err
}

// run schedules and executes the declared passes.
func (g *Graph) run() error {
	if err := g.compile(); err != nil {
		return err
	}

	passCount := len(g.passes)
	createTex := make([][]*TextureRecord, passCount)
	releaseTex := make([][]*TextureRecord, passCount)
	createBuf := make([][]*BufferRecord, passCount)
	releaseBuf := make([][]*BufferRecord, passCount)

	for _, rec := range g.textures.active() {
		if rec.imported {
			continue
		}
		if rec.transientPassIndex < 0 {
			Logger().Debug("declared texture never used", "name", rec.desc.Label)
			continue
		}
		createTex[rec.transientPassIndex] = append(createTex[rec.transientPassIndex], rec)
		releaseTex[rec.lastUsePassIndex] = append(releaseTex[rec.lastUsePassIndex], rec)
	}
	for _, rec := range g.buffers.active() {
		if rec.imported {
			continue
		}
		if rec.transientPassIndex < 0 {
			Logger().Debug("declared buffer never used", "name", rec.desc.Label)
			continue
		}
		createBuf[rec.transientPassIndex] = append(createBuf[rec.transientPassIndex], rec)
		releaseBuf[rec.lastUsePassIndex] = append(releaseBuf[rec.lastUsePassIndex], rec)
	}

	frame := g.controller.FrameIndex()
	for pi := range g.passes {
		for _, rec := range createTex[pi] {
			if err := rec.CreatePooledGraphicsResource(g.backend); err != nil {
				return fmt.Errorf("pass %q: %w", g.passes[pi].name, err)
			}
		}
		for _, rec := range createBuf[pi] {
			if err := rec.CreatePooledGraphicsResource(g.backend); err != nil {
				return fmt.Errorf("pass %q: %w", g.passes[pi].name, err)
			}
		}

		if fn := g.passes[pi].desc.Execute; fn != nil {
			pc := PassContext{graph: g, passIndex: pi, name: g.passes[pi].name}
			if err := fn(&pc); err != nil {
				return fmt.Errorf("pass %q: %w", g.passes[pi].name, err)
			}
		}

		for _, rec := range releaseTex[pi] {
			if err := rec.ReleasePooledGraphicsResource(frame); err != nil {
				return fmt.Errorf("pass %q: %w", g.passes[pi].name, err)
			}
		}
		for _, rec := range releaseBuf[pi] {
			if err := rec.ReleasePooledGraphicsResource(frame); err != nil {
				return fmt.Errorf("pass %q: %w", g.passes[pi].name, err)
			}
		}
	}
	return nil
}

// compile validates every declared handle and computes first and last
// use per transient resource.
func (g *Graph) compile() error {
	for pi := range g.passes {
		p := &g.passes[pi]
		for _, h := range p.desc.Reads {
			if err := g.schedule(h, pi); err != nil {
				return fmt.Errorf("pass %q reads %s: %w", p.name, h, err)
			}
		}
		for _, h := range p.desc.Writes {
			if err := g.schedule(h, pi); err != nil {
				return fmt.Errorf("pass %q writes %s: %w", p.name, h, err)
			}
		}
	}
	return nil
}

// schedule folds one handle use at pass pi into its record's use range.
func (g *Graph) schedule(h Handle, pi int) error {
	if !g.controller.IsValid(h) {
		return ErrStaleHandle
	}

	switch h.Kind() {
	case gpu.KindTexture:
		if h.Shared() {
			if g.sharedTexture(h) == nil {
				return ErrStaleHandle
			}
			return nil
		}
		rec := g.textures.get(h.Index())
		if rec == nil {
			return ErrStaleHandle
		}
		if rec.transientPassIndex < 0 {
			rec.transientPassIndex = pi
		}
		rec.lastUsePassIndex = pi
		return nil

	case gpu.KindBuffer:
		if h.Shared() {
			if g.sharedBuffer(h) == nil {
				return ErrStaleHandle
			}
			return nil
		}
		rec := g.buffers.get(h.Index())
		if rec == nil {
			return ErrStaleHandle
		}
		if rec.transientPassIndex < 0 {
			rec.transientPassIndex = pi
		}
		rec.lastUsePassIndex = pi
		return nil

	default:
		return ErrKindMismatch
	}
}

// finalize performs end-of-frame housekeeping: created transients that
// did not release return to the pool, imported records drop their
// references, and both pools purge resources that aged out.
//
// A still-created transient is a leak on the normal path but expected
// after an aborted execution, so the warning is suppressed then.
func (g *Graph) finalize(aborted bool) {
	frame := g.controller.FrameIndex()

	for _, rec := range g.textures.active() {
		if !rec.IsCreated() {
			continue
		}
		if rec.imported {
			rec.Reset(nil)
			continue
		}
		if !aborted {
			Logger().Warn("leaked frame texture", "name", rec.desc.Label, "id", rec.physical)
		}
		if err := rec.ReleasePooledGraphicsResource(frame); err != nil {
			Logger().Warn("frame texture release failed", "err", err)
		}
	}
	for _, rec := range g.buffers.active() {
		if !rec.IsCreated() {
			continue
		}
		if rec.imported {
			rec.Reset(nil)
			continue
		}
		if !aborted {
			Logger().Warn("leaked frame buffer", "name", rec.desc.Label, "id", rec.physical)
		}
		if err := rec.ReleasePooledGraphicsResource(frame); err != nil {
			Logger().Warn("frame buffer release failed", "err", err)
		}
	}

	for _, id := range g.texturePool.PurgeUnused(frame) {
		if err := g.backend.DestroyTexture(id); err != nil {
			Logger().Warn("evicted texture destroy failed", "id", id, "err", err)
		}
	}
	for _, id := range g.bufferPool.PurgeUnused(frame) {
		if err := g.backend.DestroyBuffer(id); err != nil {
			Logger().Warn("evicted buffer destroy failed", "id", id, "err", err)
		}
	}
}

// Close releases every shared resource, drains the pools and, when the
// graph initialized its own backend, closes it.
func (g *Graph) Close() {
	for i, rec := range g.sharedTextures {
		if rec == nil {
			continue
		}
		if err := rec.ReleaseGraphicsResource(g.backend); err != nil {
			Logger().Warn("shared texture release failed", "err", err)
		}
		g.sharedTextures[i] = nil
	}
	for i, rec := range g.sharedBuffers {
		if rec == nil {
			continue
		}
		if err := rec.ReleaseGraphicsResource(g.backend); err != nil {
			Logger().Warn("shared buffer release failed", "err", err)
		}
		g.sharedBuffers[i] = nil
	}
	g.sharedTextures = g.sharedTextures[:0]
	g.sharedBuffers = g.sharedBuffers[:0]

	// Drain the free lists regardless of age.
	drainFrame := g.controller.FrameIndex() + g.texturePool.evictionAge + 1
	for _, id := range g.texturePool.PurgeUnused(drainFrame) {
		if err := g.backend.DestroyTexture(id); err != nil {
			Logger().Warn("pooled texture destroy failed", "id", id, "err", err)
		}
	}
	drainFrame = g.controller.FrameIndex() + g.bufferPool.evictionAge + 1
	for _, id := range g.bufferPool.PurgeUnused(drainFrame) {
		if err := g.backend.DestroyBuffer(id); err != nil {
			Logger().Warn("pooled buffer destroy failed", "id", id, "err", err)
		}
	}

	g.executing = false
	if g.ownsBackend {
		g.backend.Close()
	}
}

// =============================================================================
// Declarations
// =============================================================================

// CreateTexture declares a transient pooled texture for this execution.
// The physical is allocated at the resource's first pass and returned
// to the pool after its last.
func (g *Graph) CreateTexture(desc gpu.TextureDescription) (Handle, error) {
	if !g.executing {
		return Handle{}, ErrNoExecution
	}
	if g.textures.len()+len(g.sharedTextures) > maxHandleIndex {
		return Handle{}, fmt.Errorf("%w: texture index space exhausted", ErrIndexRange)
	}

	rec, index, err := g.textures.acquire()
	if err != nil {
		return Handle{}, err
	}
	rec.Reset(g.texturePool)
	rec.desc = desc
	return g.controller.NewHandle(index, gpu.KindTexture, false)
}

// CreateBuffer declares a transient pooled buffer for this execution.
func (g *Graph) CreateBuffer(desc gpu.BufferDescription) (Handle, error) {
	if !g.executing {
		return Handle{}, ErrNoExecution
	}
	if g.buffers.len()+len(g.sharedBuffers) > maxHandleIndex {
		return Handle{}, fmt.Errorf("%w: buffer index space exhausted", ErrIndexRange)
	}

	rec, index, err := g.buffers.acquire()
	if err != nil {
		return Handle{}, err
	}
	rec.Reset(g.bufferPool)
	rec.desc = desc
	return g.controller.NewHandle(index, gpu.KindBuffer, false)
}

// ImportTexture declares a texture whose physical is owned by external
// code, valid for this execution only. The graph never pools or
// destroys it.
func (g *Graph) ImportTexture(id gpu.TextureID, desc gpu.TextureDescription) (Handle, error) {
	if !g.executing {
		return Handle{}, ErrNoExecution
	}
	if g.textures.len()+len(g.sharedTextures) > maxHandleIndex {
		return Handle{}, fmt.Errorf("%w: texture index space exhausted", ErrIndexRange)
	}

	rec, index, err := g.textures.acquire()
	if err != nil {
		return Handle{}, err
	}
	rec.Reset(nil)
	rec.desc = desc
	if err := rec.ImportPhysical(id); err != nil {
		return Handle{}, err
	}
	return g.controller.NewHandle(index, gpu.KindTexture, false)
}

// ImportBuffer declares a buffer whose physical is owned by external
// code, valid for this execution only.
func (g *Graph) ImportBuffer(id gpu.BufferID, desc gpu.BufferDescription) (Handle, error) {
	if !g.executing {
		return Handle{}, ErrNoExecution
	}
	if g.buffers.len()+len(g.sharedBuffers) > maxHandleIndex {
		return Handle{}, fmt.Errorf("%w: buffer index space exhausted", ErrIndexRange)
	}

	rec, index, err := g.buffers.acquire()
	if err != nil {
		return Handle{}, err
	}
	rec.Reset(nil)
	rec.desc = desc
	if err := rec.ImportPhysical(id); err != nil {
		return Handle{}, err
	}
	return g.controller.NewHandle(index, gpu.KindBuffer, false)
}

// CreateSharedTexture creates a texture that persists across executions
// until released. The physical is allocated immediately, bypassing the
// pool, and the returned handle stays resolvable in every execution.
func (g *Graph) CreateSharedTexture(desc gpu.TextureDescription) (Handle, error) {
	slot := -1
	for i, rec := range g.sharedTextures {
		if rec == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		if len(g.sharedTextures)+g.textures.len() > maxHandleIndex {
			return Handle{}, fmt.Errorf("%w: texture index space exhausted", ErrIndexRange)
		}
		g.sharedTextures = append(g.sharedTextures, nil)
		slot = len(g.sharedTextures) - 1
	}

	rec := &TextureRecord{}
	rec.Reset(nil)
	rec.desc = desc
	rec.shared = true
	rec.sharedLastFrameUsed = g.controller.FrameIndex()
	if err := rec.CreateGraphicsResource(g.backend); err != nil {
		return Handle{}, err
	}
	g.sharedTextures[slot] = rec

	return g.controller.NewHandle(maxHandleIndex-slot, gpu.KindTexture, true)
}

// CreateSharedBuffer creates a buffer that persists across executions
// until released.
func (g *Graph) CreateSharedBuffer(desc gpu.BufferDescription) (Handle, error) {
	slot := -1
	for i, rec := range g.sharedBuffers {
		if rec == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		if len(g.sharedBuffers)+g.buffers.len() > maxHandleIndex {
			return Handle{}, fmt.Errorf("%w: buffer index space exhausted", ErrIndexRange)
		}
		g.sharedBuffers = append(g.sharedBuffers, nil)
		slot = len(g.sharedBuffers) - 1
	}

	rec := &BufferRecord{}
	rec.Reset(nil)
	rec.desc = desc
	rec.shared = true
	rec.sharedLastFrameUsed = g.controller.FrameIndex()
	if err := rec.CreateGraphicsResource(g.backend); err != nil {
		return Handle{}, err
	}
	g.sharedBuffers[slot] = rec

	return g.controller.NewHandle(maxHandleIndex-slot, gpu.KindBuffer, true)
}

// ReleaseSharedTexture destroys a shared texture and frees its slot.
// The handle and any copies of it stop resolving.
func (g *Graph) ReleaseSharedTexture(h Handle) error {
	if h.Kind() != gpu.KindTexture {
		return ErrKindMismatch
	}
	if !h.Shared() {
		return fmt.Errorf("%w: handle %s is not shared", ErrStaleHandle, h)
	}
	rec := g.sharedTexture(h)
	if rec == nil {
		return fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}

	slot := maxHandleIndex - h.Index()
	g.sharedTextures[slot] = nil
	return rec.ReleaseGraphicsResource(g.backend)
}

// ReleaseSharedBuffer destroys a shared buffer and frees its slot.
func (g *Graph) ReleaseSharedBuffer(h Handle) error {
	if h.Kind() != gpu.KindBuffer {
		return ErrKindMismatch
	}
	if !h.Shared() {
		return fmt.Errorf("%w: handle %s is not shared", ErrStaleHandle, h)
	}
	rec := g.sharedBuffer(h)
	if rec == nil {
		return fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}

	slot := maxHandleIndex - h.Index()
	g.sharedBuffers[slot] = nil
	return rec.ReleaseGraphicsResource(g.backend)
}

// UploadSharedBuffer copies bytes into a shared buffer at an offset.
// The backend must support buffer uploads, otherwise
// gpu.ErrUploadNotSupported is returned.
func (g *Graph) UploadSharedBuffer(h Handle, offset uint64, data []byte) error {
	if h.Kind() != gpu.KindBuffer {
		return ErrKindMismatch
	}
	if !h.Shared() {
		return fmt.Errorf("%w: handle %s is not shared", ErrStaleHandle, h)
	}
	rec := g.sharedBuffer(h)
	if rec == nil {
		return fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}

	uploader, ok := g.backend.(gpu.BufferUploader)
	if !ok {
		return fmt.Errorf("%w: backend %q", gpu.ErrUploadNotSupported, g.backend.Name())
	}
	return uploader.WriteBuffer(rec.physical, offset, data)
}

// sharedTexture maps a shared handle to its record, or nil.
func (g *Graph) sharedTexture(h Handle) *TextureRecord {
	slot := maxHandleIndex - h.Index()
	if slot < 0 || slot >= len(g.sharedTextures) {
		return nil
	}
	return g.sharedTextures[slot]
}

// sharedBuffer maps a shared handle to its record, or nil.
func (g *Graph) sharedBuffer(h Handle) *BufferRecord {
	slot := maxHandleIndex - h.Index()
	if slot < 0 || slot >= len(g.sharedBuffers) {
		return nil
	}
	return g.sharedBuffers[slot]
}

// AddPass appends a pass to the current execution. Passes run in
// declaration order.
func (g *Graph) AddPass(name string, desc PassDesc) error {
	if !g.executing {
		return ErrNoExecution
	}
	g.passes = append(g.passes, passNode{name: name, desc: desc})
	return nil
}

// =============================================================================
// Pass resolution
// =============================================================================

// PassContext resolves handles for one pass of one execution.
type PassContext struct {
	graph     *Graph
	passIndex int
	name      string
}

// Name returns the pass name.
func (pc *PassContext) Name() string { return pc.name }

// FrameIndex returns the frame index of the running execution.
func (pc *PassContext) FrameIndex() int { return pc.graph.controller.FrameIndex() }

// Backend returns the backend to record GPU work against.
func (pc *PassContext) Backend() gpu.Backend { return pc.graph.backend }

// Texture resolves a handle to the physical texture id backing it in
// this execution.
//
// Returns ErrStaleHandle for handles from a previous execution,
// ErrKindMismatch for buffer handles, and ErrNeverCreated when the
// resource is not alive during this pass (used outside its declared
// range).
func (pc *PassContext) Texture(h Handle) (gpu.TextureID, error) {
	g := pc.graph
	if !g.controller.IsValid(h) {
		return gpu.InvalidID, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	if h.Kind() != gpu.KindTexture {
		return gpu.InvalidID, fmt.Errorf("%w: %s resolved as texture", ErrKindMismatch, h)
	}

	if h.Shared() {
		rec := g.sharedTexture(h)
		if rec == nil {
			return gpu.InvalidID, fmt.Errorf("%w: %s", ErrStaleHandle, h)
		}
		rec.sharedLastFrameUsed = g.controller.FrameIndex()
		return rec.physical, nil
	}

	rec := g.textures.get(h.Index())
	if rec == nil {
		return gpu.InvalidID, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	if !rec.IsCreated() {
		return gpu.InvalidID, fmt.Errorf("%w: texture %q in pass %q",
			ErrNeverCreated, rec.desc.Label, pc.name)
	}
	return rec.physical, nil
}

// Buffer resolves a handle to the physical buffer id backing it in
// this execution.
func (pc *PassContext) Buffer(h Handle) (gpu.BufferID, error) {
	g := pc.graph
	if !g.controller.IsValid(h) {
		return gpu.InvalidID, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	if h.Kind() != gpu.KindBuffer {
		return gpu.InvalidID, fmt.Errorf("%w: %s resolved as buffer", ErrKindMismatch, h)
	}

	if h.Shared() {
		rec := g.sharedBuffer(h)
		if rec == nil {
			return gpu.InvalidID, fmt.Errorf("%w: %s", ErrStaleHandle, h)
		}
		rec.sharedLastFrameUsed = g.controller.FrameIndex()
		return rec.physical, nil
	}

	rec := g.buffers.get(h.Index())
	if rec == nil {
		return gpu.InvalidID, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	if !rec.IsCreated() {
		return gpu.InvalidID, fmt.Errorf("%w: buffer %q in pass %q",
			ErrNeverCreated, rec.desc.Label, pc.name)
	}
	return rec.physical, nil
}

// =============================================================================
// Statistics
// =============================================================================

// GraphStats is a snapshot of graph and pool counters.
type GraphStats struct {
	// Textures and Buffers are the per-kind pool counters.
	Textures PoolStats
	Buffers  PoolStats

	// Executions is the number of completed BeginExecution calls.
	Executions uint32

	// FrameIndex is the current frame index.
	FrameIndex int

	// SharedTextures and SharedBuffers count live shared resources.
	SharedTextures int
	SharedBuffers  int
}

// Stats returns a snapshot of the graph counters.
func (g *Graph) Stats() GraphStats {
	sharedTex := 0
	for _, rec := range g.sharedTextures {
		if rec != nil {
			sharedTex++
		}
	}
	sharedBuf := 0
	for _, rec := range g.sharedBuffers {
		if rec != nil {
			sharedBuf++
		}
	}

	return GraphStats{
		Textures:       g.texturePool.Stats(),
		Buffers:        g.bufferPool.Stats(),
		Executions:     g.controller.ExecutionCount(),
		FrameIndex:     g.controller.FrameIndex(),
		SharedTextures: sharedTex,
		SharedBuffers:  sharedBuf,
	}
}

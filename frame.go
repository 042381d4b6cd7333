package graphics

import (
	"fmt"

	"github.com/malliky/Graphics/gpu"
)

// FrameController tracks graph executions and validates handles.
//
// The controller owns the execution counter, the validity tag derived
// from it, and the frame index used for pool stamping. It replaces the
// global tag state older designs kept at package level; independent
// graphs advance independently.
//
// FrameController is single-threaded, like the graph that owns it.
type FrameController struct {
	currentTag     uint32
	executionCount uint32
	frameIndex     int
}

// NewFrameController creates a controller with no executions recorded.
// Handles minted before the first advance carry a zero tag and never
// validate.
func NewFrameController() *FrameController {
	return &FrameController{}
}

// Advance starts the next execution: it increments the execution counter
// and derives the new validity tag from it.
func (c *FrameController) Advance() {
	c.executionCount++
	c.AdvanceExecution(c.executionCount)
}

// AdvanceExecution derives the validity tag for an explicit counter
// value and moves to the next frame. Handles minted under the previous
// tag stop validating, except shared ones.
func (c *FrameController) AdvanceExecution(counter uint32) {
	c.executionCount = counter
	c.currentTag = executionTag(counter)
	c.frameIndex++
}

// NewHandle mints a handle for a record slot.
//
// The index must fit the 16-bit slot space or ErrIndexRange is returned.
// Shared handles receive the reserved shared tag; transient handles
// receive the current execution tag. A transient handle minted before
// the first advance carries a zero tag and will never validate.
func (c *FrameController) NewHandle(index int, kind gpu.ResourceKind, shared bool) (Handle, error) {
	if index < 0 || index > maxHandleIndex {
		return Handle{}, fmt.Errorf("%w: %d", ErrIndexRange, index)
	}

	tag := c.currentTag
	if shared {
		tag = sharedValidityTag
	}
	return Handle{
		index: uint16(index),
		kind:  kind,
		tag:   tag,
	}, nil
}

// IsValid reports whether a handle may be resolved in the current
// execution. A handle is valid when its tag is nonzero and equals either
// the current execution tag or the reserved shared tag.
func (c *FrameController) IsValid(h Handle) bool {
	if h.tag == 0 {
		return false
	}
	return h.tag == c.currentTag || h.tag == sharedValidityTag
}

// CurrentTag returns the tag of the current execution. Zero before the
// first advance.
func (c *FrameController) CurrentTag() uint32 {
	return c.currentTag
}

// ExecutionCount returns the counter of the current execution.
func (c *FrameController) ExecutionCount() uint32 {
	return c.executionCount
}

// FrameIndex returns the number of advances performed. It stamps pool
// releases so eviction can age free resources in frames.
func (c *FrameController) FrameIndex() int {
	return c.frameIndex
}

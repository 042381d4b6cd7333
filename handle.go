package graphics

import (
	"fmt"

	"github.com/malliky/Graphics/gpu"
)

// maxHandleIndex is the largest slot index a Handle can carry.
const maxHandleIndex = 0xFFFF

// sharedValidityTag is the reserved tag carried by handles to shared
// resources. An execution tag can collide with it for roughly one
// counter in 65536; during such an execution stale transient handles
// also pass validation.
const sharedValidityTag = uint32(0xFFFF) << 16

// tagMultiplier scrambles the execution counter into a validity tag.
// Any odd constant works; this one is the 32-bit golden ratio.
const tagMultiplier = 0x9E3779B1

// executionTag derives the validity tag for an execution counter.
//
// The counter's high and low 16-bit halves are mixed so that both slow
// and fast bits of the counter reach the tag, then scrambled by an odd
// multiplier. The result lives in the high 16 bits of the tag; a zero
// result is forced to 1<<16 so that a real tag can never equal the
// never-valid zero value.
func executionTag(counter uint32) uint32 {
	mixed := ((counter >> 16) ^ (counter & 0xFFFF)) * tagMultiplier
	tag := (mixed & 0xFFFF) << 16
	if tag == 0 {
		tag = 1 << 16
	}
	return tag
}

// Handle names a resource within one execution of the frame graph.
//
// A Handle is a small value: a slot index into the graph's record arena,
// the resource kind, and a validity tag. The tag binds the handle to the
// execution that minted it; after the next AdvanceExecution the handle
// stops resolving instead of reaching a recycled record. Handles to
// shared resources carry a reserved tag and stay resolvable until the
// resource is released.
//
// The zero Handle is never valid.
type Handle struct {
	index uint16
	kind  gpu.ResourceKind
	tag   uint32
}

// Index returns the record slot index the handle refers to.
func (h Handle) Index() int { return int(h.index) }

// Kind returns the resource kind the handle was minted for.
func (h Handle) Kind() gpu.ResourceKind { return h.kind }

// Tag returns the validity tag.
func (h Handle) Tag() uint32 { return h.tag }

// Shared reports whether the handle refers to a shared resource.
func (h Handle) Shared() bool { return h.tag == sharedValidityTag }

// IsZero reports whether the handle is the zero value.
func (h Handle) IsZero() bool { return h == Handle{} }

// String formats the handle for logs and error messages.
func (h Handle) String() string {
	return fmt.Sprintf("%s#%d@%08x", h.kind, h.index, h.tag)
}

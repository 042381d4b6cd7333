// Copyright 2026 The Graphics Authors
// SPDX-License-Identifier: BSD-3-Clause

package graphics

import "fmt"

// arena is a slot store for resource records.
//
// Records are handed out in slot order and recycled wholesale at the
// next execution. Recycling does not clear slots: a stale record is
// made unreachable by the handle validity tag, and its memory is
// overwritten by Reset when the slot is acquired again. Slot indices
// feed handle indices, so the arena never grows past the 16-bit index
// space.
type arena[T any] struct {
	slots []*T
	used  int
}

// acquire returns the next record slot and its index, growing the
// arena when all allocated slots are in use. The caller must Reset the
// record before use; acquire hands it back with stale contents.
func (a *arena[T]) acquire() (*T, int, error) {
	index := a.used
	if index > maxHandleIndex {
		return nil, 0, fmt.Errorf("%w: arena exhausted at %d slots", ErrIndexRange, index)
	}
	if index == len(a.slots) {
		a.slots = append(a.slots, new(T))
	}
	a.used++
	return a.slots[index], index, nil
}

// get returns the record at a slot index, or nil when the index is not
// in use this execution.
func (a *arena[T]) get(index int) *T {
	if index < 0 || index >= a.used {
		return nil
	}
	return a.slots[index]
}

// active returns the records handed out since the last recycle.
func (a *arena[T]) active() []*T {
	return a.slots[:a.used]
}

// recycle returns all slots for the next execution without clearing
// them.
func (a *arena[T]) recycle() {
	a.used = 0
}

// len returns the number of slots handed out since the last recycle.
func (a *arena[T]) len() int {
	return a.used
}

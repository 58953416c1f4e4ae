// Package arena provides generation-indexed slot storage. Handles
// returned by an arena stay valid until their payload is removed;
// reusing a freed slot bumps its generation so stale handles can
// never alias a newer payload.
package arena

import "math"

// Handle identifies a payload by slot index and generation. Two
// handles are equal iff both fields match. The zero Handle points at
// slot 0, generation 0, which is a real handle once something has
// been inserted; use Invalid for a handle that never resolves.
type Handle struct {
	slot       uint32
	generation uint32
}

// NewHandle rebuilds a handle from its raw parts, e.g. after
// receiving them over a debugging interface.
func NewHandle(slot, generation uint32) Handle {
	return Handle{slot: slot, generation: generation}
}

// Invalid returns the distinguished handle that no arena ever
// resolves.
func Invalid() Handle {
	return Handle{slot: math.MaxUint32, generation: math.MaxUint32}
}

// RawParts exposes the slot index and generation of the handle.
func (h Handle) RawParts() (slot, generation uint32) {
	return h.slot, h.generation
}

type entry[T any] struct {
	value      T
	generation uint32
	live       bool
	next       int32 // next slot on the free list, -1 terminates
}

// Arena stores payloads of type T in reusable slots.
type Arena[T any] struct {
	entries  []entry[T]
	freeHead int32
	length   int
}

// New creates an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{freeHead: -1}
}

// Len reports the number of live payloads.
func (a *Arena[T]) Len() int { return a.length }

// Insert stores value and returns its handle. Freed slots are reused
// before the arena grows.
func (a *Arena[T]) Insert(value T) Handle {
	if a.freeHead >= 0 {
		slot := a.freeHead
		e := &a.entries[slot]
		a.freeHead = e.next
		e.value = value
		e.live = true
		a.length++
		return Handle{slot: uint32(slot), generation: e.generation}
	}
	a.entries = append(a.entries, entry[T]{value: value, live: true})
	a.length++
	return Handle{slot: uint32(len(a.entries) - 1)}
}

func (a *Arena[T]) entryAt(h Handle) *entry[T] {
	if int(h.slot) >= len(a.entries) {
		return nil
	}
	e := &a.entries[h.slot]
	if !e.live || e.generation != h.generation {
		return nil
	}
	return e
}

// Contains reports whether h resolves to a live payload.
func (a *Arena[T]) Contains(h Handle) bool {
	return a.entryAt(h) != nil
}

// Get returns a pointer to the payload for h, or false if the handle
// is stale or absent.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	e := a.entryAt(h)
	if e == nil {
		return nil, false
	}
	return &e.value, true
}

// Remove frees the payload for h and returns it. The slot's
// generation is bumped so h (and any copy of it) goes stale. Returns
// false if the handle was already stale or absent.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	e := a.entryAt(h)
	if e == nil {
		return zero, false
	}
	value := e.value
	e.value = zero
	e.live = false
	e.generation++
	e.next = a.freeHead
	a.freeHead = int32(h.slot)
	a.length--
	return value, true
}

// GetUnknownGen returns the payload at the given slot regardless of
// generation, along with its current full handle.
//
// If the slot was freed and reused this silently returns a different
// live payload than the one the caller may remember. Only use it when
// no handle is available; prefer Get.
func (a *Arena[T]) GetUnknownGen(slot uint32) (*T, Handle, bool) {
	if int(slot) >= len(a.entries) {
		return nil, Invalid(), false
	}
	e := &a.entries[slot]
	if !e.live {
		return nil, Invalid(), false
	}
	return &e.value, Handle{slot: slot, generation: e.generation}, true
}

// ForEach visits every live payload in slot order. The order is
// stable across removals as long as no reinsertion reuses a slot.
func (a *Arena[T]) ForEach(fn func(Handle, *T)) {
	for i := range a.entries {
		e := &a.entries[i]
		if e.live {
			fn(Handle{slot: uint32(i), generation: e.generation}, &e.value)
		}
	}
}

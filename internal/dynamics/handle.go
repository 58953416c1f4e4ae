package dynamics

import "github.com/san-kum/rigidsim/internal/arena"

// BodyHandle is the stable identifier of a rigid body inside a
// BodySet. It survives slot reuse: a handle kept across a removal
// goes stale and every lookup through it fails gracefully.
type BodyHandle arena.Handle

// InvalidBodyHandle returns a handle that never resolves.
func InvalidBodyHandle() BodyHandle {
	return BodyHandle(arena.Invalid())
}

// RawParts exposes the slot index and generation of the handle.
func (h BodyHandle) RawParts() (slot, generation uint32) {
	return arena.Handle(h).RawParts()
}

// BodyHandleFromRawParts rebuilds a handle from its raw parts.
func BodyHandleFromRawParts(slot, generation uint32) BodyHandle {
	return BodyHandle(arena.NewHandle(slot, generation))
}

// ColliderHandle is the stable identifier of a collider inside a
// ColliderSet.
type ColliderHandle arena.Handle

// InvalidColliderHandle returns a handle that never resolves.
func InvalidColliderHandle() ColliderHandle {
	return ColliderHandle(arena.Invalid())
}

// JointHandle is the stable identifier of a joint inside a JointSet.
type JointHandle arena.Handle

// BodyPair is an unordered association of two body handles.
type BodyPair struct {
	Body1 BodyHandle
	Body2 BodyHandle
}

func NewBodyPair(body1, body2 BodyHandle) BodyPair {
	return BodyPair{Body1: body1, Body2: body2}
}

package dynamics

import "github.com/san-kum/rigidsim/internal/arena"

// BodySet owns every rigid body in the simulation. Besides the
// backing arena it maintains, step over step:
//
//   - the active dynamic and active kinematic sequences, with each
//     body storing its own index into whichever sequence holds it;
//   - the modified-inactive sequence, recording static or sleeping
//     bodies whose state changed and that downstream consumers must
//     still reprocess;
//   - the modified-bodies list plus the modified-all flag, the
//     coalescing change tracker consumed by Maintain;
//   - the island offset table built by UpdateActiveSetWithContacts,
//     slicing the active dynamic sequence into solver islands.
type BodySet struct {
	bodies *arena.Arena[RigidBody]

	activeDynamicSet    []BodyHandle
	activeKinematicSet  []BodyHandle
	modifiedInactiveSet []BodyHandle

	// activeIslands holds monotone offsets into activeDynamicSet,
	// with a sentinel end entry: island i is the half-open range
	// [activeIslands[i], activeIslands[i+1]).
	activeIslands []int

	activeSetTimestamp uint32

	modifiedBodies    []BodyHandle
	modifiedAllBodies bool

	// Traversal workspaces, reused across steps.
	canSleep []BodyHandle
	stack    []BodyHandle
}

// NewBodySet creates an empty body set.
func NewBodySet() *BodySet {
	return &BodySet{bodies: arena.New[RigidBody]()}
}

// Len reports the number of bodies in the set.
func (s *BodySet) Len() int { return s.bodies.Len() }

// Contains reports whether the handle refers to a live body.
func (s *BodySet) Contains(h BodyHandle) bool {
	return s.bodies.Contains(arena.Handle(h))
}

// Insert adds a body to the set and returns its handle. Internal
// back-references the body may carry from being a copy of another one
// are reset, and the body starts fully changed so the next
// maintenance pass reconciles it from scratch. Kinematic bodies join
// the active kinematic sequence immediately: they drive geometry even
// though they never sleep or wake by energy.
func (s *BodySet) Insert(rb RigidBody) BodyHandle {
	rb.resetInternalReferences()
	rb.changes = ChangesAll

	h := BodyHandle(s.bodies.Insert(rb))
	s.modifiedBodies = append(s.modifiedBodies, h)

	stored, _ := s.bodies.Get(arena.Handle(h))
	if stored.IsKinematic() {
		stored.activeSetID = len(s.activeKinematicSet)
		s.activeKinematicSet = append(s.activeKinematicSet, h)
	}
	return h
}

// inActiveSet reports whether rb, known by handle h, currently sits
// at its recorded index of the given sequence.
func inActiveSet(seq []BodyHandle, rb *RigidBody, h BodyHandle) bool {
	return rb.activeSetID < len(seq) && seq[rb.activeSetID] == h
}

// swapRemoveActive takes rb out of seq by swapping the last entry
// into its place, re-patching the displaced body's activeSetID.
func (s *BodySet) swapRemoveActive(seq *[]BodyHandle, rb *RigidBody) {
	set := *seq
	last := len(set) - 1
	set[rb.activeSetID] = set[last]
	*seq = set[:last]
	if rb.activeSetID < last {
		if moved, ok := s.getInternal(set[rb.activeSetID]); ok {
			moved.activeSetID = rb.activeSetID
		}
	}
}

// Remove deletes a body and returns it. The removal cascades: every
// attached collider is removed from the collider set, and the body is
// unlinked from the joint graph, deleting its joints. Returns false
// on a stale handle.
func (s *BodySet) Remove(h BodyHandle, colliders *ColliderSet, joints *JointSet) (RigidBody, bool) {
	rb, ok := s.bodies.Remove(arena.Handle(h))
	if !ok {
		return RigidBody{}, false
	}

	if inActiveSet(s.activeKinematicSet, &rb, h) {
		s.swapRemoveActive(&s.activeKinematicSet, &rb)
	}
	if inActiveSet(s.activeDynamicSet, &rb, h) {
		s.swapRemoveActive(&s.activeDynamicSet, &rb)
	}

	for _, ch := range rb.colliders {
		colliders.Remove(ch, s, false)
	}
	joints.RemoveRigidBody(rb.jointGraphIndex, s)

	return rb, true
}

// NumIslands reports the number of islands built by the last
// traversal. With no active bodies there is exactly one, empty,
// island.
func (s *BodySet) NumIslands() int {
	if len(s.activeIslands) == 0 {
		return 0
	}
	return len(s.activeIslands) - 1
}

// ActiveIslandRange returns the half-open range of islandID inside
// the active dynamic sequence.
func (s *BodySet) ActiveIslandRange(islandID int) (start, end int) {
	return s.activeIslands[islandID], s.activeIslands[islandID+1]
}

// ActiveIsland returns islandID's slice of the active dynamic
// sequence. Island slices are disjoint and share no contact or joint
// edge across their boundaries, so each may be handed to its own
// solver worker. The slice aliases internal storage: it is valid
// until the next traversal and callers must not grow or reorder it.
func (s *BodySet) ActiveIsland(islandID int) []BodyHandle {
	start, end := s.ActiveIslandRange(islandID)
	return s.activeDynamicSet[start:end]
}

// WakeUp forces a dynamic body awake, appending it to the active
// dynamic sequence if it is not already there. A strong wake keeps
// the body from re-sleeping for several subsequent steps. No-op on
// stale handles and on non-dynamic bodies.
func (s *BodySet) WakeUp(h BodyHandle, strong bool) {
	rb, ok := s.getInternal(h)
	if !ok || !rb.IsDynamic() {
		return
	}
	rb.WakeUp(strong)
	if !inActiveSet(s.activeDynamicSet, rb, h) {
		rb.activeSetID = len(s.activeDynamicSet)
		s.activeDynamicSet = append(s.activeDynamicSet, h)
	}
}

// Get returns the body for h, or false on a stale handle. Mutating
// the body through this accessor bypasses change tracking; use GetMut
// for mutation.
func (s *BodySet) Get(h BodyHandle) (*RigidBody, bool) {
	return s.bodies.Get(arena.Handle(h))
}

// GetMut returns the body for h for mutation. The body is flagged
// modified and recorded on the modified-bodies list so the next
// maintenance pass reconciles it; a body already flagged (or a
// pending full sweep) is not recorded twice.
func (s *BodySet) GetMut(h BodyHandle) (*RigidBody, bool) {
	rb, ok := s.bodies.Get(arena.Handle(h))
	if !ok {
		return nil, false
	}
	if !s.modifiedAllBodies && !rb.changes.Contains(ChangeModified) {
		rb.changes |= ChangeModified
		s.modifiedBodies = append(s.modifiedBodies, h)
	}
	return rb, true
}

// GetUnknownGen returns the body living at the given arena slot, with
// its full current handle, regardless of generation.
//
// If the slot was freed and reused this silently returns a different
// live body than the one the caller had in mind. Only for callers
// that genuinely have no handle; prefer Get.
func (s *BodySet) GetUnknownGen(slot uint32) (*RigidBody, BodyHandle, bool) {
	rb, h, ok := s.bodies.GetUnknownGen(slot)
	if !ok {
		return nil, InvalidBodyHandle(), false
	}
	return rb, BodyHandle(h), true
}

// GetUnknownGenMut is GetUnknownGen with the change tracking of
// GetMut. The same ABA hazard applies.
func (s *BodySet) GetUnknownGenMut(slot uint32) (*RigidBody, BodyHandle, bool) {
	rb, raw, ok := s.bodies.GetUnknownGen(slot)
	if !ok {
		return nil, InvalidBodyHandle(), false
	}
	h := BodyHandle(raw)
	if !s.modifiedAllBodies && !rb.changes.Contains(ChangeModified) {
		rb.changes |= ChangeModified
		s.modifiedBodies = append(s.modifiedBodies, h)
	}
	return rb, h, true
}

// getInternal is the untracked lookup used by the set itself and its
// collaborators during cascades.
func (s *BodySet) getInternal(h BodyHandle) (*RigidBody, bool) {
	return s.bodies.Get(arena.Handle(h))
}

// GetUntracked returns the body for h without change tracking. It
// exists for solver workers mutating disjoint islands in parallel:
// GetMut appends to the shared modified list and must not be called
// concurrently, while untracked access to bodies of distinct islands
// is safe by the island partition invariant.
func (s *BodySet) GetUntracked(h BodyHandle) (*RigidBody, bool) {
	return s.bodies.Get(arena.Handle(h))
}

// ForEach visits every body in slot order, read-only by convention.
func (s *BodySet) ForEach(fn func(BodyHandle, *RigidBody)) {
	s.bodies.ForEach(func(h arena.Handle, rb *RigidBody) {
		fn(BodyHandle(h), rb)
	})
}

// ForEachMut visits every body for mutation. Precise tracking of a
// full sweep is not worth the bookkeeping, so the modified list is
// dropped and the modified-all flag raised: the next maintenance pass
// conservatively treats every body as changed.
func (s *BodySet) ForEachMut(fn func(BodyHandle, *RigidBody)) {
	s.modifiedBodies = s.modifiedBodies[:0]
	s.modifiedAllBodies = true
	s.bodies.ForEach(func(h arena.Handle, rb *RigidBody) {
		fn(BodyHandle(h), rb)
	})
}

// ForEachActiveDynamicBody visits the active dynamic sequence in
// order.
func (s *BodySet) ForEachActiveDynamicBody(fn func(BodyHandle, *RigidBody)) {
	for _, h := range s.activeDynamicSet {
		if rb, ok := s.bodies.Get(arena.Handle(h)); ok {
			fn(h, rb)
		}
	}
}

// ForEachActiveKinematicBody visits the active kinematic sequence in
// order.
func (s *BodySet) ForEachActiveKinematicBody(fn func(BodyHandle, *RigidBody)) {
	for _, h := range s.activeKinematicSet {
		if rb, ok := s.bodies.Get(arena.Handle(h)); ok {
			fn(h, rb)
		}
	}
}

// ForEachActiveBody visits the active dynamic sequence, then the
// active kinematic sequence.
func (s *BodySet) ForEachActiveBody(fn func(BodyHandle, *RigidBody)) {
	s.ForEachActiveDynamicBody(fn)
	s.ForEachActiveKinematicBody(fn)
}

// ForEachActiveIslandBody visits one island's slice of the active
// dynamic sequence.
func (s *BodySet) ForEachActiveIslandBody(islandID int, fn func(BodyHandle, *RigidBody)) {
	for _, h := range s.ActiveIsland(islandID) {
		if rb, ok := s.bodies.Get(arena.Handle(h)); ok {
			fn(h, rb)
		}
	}
}

// ModifiedInactive returns the handles of inactive (typically static)
// bodies whose state changed since the last ClearModifiedInactive.
// Downstream consumers such as a broad phase must reprocess their
// colliders even though these bodies never enter an active sequence.
func (s *BodySet) ModifiedInactive() []BodyHandle {
	return s.modifiedInactiveSet
}

// ClearModifiedInactive resets the modified-inactive sequence once
// its consumers are done with it.
func (s *BodySet) ClearModifiedInactive() {
	s.modifiedInactiveSet = s.modifiedInactiveSet[:0]
}

// maintainOne reconciles one possibly-changed body. The branch order
// matters: collider sync first, active-set readmission second, and
// the change bitset is cleared unconditionally at the end.
func (s *BodySet) maintainOne(colliders *ColliderSet, h BodyHandle, rb *RigidBody) {
	if rb.changes.Contains(ChangePosition) || rb.changes.Contains(ChangeColliders) {
		rb.UpdateCollidersPositions(colliders)

		if rb.IsStatic() {
			s.modifiedInactiveSet = append(s.modifiedInactiveSet, h)
		}

		// A kinematic body can drop out of the kinematic sequence
		// and come back, e.g. after being reparented.
		if rb.IsKinematic() && !inActiveSet(s.activeKinematicSet, rb, h) {
			rb.activeSetID = len(s.activeKinematicSet)
			s.activeKinematicSet = append(s.activeKinematicSet, h)
		}
	}

	// Re-admit a manually woken dynamic body. The sleeping check
	// matters: the body may have been put back to sleep after the
	// flag was set.
	if rb.changes.Contains(ChangeSleep) &&
		!rb.IsSleeping() &&
		rb.IsDynamic() &&
		!inActiveSet(s.activeDynamicSet, rb, h) {
		rb.activeSetID = len(s.activeDynamicSet)
		s.activeDynamicSet = append(s.activeDynamicSet, h)
	}

	rb.changes = 0
}

// Maintain reconciles accumulated change flags into active-set
// membership and collider transforms. Runs once per step, before the
// island traversal. Either the precise modified list or, after a bulk
// mutable sweep, every body is processed; both tracking states end
// cleared.
func (s *BodySet) Maintain(colliders *ColliderSet) {
	if s.modifiedAllBodies {
		s.bodies.ForEach(func(h arena.Handle, rb *RigidBody) {
			s.maintainOne(colliders, BodyHandle(h), rb)
		})
		s.modifiedBodies = s.modifiedBodies[:0]
		s.modifiedAllBodies = false
		return
	}

	for _, h := range s.modifiedBodies {
		if rb, ok := s.bodies.Get(arena.Handle(h)); ok {
			s.maintainOne(colliders, h, rb)
		}
	}
	s.modifiedBodies = s.modifiedBodies[:0]
}

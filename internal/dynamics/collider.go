package dynamics

import (
	"github.com/san-kum/rigidsim/internal/arena"
	"github.com/san-kum/rigidsim/internal/geometry"
)

// Collider is a piece of collision geometry attached to a body. The
// narrow phase matches colliders pairwise; the dynamics core only
// needs the parent back-reference and the world transform.
type Collider struct {
	Parent BodyHandle
	Shape  geometry.Ball
	// PositionWrtParent is the collider transform in the parent
	// body's local frame.
	PositionWrtParent geometry.Iso2
	// Position is the collider's world transform, kept in sync by
	// the maintenance pass and the solver.
	Position geometry.Iso2
}

// NewCollider creates a ball collider centered on its parent body.
func NewCollider(radius float64) Collider {
	return Collider{Shape: geometry.Ball{Radius: radius}}
}

// ColliderSet owns all colliders, keyed by generation-safe handles.
type ColliderSet struct {
	colliders *arena.Arena[Collider]
}

func NewColliderSet() *ColliderSet {
	return &ColliderSet{colliders: arena.New[Collider]()}
}

func (s *ColliderSet) Len() int { return s.colliders.Len() }

func (s *ColliderSet) Contains(h ColliderHandle) bool {
	return s.colliders.Contains(arena.Handle(h))
}

func (s *ColliderSet) Get(h ColliderHandle) (*Collider, bool) {
	return s.colliders.Get(arena.Handle(h))
}

// ForEach visits every live collider in slot order.
func (s *ColliderSet) ForEach(fn func(ColliderHandle, *Collider)) {
	s.colliders.ForEach(func(h arena.Handle, co *Collider) {
		fn(ColliderHandle(h), co)
	})
}

// Insert attaches a collider to parent and returns its handle. The
// parent is flagged with a collider change so the next maintenance
// pass re-syncs transforms; its world position is set immediately so
// the collider is usable before that pass runs.
func (s *ColliderSet) Insert(co Collider, parent BodyHandle, bodies *BodySet) ColliderHandle {
	co.Parent = parent
	h := ColliderHandle(s.colliders.Insert(co))

	if rb, ok := bodies.GetMut(parent); ok {
		rb.colliders = append(rb.colliders, h)
		rb.changes |= ChangeColliders
		if stored, ok := s.Get(h); ok {
			stored.Position = rb.position.Mul(stored.PositionWrtParent)
		}
	}
	return h
}

// Remove deletes a collider and detaches it from its parent body. If
// wakeUp is set the parent is strongly woken, so resting stacks
// readjust when geometry under them disappears. The parent lookup
// failing is normal: body removal cascades into here after the body
// already left its arena.
func (s *ColliderSet) Remove(h ColliderHandle, bodies *BodySet, wakeUp bool) (Collider, bool) {
	co, ok := s.colliders.Remove(arena.Handle(h))
	if !ok {
		return Collider{}, false
	}

	if rb, ok := bodies.getInternal(co.Parent); ok {
		for i, ch := range rb.colliders {
			if ch == h {
				last := len(rb.colliders) - 1
				rb.colliders[i] = rb.colliders[last]
				rb.colliders = rb.colliders[:last]
				break
			}
		}
		rb.changes |= ChangeColliders
		if wakeUp {
			bodies.WakeUp(co.Parent, true)
		}
	}
	return co, true
}

package dynamics

import "github.com/san-kum/rigidsim/internal/arena"

// pushContactingBodies pushes onto the traversal stack the parent of
// every collider in live contact with one of rb's colliders. Pairs
// whose manifolds carry no solver contact are proximity records and
// do not transmit wakefulness.
func (s *BodySet) pushContactingBodies(rb *RigidBody, colliders *ColliderSet, narrowPhase *NarrowPhase) {
	for _, ch := range rb.colliders {
		for _, pair := range narrowPhase.ContactsWith(ch) {
			if !pair.HasSolverContacts() {
				continue
			}
			other := pair.OtherCollider(ch)
			if co, ok := colliders.Get(other); ok {
				s.stack = append(s.stack, co.Parent)
			}
		}
	}
}

// UpdateActiveSetWithContacts recomputes sleep state and rebuilds the
// active dynamic sequence partitioned into islands. Runs once per
// step, after Maintain and before the solver.
//
// Every body whose smoothed energy fell to its threshold becomes a
// sleep candidate; the remaining awake bodies, plus everything in
// contact with a moving kinematic body, seed a traversal of the union
// of the contact and joint graphs. Each body reached is woken,
// stamped, assigned an island and appended to the rebuilt sequence;
// static bodies never propagate past themselves. Candidates the
// traversal never reached are actually put to sleep.
//
// Islands are closed only once they hold at least minIslandSize
// bodies (the final island may be smaller), trading parallel-solve
// granularity against per-island overhead. minIslandSize < 1 is a
// programmer error and panics. With no active bodies the island
// table is [0 0]: a single empty island, not a phantom boundary.
func (s *BodySet) UpdateActiveSetWithContacts(
	colliders *ColliderSet,
	narrowPhase *NarrowPhase,
	joints *JointSet,
	minIslandSize int,
) {
	if minIslandSize < 1 {
		panic("dynamics: minimum island size must be at least 1")
	}

	s.activeSetTimestamp++
	s.stack = s.stack[:0]
	s.canSleep = s.canSleep[:0]

	// Drain in reverse so two successive steps keep the same body
	// order in the active dynamic sequence. Not needed for
	// correctness, but it makes debugging nicer.
	for i := len(s.activeDynamicSet) - 1; i >= 0; i-- {
		h := s.activeDynamicSet[i]
		rb, ok := s.bodies.Get(arena.Handle(h))
		if !ok {
			continue
		}
		rb.updateEnergy()
		if rb.Activation.Energy <= rb.Activation.Threshold {
			// Tentatively sleeping; the traversal clears the flag
			// if the body is reached.
			rb.Activation.Sleeping = true
			s.canSleep = append(s.canSleep, h)
		} else {
			s.stack = append(s.stack, h)
		}
	}
	s.activeDynamicSet = s.activeDynamicSet[:0]

	// A moving kinematic body wakes whatever it touches. A
	// non-moving one cannot wake anything.
	for _, h := range s.activeKinematicSet {
		rb, ok := s.bodies.Get(arena.Handle(h))
		if !ok || !rb.IsMoving() {
			continue
		}
		s.pushContactingBodies(rb, colliders, narrowPhase)
	}

	s.activeIslands = s.activeIslands[:0]
	s.activeIslands = append(s.activeIslands, 0)

	// The max guards the underflow when the stack starts empty.
	islandMarker := max(len(s.stack), 1) - 1

	for len(s.stack) > 0 {
		h := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		rb, ok := s.bodies.Get(arena.Handle(h))
		if !ok {
			continue
		}
		if rb.activeSetTimestamp == s.activeSetTimestamp || !rb.IsDynamic() {
			// Already visited this step, or a static body: awake
			// state stops here.
			continue
		}

		if len(s.stack) < islandMarker {
			if len(s.activeDynamicSet)-s.activeIslands[len(s.activeIslands)-1] >= minIslandSize {
				// Current island is big enough; start a new one.
				s.activeIslands = append(s.activeIslands, len(s.activeDynamicSet))
			}
			islandMarker = len(s.stack)
		}

		rb.WakeUp(false)
		rb.activeIslandID = len(s.activeIslands) - 1
		rb.activeSetID = len(s.activeDynamicSet)
		rb.activeSetOffset = rb.activeSetID - s.activeIslands[rb.activeIslandID]
		rb.activeSetTimestamp = s.activeSetTimestamp
		s.activeDynamicSet = append(s.activeDynamicSet, h)

		// Transmit the awake state through contacts and joints.
		s.pushContactingBodies(rb, colliders, narrowPhase)
		joints.InteractionsWith(rb.jointGraphIndex, func(body1, body2 BodyHandle, _ *Joint) {
			other := body1
			if body1 == h {
				other = body2
			}
			s.stack = append(s.stack, other)
		})
	}

	s.activeIslands = append(s.activeIslands, len(s.activeDynamicSet))

	// Put to sleep every candidate the traversal never cleared.
	for _, h := range s.canSleep {
		if rb, ok := s.bodies.Get(arena.Handle(h)); ok && rb.Activation.Sleeping {
			rb.sleep()
		}
	}
}

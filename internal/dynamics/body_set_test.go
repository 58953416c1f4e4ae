package dynamics

import (
	"testing"

	"github.com/san-kum/rigidsim/internal/geometry"
)

func newTestSets() (*BodySet, *ColliderSet, *JointSet, *NarrowPhase) {
	return NewBodySet(), NewColliderSet(), NewJointSet(), NewNarrowPhase()
}

// addBall inserts a body of the given status with one ball collider at
// (x, y).
func addBall(bodies *BodySet, colliders *ColliderSet, status BodyStatus, x, y, radius float64) BodyHandle {
	rb := NewRigidBody(status)
	rb.SetPosition(geometry.Iso2{Translation: geometry.Vec2{X: x, Y: y}})
	h := bodies.Insert(rb)
	colliders.Insert(NewCollider(radius), h, bodies)
	return h
}

func activeDynamicHandles(bodies *BodySet) []BodyHandle {
	var out []BodyHandle
	bodies.ForEachActiveDynamicBody(func(h BodyHandle, _ *RigidBody) {
		out = append(out, h)
	})
	return out
}

func TestInsertStartsFullyChanged(t *testing.T) {
	bodies := NewBodySet()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))

	rb, ok := bodies.Get(h)
	if !ok {
		t.Fatal("inserted body not found")
	}
	if rb.changes != ChangesAll {
		t.Errorf("changes = %b, want %b", rb.changes, ChangesAll)
	}
	if len(bodies.modifiedBodies) != 1 || bodies.modifiedBodies[0] != h {
		t.Errorf("modified list = %v, want [%v]", bodies.modifiedBodies, h)
	}
}

func TestMaintainActivatesInsertedDynamic(t *testing.T) {
	bodies, colliders, _, _ := newTestSets()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))

	if got := activeDynamicHandles(bodies); len(got) != 0 {
		t.Fatalf("body active before maintenance: %v", got)
	}
	bodies.Maintain(colliders)
	got := activeDynamicHandles(bodies)
	if len(got) != 1 || got[0] != h {
		t.Errorf("active dynamic set = %v, want [%v]", got, h)
	}
}

func TestInsertKinematicActivatesImmediately(t *testing.T) {
	bodies := NewBodySet()
	h := bodies.Insert(NewRigidBody(BodyStatusKinematic))

	var got []BodyHandle
	bodies.ForEachActiveKinematicBody(func(kh BodyHandle, _ *RigidBody) {
		got = append(got, kh)
	})
	if len(got) != 1 || got[0] != h {
		t.Errorf("active kinematic set = %v, want [%v]", got, h)
	}
}

func TestGetMutTracksOnce(t *testing.T) {
	bodies, colliders, _, _ := newTestSets()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))
	bodies.Maintain(colliders)

	if n := len(bodies.modifiedBodies); n != 0 {
		t.Fatalf("modified list not drained by maintenance: %d entries", n)
	}
	for i := 0; i < 3; i++ {
		if _, ok := bodies.GetMut(h); !ok {
			t.Fatal("body not found")
		}
	}
	if n := len(bodies.modifiedBodies); n != 1 {
		t.Errorf("modified list has %d entries after repeated access, want 1", n)
	}
}

func TestGetMutStaleHandle(t *testing.T) {
	bodies, colliders, joints, _ := newTestSets()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))
	bodies.Remove(h, colliders, joints)

	if _, ok := bodies.GetMut(h); ok {
		t.Error("stale handle resolved")
	}
	if _, ok := bodies.Get(h); ok {
		t.Error("stale handle resolved via Get")
	}
}

func TestForEachMutRaisesModifiedAll(t *testing.T) {
	bodies, colliders, _, _ := newTestSets()
	a := bodies.Insert(NewRigidBody(BodyStatusDynamic))
	b := bodies.Insert(NewRigidBody(BodyStatusDynamic))
	bodies.Maintain(colliders)

	bodies.ForEachMut(func(_ BodyHandle, rb *RigidBody) {
		rb.SetLinvel(geometry.Vec2{X: 1})
	})
	if !bodies.modifiedAllBodies {
		t.Error("modified-all flag not raised")
	}
	if len(bodies.modifiedBodies) != 0 {
		t.Error("precise list should be dropped by a bulk sweep")
	}

	// The sweep set a position change on nothing, but the next
	// maintenance still processes every body and clears the state.
	bodies.Maintain(colliders)
	if bodies.modifiedAllBodies {
		t.Error("modified-all flag not cleared by maintenance")
	}
	for _, h := range []BodyHandle{a, b} {
		rb, _ := bodies.Get(h)
		if rb.changes != 0 {
			t.Errorf("changes not cleared for %v: %b", h, rb.changes)
		}
	}
}

func TestWakeUpAppendsOnce(t *testing.T) {
	bodies := NewBodySet()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))

	bodies.WakeUp(h, true)
	bodies.WakeUp(h, true)
	if got := activeDynamicHandles(bodies); len(got) != 1 {
		t.Errorf("active dynamic set = %v, want a single entry", got)
	}
}

func TestWakeUpIgnoresNonDynamic(t *testing.T) {
	bodies := NewBodySet()
	st := bodies.Insert(NewRigidBody(BodyStatusStatic))
	kin := bodies.Insert(NewRigidBody(BodyStatusKinematic))

	bodies.WakeUp(st, true)
	bodies.WakeUp(kin, true)
	bodies.WakeUp(InvalidBodyHandle(), true)
	if got := activeDynamicHandles(bodies); len(got) != 0 {
		t.Errorf("active dynamic set = %v, want empty", got)
	}
}

func TestRemovePatchesActiveSet(t *testing.T) {
	bodies, colliders, joints, _ := newTestSets()
	handles := make([]BodyHandle, 4)
	for i := range handles {
		handles[i] = bodies.Insert(NewRigidBody(BodyStatusDynamic))
	}
	bodies.Maintain(colliders)

	if _, ok := bodies.Remove(handles[1], colliders, joints); !ok {
		t.Fatal("remove failed")
	}

	// Every surviving body must still sit at its recorded index.
	bodies.ForEachActiveDynamicBody(func(h BodyHandle, rb *RigidBody) {
		if bodies.activeDynamicSet[rb.activeSetID] != h {
			t.Errorf("body %v: activeSetID %d points at %v", h, rb.activeSetID, bodies.activeDynamicSet[rb.activeSetID])
		}
	})
	if got := activeDynamicHandles(bodies); len(got) != 3 {
		t.Errorf("active dynamic set has %d entries, want 3", len(got))
	}
}

func TestRemoveCascades(t *testing.T) {
	bodies, colliders, joints, _ := newTestSets()
	a := addBall(bodies, colliders, BodyStatusDynamic, 0, 0, 0.5)
	b := addBall(bodies, colliders, BodyStatusDynamic, 2, 0, 0.5)
	jh, ok := joints.Insert(bodies, a, b, Joint{})
	if !ok {
		t.Fatal("joint insert failed")
	}

	if _, ok := bodies.Remove(a, colliders, joints); !ok {
		t.Fatal("remove failed")
	}
	if bodies.Contains(a) {
		t.Error("removed body still contained")
	}
	if colliders.Len() != 1 {
		t.Errorf("collider count = %d, want 1", colliders.Len())
	}
	if joints.Contains(jh) {
		t.Error("joint survived endpoint removal")
	}
	rb, _ := bodies.Get(b)
	if rb.IsSleeping() {
		t.Error("surviving endpoint not awake")
	}
}

func TestRemoveStaleHandle(t *testing.T) {
	bodies, colliders, joints, _ := newTestSets()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))
	if _, ok := bodies.Remove(h, colliders, joints); !ok {
		t.Fatal("first remove failed")
	}
	if _, ok := bodies.Remove(h, colliders, joints); ok {
		t.Error("second remove succeeded on stale handle")
	}
}

func TestMaintainStaticChangeGoesToModifiedInactive(t *testing.T) {
	bodies, colliders, _, _ := newTestSets()
	h := addBall(bodies, colliders, BodyStatusStatic, 0, 0, 1)
	bodies.Maintain(colliders)
	bodies.ClearModifiedInactive()

	rb, _ := bodies.GetMut(h)
	rb.SetPosition(geometry.Iso2{Translation: geometry.Vec2{X: 5}})
	bodies.Maintain(colliders)

	inactive := bodies.ModifiedInactive()
	if len(inactive) != 1 || inactive[0] != h {
		t.Errorf("modified inactive = %v, want [%v]", inactive, h)
	}

	// The collider transform followed the body.
	co, _ := colliders.Get(rb.Colliders()[0])
	if co.Position.Translation.X != 5 {
		t.Errorf("collider x = %f, want 5", co.Position.Translation.X)
	}

	bodies.ClearModifiedInactive()
	if len(bodies.ModifiedInactive()) != 0 {
		t.Error("modified inactive not cleared")
	}
}

func TestMaintainIsIdempotent(t *testing.T) {
	bodies, colliders, _, _ := newTestSets()
	addBall(bodies, colliders, BodyStatusDynamic, 0, 0, 1)
	bodies.Maintain(colliders)
	before := len(activeDynamicHandles(bodies))

	bodies.Maintain(colliders)
	if after := len(activeDynamicHandles(bodies)); after != before {
		t.Errorf("second maintenance changed the active set: %d -> %d", before, after)
	}
}

func TestMaintainSkipsSleepingBody(t *testing.T) {
	bodies, colliders, _, _ := newTestSets()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))

	// The sleep flag was set, but the body went back to sleep before
	// maintenance ran: it must not be re-admitted.
	rb, _ := bodies.Get(h)
	rb.Activation.Sleeping = true
	rb.Activation.Energy = 0

	bodies.Maintain(colliders)
	if got := activeDynamicHandles(bodies); len(got) != 0 {
		t.Errorf("sleeping body admitted to active set: %v", got)
	}
}

func TestGetUnknownGenRecoversHandle(t *testing.T) {
	bodies := NewBodySet()
	h := bodies.Insert(NewRigidBody(BodyStatusDynamic))
	slot, _ := h.RawParts()

	_, recovered, ok := bodies.GetUnknownGen(slot)
	if !ok {
		t.Fatal("lookup by slot failed")
	}
	if recovered != h {
		t.Errorf("recovered handle %v, want %v", recovered, h)
	}
}

func TestNumIslandsBeforeTraversal(t *testing.T) {
	bodies := NewBodySet()
	if n := bodies.NumIslands(); n != 0 {
		t.Errorf("NumIslands = %d before any traversal, want 0", n)
	}
}

package dynamics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/geometry"
)

// Changes accumulates what external mutators did to a body since the
// last maintenance pass consumed and cleared it.
type Changes uint8

const (
	// ChangeModified marks the body as touched through a tracked
	// mutable access. It gates duplicate entries on the
	// modified-bodies list.
	ChangeModified Changes = 1 << iota
	// ChangePosition marks a direct position write that requires a
	// collider transform sync.
	ChangePosition
	// ChangeColliders marks an attach/detach of a collider.
	ChangeColliders
	// ChangeSleep marks a wake/sleep state flip done directly on the
	// body, outside the island traversal.
	ChangeSleep
)

// ChangesAll is the state of a freshly inserted body: everything must
// be reconciled on the next maintenance pass.
const ChangesAll = ChangeModified | ChangePosition | ChangeColliders | ChangeSleep

func (c Changes) Contains(o Changes) bool { return c&o == o }

// BodyStatus classifies a body. It is fixed for the body's lifetime.
type BodyStatus uint8

const (
	// BodyStatusDynamic bodies move under forces and participate in
	// energy-based sleeping.
	BodyStatusDynamic BodyStatus = iota
	// BodyStatusStatic bodies never move and never propagate
	// wakefulness.
	BodyStatusStatic
	// BodyStatusKinematic bodies are driven externally and count as
	// always active.
	BodyStatusKinematic
)

func (s BodyStatus) String() string {
	switch s {
	case BodyStatusDynamic:
		return "dynamic"
	case BodyStatusStatic:
		return "static"
	case BodyStatusKinematic:
		return "kinematic"
	default:
		return "unknown"
	}
}

const (
	// DefaultSleepThreshold is the smoothed kinetic energy below
	// which a dynamic body becomes a sleep candidate.
	DefaultSleepThreshold = 0.01

	// wakeEnergyFactor sets the energy restored by a wake-up, as a
	// multiple of the threshold. With the energyMix decay below this
	// keeps a woken body out of sleep candidacy for several steps.
	wakeEnergyFactor = 2.0

	// energyMix is the blend weight of the instantaneous kinetic
	// energy into the smoothed activation energy.
	energyMix = 0.2
)

// Activation tracks the sleep state of a dynamic body.
type Activation struct {
	// Energy is an exponential moving average of the body's kinetic
	// energy (squared linear velocity plus squared angular velocity).
	Energy float64
	// Threshold is the energy level below which the body may sleep.
	Threshold float64
	// Sleeping is true while the body is excluded from the active
	// dynamic set.
	Sleeping bool
}

// newActivation returns the awake state of a freshly created body.
// The initial energy is wakeEnergyFactor times the threshold, so a
// body inserted at rest stays awake for a few settle steps before
// decaying into sleep candidacy.
func newActivation() Activation {
	return Activation{
		Energy:    DefaultSleepThreshold * wakeEnergyFactor,
		Threshold: DefaultSleepThreshold,
	}
}

// RigidBody is one simulated body. All bookkeeping fields are owned
// by the BodySet holding the body; external code mutates bodies only
// through the tracked accessors of the set.
type RigidBody struct {
	Mass       float64
	Activation Activation

	status   BodyStatus
	position geometry.Iso2
	linvel   geometry.Vec2
	angvel   float64
	changes  Changes

	colliders       []ColliderHandle
	jointGraphIndex int32

	// Index of this body inside whichever active sequence currently
	// holds it; lets removal swap in O(1).
	activeSetID int
	// Island membership and local offset, written by the traversal.
	activeIslandID  int
	activeSetOffset int
	// Last traversal timestamp this body was visited at.
	activeSetTimestamp uint32
}

// NewRigidBody creates a body of the given status, awake and with
// unit mass.
func NewRigidBody(status BodyStatus) RigidBody {
	return RigidBody{
		Mass:            1.0,
		Activation:      newActivation(),
		status:          status,
		jointGraphIndex: invalidGraphIndex,
	}
}

func (rb *RigidBody) Status() BodyStatus { return rb.status }
func (rb *RigidBody) IsDynamic() bool    { return rb.status == BodyStatusDynamic }
func (rb *RigidBody) IsStatic() bool     { return rb.status == BodyStatusStatic }
func (rb *RigidBody) IsKinematic() bool  { return rb.status == BodyStatusKinematic }

func (rb *RigidBody) IsSleeping() bool { return rb.Activation.Sleeping }

// IsMoving reports whether the body has any velocity at all.
func (rb *RigidBody) IsMoving() bool {
	return rb.linvel.NormSquared() != 0.0 || rb.angvel != 0.0
}

func (rb *RigidBody) Position() geometry.Iso2 { return rb.position }

// SetPosition teleports the body and records that its collider
// transforms must be re-synced by the next maintenance pass.
func (rb *RigidBody) SetPosition(pos geometry.Iso2) {
	rb.position = pos
	rb.changes |= ChangePosition
}

func (rb *RigidBody) Linvel() geometry.Vec2     { return rb.linvel }
func (rb *RigidBody) SetLinvel(v geometry.Vec2) { rb.linvel = v }
func (rb *RigidBody) Angvel() float64           { return rb.angvel }
func (rb *RigidBody) SetAngvel(w float64)       { rb.angvel = w }

// Colliders returns the handles of the colliders attached to this
// body. The slice is owned by the body; callers must not mutate it.
func (rb *RigidBody) Colliders() []ColliderHandle { return rb.colliders }

// ActiveIslandID is the island this body was assigned by the last
// traversal. Meaningless for non-dynamic or sleeping bodies.
func (rb *RigidBody) ActiveIslandID() int { return rb.activeIslandID }

// ActiveSetOffset is the body's position inside its island's slice of
// the active dynamic sequence.
func (rb *RigidBody) ActiveSetOffset() int { return rb.activeSetOffset }

// resetInternalReferences clears any back-references the body may
// carry from being a copy of another live body. Insert relies on it.
func (rb *RigidBody) resetInternalReferences() {
	rb.colliders = nil
	rb.jointGraphIndex = invalidGraphIndex
	rb.activeSetID = 0
	rb.activeIslandID = 0
	rb.activeSetOffset = 0
	rb.activeSetTimestamp = 0
}

// WakeUp forces the body awake. A strong wake (or a wake from fully
// drained energy) restores the activation energy so the body will not
// become a sleep candidate again for several steps. Adding the body
// back to an active sequence is the owning set's job; prefer
// BodySet.WakeUp unless you are inside the set already.
func (rb *RigidBody) WakeUp(strong bool) {
	rb.changes |= ChangeSleep
	rb.Activation.Sleeping = false
	if strong || rb.Activation.Energy == 0.0 {
		rb.Activation.Energy = math.Abs(rb.Activation.Threshold) * wakeEnergyFactor
	}
}

// sleep transitions the body to the sleeping state, draining its
// velocities and activation energy.
func (rb *RigidBody) sleep() {
	rb.changes |= ChangeSleep
	rb.Activation.Sleeping = true
	rb.Activation.Energy = 0.0
	rb.linvel = geometry.Vec2{}
	rb.angvel = 0.0
}

// updateEnergy folds the current kinetic energy into the smoothed
// activation energy.
func (rb *RigidBody) updateEnergy() {
	kinetic := rb.linvel.NormSquared() + rb.angvel*rb.angvel
	rb.Activation.Energy = rb.Activation.Energy*(1.0-energyMix) + kinetic*energyMix
}

// UpdateCollidersPositions pushes the body's world transform to every
// attached collider.
func (rb *RigidBody) UpdateCollidersPositions(colliders *ColliderSet) {
	for _, ch := range rb.colliders {
		if co, ok := colliders.Get(ch); ok {
			co.Position = rb.position.Mul(co.PositionWrtParent)
		}
	}
}

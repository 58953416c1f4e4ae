package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/rigidsim/internal/dynamics"
)

// Step advances the simulation by one timestep and returns its
// statistics. The order is fixed: integrate awake bodies (marking
// their changes), reconcile via Maintain, refresh the contact graph,
// recompute sleep state and islands, then solve each island in
// parallel.
func (w *World) Step() StepStats {
	start := time.Now()
	dt := w.cfg.Dt

	w.integrate(dt)
	w.Bodies.Maintain(w.Colliders)
	w.NarrowPhase.UpdateFromColliders(w.Colliders)
	w.Bodies.UpdateActiveSetWithContacts(w.Colliders, w.NarrowPhase, w.Joints, w.cfg.MinIslandSize)
	w.solveIslands()
	w.syncActiveColliders()

	w.step++
	w.time += dt

	st := w.stats()
	st.Duration = time.Since(start)

	// The stats pass is this pipeline's only consumer of the
	// modified-inactive sequence; a broad phase would drain it here.
	w.Bodies.ClearModifiedInactive()

	w.log.Debug("step",
		zap.Int("step", st.Step),
		zap.Int("active", st.ActiveBodies),
		zap.Int("sleeping", st.SleepingBodies),
		zap.Int("islands", st.Islands),
		zap.Int("contacts", st.Contacts),
	)
	return st
}

// integrate applies gravity, damping and velocity to every active
// body. Bodies are re-fetched through GetMut so the maintenance pass
// sees them as changed and re-syncs their collider transforms.
func (w *World) integrate(dt float64) {
	w.scratch = w.scratch[:0]
	w.Bodies.ForEachActiveDynamicBody(func(h dynamics.BodyHandle, _ *dynamics.RigidBody) {
		w.scratch = append(w.scratch, h)
	})
	for _, h := range w.scratch {
		rb, ok := w.Bodies.GetMut(h)
		if !ok {
			continue
		}
		vel := rb.Linvel().Add(w.cfg.Gravity.Scale(dt)).Scale(w.cfg.LinearDamping)
		rb.SetLinvel(vel)

		pos := rb.Position()
		pos.Translation = pos.Translation.Add(vel.Scale(dt))
		pos.Rotation += rb.Angvel() * dt
		rb.SetPosition(pos)
	}

	// Kinematic bodies follow their externally set velocity.
	w.scratch = w.scratch[:0]
	w.Bodies.ForEachActiveKinematicBody(func(h dynamics.BodyHandle, _ *dynamics.RigidBody) {
		w.scratch = append(w.scratch, h)
	})
	for _, h := range w.scratch {
		rb, ok := w.Bodies.GetMut(h)
		if !ok || !rb.IsMoving() {
			continue
		}
		pos := rb.Position()
		pos.Translation = pos.Translation.Add(rb.Linvel().Scale(dt))
		pos.Rotation += rb.Angvel() * dt
		rb.SetPosition(pos)
	}
}

// syncActiveColliders pushes post-solve body transforms back to the
// colliders so the next step's contact pass sees them.
func (w *World) syncActiveColliders() {
	w.Bodies.ForEachActiveBody(func(_ dynamics.BodyHandle, rb *dynamics.RigidBody) {
		rb.UpdateCollidersPositions(w.Colliders)
	})
}

func (w *World) stats() StepStats {
	st := StepStats{
		Step:     w.step,
		Time:     w.time,
		Bodies:   w.Bodies.Len(),
		Islands:  w.Bodies.NumIslands(),
		Contacts: len(w.NarrowPhase.Pairs()),
	}
	w.Bodies.ForEachActiveDynamicBody(func(dynamics.BodyHandle, *dynamics.RigidBody) {
		st.ActiveBodies++
	})
	w.Bodies.ForEach(func(_ dynamics.BodyHandle, rb *dynamics.RigidBody) {
		if rb.IsDynamic() && rb.IsSleeping() {
			st.SleepingBodies++
		}
	})
	return st
}

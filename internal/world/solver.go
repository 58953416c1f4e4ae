package world

import (
	"sync"

	"github.com/san-kum/rigidsim/internal/dynamics"
)

// positionalCorrection is the fraction of remaining penetration
// resolved per step.
const positionalCorrection = 0.8

// solveIslands resolves contacts island by island, each island on its
// own goroutine. The traversal guarantees no contact or joint edge
// crosses an island boundary, so workers mutate disjoint body sets
// and need no locking; bodies are fetched through GetUntracked to
// keep workers off the shared change-tracking list.
func (w *World) solveIslands() {
	n := w.Bodies.NumIslands()
	if n == 0 {
		return
	}

	// Assign each live pair to the island of its first awake dynamic
	// parent. Pairs with no such parent have nothing to solve.
	buckets := make([][]*dynamics.ContactPair, n)
	for _, pair := range w.NarrowPhase.Pairs() {
		if !pair.HasSolverContacts() {
			continue
		}
		island := w.pairIsland(pair)
		if island >= 0 && island < n {
			buckets[island] = append(buckets[island], pair)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if len(buckets[i]) == 0 {
			continue
		}
		wg.Add(1)
		go func(pairs []*dynamics.ContactPair) {
			defer wg.Done()
			w.solvePairs(pairs)
		}(buckets[i])
	}
	wg.Wait()
}

func (w *World) pairIsland(pair *dynamics.ContactPair) int {
	for _, ch := range [2]dynamics.ColliderHandle{pair.ColliderA, pair.ColliderB} {
		co, ok := w.Colliders.Get(ch)
		if !ok {
			continue
		}
		rb, ok := w.Bodies.GetUntracked(co.Parent)
		if ok && rb.IsDynamic() && !rb.IsSleeping() {
			return rb.ActiveIslandID()
		}
	}
	return -1
}

// solvePairs runs one velocity-and-position pass over the pairs of a
// single island. Static and kinematic bodies have infinite effective
// mass and are never written to.
func (w *World) solvePairs(pairs []*dynamics.ContactPair) {
	for _, pair := range pairs {
		coA, okA := w.Colliders.Get(pair.ColliderA)
		coB, okB := w.Colliders.Get(pair.ColliderB)
		if !okA || !okB {
			continue
		}
		rbA, okA := w.Bodies.GetUntracked(coA.Parent)
		rbB, okB := w.Bodies.GetUntracked(coB.Parent)
		if !okA || !okB {
			continue
		}

		invMassA := invMass(rbA)
		invMassB := invMass(rbB)
		total := invMassA + invMassB
		if total == 0 {
			continue
		}

		for mi := range pair.Manifolds {
			m := &pair.Manifolds[mi]
			for _, contact := range m.SolverContacts {
				if contact.Dist >= 0 {
					continue
				}

				// Push the bodies apart along the normal.
				corr := -contact.Dist * positionalCorrection / total
				if invMassA > 0 {
					pos := rbA.Position()
					pos.Translation = pos.Translation.Sub(m.Normal.Scale(corr * invMassA))
					rbA.SetPosition(pos)
				}
				if invMassB > 0 {
					pos := rbB.Position()
					pos.Translation = pos.Translation.Add(m.Normal.Scale(corr * invMassB))
					rbB.SetPosition(pos)
				}

				// Cancel the approaching part of the relative
				// velocity (inelastic contact).
				rv := rbB.Linvel().Sub(rbA.Linvel()).Dot(m.Normal)
				if rv >= 0 {
					continue
				}
				impulse := -rv / total
				if invMassA > 0 {
					rbA.SetLinvel(rbA.Linvel().Sub(m.Normal.Scale(impulse * invMassA)))
				}
				if invMassB > 0 {
					rbB.SetLinvel(rbB.Linvel().Add(m.Normal.Scale(impulse * invMassB)))
				}
			}
		}
	}
}

func invMass(rb *dynamics.RigidBody) float64 {
	if !rb.IsDynamic() || rb.IsSleeping() || rb.Mass <= 0 {
		return 0
	}
	return 1.0 / rb.Mass
}

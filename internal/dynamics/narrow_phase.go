package dynamics

import "github.com/san-kum/rigidsim/internal/geometry"

// SolverContact is one contact point the solver acts on. A manifold
// with an empty solver-contact list is a proximity record only and
// must not propagate wakefulness.
type SolverContact struct {
	Point geometry.Vec2
	// Dist is the signed separation along the manifold normal,
	// negative when penetrating.
	Dist float64
}

// ContactManifold groups the contact points shared by one collider
// pair along a common normal.
type ContactManifold struct {
	Normal         geometry.Vec2 // world space, from A towards B
	SolverContacts []SolverContact
}

// ContactPair is the narrow-phase record for two touching colliders.
type ContactPair struct {
	ColliderA ColliderHandle
	ColliderB ColliderHandle
	Manifolds []ContactManifold
}

// HasSolverContacts reports whether any manifold carries at least one
// live solver contact. Only such pairs transmit wakefulness.
func (p *ContactPair) HasSolverContacts() bool {
	for i := range p.Manifolds {
		if len(p.Manifolds[i].SolverContacts) > 0 {
			return true
		}
	}
	return false
}

// OtherCollider returns the pair member that is not h.
func (p *ContactPair) OtherCollider(h ColliderHandle) ColliderHandle {
	if p.ColliderA == h {
		return p.ColliderB
	}
	return p.ColliderA
}

// NarrowPhase stores the current step's contact graph: which collider
// pairs touch, and with what manifolds. The dynamics core only reads
// it; filling it is the collision pipeline's job, either through
// RegisterContact or the brute-force UpdateFromColliders used by the
// demo scenes.
type NarrowPhase struct {
	pairs        []*ContactPair
	contactsWith map[ColliderHandle][]*ContactPair
}

func NewNarrowPhase() *NarrowPhase {
	return &NarrowPhase{contactsWith: make(map[ColliderHandle][]*ContactPair)}
}

// Clear drops all contact pairs, keeping allocations where possible.
func (np *NarrowPhase) Clear() {
	np.pairs = np.pairs[:0]
	clear(np.contactsWith)
}

// RegisterContact records a contact pair for this step.
func (np *NarrowPhase) RegisterContact(a, b ColliderHandle, manifolds ...ContactManifold) {
	pair := &ContactPair{ColliderA: a, ColliderB: b, Manifolds: manifolds}
	np.pairs = append(np.pairs, pair)
	np.contactsWith[a] = append(np.contactsWith[a], pair)
	np.contactsWith[b] = append(np.contactsWith[b], pair)
}

// ContactsWith returns every contact pair involving h. The returned
// slice is owned by the narrow phase and valid until the next Clear.
func (np *NarrowPhase) ContactsWith(h ColliderHandle) []*ContactPair {
	return np.contactsWith[h]
}

// Pairs returns all contact pairs of the current step.
func (np *NarrowPhase) Pairs() []*ContactPair {
	return np.pairs
}

// UpdateFromColliders rebuilds the contact graph by brute-force
// ball-ball overlap tests. Quadratic, but sufficient for the demo
// scenes this repository ships; a real broad phase would feed
// RegisterContact instead.
func (np *NarrowPhase) UpdateFromColliders(colliders *ColliderSet) {
	np.Clear()

	type entry struct {
		handle ColliderHandle
		co     *Collider
	}
	var all []entry
	colliders.ForEach(func(h ColliderHandle, co *Collider) {
		all = append(all, entry{handle: h, co: co})
	})

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if a.co.Parent == b.co.Parent {
				continue
			}
			d := b.co.Position.Translation.Sub(a.co.Position.Translation)
			dist := d.Norm() - a.co.Shape.Radius - b.co.Shape.Radius
			if dist > 0 {
				continue
			}
			normal := d.Normalize()
			if normal == (geometry.Vec2{}) {
				normal = geometry.Vec2{X: 0, Y: 1}
			}
			point := a.co.Position.Translation.Add(normal.Scale(a.co.Shape.Radius))
			np.RegisterContact(a.handle, b.handle, ContactManifold{
				Normal:         normal,
				SolverContacts: []SolverContact{{Point: point, Dist: dist}},
			})
		}
	}
}

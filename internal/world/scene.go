package world

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/rigidsim/internal/dynamics"
	"github.com/san-kum/rigidsim/internal/geometry"
)

// SceneNames lists the demo scenes BuildScene accepts.
func SceneNames() []string {
	return []string{"stack", "rain", "chain"}
}

// BuildScene constructs a populated world for one of the demo scenes.
// bodies is the number of dynamic bodies; seed only matters for
// scenes with random placement.
func BuildScene(name string, cfg Config, bodies int, seed int64) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bodies < 1 {
		bodies = 1
	}

	w := New(cfg)
	switch name {
	case "stack":
		buildStack(w, bodies)
	case "rain":
		buildRain(w, bodies, seed)
	case "chain":
		buildChain(w, bodies)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return w, nil
}

func addBody(w *World, status dynamics.BodyStatus, pos geometry.Vec2, radius float64) dynamics.BodyHandle {
	rb := dynamics.NewRigidBody(status)
	rb.SetPosition(geometry.Iso2{Translation: pos})
	h := w.Bodies.Insert(rb)
	w.Colliders.Insert(dynamics.NewCollider(radius), h, w.Bodies)
	return h
}

// buildStack places a column of touching balls on a static ground,
// with a slow kinematic paddle drifting towards the column so the
// kinematic wake path gets exercised once the stack has settled.
func buildStack(w *World, n int) {
	addBody(w, dynamics.BodyStatusStatic, geometry.Vec2{Y: -20}, 20)

	for i := 0; i < n; i++ {
		addBody(w, dynamics.BodyStatusDynamic, geometry.Vec2{Y: 0.5 + float64(i)}, 0.5)
	}

	paddle := addBody(w, dynamics.BodyStatusKinematic, geometry.Vec2{X: 4, Y: 0.5}, 0.5)
	if rb, ok := w.Bodies.GetMut(paddle); ok {
		rb.SetLinvel(geometry.Vec2{X: -0.2})
	}
}

// buildRain scatters falling balls over a static ground.
func buildRain(w *World, n int, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	addBody(w, dynamics.BodyStatusStatic, geometry.Vec2{Y: -20}, 20)

	for i := 0; i < n; i++ {
		pos := geometry.Vec2{
			X: rng.Float64()*16 - 8,
			Y: 2 + rng.Float64()*float64(n),
		}
		addBody(w, dynamics.BodyStatusDynamic, pos, 0.5)
	}
}

// buildChain hangs a row of jointed balls from a static anchor, so
// wakefulness propagates through the joint graph rather than through
// contacts.
func buildChain(w *World, n int) {
	anchor := addBody(w, dynamics.BodyStatusStatic, geometry.Vec2{Y: 10}, 0.4)

	prev := anchor
	for i := 0; i < n; i++ {
		link := addBody(w, dynamics.BodyStatusDynamic, geometry.Vec2{X: float64(i + 1), Y: 10}, 0.4)
		w.Joints.Insert(w.Bodies, prev, link, dynamics.Joint{
			AnchorA: geometry.Vec2{X: 0.5},
			AnchorB: geometry.Vec2{X: -0.5},
		})
		prev = link
	}
}

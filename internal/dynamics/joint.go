package dynamics

import (
	"github.com/san-kum/rigidsim/internal/arena"
	"github.com/san-kum/rigidsim/internal/geometry"
)

// invalidGraphIndex marks a body with no node in the joint graph.
const invalidGraphIndex = int32(-1)

// Joint links two bodies at a pair of local anchor points. The solver
// math lives outside this core; the dynamics passes only care about
// which bodies a joint connects.
type Joint struct {
	BodyA   BodyHandle
	BodyB   BodyHandle
	AnchorA geometry.Vec2
	AnchorB geometry.Vec2
}

// jointEdge is one half of an undirected joint graph edge, stored on
// the adjacency list of each endpoint node.
type jointEdge struct {
	other int32 // node index of the opposite endpoint
	joint JointHandle
}

// jointNode is a body's entry in the joint interaction graph.
type jointNode struct {
	body  BodyHandle
	edges []jointEdge
}

// JointSet owns all joints and the interaction graph between jointed
// bodies. Bodies store their node index; the set patches those
// back-references whenever nodes move.
type JointSet struct {
	joints *arena.Arena[Joint]
	nodes  []jointNode
}

func NewJointSet() *JointSet {
	return &JointSet{joints: arena.New[Joint]()}
}

func (s *JointSet) Len() int { return s.joints.Len() }

func (s *JointSet) Contains(h JointHandle) bool {
	return s.joints.Contains(arena.Handle(h))
}

func (s *JointSet) Get(h JointHandle) (*Joint, bool) {
	return s.joints.Get(arena.Handle(h))
}

// ensureNode returns the graph node index for the body, creating the
// node and recording it on the body if needed.
func (s *JointSet) ensureNode(h BodyHandle, rb *RigidBody) int32 {
	if rb.jointGraphIndex != invalidGraphIndex {
		return rb.jointGraphIndex
	}
	idx := int32(len(s.nodes))
	s.nodes = append(s.nodes, jointNode{body: h})
	rb.jointGraphIndex = idx
	return idx
}

// Insert links body1 and body2 with the given joint and wakes both.
// Returns an invalid handle if either body handle is stale.
func (s *JointSet) Insert(bodies *BodySet, body1, body2 BodyHandle, joint Joint) (JointHandle, bool) {
	rb1, ok1 := bodies.getInternal(body1)
	rb2, ok2 := bodies.getInternal(body2)
	if !ok1 || !ok2 {
		return JointHandle(arena.Invalid()), false
	}

	joint.BodyA = body1
	joint.BodyB = body2
	h := JointHandle(s.joints.Insert(joint))

	n1 := s.ensureNode(body1, rb1)
	n2 := s.ensureNode(body2, rb2)
	s.nodes[n1].edges = append(s.nodes[n1].edges, jointEdge{other: n2, joint: h})
	s.nodes[n2].edges = append(s.nodes[n2].edges, jointEdge{other: n1, joint: h})

	bodies.WakeUp(body1, true)
	bodies.WakeUp(body2, true)
	return h, true
}

// Remove deletes a single joint and optionally wakes both bodies it
// linked.
func (s *JointSet) Remove(h JointHandle, bodies *BodySet, wakeUp bool) (Joint, bool) {
	joint, ok := s.joints.Remove(arena.Handle(h))
	if !ok {
		return Joint{}, false
	}
	s.dropEdge(bodies, joint.BodyA, h)
	s.dropEdge(bodies, joint.BodyB, h)
	if wakeUp {
		bodies.WakeUp(joint.BodyA, true)
		bodies.WakeUp(joint.BodyB, true)
	}
	return joint, true
}

func (s *JointSet) dropEdge(bodies *BodySet, body BodyHandle, h JointHandle) {
	rb, ok := bodies.getInternal(body)
	if !ok || rb.jointGraphIndex == invalidGraphIndex {
		return
	}
	edges := s.nodes[rb.jointGraphIndex].edges
	for i, e := range edges {
		if e.joint == h {
			last := len(edges) - 1
			edges[i] = edges[last]
			s.nodes[rb.jointGraphIndex].edges = edges[:last]
			return
		}
	}
}

// RemoveRigidBody removes the graph node at idx together with every
// joint attached to it, waking the bodies on the other end. Called by
// BodySet.Remove after the body left its arena; idx may be the
// invalid index, in which case this is a no-op.
func (s *JointSet) RemoveRigidBody(idx int32, bodies *BodySet) {
	if idx == invalidGraphIndex || int(idx) >= len(s.nodes) {
		return
	}

	for _, e := range s.nodes[idx].edges {
		joint, ok := s.joints.Remove(arena.Handle(e.joint))
		if !ok {
			continue
		}
		other := joint.BodyA
		if s.nodes[idx].body == joint.BodyA {
			other = joint.BodyB
		}
		s.dropEdge(bodies, other, e.joint)
		bodies.WakeUp(other, true)
	}
	s.nodes[idx].edges = nil

	// Swap-remove the node and re-patch every reference to the moved
	// node: its body's stored index and the adjacency of its
	// neighbors.
	last := int32(len(s.nodes) - 1)
	if idx != last {
		s.nodes[idx] = s.nodes[last]
		if rb, ok := bodies.getInternal(s.nodes[idx].body); ok {
			rb.jointGraphIndex = idx
		}
		for _, e := range s.nodes[idx].edges {
			neighbor := s.nodes[e.other].edges
			for i := range neighbor {
				if neighbor[i].other == last {
					neighbor[i].other = idx
				}
			}
		}
	}
	s.nodes = s.nodes[:last]
}

// InteractionsWith visits every joint attached to the graph node at
// idx, passing both body handles and the joint. A no-op for the
// invalid index.
func (s *JointSet) InteractionsWith(idx int32, fn func(body1, body2 BodyHandle, joint *Joint)) {
	if idx == invalidGraphIndex || int(idx) >= len(s.nodes) {
		return
	}
	for _, e := range s.nodes[idx].edges {
		if j, ok := s.joints.Get(arena.Handle(e.joint)); ok {
			fn(j.BodyA, j.BodyB, j)
		}
	}
}

// ForEach visits every live joint in slot order.
func (s *JointSet) ForEach(fn func(JointHandle, *Joint)) {
	s.joints.ForEach(func(h arena.Handle, j *Joint) {
		fn(JointHandle(h), j)
	})
}

// Package dynamics owns the population of rigid bodies in the
// simulation pipeline: the body set with its generation-safe handles,
// the active dynamic/kinematic sequences, per-step change
// reconciliation, and the wake/sleep island traversal whose output
// the solver consumes island by island.
//
// Colliders, joints and the narrow-phase contact graph live here as
// well because they form one dependency cycle with the body set:
// removing a body cascades into both, and the island traversal walks
// the union of the contact and joint graphs.
package dynamics

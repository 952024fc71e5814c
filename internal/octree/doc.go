// Package octree builds the per-tick spatial hierarchy used by the
// Barnes–Hut force evaluator.
//
// Nodes live in a flat arena ([Tree]) and reference each other by [NodeID].
// A node is either a leaf (one particle, or several coincident particles
// merged into one aggregate) or a branch with eight child slots indexed by
// the 3-bit octant code:
//
//	bit0 = x >= center.x
//	bit1 = y >= center.y
//	bit2 = z >= center.z
//
// Points on a dividing plane go to the positive side.
//
// # Lifecycle
//
//	tree := octree.New(halfExtent, octree.DefaultMaxDepth)
//	err := tree.Build(store, halfExtent) // Reset + Insert all + Aggregate
//
// Branch masses accumulate during insertion. Centres of mass are only valid
// after [Tree.Aggregate]. Reset truncates the arena and keeps its capacity,
// so rebuilding every tick does not allocate once the arena has grown.
package octree

// Package gravity evaluates Newtonian gravity on a particle store.
//
// [BarnesHut] rebuilds an octree from the current positions, aggregates it
// and walks it once per particle, approximating a branch by its centre of
// mass when width/distance < theta. [Direct] sums every pair exactly and
// serves as the reference.
//
// Both write accelerations in native length units per second squared into
// the store; forces are computed in newtons through a [units.Table].
package gravity

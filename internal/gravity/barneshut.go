package gravity

import (
	"sync/atomic"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/octree"
	"github.com/san-kum/gravsim/internal/particle"
)

const parallelChunk = 64

// Stats describes the last evaluation.
type Stats struct {
	Tree         octree.Stats
	Interactions int
}

// BarnesHut is a force field backed by an octree rebuilt on every call.
type BarnesHut struct {
	params Params
	tree   *octree.Tree
	stats  Stats
}

func NewBarnesHut(p Params) *BarnesHut {
	return &BarnesHut{
		params: p,
		tree:   octree.New(p.HalfExtent, p.MaxDepth),
	}
}

func (b *BarnesHut) Name() string        { return "barnes-hut" }
func (b *BarnesHut) Params() Params      { return b.params }
func (b *BarnesHut) Stats() Stats        { return b.stats }
func (b *BarnesHut) Tree() *octree.Tree  { return b.tree }
func (b *BarnesHut) SetTheta(th float64) { b.params.Theta = th }

func (b *BarnesHut) evaluator() Evaluator {
	return Evaluator{
		Theta:         b.params.Theta,
		MinSeparation: b.params.MinSeparation,
		Units:         b.params.Units,
	}
}

// Accelerations rebuilds the tree from ps and writes a(t) for every
// particle. Particles outside the root cube do not act as sources but
// still feel the tree; they are reported through an *octree.BoundsError
// after every acceleration has been written.
func (b *BarnesHut) Accelerations(ps *particle.Store) error {
	buildErr := b.tree.Build(ps, b.params.HalfExtent)

	eval := b.evaluator()
	all := ps.All()
	var interactions int64

	work := func(start, end int) {
		local := 0
		for i := start; i < end; i++ {
			p := &all[i]
			f, n := eval.Force(b.tree, Query{ID: i, Position: p.Position, Mass: p.Mass})
			p.Acceleration = f.Mul(b.params.Units.Acceleration(1, p.Mass))
			local += n
		}
		atomic.AddInt64(&interactions, int64(local))
	}

	if b.params.Parallel {
		dynamo.ParallelFor(len(all), parallelChunk, work)
	} else {
		work(0, len(all))
	}

	ps.SetPrimed(true)
	b.stats = Stats{Tree: b.tree.Stats(), Interactions: int(interactions)}
	return buildErr
}

// Forces returns the Barnes–Hut force on every particle without touching
// the store's accelerations.
func (b *BarnesHut) Forces(ps *particle.Store) ([]Vec, error) {
	buildErr := b.tree.Build(ps, b.params.HalfExtent)
	eval := b.evaluator()
	all := ps.All()
	out := make([]Vec, len(all))
	total := 0
	for i := range all {
		f, n := eval.Force(b.tree, Query{ID: i, Position: all[i].Position, Mass: all[i].Mass})
		out[i] = f
		total += n
	}
	b.stats = Stats{Tree: b.tree.Stats(), Interactions: total}
	return out, buildErr
}

// Energy is the exact total mechanical energy of ps in joules. The
// potential term is a direct pair sum, not a tree walk.
func (b *BarnesHut) Energy(ps *particle.Store) float64 {
	return KineticEnergy(ps, b.params.Units) + PotentialEnergy(ps, b.params.Units, b.params.MinSeparation)
}

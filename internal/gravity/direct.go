package gravity

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/units"
)

// Direct sums every pair. O(n²); used as ground truth.
type Direct struct {
	Units         units.Table
	MinSeparation float64
	Parallel      bool
}

func NewDirect(p Params) *Direct {
	return &Direct{Units: p.Units, MinSeparation: p.MinSeparation, Parallel: p.Parallel}
}

func (d *Direct) Name() string { return "direct" }

// Forces returns the exact net force on every particle.
func (d *Direct) Forces(ps *particle.Store) []Vec {
	all := ps.All()
	n := len(all)
	out := make([]Vec, n)

	if d.Parallel {
		dynamo.ParallelFor(n, parallelChunk, func(start, end int) {
			for i := start; i < end; i++ {
				out[i] = d.force(all, i)
			}
		})
		return out
	}

	for i := 0; i < n; i++ {
		pi := &all[i]
		for j := i + 1; j < n; j++ {
			pj := &all[j]
			f := TwoBody(d.Units, pi.Position, pi.Mass, pj.Position, pj.Mass, d.MinSeparation)
			out[i] = out[i].Add(f)
			out[j] = out[j].Sub(f)
		}
	}
	return out
}

func (d *Direct) force(all []particle.Particle, i int) Vec {
	var f Vec
	pi := &all[i]
	for j := range all {
		if j == i {
			continue
		}
		f = f.Add(TwoBody(d.Units, pi.Position, pi.Mass, all[j].Position, all[j].Mass, d.MinSeparation))
	}
	return f
}

// Accelerations writes exact accelerations into ps.
func (d *Direct) Accelerations(ps *particle.Store) error {
	forces := d.Forces(ps)
	all := ps.All()
	for i := range all {
		all[i].Acceleration = forces[i].Mul(d.Units.Acceleration(1, all[i].Mass))
	}
	ps.SetPrimed(true)
	return nil
}

// PotentialEnergy is the total pair potential in joules.
func PotentialEnergy(ps *particle.Store, tab units.Table, minSep float64) float64 {
	all := ps.All()
	pe := 0.0
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			r := all[j].Position.Sub(all[i].Position).Len()
			if r == 0 {
				continue
			}
			if r < minSep {
				r = minSep
			}
			pe += tab.PotentialEnergy(all[i].Mass, all[j].Mass, r)
		}
	}
	return pe
}

// KineticEnergy is Σ ½mv² in joules.
func KineticEnergy(ps *particle.Store, tab units.Table) float64 {
	all := ps.All()
	ke := 0.0
	for i := range all {
		ke += tab.KineticEnergy(all[i].Mass, all[i].Velocity.Len())
	}
	return ke
}

// Energy is the total mechanical energy of ps in joules.
func (d *Direct) Energy(ps *particle.Store) float64 {
	return KineticEnergy(ps, d.Units) + PotentialEnergy(ps, d.Units, d.MinSeparation)
}

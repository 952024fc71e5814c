package integrators

import (
	"errors"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/sim"
)

// Leapfrog is kick-drift-kick. Every particle is drifted before the tree
// is rebuilt, and the rebuilt tree serves every particle's second kick.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Step(f sim.ForceField, ps *particle.Store, dt float64) error {
	var bounds error
	if !ps.Primed() {
		if err := f.Accelerations(ps); err != nil {
			if !errors.Is(err, dynamo.ErrOutOfBounds) {
				return err
			}
			bounds = err
		}
	}

	all := ps.All()
	halfDt := 0.5 * dt

	for i := range all {
		p := &all[i]
		p.Velocity = p.Velocity.Add(p.Acceleration.Mul(halfDt))
	}

	for i := range all {
		p := &all[i]
		p.Position = p.Position.Add(p.Velocity.Mul(dt))
	}

	if err := f.Accelerations(ps); err != nil {
		if !errors.Is(err, dynamo.ErrOutOfBounds) {
			return err
		}
		bounds = err
	}

	for i := range all {
		p := &all[i]
		p.Velocity = p.Velocity.Add(p.Acceleration.Mul(halfDt))
	}

	return bounds
}

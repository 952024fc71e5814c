package integrators

import (
	"errors"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/sim"
)

// Euler is semi-implicit: the velocity is kicked first and the new
// velocity drifts the position. One force evaluation per tick.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(f sim.ForceField, ps *particle.Store, dt float64) error {
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
	for i := range all {
		p := &all[i]
		p.Velocity = p.Velocity.Add(p.Acceleration.Mul(dt))
		p.Position = p.Position.Add(p.Velocity.Mul(dt))
	}

	if err := f.Accelerations(ps); err != nil {
		if !errors.Is(err, dynamo.ErrOutOfBounds) {
			return err
		}
		bounds = err
	}
	return bounds
}

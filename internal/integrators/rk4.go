package integrators

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/sim"
)

// RK4 is the classical fourth-order method over (x, v). It is not
// symplectic and costs four force evaluations per tick; it exists to
// compare drift against the leapfrog.
type RK4 struct {
	kx, kv  [4][]mgl64.Vec3
	scratch *particle.Store
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(ps *particle.Store) {
	n := ps.Len()
	if r.scratch == nil || r.scratch.Len() != n {
		r.scratch = ps.Clone()
		for k := range r.kx {
			r.kx[k] = make([]mgl64.Vec3, n)
			r.kv[k] = make([]mgl64.Vec3, n)
		}
	}
	// Masses may differ between stores of the same size.
	src, dst := ps.All(), r.scratch.All()
	for i := range src {
		dst[i].Mass = src[i].Mass
	}
}

func (r *RK4) Step(f sim.ForceField, ps *particle.Store, dt float64) error {
	var bounds error
	eval := func(s *particle.Store) error {
		err := f.Accelerations(s)
		if err != nil && errors.Is(err, dynamo.ErrOutOfBounds) {
			bounds = err
			return nil
		}
		return err
	}

	if !ps.Primed() {
		if err := eval(ps); err != nil {
			return err
		}
	}

	r.ensureScratch(ps)
	all := ps.All()
	tmp := r.scratch.All()

	for i := range all {
		r.kx[0][i] = all[i].Velocity
		r.kv[0][i] = all[i].Acceleration
	}

	steps := [3]float64{0.5 * dt, 0.5 * dt, dt}
	for k := 1; k < 4; k++ {
		h := steps[k-1]
		for i := range all {
			tmp[i].Position = all[i].Position.Add(r.kx[k-1][i].Mul(h))
			tmp[i].Velocity = all[i].Velocity.Add(r.kv[k-1][i].Mul(h))
		}
		if err := eval(r.scratch); err != nil {
			return err
		}
		for i := range all {
			r.kx[k][i] = tmp[i].Velocity
			r.kv[k][i] = tmp[i].Acceleration
		}
	}

	dt6 := dt / 6.0
	for i := range all {
		p := &all[i]
		dx := r.kx[0][i].Add(r.kx[1][i].Mul(2)).Add(r.kx[2][i].Mul(2)).Add(r.kx[3][i])
		dv := r.kv[0][i].Add(r.kv[1][i].Mul(2)).Add(r.kv[2][i].Mul(2)).Add(r.kv[3][i])
		p.Position = p.Position.Add(dx.Mul(dt6))
		p.Velocity = p.Velocity.Add(dv.Mul(dt6))
	}

	if err := eval(ps); err != nil {
		return err
	}
	return bounds
}

package analysis

import (
	"math"

	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/sim"
)

// LyapunovExponent estimates the largest Lyapunov exponent of an N-body
// configuration by trajectory separation. The first particle's x is
// shifted by perturbation; the shadow run is pulled back whenever the
// phase-space separation grows past renorm. A positive value means
// nearby configurations diverge exponentially.
//
// The two simulators must not share a force field. A particle leaving
// the root cube aborts the estimate.
func LyapunovExponent(a, b *sim.Simulator, ps0 *particle.Store, dt, duration, perturbation, renorm float64) (float64, error) {
	if ps0.Len() == 0 || perturbation <= 0 {
		return 0, nil
	}

	x := ps0.Clone()
	xp := ps0.Clone()
	xp.At(0).Position[0] += perturbation
	xp.SetPrimed(false)

	if err := a.Prime(x); err != nil {
		return 0, err
	}
	if err := b.Prime(xp); err != nil {
		return 0, err
	}

	d0 := perturbation
	sumLog := 0.0
	steps := int(math.Round(duration / dt))

	for i := 0; i < steps; i++ {
		if err := a.Step(x, dt); err != nil {
			return 0, err
		}
		if err := b.Step(xp, dt); err != nil {
			return 0, err
		}

		sep := separation(x, xp)
		if sep == 0 {
			continue
		}
		if sep > renorm {
			sumLog += math.Log(sep / d0)
			rescale(x, xp, d0/sep)
		}
	}

	if steps == 0 {
		return 0, nil
	}
	sumLog += math.Log(separation(x, xp) / d0)
	return sumLog / (float64(steps) * dt), nil
}

func separation(x, xp *particle.Store) float64 {
	sum := 0.0
	for i := 0; i < x.Len(); i++ {
		dp := xp.At(i).Position.Sub(x.At(i).Position)
		dv := xp.At(i).Velocity.Sub(x.At(i).Velocity)
		sum += dp.Dot(dp) + dv.Dot(dv)
	}
	return math.Sqrt(sum)
}

// rescale pulls xp toward x along the separation and marks it for a
// fresh force evaluation.
func rescale(x, xp *particle.Store, scale float64) {
	for i := 0; i < x.Len(); i++ {
		p, q := x.At(i), xp.At(i)
		q.Position = p.Position.Add(q.Position.Sub(p.Position).Mul(scale))
		q.Velocity = p.Velocity.Add(q.Velocity.Sub(p.Velocity).Mul(scale))
	}
	xp.SetPrimed(false)
}

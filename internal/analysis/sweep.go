package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/sim"
)

// SweepPoint is the accuracy and cost of one opening angle, measured
// against direct summation on the same particles.
type SweepPoint struct {
	Theta            float64
	MeanRelError     float64
	MaxRelError      float64
	MomentumResidual float64
	Interactions     int
	Nodes            int
	Elapsed          time.Duration
}

// ThetaRange returns steps evenly spaced values in [min, max].
func ThetaRange(min, max float64, steps int) []float64 {
	if steps <= 1 {
		return []float64{min}
	}
	out := make([]float64, steps)
	step := (max - min) / float64(steps-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}

// ThetaSweep evaluates Barnes-Hut forces on ps for every theta. Out of
// bounds particles are an error here since they would skew the comparison.
func ThetaSweep(ps *particle.Store, base gravity.Params, thetas []float64) ([]SweepPoint, error) {
	if ps.Len() < 2 {
		return nil, fmt.Errorf("sweep needs at least two particles: %w", dynamo.ErrEmptyStore)
	}

	exact := gravity.NewDirect(base).Forces(ps)
	bh := gravity.NewBarnesHut(base)

	points := make([]SweepPoint, 0, len(thetas))
	for _, theta := range thetas {
		bh.SetTheta(theta)

		start := time.Now()
		approx, err := bh.Forces(ps)
		elapsed := time.Since(start)
		if err != nil {
			return nil, err
		}

		pt := SweepPoint{
			Theta:        theta,
			Interactions: bh.Stats().Interactions,
			Nodes:        bh.Stats().Tree.Nodes,
			Elapsed:      elapsed,
		}

		var net gravity.Vec
		total := 0.0
		counted := 0
		for i := range exact {
			net = net.Add(approx[i])
			total += approx[i].Len()

			mag := exact[i].Len()
			if mag == 0 {
				continue
			}
			rel := approx[i].Sub(exact[i]).Len() / mag
			pt.MeanRelError += rel
			if rel > pt.MaxRelError {
				pt.MaxRelError = rel
			}
			counted++
		}
		if counted > 0 {
			pt.MeanRelError /= float64(counted)
		}
		if total > 0 {
			pt.MomentumResidual = net.Len() / total
		}

		points = append(points, pt)
	}
	return points, nil
}

// DriftPoint is the conservation quality of a full run at one theta.
type DriftPoint struct {
	Theta         float64
	EnergyDrift   float64
	MomentumDrift float64
	OutOfBounds   int
}

// DriftSweep integrates ps once per theta, concurrently. newSim builds an
// independent simulator for the given parameters.
func DriftSweep(ctx context.Context, newSim func(p gravity.Params) (*sim.Simulator, error), ps *particle.Store, base gravity.Params, thetas []float64, cfg sim.Config) ([]DriftPoint, error) {
	ens := sim.NewEnsemble(func(run int) (*sim.Simulator, error) {
		p := base
		p.Theta = thetas[run]
		s, err := newSim(p)
		if err != nil {
			return nil, err
		}
		s.AddMetric(metrics.NewMomentumDrift())
		return s, nil
	}, len(thetas))

	results, err := ens.Run(ctx, ps, cfg)
	if err != nil {
		return nil, err
	}

	points := make([]DriftPoint, len(results))
	for i, r := range results {
		points[i] = DriftPoint{
			Theta:         thetas[i],
			EnergyDrift:   r.EnergyDrift,
			MomentumDrift: r.Metrics["momentum_drift"],
			OutOfBounds:   r.OutOfBounds,
		}
		for _, e := range r.Errors {
			if errors.Is(e, dynamo.ErrUnstable) {
				points[i].EnergyDrift = -1
			}
		}
	}
	return points, nil
}

package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/particle"
)

// MomentumDrift is the largest |P - P0| seen, scaled by Σ m|v| at that
// observation. Barnes-Hut forces are not pairwise antisymmetric, so this
// grows with theta.
type MomentumDrift struct {
	name     string
	initial  mgl64.Vec3
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(ps *particle.Store, t float64) {
	p := ps.Momentum()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	scale := 0.0
	for _, q := range ps.All() {
		scale += q.Mass * q.Velocity.Len()
	}
	if scale == 0 {
		return
	}
	m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Len()/scale)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = mgl64.Vec3{}
	m.maxDrift = 0
	m.samples = 0
}

// AngularMomentumDrift is the largest relative change of |L|.
type AngularMomentumDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift {
	return &AngularMomentumDrift{name: "angular_momentum_drift"}
}

func (a *AngularMomentumDrift) Name() string { return a.name }

func (a *AngularMomentumDrift) Observe(ps *particle.Store, t float64) {
	l := ps.AngularMomentum().Len()
	if a.samples == 0 {
		a.initial = l
	}
	a.samples++
	if a.initial != 0 {
		a.maxDrift = math.Max(a.maxDrift, math.Abs(l-a.initial)/a.initial)
	}
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = 0
	a.maxDrift = 0
	a.samples = 0
}

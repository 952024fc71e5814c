package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/particle"
)

// ForceField writes a(t) for every particle of the store.
type ForceField interface {
	Name() string
	Accelerations(ps *particle.Store) error
}

type Integrator interface {
	Name() string
	Step(f ForceField, ps *particle.Store, dt float64) error
}

type Metric interface {
	Name() string
	Observe(ps *particle.Store, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(ps *particle.Store, t float64)
}

// EnergyComputer is implemented by force fields that can report total energy.
type EnergyComputer interface {
	Energy(ps *particle.Store) float64
}

// StatsReporter is implemented by force fields that build a tree.
type StatsReporter interface {
	Stats() gravity.Stats
}

type Config struct {
	Dt            float64
	Duration      float64
	// SampleEvery records a diagnostics sample every n ticks; 0 means 1.
	// Each sample computes total energy by a direct O(n²) pair sum.
	SampleEvery   int
	// SkipEnergy leaves Sample.Energy and Result.EnergyDrift at zero.
	SkipEnergy    bool
	ValidateState bool
	// StrictBounds aborts the run when a particle leaves the root cube.
	StrictBounds  bool
}

type Sample struct {
	Tick         int
	Time         float64
	Energy       float64
	Momentum     mgl64.Vec3
	Stats        gravity.Stats
	OutOfBounds  int
	CenterOfMass mgl64.Vec3
}

type Result struct {
	Ticks       int
	Times       []float64
	Samples     []Sample
	Metrics     map[string]float64
	EnergyDrift float64
	// OutOfBounds counts ticks where at least one particle was rejected.
	OutOfBounds int
	Errors      []error
	Final       *particle.Store
}

type SimError struct {
	Time    float64
	Step    int
	Message string
	Err     error
}

func (e SimError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("t=%.4f step=%d: %s: %v", e.Time, e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("t=%.4f step=%d: %s", e.Time, e.Step, e.Message)
}

func (e SimError) Unwrap() error { return e.Err }

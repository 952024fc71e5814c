package metrics

import (
	"math"

	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/units"
)

// Energy is the mean total energy over all observations, in joules.
type Energy struct {
	name        string
	units       units.Table
	minSep      float64
	samples     int
	totalEnergy float64
}

func NewEnergy(tab units.Table, minSep float64) *Energy {
	return &Energy{
		name:   "energy",
		units:  tab,
		minSep: minSep,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(ps *particle.Store, t float64) {
	e.totalEnergy += totalEnergy(ps, e.units, e.minSep)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

func totalEnergy(ps *particle.Store, tab units.Table, minSep float64) float64 {
	return gravity.KineticEnergy(ps, tab) + gravity.PotentialEnergy(ps, tab, minSep)
}

// EnergyDrift is the largest |E - E0| / |E0| seen since the first observation.
type EnergyDrift struct {
	name          string
	units         units.Table
	minSep        float64
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(tab units.Table, minSep float64) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		units:  tab,
		minSep: minSep,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(ps *particle.Store, t float64) {
	energy := totalEnergy(ps, e.units, e.minSep)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

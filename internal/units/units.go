// Package units supplies the physical-constants table that converts between
// simulation-native units and SI.
package units

import (
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const (
	// GravitationalConstant in m³/(kg·s²).
	GravitationalConstant = 6.6743e-11

	Tera = 1e12
	// KgPerYg is kilograms per yottagram (1 Yg = 1e24 g).
	KgPerYg = 1e21

	TmPerLy     = 9.461e+3
	TmPerAu     = 0.149598
	YgPerMsol   = 1.989e+9
	YgPerMearth = 5.97219e+3
	YgPerMjup   = 1.899e+6
)

// Table maps native length and mass units to SI. Time is always seconds.
type Table struct {
	Name string `yaml:"name"`
	// G is the gravitational constant in SI units.
	G float64 `yaml:"g"`
	// LengthScale is metres per native length unit.
	LengthScale float64 `yaml:"length_scale"`
	// MassScale is kilograms per native mass unit.
	MassScale float64 `yaml:"mass_scale"`
}

// SI measures lengths in terameters and masses in yottagrams.
func SI() Table {
	return Table{Name: "si", G: GravitationalConstant, LengthScale: Tera, MassScale: KgPerYg}
}

// Natural sets G and both scales to 1.
func Natural() Table {
	return Table{Name: "natural", G: 1, LengthScale: 1, MassScale: 1}
}

// Lookup returns a named table.
func Lookup(name string) (Table, error) {
	switch name {
	case "", "natural":
		return Natural(), nil
	case "si":
		return SI(), nil
	default:
		return Table{}, fmt.Errorf("unknown units table: %s", name)
	}
}

// FromLy converts light years to terameters.
func FromLy(ly float64) float64 { return ly * TmPerLy }

// Validate reports non-positive or non-finite entries.
func (t Table) Validate() error {
	for name, v := range map[string]float64{"g": t.G, "length_scale": t.LengthScale, "mass_scale": t.MassScale} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("units %s=%g: %w", name, v, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// Force returns the two-body force magnitude in newtons for native masses
// m1, m2 separated by native distance r.
func (t Table) Force(m1, m2, r float64) float64 {
	rm := r * t.LengthScale
	return t.G * (m1 * t.MassScale) * (m2 * t.MassScale) / (rm * rm)
}

// Acceleration converts a force in newtons acting on native mass m into
// native length units per second squared.
func (t Table) Acceleration(force, m float64) float64 {
	return force / (m * t.MassScale) / t.LengthScale
}

// PotentialEnergy returns the pair potential in joules.
func (t Table) PotentialEnergy(m1, m2, r float64) float64 {
	return -t.G * (m1 * t.MassScale) * (m2 * t.MassScale) / (r * t.LengthScale)
}

// KineticEnergy returns ½mv² in joules for native mass and native speed.
func (t Table) KineticEnergy(m, speed float64) float64 {
	v := speed * t.LengthScale
	return 0.5 * m * t.MassScale * v * v
}

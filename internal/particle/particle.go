// Package particle owns the kinematic state of every simulated body.
//
// A [Store] is created once from externally generated records and lives for
// the whole simulation. Only integrators mutate it; the octree reads
// positions and masses when it is rebuilt each tick.
package particle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// Particle is one body. The index inside its Store is its id.
type Particle struct {
	Position     mgl64.Vec3
	Velocity     mgl64.Vec3
	Acceleration mgl64.Vec3
	// AngularMomentum and Radius are carried but not used by gravity.
	AngularMomentum mgl64.Vec3
	Mass            float64
	Radius          float64
}

// IsValid reports whether every kinematic component is finite.
func (p *Particle) IsValid() bool {
	return finite(p.Position) && finite(p.Velocity) && finite(p.Acceleration)
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// IngestError reports which record failed validation.
type IngestError struct {
	Index   int
	Wrapped error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("particle %d: %v", e.Index, e.Wrapped)
}

func (e *IngestError) Unwrap() error {
	return e.Wrapped
}

// Validate checks a record at ingestion time.
func Validate(p Particle) error {
	if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
		return dynamo.ErrInvalidMass
	}
	if !p.IsValid() || !finite(p.AngularMomentum) || math.IsNaN(p.Radius) || p.Radius < 0 {
		return dynamo.ErrInvalidState
	}
	return nil
}

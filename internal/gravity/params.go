package gravity

import (
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/octree"
	"github.com/san-kum/gravsim/internal/units"
)

const (
	DefaultTheta         = 1.5
	DefaultHalfExtent    = 1.0
	DefaultMinSeparation = 1e-9
)

// Params configure one force field. They are passed explicitly so several
// simulations can run side by side.
type Params struct {
	Theta         float64
	HalfExtent    float64
	MinSeparation float64
	MaxDepth      int
	Parallel      bool
	Units         units.Table
}

func DefaultParams() Params {
	return Params{
		Theta:         DefaultTheta,
		HalfExtent:    DefaultHalfExtent,
		MinSeparation: DefaultMinSeparation,
		MaxDepth:      octree.DefaultMaxDepth,
		Units:         units.Natural(),
	}
}

func (p Params) Validate() error {
	if p.Theta < 0 || math.IsNaN(p.Theta) {
		return fmt.Errorf("theta must be non-negative, got %g: %w", p.Theta, dynamo.ErrParameterBounds)
	}
	if !(p.HalfExtent > 0) || math.IsInf(p.HalfExtent, 0) {
		return fmt.Errorf("half extent must be positive, got %g: %w", p.HalfExtent, dynamo.ErrParameterBounds)
	}
	if p.MinSeparation < 0 || math.IsNaN(p.MinSeparation) {
		return fmt.Errorf("min separation must be non-negative, got %g: %w", p.MinSeparation, dynamo.ErrParameterBounds)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max depth must be non-negative, got %d: %w", p.MaxDepth, dynamo.ErrParameterBounds)
	}
	return p.Units.Validate()
}

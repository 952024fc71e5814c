package metrics

import (
	"github.com/san-kum/gravsim/internal/particle"
)

// Containment is the fraction of observations in which every particle was
// valid and inside the root cube.
type Containment struct {
	name       string
	halfExtent float64
	violations int
	samples    int
}

func NewContainment(halfExtent float64) *Containment {
	return &Containment{
		name:       "containment",
		halfExtent: halfExtent,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(ps *particle.Store, t float64) {
	c.samples++
	if !ps.Valid() || ps.Extent() > c.halfExtent {
		c.violations++
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

package particle

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Store is the mutable particle array.
type Store struct {
	particles []Particle
	// primed is set once accelerations hold a(t) for the current positions.
	primed bool
}

// NewStore validates and copies the records. Accelerations supplied by the
// caller are kept but treated as unprimed.
func NewStore(records []Particle) (*Store, error) {
	ps := make([]Particle, len(records))
	for i, p := range records {
		if err := Validate(p); err != nil {
			return nil, &IngestError{Index: i, Wrapped: err}
		}
		ps[i] = p
	}
	return &Store{particles: ps}, nil
}

func (s *Store) Len() int { return len(s.particles) }

// At returns a pointer into the store; it stays valid for the store's lifetime.
func (s *Store) At(i int) *Particle { return &s.particles[i] }

// All exposes the backing slice for in-place updates by integrators.
func (s *Store) All() []Particle { return s.particles }

// Primed reports whether accelerations are current.
func (s *Store) Primed() bool { return s.primed }

// SetPrimed is called by force fields after writing accelerations.
func (s *Store) SetPrimed(v bool) { s.primed = v }

// Snapshot returns an independent copy of every particle.
func (s *Store) Snapshot() []Particle {
	c := make([]Particle, len(s.particles))
	copy(c, s.particles)
	return c
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	return &Store{particles: s.Snapshot(), primed: s.primed}
}

// Valid reports whether every particle is finite.
func (s *Store) Valid() bool {
	for i := range s.particles {
		if !s.particles[i].IsValid() {
			return false
		}
	}
	return true
}

// TotalMass in native units.
func (s *Store) TotalMass() float64 {
	m := 0.0
	for i := range s.particles {
		m += s.particles[i].Mass
	}
	return m
}

// CenterOfMass is the mass-weighted mean position.
func (s *Store) CenterOfMass() mgl64.Vec3 {
	var sum mgl64.Vec3
	m := 0.0
	for i := range s.particles {
		p := &s.particles[i]
		sum = sum.Add(p.Position.Mul(p.Mass))
		m += p.Mass
	}
	if m == 0 {
		return mgl64.Vec3{}
	}
	return sum.Mul(1 / m)
}

// Momentum is Σ m·v in native units.
func (s *Store) Momentum() mgl64.Vec3 {
	var sum mgl64.Vec3
	for i := range s.particles {
		p := &s.particles[i]
		sum = sum.Add(p.Velocity.Mul(p.Mass))
	}
	return sum
}

// AngularMomentum is Σ m·(x × v) about the origin.
func (s *Store) AngularMomentum() mgl64.Vec3 {
	var sum mgl64.Vec3
	for i := range s.particles {
		p := &s.particles[i]
		sum = sum.Add(p.Position.Cross(p.Velocity).Mul(p.Mass))
	}
	return sum
}

// Extent returns the largest absolute coordinate over all particles.
func (s *Store) Extent() float64 {
	max := 0.0
	for i := range s.particles {
		for _, c := range s.particles[i].Position {
			if c < 0 {
				c = -c
			}
			if c > max {
				max = c
			}
		}
	}
	return max
}

// Package scenario generates initial particle populations. Every
// generator is deterministic for a given seed and keeps its particles
// inside the requested radius.
package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/units"
)

type Options struct {
	N         int
	Seed      int64
	Radius    float64
	TotalMass float64
	Units     units.Table
}

func DefaultOptions() Options {
	return Options{
		N:         256,
		Seed:      1,
		Radius:    0.8,
		TotalMass: 1,
		Units:     units.Natural(),
	}
}

func (o Options) Validate() error {
	if o.N < 1 {
		return fmt.Errorf("particle count must be positive, got %d: %w", o.N, dynamo.ErrParameterBounds)
	}
	if !(o.Radius > 0) || math.IsInf(o.Radius, 0) {
		return fmt.Errorf("radius must be positive, got %g: %w", o.Radius, dynamo.ErrParameterBounds)
	}
	if !(o.TotalMass > 0) || math.IsInf(o.TotalMass, 0) {
		return fmt.Errorf("total mass must be positive, got %g: %w", o.TotalMass, dynamo.ErrInvalidMass)
	}
	return o.Units.Validate()
}

type Generator func(o Options) ([]particle.Particle, error)

var generators = map[string]Generator{
	"triangle": Triangle,
	"binary":   Binary,
	"cube":     Cube,
	"plummer":  Plummer,
	"disk":     Disk,
}

// Names lists the registered generators in sorted order.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate runs the named generator and loads the result into a store.
func Generate(name string, o Options) (*particle.Store, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	recs, err := gen(o)
	if err != nil {
		return nil, err
	}
	return particle.NewStore(recs)
}

// circularSpeed is the speed of a circular orbit of radius r around mass m,
// in native length units per second.
func circularSpeed(tab units.Table, m, r float64) float64 {
	a := tab.Acceleration(tab.Force(1, m, r), 1)
	return math.Sqrt(a * r)
}

// Triangle places three equal masses at the corners of a right triangle
// with legs of length Radius, at rest.
func Triangle(o Options) ([]particle.Particle, error) {
	m := o.TotalMass / 3
	return []particle.Particle{
		{Position: mgl64.Vec3{0, 0, 0}, Mass: m},
		{Position: mgl64.Vec3{o.Radius, 0, 0}, Mass: m},
		{Position: mgl64.Vec3{0, o.Radius, 0}, Mass: m},
	}, nil
}

// Binary is an equal-mass circular orbit with separation Radius.
func Binary(o Options) ([]particle.Particle, error) {
	m := o.TotalMass / 2
	r := o.Radius / 2
	// Each body orbits the barycentre at r under the other's pull at 2r.
	a := o.Units.Acceleration(o.Units.Force(m, m, 2*r), m)
	v := math.Sqrt(a * r)
	return []particle.Particle{
		{Position: mgl64.Vec3{-r, 0, 0}, Velocity: mgl64.Vec3{0, -v, 0}, Mass: m},
		{Position: mgl64.Vec3{r, 0, 0}, Velocity: mgl64.Vec3{0, v, 0}, Mass: m},
	}, nil
}

// Cube scatters particles uniformly in [-Radius, Radius]³ at rest, with
// masses varying by ±50% around the mean.
func Cube(o Options) ([]particle.Particle, error) {
	rng := rand.New(rand.NewSource(o.Seed))
	ps := make([]particle.Particle, o.N)

	total := 0.0
	for i := range ps {
		ps[i] = particle.Particle{
			Position: mgl64.Vec3{
				(2*rng.Float64() - 1) * o.Radius,
				(2*rng.Float64() - 1) * o.Radius,
				(2*rng.Float64() - 1) * o.Radius,
			},
			Mass: 0.5 + rng.Float64(),
		}
		total += ps[i].Mass
	}
	for i := range ps {
		ps[i].Mass *= o.TotalMass / total
	}
	return ps, nil
}

// Plummer samples a truncated Plummer sphere with scale length Radius/4.
// Velocities follow the isotropic distribution function; the result is
// shifted to zero net momentum.
func Plummer(o Options) ([]particle.Particle, error) {
	rng := rand.New(rand.NewSource(o.Seed))
	scale := o.Radius / 4
	m := o.TotalMass / float64(o.N)
	vScale := circularSpeed(o.Units, o.TotalMass, scale)

	ps := make([]particle.Particle, o.N)
	for i := range ps {
		var r float64
		for {
			x := rng.Float64()
			if x == 0 {
				continue
			}
			r = scale / math.Sqrt(math.Pow(x, -2.0/3.0)-1)
			if r <= o.Radius*0.95 {
				break
			}
		}

		q := 0.0
		for {
			q = rng.Float64()
			g := q * q * math.Pow(1-q*q, 3.5)
			if 0.1*rng.Float64() < g {
				break
			}
		}
		speed := q * math.Sqrt2 * vScale * math.Pow(1+r*r/(scale*scale), -0.25)

		ps[i] = particle.Particle{
			Position: randomDirection(rng).Mul(r),
			Velocity: randomDirection(rng).Mul(speed),
			Mass:     m,
		}
	}

	recenter(ps)
	return ps, nil
}

// Disk puts half the mass in a central body and spreads the rest over a
// thin annulus between 0.2 and 0.9 Radius on near-circular orbits.
func Disk(o Options) ([]particle.Particle, error) {
	rng := rand.New(rand.NewSource(o.Seed))
	if o.N == 1 {
		return []particle.Particle{{Mass: o.TotalMass}}, nil
	}

	central := o.TotalMass / 2
	m := (o.TotalMass - central) / float64(o.N-1)

	ps := make([]particle.Particle, o.N)
	ps[0] = particle.Particle{Mass: central}

	radii := make([]float64, o.N-1)
	for i := range radii {
		u := rng.Float64()
		inner, outer := 0.2*o.Radius, 0.9*o.Radius
		radii[i] = math.Sqrt(inner*inner + u*(outer*outer-inner*inner))
	}
	sort.Float64s(radii)

	for i, r := range radii {
		// Mass inside r: the centre plus every ring particle closer in.
		enclosed := central + float64(i)*m
		v := circularSpeed(o.Units, enclosed, r)
		phi := 2 * math.Pi * rng.Float64()
		z := (rng.Float64() - 0.5) * 0.02 * o.Radius
		pos := mgl64.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}
		vel := mgl64.Vec3{-v * math.Sin(phi), v * math.Cos(phi), 0}
		ps[i+1] = particle.Particle{Position: pos, Velocity: vel, Mass: m}
	}

	recenter(ps)
	return ps, nil
}

func randomDirection(rng *rand.Rand) mgl64.Vec3 {
	z := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	s := math.Sqrt(1 - z*z)
	return mgl64.Vec3{s * math.Cos(phi), s * math.Sin(phi), z}
}

// recenter moves the centre of mass to the origin at rest.
func recenter(ps []particle.Particle) {
	var com, mom mgl64.Vec3
	total := 0.0
	for i := range ps {
		com = com.Add(ps[i].Position.Mul(ps[i].Mass))
		mom = mom.Add(ps[i].Velocity.Mul(ps[i].Mass))
		total += ps[i].Mass
	}
	com = com.Mul(1 / total)
	drift := mom.Mul(1 / total)
	for i := range ps {
		ps[i].Position = ps[i].Position.Sub(com)
		ps[i].Velocity = ps[i].Velocity.Sub(drift)
	}
}

package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/octree"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/units"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 10.0
	DefaultBodies      = 256
	DefaultSampleEvery = 10
	// DefaultFill is the scenario radius as a fraction of the half extent.
	DefaultFill = 0.8
)

type Config struct {
	Scenario     string        `yaml:"scenario"`
	Integrator   string        `yaml:"integrator"`
	Field        string        `yaml:"field"`
	Bodies       int           `yaml:"bodies"`
	Radius       float64       `yaml:"radius"`
	TotalMass    float64       `yaml:"total_mass"`
	Dt           float64       `yaml:"dt"`
	Duration     float64       `yaml:"duration"`
	Seed         int64         `yaml:"seed"`
	// SampleEvery sets the diagnostics interval in ticks. Every sample
	// pays a direct O(n²) energy sum unless SkipEnergy is set.
	SampleEvery  int           `yaml:"sample_every"`
	// SkipEnergy drops the energy sums from samples and the per-tick
	// energy metrics, for large particle counts.
	SkipEnergy   bool          `yaml:"skip_energy"`
	StrictBounds bool          `yaml:"strict_bounds"`
	Units        string        `yaml:"units"`
	Gravity      GravityConfig `yaml:"gravity"`
}

// GravityConfig holds the force field parameters. A zero half extent
// means the default cube of the chosen units.
type GravityConfig struct {
	Theta         float64 `yaml:"theta"`
	HalfExtent    float64 `yaml:"half_extent"`
	MinSeparation float64 `yaml:"min_separation"`
	MaxDepth      int     `yaml:"max_depth"`
	Parallel      bool    `yaml:"parallel"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:    "plummer",
		Integrator:  "leapfrog",
		Field:       "barnes-hut",
		Bodies:      DefaultBodies,
		TotalMass:   1,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Seed:        1,
		SampleEvery: DefaultSampleEvery,
		Units:       "natural",
		Gravity: GravityConfig{
			Theta:         gravity.DefaultTheta,
			MinSeparation: gravity.DefaultMinSeparation,
			MaxDepth:      octree.DefaultMaxDepth,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the keys present in the file onto cfg.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) {
		return fmt.Errorf("dt must be positive, got %f: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if c.Duration <= 0 || math.IsNaN(c.Duration) {
		return fmt.Errorf("duration must be positive, got %f: %w", c.Duration, dynamo.ErrParameterBounds)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("sample_every must be non-negative, got %d: %w", c.SampleEvery, dynamo.ErrParameterBounds)
	}
	p, err := c.Params()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	o, err := c.ScenarioOptions()
	if err != nil {
		return err
	}
	if o.Radius > p.HalfExtent {
		return fmt.Errorf("radius %g exceeds half extent %g: %w", o.Radius, p.HalfExtent, dynamo.ErrParameterBounds)
	}
	return o.Validate()
}

// UnitTable resolves the units name.
func (c *Config) UnitTable() (units.Table, error) {
	return units.Lookup(c.Units)
}

// HalfExtent returns the configured root half-width or the default for
// the units: 1 natural unit, or one light year in terameters.
func (c *Config) HalfExtent() float64 {
	if c.Gravity.HalfExtent != 0 {
		return c.Gravity.HalfExtent
	}
	if c.Units == "si" {
		return units.FromLy(1)
	}
	return gravity.DefaultHalfExtent
}

func (c *Config) Params() (gravity.Params, error) {
	tab, err := c.UnitTable()
	if err != nil {
		return gravity.Params{}, err
	}
	return gravity.Params{
		Theta:         c.Gravity.Theta,
		HalfExtent:    c.HalfExtent(),
		MinSeparation: c.Gravity.MinSeparation,
		MaxDepth:      c.Gravity.MaxDepth,
		Parallel:      c.Gravity.Parallel,
		Units:         tab,
	}, nil
}

// ScenarioOptions fills the generator options. In SI units the total
// mass is read in solar masses.
func (c *Config) ScenarioOptions() (scenario.Options, error) {
	tab, err := c.UnitTable()
	if err != nil {
		return scenario.Options{}, err
	}
	radius := c.Radius
	if radius == 0 {
		radius = DefaultFill * c.HalfExtent()
	}
	mass := c.TotalMass
	if c.Units == "si" {
		mass *= units.YgPerMsol
	}
	return scenario.Options{
		N:         c.Bodies,
		Seed:      c.Seed,
		Radius:    radius,
		TotalMass: mass,
		Units:     tab,
	}, nil
}

package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/sim"
)

// Experiment wires a config into a ready-to-run simulator.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	params    gravity.Params
	simulator *sim.Simulator
	initial   *particle.Store
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
	}
}

// Setup generates the initial population and builds the force field,
// integrator and metrics.
func (e *Experiment) Setup(logger *slog.Logger) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	params, err := e.cfg.Params()
	if err != nil {
		return err
	}
	opts, err := e.cfg.ScenarioOptions()
	if err != nil {
		return err
	}

	initial, err := scenario.Generate(e.cfg.Scenario, opts)
	if err != nil {
		return err
	}

	simulator, err := e.NewSimulator(params)
	if err != nil {
		return err
	}
	if logger != nil {
		simulator.SetLogger(logger)
	}
	for _, m := range e.registry.DefaultMetrics(params, !e.cfg.SkipEnergy) {
		simulator.AddMetric(m)
	}

	e.params = params
	e.initial = initial
	e.simulator = simulator
	return nil
}

// NewSimulator builds a fresh field and integrator from the config with
// the given parameters. Each call returns an independent simulator.
func (e *Experiment) NewSimulator(p gravity.Params) (*sim.Simulator, error) {
	field, err := e.registry.GetField(e.cfg.Field, p)
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}
	return sim.New(field, integ), nil
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		SampleEvery:   e.cfg.SampleEvery,
		SkipEnergy:    e.cfg.SkipEnergy,
		ValidateState: true,
		StrictBounds:  e.cfg.StrictBounds,
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.initial, e.SimConfig())
}

func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Params() gravity.Params    { return e.params }
func (e *Experiment) Initial() *particle.Store  { return e.initial }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Registry() *Registry       { return e.registry }

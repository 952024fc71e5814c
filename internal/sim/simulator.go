package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
)

type Simulator struct {
	field      ForceField
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	logger     *slog.Logger
}

func New(field ForceField, integrator Integrator) *Simulator {
	return &Simulator{
		field:      field,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		logger:     slog.Default(),
	}
}

func (s *Simulator) AddMetric(m Metric)       { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)   { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *slog.Logger) { s.logger = l }
func (s *Simulator) Field() ForceField        { return s.field }
func (s *Simulator) Integrator() Integrator   { return s.integrator }

// Prime evaluates a(0) if the store has not been primed yet.
func (s *Simulator) Prime(ps *particle.Store) error {
	if ps.Primed() {
		return nil
	}
	return s.field.Accelerations(ps)
}

// Step advances ps by one tick. Out-of-bounds rejections are returned
// wrapped but leave the store fully updated.
func (s *Simulator) Step(ps *particle.Store, dt float64) error {
	return s.integrator.Step(s.field, ps, dt)
}

// Run integrates a copy of ps0 for cfg.Duration.
func (s *Simulator) Run(ctx context.Context, ps0 *particle.Store, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := cfg.SampleEvery
	if every <= 0 {
		every = 1
	}

	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Samples: make([]Sample, 0, steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	ps := ps0.Clone()
	result.Final = ps
	t := 0.0

	if err := s.checkBounds(s.Prime(ps), result, 0, t, cfg); err != nil {
		return result, err
	}

	initialEnergy := s.computeEnergy(ps, cfg)
	result.Times = append(result.Times, t)
	result.Samples = append(result.Samples, s.sample(ps, 0, t, cfg))

	s.logger.Debug("run started",
		"field", s.field.Name(),
		"integrator", s.integrator.Name(),
		"particles", ps.Len(),
		"steps", steps,
		"dt", cfg.Dt)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(ps, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(ps, t)
		}

		stepErr := s.Step(ps, cfg.Dt)
		t = float64(i+1) * cfg.Dt
		result.Ticks++

		if err := s.checkBounds(stepErr, result, i, t, cfg); err != nil {
			return result, err
		}

		if cfg.ValidateState && !ps.Valid() {
			err := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)", Err: dynamo.ErrUnstable}
			result.Errors = append(result.Errors, err)
			s.logger.Error("simulation diverged", "t", t, "step", i)
			break
		}

		result.Times = append(result.Times, t)
		if (i+1)%every == 0 || i == steps-1 {
			result.Samples = append(result.Samples, s.sample(ps, i+1, t, cfg))
		}
	}

	for _, m := range s.metrics {
		m.Observe(ps, t)
	}

	finalEnergy := s.computeEnergy(ps, cfg)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished", "ticks", result.Ticks, "energy_drift", result.EnergyDrift)
	return result, nil
}

// checkBounds records a rejection. It returns a non-nil error only when
// the run must stop.
func (s *Simulator) checkBounds(err error, result *Result, step int, t float64, cfg Config) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, dynamo.ErrOutOfBounds) {
		return SimError{Time: t, Step: step, Message: "force evaluation failed", Err: err}
	}

	result.OutOfBounds++
	if cfg.StrictBounds {
		return SimError{Time: t, Step: step, Message: "particle left the root cube", Err: err}
	}
	if result.OutOfBounds == 1 {
		result.Errors = append(result.Errors, SimError{Time: t, Step: step, Message: "particle left the root cube", Err: err})
		s.logger.Warn("particles outside root cube", "t", t, "step", step, "err", err)
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 || math.IsNaN(cfg.Dt) {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if cfg.Duration <= 0 || math.IsNaN(cfg.Duration) {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrParameterBounds)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must be non-negative, got %d: %w", cfg.SampleEvery, dynamo.ErrParameterBounds)
	}
	return nil
}

func (s *Simulator) computeEnergy(ps *particle.Store, cfg Config) float64 {
	if cfg.SkipEnergy {
		return 0
	}
	if ec, ok := s.field.(EnergyComputer); ok {
		return ec.Energy(ps)
	}
	return 0
}

func (s *Simulator) sample(ps *particle.Store, tick int, t float64, cfg Config) Sample {
	smp := Sample{
		Tick:         tick,
		Time:         t,
		Energy:       s.computeEnergy(ps, cfg),
		Momentum:     ps.Momentum(),
		CenterOfMass: ps.CenterOfMass(),
	}
	if sr, ok := s.field.(StatsReporter); ok {
		smp.Stats = sr.Stats()
		smp.OutOfBounds = smp.Stats.Tree.Rejected
	}
	return smp
}

// RunWithCallback steps ps in place until the duration elapses or
// callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, ps *particle.Store, cfg Config, callback func(ps *particle.Store, t float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	var bounds Result
	if err := s.checkBounds(s.Prime(ps), &bounds, 0, 0, cfg); err != nil {
		return err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		if !callback(ps, t) {
			return nil
		}

		if err := s.checkBounds(s.Step(ps, cfg.Dt), &bounds, i, t+cfg.Dt, cfg); err != nil {
			return err
		}

		if cfg.ValidateState && !ps.Valid() {
			return fmt.Errorf("invalid state at t=%.4f: %w", t+cfg.Dt, dynamo.ErrUnstable)
		}
	}

	return nil
}

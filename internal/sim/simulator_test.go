package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/particle"
)

// testField pulls every particle toward the origin, a = -x, and rejects
// particles outside the unit cube like the tree does.
type testField struct {
	calls       int
	energyCalls int
}

func (f *testField) Name() string { return "spring" }

func (f *testField) Accelerations(ps *particle.Store) error {
	f.calls++
	outside := 0
	for i := 0; i < ps.Len(); i++ {
		p := ps.At(i)
		p.Acceleration = p.Position.Mul(-1)
		for _, c := range p.Position {
			if math.Abs(c) > 1 {
				outside++
				break
			}
		}
	}
	ps.SetPrimed(true)
	if outside > 0 {
		return fmt.Errorf("%d outside: %w", outside, dynamo.ErrOutOfBounds)
	}
	return nil
}

func (f *testField) Energy(ps *particle.Store) float64 {
	f.energyCalls++
	e := 0.0
	for _, p := range ps.All() {
		e += 0.5*p.Mass*p.Velocity.Dot(p.Velocity) + 0.5*p.Mass*p.Position.Dot(p.Position)
	}
	return e
}

type testIntegrator struct{}

func (testIntegrator) Name() string { return "euler" }

func (testIntegrator) Step(f ForceField, ps *particle.Store, dt float64) error {
	for i := 0; i < ps.Len(); i++ {
		p := ps.At(i)
		p.Velocity = p.Velocity.Add(p.Acceleration.Mul(dt))
		p.Position = p.Position.Add(p.Velocity.Mul(dt))
	}
	return f.Accelerations(ps)
}

func newStore(t *testing.T, recs ...particle.Particle) *particle.Store {
	t.Helper()
	ps, err := particle.NewStore(recs)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return ps
}

func TestSimulatorRun(t *testing.T) {
	field := &testField{}
	sim := New(field, testIntegrator{})

	ps0 := newStore(t, particle.Particle{Position: mgl64.Vec3{0.5, 0, 0}, Mass: 1})
	result, err := sim.Run(context.Background(), ps0, Config{Dt: 0.01, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Ticks != 100 {
		t.Errorf("expected 100 ticks, got %d", result.Ticks)
	}
	if len(result.Times) != 101 {
		t.Errorf("expected 101 times, got %d", len(result.Times))
	}
	if len(result.Samples) != 101 {
		t.Errorf("expected 101 samples, got %d", len(result.Samples))
	}
	if field.calls != 101 {
		t.Errorf("expected one priming call plus one per tick, got %d", field.calls)
	}

	x := result.Final.At(0).Position.X()
	expected := 0.5 * math.Cos(1.0)
	if math.Abs(x-expected) > 0.01 {
		t.Errorf("expected final x ~%.4f, got %.4f", expected, x)
	}

	if ps0.At(0).Position.X() != 0.5 {
		t.Error("run mutated the initial store")
	}
	if result.EnergyDrift > 0.02 {
		t.Errorf("energy drift too large: %g", result.EnergyDrift)
	}
}

func TestSimulatorSampleEvery(t *testing.T) {
	sim := New(&testField{}, testIntegrator{})
	ps0 := newStore(t, particle.Particle{Position: mgl64.Vec3{0.1, 0, 0}, Mass: 1})

	result, err := sim.Run(context.Background(), ps0, Config{Dt: 0.1, Duration: 1.1, SampleEvery: 4})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// 11 ticks: samples at 0, 4, 8 and the last tick.
	var ticks []int
	for _, s := range result.Samples {
		ticks = append(ticks, s.Tick)
	}
	want := []int{0, 4, 8, 11}
	if fmt.Sprint(ticks) != fmt.Sprint(want) {
		t.Errorf("sample ticks = %v, want %v", ticks, want)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&testField{}, testIntegrator{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"NaN dt", Config{Dt: math.NaN(), Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"negative sample interval", Config{Dt: 0.1, Duration: 1, SampleEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := newStore(t, particle.Particle{Mass: 1})
			_, err := sim.Run(context.Background(), ps, tt.cfg)
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestSimulatorOutOfBounds(t *testing.T) {
	escaping := particle.Particle{Position: mgl64.Vec3{0.95, 0, 0}, Velocity: mgl64.Vec3{2, 0, 0}, Mass: 1}

	t.Run("lenient", func(t *testing.T) {
		sim := New(&testField{}, testIntegrator{})
		result, err := sim.Run(context.Background(), newStore(t, escaping), Config{Dt: 0.1, Duration: 0.5})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if result.OutOfBounds == 0 {
			t.Error("expected out-of-bounds ticks to be counted")
		}
		if len(result.Errors) != 1 || !errors.Is(result.Errors[0], dynamo.ErrOutOfBounds) {
			t.Errorf("expected a single recorded bounds error, got %v", result.Errors)
		}
		if result.Ticks != 5 {
			t.Errorf("expected run to continue, got %d ticks", result.Ticks)
		}
	})

	t.Run("strict", func(t *testing.T) {
		sim := New(&testField{}, testIntegrator{})
		result, err := sim.Run(context.Background(), newStore(t, escaping), Config{Dt: 0.1, Duration: 0.5, StrictBounds: true})
		if !errors.Is(err, dynamo.ErrOutOfBounds) {
			t.Fatalf("expected ErrOutOfBounds, got %v", err)
		}
		var se SimError
		if !errors.As(err, &se) || se.Step != 0 {
			t.Errorf("expected failure on the first step, got %v", err)
		}
		if result.Ticks != 1 {
			t.Errorf("expected 1 tick, got %d", result.Ticks)
		}
	})
}

func TestSimulatorCancel(t *testing.T) {
	sim := New(&testField{}, testIntegrator{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, newStore(t, particle.Particle{Mass: 1}), Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Ticks != 0 {
		t.Errorf("expected no ticks, got %d", result.Ticks)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(ps *particle.Store, time float64) {
	t.count++
	t.sum += ps.At(0).Position.X()
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testField{}, testIntegrator{})

	metric := &testMetric{count: 7}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), newStore(t, particle.Particle{Position: mgl64.Vec3{0.2, 0, 0}, Mass: 1}), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	// Reset, then once per tick plus the final state.
	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := New(&testField{}, testIntegrator{})
	ps := newStore(t, particle.Particle{Position: mgl64.Vec3{0.3, 0, 0}, Mass: 1})

	calls := 0
	err := sim.RunWithCallback(context.Background(), ps, Config{Dt: 0.1, Duration: 1}, func(ps *particle.Store, t float64) bool {
		calls++
		return calls < 4
	})
	if err != nil {
		t.Fatalf("callback run failed: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 callbacks, got %d", calls)
	}
	if ps.At(0).Position.X() == 0.3 {
		t.Error("expected the store to be stepped in place")
	}
}

func TestEnsemble(t *testing.T) {
	ps0 := newStore(t, particle.Particle{Position: mgl64.Vec3{0.5, 0, 0}, Mass: 1})

	ens := NewEnsemble(func(run int) (*Simulator, error) {
		return New(&testField{}, testIntegrator{}), nil
	}, 4)

	results, err := ens.Run(context.Background(), ps0, Config{Dt: 0.01, Duration: 0.5})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results[1:] {
		if r.Final.At(0).Position != results[0].Final.At(0).Position {
			t.Errorf("run %d diverged from run 0", i+1)
		}
	}

	failing := NewEnsemble(func(run int) (*Simulator, error) {
		if run == 2 {
			return nil, errors.New("boom")
		}
		return New(&testField{}, testIntegrator{}), nil
	}, 3)
	if _, err := failing.Run(context.Background(), ps0, Config{Dt: 0.01, Duration: 0.1}); err == nil {
		t.Error("expected factory error")
	}
}

func TestSimulatorSkipEnergy(t *testing.T) {
	ps0 := newStore(t, particle.Particle{Position: mgl64.Vec3{0.5, 0, 0}, Mass: 1})

	field := &testField{}
	result, err := New(field, testIntegrator{}).Run(context.Background(), ps0, Config{Dt: 0.1, Duration: 1, SampleEvery: 5})
	if err != nil {
		t.Fatal(err)
	}
	// initial + final drift, plus three samples
	if field.energyCalls != 5 {
		t.Errorf("energy evaluated %d times, want 5", field.energyCalls)
	}
	if result.Samples[0].Energy == 0 {
		t.Error("sample energy missing")
	}

	field = &testField{}
	result, err = New(field, testIntegrator{}).Run(context.Background(), ps0, Config{Dt: 0.1, Duration: 1, SampleEvery: 5, SkipEnergy: true})
	if err != nil {
		t.Fatal(err)
	}
	if field.energyCalls != 0 {
		t.Errorf("energy evaluated %d times with SkipEnergy", field.energyCalls)
	}
	if len(result.Samples) != 3 {
		t.Errorf("got %d samples, want 3", len(result.Samples))
	}
	for _, smp := range result.Samples {
		if smp.Energy != 0 {
			t.Errorf("tick %d energy = %g, want 0", smp.Tick, smp.Energy)
		}
	}
	if result.EnergyDrift != 0 {
		t.Errorf("energy drift = %g, want 0", result.EnergyDrift)
	}
}

package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/scenario"
	"github.com/san-kum/gravsim/internal/sim"
)

type Registry struct {
	fields      map[string]func(gravity.Params) sim.ForceField
	integrators map[string]func() sim.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		fields:      make(map[string]func(gravity.Params) sim.ForceField),
		integrators: make(map[string]func() sim.Integrator),
	}

	r.fields["barnes-hut"] = func(p gravity.Params) sim.ForceField { return gravity.NewBarnesHut(p) }
	r.fields["direct"] = func(p gravity.Params) sim.ForceField { return gravity.NewDirect(p) }

	r.integrators["leapfrog"] = func() sim.Integrator { return integrators.NewLeapfrog() }
	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetField(name string, p gravity.Params) (sim.ForceField, error) {
	fn, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("unknown force field: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListFields() []string      { return sortedKeys(r.fields) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListScenarios() []string   { return scenario.Names() }

// DefaultMetrics returns the standard run metrics. The energy metrics
// cost a direct pair sum per tick and are left out unless energy is set.
func (r *Registry) DefaultMetrics(p gravity.Params, energy bool) []sim.Metric {
	var ms []sim.Metric
	if energy {
		ms = append(ms,
			metrics.NewEnergy(p.Units, p.MinSeparation),
			metrics.NewEnergyDrift(p.Units, p.MinSeparation))
	}
	return append(ms,
		metrics.NewMomentumDrift(),
		metrics.NewAngularMomentumDrift(),
		metrics.NewContainment(p.HalfExtent))
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

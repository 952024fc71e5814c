// Package optim searches configuration parameters for the cheapest
// setting that keeps a run metric under control.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
)

// Tunable names the config parameters a grid may vary.
var Tunable = []string{"theta", "dt", "min_separation"}

// Apply sets one named parameter on cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	switch name {
	case "theta":
		cfg.Gravity.Theta = v
	case "dt":
		cfg.Dt = v
	case "min_separation":
		cfg.Gravity.MinSeparation = v
	default:
		return fmt.Errorf("unknown parameter %q (tunable: %v): %w", name, Tunable, dynamo.ErrParameterBounds)
	}
	return nil
}

// Trial is one evaluated grid point.
type Trial struct {
	Params  map[string]float64
	Value   float64
	Elapsed time.Duration
	Err     error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges: %w", len(params), len(ranges), dynamo.ErrParameterBounds)
	}
	for i, name := range params {
		if err := Apply(config.DefaultConfig(), name, 0); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("empty range for %s: %w", name, dynamo.ErrParameterBounds)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs base with every combination of the grid and returns the
// trial with the lowest value of metric, plus all trials in grid order.
// Failed trials are kept with their error and never chosen.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string) (Trial, []Trial, error) {
	var trials []Trial
	g.searchRecursive(ctx, 0, map[string]float64{}, base, metric, &trials)
	if err := ctx.Err(); err != nil {
		return Trial{}, trials, err
	}

	best := Trial{Value: math.Inf(1)}
	found := false
	var errs []error
	for _, t := range trials {
		if t.Err != nil {
			errs = append(errs, t.Err)
			continue
		}
		if t.Value < best.Value {
			best, found = t, true
		}
	}
	if !found {
		return Trial{}, trials, fmt.Errorf("no successful trial: %w", errors.Join(errs...))
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, base *config.Config, metric string, trials *[]Trial) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		*trials = append(*trials, g.evaluate(ctx, current, base, metric))
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.searchRecursive(ctx, depth+1, next, base, metric, trials)
	}
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, base *config.Config, metric string) Trial {
	trial := Trial{Params: params, Value: math.Inf(1)}
	cfg := *base
	for k, v := range params {
		if trial.Err = Apply(&cfg, k, v); trial.Err != nil {
			return trial
		}
	}

	exp := experiment.New(&cfg)
	if trial.Err = exp.Setup(nil); trial.Err != nil {
		return trial
	}
	start := time.Now()
	result, err := exp.Run(ctx)
	trial.Elapsed = time.Since(start)
	if err != nil {
		trial.Err = err
		return trial
	}
	val, ok := result.Metrics[metric]
	if !ok {
		trial.Err = fmt.Errorf("unknown metric %q", metric)
		return trial
	}
	trial.Value = val
	return trial
}

// Names returns the trial's parameter names in sorted order.
func (t Trial) Names() []string {
	names := make([]string, 0, len(t.Params))
	for k := range t.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

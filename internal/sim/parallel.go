package sim

import (
	"context"
	"sync"

	"github.com/san-kum/gravsim/internal/particle"
)

// Ensemble runs independent simulations concurrently. A force field owns
// its tree, so every run gets a fresh Simulator from the factory.
type Ensemble struct {
	factory func(run int) (*Simulator, error)
	numRuns int
}

func NewEnsemble(factory func(run int) (*Simulator, error), numRuns int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

// Run starts every run from its own copy of ps0 and returns the results
// in run order.
func (e *Ensemble) Run(ctx context.Context, ps0 *particle.Store, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sim, err := e.factory(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = sim.Run(ctx, ps0, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

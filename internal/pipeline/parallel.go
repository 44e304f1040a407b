package pipeline

import (
	"context"
	"sync"

	"github.com/mlindner/cosray/internal/core"
	"github.com/mlindner/cosray/internal/rng"
)

// Factory builds a pipeline bound to one worker's random stream. Modules
// holding the stream must come from the factory so streams never cross
// workers.
type Factory func(random *rng.Random) (*Pipeline, error)

// Source creates the i-th primary candidate of a run.
type Source func(i int, random *rng.Random) *core.Candidate

// Ensemble runs many candidates over a fixed set of workers. Candidate i is
// always handled by worker i mod workers, so a run is reproducible for a
// given seed and worker count. Tables behind the modules are shared
// read-only.
type Ensemble struct {
	factory   Factory
	source    Source
	workers   int
	seedStart int64
}

func NewEnsemble(factory Factory, source Source, workers int, seedStart int64) *Ensemble {
	if workers < 1 {
		workers = 1
	}
	return &Ensemble{factory: factory, source: source, workers: workers, seedStart: seedStart}
}

// Run simulates n candidates and returns them with their secondary trees.
func (e *Ensemble) Run(ctx context.Context, n int) ([]*core.Candidate, error) {
	results := make([]*core.Candidate, n)
	errs := make([]error, e.workers)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			random := rng.New(e.seedStart + int64(w))
			p, err := e.factory(random)
			if err != nil {
				errs[w] = err
				return
			}
			for i := w; i < n; i += e.workers {
				c := e.source(i, random)
				if err := p.Run(ctx, c); err != nil {
					errs[w] = err
					return
				}
				results[i] = c
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

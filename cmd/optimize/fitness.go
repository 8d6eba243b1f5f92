package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/joepstevens0/inf-masterproef/config"
	"github.com/joepstevens0/inf-masterproef/sim"
	"github.com/joepstevens0/inf-masterproef/telemetry"
)

// Plants taller than this share of the box are scaled down in score.
const heightFraction = 0.8

// FitnessEvaluator grows one plant per seed and scores the final shapes.
type FitnessEvaluator struct {
	params     *ParamVector
	iterations int
	seeds      []uint64
	baseConfig *config.Config

	mu   sync.Mutex
	last EvalResult
}

// EvalResult summarises one Evaluate call averaged over the seeds.
type EvalResult struct {
	Fitness  float64
	Metamers float64
	Height   float64
	Spread   float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, iterations int, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		iterations: iterations,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastResult returns the result of the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Fitness is the negated mean score over all seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]telemetry.IterationStats, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var r EvalResult
	for _, st := range results {
		r.Fitness -= score(st, fe.baseConfig.World.BoxSize)
		r.Metamers += float64(st.Metamers)
		r.Height += st.Height
		r.Spread += st.Spread
	}
	if n := float64(len(results)); n > 0 {
		r.Fitness /= n
		r.Metamers /= n
		r.Height /= n
		r.Spread /= n
	}

	fe.mu.Lock()
	fe.last = r
	fe.mu.Unlock()
	return r.Fitness
}

// runSimulation grows one plant and returns the stats of its last iteration.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint64) telemetry.IterationStats {
	cfg := fe.configFor(x)
	cfg.Seed = seed

	var last telemetry.IterationStats
	s := sim.New(cfg, sim.Options{OnStep: func(st telemetry.IterationStats) { last = st }})
	_ = s.Run(context.Background(), fe.iterations)
	return last
}

// configFor copies the base config with x applied.
func (fe *FitnessEvaluator) configFor(x []float64) *config.Config {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)
	if err := cfg.Validate(); err != nil {
		// Clamped bounds keep every parameter valid
		panic(fmt.Sprintf("optimizer produced invalid config: %v", err))
	}
	return &cfg
}

// score rewards metamers. Plants overgrowing the box or spreading wider than
// they are tall are scaled down.
func score(st telemetry.IterationStats, boxSize float64) float64 {
	s := float64(st.Metamers)
	if limit := heightFraction * boxSize; st.Height > limit {
		s *= limit / st.Height
	}
	if st.Height > 0 && st.Spread > st.Height {
		s *= st.Height / st.Spread
	}
	return s
}

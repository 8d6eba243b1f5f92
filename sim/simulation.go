// Package sim owns one plant growing in one environment and exposes the
// command surface front ends drive it with. A Simulation is not safe for
// concurrent use.
package sim

import (
	"context"
	"image/color"

	"go.uber.org/zap"

	"github.com/joepstevens0/inf-masterproef/config"
	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/pruning"
	"github.com/joepstevens0/inf-masterproef/rng"
	"github.com/joepstevens0/inf-masterproef/telemetry"
	"github.com/joepstevens0/inf-masterproef/tree"
)

// NoSelection clears the selected id. Ids start at tree.RootID.
const NoSelection uint32 = 0

// Options configures optional collaborators of a Simulation.
type Options struct {
	Logger *zap.Logger                    // nil discards logs
	Output *telemetry.OutputManager       // nil disables run output
	OnStep func(telemetry.IterationStats) // Called after every recorded iteration
}

// Simulation is the context object holding the random source, the id
// allocator, the genetics, the environment and the plant.
type Simulation struct {
	cfg      *config.Config
	log      *zap.Logger
	rng      *rng.Source
	ids      *tree.IDAllocator
	genetics *tree.Genetics
	ctx      *tree.Context
	env      *environment.Environment
	plant    *tree.Plant
	spalier  *pruning.AutopruneSpalier

	iteration int
	selected  uint32
	pruneMod  bool

	perf   *telemetry.PerfCollector
	output *telemetry.OutputManager
	onStep func(telemetry.IterationStats)
}

// New builds a simulation from cfg. The plant is created before the
// environment so both draw from the seeded source in a fixed order.
func New(cfg *config.Config, opts Options) *Simulation {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	src := rng.New(cfg.Seed)
	s := &Simulation{
		cfg:      cfg,
		log:      log,
		rng:      src,
		ids:      tree.NewIDAllocator(),
		genetics: cfg.TreeGenetics(),
		spalier:  pruning.NewAutopruneSpalier(),
		pruneMod: cfg.Run.Spalier,
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		output:   opts.Output,
		onStep:   opts.OnStep,
	}
	s.ctx = &tree.Context{
		Genetics: s.genetics,
		Growth:   cfg.GrowthParams(),
		IDs:      s.ids,
		Rand:     src,
	}

	s.plant = tree.NewPlant(s.ctx, cfg.Derived.SeedPos, tree.NewDistributor(cfg.Derived.Distribution, cfg.PriorityWeights()))
	s.plant.SetPhaseHook(s.perf.StartPhase)
	s.env = environment.New(cfg.EnvironmentParams(), src)

	log.Info("simulation created",
		zap.Uint64("seed", cfg.Seed),
		zap.Stringer("space_dividing", s.env.Mode()),
		zap.Stringer("distribution", s.plant.Distributor().Mode()),
		zap.Int("resolution", cfg.World.Resolution),
	)
	return s
}

// PerformGrowthIteration runs one growth iteration, then spalier training
// when enabled, and records the result.
func (s *Simulation) PerformGrowthIteration() tree.IterationReport {
	return s.step(true)
}

func (s *Simulation) step(record bool) tree.IterationReport {
	s.perf.StartIteration()
	r := s.plant.PerformGrowthIteration(s.env)
	s.iteration++

	if s.pruneMod {
		s.perf.StartPhase(telemetry.PhasePrune)
		s.spalier.Update(s.plant)
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	stats := telemetry.NewIterationStats(s.iteration, r, s.plant, s.env.TropismWeight())
	if !record {
		s.log.Debug("replayed growth iteration", stats.Field())
		s.perf.EndIteration()
		return r
	}

	s.log.Info("growth iteration", stats.Field())
	if err := s.output.WriteIteration(stats); err != nil {
		s.log.Error("failed to write iteration stats", zap.Error(err))
	}
	if s.onStep != nil {
		s.onStep(stats)
	}
	s.perf.EndIteration()

	if s.perf.Full() {
		ps := s.perf.Stats()
		s.log.Debug("perf", ps.Fields()...)
		if err := s.output.WritePerf(ps, s.iteration); err != nil {
			s.log.Error("failed to write perf", zap.Error(err))
		}
		s.perf.Reset()
	}
	return r
}

// Run performs n growth iterations, stopping early when ctx is done.
func (s *Simulation) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.PerformGrowthIteration()
	}
	return nil
}

// ResetPlants restarts the random source and id allocator, replaces the
// plant with a fresh root and rebuilds the environment. The current
// distribution and space dividing modes and the genetics are kept.
func (s *Simulation) ResetPlants() {
	s.rng.Reset()
	s.ids.Reset()
	s.iteration = 0

	s.plant.Reset(s.cfg.Derived.SeedPos)

	mode := s.env.Mode()
	s.env = environment.New(s.cfg.EnvironmentParams(), s.rng)
	s.env.SetMode(mode)

	s.log.Info("plants reset")
}

// RecalculatePlants resets and replays as many iterations as had been run,
// so parameter changes apply to the whole growth history.
func (s *Simulation) RecalculatePlants() {
	n := s.iteration
	s.ResetPlants()
	for range n {
		s.step(false)
	}
	s.log.Info("plants recalculated", zap.Int("iterations", n))
}

// PruneID prunes the bud with id anywhere in the plant. Reports whether a
// bud matched.
func (s *Simulation) PruneID(id uint32) bool {
	ok := s.plant.PruneID(id)
	s.log.Info("prune id", zap.Uint32("id", id), zap.Bool("found", ok))
	return ok
}

// PruneByRule applies a pruning rule to the whole plant.
func (s *Simulation) PruneByRule(rule pruning.Rule) {
	s.log.Info("prune rule", zap.Stringer("rule", rule))
	pruning.PruneByRule(rule, s.plant.Root(), s.rng)
}

// MetamerByID returns a snapshot of the metamer with segment id id.
func (s *Simulation) MetamerByID(id uint32) (tree.Snapshot, bool) {
	m, ok := s.plant.MetamerByID(id)
	if !ok {
		return tree.Snapshot{}, false
	}
	return m.Snapshot(), true
}

// SetSelectedID marks id as highlighted in BranchViews. NoSelection clears it.
func (s *Simulation) SetSelectedID(id uint32) {
	s.selected = id
}

// SelectedID returns the highlighted id, or NoSelection.
func (s *Simulation) SelectedID() uint32 {
	return s.selected
}

// BranchViews returns an immutable snapshot of every render record with the
// selection applied.
func (s *Simulation) BranchViews() []tree.BranchView {
	views := s.plant.CollectBranchData()
	if s.selected == NoSelection {
		return views
	}
	for i := range views {
		views[i].Selected = views[i].ID == s.selected
	}
	return views
}

// DebugTexture returns the shadow values of one horizontal layer as pixels,
// row-major with the x resolution as width.
func (s *Simulation) DebugTexture(layer int) []color.RGBA {
	return s.env.DebugTexture(layer)
}

// Iteration returns the number of growth iterations since the last reset.
func (s *Simulation) Iteration() int { return s.iteration }

// Plant returns the simulated plant.
func (s *Simulation) Plant() *tree.Plant { return s.plant }

// Environment returns the current environment.
func (s *Simulation) Environment() *environment.Environment { return s.env }

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() *config.Config { return s.cfg }

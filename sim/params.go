package sim

import (
	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/tree"
)

// TreeParameter is a runtime tunable setting of the simulation. The set of
// implementations is closed.
type TreeParameter interface {
	isTreeParameter()
}

// GeneticParam changes one genetic value of the plant.
type GeneticParam struct {
	tree.GeneticParameter
}

// DistributionModeParam selects the resource distributor.
type DistributionModeParam struct {
	Mode tree.DistributionMode
}

// SpaceDividingModeParam selects the spatial model used for light and growth
// direction.
type SpaceDividingModeParam struct {
	Mode environment.SpaceDividingMode
}

// PruneModParam toggles automatic spalier training after every iteration.
type PruneModParam struct {
	On bool
}

func (GeneticParam) isTreeParameter()           {}
func (DistributionModeParam) isTreeParameter()  {}
func (SpaceDividingModeParam) isTreeParameter() {}
func (PruneModParam) isTreeParameter()          {}

// UpdateParameter applies p. Genetic changes take effect on the next
// iteration; replay with RecalculatePlants to see their effect on the whole
// history.
func (s *Simulation) UpdateParameter(p TreeParameter) {
	switch p := p.(type) {
	case GeneticParam:
		s.genetics.Update(p.GeneticParameter)
	case DistributionModeParam:
		s.plant.Distributor().SetMode(p.Mode)
	case SpaceDividingModeParam:
		s.env.SetMode(p.Mode)
	case PruneModParam:
		s.pruneMod = p.On
	}
}

// Parameter returns the current value of the parameter of the same kind as p.
// The value carried by p is ignored.
func (s *Simulation) Parameter(p TreeParameter) TreeParameter {
	switch p := p.(type) {
	case GeneticParam:
		return GeneticParam{s.genetics.Get(p.Kind)}
	case DistributionModeParam:
		return DistributionModeParam{Mode: s.plant.Distributor().Mode()}
	case SpaceDividingModeParam:
		return SpaceDividingModeParam{Mode: s.env.Mode()}
	case PruneModParam:
		return PruneModParam{On: s.pruneMod}
	}
	return p
}

package tree

import "fmt"

// Genetics holds the tunable growth parameters shared by every metamer of a
// plant. Angles are in radians.
type Genetics struct {
	BorchertHondaLambda          float64 // Apical dominance ratio in [0, 1]
	BorchertHondaAlpha           float64 // Light to resource conversion
	PoleLength                   float64 // Root support pole length in meters
	AuxShootRequirement          float64
	TerminalShootRequirement     float64
	MetamerBaseLength            float64
	BudPerceptionAngle           float64
	BudPerceptionRadius          float64
	OccupancyRadius              float64
	AxillaryPerturbationAngle    float64
	OptimalGrowthDirectionWeight float64
	ShedThreshold                float64
}

// AuxShootRequirementFor returns the resources the axillary bud of m needs to
// grow. While the terminal bud of m is damaged the lower terminal requirement
// applies.
func (g *Genetics) AuxShootRequirementFor(m *Metamer) float64 {
	if m != nil && m.terminal.damage > 0 {
		return g.TerminalShootRequirement
	}
	return g.AuxShootRequirement
}

// GeneticKind names one of the runtime tunable genetic parameters.
type GeneticKind int

const (
	BorchertHondaLambda GeneticKind = iota
	BorchertHondaAlpha
	PoleLength
	AuxShootReq
)

var geneticNames = []string{
	BorchertHondaLambda: "borchert_honda_lambda",
	BorchertHondaAlpha:  "borchert_honda_alpha",
	PoleLength:          "pole_length",
	AuxShootReq:         "aux_shoot_req",
}

// String returns the wire name of the parameter.
func (k GeneticKind) String() string {
	if k >= 0 && int(k) < len(geneticNames) {
		return geneticNames[k]
	}
	return fmt.Sprintf("GeneticKind(%d)", int(k))
}

// ParseGeneticKind maps a wire name back to its kind.
func ParseGeneticKind(s string) (GeneticKind, error) {
	for i, name := range geneticNames {
		if name == s {
			return GeneticKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown genetic parameter %q", s)
}

// GeneticParameter is a tagged genetic value.
type GeneticParameter struct {
	Kind  GeneticKind
	Value float64
}

// Update applies p to g.
func (g *Genetics) Update(p GeneticParameter) {
	switch p.Kind {
	case BorchertHondaLambda:
		g.BorchertHondaLambda = p.Value
	case BorchertHondaAlpha:
		g.BorchertHondaAlpha = p.Value
	case PoleLength:
		g.PoleLength = p.Value
	case AuxShootReq:
		g.AuxShootRequirement = p.Value
	}
}

// Get returns the current value of parameter k.
func (g *Genetics) Get(k GeneticKind) GeneticParameter {
	p := GeneticParameter{Kind: k}
	switch k {
	case BorchertHondaLambda:
		p.Value = g.BorchertHondaLambda
	case BorchertHondaAlpha:
		p.Value = g.BorchertHondaAlpha
	case PoleLength:
		p.Value = g.PoleLength
	case AuxShootReq:
		p.Value = g.AuxShootRequirement
	}
	return p
}

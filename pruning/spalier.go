package pruning

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/joepstevens0/inf-masterproef/tree"
)

const (
	passLength     = 6  // Trunk metamers per spalier layer
	maxTrunkLength = 23 // Trunk metamers kept before the leader is stopped
	armPoleLength  = 1.7
	armPoleWidth   = 0.0001
	armMaxLength   = 20
	spurLength     = 2
)

var (
	leftArm  = r3.Vec{X: -1}
	rightArm = r3.Vec{X: 1}
)

// AutopruneSpalier trains a plant into horizontal layers: each layer of
// passLength trunk metamers keeps a clear stem, a supported arm to the left,
// a supported arm to the right, and hands the leader over to the axillary
// shoot of its last metamer.
type AutopruneSpalier struct{}

// NewAutopruneSpalier returns a spalier trainer.
func NewAutopruneSpalier() *AutopruneSpalier {
	return &AutopruneSpalier{}
}

// Update prunes the trunk of plant one metamer at a time, bottom up.
func (s *AutopruneSpalier) Update(plant *tree.Plant) {
	root := plant.Root()
	for n := 0; ; n++ {
		m := trunkMetamer(root, n)
		if m == nil {
			return
		}
		if n > maxTrunkLength {
			m.PruneAuxillary()
			m.PruneTerminal()
			return
		}

		switch n % passLength {
		case passLength - 3:
			trainArm(m, leftArm)
		case passLength - 2:
			trainArm(m, rightArm)
		case passLength - 1:
			m.PruneTerminal()
			m.SetAuxPole(tree.NewSupportPole(1, m.EndPoint(), r3.Vec{Y: 1}, false))
		default:
			m.PruneAuxillary()
		}
	}
}

// trunkMetamer walks n steps up the trunk: passLength-1 terminal steps, then
// one axillary step onto the next leader, repeating.
func trunkMetamer(root *tree.Metamer, n int) *tree.Metamer {
	m, pass := root, passLength
	for i := 0; i < n && m != nil; i++ {
		if pass > 1 {
			m = m.TerminalChild()
			pass--
		} else {
			m = m.AuxChild()
			pass = passLength
		}
	}
	return m
}

// trainArm keeps an existing arm in shape, or puts up a pole for the arm to
// grow along.
func trainArm(m *tree.Metamer, dir r3.Vec) {
	if a := m.AuxChild(); a != nil {
		maintainBranch(a)
		return
	}
	pole := tree.NewSupportPole(armPoleLength, m.EndPoint(), dir, true)
	pole.SetWidth(armPoleWidth)
	m.SetAuxPole(pole)
}

// maintainBranch limits an arm's length and keeps every spur along it short.
func maintainBranch(m *tree.Metamer) {
	for ; m != nil; m = m.TerminalChild() {
		trimPaths(m, armMaxLength)
		if a := m.AuxChild(); a != nil {
			trimPaths(a, spurLength)
		}
	}
}

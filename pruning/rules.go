// Package pruning applies horticultural pruning rules to a plant's metamer
// tree and keeps a spalier (espalier) training shape over time.
package pruning

import (
	"fmt"
	"math"

	"github.com/joepstevens0/inf-masterproef/geom"
	"github.com/joepstevens0/inf-masterproef/rng"
	"github.com/joepstevens0/inf-masterproef/tree"
)

// Rule is a named pruning operation.
type Rule int

const (
	Op0 Rule = iota
	Op1
	Op2
	Op3
	Op4
	Op5
	Spil1
	Spil2
	Spil3
)

var ruleNames = [...]string{"op0", "op1", "op2", "op3", "op4", "op5", "spil1", "spil2", "spil3"}

// Rules lists every rule in declaration order.
var Rules = []Rule{Op0, Op1, Op2, Op3, Op4, Op5, Spil1, Spil2, Spil3}

func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return fmt.Sprintf("Rule(%d)", int(r))
	}
	return ruleNames[r]
}

// ParseRule maps a rule name back to its Rule.
func ParseRule(s string) (Rule, error) {
	for i, n := range ruleNames {
		if n == s {
			return Rule(i), nil
		}
	}
	return Op0, fmt.Errorf("unknown prune rule %q", s)
}

// Spil1 tops the main axis above this height.
var maxTerminalHeight = tree.MetersToWorld(0.9)

// PruneByRule applies rule to the tree rooted at root. Rules that pick
// random lengths draw from src.
func PruneByRule(rule Rule, root *tree.Metamer, src *rng.Source) {
	switch rule {
	case Op1:
		stripSupportedAxis(root)
	case Op2:
		shortenLaterals(root, src)
	case Op3:
		limitBranches(root, rng.Pick(src, []int{3, 4}))
	case Op4, Op5:
		root.PruneAuxillary()
		if t := root.TerminalChild(); t != nil {
			stripSupportedAxis(t)
		}
	case Spil1:
		topAxis(root, maxTerminalHeight)
	case Spil2:
		shortenSideBranches(root)
	}
}

// stripSupportedAxis removes every lateral along the part of the main axis
// that grows on a support pole.
func stripSupportedAxis(m *tree.Metamer) {
	for ; m != nil && m.Pole() != nil; m = m.TerminalChild() {
		m.PruneAuxillary()
	}
}

func shortenLaterals(m *tree.Metamer, src *rng.Source) {
	for ; m != nil; m = m.TerminalChild() {
		if a := m.AuxChild(); a != nil {
			trimPaths(a, rng.Pick(src, []int{3, 4}))
		}
	}
}

// limitBranches keeps the first n laterals at two thirds of their length and
// tops the axis after them.
func limitBranches(m *tree.Metamer, n int) {
	for ; m != nil; m = m.TerminalChild() {
		if n == 0 {
			m.PruneTerminal()
			return
		}
		if a := m.AuxChild(); a != nil {
			n--
			trimPaths(a, int(math.Round(float64(a.LongestPath())*2/3)))
		}
	}
}

func topAxis(m *tree.Metamer, height float64) {
	for ; m != nil; m = m.TerminalChild() {
		if m.EndPoint().Y > height {
			m.PruneTerminal()
			return
		}
	}
}

func shortenSideBranches(m *tree.Metamer) {
	for ; m != nil; m = m.TerminalChild() {
		a := m.AuxChild()
		if a == nil {
			continue
		}
		if !cutAtDownwardBud(a, 0) {
			trimPaths(a, a.LongestPath()/2)
		}
	}
}

// cutAtDownwardBud tops the branch at the first metamer past depth 2 whose
// axillary bud points further down than its mirror image around the axis.
func cutAtDownwardBud(m *tree.Metamer, depth int) bool {
	if depth > 2 && m.TerminalChild() != nil {
		opposite := geom.RotateAround(m.AuxDirection(), m.Direction(), math.Pi)
		if geom.AngleBetween(m.AuxDirection(), geom.Down) < geom.AngleBetween(opposite, geom.Down) {
			m.PruneTerminal()
			return true
		}
	}
	if t := m.TerminalChild(); t != nil && cutAtDownwardBud(t, depth+1) {
		return true
	}
	if a := m.AuxChild(); a != nil {
		return cutAtDownwardBud(a, depth+1)
	}
	return false
}

// trimPaths keeps at most n metamers on every path starting at m, m
// included. n <= 1 keeps only m.
func trimPaths(m *tree.Metamer, n int) {
	if n <= 1 {
		m.PruneTerminal()
		m.PruneAuxillary()
		return
	}
	if t := m.TerminalChild(); t != nil {
		trimPaths(t, n-1)
	}
	if a := m.AuxChild(); a != nil {
		trimPaths(a, n-1)
	}
}

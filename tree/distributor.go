package tree

import "fmt"

// DistributionMode selects how resources flow from the root to the buds.
type DistributionMode int

const (
	// BorchertHonda splits resources recursively by light and apical dominance.
	BorchertHonda DistributionMode = iota
	// PriorityList ranks the buds of each axis by light per bud.
	PriorityList
	// NoDistribution leaves every bud without resources.
	NoDistribution
)

var distributionNames = map[DistributionMode]string{
	BorchertHonda:  "borchert_honda",
	PriorityList:   "priority_list",
	NoDistribution: "none",
}

// String returns the config name of the mode.
func (d DistributionMode) String() string {
	if name, ok := distributionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DistributionMode(%d)", int(d))
}

// ParseDistributionMode maps a config name back to its mode.
func ParseDistributionMode(s string) (DistributionMode, error) {
	for m, name := range distributionNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown distribution mode %q", s)
}

// PriorityWeights shapes the rank weight curve of the priority list.
type PriorityWeights struct {
	Max float64 // Weight of rank 0
	Min float64 // Weight at and past rank K*n
	K   float64
}

// DefaultPriorityWeights returns the weight curve used when none is configured.
func DefaultPriorityWeights() PriorityWeights {
	return PriorityWeights{Max: 1, Min: 0.006, K: 0.5}
}

// Distributor assigns a resource budget to the buds of a subtree.
type Distributor struct {
	mode    DistributionMode
	weights PriorityWeights
}

// NewDistributor creates a distributor using mode.
func NewDistributor(mode DistributionMode, weights PriorityWeights) *Distributor {
	return &Distributor{mode: mode, weights: weights}
}

// Mode returns the active algorithm.
func (d *Distributor) Mode() DistributionMode { return d.mode }

// SetMode switches the algorithm used by the next Distribute call.
func (d *Distributor) SetMode(mode DistributionMode) { d.mode = mode }

// Distribute clears the resources of every bud in the subtree and hands out
// total. The priority list works with half of the budget.
func (d *Distributor) Distribute(root *Metamer, g *Genetics, total float64) {
	resetResources(root)
	switch d.mode {
	case BorchertHonda:
		borchertHonda(root, total, g.BorchertHondaLambda)
	case PriorityList:
		d.priorityList(root, total/2)
	}
}

func resetResources(m *Metamer) {
	m.terminal.resources = 0
	m.aux.resources = 0
	if c := m.terminal.child; c != nil {
		resetResources(c)
	}
	if c := m.aux.child; c != nil {
		resetResources(c)
	}
}

// borchertHondaSplit divides v between the main axis (light qm) and the
// lateral branch (light ql).
func borchertHondaSplit(v, qm, ql, lambda float64) (vm, vl float64) {
	d := lambda*qm + (1-lambda)*ql
	if d == 0 {
		return 0, 0
	}
	return v * lambda * qm / d, v * (1 - lambda) * ql / d
}

// borchertHonda assigns v to the subtree of m and returns the share of a
// damaged terminal bud that is routed back to the parent.
func borchertHonda(m *Metamer, v, lambda float64) float64 {
	qm, ql := m.terminal.light, m.aux.light
	if qm+ql <= 0 {
		return 0
	}
	m.terminal.resources, m.aux.resources = borchertHondaSplit(v, qm, ql, lambda)

	if m.aux.damage > 0 {
		m.terminal.resources += m.aux.resources
		m.aux.resources = 0
	}

	// A damaged terminal bud passes its share on as bonus
	bonus := 0.0
	if m.terminal.damage > 0 {
		bonus = m.terminal.resources
		m.terminal.resources = 0
	}

	if c := m.terminal.child; c != nil {
		bonus += borchertHonda(c, m.terminal.resources, lambda)
	}

	// Half the bonus feeds the local lateral, half goes up the tree
	m.aux.resources += bonus * 0.5
	if c := m.aux.child; c != nil {
		borchertHonda(c, m.aux.resources, lambda)
	}
	return bonus * 0.5
}

type budInfo struct {
	light     float64
	id        uint32
	totalBuds int
}

func (b budInfo) priority() float64 {
	return b.light / float64(b.totalBuds)
}

// insertByPriority keeps list sorted by descending priority. Equal priorities
// keep insertion order.
func insertByPriority(list []budInfo, b budInfo) []budInfo {
	p := b.priority()
	for i, other := range list {
		if other.priority() < p {
			list = append(list, budInfo{})
			copy(list[i+1:], list[i:])
			list[i] = b
			return list
		}
	}
	return append(list, b)
}

// priorityWeight returns the weight of rank i in a list of n buds.
func priorityWeight(i, n int, w PriorityWeights) float64 {
	fi, fn := float64(i), float64(n)
	if w.K*fn <= fi {
		return w.Min
	}
	return w.Max - (fi/(fn*w.K))*(w.Max-w.Min)
}

// axisPriorityList collects the healthy axillary buds along the axis starting
// at m, then puts the healthy final terminal bud in front.
func axisPriorityList(m *Metamer) []budInfo {
	var list []budInfo
	cur := m
	for {
		if cur.aux.damage == 0 {
			info := budInfo{light: cur.aux.light, id: cur.aux.ID(), totalBuds: 1}
			if c := cur.aux.child; c != nil {
				info.totalBuds = c.TotalBuds()
			}
			list = insertByPriority(list, info)
		}
		if cur.terminal.child == nil {
			break
		}
		cur = cur.terminal.child
	}
	if cur.terminal.damage == 0 {
		t := budInfo{light: cur.terminal.light, id: cur.terminal.ID(), totalBuds: 1}
		list = append([]budInfo{t}, list...)
	}
	return list
}

func (d *Distributor) priorityList(m *Metamer, total float64) {
	if m.light <= 0 {
		return
	}

	list := axisPriorityList(m)
	sum := 0.0
	for i, b := range list {
		sum += priorityWeight(i, len(list), d.weights) * b.light
	}
	if sum <= 0 {
		return
	}

	alloc := make(map[uint32]float64, len(list))
	for i, b := range list {
		alloc[b.id] = total * b.light * priorityWeight(i, len(list), d.weights) / sum
	}

	// Hand out along the axis, recursing into each lateral with its share
	cur := m
	for {
		r := alloc[cur.aux.ID()]
		cur.aux.resources = r
		if c := cur.aux.child; c != nil {
			d.priorityList(c, r)
		}
		if cur.terminal.child == nil {
			break
		}
		cur = cur.terminal.child
	}
	cur.terminal.resources = alloc[cur.terminal.ID()]
}

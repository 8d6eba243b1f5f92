package tree

import "gonum.org/v1/gonum/spatial/r3"

// ViewKind tells a renderer what a BranchView depicts.
type ViewKind string

const (
	ViewSegment ViewKind = "segment"
	ViewBud     ViewKind = "bud"
	ViewPole    ViewKind = "pole"
)

// BranchView is an immutable render record. Renderers key their own state by
// ID and Kind.
type BranchView struct {
	Kind ViewKind `json:"kind"`
	BranchData
}

// CollectBranchData returns the render records of the subtree in pre-order:
// the segment, then the terminal side, then the axillary side (with its pole
// while the bud is open), then the segment's own pole when visible.
func (m *Metamer) CollectBranchData() []BranchView {
	var out []BranchView
	m.collect(&out)
	return out
}

func (m *Metamer) collect(out *[]BranchView) {
	*out = append(*out, BranchView{Kind: ViewSegment, BranchData: m.segment})

	if c := m.terminal.child; c != nil {
		c.collect(out)
	} else {
		*out = append(*out, BranchView{Kind: ViewBud, BranchData: m.terminal.stub})
	}

	if c := m.aux.child; c != nil {
		c.collect(out)
	} else {
		*out = append(*out, BranchView{Kind: ViewBud, BranchData: m.aux.stub})
		if m.auxPole != nil && m.auxPole.Visible() {
			*out = append(*out, BranchView{Kind: ViewPole, BranchData: m.auxPole.Model()})
		}
	}

	if m.pole != nil && m.pole.Visible() {
		*out = append(*out, BranchView{Kind: ViewPole, BranchData: m.pole.Model()})
	}
}

// CollectBranchData returns the render records of the whole plant.
func (p *Plant) CollectBranchData() []BranchView {
	return p.root.CollectBranchData()
}

// BudSnapshot is the state of one bud at snapshot time.
type BudSnapshot struct {
	ID        uint32  `json:"id"`
	Open      bool    `json:"open"`
	Light     float64 `json:"light"`
	Resources float64 `json:"resources"`
	Damage    float64 `json:"damage"`
}

func (b *Bud) snapshot() BudSnapshot {
	return BudSnapshot{
		ID:        b.ID(),
		Open:      b.Open(),
		Light:     b.light,
		Resources: b.resources,
		Damage:    b.damage,
	}
}

// Snapshot is a flat, copyable description of one metamer.
type Snapshot struct {
	Segment      BranchData  `json:"segment"`
	AuxDirection r3.Vec      `json:"aux_direction"`
	Light        float64     `json:"light"`
	Terminal     BudSnapshot `json:"terminal"`
	Aux          BudSnapshot `json:"aux"`
	HasPole      bool        `json:"has_pole"`
	HasAuxPole   bool        `json:"has_aux_pole"`
	Metamers     int         `json:"metamers"`
	LongestPath  int         `json:"longest_path"`
}

// Snapshot describes m and its subtree size.
func (m *Metamer) Snapshot() Snapshot {
	return Snapshot{
		Segment:      m.segment,
		AuxDirection: m.auxDir,
		Light:        m.light,
		Terminal:     m.terminal.snapshot(),
		Aux:          m.aux.snapshot(),
		HasPole:      m.pole != nil,
		HasAuxPole:   m.auxPole != nil,
		Metamers:     m.CountMetamers(),
		LongestPath:  m.LongestPath(),
	}
}

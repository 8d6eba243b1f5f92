// Package tree implements the recursive plant structure: metamers with a
// terminal and an axillary bud, the resource distributor that feeds them, and
// the plant that runs one growth iteration over them.
package tree

import (
	"math"

	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bud is a growth point at the end of a metamer. It is open while child is
// nil and closed once it has grown a child metamer.
type Bud struct {
	stub      BranchData
	child     *Metamer
	light     float64
	resources float64
	damage    float64
}

// ID returns the bud identity.
func (b *Bud) ID() uint32 { return b.stub.ID }

// Open reports whether the bud has not grown a child.
func (b *Bud) Open() bool { return b.child == nil }

// Child returns the metamer grown from the bud, or nil while open.
func (b *Bud) Child() *Metamer { return b.child }

// Light returns the light gathered through the bud last iteration.
func (b *Bud) Light() float64 { return b.light }

// Resources returns the resources assigned to the bud last iteration.
func (b *Bud) Resources() float64 { return b.resources }

// Damage returns the pruning damage, 0 when healthy.
func (b *Bud) Damage() float64 { return b.damage }

func (b *Bud) prune() {
	b.child = nil
	b.damage = 1
}

func (b *Bud) recover(speed float64) {
	b.damage = math.Max(b.damage-speed, 0)
}

// Metamer is one straight segment with a terminal bud continuing its axis and
// an axillary bud branching off it.
type Metamer struct {
	segment  BranchData
	pole     *SupportPole // Pole the terminal axis grows along
	auxPole  *SupportPole // Pole the axillary shoot grows along
	auxDir   r3.Vec
	light    float64
	terminal Bud
	aux      Bud
}

// NewMetamer creates a segment from start to end with two open buds. The
// axillary direction is a random perturbation of the segment axis.
func NewMetamer(ctx *Context, start, end r3.Vec, id uint32, pole *SupportPole) *Metamer {
	dir := geom.Normalize(r3.Sub(end, start))
	auxDir := geom.RandomPerturbation(dir, ctx.Genetics.AxillaryPerturbationAngle, ctx.Rand)
	stubLen, stubWidth := ctx.Growth.BudStubLength, ctx.Growth.BudStubWidth

	m := &Metamer{
		segment: BranchData{Start: start, End: end, Color: woodColor, ID: id},
		auxDir:  auxDir,
	}
	m.terminal.stub = BranchData{
		Start: end, End: r3.Add(end, r3.Scale(stubLen, dir)),
		StartWidth: stubWidth, EndWidth: stubWidth,
		Color: budColor, ID: ctx.IDs.Next(),
	}
	m.aux.stub = BranchData{
		Start: end, End: r3.Add(end, r3.Scale(stubLen, auxDir)),
		StartWidth: stubWidth, EndWidth: stubWidth,
		Color: budColor, ID: ctx.IDs.Next(),
	}
	if pole != nil {
		p := *pole
		m.pole = &p
	}
	return m
}

// Segment returns the branch data of the metamer itself.
func (m *Metamer) Segment() BranchData { return m.segment }

// ID returns the segment id, equal to the id of the bud it grew from.
func (m *Metamer) ID() uint32 { return m.segment.ID }

// EndPoint returns the segment end where both buds sit.
func (m *Metamer) EndPoint() r3.Vec { return m.segment.End }

// Direction returns the segment axis.
func (m *Metamer) Direction() r3.Vec { return m.segment.Direction() }

// Length returns the segment length.
func (m *Metamer) Length() float64 { return m.segment.Length() }

// AuxDirection returns the axillary bud direction.
func (m *Metamer) AuxDirection() r3.Vec { return m.auxDir }

// Light returns the light gathered by the whole subtree last iteration.
func (m *Metamer) Light() float64 { return m.light }

// Terminal returns the terminal bud.
func (m *Metamer) Terminal() *Bud { return &m.terminal }

// Aux returns the axillary bud.
func (m *Metamer) Aux() *Bud { return &m.aux }

// TerminalChild returns the metamer continuing the axis, or nil.
func (m *Metamer) TerminalChild() *Metamer { return m.terminal.child }

// AuxChild returns the lateral metamer, or nil.
func (m *Metamer) AuxChild() *Metamer { return m.aux.child }

// Pole returns the support pole of the axis, or nil.
func (m *Metamer) Pole() *SupportPole { return m.pole }

// AuxPole returns the support pole of the axillary bud, or nil.
func (m *Metamer) AuxPole() *SupportPole { return m.auxPole }

// SetAuxPole makes future growth of the axillary bud follow p.
func (m *Metamer) SetAuxPole(p SupportPole) {
	m.auxPole = &p
}

// PruneTerminal drops the terminal child and damages the terminal bud.
func (m *Metamer) PruneTerminal() { m.terminal.prune() }

// PruneAuxillary drops the axillary child and damages the axillary bud.
func (m *Metamer) PruneAuxillary() { m.aux.prune() }

// PruneID prunes the bud with the given id anywhere in the subtree. The
// axillary bud is matched before the terminal bud. Reports whether a bud
// matched.
func (m *Metamer) PruneID(id uint32) bool {
	if m.aux.ID() == id {
		m.PruneAuxillary()
		return true
	}
	if m.terminal.ID() == id {
		m.PruneTerminal()
		return true
	}
	if c := m.terminal.child; c != nil && c.PruneID(id) {
		return true
	}
	if c := m.aux.child; c != nil && c.PruneID(id) {
		return true
	}
	return false
}

// RemoveMarkersOnBuds occupies the markers around every segment end point.
func (m *Metamer) RemoveMarkersOnBuds(markers *environment.MarkerSet, radius float64) {
	markers.RemoveMarkersInSphere(m.segment.End, radius)
	if c := m.terminal.child; c != nil {
		c.RemoveMarkersOnBuds(markers, radius)
	}
	if c := m.aux.child; c != nil {
		c.RemoveMarkersOnBuds(markers, radius)
	}
}

// PlaceMarkers lets every open bud claim markers in its perception cone.
// Returns the number of claims made.
func (m *Metamer) PlaceMarkers(markers *environment.MarkerSet, g *Genetics) int {
	total := 0
	if c := m.terminal.child; c != nil {
		total += c.PlaceMarkers(markers, g)
	} else {
		total += markers.SetMarkersInCone(m.terminal.ID(), m.segment.End, m.Direction(), g.BudPerceptionAngle, g.BudPerceptionRadius)
	}
	if c := m.aux.child; c != nil {
		total += c.PlaceMarkers(markers, g)
	} else {
		total += markers.SetMarkersInCone(m.aux.ID(), m.segment.End, m.auxDir, g.BudPerceptionAngle, g.BudPerceptionRadius)
	}
	return total
}

// PlaceShadows casts a shadow pyramid below every segment end point.
func (m *Metamer) PlaceShadows(shadows *environment.ShadowVoxelSet) {
	shadows.AddShadow(m.segment.End)
	if c := m.terminal.child; c != nil {
		c.PlaceShadows(shadows)
	}
	if c := m.aux.child; c != nil {
		c.PlaceShadows(shadows)
	}
}

// CalcLightGathered stores and returns the light collected by the subtree.
// Open buds query the environment at the segment end along their own
// direction.
func (m *Metamer) CalcLightGathered(env *environment.Environment, g *Genetics) float64 {
	if c := m.terminal.child; c != nil {
		m.terminal.light = c.CalcLightGathered(env, g)
	} else {
		m.terminal.light = env.LightGathered(m.segment.End, m.Direction(), m.terminal.ID(), g.BudPerceptionAngle, g.BudPerceptionRadius)
	}
	if c := m.aux.child; c != nil {
		m.aux.light = c.CalcLightGathered(env, g)
	} else {
		m.aux.light = env.LightGathered(m.segment.End, m.auxDir, m.aux.ID(), g.BudPerceptionAngle, g.BudPerceptionRadius)
	}
	m.light = m.terminal.light + m.aux.light
	return m.light
}

// CountMetamers returns the number of metamers in the subtree.
func (m *Metamer) CountMetamers() int {
	n := 1
	if c := m.terminal.child; c != nil {
		n += c.CountMetamers()
	}
	if c := m.aux.child; c != nil {
		n += c.CountMetamers()
	}
	return n
}

// TotalBuds returns the number of open buds in the subtree.
func (m *Metamer) TotalBuds() int {
	n := 0
	for _, b := range []*Bud{&m.terminal, &m.aux} {
		if b.child != nil {
			n += b.child.TotalBuds()
		} else {
			n++
		}
	}
	return n
}

// LongestPath returns the number of metamers on the longest chain from m to
// a leaf.
func (m *Metamer) LongestPath() int {
	t, a := 0, 0
	if c := m.terminal.child; c != nil {
		t = c.LongestPath()
	}
	if c := m.aux.child; c != nil {
		a = c.LongestPath()
	}
	return 1 + max(t, a)
}

// BoundingVolume returns the box around every segment in the subtree.
func (m *Metamer) BoundingVolume() geom.BoundingVolume {
	v := m.segment.BoundingVolume()
	if c := m.terminal.child; c != nil {
		v = v.Merge(c.BoundingVolume())
	}
	if c := m.aux.child; c != nil {
		v = v.Merge(c.BoundingVolume())
	}
	return v
}

// Find returns the live metamer with segment id id, or nil.
func (m *Metamer) Find(id uint32) *Metamer {
	if m.segment.ID == id {
		return m
	}
	if c := m.terminal.child; c != nil {
		if f := c.Find(id); f != nil {
			return f
		}
	}
	if c := m.aux.child; c != nil {
		if f := c.Find(id); f != nil {
			return f
		}
	}
	return nil
}

// MetamerByID returns a deep copy of the subtree rooted at the metamer with
// segment id id.
func (m *Metamer) MetamerByID(id uint32) (*Metamer, bool) {
	f := m.Find(id)
	if f == nil {
		return nil, false
	}
	return f.Clone(), true
}

// Clone returns a deep copy of the subtree.
func (m *Metamer) Clone() *Metamer {
	c := *m
	if m.pole != nil {
		p := *m.pole
		c.pole = &p
	}
	if m.auxPole != nil {
		p := *m.auxPole
		c.auxPole = &p
	}
	if m.terminal.child != nil {
		c.terminal.child = m.terminal.child.Clone()
	}
	if m.aux.child != nil {
		c.aux.child = m.aux.child.Clone()
	}
	return &c
}

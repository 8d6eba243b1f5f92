package tree

import (
	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Growth iteration phases reported to a PhaseHook.
const (
	PhaseLight      = "light"
	PhaseDistribute = "distribute"
	PhaseGrow       = "grow"
	PhaseShed       = "shed"
	PhaseWidth      = "width"
)

// PhaseHook is called when a growth iteration enters a new phase.
type PhaseHook func(phase string)

// poleOffset places the root support pole beside the seed.
var poleOffset = r3.Vec{Z: 0.3}

// IterationReport summarises one growth iteration.
type IterationReport struct {
	Light         float64 // Light gathered before growth
	Resources     float64 // Resources handed to the distributor
	MarkersPlaced int
	ShootsAdded   int
	Metamers      int // Metamers after the iteration
	Buds          int // Open buds after the iteration
}

// Plant owns the root metamer and runs growth iterations on it.
type Plant struct {
	ctx         *Context
	root        *Metamer
	distributor *Distributor
	hook        PhaseHook
}

// NewPlant creates a plant whose root grows up from seedPos.
func NewPlant(ctx *Context, seedPos r3.Vec, distributor *Distributor) *Plant {
	p := &Plant{ctx: ctx, distributor: distributor}
	p.Reset(seedPos)
	return p
}

// Reset replaces the whole tree with a fresh root at seedPos.
func (p *Plant) Reset(seedPos r3.Vec) {
	g := p.ctx.Genetics
	end := r3.Add(seedPos, r3.Scale(g.MetamerBaseLength, geom.Up))
	pole := NewSupportPole(g.PoleLength, r3.Add(seedPos, poleOffset), geom.Up, false)
	p.root = NewMetamer(p.ctx, seedPos, end, RootID, &pole)
	p.root.UpdateWidth(p.ctx.Growth)
}

// SetPhaseHook installs a callback for phase transitions. nil disables it.
func (p *Plant) SetPhaseHook(h PhaseHook) {
	p.hook = h
}

func (p *Plant) phase(name string) {
	if p.hook != nil {
		p.hook(name)
	}
}

// Root returns the root metamer.
func (p *Plant) Root() *Metamer { return p.root }

// Distributor returns the resource distributor.
func (p *Plant) Distributor() *Distributor { return p.distributor }

// TotalMetamers returns the number of metamers in the tree.
func (p *Plant) TotalMetamers() int { return p.root.CountMetamers() }

// PerformGrowthIteration gathers light, converts it into resources,
// distributes them, grows shoots, sheds weak branches and updates widths.
func (p *Plant) PerformGrowthIteration(env *environment.Environment) IterationReport {
	g := p.ctx.Genetics
	var r IterationReport

	p.phase(PhaseLight)
	r.MarkersPlaced, r.Light = p.calcLight(env)
	r.Resources = g.BorchertHondaAlpha * r.Light

	p.phase(PhaseDistribute)
	p.distributor.Distribute(p.root, g, r.Resources)

	p.phase(PhaseGrow)
	r.ShootsAdded = p.root.AddShoots(p.ctx, env)

	// Shedding judges the new shoots on fresh light
	p.phase(PhaseShed)
	p.calcLight(env)
	p.root.ShedBranches(env, g)

	p.phase(PhaseWidth)
	p.root.UpdateWidth(p.ctx.Growth)

	env.IncreaseTropism()

	r.Metamers = p.root.CountMetamers()
	r.Buds = p.root.TotalBuds()
	return r
}

func (p *Plant) calcLight(env *environment.Environment) (markers int, light float64) {
	env.ResetSpace()
	markers = p.PlaceMarkers(env.Markers())
	p.root.PlaceShadows(env.ShadowVoxels())
	return markers, p.root.CalcLightGathered(env, p.ctx.Genetics)
}

// PlaceMarkers occupies the markers around the tree and lets every open bud
// claim markers. Returns the number of claims.
func (p *Plant) PlaceMarkers(markers *environment.MarkerSet) int {
	g := p.ctx.Genetics
	p.root.RemoveMarkersOnBuds(markers, g.OccupancyRadius)
	return p.root.PlaceMarkers(markers, g)
}

// MetamerByID returns a copy of the metamer with segment id id.
func (p *Plant) MetamerByID(id uint32) (*Metamer, bool) {
	return p.root.MetamerByID(id)
}

// PruneID prunes the bud with id id. Reports whether it was found.
func (p *Plant) PruneID(id uint32) bool {
	return p.root.PruneID(id)
}

package tree

import (
	"math"
	"reflect"
	"testing"

	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/geom"
	"github.com/joepstevens0/inf-masterproef/rng"
	"gonum.org/v1/gonum/spatial/r3"
)

const seed = 50365756705

func defaultGenetics() *Genetics {
	return &Genetics{
		BorchertHondaLambda:          0.52,
		BorchertHondaAlpha:           2,
		PoleLength:                   1,
		AuxShootRequirement:          1.8,
		TerminalShootRequirement:     1,
		MetamerBaseLength:            0.3,
		BudPerceptionAngle:           math.Pi / 2,
		BudPerceptionRadius:          1.1,
		OccupancyRadius:              1,
		AxillaryPerturbationAngle:    math.Pi / 38,
		OptimalGrowthDirectionWeight: 0.2,
		ShedThreshold:                0.01,
	}
}

func testContext() *Context {
	return &Context{
		Genetics: defaultGenetics(),
		Growth: GrowthParams{
			WidthExponent: 1.9,
			WidthMin:      1e-8,
			BudStubLength: 0.05,
			BudStubWidth:  0.0001,
		},
		IDs:  NewIDAllocator(),
		Rand: rng.New(seed),
	}
}

// testWorld builds a 10 unit box at the same cell size as the full world.
func testWorld(ctx *Context, mode environment.SpaceDividingMode) (*Plant, *environment.Environment) {
	bounds := geom.Box(r3.Vec{X: -5}, r3.Vec{X: 5, Y: 10, Z: 10})
	seedPos := bounds.Center()
	seedPos.Y = 0

	plant := NewPlant(ctx, seedPos, NewDistributor(BorchertHonda, DefaultPriorityWeights()))
	env := environment.New(environment.Params{
		Bounds:     bounds,
		Resolution: geom.GridCoord{X: 20, Y: 20, Z: 20},
		Mode:       mode,
		Shadow:     environment.ShadowParams{A: 0.1, B: 1.5, C: 1, MaxShadow: 5, MaxLayers: 5},
		Tropism:    environment.Tropism{StartWeight: 0.1, Rate: 1.01},
	}, ctx.Rand)
	return plant, env
}

func TestFreshPlant(t *testing.T) {
	ctx := testContext()
	plant, _ := testWorld(ctx, environment.Markers)
	root := plant.Root()

	if root.ID() != RootID {
		t.Errorf("root id = %d, want %d", root.ID(), RootID)
	}
	if root.Terminal().ID() != 2 || root.Aux().ID() != 3 {
		t.Errorf("bud ids = %d, %d, want 2, 3", root.Terminal().ID(), root.Aux().ID())
	}
	if got := plant.TotalMetamers(); got != 1 {
		t.Errorf("TotalMetamers() = %d, want 1", got)
	}
	if got := root.TotalBuds(); got != 2 {
		t.Errorf("TotalBuds() = %d, want 2", got)
	}
	if want := math.Pow(1e-8, 1/1.9); math.Abs(root.Segment().StartWidth-want) > 1e-15 {
		t.Errorf("root width = %v, want %v", root.Segment().StartWidth, want)
	}
	if math.Abs(root.Length()-0.3) > 1e-12 {
		t.Errorf("root length = %v", root.Length())
	}
}

func TestFirstIterationClosesRootTerminal(t *testing.T) {
	ctx := testContext()
	plant, env := testWorld(ctx, environment.ShadowVoxels)

	report := plant.PerformGrowthIteration(env)

	if plant.Root().Terminal().Open() {
		t.Fatal("root terminal bud still open after one iteration")
	}
	if report.Metamers < 2 {
		t.Errorf("metamers = %d, want >= 2", report.Metamers)
	}
	if report.ShootsAdded != 1 {
		t.Errorf("shoots added = %d, want 1", report.ShootsAdded)
	}
	if !plant.Root().Aux().Open() {
		t.Error("axillary bud should stay dormant under a healthy terminal bud")
	}
}

func TestFirstIterationGrowsWithMarkers(t *testing.T) {
	ctx := testContext()
	plant, env := testWorld(ctx, environment.Markers)

	report := plant.PerformGrowthIteration(env)
	if report.ShootsAdded < 1 {
		t.Errorf("shoots added = %d, want >= 1", report.ShootsAdded)
	}
	if report.Light <= 0 {
		t.Errorf("light = %v, want > 0", report.Light)
	}
}

func TestAddShootsNeverShrinksTree(t *testing.T) {
	modes := []environment.SpaceDividingMode{environment.Markers, environment.ShadowVoxels}
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			ctx := testContext()
			plant, env := testWorld(ctx, mode)
			root := plant.Root()

			for i := 0; i < 6; i++ {
				_, light := plant.calcLight(env)
				plant.Distributor().Distribute(root, ctx.Genetics, ctx.Genetics.BorchertHondaAlpha*light)

				before := root.CountMetamers()
				root.AddShoots(ctx, env)
				if after := root.CountMetamers(); after < before {
					t.Fatalf("iteration %d: metamers went from %d to %d", i, before, after)
				}

				plant.calcLight(env)
				root.ShedBranches(env, ctx.Genetics)
				root.UpdateWidth(ctx.Growth)
				env.IncreaseTropism()
			}
		})
	}
}

func TestGrowthIsDeterministic(t *testing.T) {
	run := func() []BranchView {
		ctx := testContext()
		plant, env := testWorld(ctx, environment.ShadowVoxels)
		for range 5 {
			plant.PerformGrowthIteration(env)
		}
		return plant.CollectBranchData()
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs with the same seed produced different trees")
	}
	if len(a) <= 3 {
		t.Errorf("expected growth, got %d records", len(a))
	}
}

func TestPruneSetsDamageAndBlocksRegrowth(t *testing.T) {
	ctx := testContext()
	ctx.Growth.BudRecoverySpeed = 0.25
	plant, env := testWorld(ctx, environment.ShadowVoxels)
	plant.PerformGrowthIteration(env)

	root := plant.Root()
	childID := root.TerminalChild().ID()
	if !plant.PruneID(childID) {
		t.Fatal("PruneID did not find the terminal bud")
	}
	if !root.Terminal().Open() || root.Terminal().Damage() != 1 {
		t.Fatalf("after prune: open=%v damage=%v", root.Terminal().Open(), root.Terminal().Damage())
	}

	// Recovering buds ignore resources until damage reaches zero
	want := []float64{0.75, 0.5, 0.25, 0}
	for i, w := range want {
		root.terminal.resources = 10
		root.AddShoots(ctx, env)
		if got := root.Terminal().Damage(); math.Abs(got-w) > 1e-12 {
			t.Fatalf("step %d: damage = %v, want %v", i, got, w)
		}
		if !root.Terminal().Open() {
			t.Fatalf("step %d: bud regrew while damaged", i)
		}
	}

	root.terminal.resources = 2
	env.ResetSpace()
	root.PlaceShadows(env.ShadowVoxels())
	root.AddShoots(ctx, env)
	if root.Terminal().Open() {
		t.Error("healed bud should grow again")
	}
}

func TestPruneAuxillaryMatchesFirst(t *testing.T) {
	ctx := testContext()
	m := NewMetamer(ctx, r3.Vec{}, r3.Vec{Y: 1}, RootID, nil)

	if m.PruneID(999) {
		t.Error("unknown id should not match")
	}
	if !m.PruneID(m.Aux().ID()) {
		t.Fatal("aux id should match")
	}
	if m.Aux().Damage() != 1 || m.Terminal().Damage() != 0 {
		t.Errorf("damage aux=%v terminal=%v", m.Aux().Damage(), m.Terminal().Damage())
	}
}

func TestShedOutOfBounds(t *testing.T) {
	ctx := testContext()
	plant, env := testWorld(ctx, environment.ShadowVoxels)
	root := plant.Root()

	root.aux.child = NewMetamer(ctx, root.EndPoint(), r3.Vec{X: 50, Y: 1, Z: 5}, root.Aux().ID(), nil)
	root.aux.light = 100
	root.terminal.child = NewMetamer(ctx, root.EndPoint(), r3.Vec{Y: 1, Z: 5}, root.Terminal().ID(), nil)
	root.terminal.light = 1

	root.ShedBranches(env, ctx.Genetics)

	if !root.Aux().Open() || root.Aux().Damage() != 1 {
		t.Error("escaped branch should be pruned regardless of light")
	}
	if root.Terminal().Open() {
		t.Error("lit branch inside bounds should survive")
	}

	root.terminal.light = 0.001
	root.ShedBranches(env, ctx.Genetics)
	if !root.Terminal().Open() {
		t.Error("starved branch should be shed")
	}
}

func TestUpdateWidthPipeModel(t *testing.T) {
	ctx := testContext()
	p := ctx.Growth
	root := NewMetamer(ctx, r3.Vec{}, r3.Vec{Y: 1}, RootID, nil)
	root.terminal.child = NewMetamer(ctx, r3.Vec{Y: 1}, r3.Vec{Y: 2}, root.Terminal().ID(), nil)
	root.aux.child = NewMetamer(ctx, r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 2}, root.Aux().ID(), nil)

	root.UpdateWidth(p)

	leaf := math.Pow(p.WidthMin, 1/p.WidthExponent)
	want := math.Pow(p.WidthMin+2*math.Pow(leaf, p.WidthExponent), 1/p.WidthExponent)
	if got := root.Segment().StartWidth; math.Abs(got-want) > 1e-15 {
		t.Errorf("start width = %v, want %v", got, want)
	}
	if got := root.Segment().EndWidth; math.Abs(got-leaf) > 1e-15 {
		t.Errorf("end width = %v, want %v", got, leaf)
	}
	if got := root.TerminalChild().Terminal().stub.StartWidth; got != p.BudStubWidth {
		t.Errorf("bud stub width changed to %v", got)
	}
}

func TestCollectBranchDataOrder(t *testing.T) {
	ctx := testContext()
	root := NewMetamer(ctx, r3.Vec{}, r3.Vec{Y: 1}, RootID, nil)
	root.SetAuxPole(NewSupportPole(1, r3.Vec{Y: 1}, r3.Vec{X: 1}, true))

	got := root.CollectBranchData()
	want := []struct {
		kind ViewKind
		id   uint32
	}{
		{ViewSegment, RootID},
		{ViewBud, root.Terminal().ID()},
		{ViewBud, root.Aux().ID()},
		{ViewPole, 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].ID != w.id {
			t.Errorf("record %d = %s/%d, want %s/%d", i, got[i].Kind, got[i].ID, w.kind, w.id)
		}
	}

	root.aux.child = NewMetamer(ctx, r3.Vec{Y: 1}, r3.Vec{X: 1, Y: 1}, root.Aux().ID(), nil)
	for _, v := range root.CollectBranchData() {
		if v.Kind == ViewPole {
			t.Error("aux pole should be hidden once the bud has grown")
		}
	}
}

func TestMetamerByIDReturnsCopy(t *testing.T) {
	ctx := testContext()
	plant, env := testWorld(ctx, environment.ShadowVoxels)
	plant.PerformGrowthIteration(env)

	id := plant.Root().TerminalChild().ID()
	c, ok := plant.MetamerByID(id)
	if !ok {
		t.Fatal("grown metamer not found")
	}
	c.PruneTerminal()
	c.segment.End = r3.Vec{X: 99}

	live := plant.Root().Find(id)
	if live.Segment().End == c.Segment().End {
		t.Error("copy shares segment with live tree")
	}
	if _, ok := plant.MetamerByID(12345); ok {
		t.Error("unknown id should not be found")
	}
}

func TestSupportPoleDecreaseHeight(t *testing.T) {
	p := NewSupportPole(1, r3.Vec{}, geom.Up, false)
	if p.Length() != 5 {
		t.Fatalf("length = %v, want 5", p.Length())
	}
	p, ok := p.DecreaseHeight(2)
	if !ok || p.Length() != 3 || p.Start() != (r3.Vec{Y: 2}) {
		t.Errorf("after decrease: ok=%v length=%v start=%v", ok, p.Length(), p.Start())
	}
	if _, ok := p.DecreaseHeight(3); ok {
		t.Error("consuming the full remaining length should exhaust the pole")
	}
}

func TestGeneticsParameters(t *testing.T) {
	g := defaultGenetics()
	kinds := []GeneticKind{BorchertHondaLambda, BorchertHondaAlpha, PoleLength, AuxShootReq}
	for i, k := range kinds {
		v := float64(i) + 0.5
		g.Update(GeneticParameter{Kind: k, Value: v})
		if got := g.Get(k); got.Value != v || got.Kind != k {
			t.Errorf("Get(%s) = %+v, want %v", k, got, v)
		}
		parsed, err := ParseGeneticKind(k.String())
		if err != nil || parsed != k {
			t.Errorf("ParseGeneticKind(%q) = %v, %v", k.String(), parsed, err)
		}
	}

	g = defaultGenetics()
	ctx := testContext()
	m := NewMetamer(ctx, r3.Vec{}, r3.Vec{Y: 1}, RootID, nil)
	if got := g.AuxShootRequirementFor(m); got != 1.8 {
		t.Errorf("healthy requirement = %v", got)
	}
	m.PruneTerminal()
	if got := g.AuxShootRequirementFor(m); got != 1 {
		t.Errorf("requirement with damaged terminal = %v", got)
	}
}

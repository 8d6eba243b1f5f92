package pruning

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/joepstevens0/inf-masterproef/rng"
	"github.com/joepstevens0/inf-masterproef/tree"
)

func testContext() *tree.Context {
	return &tree.Context{
		Genetics: &tree.Genetics{
			MetamerBaseLength:         1,
			AxillaryPerturbationAngle: math.Pi / 38,
		},
		Growth: tree.GrowthParams{
			WidthExponent: 1.9,
			WidthMin:      1e-8,
			BudStubLength: 0.05,
			BudStubWidth:  0.0001,
		},
		IDs:  tree.NewIDAllocator(),
		Rand: rng.New(7),
	}
}

func newRoot(ctx *tree.Context, pole *tree.SupportPole) *tree.Metamer {
	return tree.NewMetamer(ctx, r3.Vec{}, r3.Vec{Y: 1}, tree.RootID, pole)
}

// newPlant returns a plant whose root runs from the origin to (0,1,0).
func newPlant(ctx *tree.Context) *tree.Plant {
	return tree.NewPlant(ctx, r3.Vec{}, tree.NewDistributor(tree.NoDistribution, tree.DefaultPriorityWeights()))
}

// straightTrunk grows root into n vertical unit metamers, each with a lateral
// chain of lateral metamers. Trunk metamer i ends at height i+1.
func straightTrunk(ctx *tree.Context, root *tree.Metamer, n, lateral int) []*tree.Metamer {
	trunk := []*tree.Metamer{root}
	for len(trunk) < n {
		trunk = append(trunk, trunk[len(trunk)-1].Sprout(ctx, false))
	}
	for _, m := range trunk {
		if lateral > 0 {
			chain(ctx, m.Sprout(ctx, true), lateral)
		}
	}
	return trunk
}

// chain extends m along its terminal slot until it is n metamers long.
func chain(ctx *tree.Context, m *tree.Metamer, n int) *tree.Metamer {
	head := m
	for i := 1; i < n; i++ {
		m = m.Sprout(ctx, false)
	}
	return head
}

func axisLength(m *tree.Metamer) int {
	n := 0
	for ; m != nil; m = m.TerminalChild() {
		n++
	}
	return n
}

func TestParseRule(t *testing.T) {
	for _, r := range Rules {
		got, err := ParseRule(r.String())
		if err != nil || got != r {
			t.Errorf("ParseRule(%q) = %v, %v", r.String(), got, err)
		}
	}
	if _, err := ParseRule("op9"); err == nil {
		t.Error("expected error for unknown rule")
	}
	if got := Rule(42).String(); got != "Rule(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestNoOpRules(t *testing.T) {
	for _, r := range []Rule{Op0, Spil3} {
		t.Run(r.String(), func(t *testing.T) {
			ctx := testContext()
			root := straightTrunk(ctx, newRoot(ctx, nil), 5, 3)[0]
			before := root.CountMetamers()
			PruneByRule(r, root, rng.New(1))
			if got := root.CountMetamers(); got != before {
				t.Errorf("CountMetamers() = %d, want %d", got, before)
			}
		})
	}
}

func TestOp1StripsSupportedAxis(t *testing.T) {
	ctx := testContext()
	// 2.5 world units of pole carry on to the first three unit metamers
	pole := tree.NewSupportPole(0.5, r3.Vec{}, r3.Vec{Y: 1}, false)
	trunk := straightTrunk(ctx, newRoot(ctx, &pole), 5, 2)

	PruneByRule(Op1, trunk[0], rng.New(1))

	for i, m := range trunk {
		supported := i < 3
		if supported != (m.Pole() != nil) {
			t.Fatalf("metamer %d: pole = %v", i, m.Pole())
		}
		if stripped := m.AuxChild() == nil; stripped != supported {
			t.Errorf("metamer %d: lateral removed = %v, want %v", i, stripped, supported)
		}
		if supported && m.Aux().Damage() != 1 {
			t.Errorf("metamer %d: aux damage = %v, want 1", i, m.Aux().Damage())
		}
	}
}

func TestOp2ShortensLaterals(t *testing.T) {
	ctx := testContext()
	trunk := straightTrunk(ctx, newRoot(ctx, nil), 6, 6)

	PruneByRule(Op2, trunk[0], rng.New(3))

	for i, m := range trunk {
		if got := m.AuxChild().LongestPath(); got != 3 && got != 4 {
			t.Errorf("lateral %d length = %d, want 3 or 4", i, got)
		}
	}
	if got := axisLength(trunk[0]); got != 6 {
		t.Errorf("trunk length = %d, want 6", got)
	}
}

func TestOp3LimitsBranches(t *testing.T) {
	ctx := testContext()
	trunk := straightTrunk(ctx, newRoot(ctx, nil), 8, 3)

	PruneByRule(Op3, trunk[0], rng.New(5))

	kept := axisLength(trunk[0])
	if kept != 4 && kept != 5 {
		t.Fatalf("trunk length = %d, want 4 or 5", kept)
	}
	for i := 0; i < kept-1; i++ {
		if got := trunk[i].AuxChild().LongestPath(); got != 2 {
			t.Errorf("lateral %d length = %d, want 2", i, got)
		}
	}
	if got := trunk[kept-1].AuxChild().LongestPath(); got != 3 {
		t.Errorf("lateral at the cut = %d, want untouched 3", got)
	}
	if trunk[kept-1].Terminal().Damage() != 1 {
		t.Error("axis was not topped")
	}
}

func TestOp4PrunesRootLateral(t *testing.T) {
	for _, r := range []Rule{Op4, Op5} {
		t.Run(r.String(), func(t *testing.T) {
			ctx := testContext()
			pole := tree.NewSupportPole(0.3, r3.Vec{}, r3.Vec{Y: 1}, false)
			trunk := straightTrunk(ctx, newRoot(ctx, &pole), 4, 2)

			PruneByRule(r, trunk[0], rng.New(1))

			// the pole carries on to metamers 0 and 1
			want := []bool{true, true, false, false}
			for i, m := range trunk {
				if got := m.AuxChild() == nil; got != want[i] {
					t.Errorf("metamer %d: lateral removed = %v, want %v", i, got, want[i])
				}
			}
		})
	}
}

func TestSpil1TopsAxis(t *testing.T) {
	ctx := testContext()
	trunk := straightTrunk(ctx, newRoot(ctx, nil), 8, 0)

	PruneByRule(Spil1, trunk[0], rng.New(1))

	// 0.9 m is 4.5 world units; the first metamer ending above it is #4
	if got := axisLength(trunk[0]); got != 5 {
		t.Errorf("trunk length = %d, want 5", got)
	}
	if trunk[4].Terminal().Damage() != 1 {
		t.Error("metamer 4 terminal not pruned")
	}
}

func TestSpil2HalvesShortBranches(t *testing.T) {
	ctx := testContext()
	trunk := straightTrunk(ctx, newRoot(ctx, nil), 3, 3)

	PruneByRule(Spil2, trunk[0], rng.New(1))

	for i, m := range trunk {
		if got := m.AuxChild().LongestPath(); got != 1 {
			t.Errorf("lateral %d length = %d, want 1", i, got)
		}
	}
	if got := axisLength(trunk[0]); got != 3 {
		t.Errorf("trunk length = %d, want 3", got)
	}
}

// spalierTrunk grows root along the spalier walk: five terminal steps then
// one lateral step, repeated.
func spalierTrunk(ctx *tree.Context, root *tree.Metamer, n int) []*tree.Metamer {
	trunk := []*tree.Metamer{root}
	for i := 1; i < n; i++ {
		trunk = append(trunk, trunk[i-1].Sprout(ctx, i%passLength == 0))
	}
	return trunk
}

func TestTrunkMetamerWalk(t *testing.T) {
	ctx := testContext()
	trunk := spalierTrunk(ctx, newRoot(ctx, nil), 14)
	for i, want := range trunk {
		if got := trunkMetamer(trunk[0], i); got != want {
			t.Fatalf("trunkMetamer(%d) = %p, want %p", i, got, want)
		}
	}
	if got := trunkMetamer(trunk[0], 14); got != nil {
		t.Errorf("trunkMetamer past the end = %p, want nil", got)
	}
}

func TestSpalierLayer(t *testing.T) {
	ctx := testContext()
	plant := newPlant(ctx)
	trunk := straightTrunk(ctx, plant.Root(), 8, 0)

	NewAutopruneSpalier().Update(plant)

	for i := 0; i < 3; i++ {
		if trunk[i].Aux().Damage() != 1 {
			t.Errorf("metamer %d: lateral bud not pruned", i)
		}
	}

	arms := []struct {
		idx int
		dir r3.Vec
	}{
		{3, r3.Vec{X: -1}},
		{4, r3.Vec{X: 1}},
	}
	for _, a := range arms {
		p := trunk[a.idx].AuxPole()
		if p == nil {
			t.Fatalf("metamer %d: no arm pole", a.idx)
		}
		if p.Dir() != a.dir || !p.Visible() || p.Model().StartWidth != armPoleWidth {
			t.Errorf("metamer %d: pole dir %v visible %v width %v", a.idx, p.Dir(), p.Visible(), p.Model().StartWidth)
		}
		if math.Abs(p.Length()-tree.MetersToWorld(armPoleLength)) > 1e-12 {
			t.Errorf("metamer %d: pole length = %v", a.idx, p.Length())
		}
	}

	leader := trunk[5]
	if leader.TerminalChild() != nil || leader.Terminal().Damage() != 1 {
		t.Error("layer top was not stopped")
	}
	if p := leader.AuxPole(); p == nil || p.Visible() || p.Dir() != (r3.Vec{Y: 1}) {
		t.Errorf("leader pole = %+v", p)
	}
}

func TestSpalierHeightLimit(t *testing.T) {
	ctx := testContext()
	plant := newPlant(ctx)
	trunk := spalierTrunk(ctx, plant.Root(), 27)

	NewAutopruneSpalier().Update(plant)

	top := trunk[maxTrunkLength+1]
	if top.Terminal().Damage() != 1 || top.Aux().Damage() != 1 {
		t.Error("metamer above the height limit kept its buds")
	}
	if got := trunkMetamer(plant.Root(), maxTrunkLength+2); got != nil {
		t.Error("trunk continues above the height limit")
	}
}

func TestSpalierMaintainsArms(t *testing.T) {
	ctx := testContext()
	plant := newPlant(ctx)
	trunk := straightTrunk(ctx, plant.Root(), 6, 0)
	arm := chain(ctx, trunk[3].Sprout(ctx, true), 25)
	for m := arm; m != nil; m = m.TerminalChild() {
		chain(ctx, m.Sprout(ctx, true), 4)
	}

	NewAutopruneSpalier().Update(plant)

	if got := axisLength(arm); got != armMaxLength {
		t.Errorf("arm length = %d, want %d", got, armMaxLength)
	}
	for m := arm; m != nil; m = m.TerminalChild() {
		if s := m.AuxChild(); s != nil && s.LongestPath() > spurLength {
			t.Errorf("spur length = %d, want <= %d", s.LongestPath(), spurLength)
		}
	}
	if trunk[3].AuxPole() != nil {
		t.Error("existing arm got a new pole")
	}
}

package tree

import (
	"math"

	"github.com/joepstevens0/inf-masterproef/environment"
	"github.com/joepstevens0/inf-masterproef/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// AddShoots grows new shoots from every open bud that received enough
// resources. The axillary bud is handled before the terminal bud. Returns the
// number of shoots created.
func (m *Metamer) AddShoots(ctx *Context, env *environment.Environment) int {
	return m.addAuxillaryShoot(ctx, env) + m.addTerminalShoot(ctx, env)
}

func (m *Metamer) addTerminalShoot(ctx *Context, env *environment.Environment) int {
	b := &m.terminal
	if b.child != nil {
		return b.child.AddShoots(ctx, env)
	}
	if b.damage > 0 {
		b.recover(ctx.Growth.BudRecoverySpeed)
		return 0
	}
	if b.resources < ctx.Genetics.TerminalShootRequirement {
		return 0
	}

	b.child = m.createShoot(ctx, env, b.resources, b.ID(), m.segment.End, m.Direction(), m.terminalSupport())
	if b.child == nil {
		return 0
	}
	return 1
}

func (m *Metamer) addAuxillaryShoot(ctx *Context, env *environment.Environment) int {
	b := &m.aux
	if b.child != nil {
		return b.child.AddShoots(ctx, env)
	}
	if b.damage > 0 {
		b.recover(ctx.Growth.BudRecoverySpeed)
		return 0
	}
	if b.resources < ctx.Genetics.AuxShootRequirementFor(m) {
		return 0
	}
	// Apical dominance: a healthy open terminal bud suppresses the lateral one
	if m.terminal.child == nil && m.terminal.damage == 0 {
		return 0
	}

	dir := m.auxDir
	if m.terminal.damage > 0 {
		// Without a terminal bud the lateral shoot takes over the axis
		dir = r3.Add(dir, m.Direction())
	}

	b.child = m.createShoot(ctx, env, b.resources, b.ID(), m.segment.End, geom.Normalize(dir), m.auxSupport())
	if b.child == nil {
		return 0
	}
	return 1
}

// terminalSupport returns what is left of this segment's pole for the
// continuing axis, or nil.
func (m *Metamer) terminalSupport() *SupportPole {
	if m.pole == nil {
		return nil
	}
	if p, ok := m.pole.DecreaseHeight(m.Length()); ok {
		return &p
	}
	return nil
}

func (m *Metamer) auxSupport() *SupportPole {
	if m.auxPole == nil {
		return nil
	}
	p := *m.auxPole
	return &p
}

// Sprout grows one straight metamer of base length from the terminal bud, or
// from the axillary bud when lateral is set, ignoring resources and the
// environment. A bud that already has a child returns it unchanged.
func (m *Metamer) Sprout(ctx *Context, lateral bool) *Metamer {
	b, dir, support := &m.terminal, m.Direction(), m.terminalSupport()
	if lateral {
		b, dir, support = &m.aux, m.auxDir, m.auxSupport()
	}
	if b.child != nil {
		return b.child
	}
	end := r3.Add(m.segment.End, r3.Scale(ctx.Genetics.MetamerBaseLength, dir))
	b.child = NewMetamer(ctx, m.segment.End, end, b.ID(), support)
	return b.child
}

// createShoot builds a chain of floor(resources) metamers starting at point.
// Returns nil when the environment offers no growth direction.
func (m *Metamer) createShoot(ctx *Context, env *environment.Environment, resources float64, budID uint32, point, dir r3.Vec, support *SupportPole) *Metamer {
	g := ctx.Genetics
	optimal, ok := env.OptimalGrowthDirection(point, dir, budID, g.BudPerceptionAngle, g.BudPerceptionRadius)
	if !ok {
		return nil
	}

	n := int(math.Floor(resources))
	if n < 1 {
		return nil
	}
	length := resources / float64(n) * g.MetamerBaseLength

	var head, last *Metamer
	prevEnd := point
	segDir := dir
	id := budID
	for range n {
		segDir = r3.Add(segDir, r3.Scale(g.OptimalGrowthDirectionWeight, optimal))
		segDir = geom.Normalize(r3.Add(segDir, r3.Scale(env.TropismWeight(), env.TropismDir())))
		if support != nil {
			segDir = geom.Normalize(r3.Add(segDir, support.Dir()))
		}

		end := r3.Add(prevEnd, r3.Scale(length, segDir))
		next := NewMetamer(ctx, prevEnd, end, id, support)
		id = next.terminal.ID()

		// New metamers chain along the terminal slot only
		if last == nil {
			head = next
		} else {
			last.terminal.child = next
		}
		last = next
		prevEnd = end

		if support != nil {
			if p, ok := support.DecreaseHeight(length); ok {
				support = &p
			} else {
				support = nil
			}
		}
	}
	return head
}

// ShedBranches prunes children that left the environment or whose light per
// metamer fell below the shed threshold, then recurses into the survivors.
func (m *Metamer) ShedBranches(env *environment.Environment, g *Genetics) {
	if c := m.terminal.child; c != nil {
		if shouldShed(env, g, c, m.terminal.light) {
			m.PruneTerminal()
		} else {
			c.ShedBranches(env, g)
		}
	}
	if c := m.aux.child; c != nil {
		if shouldShed(env, g, c, m.aux.light) {
			m.PruneAuxillary()
		} else {
			c.ShedBranches(env, g)
		}
	}
}

func shouldShed(env *environment.Environment, g *Genetics, child *Metamer, light float64) bool {
	if !env.IsInside(child.EndPoint()) {
		return true
	}
	return light/float64(child.CountMetamers()) < g.ShedThreshold
}

// UpdateWidth recomputes widths bottom-up with the pipe model. Widths never
// shrink.
func (m *Metamer) UpdateWidth(p GrowthParams) {
	total := p.WidthMin
	for _, c := range []*Metamer{m.terminal.child, m.aux.child} {
		if c == nil {
			continue
		}
		c.UpdateWidth(p)
		total += math.Pow(c.segment.StartWidth, p.WidthExponent)
		m.segment.EndWidth = math.Max(m.segment.EndWidth, c.segment.StartWidth)
	}
	m.segment.StartWidth = math.Max(m.segment.StartWidth, math.Pow(total, 1/p.WidthExponent))
}

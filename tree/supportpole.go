package tree

import "gonum.org/v1/gonum/spatial/r3"

// MeterScale converts meters to world units.
const MeterScale = 5.0

const poleWidth = 0.0005

// MetersToWorld converts a length in meters to world units.
func MetersToWorld(m float64) float64 {
	return m * MeterScale
}

// SupportPole constrains growth along a fixed direction for a limited length.
type SupportPole struct {
	length  float64
	start   r3.Vec
	dir     r3.Vec
	model   BranchData
	visible bool
}

// NewSupportPole creates a pole of lengthMeters starting at start.
func NewSupportPole(lengthMeters float64, start, dir r3.Vec, visible bool) SupportPole {
	length := MetersToWorld(lengthMeters)
	return SupportPole{
		length: length,
		start:  start,
		dir:    dir,
		model: BranchData{
			Start:      start,
			End:        r3.Add(start, r3.Scale(length, dir)),
			StartWidth: poleWidth,
			EndWidth:   poleWidth,
			Color:      poleColor,
		},
		visible: visible,
	}
}

// DecreaseHeight consumes l world units of the pole. Reports false once the
// pole is exhausted.
func (p SupportPole) DecreaseHeight(l float64) (SupportPole, bool) {
	if p.length <= l {
		return SupportPole{}, false
	}
	p.length -= l
	p.start = r3.Add(p.start, r3.Scale(l, p.dir))
	return p, true
}

// Dir returns the pole direction.
func (p SupportPole) Dir() r3.Vec { return p.dir }

// Length returns the remaining length in world units.
func (p SupportPole) Length() float64 { return p.length }

// Start returns the point the remaining pole starts at.
func (p SupportPole) Start() r3.Vec { return p.start }

// Visible reports whether the pole is rendered.
func (p SupportPole) Visible() bool { return p.visible }

// Model returns the render segment of the pole as originally placed.
func (p SupportPole) Model() BranchData { return p.model }

// SetWidth sets both widths of the render segment.
func (p *SupportPole) SetWidth(w float64) {
	p.model.StartWidth = w
	p.model.EndWidth = w
}

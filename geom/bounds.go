package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const gridEpsilon = 1e-9

// GridCoord is a discrete cell index inside a BoundingVolume grid.
type GridCoord struct {
	X, Y, Z int
}

// Cells returns the number of cells a resolution spans.
func (g GridCoord) Cells() int {
	return g.X * g.Y * g.Z
}

// BoundingVolume is an axis-aligned box in world space.
type BoundingVolume struct {
	Min r3.Vec `yaml:"min"`
	Max r3.Vec `yaml:"max"`
}

// NewBoundingVolume returns the zero box at the origin.
func NewBoundingVolume() BoundingVolume {
	return BoundingVolume{}
}

// Box returns a bounding volume spanning min to max.
func Box(min, max r3.Vec) BoundingVolume {
	return BoundingVolume{Min: min, Max: max}
}

// IncludePoint grows the box so that p lies inside it.
func (b *BoundingVolume) IncludePoint(p r3.Vec) {
	b.Min = r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
	b.Max = r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
}

// Merge returns the smallest box containing both b and o.
func (b BoundingVolume) Merge(o BoundingVolume) BoundingVolume {
	m := b
	m.IncludePoint(o.Min)
	m.IncludePoint(o.Max)
	return m
}

// Includes reports whether p lies inside the box, bounds inclusive.
func (b BoundingVolume) Includes(p r3.Vec) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X &&
		b.Min.Y <= p.Y && p.Y <= b.Max.Y &&
		b.Min.Z <= p.Z && p.Z <= b.Max.Z
}

// Center returns the midpoint of the box.
func (b BoundingVolume) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Size returns the box extent along each axis.
func (b BoundingVolume) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Step returns the world size of one grid cell at resolution res.
func (b BoundingVolume) Step(res GridCoord) r3.Vec {
	return r3.Sub(b.Interpolate(GridCoord{1, 1, 1}, res), b.Interpolate(GridCoord{}, res))
}

// Interpolate maps grid coordinate g to world space. The result for g == res
// is the max corner. Panics if any component of g exceeds res.
func (b BoundingVolume) Interpolate(g, res GridCoord) r3.Vec {
	return r3.Vec{
		X: interpolateAxis(g.X, res.X, b.Min.X, b.Max.X),
		Y: interpolateAxis(g.Y, res.Y, b.Min.Y, b.Max.Y),
		Z: interpolateAxis(g.Z, res.Z, b.Min.Z, b.Max.Z),
	}
}

func interpolateAxis(v, res int, min, max float64) float64 {
	if v > res {
		panic(fmt.Sprintf("geom: grid value %d exceeds resolution %d", v, res))
	}
	return min + float64(v)/float64(res)*(max-min)
}

// ReverseInterpolate maps world position p to the grid cell containing it,
// rounding down (or up when ceil is set) and clamping to [0, res-1].
func (b BoundingVolume) ReverseInterpolate(p r3.Vec, res GridCoord, ceil bool) GridCoord {
	return GridCoord{
		X: reverseAxis(p.X, res.X, ceil, b.Min.X, b.Max.X),
		Y: reverseAxis(p.Y, res.Y, ceil, b.Min.Y, b.Max.Y),
		Z: reverseAxis(p.Z, res.Z, ceil, b.Min.Z, b.Max.Z),
	}
}

func reverseAxis(v float64, res int, ceil bool, min, max float64) int {
	if res <= 0 || max == min {
		return 0
	}
	step := (max - min) / float64(res)
	f := (v - min) / step
	// Values landing a rounding error away from a cell edge snap to that edge
	if ceil {
		f = math.Ceil(f - gridEpsilon)
	} else {
		f = math.Floor(f + gridEpsilon)
	}
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > float64(res-1):
		return res - 1
	}
	return int(f)
}

package tree

import (
	"image/color"

	"github.com/joepstevens0/inf-masterproef/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	woodColor     = color.RGBA{R: 151, G: 111, B: 51, A: 255}
	budColor      = color.RGBA{R: 255, A: 255}
	poleColor     = color.RGBA{G: 255, A: 255}
	selectedColor = color.RGBA{B: 255, A: 255}
)

// BranchData is the geometric record of one straight segment.
type BranchData struct {
	Start      r3.Vec     `json:"start"`
	End        r3.Vec     `json:"end"`
	StartWidth float64    `json:"start_width"`
	EndWidth   float64    `json:"end_width"`
	Color      color.RGBA `json:"color"`
	ID         uint32     `json:"id"`
	Selected   bool       `json:"selected"`
}

// Length returns the segment length.
func (b BranchData) Length() float64 {
	return geom.Distance(b.End, b.Start)
}

// Direction returns the unit direction from start to end.
func (b BranchData) Direction() r3.Vec {
	return geom.Normalize(r3.Sub(b.End, b.Start))
}

// Center returns the segment midpoint.
func (b BranchData) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Start, b.End))
}

// BoundingVolume returns the box spanned by the segment end points.
func (b BranchData) BoundingVolume() geom.BoundingVolume {
	v := geom.Box(b.Start, b.Start)
	v.IncludePoint(b.End)
	return v
}

// SetLength moves the end point along the current direction.
func (b *BranchData) SetLength(l float64) {
	b.End = r3.Add(b.Start, r3.Scale(l, b.Direction()))
}

// DisplayColor returns the render color, highlighted when selected.
func (b BranchData) DisplayColor() color.RGBA {
	if b.Selected {
		return selectedColor
	}
	return b.Color
}

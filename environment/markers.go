package environment

import (
	"math"

	"github.com/joepstevens0/inf-masterproef/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// OccupiedBud is the claim id written by RemoveMarkersInSphere. Real bud ids
// start above it.
const OccupiedBud uint32 = 0

// Marker is one attraction point of the space colonisation model.
type Marker struct {
	Pos      r3.Vec
	Bud      uint32  // Claiming bud; OccupiedBud if the space is taken by the plant
	Claimed  bool    // False while no bud owns the marker
	Distance float64 // Distance to the claiming bud, +Inf while unclaimed
}

func (m *Marker) reset() {
	m.Bud = 0
	m.Claimed = false
	m.Distance = math.Inf(1)
}

func (m *Marker) claim(bud uint32, dist float64) {
	m.Bud = bud
	m.Claimed = true
	m.Distance = dist
}

// MarkerSet holds one jittered marker per grid cell. Buds compete for markers
// inside their perception cone; the nearest bud wins a marker.
type MarkerSet struct {
	bounds  geom.BoundingVolume
	res     geom.GridCoord
	step    r3.Vec
	markers []Marker
}

// NewMarkerSet samples one marker per cell, each offset from the cell corner
// by a random fraction of one cell step along every axis.
func NewMarkerSet(bounds geom.BoundingVolume, res geom.GridCoord, src geom.Float) *MarkerSet {
	ms := &MarkerSet{
		bounds:  bounds,
		res:     res,
		step:    bounds.Step(res),
		markers: make([]Marker, 0, res.Cells()),
	}
	for y := 0; y < res.Y; y++ {
		for z := 0; z < res.Z; z++ {
			for x := 0; x < res.X; x++ {
				pos := bounds.Interpolate(geom.GridCoord{X: x, Y: y, Z: z}, res)
				pos.X += ms.step.X * src.Float()
				pos.Y += ms.step.Y * src.Float()
				pos.Z += ms.step.Z * src.Float()
				m := Marker{Pos: pos}
				m.reset()
				ms.markers = append(ms.markers, m)
			}
		}
	}
	return ms
}

// Reset returns every marker to the unclaimed state.
func (ms *MarkerSet) Reset() {
	for i := range ms.markers {
		ms.markers[i].reset()
	}
}

// Len returns the number of markers.
func (ms *MarkerSet) Len() int {
	return len(ms.markers)
}

// At returns the marker at grid cell g.
func (ms *MarkerSet) At(g geom.GridCoord) (Marker, bool) {
	i, ok := ms.index(g)
	if !ok {
		return Marker{}, false
	}
	return ms.markers[i], true
}

// SetMarkersInCone claims every marker in the cone that is closer to apex
// than its current claimant. Returns the number of markers claimed.
func (ms *MarkerSet) SetMarkersInCone(id uint32, apex, axis r3.Vec, halfAngle, radius float64) int {
	claimed := 0
	ms.forEachInCone(apex, axis, halfAngle, radius, func(i int) {
		m := &ms.markers[i]
		dist := geom.Distance(m.Pos, apex)
		if m.Distance > dist {
			m.claim(id, dist)
			claimed++
		}
	})
	return claimed
}

// RemoveMarkersInSphere marks every marker in the sphere as occupied so no
// bud can claim it.
func (ms *MarkerSet) RemoveMarkersInSphere(center r3.Vec, radius float64) {
	ms.forEachInSphere(center, radius, func(i int) {
		ms.markers[i].claim(OccupiedBud, 0)
	})
}

// TotalMarkersForIDInCone counts the markers in the cone claimed by id.
func (ms *MarkerSet) TotalMarkersForIDInCone(id uint32, apex, axis r3.Vec, halfAngle, radius float64) int {
	total := 0
	ms.forEachInCone(apex, axis, halfAngle, radius, func(i int) {
		if ms.ownedBy(i, id) {
			total++
		}
	})
	return total
}

// MarkersDirForIDInCone returns the normalized sum of directions from apex to
// every marker in the cone claimed by id. Reports false when id owns none.
func (ms *MarkerSet) MarkersDirForIDInCone(id uint32, apex, axis r3.Vec, halfAngle, radius float64) (r3.Vec, bool) {
	var sum r3.Vec
	found := false
	ms.forEachInCone(apex, axis, halfAngle, radius, func(i int) {
		if !ms.ownedBy(i, id) {
			return
		}
		sum = r3.Add(sum, geom.Normalize(r3.Sub(ms.markers[i].Pos, apex)))
		found = true
	})
	if !found {
		return r3.Vec{}, false
	}
	return geom.Normalize(sum), true
}

// ClaimedMarkers returns every marker currently owned by a bud, excluding
// markers occupied by the plant body.
func (ms *MarkerSet) ClaimedMarkers() []Marker {
	var out []Marker
	for _, m := range ms.markers {
		if m.Claimed && m.Bud != OccupiedBud {
			out = append(out, m)
		}
	}
	return out
}

func (ms *MarkerSet) ownedBy(i int, id uint32) bool {
	m := ms.markers[i]
	return m.Claimed && m.Bud == id
}

func (ms *MarkerSet) index(g geom.GridCoord) (int, bool) {
	if g.X < 0 || g.Y < 0 || g.Z < 0 || g.X >= ms.res.X || g.Y >= ms.res.Y || g.Z >= ms.res.Z {
		return 0, false
	}
	return g.Y*ms.res.X*ms.res.Z + g.Z*ms.res.X + g.X, true
}

func (ms *MarkerSet) forEachInCone(apex, axis r3.Vec, halfAngle, radius float64, fn func(i int)) {
	ms.forEachInSphere(apex, radius, func(i int) {
		if geom.AngleBetween(r3.Sub(ms.markers[i].Pos, apex), axis) > halfAngle {
			return
		}
		fn(i)
	})
}

func (ms *MarkerSet) forEachInSphere(center r3.Vec, radius float64, fn func(i int)) {
	scanSphere(center, radius, ms.step, func(p r3.Vec) {
		if i, ok := ms.index(ms.bounds.ReverseInterpolate(p, ms.res, false)); ok {
			fn(i)
		}
	})
}

// scanSphere visits sample points spaced one cell step apart that lie within
// radius of center.
func scanSphere(center r3.Vec, radius float64, step r3.Vec, fn func(p r3.Vec)) {
	if step.X <= 0 || step.Y <= 0 || step.Z <= 0 {
		return
	}
	min := r3.Sub(center, r3.Vec{X: radius, Y: radius, Z: radius})
	max := r3.Add(center, r3.Vec{X: radius, Y: radius, Z: radius})
	for x := min.X; x < max.X; x += step.X {
		for y := min.Y; y < max.Y; y += step.Y {
			for z := min.Z; z < max.Z; z += step.Z {
				p := r3.Vec{X: x, Y: y, Z: z}
				if geom.Distance(p, center) > radius {
					continue
				}
				fn(p)
			}
		}
	}
}

// Package environment models the space a plant grows into: a marker set for
// space colonisation, a shadow voxel grid for light competition, and the
// tropism weight that bends growth over time.
package environment

import (
	"fmt"
	"image/color"

	"github.com/joepstevens0/inf-masterproef/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// SpaceDividingMode selects the spatial model used for light and direction.
type SpaceDividingMode int

const (
	// Markers uses space colonisation.
	Markers SpaceDividingMode = iota
	// ShadowVoxels uses shadow propagation.
	ShadowVoxels
	// NoSpaceDividing disables the environment: no light, no direction.
	NoSpaceDividing
)

var modeNames = map[SpaceDividingMode]string{
	Markers:         "markers",
	ShadowVoxels:    "shadow_voxels",
	NoSpaceDividing: "none",
}

// String returns the config name of the mode.
func (m SpaceDividingMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SpaceDividingMode(%d)", int(m))
}

// ParseSpaceDividingMode maps a config name back to its mode.
func ParseSpaceDividingMode(s string) (SpaceDividingMode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown space dividing mode %q", s)
}

// Tropism describes the environmental bias that grows stronger every iteration.
type Tropism struct {
	StartWeight float64
	Rate        float64 // Multiplier applied by IncreaseTropism
	Dir         r3.Vec
}

// Params bundles everything needed to build an Environment.
type Params struct {
	Bounds     geom.BoundingVolume
	Resolution geom.GridCoord
	Mode       SpaceDividingMode
	Shadow     ShadowParams
	Tropism    Tropism
}

// Environment answers light and direction queries for buds.
type Environment struct {
	params        Params
	tropismWeight float64
	markers       *MarkerSet
	shadows       *ShadowVoxelSet
	mode          SpaceDividingMode
}

// New builds both spatial models. Marker placement draws from src.
func New(p Params, src geom.Float) *Environment {
	return &Environment{
		params:        p,
		tropismWeight: p.Tropism.StartWeight,
		markers:       NewMarkerSet(p.Bounds, p.Resolution, src),
		shadows:       NewShadowVoxelSet(p.Bounds, p.Resolution, p.Shadow),
		mode:          p.Mode,
	}
}

// ResetSpace unclaims every marker and clears every shadow.
func (e *Environment) ResetSpace() {
	e.markers.Reset()
	e.shadows.Clear()
}

// Markers returns the marker set.
func (e *Environment) Markers() *MarkerSet { return e.markers }

// ShadowVoxels returns the shadow grid.
func (e *Environment) ShadowVoxels() *ShadowVoxelSet { return e.shadows }

// Mode returns the active spatial model.
func (e *Environment) Mode() SpaceDividingMode { return e.mode }

// SetMode switches the spatial model used by light and direction queries.
func (e *Environment) SetMode(m SpaceDividingMode) { e.mode = m }

// Bounds returns the volume the plant may grow in.
func (e *Environment) Bounds() geom.BoundingVolume { return e.params.Bounds }

// IsInside reports whether p lies within the environment bounds.
func (e *Environment) IsInside(p r3.Vec) bool {
	return e.params.Bounds.Includes(p)
}

// LightGathered returns the light a bud at budPos receives.
// Markers: 1 if the bud owns at least one marker in its cone, else 0.
// ShadowVoxels: the light exposure at budPos. None: 0.
func (e *Environment) LightGathered(budPos, dir r3.Vec, budID uint32, halfAngle, radius float64) float64 {
	switch e.mode {
	case Markers:
		if e.markers.TotalMarkersForIDInCone(budID, budPos, dir, halfAngle, radius) >= 1 {
			return 1
		}
		return 0
	case ShadowVoxels:
		return e.shadows.LightExposure(budPos)
	}
	return 0
}

// OptimalGrowthDirection returns the direction a new shoot should follow.
// Reports false when the active model offers no direction.
func (e *Environment) OptimalGrowthDirection(budPos, dir r3.Vec, budID uint32, halfAngle, radius float64) (r3.Vec, bool) {
	switch e.mode {
	case Markers:
		return e.markers.MarkersDirForIDInCone(budID, budPos, dir, halfAngle, radius)
	case ShadowVoxels:
		return e.shadows.OptimalGrowthDirection(budPos, dir, radius), true
	}
	return r3.Vec{}, false
}

// IncreaseTropism scales the tropism weight by the configured rate.
func (e *Environment) IncreaseTropism() {
	e.tropismWeight *= e.params.Tropism.Rate
}

// TropismWeight returns the current tropism weight.
func (e *Environment) TropismWeight() float64 { return e.tropismWeight }

// TropismDir returns the tropism direction.
func (e *Environment) TropismDir() r3.Vec { return e.params.Tropism.Dir }

// DebugTexture renders a horizontal slice of the shadow grid.
func (e *Environment) DebugTexture(layer int) []color.RGBA {
	return e.shadows.DebugTexture(layer)
}

// Resolution returns the grid resolution of both spatial models.
func (e *Environment) Resolution() geom.GridCoord { return e.params.Resolution }

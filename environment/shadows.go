package environment

import (
	"image/color"
	"math"

	"github.com/joepstevens0/inf-masterproef/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// ShadowParams controls shadow propagation and light exposure.
type ShadowParams struct {
	A         float64 // Shadow added at the apex of a pyramid
	B         float64 // Attenuation base per layer below the apex
	C         float64 // Full light level
	MaxShadow float64 // Shadow assumed outside the volume
	MaxLayers int     // Pyramid depth
}

// ShadowVoxelSet is a grid of accumulated shadow values. Each bud casts a
// downward pyramid of shadow that weakens with depth.
type ShadowVoxelSet struct {
	bounds geom.BoundingVolume
	res    geom.GridCoord
	step   r3.Vec
	params ShadowParams
	voxels []float32
}

// NewShadowVoxelSet creates an unshadowed voxel grid.
func NewShadowVoxelSet(bounds geom.BoundingVolume, res geom.GridCoord, params ShadowParams) *ShadowVoxelSet {
	return &ShadowVoxelSet{
		bounds: bounds,
		res:    res,
		step:   bounds.Step(res),
		params: params,
		voxels: make([]float32, res.Cells()),
	}
}

// Clear zeroes every voxel.
func (s *ShadowVoxelSet) Clear() {
	clear(s.voxels)
}

// Shadow returns the shadow stored at cell g.
func (s *ShadowVoxelSet) Shadow(g geom.GridCoord) (float64, bool) {
	i, ok := s.index(g)
	if !ok {
		return 0, false
	}
	return float64(s.voxels[i]), true
}

// AddShadow casts a shadow pyramid below pos. Layer l covers a
// (2l+1)x(2l+1) square l cells down and adds A*B^-l to each cell.
func (s *ShadowVoxelSet) AddShadow(pos r3.Vec) {
	v := s.bounds.ReverseInterpolate(pos, s.res, false)
	layers := min(s.params.MaxLayers, v.Y+1)
	for l := 0; l < layers; l++ {
		amount := float32(s.params.A * math.Pow(s.params.B, -float64(l)))
		y := v.Y - l
		for x := v.X - l; x < v.X+l+1; x++ {
			for z := v.Z - l; z < v.Z+l+1; z++ {
				if i, ok := s.index(geom.GridCoord{X: x, Y: y, Z: z}); ok {
					s.voxels[i] += amount
				}
			}
		}
	}
}

// LightExposure returns max(C - shadow + A, 0) for the cell containing pos.
func (s *ShadowVoxelSet) LightExposure(pos r3.Vec) float64 {
	shadow, ok := s.Shadow(s.bounds.ReverseInterpolate(pos, s.res, false))
	if !ok {
		shadow = s.params.MaxShadow
	}
	return math.Max(s.params.C-shadow+s.params.A, 0)
}

// OptimalGrowthDirection points away from the shadow around budPos.
// Sample points outside the grid count as MaxShadow. When the shadow is
// balanced the fallback direction is used.
func (s *ShadowVoxelSet) OptimalGrowthDirection(budPos, fallback r3.Vec, radius float64) r3.Vec {
	var dir r3.Vec
	scanSphere(budPos, radius, s.step, func(p r3.Vec) {
		shadow, ok := s.Shadow(s.bounds.ReverseInterpolate(p, s.res, false))
		if !ok {
			shadow = s.params.MaxShadow
		}
		dir = r3.Sub(dir, r3.Scale(shadow, geom.Normalize(r3.Sub(p, budPos))))
	})
	if geom.IsZero(dir) {
		dir = fallback
	}
	return geom.Normalize(dir)
}

// DebugTexture renders horizontal slice layer as a resX*resZ grayscale image
// indexed z*resX + x. Darker pixels are more shadowed.
func (s *ShadowVoxelSet) DebugTexture(layer int) []color.RGBA {
	data := make([]color.RGBA, s.res.X*s.res.Z)
	for i := range data {
		data[i] = color.RGBA{A: 255}
	}
	if layer < 0 || layer >= s.res.Y {
		return data
	}
	for x := 0; x < s.res.X; x++ {
		for z := 0; z < s.res.Z; z++ {
			v, _ := s.Shadow(geom.GridCoord{X: x, Y: layer, Z: z})
			c := 255 - saturateByte(v*128)
			data[z*s.res.X+x] = color.RGBA{R: c, G: c, B: c, A: 255}
		}
	}
	return data
}

func saturateByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

func (s *ShadowVoxelSet) index(g geom.GridCoord) (int, bool) {
	if g.X < 0 || g.Y < 0 || g.Z < 0 || g.X >= s.res.X || g.Y >= s.res.Y || g.Z >= s.res.Z {
		return 0, false
	}
	return g.Y*s.res.X*s.res.Z + g.Z*s.res.X + g.X, true
}

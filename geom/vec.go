// Package geom provides the vector helpers and grid-aligned bounding volume
// shared by the growth engine.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Float is a source of uniform samples in [0, 1).
type Float interface {
	Float() float64
}

// Up is the world up axis.
var Up = r3.Vec{X: 0, Y: 1, Z: 0}

// Down is the world down axis.
var Down = r3.Vec{X: 0, Y: -1, Z: 0}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func Normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return v
	}
	return r3.Scale(1/n, v)
}

// IsZero reports whether every component of v is zero.
func IsZero(v r3.Vec) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// AngleBetween returns the angle in radians between a and b.
// A zero vector on either side yields 0.
func AngleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	c := r3.Dot(a, b) / (na * nb)
	// Rounding can push the cosine just outside [-1, 1]
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// RotateAround rotates v by angle radians around axis.
func RotateAround(v, axis r3.Vec, angle float64) r3.Vec {
	if IsZero(axis) {
		return v
	}
	return r3.NewRotation(angle, axis).Rotate(v)
}

// RandomPerturbation returns a unit direction that diverges from dir.
// A cap sample of half-angle angle is drawn around dir, with the dir component
// damped so lateral buds fan out around the parent axis. It consumes two draws
// from src.
func RandomPerturbation(dir r3.Vec, angle float64, src Float) r3.Vec {
	v := r3.Scale(0.01, dir)

	// Pick a helper axis that is not parallel to v
	aux := r3.Vec{X: 1}
	if math.Abs(r3.Dot(v, aux)) > 1-1e-6 {
		aux = r3.Vec{Y: 1}
	}
	cross := Normalize(r3.Cross(v, aux))

	s := src.Float()
	r := src.Float()

	h := math.Cos(angle)
	phi := 2 * math.Pi * s
	z := h + (1-h)*r
	sinT := math.Sqrt(math.Max(0, 1-z*z))

	x := r3.Scale(math.Cos(phi)*sinT, aux)
	y := r3.Scale(math.Sin(phi)*sinT, cross)
	return Normalize(r3.Add(r3.Add(x, y), r3.Scale(z, v)))
}

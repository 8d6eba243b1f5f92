package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestReverseInterpolateRoundTrip(t *testing.T) {
	b := Box(r3.Vec{X: -25, Y: 0, Z: 0}, r3.Vec{X: 25, Y: 50, Z: 50})
	resolutions := []GridCoord{{10, 10, 10}, {7, 3, 5}, {100, 100, 100}}

	for _, res := range resolutions {
		for x := 0; x < res.X; x++ {
			for y := 0; y < res.Y; y++ {
				for z := 0; z < res.Z; z++ {
					g := GridCoord{x, y, z}
					got := b.ReverseInterpolate(b.Interpolate(g, res), res, false)
					if got != g {
						t.Fatalf("res %v: round trip of %v = %v", res, g, got)
					}
				}
			}
		}
	}
}

func TestReverseInterpolateClamps(t *testing.T) {
	b := Box(r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 10})
	res := GridCoord{10, 10, 10}

	tests := []struct {
		name string
		p    r3.Vec
		ceil bool
		want GridCoord
	}{
		{"below min", r3.Vec{X: -5, Y: -1, Z: -100}, false, GridCoord{0, 0, 0}},
		{"above max", r3.Vec{X: 50, Y: 10, Z: 11}, false, GridCoord{9, 9, 9}},
		{"interior floor", r3.Vec{X: 2.5, Y: 3.9, Z: 0.1}, false, GridCoord{2, 3, 0}},
		{"interior ceil", r3.Vec{X: 2.5, Y: 3.9, Z: 0.1}, true, GridCoord{3, 4, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.ReverseInterpolate(tt.p, res, tt.ceil)
			if got != tt.want {
				t.Errorf("ReverseInterpolate(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestInterpolatePanicsPastResolution(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for grid value past resolution")
		}
	}()
	b := Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	b.Interpolate(GridCoord{11, 0, 0}, GridCoord{10, 10, 10})
}

func TestIncludePointAndMerge(t *testing.T) {
	b := NewBoundingVolume()
	b.IncludePoint(r3.Vec{X: 1, Y: 2, Z: 3})
	b.IncludePoint(r3.Vec{X: -1, Y: 0.5, Z: 4})

	if b.Min != (r3.Vec{X: -1, Y: 0, Z: 0}) {
		t.Errorf("min = %v", b.Min)
	}
	if b.Max != (r3.Vec{X: 1, Y: 2, Z: 4}) {
		t.Errorf("max = %v", b.Max)
	}

	o := Box(r3.Vec{X: -3, Y: 1, Z: 1}, r3.Vec{X: 0, Y: 5, Z: 2})
	m := b.Merge(o)
	if m.Min != (r3.Vec{X: -3, Y: 0, Z: 0}) || m.Max != (r3.Vec{X: 1, Y: 5, Z: 4}) {
		t.Errorf("merge = %v", m)
	}
	if !m.Includes(r3.Vec{X: 1, Y: 5, Z: 4}) {
		t.Error("merge should include its max corner")
	}
	if m.Includes(r3.Vec{X: 1.01, Y: 5, Z: 4}) {
		t.Error("merge should exclude points past max")
	}
}

type fixedFloat []float64

func (f *fixedFloat) Float() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

func TestRandomPerturbationIsUnit(t *testing.T) {
	dirs := []r3.Vec{{Y: 1}, {X: 1}, {X: 1, Y: 1, Z: -1}}
	for _, d := range dirs {
		src := fixedFloat{0.3, 0.7}
		got := RandomPerturbation(d, math.Pi/38, &src)
		if n := r3.Norm(got); math.Abs(n-1) > 1e-9 && n != 0 {
			t.Errorf("perturbation of %v has length %v", d, n)
		}
		if len(src) != 0 {
			t.Errorf("expected two draws, %d left", len(src))
		}
	}
}

func TestAngleBetween(t *testing.T) {
	tests := []struct {
		a, b r3.Vec
		want float64
	}{
		{r3.Vec{Y: 1}, r3.Vec{Y: 1}, 0},
		{r3.Vec{Y: 1}, r3.Vec{X: 1}, math.Pi / 2},
		{r3.Vec{Y: 1}, r3.Vec{Y: -3}, math.Pi},
		{r3.Vec{}, r3.Vec{Y: 1}, 0},
	}
	for _, tt := range tests {
		if got := AngleBetween(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngleBetween(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRotateAround(t *testing.T) {
	got := RotateAround(r3.Vec{X: 1}, r3.Vec{Y: 1}, math.Pi)
	want := r3.Vec{X: -1}
	if Distance(got, want) > 1e-9 {
		t.Errorf("RotateAround = %v, want %v", got, want)
	}
}

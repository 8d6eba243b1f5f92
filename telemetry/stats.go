package telemetry

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/stat"

	"github.com/joepstevens0/inf-masterproef/tree"
)

// IterationStats holds the state of the plant after one growth iteration.
type IterationStats struct {
	Iteration     int     `csv:"iteration"`
	Light         float64 `csv:"light"`
	Resources     float64 `csv:"resources"`
	MarkersPlaced int     `csv:"markers_placed"`
	ShootsAdded   int     `csv:"shoots_added"`
	Metamers      int     `csv:"metamers"`
	Buds          int     `csv:"buds"`
	LongestPath   int     `csv:"longest_path"`
	TropismWeight float64 `csv:"tropism_weight"`

	// Segment width distribution
	WidthMean float64 `csv:"width_mean"`
	WidthP50  float64 `csv:"width_p50"`
	WidthP90  float64 `csv:"width_p90"`

	// Bounding box of the crown
	Height float64 `csv:"height"`
	Spread float64 `csv:"spread"`
}

// NewIterationStats summarises plant after iteration using its report.
func NewIterationStats(iteration int, r tree.IterationReport, plant *tree.Plant, tropismWeight float64) IterationStats {
	s := IterationStats{
		Iteration:     iteration,
		Light:         r.Light,
		Resources:     r.Resources,
		MarkersPlaced: r.MarkersPlaced,
		ShootsAdded:   r.ShootsAdded,
		Metamers:      r.Metamers,
		Buds:          r.Buds,
		LongestPath:   plant.Root().LongestPath(),
		TropismWeight: tropismWeight,
	}

	var widths []float64
	for _, v := range plant.CollectBranchData() {
		if v.Kind == tree.ViewSegment {
			widths = append(widths, v.StartWidth)
		}
	}
	s.WidthMean, s.WidthP50, s.WidthP90 = ComputeDistribution(widths)

	size := plant.Root().BoundingVolume().Size()
	s.Height = size.Y
	s.Spread = max(size.X, size.Z)
	return s
}

// ComputeDistribution returns mean, p50 and p90 of values. The slice is
// sorted in place. Returns zeros when empty.
func ComputeDistribution(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sort.Float64s(values)
	mean = stat.Mean(values, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, values, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, values, nil)
	return mean, p50, p90
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s IterationStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("iteration", s.Iteration)
	enc.AddFloat64("total_light", s.Light)
	enc.AddFloat64("total_resources", s.Resources)
	enc.AddInt("shoots_added", s.ShootsAdded)
	enc.AddInt("metamers", s.Metamers)
	enc.AddInt("buds", s.Buds)
	enc.AddFloat64("height", s.Height)
	return nil
}

// Field returns s as a single structured log field.
func (s IterationStats) Field() zap.Field {
	return zap.Object("stats", s)
}

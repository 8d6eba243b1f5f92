package telemetry

import (
	"time"

	"go.uber.org/zap"

	"github.com/joepstevens0/inf-masterproef/tree"
)

// Phases that run outside the plant's growth iteration.
const (
	PhasePrune     = "prune"
	PhaseTelemetry = "telemetry"
)

// phaseOrder lists every phase of a simulation step in execution order.
var phaseOrder = []string{
	tree.PhaseLight, tree.PhaseDistribute, tree.PhaseGrow,
	tree.PhaseShed, tree.PhaseWidth, PhasePrune, PhaseTelemetry,
}

// PerfSample holds timing data for a single iteration.
type PerfSample struct {
	Duration time.Duration
	Phases   map[string]time.Duration
}

// PerfCollector tracks iteration timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	start         time.Time
	phaseStart    time.Time
	lastPhase     string
	now           func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize iterations.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 10
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartIteration begins timing a new growth iteration.
func (p *PerfCollector) StartIteration() {
	p.start = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing phase and closes the previous one. It has the
// signature of tree.PhaseHook.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndIteration finishes timing the current iteration and records the sample.
func (p *PerfCollector) EndIteration() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		Duration: now.Sub(p.start),
		Phases:   p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// Full reports whether a whole window has been recorded since the last Reset.
func (p *PerfCollector) Full() bool {
	return p.sampleCount == p.windowSize
}

// Reset drops all recorded samples.
func (p *PerfCollector) Reset() {
	p.sampleCount = 0
	p.writeIndex = 0
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total iteration time
	PhasePct map[string]float64

	IterationsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minD, maxD time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Duration
		if i == 0 || s.Duration < minD {
			minD = s.Duration
		}
		if s.Duration > maxD {
			maxD = s.Duration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	avg := total / time.Duration(p.sampleCount)
	phaseAvg := make(map[string]time.Duration, len(phaseSum))
	phasePct := make(map[string]float64, len(phaseSum))
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgDuration:         avg,
		MinDuration:         minD,
		MaxDuration:         maxD,
		PhaseAvg:            phaseAvg,
		PhasePct:            phasePct,
		IterationsPerSecond: perSec,
	}
}

// Fields returns the statistics as structured log fields. Phases below 0.1%
// are left out.
func (s PerfStats) Fields() []zap.Field {
	fields := []zap.Field{
		zap.Int64("avg_iteration_us", s.AvgDuration.Microseconds()),
		zap.Int64("min_iteration_us", s.MinDuration.Microseconds()),
		zap.Int64("max_iteration_us", s.MaxDuration.Microseconds()),
		zap.Float64("iterations_per_sec", s.IterationsPerSecond),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			fields = append(fields, zap.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return fields
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd      int     `csv:"window_end"`
	AvgIterationUS int64   `csv:"avg_iteration_us"`
	MinIterationUS int64   `csv:"min_iteration_us"`
	MaxIterationUS int64   `csv:"max_iteration_us"`
	PerSec         float64 `csv:"iterations_per_sec"`
	LightPct       float64 `csv:"light_pct"`
	DistributePct  float64 `csv:"distribute_pct"`
	GrowPct        float64 `csv:"grow_pct"`
	ShedPct        float64 `csv:"shed_pct"`
	WidthPct       float64 `csv:"width_pct"`
	PrunePct       float64 `csv:"prune_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgIterationUS: s.AvgDuration.Microseconds(),
		MinIterationUS: s.MinDuration.Microseconds(),
		MaxIterationUS: s.MaxDuration.Microseconds(),
		PerSec:         s.IterationsPerSecond,
		LightPct:       s.PhasePct[tree.PhaseLight],
		DistributePct:  s.PhasePct[tree.PhaseDistribute],
		GrowPct:        s.PhasePct[tree.PhaseGrow],
		ShedPct:        s.PhasePct[tree.PhaseShed],
		WidthPct:       s.PhasePct[tree.PhaseWidth],
		PrunePct:       s.PhasePct[PhasePrune],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}

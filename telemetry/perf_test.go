package telemetry

import (
	"testing"
	"time"

	"github.com/joepstevens0/inf-masterproef/tree"
)

// fakeClock advances by the queued steps, one per call.
type fakeClock struct {
	t     time.Time
	steps []time.Duration
}

func (c *fakeClock) now() time.Time {
	if len(c.steps) > 0 {
		c.t = c.t.Add(c.steps[0])
		c.steps = c.steps[1:]
	}
	return c.t
}

func TestPerfCollector_PhaseTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	clock := &fakeClock{}
	pc.now = clock.now

	// start, light(+0), grow(+100us), end(+300us)
	clock.steps = []time.Duration{0, 0, 100 * time.Microsecond, 300 * time.Microsecond}
	pc.StartIteration()
	pc.StartPhase(tree.PhaseLight)
	pc.StartPhase(tree.PhaseGrow)
	pc.EndIteration()

	stats := pc.Stats()
	if stats.AvgDuration != 400*time.Microsecond {
		t.Errorf("AvgDuration = %v, want 400us", stats.AvgDuration)
	}
	if stats.PhaseAvg[tree.PhaseLight] != 100*time.Microsecond {
		t.Errorf("light = %v, want 100us", stats.PhaseAvg[tree.PhaseLight])
	}
	if got := stats.PhasePct[tree.PhaseGrow]; got != 75 {
		t.Errorf("grow pct = %v, want 75", got)
	}
	if got := stats.IterationsPerSecond; got != 2500 {
		t.Errorf("IterationsPerSecond = %v, want 2500", got)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(3)
	clock := &fakeClock{}
	pc.now = clock.now

	for _, d := range []time.Duration{1, 10, 10, 10} {
		clock.steps = []time.Duration{0, d * time.Millisecond}
		pc.StartIteration()
		pc.EndIteration()
	}

	if !pc.Full() {
		t.Fatal("expected full window")
	}
	stats := pc.Stats()
	// The 1ms sample was overwritten
	if stats.MinDuration != 10*time.Millisecond || stats.MaxDuration != 10*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 10ms/10ms", stats.MinDuration, stats.MaxDuration)
	}

	pc.Reset()
	if pc.Full() || pc.Stats().AvgDuration != 0 {
		t.Error("Reset did not drop samples")
	}
}

func TestPerfCollector_PhaseHook(t *testing.T) {
	pc := NewPerfCollector(1)
	var hook tree.PhaseHook = pc.StartPhase

	pc.StartIteration()
	hook(tree.PhaseShed)
	pc.EndIteration()

	if _, ok := pc.Stats().PhaseAvg[tree.PhaseShed]; !ok {
		t.Error("expected shed phase to be tracked")
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgDuration != 0 {
		t.Error("expected zero avg duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgDuration: 2 * time.Millisecond,
		PhasePct:    map[string]float64{tree.PhaseLight: 60, PhasePrune: 5},
	}
	rec := s.ToCSV(12)
	if rec.WindowEnd != 12 || rec.AvgIterationUS != 2000 || rec.LightPct != 60 || rec.PrunePct != 5 {
		t.Errorf("ToCSV() = %+v", rec)
	}
	if got := len(s.Fields()); got != 6 {
		t.Errorf("Fields() returned %d fields, want 6", got)
	}
}

package telemetry

import (
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCollector(window int) (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollector(window)
	pc.now = clock.now
	return pc, clock
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc, clock := newTestCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePhysics)
		clock.advance(100 * time.Microsecond)
		pc.StartPhase(PhaseSteering)
		clock.advance(300 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration != 400*time.Microsecond {
		t.Errorf("expected 400us average tick, got %v", stats.AvgTickDuration)
	}
	if stats.PhaseAvg[PhasePhysics] != 100*time.Microsecond {
		t.Errorf("expected 100us physics, got %v", stats.PhaseAvg[PhasePhysics])
	}
	if pct := stats.PhasePct[PhaseSteering]; pct < 74.9 || pct > 75.1 {
		t.Errorf("expected steering at 75%%, got %v", pct)
	}
	if stats.TicksPerSecond < 2499 || stats.TicksPerSecond > 2501 {
		t.Errorf("expected 2500 ticks/sec, got %v", stats.TicksPerSecond)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc, clock := newTestCollector(5)

	// Five slow ticks, then five fast ones push them all out.
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSync)
		if i < 5 {
			clock.advance(time.Millisecond)
		} else {
			clock.advance(time.Microsecond)
		}
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.MaxTickDuration != time.Microsecond {
		t.Errorf("old samples should have rolled out, max is %v", stats.MaxTickDuration)
	}
	if stats.MinTickDuration != time.Microsecond {
		t.Errorf("expected min 1us, got %v", stats.MinTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc, clock := newTestCollector(10)

	pc.RecordFrame()
	clock.advance(20 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration != 20*time.Millisecond {
		t.Errorf("expected 20ms frame, got %v", stats.FrameDuration)
	}
	if stats.FPS < 49.9 || stats.FPS > 50.1 {
		t.Errorf("expected 50 FPS, got %v", stats.FPS)
	}
}

func TestPerfStats_LogObjectAndCSV(t *testing.T) {
	pc, clock := newTestCollector(4)
	pc.StartTick()
	pc.StartPhase(PhaseAssets)
	clock.advance(time.Millisecond)
	pc.EndTick()
	stats := pc.Stats()

	enc := zapcore.NewMapObjectEncoder()
	if err := stats.MarshalLogObject(enc); err != nil {
		t.Fatal(err)
	}
	if enc.Fields["avg_tick_us"] != int64(1000) {
		t.Errorf("expected avg_tick_us 1000, got %v", enc.Fields["avg_tick_us"])
	}
	if _, ok := enc.Fields["assets_pct"]; !ok {
		t.Error("expected assets_pct field")
	}

	row := stats.ToCSV(42)
	if row.WindowEnd != 42 || row.AssetsPct != 100 {
		t.Errorf("unexpected csv row %+v", row)
	}
}

// Package telemetry tracks per-window simulation statistics and phase timing
// and writes them out as CSV.
package telemetry

// Sample is the simulation state the caller measures at flush time.
type Sample struct {
	Agents, Ready, Loading, Seeking int

	Distances         []float64 // ready agents' distance to the target
	MaxVelocity       float64
	PotentialContacts int
	TargetValid       bool
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int64
	dt                  float64

	windowStartTick int64

	// Event counters for current window
	spawned      int
	removed      int
	loadFailures int
	arrivals     int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each window lasts in simulation seconds
// dt: seconds per tick
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticks := int64(windowDurationSec / dt)
	if ticks < 1 {
		ticks = 1
	}
	return &Collector{
		windowDurationTicks: ticks,
		dt:                  dt,
	}
}

// RecordSpawn records a new agent.
func (c *Collector) RecordSpawn() {
	c.spawned++
}

// RecordRemoval records an agent leaving the simulation.
func (c *Collector) RecordRemoval() {
	c.removed++
}

// RecordLoadFailure records an asset that failed to load.
func (c *Collector) RecordLoadFailure() {
	c.loadFailures++
}

// RecordArrivals records agents that reached the target.
func (c *Collector) RecordArrivals(n int) {
	c.arrivals += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, s Sample) WindowStats {
	d := SummarizeDistances(s.Distances)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Agents:  s.Agents,
		Ready:   s.Ready,
		Loading: s.Loading,
		Seeking: s.Seeking,

		Spawned:      c.spawned,
		Removed:      c.removed,
		LoadFailures: c.loadFailures,
		Arrivals:     c.arrivals,

		DistanceMean: d.Mean,
		DistanceStd:  d.Std,
		DistanceP50:  d.P50,
		DistanceP90:  d.P90,
		DistanceMax:  d.Max,

		MaxVelocity:       s.MaxVelocity,
		PotentialContacts: s.PotentialContacts,
		TargetValid:       s.TargetValid,
	}

	c.windowStartTick = currentTick
	c.spawned = 0
	c.removed = 0
	c.loadFailures = 0
	c.arrivals = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}

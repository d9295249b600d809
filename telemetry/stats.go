package telemetry

import (
	"slices"

	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Agents  int `csv:"agents"`
	Ready   int `csv:"ready"`
	Loading int `csv:"loading"`
	Seeking int `csv:"seeking"`

	// Events during window
	Spawned      int `csv:"spawned"`
	Removed      int `csv:"removed"`
	LoadFailures int `csv:"load_failures"`
	Arrivals     int `csv:"arrivals"`

	// Distance to target across ready agents, sampled at window end
	DistanceMean float64 `csv:"distance_mean"`
	DistanceStd  float64 `csv:"distance_std"`
	DistanceP50  float64 `csv:"distance_p50"`
	DistanceP90  float64 `csv:"distance_p90"`
	DistanceMax  float64 `csv:"distance_max"`

	MaxVelocity       float64 `csv:"max_velocity"` // largest |component| of any body velocity
	PotentialContacts int     `csv:"potential_contacts"`
	TargetValid       bool    `csv:"target_valid"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// DistanceSummary holds the spread of agent distances to the target.
type DistanceSummary struct {
	Mean, Std, P50, P90, Max float64
}

// SummarizeDistances computes mean, population std, median, p90 and max.
func SummarizeDistances(values []float64) DistanceSummary {
	if len(values) == 0 {
		return DistanceSummary{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return DistanceSummary{
		Mean: mean,
		Std:  std,
		P50:  Percentile(sorted, 0.5),
		P90:  Percentile(sorted, 0.9),
		Max:  sorted[len(sorted)-1],
	}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s WindowStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("window_start", s.WindowStartTick)
	enc.AddInt64("window_end", s.WindowEndTick)
	enc.AddFloat64("sim_time", s.SimTimeSec)
	enc.AddInt("agents", s.Agents)
	enc.AddInt("ready", s.Ready)
	enc.AddInt("loading", s.Loading)
	enc.AddInt("seeking", s.Seeking)
	enc.AddInt("spawned", s.Spawned)
	enc.AddInt("removed", s.Removed)
	enc.AddInt("load_failures", s.LoadFailures)
	enc.AddInt("arrivals", s.Arrivals)
	enc.AddFloat64("distance_mean", s.DistanceMean)
	enc.AddFloat64("distance_p90", s.DistanceP90)
	enc.AddFloat64("distance_max", s.DistanceMax)
	enc.AddFloat64("max_velocity", s.MaxVelocity)
	enc.AddInt("potential_contacts", s.PotentialContacts)
	enc.AddBool("target_valid", s.TargetValid)
	return nil
}

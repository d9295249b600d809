// Package steering computes the seek-and-arrive command for one body.
package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// epsilon is the distance below which a direction cannot be normalized.
const epsilon = 1e-9

// Params are the tunables read fresh every tick.
type Params struct {
	ForceIntensity       float64 // magnitude of the seek force
	MaxVelocity          float64 // per-axis velocity cap outside the near field
	NearFieldDistance    float64 // below this distance the near-field cap applies
	NearFieldMaxVelocity float64
	ArrivalPerAgent      float64 // arrival threshold grows by this per agent
	ArrivalCap           float64 // and never exceeds this
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		ForceIntensity:       80,
		MaxVelocity:          2,
		NearFieldDistance:    5,
		NearFieldMaxVelocity: 2,
		ArrivalPerAgent:      0.5,
		ArrivalCap:           3,
	}
}

// State is the slice of body state the controller reads.
type State struct {
	Position r3.Vec
	Velocity r3.Vec
}

// Command is what the controller wants done to the body this tick.
type Command struct {
	Velocity        r3.Vec // replaces the linear velocity
	AngularVelocity r3.Vec // replaces the angular velocity
	Force           r3.Vec // applied at the body position
	Seeking         bool
	Distance        float64
}

// ArrivalThreshold is the stop radius for a crowd of n agents. Larger crowds
// stop further out so they don't pile onto the same point.
func ArrivalThreshold(n int, p Params) float64 {
	return math.Min(float64(n)*p.ArrivalPerAgent, p.ArrivalCap)
}

// VelocityCap returns the per-axis limit at the given distance.
func VelocityCap(distance float64, p Params) float64 {
	if distance < p.NearFieldDistance {
		return p.NearFieldMaxVelocity
	}
	return p.MaxVelocity
}

// Steer computes the command that moves body toward target. n is the number
// of live agents sharing the target.
//
// The clamped linear velocity is also written as angular velocity so that
// models visibly tumble while they travel.
func Steer(body State, target r3.Vec, n int, p Params) Command {
	dir := r3.Sub(target, body.Position)
	dist := r3.Norm(dir)

	if dist <= ArrivalThreshold(n, p) || dist <= epsilon {
		return Command{Distance: dist}
	}

	dir = r3.Scale(1/dist, dir)
	limit := VelocityCap(dist, p)
	v := ClampAxes(body.Velocity, limit)

	return Command{
		Velocity:        v,
		AngularVelocity: v,
		Force:           r3.Scale(p.ForceIntensity, dir),
		Seeking:         true,
		Distance:        dist,
	}
}

// ClampAxes limits each component of v to [-limit, limit], keeping its sign.
func ClampAxes(v r3.Vec, limit float64) r3.Vec {
	return r3.Vec{
		X: clampAxis(v.X, limit),
		Y: clampAxis(v.Y, limit),
		Z: clampAxis(v.Z, limit),
	}
}

func clampAxis(x, limit float64) float64 {
	if math.Abs(x) > limit {
		return math.Copysign(limit, x)
	}
	return x
}

package steering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestArrivalThreshold(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0},
		{1, 0.5},
		{4, 2},
		{6, 3},
		{100, 3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ArrivalThreshold(tt.n, p), 1e-12, "n=%d", tt.n)
	}
}

func TestSteerArrivedZeroesVelocity(t *testing.T) {
	p := DefaultParams()
	body := State{Position: r3.Vec{X: 9.8}, Velocity: r3.Vec{X: 1.5, Y: -0.3, Z: 0.2}}

	cmd := Steer(body, r3.Vec{X: 10}, 1, p)

	assert.False(t, cmd.Seeking)
	assert.Equal(t, r3.Vec{}, cmd.Velocity)
	assert.Equal(t, r3.Vec{}, cmd.AngularVelocity)
	assert.Equal(t, r3.Vec{}, cmd.Force)
	assert.InDelta(t, 0.2, cmd.Distance, 1e-12)
}

func TestSteerZeroLengthDirection(t *testing.T) {
	body := State{Position: r3.Vec{X: 1, Y: 2, Z: 3}, Velocity: r3.Vec{X: 4}}

	// No agents means a zero threshold, so only the epsilon guard applies.
	cmd := Steer(body, body.Position, 0, DefaultParams())

	assert.False(t, cmd.Seeking)
	assert.Equal(t, r3.Vec{}, cmd.Velocity)
	for _, c := range []float64{cmd.Force.X, cmd.Force.Y, cmd.Force.Z, cmd.Distance} {
		assert.False(t, math.IsNaN(c))
	}
}

func TestSteerForceTowardTarget(t *testing.T) {
	p := DefaultParams()
	body := State{Position: r3.Vec{}}

	cmd := Steer(body, r3.Vec{Y: 3, Z: 4}, 1, p)

	assert.True(t, cmd.Seeking)
	assert.InDelta(t, 5.0, cmd.Distance, 1e-12)
	assert.InDelta(t, 0.0, cmd.Force.X, 1e-12)
	assert.InDelta(t, 80*0.6, cmd.Force.Y, 1e-12)
	assert.InDelta(t, 80*0.8, cmd.Force.Z, 1e-12)
}

func TestSteerPerAxisCap(t *testing.T) {
	p := DefaultParams()
	p.MaxVelocity = 4
	body := State{Velocity: r3.Vec{X: 10, Y: -10, Z: 1}}

	far := Steer(body, r3.Vec{X: 20}, 1, p)
	assert.Equal(t, r3.Vec{X: 4, Y: -4, Z: 1}, far.Velocity, "configured cap at distance >= 5")
	assert.Equal(t, far.Velocity, far.AngularVelocity)

	near := Steer(body, r3.Vec{X: 4}, 1, p)
	assert.Equal(t, r3.Vec{X: 2, Y: -2, Z: 1}, near.Velocity, "near-field cap below distance 5")
}

func TestVelocityCapBoundary(t *testing.T) {
	p := DefaultParams()
	p.MaxVelocity = 7
	assert.Equal(t, 2.0, VelocityCap(4.999, p))
	assert.Equal(t, 7.0, VelocityCap(5, p))
}

func TestClampAxesKeepsSign(t *testing.T) {
	got := ClampAxes(r3.Vec{X: -0.5, Y: -3, Z: 3}, 1)
	assert.Equal(t, r3.Vec{X: -0.5, Y: -1, Z: 1}, got)
}

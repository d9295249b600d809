package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestAddRemoveBody(t *testing.T) {
	w := NewWorld(Options{})
	a := w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 0.5}))
	b := w.AddBody(NewBody(r3.Vec{X: 3}, 1, Sphere{Radius: 0.5}))
	assert.NotEqual(t, a, b)
	assert.NotZero(t, a)
	assert.Equal(t, 2, w.Len())

	assert.True(t, w.RemoveBody(a))
	assert.False(t, w.RemoveBody(a))
	_, ok := w.Body(a)
	assert.False(t, ok)
	require.Len(t, w.Bodies(), 1)
	assert.Equal(t, b, w.Bodies()[0].ID)
}

func TestUnknownBody(t *testing.T) {
	w := NewWorld(Options{})
	assert.ErrorIs(t, w.ApplyForce(99, r3.Vec{X: 1}, r3.Vec{}), ErrUnknownBody)
	assert.ErrorIs(t, w.SetVelocity(99, r3.Vec{}), ErrUnknownBody)
	assert.ErrorIs(t, w.SetAngularVelocity(99, r3.Vec{}), ErrUnknownBody)
}

func TestStepIntegratesForce(t *testing.T) {
	w := NewWorld(Options{})
	id := w.AddBody(NewBody(r3.Vec{}, 2, Sphere{Radius: 0.5}))

	require.NoError(t, w.ApplyForce(id, r3.Vec{X: 4}, r3.Vec{}))
	w.Step(0.5)

	b, _ := w.Body(id)
	// a = 2, v = 1, x = v*dt = 0.5 (semi-implicit)
	assert.InDelta(t, 1.0, b.Velocity.X, 1e-12)
	assert.InDelta(t, 0.5, b.Position.X, 1e-12)
	assert.Equal(t, r3.Vec{}, b.Force(), "forces are consumed by the step")

	w.Step(0.5)
	assert.InDelta(t, 1.0, b.Velocity.X, 1e-12, "no force, no damping: constant velocity")
	assert.InDelta(t, 1.0, b.Position.X, 1e-12)
	assert.Equal(t, 2, w.Steps())
	assert.InDelta(t, 1.0, w.Time(), 1e-12)
}

func TestStepDamping(t *testing.T) {
	w := NewWorld(Options{LinearDamping: 0.5})
	id := w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 0.5}))
	require.NoError(t, w.SetVelocity(id, r3.Vec{Y: 4}))

	w.Step(1)
	b, _ := w.Body(id)
	assert.InDelta(t, 2.0, b.Velocity.Y, 1e-12)
}

func TestSetDampingReachesExistingBodies(t *testing.T) {
	w := NewWorld(Options{LinearDamping: 0.01, AngularDamping: 0.01})
	id := w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 0.5}))

	w.SetDamping(0.5, 0.25)
	b, _ := w.Body(id)
	assert.Equal(t, 0.5, b.LinearDamping)
	assert.Equal(t, 0.25, b.AngularDamping)

	require.NoError(t, w.SetVelocity(id, r3.Vec{X: 4}))
	w.Step(1)
	assert.InDelta(t, 2.0, b.Velocity.X, 1e-12)

	later := w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 0.5}))
	lb, _ := w.Body(later)
	assert.Equal(t, 0.5, lb.LinearDamping)
}

func TestOwnDampingKeepsZero(t *testing.T) {
	w := NewWorld(Options{LinearDamping: 0.5})
	body := NewBody(r3.Vec{}, 1, Sphere{Radius: 0.5})
	body.OwnDamping = true
	id := w.AddBody(body)
	assert.Zero(t, body.LinearDamping)

	w.SetDamping(0.9, 0.9)
	assert.Zero(t, body.LinearDamping)
	assert.Zero(t, body.AngularDamping)

	require.NoError(t, w.SetVelocity(id, r3.Vec{Y: 3}))
	w.Step(1)
	assert.InDelta(t, 3.0, body.Velocity.Y, 1e-12, "undamped")
}

func TestStaticBodyDoesNotMove(t *testing.T) {
	w := NewWorld(Options{Gravity: r3.Vec{Y: -9.8}})
	id := w.AddBody(NewBody(r3.Vec{Z: 1}, 0, Box{HalfExtents: r3.Vec{X: 1, Y: 1, Z: 1}}))
	require.NoError(t, w.ApplyForce(id, r3.Vec{X: 100}, r3.Vec{}))
	w.Step(1.0 / 60)

	b, _ := w.Body(id)
	assert.Equal(t, r3.Vec{Z: 1}, b.Position)
	assert.Equal(t, r3.Vec{}, b.Velocity)
}

func TestOffCentreForceSpins(t *testing.T) {
	w := NewWorld(Options{})
	id := w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 1}))

	// Push +Y at a point on +X: torque about +Z.
	require.NoError(t, w.ApplyForce(id, r3.Vec{Y: 1}, r3.Vec{X: 1}))
	b, _ := w.Body(id)
	assert.InDelta(t, 1.0, b.Torque().Z, 1e-12)

	w.Step(0.1)
	assert.Greater(t, b.AngularVelocity.Z, 0.0)
	assert.InDelta(t, 1.0, quat.Abs(b.Orientation), 1e-9, "orientation stays unit length")
	assert.NotEqual(t, quat.Number{Real: 1}, b.Orientation)
}

func TestOrientationIntegration(t *testing.T) {
	q := quat.Number{Real: 1}
	w := r3.Vec{Z: math.Pi} // half a turn per second
	for range 1000 {
		q = integrateOrientation(q, w, 0.001)
	}
	// After one second, a rotation of pi about Z: (cos(pi/2), 0, 0, sin(pi/2)).
	assert.InDelta(t, 0.0, q.Real, 1e-2)
	assert.InDelta(t, 1.0, math.Abs(q.Kmag), 1e-2)
	assert.InDelta(t, 1.0, quat.Abs(q), 1e-9)
}

func TestPotentialContacts(t *testing.T) {
	w := NewWorld(Options{BroadphaseCell: 1})
	a := w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 0.5}))
	b := w.AddBody(NewBody(r3.Vec{X: 0.8}, 1, Sphere{Radius: 0.5}))
	w.AddBody(NewBody(r3.Vec{X: 10}, 1, Sphere{Radius: 0.5}))

	w.Step(1.0 / 60)
	assert.Equal(t, []Pair{{A: a, B: b}}, w.PotentialContacts())
}

func TestBroadphaseSpanningCellsReportsOnce(t *testing.T) {
	w := NewWorld(Options{BroadphaseCell: 0.25})
	a := w.AddBody(NewBody(r3.Vec{}, 1, Box{HalfExtents: r3.Vec{X: 1, Y: 1, Z: 1}}))
	b := w.AddBody(NewBody(r3.Vec{X: 0.5, Y: -0.5}, 1, Box{HalfExtents: r3.Vec{X: 1, Y: 1, Z: 1}}))

	w.Step(1.0 / 60)
	assert.Equal(t, []Pair{{A: a, B: b}}, w.PotentialContacts())
}

func TestClear(t *testing.T) {
	w := NewWorld(Options{})
	w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 1}))
	w.AddBody(NewBody(r3.Vec{}, 1, Sphere{Radius: 1}))
	w.Step(1.0 / 60)
	require.NotEmpty(t, w.PotentialContacts())

	w.Clear()
	assert.Zero(t, w.Len())
	assert.Empty(t, w.PotentialContacts())
	assert.Empty(t, w.Bodies())
}

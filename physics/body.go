// Package physics is a small rigid-body world: bodies with linear and
// angular state integrated at a fixed time step, plus a grid broad-phase
// that reports potential contacts. There is no narrow-phase or solver.
package physics

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// BodyID identifies a body within its World. Zero is never assigned.
type BodyID uint32

// Shape is a collision volume centred on the body position.
type Shape interface {
	// AABB returns the axis-aligned bounds when centred at c.
	AABB(c r3.Vec) r3.Box
	// Inertia returns the diagonal of the inertia tensor for mass m.
	Inertia(m float64) r3.Vec
}

// Sphere is a ball of the given radius.
type Sphere struct {
	Radius float64
}

func (s Sphere) AABB(c r3.Vec) r3.Box {
	e := r3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return r3.Box{Min: r3.Sub(c, e), Max: r3.Add(c, e)}
}

func (s Sphere) Inertia(m float64) r3.Vec {
	i := 0.4 * m * s.Radius * s.Radius
	return r3.Vec{X: i, Y: i, Z: i}
}

// Box is a cuboid with the given half extents.
type Box struct {
	HalfExtents r3.Vec
}

func (b Box) AABB(c r3.Vec) r3.Box {
	return r3.Box{Min: r3.Sub(c, b.HalfExtents), Max: r3.Add(c, b.HalfExtents)}
}

func (b Box) Inertia(m float64) r3.Vec {
	x, y, z := 2*b.HalfExtents.X, 2*b.HalfExtents.Y, 2*b.HalfExtents.Z
	k := m / 12
	return r3.Vec{X: k * (y*y + z*z), Y: k * (x*x + z*z), Z: k * (x*x + y*y)}
}

// Body is a rigid body. A Mass of zero makes the body static.
type Body struct {
	ID BodyID

	Position        r3.Vec
	Velocity        r3.Vec
	AngularVelocity r3.Vec
	Orientation     quat.Number

	Mass           float64
	Shape          Shape
	LinearDamping  float64 // fraction of velocity lost per second
	AngularDamping float64
	// OwnDamping keeps the damping above, even zero, instead of following
	// the world's settings.
	OwnDamping bool

	// Accumulators, cleared after every step.
	force  r3.Vec
	torque r3.Vec
}

// NewBody returns a dynamic body at pos with identity orientation.
func NewBody(pos r3.Vec, mass float64, shape Shape) *Body {
	return &Body{
		Position:    pos,
		Orientation: quat.Number{Real: 1},
		Mass:        mass,
		Shape:       shape,
	}
}

// Static reports whether the body ignores forces and integration.
func (b *Body) Static() bool {
	return b.Mass <= 0
}

// InvMass returns 1/mass, or 0 for static bodies.
func (b *Body) InvMass() float64 {
	if b.Static() {
		return 0
	}
	return 1 / b.Mass
}

// ApplyForce accumulates force at a world-space point. A point equal to the
// body position contributes no torque.
func (b *Body) ApplyForce(force, point r3.Vec) {
	b.force = r3.Add(b.force, force)
	arm := r3.Sub(point, b.Position)
	if arm != (r3.Vec{}) {
		b.torque = r3.Add(b.torque, r3.Cross(arm, force))
	}
}

// Force returns the force accumulated since the last step.
func (b *Body) Force() r3.Vec {
	return b.force
}

// Torque returns the torque accumulated since the last step.
func (b *Body) Torque() r3.Vec {
	return b.torque
}

// ClearForces drops accumulated force and torque.
func (b *Body) ClearForces() {
	b.force = r3.Vec{}
	b.torque = r3.Vec{}
}

// AABB returns the body's current bounds. Bodies without a shape are points.
func (b *Body) AABB() r3.Box {
	if b.Shape == nil {
		return r3.Box{Min: b.Position, Max: b.Position}
	}
	return b.Shape.AABB(b.Position)
}

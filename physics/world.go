package physics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownBody is returned for ids that were never added or were removed.
var ErrUnknownBody = errors.New("physics: unknown body")

// Options configures a World.
type Options struct {
	Gravity        r3.Vec
	LinearDamping  float64 // applied to every body without OwnDamping
	AngularDamping float64
	BroadphaseCell float64
}

// World owns every body and advances them at a fixed step.
type World struct {
	opts Options

	bodies map[BodyID]*Body
	order  []BodyID // insertion order, for deterministic stepping
	nextID BodyID

	broadphase *Broadphase
	pairs      []Pair

	steps int
	time  float64
}

// NewWorld creates an empty world.
func NewWorld(opts Options) *World {
	if opts.BroadphaseCell <= 0 {
		opts.BroadphaseCell = 2
	}
	return &World{
		opts:       opts,
		bodies:     make(map[BodyID]*Body),
		broadphase: NewBroadphase(opts.BroadphaseCell),
	}
}

// SetGravity replaces the world gravity.
func (w *World) SetGravity(g r3.Vec) {
	w.opts.Gravity = g
}

// SetDamping replaces the world damping on existing bodies and on bodies
// added later. Bodies with OwnDamping are left alone.
func (w *World) SetDamping(linear, angular float64) {
	w.opts.LinearDamping = linear
	w.opts.AngularDamping = angular
	for _, id := range w.order {
		w.inheritDamping(w.bodies[id])
	}
}

func (w *World) inheritDamping(b *Body) {
	if b.OwnDamping {
		return
	}
	b.LinearDamping = w.opts.LinearDamping
	b.AngularDamping = w.opts.AngularDamping
}

// AddBody registers b and assigns its ID.
func (w *World) AddBody(b *Body) BodyID {
	w.nextID++
	b.ID = w.nextID
	if b.Orientation == (quat.Number{}) {
		b.Orientation = quat.Number{Real: 1}
	}
	w.inheritDamping(b)
	w.bodies[b.ID] = b
	w.order = append(w.order, b.ID)
	return b.ID
}

// RemoveBody deletes a body. Returns false if it did not exist.
func (w *World) RemoveBody(id BodyID) bool {
	if _, ok := w.bodies[id]; !ok {
		return false
	}
	delete(w.bodies, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all bodies.
func (w *World) Clear() {
	clear(w.bodies)
	w.order = w.order[:0]
	w.pairs = w.pairs[:0]
}

// Body looks up a body by id.
func (w *World) Body(id BodyID) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Len returns the number of bodies.
func (w *World) Len() int {
	return len(w.bodies)
}

// Bodies returns bodies in insertion order.
func (w *World) Bodies() []*Body {
	out := make([]*Body, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.bodies[id])
	}
	return out
}

// ApplyForce accumulates force on a body at a world-space point.
func (w *World) ApplyForce(id BodyID, force, point r3.Vec) error {
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	b.ApplyForce(force, point)
	return nil
}

// SetVelocity overwrites a body's linear velocity.
func (w *World) SetVelocity(id BodyID, v r3.Vec) error {
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	b.Velocity = v
	return nil
}

// SetAngularVelocity overwrites a body's angular velocity.
func (w *World) SetAngularVelocity(id BodyID, v r3.Vec) error {
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBody, id)
	}
	b.AngularVelocity = v
	return nil
}

// Steps returns how many times Step has run.
func (w *World) Steps() int {
	return w.steps
}

// Time returns the accumulated simulation time in seconds.
func (w *World) Time() float64 {
	return w.time
}

// PotentialContacts returns the pairs found by the last broad-phase pass.
// The slice is reused by the next Step.
func (w *World) PotentialContacts() []Pair {
	return w.pairs
}

// Step advances every dynamic body by dt using semi-implicit Euler, then
// refreshes the broad-phase. Accumulated forces are consumed.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}

	for _, id := range w.order {
		b := w.bodies[id]
		if b.Static() {
			b.ClearForces()
			continue
		}

		// Linear
		acc := r3.Add(r3.Scale(b.InvMass(), b.force), w.opts.Gravity)
		b.Velocity = r3.Add(b.Velocity, r3.Scale(dt, acc))
		if b.LinearDamping > 0 {
			b.Velocity = r3.Scale(math.Pow(1-b.LinearDamping, dt), b.Velocity)
		}
		b.Position = r3.Add(b.Position, r3.Scale(dt, b.Velocity))

		// Angular
		if b.torque != (r3.Vec{}) && b.Shape != nil {
			inertia := b.Shape.Inertia(b.Mass)
			b.AngularVelocity = r3.Add(b.AngularVelocity, r3.Scale(dt, divSafe(b.torque, inertia)))
		}
		if b.AngularDamping > 0 {
			b.AngularVelocity = r3.Scale(math.Pow(1-b.AngularDamping, dt), b.AngularVelocity)
		}
		b.Orientation = integrateOrientation(b.Orientation, b.AngularVelocity, dt)

		b.ClearForces()
	}

	w.pairs = w.broadphase.Pairs(w.pairs[:0], w.order, w.bodies)
	w.steps++
	w.time += dt
}

// integrateOrientation applies q' = q + 0.5*(0,w)*q*dt and renormalizes.
func integrateOrientation(q quat.Number, w r3.Vec, dt float64) quat.Number {
	if w == (r3.Vec{}) {
		return q
	}
	spin := quat.Mul(quat.Number{Imag: w.X, Jmag: w.Y, Kmag: w.Z}, q)
	q = quat.Add(q, quat.Scale(0.5*dt, spin))
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// divSafe divides componentwise, treating zero divisors as zero results.
func divSafe(a, b r3.Vec) r3.Vec {
	var out r3.Vec
	if b.X != 0 {
		out.X = a.X / b.X
	}
	if b.Y != 0 {
		out.Y = a.Y / b.Y
	}
	if b.Z != 0 {
		out.Z = a.Z / b.Z
	}
	return out
}

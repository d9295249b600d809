// Package components defines ECS components for the simulation.
package components

import (
	"github.com/google/uuid"

	"github.com/pthm-cable/aquarium/physics"
)

// ModelState tracks where an agent is in its asset lifecycle.
type ModelState uint8

const (
	Loading ModelState = iota // Asset request in flight, no body yet
	Ready                     // Body registered, steered and synced
	Failed                    // Asset failed, pending removal
)

// String returns the display name for a ModelState.
func (s ModelState) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Agent is the identity of a steerable model.
type Agent struct {
	ID    uuid.UUID `inspect:"label"`
	Index int       `inspect:"label"` // spawn order, used for tint and spawn slot
	State ModelState
}

// BodyRef points at the agent's body in the physics world. It does not own it.
type BodyRef struct {
	ID physics.BodyID
}

// Seeker is the steering state written every tick.
type Seeker struct {
	Seeking  bool    `inspect:"bool"`
	Distance float64 `inspect:"label,fmt:%.2f"` // to the target at the last update
}

// Appearance describes how the renderer draws an agent.
type Appearance struct {
	Asset     string  // model path, empty for the procedural mesh
	Tint      float32 // 0..1 blend toward the scene main color
	AnimPhase float32 // animation offset so agents don't move in lockstep
}

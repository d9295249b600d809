// Package systems contains ECS systems for the simulation.
package systems

import (
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/physics"
	"github.com/pthm-cable/aquarium/steering"
	"github.com/pthm-cable/aquarium/target"
)

// SteeringResult summarizes one steering pass.
type SteeringResult struct {
	Steered  int // ready agents that received a command
	Seeking  int // still travelling after this pass
	Arrivals int // transitioned from seeking to arrived this pass
}

// SteeringSystem drives every ready agent's body toward the shared target.
type SteeringSystem struct {
	filter *ecs.Filter3[components.Agent, components.BodyRef, components.Seeker]
	log    *zap.Logger
}

// NewSteeringSystem creates a new steering system.
func NewSteeringSystem(w *ecs.World, log *zap.Logger) *SteeringSystem {
	return &SteeringSystem{
		filter: ecs.NewFilter3[components.Agent, components.BodyRef, components.Seeker](w),
		log:    log,
	}
}

// Update applies one steering command per ready agent. Without a valid goal
// the pass is skipped entirely and bodies keep whatever motion they have.
func (s *SteeringSystem) Update(phys *physics.World, goal target.Point, p steering.Params) SteeringResult {
	var res SteeringResult
	if !goal.Valid {
		return res
	}

	n := s.countReady()

	query := s.filter.Query()
	for query.Next() {
		agent, ref, seeker := query.Get()
		if agent.State != components.Ready {
			continue
		}

		body, ok := phys.Body(ref.ID)
		if !ok {
			s.log.Warn("steering skipped agent without body",
				zap.Stringer("agent", agent.ID),
				zap.Uint32("body", uint32(ref.ID)),
			)
			continue
		}

		cmd := steering.Steer(steering.State{Position: body.Position, Velocity: body.Velocity}, goal.Pos, n, p)
		if err := drive(phys, ref.ID, body.Position, cmd); err != nil {
			s.log.Warn("steering skipped agent", zap.Stringer("agent", agent.ID), zap.Error(err))
			continue
		}
		if cmd.Seeking {
			res.Seeking++
		} else if seeker.Seeking {
			res.Arrivals++
		}

		seeker.Seeking = cmd.Seeking
		seeker.Distance = cmd.Distance
		res.Steered++
	}
	return res
}

// drive writes a steering command to the body through the world.
func drive(phys *physics.World, id physics.BodyID, pos r3.Vec, cmd steering.Command) error {
	if err := phys.SetVelocity(id, cmd.Velocity); err != nil {
		return err
	}
	if err := phys.SetAngularVelocity(id, cmd.AngularVelocity); err != nil {
		return err
	}
	if cmd.Seeking {
		return phys.ApplyForce(id, cmd.Force, pos)
	}
	return nil
}

func (s *SteeringSystem) countReady() int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		agent, _, _ := query.Get()
		if agent.State == components.Ready {
			n++
		}
	}
	return n
}

package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/physics"
)

// SyncSystem copies body poses onto the visual transform and bounding proxy.
type SyncSystem struct {
	filter *ecs.Filter4[components.Agent, components.BodyRef, components.Transform, components.Proxy]
}

// NewSyncSystem creates a new transform sync system.
func NewSyncSystem(w *ecs.World) *SyncSystem {
	return &SyncSystem{
		filter: ecs.NewFilter4[components.Agent, components.BodyRef, components.Transform, components.Proxy](w),
	}
}

// Update runs the sync. It only reads physics state, so repeated calls
// without a step in between leave transforms unchanged.
func (s *SyncSystem) Update(phys *physics.World) int {
	synced := 0
	query := s.filter.Query()
	for query.Next() {
		agent, ref, tr, proxy := query.Get()
		if agent.State != components.Ready {
			continue
		}
		body, ok := phys.Body(ref.ID)
		if !ok {
			continue
		}
		tr.Position = body.Position
		tr.Orientation = body.Orientation
		proxy.Position = body.Position
		synced++
	}
	return synced
}

// VelocityOf returns the body's linear velocity, or zero if it is gone.
func VelocityOf(phys *physics.World, ref components.BodyRef) r3.Vec {
	if b, ok := phys.Body(ref.ID); ok {
		return b.Velocity
	}
	return r3.Vec{}
}

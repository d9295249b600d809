package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/physics"
	"github.com/pthm-cable/aquarium/steering"
	"github.com/pthm-cable/aquarium/target"
)

type fixture struct {
	world  *ecs.World
	phys   *physics.World
	mapper *ecs.Map5[components.Agent, components.BodyRef, components.Seeker, components.Transform, components.Proxy]
}

func newFixture() *fixture {
	w := ecs.NewWorld()
	return &fixture{
		world: w,
		phys:  physics.NewWorld(physics.Options{}),
		mapper: ecs.NewMap5[
			components.Agent,
			components.BodyRef,
			components.Seeker,
			components.Transform,
			components.Proxy,
		](w),
	}
}

func (f *fixture) spawn(pos r3.Vec, state components.ModelState) (ecs.Entity, physics.BodyID) {
	id := f.phys.AddBody(physics.NewBody(pos, 1, physics.Sphere{Radius: 0.4}))
	agent := components.Agent{ID: uuid.New(), State: state}
	ref := components.BodyRef{ID: id}
	seeker := components.Seeker{}
	tr := components.NewTransform(r3.Vec{})
	proxy := components.Proxy{HalfExtents: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}}
	return f.mapper.NewEntity(&agent, &ref, &seeker, &tr, &proxy), id
}

func (f *fixture) body(t *testing.T, id physics.BodyID) *physics.Body {
	t.Helper()
	b, ok := f.phys.Body(id)
	if !ok {
		t.Fatalf("body %d missing", id)
	}
	return b
}

// ---------- SteeringSystem ----------

func TestSteering_NoTargetIsNoOp(t *testing.T) {
	f := newFixture()
	_, id := f.spawn(r3.Vec{}, components.Ready)
	f.body(t, id).Velocity = r3.Vec{X: 9}

	s := NewSteeringSystem(f.world, zap.NewNop())
	res := s.Update(f.phys, target.Point{}, steering.DefaultParams())

	if res.Steered != 0 {
		t.Errorf("expected no agents steered, got %d", res.Steered)
	}
	if f.body(t, id).Velocity.X != 9 {
		t.Errorf("velocity should be untouched, got %v", f.body(t, id).Velocity)
	}
	if f.body(t, id).Force() != (r3.Vec{}) {
		t.Errorf("no force should be applied, got %v", f.body(t, id).Force())
	}
}

func TestSteering_SkipsAgentsNotReady(t *testing.T) {
	f := newFixture()
	_, loading := f.spawn(r3.Vec{}, components.Loading)
	_, failed := f.spawn(r3.Vec{}, components.Failed)

	s := NewSteeringSystem(f.world, zap.NewNop())
	res := s.Update(f.phys, target.Point{Pos: r3.Vec{X: 10}, Valid: true}, steering.DefaultParams())

	if res.Steered != 0 {
		t.Errorf("expected 0 steered, got %d", res.Steered)
	}
	for _, id := range []physics.BodyID{loading, failed} {
		if f.body(t, id).Force() != (r3.Vec{}) {
			t.Errorf("body %d should not be pushed", id)
		}
	}
}

func TestSteering_SeeksAndCapsVelocity(t *testing.T) {
	f := newFixture()
	e, id := f.spawn(r3.Vec{}, components.Ready)
	f.body(t, id).Velocity = r3.Vec{X: 10, Y: -10}

	p := steering.DefaultParams()
	p.MaxVelocity = 3
	s := NewSteeringSystem(f.world, zap.NewNop())
	res := s.Update(f.phys, target.Point{Pos: r3.Vec{X: 20}, Valid: true}, p)

	if res.Seeking != 1 || res.Steered != 1 {
		t.Errorf("expected one seeking agent, got %+v", res)
	}
	b := f.body(t, id)
	if b.Velocity != (r3.Vec{X: 3, Y: -3}) {
		t.Errorf("expected velocity capped to (3,-3,0), got %v", b.Velocity)
	}
	if b.AngularVelocity != b.Velocity {
		t.Errorf("angular velocity should mirror linear, got %v", b.AngularVelocity)
	}
	if math.Abs(b.Force().X-80) > 1e-9 {
		t.Errorf("expected force 80 toward target, got %v", b.Force())
	}
	if b.Torque() != (r3.Vec{}) {
		t.Errorf("force at the body position should not spin, got %v", b.Torque())
	}

	seeker := ecs.NewMap[components.Seeker](f.world).Get(e)
	if !seeker.Seeking || math.Abs(seeker.Distance-20) > 1e-9 {
		t.Errorf("unexpected seeker state %+v", *seeker)
	}
}

func TestSteering_CountsArrivals(t *testing.T) {
	f := newFixture()
	e, id := f.spawn(r3.Vec{X: 9.9}, components.Ready)
	ecs.NewMap[components.Seeker](f.world).Get(e).Seeking = true
	f.body(t, id).Velocity = r3.Vec{X: 1}

	s := NewSteeringSystem(f.world, zap.NewNop())
	goal := target.Point{Pos: r3.Vec{X: 10}, Valid: true}

	res := s.Update(f.phys, goal, steering.DefaultParams())
	if res.Arrivals != 1 {
		t.Errorf("expected 1 arrival, got %d", res.Arrivals)
	}
	if f.body(t, id).Velocity != (r3.Vec{}) {
		t.Errorf("arrived agent should be stopped, got %v", f.body(t, id).Velocity)
	}

	res = s.Update(f.phys, goal, steering.DefaultParams())
	if res.Arrivals != 0 {
		t.Errorf("arrival should only count once, got %d", res.Arrivals)
	}
}

func TestSteering_ThresholdScalesWithReadyAgents(t *testing.T) {
	f := newFixture()
	// Six ready agents give a threshold of 3.
	var ids []physics.BodyID
	for range 6 {
		_, id := f.spawn(r3.Vec{X: 7.5}, components.Ready)
		ids = append(ids, id)
	}
	// Loading agents don't count toward the crowd.
	f.spawn(r3.Vec{}, components.Loading)

	s := NewSteeringSystem(f.world, zap.NewNop())
	res := s.Update(f.phys, target.Point{Pos: r3.Vec{X: 10}, Valid: true}, steering.DefaultParams())

	if res.Seeking != 0 || res.Steered != 6 {
		t.Errorf("agents 2.5 away should have arrived with threshold 3, got %+v", res)
	}
}

func TestSteering_MissingBodyIsSkipped(t *testing.T) {
	f := newFixture()
	_, gone := f.spawn(r3.Vec{}, components.Ready)
	_, kept := f.spawn(r3.Vec{}, components.Ready)
	f.phys.RemoveBody(gone)

	s := NewSteeringSystem(f.world, zap.NewNop())
	res := s.Update(f.phys, target.Point{Pos: r3.Vec{X: 10}, Valid: true}, steering.DefaultParams())

	if res.Steered != 1 {
		t.Errorf("expected only the agent with a body steered, got %d", res.Steered)
	}
	if f.body(t, kept).Force() == (r3.Vec{}) {
		t.Error("remaining agent should still be pushed")
	}
}

func TestDrive_WritesThroughWorld(t *testing.T) {
	f := newFixture()
	_, id := f.spawn(r3.Vec{}, components.Ready)
	cmd := steering.Command{
		Velocity:        r3.Vec{X: 1},
		AngularVelocity: r3.Vec{X: 1},
		Force:           r3.Vec{X: 80},
		Seeking:         true,
	}

	if err := drive(f.phys, id, r3.Vec{}, cmd); err != nil {
		t.Fatalf("drive: %v", err)
	}
	b := f.body(t, id)
	if b.Velocity != cmd.Velocity || b.AngularVelocity != cmd.AngularVelocity {
		t.Errorf("velocities not applied: %+v %+v", b.Velocity, b.AngularVelocity)
	}
	if b.Force() != cmd.Force {
		t.Errorf("force = %+v, want %+v", b.Force(), cmd.Force)
	}

	f.phys.RemoveBody(id)
	if err := drive(f.phys, id, r3.Vec{}, cmd); !errors.Is(err, physics.ErrUnknownBody) {
		t.Errorf("expected ErrUnknownBody, got %v", err)
	}
}

// ---------- SyncSystem ----------

func TestSync_CopiesPose(t *testing.T) {
	f := newFixture()
	e, id := f.spawn(r3.Vec{X: 1, Y: 2, Z: 3}, components.Ready)
	b := f.body(t, id)
	b.Orientation.Kmag = 0.5

	s := NewSyncSystem(f.world)
	if n := s.Update(f.phys); n != 1 {
		t.Fatalf("expected 1 synced, got %d", n)
	}

	tr := ecs.NewMap[components.Transform](f.world).Get(e)
	proxy := ecs.NewMap[components.Proxy](f.world).Get(e)
	if tr.Position != b.Position || tr.Orientation != b.Orientation {
		t.Errorf("transform %+v does not match body", *tr)
	}
	if proxy.Position != b.Position {
		t.Errorf("proxy at %v, want %v", proxy.Position, b.Position)
	}
	if tr.Scale != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("scale should be left alone, got %v", tr.Scale)
	}
}

func TestSync_Idempotent(t *testing.T) {
	f := newFixture()
	e, id := f.spawn(r3.Vec{X: 1}, components.Ready)
	f.body(t, id).Velocity = r3.Vec{Y: 1}
	f.phys.Step(1.0 / 60)

	s := NewSyncSystem(f.world)
	trMap := ecs.NewMap[components.Transform](f.world)

	s.Update(f.phys)
	first := *trMap.Get(e)
	s.Update(f.phys)
	second := *trMap.Get(e)

	if first != second {
		t.Errorf("second sync changed transform: %+v -> %+v", first, second)
	}
}

func TestSync_SkipsLoading(t *testing.T) {
	f := newFixture()
	e, _ := f.spawn(r3.Vec{X: 5}, components.Loading)

	NewSyncSystem(f.world).Update(f.phys)

	tr := ecs.NewMap[components.Transform](f.world).Get(e)
	if tr.Position != (r3.Vec{}) {
		t.Errorf("loading agent should not be synced, got %v", tr.Position)
	}
}

func TestVelocityOf(t *testing.T) {
	f := newFixture()
	_, id := f.spawn(r3.Vec{}, components.Ready)
	f.body(t, id).Velocity = r3.Vec{Z: 2}

	if v := VelocityOf(f.phys, components.BodyRef{ID: id}); v.Z != 2 {
		t.Errorf("expected z velocity 2, got %v", v)
	}
	if v := VelocityOf(f.phys, components.BodyRef{ID: 999}); v != (r3.Vec{}) {
		t.Errorf("missing body should read as zero, got %v", v)
	}
}

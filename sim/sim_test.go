package sim

import (
	"math"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/config"
	"github.com/pthm-cable/aquarium/steering"
)

func newTestSim(t *testing.T, opts Options) *Simulation {
	t.Helper()
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	s := New(opts)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIdleUntilFirstTick(t *testing.T) {
	s := newTestSim(t, Options{})
	assert.Equal(t, Idle, s.State())

	res := s.Tick()
	assert.Equal(t, Running, s.State())
	assert.Equal(t, int64(1), res.Tick)
}

func TestProceduralAgentReadyAfterOneTick(t *testing.T) {
	s := newTestSim(t, Options{})
	_, err := s.SpawnAgentAt("", r3.Vec{X: 1})
	require.NoError(t, err)

	views := s.Agents()
	require.Len(t, views, 1)
	assert.Equal(t, components.Loading, views[0].Agent.State)
	assert.Zero(t, s.Physics().Len(), "no body before the sync point")

	res := s.Tick()
	assert.Equal(t, 1, res.Loaded)
	views = s.Agents()
	assert.Equal(t, components.Ready, views[0].Agent.State)
	assert.Equal(t, r3.Vec{X: 1}, views[0].Transform.Position)
	assert.Equal(t, 1, s.Physics().Len())
}

func TestConvergesToTarget(t *testing.T) {
	cfg := config.Default()
	cfg.Steering.ForceIntensity = 80
	cfg.Steering.MaxVelocity = 2
	cfg.Agents.Mass = 1
	s := newTestSim(t, Options{Config: cfg})

	_, err := s.SpawnAgentAt("", r3.Vec{})
	require.NoError(t, err)
	goal := r3.Vec{X: 10}
	s.Target().Set(goal)

	arrivals := 0
	for i := 0; i < 600; i++ {
		arrivals += s.Tick().Steering.Arrivals
	}

	views := s.Agents()
	require.Len(t, views, 1)
	a := views[0]
	dist := r3.Norm(r3.Sub(goal, a.Transform.Position))
	assert.LessOrEqual(t, dist, 3.0)
	assert.LessOrEqual(t, dist, steering.ArrivalThreshold(1, s.Params())+1e-9)
	assert.False(t, a.Seeker.Seeking)
	assert.Equal(t, [3]float64{}, a.Velocity)
	assert.Equal(t, 1, arrivals)

	// Holds position once arrived.
	held := a.Transform.Position
	for i := 0; i < 60; i++ {
		s.Tick()
	}
	assert.Equal(t, held, s.Agents()[0].Transform.Position)
}

func TestVelocityStaysCappedWhileSeeking(t *testing.T) {
	cfg := config.Default()
	cfg.Steering.MaxVelocity = 3
	s := newTestSim(t, Options{Config: cfg})

	_, err := s.SpawnAgentAt("", r3.Vec{})
	require.NoError(t, err)
	s.Target().Set(r3.Vec{X: 50, Y: -50})

	for i := 0; i < 120; i++ {
		s.Tick()
		v := s.Agents()[0].Velocity
		for _, c := range v {
			assert.LessOrEqual(t, math.Abs(c), 3.0+1e-9)
		}
	}
}

func TestNoTargetNeverMoves(t *testing.T) {
	s := newTestSim(t, Options{})
	_, err := s.SpawnAgentAt("", r3.Vec{X: 2, Y: 2})
	require.NoError(t, err)

	for i := 0; i < 120; i++ {
		res := s.Tick()
		assert.Zero(t, res.Steering.Steered)
	}
	assert.Equal(t, r3.Vec{X: 2, Y: 2}, s.Agents()[0].Transform.Position)
}

func TestParamsApplyAtNextTick(t *testing.T) {
	s := newTestSim(t, Options{})
	p := s.Params()
	p.MaxVelocity = 9
	s.SetParams(p)
	assert.Equal(t, 2.0, s.Params().MaxVelocity, "not applied until the sync point")

	s.Tick()
	assert.Equal(t, 9.0, s.Params().MaxVelocity)
}

func TestApplyConfigKeepsTickRate(t *testing.T) {
	s := newTestSim(t, Options{})
	cfg := config.Default()
	cfg.Steering.ForceIntensity = 12
	cfg.Physics.DT = 1
	s.ApplyConfig(cfg)

	s.Tick()
	assert.Equal(t, 12.0, s.Params().ForceIntensity)
	assert.InDelta(t, 1.0/60, s.Config().Physics.DT, 1e-12)
}

func modelFS() fstest.MapFS {
	return fstest.MapFS{
		"fish.obj": {Data: []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")},
	}
}

func TestFileAssetLoads(t *testing.T) {
	s := newTestSim(t, Options{Assets: modelFS()})
	_, err := s.SpawnAgent("fish.obj")
	require.NoError(t, err)

	s.WaitForAssets()
	res := s.Tick()
	assert.Equal(t, 1, res.Loaded)
	assert.Equal(t, components.Ready, s.Agents()[0].Agent.State)
}

func TestFailedAssetRemovesAgent(t *testing.T) {
	s := newTestSim(t, Options{Assets: modelFS()})
	_, err := s.SpawnAgent("missing.glb")
	require.NoError(t, err)

	s.WaitForAssets()
	res := s.Tick()
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, s.Agents())
	assert.Zero(t, s.Physics().Len())
}

func TestCompletionAfterClearIsDropped(t *testing.T) {
	s := newTestSim(t, Options{Assets: modelFS()})
	_, err := s.SpawnAgent("fish.obj")
	require.NoError(t, err)
	_, err = s.SpawnAgent("")
	require.NoError(t, err)

	s.Clear()
	s.WaitForAssets()
	res := s.Tick()

	assert.Zero(t, res.Loaded)
	assert.Empty(t, s.Agents())
	assert.Zero(t, s.Physics().Len())
}

func TestRemoveAgent(t *testing.T) {
	s := newTestSim(t, Options{})
	id, err := s.SpawnAgentAt("", r3.Vec{})
	require.NoError(t, err)
	s.Tick()
	require.Equal(t, 1, s.Physics().Len())

	require.NoError(t, s.RemoveAgent(id))
	assert.Zero(t, s.Physics().Len())
	assert.Zero(t, s.Len())
	assert.ErrorIs(t, s.RemoveAgent(id), ErrUnknownAgent)
}

func TestSpawnCyclesModelsAndStaysInRadius(t *testing.T) {
	cfg := config.Default()
	cfg.Agents.Models = []string{"", "fish.obj"}
	s := newTestSim(t, Options{Config: cfg, Assets: modelFS(), Seed: 7})

	require.NoError(t, s.Spawn(4))
	views := s.Agents()
	require.Len(t, views, 4)
	for i, v := range views {
		assert.Equal(t, i, v.Agent.Index)
		assert.Equal(t, cfg.Agents.Models[i%2], v.Appearance.Asset)
		assert.LessOrEqual(t, r3.Norm(v.Transform.Position), cfg.Agents.SpawnRadius+1e-9)
	}
}

func TestSpawnAfterCloseFails(t *testing.T) {
	s := New(Options{Config: config.Default()})
	require.NoError(t, s.Close())

	_, err := s.SpawnAgent("")
	assert.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestTelemetryWindowFlushes(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.StatsWindow = 0.5
	s := newTestSim(t, Options{Config: cfg})
	require.NoError(t, s.Spawn(3))
	s.Target().Set(r3.Vec{X: 8})

	for i := 0; i < 30; i++ {
		s.Tick()
	}
	stats := s.LastStats()
	assert.Equal(t, int64(30), stats.WindowEndTick)
	assert.Equal(t, 3, stats.Agents)
	assert.Equal(t, 3, stats.Ready)
	assert.Equal(t, 3, stats.Spawned)
	assert.True(t, stats.TargetValid)
	assert.Greater(t, stats.DistanceMean, 0.0)
}

func TestApplyConfigReachesExistingBodies(t *testing.T) {
	s := newTestSim(t, Options{})
	_, err := s.SpawnAgentAt("", r3.Vec{})
	require.NoError(t, err)
	s.Tick()
	require.Equal(t, 1, s.Physics().Len())

	cfg := config.Default()
	cfg.Physics.LinearDamping = 0.5
	cfg.Physics.AngularDamping = 0.25
	s.ApplyConfig(cfg)
	s.Tick()

	body := s.Physics().Bodies()[0]
	assert.Equal(t, 0.5, body.LinearDamping)
	assert.Equal(t, 0.25, body.AngularDamping)
}

func TestBodyShapeFollowsConfig(t *testing.T) {
	s := newTestSim(t, Options{})
	_, err := s.SpawnAgentAt("", r3.Vec{X: 1})
	require.NoError(t, err)
	s.Tick()

	view := s.Agents()[0]
	body := s.Physics().Bodies()[0]
	assert.Equal(t, view.Proxy.Bounds(), body.AABB(), "box body matches the bounds proxy")

	cfg := config.Default()
	cfg.Agents.Shape = "sphere"
	cfg.Agents.Radius = 0.3
	s2 := newTestSim(t, Options{Config: cfg})
	_, err = s2.SpawnAgentAt("", r3.Vec{})
	require.NoError(t, err)
	s2.Tick()
	box := s2.Physics().Bodies()[0].AABB()
	assert.InDelta(t, 0.3, box.Max.X, 1e-12)
}

func TestClearEmptiesPhysics(t *testing.T) {
	s := newTestSim(t, Options{})
	require.NoError(t, s.Spawn(3))
	s.Tick()
	require.Equal(t, 3, s.Physics().Len())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Physics().Len())
	assert.Empty(t, s.Physics().PotentialContacts())
}

func TestPendingLoadsDrainToZero(t *testing.T) {
	s := newTestSim(t, Options{Assets: modelFS()})
	_, err := s.SpawnAgent("fish.obj")
	require.NoError(t, err)

	s.WaitForAssets()
	assert.Zero(t, s.PendingLoads())
	s.Tick()
	assert.Equal(t, components.Ready, s.Agents()[0].Agent.State)
}

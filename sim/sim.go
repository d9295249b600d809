// Package sim drives the aquarium: one fixed-step tick advances physics,
// steers every agent toward the shared target and syncs visual transforms.
// It has no rendering dependency and runs headless.
package sim

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/assets"
	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/config"
	"github.com/pthm-cable/aquarium/physics"
	"github.com/pthm-cable/aquarium/steering"
	"github.com/pthm-cable/aquarium/systems"
	"github.com/pthm-cable/aquarium/target"
	"github.com/pthm-cable/aquarium/telemetry"
)

// ErrUnknownAgent is returned for agent ids that are not in the simulation.
var ErrUnknownAgent = errors.New("sim: unknown agent")

// State is the frame driver lifecycle.
type State uint8

const (
	Idle    State = iota // created, no tick yet
	Running              // at least one tick has run
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Options configures a Simulation.
type Options struct {
	Config *config.Config
	Assets fs.FS                    // model files; nil means procedural only
	Logger *zap.Logger              // nil means no logging
	Output *telemetry.OutputManager // nil disables CSV output
	Seed   int64
}

// TickResult summarizes one tick for the host loop.
type TickResult struct {
	Tick     int64
	Steering systems.SteeringResult
	Synced   int
	Loaded   int
	Failed   int
}

// Simulation owns the ECS world, the physics world, the shared target, the
// steering parameters and the asset loader.
type Simulation struct {
	cfg *config.Config
	log *zap.Logger
	rng *rand.Rand

	world  *ecs.World
	mapper *ecs.Map6[
		components.Agent,
		components.BodyRef,
		components.Seeker,
		components.Transform,
		components.Proxy,
		components.Appearance,
	]
	filter *ecs.Filter6[
		components.Agent,
		components.BodyRef,
		components.Seeker,
		components.Transform,
		components.Proxy,
		components.Appearance,
	]
	agentMap *ecs.Map[components.Agent]
	refMap   *ecs.Map[components.BodyRef]
	trMap    *ecs.Map[components.Transform]
	proxyMap *ecs.Map[components.Proxy]
	byID     map[uuid.UUID]ecs.Entity

	phys     *physics.World
	steering *systems.SteeringSystem
	sync     *systems.SyncSystem
	loader   *assets.Loader
	target   *target.Shared

	params steering.Params

	// Updates from other goroutines, applied at the next tick.
	mu            sync.Mutex
	pendingParams *steering.Params
	pendingConfig *config.Config

	state     State
	tick      int64
	nextIndex int

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	lastStats telemetry.WindowStats
}

// New creates an idle simulation with no agents.
func New(opts Options) *Simulation {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fsys := opts.Assets
	if fsys == nil {
		fsys = emptyFS{}
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:   cfg,
		log:   log,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		world: world,
		mapper: ecs.NewMap6[
			components.Agent,
			components.BodyRef,
			components.Seeker,
			components.Transform,
			components.Proxy,
			components.Appearance,
		](world),
		filter: ecs.NewFilter6[
			components.Agent,
			components.BodyRef,
			components.Seeker,
			components.Transform,
			components.Proxy,
			components.Appearance,
		](world),
		agentMap: ecs.NewMap[components.Agent](world),
		refMap:   ecs.NewMap[components.BodyRef](world),
		trMap:    ecs.NewMap[components.Transform](world),
		proxyMap: ecs.NewMap[components.Proxy](world),
		byID:     make(map[uuid.UUID]ecs.Entity),

		phys: physics.NewWorld(physics.Options{
			Gravity:        vec(cfg.Physics.Gravity),
			LinearDamping:  cfg.Physics.LinearDamping,
			AngularDamping: cfg.Physics.AngularDamping,
			BroadphaseCell: cfg.Physics.BroadphaseCell,
		}),
		steering: systems.NewSteeringSystem(world, log),
		sync:     systems.NewSyncSystem(world),
		loader:   assets.NewLoader(fsys, cfg.Assets.Concurrency, log),
		target:   &target.Shared{},
		params:   ParamsFromConfig(cfg),

		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		output:    opts.Output,
	}
	return s
}

// ParamsFromConfig extracts steering parameters from the config.
func ParamsFromConfig(cfg *config.Config) steering.Params {
	sc := cfg.Steering
	return steering.Params{
		ForceIntensity:       sc.ForceIntensity,
		MaxVelocity:          sc.MaxVelocity,
		NearFieldDistance:    sc.NearFieldDistance,
		NearFieldMaxVelocity: sc.NearFieldMaxVelocity,
		ArrivalPerAgent:      sc.ArrivalPerAgent,
		ArrivalCap:           sc.ArrivalCap,
	}
}

// Tick advances the simulation by one fixed step.
//
// Order: apply pending updates and finished asset loads, snapshot the
// target, step physics, steer, sync transforms, then telemetry. Forces
// applied by steering are integrated by the next tick's physics step.
func (s *Simulation) Tick() TickResult {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseAssets)
	s.applyPending()
	loaded, failed := s.drainAssets()
	goal := s.target.Snapshot()

	s.perf.StartPhase(telemetry.PhasePhysics)
	s.phys.Step(s.cfg.Physics.DT)

	s.perf.StartPhase(telemetry.PhaseSteering)
	steer := s.steering.Update(s.phys, goal, s.params)
	s.collector.RecordArrivals(steer.Arrivals)

	s.perf.StartPhase(telemetry.PhaseSync)
	synced := s.sync.Update(s.phys)

	s.perf.EndTick()

	s.tick++
	s.state = Running
	s.flushTelemetry(goal)

	return TickResult{
		Tick:     s.tick,
		Steering: steer,
		Synced:   synced,
		Loaded:   loaded,
		Failed:   failed,
	}
}

// Spawn creates n agents at random positions, cycling through the
// configured models.
func (s *Simulation) Spawn(n int) error {
	models := s.cfg.Agents.Models
	if len(models) == 0 {
		models = []string{""}
	}
	for i := 0; i < n; i++ {
		if _, err := s.SpawnAgent(models[s.nextIndex%len(models)]); err != nil {
			return err
		}
	}
	return nil
}

// SpawnAgent creates one agent at a random point within the spawn radius.
func (s *Simulation) SpawnAgent(asset string) (uuid.UUID, error) {
	return s.SpawnAgentAt(asset, s.randomSpawnPoint())
}

// SpawnAgentAt creates one agent at pos. The agent stays Loading until its
// asset finishes; an empty asset uses the procedural mesh.
func (s *Simulation) SpawnAgentAt(asset string, pos r3.Vec) (uuid.UUID, error) {
	id := uuid.New()
	index := s.nextIndex
	s.nextIndex++

	agent := components.Agent{ID: id, Index: index, State: components.Loading}
	ref := components.BodyRef{}
	seeker := components.Seeker{}
	tr := components.NewTransform(pos)
	h := s.cfg.Agents.BoundsHalfExtent
	proxy := components.Proxy{Position: pos, HalfExtents: r3.Vec{X: h, Y: h, Z: h}}
	app := components.Appearance{
		Asset:     asset,
		Tint:      float32(index%5) / 5,
		AnimPhase: s.rng.Float32(),
	}
	e := s.mapper.NewEntity(&agent, &ref, &seeker, &tr, &proxy, &app)
	s.byID[id] = e

	if err := s.loader.Load(assets.Request{AgentID: id, Path: asset}); err != nil {
		s.world.RemoveEntity(e)
		delete(s.byID, id)
		return uuid.Nil, fmt.Errorf("spawning agent: %w", err)
	}
	s.collector.RecordSpawn()
	return id, nil
}

func (s *Simulation) randomSpawnPoint() r3.Vec {
	// Uniform in a sphere by rejection.
	r := s.cfg.Agents.SpawnRadius
	for {
		p := r3.Vec{
			X: s.rng.Float64()*2 - 1,
			Y: s.rng.Float64()*2 - 1,
			Z: s.rng.Float64()*2 - 1,
		}
		if r3.Norm2(p) <= 1 {
			return r3.Scale(r, p)
		}
	}
}

// RemoveAgent deletes an agent and its body.
func (s *Simulation) RemoveAgent(id uuid.UUID) error {
	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	s.removeEntity(id, e)
	return nil
}

func (s *Simulation) removeEntity(id uuid.UUID, e ecs.Entity) {
	if s.world.Alive(e) {
		if ref := s.refMap.Get(e); ref.ID != 0 {
			s.phys.RemoveBody(ref.ID)
		}
		s.world.RemoveEntity(e)
	}
	delete(s.byID, id)
	s.collector.RecordRemoval()
}

// Clear removes every agent and body. Loads still in flight are discarded
// when they complete.
func (s *Simulation) Clear() {
	for id, e := range s.byID {
		s.removeEntity(id, e)
	}
	s.phys.Clear()
}

// bodyShape returns the collision shape for new agent bodies.
func (s *Simulation) bodyShape() physics.Shape {
	ac := s.cfg.Agents
	if ac.Shape == "sphere" {
		return physics.Sphere{Radius: ac.Radius}
	}
	h := ac.BoundsHalfExtent
	return physics.Box{HalfExtents: r3.Vec{X: h, Y: h, Z: h}}
}

// drainAssets turns finished loads into ready agents, or removes agents whose
// asset failed. Results for agents that are already gone are dropped.
func (s *Simulation) drainAssets() (loaded, failed int) {
	for _, res := range s.loader.Drain() {
		e, ok := s.byID[res.AgentID]
		if !ok || !s.world.Alive(e) {
			s.log.Debug("dropping asset result for removed agent",
				zap.Stringer("agent", res.AgentID),
				zap.String("path", res.Path),
			)
			continue
		}

		agent := s.agentMap.Get(e)
		if res.Err != nil {
			agent.State = components.Failed
			s.collector.RecordLoadFailure()
			s.log.Warn("removing agent after asset failure",
				zap.Stringer("agent", res.AgentID),
				zap.Error(res.Err),
			)
			s.removeEntity(res.AgentID, e)
			failed++
			continue
		}

		tr := s.trMap.Get(e)
		body := physics.NewBody(tr.Position, s.cfg.Agents.Mass, s.bodyShape())
		s.refMap.Get(e).ID = s.phys.AddBody(body)
		tr.Orientation = body.Orientation
		s.proxyMap.Get(e).Position = body.Position
		agent.State = components.Ready
		loaded++
	}
	return loaded, failed
}

// SetParams replaces the steering parameters from the next tick on.
// Safe to call from any goroutine.
func (s *Simulation) SetParams(p steering.Params) {
	s.mu.Lock()
	s.pendingParams = &p
	s.mu.Unlock()
}

// ApplyConfig schedules a reloaded config. Steering parameters and physics
// world settings take effect at the next tick; spawn settings apply to
// agents created afterwards. Safe to call from any goroutine.
func (s *Simulation) ApplyConfig(cfg *config.Config) {
	s.mu.Lock()
	s.pendingConfig = cfg
	s.mu.Unlock()
}

func (s *Simulation) applyPending() {
	s.mu.Lock()
	p, cfg := s.pendingParams, s.pendingConfig
	s.pendingParams, s.pendingConfig = nil, nil
	s.mu.Unlock()

	if cfg != nil {
		dt := s.cfg.Physics.DT
		s.cfg = cfg
		// The tick rate is fixed for the lifetime of the simulation.
		s.cfg.Physics.DT = dt
		s.params = ParamsFromConfig(cfg)
		s.phys.SetGravity(vec(cfg.Physics.Gravity))
		s.phys.SetDamping(cfg.Physics.LinearDamping, cfg.Physics.AngularDamping)
		s.log.Info("config applied", zap.Int64("tick", s.tick))
	}
	if p != nil {
		s.params = *p
	}
}

// Params returns the steering parameters in effect.
func (s *Simulation) Params() steering.Params {
	return s.params
}

// Config returns the config in effect.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// Target returns the shared goal that input writes into.
func (s *Simulation) Target() *target.Shared {
	return s.target
}

// Physics returns the physics world.
func (s *Simulation) Physics() *physics.World {
	return s.phys
}

// State returns the lifecycle state.
func (s *Simulation) State() State {
	return s.state
}

// TickCount returns how many ticks have run.
func (s *Simulation) TickCount() int64 {
	return s.tick
}

// Len returns the number of agents in any state.
func (s *Simulation) Len() int {
	return len(s.byID)
}

// Agents returns a snapshot of every agent ordered by spawn index.
func (s *Simulation) Agents() []components.AgentView {
	out := make([]components.AgentView, 0, len(s.byID))
	query := s.filter.Query()
	for query.Next() {
		agent, ref, seeker, tr, proxy, app := query.Get()
		v := systems.VelocityOf(s.phys, *ref)
		out = append(out, components.AgentView{
			Agent:      *agent,
			Transform:  *tr,
			Proxy:      *proxy,
			Seeker:     *seeker,
			Appearance: *app,
			Velocity:   [3]float64{v.X, v.Y, v.Z},
		})
	}
	slices.SortFunc(out, func(a, b components.AgentView) int {
		return a.Agent.Index - b.Agent.Index
	})
	return out
}

// PendingLoads returns the number of asset loads still in flight.
func (s *Simulation) PendingLoads() int {
	return s.loader.Pending()
}

// WaitForAssets blocks until every requested asset has finished loading.
// Results are still applied at the next tick.
func (s *Simulation) WaitForAssets() {
	s.loader.Wait()
}

// LastStats returns the most recently flushed telemetry window.
func (s *Simulation) LastStats() telemetry.WindowStats {
	return s.lastStats
}

// Perf returns the phase timing collector.
func (s *Simulation) Perf() *telemetry.PerfCollector {
	return s.perf
}

// Close stops the asset loader. The simulation must not be ticked afterwards.
func (s *Simulation) Close() error {
	return s.loader.Close()
}

func (s *Simulation) flushTelemetry(goal target.Point) {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.sample(goal))
	s.lastStats = stats
	perf := s.perf.Stats()
	s.log.Info("stats", zap.Object("window", stats))
	s.log.Debug("perf", zap.Object("perf", perf))

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.log.Error("failed to write telemetry", zap.Error(err))
	}
	if err := s.output.WritePerf(perf, s.tick); err != nil {
		s.log.Error("failed to write perf", zap.Error(err))
	}
}

func (s *Simulation) sample(goal target.Point) telemetry.Sample {
	sample := telemetry.Sample{
		PotentialContacts: len(s.phys.PotentialContacts()),
		TargetValid:       goal.Valid,
	}
	query := s.filter.Query()
	for query.Next() {
		agent, _, seeker, _, _, _ := query.Get()
		sample.Agents++
		switch agent.State {
		case components.Loading:
			sample.Loading++
			continue
		case components.Ready:
			sample.Ready++
		default:
			continue
		}
		if seeker.Seeking {
			sample.Seeking++
		}
		if goal.Valid {
			sample.Distances = append(sample.Distances, seeker.Distance)
		}
	}
	for _, b := range s.phys.Bodies() {
		v := b.Velocity
		sample.MaxVelocity = math.Max(sample.MaxVelocity, math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z))))
	}
	return sample
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// emptyFS has no files; every model load fails with fs.ErrNotExist.
type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

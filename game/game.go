// Package game wires the simulation to the window: input, rendering, the
// parameter panel and config hot reload.
package game

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/camera"
	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/config"
	"github.com/pthm-cable/aquarium/inspector"
	"github.com/pthm-cable/aquarium/renderer"
	"github.com/pthm-cable/aquarium/sim"
	"github.com/pthm-cable/aquarium/steering"
	"github.com/pthm-cable/aquarium/target"
	"github.com/pthm-cable/aquarium/telemetry"
	"github.com/pthm-cable/aquarium/tween"
	"github.com/pthm-cable/aquarium/ui"
)

// Options configures a Game.
type Options struct {
	Config         *config.Config
	ConfigPath     string // watched for changes when Watch is set
	Watch          bool
	Seed           int64
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	Logger         *zap.Logger
	Assets         fs.FS    // defaults to os.DirFS(Config.Assets.Dir)
	Target         *r3.Vec // fixed goal, mainly for headless runs
}

// Game holds the complete application state.
type Game struct {
	cfg *config.Config
	log *zap.Logger

	sim      *sim.Simulation
	cam      *camera.Camera
	resolver *target.Resolver
	output   *telemetry.OutputManager
	watcher  *config.Watcher

	// Desired steering parameters; pushed to the simulation on change.
	params steering.Params

	// Rendering and UI, nil when headless.
	scene      *renderer.Scene
	panel      *ui.ControlsPanel
	hud        *ui.HUD
	perfPanel  *ui.PerfPanel
	agentPanel *ui.AgentPanel
	overlays   *ui.OverlayRegistry
	inspector  *inspector.Inspector

	beacon        *tween.Tween
	beaconVisible bool

	views []components.AgentView

	headless       bool
	paused         bool
	stepsPerUpdate int
	seed           int64
	width, height  float64
}

// NewGameWithOptions creates the simulation, spawns the initial agents and,
// unless headless, the renderer and UI. Graphical games must be created
// after the window is open.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	if err := output.WriteConfig(cfg); err != nil {
		_ = output.Close()
		return nil, fmt.Errorf("write config snapshot: %w", err)
	}

	assets := opts.Assets
	if assets == nil {
		assets = os.DirFS(cfg.Assets.Dir)
	}

	s := sim.New(sim.Options{
		Config: cfg,
		Assets: assets,
		Logger: log,
		Output: output,
		Seed:   opts.Seed,
	})

	w, h := float64(cfg.Screen.Width), float64(cfg.Screen.Height)
	cam := camera.New(w, h, cfg.Scene.CameraFOV, cfg.Scene.CameraDistance)

	ease, err := tween.ByName(cfg.Beacon.Ease)
	if err != nil {
		log.Warn("unknown beacon ease, using linear", zap.Error(err))
		ease = tween.Linear
	}

	g := &Game{
		cfg: cfg,
		log: log,
		sim: s,
		cam: cam,
		resolver: &target.Resolver{
			Camera: cam,
			Plane: target.Plane{
				Point:  vec(cfg.Target.PlanePoint),
				Normal: vec(cfg.Target.PlaneNormal),
			},
			Shared: s.Target(),
		},
		output:         output,
		params:         sim.ParamsFromConfig(cfg),
		beacon:         tween.New(r3.Vec{}, cfg.Beacon.Duration, ease),
		headless:       opts.Headless,
		stepsPerUpdate: steps,
		seed:           opts.Seed,
		width:          w,
		height:         h,
	}

	if opts.Target != nil {
		s.Target().Set(*opts.Target)
		g.beacon = tween.New(*opts.Target, cfg.Beacon.Duration, ease)
		g.beaconVisible = true
	}

	if opts.Watch && opts.ConfigPath != "" {
		g.watcher, err = config.NewWatcher(opts.ConfigPath, log)
		if err != nil {
			_ = g.Unload()
			return nil, fmt.Errorf("watch config: %w", err)
		}
	}

	if !opts.Headless {
		g.initUI()
	}

	if err := s.Spawn(cfg.Agents.Count); err != nil {
		_ = g.Unload()
		return nil, fmt.Errorf("spawn agents: %w", err)
	}

	log.Info("game created",
		zap.Bool("headless", opts.Headless),
		zap.Int("agents", cfg.Agents.Count),
		zap.Int64("seed", opts.Seed),
		zap.String("output_dir", output.Dir()),
	)
	return g, nil
}

func (g *Game) initUI() {
	g.scene = renderer.NewScene(g.cfg, g.seed, g.log)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(10, int32(g.height)-140)
	g.agentPanel = ui.NewAgentPanel(4)
	g.overlays = ui.NewOverlayRegistry()
	g.inspector = inspector.NewInspector(int32(g.width))

	g.overlays.SetEnabled(ui.OverlayBounds, g.cfg.Scene.ShowBounds)
	g.overlays.SetEnabled(ui.OverlayAxes, g.cfg.Scene.ShowAxes)
	g.overlays.SetEnabled(ui.OverlayParticles, g.scene.ShowParticles)

	g.panel = ui.NewControlsPanel(10, 10, 240, ui.DefaultControls(), ui.Callbacks{
		OnFloat:  g.onFloat,
		OnBool:   g.onBool,
		OnColor:  g.onColor,
		OnAction: g.onAction,
	})
	g.syncPanel()
}

// Update runs one frame: input, config reload, simulation steps and
// animation.
func (g *Game) Update() {
	if g.headless {
		g.UpdateHeadless()
		return
	}
	g.handleInput()
	g.pollConfig()

	if !g.paused {
		for i := 0; i < g.stepsPerUpdate; i++ {
			g.sim.Tick()
		}
	}

	g.views = g.sim.Agents()
	dt := g.cfg.Physics.DT
	if g.paused {
		dt = 0
	}
	g.beacon.Update(dt)
	if g.scene != nil {
		g.scene.Update(g.views, dt)
	}
	g.sim.Perf().RecordFrame()
}

// UpdateHeadless runs simulation steps without input or rendering.
func (g *Game) UpdateHeadless() {
	g.pollConfig()
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.sim.Tick()
	}
}

// pollConfig applies any reloaded config without blocking.
func (g *Game) pollConfig() {
	if g.watcher == nil {
		return
	}
	select {
	case cfg, ok := <-g.watcher.Updates:
		if ok {
			g.applyConfig(cfg)
		}
	case err, ok := <-g.watcher.Errors:
		if ok {
			g.log.Warn("config reload failed, keeping previous config", zap.Error(err))
		}
	default:
	}
}

func (g *Game) applyConfig(cfg *config.Config) {
	g.sim.ApplyConfig(cfg)
	// Keep the fixed step the simulation is running at.
	cfg.Physics.DT = g.cfg.Physics.DT
	g.cfg = cfg
	g.params = sim.ParamsFromConfig(cfg)
	g.resolver.Plane = target.Plane{Point: vec(cfg.Target.PlanePoint), Normal: vec(cfg.Target.PlaneNormal)}
	g.cam.SetDistance(cfg.Scene.CameraDistance)
	if g.scene != nil {
		g.scene.MainColor = rlColor(cfg.Derived.MainColor)
		g.scene.Background = rlColor(cfg.Derived.Background)
		g.setBounds(cfg.Scene.ShowBounds)
		g.syncPanel()
	}
	g.log.Info("config reloaded",
		zap.Float64("force_intensity", g.params.ForceIntensity),
		zap.Float64("max_velocity", g.params.MaxVelocity),
	)
}

// Respawn clears every agent and spawns the configured count again.
func (g *Game) Respawn() error {
	g.sim.Clear()
	return g.sim.Spawn(g.cfg.Agents.Count)
}

// Sim returns the simulation.
func (g *Game) Sim() *sim.Simulation {
	return g.sim
}

// Camera returns the camera.
func (g *Game) Camera() *camera.Camera {
	return g.cam
}

// Params returns the steering parameters the game last requested.
func (g *Game) Params() steering.Params {
	return g.params
}

// Tick returns the simulation tick count.
func (g *Game) Tick() int64 {
	return g.sim.TickCount()
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// Unload stops background work and releases GPU resources.
func (g *Game) Unload() error {
	var errs []error
	if g.watcher != nil {
		errs = append(errs, g.watcher.Close())
	}
	errs = append(errs, g.sim.Close())
	if g.scene != nil {
		g.scene.Unload()
	}
	errs = append(errs, g.output.Close())
	return errors.Join(errs...)
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// Package renderer draws the aquarium with raylib. It only reads simulation
// state; nothing here feeds back into steering or physics.
package renderer

import (
	"math"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/camera"
	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/config"
)

const (
	animFPS = 24.0
	// Procedural fish body proportions relative to the agent radius.
	bodyLength = 1.4
	bodyHeight = 0.7
	bodyWidth  = 0.6
)

type modelEntry struct {
	model rl.Model
	anims []rl.ModelAnimation
}

// Beacon is the target marker.
type Beacon struct {
	Pos     r3.Vec
	Visible bool
	Settled bool // tween finished, face the camera
}

// Scene renders agents, debug proxies, the beacon and the particle field.
// Models are loaded lazily on the render thread, since raylib needs the GL
// context.
type Scene struct {
	log      *zap.Logger
	assetDir string
	radius   float64

	models   map[string]*modelEntry
	fallback rl.Model
	hasMesh  bool
	phases   map[uuid.UUID]float64

	Particles     *ParticleField
	MainColor     rl.Color
	Background    rl.Color
	ShowBounds    bool
	ShowAxes      bool
	ShowParticles bool
}

// NewScene creates a renderer for cfg. Must be called after InitWindow.
func NewScene(cfg *config.Config, seed int64, log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	pc := cfg.Particles
	return &Scene{
		log:           log,
		assetDir:      cfg.Assets.Dir,
		radius:        cfg.Agents.Radius,
		models:        make(map[string]*modelEntry),
		phases:        make(map[uuid.UUID]float64),
		Particles:     NewParticleField(pc.Count, pc.Range, pc.Size, pc.Drift, seed),
		MainColor:     rlColor(cfg.Derived.MainColor),
		Background:    rlColor(cfg.Derived.Background),
		ShowBounds:    cfg.Scene.ShowBounds,
		ShowAxes:      cfg.Scene.ShowAxes,
		ShowParticles: pc.Count > 0,
	}
}

// Update advances particle drift and per-agent animation clocks.
func (s *Scene) Update(agents []components.AgentView, dt float64) {
	s.Particles.Update(dt)

	live := make(map[uuid.UUID]struct{}, len(agents))
	for i := range agents {
		a := &agents[i]
		live[a.Agent.ID] = struct{}{}
		v := a.Velocity
		speed := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		// Swim faster when moving faster.
		s.phases[a.Agent.ID] += dt * animFPS * (1 + speed)
	}
	for id := range s.phases {
		if _, ok := live[id]; !ok {
			delete(s.phases, id)
		}
	}
}

// Draw renders one frame of the 3D scene. The caller owns
// BeginDrawing/EndDrawing so 2D overlays can follow.
func (s *Scene) Draw(cam *camera.Camera, agents []components.AgentView, beacon Beacon) {
	rl.ClearBackground(s.Background)
	rl.BeginMode3D(Camera3D(cam))

	if s.ShowAxes {
		drawAxes(1)
	}
	if s.ShowParticles {
		s.Particles.Draw(s.MainColor)
	}

	for i := range agents {
		a := &agents[i]
		if a.Agent.State != components.Ready {
			continue
		}
		s.drawAgent(a)
		if s.ShowBounds {
			b := a.Proxy.Bounds()
			rl.DrawBoundingBox(rl.NewBoundingBox(vec3(b.Min), vec3(b.Max)), rl.Lime)
		}
	}

	if beacon.Visible {
		s.drawBeacon(cam, beacon)
	}

	rl.EndMode3D()
}

func (s *Scene) drawAgent(a *components.AgentView) {
	axis, angle := axisAngle(a.Transform.Orientation)
	tint := shade(s.MainColor, float64(a.Appearance.Tint)*0.6)

	if m := s.model(a.Appearance.Asset); m != nil {
		if len(m.anims) > 0 {
			anim := m.anims[0]
			if anim.FrameCount > 0 {
				frame := int32(s.phases[a.Agent.ID]+float64(a.Appearance.AnimPhase)*float64(anim.FrameCount)) % anim.FrameCount
				rl.UpdateModelAnimation(m.model, anim, frame)
			}
		}
		rl.DrawModelEx(m.model, vec3(a.Transform.Position), vec3(axis), float32(angle), vec3(a.Transform.Scale), rl.White)
		return
	}

	r := s.radius
	sc := a.Transform.Scale
	scale := r3.Vec{X: sc.X * r * bodyLength, Y: sc.Y * r * bodyHeight, Z: sc.Z * r * bodyWidth}
	rl.DrawModelEx(s.procedural(), vec3(a.Transform.Position), vec3(axis), float32(angle), vec3(scale), tint)
}

// model returns the cached model for asset, loading it on first use. Empty
// assets and models raylib could not load use the procedural mesh.
func (s *Scene) model(asset string) *modelEntry {
	if asset == "" {
		return nil
	}
	if m, ok := s.models[asset]; ok {
		return m
	}
	path := filepath.Join(s.assetDir, asset)
	model := rl.LoadModel(path)
	if model.MeshCount == 0 {
		s.log.Warn("model has no meshes, using procedural mesh", zap.String("path", path))
		s.models[asset] = nil
		return nil
	}
	m := &modelEntry{model: model}
	if filepath.Ext(path) != ".obj" {
		m.anims = rl.LoadModelAnimations(path)
	}
	s.log.Debug("model loaded",
		zap.String("path", path),
		zap.Int32("meshes", model.MeshCount),
		zap.Int("animations", len(m.anims)),
	)
	s.models[asset] = m
	return m
}

func (s *Scene) procedural() rl.Model {
	if !s.hasMesh {
		s.fallback = rl.LoadModelFromMesh(rl.GenMeshSphere(1, 12, 16))
		s.hasMesh = true
	}
	return s.fallback
}

func (s *Scene) drawBeacon(cam *camera.Camera, b Beacon) {
	pos := vec3(b.Pos)
	normal := r3.Vec{Z: 1}
	if b.Settled {
		normal = r3.Sub(cam.Position, b.Pos)
	}
	axis, angle := facing(normal)
	ring := shade(s.MainColor, 0.5)
	rl.DrawCircle3D(pos, 0.35, vec3(axis), float32(angle), ring)
	rl.DrawCircle3D(pos, 0.25, vec3(axis), float32(angle), ring)
	rl.DrawSphere(pos, 0.06, rl.RayWhite)
}

func drawAxes(length float32) {
	o := rl.NewVector3(0, 0, 0)
	rl.DrawLine3D(o, rl.NewVector3(length, 0, 0), rl.Red)
	rl.DrawLine3D(o, rl.NewVector3(0, length, 0), rl.Green)
	rl.DrawLine3D(o, rl.NewVector3(0, 0, length), rl.Blue)
}

// Unload frees every GPU resource the scene created.
func (s *Scene) Unload() {
	for _, m := range s.models {
		if m == nil {
			continue
		}
		if len(m.anims) > 0 {
			rl.UnloadModelAnimations(m.anims)
		}
		rl.UnloadModel(m.model)
	}
	clear(s.models)
	if s.hasMesh {
		rl.UnloadModel(s.fallback)
		s.hasMesh = false
	}
}

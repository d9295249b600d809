package renderer

import (
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// noiseScale maps world units to noise space.
const noiseScale = 0.35

// ParticleField is the ambient plankton cloud: Count points spread
// uniformly through a cube of side Range, each drifting around its home
// position along a smooth noise field.
type ParticleField struct {
	home  []r3.Vec
	pos   []r3.Vec
	size  float64
	drift float64
	noise opensimplex.Noise
	t     float64
}

// NewParticleField seeds count particles in a cube of side span centred on
// the origin.
func NewParticleField(count int, span, size, drift float64, seed int64) *ParticleField {
	rng := rand.New(rand.NewSource(seed))
	home := make([]r3.Vec, count)
	for i := range home {
		home[i] = r3.Vec{
			X: (rng.Float64() - 0.5) * span,
			Y: (rng.Float64() - 0.5) * span,
			Z: (rng.Float64() - 0.5) * span,
		}
	}
	pos := make([]r3.Vec, count)
	copy(pos, home)
	return &ParticleField{
		home:  home,
		pos:   pos,
		size:  size,
		drift: drift,
		noise: opensimplex.New(seed),
	}
}

// Len returns the number of particles.
func (p *ParticleField) Len() int {
	return len(p.pos)
}

// Positions returns current particle positions. The slice is reused.
func (p *ParticleField) Positions() []r3.Vec {
	return p.pos
}

// Update advances the drift by dt seconds.
func (p *ParticleField) Update(dt float64) {
	p.t += dt
	tz := p.t * 0.2
	for i, h := range p.home {
		x, y, z := h.X*noiseScale, h.Y*noiseScale, h.Z*noiseScale
		// Offset the sample per axis so the components are uncorrelated.
		off := r3.Vec{
			X: p.noise.Eval3(x, y, z+tz),
			Y: p.noise.Eval3(x+31.4, y, z+tz),
			Z: p.noise.Eval3(x, y+47.2, z+tz),
		}
		p.pos[i] = r3.Add(h, r3.Scale(p.drift, off))
	}
}

// Draw renders the field with additive blending. Must be called inside
// BeginMode3D.
func (p *ParticleField) Draw(tint rl.Color) {
	s := float32(p.size)
	c := rl.Color{R: tint.R, G: tint.G, B: tint.B, A: 90}
	rl.BeginBlendMode(rl.BlendAdditive)
	for _, v := range p.pos {
		rl.DrawCube(vec3(v), s, s, s, c)
	}
	rl.EndBlendMode()
}

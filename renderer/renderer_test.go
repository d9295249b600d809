package renderer

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParticleFieldStaysNearHome(t *testing.T) {
	const span, drift = 10.0, 0.15
	p := NewParticleField(200, span, 0.1, drift, 7)
	if p.Len() != 200 {
		t.Fatalf("Len() = %d, want 200", p.Len())
	}
	start := append([]r3.Vec(nil), p.Positions()...)

	for range 120 {
		p.Update(1.0 / 60)
	}

	moved := 0
	for i, v := range p.Positions() {
		for _, c := range []float64{v.X, v.Y, v.Z} {
			if math.Abs(c) > span/2+2*drift {
				t.Fatalf("particle %d left the cube: %v", i, v)
			}
		}
		if r3.Norm(r3.Sub(v, start[i])) > 1e-9 {
			moved++
		}
	}
	if moved == 0 {
		t.Error("no particle drifted")
	}
}

func TestParticleFieldDeterministic(t *testing.T) {
	a := NewParticleField(20, 4, 0.1, 0.2, 3)
	b := NewParticleField(20, 4, 0.1, 0.2, 3)
	a.Update(0.5)
	b.Update(0.5)
	for i := range a.Positions() {
		if a.Positions()[i] != b.Positions()[i] {
			t.Fatalf("particle %d differs: %v vs %v", i, a.Positions()[i], b.Positions()[i])
		}
	}
}

func TestAxisAngle(t *testing.T) {
	axis, angle := axisAngle(quat.Number{Real: 1})
	if angle != 0 {
		t.Errorf("identity angle = %v, want 0", angle)
	}
	if axis != (r3.Vec{Y: 1}) {
		t.Errorf("identity axis = %v", axis)
	}

	// 90 degrees about Z.
	h := math.Sqrt2 / 2
	axis, angle = axisAngle(quat.Number{Real: h, Kmag: h})
	if math.Abs(angle-90) > 1e-9 {
		t.Errorf("angle = %v, want 90", angle)
	}
	if math.Abs(axis.Z-1) > 1e-9 {
		t.Errorf("axis = %v, want +Z", axis)
	}
}

func TestFacing(t *testing.T) {
	tests := []struct {
		name  string
		dir   r3.Vec
		angle float64
	}{
		{"already facing", r3.Vec{Z: 3}, 0},
		{"opposite", r3.Vec{Z: -1}, 180},
		{"sideways", r3.Vec{X: 1}, 90},
		{"zero", r3.Vec{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, angle := facing(tt.dir)
			if math.Abs(angle-tt.angle) > 1e-9 {
				t.Errorf("facing(%v) angle = %v, want %v", tt.dir, angle, tt.angle)
			}
		})
	}
}

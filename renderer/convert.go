package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/camera"
)

func vec3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}

// rlColor converts a config color.
func rlColor(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

// Camera3D builds the raylib camera for c.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(c.Position),
		Target:     vec3(c.Target),
		Up:         vec3(c.Up),
		Fovy:       float32(c.FovY),
		Projection: rl.CameraPerspective,
	}
}

// axisAngle converts a unit quaternion to a rotation axis and an angle in
// degrees. Identity maps to a zero angle about +Y.
func axisAngle(q quat.Number) (r3.Vec, float64) {
	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	w := math.Max(-1, math.Min(1, q.Real))
	s := math.Sqrt(1 - w*w)
	if s < 1e-6 {
		return r3.Vec{Y: 1}, 0
	}
	axis := r3.Vec{X: q.Imag / s, Y: q.Jmag / s, Z: q.Kmag / s}
	return axis, 2 * math.Acos(w) * 180 / math.Pi
}

// facing returns the axis and angle (degrees) rotating +Z onto dir.
func facing(dir r3.Vec) (r3.Vec, float64) {
	if r3.Norm(dir) < 1e-9 {
		return r3.Vec{Y: 1}, 0
	}
	d := r3.Unit(dir)
	z := r3.Vec{Z: 1}
	axis := r3.Cross(z, d)
	cos := math.Max(-1, math.Min(1, r3.Dot(z, d)))
	if r3.Norm(axis) < 1e-9 {
		if cos > 0 {
			return r3.Vec{Y: 1}, 0
		}
		return r3.Vec{Y: 1}, 180
	}
	return r3.Unit(axis), math.Acos(cos) * 180 / math.Pi
}

// shade mixes c toward white by t in [0, 1].
func shade(c rl.Color, t float64) rl.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(a uint8) uint8 {
		return uint8(float64(a) + (255-float64(a))*t)
	}
	return rl.Color{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}

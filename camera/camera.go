// Package camera provides the perspective camera used for picking and
// projection.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// MinDistance keeps the eye off the look-at point.
const MinDistance = 0.5

// Camera is a perspective camera looking at Target from Position.
type Camera struct {
	Position r3.Vec
	Target   r3.Vec
	Up       r3.Vec

	// Vertical field of view in degrees
	FovY float64

	Near, Far float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64
}

// New creates a camera on the +Z axis at distance from the origin.
func New(viewportW, viewportH, fovY, distance float64) *Camera {
	c := &Camera{
		Up:        r3.Vec{Y: 1},
		FovY:      fovY,
		Near:      0.1,
		Far:       1000,
		ViewportW: viewportW,
		ViewportH: viewportH,
	}
	c.SetDistance(distance)
	return c
}

// Aspect returns the viewport width over height.
func (c *Camera) Aspect() float64 {
	if c.ViewportH <= 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW <= 0 || viewportH <= 0 {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// SetDistance moves the eye along +Z, keeping X and Y over the target.
func (c *Camera) SetDistance(d float64) {
	d = math.Max(d, MinDistance)
	c.Position = r3.Vec{X: c.Target.X, Y: c.Target.Y, Z: c.Target.Z + d}
}

// Distance returns how far the eye is from the target.
func (c *Camera) Distance() float64 {
	return r3.Norm(r3.Sub(c.Position, c.Target))
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(vec3(c.Position), vec3(c.Target), vec3(c.Up))
}

// Projection returns the camera-to-clip matrix.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect(), c.Near, c.Far)
}

// ScreenToNDC converts pixel coordinates to [-1,1] with Y up.
func (c *Camera) ScreenToNDC(sx, sy float64) (x, y float64) {
	x = 2*sx/c.ViewportW - 1
	y = 1 - 2*sy/c.ViewportH
	return x, y
}

// NDCToScreen converts [-1,1] coordinates back to pixels.
func (c *Camera) NDCToScreen(x, y float64) (sx, sy float64) {
	sx = (x + 1) / 2 * c.ViewportW
	sy = (1 - y) / 2 * c.ViewportH
	return sx, sy
}

// Ray returns a world-space ray through the given NDC point, starting on the
// near plane. dir is unit length.
func (c *Camera) Ray(ndcX, ndcY float64) (origin, dir r3.Vec) {
	inv := c.Projection().Mul4(c.View()).Inv()
	near := unproject(inv, ndcX, ndcY, -1)
	far := unproject(inv, ndcX, ndcY, 1)
	return near, r3.Unit(r3.Sub(far, near))
}

// Project maps a world point to pixel coordinates. ok is false when the point
// is behind the camera.
func (c *Camera) Project(p r3.Vec) (sx, sy float64, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if clip.W() <= 0 {
		return 0, 0, false
	}
	sx, sy = c.NDCToScreen(clip.X()/clip.W(), clip.Y()/clip.W())
	return sx, sy, true
}

func unproject(inv mgl64.Mat4, x, y, z float64) r3.Vec {
	v := inv.Mul4x1(mgl64.Vec4{x, y, z, 1})
	return r3.Vec{X: v.X() / v.W(), Y: v.Y() / v.W(), Z: v.Z() / v.W()}
}

func vec3(v r3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

package components

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is the visual pose of an agent, copied from its body each tick.
type Transform struct {
	Position    r3.Vec
	Orientation quat.Number
	Scale       r3.Vec
}

// NewTransform returns an identity transform at pos with unit scale.
func NewTransform(pos r3.Vec) Transform {
	return Transform{
		Position:    pos,
		Orientation: quat.Number{Real: 1},
		Scale:       r3.Vec{X: 1, Y: 1, Z: 1},
	}
}

// Proxy is the debug bounding box that follows the body.
type Proxy struct {
	Position    r3.Vec
	HalfExtents r3.Vec
}

// Bounds returns the proxy's axis-aligned box.
func (p Proxy) Bounds() r3.Box {
	return r3.Box{
		Min: r3.Sub(p.Position, p.HalfExtents),
		Max: r3.Add(p.Position, p.HalfExtents),
	}
}

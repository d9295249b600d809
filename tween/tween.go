// Package tween moves points over time with easing, driving a gween
// progress tween per leg.
package tween

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ease is a Penner easing function: elapsed time, begin, change, duration.
type Ease = ease.TweenFunc

// Easings selectable from config.
var (
	Linear    Ease = ease.Linear
	QuadInOut Ease = ease.InOutQuad
	BackOut   Ease = ease.OutBack // overshoots the end and settles back
)

// ByName returns the easing for a config name.
func ByName(name string) (Ease, error) {
	switch name {
	case "linear":
		return Linear, nil
	case "quad_in_out":
		return QuadInOut, nil
	case "back_out", "":
		return BackOut, nil
	}
	return nil, fmt.Errorf("tween: unknown ease %q", name)
}

// Tween moves a point from From to To over Duration seconds.
type Tween struct {
	From, To r3.Vec
	Duration float64
	Ease     Ease

	// leg eases progress from 0 to 1; nil while at rest.
	leg     *gween.Tween
	current r3.Vec
}

// New creates a tween resting at p.
func New(p r3.Vec, duration float64, e Ease) *Tween {
	if e == nil {
		e = Linear
	}
	return &Tween{From: p, To: p, Duration: duration, Ease: e, current: p}
}

// Retarget starts a new leg from wherever the tween currently is.
func (tw *Tween) Retarget(to r3.Vec) {
	tw.From = tw.current
	tw.To = to
	if tw.Duration <= 0 {
		tw.leg = nil
		tw.current = to
		return
	}
	tw.leg = gween.New(0, 1, float32(tw.Duration), tw.Ease)
}

// Update advances by dt seconds and returns the new position.
func (tw *Tween) Update(dt float64) r3.Vec {
	if tw.leg == nil {
		tw.current = tw.To
		return tw.current
	}
	k, finished := tw.leg.Update(float32(dt))
	if finished {
		tw.leg = nil
		tw.current = tw.To
		return tw.current
	}
	tw.current = r3.Add(tw.From, r3.Scale(float64(k), r3.Sub(tw.To, tw.From)))
	return tw.current
}

// Position returns the current point.
func (tw *Tween) Position() r3.Vec {
	return tw.current
}

// Done reports whether the current leg has finished.
func (tw *Tween) Done() bool {
	return tw.leg == nil
}

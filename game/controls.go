package game

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/pthm-cable/aquarium/ui"
)

// onFloat applies a slider change. Steering changes take effect at the next
// tick.
func (g *Game) onFloat(id string, v float64) {
	switch id {
	case ui.ForceIntensity:
		g.params.ForceIntensity = v
		g.sim.SetParams(g.params)
	case ui.MaxVelocity:
		g.params.MaxVelocity = v
		g.sim.SetParams(g.params)
	case ui.CameraDistance:
		g.cam.SetDistance(v)
	default:
		return
	}
	g.log.Debug("parameter changed", zap.String("id", id), zap.Float64("value", v))
}

func (g *Game) onBool(id string, v bool) {
	if id == ui.ShowBounds {
		g.setBounds(v)
	}
}

func (g *Game) onColor(id string, c color.RGBA) {
	if id != ui.MainColor {
		return
	}
	g.cfg.Derived.MainColor = c
	if g.scene != nil {
		g.scene.MainColor = rlColor(c)
	}
}

func (g *Game) onAction(id string) {
	switch id {
	case ui.Respawn:
		if err := g.Respawn(); err != nil {
			g.log.Error("respawn failed", zap.Error(err))
		}
	case ui.Clear:
		g.sim.Clear()
		g.sim.Target().Reset()
		g.beaconVisible = false
	}
}

// setBounds keeps the overlay, panel and scene bound flags in step.
func (g *Game) setBounds(on bool) {
	if g.scene != nil {
		g.scene.ShowBounds = on
	}
	if g.overlays != nil {
		g.overlays.SetEnabled(ui.OverlayBounds, on)
	}
	if g.panel != nil {
		g.panel.SetBool(ui.ShowBounds, on)
	}
}

// syncPanel copies current values into the panel without firing callbacks.
func (g *Game) syncPanel() {
	if g.panel == nil {
		return
	}
	g.panel.SetFloat(ui.ForceIntensity, g.params.ForceIntensity)
	g.panel.SetFloat(ui.MaxVelocity, g.params.MaxVelocity)
	g.panel.SetFloat(ui.CameraDistance, g.cam.Distance())
	g.panel.SetColor(ui.MainColor, g.cfg.Derived.MainColor)
	g.panel.SetBool(ui.ShowBounds, g.overlays.IsEnabled(ui.OverlayBounds))
}

func rlColor(c color.RGBA) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

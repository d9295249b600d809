package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/pthm-cable/aquarium/ui"
)

// pickRadius is how close, in pixels, a right click must land to an agent.
const pickRadius = 30

// handleInput processes window, keyboard and pointer input.
func (g *Game) handleInput() {
	g.handleResize()

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		g.handleKey(key)
	}

	mouse := rl.GetMousePosition()
	if g.panel.Contains(mouse.X, mouse.Y) {
		return
	}
	sx, sy := float64(mouse.X), float64(mouse.Y)

	delta := rl.GetMouseDelta()
	if delta.X != 0 || delta.Y != 0 {
		g.pointerMoved(sx, sy)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.pointerClicked(sx, sy)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		if g.inspector.Pick(g.views, g.cam, sx, sy, pickRadius) {
			g.overlays.SetEnabled(ui.OverlayInspector, true)
		}
	}
}

// handleKey dispatches a single key press.
func (g *Game) handleKey(key int32) {
	switch key {
	case rl.KeyF11:
		rl.ToggleFullscreen()
	case rl.KeySpace:
		g.paused = !g.paused
	case rl.KeyTab:
		if g.panel != nil {
			g.panel.Toggle()
		}
	case rl.KeyR:
		g.onAction(ui.Respawn)
	case rl.KeyC:
		g.onAction(ui.Clear)
	case rl.KeyN:
		if g.inspector != nil && g.inspector.Next(g.sim.Agents()) {
			g.overlays.SetEnabled(ui.OverlayInspector, true)
		}
	case rl.KeyEscape:
		if g.inspector != nil {
			g.inspector.Deselect()
		}
	default:
		if g.overlays == nil {
			return
		}
		id, on, ok := g.overlays.HandleKeyPress(key)
		if !ok {
			return
		}
		switch id {
		case ui.OverlayBounds:
			g.setBounds(on)
		case ui.OverlayAxes:
			g.scene.ShowAxes = on
		case ui.OverlayParticles:
			g.scene.ShowParticles = on
		}
		g.log.Debug("overlay toggled", zap.String("overlay", string(id)), zap.Bool("on", on))
	}
}

// pointerMoved retargets the agents at the plane point under the pointer.
func (g *Game) pointerMoved(sx, sy float64) bool {
	return g.resolver.Resolve(g.cam.ScreenToNDC(sx, sy))
}

// pointerClicked retargets the agents and moves the beacon there.
func (g *Game) pointerClicked(sx, sy float64) bool {
	if !g.pointerMoved(sx, sy) {
		return false
	}
	goal := g.sim.Target().Snapshot()
	g.beacon.Retarget(goal.Pos)
	g.beaconVisible = true
	return true
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	g.resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
}

func (g *Game) resize(w, h float64) {
	if w <= 0 || h <= 0 || (w == g.width && h == g.height) {
		return
	}
	g.width, g.height = w, h
	g.cam.Resize(w, h)
	if g.inspector != nil {
		g.inspector.SetScreenWidth(int32(w))
	}
	if g.perfPanel != nil {
		g.perfPanel.SetPosition(10, int32(h)-140)
	}
}

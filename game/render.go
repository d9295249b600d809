package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aquarium/renderer"
	"github.com/pthm-cable/aquarium/ui"
)

const controlsLegend = "Space: pause | Tab: panel | R: respawn | C: clear | B: bounds | X: axes | P: particles | L: agents | I/N: inspect | F3: timings | F11: fullscreen"

// hudData collects the HUD values for the current frame.
func (g *Game) hudData(fps int32) ui.HUDData {
	phys := g.sim.Physics()
	data := ui.HUDData{
		Title:        g.cfg.Screen.Title,
		PendingLoads: g.sim.PendingLoads(),
		Tick:         g.sim.TickCount(),
		Steps:        phys.Steps(),
		SimTime:      phys.Time(),
		FPS:          fps,
		Paused:       g.paused,
		Target:       g.sim.Target().Snapshot(),
	}
	ui.SummarizeAgents(&data, g.sim.Agents())
	return data
}

// Draw renders the frame.
func (g *Game) Draw() {
	rl.BeginDrawing()

	beacon := renderer.Beacon{
		Pos:     g.beacon.Position(),
		Visible: g.beaconVisible,
		Settled: g.beacon.Done(),
	}
	g.scene.Draw(g.cam, g.views, beacon)

	screenW, screenH := int32(g.width), int32(g.height)

	if g.overlays.IsEnabled(ui.OverlayInspector) {
		g.inspector.DrawSelectionHighlight(g.views, g.cam)
		g.inspector.Draw(g.views)
	}

	g.hud.Draw(g.hudData(rl.GetFPS()), screenW)

	g.panel.Draw()

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.sim.Perf().Stats())
	}
	if g.overlays.IsEnabled(ui.OverlayAgents) {
		g.agentPanel.Draw(screenW-290, screenH-30, 280, g.views)
	}

	g.hud.DrawControls(screenH, controlsLegend)

	rl.EndDrawing()
}

// Package inspector shows the components of one selected agent.
package inspector

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/aquarium/components"
)

// Panel dimensions
const (
	PanelWidth   = 320
	PanelPadding = 10
	HeaderHeight = 30
	rowHeight    = 18
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 20, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 35, G: 55, B: 60, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 90, B: 95, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorSection     = rl.Color{R: 40, G: 55, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 220, B: 220, A: 255}
)

// Projector maps world points to screen pixels.
type Projector interface {
	Project(p r3.Vec) (sx, sy float64, ok bool)
}

// Inspector tracks the selected agent and renders its panel.
type Inspector struct {
	selected    uuid.UUID
	hasSelected bool
	panelX      int32
	panelY      int32
}

// NewInspector creates an inspector anchored to the right edge.
func NewInspector(screenWidth int32) *Inspector {
	ins := &Inspector{panelY: 110}
	ins.SetScreenWidth(screenWidth)
	return ins
}

// SetScreenWidth re-anchors the panel after a resize.
func (ins *Inspector) SetScreenWidth(w int32) {
	ins.panelX = w - PanelWidth - 10
}

// Select makes id the inspected agent.
func (ins *Inspector) Select(id uuid.UUID) {
	ins.selected = id
	ins.hasSelected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
	ins.selected = uuid.Nil
}

// Selected returns the selected agent id.
func (ins *Inspector) Selected() (uuid.UUID, bool) {
	return ins.selected, ins.hasSelected
}

// Next selects the agent after the current one in views, wrapping around.
// With nothing selected it picks the first agent.
func (ins *Inspector) Next(views []components.AgentView) bool {
	if len(views) == 0 {
		ins.Deselect()
		return false
	}
	next := 0
	if ins.hasSelected {
		for i := range views {
			if views[i].Agent.ID == ins.selected {
				next = (i + 1) % len(views)
				break
			}
		}
	}
	ins.Select(views[next].Agent.ID)
	return true
}

// Pick selects the agent whose projected position is closest to the screen
// point (sx, sy), within radius pixels.
func (ins *Inspector) Pick(views []components.AgentView, proj Projector, sx, sy, radius float64) bool {
	best := -1
	bestDist := radius * radius
	for i := range views {
		px, py, ok := proj.Project(views[i].Transform.Position)
		if !ok {
			continue
		}
		d := (px-sx)*(px-sx) + (py-sy)*(py-sy)
		if d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return false
	}
	ins.Select(views[best].Agent.ID)
	return true
}

// Find returns the selected agent's view. A selection whose agent is gone
// is cleared.
func (ins *Inspector) Find(views []components.AgentView) (*components.AgentView, bool) {
	if !ins.hasSelected {
		return nil, false
	}
	for i := range views {
		if views[i].Agent.ID == ins.selected {
			return &views[i], true
		}
	}
	ins.Deselect()
	return nil, false
}

// Draw renders the inspector panel if an agent is selected.
func (ins *Inspector) Draw(views []components.AgentView) {
	v, ok := ins.Find(views)
	if !ok {
		return
	}

	sections := []struct {
		title  string
		fields []Field
	}{
		{"Agent", ExtractFields(&v.Agent)},
		{"Steering", ExtractFields(&v.Seeker)},
		{"Transform", ExtractFields(&v.Transform)},
		{"Appearance", ExtractFields(&v.Appearance)},
	}

	rows := 1 // velocity
	for _, s := range sections {
		rows += len(s.fields) + 1
	}
	panelHeight := int32(HeaderHeight + PanelPadding*2 + rows*rowHeight + len(sections)*4)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1, ColorPanelBorder,
	)
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText(fmt.Sprintf("AGENT #%d", v.Agent.Index), ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding

	for _, s := range sections {
		ins.drawSectionHeader(x, y, s.title)
		y += rowHeight
		for _, f := range s.fields {
			y += DrawField(x, y, f)
		}
		if s.title == "Steering" {
			vel := r3.Vec{X: v.Velocity[0], Y: v.Velocity[1], Z: v.Velocity[2]}
			y += DrawVector(x, y, "Velocity", vel)
		}
		y += 4
	}
}

func (ins *Inspector) drawSectionHeader(x, y int32, title string) {
	rl.DrawRectangle(x-2, y-2, PanelWidth-2*PanelPadding+4, 18, ColorSection)
	rl.DrawText(title, x+2, y, 14, ColorSectionText)
}

// DrawSelectionHighlight circles the selected agent on screen.
func (ins *Inspector) DrawSelectionHighlight(views []components.AgentView, proj Projector) {
	v, ok := ins.Find(views)
	if !ok {
		return
	}
	sx, sy, ok := proj.Project(v.Transform.Position)
	if !ok || math.IsNaN(sx) || math.IsNaN(sy) {
		return
	}
	rl.DrawCircleLines(int32(sx), int32(sy), 18, rl.Yellow)
}

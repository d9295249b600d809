package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aquarium/components"
	"github.com/pthm-cable/aquarium/target"
	"github.com/pthm-cable/aquarium/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Agents       int
	Ready        int
	Loading      int
	Seeking      int
	PendingLoads int // asset loads still in flight
	Tick         int64
	Steps        int     // physics steps taken
	SimTime      float64 // seconds of simulated time
	FPS          int32
	Paused       bool
	Target       target.Point
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// SummarizeAgents fills the agent counters of d from views.
func SummarizeAgents(d *HUDData, views []components.AgentView) {
	d.Agents = len(views)
	d.Ready, d.Loading, d.Seeking = 0, 0, 0
	for i := range views {
		switch views[i].Agent.State {
		case components.Ready:
			d.Ready++
		case components.Loading:
			d.Loading++
		}
		if views[i].Seeker.Seeking {
			d.Seeking++
		}
	}
}

// Draw renders the HUD at the top right of the screen.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	x := screenWidth - 300

	rl.DrawText(data.Title, x, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Ready: %d | Loading: %d | Seeking: %d", data.Agents, data.Ready, data.Loading, data.Seeking),
		x, 35, 12, rl.LightGray,
	)
	rl.DrawText(ClockText(data), x, 51, 12, rl.LightGray)

	targetText := "Target: none"
	if data.Target.Valid {
		p := data.Target.Pos
		targetText = fmt.Sprintf("Target: (%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
	}
	rl.DrawText(targetText, x, 67, 12, rl.LightGray)

	if data.PendingLoads > 0 {
		rl.DrawText(fmt.Sprintf("Loading models: %d", data.PendingLoads), x, 83, 12, rl.SkyBlue)
	}

	if data.Paused {
		rl.DrawText("PAUSED", x, 101, 16, rl.Yellow)
	}
}

// ClockText formats the tick, physics step and simulated time line.
func ClockText(data HUDData) string {
	return fmt.Sprintf("Tick: %d | Steps: %d | Time: %.1fs | FPS: %d", data.Tick, data.Steps, data.SimTime, data.FPS)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-22, 12, rl.Gray)
}

// PerfPanel renders per-phase tick timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 14, rl.White)
	y += 18

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s", stats.AvgTickDuration.Round(time.Microsecond), stats.MaxTickDuration.Round(time.Microsecond)), x, y, 12, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// AgentPanel lists per-agent steering fields.
type AgentPanel struct {
	renderer *Renderer
	fields   []components.FieldDescriptor
	max      int
}

// NewAgentPanel shows at most max agents.
func NewAgentPanel(max int) *AgentPanel {
	return &AgentPanel{
		renderer: NewRenderer(),
		fields:   components.AgentFieldDescriptors(),
		max:      max,
	}
}

// Draw renders the panel with its bottom edge at bottom.
func (a *AgentPanel) Draw(x, bottom, width int32, views []components.AgentView) {
	r := a.renderer
	t := r.Theme

	n := min(len(views), a.max)
	if n == 0 {
		return
	}
	rowHeight := t.LineHeight + int32(len(a.fields))*(t.LineHeight+2)
	height := t.Padding*2 + int32(n)*rowHeight
	y := bottom - height
	r.DrawPanel(x, y, width, height)

	y += t.Padding
	for i := 0; i < n; i++ {
		v := &views[i]
		y = r.DrawSectionHeader(x+t.Padding, y, fmt.Sprintf("#%d %s", v.Agent.Index, v.Agent.State))
		for _, fd := range a.fields {
			y = r.DrawAgentField(x+t.Padding, y, fd, v, width-t.Padding*2)
		}
	}
}

package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aquarium/components"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a progress bar for value within [minVal, maxVal].
func (r *Renderer) DrawBar(x, y int32, label, text string, value, minVal, maxVal float64, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	fillWidth := int32(float64(barWidth) * barRatio(value, minVal, maxVal))
	rl.DrawRectangle(barX, y+2, fillWidth, r.Theme.BarHeight, r.Theme.BarFill)

	rl.DrawText(text, barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight + 2
}

// DrawCenteredBar draws a bar centered at 0 for values in a symmetric range.
func (r *Renderer) DrawCenteredBar(x, y int32, label, text string, value, maxVal float64, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	centerX := barX + barWidth/2
	rl.DrawLine(centerX, y+2, centerX, y+2+r.Theme.BarHeight, rl.Color{R: 80, G: 80, B: 80, A: 255})

	fillX := centerX
	fillWidth := int32(float64(barWidth/2) * centeredRatio(value, maxVal))
	barColor := r.Theme.BarFillPositive
	if value < 0 {
		fillX = centerX - fillWidth
		barColor = r.Theme.BarFillNegative
	}
	rl.DrawRectangle(fillX, y+2, fillWidth, r.Theme.BarHeight, barColor)

	rl.DrawText(text, barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight + 2
}

// DrawAgentField renders one agent field from its descriptor.
func (r *Renderer) DrawAgentField(x, y int32, fd components.FieldDescriptor, v *components.AgentView, width int32) int32 {
	value := components.AgentValue(v, fd.ID)
	text := fmt.Sprintf(fd.Format, value)
	switch {
	case fd.IsBar && fd.IsCentered:
		return r.DrawCenteredBar(x, y, fd.Label, text, value, math.Max(math.Abs(fd.Min), math.Abs(fd.Max)), width)
	case fd.IsBar:
		return r.DrawBar(x, y, fd.Label, text, value, fd.Min, fd.Max, width)
	default:
		return r.DrawLabelValue(x, y, fd.Label, text)
	}
}

// barRatio maps value onto [0, 1] across [minVal, maxVal].
func barRatio(value, minVal, maxVal float64) float64 {
	if maxVal <= minVal {
		return 0
	}
	return math.Max(0, math.Min(1, (value-minVal)/(maxVal-minVal)))
}

// centeredRatio maps |value| onto [0, 1] across [0, maxVal].
func centeredRatio(value, maxVal float64) float64 {
	if maxVal <= 0 {
		return 0
	}
	return math.Min(1, math.Abs(value)/maxVal)
}

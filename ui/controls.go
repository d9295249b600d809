package ui

import (
	"fmt"
	"image/color"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	sliderHeight = 16
	pickerSize   = 96
	buttonHeight = 22
)

// Callbacks receive panel changes. Nil callbacks are skipped.
type Callbacks struct {
	OnFloat  func(id string, v float64)
	OnBool   func(id string, v bool)
	OnColor  func(id string, c color.RGBA)
	OnAction func(id string)
}

// DefaultControls returns the aquarium parameter panel layout.
func DefaultControls() []ControlDescriptor {
	return []ControlDescriptor{
		{ID: ForceIntensity, Label: "Force intensity", Kind: ControlSlider, Min: 0, Max: 200, Step: 1, Format: "%.0f"},
		{ID: MaxVelocity, Label: "Max velocity", Kind: ControlSlider, Min: 0, Max: 10, Step: 0.1, Format: "%.1f"},
		{ID: CameraDistance, Label: "Camera distance", Kind: ControlSlider, Min: 0, Max: 15, Step: 0.01, Format: "%.2f"},
		{ID: MainColor, Label: "Main color", Kind: ControlColor},
		{ID: ShowBounds, Label: "Show bounds", Kind: ControlCheckBox},
		{ID: Respawn, Label: "Respawn", Kind: ControlButton},
		{ID: Clear, Label: "Clear", Kind: ControlButton},
	}
}

// ControlsPanel is the raygui parameter panel.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool

	controls []ControlDescriptor
	floats   map[string]float64
	bools    map[string]bool
	colors   map[string]color.RGBA
	cb       Callbacks
}

// NewControlsPanel creates a visible panel for the given controls.
func NewControlsPanel(x, y, width int32, controls []ControlDescriptor, cb Callbacks) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
		controls: controls,
		floats:   make(map[string]float64),
		bools:    make(map[string]bool),
		colors:   make(map[string]color.RGBA),
		cb:       cb,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// SetFloat updates a slider without firing its callback.
func (c *ControlsPanel) SetFloat(id string, v float64) {
	if d, ok := c.descriptor(id); ok {
		v = quantize(v, d)
	}
	c.floats[id] = v
}

// Float returns a slider's current value.
func (c *ControlsPanel) Float(id string) float64 {
	return c.floats[id]
}

// SetBool updates a checkbox without firing its callback.
func (c *ControlsPanel) SetBool(id string, v bool) {
	c.bools[id] = v
}

// Bool returns a checkbox's current value.
func (c *ControlsPanel) Bool(id string) bool {
	return c.bools[id]
}

// SetColor updates a color picker without firing its callback.
func (c *ControlsPanel) SetColor(id string, v color.RGBA) {
	c.colors[id] = v
}

// Color returns a color picker's current value.
func (c *ControlsPanel) Color(id string) color.RGBA {
	return c.colors[id]
}

// Contains reports whether a screen point falls on the visible panel.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+c.Height())
}

// Height returns the panel height for the current layout.
func (c *ControlsPanel) Height() int32 {
	t := c.renderer.Theme
	h := t.Padding*2 + t.LineHeight
	for _, d := range c.controls {
		h += controlHeight(d, t)
	}
	return h
}

// Draw renders the panel and fires callbacks for anything the user changed.
func (c *ControlsPanel) Draw() {
	if !c.visible {
		return
	}

	r := c.renderer
	t := r.Theme
	r.DrawPanel(c.x, c.y, c.width, c.Height())

	x := c.x + t.Padding
	y := c.y + t.Padding
	inner := float32(c.width - t.Padding*2)

	y = r.DrawSectionHeader(x, y, "Parameters")

	for _, d := range c.controls {
		switch d.Kind {
		case ControlSlider:
			v := c.floats[d.ID]
			rl.DrawText(d.Label, x, y, t.FontSize, t.LabelColor)
			text := fmt.Sprintf(d.Format, v)
			tw := rl.MeasureText(text, t.FontSize)
			rl.DrawText(text, x+int32(inner)-tw, y, t.FontSize, t.ValueColor)
			y += t.FontSize + 4
			bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: inner, Height: sliderHeight}
			nv := gui.SliderBar(bounds, "", "", float32(v), float32(d.Min), float32(d.Max))
			if float64(nv) != float64(float32(v)) {
				c.changeFloat(d.ID, float64(nv))
			}
			y += sliderHeight + 8

		case ControlCheckBox:
			bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: 14, Height: 14}
			nv := gui.CheckBox(bounds, d.Label, c.bools[d.ID])
			c.changeBool(d.ID, nv)
			y += t.LineHeight + 4

		case ControlColor:
			rl.DrawText(d.Label, x, y, t.FontSize, t.LabelColor)
			y += t.FontSize + 4
			bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: pickerSize, Height: pickerSize}
			cur := c.colors[d.ID]
			nv := gui.ColorPicker(bounds, "", rl.NewColor(cur.R, cur.G, cur.B, cur.A))
			c.changeColor(d.ID, color.RGBA{R: nv.R, G: nv.G, B: nv.B, A: nv.A})
			y += pickerSize + 8

		case ControlButton:
			bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: inner, Height: buttonHeight}
			if gui.Button(bounds, d.Label) {
				c.fireAction(d.ID)
			}
			y += buttonHeight + 6
		}
	}
}

func (c *ControlsPanel) changeFloat(id string, v float64) bool {
	d, ok := c.descriptor(id)
	if !ok {
		return false
	}
	v = quantize(v, d)
	if v == c.floats[id] {
		return false
	}
	c.floats[id] = v
	if c.cb.OnFloat != nil {
		c.cb.OnFloat(id, v)
	}
	return true
}

func (c *ControlsPanel) changeBool(id string, v bool) bool {
	if v == c.bools[id] {
		return false
	}
	c.bools[id] = v
	if c.cb.OnBool != nil {
		c.cb.OnBool(id, v)
	}
	return true
}

func (c *ControlsPanel) changeColor(id string, v color.RGBA) bool {
	if v == c.colors[id] {
		return false
	}
	c.colors[id] = v
	if c.cb.OnColor != nil {
		c.cb.OnColor(id, v)
	}
	return true
}

func (c *ControlsPanel) fireAction(id string) {
	if c.cb.OnAction != nil {
		c.cb.OnAction(id)
	}
}

func (c *ControlsPanel) descriptor(id string) (ControlDescriptor, bool) {
	for _, d := range c.controls {
		if d.ID == id {
			return d, true
		}
	}
	return ControlDescriptor{}, false
}

// quantize clamps v to the control range and snaps it to the step.
func quantize(v float64, d ControlDescriptor) float64 {
	if d.Max > d.Min {
		v = math.Max(d.Min, math.Min(d.Max, v))
	}
	if d.Step > 0 {
		v = d.Min + math.Round((v-d.Min)/d.Step)*d.Step
		// Trim float noise from the multiplication.
		v = math.Round(v*1e9) / 1e9
	}
	return v
}

func controlHeight(d ControlDescriptor, t Theme) int32 {
	switch d.Kind {
	case ControlSlider:
		return t.FontSize + 4 + sliderHeight + 8
	case ControlCheckBox:
		return t.LineHeight + 4
	case ControlColor:
		return t.FontSize + 4 + pickerSize + 8
	case ControlButton:
		return buttonHeight + 6
	}
	return 0
}

package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"
)

// Widget colors
var (
	ColorBarBg   = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill = rl.Color{R: 90, G: 180, B: 160, A: 255}
	ColorText    = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorBoolOn  = rl.Color{R: 100, G: 200, B: 100, A: 255}
	ColorBoolOff = rl.Color{R: 80, G: 80, B: 80, A: 255}
	ColorAxisX   = rl.Color{R: 220, G: 90, B: 90, A: 255}
	ColorAxisY   = rl.Color{R: 90, G: 200, B: 90, A: 255}
	ColorAxisZ   = rl.Color{R: 90, G: 140, B: 230, A: 255}
)

// DrawLabel renders a text value.
func DrawLabel(x, y int32, name string, value any, options map[string]string) int32 {
	text := FormatValue(value, options["fmt"])
	rl.DrawText(fmt.Sprintf("%s: %s", name, text), x, y, 14, ColorText)
	return 18
}

// DrawBar renders a horizontal bar against the max option.
func DrawBar(x, y int32, name string, value float64, options map[string]string) int32 {
	ratio := value / GetMax(options)
	ratio = max(0, min(1, ratio))

	barWidth := int32(120)
	barHeight := int32(14)

	rl.DrawText(name, x, y, 14, ColorTextDim)

	barX := x + 80
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)
	rl.DrawRectangle(barX, y, int32(float64(barWidth)*ratio), barHeight, ColorBarFill)

	rl.DrawText(FormatValue(value, options["fmt"]), barX+barWidth+5, y, 14, ColorTextDim)
	return 18
}

// DrawVector renders a vector as three colored components.
func DrawVector(x, y int32, name string, v r3.Vec) int32 {
	rl.DrawText(name, x, y, 14, ColorTextDim)
	cx := x + 80
	for i, c := range []struct {
		val float64
		col rl.Color
	}{{v.X, ColorAxisX}, {v.Y, ColorAxisY}, {v.Z, ColorAxisZ}} {
		rl.DrawText(fmt.Sprintf("%+.2f", c.val), cx+int32(i)*62, y, 14, c.col)
	}
	return 18
}

// DrawBool renders an on/off indicator.
func DrawBool(x, y int32, name string, value bool) int32 {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	indicatorX := x + 80
	indicatorSize := int32(14)

	color := ColorBoolOff
	text := "OFF"
	if value {
		color = ColorBoolOn
		text = "ON"
	}

	rl.DrawRectangle(indicatorX, y, indicatorSize, indicatorSize, color)
	rl.DrawText(text, indicatorX+indicatorSize+5, y, 14, color)
	return 18
}

// DrawField renders a field using its widget type.
func DrawField(x, y int32, field Field) int32 {
	switch field.Widget {
	case WidgetBar:
		if v, ok := GetFloatValue(field.Value); ok {
			return DrawBar(x, y, field.Name, v, field.Options)
		}
	case WidgetVector:
		if v, ok := field.Value.(r3.Vec); ok {
			return DrawVector(x, y, field.Name, v)
		}
	case WidgetBool:
		if v, ok := field.Value.(bool); ok {
			return DrawBool(x, y, field.Name, v)
		}
	}
	return DrawLabel(x, y, field.Name, field.Value, field.Options)
}

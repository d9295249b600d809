// Package ui provides the descriptor-driven parameter panel and HUD.
// Controls are declared as metadata and bound to the simulation through
// change callbacks, so the panel never reaches into simulation state.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// ControlKind specifies how a control is rendered.
type ControlKind int

const (
	ControlSlider   ControlKind = iota // raygui slider over [Min, Max]
	ControlCheckBox                    // boolean toggle
	ControlColor                       // color picker
	ControlButton                      // fires OnAction
)

// Control IDs for the aquarium panel.
const (
	ForceIntensity = "force_intensity"
	MaxVelocity    = "max_velocity"
	CameraDistance = "camera_distance"
	MainColor      = "main_color"
	ShowBounds     = "show_bounds"
	Respawn        = "respawn"
	Clear          = "clear"
)

// ControlDescriptor defines one panel control.
type ControlDescriptor struct {
	ID     string
	Label  string
	Kind   ControlKind
	Min    float64
	Max    float64
	Step   float64 // slider quantum, 0 for continuous
	Format string  // printf format for the slider value
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg         rl.Color
	PanelBorder     rl.Color
	SectionHeader   rl.Color
	LabelColor      rl.Color
	ValueColor      rl.Color
	BarBg           rl.Color
	BarFill         rl.Color
	BarFillNegative rl.Color
	BarFillPositive rl.Color
	Padding         int32
	LineHeight      int32
	LabelWidth      int32
	BarHeight       int32
	FontSize        int32
	HeaderFontSize  int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:         rl.Color{R: 12, G: 28, B: 34, A: 230},
		PanelBorder:     rl.Color{R: 50, G: 90, B: 100, A: 255},
		SectionHeader:   rl.Color{R: 120, G: 210, B: 190, A: 255},
		LabelColor:      rl.LightGray,
		ValueColor:      rl.RayWhite,
		BarBg:           rl.Color{R: 30, G: 40, B: 45, A: 255},
		BarFill:         rl.Color{R: 80, G: 170, B: 150, A: 255},
		BarFillNegative: rl.Color{R: 200, G: 110, B: 90, A: 255},
		BarFillPositive: rl.Color{R: 90, G: 190, B: 120, A: 255},
		Padding:         10,
		LineHeight:      18,
		LabelWidth:      110,
		BarHeight:       12,
		FontSize:        12,
		HeaderFontSize:  14,
	}
}

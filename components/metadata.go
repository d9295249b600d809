package components

// FieldDescriptor describes a component field for UI display.
type FieldDescriptor struct {
	ID         string  // Unique identifier
	Label      string  // Display name
	Format     string  // Printf format (e.g., "%.2f")
	Min        float64 // Minimum value (for bars)
	Max        float64 // Maximum value (for bars)
	IsBar      bool    // True to render as progress bar
	IsCentered bool    // True for centered bar display
	Group      string  // Logical grouping
}

// AgentFieldDescriptors returns metadata for the per-agent HUD rows.
// Field IDs must match cases in AgentValue().
func AgentFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "distance", Label: "Distance", Format: "%.2f", Min: 0, Max: 15, IsBar: true, Group: "steering"},
		{ID: "vel_x", Label: "Vel X", Format: "%+.2f", Min: -5, Max: 5, IsBar: true, IsCentered: true, Group: "motion"},
		{ID: "vel_y", Label: "Vel Y", Format: "%+.2f", Min: -5, Max: 5, IsBar: true, IsCentered: true, Group: "motion"},
		{ID: "vel_z", Label: "Vel Z", Format: "%+.2f", Min: -5, Max: 5, IsBar: true, IsCentered: true, Group: "motion"},
	}
}

// AgentView is a read-only snapshot of one agent for rendering and the HUD.
type AgentView struct {
	Agent      Agent
	Transform  Transform
	Proxy      Proxy
	Seeker     Seeker
	Appearance Appearance
	Velocity   [3]float64
}

// AgentValue extracts a field value by ID.
func AgentValue(v *AgentView, fieldID string) float64 {
	switch fieldID {
	case "distance":
		return v.Seeker.Distance
	case "vel_x":
		return v.Velocity[0]
	case "vel_y":
		return v.Velocity[1]
	case "vel_z":
		return v.Velocity[2]
	default:
		return 0
	}
}

package main

import (
	"github.com/pthm-cable/aquarium/config"
)

// ParamSpec is one tunable steering setting and the range the controls
// panel allows for it.
type ParamSpec struct {
	Name     string
	Min, Max float64
	field    func(*config.SteeringConfig) *float64
}

func (s ParamSpec) bound(v float64) float64 {
	return min(max(v, s.Min), s.Max)
}

// ParamVector maps optimizer coordinates onto steering settings. The
// optimizer works in the unit cube; each axis spans one spec's range.
type ParamVector struct {
	Specs []ParamSpec
	start []float64
}

// NewParamVector starts the search from base's steering settings.
func NewParamVector(base *config.Config) *ParamVector {
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "force_intensity", Min: 1, Max: 200,
				field: func(s *config.SteeringConfig) *float64 { return &s.ForceIntensity }},
			{Name: "max_velocity", Min: 0.1, Max: 10,
				field: func(s *config.SteeringConfig) *float64 { return &s.MaxVelocity }},
			{Name: "near_field_max_velocity", Min: 0.1, Max: 10,
				field: func(s *config.SteeringConfig) *float64 { return &s.NearFieldMaxVelocity }},
		},
	}
	steer := base.Steering
	for _, spec := range pv.Specs {
		pv.start = append(pv.start, spec.bound(*spec.field(&steer)))
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Start returns the base settings as a point in the unit cube.
func (pv *ParamVector) Start() []float64 {
	x := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		x[i] = (pv.start[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return x
}

// Base returns the base settings, clamped to range.
func (pv *ParamVector) Base() []float64 {
	return append([]float64(nil), pv.start...)
}

// Denormalize maps optimizer coordinates to settings. Coordinates outside
// the unit cube land on the nearest bound.
func (pv *ParamVector) Denormalize(x []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.bound(spec.Min + x[i]*(spec.Max-spec.Min))
	}
	return raw
}

// ApplyToConfig writes settings, in Specs order, into cfg. Out of range
// values are clamped.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, spec := range pv.Specs {
		*spec.field(&cfg.Steering) = spec.bound(values[i])
	}
}

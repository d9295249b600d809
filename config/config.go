// Package config provides configuration loading and access for the aquarium.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/mazznoer/csscolorparser"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Scene     SceneConfig     `yaml:"scene"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Steering  SteeringConfig  `yaml:"steering"`
	Target    TargetConfig    `yaml:"target"`
	Agents    AgentsConfig    `yaml:"agents"`
	Particles ParticlesConfig `yaml:"particles"`
	Beacon    BeaconConfig    `yaml:"beacon"`
	Assets    AssetsConfig    `yaml:"assets"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// SceneConfig holds look-and-feel parameters editable from the panel.
type SceneConfig struct {
	MainColor      string  `yaml:"main_color"`      // CSS color, e.g. "#1e665a"
	Background     string  `yaml:"background"`      // CSS clear color
	CameraDistance float64 `yaml:"camera_distance"` // camera z, 0..15
	CameraFOV      float64 `yaml:"camera_fov"`      // vertical fov in degrees
	ShowBounds     bool    `yaml:"show_bounds"`
	ShowAxes       bool    `yaml:"show_axes"`
}

// PhysicsConfig holds rigid-body world parameters.
type PhysicsConfig struct {
	DT             float64    `yaml:"dt"`
	Gravity        [3]float64 `yaml:"gravity"`
	LinearDamping  float64    `yaml:"linear_damping"`
	AngularDamping float64    `yaml:"angular_damping"`
	BroadphaseCell float64    `yaml:"broadphase_cell"`
}

// SteeringConfig holds the target-seeking parameters.
type SteeringConfig struct {
	ForceIntensity       float64 `yaml:"force_intensity"`
	MaxVelocity          float64 `yaml:"max_velocity"`
	NearFieldDistance    float64 `yaml:"near_field_distance"`     // below this the near-field cap applies
	NearFieldMaxVelocity float64 `yaml:"near_field_max_velocity"` // fixed cap on final approach
	ArrivalPerAgent      float64 `yaml:"arrival_per_agent"`       // threshold grows by this per agent
	ArrivalCap           float64 `yaml:"arrival_cap"`             // threshold never exceeds this
}

// TargetConfig describes the reference plane pointer rays are cast against.
type TargetConfig struct {
	PlanePoint  [3]float64 `yaml:"plane_point"`
	PlaneNormal [3]float64 `yaml:"plane_normal"`
}

// AgentsConfig holds agent creation parameters.
type AgentsConfig struct {
	Count            int      `yaml:"count"`
	SpawnRadius      float64  `yaml:"spawn_radius"`
	Mass             float64  `yaml:"mass"`
	Radius           float64  `yaml:"radius"`
	BoundsHalfExtent float64  `yaml:"bounds_half_extent"`
	Shape            string   `yaml:"shape"` // body shape: box (matches the bounds proxy) or sphere (radius)
	Models           []string `yaml:"models"` // asset paths; empty entries mean procedural
}

// ParticlesConfig holds the ambient particle field parameters.
type ParticlesConfig struct {
	Count int     `yaml:"count"`
	Range float64 `yaml:"range"`
	Size  float64 `yaml:"size"`
	Drift float64 `yaml:"drift"`
}

// BeaconConfig holds the target marker tween parameters.
type BeaconConfig struct {
	Duration float64 `yaml:"duration"` // seconds
	Ease     string  `yaml:"ease"`     // linear, quad_in_out, back_out
}

// AssetsConfig holds model loading parameters.
type AssetsConfig struct {
	Dir         string `yaml:"dir"`
	Concurrency int    `yaml:"concurrency"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds of sim time per window
	PerfWindow  int     `yaml:"perf_window"`  // ticks averaged by the perf collector
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MainColor   color.RGBA
	Background  color.RGBA
	TicksPerSec float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from embedded defaults overlaid with data.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("%w: physics.dt must be positive, got %v", ErrInvalid, c.Physics.DT)
	case c.Physics.BroadphaseCell <= 0:
		return fmt.Errorf("%w: physics.broadphase_cell must be positive", ErrInvalid)
	case c.Steering.ForceIntensity < 0:
		return fmt.Errorf("%w: steering.force_intensity must not be negative", ErrInvalid)
	case c.Steering.MaxVelocity < 0 || c.Steering.NearFieldMaxVelocity < 0:
		return fmt.Errorf("%w: steering velocities must not be negative", ErrInvalid)
	case c.Steering.ArrivalPerAgent < 0 || c.Steering.ArrivalCap < 0:
		return fmt.Errorf("%w: steering arrival values must not be negative", ErrInvalid)
	case c.Target.PlaneNormal == [3]float64{}:
		return fmt.Errorf("%w: target.plane_normal must be non-zero", ErrInvalid)
	case c.Agents.Mass <= 0:
		return fmt.Errorf("%w: agents.mass must be positive", ErrInvalid)
	case c.Agents.Count < 0:
		return fmt.Errorf("%w: agents.count must not be negative", ErrInvalid)
	case c.Agents.Shape != "box" && c.Agents.Shape != "sphere":
		return fmt.Errorf("%w: agents.shape must be box or sphere, got %q", ErrInvalid, c.Agents.Shape)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	main, err := ParseColor(c.Scene.MainColor)
	if err != nil {
		return fmt.Errorf("scene.main_color: %w", err)
	}
	bg, err := ParseColor(c.Scene.Background)
	if err != nil {
		return fmt.Errorf("scene.background: %w", err)
	}
	c.Derived.MainColor = main
	c.Derived.Background = bg
	c.Derived.TicksPerSec = 1 / c.Physics.DT

	if c.Assets.Concurrency < 1 {
		c.Assets.Concurrency = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
	return nil
}

// ParseColor parses any CSS color ("#1e665a", "teal", "rgb(30 102 90)").
func ParseColor(s string) (color.RGBA, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, s, err)
	}
	r, g, b, a := c.RGBA255()
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// FormatColor renders c as a hex string that ParseColor accepts.
func FormatColor(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

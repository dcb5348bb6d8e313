package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/debrisim/internal/dynamo"
)

const (
	DefaultG             = 6.674e-11
	DefaultStepSize      = 10.0
	DefaultDuration      = 600.0
	DefaultSurfaceRadius = 6371.0 * 1000.0
	DefaultEarthMass     = 5.972e24
	DefaultOrbiterMass   = 100.0
	DefaultHookTimeout   = 30 * time.Second
)

type Config struct {
	GravitationalConstant   float64 `yaml:"gravitational_constant"`
	StepSize                float64 `yaml:"step_size"`
	Duration                float64 `yaml:"duration"`
	BodyCount               int     `yaml:"body_count"`
	MaxVelocityPerturbation float64 `yaml:"max_initial_velocity_perturbation"`
	SurfaceRadius           float64 `yaml:"surface_radius"`

	Seed          int64  `yaml:"seed"`
	Integrator    string `yaml:"integrator"`
	Workers       int    `yaml:"workers"`
	Atmosphere    string `yaml:"atmosphere"`
	ValidateState bool   `yaml:"validate_state"`
	OutputDir     string `yaml:"output_dir"`

	Drag      DragConfig      `yaml:"drag"`
	Reference ReferenceConfig `yaml:"reference"`
	Orbiter   OrbiterConfig   `yaml:"orbiter"`
	Bodies    []BodyConfig    `yaml:"bodies"`
	TLEs      []TLEConfig     `yaml:"tles"`
	PostRun   PostRunConfig   `yaml:"post_run"`
}

type Vector struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vector) Vec() dynamo.Vec { return dynamo.Vec{X: v.X, Y: v.Y, Z: v.Z} }

type DragConfig struct {
	Coefficient float64 `yaml:"coefficient"`
	Area        float64 `yaml:"area"`
}

type ReferenceConfig struct {
	Name string  `yaml:"name"`
	Mass float64 `yaml:"mass"`
}

// OrbiterConfig is the template for sampled bodies ("particle N").
type OrbiterConfig struct {
	Mass     float64 `yaml:"mass"`
	Position Vector  `yaml:"position"`
	Velocity Vector  `yaml:"velocity"`
}

type BodyConfig struct {
	Name     string  `yaml:"name"`
	Mass     float64 `yaml:"mass"`
	Position Vector  `yaml:"position"`
	Velocity Vector  `yaml:"velocity"`
}

type TLEConfig struct {
	Name  string    `yaml:"name"`
	Line1 string    `yaml:"line1"`
	Line2 string    `yaml:"line2"`
	Mass  float64   `yaml:"mass"`
	Epoch time.Time `yaml:"epoch"`
}

type PostRunConfig struct {
	Enabled bool          `yaml:"enabled"`
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig is the ISS-like scenario: one 100 kg orbiter at 6,784 km
// moving at 7,660 m/s around a resting Earth.
func DefaultConfig() *Config {
	return &Config{
		GravitationalConstant: DefaultG,
		StepSize:              DefaultStepSize,
		Duration:              DefaultDuration,
		SurfaceRadius:         DefaultSurfaceRadius,
		Seed:                  1,
		Integrator:            "verlet",
		Workers:               1,
		Atmosphere:            "exponential",
		OutputDir:             "data",
		Drag:                  DragConfig{Coefficient: 0.5, Area: 0.5},
		Reference:             ReferenceConfig{Name: "Earth", Mass: DefaultEarthMass},
		Orbiter: OrbiterConfig{
			Mass:     DefaultOrbiterMass,
			Position: Vector{X: 6_771_000},
			Velocity: Vector{Y: 7669},
		},
		Bodies: []BodyConfig{
			{Name: "ISS", Mass: DefaultOrbiterMass, Position: Vector{X: 6_784_000}, Velocity: Vector{Y: 7660}},
		},
		PostRun: PostRunConfig{Timeout: DefaultHookTimeout},
	}
}

func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto overlays the file at path onto base and returns base. Options
// the file does not mention keep their current values.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the numeric bounds of the recognised options. Body names
// and masses are checked when the bodies are built.
func (c *Config) Validate() error {
	checks := []struct {
		ok   bool
		name string
		val  float64
	}{
		{c.GravitationalConstant > 0, "gravitational_constant", c.GravitationalConstant},
		{c.StepSize > 0, "step_size", c.StepSize},
		{c.Duration > 0, "duration", c.Duration},
		{c.SurfaceRadius > 0, "surface_radius", c.SurfaceRadius},
		{c.BodyCount >= 0, "body_count", float64(c.BodyCount)},
		{c.MaxVelocityPerturbation >= 0, "max_initial_velocity_perturbation", c.MaxVelocityPerturbation},
		{c.Workers >= 1, "workers", float64(c.Workers)},
		{c.Drag.Coefficient >= 0, "drag.coefficient", c.Drag.Coefficient},
		{c.Drag.Area >= 0, "drag.area", c.Drag.Area},
		{c.Reference.Mass > 0, "reference.mass", c.Reference.Mass},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%s = %g: %w", chk.name, chk.val, dynamo.ErrParameterBounds)
		}
	}

	if c.BodyCount > 0 && !(c.Orbiter.Mass > 0) {
		return fmt.Errorf("orbiter.mass = %g: %w", c.Orbiter.Mass, dynamo.ErrParameterBounds)
	}
	for _, tle := range c.TLEs {
		if tle.Epoch.IsZero() {
			return fmt.Errorf("tle %q has no epoch: %w", tle.Name, dynamo.ErrParameterBounds)
		}
	}
	if c.PostRun.Enabled && c.PostRun.Command == "" {
		return fmt.Errorf("post_run.command is empty: %w", dynamo.ErrParameterBounds)
	}
	return nil
}

// Steps is the number of outer iterations a run performs.
func (c *Config) Steps() int {
	n := 0
	for t := 0.0; t < c.Duration; t += c.StepSize {
		n++
	}
	return n
}

// Set assigns a numeric option by its yaml key. Integer options are
// truncated.
func (c *Config) Set(key string, v float64) error {
	switch key {
	case "gravitational_constant":
		c.GravitationalConstant = v
	case "step_size":
		c.StepSize = v
	case "duration":
		c.Duration = v
	case "body_count":
		c.BodyCount = int(v)
	case "max_initial_velocity_perturbation":
		c.MaxVelocityPerturbation = v
	case "surface_radius":
		c.SurfaceRadius = v
	case "seed":
		c.Seed = int64(v)
	case "workers":
		c.Workers = int(v)
	case "drag.coefficient":
		c.Drag.Coefficient = v
	case "drag.area":
		c.Drag.Area = v
	case "orbiter.mass":
		c.Orbiter.Mass = v
	default:
		return fmt.Errorf("unknown numeric option %q", key)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = append([]BodyConfig(nil), c.Bodies...)
	out.TLEs = append([]TLEConfig(nil), c.TLEs...)
	out.PostRun.Args = append([]string(nil), c.PostRun.Args...)
	return &out
}

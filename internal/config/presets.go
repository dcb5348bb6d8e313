package config

import "sort"

type Preset struct {
	Description string
	apply       func(*Config)
}

var Presets = map[string]Preset{
	"iss": {
		Description: "single ISS-like orbiter for one orbit at dt=1s",
		apply: func(c *Config) {
			c.StepSize = 1
			c.Duration = 5600
		},
	},
	"kepler": {
		Description: "circular orbit in vacuum, one period",
		apply: func(c *Config) {
			c.Atmosphere = "vacuum"
			c.StepSize = 1
			c.Duration = 5561
			c.Bodies = []BodyConfig{
				{Name: "probe", Mass: 100, Position: Vector{X: 6_784_000}, Velocity: Vector{Y: 7665}},
			}
		},
	},
	"debris": {
		Description: "cloud of 64 fragments at 400 km with 40 m/s spread",
		apply: func(c *Config) {
			c.StepSize = 5
			c.Duration = 6000
			c.Workers = 4
			c.BodyCount = 64
			c.MaxVelocityPerturbation = 40
			c.Orbiter = OrbiterConfig{Mass: 10, Position: Vector{X: 6_771_000}, Velocity: Vector{Y: 7669}}
			c.Bodies = nil
		},
	},
	"decay": {
		Description: "sub-circular fragments at 200 km that reenter within an orbit",
		apply: func(c *Config) {
			c.StepSize = 2
			c.Duration = 4000
			c.BodyCount = 32
			c.MaxVelocityPerturbation = 150
			c.Orbiter = OrbiterConfig{Mass: 5, Position: Vector{X: 6_571_000}, Velocity: Vector{Y: 7500}}
			c.Bodies = nil
		},
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/debrisim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GravitationalConstant != 6.674e-11 {
		t.Errorf("expected G 6.674e-11, got %g", cfg.GravitationalConstant)
	}
	if cfg.SurfaceRadius != 6_371_000 {
		t.Errorf("expected surface radius 6371000, got %f", cfg.SurfaceRadius)
	}
	if cfg.Integrator != "verlet" {
		t.Errorf("expected integrator verlet, got %s", cfg.Integrator)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if got := cfg.Steps(); got != 60 {
		t.Errorf("expected 60 steps, got %d", got)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("kepler")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Atmosphere != "vacuum" {
		t.Errorf("expected vacuum atmosphere, got %s", cfg.Atmosphere)
	}

	cfg.Bodies[0].Mass = 1
	if again := GetPreset("kepler"); again.Bodies[0].Mass != 100 {
		t.Error("preset should return an independent config")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}

	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero G", func(c *Config) { c.GravitationalConstant = 0 }},
		{"zero step", func(c *Config) { c.StepSize = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"zero radius", func(c *Config) { c.SurfaceRadius = 0 }},
		{"negative count", func(c *Config) { c.BodyCount = -1 }},
		{"negative perturbation", func(c *Config) { c.MaxVelocityPerturbation = -0.1 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"massless reference", func(c *Config) { c.Reference.Mass = 0 }},
		{"massless template", func(c *Config) { c.BodyCount = 3; c.Orbiter.Mass = 0 }},
		{"hook without command", func(c *Config) { c.PostRun.Enabled = true }},
		{"tle without epoch", func(c *Config) { c.TLEs = []TLEConfig{{Name: "sat"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
step_size: 2.5
body_count: 12
max_initial_velocity_perturbation: 30
bodies: []
post_run:
  enabled: true
  command: echo
  args: ["done"]
  timeout: 5s
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StepSize != 2.5 || cfg.BodyCount != 12 || cfg.MaxVelocityPerturbation != 30 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Duration != DefaultDuration || cfg.Reference.Mass != DefaultEarthMass {
		t.Error("expected unspecified options to keep their defaults")
	}
	if len(cfg.Bodies) != 0 {
		t.Errorf("expected fixed bodies cleared, got %d", len(cfg.Bodies))
	}
	if cfg.PostRun.Timeout != 5*time.Second || cfg.PostRun.Args[0] != "done" {
		t.Errorf("unexpected post_run %+v", cfg.PostRun)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debris.yaml")
	want := GetPreset("debris")
	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.BodyCount != want.BodyCount || got.Orbiter != want.Orbiter || got.Workers != want.Workers {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key   string
		value float64
		check func(*Config) bool
	}{
		{"step_size", 2, func(c *Config) bool { return c.StepSize == 2 }},
		{"body_count", 12.9, func(c *Config) bool { return c.BodyCount == 12 }},
		{"max_initial_velocity_perturbation", 40, func(c *Config) bool { return c.MaxVelocityPerturbation == 40 }},
		{"drag.area", 1.5, func(c *Config) bool { return c.Drag.Area == 1.5 }},
		{"seed", 7, func(c *Config) bool { return c.Seed == 7 }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("%s not applied", tt.key)
			}
		})
	}

	if err := cfg.Set("integrator", 1); err == nil {
		t.Error("expected error for non-numeric option")
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	cp := cfg.Clone()
	cp.Bodies[0].Name = "other"
	cp.StepSize = 1

	if cfg.Bodies[0].Name != "ISS" || cfg.StepSize != DefaultStepSize {
		t.Error("clone should not share state with the original")
	}
}

func TestLoadIntoLayersOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("seed: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadInto(path, GetPreset("debris"))
	if err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}
	if cfg.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Seed)
	}
	if cfg.BodyCount != 64 || cfg.StepSize != 5 || cfg.Workers != 4 {
		t.Errorf("preset values lost: body_count=%d step_size=%g workers=%d", cfg.BodyCount, cfg.StepSize, cfg.Workers)
	}
}

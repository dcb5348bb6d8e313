package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/debrisim/internal/config"
	"github.com/san-kum/debrisim/internal/experiment"
	"github.com/san-kum/debrisim/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults), optionally overlays a
// config file, then applies numeric overrides keyed like the yaml options.
type ScenarioStep struct {
	Label      string             `yaml:"label"`
	Preset     string             `yaml:"preset"`
	ConfigFile string             `yaml:"config"`
	Integrator string             `yaml:"integrator"`
	Set        map[string]float64 `yaml:"set"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the step's configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.ConfigFile != "" {
		if _, err := config.LoadInto(s.ConfigFile, cfg); err != nil {
			return nil, err
		}
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	for key, v := range s.Set {
		if err := cfg.Set(key, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes every step in order and stops at the first failure.
// Runs are recorded when store is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, logger log.Logger) ([]*experiment.Report, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	reports := make([]*experiment.Report, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("%s_%d", scenario.Name, i+1)
		}
		level.Info(logger).Log("msg", "scenario step", "step", i+1, "of", len(scenario.Steps), "label", label)

		cfg, err := step.Config()
		if err != nil {
			return reports, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, logger)
		if err := exp.Setup(); err != nil {
			return reports, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		report, err := exp.Run(ctx, store, label)
		if err != nil {
			return reports, fmt.Errorf("step %d run: %w", i+1, err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// ParameterSweep varies one numeric option over a linear range.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue   float64
	Bodies       int
	Deorbits     int
	FirstDeorbit float64
	EnergyDrift  float64
	MinAltitude  float64
}

// Values returns the swept parameter values.
func (sw *ParameterSweep) Values() []float64 {
	if sw.NumSteps <= 1 {
		return []float64{sw.ParamMin}
	}
	step := (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	vals := make([]float64, sw.NumSteps)
	for i := range vals {
		vals[i] = sw.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep executes the sweep without recording tracks.
func RunSweep(ctx context.Context, sw *ParameterSweep, logger log.Logger) ([]SweepResult, error) {
	if sw.Base == nil {
		return nil, fmt.Errorf("sweep has no base config")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	values := sw.Values()
	results := make([]SweepResult, 0, len(values))

	for i, val := range values {
		cfg := sw.Base.Clone()
		if err := cfg.Set(sw.ParamName, val); err != nil {
			return nil, err
		}

		exp := experiment.New(cfg, logger)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sw.ParamName, val, err)
		}
		report, err := exp.Run(ctx, nil, "sweep")
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sw.ParamName, val, err)
		}

		res := report.Result
		r := SweepResult{
			ParamValue:   val,
			Bodies:       len(res.Bodies),
			Deorbits:     res.Deorbits,
			FirstDeorbit: math.NaN(),
			EnergyDrift:  res.Metrics["energy_drift"],
			MinAltitude:  res.Metrics["min_altitude_km"],
		}
		for _, b := range res.Bodies {
			if b.Deorbited && !(b.DeorbitTime >= r.FirstDeorbit) {
				r.FirstDeorbit = b.DeorbitTime
			}
		}
		results = append(results, r)

		level.Debug(logger).Log("msg", "sweep point", "n", i+1, "param", sw.ParamName, "value", val, "deorbits", r.Deorbits)
	}

	return results, nil
}

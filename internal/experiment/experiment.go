package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/debrisim/internal/config"
	"github.com/san-kum/debrisim/internal/hook"
	"github.com/san-kum/debrisim/internal/metrics"
	"github.com/san-kum/debrisim/internal/physics"
	"github.com/san-kum/debrisim/internal/sim"
	"github.com/san-kum/debrisim/internal/storage"
)

type Experiment struct {
	cfg         *config.Config
	registry    *Registry
	rng         *rand.Rand
	logger      log.Logger
	hookEnabled bool

	model     *physics.Model
	simulator *sim.Simulator
}

// Report describes a finished run.
type Report struct {
	RunID   string
	RunDir  string
	Result  *sim.Result
	Elapsed time.Duration
	HookErr error
}

func New(cfg *config.Config, logger log.Logger) *Experiment {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Experiment{
		cfg:         cfg,
		registry:    NewRegistry(),
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		logger:      logger,
		hookEnabled: true,
	}
}

func (e *Experiment) DisableHook()              { e.hookEnabled = false }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Model() *physics.Model     { return e.model }

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.StepSize,
		Duration:      e.cfg.Duration,
		Workers:       e.cfg.Workers,
		ValidateState: e.cfg.ValidateState,
	}
}

// Setup validates the configuration and builds the model, the bodies and
// the simulator with its default metrics.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	model, err := e.registry.Model(e.cfg)
	if err != nil {
		return err
	}
	integrator, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	ref, bodies, err := Bodies(e.cfg, e.rng)
	if err != nil {
		return err
	}

	s, err := sim.New(model, integrator, ref, bodies)
	if err != nil {
		return err
	}
	s.SetLogger(e.logger)
	for _, m := range e.registry.DefaultMetrics(e.cfg) {
		s.AddMetric(m)
	}
	deorbits := metrics.NewDeorbitFraction(len(bodies))
	s.AddMetric(deorbits)
	s.AddObserver(deorbits)

	e.model = model
	e.simulator = s
	return nil
}

// Run executes the simulation. With a store, tracks and metadata are
// written under a new run directory and the post-run hook is invoked; a
// hook failure is reported in the Report, not returned.
func (e *Experiment) Run(ctx context.Context, store *storage.Store, label string) (*Report, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	report := &Report{}
	var run *storage.Run
	if store != nil {
		if err := store.Init(); err != nil {
			return nil, err
		}
		var err error
		if run, err = store.Create(label); err != nil {
			return nil, err
		}
		e.simulator.SetRecorder(run)
		report.RunID = run.ID
		report.RunDir = run.Dir
	}

	start := time.Now()
	result, err := e.simulator.Run(ctx, e.SimConfig())
	report.Result = result
	report.Elapsed = time.Since(start)

	if run != nil {
		if cerr := run.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close tracks: %w", cerr)
		}
		if result != nil {
			if merr := store.SaveMetadata(e.metadata(run.ID, label, result)); merr != nil && err == nil {
				err = fmt.Errorf("save metadata: %w", merr)
			}
		}
	}
	if err != nil {
		return report, err
	}

	if run != nil && e.hookEnabled && e.cfg.PostRun.Enabled {
		h := &hook.Hook{
			Command: e.cfg.PostRun.Command,
			Args:    e.cfg.PostRun.Args,
			Timeout: e.cfg.PostRun.Timeout,
			Stdout:  os.Stdout,
			Stderr:  os.Stderr,
			Logger:  e.logger,
		}
		report.HookErr = h.Run(ctx, run.Dir)
	}

	level.Debug(e.logger).Log("msg", "run complete", "run", report.RunID, "elapsed", report.Elapsed)
	return report, nil
}

func (e *Experiment) metadata(runID, label string, result *sim.Result) *storage.RunMetadata {
	meta := &storage.RunMetadata{
		ID:         runID,
		Label:      label,
		Timestamp:  time.Now(),
		Seed:       e.cfg.Seed,
		Dt:         e.cfg.StepSize,
		Duration:   e.cfg.Duration,
		Integrator: e.cfg.Integrator,
		Atmosphere: e.cfg.Atmosphere,
		Reference:  e.simulator.Reference().Name(),
		Radius:     e.cfg.SurfaceRadius,
		Steps:      result.Steps,
		Deorbits:   result.Deorbits,
		Bodies:     make([]storage.BodyMetadata, len(result.Bodies)),
		NonFinite:  result.NonFinite,
		Metrics:    make(map[string]float64, len(result.Metrics)),
	}
	for name, v := range result.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[name] = v
		}
	}
	for i, b := range result.Bodies {
		meta.Bodies[i] = storage.BodyMetadata{
			Name:        b.Name,
			Mass:        b.Mass,
			Steps:       b.Steps,
			Deorbited:   b.Deorbited,
			DeorbitTime: b.DeorbitTime,
		}
	}
	return meta
}

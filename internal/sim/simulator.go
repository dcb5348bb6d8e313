package sim

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/debrisim/internal/dynamo"
)

// Simulator owns the reference body and the orbiters, drives the fixed-step
// loop and applies the deorbit rule before integrating each orbiter.
type Simulator struct {
	model      dynamo.ForceModel
	integrator dynamo.Integrator
	ref        *dynamo.Body
	bodies     []*dynamo.Body

	recorder  dynamo.Recorder
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    log.Logger

	cfg         Config
	t           float64
	step        int
	steps       []int
	deorbitTime []float64
	nonFinite   []bool
	outcomes    []outcome
}

// New validates the body set and returns a simulator at t=0. Names must be
// unique and no two bodies may start at the same position.
func New(model dynamo.ForceModel, integrator dynamo.Integrator, ref *dynamo.Body, bodies []*dynamo.Body) (*Simulator, error) {
	if model == nil || integrator == nil || ref == nil {
		return nil, fmt.Errorf("model, integrator and reference body are required: %w", dynamo.ErrParameterBounds)
	}

	names := map[string]bool{ref.Name(): true}
	positions := map[dynamo.Vec]string{ref.Pos: ref.Name()}
	for _, b := range bodies {
		if names[b.Name()] {
			return nil, fmt.Errorf("%q: %w", b.Name(), dynamo.ErrDuplicateName)
		}
		names[b.Name()] = true

		if other, ok := positions[b.Pos]; ok {
			return nil, fmt.Errorf("%q and %q at %v: %w", b.Name(), other, b.Pos, dynamo.ErrCoincident)
		}
		positions[b.Pos] = b.Name()
	}

	s := &Simulator{
		model:      model,
		integrator: integrator,
		ref:        ref,
		bodies:     bodies,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     log.NewNopLogger(),
		cfg:        DefaultConfig(),
	}
	s.reset()
	return s, nil
}

func (s *Simulator) SetRecorder(r dynamo.Recorder) { s.recorder = r }
func (s *Simulator) SetLogger(l log.Logger)        { s.logger = l }
func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Bodies() []*dynamo.Body        { return s.bodies }
func (s *Simulator) Reference() *dynamo.Body       { return s.ref }
func (s *Simulator) Time() float64                 { return s.t }
func (s *Simulator) Model() dynamo.ForceModel      { return s.model }
func (s *Simulator) Integrator() dynamo.Integrator { return s.integrator }

func (s *Simulator) reset() {
	n := len(s.bodies)
	s.t = 0
	s.step = 0
	s.steps = make([]int, n)
	s.deorbitTime = make([]float64, n)
	s.nonFinite = make([]bool, n)
	s.outcomes = make([]outcome, n)
}

// Active returns the number of orbiters not yet deorbited.
func (s *Simulator) Active() int {
	n := 0
	for _, b := range s.bodies {
		if !b.Deorbited() {
			n++
		}
	}
	return n
}

// Start prepares a run: it resets counters and metrics and writes each
// orbiter's header through the recorder.
func (s *Simulator) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.reset()

	for _, m := range s.metrics {
		m.Reset()
	}

	if s.recorder != nil {
		for _, b := range s.bodies {
			if err := s.recorder.Init(b); err != nil {
				return &dynamo.SimulationError{Body: b.Name(), Wrapped: fmt.Errorf("%w: %w", dynamo.ErrRecorder, err)}
			}
		}
	}
	return nil
}

// Run executes the loop from t=0 until t >= cfg.Duration.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.Start(cfg); err != nil {
		return nil, err
	}

	level.Info(s.logger).Log("msg", "simulation started", "bodies", len(s.bodies), "dt", cfg.Dt, "duration", cfg.Duration, "workers", cfg.Workers)

	for s.t < cfg.Duration {
		select {
		case <-ctx.Done():
			return s.Result(), ctx.Err()
		default:
		}

		if err := s.Advance(); err != nil {
			return s.Result(), err
		}
	}

	result := s.Result()
	level.Info(s.logger).Log("msg", "simulation finished", "steps", result.Steps, "t", result.Time, "deorbits", result.Deorbits)
	return result, nil
}

// Advance performs one outer iteration: every active orbiter is either
// deorbited or integrated once, then global time moves by dt.
func (s *Simulator) Advance() error {
	if s.cfg.Workers > 1 {
		s.stepParallel(s.cfg.Workers)
	} else {
		for i, b := range s.bodies {
			s.outcomes[i] = s.stepBody(b, s.ref)
		}
	}

	for i, b := range s.bodies {
		if err := s.finish(i, b); err != nil {
			return err
		}
	}

	s.t += s.cfg.Dt
	s.step++
	return nil
}

// stepBody applies the lifecycle rule and integrates an active orbiter.
func (s *Simulator) stepBody(b, ref *dynamo.Body) outcome {
	if b.Deorbited() {
		return skipped
	}
	if s.model.HasDeorbited(b) {
		b.MarkDeorbited()
		return deorbited
	}
	s.integrator.Step(s.model, b, ref, s.cfg.Dt)
	return stepped
}

// finish runs the serial bookkeeping for one orbiter in collection order.
func (s *Simulator) finish(i int, b *dynamo.Body) error {
	if s.outcomes[i] == deorbited {
		s.deorbitTime[i] = s.t
		level.Debug(s.logger).Log("msg", "body deorbited", "body", b.Name(), "t", s.t, "steps", s.steps[i])
		for _, obs := range s.observers {
			obs.OnDeorbit(s.t, b)
		}
		return nil
	}
	if s.outcomes[i] != stepped {
		return nil
	}

	s.steps[i]++

	if !s.nonFinite[i] && !b.IsValid() {
		s.nonFinite[i] = true
		level.Warn(s.logger).Log("msg", "non-finite body state", "body", b.Name(), "t", s.t)
		if s.cfg.ValidateState {
			return &dynamo.SimulationError{Step: s.step, Time: s.t, Body: b.Name(), Wrapped: dynamo.ErrInvalidState}
		}
	}

	if s.recorder != nil {
		if err := s.recorder.Record(s.t, b); err != nil {
			return &dynamo.SimulationError{Step: s.step, Time: s.t, Body: b.Name(), Wrapped: fmt.Errorf("%w: %w", dynamo.ErrRecorder, err)}
		}
	}

	for _, m := range s.metrics {
		m.Observe(s.t, b, s.ref)
	}
	for _, obs := range s.observers {
		obs.OnStep(s.t, b)
	}
	return nil
}

// Result summarises the run so far.
func (s *Simulator) Result() *Result {
	result := &Result{
		Steps:     s.step,
		Time:      s.t,
		Bodies:    make([]BodySummary, len(s.bodies)),
		NonFinite: make([]string, 0),
		Metrics:   make(map[string]float64),
	}

	for i, b := range s.bodies {
		result.Bodies[i] = BodySummary{
			Name:        b.Name(),
			Mass:        b.Mass(),
			Steps:       s.steps[i],
			Deorbited:   b.Deorbited(),
			DeorbitTime: s.deorbitTime[i],
			Pos:         b.Pos,
			Vel:         b.Vel,
		}
		if b.Deorbited() {
			result.Deorbits++
		}
		if s.nonFinite[i] {
			result.NonFinite = append(result.NonFinite, b.Name())
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result
}

package sim

import (
	"fmt"

	"github.com/san-kum/debrisim/internal/dynamo"
)

type Config struct {
	Dt       float64
	Duration float64
	// Workers > 1 integrates orbiters concurrently within a step.
	Workers int
	// ValidateState stops the run on the first non-finite body state.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:       1.0,
		Duration: 5000.0,
		Workers:  1,
	}
}

func (c Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f: %w", c.Dt, dynamo.ErrParameterBounds)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f: %w", c.Duration, dynamo.ErrParameterBounds)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d: %w", c.Workers, dynamo.ErrParameterBounds)
	}
	return nil
}

// BodySummary is the end-of-run view of one orbiter.
type BodySummary struct {
	Name        string
	Mass        float64
	Steps       int
	Deorbited   bool
	DeorbitTime float64
	Pos         dynamo.Vec
	Vel         dynamo.Vec
}

type Result struct {
	Steps     int
	Time      float64
	Bodies    []BodySummary
	Deorbits  int
	NonFinite []string
	Metrics   map[string]float64
}

// outcome is what happened to one orbiter during a single step.
type outcome int

const (
	skipped outcome = iota
	deorbited
	stepped
)

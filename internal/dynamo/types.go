package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is a 3-component vector in simulation units (metres, m/s, newtons).
type Vec = r3.Vec

// Status is the lifecycle state of a body.
type Status int

const (
	Active Status = iota
	Deorbited
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Deorbited:
		return "deorbited"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Body is a point mass. Name and mass are fixed at construction; Pos and Vel
// are written by the integrator; the status only moves from Active to
// Deorbited.
type Body struct {
	name   string
	mass   float64
	status Status

	Pos Vec
	Vel Vec
}

// NewBody validates and builds an active body.
func NewBody(name string, pos, vel Vec, mass float64) (*Body, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("body %q mass %g: %w", name, mass, ErrInvalidMass)
	}
	return &Body{name: name, mass: mass, Pos: pos, Vel: vel}, nil
}

func (b *Body) Name() string    { return b.name }
func (b *Body) Mass() float64   { return b.mass }
func (b *Body) Status() Status  { return b.status }
func (b *Body) Deorbited() bool { return b.status == Deorbited }

// MarkDeorbited freezes the body. Calling it again is a no-op.
func (b *Body) MarkDeorbited() {
	b.status = Deorbited
}

// Clone returns an independent copy, used for reference-body snapshots.
func (b *Body) Clone() *Body {
	c := *b
	return &c
}

// IsValid reports whether position and velocity are finite.
func (b *Body) IsValid() bool {
	for _, v := range [...]float64{b.Pos.X, b.Pos.Y, b.Pos.Z, b.Vel.X, b.Vel.Y, b.Vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (b *Body) String() string {
	return fmt.Sprintf("%s pos=(%g, %g, %g) vel=(%g, %g, %g) mass=%g %s",
		b.name, b.Pos.X, b.Pos.Y, b.Pos.Z, b.Vel.X, b.Vel.Y, b.Vel.Z, b.mass, b.status)
}

// ForceModel evaluates forces on a body due to a reference body.
type ForceModel interface {
	Gravity(self, other *Body) Vec
	Forces(self, other *Body) Vec
	Acceleration(force Vec, mass float64) Vec
	HasDeorbited(b *Body) bool
}

// Integrator advances one active orbiting body by dt against a reference body.
type Integrator interface {
	Step(fm ForceModel, p, ref *Body, dt float64)
}

// Recorder is the persistence collaborator. Init is called once per body
// before the first step; Record once per integrated step.
type Recorder interface {
	Init(b *Body) error
	Record(t float64, b *Body) error
}

type Observer interface {
	OnStep(t float64, b *Body)
	OnDeorbit(t float64, b *Body)
}

type Metric interface {
	Name() string
	Observe(t float64, b, ref *Body)
	Value() float64
	Reset()
}

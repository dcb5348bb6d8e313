package physics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/dynamo"
)

const (
	DefaultG               = 6.674e-11
	DefaultSurfaceRadius   = 6371.0 * 1000.0
	DefaultDragCoefficient = 0.5
	DefaultArea            = 0.5
)

// Model holds the physical constants of a run. It has no state of its own
// and never mutates the bodies it is given.
type Model struct {
	G               float64
	SurfaceRadius   float64
	DragCoefficient float64
	Area            float64
	Atmosphere      Atmosphere
}

// Default returns the Earth model with the exponential atmosphere.
func Default() *Model {
	return &Model{
		G:               DefaultG,
		SurfaceRadius:   DefaultSurfaceRadius,
		DragCoefficient: DefaultDragCoefficient,
		Area:            DefaultArea,
		Atmosphere:      NewExponential(),
	}
}

// Gravity returns the force on self due to other. Coincident bodies produce
// non-finite components.
func (m *Model) Gravity(self, other *dynamo.Body) dynamo.Vec {
	r := Distance(self, other)
	f := m.G * self.Mass() * other.Mass() / (r * r)

	return dynamo.Vec{
		X: f * (other.Pos.X - self.Pos.X) / r,
		Y: f * (other.Pos.Y - self.Pos.Y) / r,
		Z: f * (other.Pos.Z - self.Pos.Z) / r,
	}
}

// Altitude returns the height above the surface radius in metres.
func (m *Model) Altitude(b *dynamo.Body) float64 {
	return DistanceToOrigin(b) - m.SurfaceRadius
}

// Drag returns 0.5*Cd*rho*A*v^2 per axis, with the density taken at the
// body's altitude in kilometres.
func (m *Model) Drag(self *dynamo.Body) dynamo.Vec {
	h := m.Altitude(self) / 1000.0

	rho := 0.0
	if m.Atmosphere != nil {
		rho = m.Atmosphere.Density(h)
	}
	k := 0.5 * m.DragCoefficient * rho * m.Area

	return dynamo.Vec{
		X: k * self.Vel.X * self.Vel.X,
		Y: k * self.Vel.Y * self.Vel.Y,
		Z: k * self.Vel.Z * self.Vel.Z,
	}
}

// Forces sums gravity from other and drag on self.
func (m *Model) Forces(self, other *dynamo.Body) dynamo.Vec {
	return r3.Add(m.Gravity(self, other), m.Drag(self))
}

func (m *Model) Acceleration(force dynamo.Vec, mass float64) dynamo.Vec {
	return dynamo.Vec{X: force.X / mass, Y: force.Y / mass, Z: force.Z / mass}
}

// HasDeorbited reports whether b is at or below the surface radius.
func (m *Model) HasDeorbited(b *dynamo.Body) bool {
	return DistanceToOrigin(b) <= m.SurfaceRadius
}

func DistanceToOrigin(b *dynamo.Body) float64 {
	return r3.Norm(b.Pos)
}

func Distance(a, b *dynamo.Body) float64 {
	return r3.Norm(r3.Sub(b.Pos, a.Pos))
}

package metrics

import (
	"math"

	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/physics"
)

// MinAltitude is the lowest altitude in km reached by any recorded step.
type MinAltitude struct {
	name    string
	radius  float64
	min     float64
	samples int
}

func NewMinAltitude(surfaceRadius float64) *MinAltitude {
	return &MinAltitude{
		name:   "min_altitude_km",
		radius: surfaceRadius,
		min:    math.Inf(1),
	}
}

func (m *MinAltitude) Name() string { return m.name }

func (m *MinAltitude) Observe(t float64, b, ref *dynamo.Body) {
	h := (physics.DistanceToOrigin(b) - m.radius) / 1000
	if math.IsNaN(h) {
		return
	}
	m.min = math.Min(m.min, h)
	m.samples++
}

func (m *MinAltitude) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.min
}

func (m *MinAltitude) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}

package metrics

import (
	"math"

	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/physics"
)

// EnergyDrift tracks the largest relative change in specific orbital energy
// of any orbiter since its first observed step.
type EnergyDrift struct {
	name     string
	g        float64
	initial  map[string]float64
	maxDrift float64
}

func NewEnergyDrift(g float64) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		g:       g,
		initial: make(map[string]float64),
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(t float64, b, ref *dynamo.Body) {
	energy := physics.SpecificEnergy(e.g, b, ref)
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return
	}

	e0, ok := e.initial[b.Name()]
	if !ok {
		e.initial[b.Name()] = energy
		return
	}
	if e0 != 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e0)/math.Abs(e0))
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = make(map[string]float64)
	e.maxDrift = 0
}

package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/dynamo"
)

// Euler is semi-implicit Euler: the velocity is kicked by a full step and the
// position drifts with the updated velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(fm dynamo.ForceModel, p, ref *dynamo.Body, dt float64) {
	a := fm.Acceleration(fm.Forces(p, ref), p.Mass())
	p.Vel = r3.Add(p.Vel, r3.Scale(dt, a))
	p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))
}

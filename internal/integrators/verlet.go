package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/dynamo"
)

// Verlet is velocity Verlet with an asymmetric force split: the first half
// kick uses gravity plus drag, the second half kick uses gravity only.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(fm dynamo.ForceModel, p, ref *dynamo.Body, dt float64) {
	halfDt := 0.5 * dt

	a0 := fm.Acceleration(fm.Forces(p, ref), p.Mass())
	p.Vel = r3.Add(p.Vel, r3.Scale(halfDt, a0))

	p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))

	// Drag is not re-evaluated at the new position.
	a1 := fm.Acceleration(fm.Gravity(p, ref), p.Mass())
	p.Vel = r3.Add(p.Vel, r3.Scale(halfDt, a1))
}

// SymmetricVerlet applies gravity plus drag on both half kicks.
type SymmetricVerlet struct{}

func NewSymmetricVerlet() *SymmetricVerlet {
	return &SymmetricVerlet{}
}

func (v *SymmetricVerlet) Step(fm dynamo.ForceModel, p, ref *dynamo.Body, dt float64) {
	halfDt := 0.5 * dt

	a0 := fm.Acceleration(fm.Forces(p, ref), p.Mass())
	p.Vel = r3.Add(p.Vel, r3.Scale(halfDt, a0))

	p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))

	a1 := fm.Acceleration(fm.Forces(p, ref), p.Mass())
	p.Vel = r3.Add(p.Vel, r3.Scale(halfDt, a1))
}

package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/dynamo"
)

// SpecificEnergy returns v^2/2 - mu/r for b relative to ref, in J/kg.
func SpecificEnergy(g float64, b, ref *dynamo.Body) float64 {
	mu := g * ref.Mass()
	v := r3.Norm(r3.Sub(b.Vel, ref.Vel))
	return 0.5*v*v - mu/Distance(b, ref)
}

// SemiMajorAxis returns -mu/(2*eps). It is negative for unbound orbits.
func SemiMajorAxis(g float64, b, ref *dynamo.Body) float64 {
	return -g * ref.Mass() / (2 * SpecificEnergy(g, b, ref))
}

// CircularSpeed returns sqrt(mu/r) at distance r from a body of mass m.
func CircularSpeed(g, m, r float64) float64 {
	return math.Sqrt(g * m / r)
}

// Period returns the Keplerian period for semi-major axis a.
func Period(g, m, a float64) float64 {
	return 2 * math.Pi * math.Sqrt(a*a*a/(g*m))
}

// AngularMomentum returns the specific angular momentum vector of b about ref.
func AngularMomentum(b, ref *dynamo.Body) dynamo.Vec {
	return r3.Cross(r3.Sub(b.Pos, ref.Pos), r3.Sub(b.Vel, ref.Vel))
}

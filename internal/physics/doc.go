// Package physics implements the force model for bodies orbiting a central
// reference body.
//
//   - [Model.Gravity]: Newtonian pairwise attraction
//   - [Model.Drag]: velocity-squared drag through an [Atmosphere]
//   - [Model.Forces]: gravity plus drag
//   - [Model.HasDeorbited]: surface-radius deorbit test
//
// The drag law squares each velocity component independently, so the drag
// vector is not anti-parallel to the velocity. This is the documented model,
// not an approximation to be corrected.
//
// # Orbital Energy
//
// [SpecificEnergy] and [SemiMajorAxis] evaluate the two-body invariants used
// to monitor integrator drift:
//
//	eps := physics.SpecificEnergy(m.G, orbiter, earth)
//	a := physics.SemiMajorAxis(m.G, orbiter, earth)
package physics

// Package dynamo provides the core primitives shared by the orbital decay
// simulator.
//
// The package defines the body record and the interfaces the rest of the
// module plugs into:
//
//   - [Body]: point mass with position, velocity, mass and lifecycle status
//   - [ForceModel]: gravity/drag evaluation against a reference body
//   - [Integrator]: advances one orbiting body by one step
//   - [Recorder]: persistence collaborator receiving per-step body states
//   - [Observer], [Metric]: hooks called by the simulation driver
//
// # Example
//
//	earth, _ := dynamo.NewBody("Earth", dynamo.Vec{}, dynamo.Vec{}, 5.972e24)
//	iss, _ := dynamo.NewBody("ISS", dynamo.Vec{X: 6.784e6}, dynamo.Vec{Y: 7660}, 100)
//	s, _ := sim.New(physics.Default(), integrators.NewVerlet(), earth, []*dynamo.Body{iss})
//	result, _ := s.Run(ctx, cfg)
//
// # Thread Safety
//
// Bodies are plain mutable records owned by a single simulator. They are not
// safe for concurrent mutation; the simulator's parallel mode never lets two
// goroutines touch the same body.
package dynamo

package experiment

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/config"
	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/tle"
)

// Bodies builds the reference body and the orbiters described by cfg:
// fixed bodies first, then TLE-seeded ones, then cfg.BodyCount sampled
// particles. Sampling draws only from rng.
func Bodies(cfg *config.Config, rng *rand.Rand) (*dynamo.Body, []*dynamo.Body, error) {
	ref, err := dynamo.NewBody(cfg.Reference.Name, dynamo.Vec{}, dynamo.Vec{}, cfg.Reference.Mass)
	if err != nil {
		return nil, nil, fmt.Errorf("reference: %w", err)
	}

	bodies := make([]*dynamo.Body, 0, len(cfg.Bodies)+len(cfg.TLEs)+cfg.BodyCount)

	for _, bc := range cfg.Bodies {
		b, err := dynamo.NewBody(bc.Name, bc.Position.Vec(), bc.Velocity.Vec(), bc.Mass)
		if err != nil {
			return nil, nil, err
		}
		bodies = append(bodies, b)
	}

	for _, tc := range cfg.TLEs {
		el := tle.Element{Name: tc.Name, Line1: tc.Line1, Line2: tc.Line2}
		b, err := el.Body(tc.Mass, tc.Epoch)
		if err != nil {
			return nil, nil, err
		}
		bodies = append(bodies, b)
	}

	o := cfg.Orbiter
	for i := 0; i < cfg.BodyCount; i++ {
		pos, vel := ringSlot(o.Position.Vec(), o.Velocity.Vec(), i, cfg.BodyCount)
		vel = r3.Add(vel, Perturbation(rng, pos, cfg.MaxVelocityPerturbation))

		b, err := dynamo.NewBody(fmt.Sprintf("particle %d", i), pos, vel, o.Mass)
		if err != nil {
			return nil, nil, err
		}
		bodies = append(bodies, b)
	}

	return ref, bodies, nil
}

// Perturbation draws one uniform offset in [-vmax, vmax] along each of the
// two axes transverse to pos.
func Perturbation(rng *rand.Rand, pos dynamo.Vec, vmax float64) dynamo.Vec {
	u, w := transverse(pos)
	du := (2*rng.Float64() - 1) * vmax
	dw := (2*rng.Float64() - 1) * vmax
	return r3.Add(r3.Scale(du, u), r3.Scale(dw, w))
}

// transverse returns two orthonormal vectors perpendicular to pos.
func transverse(pos dynamo.Vec) (dynamo.Vec, dynamo.Vec) {
	if pos == (dynamo.Vec{}) {
		return dynamo.Vec{X: 1}, dynamo.Vec{Y: 1}
	}
	axis := dynamo.Vec{Z: 1}
	if r3.Norm(r3.Cross(pos, axis)) == 0 {
		axis = dynamo.Vec{X: 1}
	}
	u := r3.Unit(r3.Cross(pos, axis))
	w := r3.Unit(r3.Cross(pos, u))
	return u, w
}

// ringSlot spreads n particles evenly in phase around the template orbit
// plane. Slot 0 is the template itself.
func ringSlot(pos, vel dynamo.Vec, i, n int) (dynamo.Vec, dynamo.Vec) {
	if i == 0 {
		return pos, vel
	}
	normal := r3.Cross(pos, vel)
	if r3.Norm(normal) == 0 {
		normal, _ = transverse(pos)
	}
	rot := r3.NewRotation(2*math.Pi*float64(i)/float64(n), normal)
	return rot.Rotate(pos), rot.Rotate(vel)
}

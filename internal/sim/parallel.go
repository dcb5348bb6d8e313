package sim

import (
	"github.com/dgravesa/go-parallel/parallel"
)

// stepParallel integrates orbiters concurrently against a snapshot of the
// reference body. Each goroutine writes only its own body and outcome slot;
// the bookkeeping in Advance runs after the loop returns.
func (s *Simulator) stepParallel(workers int) {
	ref := s.ref.Clone()

	parallel.WithNumGoroutines(workers).For(len(s.bodies), func(i, _ int) {
		s.outcomes[i] = s.stepBody(s.bodies[i], ref)
	})
}

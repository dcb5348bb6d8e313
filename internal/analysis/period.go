package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/debrisim/internal/physics"
	"github.com/san-kum/debrisim/internal/storage"
)

const padFactor = 8

var ErrShortTrack = errors.New("analysis: track too short")

// EstimatePeriod returns the dominant period in seconds of the track's x
// coordinate. Rows are assumed to be evenly spaced in time.
func EstimatePeriod(tr *storage.Track) (float64, error) {
	n := tr.Len()
	if n < 8 {
		return 0, ErrShortTrack
	}
	dt := (tr.Times[n-1] - tr.Times[0]) / float64(n-1)
	if !(dt > 0) {
		return 0, ErrShortTrack
	}

	xs := make([]float64, n)
	for i, p := range tr.Pos {
		xs[i] = p.X
	}
	floats.AddConst(-stat.Mean(xs, nil), xs)

	size := 1
	for size < n*padFactor {
		size *= 2
	}
	padded := make([]float64, size)
	copy(padded, xs)

	ps := PowerSpectrum(padded)
	k := floats.MaxIdx(ps[1:]) + 1
	if ps[k] == 0 {
		return 0, errors.New("analysis: flat spectrum")
	}

	peak := float64(k)
	if k+1 < len(ps) {
		a, b, c := ps[k-1], ps[k], ps[k+1]
		if den := a - 2*b + c; den != 0 {
			peak += 0.5 * (a - c) / den
		}
	}

	return float64(size) * dt / peak, nil
}

// KeplerPeriod is the two-body period of an orbiter at pos/vel around a
// resting central mass, or NaN for an unbound state.
func KeplerPeriod(g, centralMass float64, tr *storage.Track, row int) float64 {
	r := r3.Norm(tr.Pos[row])
	v := r3.Norm(tr.Vel[row])
	energy := 0.5*v*v - g*centralMass/r
	if energy >= 0 {
		return math.NaN()
	}
	return physics.Period(g, centralMass, -g*centralMass/(2*energy))
}

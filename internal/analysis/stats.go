package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/debrisim/internal/storage"
)

type DeorbitStats struct {
	Bodies   int
	Deorbits int
	Fraction float64
	Mean     float64
	StdDev   float64
	Median   float64
	First    float64
	Last     float64
}

// Deorbits summarises deorbit times in seconds. Time fields are NaN when no
// body deorbited.
func Deorbits(bodies []storage.BodyMetadata) DeorbitStats {
	st := DeorbitStats{Bodies: len(bodies)}

	times := make([]float64, 0, len(bodies))
	for _, b := range bodies {
		if b.Deorbited {
			times = append(times, b.DeorbitTime)
		}
	}
	st.Deorbits = len(times)
	if st.Bodies > 0 {
		st.Fraction = float64(st.Deorbits) / float64(st.Bodies)
	}

	if len(times) == 0 {
		nan := math.NaN()
		st.Mean, st.StdDev, st.Median, st.First, st.Last = nan, nan, nan, nan, nan
		return st
	}

	sort.Float64s(times)
	st.Mean, st.StdDev = stat.MeanStdDev(times, nil)
	if len(times) == 1 {
		st.StdDev = 0
	}
	st.Median = stat.Quantile(0.5, stat.Empirical, times, nil)
	st.First = floats.Min(times)
	st.Last = floats.Max(times)
	return st
}

// Altitudes converts a track to altitude above the surface in km.
func Altitudes(tr *storage.Track, surfaceRadius float64) []float64 {
	h := make([]float64, tr.Len())
	for i, p := range tr.Pos {
		h[i] = (r3.Norm(p) - surfaceRadius) / 1000
	}
	return h
}

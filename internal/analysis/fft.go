package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns |X_k|² for k in [0, n/2] of the real series.
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(data)
	ps := make([]float64, len(spectrum)/2+1)

	for i := range ps {
		a := cmplx.Abs(spectrum[i])
		ps[i] = a * a
	}

	return ps
}

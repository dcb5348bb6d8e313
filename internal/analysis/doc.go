// Package analysis post-processes recorded runs.
//
//   - [PowerSpectrum]: one-sided power spectrum of a uniformly sampled series
//   - [EstimatePeriod]: dominant orbital period of a track from its spectrum
//   - [KeplerPeriod]: two-body period implied by a single state
//   - [Deorbits]: summary statistics of deorbit times across a run
//
// Period estimation pads the series to a larger transform and refines the
// peak bin by parabolic interpolation, so a track spanning a few orbits is
// enough:
//
//	period, err := analysis.EstimatePeriod(track)
package analysis

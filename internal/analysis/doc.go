// Package analysis extracts wave and growth properties from the energy
// history of a run.
//
//   - [PowerSpectrum]: one-sided amplitude spectrum of a uniformly sampled series
//   - [DominantFrequency]: strongest non-zero frequency of a series
//   - [GrowthRate]: exponential growth (or damping) rate from a log-linear fit
//
// # Damping
//
// A linear Langmuir wave loses field energy at twice the Landau damping
// rate, so a fit over the EM energy gives
//
//	rate, _ := analysis.GrowthRate(times, em)
//	gamma := rate / 2
package analysis

package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("series too short")

// PowerSpectrum returns |X_k| for k in [0, n/2). The mean is removed first
// so the zero bin does not swamp the oscillation.
func PowerSpectrum(data []float64) []float64 {
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spec := fft.FFTReal(centered)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// SampleSpacing returns the common spacing of times, or an error if the
// samples are not uniform.
func SampleSpacing(times []float64) (float64, error) {
	if len(times) < 2 {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, len(times))
	}
	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	for i := 1; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-dt) > 1e-6*math.Max(dt, 1) {
			return 0, fmt.Errorf("non-uniform sampling at %d: %g vs %g", i, times[i]-times[i-1], dt)
		}
	}
	return dt, nil
}

// DominantFrequency returns the frequency (cycles per unit time) of the
// strongest non-zero bin and its amplitude.
func DominantFrequency(times, data []float64) (freq, power float64, err error) {
	if len(times) != len(data) {
		return 0, 0, fmt.Errorf("%d times for %d values", len(times), len(data))
	}
	if len(data) < 4 {
		return 0, 0, fmt.Errorf("%w: %d samples", ErrTooShort, len(data))
	}
	dt, err := SampleSpacing(times)
	if err != nil {
		return 0, 0, err
	}

	ps := PowerSpectrum(data)
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return float64(best) / (float64(len(data)) * dt), ps[best], nil
}

// GrowthRate fits log|data| = a + rate·t by least squares. Non-positive
// and non-finite values are skipped.
func GrowthRate(times, data []float64) (rate, intercept float64, err error) {
	if len(times) != len(data) {
		return 0, 0, fmt.Errorf("%d times for %d values", len(times), len(data))
	}
	xs := make([]float64, 0, len(data))
	ys := make([]float64, 0, len(data))
	for i, v := range data {
		a := math.Abs(v)
		if a == 0 || math.IsInf(a, 0) || math.IsNaN(a) {
			continue
		}
		xs = append(xs, times[i])
		ys = append(ys, math.Log(a))
	}
	if len(xs) < 2 {
		return 0, 0, fmt.Errorf("%w: %d usable samples", ErrTooShort, len(xs))
	}

	intercept, rate = stat.LinearRegression(xs, ys, nil, false)
	return rate, intercept, nil
}

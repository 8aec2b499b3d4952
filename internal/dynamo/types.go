package dynamo

import (
	"fmt"
	"math"
	"math/cmplx"
)

// State is the flattened vector of complex spectral coefficients.
type State []complex128

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

// Norm is the Euclidean norm over real and imaginary parts.
func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor complex128) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an ODE right-hand side. Derive must not retain or modify y and
// must return a new State of the same length.
type System interface {
	Derive(y State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(sys System, y State, t, dt float64) State
}

// AdaptiveIntegrator attempts a step of size dt and retries with smaller
// steps until the local error estimate is within tol. It returns the new
// state, the step actually taken and a suggested size for the next step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, y State, t, dt, tol float64) (next State, taken, suggested float64, err error)
}

// StepBounder is implemented by adaptive integrators that keep their own
// step limits. Non-positive bounds leave the current limit in place.
type StepBounder interface {
	SetStepBounds(minDt, maxDt float64)
}

// Observer is notified after every accepted step.
type Observer interface {
	OnStep(y State, t float64)
}

type Metric interface {
	Name() string
	Observe(y State, t float64)
	Value() float64
	Reset()
}

type Config struct {
	Dt                  float64
	Duration            float64
	Tolerance           float64
	MaxDt               float64
	MinDt               float64
	Adaptive            bool
	ValidateState       bool
	SaveEvery           int
	DivergenceThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Dt:                  0.01,
		Duration:            10.0,
		Tolerance:           1e-6,
		MaxDt:               0.1,
		MinDt:               1e-8,
		Adaptive:            false,
		ValidateState:       true,
		SaveEvery:           10,
		DivergenceThreshold: 1e12,
	}
}

type Result struct {
	States     []State
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Final returns the last saved state, or nil for an empty result.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

type SimError struct {
	Time    float64
	Step    int
	Message string
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return e.Wrapped
}

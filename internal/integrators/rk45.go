package integrators

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/vlasim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the Dormand–Prince embedded 5(4) pair with a mixed
// absolute/relative error norm taken over real and imaginary parts.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	MinDt    float64
	MaxDt    float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		MinDt:    1e-10,
	}
}

func (r *RK45) SetStepBounds(minDt, maxDt float64) {
	if minDt > 0 {
		r.MinDt = minDt
	}
	if maxDt > 0 {
		r.MaxDt = maxDt
	}
}

// Step takes one fixed step of size dt without error control.
func (r *RK45) Step(sys dynamo.System, y dynamo.State, t, dt float64) dynamo.State {
	next, _ := r.attempt(sys, y, t, dt)
	return next
}

func (r *RK45) StepAdaptive(sys dynamo.System, y dynamo.State, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	if tol <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: tolerance must be positive, got %g", dynamo.ErrParameterBounds, tol)
	}

	for {
		next, errMax := r.attempt(sys, y, t, dt)
		errRatio := errMax / tol

		if errRatio <= 1 && !math.IsNaN(errRatio) {
			scale := r.maxScale
			if errRatio > 0 {
				scale = math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			}
			return next, dt, r.clamp(dt * scale), nil
		}

		shrink := r.minScale
		if !math.IsNaN(errRatio) && !math.IsInf(errRatio, 0) {
			shrink = math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		}
		dt *= shrink
		if dt < r.MinDt {
			return nil, dt, dt, fmt.Errorf("%w: dt=%g at t=%g", dynamo.ErrStepTooSmall, dt, t)
		}
	}
}

func (r *RK45) clamp(dt float64) float64 {
	if r.MaxDt > 0 && dt > r.MaxDt {
		return r.MaxDt
	}
	return dt
}

// attempt advances y by dt and returns the fifth-order solution together with
// the scaled local error estimate.
func (r *RK45) attempt(sys dynamo.System, y dynamo.State, t, dt float64) (dynamo.State, float64) {
	n := len(y)
	h := complex(dt, 0)
	stage := func(coef ...complex128) func(ks ...dynamo.State) dynamo.State {
		return func(ks ...dynamo.State) dynamo.State {
			out := make(dynamo.State, n)
			for i := 0; i < n; i++ {
				var acc complex128
				for j, k := range ks {
					acc += coef[j] * k[i]
				}
				out[i] = y[i] + h*acc
			}
			return out
		}
	}
	c := func(v float64) complex128 { return complex(v, 0) }

	k1 := sys.Derive(y, t)
	k2 := sys.Derive(stage(c(b21))(k1), t+a2*dt)
	k3 := sys.Derive(stage(c(b31), c(b32))(k1, k2), t+a3*dt)
	k4 := sys.Derive(stage(c(b41), c(b42), c(b43))(k1, k2, k3), t+a4*dt)
	k5 := sys.Derive(stage(c(b51), c(b52), c(b53), c(b54))(k1, k2, k3, k4), t+a5*dt)
	k6 := sys.Derive(stage(c(b61), c(b62), c(b63), c(b64), c(b65))(k1, k2, k3, k4, k5), t+dt)

	yNew := stage(c(c1), 0, c(c3), c(c4), c(c5), c(c6))(k1, k2, k3, k4, k5, k6)

	k7 := sys.Derive(yNew, t+dt)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (c(dc1)*k1[i] + c(dc3)*k3[i] + c(dc4)*k4[i] + c(dc5)*k5[i] + c(dc6)*k6[i] + c(dc7)*k7[i])
		scale := cmplx.Abs(y[i]) + cmplx.Abs(h*k1[i]) + 1e-10
		errMax = math.Max(errMax, cmplx.Abs(errEst)/scale)
	}
	return yNew, errMax
}

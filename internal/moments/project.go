// Package moments projects analytic initial conditions onto the Hermite
// basis and assembles the spectral initial state.
package moments

import (
	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/vlasim/internal/grid"
	"github.com/san-kum/vlasim/internal/hermite"
)

// Distribution is a phase-space density f(x, v) for a single species.
type Distribution func(x, y, z, vx, vy, vz float64) float64

// Project returns the physical-space Hermite coefficient C_nmp(x) of f on
// every grid point:
//
//	C_nmp(x) = ∫ f(x, v) Dual_nmp(ξ) d³ξ,  ξ = (v - u)/α,
//
// using the composite trapezoidal rule over the ξ abscissae of the velocity
// window, innermost axis first.
func Project(f Distribution, alpha, u [3]float64, g grid.Grid, v grid.Velocity, n, m, p int) ([]complex128, error) {
	if err := v.Check(); err != nil {
		return nil, err
	}
	out := make([]complex128, g.Size())
	norm := hermite.Norm(n, m, p)
	if norm == 0 {
		return out, nil
	}

	vs := v.Samples()
	nv := len(vs)
	orders := [3]int{n, m, p}

	// The dual weight factorizes per axis, so the Hermite polynomials are
	// evaluated once per abscissa.
	var xi, h [3][]float64
	for a := 0; a < 3; a++ {
		xi[a] = make([]float64, nv)
		h[a] = make([]float64, nv)
		for i, vel := range vs {
			xi[a][i] = (vel - u[a]) / alpha[a]
			h[a][i] = hermite.Polynomial(orders[a], xi[a][i])
		}
	}

	fx := make([]float64, nv)
	fy := make([]float64, nv)
	fz := make([]float64, nv)

	xs, ys, zs := g.Positions()
	for i, x := range xs {
		for j, y := range ys {
			for k, z := range zs {
				for a, vx := range vs {
					for b, vy := range vs {
						for c, vz := range vs {
							fz[c] = f(x, y, z, vx, vy, vz) * h[2][c]
						}
						fy[b] = integrate.Trapezoidal(xi[2], fz) * h[1][b]
					}
					fx[a] = integrate.Trapezoidal(xi[1], fy) * h[0][a]
				}
				out[g.Offset(i, j, k)] = complex(integrate.Trapezoidal(xi[0], fx)/norm, 0)
			}
		}
	}
	return out, nil
}

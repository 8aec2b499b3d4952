// Package hermite evaluates physicists' Hermite polynomials and the
// asymmetrically weighted 3D Hermite functions used to expand velocity space.
package hermite

import (
	"math"

	"github.com/san-kum/vlasim/internal/index"
)

// Factorial returns n! as a float64. It returns 0 for negative n so that
// normalizations built from it vanish with the polynomial they scale.
func Factorial(n int) float64 {
	if n < 0 {
		return 0
	}
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

// Polynomial evaluates H_n(x) from the explicit sum
//
//	H_n(x) = n! Σ_{k=0}^{⌊n/2⌋} (-1)^k / (k! (n-2k)!) (2x)^(n-2k)
//
// Negative orders are outside the basis and evaluate to zero.
func Polynomial(n int, x float64) float64 {
	if n < 0 {
		return 0
	}
	if n == 0 {
		return 1
	}

	sum := 0.0
	for k := 0; k <= n/2; k++ {
		term := math.Pow(2*x, float64(n-2*k)) / (Factorial(k) * Factorial(n-2*k))
		if k%2 == 1 {
			term = -term
		}
		sum += term
	}
	return Factorial(n) * sum
}

// Norm is sqrt(2^(n+m+p) n! m! p!), the per-mode normalization shared by the
// basis and its dual.
func Norm(n, m, p int) float64 {
	if n < 0 || m < 0 || p < 0 {
		return 0
	}
	return math.Sqrt(math.Pow(2, float64(n+m+p)) * Factorial(n) * Factorial(m) * Factorial(p))
}

// Basis evaluates the normalized asymmetric-weight Hermite function
//
//	ψ_nmp(ξ) = H_n(ξx) H_m(ξy) H_p(ξz) exp(-|ξ|²) / sqrt(π³ 2^(n+m+p) n! m! p!)
//
// at the normalized velocity ξ = (v-u)/α.
func Basis(xi, yi, zi float64, n, m, p int) float64 {
	norm := Norm(n, m, p)
	if norm == 0 {
		return 0
	}
	h := Polynomial(n, xi) * Polynomial(m, yi) * Polynomial(p, zi)
	return h * math.Exp(-(xi*xi + yi*yi + zi*zi)) / (math.Pow(math.Pi, 1.5) * norm)
}

// BasisAt unpacks idx with l (the species component is ignored) and
// evaluates the corresponding basis function.
func BasisAt(xi, yi, zi float64, l index.Layout, idx int) float64 {
	md := l.Unpack(idx % l.PerSpecies())
	return Basis(xi, yi, zi, md.N, md.M, md.P)
}

// Dual is the projection weight paired with Basis:
//
//	∫ Basis(ξ; a) Dual(ξ; b) d³ξ = δ_ab
//
// Integrating a distribution against Dual yields its Hermite coefficient.
func Dual(xi, yi, zi float64, n, m, p int) float64 {
	norm := Norm(n, m, p)
	if norm == 0 {
		return 0
	}
	return Polynomial(n, xi) * Polynomial(m, yi) * Polynomial(p, zi) / norm
}

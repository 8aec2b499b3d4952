// Package diagnostics turns spectral states back into physical fields and
// reduces them to scalar energy and constraint measures.
package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/index"
	"github.com/san-kum/vlasim/internal/spectral"
	"github.com/san-kum/vlasim/internal/vlasov"
)

// Physical is a state in physical space. C holds, per species, the packed
// moments of that species in index order.
type Physical struct {
	E, B [3][]float64
	C    [][]complex128
}

// ToPhysical inverse-transforms every block of y.
func ToPhysical(sys *vlasov.System, y dynamo.State) Physical {
	p := sys.Params()
	shape := p.Grid.Shape()
	size := p.Grid.Size()

	C, F := sys.Split(y)
	c := spectral.Inverse(C, shape)
	f := spectral.Real(spectral.Inverse(F, shape))

	var out Physical
	for a := 0; a < 3; a++ {
		out.E[a] = f[a*size : (a+1)*size]
		out.B[a] = f[(3+a)*size : (4+a)*size]
	}
	per := p.Layout.PerSpecies() * size
	out.C = make([][]complex128, p.Layout.Ns)
	for s := range out.C {
		out.C[s] = c[s*per : (s+1)*per]
	}
	return out
}

// Density returns the number density α_xα_yα_z·C_000 of species s on the grid.
func Density(sys *vlasov.System, y dynamo.State, s int) []float64 {
	p := sys.Params()
	alpha, _, _, _ := p.Species(s)
	c0 := spectral.Real(moment(sys, y, index.Mode{S: s}))
	floats.Scale(alpha[0]*alpha[1]*alpha[2], c0)
	return c0
}

// moment returns the physical-space block of md, or nil if md is truncated.
func moment(sys *vlasov.System, y dynamo.State, md index.Mode) []complex128 {
	p := sys.Params()
	j, ok := p.Layout.Lookup(md)
	if !ok {
		return nil
	}
	size := p.Grid.Size()
	return spectral.Inverse(y[j*size:(j+1)*size], p.Grid.Shape())
}

func realMean(c []complex128) float64 {
	if c == nil {
		return 0
	}
	return stat.Mean(spectral.Real(c), nil)
}

// SpeciesEnergy is the kinetic energy of species s with mass m:
//
//	½ m α_xα_yα_z Σ_a [u_a² C_000 + √2 u_a α_a C_1a + α_a² (C_000/2 + C_2a/√2)]
//
// averaged over the grid. Truncated moments count as zero.
func SpeciesEnergy(sys *vlasov.System, y dynamo.State, s int, mass float64) float64 {
	alpha, u, _, _ := sys.Params().Species(s)

	c0 := realMean(moment(sys, y, index.Mode{S: s}))
	var sum float64
	for a := 0; a < 3; a++ {
		var first, second index.Mode
		first.S, second.S = s, s
		switch a {
		case 0:
			first.N, second.N = 1, 2
		case 1:
			first.M, second.M = 1, 2
		case 2:
			first.P, second.P = 1, 2
		}
		c1 := realMean(moment(sys, y, first))
		c2 := realMean(moment(sys, y, second))
		sum += u[a]*u[a]*c0 + math.Sqrt2*u[a]*alpha[a]*c1 + alpha[a]*alpha[a]*(c0/2+c2/math.Sqrt2)
	}
	return 0.5 * mass * alpha[0] * alpha[1] * alpha[2] * sum
}

// PlasmaEnergy sums SpeciesEnergy over species. masses must hold one entry
// per species.
func PlasmaEnergy(sys *vlasov.System, y dynamo.State, masses []float64) float64 {
	var total float64
	for s, m := range masses {
		if s >= sys.Params().Layout.Ns {
			break
		}
		total += SpeciesEnergy(sys, y, s, m)
	}
	return total
}

// EMEnergy is the grid mean of (|E|² + |B|²)/2.
func EMEnergy(sys *vlasov.System, y dynamo.State) float64 {
	ph := ToPhysical(sys, y)
	size := sys.Params().Grid.Size()
	density := make([]float64, size)
	for a := 0; a < 3; a++ {
		for i := 0; i < size; i++ {
			density[i] += 0.5 * (ph.E[a][i]*ph.E[a][i] + ph.B[a][i]*ph.B[a][i])
		}
	}
	return stat.Mean(density, nil)
}

// DivB is the grid mean of (∇·B)², computed from the spectral coefficients
// via Parseval.
func DivB(sys *vlasov.System, y dynamo.State) float64 {
	_, F := sys.Split(y)
	size := sys.Params().Grid.Size()
	k := sys.Kmesh()

	var sum float64
	for i := 0; i < size; i++ {
		var div complex128
		for a := 0; a < 3; a++ {
			div += k[a][i] * F[(3+a)*size+i]
		}
		sum += real(div)*real(div) + imag(div)*imag(div)
	}
	return sum / float64(size*size)
}

// HermiteSpectrum returns the grid mean of |C_{s,n}|² for species s, one
// entry per order n along vx with the m and p orders summed. It is computed
// from the spectral coefficients via Parseval.
func HermiteSpectrum(sys *vlasov.System, y dynamo.State, s int) []float64 {
	p := sys.Params()
	l := p.Layout
	size := p.Grid.Size()
	out := make([]float64, l.Nn)
	if s < 0 || s >= l.Ns {
		return out
	}

	norm := float64(size) * float64(size)
	for local := 0; local < l.PerSpecies(); local++ {
		j := s*l.PerSpecies() + local
		var sum float64
		for _, c := range y[j*size : (j+1)*size] {
			sum += real(c)*real(c) + imag(c)*imag(c)
		}
		out[l.Unpack(j).N] += sum / norm
	}
	return out
}

// FieldRMS is the root mean square over the grid of each field channel,
// ordered Ex, Ey, Ez, Bx, By, Bz.
func FieldRMS(sys *vlasov.System, y dynamo.State) [vlasov.FieldChannels]float64 {
	ph := ToPhysical(sys, y)
	scale := math.Sqrt(float64(sys.Params().Grid.Size()))

	var out [vlasov.FieldChannels]float64
	for a := 0; a < 3; a++ {
		out[a] = floats.Norm(ph.E[a], 2) / scale
		out[3+a] = floats.Norm(ph.B[a], 2) / scale
	}
	return out
}

// Diverged reports whether y holds NaN/Inf or its norm exceeds threshold.
// A non-positive threshold disables the norm check.
func Diverged(y dynamo.State, threshold float64) bool {
	if !y.IsValid() {
		return true
	}
	return threshold > 0 && y.Norm() > threshold
}

// Package grid describes the periodic spatial box, its Fourier wavenumbers and
// the velocity window used for moment projection.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/vlasim/internal/spectral"
)

// Grid is the spatial resolution and box size.
type Grid struct {
	Nx, Ny, Nz int
	Lx, Ly, Lz float64
}

func New(nx, ny, nz int, lx, ly, lz float64) Grid {
	return Grid{Nx: nx, Ny: ny, Nz: nz, Lx: lx, Ly: ly, Lz: lz}
}

// Size is the number of spatial points (and Fourier modes).
func (g Grid) Size() int { return g.Nx * g.Ny * g.Nz }

// Shape is the extent of one spectral block on this grid.
func (g Grid) Shape() spectral.Shape { return spectral.Shape{Nx: g.Nx, Ny: g.Ny, Nz: g.Nz} }

// Offset returns the row-major offset of (i, j, k) within one 3D block.
func (g Grid) Offset(i, j, k int) int { return (i*g.Ny+j)*g.Nz + k }

func (g Grid) Check() error {
	if g.Nx <= 0 || g.Ny <= 0 || g.Nz <= 0 {
		return fmt.Errorf("grid resolution must be positive, got %dx%dx%d", g.Nx, g.Ny, g.Nz)
	}
	if !(g.Lx > 0 && g.Ly > 0 && g.Lz > 0) || math.IsInf(g.Lx+g.Ly+g.Lz, 0) {
		return fmt.Errorf("box lengths must be positive and finite, got %v x %v x %v", g.Lx, g.Ly, g.Lz)
	}
	return nil
}

// Axis returns the periodic sample positions i·L/N, i in [0, N).
func Axis(n int, l float64) []float64 {
	if n == 1 {
		return []float64{0}
	}
	// Span includes the right endpoint; drop it to keep the grid periodic.
	pts := floats.Span(make([]float64, n+1), 0, l)
	return pts[:n]
}

// Positions returns the x, y, z sample coordinates.
func (g Grid) Positions() (x, y, z []float64) {
	return Axis(g.Nx, g.Lx), Axis(g.Ny, g.Ly), Axis(g.Nz, g.Lz)
}

// Center is the index of the zero-frequency mode after the centering shift.
func Center(n int) int { return n / 2 }

// ModeNumbers returns the integer multiples of 2π assigned to the centred
// Fourier modes of an axis of length n: 2π·(i - n/2).
func ModeNumbers(n int) []float64 {
	k := make([]float64, n)
	c := Center(n)
	for i := range k {
		k[i] = 2 * math.Pi * float64(i-c)
	}
	return k
}

// Wavenumbers holds k/L per axis for the centred spectral layout. It is
// derived once per run and shared read-only.
type Wavenumbers struct {
	X, Y, Z []float64
}

func (g Grid) Wavenumbers() Wavenumbers {
	scale := func(k []float64, l float64) []float64 {
		for i := range k {
			k[i] /= l
		}
		return k
	}
	return Wavenumbers{
		X: scale(ModeNumbers(g.Nx), g.Lx),
		Y: scale(ModeNumbers(g.Ny), g.Ly),
		Z: scale(ModeNumbers(g.Nz), g.Lz),
	}
}

// Velocity is the fixed sampling window applied to every velocity axis
// during projection.
type Velocity struct {
	Min, Max float64
	N        int
}

func DefaultVelocity() Velocity {
	return Velocity{Min: -4, Max: 4, N: 40}
}

func (v Velocity) Check() error {
	if v.N < 2 {
		return fmt.Errorf("velocity window needs at least 2 samples, got %d", v.N)
	}
	if !(v.Max > v.Min) {
		return fmt.Errorf("velocity window [%v, %v] is empty", v.Min, v.Max)
	}
	return nil
}

// Samples returns N equally spaced velocities spanning [Min, Max].
func (v Velocity) Samples() []float64 {
	return floats.Span(make([]float64, v.N), v.Min, v.Max)
}

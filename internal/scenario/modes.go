package scenario

import (
	"math"

	"github.com/san-kum/vlasim/internal/hermite"
)

// HermiteModes seeds each species with two exact basis functions, a
// sin(kx) modulated (0,0,0) mode and a sin(2ky) modulated (1,0,0) mode, so the
// projected coefficients are known in closed form.
type HermiteModes struct {
	Vte, Vti float64
	DeltaB   float64
	Kx, Ky   float64
	A0, A1   float64
}

func NewHermiteModes(p Params) *HermiteModes {
	return &HermiteModes{
		Vte:    0.4,
		Vti:    0.4,
		DeltaB: 0.2,
		Kx:     2 * math.Pi / p.Lx,
		Ky:     2 * math.Pi / p.Ly,
		A0:     3,
		A1:     2,
	}
}

func (h *HermiteModes) Name() string { return "hermite_modes" }

func (h *HermiteModes) E(x, y, z float64) [3]float64 { return [3]float64{} }

func (h *HermiteModes) B(x, y, z float64) [3]float64 {
	return [3]float64{
		-h.DeltaB * math.Sin(h.Ky*y),
		h.DeltaB * math.Sin(2*h.Kx*x),
		1,
	}
}

func (h *HermiteModes) F(s int, x, y, z, vx, vy, vz float64) float64 {
	vt := h.Vte
	if s != 0 {
		vt = h.Vti
	}
	xi, yi, zi := vx/vt, vy/vt, vz/vt
	return h.A0*math.Sin(h.Kx*x)*hermite.Basis(xi, yi, zi, 0, 0, 0) +
		h.A1*math.Sin(2*h.Ky*y)*hermite.Basis(xi, yi, zi, 1, 0, 0)
}

package scenario

import "math"

// OrszagTang is the kinetic version of the Orszag–Tang vortex: in-plane
// sinusoidal magnetic perturbations on a uniform guide field with electron
// and ion flows chosen to carry the associated current.
type OrszagTang struct {
	Vte, Vti float64
	DeltaB   float64
	U0       float64
	Kx, Ky   float64
	OmegaCe  float64
}

func NewOrszagTang(p Params) *OrszagTang {
	vte := math.Sqrt(0.25/2) * p.OmegaCe
	deltaB := 0.2
	return &OrszagTang{
		Vte:     vte,
		Vti:     vte * math.Sqrt(1/p.MiMe),
		DeltaB:  deltaB,
		U0:      deltaB * p.OmegaCe / math.Sqrt(p.MiMe),
		Kx:      2 * math.Pi / p.Lx,
		Ky:      2 * math.Pi / p.Ly,
		OmegaCe: p.OmegaCe,
	}
}

func (o *OrszagTang) Name() string { return "orszag_tang" }

func (o *OrszagTang) E(x, y, z float64) [3]float64 { return [3]float64{} }

func (o *OrszagTang) B(x, y, z float64) [3]float64 {
	return [3]float64{
		-o.DeltaB * math.Sin(o.Ky*y),
		o.DeltaB * math.Sin(2*o.Kx*x),
		1,
	}
}

// flow is the bulk velocity of species s.
func (o *OrszagTang) flow(s int, x, y float64) [3]float64 {
	u := [3]float64{
		-o.U0 * math.Sin(o.Ky*y),
		o.U0 * math.Sin(o.Kx*x),
		0,
	}
	if s == 0 {
		u[2] = -o.U0 * o.DeltaB * o.OmegaCe * (2*o.Kx*math.Cos(2*o.Kx*x) + o.Ky*math.Cos(o.Ky*y))
	}
	return u
}

func (o *OrszagTang) F(s int, x, y, z, vx, vy, vz float64) float64 {
	u := o.flow(s, x, y)
	vt := o.Vte
	if s != 0 {
		vt = o.Vti
	}
	return maxwellian(vt, vx, vy, vz, u[0], u[1], u[2])
}

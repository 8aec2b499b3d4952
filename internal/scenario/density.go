package scenario

import "math"

// DensityPerturbation is a sinusoidal density modulation of two Maxwellians
// along x in a uniform magnetic field parallel to x. Each species free-streams
// along the field, so the perturbation phase-mixes away at a known rate.
type DensityPerturbation struct {
	Vte, Vti float64
	K        float64
	Dn       float64
	OmegaCe  float64
}

func NewDensityPerturbation(p Params) *DensityPerturbation {
	vte := math.Sqrt(0.25 / 2)
	return &DensityPerturbation{
		Vte:     vte,
		Vti:     vte * math.Sqrt(1/p.MiMe),
		K:       2 * math.Pi / p.Lx,
		Dn:      0.3,
		OmegaCe: p.OmegaCe,
	}
}

func (d *DensityPerturbation) Name() string { return "density_perturbation" }

func (d *DensityPerturbation) E(x, y, z float64) [3]float64 { return [3]float64{} }

func (d *DensityPerturbation) B(x, y, z float64) [3]float64 {
	return [3]float64{d.OmegaCe, 0, 0}
}

func (d *DensityPerturbation) thermal(s int) float64 {
	if s == 0 {
		return d.Vte
	}
	return d.Vti
}

func (d *DensityPerturbation) F(s int, x, y, z, vx, vy, vz float64) float64 {
	return maxwellian(d.thermal(s), vx, vy, vz, 0, 0, 0) * (1 + d.Dn*math.Sin(d.K*x))
}

// ExactF is the free-streaming solution f(x - vx t, v, 0).
func (d *DensityPerturbation) ExactF(s int, t, x, y, z, vx, vy, vz float64) float64 {
	return maxwellian(d.thermal(s), vx, vy, vz, 0, 0, 0) * (1 + d.Dn*math.Sin(d.K*(x-vx*t)))
}

// ExactC0 is the zeroth Hermite coefficient of ExactF for a species expanded
// with isotropic scale alpha = sqrt(2)·vt:
//
//	C0(t, x) = (1 + dn sin(kx) exp(-(k vt t)²/2)) / alpha³
func (d *DensityPerturbation) ExactC0(s int, alpha, t, x float64) float64 {
	vt := d.thermal(s)
	damp := math.Exp(-(d.K * vt * t) * (d.K * vt * t) / 2)
	return (1 + d.Dn*math.Sin(d.K*x)*damp) / (alpha * alpha * alpha)
}

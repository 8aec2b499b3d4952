package scenario

import "math"

// Maxwellian is a drifting Maxwellian per species with an optional density
// profile and uniform fields.
type Maxwellian struct {
	Vt      []float64
	Drift   [][3]float64
	Density func(x, y, z float64) float64
	Efield  [3]float64
	Bfield  [3]float64
}

// NewMaxwellian builds a two-species plasma at rest with a 10% cosine density
// modulation along x and a uniform field B = Ω_ce·x̂.
func NewMaxwellian(p Params) *Maxwellian {
	vte := math.Sqrt(0.25 / 2)
	k := 2 * math.Pi / p.Lx
	return &Maxwellian{
		Vt:      []float64{vte, vte * math.Sqrt(1/p.MiMe)},
		Drift:   [][3]float64{{}, {}},
		Density: func(x, y, z float64) float64 { return 1 + 0.1*math.Cos(k*x) },
		Bfield:  [3]float64{p.OmegaCe, 0, 0},
	}
}

func (m *Maxwellian) Name() string { return "maxwellian" }

func (m *Maxwellian) E(x, y, z float64) [3]float64 { return m.Efield }

func (m *Maxwellian) B(x, y, z float64) [3]float64 { return m.Bfield }

func (m *Maxwellian) F(s int, x, y, z, vx, vy, vz float64) float64 {
	if s < 0 || s >= len(m.Vt) {
		return 0
	}
	n := 1.0
	if m.Density != nil {
		n = m.Density(x, y, z)
	}
	var u [3]float64
	if s < len(m.Drift) {
		u = m.Drift[s]
	}
	return n * maxwellian(m.Vt[s], vx, vy, vz, u[0], u[1], u[2])
}

package vlasov

import "github.com/san-kum/vlasim/internal/index"

// Collision is a linear damping applied diagonally to each moment:
// dC_nmp/dt += Rate(n, m, p)·C_nmp.
type Collision interface {
	Rate(n, m, p int) float64
}

// NoCollision leaves the moments undamped.
type NoCollision struct{}

func (NoCollision) Rate(n, m, p int) float64 { return 0 }

// HyperCollision damps the top of the Hermite spectrum with the cubic
// profile
//
//	-ν Σ_axis n(n-1)(n-2) / ((N-1)(N-2)(N-3))
//
// which vanishes for orders below 3 and reaches -ν per axis at the
// truncation. Axes with fewer than four orders do not contribute.
type HyperCollision struct {
	Nu         float64
	Nn, Nm, Np int
}

func NewHyperCollision(nu float64, l index.Layout) HyperCollision {
	return HyperCollision{Nu: nu, Nn: l.Nn, Nm: l.Nm, Np: l.Np}
}

func (h HyperCollision) Rate(n, m, p int) float64 {
	return -h.Nu * (cubicProfile(n, h.Nn) + cubicProfile(m, h.Nm) + cubicProfile(p, h.Np))
}

func cubicProfile(n, max int) float64 {
	if max < 4 {
		return 0
	}
	num := float64(n * (n - 1) * (n - 2))
	den := float64((max - 1) * (max - 2) * (max - 3))
	return num / den
}

// collisionFor picks the explicit operator or builds the default one from Nu.
func collisionFor(p Params) Collision {
	if p.Collision != nil {
		return p.Collision
	}
	if p.Nu == 0 {
		return NoCollision{}
	}
	return NewHyperCollision(p.Nu, p.Layout)
}

// Package index packs and unpacks the (species, n, m, p) multi-index used to
// address Hermite moments in a flat coefficient array.
//
// The packing is
//
//	idx = s·Nn·Nm·Np + p·Nn·Nm + m·Nn + n
//
// and every other package goes through [Layout] instead of repeating it.
package index

import "fmt"

// Mode is one Hermite moment of one species.
type Mode struct {
	S, N, M, P int
}

func (md Mode) String() string {
	return fmt.Sprintf("(s=%d n=%d m=%d p=%d)", md.S, md.N, md.M, md.P)
}

// Layout holds the truncation orders and species count.
type Layout struct {
	Ns, Nn, Nm, Np int
}

func New(ns, nn, nm, np int) Layout {
	return Layout{Ns: ns, Nn: nn, Nm: nm, Np: np}
}

// PerSpecies is the number of Hermite moments of a single species.
func (l Layout) PerSpecies() int { return l.Nn * l.Nm * l.Np }

// Len is the number of packed moments over all species.
func (l Layout) Len() int { return l.Ns * l.PerSpecies() }

// Valid reports whether every component of md lies inside the truncation.
func (l Layout) Valid(md Mode) bool {
	return md.S >= 0 && md.S < l.Ns &&
		md.N >= 0 && md.N < l.Nn &&
		md.M >= 0 && md.M < l.Nm &&
		md.P >= 0 && md.P < l.Np
}

// Pack returns the linear index of (s, n, m, p). The caller must check Valid
// first; out-of-range modes do not map to a meaningful slot.
func (l Layout) Pack(s, n, m, p int) int {
	return s*l.PerSpecies() + p*l.Nn*l.Nm + m*l.Nn + n
}

func (l Layout) PackMode(md Mode) int { return l.Pack(md.S, md.N, md.M, md.P) }

// Lookup returns the packed index of md and whether it is inside the
// truncation. Shifted neighbours outside the truncation report ok=false and
// must be treated as zero.
func (l Layout) Lookup(md Mode) (int, bool) {
	if !l.Valid(md) {
		return -1, false
	}
	return l.PackMode(md), true
}

// Unpack inverts Pack for idx in [0, Len()).
func (l Layout) Unpack(idx int) Mode {
	per := l.PerSpecies()
	s := idx / per
	r := idx - s*per
	p := r / (l.Nn * l.Nm)
	r -= p * l.Nn * l.Nm
	m := r / l.Nn
	n := r - m*l.Nn
	return Mode{S: s, N: n, M: m, P: p}
}

// Modes lists every mode in packed order.
func (l Layout) Modes() []Mode {
	out := make([]Mode, l.Len())
	for i := range out {
		out[i] = l.Unpack(i)
	}
	return out
}

// Check validates the layout dimensions.
func (l Layout) Check() error {
	if l.Ns <= 0 || l.Nn <= 0 || l.Nm <= 0 || l.Np <= 0 {
		return fmt.Errorf("layout dimensions must be positive, got Ns=%d Nn=%d Nm=%d Np=%d", l.Ns, l.Nn, l.Nm, l.Np)
	}
	return nil
}

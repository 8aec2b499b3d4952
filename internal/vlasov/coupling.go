package vlasov

import (
	"math"

	"github.com/san-kum/vlasim/internal/index"
	"github.com/san-kum/vlasim/internal/spectral"
)

// neighbours resolves moment blocks relative to one packed index. Any
// neighbour outside the truncated Hermite cube resolves to nil, which every
// consumer treats as zero.
type neighbours struct {
	layout index.Layout
	c      []complex128
	size   int
	base   index.Mode
}

func (nb neighbours) at(dn, dm, dp int) []complex128 {
	md := nb.base
	md.N += dn
	md.M += dm
	md.P += dp
	j, ok := nb.layout.Lookup(md)
	if !ok {
		return nil
	}
	return nb.c[j*nb.size : (j+1)*nb.size]
}

// term is one weighted moment block in a linear combination.
type term struct {
	w float64
	c []complex128
}

// combine returns Σ w·c over the non-nil, non-zero terms, or nil if none
// contribute.
func combine(size int, terms ...term) []complex128 {
	var out []complex128
	for _, t := range terms {
		if t.c == nil || t.w == 0 {
			continue
		}
		if out == nil {
			out = make([]complex128, size)
		}
		w := complex(t.w, 0)
		for i, v := range t.c {
			out[i] += w * v
		}
	}
	return out
}

func sqrtf(a, b int) float64 { return math.Sqrt(float64(a) * float64(b)) }

// Coupling returns dC_idx/dt for a single packed index given the full moment
// array C and field array F. Neither input is modified.
func (sys *System) Coupling(C, F []complex128, idx int) []complex128 {
	out := make([]complex128, sys.size)
	sys.coupling(C, F, idx, out)
	return out
}

// coupling accumulates the derivative of moment idx into dst, which must be
// zeroed and hold exactly one block.
func (sys *System) coupling(C, F []complex128, idx int, dst []complex128) {
	md := sys.p.Layout.Unpack(idx)
	alpha, u, q, omega := sys.p.Species(md.S)
	n, m, p := md.N, md.M, md.P

	nb := neighbours{layout: sys.p.Layout, c: C, size: sys.size, base: md}
	self := nb.at(0, 0, 0)

	sys.advect(dst, nb, self, alpha, u, n, m, p)

	qw := q * omega
	if qw != 0 {
		field := func(ch int) []complex128 { return F[ch*sys.size : (ch+1)*sys.size] }
		sys.electric(dst, nb, field, qw, alpha, n, m, p)
		sys.magnetic(dst, nb, field, qw, alpha, u, n, m, p)
	}

	if rate := sys.collision.Rate(n, m, p); rate != 0 {
		r := complex(rate, 0)
		for i, v := range self {
			dst[i] += r * v
		}
	}
}

// advect adds the free-streaming term
//
//	-i (k_a/L_a) α_a [sqrt((n+1)/2) C_{n+1} + sqrt(n/2) C_{n-1} + (u_a/α_a) C_n]
//
// summed over the three axes.
func (sys *System) advect(dst []complex128, nb neighbours, self []complex128, alpha, u [3]float64, n, m, p int) {
	orders := [3]int{n, m, p}
	up := [3][]complex128{nb.at(1, 0, 0), nb.at(0, 1, 0), nb.at(0, 0, 1)}
	down := [3][]complex128{nb.at(-1, 0, 0), nb.at(0, -1, 0), nb.at(0, 0, -1)}

	var lines [3][]complex128
	for a := 0; a < 3; a++ {
		o := orders[a]
		lines[a] = combine(sys.size,
			term{alpha[a] * math.Sqrt(float64(o+1)/2), up[a]},
			term{alpha[a] * math.Sqrt(float64(o)/2), down[a]},
			term{u[a], self},
		)
	}

	for i, kx := range sys.k[0] {
		for j, ky := range sys.k[1] {
			for l, kz := range sys.k[2] {
				off := sys.offset(i, j, l)
				var acc complex128
				if lines[0] != nil {
					acc += complex(kx, 0) * lines[0][off]
				}
				if lines[1] != nil {
					acc += complex(ky, 0) * lines[1][off]
				}
				if lines[2] != nil {
					acc += complex(kz, 0) * lines[2][off]
				}
				dst[off] += -1i * acc
			}
		}
	}
}

// electric adds qΩ [sqrt(2n)/α_x E_x⊛C_{n-1} + sqrt(2m)/α_y E_y⊛C_{m-1} + sqrt(2p)/α_z E_z⊛C_{p-1}].
func (sys *System) electric(dst []complex128, nb neighbours, field func(int) []complex128, qw float64, alpha [3]float64, n, m, p int) {
	lower := [3][]complex128{nb.at(-1, 0, 0), nb.at(0, -1, 0), nb.at(0, 0, -1)}
	orders := [3]int{n, m, p}
	for a := 0; a < 3; a++ {
		if lower[a] == nil {
			continue
		}
		w := qw * math.Sqrt(2*float64(orders[a])) / alpha[a]
		spectral.ConvolveAdd(dst, field(a), lower[a], sys.shape, complex(w, 0))
	}
}

// magnetic adds qΩ [B_x⊛aux_x + B_y⊛aux_y + B_z⊛aux_z], the rotation of the
// Hermite moments about the magnetic field in the shifted, anisotropic basis.
func (sys *System) magnetic(dst []complex128, nb neighbours, field func(int) []complex128, qw float64, alpha, u [3]float64, n, m, p int) {
	ax, ay, az := alpha[0], alpha[1], alpha[2]
	ux, uy, uz := u[0], u[1], u[2]

	auxX := combine(sys.size,
		term{sqrtf(m, p) * (az/ay - ay/az), nb.at(0, -1, -1)},
		term{sqrtf(m, p+1) * (az / ay), nb.at(0, -1, 1)},
		term{-sqrtf(m+1, p) * (ay / az), nb.at(0, 1, -1)},
		term{sqrtf(2, m) * (uz / ay), nb.at(0, -1, 0)},
		term{-sqrtf(2, p) * (uy / az), nb.at(0, 0, -1)},
	)
	auxY := combine(sys.size,
		term{sqrtf(n, p) * (ax/az - az/ax), nb.at(-1, 0, -1)},
		term{sqrtf(n+1, p) * (ax / az), nb.at(1, 0, -1)},
		term{-sqrtf(n, p+1) * (az / ax), nb.at(-1, 0, 1)},
		term{sqrtf(2, p) * (ux / az), nb.at(0, 0, -1)},
		term{-sqrtf(2, n) * (uz / ax), nb.at(-1, 0, 0)},
	)
	auxZ := combine(sys.size,
		term{sqrtf(n, m) * (ay/ax - ax/ay), nb.at(-1, -1, 0)},
		term{sqrtf(n, m+1) * (ay / ax), nb.at(-1, 1, 0)},
		term{-sqrtf(n+1, m) * (ax / ay), nb.at(1, -1, 0)},
		term{sqrtf(2, n) * (uy / ax), nb.at(-1, 0, 0)},
		term{-sqrtf(2, m) * (ux / ay), nb.at(0, -1, 0)},
	)

	for a, aux := range [3][]complex128{auxX, auxY, auxZ} {
		if aux == nil {
			continue
		}
		spectral.ConvolveAdd(dst, field(3+a), aux, sys.shape, complex(qw, 0))
	}
}

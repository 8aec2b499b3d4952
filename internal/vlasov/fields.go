package vlasov

import "math"

// Cross returns the component-wise cross product a × b of two 3-vector
// fields.
func Cross(a, b [3][]complex128) [3][]complex128 {
	n := len(a[0])
	var out [3][]complex128
	for c := range out {
		out[c] = make([]complex128, n)
	}
	for i := 0; i < n; i++ {
		out[0][i] = a[1][i]*b[2][i] - a[2][i]*b[1][i]
		out[1][i] = a[2][i]*b[0][i] - a[0][i]*b[2][i]
		out[2][i] = a[0][i]*b[1][i] - a[1][i]*b[0][i]
	}
	return out
}

// FieldDerivative returns d(E, B)/dt as six channels:
//
//	dB/dt = -i k×E
//	dE/dt =  i k×B - J/Ω_c0
//
// where the current of each species is built from its order-0 and order-1
// moments. Order-1 moments dropped by the truncation contribute nothing.
func (sys *System) FieldDerivative(C, F []complex128) []complex128 {
	size := sys.size
	ch := func(c int) []complex128 { return F[c*size : (c+1)*size] }
	E := [3][]complex128{ch(0), ch(1), ch(2)}
	B := [3][]complex128{ch(3), ch(4), ch(5)}

	kxE := Cross(sys.kmesh, E)
	kxB := Cross(sys.kmesh, B)

	out := make([]complex128, FieldChannels*size)
	for c := 0; c < 3; c++ {
		dE := out[c*size : (c+1)*size]
		dB := out[(3+c)*size : (4+c)*size]
		for i := 0; i < size; i++ {
			dE[i] = 1i * kxB[c][i]
			dB[i] = -1i * kxE[c][i]
		}
	}

	l := sys.p.Layout
	inv := 1 / sys.p.OmegaCs[0]
	for s := 0; s < l.Ns; s++ {
		alpha, u, q, _ := sys.p.Species(s)
		if q == 0 {
			continue
		}
		scale := q * alpha[0] * alpha[1] * alpha[2] * inv

		j0, _ := l.Lookup(modeAt(s, 0, 0, 0))
		c0 := C[j0*size : (j0+1)*size]
		first := [3]int{}
		first[0], _ = l.Lookup(modeAt(s, 1, 0, 0))
		first[1], _ = l.Lookup(modeAt(s, 0, 1, 0))
		first[2], _ = l.Lookup(modeAt(s, 0, 0, 1))

		for a := 0; a < 3; a++ {
			dE := out[a*size : (a+1)*size]
			var c1 []complex128
			if j := first[a]; j >= 0 {
				c1 = C[j*size : (j+1)*size]
			}
			w1 := complex(scale*alpha[a]/math.Sqrt2, 0)
			w0 := complex(scale*u[a], 0)
			for i := 0; i < size; i++ {
				cur := w0 * c0[i]
				if c1 != nil {
					cur += w1 * c1[i]
				}
				dE[i] -= cur
			}
		}
	}
	return out
}

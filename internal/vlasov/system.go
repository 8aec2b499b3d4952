package vlasov

import (
	"fmt"

	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/index"
	"github.com/san-kum/vlasim/internal/spectral"
)

// System is the Vlasov–Maxwell right-hand side. It is read-only after New
// and safe for concurrent use.
type System struct {
	p         Params
	shape     spectral.Shape
	size      int
	k         [3][]float64
	kmesh     [3][]complex128
	collision Collision
}

var _ dynamo.System = (*System)(nil)

func modeAt(s, n, m, p int) index.Mode { return index.Mode{S: s, N: n, M: m, P: p} }

// New validates p and precomputes the wavenumbers shared by every
// derivative evaluation.
func New(p Params) (*System, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	wn := p.Grid.Wavenumbers()
	sys := &System{
		p:         p,
		shape:     p.Grid.Shape(),
		size:      p.Grid.Size(),
		k:         [3][]float64{wn.X, wn.Y, wn.Z},
		collision: collisionFor(p),
	}

	for a := range sys.kmesh {
		sys.kmesh[a] = make([]complex128, sys.size)
	}
	for i, kx := range wn.X {
		for j, ky := range wn.Y {
			for l, kz := range wn.Z {
				o := sys.offset(i, j, l)
				sys.kmesh[0][o] = complex(kx, 0)
				sys.kmesh[1][o] = complex(ky, 0)
				sys.kmesh[2][o] = complex(kz, 0)
			}
		}
	}
	return sys, nil
}

func (sys *System) offset(i, j, k int) int { return (i*sys.shape.Ny+j)*sys.shape.Nz + k }

func (sys *System) Params() Params { return sys.p }

// Kmesh returns the wavenumber components k/L meshed over the grid.
func (sys *System) Kmesh() [3][]complex128 { return sys.kmesh }

// MomentLen is the length of the flattened moment array.
func (sys *System) MomentLen() int { return sys.p.Layout.Len() * sys.size }

func (sys *System) StateDim() int { return sys.MomentLen() + FieldChannels*sys.size }

// Split returns views of the moment and field parts of y.
func (sys *System) Split(y dynamo.State) (C, F []complex128) {
	cut := len(y) - FieldChannels*sys.size
	return y[:cut], y[cut:]
}

// Join concatenates a moment array and a field array into a new state.
func Join(C, F []complex128) dynamo.State {
	y := make(dynamo.State, 0, len(C)+len(F))
	y = append(y, C...)
	return append(y, F...)
}

// Derive returns dy/dt. It panics if y does not have length StateDim, since
// the integrator contract leaves no way to report the mismatch.
func (sys *System) Derive(y dynamo.State, t float64) dynamo.State {
	if len(y) != sys.StateDim() {
		panic(fmt.Sprintf("%v: state has length %d, want %d", dynamo.ErrDimensionMismatch, len(y), sys.StateDim()))
	}

	C, F := sys.Split(y)
	out := make(dynamo.State, len(y))
	size := sys.size

	dynamo.ParallelFor(sys.p.Layout.Len(), 1, func(start, end int) {
		for idx := start; idx < end; idx++ {
			sys.coupling(C, F, idx, out[idx*size:(idx+1)*size])
		}
	})

	copy(out[len(C):], sys.FieldDerivative(C, F))
	return out
}

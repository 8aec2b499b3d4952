// Package vlasov assembles the right-hand side of the Hermite–Fourier
// Vlasov–Maxwell system.
//
// The state vector is the flattened moment array C (packed with
// [index.Layout]) followed by the six field channels (Ex, Ey, Ez, Bx, By, Bz),
// every block held in centred Fourier space. [System.Derive] maps (y, t) to
// dy/dt without retaining or mutating anything, so it can be handed to any
// explicit or adaptive integrator.
package vlasov

import (
	"fmt"
	"math"

	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/grid"
	"github.com/san-kum/vlasim/internal/index"
)

// FieldChannels is the number of field components carried in the state.
const FieldChannels = 6

// Params are the structural and physical inputs of the model. They are
// treated as immutable once passed to New.
type Params struct {
	Grid   grid.Grid
	Layout index.Layout

	// Per-species charge and gyrofrequency, length Ns.
	Qs      []float64
	OmegaCs []float64
	// Per-species thermal scales and drifts, length 3·Ns, species-major.
	Alphas []float64
	Us     []float64

	// Nu scales the default hyper-collision term. Ignored if Collision is set.
	Nu        float64
	Collision Collision
}

// Species returns the per-species slice of the physical parameters.
func (p Params) Species(s int) (alpha, u [3]float64, q, omega float64) {
	copy(alpha[:], p.Alphas[3*s:3*s+3])
	copy(u[:], p.Us[3*s:3*s+3])
	return alpha, u, p.Qs[s], p.OmegaCs[s]
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate rejects configurations that would make the derivative ill-posed.
func (p Params) Validate() error {
	if err := p.Layout.Check(); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}
	if err := p.Grid.Check(); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}

	ns := p.Layout.Ns
	if len(p.Qs) != ns {
		return fmt.Errorf("%w: %d charges for %d species", dynamo.ErrDimensionMismatch, len(p.Qs), ns)
	}
	if len(p.OmegaCs) != ns {
		return fmt.Errorf("%w: %d gyrofrequencies for %d species", dynamo.ErrDimensionMismatch, len(p.OmegaCs), ns)
	}
	if len(p.Alphas) != 3*ns {
		return fmt.Errorf("%w: alpha_s has %d entries, want %d", dynamo.ErrDimensionMismatch, len(p.Alphas), 3*ns)
	}
	if len(p.Us) != 3*ns {
		return fmt.Errorf("%w: u_s has %d entries, want %d", dynamo.ErrDimensionMismatch, len(p.Us), 3*ns)
	}

	for i, a := range p.Alphas {
		if !(a > 0) || !finite(a) {
			return fmt.Errorf("%w: alpha_s[%d] = %v must be positive and finite", dynamo.ErrParameterBounds, i, a)
		}
	}
	for i, u := range p.Us {
		if !finite(u) {
			return fmt.Errorf("%w: u_s[%d] = %v is not finite", dynamo.ErrParameterBounds, i, u)
		}
	}
	for s := 0; s < ns; s++ {
		if !finite(p.Qs[s]) || !finite(p.OmegaCs[s]) {
			return fmt.Errorf("%w: species %d has non-finite charge or gyrofrequency", dynamo.ErrParameterBounds, s)
		}
	}
	// The field source is normalized by the electron gyrofrequency.
	if p.OmegaCs[0] == 0 {
		return fmt.Errorf("%w: Omega_cs[0] must be non-zero", dynamo.ErrParameterBounds)
	}
	if p.Nu < 0 || !finite(p.Nu) {
		return fmt.Errorf("%w: nu = %v must be non-negative", dynamo.ErrParameterBounds, p.Nu)
	}
	return nil
}

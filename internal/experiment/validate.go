package experiment

import (
	"fmt"
	"math"

	"github.com/san-kum/vlasim/internal/index"
	"github.com/san-kum/vlasim/internal/scenario"
	"github.com/san-kum/vlasim/internal/spectral"
)

// Deviation is the worst relative error of the electron C_000 against the
// analytic solution at one saved time.
type Deviation struct {
	Time   float64
	MaxRel float64
}

// CompareExact measures every saved state of outcome against the scenario's
// analytic C_000 along the x axis (j = k = 0).
func (e *Experiment) CompareExact(outcome *Outcome) ([]Deviation, error) {
	exact, ok := e.ic.(scenario.Analytic)
	if !ok {
		return nil, fmt.Errorf("scenario %s has no analytic solution", e.ic.Name())
	}

	p := e.sys.Params()
	g := p.Grid
	size := g.Size()
	alpha, _, _, _ := p.Species(0)
	j0, _ := p.Layout.Lookup(index.Mode{})
	xs, _, _ := g.Positions()

	out := make([]Deviation, 0, len(outcome.Result.States))
	for n, y := range outcome.Result.States {
		t := outcome.Result.Times[n]
		c0 := spectral.Inverse(y[j0*size:(j0+1)*size], g.Shape())

		worst := 0.0
		for i, x := range xs {
			want := exact.ExactC0(0, alpha[0], t, x)
			got := real(c0[g.Offset(i, 0, 0)])
			worst = math.Max(worst, math.Abs(got-want)/math.Abs(want))
		}
		out = append(out, Deviation{Time: t, MaxRel: worst})
	}
	return out, nil
}

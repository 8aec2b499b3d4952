package moments

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/vlasim/internal/grid"
	"github.com/san-kum/vlasim/internal/scenario"
	"github.com/san-kum/vlasim/internal/spectral"
	"github.com/san-kum/vlasim/internal/vlasov"
)

// Initialize projects ic onto every packed moment and samples its fields,
// returning both in centred Fourier space. C0 is laid out per p.Layout and
// F0 holds the six field channels. The projections run concurrently; each
// writes only its own block, so the result does not depend on scheduling.
func Initialize(ctx context.Context, ic scenario.InitialCondition, p vlasov.Params, v grid.Velocity, log logrus.FieldLogger) (C0, F0 []complex128, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if err := v.Check(); err != nil {
		return nil, nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	g := p.Grid
	size := g.Size()
	shape := g.Shape()
	total := p.Layout.Len()

	log = log.WithFields(logrus.Fields{
		"scenario": ic.Name(),
		"moments":  total,
		"grid":     fmt.Sprintf("%dx%dx%d", g.Nx, g.Ny, g.Nz),
	})
	log.Info("projecting initial condition")
	start := time.Now()

	C := make([]complex128, total*size)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for idx := 0; idx < total; idx++ {
		idx := idx
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			md := p.Layout.Unpack(idx)
			alpha, u, _, _ := p.Species(md.S)
			f := func(x, y, z, vx, vy, vz float64) float64 {
				return ic.F(md.S, x, y, z, vx, vy, vz)
			}
			c, err := Project(f, alpha, u, g, v, md.N, md.M, md.P)
			if err != nil {
				return err
			}
			copy(C[idx*size:(idx+1)*size], c)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("project moments: %w", err)
	}

	F := SampleFields(ic, g)

	log.WithField("elapsed", time.Since(start)).Debug("projection done")

	return spectral.Forward(C, shape), spectral.Forward(F, shape), nil
}

// SampleFields evaluates E and B of ic on the grid in physical space,
// channels ordered Ex, Ey, Ez, Bx, By, Bz.
func SampleFields(ic scenario.InitialCondition, g grid.Grid) []complex128 {
	size := g.Size()
	F := make([]complex128, vlasov.FieldChannels*size)
	xs, ys, zs := g.Positions()
	for i, x := range xs {
		for j, y := range ys {
			for k, z := range zs {
				o := g.Offset(i, j, k)
				e := ic.E(x, y, z)
				b := ic.B(x, y, z)
				for c := 0; c < 3; c++ {
					F[c*size+o] = complex(e[c], 0)
					F[(3+c)*size+o] = complex(b[c], 0)
				}
			}
		}
	}
	return F
}

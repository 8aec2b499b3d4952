package diagnostics

import (
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/grid"
	"github.com/san-kum/vlasim/internal/index"
	"github.com/san-kum/vlasim/internal/spectral"
	"github.com/san-kum/vlasim/internal/vlasov"
)

func newSystem(t *testing.T, gr grid.Grid, l index.Layout, alpha float64, u [3]float64) *vlasov.System {
	t.Helper()
	ns := l.Ns
	p := vlasov.Params{
		Grid:    gr,
		Layout:  l,
		Qs:      make([]float64, ns),
		OmegaCs: make([]float64, ns),
		Alphas:  make([]float64, 3*ns),
		Us:      make([]float64, 3*ns),
	}
	for s := 0; s < ns; s++ {
		p.Qs[s], p.OmegaCs[s] = -1, 1
		for a := 0; a < 3; a++ {
			p.Alphas[3*s+a] = alpha
			p.Us[3*s+a] = u[a]
		}
	}
	sys, err := vlasov.New(p)
	if err != nil {
		t.Fatal(err)
	}
	return sys
}

// physicalState builds a spectral state from physical-space generators.
func physicalState(sys *vlasov.System, moment func(idx int, x, y, z float64) float64, field func(ch int, x, y, z float64) float64) dynamo.State {
	p := sys.Params()
	gr := p.Grid
	size := gr.Size()
	C := make([]complex128, sys.MomentLen())
	F := make([]complex128, vlasov.FieldChannels*size)

	xs, ys, zs := gr.Positions()
	for i, x := range xs {
		for j, y := range ys {
			for k, z := range zs {
				o := gr.Offset(i, j, k)
				for idx := 0; idx < p.Layout.Len(); idx++ {
					C[idx*size+o] = complex(moment(idx, x, y, z), 0)
				}
				for ch := 0; ch < vlasov.FieldChannels; ch++ {
					F[ch*size+o] = complex(field(ch, x, y, z), 0)
				}
			}
		}
	}
	shape := gr.Shape()
	return vlasov.Join(spectral.Forward(C, shape), spectral.Forward(F, shape))
}

func zeroField(int, float64, float64, float64) float64 { return 0 }

func TestPlasmaEnergyMaxwellian(t *testing.T) {
	g := NewWithT(t)

	const alpha = 0.5
	u := [3]float64{0.1, -0.2, 0}
	gr := grid.New(4, 2, 1, 1, 1, 1)
	l := index.New(1, 3, 3, 3)
	sys := newSystem(t, gr, l, alpha, u)

	y := physicalState(sys, func(idx int, x, _, _ float64) float64 {
		if idx != 0 {
			return 0
		}
		return (1 + 0.3*math.Sin(2*math.Pi*x)) / (alpha * alpha * alpha)
	}, zeroField)

	u2 := u[0]*u[0] + u[1]*u[1] + u[2]*u[2]
	want := 0.5 * 2 * (u2 + 1.5*alpha*alpha)
	g.Expect(PlasmaEnergy(sys, y, []float64{2})).To(BeNumerically("~", want, 1e-12))
	g.Expect(EMEnergy(sys, y)).To(BeNumerically("~", 0, 1e-15))

	n := Density(sys, y, 0)
	xs, _, _ := gr.Positions()
	for i, x := range xs {
		g.Expect(n[gr.Offset(i, 0, 0)]).To(BeNumerically("~", 1+0.3*math.Sin(2*math.Pi*x), 1e-12))
	}
}

func TestPlasmaEnergyHigherMoments(t *testing.T) {
	g := NewWithT(t)

	const alpha = 1.0
	sys := newSystem(t, grid.New(1, 1, 1, 1, 1, 1), index.New(1, 3, 1, 1), alpha, [3]float64{})
	l := sys.Params().Layout

	// C_200 shifts the x temperature; the missing order-2 moments along y
	// and z count as zero.
	y := physicalState(sys, func(idx int, _, _, _ float64) float64 {
		switch idx {
		case l.Pack(0, 0, 0, 0):
			return 1
		case l.Pack(0, 2, 0, 0):
			return 0.4
		}
		return 0
	}, zeroField)

	want := 0.5 * (1.5 + 0.4/math.Sqrt2)
	g.Expect(PlasmaEnergy(sys, y, []float64{1})).To(BeNumerically("~", want, 1e-12))
}

func TestEMEnergy(t *testing.T) {
	g := NewWithT(t)

	sys := newSystem(t, grid.New(4, 1, 1, 1, 1, 1), index.New(1, 1, 1, 1), 1, [3]float64{})
	y := physicalState(sys, func(int, float64, float64, float64) float64 { return 0 }, func(ch int, x, _, _ float64) float64 {
		switch ch {
		case 1:
			return math.Sin(2 * math.Pi * x)
		case 3:
			return 2
		}
		return 0
	})

	g.Expect(EMEnergy(sys, y)).To(BeNumerically("~", 2.25, 1e-12))
}

func TestDivB(t *testing.T) {
	g := NewWithT(t)

	sys := newSystem(t, grid.New(4, 4, 1, 1, 1, 1), index.New(1, 1, 1, 1), 1, [3]float64{})
	noMoments := func(int, float64, float64, float64) float64 { return 0 }

	solenoidal := physicalState(sys, noMoments, func(ch int, _, y, _ float64) float64 {
		if ch == 3 {
			return math.Sin(2 * math.Pi * y)
		}
		return 0
	})
	g.Expect(DivB(sys, solenoidal)).To(BeNumerically("~", 0, 1e-18))

	compressive := physicalState(sys, noMoments, func(ch int, x, _, _ float64) float64 {
		if ch == 3 {
			return math.Sin(2 * math.Pi * x)
		}
		return 0
	})
	g.Expect(DivB(sys, compressive)).To(BeNumerically("~", 2*math.Pi*math.Pi, 1e-9))
}

func TestHermiteSpectrum(t *testing.T) {
	g := NewWithT(t)

	sys := newSystem(t, grid.New(4, 2, 1, 1, 1, 1), index.New(2, 3, 2, 1), 1, [3]float64{})
	l := sys.Params().Layout
	noFields := func(int, float64, float64, float64) float64 { return 0 }

	only000 := physicalState(sys, func(idx int, _, _, _ float64) float64 {
		if idx == l.Pack(0, 0, 0, 0) {
			return 0.8
		}
		return 0
	}, noFields)
	electron := HermiteSpectrum(sys, only000, 0)
	g.Expect(electron).To(HaveLen(3))
	g.Expect(electron[0]).To(BeNumerically("~", 0.64, 1e-12))
	g.Expect(electron[1:]).To(HaveEach(BeNumerically("~", 0, 1e-15)))
	g.Expect(HermiteSpectrum(sys, only000, 1)).To(HaveEach(BeNumerically("~", 0, 1e-15)))

	// Orders along vy fold into the same n.
	ion := physicalState(sys, func(idx int, x, _, _ float64) float64 {
		switch idx {
		case l.Pack(1, 2, 1, 0):
			return 1
		case l.Pack(1, 2, 0, 0):
			return 0.5 * math.Sin(2*math.Pi*x)
		}
		return 0
	}, noFields)
	spec := HermiteSpectrum(sys, ion, 1)
	g.Expect(spec).To(HaveLen(3))
	g.Expect(spec[0]).To(BeNumerically("~", 0, 1e-15))
	g.Expect(spec[1]).To(BeNumerically("~", 0, 1e-15))
	g.Expect(spec[2]).To(BeNumerically("~", 1.125, 1e-12))
}

func TestFieldRMS(t *testing.T) {
	g := NewWithT(t)

	sys := newSystem(t, grid.New(4, 1, 1, 1, 1, 1), index.New(1, 1, 1, 1), 1, [3]float64{})
	y := physicalState(sys, func(int, float64, float64, float64) float64 { return 0 }, func(ch int, x, _, _ float64) float64 {
		switch ch {
		case 0:
			return math.Sin(2 * math.Pi * x)
		case 5:
			return -0.7
		}
		return 0
	})

	rms := FieldRMS(sys, y)
	g.Expect(rms[0]).To(BeNumerically("~", math.Sqrt(0.5), 1e-12))
	g.Expect(rms[5]).To(BeNumerically("~", 0.7, 1e-12))
	for _, c := range []int{1, 2, 3, 4} {
		g.Expect(rms[c]).To(BeNumerically("~", 0, 1e-15), "channel %s", FieldNames[c])
	}
}

func TestToPhysicalRoundTrip(t *testing.T) {
	g := NewWithT(t)

	sys := newSystem(t, grid.New(4, 2, 2, 1, 2, 3), index.New(2, 2, 1, 1), 0.5, [3]float64{})
	moment := func(idx int, x, y, z float64) float64 { return float64(idx+1) + x - y*z }
	field := func(ch int, x, y, z float64) float64 { return float64(ch) * (x + 2*y + 3*z) }
	ph := ToPhysical(sys, physicalState(sys, moment, field))

	p := sys.Params()
	gr := p.Grid
	size := gr.Size()
	g.Expect(ph.C).To(HaveLen(2))

	xs, ys, zs := gr.Positions()
	for i, x := range xs {
		for j, y := range ys {
			for k, z := range zs {
				o := gr.Offset(i, j, k)
				for a := 0; a < 3; a++ {
					g.Expect(ph.E[a][o]).To(BeNumerically("~", field(a, x, y, z), 1e-9))
					g.Expect(ph.B[a][o]).To(BeNumerically("~", field(3+a, x, y, z), 1e-9))
				}
				for s := 0; s < 2; s++ {
					for local := 0; local < p.Layout.PerSpecies(); local++ {
						idx := s*p.Layout.PerSpecies() + local
						g.Expect(real(ph.C[s][local*size+o])).To(BeNumerically("~", moment(idx, x, y, z), 1e-9))
					}
				}
			}
		}
	}
}

func TestSeries(t *testing.T) {
	g := NewWithT(t)

	sys := newSystem(t, grid.New(2, 1, 1, 1, 1, 1), index.New(1, 1, 1, 1), 1, [3]float64{})
	y := physicalState(sys, func(int, float64, float64, float64) float64 { return 1 }, func(ch int, _, _, _ float64) float64 {
		if ch == 5 {
			return 1
		}
		return 0
	})

	series := Series(sys, []dynamo.State{y, y}, []float64{0, 0.5}, []float64{1})
	g.Expect(series).To(HaveLen(2))
	g.Expect(series[1].Time).To(Equal(0.5))
	g.Expect(series[0].EM).To(BeNumerically("~", 0.5, 1e-12))
	g.Expect(series[0].Plasma).To(BeNumerically("~", 0.75, 1e-12))
	g.Expect(series[0].Total).To(BeNumerically("~", 1.25, 1e-12))
	g.Expect(series[0].FieldRMS[5]).To(BeNumerically("~", 1, 1e-12))
	g.Expect(series[0].Hermite).To(HaveLen(1))
	g.Expect(series[0].Hermite[0]).To(BeNumerically("~", 1, 1e-12))
	g.Expect(Column(series, func(s Sample) float64 { return s.Time })).To(Equal([]float64{0, 0.5}))
}

func TestDiverged(t *testing.T) {
	tests := []struct {
		name      string
		y         dynamo.State
		threshold float64
		want      bool
	}{
		{"finite", dynamo.State{1, 2i}, 10, false},
		{"over threshold", dynamo.State{100, 0}, 10, true},
		{"nan", dynamo.State{complex(math.NaN(), 0)}, 10, true},
		{"inf", dynamo.State{complex(0, math.Inf(1))}, 0, true},
		{"disabled", dynamo.State{1e20}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Diverged(tt.y, tt.threshold); got != tt.want {
				t.Errorf("Diverged = %v, want %v", got, tt.want)
			}
		})
	}
}

package scenario

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

var testParams = Params{Lx: 3, Ly: 2, Lz: 1, OmegaCe: 1, MiMe: 25}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		ic, err := r.Get(name, testParams)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if ic.Name() != name {
			t.Errorf("scenario registered as %q reports name %q", name, ic.Name())
		}
	}

	if _, err := r.Get("nonexistent", testParams); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

// velocityIntegral integrates f over vx, vy, vz in [-a, a] with the
// trapezoidal rule.
func velocityIntegral(f func(vx, vy, vz float64) float64, a float64, n int) float64 {
	v := floats.Span(make([]float64, n), -a, a)
	fz := make([]float64, n)
	fy := make([]float64, n)
	fx := make([]float64, n)
	for i, vx := range v {
		for j, vy := range v {
			for k, vz := range v {
				fz[k] = f(vx, vy, vz)
			}
			fy[j] = integrate.Trapezoidal(v, fz)
		}
		fx[i] = integrate.Trapezoidal(v, fy)
	}
	return integrate.Trapezoidal(v, fx)
}

func TestDensityPerturbationNormalization(t *testing.T) {
	d := NewDensityPerturbation(testParams)

	for _, x := range []float64{0, 0.4, 1.7} {
		got := velocityIntegral(func(vx, vy, vz float64) float64 {
			return d.F(0, x, 0, 0, vx, vy, vz)
		}, 3, 61)
		want := 1 + d.Dn*math.Sin(d.K*x)
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("electron density at x=%v: got %v, want %v", x, got, want)
		}
	}
}

func TestDensityPerturbationExactAtZero(t *testing.T) {
	d := NewDensityPerturbation(testParams)
	alpha := math.Sqrt2 * d.Vte

	for _, x := range []float64{0, 0.75, 2.2} {
		if got, want := d.ExactF(0, 0, x, 0, 0, 0.1, 0.2, 0.3), d.F(0, x, 0, 0, 0.1, 0.2, 0.3); math.Abs(got-want) > 1e-14 {
			t.Errorf("ExactF(t=0) = %v, want %v", got, want)
		}
		want := (1 + d.Dn*math.Sin(d.K*x)) / (alpha * alpha * alpha)
		if got := d.ExactC0(0, alpha, 0, x); math.Abs(got-want) > 1e-12 {
			t.Errorf("ExactC0(t=0, x=%v) = %v, want %v", x, got, want)
		}
	}

	// Phase mixing damps the modulation toward the uniform value.
	late := d.ExactC0(0, alpha, 50, testParams.Lx/4)
	if math.Abs(late-1/(alpha*alpha*alpha)) > 1e-6 {
		t.Errorf("perturbation not damped at late time: %v", late)
	}
}

func TestMaxwellianDrift(t *testing.T) {
	m := NewMaxwellian(testParams)
	m.Drift[0] = [3]float64{0.2, 0, -0.1}

	mean := velocityIntegral(func(vx, vy, vz float64) float64 {
		return vx * m.F(0, 0, 0, 0, vx, vy, vz)
	}, 3, 61)
	density := m.Density(0, 0, 0)
	if math.Abs(mean/density-0.2) > 1e-6 {
		t.Errorf("mean vx = %v, want 0.2", mean/density)
	}

	if m.F(5, 0, 0, 0, 0, 0, 0) != 0 {
		t.Error("unknown species should have an empty distribution")
	}
}

func TestOrszagTangFields(t *testing.T) {
	o := NewOrszagTang(testParams)
	b := o.B(0, testParams.Ly/4, 0)
	if math.Abs(b[0]+o.DeltaB) > 1e-12 || b[2] != 1 {
		t.Errorf("unexpected B at (0, Ly/4): %v", b)
	}
	if e := o.E(1, 1, 1); e != [3]float64{} {
		t.Errorf("expected zero E, got %v", e)
	}
	if o.F(1, 0, 0, 0, 0, 0, 0) <= 0 {
		t.Error("ion distribution must be positive at the origin")
	}
}

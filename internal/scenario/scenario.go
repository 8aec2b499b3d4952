// Package scenario supplies analytic initial conditions: the electric and
// magnetic fields and one distribution function per species, all evaluated
// pointwise in physical space.
package scenario

import (
	"fmt"
	"math"
	"sort"
)

// InitialCondition is the capability set consumed by the moment projector.
type InitialCondition interface {
	Name() string
	E(x, y, z float64) [3]float64
	B(x, y, z float64) [3]float64
	// F is the distribution function of species s at (x, v).
	F(s int, x, y, z, vx, vy, vz float64) float64
}

// Params carries the run parameters scenarios are allowed to depend on.
type Params struct {
	Lx, Ly, Lz float64
	OmegaCe    float64
	MiMe       float64
}

// maxwellian is an isotropic normalized Gaussian with thermal speed vt
// centred on the drift (ux, uy, uz).
func maxwellian(vt, vx, vy, vz, ux, uy, uz float64) float64 {
	dx, dy, dz := vx-ux, vy-uy, vz-uz
	return math.Exp(-(dx*dx+dy*dy+dz*dz)/(2*vt*vt)) / (math.Pow(2*math.Pi, 1.5) * vt * vt * vt)
}

type Factory func(p Params) InitialCondition

// Registry maps scenario names to constructors.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.factories["density_perturbation"] = func(p Params) InitialCondition { return NewDensityPerturbation(p) }
	r.factories["orszag_tang"] = func(p Params) InitialCondition { return NewOrszagTang(p) }
	r.factories["hermite_modes"] = func(p Params) InitialCondition { return NewHermiteModes(p) }
	r.factories["maxwellian"] = func(p Params) InitialCondition { return NewMaxwellian(p) }

	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

func (r *Registry) Get(name string, p Params) (InitialCondition, error) {
	fn, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Analytic is implemented by scenarios with a closed-form zeroth moment,
// used to validate runs.
type Analytic interface {
	ExactC0(s int, alpha, t, x float64) float64
}

package metrics

import (
	"math"

	"github.com/san-kum/vlasim/internal/diagnostics"
	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/vlasov"
)

// DivB is the largest mean-square ∇·B seen over the observed states.
type DivB struct {
	name string
	sys  *vlasov.System
	max  float64
}

func NewDivB(sys *vlasov.System) *DivB {
	return &DivB{name: "div_b", sys: sys}
}

func (d *DivB) Name() string { return d.name }

func (d *DivB) Observe(y dynamo.State, t float64) {
	d.max = math.Max(d.max, diagnostics.DivB(d.sys, y))
}

func (d *DivB) Value() float64 { return d.max }

func (d *DivB) Reset() { d.max = 0 }

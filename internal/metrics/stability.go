package metrics

import (
	"github.com/san-kum/vlasim/internal/diagnostics"
	"github.com/san-kum/vlasim/internal/dynamo"
)

// Stability is the fraction of observed states that stayed finite with a
// norm below threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(y dynamo.State, t float64) {
	s.samples++
	if diagnostics.Diverged(y, s.threshold) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

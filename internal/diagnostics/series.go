package diagnostics

import (
	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/vlasov"
)

// Sample holds the diagnostics of one saved state.
type Sample struct {
	Time   float64 `json:"time"`
	Plasma float64 `json:"plasma"`
	EM     float64 `json:"em"`
	Total  float64 `json:"total"`
	DivB   float64 `json:"div_b"`

	// FieldRMS holds Ex, Ey, Ez, Bx, By, Bz.
	FieldRMS [vlasov.FieldChannels]float64 `json:"field_rms"`
	// Hermite is the electron spectrum, indexed by order along vx.
	Hermite  []float64                    `json:"hermite"`
}

// FieldNames labels the FieldRMS entries.
var FieldNames = [vlasov.FieldChannels]string{"ex", "ey", "ez", "bx", "by", "bz"}

// Measure evaluates all scalar diagnostics of y.
func Measure(sys *vlasov.System, y dynamo.State, t float64, masses []float64) Sample {
	s := Sample{
		Time:   t,
		Plasma: PlasmaEnergy(sys, y, masses),
		EM:     EMEnergy(sys, y),
		DivB:   DivB(sys, y),

		FieldRMS: FieldRMS(sys, y),
		Hermite:  HermiteSpectrum(sys, y, 0),
	}
	s.Total = s.Plasma + s.EM
	return s
}

// Series measures every saved state. states and times must have equal
// length.
func Series(sys *vlasov.System, states []dynamo.State, times []float64, masses []float64) []Sample {
	out := make([]Sample, 0, len(states))
	for i, y := range states {
		out = append(out, Measure(sys, y, times[i], masses))
	}
	return out
}

// Column extracts one field of a series, e.g. for plotting.
func Column(series []Sample, field func(Sample) float64) []float64 {
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = field(s)
	}
	return out
}

// Package metrics accumulates scalar diagnostics over the saved states of a
// run.
package metrics

import (
	"math"

	"github.com/san-kum/vlasim/internal/diagnostics"
	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/vlasov"
)

// Energy records the full diagnostic sample of every observed state. Its
// value is the total energy of the most recent one.
type Energy struct {
	name    string
	sys     *vlasov.System
	masses  []float64
	samples []diagnostics.Sample
}

func NewEnergy(sys *vlasov.System, masses []float64) *Energy {
	return &Energy{
		name:   "energy",
		sys:    sys,
		masses: masses,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(y dynamo.State, t float64) {
	e.samples = append(e.samples, diagnostics.Measure(e.sys, y, t, e.masses))
}

func (e *Energy) Value() float64 {
	if len(e.samples) == 0 {
		return 0
	}
	return e.samples[len(e.samples)-1].Total
}

func (e *Energy) Reset() {
	e.samples = e.samples[:0]
}

// Series returns the recorded samples in observation order.
func (e *Energy) Series() []diagnostics.Sample {
	out := make([]diagnostics.Sample, len(e.samples))
	copy(out, e.samples)
	return out
}

// EnergyDrift is the largest relative departure of the total energy from its
// first observed value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	energy        func(y dynamo.State) float64
}

func NewEnergyDrift(sys *vlasov.System, masses []float64) *EnergyDrift {
	return NewEnergyDriftFunc(func(y dynamo.State) float64 {
		return diagnostics.PlasmaEnergy(sys, y, masses) + diagnostics.EMEnergy(sys, y)
	})
}

// NewEnergyDriftFunc tracks the drift of an arbitrary energy functional.
func NewEnergyDriftFunc(energy func(y dynamo.State) float64) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		energy: energy,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(y dynamo.State, t float64) {
	energy := e.energy(y)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

package tui

import (
	"time"

	"github.com/san-kum/vlasim/internal/diagnostics"
	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/vlasov"
)

// Frame is what the live view draws for one moment of the run.
type Frame struct {
	Step    int
	Time    float64
	Sample  diagnostics.Sample
	Profile []float64
}

// Feed is an observer that turns accepted steps into frames, at most
// frameRate per second. A non-positive frameRate emits every step.
type Feed struct {
	sys       *vlasov.System
	masses    []float64
	frameRate int
	emit      func(Frame)
	lastFrame time.Time
	step      int
}

func NewFeed(sys *vlasov.System, masses []float64, frameRate int, emit func(Frame)) *Feed {
	return &Feed{sys: sys, masses: masses, frameRate: frameRate, emit: emit}
}

func (f *Feed) OnStep(y dynamo.State, t float64) {
	f.step++
	if f.frameRate > 0 {
		if time.Since(f.lastFrame) < time.Second/time.Duration(f.frameRate) {
			return
		}
		f.lastFrame = time.Now()
	}
	f.emit(f.Frame(y, t))
}

// Frame measures y without throttling.
func (f *Feed) Frame(y dynamo.State, t float64) Frame {
	return Frame{
		Step:    f.step,
		Time:    t,
		Sample:  diagnostics.Measure(f.sys, y, t, f.masses),
		Profile: profileX(f.sys, diagnostics.Density(f.sys, y, 0)),
	}
}

// profileX cuts a grid field along x at y = z = 0.
func profileX(sys *vlasov.System, field []float64) []float64 {
	g := sys.Params().Grid
	out := make([]float64, g.Nx)
	for i := range out {
		out[i] = field[g.Offset(i, 0, 0)]
	}
	return out
}

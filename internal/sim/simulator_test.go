package sim

import (
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/integrators"
)

// decay is dy/dt = rate·y.
type decay struct{ rate complex128 }

func (d *decay) Derive(y dynamo.State, t float64) dynamo.State {
	return dynamo.State{d.rate * y[0]}
}

func (d *decay) StateDim() int { return 1 }

type poisoned struct{}

func (poisoned) Derive(y dynamo.State, t float64) dynamo.State {
	return dynamo.State{complex(math.Inf(1), 0)}
}

func (poisoned) StateDim() int { return 1 }

func quiet(s *Simulator) *Simulator {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	s.SetLogger(l)
	return s
}

func TestSimulatorRun(t *testing.T) {
	sim := quiet(New(&decay{rate: -1}, integrators.NewEuler()))

	cfg := dynamo.Config{Dt: 0.1, Duration: 1.0, SaveEvery: 1, ValidateState: true}
	result, err := sim.Run(context.Background(), dynamo.State{1}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}

	final := real(result.Final()[0])
	expected := math.Exp(-1.0)
	if math.Abs(final-expected) > 0.2 {
		t.Errorf("expected final state ~%.4f, got %.4f", expected, final)
	}
}

func TestSimulatorSaveEvery(t *testing.T) {
	sim := quiet(New(&decay{rate: -1}, integrators.NewRK4()))

	cfg := dynamo.Config{Dt: 0.1, Duration: 1.0, SaveEvery: 3}
	result, err := sim.Run(context.Background(), dynamo.State{1}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 0.3, 0.6, 0.9, 1.0}
	if len(result.Times) != len(want) {
		t.Fatalf("saved times %v, want %v", result.Times, want)
	}
	for i, w := range want {
		if math.Abs(result.Times[i]-w) > 1e-9 {
			t.Errorf("time[%d] = %v, want %v", i, result.Times[i], w)
		}
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := quiet(New(&decay{rate: -1}, integrators.NewEuler()))

	tests := []struct {
		name string
		cfg  dynamo.Config
		y0   dynamo.State
	}{
		{"zero dt", dynamo.Config{Dt: 0, Duration: 1.0}, dynamo.State{1}},
		{"negative dt", dynamo.Config{Dt: -0.1, Duration: 1.0}, dynamo.State{1}},
		{"zero duration", dynamo.Config{Dt: 0.1, Duration: 0}, dynamo.State{1}},
		{"negative duration", dynamo.Config{Dt: 0.1, Duration: -1.0}, dynamo.State{1}},
		{"adaptive without tolerance", dynamo.Config{Dt: 0.1, Duration: 1, Adaptive: true}, dynamo.State{1}},
		{"wrong dimension", dynamo.Config{Dt: 0.1, Duration: 1}, dynamo.State{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.y0, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(y dynamo.State, time float64) {
	t.count++
	t.sum += real(y[0])
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

type countingObserver struct{ steps int }

func (c *countingObserver) OnStep(y dynamo.State, t float64) { c.steps++ }

func TestSimulatorMetrics(t *testing.T) {
	sim := quiet(New(&decay{rate: -1}, integrators.NewEuler()))

	metric := &testMetric{}
	obs := &countingObserver{}
	sim.AddMetric(metric)
	sim.AddObserver(obs)

	cfg := dynamo.Config{Dt: 0.1, Duration: 1.0, SaveEvery: 5}
	result, err := sim.Run(context.Background(), dynamo.State{1}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != len(result.States) {
		t.Errorf("expected %d observations, got %d", len(result.States), metric.count)
	}
	if obs.steps != 10 {
		t.Errorf("expected 10 observer calls, got %d", obs.steps)
	}
}

func TestSimulatorDivergence(t *testing.T) {
	tests := []struct {
		name string
		sys  dynamo.System
		want error
	}{
		{"norm threshold", &decay{rate: 10}, dynamo.ErrUnstable},
		{"non-finite", poisoned{}, dynamo.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := quiet(New(tt.sys, integrators.NewEuler()))
			cfg := dynamo.Config{Dt: 0.1, Duration: 5, SaveEvery: 1, ValidateState: true, DivergenceThreshold: 5}

			result, err := sim.Run(context.Background(), dynamo.State{1}, cfg)
			if err != nil {
				t.Fatalf("divergence should be recorded, not returned: %v", err)
			}
			if len(result.Errors) != 1 {
				t.Fatalf("expected one recorded error, got %v", result.Errors)
			}
			if !errors.Is(result.Errors[0], tt.want) {
				t.Errorf("recorded %v, want %v", result.Errors[0], tt.want)
			}
			var simErr dynamo.SimError
			if !errors.As(result.Errors[0], &simErr) {
				t.Errorf("expected SimError, got %T", result.Errors[0])
			}
			if !Failed(result) {
				t.Error("Failed should report the divergence")
			}
			if result.Times[len(result.Times)-1] >= 5 {
				t.Error("run should stop before the requested duration")
			}
			if !result.Final().IsValid() {
				t.Error("diverged state should not be saved")
			}
		})
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := quiet(New(&decay{rate: -1}, integrators.NewEuler()))
	result, err := sim.Run(ctx, dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if len(result.States) != 1 {
		t.Errorf("expected only the initial state, got %d", len(result.States))
	}
}

func TestSimulatorAdaptive(t *testing.T) {
	sys := &decay{rate: 2i}
	cfg := dynamo.Config{Dt: 0.05, Duration: 2, Adaptive: true, Tolerance: 1e-9, MinDt: 1e-10, MaxDt: 0.2, SaveEvery: 1}

	t.Run("embedded", func(t *testing.T) {
		result, err := quiet(New(sys, integrators.NewRK45())).Run(context.Background(), dynamo.State{1}, cfg)
		if err != nil {
			t.Fatal(err)
		}
		tEnd := result.Times[len(result.Times)-1]
		if math.Abs(tEnd-2) > 1e-9 {
			t.Errorf("run ended at t=%v, want 2", tEnd)
		}
		if e := cmplx.Abs(result.Final()[0] - cmplx.Exp(complex(0, 2*tEnd))); e > 1e-6 {
			t.Errorf("adaptive RK45 error %e", e)
		}
	})

	t.Run("step doubling", func(t *testing.T) {
		loose := cfg
		loose.Tolerance = 1e-7
		result, err := quiet(New(sys, integrators.NewRK4())).Run(context.Background(), dynamo.State{1}, loose)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Errors) != 0 {
			t.Fatalf("unexpected errors: %v", result.Errors)
		}
		tEnd := result.Times[len(result.Times)-1]
		if e := cmplx.Abs(result.Final()[0] - cmplx.Exp(complex(0, 2*tEnd))); e > 1e-4 {
			t.Errorf("step-doubling error %e", e)
		}
	})
}

func TestSimulatorAdaptiveStepFloor(t *testing.T) {
	rk := integrators.NewRK45()
	cfg := dynamo.Config{Dt: 0.05, Duration: 2, Adaptive: true, Tolerance: 1e-14, MinDt: 0.01, MaxDt: 0.2, SaveEvery: 1}

	result, err := quiet(New(&decay{rate: 2i}, rk)).Run(context.Background(), dynamo.State{1}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rk.MinDt != cfg.MinDt || rk.MaxDt != cfg.MaxDt {
		t.Errorf("step bounds = [%g, %g], want [%g, %g]", rk.MinDt, rk.MaxDt, cfg.MinDt, cfg.MaxDt)
	}
	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], dynamo.ErrStepTooSmall) {
		t.Fatalf("expected ErrStepTooSmall, got %v", result.Errors)
	}
	if !Failed(result) {
		t.Error("run below the step floor should count as failed")
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := quiet(New(&decay{rate: -1}, integrators.NewEuler()))

	calls := 0
	err := sim.RunWithCallback(context.Background(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1}, func(y dynamo.State, t float64) bool {
		calls++
		return calls < 4
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 4 {
		t.Errorf("expected 4 callbacks, got %d", calls)
	}
}

package dynamo

import (
	"errors"
	"math"
	"math/cmplx"
	"sync/atomic"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1, 2i, 3 + 4i}, true},
		{"with NaN", State{1, cmplx.NaN()}, false},
		{"with real NaN", State{complex(math.NaN(), 0)}, false},
		{"with +Inf", State{1, cmplx.Inf()}, false},
		{"with imag -Inf", State{complex(0, math.Inf(-1))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4i}, 5.0},
		{State{3 + 4i}, 5.0},
		{State{0, 0}, 0.0},
		{State{1, 1i, -1, -1i}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2i, 3}
	b := State{4, 5, 6i}

	sum := a.Add(b)
	if sum[0] != 5 || sum[1] != 5+2i || sum[2] != 3+6i {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff[0] != 3 || diff[1] != 5-2i || diff[2] != -3+6i {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(1i)
	if scaled[0] != 1i || scaled[1] != -2 || scaled[2] != 3i {
		t.Errorf("Scale failed: got %v", scaled)
	}

	c := a.Clone()
	c[0] = 99
	if a[0] == 99 {
		t.Error("Clone shares storage")
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 1001} {
		hits := make([]int32, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("DefaultConfig has invalid Dt")
	}
	if cfg.Duration <= 0 {
		t.Error("DefaultConfig has invalid Duration")
	}
	if cfg.Tolerance <= 0 {
		t.Error("DefaultConfig has invalid Tolerance")
	}
	if cfg.DivergenceThreshold <= 0 {
		t.Error("DefaultConfig has invalid DivergenceThreshold")
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Step: 150, Message: "test error", Wrapped: ErrUnstable}
	expected := "step 150 (t=1.5000): test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrUnstable) {
		t.Error("SimError does not unwrap to its cause")
	}
}

func TestResultFinal(t *testing.T) {
	r := &Result{}
	if r.Final() != nil {
		t.Error("expected nil final state for empty result")
	}
	r.States = []State{{1}, {2}}
	if r.Final()[0] != 2 {
		t.Error("Final did not return the last state")
	}
}

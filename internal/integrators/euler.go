package integrators

import "github.com/san-kum/vlasim/internal/dynamo"

// Euler is the explicit first-order method. It is mainly useful as a
// reference in tests and benchmarks.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, y dynamo.State, t, dt float64) dynamo.State {
	dy := sys.Derive(y, t)
	h := complex(dt, 0)
	result := make(dynamo.State, len(y))
	for i := range y {
		result[i] = y[i] + h*dy[i]
	}
	return result
}

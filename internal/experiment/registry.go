package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/integrators"
	"github.com/san-kum/vlasim/internal/metrics"
	"github.com/san-kum/vlasim/internal/scenario"
	"github.com/san-kum/vlasim/internal/vlasov"
)

type Registry struct {
	scenarios   *scenario.Registry
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		scenarios:   scenario.NewRegistry(),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetScenario(name string, p scenario.Params) (scenario.InitialCondition, error) {
	return r.scenarios.Get(name, p)
}

// RegisterScenario adds or replaces a scenario factory.
func (r *Registry) RegisterScenario(name string, f scenario.Factory) {
	r.scenarios.Register(name, f)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListScenarios() []string {
	return r.scenarios.Names()
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are evaluated on every saved state of a run.
func (r *Registry) DefaultMetrics(sys *vlasov.System, masses []float64, threshold float64) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergyDrift(sys, masses),
		metrics.NewStability(threshold),
		metrics.NewDivB(sys),
	}
}

// Package experiment wires a configuration into a runnable simulation:
// scenario, projected initial state, right-hand side, integrator and
// metrics.
package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/vlasim/internal/config"
	"github.com/san-kum/vlasim/internal/diagnostics"
	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/metrics"
	"github.com/san-kum/vlasim/internal/moments"
	"github.com/san-kum/vlasim/internal/scenario"
	"github.com/san-kum/vlasim/internal/sim"
	"github.com/san-kum/vlasim/internal/vlasov"
)

type Experiment struct {
	cfg        *config.Config
	ic         scenario.InitialCondition
	sys        *vlasov.System
	integrator dynamo.Integrator
	simulator  *sim.Simulator
	energy     *metrics.Energy
	y0         dynamo.State
	log        logrus.FieldLogger
}

// Outcome is a finished run with its energy history.
type Outcome struct {
	Result *dynamo.Result
	Series []diagnostics.Sample
}

// New validates cfg and builds every component except the initial state.
func New(cfg *config.Config, reg *Registry, log logrus.FieldLogger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	ic, err := reg.GetScenario(cfg.Scenario, cfg.ScenarioParams())
	if err != nil {
		return nil, err
	}
	integrator, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	sys, err := vlasov.New(cfg.Params())
	if err != nil {
		return nil, err
	}

	e := &Experiment{
		cfg:        cfg,
		ic:         ic,
		sys:        sys,
		integrator: integrator,
		simulator:  sim.New(sys, integrator),
		energy:     metrics.NewEnergy(sys, cfg.SpeciesMasses()),
		log:        log.WithFields(logrus.Fields{"scenario": cfg.Scenario, "integrator": cfg.Integrator}),
	}
	e.simulator.SetLogger(e.log)
	e.simulator.AddMetric(e.energy)
	for _, m := range reg.DefaultMetrics(sys, cfg.SpeciesMasses(), cfg.DivergenceThreshold) {
		e.simulator.AddMetric(m)
	}
	return e, nil
}

// Setup projects the initial condition. It is called by Run if needed.
func (e *Experiment) Setup(ctx context.Context) error {
	C0, F0, err := moments.Initialize(ctx, e.ic, e.sys.Params(), e.cfg.GridVelocity(), e.log)
	if err != nil {
		return err
	}
	e.y0 = vlasov.Join(C0, F0)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if e.y0 == nil {
		if err := e.Setup(ctx); err != nil {
			return nil, err
		}
	}

	result, err := e.simulator.Run(ctx, e.y0, e.cfg.SimConfig())
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: result, Series: e.energy.Series()}, nil
}

// InitialState returns the projected initial state, or nil before Setup.
func (e *Experiment) InitialState() dynamo.State { return e.y0 }

func (e *Experiment) System() *vlasov.System { return e.sys }

func (e *Experiment) Scenario() scenario.InitialCondition { return e.ic }

func (e *Experiment) Integrator() dynamo.Integrator { return e.integrator }

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

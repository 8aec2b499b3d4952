// Package sim drives an integrator over a dynamo.System, saving snapshots
// and stopping early when the state diverges.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/vlasim/internal/dynamo"
)

type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        logrus.FieldLogger
}

func New(sys dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        logrus.StandardLogger(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		s.log = l
	}
}

// Run integrates from y0 at t=0 to cfg.Duration. Every SaveEvery-th state
// is kept, together with the initial and final ones; metrics observe the
// saved states only. Divergence is not returned as an error: it is recorded
// in Result.Errors and the run stops with the states gathered so far.
func (s *Simulator) Run(ctx context.Context, y0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validateConfig(y0, cfg); err != nil {
		return nil, err
	}

	every := cfg.SaveEvery
	if every < 1 {
		every = 1
	}
	expected := int(math.Ceil(cfg.Duration/cfg.Dt)) + 1
	result := &dynamo.Result{
		States:  make([]dynamo.State, 0, expected/every+2),
		Times:   make([]float64, 0, expected/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	if b, ok := s.integrator.(dynamo.StepBounder); ok && cfg.Adaptive {
		b.SetStepBounds(cfg.MinDt, cfg.MaxDt)
	}

	y := y0.Clone()
	t := 0.0
	dt := cfg.Dt

	log := s.log.WithFields(logrus.Fields{
		"dim":      len(y0),
		"duration": cfg.Duration,
		"adaptive": cfg.Adaptive,
	})
	log.WithField("dt", dt).Info("starting run")

	s.save(result, y, t)

	saved := true
	for step := 0; t < cfg.Duration*(1-1e-12); step++ {
		select {
		case <-ctx.Done():
			log.WithField("t", t).Warn("run canceled")
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if remaining := cfg.Duration - t; dt > remaining {
			dt = remaining
		}

		var next dynamo.State
		taken := dt
		if cfg.Adaptive {
			var err error
			next, taken, dt, err = s.adaptiveStep(y, t, dt, cfg)
			if err != nil {
				s.fail(result, log, dynamo.SimError{Time: t, Step: step, Message: "adaptive step failed", Wrapped: err})
				break
			}
		} else {
			next = s.integrator.Step(s.sys, y, t, dt)
		}

		if err := s.check(next, cfg); err != nil {
			s.fail(result, log, dynamo.SimError{Time: t + taken, Step: step, Message: err.Error(), Wrapped: err})
			break
		}

		y = next
		t += taken
		result.StepsTaken++

		for _, obs := range s.observers {
			obs.OnStep(y, t)
		}

		saved = false
		if result.StepsTaken%every == 0 {
			s.save(result, y, t)
			saved = true
			log.WithFields(logrus.Fields{"step": result.StepsTaken, "t": t}).Debug("snapshot")
		}
	}

	if !saved && len(result.Errors) == 0 {
		s.save(result, y, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	log.WithFields(logrus.Fields{
		"steps":     result.StepsTaken,
		"snapshots": len(result.States),
		"t":         t,
	}).Info("run finished")

	return result, nil
}

func (s *Simulator) save(result *dynamo.Result, y dynamo.State, t float64) {
	result.States = append(result.States, y.Clone())
	result.Times = append(result.Times, t)
	for _, m := range s.metrics {
		m.Observe(y, t)
	}
}

func (s *Simulator) fail(result *dynamo.Result, log logrus.FieldLogger, err dynamo.SimError) {
	result.Errors = append(result.Errors, err)
	log.WithFields(logrus.Fields{"step": err.Step, "t": err.Time}).WithError(err.Wrapped).Warn("stopping run")
}

// check applies the divergence criteria of cfg to a freshly computed state.
func (s *Simulator) check(y dynamo.State, cfg dynamo.Config) error {
	if cfg.ValidateState && !y.IsValid() {
		return dynamo.ErrInvalidState
	}
	if cfg.DivergenceThreshold > 0 {
		if norm := y.Norm(); norm > cfg.DivergenceThreshold {
			return &dynamo.SimulationError{Norm: norm, Wrapped: dynamo.ErrUnstable}
		}
	}
	return nil
}

func (s *Simulator) validateConfig(y0 dynamo.State, cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrParameterBounds, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", dynamo.ErrParameterBounds)
	}
	if len(y0) != s.sys.StateDim() {
		return fmt.Errorf("%w: initial state has length %d, system expects %d", dynamo.ErrDimensionMismatch, len(y0), s.sys.StateDim())
	}
	return nil
}

// adaptiveStep uses the integrator's own error control when it has one and
// falls back to step doubling otherwise.
func (s *Simulator) adaptiveStep(y dynamo.State, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		next, taken, suggested, err := adaptive.StepAdaptive(s.sys, y, t, dt, cfg.Tolerance)
		if cfg.MaxDt > 0 && suggested > cfg.MaxDt {
			suggested = cfg.MaxDt
		}
		return next, taken, suggested, err
	}

	for {
		y1 := s.integrator.Step(s.sys, y, t, dt)
		yHalf := s.integrator.Step(s.sys, y, t, dt/2)
		y2 := s.integrator.Step(s.sys, yHalf, t+dt/2, dt/2)

		errNorm := y1.Sub(y2).Norm()
		if math.IsNaN(errNorm) || errNorm > cfg.Tolerance {
			if dt/2 < cfg.MinDt {
				return nil, dt, dt, fmt.Errorf("%w: dt=%g at t=%g", dynamo.ErrStepTooSmall, dt/2, t)
			}
			dt /= 2
			continue
		}

		next := dt
		if errNorm < cfg.Tolerance/10 {
			next = dt * 2
			if cfg.MaxDt > 0 && next > cfg.MaxDt {
				next = cfg.MaxDt
			}
		}
		return y2, dt, next, nil
	}
}

// RunWithCallback steps with a fixed dt and hands every state to callback,
// which can stop the run by returning false.
func (s *Simulator) RunWithCallback(ctx context.Context, y0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, float64) bool) error {
	if err := s.validateConfig(y0, cfg); err != nil {
		return err
	}

	y := y0.Clone()
	t := 0.0
	dt := cfg.Dt

	for step := 0; t < cfg.Duration; step++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if !callback(y, t) {
			return nil
		}

		y = s.integrator.Step(s.sys, y, t, dt)
		t += dt

		if err := s.check(y, cfg); err != nil {
			return dynamo.SimError{Time: t, Step: step, Message: err.Error(), Wrapped: err}
		}
	}

	return nil
}

// Failed reports whether result ended because of divergence.
func Failed(result *dynamo.Result) bool {
	for _, err := range result.Errors {
		if errors.Is(err, dynamo.ErrUnstable) || errors.Is(err, dynamo.ErrInvalidState) || errors.Is(err, dynamo.ErrStepTooSmall) {
			return true
		}
	}
	return false
}

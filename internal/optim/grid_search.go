// Package optim sweeps run parameters over a grid and keeps the setting
// that minimizes a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/vlasim/internal/config"
)

// Setter applies one swept value to a configuration.
type Setter func(cfg *config.Config, v float64)

var Params = map[string]Setter{
	"dt":        func(c *config.Config, v float64) { c.Dt = v },
	"duration":  func(c *config.Config, v float64) { c.Duration = v },
	"tolerance": func(c *config.Config, v float64) { c.Tolerance = v },
	"nu":        func(c *config.Config, v float64) { c.Nu = v },
	"nx":        func(c *config.Config, v float64) { c.Nx = int(v) },
	"nn":        func(c *config.Config, v float64) { c.Nn = int(v) },
	"nm":        func(c *config.Config, v float64) { c.Nm = int(v) },
	"np":        func(c *config.Config, v float64) { c.Np = int(v) },
	"lx":        func(c *config.Config, v float64) { c.Lx = v },
	"alpha_e": func(c *config.Config, v float64) {
		for i := 0; i < 3 && i < len(c.AlphaS); i++ {
			c.AlphaS[i] = v
		}
	},
}

func ParamNames() []string {
	names := make([]string, 0, len(Params))
	for name := range Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunFunc executes one configuration and returns its metrics.
type RunFunc func(ctx context.Context, cfg *config.Config) (map[string]float64, error)

// Trial is one point of the grid.
type Trial struct {
	Values  map[string]float64
	Metrics map[string]float64
	Err     error
}

var ErrNoTrials = errors.New("no trial produced the metric")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters for %d ranges", len(params), len(ranges))
	}
	for i, p := range params {
		if _, ok := Params[p]; !ok {
			return nil, fmt.Errorf("unknown parameter: %s (available: %v)", p, ParamNames())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs every combination on a copy of base and returns the trial
// with the smallest finite metricName, plus all trials in grid order.
// A failing trial is recorded and skipped; cancellation stops the search.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	run RunFunc,
	metricName string,
) (Trial, []Trial, error) {
	var trials []Trial
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, run, &trials); err != nil {
		return Trial{}, trials, err
	}

	bestIdx := -1
	best := math.Inf(1)
	for i, tr := range trials {
		if tr.Err != nil {
			continue
		}
		val, ok := tr.Metrics[metricName]
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		if val < best {
			best = val
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Trial{}, trials, fmt.Errorf("%w: %s", ErrNoTrials, metricName)
	}
	return trials[bestIdx], trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	run RunFunc,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		values := make(map[string]float64, len(current))
		for k, v := range current {
			values[k] = v
			Params[k](cfg, v)
		}

		tr := Trial{Values: values}
		if err := cfg.Validate(); err != nil {
			tr.Err = err
		} else {
			tr.Metrics, tr.Err = run(ctx, cfg)
		}
		if tr.Err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		*trials = append(*trials, tr)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, base, run, trials); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}

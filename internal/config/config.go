// Package config holds the run configuration: the plasma and resolution
// parameters of the model plus the integration settings, loaded from YAML
// or JSON files and named presets.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/grid"
	"github.com/san-kum/vlasim/internal/index"
	"github.com/san-kum/vlasim/internal/scenario"
	"github.com/san-kum/vlasim/internal/vlasov"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 10.0
	DefaultSaveEvery = 50
	DefaultMiMe      = 25.0
	DefaultOmegaCe   = 1.0
	DefaultThreshold = 1e12
)

type Config struct {
	Scenario   string `yaml:"scenario"`
	Integrator string `yaml:"integrator"`

	Nx  int `yaml:"nx"`
	Ny  int `yaml:"ny"`
	Nz  int `yaml:"nz"`
	Nvx int `yaml:"nvx"`
	Nvy int `yaml:"nvy"`
	Nvz int `yaml:"nvz"`

	Lx float64 `yaml:"lx"`
	Ly float64 `yaml:"ly"`
	Lz float64 `yaml:"lz"`

	Nn int `yaml:"nn"`
	Nm int `yaml:"nm"`
	Np int `yaml:"np"`
	Ns int `yaml:"ns"`

	MiMe    float64   `yaml:"mi_me"`
	OmegaCe float64   `yaml:"omega_ce"`
	Qs      []float64 `yaml:"qs"`
	AlphaS  []float64 `yaml:"alpha_s"`
	US      []float64 `yaml:"u_s"`
	Nu      float64   `yaml:"nu"`
	Masses  []float64 `yaml:"masses,omitempty"`

	Dt                  float64        `yaml:"dt"`
	Duration            float64        `yaml:"duration"`
	Adaptive            bool           `yaml:"adaptive"`
	Tolerance           float64        `yaml:"tolerance"`
	SaveEvery           int            `yaml:"save_every"`
	DivergenceThreshold float64        `yaml:"divergence_threshold"`
	Velocity            VelocityConfig `yaml:"velocity"`
}

// VelocityConfig is the projection window applied to every velocity axis.
type VelocityConfig struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Samples int     `yaml:"samples"`
}

// DefaultConfig is the electron–ion density perturbation along a guide
// field, resolved with 16 Fourier modes in x and 12 Hermite orders in vx.
func DefaultConfig() *Config {
	v := grid.DefaultVelocity()
	alphaE := 0.5
	alphaI := alphaE / math.Sqrt(DefaultMiMe)
	return &Config{
		Scenario:   "density_perturbation",
		Integrator: "rk4",

		Nx: 16, Ny: 1, Nz: 1,
		Nvx: 32, Nvy: 32, Nvz: 32,
		Lx: 3, Ly: 1, Lz: 1,
		Nn: 12, Nm: 1, Np: 1, Ns: 2,

		MiMe:    DefaultMiMe,
		OmegaCe: DefaultOmegaCe,
		Qs:      []float64{-1, 1},
		AlphaS:  []float64{alphaE, alphaE, alphaE, alphaI, alphaI, alphaI},
		US:      make([]float64, 6),

		Dt:                  DefaultDt,
		Duration:            DefaultDuration,
		Tolerance:           1e-6,
		SaveEvery:           DefaultSaveEvery,
		DivergenceThreshold: DefaultThreshold,
		Velocity:            VelocityConfig{Min: v.Min, Max: v.Max, Samples: v.N},
	}
}

// Load reads a YAML or JSON parameter file on top of the defaults. Top-level
// keys are matched case-insensitively, so parameter files written with
// "Nx" or "Omega_ce" load the same as "nx" and "omega_ce".
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		for i := 0; i < len(root.Content); i += 2 {
			root.Content[i].Value = strings.ToLower(root.Content[i].Value)
		}
	}
	if err := root.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Qs = append([]float64(nil), c.Qs...)
	out.AlphaS = append([]float64(nil), c.AlphaS...)
	out.US = append([]float64(nil), c.US...)
	if c.Masses != nil {
		out.Masses = append([]float64(nil), c.Masses...)
	}
	return &out
}

func (c *Config) Validate() error {
	if c.Nx <= 0 || c.Ny <= 0 || c.Nz <= 0 {
		return fmt.Errorf("%w: grid %dx%dx%d must be positive", dynamo.ErrParameterBounds, c.Nx, c.Ny, c.Nz)
	}
	if c.Nn <= 0 || c.Nm <= 0 || c.Np <= 0 || c.Ns <= 0 {
		return fmt.Errorf("%w: hermite orders %dx%dx%d and species %d must be positive", dynamo.ErrParameterBounds, c.Nn, c.Nm, c.Np, c.Ns)
	}
	if c.Nvx < 0 || c.Nvy < 0 || c.Nvz < 0 {
		return fmt.Errorf("%w: velocity resolution must not be negative", dynamo.ErrParameterBounds)
	}
	if !(c.MiMe > 0) {
		return fmt.Errorf("%w: mi_me must be positive, got %v", dynamo.ErrParameterBounds, c.MiMe)
	}
	if len(c.Masses) != 0 && len(c.Masses) != c.Ns {
		return fmt.Errorf("%w: %d masses for %d species", dynamo.ErrDimensionMismatch, len(c.Masses), c.Ns)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", dynamo.ErrParameterBounds, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", dynamo.ErrParameterBounds, c.Duration)
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return fmt.Errorf("%w: adaptive stepping needs a positive tolerance", dynamo.ErrParameterBounds)
	}
	if c.SaveEvery < 0 {
		return fmt.Errorf("%w: save_every must not be negative", dynamo.ErrParameterBounds)
	}
	if err := c.GridVelocity().Check(); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}
	return c.Params().Validate()
}

func (c *Config) Grid() grid.Grid { return grid.New(c.Nx, c.Ny, c.Nz, c.Lx, c.Ly, c.Lz) }

func (c *Config) Layout() index.Layout { return index.New(c.Ns, c.Nn, c.Nm, c.Np) }

func (c *Config) GridVelocity() grid.Velocity {
	return grid.Velocity{Min: c.Velocity.Min, Max: c.Velocity.Max, N: c.Velocity.Samples}
}

// OmegaCs is the gyrofrequency per species: Ω_ce for electrons (species 0)
// and Ω_ce/mi_me for every other species.
func (c *Config) OmegaCs() []float64 {
	out := make([]float64, c.Ns)
	for s := range out {
		out[s] = c.OmegaCe
		if s > 0 {
			out[s] = c.OmegaCe / c.MiMe
		}
	}
	return out
}

// SpeciesMasses returns the configured masses, defaulting to 1 for
// electrons and mi_me for the rest.
func (c *Config) SpeciesMasses() []float64 {
	if len(c.Masses) == c.Ns {
		return append([]float64(nil), c.Masses...)
	}
	out := make([]float64, c.Ns)
	for s := range out {
		out[s] = 1
		if s > 0 {
			out[s] = c.MiMe
		}
	}
	return out
}

func (c *Config) Params() vlasov.Params {
	return vlasov.Params{
		Grid:    c.Grid(),
		Layout:  c.Layout(),
		Qs:      append([]float64(nil), c.Qs...),
		OmegaCs: c.OmegaCs(),
		Alphas:  append([]float64(nil), c.AlphaS...),
		Us:      append([]float64(nil), c.US...),
		Nu:      c.Nu,
	}
}

func (c *Config) ScenarioParams() scenario.Params {
	return scenario.Params{Lx: c.Lx, Ly: c.Ly, Lz: c.Lz, OmegaCe: c.OmegaCe, MiMe: c.MiMe}
}

func (c *Config) SimConfig() dynamo.Config {
	sc := dynamo.DefaultConfig()
	sc.Dt = c.Dt
	sc.Duration = c.Duration
	sc.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		sc.Tolerance = c.Tolerance
	}
	sc.SaveEvery = c.SaveEvery
	sc.DivergenceThreshold = c.DivergenceThreshold
	return sc
}

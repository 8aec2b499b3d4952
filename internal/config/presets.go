package config

import (
	"math"
	"sort"
)

func preset(mod func(c *Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

// isotropic fills alpha_s with the same thermal scale on every axis.
func isotropic(alphas ...float64) []float64 {
	out := make([]float64, 0, 3*len(alphas))
	for _, a := range alphas {
		out = append(out, a, a, a)
	}
	return out
}

var Presets = map[string]map[string]*Config{
	"density_perturbation": {
		"linear": preset(func(c *Config) {}),
		"coarse": preset(func(c *Config) {
			c.Nx, c.Nn = 8, 6
			c.Dt, c.Duration = 0.02, 5
			c.SaveEvery = 25
		}),
		// Uncharged electrons only: phase mixing with a closed-form C_000.
		"free_streaming": preset(func(c *Config) {
			c.Nx, c.Nn, c.Ns = 8, 8, 1
			c.Qs = []float64{0}
			c.AlphaS = isotropic(0.5)
			c.US = make([]float64, 3)
			c.Velocity.Samples = 20
			c.Duration = 1
			c.SaveEvery = 25
		}),
		"collisional": preset(func(c *Config) {
			c.Nn = 16
			c.Nu = 2
		}),
	},
	"orszag_tang": {
		"default": preset(func(c *Config) {
			c.Scenario = "orszag_tang"
			c.Nx, c.Ny, c.Nz = 8, 8, 1
			c.Lx, c.Ly, c.Lz = 1, 1, 1
			c.Nn, c.Nm, c.Np = 3, 3, 3
			c.AlphaS = isotropic(0.5, 0.5/math.Sqrt(c.MiMe))
			c.Dt, c.Duration = 0.005, 2
			c.SaveEvery = 40
		}),
	},
	"hermite_modes": {
		"default": preset(func(c *Config) {
			c.Scenario = "hermite_modes"
			c.Nx, c.Ny, c.Nz = 4, 4, 1
			c.Lx, c.Ly, c.Lz = 1, 1, 1
			c.Nn, c.Nm, c.Np = 2, 2, 1
			c.AlphaS = isotropic(0.4, 0.4)
			c.Duration = 1
			c.SaveEvery = 10
		}),
	},
	"maxwellian": {
		"uniform": preset(func(c *Config) {
			c.Scenario = "maxwellian"
			c.Nx, c.Nn = 8, 4
			c.Duration = 2
			c.SaveEvery = 20
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

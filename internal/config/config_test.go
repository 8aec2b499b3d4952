package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/vlasim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scenario != "density_perturbation" {
		t.Errorf("expected scenario density_perturbation, got %s", cfg.Scenario)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDerivedParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OmegaCe = 2

	omega := cfg.OmegaCs()
	if omega[0] != 2 || omega[1] != 2/cfg.MiMe {
		t.Errorf("unexpected gyrofrequencies %v", omega)
	}

	masses := cfg.SpeciesMasses()
	if masses[0] != 1 || masses[1] != cfg.MiMe {
		t.Errorf("unexpected default masses %v", masses)
	}
	cfg.Masses = []float64{1, 100}
	if got := cfg.SpeciesMasses(); got[1] != 100 {
		t.Errorf("explicit masses ignored: %v", got)
	}

	p := cfg.Params()
	if p.Layout.Len() != cfg.Ns*cfg.Nn*cfg.Nm*cfg.Np {
		t.Errorf("layout length %d", p.Layout.Len())
	}
	if p.Grid.Size() != cfg.Nx*cfg.Ny*cfg.Nz {
		t.Errorf("grid size %d", p.Grid.Size())
	}

	sc := cfg.SimConfig()
	if sc.Dt != cfg.Dt || sc.Duration != cfg.Duration || sc.SaveEvery != cfg.SaveEvery {
		t.Errorf("sim config %+v does not match", sc)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{"zero nx", func(c *Config) { c.Nx = 0 }, dynamo.ErrParameterBounds},
		{"zero species", func(c *Config) { c.Ns = 0 }, dynamo.ErrParameterBounds},
		{"negative nvx", func(c *Config) { c.Nvx = -1 }, dynamo.ErrParameterBounds},
		{"short qs", func(c *Config) { c.Qs = []float64{-1} }, dynamo.ErrDimensionMismatch},
		{"short alpha", func(c *Config) { c.AlphaS = c.AlphaS[:3] }, dynamo.ErrDimensionMismatch},
		{"short u", func(c *Config) { c.US = nil }, dynamo.ErrDimensionMismatch},
		{"zero alpha", func(c *Config) { c.AlphaS[2] = 0 }, dynamo.ErrParameterBounds},
		{"bad masses", func(c *Config) { c.Masses = []float64{1} }, dynamo.ErrDimensionMismatch},
		{"zero mi_me", func(c *Config) { c.MiMe = 0 }, dynamo.ErrParameterBounds},
		{"zero dt", func(c *Config) { c.Dt = 0 }, dynamo.ErrParameterBounds},
		{"zero duration", func(c *Config) { c.Duration = 0 }, dynamo.ErrParameterBounds},
		{"adaptive without tolerance", func(c *Config) { c.Adaptive, c.Tolerance = true, 0 }, dynamo.ErrParameterBounds},
		{"empty velocity window", func(c *Config) { c.Velocity.Max = c.Velocity.Min }, dynamo.ErrParameterBounds},
		{"zero omega", func(c *Config) { c.OmegaCe = 0 }, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadJSONParameterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	data := `{
  "Nx": 8, "Ny": 1, "Nz": 1,
  "Nvx": 20, "Nvy": 20, "Nvz": 20,
  "Lx": 3, "Ly": 1, "Lz": 1,
  "Nn": 6, "Nm": 1, "Np": 1, "Ns": 2,
  "mi_me": 16, "Omega_ce": 0.5,
  "qs": [-1, 1],
  "alpha_s": [0.5, 0.5, 0.5, 0.125, 0.125, 0.125],
  "u_s": [0, 0, 0, 0, 0, 0],
  "nu": 0
}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Nx != 8 || cfg.Nn != 6 || cfg.Nvx != 20 {
		t.Errorf("resolution not loaded: %+v", cfg)
	}
	if cfg.OmegaCe != 0.5 || cfg.MiMe != 16 {
		t.Errorf("plasma parameters not loaded: omega_ce=%v mi_me=%v", cfg.OmegaCe, cfg.MiMe)
	}
	if cfg.AlphaS[3] != 0.125 {
		t.Errorf("alpha_s not loaded: %v", cfg.AlphaS)
	}
	if cfg.Integrator != "rk4" {
		t.Errorf("unset keys should keep defaults, got integrator %q", cfg.Integrator)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := GetPreset("orszag_tang", "default")
	cfg.Adaptive = true
	cfg.Masses = []float64{1, 30}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scenario != "orszag_tang" || !loaded.Adaptive || loaded.Ny != 8 || loaded.Masses[1] != 30 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Nx != DefaultConfig().Nx {
		t.Error("empty document should yield defaults")
	}

	if _, err := Parse([]byte("nx: [1, 2")); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("density_perturbation", "coarse")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Nx != 8 {
		t.Errorf("expected nx 8, got %d", cfg.Nx)
	}

	cfg.Qs[0] = 42
	if GetPreset("density_perturbation", "coarse").Qs[0] == 42 {
		t.Error("GetPreset should return an independent copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("density_perturbation", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "linear")
	if cfg != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("density_perturbation")
	if len(presets) == 0 {
		t.Error("expected presets for density_perturbation")
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestPresetsValid(t *testing.T) {
	for scenario, byName := range Presets {
		for name, cfg := range byName {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", scenario, name, err)
			}
			if scenario != "density_perturbation" && cfg.Scenario != scenario {
				t.Errorf("%s/%s runs scenario %q", scenario, name, cfg.Scenario)
			}
		}
	}
}

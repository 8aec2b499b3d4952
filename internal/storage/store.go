// Package storage keeps finished runs on disk. Each run is a directory
// holding its metadata, the configuration that produced it, the energy
// history and the compressed state snapshots.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/vlasim/internal/config"
	"github.com/san-kum/vlasim/internal/diagnostics"
	"github.com/san-kum/vlasim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	seriesFile   = "energy.csv"
	statesFile   = "states.bin.zst"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Snapshots  int                `json:"snapshots"`
	StateDim   int                `json:"state_dim"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
}

// NewRunID names a run after its scenario with a short random suffix.
func NewRunID(scenario string) string {
	return fmt.Sprintf("%s_%s", scenario, uuid.NewString()[:8])
}

// Save writes a run and returns its id.
func (s *Store) Save(cfg *config.Config, result *dynamo.Result, series []diagnostics.Sample) (string, error) {
	runID := NewRunID(cfg.Scenario)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   cfg.Scenario,
		Timestamp:  time.Now(),
		Integrator: cfg.Integrator,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Steps:      result.StepsTaken,
		Snapshots:  len(result.States),
		Metrics:    result.Metrics,
	}
	if len(result.States) > 0 {
		meta.StateDim = len(result.States[0])
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), series); err != nil {
		return "", err
	}

	blob, err := EncodeStates(result.States, result.Times)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, statesFile), blob, 0644); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var seriesHeader = []string{"time", "plasma", "em", "total", "div_b"}

const hermitePrefix = "hermite_"

// seriesColumns extends seriesHeader with one column per field RMS and per
// Hermite order of the longest spectrum in series.
func seriesColumns(series []diagnostics.Sample) []string {
	cols := append([]string{}, seriesHeader...)
	for _, name := range diagnostics.FieldNames {
		cols = append(cols, name+"_rms")
	}
	orders := 0
	for _, smp := range series {
		orders = max(orders, len(smp.Hermite))
	}
	for n := 0; n < orders; n++ {
		cols = append(cols, hermitePrefix+strconv.Itoa(n))
	}
	return cols
}

func writeSeries(path string, series []diagnostics.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cols := seriesColumns(series)
	orders := len(cols) - len(seriesHeader) - len(diagnostics.FieldNames)

	w := csv.NewWriter(f)
	if err := w.Write(cols); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, smp := range series {
		row := make([]string, 0, len(cols))
		row = append(row, format(smp.Time), format(smp.Plasma), format(smp.EM), format(smp.Total), format(smp.DivB))
		for _, v := range smp.FieldRMS {
			row = append(row, format(v))
		}
		for n := 0; n < orders; n++ {
			v := 0.0
			if n < len(smp.Hermite) {
				v = smp.Hermite[n]
			}
			row = append(row, format(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

// LoadConfig returns the configuration the run was started with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadSeries reads the diagnostics history of a run. Columns are matched by
// header name; columns missing from older runs read as zero.
func (s *Store) LoadSeries(runID string) ([]diagnostics.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []diagnostics.Sample{}, nil
	}

	header := records[0]
	series := make([]diagnostics.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var smp diagnostics.Sample
		for j, name := range header {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", seriesFile, i+1, err)
			}
			if err := setColumn(&smp, name, v); err != nil {
				return nil, fmt.Errorf("%s: %w", seriesFile, err)
			}
		}
		series = append(series, smp)
	}

	return series, nil
}

func setColumn(smp *diagnostics.Sample, name string, v float64) error {
	switch name {
	case "time":
		smp.Time = v
		return nil
	case "plasma":
		smp.Plasma = v
		return nil
	case "em":
		smp.EM = v
		return nil
	case "total":
		smp.Total = v
		return nil
	case "div_b":
		smp.DivB = v
		return nil
	}
	for c, field := range diagnostics.FieldNames {
		if name == field+"_rms" {
			smp.FieldRMS[c] = v
			return nil
		}
	}
	if rest, ok := strings.CutPrefix(name, hermitePrefix); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return fmt.Errorf("bad column %q", name)
		}
		for len(smp.Hermite) <= n {
			smp.Hermite = append(smp.Hermite, 0)
		}
		smp.Hermite[n] = v
		return nil
	}
	return fmt.Errorf("unknown column %q", name)
}

func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	blob, err := os.ReadFile(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}
	return DecodeStates(blob)
}

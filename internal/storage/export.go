package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/vlasim/internal/diagnostics"
)

// ExportData is the JSON form of a run: its metadata and energy history.
// State snapshots stay in the binary archive.
type ExportData struct {
	RunMetadata
	Times  []float64            `json:"times"`
	Series []diagnostics.Sample `json:"series"`
}

// Export assembles the JSON form of a stored run.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{
		RunMetadata: *meta,
		Times:       diagnostics.Column(series, func(smp diagnostics.Sample) float64 { return smp.Time }),
		Series:      series,
	}, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

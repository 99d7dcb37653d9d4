package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/gearbox/internal/sim"
)

// ExportSample is the JSON form of a sample. Non-finite floats travel as
// strings since JSON has no encoding for them.
type ExportSample struct {
	Step     int    `json:"step"`
	Time     string `json:"time"`
	Dt       string `json:"dt"`
	Measured string `json:"measured"`
	Error    string `json:"error"`
	Output   string `json:"output"`
	Status   string `json:"status"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

func NewExportData(meta RunMetadata, samples []sim.Sample) ExportData {
	data := ExportData{
		Run:     meta,
		Samples: make([]ExportSample, len(samples)),
	}
	for i, s := range samples {
		data.Samples[i] = ExportSample{
			Step:     s.Step,
			Time:     formatFloat(s.Time),
			Dt:       formatFloat(s.Dt),
			Measured: formatFloat(s.Measured),
			Error:    formatFloat(s.Error),
			Output:   formatFloat(s.Output),
			Status:   s.Status,
		}
	}
	return data
}

func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(*meta, samples))
}

// ExportCSV copies a run's samples to path.
func (s *Store) ExportCSV(runID, path string) error {
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteSamples(f, samples); err != nil {
		return err
	}
	return f.Close()
}

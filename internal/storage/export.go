package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/gravsim/internal/sim"
)

type ExportSample struct {
	Tick         int        `json:"tick"`
	Time         float64    `json:"time"`
	Energy       float64    `json:"energy"`
	Momentum     [3]float64 `json:"momentum"`
	CenterOfMass [3]float64 `json:"center_of_mass"`
	Nodes        int        `json:"nodes"`
	Depth        int        `json:"depth"`
	Merged       int        `json:"merged"`
	Rejected     int        `json:"rejected"`
	Interactions int        `json:"interactions"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

// ExportJSON writes a saved run and its diagnostics as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadDiagnostics(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, meta, samples)
}

func ExportJSON(w io.Writer, meta *RunMetadata, samples []sim.Sample) error {
	data := ExportData{
		Run:     *meta,
		Samples: make([]ExportSample, len(samples)),
	}

	for i, smp := range samples {
		data.Samples[i] = ExportSample{
			Tick:         smp.Tick,
			Time:         smp.Time,
			Energy:       smp.Energy,
			Momentum:     smp.Momentum,
			CenterOfMass: smp.CenterOfMass,
			Nodes:        smp.Stats.Tree.Nodes,
			Depth:        smp.Stats.Tree.Depth,
			Merged:       smp.Stats.Tree.Merged,
			Rejected:     smp.Stats.Tree.Rejected,
			Interactions: smp.Stats.Interactions,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

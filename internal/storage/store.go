package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	metadataFile    = "metadata.json"
	diagnosticsFile = "diagnostics.csv"
)

var diagnosticsHeader = []string{
	"tick", "time", "energy",
	"px", "py", "pz",
	"comx", "comy", "comz",
	"nodes", "depth", "merged", "rejected", "interactions",
}

// Store keeps one directory per run. Particle state is never written.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Particles   int                `json:"particles"`
	Ticks       int                `json:"ticks"`
	EnergyDrift float64            `json:"energy_drift"`
	OutOfBounds int                `json:"out_of_bounds"`
	Errors      []string           `json:"errors,omitempty"`
	Config      config.Config      `json:"config"`
	Metrics     map[string]float64 `json:"metrics"`
}

func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%d", cfg.Scenario, ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    cfg.Scenario,
		Timestamp:   ts,
		Ticks:       result.Ticks,
		EnergyDrift: result.EnergyDrift,
		OutOfBounds: result.OutOfBounds,
		Config:      *cfg,
		Metrics:     result.Metrics,
	}
	if result.Final != nil {
		meta.Particles = result.Final.Len()
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeDiagnostics(filepath.Join(runDir, diagnosticsFile), result.Samples); err != nil {
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeDiagnostics(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(diagnosticsHeader); err != nil {
		return err
	}

	for _, smp := range samples {
		st := smp.Stats.Tree
		row := []string{
			strconv.Itoa(smp.Tick),
			formatFloat(smp.Time),
			formatFloat(smp.Energy),
			formatFloat(smp.Momentum.X()),
			formatFloat(smp.Momentum.Y()),
			formatFloat(smp.Momentum.Z()),
			formatFloat(smp.CenterOfMass.X()),
			formatFloat(smp.CenterOfMass.Y()),
			formatFloat(smp.CenterOfMass.Z()),
			strconv.Itoa(st.Nodes),
			strconv.Itoa(st.Depth),
			strconv.Itoa(st.Merged),
			strconv.Itoa(st.Rejected),
			strconv.Itoa(smp.Stats.Interactions),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadDiagnostics reads the samples of a run back. Rows that fail to
// parse are skipped.
func (s *Store) LoadDiagnostics(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, diagnosticsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		smp, err := parseSample(record)
		if err != nil {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(record []string) (sim.Sample, error) {
	var smp sim.Sample
	if len(record) != len(diagnosticsHeader) {
		return smp, fmt.Errorf("expected %d fields, got %d", len(diagnosticsHeader), len(record))
	}

	ints := make([]int, 0, 6)
	for _, i := range []int{0, 9, 10, 11, 12, 13} {
		v, err := strconv.Atoi(record[i])
		if err != nil {
			return smp, err
		}
		ints = append(ints, v)
	}

	floats := make([]float64, 0, 8)
	for _, field := range record[1:9] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return smp, err
		}
		floats = append(floats, v)
	}

	smp.Tick = ints[0]
	smp.Time = floats[0]
	smp.Energy = floats[1]
	smp.Momentum = mgl64.Vec3{floats[2], floats[3], floats[4]}
	smp.CenterOfMass = mgl64.Vec3{floats[5], floats[6], floats[7]}
	smp.Stats.Tree.Nodes = ints[1]
	smp.Stats.Tree.Depth = ints[2]
	smp.Stats.Tree.Merged = ints[3]
	smp.Stats.Tree.Rejected = ints[4]
	smp.OutOfBounds = ints[4]
	smp.Stats.Interactions = ints[5]
	return smp, nil
}

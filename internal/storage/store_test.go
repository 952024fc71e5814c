package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/octree"
	"github.com/san-kum/gravsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Ticks:       20,
		EnergyDrift: 1e-6,
		Samples: []sim.Sample{
			{Tick: 0, Time: 0, Energy: -0.75, Momentum: mgl64.Vec3{0, 0, 0}},
			{
				Tick:         10,
				Time:         0.1,
				Energy:       -0.7500001,
				Momentum:     mgl64.Vec3{1e-17, -2e-17, 0},
				CenterOfMass: mgl64.Vec3{0.1, 0.2, 0.3},
				Stats: gravity.Stats{
					Tree:         octree.Stats{Nodes: 9, Depth: 3, Merged: 1, Rejected: 2},
					Interactions: 42,
				},
				OutOfBounds: 2,
			},
		},
		Metrics: map[string]float64{
			"energy": -0.75,
		},
		Errors: []error{errors.New("one particle left the root cube")},
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st, dir
}

func TestStoreSaveLoad(t *testing.T) {
	st, _ := newTestStore(t)

	cfg := config.DefaultConfig()
	cfg.Scenario = "triangle"
	cfg.Seed = 42

	runID, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "triangle_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "triangle" {
		t.Errorf("expected scenario 'triangle', got '%s'", meta.Scenario)
	}
	if meta.Config.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Config.Seed)
	}
	if meta.Config.Gravity.Theta != cfg.Gravity.Theta {
		t.Errorf("expected theta %f, got %f", cfg.Gravity.Theta, meta.Config.Gravity.Theta)
	}
	if meta.Metrics["energy"] != -0.75 {
		t.Errorf("expected energy -0.75, got %f", meta.Metrics["energy"])
	}
	if meta.Ticks != 20 || len(meta.Errors) != 1 {
		t.Errorf("unexpected metadata %+v", meta)
	}

	samples, err := st.LoadDiagnostics(runID)
	if err != nil {
		t.Fatalf("load diagnostics failed: %v", err)
	}
	want := testResult().Samples
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d:\n got %+v\nwant %+v", i, samples[i], want[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st, _ := newTestStore(t)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"disk", "cube"} {
		stamp := base.Add(time.Duration(i) * time.Hour)
		st.now = func() time.Time { return stamp }
		cfg := config.DefaultConfig()
		cfg.Scenario = name
		if _, err := st.Save(cfg, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Scenario != "disk" || runs[1].Scenario != "cube" {
		t.Errorf("runs not ordered by time: %s, %s", runs[0].Scenario, runs[1].Scenario)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	st, dir := newTestStore(t)

	runID, err := st.Save(config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(dir, runID)
	entries, err := os.ReadDir(runDir)
	if err != nil {
		t.Fatal(err)
	}

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if !names["metadata.json"] || !names["diagnostics.csv"] || len(names) != 2 {
		t.Errorf("unexpected run directory contents: %v", names)
	}

	data, err := os.ReadFile(filepath.Join(runDir, "diagnostics.csv"))
	if err != nil {
		t.Fatal(err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	if header != strings.Join(diagnosticsHeader, ",") {
		t.Errorf("unexpected header %q", header)
	}
}

func TestLoadDiagnosticsSkipsBadRows(t *testing.T) {
	st, dir := newTestStore(t)
	runDir := filepath.Join(dir, "manual")
	os.MkdirAll(runDir, 0755)

	csv := strings.Join(diagnosticsHeader, ",") + "\n" +
		"0,0,-1,0,0,0,0,0,0,1,0,0,0,0\n" +
		"x,0,-1,0,0,0,0,0,0,1,0,0,0,0\n" +
		"1,0.1\n"
	os.WriteFile(filepath.Join(runDir, "diagnostics.csv"), []byte(csv), 0644)

	samples, err := st.LoadDiagnostics("manual")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(samples) != 1 || samples[0].Energy != -1 {
		t.Errorf("expected one good sample, got %+v", samples)
	}
}

func TestExportJSON(t *testing.T) {
	st, _ := newTestStore(t)
	runID, err := st.Save(config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != runID || len(data.Samples) != 2 {
		t.Errorf("unexpected export %+v", data)
	}
	if data.Samples[1].Interactions != 42 || data.Samples[1].CenterOfMass != [3]float64{0.1, 0.2, 0.3} {
		t.Errorf("unexpected sample %+v", data.Samples[1])
	}

	if err := st.ExportJSON(&buf, "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

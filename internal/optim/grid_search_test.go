package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
)

func binaryConfig() *config.Config {
	cfg := config.GetPreset("binary", "circular")
	cfg.Duration = 0.5
	cfg.Dt = 0.01
	return cfg
}

func TestApply(t *testing.T) {
	cfg := config.DefaultConfig()
	for name, check := range map[string]func() float64{
		"theta":          func() float64 { return cfg.Gravity.Theta },
		"dt":             func() float64 { return cfg.Dt },
		"min_separation": func() float64 { return cfg.Gravity.MinSeparation },
	} {
		if err := Apply(cfg, name, 0.25); err != nil {
			t.Fatal(err)
		}
		if check() != 0.25 {
			t.Errorf("%s not applied", name)
		}
	}
	if err := Apply(cfg, "gravity", 1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("unknown parameter error = %v", err)
	}
}

func TestNewGridSearchValidates(t *testing.T) {
	if _, err := NewGridSearch([]string{"theta"}, nil); err == nil {
		t.Error("expected error for mismatched ranges")
	}
	if _, err := NewGridSearch([]string{"mass"}, [][]float64{{1}}); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := NewGridSearch([]string{"dt"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestSearchPicksSmallestDrift(t *testing.T) {
	g, err := NewGridSearch([]string{"dt", "theta"}, [][]float64{{0.05, 0.005}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	best, trials, err := g.Search(context.Background(), binaryConfig(), "energy_drift")
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 4 {
		t.Fatalf("got %d trials, want 4", len(trials))
	}
	if best.Params["dt"] != 0.005 {
		t.Errorf("best dt = %g, want 0.005", best.Params["dt"])
	}
	for _, tr := range trials {
		if tr.Err != nil {
			t.Errorf("trial %v failed: %v", tr.Params, tr.Err)
		}
		if tr.Value < best.Value {
			t.Errorf("trial %v beats best", tr.Params)
		}
	}
	if names := best.Names(); len(names) != 2 || names[0] != "dt" {
		t.Errorf("names = %v", names)
	}
}

func TestSearchAllFail(t *testing.T) {
	g, err := NewGridSearch([]string{"dt"}, [][]float64{{-1}})
	if err != nil {
		t.Fatal(err)
	}
	_, trials, err := g.Search(context.Background(), binaryConfig(), "energy_drift")
	if err == nil {
		t.Fatal("expected error when every trial fails")
	}
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("error = %v, want parameter bounds", err)
	}
	if len(trials) != 1 || trials[0].Err == nil {
		t.Errorf("trials = %+v", trials)
	}
}

func TestSearchUnknownMetric(t *testing.T) {
	g, err := NewGridSearch([]string{"theta"}, [][]float64{{0.5}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Search(context.Background(), binaryConfig(), "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestSearchCancelled(t *testing.T) {
	g, err := NewGridSearch([]string{"theta"}, [][]float64{{0, 0.5, 1}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := g.Search(ctx, binaryConfig(), "energy_drift"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// Package automation runs scripted batches of simulations described in YAML.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"gopkg.in/yaml.v3"
)

// Batch is a named sequence of runs.
type Batch struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Runs        []RunEntry `yaml:"runs"`
}

// RunEntry starts from the defaults, or from a preset when one is named,
// and overlays the keys given under config.
type RunEntry struct {
	Name     string    `yaml:"name"`
	Scenario string    `yaml:"scenario"`
	Preset   string    `yaml:"preset"`
	Config   yaml.Node `yaml:"config"`
}

type RunResult struct {
	Name   string
	RunID  string
	Config *config.Config
	Result *sim.Result
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBatch(data)
}

func ParseBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if len(b.Runs) == 0 {
		return nil, fmt.Errorf("batch %q has no runs", b.Name)
	}
	return &b, nil
}

// Resolve builds the configuration for one run.
func (r RunEntry) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Scenario != "" {
		cfg.Scenario = r.Scenario
	}
	if r.Preset != "" {
		p := config.GetPreset(cfg.Scenario, r.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s/%s", cfg.Scenario, r.Preset)
		}
		cfg = p
	}
	if !r.Config.IsZero() {
		if err := r.Config.Decode(cfg); err != nil {
			return nil, err
		}
	}
	if r.Scenario != "" {
		cfg.Scenario = r.Scenario
	}
	return cfg, cfg.Validate()
}

// Run executes every run in order. Results are saved when st is non-nil.
// The first failing run stops the batch; earlier results are returned.
func Run(ctx context.Context, b *Batch, st *storage.Store, logger *slog.Logger) ([]RunResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]RunResult, 0, len(b.Runs))
	for i, entry := range b.Runs {
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("run-%d", i+1)
		}
		logger.Info("batch run", "batch", b.Name, "run", name, "index", i+1, "of", len(b.Runs))

		cfg, err := entry.Resolve()
		if err != nil {
			return results, fmt.Errorf("run %s: %w", name, err)
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(logger); err != nil {
			return results, fmt.Errorf("run %s setup: %w", name, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("run %s: %w", name, err)
		}

		rr := RunResult{Name: name, Config: cfg, Result: result}
		if st != nil {
			if rr.RunID, err = st.Save(cfg, result); err != nil {
				return results, err
			}
		}
		results = append(results, rr)
	}
	return results, nil
}

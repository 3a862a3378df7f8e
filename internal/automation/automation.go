// Package automation runs scripted batches and Monte Carlo robustness
// studies on top of the experiment registry.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/loop"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a preset, an inline config, or a preset with the keys
// given under config decoded on top of it.
type ScenarioStep struct {
	Preset string         `yaml:"preset"` // plant/name
	Config *config.Config `yaml:"config"`
	Gain   *float64       `yaml:"gain"`
	SaveAs string         `yaml:"save_as"`

	// overrides is the raw config node of a preset step
	overrides *yaml.Node
}

// UnmarshalYAML fills an inline config on top of config.DefaultConfig. On a
// preset step the config node is kept and applied to the preset instead.
func (s *ScenarioStep) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Preset string    `yaml:"preset"`
		Config yaml.Node `yaml:"config"`
		Gain   *float64  `yaml:"gain"`
		SaveAs string    `yaml:"save_as"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = ScenarioStep{Preset: raw.Preset, Gain: raw.Gain, SaveAs: raw.SaveAs}
	if raw.Config.Kind == 0 {
		return nil
	}
	if raw.Preset != "" {
		node := raw.Config
		s.overrides = &node
		return nil
	}
	cfg := config.DefaultConfig()
	if err := raw.Config.Decode(cfg); err != nil {
		return err
	}
	s.Config = cfg
	return nil
}

// StepResult pairs a finished step with the config it ran.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *loop.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

func (s ScenarioStep) resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "":
		plant, name, ok := cut(s.Preset)
		if !ok {
			return nil, fmt.Errorf("preset %q: want plant/name", s.Preset)
		}
		cfg = config.GetPreset(plant, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
		if s.Config != nil {
			return nil, fmt.Errorf("preset %q: set overrides in yaml, not a full config", s.Preset)
		}
		if s.overrides != nil {
			if err := s.overrides.Decode(cfg); err != nil {
				return nil, fmt.Errorf("preset %q overrides: %w", s.Preset, err)
			}
		}
	case s.Config != nil:
		cfg = s.Config.Clone()
	default:
		return nil, fmt.Errorf("step needs a preset or a config")
	}
	if s.Gain != nil {
		cfg.Gain = *s.Gain
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

func cut(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger zerolog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info().Int("step", i+1).Int("of", len(scenario.Steps)).Str("scenario", cfg.Name).Msg("running step")

		exp, err := registry.Build(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: cfg.Name, Config: cfg, Result: result})
	}

	return results, nil
}

// MonteCarloConfig perturbs the loop gain and every plant coefficient by a
// uniform relative factor in [1-Perturbation, 1+Perturbation].
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	Metric       string
	Workers      int // 0 means runtime.NumCPU()
}

// MonteCarloResult holds one perturbed trial.
type MonteCarloResult struct {
	TrialID int
	Gain    float64
	Num     []float64
	Den     []float64
	Stable  bool // did the response remain bounded?
	Value   float64
	Err     error
}

// RunMonteCarlo executes multiple trials with random perturbations. Trials
// are drawn up front so a fixed seed gives the same results for any number
// of workers.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, logger zerolog.Logger) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	perturb := func(v float64) float64 {
		return v * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
	}

	configs := make([]*config.Config, cfg.NumTrials)
	results := make([]MonteCarloResult, cfg.NumTrials)
	for trial := range configs {
		c := cfg.Base.Clone()
		c.Gain = perturb(c.Gain)
		for i := range c.Plant.Num {
			c.Plant.Num[i] = perturb(c.Plant.Num[i])
		}
		for i := range c.Plant.Den {
			c.Plant.Den[i] = perturb(c.Plant.Den[i])
		}
		configs[trial] = c
		results[trial] = MonteCarloResult{TrialID: trial, Gain: c.Gain, Num: c.Plant.Num, Den: c.Plant.Den}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				r := &results[idx]
				exp, err := registry.Build(configs[idx])
				if err != nil {
					r.Err = err
					continue
				}
				result, err := exp.Run(ctx)
				if err != nil {
					r.Err = err
					continue
				}
				r.Stable = !result.Diverged
				r.Value = result.Metrics[cfg.Metric]

				if n := done.Add(1); n%10 == 0 {
					logger.Debug().Int64("done", n).Int("trials", cfg.NumTrials).Msg("monte carlo progress")
				}
			}
		}()
	}

feed:
	for idx := range configs {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Scenario is a scripted sequence of rides sharing a base configuration.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step overrides the base configuration for one ride. Zero values keep the
// base setting.
type Step struct {
	Name       string  `yaml:"name"`
	Position   string  `yaml:"position"`
	Surface    string  `yaml:"surface"`
	Mass       float64 `yaml:"mass"`
	Controller string  `yaml:"controller"`
	Power      float64 `yaml:"power"`
	Target     float64 `yaml:"target"`
	Grade      float64 `yaml:"grade"` // percent
	WindSpeed  float64 `yaml:"wind_speed"`
	Duration   float64 `yaml:"duration"`
	Distance   float64 `yaml:"distance"`
	Course     string  `yaml:"course"`
}

type StepResult struct {
	Step   Step
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrInvalidInput, scenario.Name)
	}
	return &scenario, nil
}

// Apply returns a copy of base with the step's overrides.
func (s Step) Apply(base *config.Config) (*config.Config, error) {
	cfg := *base
	if s.Position != "" {
		p := config.GetPreset("position", s.Position)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown position %q", dynamo.ErrInvalidInput, s.Position)
		}
		cfg.Rider = p.Apply(cfg.Rider)
	}
	if s.Surface != "" {
		p := config.GetPreset("surface", s.Surface)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown surface %q", dynamo.ErrInvalidInput, s.Surface)
		}
		cfg.Rider = p.Apply(cfg.Rider)
	}
	if s.Mass > 0 {
		cfg.Rider.Mass = s.Mass
	}
	if s.Controller != "" {
		cfg.Simulation.Controller = s.Controller
	}
	if s.Power > 0 {
		cfg.Simulation.Power = s.Power
	}
	if s.Target > 0 {
		cfg.Simulation.ControllerParams.Target = s.Target
	}
	if s.Grade != 0 {
		cfg.Environment.Grade = dynamo.GradePercent(s.Grade)
	}
	if s.WindSpeed != 0 {
		cfg.Environment.WindSpeed = s.WindSpeed
	}
	if s.Duration > 0 {
		cfg.Simulation.Duration = s.Duration
	}
	if s.Distance > 0 {
		cfg.Simulation.Distance = s.Distance
	}
	if s.Course != "" {
		cfg.Simulation.Course = s.Course
	}
	return &cfg, cfg.Validate()
}

// RunScenario executes every step in order and stops at the first error.
func RunScenario(ctx context.Context, base *config.Config, scenario *Scenario, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("running step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", step.Name)

		cfg, err := step.Apply(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := Build(cfg, nil, log)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Result: result})
	}

	return results, nil
}

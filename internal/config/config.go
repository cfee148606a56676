package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/integrators"
)

const (
	DefaultMass              = 70.0
	DefaultFrontalArea       = 0.565
	DefaultDragCoefficient   = 0.8
	DefaultRollingResistance = 0.005
	DefaultEfficiency        = 0.96
	DefaultAirDensity        = 1.225

	DefaultDt       = 0.5
	DefaultDuration = 3600.0
	DefaultPower    = 200.0
	DefaultKp       = 40.0
	DefaultKi       = 2.0
	DefaultKd       = 0.0
	DefaultTarget   = 10.0
	DefaultMaxWatts = 1500.0

	DefaultSmoothing     = 3
	DefaultRollingWindow = 30
	DefaultMaxWindow     = 1200
	DefaultTemperature   = 30.0
	DefaultSegmentTime   = 30
	DefaultTestLength    = 1200

	DefaultDataDir   = "data"
	DefaultRecordsDB = "records.db"
)

var Controllers = []string{"constant", "pid", "series", "none"}

type Config struct {
	Rider       dynamo.Rider        `yaml:"rider"`
	Environment dynamo.Environment  `yaml:"environment"`
	Solver      dynamo.SolverConfig `yaml:"solver"`
	Simulation  SimulationConfig    `yaml:"simulation"`
	Analysis    AnalysisConfig      `yaml:"analysis"`
	DataDir     string              `yaml:"data_dir"`
	RecordsDB   string              `yaml:"records_db"`
}

type SimulationConfig struct {
	Integrator       string           `yaml:"integrator"`
	Controller       string           `yaml:"controller"`
	Dt               float64          `yaml:"dt"`
	Duration         float64          `yaml:"duration"`
	Distance         float64          `yaml:"distance"`
	Power            float64          `yaml:"power"`
	InitialSpeed     float64          `yaml:"initial_speed"`
	Course           string           `yaml:"course"`
	PowerFile        string           `yaml:"power_file"`
	ControllerParams ControllerConfig `yaml:"controller_params"`
}

type ControllerConfig struct {
	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	Kd       float64 `yaml:"kd"`
	Target   float64 `yaml:"target"`
	MaxWatts float64 `yaml:"max_watts"`
}

type AnalysisConfig struct {
	Smoothing     int     `yaml:"smoothing"`
	FTP           float64 `yaml:"ftp"`
	RollingWindow int     `yaml:"rolling_window"`
	MaxWindow     int     `yaml:"max_window"`
	Temperature   float64 `yaml:"temperature"`
	SegmentTime   int     `yaml:"segment_time"`
	TestLength    int     `yaml:"test_length"`
}

func DefaultConfig() *Config {
	return &Config{
		Rider: dynamo.Rider{
			Mass:              DefaultMass,
			FrontalArea:       DefaultFrontalArea,
			DragCoefficient:   DefaultDragCoefficient,
			RollingResistance: DefaultRollingResistance,
			Efficiency:        DefaultEfficiency,
		},
		Environment: dynamo.Environment{AirDensity: DefaultAirDensity},
		Solver:      dynamo.DefaultSolverConfig(),
		Simulation: SimulationConfig{
			Integrator: "rk4",
			Controller: "constant",
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Power:      DefaultPower,
			ControllerParams: ControllerConfig{
				Kp:       DefaultKp,
				Ki:       DefaultKi,
				Kd:       DefaultKd,
				Target:   DefaultTarget,
				MaxWatts: DefaultMaxWatts,
			},
		},
		Analysis: AnalysisConfig{
			Smoothing:     DefaultSmoothing,
			RollingWindow: DefaultRollingWindow,
			MaxWindow:     DefaultMaxWindow,
			Temperature:   DefaultTemperature,
			SegmentTime:   DefaultSegmentTime,
			TestLength:    DefaultTestLength,
		},
		DataDir:   DefaultDataDir,
		RecordsDB: DefaultRecordsDB,
	}
}

// Load reads a YAML file over the defaults, so partial files are fine.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Rider.Validate(); err != nil {
		return fmt.Errorf("rider: %w", err)
	}
	if err := c.Environment.Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if c.Solver.Method != "" && c.Solver.Method != dynamo.Bisection && c.Solver.Method != dynamo.Newton {
		return fmt.Errorf("solver: %w: unknown method %q", dynamo.ErrInvalidInput, c.Solver.Method)
	}

	sim := c.Simulation
	if _, err := integrators.ByName(sim.Integrator); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if !validController(sim.Controller) {
		return fmt.Errorf("simulation: %w: unknown controller %q", dynamo.ErrInvalidInput, sim.Controller)
	}
	if sim.Dt <= 0 {
		return &dynamo.InputError{Field: "simulation.dt", Value: sim.Dt, Reason: "must be positive"}
	}
	if sim.Duration <= 0 {
		return &dynamo.InputError{Field: "simulation.duration", Value: sim.Duration, Reason: "must be positive"}
	}
	if sim.Distance < 0 {
		return &dynamo.InputError{Field: "simulation.distance", Value: sim.Distance, Reason: "must not be negative"}
	}
	if sim.Controller == "series" && sim.PowerFile == "" {
		return fmt.Errorf("simulation: %w: series controller needs power_file", dynamo.ErrInvalidInput)
	}

	a := c.Analysis
	if a.Smoothing < 0 || a.RollingWindow < 1 || a.MaxWindow < 1 || a.SegmentTime < 1 || a.TestLength < 1 {
		return fmt.Errorf("analysis: %w: windows must be positive", dynamo.ErrInvalidInput)
	}
	if a.FTP < 0 {
		return &dynamo.InputError{Field: "analysis.ftp", Value: a.FTP, Reason: "must not be negative"}
	}
	return nil
}

func validController(name string) bool {
	for _, c := range Controllers {
		if c == name {
			return true
		}
	}
	return false
}

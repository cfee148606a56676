package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

var (
	configFile string
	dataDir    string
	verbose    bool
	jsonOut    bool

	// rider and environment overrides
	mass       float64
	area       float64
	cd         float64
	crr        float64
	efficiency float64
	rho        float64
	gradePct   float64
	wind       float64
	windDir    float64
	position   string
	surface    string
	solverName string

	log *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cycledyn",
		Short:         "cycling dynamics: power, speed, rides and activity analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(log)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", "", "data directory for saved runs")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&jsonOut, "json", false, "print results as JSON")
	pf.Float64Var(&mass, "mass", config.DefaultMass, "rider plus bike mass (kg)")
	pf.Float64Var(&area, "area", config.DefaultFrontalArea, "frontal area (m²)")
	pf.Float64Var(&cd, "cd", config.DefaultDragCoefficient, "drag coefficient")
	pf.Float64Var(&crr, "crr", config.DefaultRollingResistance, "rolling resistance coefficient")
	pf.Float64Var(&efficiency, "efficiency", config.DefaultEfficiency, "drivetrain efficiency (0,1]")
	pf.Float64Var(&rho, "rho", config.DefaultAirDensity, "air density (kg/m³)")
	pf.Float64Var(&gradePct, "grade", 0, "road grade (%)")
	pf.Float64Var(&wind, "wind", 0, "wind speed (m/s)")
	pf.Float64Var(&windDir, "wind-dir", 0, "wind direction relative to travel (deg, 0 = headwind)")
	pf.StringVar(&position, "position", "", "riding position preset (tops, hoods, drops, aero)")
	pf.StringVar(&surface, "surface", "", "road surface preset (track, asphalt, rough, gravel)")
	pf.StringVar(&solverName, "solver", "", "speed solver (bisection, newton)")

	rootCmd.AddCommand(
		forcesCmd(), powerCmd(), speedCmd(), sweepCmd(),
		simulateCmd(), liveCmd(), scenarioCmd(),
		analyzeCmd(), cpCmd(), rampCmd(), segmentsCmd(), fitCdACmd(),
		listCmd(), plotCmd(), exportCSVCmd(), exportJSONCmd(), recordsCmd(),
		presetsCmd(), initConfigCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config over the defaults, then applies presets and
// any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if position != "" {
		p := config.GetPreset("position", position)
		if p == nil {
			return nil, fmt.Errorf("unknown position: %s (available: %v)", position, config.ListPresets("position"))
		}
		cfg.Rider = p.Apply(cfg.Rider)
	}
	if surface != "" {
		p := config.GetPreset("surface", surface)
		if p == nil {
			return nil, fmt.Errorf("unknown surface: %s (available: %v)", surface, config.ListPresets("surface"))
		}
		cfg.Rider = p.Apply(cfg.Rider)
	}

	f := cmd.Flags()
	if f.Changed("mass") {
		cfg.Rider.Mass = mass
	}
	if f.Changed("area") {
		cfg.Rider.FrontalArea = area
	}
	if f.Changed("cd") {
		cfg.Rider.DragCoefficient = cd
	}
	if f.Changed("crr") {
		cfg.Rider.RollingResistance = crr
	}
	if f.Changed("efficiency") {
		cfg.Rider.Efficiency = efficiency
	}
	if f.Changed("rho") {
		cfg.Environment.AirDensity = rho
	}
	if f.Changed("grade") {
		cfg.Environment.Grade = dynamo.GradePercent(gradePct)
	}
	if f.Changed("wind") {
		cfg.Environment.WindSpeed = wind
	}
	if f.Changed("wind-dir") {
		cfg.Environment.WindDirection = windDir
	}
	if f.Changed("solver") {
		cfg.Solver.Method = dynamo.SolverMethod(solverName)
	}
	if f.Changed("data") {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debug("config loaded", "file", configFile, "mass", cfg.Rider.Mass, "cda", cfg.Rider.CdA(), "crr", cfg.Rider.RollingResistance)
	return cfg, nil
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/control"
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/experiment"
	"github.com/san-kum/cycledyn/internal/storage"
	"github.com/san-kum/cycledyn/internal/viz"
)

var (
	integrator string
	controller string
	dt         float64
	duration   float64
	distance   float64
	watts      float64
	v0         float64
	coursePath string
	powerFile  string
	kp         float64
	ki         float64
	kd         float64
	target     float64
	fitOut     string
	save       bool
	speedup    float64
	ftp        float64
)

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&integrator, "integrator", "rk4", "integrator (euler, rk4)")
	f.StringVar(&controller, "controller", "constant", "power controller (constant, pid, series, none)")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	f.Float64Var(&duration, "time", config.DefaultDuration, "maximum duration (s)")
	f.Float64Var(&distance, "distance", 0, "stop after this many metres (0 = course length or none)")
	f.Float64Var(&watts, "watts", config.DefaultPower, "constant power (W)")
	f.Float64Var(&v0, "v0", 0, "initial speed (m/s)")
	f.StringVar(&coursePath, "course", "", "GPX course to ride")
	f.StringVar(&powerFile, "power-file", "", "FIT or CSV activity whose power the series controller replays")
	f.Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	f.Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	f.Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	f.Float64Var(&target, "target", config.DefaultTarget, "pid target speed (m/s)")
}

// applySimFlags layers explicitly set simulation flags over cfg.
func applySimFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	s := &cfg.Simulation
	if f.Changed("integrator") {
		s.Integrator = integrator
	}
	if f.Changed("controller") {
		s.Controller = controller
	}
	if f.Changed("dt") {
		s.Dt = dt
	}
	if f.Changed("time") {
		s.Duration = duration
	}
	if f.Changed("distance") {
		s.Distance = distance
	}
	if f.Changed("watts") {
		s.Power = watts
	}
	if f.Changed("v0") {
		s.InitialSpeed = v0
	}
	if f.Changed("course") {
		s.Course = coursePath
	}
	if f.Changed("power-file") {
		s.PowerFile = powerFile
		if !f.Changed("controller") {
			s.Controller = "series"
		}
	}
	if f.Changed("kp") {
		s.ControllerParams.Kp = kp
	}
	if f.Changed("ki") {
		s.ControllerParams.Ki = ki
	}
	if f.Changed("kd") {
		s.ControllerParams.Kd = kd
	}
	if f.Changed("target") {
		s.ControllerParams.Target = target
	}
	return cfg.Validate()
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "integrate a ride over time",
		RunE:  runSimulate,
	}
	addSimFlags(cmd)
	cmd.Flags().StringVar(&fitOut, "fit", "", "write the simulated ride as a FIT activity")
	cmd.Flags().BoolVar(&save, "save", true, "save the run to the data directory")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySimFlags(cmd, cfg); err != nil {
		return err
	}

	exp, err := experiment.Build(cfg, nil, log)
	if err != nil {
		return err
	}

	log.Info("simulating", "controller", cfg.Simulation.Controller, "integrator", cfg.Simulation.Integrator)
	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation stopped early: %v\n", err)
	}
	elapsed := time.Since(start)

	final := result.States[len(result.States)-1]
	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, elapsed)
	fmt.Printf("ride time %.0fs, distance %.2f km, final speed %.1f km/h\n",
		result.Times[len(result.Times)-1], final[0]/1000, final[1]*3.6)

	if cfg.Simulation.Controller == "pid" {
		if pid, ok := exp.Controller.(*control.PID); ok {
			log.Debug("pid gains", "params", pid.GetParams())
		}
	}

	if jsonOut {
		if err := printJSON(result.Metrics); err != nil {
			return err
		}
	} else {
		fmt.Println(viz.MetricsTable(result.Metrics))
		speeds := make([]float64, len(result.States))
		for i, x := range result.States {
			speeds[i] = x[1] * 3.6
		}
		fmt.Println(viz.Plot(speeds, "speed km/h", 70, 10))
	}

	if save {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := storage.RunMetadata{
			Kind:        "simulate",
			Name:        cfg.Simulation.Controller,
			Rider:       cfg.Rider,
			Environment: cfg.Environment,
			Dt:          cfg.Simulation.Dt,
			Duration:    result.Times[len(result.Times)-1],
			Integrator:  cfg.Simulation.Integrator,
			Controller:  cfg.Simulation.Controller,
			Source:      cfg.Simulation.Course,
			Metrics:     result.Metrics,
		}
		runID, err := st.Save(meta, storage.ResultSeries(result))
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if fitOut != "" {
		recs := resultRecords(result, exp)
		if err := activity.WriteFIT(fitOut, recs, time.Now().Truncate(time.Second)); err != nil {
			return fmt.Errorf("write fit: %w", err)
		}
		fmt.Printf("wrote %s (%d records)\n", fitOut, len(recs))
	}
	return nil
}

// resultRecords resamples a simulation at whole seconds as activity records.
func resultRecords(result *dynamo.Result, exp *experiment.Experiment) []activity.Record {
	var recs []activity.Record
	next := 0.0
	for i, t := range result.Times {
		if t+1e-9 < next {
			continue
		}
		next = float64(int(t)) + 1

		x := result.States[i]
		rec := activity.NewRecord(time.Time{})
		rec.Seconds = t
		rec.Distance = x[0]
		rec.Speed = x[1]
		switch {
		case i < len(result.Controls):
			rec.Power = result.Controls[i][0]
		case i > 0:
			rec.Power = result.Controls[i-1][0]
		}
		if exp.Course != nil {
			rec.Altitude = exp.Course.ElevationAt(x[0])
		}
		recs = append(recs, rec)
	}
	return recs
}

func liveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "ride in the terminal, adjusting power with the arrow keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySimFlags(cmd, cfg); err != nil {
				return err
			}

			manual := control.NewManual(cfg.Simulation.Power, cfg.Simulation.ControllerParams.MaxWatts)
			exp, err := experiment.Build(cfg, manual, log)
			if err != nil {
				return err
			}

			opts := viz.LiveOptions{Title: "cycledyn live", FTP: cfg.Analysis.FTP, Speedup: speedup}
			if cmd.Flags().Changed("ftp") {
				opts.FTP = ftp
			}
			if exp.Course != nil {
				opts.Title = exp.Course.Name
				opts.Profile = exp.Course
			}
			return viz.RunLive(cmd.Context(), exp.Simulator, manual, exp.InitialState(), exp.RunConfig(), opts)
		},
	}
	addSimFlags(cmd)
	cmd.Flags().Float64Var(&speedup, "speedup", 1, "simulated seconds per wall-clock second")
	cmd.Flags().Float64Var(&ftp, "ftp", 0, "functional threshold power for zone colours")
	return cmd
}

func scenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of rides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sc, err := experiment.LoadScenario(args[0])
			if err != nil {
				return err
			}
			results, err := experiment.RunScenario(cmd.Context(), cfg, sc, log)
			if err != nil {
				return err
			}

			if jsonOut {
				out := make([]map[string]any, len(results))
				for i, r := range results {
					out[i] = map[string]any{"step": r.Step, "metrics": r.Result.Metrics}
				}
				return printJSON(out)
			}

			fmt.Println(viz.Title.Render(sc.Name))
			rows := make([][]string, len(results))
			for i, r := range results {
				m := r.Result.Metrics
				name := r.Step.Name
				if name == "" {
					name = fmt.Sprintf("step %d", i+1)
				}
				final := r.Result.States[len(r.Result.States)-1]
				rows[i] = []string{name, f2(r.Result.Times[len(r.Result.Times)-1]), f2(final[0] / 1000),
					f2(m["avg_speed"] * 3.6), f2(m["avg_power"]), f2(m["work_kj"])}
			}
			fmt.Println(viz.Table([]string{"step", "time s", "km", "avg km/h", "avg W", "kJ"}, rows))
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/cycledyn/internal/analysis"
	"github.com/san-kum/cycledyn/internal/control"
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/integrators"
	"github.com/san-kum/cycledyn/internal/physics"
	"github.com/san-kum/cycledyn/internal/sim"
	"github.com/san-kum/cycledyn/internal/viz"
)

var (
	kmh        bool
	sweepKind  string
	sweepFrom  float64
	sweepTo    float64
	sweepStep  float64
	sweepParam string
	sweepSteps int
	sweepPower float64
	sweepTime  float64
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseSpeed(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("speed: %w", err)
	}
	if kmh {
		v /= 3.6
	}
	return v, nil
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func forcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forces [speed]",
		Short: "resisting forces at a speed (m/s)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			v, err := parseSpeed(args[0])
			if err != nil {
				return err
			}
			f, err := physics.ComputeForces(cfg.Rider, cfg.Environment, v)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(f)
			}
			fmt.Println(viz.Table([]string{"force", "newtons"}, [][]string{
				{"drag", f2(f.Drag)},
				{"rolling", f2(f.Rolling)},
				{"gravity", f2(f.Gravity)},
				{"total", f2(f.Total())},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&kmh, "kmh", false, "speed is in km/h")
	return cmd
}

func powerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "power [speed]",
		Short: "pedal power needed to hold a speed (m/s)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			v, err := parseSpeed(args[0])
			if err != nil {
				return err
			}
			b, err := physics.Breakdown(cfg.Rider, cfg.Environment, v)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(b)
			}
			fmt.Println(viz.Table([]string{"component", "watts"}, [][]string{
				{"drag", f2(b.Drag)},
				{"rolling", f2(b.Rolling)},
				{"climbing", f2(b.Climbing)},
				{"drivetrain", f2(b.Drivetrain)},
				{"total", f2(b.Total)},
			}))
			if cfg.Rider.Mass > 0 {
				fmt.Printf("%.2f W/kg at %.2f km/h\n", b.Total/cfg.Rider.Mass, v*3.6)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&kmh, "kmh", false, "speed is in km/h")
	return cmd
}

func speedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speed [watts]",
		Short: "steady speed reached with a pedal power",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			watts, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("watts: %w", err)
			}
			solver := physics.NewSolver(cfg.Solver)
			sol, err := solver.Solve(cfg.Rider, cfg.Environment, dynamo.Query{Kind: dynamo.SolveSpeed, Value: watts})
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(sol)
			}
			fmt.Println(viz.Table([]string{"quantity", "value"}, [][]string{
				{"speed m/s", f2(sol.Speed)},
				{"speed km/h", f2(sol.Speed * 3.6)},
				{"power W", f2(sol.Power)},
				{"drag N", f2(sol.Forces.Drag)},
				{"rolling N", f2(sol.Forces.Rolling)},
				{"gravity N", f2(sol.Forces.Gravity)},
			}))
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve over a range of speeds or powers, or sweep a ride parameter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if sweepParam != "" {
				return runSensitivity(cfg.Rider, cfg.Environment, cfg.Simulation.Integrator, cfg.Simulation.Dt)
			}

			var kind dynamo.QueryKind
			switch sweepKind {
			case "power":
				kind = dynamo.SolvePower
			case "speed":
				kind = dynamo.SolveSpeed
			default:
				return fmt.Errorf("unknown sweep kind: %s (power, speed)", sweepKind)
			}
			if sweepStep <= 0 || sweepTo < sweepFrom {
				return fmt.Errorf("%w: need --from <= --to and --step > 0", dynamo.ErrInvalidInput)
			}

			solver := physics.NewSolver(cfg.Solver)
			results := sim.Sweep(solver, cfg.Rider, cfg.Environment, kind, sweepFrom, sweepTo, sweepStep)

			if jsonOut {
				return printJSON(results)
			}

			rows := make([][]string, 0, len(results))
			var curve []float64
			for _, r := range results {
				if r.Err != nil {
					rows = append(rows, []string{"-", "-", r.Err.Error()})
					continue
				}
				s := r.Solution
				rows = append(rows, []string{f2(s.Speed * 3.6), f2(s.Power), f2(s.Forces.Total())})
				if kind == dynamo.SolvePower {
					curve = append(curve, s.Power)
				} else {
					curve = append(curve, s.Speed*3.6)
				}
			}
			fmt.Println(viz.Table([]string{"km/h", "watts", "total N"}, rows))
			if len(curve) > 1 {
				fmt.Println(viz.Plot(curve, "unknown: "+kind.String(), 60, 10))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sweepKind, "kind", "power", "unknown to solve for: power (sweep speed) or speed (sweep power)")
	cmd.Flags().Float64Var(&sweepFrom, "from", 1, "first known value")
	cmd.Flags().Float64Var(&sweepTo, "to", 15, "last known value")
	cmd.Flags().Float64Var(&sweepStep, "step", 1, "increment")
	cmd.Flags().StringVar(&sweepParam, "param", "", "ride parameter to sweep with --from/--to (mass, cda, crr, ...)")
	cmd.Flags().IntVar(&sweepSteps, "steps", 10, "parameter values for --param")
	cmd.Flags().Float64Var(&sweepPower, "watts", 200, "constant power for --param")
	cmd.Flags().Float64Var(&sweepTime, "time", 600, "ride duration for --param (s)")
	return cmd
}

func runSensitivity(r dynamo.Rider, env dynamo.Environment, integName string, dt float64) error {
	integ, err := integrators.ByName(integName)
	if err != nil {
		return err
	}
	ride := physics.NewRide(r, env, nil)
	points, err := analysis.Sensitivity(ride, integ, control.NewConstant(sweepPower),
		sweepParam, sweepFrom, sweepTo, sweepSteps, dynamo.State{0, 0}, dt, sweepTime)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(points)
	}

	rows := make([][]string, len(points))
	speeds := make([]float64, len(points))
	for i, p := range points {
		rows[i] = []string{strconv.FormatFloat(p.Param, 'g', 5, 64), f2(p.Speed * 3.6), f2(p.Distance / 1000)}
		speeds[i] = p.Speed * 3.6
	}
	fmt.Println(viz.Table([]string{sweepParam, "final km/h", "km"}, rows))
	fmt.Println(viz.Plot(speeds, "final speed vs "+sweepParam, 60, 10))
	return nil
}

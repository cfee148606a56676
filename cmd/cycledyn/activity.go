package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/analysis"
	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/critpower"
	"github.com/san-kum/cycledyn/internal/export"
	"github.com/san-kum/cycledyn/internal/optim"
	"github.com/san-kum/cycledyn/internal/segments"
	"github.com/san-kum/cycledyn/internal/storage"
	"github.com/san-kum/cycledyn/internal/viz"
)

var (
	analysisFTP   float64
	rollingWindow int
	smoothing     int
	temperature   float64
	csvOut        string
	svgOut        string
	maxWindow     int
	profileArg    string
	intensity     bool
	updateRecords bool
	saveAnalysis  bool
	segmentTime   int
	testLength    int
	zwoOut        string
	workoutName   string
	segStart      float64
	segLength     float64
	cdaMin        float64
	cdaMax        float64
	crrMin        float64
	crrMax        float64
	gridSteps     int
)

// loadActivity reads and enriches one FIT or CSV file.
func loadActivity(path string, cfg *config.Config) ([]activity.Record, error) {
	recs, err := activity.Load(path)
	if err != nil {
		return nil, err
	}
	opts := activity.DefaultEnrichOptions()
	opts.Temperature = cfg.Analysis.Temperature
	opts.Logger = log
	return activity.Enrich(recs, opts), nil
}

func applyAnalysisFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("ftp") {
		cfg.Analysis.FTP = analysisFTP
	}
	if f.Changed("window") {
		cfg.Analysis.RollingWindow = rollingWindow
	}
	if f.Changed("smoothing") {
		cfg.Analysis.Smoothing = smoothing
	}
	if f.Changed("temperature") {
		cfg.Analysis.Temperature = temperature
	}
	if f.Changed("max-window") {
		cfg.Analysis.MaxWindow = maxWindow
	}
	if f.Changed("segment-time") {
		cfg.Analysis.SegmentTime = segmentTime
	}
	if f.Changed("test-length") {
		cfg.Analysis.TestLength = testLength
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [activity]",
		Short: "summarize a FIT/CSV ride and model the power it needed",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.Float64Var(&analysisFTP, "ftp", 0, "functional threshold power (W)")
	f.IntVar(&rollingWindow, "window", config.DefaultRollingWindow, "rolling window (samples)")
	f.IntVar(&smoothing, "smoothing", config.DefaultSmoothing, "smoothing window for modelled power")
	f.Float64Var(&temperature, "temperature", config.DefaultTemperature, "air temperature where the file has none (°C)")
	f.StringVar(&csvOut, "csv", "", "write the enriched records as CSV")
	f.StringVar(&svgOut, "svg", "", "write recorded vs modelled power as SVG")
	f.BoolVar(&saveAnalysis, "save", false, "save the analysis to the data directory")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyAnalysisFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	recs, err := loadActivity(args[0], cfg)
	if err != nil {
		return err
	}

	sum := analysis.Summarize(recs, cfg.Analysis.RollingWindow, cfg.Analysis.FTP)

	opts := analysis.DefaultEstimateOptions()
	opts.Smoothing = cfg.Analysis.Smoothing
	opts.AirDensity = cfg.Environment.AirDensity
	opts.WindSpeed = cfg.Environment.WindSpeed
	opts.WindDirection = cfg.Environment.WindDirection
	est, err := analysis.Estimate(recs, cfg.Rider, opts)
	if err != nil {
		return err
	}
	totals := est.Totals()

	shown := est.Smoothed
	if len(shown) == 0 {
		shown = est.Samples
	}
	modelled := make([]float64, len(shown))
	for i, s := range shown {
		modelled[i] = s.EstPower
	}

	metrics := map[string]float64{
		"duration_s":         sum.Duration,
		"distance_km":        sum.Distance / 1000,
		"avg_power":          sum.AvgPower,
		"avg_speed_kmh":      sum.AvgSpeed * 3.6,
		"work_kj":            sum.WorkKJ,
		"normalized_power":   sum.NP,
		"rms_error_w":        est.RMSError(),
		"rms_error_no_accel": est.RMSErrorNoAccel(),
		"est_avg_power":      totals.EstPower,
		"est_drag_w":         totals.AirDragWatts,
		"est_climbing_w":     totals.ClimbingWatts,
		"est_rolling_w":      totals.RollingWatts,
		"est_loss_w":         totals.LossWatts,
	}
	if cfg.Analysis.FTP > 0 {
		metrics["intensity_factor"] = sum.IF
		metrics["tss"] = sum.TSS
	}

	if jsonOut {
		if err := printJSON(metrics); err != nil {
			return err
		}
	} else {
		fmt.Println(viz.MetricsTable(metrics))
		recorded := activity.Powers(recs)
		fmt.Println(viz.PlotMany([][]float64{recorded, modelled}, "recorded (cyan) vs modelled (yellow) W", 70, 10))
		if cfg.Analysis.FTP > 0 {
			rows := make([][]string, len(viz.Zones))
			for i, secs := range viz.ZoneTimes(recorded, cfg.Analysis.FTP, 1) {
				rows[i] = []string{viz.Zones[i].Name, (time.Duration(secs) * time.Second).String()}
			}
			fmt.Println(viz.Table([]string{"zone", "time"}, rows))
		}
	}

	if csvOut != "" {
		if err := writeCSVFile(csvOut, recs); err != nil {
			return err
		}
	}

	if svgOut != "" {
		secs := activity.Seconds(recs)
		chart := export.Chart{
			Title:  args[0],
			XLabel: "seconds",
			YLabel: "watts",
			Lines: []export.Line{
				{Name: "recorded", X: secs, Y: activity.Powers(recs)},
				{Name: "modelled", X: secs, Y: modelled},
			},
		}
		if err := chart.Save(svgOut); err != nil {
			return err
		}
	}

	if saveAnalysis {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		series := &storage.Series{Columns: []string{"time", "distance", "speed", "power", "est_power", "slope"}}
		for i, r := range recs {
			series.Rows = append(series.Rows, []float64{r.Seconds, r.Distance, r.Speed, r.Power, est.Samples[i].EstPower, r.Slope})
		}
		runID, err := st.Save(storage.RunMetadata{
			Kind:        "analyze",
			Name:        args[0],
			Source:      args[0],
			Rider:       cfg.Rider,
			Environment: cfg.Environment,
			Duration:    sum.Duration,
			Metrics:     metrics,
		}, series)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func cpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cp [activity]",
		Short: "critical power curve of a ride",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyAnalysisFlags(cmd, cfg)

			recs, err := loadActivity(args[0], cfg)
			if err != nil {
				return err
			}
			curve, err := critpower.Calculate(recs, cfg.Analysis.MaxWindow, log)
			if err != nil {
				return err
			}

			if jsonOut {
				if err := printJSON(curve); err != nil {
					return err
				}
			} else {
				rows := [][]string{}
				for _, d := range storage.RecordDurations {
					p, ok := curve.At(d)
					if !ok {
						continue
					}
					rows = append(rows, []string{strconv.Itoa(d), f2(p.CP), f2(p.Std), f2(p.Slope), f2(p.HR)})
				}
				fmt.Println(viz.Table([]string{"seconds", "watts", "std", "fade", "hr"}, rows))
				cps := make([]float64, len(curve.Points))
				for i, p := range curve.Points {
					cps[i] = p.CP
				}
				fmt.Println(viz.Plot(cps, "critical power W by duration", 70, 10))
			}

			if intensity {
				var src critpower.PowerSource = curve
				if profileArg != "" {
					if src, err = critpower.ParseProfile(profileArg); err != nil {
						return err
					}
				}
				in, err := critpower.CalculateIntensity(activity.Powers(recs), src, cfg.Analysis.MaxWindow)
				if err != nil {
					return err
				}
				fmt.Printf("mean intensity: %.1f%% of critical power\n", in.Mean)
			}

			if svgOut != "" {
				xs := make([]float64, len(curve.Points))
				ys := make([]float64, len(curve.Points))
				for i, p := range curve.Points {
					xs[i], ys[i] = float64(p.Seconds), p.CP
				}
				chart := export.Chart{Title: "critical power", XLabel: "seconds", YLabel: "watts", Lines: []export.Line{{Name: args[0], X: xs, Y: ys}}}
				if err := chart.Save(svgOut); err != nil {
					return err
				}
			}

			if updateRecords {
				return saveRecords(cfg, curve, recs)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&maxWindow, "max-window", config.DefaultMaxWindow, "longest duration evaluated (s)")
	f.StringVar(&profileArg, "profile", "", `power profile for --intensity, e.g. "1:1000, 60:450, 1200:300"`)
	f.BoolVar(&intensity, "intensity", false, "report the ride's intensity against the curve or --profile")
	f.BoolVar(&updateRecords, "records", true, "update the best-power records database")
	f.StringVar(&svgOut, "svg", "", "write the curve as SVG")
	return cmd
}

func saveRecords(cfg *config.Config, curve *critpower.Curve, recs []activity.Record) error {
	db, err := storage.OpenRecords(cfg.RecordsDB, log)
	if err != nil {
		return err
	}
	defer db.Close()

	best := make(map[int]float64)
	for _, d := range storage.RecordDurations {
		if p, ok := curve.Power(d); ok {
			best[d] = p
		}
	}
	date := recs[0].Timestamp
	if date.IsZero() {
		date = time.Now()
	}
	improved, err := db.Update(best, cfg.Rider.Mass, date)
	if err != nil {
		return err
	}
	for _, r := range improved {
		fmt.Printf("new record: %ds %dW (%.2f W/kg)\n", r.Duration, r.Watts, r.Wkg)
	}
	return nil
}

func rampCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ramp [activity]",
		Short: "build a ramp test workout from a ride's curve or a --profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyAnalysisFlags(cmd, cfg)

			var src critpower.PowerSource
			switch {
			case profileArg != "":
				if src, err = critpower.ParseProfile(profileArg); err != nil {
					return err
				}
			case len(args) == 1:
				recs, err := loadActivity(args[0], cfg)
				if err != nil {
					return err
				}
				if src, err = critpower.Calculate(recs, cfg.Analysis.TestLength, log); err != nil {
					return err
				}
			default:
				return fmt.Errorf("need an activity file or --profile")
			}

			test, err := critpower.Ramp(src, cfg.Analysis.SegmentTime, cfg.Analysis.TestLength, cfg.Analysis.FTP)
			if err != nil {
				return err
			}

			if jsonOut {
				if err := printJSON(test); err != nil {
					return err
				}
			} else {
				rows := make([][]string, len(test.Segments))
				for i, s := range test.Segments {
					rows[i] = []string{strconv.Itoa(s.Segment), strconv.Itoa(s.Duration), f2(s.Power), f2(s.PowerFTP)}
				}
				fmt.Println(viz.Table([]string{"segment", "seconds", "watts", "ftp"}, rows))
				fmt.Printf("total %ds\n", test.Duration())
			}

			if zwoOut != "" {
				if test.FTP <= 0 {
					return fmt.Errorf("--ftp is required for a ZWO workout")
				}
				if err := test.SaveZWO(zwoOut, workoutName, "cycledyn"); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", zwoOut)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&profileArg, "profile", "", `power profile, e.g. "1:1000, 60:450, 1200:300"`)
	f.Float64Var(&analysisFTP, "ftp", 0, "functional threshold power (W)")
	f.IntVar(&segmentTime, "segment-time", config.DefaultSegmentTime, "seconds per workout block after the first 30 s")
	f.IntVar(&testLength, "test-length", config.DefaultTestLength, "test length (s)")
	f.StringVar(&zwoOut, "zwo", "", "write a Zwift workout file")
	f.StringVar(&workoutName, "name", "ramp test", "workout name")
	return cmd
}

func segmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments [control] [rides...]",
		Short: "cut the same stretch of road out of several rides and compare",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tracks := make([][]activity.Record, len(args))
			for i, path := range args {
				if tracks[i], err = loadActivity(path, cfg); err != nil {
					return err
				}
			}

			matched, err := segments.Match(tracks, segStart, segLength, log)
			if err != nil {
				return err
			}
			results := segments.Compare(matched)
			if jsonOut {
				return printJSON(results)
			}

			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{args[r.Ride], f2(r.Seconds), f2(r.Distance), f2(r.AvgPower), f2(r.AvgSpeed * 3.6)}
			}
			fmt.Println(viz.Table([]string{"ride", "seconds", "metres", "avg W", "avg km/h"}, rows))
			return nil
		},
	}
	cmd.Flags().Float64Var(&segStart, "start", 0, "segment start on the control ride (m)")
	cmd.Flags().Float64Var(&segLength, "length", 1000, "segment length (m)")
	return cmd
}

func fitCdACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit-cda [activity]",
		Short: "fit CdA and Crr to a ride with a power meter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			recs, err := loadActivity(args[0], cfg)
			if err != nil {
				return err
			}

			opts := analysis.DefaultEstimateOptions()
			opts.Smoothing = 0
			opts.AirDensity = cfg.Environment.AirDensity
			opts.WindSpeed = cfg.Environment.WindSpeed
			opts.WindDirection = cfg.Environment.WindDirection

			fit, err := optim.FitDrag(cmd.Context(), recs, cfg.Rider, opts,
				optim.Linspace(cdaMin, cdaMax, gridSteps), optim.Linspace(crrMin, crrMax, gridSteps))
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(fit)
			}
			fmt.Println(viz.Table([]string{"cda", "crr", "rms error W"}, [][]string{
				{strconv.FormatFloat(fit.CdA, 'f', 4, 64), strconv.FormatFloat(fit.Crr, 'f', 5, 64), f2(fit.RMSError)},
			}))
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&cdaMin, "cda-min", 0.2, "lowest CdA tried (m²)")
	f.Float64Var(&cdaMax, "cda-max", 0.5, "highest CdA tried (m²)")
	f.Float64Var(&crrMin, "crr-min", 0.002, "lowest Crr tried")
	f.Float64Var(&crrMax, "crr-max", 0.008, "highest Crr tried")
	f.IntVar(&gridSteps, "steps", 31, "grid points per coefficient")
	return cmd
}

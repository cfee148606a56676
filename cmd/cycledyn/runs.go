package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/export"
	"github.com/san-kum/cycledyn/internal/storage"
	"github.com/san-kum/cycledyn/internal/viz"
)

var (
	plotColumn string
	outFile    string
)

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func writeCSVFile(path string, recs []activity.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := activity.WriteCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			runs, err := st.List()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tTIME\tDURATION\tNAME\tAVG W\tAVG KM/H")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%s\t%.1f\t%.1f\n",
					run.ID,
					run.Kind,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Duration,
					run.Name,
					run.Metrics["avg_power"],
					speedKmh(run.Metrics),
				)
			}
			return w.Flush()
		},
	}
}

func speedKmh(m map[string]float64) float64 {
	if v, ok := m["avg_speed_kmh"]; ok {
		return v
	}
	return m["avg_speed"] * 3.6
}

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a column of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			series, err := st.LoadSeries(args[0])
			if err != nil {
				return err
			}
			if len(series.Rows) == 0 {
				return fmt.Errorf("no data to plot")
			}

			cols := strings.Split(plotColumn, ",")
			lines := make([]export.Line, 0, len(cols))
			values := make([][]float64, 0, len(cols))
			times, _ := series.Column("time")
			for _, c := range cols {
				c = strings.TrimSpace(c)
				ys, ok := series.Column(c)
				if !ok {
					return fmt.Errorf("run %s has no column %q (have %v)", meta.ID, c, series.Columns)
				}
				values = append(values, ys)
				lines = append(lines, export.Line{Name: c, X: times, Y: ys})
			}

			if outFile != "" {
				chart := export.Chart{Title: meta.ID, XLabel: "time s", Lines: lines}
				if err := chart.Save(outFile); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", outFile)
				return nil
			}

			fmt.Printf("run: %s (%s)\n", meta.ID, meta.Kind)
			fmt.Println(viz.PlotMany(values, plotColumn, 70, 12))
			return nil
		},
	}
	cmd.Flags().StringVar(&plotColumn, "column", "speed", "comma separated columns to plot")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write an SVG chart instead of printing")
	return cmd
}

func exportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(st.CSVPath(args[0]))
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(outFile, data, 0644)
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	return cmd
}

func exportJSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			if outFile == "" {
				return st.ExportJSON(args[0], os.Stdout)
			}
			f, err := os.Create(outFile)
			if err != nil {
				return err
			}
			if err := st.ExportJSON(args[0], f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	return cmd
}

func recordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "show best power records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := storage.OpenRecords(cfg.RecordsDB, log)
			if err != nil {
				return err
			}
			defer db.Close()

			recs, err := db.All()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(recs)
			}
			rows := make([][]string, 0, len(recs))
			for _, r := range recs {
				date := "-"
				if r.Watts > 0 {
					date = r.Date.Format("2006-01-02")
				}
				rows = append(rows, []string{fmt.Sprintf("%ds", r.Duration), fmt.Sprintf("%d", r.Watts), f2(r.Wkg), date})
			}
			fmt.Println(viz.Table([]string{"duration", "watts", "w/kg", "date"}, rows))
			return nil
		},
	}
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [category]",
		Short: "list riding position and surface presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := config.Categories()
			if len(args) == 1 {
				categories = args
			}
			for _, c := range categories {
				names := config.ListPresets(c)
				if len(names) == 0 {
					return fmt.Errorf("no presets for category: %s (available: %v)", c, config.Categories())
				}
				rows := make([][]string, len(names))
				for i, n := range names {
					p := config.GetPreset(c, n)
					rows[i] = []string{n, optional(p.FrontalArea), optional(p.DragCoefficient), optional(p.RollingResistance), p.Description}
				}
				fmt.Println(viz.Title.Render(c))
				fmt.Println(viz.Table([]string{"name", "area", "cd", "crr", "description"}, rows))
			}
			return nil
		},
	}
}

func optional(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%g", v)
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file with the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "cycledyn.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
}

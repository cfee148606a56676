package experiment

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/control"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

var controllers = map[string]func(config.SimulationConfig, *slog.Logger) (dynamo.Controller, error){
	"none": func(config.SimulationConfig, *slog.Logger) (dynamo.Controller, error) {
		return control.NewNone(), nil
	},
	"constant": func(sc config.SimulationConfig, _ *slog.Logger) (dynamo.Controller, error) {
		return control.NewConstant(sc.Power), nil
	},
	"pid": func(sc config.SimulationConfig, _ *slog.Logger) (dynamo.Controller, error) {
		p := sc.ControllerParams
		pid := control.NewPID(p.Kp, p.Ki, p.Kd, p.Target)
		if p.MaxWatts > 0 {
			pid.MaxWatts = p.MaxWatts
		}
		return pid, nil
	},
	"series": func(sc config.SimulationConfig, log *slog.Logger) (dynamo.Controller, error) {
		if sc.PowerFile == "" {
			return nil, fmt.Errorf("%w: series controller needs a power file", dynamo.ErrInvalidInput)
		}
		recs, err := activity.Load(sc.PowerFile)
		if err != nil {
			return nil, fmt.Errorf("power file: %w", err)
		}
		opts := activity.DefaultEnrichOptions()
		opts.Logger = log
		recs = activity.Enrich(recs, opts)
		s := control.NewSeries(activity.Seconds(recs), activity.Powers(recs))
		log.Info("power series loaded", "file", sc.PowerFile, "samples", len(recs), "duration_s", s.Duration())
		return s, nil
	},
}

// NewController builds the controller named by sc.Controller.
func NewController(sc config.SimulationConfig, log *slog.Logger) (dynamo.Controller, error) {
	if log == nil {
		log = slog.Default()
	}
	fn, ok := controllers[sc.Controller]
	if !ok {
		return nil, fmt.Errorf("%w: unknown controller %q (available: %v)", dynamo.ErrInvalidInput, sc.Controller, ControllerNames())
	}
	return fn(sc, log)
}

func ControllerNames() []string {
	names := make([]string, 0, len(controllers))
	for name := range controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

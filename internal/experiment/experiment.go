// Package experiment assembles ride simulations from configuration and
// runs scripted scenarios of them.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/course"
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/integrators"
	"github.com/san-kum/cycledyn/internal/metrics"
	"github.com/san-kum/cycledyn/internal/physics"
	"github.com/san-kum/cycledyn/internal/sim"
)

type Experiment struct {
	Config     config.SimulationConfig
	Rider      dynamo.Rider
	Env        dynamo.Environment
	Ride       *physics.Ride
	Course     *course.Course // nil on a constant grade
	Controller dynamo.Controller
	Simulator  *sim.Simulator
}

// Build wires a simulator for cfg. A non-nil ctrl replaces the configured
// controller.
func Build(cfg *config.Config, ctrl dynamo.Controller, log *slog.Logger) (*Experiment, error) {
	if log == nil {
		log = slog.Default()
	}
	sc := cfg.Simulation
	e := &Experiment{Config: sc, Rider: cfg.Rider, Env: cfg.Environment}

	var grades physics.GradeProfile
	if sc.Course != "" {
		c, err := course.LoadGPX(sc.Course)
		if err != nil {
			return nil, fmt.Errorf("course: %w", err)
		}
		e.Course = c
		grades = c
		if e.Config.Distance == 0 {
			e.Config.Distance = c.Length()
		}
		log.Info("course loaded", "name", c.Name, "length_m", c.Length(), "ascent_m", c.Ascent())
	}
	e.Ride = physics.NewRide(cfg.Rider, cfg.Environment, grades)

	integ, err := integrators.ByName(sc.Integrator)
	if err != nil {
		return nil, err
	}

	if ctrl == nil {
		ctrl, err = NewController(sc, log)
		if err != nil {
			return nil, err
		}
	}
	e.Controller = ctrl

	e.Simulator = sim.New(e.Ride, integ, ctrl)
	for _, m := range metrics.Standard() {
		e.Simulator.AddMetric(m)
	}
	e.Simulator.AddObserver(sim.NewProgress(log, 60))
	return e, nil
}

func (e *Experiment) InitialState() dynamo.State {
	return dynamo.State{0, e.Config.InitialSpeed}
}

func (e *Experiment) RunConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = e.Config.Dt
	cfg.Duration = e.Config.Duration
	cfg.Distance = e.Config.Distance
	return cfg
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.Simulator.Run(ctx, e.InitialState(), e.RunConfig())
}

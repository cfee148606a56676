package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 until cfg.Duration elapses or, when cfg.Distance
// is set, until state[0] reaches it. The partial result is returned
// alongside cancellation and invalid-state errors.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; i < steps && !reached(x, cfg); i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, &dynamo.SimulationError{
				Step:    i,
				Time:    t,
				State:   x.Clone(),
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()),
			}
		default:
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		next := s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		if cfg.ValidateState && !next.IsValid() {
			s.collect(result)
			return result, &dynamo.SimulationError{
				Step:    i,
				Time:    t,
				State:   next,
				Wrapped: dynamo.ErrInvalidState,
			}
		}

		x = next
		t = float64(i+1) * cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	// close the metric intervals on the final state
	if n := len(result.Controls); n > 0 {
		for _, m := range s.metrics {
			m.Observe(x, result.Controls[n-1], t)
		}
	}
	s.collect(result)

	return result, nil
}

// RunWithCallback steps like Run without recording. The callback sees each
// state before it is advanced; returning false stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, cfg dynamo.Config, callback func(dynamo.State, dynamo.Control, float64) bool) error {
	if err := s.validate(x0, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	t := 0.0

	for step := 0; t < cfg.Duration && !reached(x, cfg); step++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		u := s.controller.Compute(x, t)

		if !callback(x, u, t) {
			return nil
		}

		x = s.integrator.Step(s.dyn, x, u, t, cfg.Dt)
		t = float64(step+1) * cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: dynamo.ErrInvalidState}
		}
	}

	return nil
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validate(x0 dynamo.State, cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return &dynamo.InputError{Field: "dt", Value: cfg.Dt, Reason: "must be positive"}
	}
	if cfg.Duration <= 0 {
		return &dynamo.InputError{Field: "duration", Value: cfg.Duration, Reason: "must be positive"}
	}
	if cfg.Distance < 0 {
		return &dynamo.InputError{Field: "distance", Value: cfg.Distance, Reason: "must not be negative"}
	}
	if len(x0) != s.dyn.StateDim() {
		return &dynamo.InputError{Field: "state_dim", Value: float64(len(x0)), Reason: fmt.Sprintf("expected %d", s.dyn.StateDim())}
	}
	return nil
}

func reached(x dynamo.State, cfg dynamo.Config) bool {
	return cfg.Distance > 0 && len(x) > 0 && x[0] >= cfg.Distance
}

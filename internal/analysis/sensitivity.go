package analysis

import (
	"fmt"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// SensitivityPoint is the state reached for one parameter value.
type SensitivityPoint struct {
	Param    float64 `json:"param"`
	Speed    float64 `json:"speed"`
	Distance float64 `json:"distance"`
}

// Sensitivity sweeps a parameter of a configurable system, integrating
// each value from x0 for duration seconds under ctrl and recording the
// final speed and distance. The original parameter value is restored.
func Sensitivity(
	dyn dynamo.System,
	integ dynamo.Integrator,
	ctrl dynamo.Controller,
	paramName string,
	paramMin, paramMax float64,
	paramSteps int,
	x0 dynamo.State,
	dt, duration float64,
) ([]SensitivityPoint, error) {
	tunable, ok := dyn.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("%w: system has no tunable parameters", dynamo.ErrInvalidInput)
	}
	orig, ok := tunable.GetParams()[paramName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown param %q", dynamo.ErrInvalidInput, paramName)
	}
	if len(x0) < 2 {
		return nil, &dynamo.InputError{Field: "state_dim", Value: float64(len(x0)), Reason: "need [distance, speed]"}
	}
	if dt <= 0 || duration <= 0 {
		return nil, fmt.Errorf("%w: dt and duration must be positive", dynamo.ErrInvalidInput)
	}
	if paramSteps < 2 {
		paramSteps = 2
	}
	defer tunable.SetParam(paramName, orig)

	step := (paramMax - paramMin) / float64(paramSteps-1)
	results := make([]SensitivityPoint, 0, paramSteps)

	for i := 0; i < paramSteps; i++ {
		param := paramMin + float64(i)*step
		if err := tunable.SetParam(paramName, param); err != nil {
			return results, fmt.Errorf("%s=%g: %w", paramName, param, err)
		}

		x := x0.Clone()
		for t := 0.0; t < duration; t += dt {
			x = integ.Step(dyn, x, ctrl.Compute(x, t), t, dt)
		}
		if !x.IsValid() {
			return results, &dynamo.SimulationError{Time: duration, State: x, Wrapped: dynamo.ErrInvalidState}
		}

		results = append(results, SensitivityPoint{Param: param, Distance: x[0], Speed: x[1]})
	}
	return results, nil
}

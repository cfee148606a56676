package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Solver reconciles power and speed. It holds only configuration and is
// safe for concurrent use.
type Solver struct {
	cfg dynamo.SolverConfig
}

func NewSolver(cfg dynamo.SolverConfig) *Solver {
	return &Solver{cfg: cfg.WithDefaults()}
}

func (s *Solver) Config() dynamo.SolverConfig { return s.cfg }

// Solve resolves the unknown named by q and returns the full operating point.
func (s *Solver) Solve(r dynamo.Rider, env dynamo.Environment, q dynamo.Query) (dynamo.Solution, error) {
	switch q.Kind {
	case dynamo.SolvePower:
		p, err := PowerFromSpeed(r, env, q.Value)
		if err != nil {
			return dynamo.Solution{}, err
		}
		return dynamo.Solution{Speed: q.Value, Power: p, Forces: forces(r, env, q.Value)}, nil
	case dynamo.SolveSpeed:
		v, err := s.SpeedFromPower(r, env, q.Value)
		if err != nil {
			return dynamo.Solution{}, err
		}
		return dynamo.Solution{Speed: v, Power: q.Value, Forces: forces(r, env, v)}, nil
	default:
		return dynamo.Solution{}, fmt.Errorf("%w: unknown query kind %d", dynamo.ErrInvalidInput, q.Kind)
	}
}

// FreewheelSpeed returns the steady speed at zero power: the largest v >= 0
// with ΣF(v) <= 0. It is 0 whenever rolling plus gravity resist at rest and
// +Inf on a descent with no drag.
func FreewheelSpeed(r dynamo.Rider, env dynamo.Environment) float64 {
	f0 := forces(r, env, 0)
	fGR := f0.Rolling + f0.Gravity
	cDrag := 0.5 * env.AirDensity * r.CdA()
	wind := env.EffectiveWind()

	if cDrag == 0 {
		if fGR > 0 {
			return 0
		}
		return math.Inf(1)
	}

	air := math.Sqrt(math.Abs(fGR) / cDrag)
	if fGR > 0 {
		air = -air
	}
	v := air - wind
	if v < 0 {
		return 0
	}
	return v
}

// SpeedFromPower returns the unique non-negative ground speed at which the
// pedal power balances the resisting forces.
//
// Negative power is below the static threshold and yields ErrNoSolution.
// Power at or below MinPower returns the freewheel speed. Above the
// freewheel speed the residual v·ΣF(v) - η·P is strictly increasing, so the
// bracketed root is the only physical one.
func (s *Solver) SpeedFromPower(r dynamo.Rider, env dynamo.Environment, power float64) (float64, error) {
	if err := validate(r, env); err != nil {
		return 0, err
	}
	if math.IsNaN(power) || math.IsInf(power, 0) {
		return 0, &dynamo.InputError{Field: "power", Value: power, Reason: "must be finite"}
	}
	if power < 0 {
		return 0, fmt.Errorf("%w: power %.3f W is below the static threshold", dynamo.ErrNoSolution, power)
	}

	wheel := power * r.Efficiency
	if power <= s.cfg.MinPower {
		wheel = 0
	}

	if r.CdA() == 0 || env.AirDensity == 0 {
		return s.noDrag(r, env, wheel)
	}

	v0 := FreewheelSpeed(r, env)
	if v0 > s.cfg.MaxSpeed {
		return 0, &dynamo.SolverError{
			Method:   string(s.cfg.Method),
			Residual: residual(r, env, s.cfg.MaxSpeed, wheel),
			Wrapped:  fmt.Errorf("%w: freewheel speed %.1f m/s exceeds %.0f m/s", dynamo.ErrNoSolution, v0, s.cfg.MaxSpeed),
		}
	}
	if wheel == 0 {
		return v0, nil
	}

	lo, hi, err := s.bracket(r, env, v0, wheel)
	if err != nil {
		return 0, err
	}

	switch s.cfg.Method {
	case dynamo.Newton:
		return s.newton(r, env, lo, hi, wheel)
	default:
		return s.bisect(r, env, lo, hi, wheel)
	}
}

func (s *Solver) noDrag(r dynamo.Rider, env dynamo.Environment, wheel float64) (float64, error) {
	f := forces(r, env, 0).Total()
	switch {
	case f > 0 && wheel/f <= s.cfg.MaxSpeed:
		return wheel / f, nil
	case f > 0:
		return 0, &dynamo.SolverError{
			Method:   "closed-form",
			Residual: residual(r, env, s.cfg.MaxSpeed, wheel),
			Wrapped:  fmt.Errorf("%w: no root below %.0f m/s", dynamo.ErrNoSolution, s.cfg.MaxSpeed),
		}
	case f == 0 && wheel == 0:
		return 0, nil
	default:
		return 0, &dynamo.SolverError{Method: "closed-form", Residual: f, Wrapped: dynamo.ErrNoSolution}
	}
}

// bracket grows [lo, hi] by doubling, capped at MaxSpeed, until the
// residual changes sign.
func (s *Solver) bracket(r dynamo.Rider, env dynamo.Environment, v0, wheel float64) (float64, float64, error) {
	lo := v0
	hi := math.Min(v0+s.cfg.InitialUpper, s.cfg.MaxSpeed)
	for residual(r, env, hi, wheel) < 0 {
		if hi >= s.cfg.MaxSpeed {
			return 0, 0, &dynamo.SolverError{
				Method:   string(s.cfg.Method),
				Residual: residual(r, env, hi, wheel),
				Wrapped:  fmt.Errorf("%w: no root below %.0f m/s", dynamo.ErrNoSolution, s.cfg.MaxSpeed),
			}
		}
		lo = hi
		hi = math.Min(2*hi, s.cfg.MaxSpeed)
	}
	return lo, hi, nil
}

func (s *Solver) bisect(r dynamo.Rider, env dynamo.Environment, lo, hi, wheel float64) (float64, error) {
	for i := 1; i <= s.cfg.MaxIterations; i++ {
		mid := (lo + hi) / 2
		if residual(r, env, mid, wheel) < 0 {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < s.cfg.Tolerance {
			return (lo + hi) / 2, nil
		}
	}
	v := (lo + hi) / 2
	return v, &dynamo.SolverError{
		Method:     string(dynamo.Bisection),
		Iterations: s.cfg.MaxIterations,
		Residual:   residual(r, env, v, wheel),
		Wrapped:    dynamo.ErrNotConverged,
	}
}

// newton is Newton-Raphson kept inside the bracket; a step that leaves the
// bracket or meets a non-positive slope falls back to bisection.
func (s *Solver) newton(r dynamo.Rider, env dynamo.Environment, lo, hi, wheel float64) (float64, error) {
	v := hi
	for i := 1; i <= s.cfg.MaxIterations; i++ {
		f := residual(r, env, v, wheel)
		if f == 0 {
			return v, nil
		}
		if f < 0 {
			lo = v
		} else {
			hi = v
		}

		next := (lo + hi) / 2
		if d := residualSlope(r, env, v); d > 0 {
			if n := v - f/d; n > lo && n < hi {
				next = n
			}
		}

		if math.Abs(next-v) < s.cfg.Tolerance || hi-lo < s.cfg.Tolerance {
			return next, nil
		}
		v = next
	}
	return v, &dynamo.SolverError{
		Method:     string(dynamo.Newton),
		Iterations: s.cfg.MaxIterations,
		Residual:   residual(r, env, v, wheel),
		Wrapped:    dynamo.ErrNotConverged,
	}
}

// SpeedFromPower solves with the default solver configuration.
func SpeedFromPower(r dynamo.Rider, env dynamo.Environment, power float64) (float64, error) {
	return NewSolver(dynamo.DefaultSolverConfig()).SpeedFromPower(r, env, power)
}

package physics

import (
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// CdAFromSpeedAndPower back-solves the drag area from a steady speed and
// pedal power on a flat road in still air. The result can be negative when
// the power does not even cover rolling resistance.
func CdAFromSpeedAndPower(r dynamo.Rider, rho, v, power float64) (float64, error) {
	if v <= 0 || power <= 0 {
		return 0, &dynamo.InputError{Field: "speed/power", Value: v, Reason: "speed and power must be > 0"}
	}
	if rho <= 0 {
		return 0, &dynamo.InputError{Field: "air_density", Value: rho, Reason: "must be > 0"}
	}
	wheel := power * r.Efficiency
	return (wheel - v*r.RollingResistance*r.Mass*Gravity) / (0.5 * rho * v * v * v), nil
}

// GradeFromSpeedAndPower returns the road grade (rise/run) on which the
// rider holds speed v with pedal power in still air. It solves
// sin·mg + cos·mg·Crr = η·P/v - ½ρCdA·v² for the slope angle.
func GradeFromSpeedAndPower(r dynamo.Rider, rho, v, power float64) (float64, error) {
	if v <= 0 {
		return 0, &dynamo.InputError{Field: "speed", Value: v, Reason: "must be > 0"}
	}
	mg := r.Mass * Gravity
	k := (power*r.Efficiency/v - 0.5*rho*r.CdA()*v*v) / mg
	c2 := r.RollingResistance * r.RollingResistance
	d := 1 + c2 - k*k
	if d < 0 {
		return 0, &dynamo.InputError{Field: "power", Value: power, Reason: "no slope balances this power at this speed"}
	}
	sin := (k - r.RollingResistance*math.Sqrt(d)) / (1 + c2)
	if math.Abs(sin) >= 1 {
		return 0, &dynamo.InputError{Field: "power", Value: power, Reason: "slope would be vertical"}
	}
	return sin / math.Sqrt(1-sin*sin), nil
}

// VerticalAscentRate returns the climbing rate in metres per hour for a
// pedal power on env's grade.
func (s *Solver) VerticalAscentRate(r dynamo.Rider, env dynamo.Environment, power float64) (float64, error) {
	v, err := s.SpeedFromPower(r, env, power)
	if err != nil {
		return 0, err
	}
	sin, _ := slopeTrig(env.Grade)
	return v * sin * 3600, nil
}

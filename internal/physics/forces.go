package physics

import (
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Gravity is standard gravitational acceleration in m/s².
const Gravity = 9.80665

// slopeTrig returns sin and cos of the slope angle for a rise/run grade.
func slopeTrig(grade float64) (sin, cos float64) {
	cos = 1 / math.Sqrt(1+grade*grade)
	return grade * cos, cos
}

// DragForce is the aerodynamic force in newtons at ground speed v with a
// headwind component wind. The sign follows the air speed so a tailwind
// faster than the rider pushes.
func DragForce(cda, rho, v, wind float64) float64 {
	s := v + wind
	return 0.5 * rho * cda * s * math.Abs(s)
}

// RollingForce is the tyre rolling resistance in newtons.
func RollingForce(crr, mass, grade float64) float64 {
	_, cos := slopeTrig(grade)
	return crr * mass * Gravity * cos
}

// GravityForce is the component of weight along the road, negative downhill.
func GravityForce(mass, grade float64) float64 {
	sin, _ := slopeTrig(grade)
	return mass * Gravity * sin
}

// ComputeForces returns the resisting forces at ground speed v.
func ComputeForces(r dynamo.Rider, env dynamo.Environment, speed float64) (dynamo.Forces, error) {
	if err := validate(r, env); err != nil {
		return dynamo.Forces{}, err
	}
	if err := validateSpeed(speed); err != nil {
		return dynamo.Forces{}, err
	}
	return forces(r, env, speed), nil
}

// forces skips validation; callers have already checked their inputs.
func forces(r dynamo.Rider, env dynamo.Environment, v float64) dynamo.Forces {
	sin, cos := slopeTrig(env.Grade)
	mg := r.Mass * Gravity
	return dynamo.Forces{
		Drag:    DragForce(r.CdA(), env.AirDensity, v, env.EffectiveWind()),
		Rolling: r.RollingResistance * mg * cos,
		Gravity: mg * sin,
	}
}

func validate(r dynamo.Rider, env dynamo.Environment) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return env.Validate()
}

func validateSpeed(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &dynamo.InputError{Field: "speed", Value: v, Reason: "must be finite"}
	}
	if v < 0 {
		return &dynamo.InputError{Field: "speed", Value: v, Reason: "must be >= 0"}
	}
	return nil
}

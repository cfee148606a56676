package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// GradeProfile reports the road grade (rise/run) at a distance in metres.
type GradeProfile interface {
	GradeAt(distance float64) float64
}

// ConstantGrade is a road with the same slope everywhere.
type ConstantGrade float64

func (g ConstantGrade) GradeAt(float64) float64 { return float64(g) }

// Ride is the longitudinal equation of motion of a rider.
//
// State: [distance m, speed m/s]. Control: [pedal power W].
//
//	dv/dt = (η·P/v - ΣF(v)) / m
//
// Below MinSpeed the propulsive force is evaluated at MinSpeed, which caps
// the standing-start force instead of letting it diverge.
type Ride struct {
	Rider    dynamo.Rider
	Env      dynamo.Environment
	Course   GradeProfile
	MinSpeed float64
}

func NewRide(r dynamo.Rider, env dynamo.Environment, course GradeProfile) *Ride {
	if course == nil {
		course = ConstantGrade(env.Grade)
	}
	return &Ride{
		Rider:    r,
		Env:      env,
		Course:   course,
		MinSpeed: 0.5,
	}
}

func (r *Ride) StateDim() int   { return 2 }
func (r *Ride) ControlDim() int { return 1 }

func (r *Ride) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dist, v := x[0], x[1]

	power := 0.0
	if len(u) > 0 {
		power = u[0]
	}

	env := r.Env.WithGrade(r.Course.GradeAt(dist))
	f := forces(r.Rider, env, math.Max(v, 0))

	propulsive := 0.0
	if power > 0 {
		propulsive = power * r.Rider.Efficiency / math.Max(v, r.MinSpeed)
	}

	accel := (propulsive - f.Total()) / r.Rider.Mass
	if v <= 0 && accel < 0 {
		// the bike stalls rather than rolling backwards
		accel = 0
		v = 0
	}

	return dynamo.State{v, accel}
}

// Grade returns the slope under the rider for a state.
func (r *Ride) Grade(x dynamo.State) float64 {
	return r.Course.GradeAt(x[0])
}

// KineticEnergy in joules.
func (r *Ride) KineticEnergy(x dynamo.State) float64 {
	return 0.5 * r.Rider.Mass * x[1] * x[1]
}

func (r *Ride) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":           r.Rider.Mass,
		"cda":            r.Rider.CdA(),
		"crr":            r.Rider.RollingResistance,
		"efficiency":     r.Rider.Efficiency,
		"air_density":    r.Env.AirDensity,
		"wind_speed":     r.Env.WindSpeed,
		"wind_direction": r.Env.WindDirection,
	}
}

func (r *Ride) SetParam(name string, value float64) error {
	rider, env := r.Rider, r.Env
	switch name {
	case "mass":
		rider.Mass = value
	case "cda":
		rider = rider.WithCdA(value)
	case "crr":
		rider.RollingResistance = value
	case "efficiency":
		rider.Efficiency = value
	case "air_density":
		env.AirDensity = value
	case "wind_speed":
		env.WindSpeed = value
	case "wind_direction":
		env.WindDirection = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	if err := validate(rider, env); err != nil {
		return err
	}
	r.Rider, r.Env = rider, env
	return nil
}

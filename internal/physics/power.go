package physics

import (
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// PowerFromSpeed returns the pedal power in watts needed to hold speed v:
// ΣF·v/η. It is zero at v = 0 and negative when the rider would have to
// brake (steep descents, strong tailwinds).
func PowerFromSpeed(r dynamo.Rider, env dynamo.Environment, v float64) (float64, error) {
	f, err := ComputeForces(r, env, v)
	if err != nil {
		return 0, err
	}
	return f.Total() * v / r.Efficiency, nil
}

// Breakdown splits the pedal power at speed v into its components.
func Breakdown(r dynamo.Rider, env dynamo.Environment, v float64) (dynamo.PowerBreakdown, error) {
	f, err := ComputeForces(r, env, v)
	if err != nil {
		return dynamo.PowerBreakdown{}, err
	}
	wheel := f.Total() * v
	total := wheel / r.Efficiency
	return dynamo.PowerBreakdown{
		Drag:       f.Drag * v,
		Rolling:    f.Rolling * v,
		Climbing:   f.Gravity * v,
		Drivetrain: total - wheel,
		Total:      total,
	}, nil
}

// FlatPower is the pedal power on a flat road in still air.
func FlatPower(r dynamo.Rider, rho, v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * (r.RollingResistance*r.Mass*Gravity + 0.5*rho*r.CdA()*v*v) / r.Efficiency
}

// residual is v·ΣF(v) - η·P, strictly increasing for v above the
// freewheel speed.
func residual(r dynamo.Rider, env dynamo.Environment, v, wheelPower float64) float64 {
	return v*forces(r, env, v).Total() - wheelPower
}

// residualSlope is d(v·ΣF)/dv.
func residualSlope(r dynamo.Rider, env dynamo.Environment, v float64) float64 {
	f := forces(r, env, v)
	s := v + env.EffectiveWind()
	return f.Total() + v*env.AirDensity*r.CdA()*math.Abs(s)
}

// Package physics implements the cycling dynamics model.
//
// The force model resolves the three forces opposing a moving rider:
//
//   - aerodynamic drag: ½·ρ·Cd·A·(v+w)·|v+w|
//   - rolling resistance: Crr·m·g·cos(atan(grade))
//   - gravity along the slope: m·g·sin(atan(grade))
//
// Power and speed are tied by the equilibrium P·η = v·ΣF. Power from speed
// is closed form; speed from power is cubic in v and solved by [Solver]
// with bisection or a bracketed Newton iteration.
//
// [Ride] wraps the same forces as a [dynamo.System] so a ride can be
// integrated over time with a power controller:
//
//	ride := physics.NewRide(rider, env, course)
//	sim := sim.New(ride, integrators.NewRK4(), control.NewConstant(250))
//	result, _ := sim.Run(ctx, dynamo.State{0, 1}, cfg)
//
// Functions in this package are pure and safe for concurrent use.
package physics

// Package dynamo provides the core value types for cycling motion dynamics.
//
// The package defines the records every calculation is built from and the
// primitives the ride simulator steps over:
//
//   - [Rider]: rider plus bicycle parameters (mass, CdA, Crr, drivetrain)
//   - [Environment]: air density, road grade and wind
//   - [Forces]: drag, rolling and gravity force components in newtons
//   - [Query]: which of speed or power is the unknown
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Controller]: power source for a simulated ride
//
// # Example
//
//	rider := dynamo.Rider{Mass: 80, FrontalArea: 0.5, DragCoefficient: 0.6,
//	    RollingResistance: 0.005, Efficiency: 0.97}
//	env := dynamo.Environment{AirDensity: 1.2, Grade: 0.04}
//	res, err := physics.NewSolver(dynamo.DefaultSolverConfig()).
//	    Solve(rider, env, dynamo.Query{Kind: dynamo.SolveSpeed, Value: 250})
//
// # Thread Safety
//
// All records are plain values. Nothing in the package holds shared mutable
// state, so calculations can be fanned out with [ParallelFor].
package dynamo

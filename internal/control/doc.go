// Package control provides power sources for simulated rides.
//
// Controllers implement the [dynamo.Controller] interface and return the
// pedal power in watts as a one-element control vector:
//
//   - [Constant]: steady power
//   - [Series]: playback of a recorded power stream
//   - [PID]: holds a target speed, clamped to the rider's power range
//   - [Manual]: power set interactively from the live view
//   - [None]: coasting (zero power)
//
// # Usage
//
//	pid := control.NewPID(40, 2, 0, 11.0) // Kp, Ki, Kd, target m/s
//	s := sim.New(ride, integ, pid)
//
// Controllers implementing [dynamo.Configurable] support live tuning.
package control

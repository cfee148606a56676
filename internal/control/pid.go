package control

import (
	"fmt"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// PID holds a target speed (state[1]) by adjusting pedal power. The output
// is clamped to [0, MaxWatts] and the integral stops winding while clamped.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	MaxWatts float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		Target:   target,
		MaxWatts: 1500,
		first:    true,
	}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) < 2 {
		return dynamo.Control{0}
	}

	err := p.Target - x[1]

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return dynamo.Control{clamp(p.Kp*err, 0, p.MaxWatts)}
	}

	dt := t - p.prevT
	if dt <= 0 {
		return dynamo.Control{clamp(p.Kp*err+p.Ki*p.integral, 0, p.MaxWatts)}
	}

	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt
	u := p.Kp*err + p.Ki*integral + p.Kd*derivative

	out := clamp(u, 0, p.MaxWatts)
	if out == u {
		p.integral = integral
	}

	p.prevErr = err
	p.prevT = t

	return dynamo.Control{out}
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":        p.Kp,
		"ki":        p.Ki,
		"kd":        p.Kd,
		"target":    p.Target,
		"max_watts": p.MaxWatts,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target":
		p.Target = value
	case "max_watts":
		p.MaxWatts = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

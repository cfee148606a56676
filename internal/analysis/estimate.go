package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/physics"
)

// Sample is the modelled power at one record. Watts are at the wheel
// except EstPower and EstPowerNoAccel, which include drivetrain loss.
type Sample struct {
	Seconds           float64 `json:"seconds"`
	Speed             float64 `json:"speed"`
	Slope             float64 `json:"slope"`
	Power             float64 `json:"power"`
	AirDragWatts      float64 `json:"air_drag_watts"`
	ClimbingWatts     float64 `json:"climbing_watts"`
	RollingWatts      float64 `json:"rolling_watts"`
	AccelerationWatts float64 `json:"acceleration_watts"`
	EstPowerNoLoss    float64 `json:"est_power_no_loss"`
	EstPower          float64 `json:"est_power"`
	LossWatts         float64 `json:"loss_watts"`
	EstPowerNoAccel   float64 `json:"est_power_no_acceleration"`
	PowerError        float64 `json:"power_error"`
}

type EstimateOptions struct {
	// Smoothing is the centred window for the Smoothed series; 0 disables.
	Smoothing     int
	WindSpeed     float64
	WindDirection float64
	// AirDensity applies where a record has none.
	AirDensity float64
}

func DefaultEstimateOptions() EstimateOptions {
	return EstimateOptions{Smoothing: 3, AirDensity: 1.225}
}

type Estimation struct {
	Samples  []Sample
	Smoothed []Sample
}

// Estimate models the power each record needed. Records must carry
// seconds, distance and speed, which activity.Enrich provides.
func Estimate(recs []activity.Record, r dynamo.Rider, opts EstimateOptions) (*Estimation, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no records", dynamo.ErrInvalidInput)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	for i, rec := range recs {
		if math.IsNaN(rec.Seconds) || math.IsNaN(rec.Speed) {
			return nil, &dynamo.InputError{Field: "record", Value: float64(i), Reason: "missing seconds or speed, enrich first"}
		}
	}

	env := dynamo.Environment{WindSpeed: opts.WindSpeed, WindDirection: opts.WindDirection}
	wind := env.EffectiveWind()
	cda := r.CdA()

	est := &Estimation{Samples: make([]Sample, len(recs))}
	for i, rec := range recs {
		rho := rec.AirDensity
		if math.IsNaN(rho) {
			rho = opts.AirDensity
		}
		slope := rec.Slope
		if math.IsNaN(slope) {
			slope = 0
		}
		v := rec.Speed

		s := Sample{
			Seconds:       rec.Seconds,
			Speed:         v,
			Slope:         slope,
			Power:         rec.Power,
			AirDragWatts:  physics.DragForce(cda, rho, v, wind) * v,
			ClimbingWatts: physics.GravityForce(r.Mass, slope) * v,
			RollingWatts:  physics.RollingForce(r.RollingResistance, r.Mass, slope) * v,
		}
		if i > 0 {
			dt := rec.Seconds - recs[i-1].Seconds
			if dt > 0 {
				s.AccelerationWatts = r.Mass * (v - recs[i-1].Speed) / dt * v
			}
		}

		s.EstPowerNoLoss = s.AirDragWatts + s.ClimbingWatts + s.RollingWatts + s.AccelerationWatts
		s.EstPower = s.EstPowerNoLoss / r.Efficiency
		s.LossWatts = s.EstPower - s.EstPowerNoLoss
		s.EstPowerNoAccel = (s.EstPowerNoLoss - s.AccelerationWatts) / r.Efficiency
		s.PowerError = s.EstPower - s.Power
		est.Samples[i] = s
	}

	if opts.Smoothing > 0 {
		est.Smoothed = smoothSamples(est.Samples, opts.Smoothing)
	}
	return est, nil
}

func smoothSamples(samples []Sample, window int) []Sample {
	fields := []func(*Sample) *float64{
		func(s *Sample) *float64 { return &s.Speed },
		func(s *Sample) *float64 { return &s.Slope },
		func(s *Sample) *float64 { return &s.Power },
		func(s *Sample) *float64 { return &s.AirDragWatts },
		func(s *Sample) *float64 { return &s.ClimbingWatts },
		func(s *Sample) *float64 { return &s.RollingWatts },
		func(s *Sample) *float64 { return &s.AccelerationWatts },
		func(s *Sample) *float64 { return &s.EstPowerNoLoss },
		func(s *Sample) *float64 { return &s.EstPower },
		func(s *Sample) *float64 { return &s.LossWatts },
		func(s *Sample) *float64 { return &s.EstPowerNoAccel },
	}

	out := make([]Sample, len(samples))
	copy(out, samples)

	col := make([]float64, len(samples))
	for _, field := range fields {
		for i := range samples {
			col[i] = *field(&samples[i])
		}
		sm := activity.CenteredMean(col, window)
		for i := range out {
			*field(&out[i]) = sm[i]
		}
	}
	for i := range out {
		out[i].PowerError = out[i].EstPower - out[i].Power
	}
	return out
}

// RMSError is the root mean square of PowerError over all samples.
func (e *Estimation) RMSError() float64 {
	return rms(e.Samples, func(s Sample) float64 { return s.PowerError })
}

// RMSErrorNoAccel scores the model with acceleration power removed from
// both sides, which tolerates speed sensor noise.
func (e *Estimation) RMSErrorNoAccel() float64 {
	return rms(e.Samples, func(s Sample) float64 { return s.EstPowerNoAccel - s.Power })
}

// Totals returns mean watts per component.
func (e *Estimation) Totals() Sample {
	var t Sample
	n := float64(len(e.Samples))
	if n == 0 {
		return t
	}
	for _, s := range e.Samples {
		t.AirDragWatts += s.AirDragWatts / n
		t.ClimbingWatts += s.ClimbingWatts / n
		t.RollingWatts += s.RollingWatts / n
		t.AccelerationWatts += s.AccelerationWatts / n
		t.EstPower += s.EstPower / n
		t.LossWatts += s.LossWatts / n
		t.Power += s.Power / n
		t.Speed += s.Speed / n
	}
	t.PowerError = t.EstPower - t.Power
	return t
}

func rms(samples []Sample, f func(Sample) float64) float64 {
	sum, n := 0.0, 0
	for _, s := range samples {
		v := f(s)
		if math.IsNaN(v) {
			continue
		}
		sum += v * v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n))
}

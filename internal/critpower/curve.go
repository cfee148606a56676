// Package critpower builds critical power curves, user power profiles
// and ramp test workouts derived from them.
package critpower

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

// DefaultMaxWindow is the longest duration evaluated, in seconds.
const DefaultMaxWindow = 1200

// Point is the best effort for one duration. Samples are assumed to be
// one second apart.
type Point struct {
	Seconds int     `json:"seconds"`
	Index   int     `json:"idx"` // last sample of the best window
	CP      float64 `json:"cp"`
	Std     float64 `json:"std"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	// Slope is the mean of the second half of the window minus the first;
	// negative means the effort faded.
	Slope float64 `json:"slope"`
	HR    float64 `json:"hr"`
	HRStd float64 `json:"hr_std"`
	HRMax float64 `json:"hr_max"`
	HRMin float64 `json:"hr_min"`
}

type Curve struct {
	Points []Point `json:"points"`
}

// Calculate finds the highest mean power window for every duration from
// 1 to maxWindow seconds. Durations longer than the ride are skipped.
func Calculate(recs []activity.Record, maxWindow int, log *slog.Logger) (*Curve, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no records", dynamo.ErrInvalidInput)
	}
	if maxWindow <= 0 {
		maxWindow = DefaultMaxWindow
	}

	powers := activity.Powers(recs)
	hr := activity.Column(recs, func(r activity.Record) float64 { return r.HeartRate })
	prefix := prefixSums(powers)

	n := min(maxWindow, len(powers))
	log.Info("calculating critical power", "max_window", maxWindow, "records", len(powers))

	points := make([]Point, n)
	dynamo.ParallelFor(n, 16, func(start, end int) {
		for i := start; i < end; i++ {
			points[i] = bestWindow(powers, hr, prefix, i+1)
		}
	})

	return &Curve{Points: points}, nil
}

func prefixSums(xs []float64) []float64 {
	p := make([]float64, len(xs)+1)
	for i, x := range xs {
		p[i+1] = p[i] + x
	}
	return p
}

func bestWindow(powers, hr, prefix []float64, s int) Point {
	best, idx := math.Inf(-1), s-1
	for end := s; end <= len(powers); end++ {
		if m := (prefix[end] - prefix[end-s]) / float64(s); m > best {
			best, idx = m, end-1
		}
	}

	window := powers[idx-s+1 : idx+1]
	hrWindow := hr[idx-s+1 : idx+1]

	p := Point{Seconds: s, Index: idx, CP: best}
	p.Std, p.Max, p.Min = stats(window)
	half := s / 2
	p.Slope = mean(window[half:]) - mean(window[:half+1])
	p.HR = mean(hrWindow)
	p.HRStd, p.HRMax, p.HRMin = stats(hrWindow)
	return p
}

// At returns the curve point for a duration.
func (c *Curve) At(seconds int) (Point, bool) {
	if seconds < 1 || seconds > len(c.Points) {
		return Point{}, false
	}
	return c.Points[seconds-1], true
}

// Power implements PowerSource.
func (c *Curve) Power(seconds int) (float64, bool) {
	p, ok := c.At(seconds)
	return p.CP, ok
}

func (c *Curve) MaxSeconds() int { return len(c.Points) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// stats returns the sample standard deviation, max and min. A single
// sample has zero deviation.
func stats(xs []float64) (std, hi, lo float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	m := mean(xs)
	hi, lo = xs[0], xs[0]
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
		hi = math.Max(hi, x)
		lo = math.Min(lo, x)
	}
	if len(xs) > 1 {
		std = math.Sqrt(ss / float64(len(xs)-1))
	}
	return std, hi, lo
}

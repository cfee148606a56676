package critpower

import (
	"fmt"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Intensity rates each sample of a ride against a critical power curve.
// For every duration d up to length, the trailing mean power over d
// samples (shorter at the start of the ride) is divided by CP(d); a
// sample's PercentCP is the sum of those ratios divided by length.
type Intensity struct {
	Mean      float64   `json:"mean_percent_cp"`
	PercentCP []float64 `json:"percent_cp"`
}

func CalculateIntensity(powers []float64, cp PowerSource, length int) (*Intensity, error) {
	if len(powers) == 0 {
		return nil, fmt.Errorf("%w: no power samples", dynamo.ErrInvalidInput)
	}
	if length <= 0 {
		length = DefaultMaxWindow
	}
	durations := min(length, len(powers))
	if cp.MaxSeconds() < durations {
		return nil, fmt.Errorf("%w: power curve covers %d s, need %d s", dynamo.ErrInvalidInput, cp.MaxSeconds(), durations)
	}

	ref := make([]float64, durations)
	for d := 1; d <= durations; d++ {
		w, _ := cp.Power(d)
		if w <= 0 {
			return nil, &dynamo.InputError{Field: "cp", Value: w, Reason: fmt.Sprintf("non-positive at %d s", d)}
		}
		ref[d-1] = w
	}

	prefix := prefixSums(powers)
	out := &Intensity{PercentCP: make([]float64, len(powers))}

	dynamo.ParallelFor(len(powers), 256, func(start, end int) {
		for i := start; i < end; i++ {
			total := 0.0
			for d := 1; d <= durations; d++ {
				lo := max(0, i+1-d)
				avg := (prefix[i+1] - prefix[lo]) / float64(i+1-lo)
				total += avg / ref[d-1]
			}
			out.PercentCP[i] = total / float64(length)
		}
	})

	sum := 0.0
	for _, v := range out.PercentCP {
		sum += v
	}
	out.Mean = sum / float64(len(out.PercentCP))
	return out, nil
}

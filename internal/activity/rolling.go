package activity

import "math"

// RollingMean is the trailing mean over window samples. The first
// window-1 entries are NaN, as is any window containing a NaN.
func RollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window < 1 {
		window = 1
	}

	sum := 0.0
	bad := 0
	for i, x := range xs {
		if math.IsNaN(x) {
			bad++
		} else {
			sum += x
		}
		if i >= window {
			old := xs[i-window]
			if math.IsNaN(old) {
				bad--
			} else {
				sum -= old
			}
		}
		if i < window-1 || bad > 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// CenteredMean averages each sample with its neighbours over window
// samples centred on it. Windows are truncated at the ends and NaN inputs
// are skipped; an all-NaN window yields NaN.
func CenteredMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window < 1 {
		window = 1
	}
	left := (window - 1) / 2
	right := window - 1 - left

	for i := range xs {
		lo, hi := i-left, i+right
		if lo < 0 {
			lo = 0
		}
		if hi > len(xs)-1 {
			hi = len(xs) - 1
		}
		sum, n := 0.0, 0
		for _, x := range xs[lo : hi+1] {
			if !math.IsNaN(x) {
				sum += x
				n++
			}
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Mean skips NaN entries.
func Mean(xs []float64) float64 {
	sum, n := 0.0, 0
	for _, x := range xs {
		if !math.IsNaN(x) {
			sum += x
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

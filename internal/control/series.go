package control

import (
	"sort"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Series replays recorded power. Between samples the most recent sample
// holds; after the last one the power drops to zero.
type Series struct {
	times []float64
	watts []float64
}

// NewSeries expects times in seconds, ascending, paired with watts.
func NewSeries(times, watts []float64) *Series {
	n := len(times)
	if len(watts) < n {
		n = len(watts)
	}
	return &Series{times: times[:n], watts: watts[:n]}
}

func (s *Series) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(s.times) == 0 || t < s.times[0] {
		return dynamo.Control{0}
	}
	i := sort.SearchFloat64s(s.times, t)
	if i == len(s.times) {
		if t > s.times[len(s.times)-1] {
			return dynamo.Control{0}
		}
		i--
	}
	if s.times[i] > t {
		i--
	}
	return dynamo.Control{s.watts[i]}
}

// Duration is the time of the last sample.
func (s *Series) Duration() float64 {
	if len(s.times) == 0 {
		return 0
	}
	return s.times[len(s.times)-1]
}

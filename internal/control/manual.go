package control

import (
	"sync"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Manual holds a power the user adjusts while the simulation runs. The
// live view writes from its update loop, so access is guarded.
type Manual struct {
	mu    sync.Mutex
	watts float64
	max   float64
}

func NewManual(watts, max float64) *Manual {
	return &Manual{watts: watts, max: max}
}

// Adjust changes the power by delta watts, clamped to [0, max].
func (m *Manual) Adjust(delta float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watts = clamp(m.watts+delta, 0, m.max)
	return m.watts
}

func (m *Manual) Watts() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watts
}

func (m *Manual) Compute(state dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{m.Watts()}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if hi > 0 && x > hi {
		return hi
	}
	return x
}

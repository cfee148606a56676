package metrics

import (
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// AverageSpeed is distance covered (state[0]) over elapsed time, m/s.
type AverageSpeed struct {
	name    string
	started bool
	d0, t0  float64
	d, t    float64
}

func NewAverageSpeed() *AverageSpeed {
	return &AverageSpeed{name: "avg_speed"}
}

func (a *AverageSpeed) Name() string { return a.name }

func (a *AverageSpeed) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 1 {
		return
	}
	if !a.started {
		a.started = true
		a.d0, a.t0 = x[0], t
	}
	a.d, a.t = x[0], t
}

func (a *AverageSpeed) Value() float64 {
	if a.t <= a.t0 {
		return 0
	}
	return (a.d - a.d0) / (a.t - a.t0)
}

func (a *AverageSpeed) Reset() {
	*a = AverageSpeed{name: a.name}
}

type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 2 {
		return
	}
	m.max = math.Max(m.max, x[1])
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

// Standard returns the metric set attached to every ride simulation.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewAveragePower(),
		NewWork(),
		NewNormalizedPower(),
		NewAverageSpeed(),
		NewMaxSpeed(),
	}
}

package metrics

import (
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// AveragePower is the time-weighted mean of control[0] in watts.
type AveragePower struct {
	name  string
	clock clock
	sum   float64
}

func NewAveragePower() *AveragePower {
	return &AveragePower{name: "avg_power"}
}

func (a *AveragePower) Name() string { return a.name }

func (a *AveragePower) Observe(x dynamo.State, u dynamo.Control, t float64) {
	dt, held := a.clock.tick(t, watts(u))
	a.sum += held * dt
}

func (a *AveragePower) Value() float64 {
	if a.clock.elapsed() == 0 {
		return 0
	}
	return a.sum / a.clock.elapsed()
}

func (a *AveragePower) Reset() {
	a.clock = clock{}
	a.sum = 0
}

// Work integrates power over time, reported in kilojoules.
type Work struct {
	name   string
	clock  clock
	joules float64
}

func NewWork() *Work {
	return &Work{name: "work_kj"}
}

func (w *Work) Name() string { return w.name }

func (w *Work) Observe(x dynamo.State, u dynamo.Control, t float64) {
	dt, held := w.clock.tick(t, watts(u))
	w.joules += held * dt
}

func (w *Work) Value() float64 { return w.joules / 1000 }

func (w *Work) Reset() {
	w.clock = clock{}
	w.joules = 0
}

// NormalizedPower is the fourth root of the mean fourth power of the
// 30 s rolling average. Runs shorter than the window report average power.
type NormalizedPower struct {
	name   string
	window float64
	clock  clock
	times  []float64
	powers []float64
	sum    float64
	fourth float64
	n      int
	avg    AveragePower
}

func NewNormalizedPower() *NormalizedPower {
	return &NormalizedPower{name: "normalized_power", window: 30}
}

func (p *NormalizedPower) Name() string { return p.name }

func (p *NormalizedPower) Observe(x dynamo.State, u dynamo.Control, t float64) {
	w := watts(u)
	p.avg.Observe(x, u, t)
	p.clock.tick(t, w)

	p.times = append(p.times, t)
	p.powers = append(p.powers, w)
	p.sum += w

	for len(p.times) > 1 && t-p.times[0] >= p.window {
		p.sum -= p.powers[0]
		p.times = p.times[1:]
		p.powers = p.powers[1:]
	}

	if p.clock.elapsed() >= p.window {
		mean := p.sum / float64(len(p.powers))
		p.fourth += math.Pow(mean, 4)
		p.n++
	}
}

func (p *NormalizedPower) Value() float64 {
	if p.n == 0 {
		return p.avg.Value()
	}
	return math.Pow(p.fourth/float64(p.n), 0.25)
}

func (p *NormalizedPower) Reset() {
	p.clock = clock{}
	p.times = p.times[:0]
	p.powers = p.powers[:0]
	p.sum = 0
	p.fourth = 0
	p.n = 0
	p.avg.Reset()
}

func watts(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

// clock turns observation timestamps into step widths. The simulator
// observes before stepping, so the power seen at one sample holds until the
// next: tick returns the width of the interval just closed and the power
// held across it.
type clock struct {
	started bool
	start   float64
	last    float64
	held    float64
}

func (c *clock) tick(t, w float64) (dt, held float64) {
	if !c.started {
		c.started = true
		c.start = t
		c.last = t
		c.held = w
		return 0, 0
	}
	dt, held = t-c.last, c.held
	c.last = t
	c.held = w
	if dt < 0 {
		return 0, held
	}
	return dt, held
}

func (c *clock) elapsed() float64 {
	return c.last - c.start
}

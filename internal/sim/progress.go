package sim

import (
	"log/slog"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Progress logs the ride state at debug level every interval simulated
// seconds.
type Progress struct {
	log      *slog.Logger
	interval float64
	next     float64
}

func NewProgress(log *slog.Logger, interval float64) *Progress {
	if log == nil {
		log = slog.Default()
	}
	return &Progress{log: log, interval: interval}
}

func (p *Progress) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if t == 0 {
		p.next = 0
	}
	if t+1e-9 < p.next || len(x) < 2 {
		return
	}
	p.next += p.interval
	watts := 0.0
	if len(u) > 0 {
		watts = u[0]
	}
	p.log.Debug("ride progress", "t", t, "distance_m", x[0], "speed_kmh", x[1]*3.6, "watts", watts)
}

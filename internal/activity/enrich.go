package activity

import (
	"log/slog"
	"math"
	"sort"

	"github.com/san-kum/cycledyn/internal/physics"
)

type EnrichOptions struct {
	// Temperature in °C used for air density when a record has none.
	Temperature float64
	// SlopeWindow is the centred smoothing width for SlopeSmooth.
	SlopeWindow int
	Logger      *slog.Logger
}

func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{
		Temperature: physics.DefaultTemperature,
		SlopeWindow: 3,
	}
}

// Enrich sorts records by time and fills derived channels in place:
// zero-based seconds, speed from distance where the device gave none,
// slope and its smoothed form, VAM and air density.
func Enrich(recs []Record, opts EnrichOptions) []Record {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.SlopeWindow < 1 {
		opts.SlopeWindow = 3
	}
	if len(recs) == 0 {
		return recs
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Timestamp.IsZero() || recs[j].Timestamp.IsZero() {
			return recs[i].Seconds < recs[j].Seconds
		}
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})

	zeroSeconds(recs, log)
	fillDistance(recs, log)
	fillSpeed(recs, log)
	fillSlope(recs, opts.SlopeWindow)
	fillVAM(recs)
	fillAirDensity(recs, opts.Temperature, log)

	log.Info("activity enriched", "records", len(recs), "duration_s", recs[len(recs)-1].Seconds)
	return recs
}

func zeroSeconds(recs []Record, log *slog.Logger) {
	if !recs[0].Timestamp.IsZero() {
		start := recs[0].Timestamp
		for i := range recs {
			recs[i].Seconds = recs[i].Timestamp.Sub(start).Seconds()
		}
		return
	}

	log.Debug("no timestamps, rebasing seconds column")
	base := recs[0].Seconds
	if math.IsNaN(base) {
		base = 0
	}
	for i := range recs {
		if math.IsNaN(recs[i].Seconds) {
			recs[i].Seconds = float64(i)
		}
		recs[i].Seconds -= base
	}
}

// fillDistance integrates speed when the log has no distance channel.
func fillDistance(recs []Record, log *slog.Logger) {
	for _, r := range recs {
		if !math.IsNaN(r.Distance) {
			return
		}
	}
	log.Info("using distance integrated from speed")

	d := 0.0
	for i := range recs {
		if i > 0 && !math.IsNaN(recs[i].Speed) {
			d += recs[i].Speed * (recs[i].Seconds - recs[i-1].Seconds)
		}
		recs[i].Distance = d
	}
}

func fillSpeed(recs []Record, log *slog.Logger) {
	missing := 0
	for _, r := range recs {
		if math.IsNaN(r.Speed) {
			missing++
		}
	}
	if missing == 0 {
		return
	}
	log.Info("using speed calculated from distance", "missing", missing)

	for i := range recs {
		if !math.IsNaN(recs[i].Speed) {
			continue
		}
		if i == 0 {
			recs[i].Speed = 0
			continue
		}
		dt := recs[i].Seconds - recs[i-1].Seconds
		dd := recs[i].Distance - recs[i-1].Distance
		if dt <= 0 || math.IsNaN(dd) {
			recs[i].Speed = recs[i-1].Speed
			continue
		}
		recs[i].Speed = dd / dt
	}
}

// fillSlope sets the slope between consecutive samples. A sample with no
// forward movement keeps the previous slope.
func fillSlope(recs []Record, window int) {
	recs[0].Slope = 0
	for i := 1; i < len(recs); i++ {
		dd := recs[i].Distance - recs[i-1].Distance
		if dd <= 0 || math.IsNaN(dd) {
			recs[i].Slope = recs[i-1].Slope
			continue
		}
		recs[i].Slope = (recs[i].Altitude - recs[i-1].Altitude) / dd
	}

	smooth := CenteredMean(Column(recs, func(r Record) float64 { return r.Slope }), window)
	for i := range recs {
		recs[i].SlopeSmooth = smooth[i]
	}
}

func fillVAM(recs []Record) {
	recs[0].VAM = 0
	for i := 1; i < len(recs); i++ {
		dt := recs[i].Seconds - recs[i-1].Seconds
		if dt <= 0 {
			recs[i].VAM = recs[i-1].VAM
			continue
		}
		recs[i].VAM = (recs[i].Altitude - recs[i-1].Altitude) / dt * 3600
	}
}

func fillAirDensity(recs []Record, temperature float64, log *slog.Logger) {
	defaulted := 0
	for i := range recs {
		t := recs[i].Temperature
		if math.IsNaN(t) {
			t = temperature
			defaulted++
		}
		recs[i].AirDensity = physics.AirDensity(t, recs[i].Altitude)
	}
	if defaulted > 0 {
		log.Info("using default temperature for air density", "temperature_c", temperature, "records", defaulted)
	}
}

// Package segments aligns several rides over the same stretch of road.
package segments

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/course"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

// Track is one ride trimmed to the segment. Distance and Seconds restart
// at zero on the first record.
type Track struct {
	Ride    int
	Records []activity.Record
}

type anchor struct {
	lat, lon, distance float64
}

// Match trims tracks[0], the control, to [startDistance,
// startDistance+length] by its distance channel, choosing the closest
// samples. Every other track is trimmed between its samples nearest to
// the control's start and end positions; the end is searched at or after
// the matched start.
func Match(tracks [][]activity.Record, startDistance, length float64, log *slog.Logger) ([]Track, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks", dynamo.ErrInvalidInput)
	}
	if length <= 0 {
		return nil, &dynamo.InputError{Field: "length", Value: length, Reason: "must be positive"}
	}
	for i, t := range tracks {
		if err := checkTrack(t); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
	}

	control := tracks[0]
	startIdx := nearestDistance(control, startDistance)
	endIdx := nearestDistance(control, startDistance+length)
	if endIdx <= startIdx {
		return nil, fmt.Errorf("%w: segment starting at %.0f m is beyond the control track", dynamo.ErrInvalidInput, startDistance)
	}

	start := anchorAt(control[startIdx])
	end := anchorAt(control[endIdx])
	log.Info("segment control points",
		"start_idx", startIdx, "end_idx", endIdx,
		"start_lat", start.lat, "start_lon", start.lon,
		"end_lat", end.lat, "end_lon", end.lon)

	out := make([]Track, len(tracks))
	out[0] = Track{Ride: 0, Records: rebase(control[startIdx : endIdx+1])}

	errs := make([]error, len(tracks))
	dynamo.ParallelFor(len(tracks)-1, 1, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			i := k + 1
			t := tracks[i]
			s := nearestPosition(t, start, 0)
			e := nearestPosition(t, end, s)
			if e <= s {
				errs[i] = fmt.Errorf("track %d: %w: segment end not found after start", i, dynamo.ErrNoSolution)
				continue
			}
			out[i] = Track{Ride: i, Records: rebase(t[s : e+1])}
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for _, t := range out {
		last := t.Records[len(t.Records)-1]
		log.Debug("matched track", "ride", t.Ride, "records", len(t.Records), "distance", last.Distance, "seconds", last.Seconds)
	}
	return out, nil
}

func checkTrack(recs []activity.Record) error {
	if len(recs) < 2 {
		return fmt.Errorf("%w: fewer than two records", dynamo.ErrInvalidInput)
	}
	for _, r := range recs {
		if !r.HasPosition() || math.IsNaN(r.Distance) {
			return fmt.Errorf("%w: records need position and distance", dynamo.ErrInvalidInput)
		}
	}
	return nil
}

func anchorAt(r activity.Record) anchor {
	return anchor{lat: r.Lat, lon: r.Lon, distance: r.Distance}
}

func nearestDistance(recs []activity.Record, d float64) int {
	best, idx := math.Inf(1), 0
	for i, r := range recs {
		if diff := math.Abs(r.Distance - d); diff < best {
			best, idx = diff, i
		}
	}
	return idx
}

func nearestPosition(recs []activity.Record, a anchor, from int) int {
	best, idx := math.Inf(1), from
	for i := from; i < len(recs); i++ {
		if d := course.Haversine(a.lat, a.lon, recs[i].Lat, recs[i].Lon); d < best {
			best, idx = d, i
		}
	}
	return idx
}

// rebase copies recs with distance and time restarted at the first record.
func rebase(recs []activity.Record) []activity.Record {
	out := make([]activity.Record, len(recs))
	copy(out, recs)

	d0 := out[0].Distance
	t0 := out[0].Timestamp
	s0 := out[0].Seconds
	for i := range out {
		out[i].Distance -= d0
		if !t0.IsZero() {
			out[i].Seconds = out[i].Timestamp.Sub(t0).Seconds()
		} else {
			out[i].Seconds -= s0
		}
	}
	return out
}

// Result summarises one track over the segment.
type Result struct {
	Ride     int     `json:"ride"`
	Seconds  float64 `json:"seconds"`
	Distance float64 `json:"distance"`
	AvgPower float64 `json:"avg_power"`
	AvgSpeed float64 `json:"avg_speed"`
}

func Compare(tracks []Track) []Result {
	res := make([]Result, len(tracks))
	for i, t := range tracks {
		last := t.Records[len(t.Records)-1]
		r := Result{
			Ride:     t.Ride,
			Seconds:  last.Seconds,
			Distance: last.Distance,
			AvgPower: activity.Mean(activity.Powers(t.Records)),
		}
		if last.Seconds > 0 {
			r.AvgSpeed = last.Distance / last.Seconds
		}
		res[i] = r
	}
	return res
}

package critpower

import (
	"fmt"
	"math"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// rampOpening is how many leading seconds keep one-second bins.
const rampOpening = 30

// RampSecond is one second of the profile turned into a ramp.
type RampSecond struct {
	Seconds     int     `json:"seconds"`
	Power       float64 `json:"power"`
	RampPower   float64 `json:"ramp_power"`
	Bin         int     `json:"bin"`
	BinPower    float64 `json:"bin_power"`
	BinTime     int     `json:"bin_time"`
	RunningMean float64 `json:"running_mean"`
}

// Segment is one steady block of the workout.
type Segment struct {
	Segment  int     `json:"segment"`
	Duration int     `json:"duration"`
	Power    float64 `json:"power"`
	PowerFTP float64 `json:"power_ftp"`
}

type RampTest struct {
	Seconds  []RampSecond `json:"seconds"`
	Segments []Segment    `json:"segments"`
	FTP      float64      `json:"ftp"`
}

// Ramp converts a power profile into a workout whose final s seconds
// average the profile's power for s, for every s up to testLength. The
// first 30 s of the profile keep one-second bins; later seconds are grouped
// into segmentTime bins. Segments are returned in riding order, longest
// duration first, ending with the one-second sprint.
func Ramp(p PowerSource, segmentTime, testLength int, ftp float64) (*RampTest, error) {
	if segmentTime <= 0 {
		return nil, &dynamo.InputError{Field: "segment_time", Value: float64(segmentTime), Reason: "must be positive"}
	}
	if testLength <= 0 {
		return nil, &dynamo.InputError{Field: "test_length", Value: float64(testLength), Reason: "must be positive"}
	}
	if ftp <= 0 {
		ftp = 1
	}
	if p.MaxSeconds() < testLength {
		return nil, fmt.Errorf("%w: profile ends at %d s, test needs %d s", dynamo.ErrInvalidInput, p.MaxSeconds(), testLength)
	}

	secs := make([]RampSecond, testLength)
	done := 0.0
	for i := range secs {
		s := i + 1
		w, _ := p.Power(s)
		ramp := w
		if i > 0 {
			ramp = w*float64(s) - math.Max(done, 0)
		}
		done += ramp

		bin := i
		if i > rampOpening {
			bin = i/segmentTime + rampOpening
		}
		secs[i] = RampSecond{Seconds: s, Power: w, RampPower: ramp, Bin: bin}
	}

	type acc struct {
		sum   float64
		count int
	}
	bins := make(map[int]*acc)
	var order []int
	for _, r := range secs {
		a, ok := bins[r.Bin]
		if !ok {
			a = &acc{}
			bins[r.Bin] = a
			order = append(order, r.Bin)
		}
		a.sum += r.RampPower
		a.count++
	}

	running := 0.0
	for i := range secs {
		a := bins[secs[i].Bin]
		secs[i].BinPower = math.Round(a.sum / float64(a.count))
		secs[i].BinTime = a.count
		running += secs[i].BinPower
		secs[i].RunningMean = running / float64(i+1)
	}

	segs := make([]Segment, 0, len(order))
	for k := len(order) - 1; k >= 0; k-- {
		a := bins[order[k]]
		w := math.Round(a.sum / float64(a.count))
		segs = append(segs, Segment{
			Segment:  len(segs) + 1,
			Duration: a.count,
			Power:    w,
			PowerFTP: w / ftp,
		})
	}

	return &RampTest{Seconds: secs, Segments: segs, FTP: ftp}, nil
}

// Duration is the total workout length in seconds.
func (r *RampTest) Duration() int {
	total := 0
	for _, s := range r.Segments {
		total += s.Duration
	}
	return total
}

package critpower

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

const userProfile = "1:1000, 5:800, 30:500, 60:450, 300:400, 1200:350"

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ride(powers []float64) []activity.Record {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]activity.Record, len(powers))
	for i, p := range powers {
		r := activity.NewRecord(start.Add(time.Duration(i) * time.Second))
		r.Seconds = float64(i)
		r.Power = p
		r.HeartRate = 120 + float64(i%10)
		recs[i] = r
	}
	return recs
}

func blockRide() []float64 {
	powers := make([]float64, 200)
	for i := range powers {
		powers[i] = 100
	}
	for i := 50; i < 55; i++ {
		powers[i] = 500
	}
	return powers
}

func TestCalculateCurve(t *testing.T) {
	curve, err := Calculate(ride(blockRide()), 1200, quietLog())
	require.NoError(t, err)
	assert.Equal(t, 200, curve.MaxSeconds())

	p1, ok := curve.At(1)
	require.True(t, ok)
	assert.Equal(t, 500.0, p1.CP)
	assert.Equal(t, 50, p1.Index)
	assert.Equal(t, 0.0, p1.Std)

	p5, _ := curve.At(5)
	assert.Equal(t, 500.0, p5.CP)
	assert.Equal(t, 54, p5.Index)
	assert.Equal(t, 500.0, p5.Min)

	p10, _ := curve.At(10)
	assert.InDelta(t, 300, p10.CP, 1e-9)
	assert.Equal(t, 500.0, p10.Max)
	assert.Equal(t, 100.0, p10.Min)
	assert.InDelta(t, 500-1000.0/6, p10.Slope, 1e-9)
	assert.InDelta(t, 124.5, p10.HR, 1e-9)

	pAll, _ := curve.At(200)
	assert.InDelta(t, 110, pAll.CP, 1e-9)

	_, ok = curve.At(201)
	assert.False(t, ok)
}

func TestCurveIsNonIncreasing(t *testing.T) {
	powers := make([]float64, 600)
	for i := range powers {
		powers[i] = 150 + float64((i*37)%200)
	}
	curve, err := Calculate(ride(powers), 300, quietLog())
	require.NoError(t, err)
	require.Equal(t, 300, curve.MaxSeconds())

	for s := 2; s <= curve.MaxSeconds(); s++ {
		prev, _ := curve.Power(s - 1)
		cur, _ := curve.Power(s)
		assert.LessOrEqualf(t, cur, prev+1e-9, "duration %d", s)
	}
}

func TestCalculateEmpty(t *testing.T) {
	_, err := Calculate(nil, 10, quietLog())
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)
}

func TestProfileInterpolation(t *testing.T) {
	p, err := ParseProfile(userProfile)
	require.NoError(t, err)

	assert.Equal(t, 1200, p.MaxSeconds())
	for s, want := range map[int]float64{1: 1000, 5: 800, 30: 500, 60: 450, 300: 400, 1200: 350} {
		got, ok := p.Power(s)
		require.True(t, ok)
		assert.Equal(t, want, got, "seconds %d", s)
	}
	mid, _ := p.Power(3)
	assert.InDelta(t, 900, mid, 1e-9)

	_, ok := p.Power(0)
	assert.False(t, ok)
}

func TestProfileMustStartAtOneSecond(t *testing.T) {
	_, err := NewProfile(map[int]float64{5: 800, 60: 400})
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)

	_, err = ParseProfile("1=1000")
	assert.Error(t, err)
}

func TestIntensity(t *testing.T) {
	flat, err := NewProfile(map[int]float64{1: 200, 1200: 200})
	require.NoError(t, err)

	powers := make([]float64, 100)
	for i := range powers {
		powers[i] = 200
	}

	in, err := CalculateIntensity(powers, flat, 50)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, in.Mean, 1e-12)
	assert.InDelta(t, 1.0, in.PercentCP[99], 1e-12)

	in, err = CalculateIntensity(powers, flat, 1200)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/1200, in.Mean, 1e-12)

	short, err := NewProfile(map[int]float64{1: 200, 10: 150})
	require.NoError(t, err)
	_, err = CalculateIntensity(powers, short, 50)
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)
}

func TestRampFromProfile(t *testing.T) {
	p, err := ParseProfile(userProfile)
	require.NoError(t, err)

	ramp, err := Ramp(p, 30, 1200, 1)
	require.NoError(t, err)
	require.Len(t, ramp.Seconds, 1200)

	maxP, minP := 0.0, 1e9
	for _, s := range ramp.Seconds {
		maxP = max(maxP, s.Power)
		minP = min(minP, s.Power)
	}
	assert.Equal(t, 1000.0, maxP)
	assert.Equal(t, 350.0, minP)

	// the ramp's first s seconds average the profile power at s
	for _, s := range []int{10, 60, 600, 1200} {
		sum := 0.0
		for _, r := range ramp.Seconds[:s] {
			sum += r.RampPower
		}
		want, _ := p.Power(s)
		assert.InDelta(t, want, sum/float64(s), 1e-6, "seconds %d", s)
	}

	assert.Len(t, ramp.Segments, 70)
	assert.Equal(t, 1200, ramp.Duration())

	last := ramp.Segments[len(ramp.Segments)-1]
	assert.Equal(t, 1, last.Duration)
	assert.Equal(t, 1000.0, last.Power)

	segMax := 0.0
	for _, s := range ramp.Segments {
		segMax = max(segMax, s.Power)
	}
	assert.Equal(t, 1000.0, segMax)
	assert.Equal(t, 30, ramp.Segments[0].Duration)
}

func TestRampNeedsLongEnoughProfile(t *testing.T) {
	p, err := NewProfile(map[int]float64{1: 600, 300: 300})
	require.NoError(t, err)
	_, err = Ramp(p, 30, 1200, 250)
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)

	_, err = Ramp(p, 0, 100, 250)
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)
}

func TestWriteZWO(t *testing.T) {
	p, err := ParseProfile(userProfile)
	require.NoError(t, err)
	ramp, err := Ramp(p, 30, 1200, 250)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ramp.WriteZWO(&buf, "test", "cycledyn"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<workout_file>")
	assert.Contains(t, out, "<ftpOverride>250</ftpOverride>")
	assert.Contains(t, out, `Duration="1" Power="4"`)
	assert.Equal(t, 70, strings.Count(out, "<SteadyState "))
}

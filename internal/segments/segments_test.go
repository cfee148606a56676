package segments

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cycledyn/internal/activity"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

// straightRide heads north from lat 45 at the given speed, one sample per
// second, after an offset of lead metres that shifts its distance channel.
func straightRide(n int, speed, lead, power float64) []activity.Record {
	const metresPerDegree = 111_132.0
	start := time.Date(2024, 2, 17, 18, 0, 0, 0, time.UTC)
	recs := make([]activity.Record, n)
	for i := range recs {
		d := float64(i) * speed
		r := activity.NewRecord(start.Add(time.Duration(i) * time.Second))
		r.Seconds = float64(i)
		r.Distance = d + lead
		r.Speed = speed
		r.Power = power
		r.Lat = 45 + d/metresPerDegree
		r.Lon = 7
		recs[i] = r
	}
	return recs
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMatchAlignsRides(t *testing.T) {
	control := straightRide(600, 10, 0, 200)
	faster := straightRide(500, 12, 1000, 260)

	tracks, err := Match([][]activity.Record{control, faster}, 1000, 3000, quiet())
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	c := tracks[0].Records
	assert.Equal(t, 0, tracks[0].Ride)
	assert.Equal(t, 0.0, c[0].Distance)
	assert.Equal(t, 0.0, c[0].Seconds)
	assert.InDelta(t, 3000, c[len(c)-1].Distance, 1e-9)
	assert.InDelta(t, 300, c[len(c)-1].Seconds, 1e-9)

	f := tracks[1].Records
	assert.Equal(t, 1, tracks[1].Ride)
	assert.Equal(t, 0.0, f[0].Distance)
	assert.InDelta(t, 3000, f[len(f)-1].Distance, 12)
	assert.InDelta(t, 250, f[len(f)-1].Seconds, 1)

	res := Compare(tracks)
	assert.InDelta(t, 10, res[0].AvgSpeed, 1e-9)
	assert.InDelta(t, 12, res[1].AvgSpeed, 0.1)
	assert.Equal(t, 260.0, res[1].AvgPower)
}

func TestMatchRejectsBadTracks(t *testing.T) {
	_, err := Match(nil, 0, 100, quiet())
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)

	noGPS := straightRide(10, 10, 0, 100)
	noGPS[3].Lat = math.NaN()
	_, err = Match([][]activity.Record{noGPS}, 0, 50, quiet())
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)

	_, err = Match([][]activity.Record{straightRide(10, 10, 0, 100)}, 500, 50, quiet())
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)

	_, err = Match([][]activity.Record{straightRide(10, 10, 0, 100)}, 0, -1, quiet())
	assert.ErrorIs(t, err, dynamo.ErrInvalidInput)
}

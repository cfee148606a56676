package activity

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cycledyn/internal/physics"
)

const sampleCSV = `timestamp,distance,altitude,power,heart_rate
2024-05-01T10:00:00Z,0,100,200,140
2024-05-01T10:00:01Z,10,100.5,210,141
2024-05-01T10:00:02Z,20,101,220,
2024-05-01T10:00:04Z,40,101,0,143
`

func quiet() EnrichOptions {
	opts := DefaultEnrichOptions()
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func TestReadCSV(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, 210.0, recs[1].Power)
	assert.Equal(t, 0.0, recs[2].HeartRate)
	assert.True(t, math.IsNaN(recs[0].Speed))
	assert.False(t, recs[0].HasPosition())
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("power,speed\n1,2\n"))
	assert.Error(t, err, "no time column")

	_, err = ReadCSV(strings.NewReader("seconds,power\n0,abc\n"))
	assert.Error(t, err, "bad number")

	_, err = ReadCSV(strings.NewReader("seconds,power\n"))
	assert.Error(t, err, "no rows")
}

func TestEnrich(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	recs = Enrich(recs, quiet())

	assert.Equal(t, []float64{0, 1, 2, 4}, Seconds(recs))
	assert.Equal(t, []float64{0, 10, 10, 10}, Speeds(recs))

	assert.Equal(t, 0.0, recs[0].Slope)
	assert.InDelta(t, 0.05, recs[1].Slope, 1e-12)
	assert.InDelta(t, 0.0, recs[3].Slope, 1e-12)
	assert.InDelta(t, (0+0.05+0.05)/3, recs[1].SlopeSmooth, 1e-12)
	assert.InDelta(t, 0.025, recs[0].SlopeSmooth, 1e-12)

	assert.InDelta(t, 1800, recs[1].VAM, 1e-9)
	assert.InDelta(t, 0, recs[3].VAM, 1e-9)

	assert.InDelta(t, physics.AirDensity(30, 100), recs[0].AirDensity, 1e-12)
}

func TestEnrichSecondsOnly(t *testing.T) {
	in := "seconds,speed,altitude\n5,8,0\n6,8,0\n7,8,0\n"
	recs, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	recs = Enrich(recs, quiet())
	assert.Equal(t, []float64{0, 1, 2}, Seconds(recs))
	assert.Equal(t, 16.0, recs[2].Distance, "distance from speed")
}

func TestEnrichUsesRecordedTemperature(t *testing.T) {
	r := NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r.Temperature = 5
	r.Distance = 0
	recs := Enrich([]Record{r}, quiet())
	assert.InDelta(t, physics.AirDensity(5, 0), recs[0].AirDensity, 1e-12)
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, []float64{2, 3, 4}, got[2:])

	got = RollingMean([]float64{1, math.NaN(), 3, 4, 5, 6}, 2)
	assert.True(t, math.IsNaN(got[2]))
	assert.Equal(t, 3.5, got[3])
}

func TestCenteredMean(t *testing.T) {
	got := CenteredMean([]float64{1, 2, 3, 4}, 3)
	assert.Equal(t, []float64{1.5, 2, 3, 3.5}, got)

	got = CenteredMean([]float64{math.NaN(), math.NaN()}, 3)
	assert.True(t, math.IsNaN(got[0]))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	recs = Enrich(recs, quiet())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, recs))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, back, len(recs))
	assert.Equal(t, recs[2].Distance, back[2].Distance)
	assert.True(t, back[0].Timestamp.Equal(recs[0].Timestamp))
}

func TestFITRoundTrip(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var recs []Record
	for i := 0; i < 5; i++ {
		r := NewRecord(start.Add(time.Duration(i) * time.Second))
		r.Distance = float64(i) * 9.5
		r.Speed = 9.5
		r.Altitude = 120.4 + float64(i)
		r.Power = 250
		r.HeartRate = 150
		r.Cadence = 90
		r.Temperature = 18
		r.Lat = 45.5
		r.Lon = -73.6
		recs = append(recs, r)
	}

	path := filepath.Join(t.TempDir(), "ride.fit")
	require.NoError(t, WriteFIT(path, recs, start))

	back, err := LoadFIT(path)
	require.NoError(t, err)
	require.Len(t, back, len(recs))

	for i, r := range back {
		assert.True(t, r.Timestamp.Equal(recs[i].Timestamp), "timestamp %d", i)
		assert.InDelta(t, recs[i].Distance, r.Distance, 0.01)
		assert.InDelta(t, 9.5, r.Speed, 0.001)
		assert.InDelta(t, recs[i].Altitude, r.Altitude, 0.2)
		assert.Equal(t, 250.0, r.Power)
		assert.Equal(t, 150.0, r.HeartRate)
		assert.Equal(t, 18.0, r.Temperature)
		assert.InDelta(t, 45.5, r.Lat, 1e-6)
		assert.InDelta(t, -73.6, r.Lon, 1e-6)
	}
}

func TestWriteFITClampsOutOfRange(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := NewRecord(start)
	r.Power = 70000
	r.Altitude = -650
	r.HeartRate = 300
	r.Cadence = 400
	r.Temperature = 200

	path := filepath.Join(t.TempDir(), "spike.fit")
	require.NoError(t, WriteFIT(path, []Record{r}, start))

	back, err := LoadFIT(path)
	require.NoError(t, err)
	require.Len(t, back, 1)

	assert.Equal(t, 65534.0, back[0].Power)
	assert.InDelta(t, -500, back[0].Altitude, 1e-9)
	assert.Equal(t, 254.0, back[0].HeartRate)
	assert.Equal(t, 254.0, back[0].Cadence)
	assert.Equal(t, 126.0, back[0].Temperature)
}

func TestWriteFITUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "ride.fit")
	err := WriteFIT(path, []Record{NewRecord(time.Now())}, time.Now())
	assert.Error(t, err)
}

func TestLoadFITMissing(t *testing.T) {
	_, err := LoadFIT(filepath.Join(t.TempDir(), "nope.fit"))
	assert.Error(t, err)
}

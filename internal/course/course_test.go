package course

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGPX(t *testing.T, n int, climbPerPoint float64) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<trk><name>climb</name><trkseg>
`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<trkpt lat="%.6f" lon="7.000000"><ele>%.2f</ele></trkpt>
`, 45+float64(i)*0.001, 100+float64(i)*climbPerPoint)
	}
	b.WriteString("</trkseg></trk></gpx>\n")

	path := filepath.Join(t.TempDir(), "route.gpx")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestHaversine(t *testing.T) {
	// San Francisco to Yosemite
	d := Haversine(37.774856, -122.424227, 37.864742, -119.537521)
	assert.InDelta(t, 254352, d, 1)
	assert.Equal(t, 0.0, Haversine(10, 10, 10, 10))
}

func TestLoadGPX(t *testing.T) {
	path := writeGPX(t, 30, 5.5)

	c, err := LoadGPX(path)
	require.NoError(t, err)
	require.Len(t, c.Points, 30)
	assert.Equal(t, "climb", c.Name)

	// 0.001° of latitude is about 111 m
	assert.InDelta(t, 29*111.1, c.Length(), 29*111.1*0.01)
	assert.InDelta(t, 0.0495, c.GradeAt(c.Length()/2), 0.003)
	assert.InDelta(t, 29*5.5, c.Ascent(), 1e-9)
	assert.InDelta(t, 100, c.ElevationAt(0), 1e-9)
	assert.InDelta(t, 100+29*5.5, c.ElevationAt(c.Length()+500), 1e-9)
}

func TestLoadGPXTooShort(t *testing.T) {
	_, err := LoadGPX(writeGPX(t, 1, 0))
	assert.Error(t, err)

	_, err = LoadGPX(filepath.Join(t.TempDir(), "missing.gpx"))
	assert.Error(t, err)
}

func TestFromPointsClampsGrade(t *testing.T) {
	pts := []Point{
		{Lat: 45, Lon: 7, Elevation: 0},
		{Lat: 45.001, Lon: 7, Elevation: 60},
		{Lat: 45.002, Lon: 7, Elevation: 120},
	}
	c, err := FromPoints("wall", pts)
	require.NoError(t, err)
	assert.Equal(t, 0.25, c.GradeAt(50))
	assert.Equal(t, 0.25, c.GradeAt(-10))
}

// Package course loads routes and answers grade queries by distance.
package course

import (
	"fmt"
	"math"
	"sort"

	"github.com/tkrajina/gpxgo/gpx"
)

type Point struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"`
	Distance  float64 `json:"distance"` // cumulative, m
	Grade     float64 `json:"grade"`    // rise/run, smoothed
}

// Course is a route with cumulative distance. It satisfies
// physics.GradeProfile.
type Course struct {
	Name   string
	Points []Point
}

const (
	gradeWindow      = 5    // points either side
	gradeMinDistance = 10.0 // m
	gradeLimit       = 0.25
)

// LoadGPX reads track points, falling back to route points when the file
// has no tracks.
func LoadGPX(path string) (*Course, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}
	return fromGPX(g)
}

func fromGPX(g *gpx.GPX) (*Course, error) {
	c := &Course{Name: g.Name}

	var prev *gpx.GPXPoint
	total := 0.0
	add := func(p *gpx.GPXPoint) {
		if prev != nil {
			total += prev.Distance3D(&p.Point)
		}
		c.Points = append(c.Points, Point{
			Lat:       p.Latitude,
			Lon:       p.Longitude,
			Elevation: p.Elevation.Value(),
			Distance:  total,
		})
		prev = p
	}

	for _, track := range g.Tracks {
		if c.Name == "" {
			c.Name = track.Name
		}
		for _, seg := range track.Segments {
			for i := range seg.Points {
				add(&seg.Points[i])
			}
		}
	}
	if len(c.Points) == 0 {
		for _, route := range g.Routes {
			for i := range route.Points {
				add(&route.Points[i])
			}
		}
	}

	if len(c.Points) < 2 {
		return nil, fmt.Errorf("gpx has fewer than two points")
	}

	c.smoothGrades()
	return c, nil
}

// FromPoints builds a course from lat/lon/elevation points, computing
// distances with Haversine.
func FromPoints(name string, pts []Point) (*Course, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("course needs at least two points")
	}
	c := &Course{Name: name, Points: make([]Point, len(pts))}
	copy(c.Points, pts)
	c.Points[0].Distance = 0
	for i := 1; i < len(c.Points); i++ {
		a, b := c.Points[i-1], c.Points[i]
		c.Points[i].Distance = a.Distance + Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	c.smoothGrades()
	return c, nil
}

// smoothGrades sets each point's grade from the elevation change across
// gradeWindow points on either side, clamped to ±25%.
func (c *Course) smoothGrades() {
	n := len(c.Points)
	for i := range c.Points {
		lo := max(0, i-gradeWindow)
		hi := min(n-1, i+gradeWindow)

		dd := c.Points[hi].Distance - c.Points[lo].Distance
		if dd <= gradeMinDistance {
			c.Points[i].Grade = 0
			continue
		}
		g := (c.Points[hi].Elevation - c.Points[lo].Elevation) / dd
		c.Points[i].Grade = math.Max(-gradeLimit, math.Min(gradeLimit, g))
	}
}

func (c *Course) Length() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	return c.Points[len(c.Points)-1].Distance
}

// GradeAt returns the grade of the segment containing distance. Beyond
// the ends the nearest end point's grade holds.
func (c *Course) GradeAt(distance float64) float64 {
	i := c.segment(distance)
	if i < 0 {
		return 0
	}
	return c.Points[i].Grade
}

// ElevationAt interpolates elevation linearly along the course.
func (c *Course) ElevationAt(distance float64) float64 {
	i := c.segment(distance)
	if i < 0 {
		return 0
	}
	if i == len(c.Points)-1 {
		return c.Points[i].Elevation
	}
	a, b := c.Points[i], c.Points[i+1]
	span := b.Distance - a.Distance
	if span <= 0 {
		return a.Elevation
	}
	r := math.Max(0, math.Min(1, (distance-a.Distance)/span))
	return a.Elevation + r*(b.Elevation-a.Elevation)
}

// Ascent sums positive elevation changes.
func (c *Course) Ascent() float64 {
	up := 0.0
	for i := 1; i < len(c.Points); i++ {
		if d := c.Points[i].Elevation - c.Points[i-1].Elevation; d > 0 {
			up += d
		}
	}
	return up
}

// segment returns the index of the last point at or before distance.
func (c *Course) segment(distance float64) int {
	if len(c.Points) == 0 {
		return -1
	}
	i := sort.Search(len(c.Points), func(i int) bool {
		return c.Points[i].Distance > distance
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

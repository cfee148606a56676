package critpower

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

// PowerSource gives the critical power for a duration in seconds.
type PowerSource interface {
	Power(seconds int) (float64, bool)
	MaxSeconds() int
}

// Profile is a user-defined power-duration curve at 1 s resolution.
type Profile struct {
	power []float64 // index 0 is 1 s
}

// NewProfile interpolates points linearly to every second between 1 s and
// the longest duration given. The points must include 1 s.
func NewProfile(points map[int]float64) (*Profile, error) {
	p1, ok := points[1]
	if !ok {
		return nil, &dynamo.InputError{Field: "profile", Value: 0, Reason: "must start with 1 second"}
	}
	if p1 < 0 {
		return nil, &dynamo.InputError{Field: "profile", Value: p1, Reason: "power at 1 second must be >= 0"}
	}

	secs := make([]int, 0, len(points))
	for s, w := range points {
		if s < 1 {
			return nil, &dynamo.InputError{Field: "profile", Value: float64(s), Reason: "durations start at 1 second"}
		}
		if w < 0 {
			return nil, &dynamo.InputError{Field: "profile", Value: w, Reason: "power must be >= 0"}
		}
		secs = append(secs, s)
	}
	sort.Ints(secs)

	last := secs[len(secs)-1]
	power := make([]float64, last)
	for i := 0; i < len(secs)-1; i++ {
		a, b := secs[i], secs[i+1]
		pa, pb := points[a], points[b]
		for s := a; s < b; s++ {
			power[s-1] = pa + (pb-pa)*float64(s-a)/float64(b-a)
		}
	}
	power[last-1] = points[last]

	return &Profile{power: power}, nil
}

// ParseProfile reads "seconds:watts" pairs separated by commas or
// whitespace, e.g. "1:1000, 5:800, 1200:350".
func ParseProfile(s string) (*Profile, error) {
	points := make(map[int]float64)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	for _, f := range fields {
		k, v, ok := strings.Cut(f, ":")
		if !ok {
			return nil, fmt.Errorf("profile entry %q: want seconds:watts", f)
		}
		sec, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("profile entry %q: %w", f, err)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("profile entry %q: %w", f, err)
		}
		points[sec] = w
	}
	return NewProfile(points)
}

func (p *Profile) Power(seconds int) (float64, bool) {
	if seconds < 1 || seconds > len(p.power) {
		return 0, false
	}
	return p.power[seconds-1], true
}

func (p *Profile) MaxSeconds() int { return len(p.power) }

// Package activity loads recorded rides and derives the per-sample
// channels the analysis needs.
//
// Missing optional channels (speed, temperature, position, slope) are
// NaN until [Enrich] fills what it can. Power, heart rate and cadence
// default to 0 and altitude to 0 m when a device did not record them.
package activity

import (
	"math"
	"time"
)

type Record struct {
	Timestamp   time.Time
	Seconds     float64 // since the first record
	Distance    float64 // m
	Speed       float64 // m/s
	Altitude    float64 // m
	Power       float64 // W
	HeartRate   float64 // bpm
	Cadence     float64 // rpm
	Temperature float64 // °C
	Lat         float64 // degrees
	Lon         float64 // degrees
	Slope       float64 // rise/run between this sample and the previous
	SlopeSmooth float64 // 3-sample centred mean of Slope
	VAM         float64 // m/h
	AirDensity  float64 // kg/m³
}

// NewRecord returns a record with optional channels marked missing.
func NewRecord(ts time.Time) Record {
	nan := math.NaN()
	return Record{
		Timestamp:   ts,
		Seconds:     nan,
		Distance:    nan,
		Speed:       nan,
		Temperature: nan,
		Lat:         nan,
		Lon:         nan,
		Slope:       nan,
		SlopeSmooth: nan,
		VAM:         nan,
		AirDensity:  nan,
	}
}

// HasPosition reports whether the record carries GPS coordinates.
func (r Record) HasPosition() bool {
	return !math.IsNaN(r.Lat) && !math.IsNaN(r.Lon)
}

// Column extracts one channel from a slice of records.
func Column(recs []Record, field func(Record) float64) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = field(r)
	}
	return out
}

func Powers(recs []Record) []float64 { return Column(recs, func(r Record) float64 { return r.Power }) }
func Speeds(recs []Record) []float64 { return Column(recs, func(r Record) float64 { return r.Speed }) }
func Seconds(recs []Record) []float64 {
	return Column(recs, func(r Record) float64 { return r.Seconds })
}

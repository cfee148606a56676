package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// column aliases accepted in CSV headers
var csvColumns = map[string]string{
	"timestamp":     "timestamp",
	"time":          "timestamp",
	"seconds":       "seconds",
	"distance":      "distance",
	"speed":         "speed",
	"altitude":      "altitude",
	"power":         "power",
	"heart_rate":    "heart_rate",
	"hr":            "heart_rate",
	"cadence":       "cadence",
	"temperature":   "temperature",
	"lat":           "lat",
	"position_lat":  "lat",
	"lon":           "lon",
	"position_long": "lon",
}

// LoadCSV reads a ride log with a header row. Timestamps are RFC 3339; a
// seconds column alone is enough to place samples in time.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	recs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int)
	for i, h := range header {
		if name, ok := csvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[name] = i
		}
	}
	_, hasTS := cols["timestamp"]
	_, hasSec := cols["seconds"]
	if !hasTS && !hasSec {
		return nil, fmt.Errorf("csv needs a timestamp or seconds column")
	}

	var recs []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := NewRecord(time.Time{})
		if i, ok := cols["timestamp"]; ok && i < len(row) && row[i] != "" {
			ts, err := time.Parse(time.RFC3339, row[i])
			if err != nil {
				return nil, fmt.Errorf("line %d: timestamp: %w", line, err)
			}
			rec.Timestamp = ts
		}

		fields := []struct {
			name string
			dst  *float64
		}{
			{"seconds", &rec.Seconds},
			{"distance", &rec.Distance},
			{"speed", &rec.Speed},
			{"altitude", &rec.Altitude},
			{"power", &rec.Power},
			{"heart_rate", &rec.HeartRate},
			{"cadence", &rec.Cadence},
			{"temperature", &rec.Temperature},
			{"lat", &rec.Lat},
			{"lon", &rec.Lon},
		}
		for _, fd := range fields {
			i, ok := cols[fd.name]
			if !ok || i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, fd.name, err)
			}
			*fd.dst = v
		}
		recs = append(recs, rec)
	}

	if len(recs) == 0 {
		return nil, fmt.Errorf("csv has no data rows")
	}
	return recs, nil
}

var csvHeader = []string{
	"timestamp", "seconds", "distance", "speed", "altitude", "power",
	"heart_rate", "cadence", "temperature", "lat", "lon", "slope", "vam", "air_density",
}

// WriteCSV writes records in the layout ReadCSV accepts plus derived
// channels. Missing values are left empty.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range recs {
		ts := ""
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.Format(time.RFC3339)
		}
		row := []string{ts}
		for _, v := range []float64{
			r.Seconds, r.Distance, r.Speed, r.Altitude, r.Power,
			r.HeartRate, r.Cadence, r.Temperature, r.Lat, r.Lon,
			r.Slope, r.VAM, r.AirDensity,
		} {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

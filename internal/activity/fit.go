package activity

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/filedef"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

// FIT base type invalid values.
const (
	invalidUint8  = 0xFF
	invalidInt8   = 0x7F
	invalidUint16 = 0xFFFF
	invalidUint32 = 0xFFFFFFFF
	invalidInt32  = 0x7FFFFFFF
)

const semicirclesToDegrees = 180.0 / 2147483648.0

// minAltitude is the floor of the FIT altitude encoding (offset 500 m).
const minAltitude = -500.0

// LoadFIT decodes every record message of a FIT activity file. Enhanced
// speed and altitude are preferred over the 16-bit fields.
func LoadFIT(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fit: %w", err)
	}
	defer f.Close()

	var recs []Record
	dec := decoder.New(bufio.NewReader(f))
	for dec.Next() {
		fit, err := dec.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode fit %s: %w", path, err)
		}
		act := filedef.NewActivity(fit.Messages...)
		for _, m := range act.Records {
			recs = append(recs, fromMesg(m))
		}
	}

	if len(recs) == 0 {
		return nil, fmt.Errorf("fit %s: no record messages", path)
	}
	return recs, nil
}

func fromMesg(m *mesgdef.Record) Record {
	r := NewRecord(m.Timestamp)

	if m.Distance != invalidUint32 {
		r.Distance = float64(m.Distance) / 100
	}

	switch {
	case m.EnhancedSpeed != invalidUint32:
		r.Speed = float64(m.EnhancedSpeed) / 1000
	case m.Speed != invalidUint16:
		r.Speed = float64(m.Speed) / 1000
	}

	switch {
	case m.EnhancedAltitude != invalidUint32:
		r.Altitude = float64(m.EnhancedAltitude)/5 - 500
	case m.Altitude != invalidUint16:
		r.Altitude = float64(m.Altitude)/5 - 500
	}

	if m.Power != invalidUint16 {
		r.Power = float64(m.Power)
	}
	if m.HeartRate != invalidUint8 {
		r.HeartRate = float64(m.HeartRate)
	}
	if m.Cadence != invalidUint8 {
		r.Cadence = float64(m.Cadence)
	}
	if m.Temperature != invalidInt8 {
		r.Temperature = float64(m.Temperature)
	}
	if m.PositionLat != invalidInt32 && m.PositionLong != invalidInt32 {
		r.Lat = float64(m.PositionLat) * semicirclesToDegrees
		r.Lon = float64(m.PositionLong) * semicirclesToDegrees
	}
	return r
}

// WriteFIT encodes records as a cycling activity. Records without a
// timestamp are placed at start plus Seconds.
func WriteFIT(path string, recs []Record, start time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fit: %w", err)
	}

	fit := proto.FIT{}

	fileID := mesgdef.FileId{
		Type:         typedef.FileActivity,
		Manufacturer: typedef.ManufacturerDevelopment,
		Product:      0,
		SerialNumber: 1,
		TimeCreated:  start,
	}
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	for _, r := range recs {
		m := toMesg(r, start)
		fit.Messages = append(fit.Messages, m.ToMesg(nil))
	}

	w := bufio.NewWriter(f)
	if err := encoder.New(w).Encode(&fit); err != nil {
		f.Close()
		return fmt.Errorf("encode fit: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write fit: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close fit: %w", err)
	}
	return nil
}

func toMesg(r Record, start time.Time) *mesgdef.Record {
	m := mesgdef.NewRecord(nil)

	m.Timestamp = r.Timestamp
	if m.Timestamp.IsZero() && !math.IsNaN(r.Seconds) {
		m.Timestamp = start.Add(time.Duration(r.Seconds * float64(time.Second)))
	}
	if valid(r.Distance) {
		m.Distance = uint32(math.Round(r.Distance * 100))
	}
	if valid(r.Speed) && r.Speed >= 0 {
		m.EnhancedSpeed = uint32(math.Round(r.Speed * 1000))
	}
	if valid(r.Altitude) {
		m.EnhancedAltitude = uint32(math.Round((math.Max(r.Altitude, minAltitude) + 500) * 5))
	}
	if valid(r.Power) && r.Power >= 0 {
		m.Power = uint16(clamp(math.Round(r.Power), 0, invalidUint16-1))
	}
	if valid(r.HeartRate) && r.HeartRate > 0 {
		m.HeartRate = uint8(clamp(math.Round(r.HeartRate), 0, invalidUint8-1))
	}
	if valid(r.Cadence) && r.Cadence > 0 {
		m.Cadence = uint8(clamp(math.Round(r.Cadence), 0, invalidUint8-1))
	}
	if valid(r.Temperature) {
		m.Temperature = int8(clamp(math.Round(r.Temperature), math.MinInt8, invalidInt8-1))
	}
	if r.HasPosition() {
		m.PositionLat = int32(r.Lat / semicirclesToDegrees)
		m.PositionLong = int32(r.Lon / semicirclesToDegrees)
	}
	return m
}

// clamp keeps x inside the encodable range so the unsigned conversions
// cannot wrap into the invalid sentinel.
func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func valid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

package critpower

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

type zwoFile struct {
	XMLName     xml.Name   `xml:"workout_file"`
	Author      string     `xml:"author"`
	Name        string     `xml:"name"`
	Description string     `xml:"description"`
	SportType   string     `xml:"sportType"`
	Tags        string     `xml:"tags"`
	FTPOverride float64    `xml:"ftpOverride,omitempty"`
	Workout     zwoWorkout `xml:"workout"`
}

type zwoWorkout struct {
	Steps []zwoSteady `xml:"SteadyState"`
}

type zwoSteady struct {
	Duration int     `xml:"Duration,attr"`
	Power    float64 `xml:"Power,attr"`
}

// WriteZWO writes the ramp segments as a Zwift workout. Power is the
// fraction of FTP; the FTP is embedded as an override when above 1 W.
func (r *RampTest) WriteZWO(w io.Writer, name, author string) error {
	f := zwoFile{
		Author:      author,
		Name:        "Ramp Test " + name,
		Description: "A ramp test based on a power profile",
		SportType:   "bike",
	}
	if r.FTP > 1 {
		f.FTPOverride = r.FTP
	}
	for _, s := range r.Segments {
		f.Workout.Steps = append(f.Workout.Steps, zwoSteady{Duration: s.Duration, Power: s.PowerFTP})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode zwo: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (r *RampTest) SaveZWO(path, name, author string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteZWO(f, name, author); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

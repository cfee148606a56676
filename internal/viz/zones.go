package viz

import "github.com/charmbracelet/lipgloss"

// Zone is a training intensity band expressed as a fraction of FTP.
type Zone struct {
	Name  string
	Lo    float64
	Hi    float64
	Color lipgloss.Color
}

var Zones = []Zone{
	{Name: "Z1 Recovery", Lo: 0, Hi: 0.55, Color: lipgloss.Color("#888899")},
	{Name: "Z2 Endurance", Lo: 0.55, Hi: 0.75, Color: lipgloss.Color("#0088ff")},
	{Name: "Z3 Tempo", Lo: 0.75, Hi: 0.90, Color: lipgloss.Color("#00ff88")},
	{Name: "Z4 Threshold", Lo: 0.90, Hi: 1.05, Color: lipgloss.Color("#ffcc00")},
	{Name: "Z5 VO2max", Lo: 1.05, Hi: 1.20, Color: lipgloss.Color("#ff8800")},
	{Name: "Z6 Anaerobic", Lo: 1.20, Hi: 1.50, Color: lipgloss.Color("#ff4444")},
	{Name: "Z7 Neuromuscular", Lo: 1.50, Hi: 0, Color: lipgloss.Color("#ff00ff")},
}

// ZoneFor returns the zone of watts for the given FTP. A non-positive FTP
// puts everything in the first zone.
func ZoneFor(watts, ftp float64) Zone {
	if ftp <= 0 {
		return Zones[0]
	}
	frac := watts / ftp
	for _, z := range Zones[:len(Zones)-1] {
		if frac < z.Hi {
			return z
		}
	}
	return Zones[len(Zones)-1]
}

// RenderPower colors a power reading by zone.
func RenderPower(text string, watts, ftp float64) string {
	return lipgloss.NewStyle().Bold(true).Foreground(ZoneFor(watts, ftp).Color).Render(text)
}

// ZoneTimes sums time in zone, dt seconds per sample.
func ZoneTimes(powers []float64, ftp, dt float64) []float64 {
	out := make([]float64, len(Zones))
	for _, p := range powers {
		z := ZoneFor(p, ftp)
		for i := range Zones {
			if Zones[i].Name == z.Name {
				out[i] += dt
				break
			}
		}
	}
	return out
}

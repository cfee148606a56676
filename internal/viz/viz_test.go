package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cycledyn/internal/control"
	"github.com/san-kum/cycledyn/internal/dynamo"
)

type rampProfile struct{}

func (rampProfile) Length() float64               { return 1000 }
func (rampProfile) ElevationAt(d float64) float64 { return d * 0.05 }
func (rampProfile) GradeAt(float64) float64       { return 0.05 }

func TestZoneFor(t *testing.T) {
	tests := []struct {
		watts float64
		want  string
	}{
		{100, "Z1 Recovery"},
		{150, "Z2 Endurance"},
		{250, "Z4 Threshold"},
		{280, "Z5 VO2max"},
		{500, "Z7 Neuromuscular"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoneFor(tt.watts, 250).Name, "watts=%v", tt.watts)
	}
	assert.Equal(t, Zones[0].Name, ZoneFor(400, 0).Name)
}

func TestZoneTimes(t *testing.T) {
	times := ZoneTimes([]float64{100, 100, 250, 500}, 250, 1)
	assert.Equal(t, 2.0, times[0])
	assert.Equal(t, 1.0, times[3])
	assert.Equal(t, 1.0, times[len(times)-1])
}

func TestDownsample(t *testing.T) {
	assert.Equal(t, []float64{1.5, 3.5}, Downsample([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{1, 2}, Downsample([]float64{1, 2}, 10))
}

func TestPlot(t *testing.T) {
	out := Plot([]float64{1, 2, 3, 2, 1}, "power", 20, 5)
	assert.Contains(t, out, "power")
	assert.Empty(t, Plot(nil, "x", 20, 5))

	many := PlotMany([][]float64{{1, 2, 3}, {3, 2, 1}}, "both", 20, 5)
	assert.Contains(t, many, "both")
}

func TestTable(t *testing.T) {
	out := MetricsTable(map[string]float64{"avg_power": 201.5, "avg_speed": 9.25})
	assert.Contains(t, out, "avg_power")
	assert.Contains(t, out, "201.50")
	assert.Less(t, strings.Index(out, "avg_power"), strings.Index(out, "avg_speed"))
}

func TestCanvasSeries(t *testing.T) {
	c := NewCanvas(10, 2)
	xs := []float64{0, 1, 2}
	ys := []float64{0, 1, 0}
	b := BoundsOf(xs, ys)
	c.DrawSeries(b, xs, ys)

	px, py := c.Project(b, 0, 0)
	assert.Equal(t, 0, px)
	assert.Equal(t, 7, py)

	out := c.String()
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.NotEqual(t, strings.Repeat(string(rune(brailleBlank)), 10), strings.Split(out, "\n")[0])
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁█", Sparkline([]float64{0, 1}, 10))
	assert.Equal(t, 3, len([]rune(Sparkline([]float64{1, 2, 3, 4, 5}, 3))))
}

func TestLiveModelUpdate(t *testing.T) {
	manual := control.NewManual(200, 1000)
	m := NewLiveModel(manual, LiveOptions{Title: "test", FTP: 250, Profile: rampProfile{}})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(LiveModel)
	assert.Equal(t, 210.0, manual.Watts())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m = next.(LiveModel)
	assert.Equal(t, 160.0, manual.Watts())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(LiveModel)
	assert.True(t, m.Paused())

	next, _ = m.Update(StepMsg{State: dynamo.State{500, 10}, Power: 160, Time: 65})
	m = next.(LiveModel)
	view := m.View()
	assert.Contains(t, view, "TEST")
	assert.Contains(t, view, "PAUSED")
	assert.Contains(t, view, "0.50 km")
	assert.Contains(t, view, "36.0 km/h")
	assert.Contains(t, view, "0:01:05")
	assert.Contains(t, view, "+5.0 %")

	next, _ = m.Update(DoneMsg{})
	m = next.(LiveModel)
	assert.Contains(t, m.View(), "FINISHED")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
}

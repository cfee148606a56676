package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cycledyn/internal/control"
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/sim"
)

const (
	profileWidth    = 60
	profileHeight   = 6
	historyCapacity = 300
)

var (
	statsStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(36)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Profile is the elevation course under the rider.
type Profile interface {
	Length() float64
	ElevationAt(distance float64) float64
	GradeAt(distance float64) float64
}

type LiveOptions struct {
	Title   string
	FTP     float64
	Profile Profile // optional
	// Speedup runs simulated time faster than the wall clock.
	Speedup float64
}

// StepMsg carries one simulated sample into the view.
type StepMsg struct {
	State dynamo.State
	Power float64
	Time  float64
}

// DoneMsg ends the ride.
type DoneMsg struct{ Err error }

// LiveModel shows speed, power and course position while the rider sets
// power through a manual controller.
type LiveModel struct {
	opts     LiveOptions
	manual   *control.Manual
	paused   *atomic.Bool
	state    dynamo.State
	power    float64
	t        float64
	speeds   []float64
	powers   []float64
	canvas   *Canvas
	done     bool
	err      error
	showHelp bool
}

func NewLiveModel(manual *control.Manual, opts LiveOptions) LiveModel {
	if opts.Title == "" {
		opts.Title = "ride"
	}
	if opts.Speedup <= 0 {
		opts.Speedup = 1
	}
	return LiveModel{
		opts:   opts,
		manual: manual,
		paused: new(atomic.Bool),
		state:  dynamo.State{0, 0},
		speeds: make([]float64, 0, historyCapacity),
		powers: make([]float64, 0, historyCapacity),
		canvas: NewCanvas(profileWidth, profileHeight),
	}
}

func (m LiveModel) Init() tea.Cmd { return nil }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused.Store(!m.paused.Load())
		case "up", "k":
			m.manual.Adjust(10)
		case "down", "j":
			m.manual.Adjust(-10)
		case "pgup":
			m.manual.Adjust(50)
		case "pgdown":
			m.manual.Adjust(-50)
		case "?":
			m.showHelp = !m.showHelp
		}
	case StepMsg:
		m.state = msg.State
		m.power = msg.Power
		m.t = msg.Time
		m.speeds = appendCapped(m.speeds, msg.State[1]*3.6)
		m.powers = appendCapped(m.powers, msg.Power)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

// Paused reports whether the rider has paused the ride.
func (m LiveModel) Paused() bool { return m.paused.Load() }

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m LiveModel) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.opts.Title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(SparkLow.Render("ERROR: "+m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString(StatusPaused.Render("FINISHED") + "\n\n")
	case m.paused.Load():
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	default:
		s.WriteString(StatusRunning.Render("RIDING") + "\n\n")
	}

	dist, speed := 0.0, 0.0
	if len(m.state) >= 2 {
		dist, speed = m.state[0], m.state[1]
	}
	target := m.manual.Watts()

	s.WriteString(MetricLabel.Render("Time") + MetricValue.Render(formatClock(m.t)) + "\n")
	s.WriteString(MetricLabel.Render("Distance") + MetricValue.Render(fmt.Sprintf("%.2f km", dist/1000)) + "\n")
	s.WriteString(MetricLabel.Render("Speed") + MetricValue.Render(fmt.Sprintf("%.1f km/h", speed*3.6)) + "\n")
	s.WriteString(MetricLabel.Render("Power") + RenderPower(fmt.Sprintf("%.0f W", m.power), m.power, m.opts.FTP) + "\n")
	s.WriteString(MetricLabel.Render("Target") + MetricValue.Render(fmt.Sprintf("%.0f W", target)) + "\n")
	if m.opts.FTP > 0 {
		s.WriteString(MetricLabel.Render("Zone") + RenderPower(ZoneFor(m.power, m.opts.FTP).Name, m.power, m.opts.FTP) + "\n")
	}
	if m.opts.Profile != nil {
		s.WriteString(MetricLabel.Render("Grade") + MetricValue.Render(fmt.Sprintf("%+.1f %%", m.opts.Profile.GradeAt(dist)*100)) + "\n")
		if l := m.opts.Profile.Length(); l > 0 {
			s.WriteString("\n" + ProgressBar(dist/l, 24) + "\n")
		}
	}
	s.WriteString("\n" + Sparkline(m.powers, 24) + "\n")
	s.WriteString(helpStyle.Render(Separator(28) + "\n↑↓:±10W PgUp/PgDn:±50W\nSP:Pause ?:Help Q:Quit"))
	stats := statsStyle.Render(s.String())

	var left strings.Builder
	if len(m.speeds) > 1 {
		chart := asciigraph.Plot(m.speeds, asciigraph.Height(8), asciigraph.Width(profileWidth), asciigraph.Precision(1), asciigraph.Caption("speed km/h"))
		left.WriteString(graphStyle.Render(chart) + "\n")
	}
	if m.opts.Profile != nil {
		left.WriteString(m.drawProfile(dist))
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top, left.String(), stats)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Up/K     - Increase power 10 W      ║
║  Down/J   - Decrease power 10 W      ║
║  PgUp     - Increase power 50 W      ║
║  PgDn     - Decrease power 50 W      ║
║  Space    - Pause/Resume             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + view
	}
	return view
}

// drawProfile plots the course elevation with a marker at the rider.
func (m LiveModel) drawProfile(dist float64) string {
	m.canvas.Clear()
	length := m.opts.Profile.Length()
	n := m.canvas.Width * 2
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = length * float64(i) / float64(n-1)
		ys[i] = m.opts.Profile.ElevationAt(xs[i])
	}
	b := BoundsOf(xs, ys)
	m.canvas.DrawSeries(b, xs, ys)
	m.canvas.Marker(b, min(dist, length))
	return Subtle.Render(m.canvas.String())
}

func formatClock(sec float64) string {
	d := time.Duration(sec * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	mm := int(d.Minutes()) % 60
	ss := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, mm, ss)
}

// RunLive rides s in real time (scaled by Speedup) and renders it until
// the ride ends or the user quits.
func RunLive(ctx context.Context, s *sim.Simulator, manual *control.Manual, x0 dynamo.State, cfg dynamo.Config, opts LiveOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewLiveModel(manual, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	pace := time.Duration(cfg.Dt / model.opts.Speedup * float64(time.Second))

	go func() {
		err := s.RunWithCallback(ctx, x0, cfg, func(x dynamo.State, u dynamo.Control, t float64) bool {
			for model.paused.Load() {
				select {
				case <-ctx.Done():
					return false
				case <-time.After(50 * time.Millisecond):
				}
			}
			p.Send(StepMsg{State: x.Clone(), Power: u[0], Time: t})
			select {
			case <-ctx.Done():
				return false
			case <-time.After(pace):
				return true
			}
		})
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cycledyn/internal/config"
	"github.com/san-kum/cycledyn/internal/control"
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/physics"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuildConstantReachesSteadyState(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Simulation.Duration = 600
	cfg.Simulation.InitialSpeed = 5

	exp, err := Build(cfg, nil, quiet)
	require.NoError(t, err)
	assert.IsType(t, &control.Constant{}, exp.Controller)

	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	want, err := physics.SpeedFromPower(cfg.Rider, cfg.Environment, cfg.Simulation.Power)
	require.NoError(t, err)

	final := result.States[len(result.States)-1]
	assert.InDelta(t, want, final[1], 0.05)
	assert.InDelta(t, 200, result.Metrics["avg_power"], 1e-9)
	assert.Contains(t, result.Metrics, "max_speed")
}

func TestBuildDistanceStop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Simulation.Distance = 500
	cfg.Simulation.InitialSpeed = 8

	exp, err := Build(cfg, nil, quiet)
	require.NoError(t, err)
	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	final := result.States[len(result.States)-1]
	assert.GreaterOrEqual(t, final[0], 500.0)
	assert.Less(t, result.Times[len(result.Times)-1], cfg.Simulation.Duration)
}

func TestSeriesController(t *testing.T) {
	path := filepath.Join(t.TempDir(), "power.csv")
	data := "seconds,power\n0,100\n1,300\n2,300\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	sc := config.DefaultConfig().Simulation
	sc.Controller = "series"
	sc.PowerFile = path
	ctrl, err := NewController(sc, quiet)
	require.NoError(t, err)
	assert.Equal(t, dynamo.Control{100}, ctrl.Compute(nil, 0.5))
	assert.Equal(t, dynamo.Control{300}, ctrl.Compute(nil, 1.5))

	sc.PowerFile = ""
	_, err = NewController(sc, quiet)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
}

func TestNewControllerUnknown(t *testing.T) {
	sc := config.DefaultConfig().Simulation
	sc.Controller = "autopilot"
	_, err := NewController(sc, quiet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidInput))
	assert.Equal(t, []string{"constant", "none", "pid", "series"}, ControllerNames())
}

func TestBuildWithManual(t *testing.T) {
	manual := control.NewManual(250, 1000)
	exp, err := Build(config.DefaultConfig(), manual, quiet)
	require.NoError(t, err)
	assert.Same(t, manual, exp.Controller)
}

func TestScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `
name: position test
steps:
  - name: hoods
    position: hoods
    duration: 120
  - name: aero
    position: aero
    duration: 120
`
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(doc)), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, sc.Steps, 2)

	base := config.DefaultConfig()
	base.Simulation.InitialSpeed = 8
	results, err := RunScenario(context.Background(), base, sc, quiet)
	require.NoError(t, err)
	require.Len(t, results, 2)

	hoods := results[0].Result.Metrics["avg_speed"]
	aero := results[1].Result.Metrics["avg_speed"]
	assert.Greater(t, aero, hoods)
	assert.Equal(t, config.DefaultMass, base.Rider.Mass)
}

func TestStepApplyErrors(t *testing.T) {
	base := config.DefaultConfig()
	_, err := Step{Position: "superman"}.Apply(base)
	assert.Error(t, err)
	_, err = Step{Surface: "ice"}.Apply(base)
	assert.Error(t, err)

	cfg, err := Step{Grade: 5, Mass: 80}.Apply(base)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, cfg.Environment.Grade, 1e-12)
	assert.Equal(t, 80.0, cfg.Rider.Mass)
	assert.Equal(t, 0.0, base.Environment.Grade)
}

package sim

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cycledyn/internal/control"
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/integrators"
	"github.com/san-kum/cycledyn/internal/metrics"
	"github.com/san-kum/cycledyn/internal/physics"
)

type decay struct{}

func (decay) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}
func (decay) StateDim() int   { return 1 }
func (decay) ControlDim() int { return 0 }

type blowup struct{}

func (blowup) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{math.Inf(1)}
}
func (blowup) StateDim() int   { return 1 }
func (blowup) ControlDim() int { return 0 }

func rider() dynamo.Rider {
	return dynamo.Rider{Mass: 80, FrontalArea: 0.5, DragCoefficient: 0.6, RollingResistance: 0.005, Efficiency: 1}
}

func TestSimulatorRun(t *testing.T) {
	s := New(decay{}, integrators.NewEuler(), control.NewNone())

	result, err := s.Run(context.Background(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1})
	require.NoError(t, err)

	assert.Len(t, result.States, 11)
	assert.Len(t, result.Times, 11)
	assert.Len(t, result.Controls, 10)
	assert.Equal(t, 10, result.StepsTaken)
	assert.InDelta(t, math.Exp(-1), result.States[10][0], 0.2)
	assert.InDelta(t, 1.0, result.Times[10], 1e-12)
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(decay{}, integrators.NewEuler(), control.NewNone())

	tests := []struct {
		name string
		x0   dynamo.State
		cfg  dynamo.Config
	}{
		{"zero dt", dynamo.State{1}, dynamo.Config{Dt: 0, Duration: 1}},
		{"negative dt", dynamo.State{1}, dynamo.Config{Dt: -0.1, Duration: 1}},
		{"zero duration", dynamo.State{1}, dynamo.Config{Dt: 0.1}},
		{"negative distance", dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1, Distance: -5}},
		{"wrong state size", dynamo.State{1, 2}, dynamo.Config{Dt: 0.1, Duration: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.x0, tt.cfg)
			assert.ErrorIs(t, err, dynamo.ErrInvalidInput)
		})
	}
}

func TestSimulatorInvalidState(t *testing.T) {
	s := New(blowup{}, integrators.NewEuler(), control.NewNone())

	result, err := s.Run(context.Background(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1, ValidateState: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrInvalidState)

	var simErr *dynamo.SimulationError
	require.True(t, errors.As(err, &simErr))
	assert.Equal(t, 0, simErr.Step)
	assert.Len(t, result.States, 1)
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(decay{}, integrators.NewEuler(), control.NewNone())
	_, err := s.Run(ctx, dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 1})
	assert.ErrorIs(t, err, dynamo.ErrContextCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRideReachesSteadyState(t *testing.T) {
	r := rider()
	env := dynamo.Environment{AirDensity: 1.2}
	ride := physics.NewRide(r, env, nil)

	s := New(ride, integrators.NewRK4(), control.NewConstant(200))
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	result, err := s.Run(context.Background(), dynamo.State{0, 0}, dynamo.Config{Dt: 0.5, Duration: 600, ValidateState: true})
	require.NoError(t, err)

	want, err := physics.SpeedFromPower(r, env, 200)
	require.NoError(t, err)

	final := result.States[len(result.States)-1]
	assert.InDelta(t, want, final[1], 1e-3)
	assert.InDelta(t, 200, result.Metrics["avg_power"], 1e-9)
	assert.InDelta(t, 120, result.Metrics["work_kj"], 1e-6)
	assert.InDelta(t, final[0]/600, result.Metrics["avg_speed"], 1e-9)
}

func TestSeriesPlaybackMetrics(t *testing.T) {
	ride := physics.NewRide(rider(), dynamo.Environment{AirDensity: 1.2}, nil)
	s := New(ride, integrators.NewRK4(), control.NewSeries([]float64{0, 1}, []float64{100, 300}))
	s.AddMetric(metrics.NewAveragePower())
	s.AddMetric(metrics.NewWork())

	result, err := s.Run(context.Background(), dynamo.State{0, 5}, dynamo.Config{Dt: 1, Duration: 2})
	require.NoError(t, err)

	assert.InDelta(t, 200, result.Metrics["avg_power"], 1e-12)
	assert.InDelta(t, 0.4, result.Metrics["work_kj"], 1e-12)
}

func TestRideStopsAtDistance(t *testing.T) {
	ride := physics.NewRide(rider(), dynamo.Environment{AirDensity: 1.2}, nil)
	s := New(ride, integrators.NewRK4(), control.NewConstant(250))

	result, err := s.Run(context.Background(), dynamo.State{0, 5}, dynamo.Config{Dt: 1, Duration: 3600, Distance: 1000})
	require.NoError(t, err)

	final := result.States[len(result.States)-1]
	assert.GreaterOrEqual(t, final[0], 1000.0)
	assert.Less(t, result.Times[len(result.Times)-1], 3600.0)

	prev := result.States[len(result.States)-2]
	assert.Less(t, prev[0], 1000.0)
}

func TestRunWithCallbackStops(t *testing.T) {
	s := New(decay{}, integrators.NewEuler(), control.NewNone())

	calls := 0
	err := s.RunWithCallback(context.Background(), dynamo.State{1}, dynamo.Config{Dt: 0.1, Duration: 10}, func(x dynamo.State, u dynamo.Control, t float64) bool {
		calls++
		return calls < 5
	})
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
}

func TestProgressObserver(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ride := physics.NewRide(rider(), dynamo.Environment{AirDensity: 1.225}, nil)
	s := New(ride, integrators.NewRK4(), control.NewConstant(200))
	s.AddObserver(NewProgress(log, 10))

	_, err := s.Run(context.Background(), dynamo.State{0, 5}, dynamo.Config{Dt: 1, Duration: 30})
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(buf.String(), "ride progress"))
	assert.Contains(t, buf.String(), "watts=200")
}

package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/cycledyn/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

// coasting decelerates under quadratic drag only: dv/dt = -k v².
type coasting struct{ k float64 }

func (c *coasting) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -c.k * x[1] * x[1]}
}

func (c *coasting) StateDim() int   { return 2 }
func (c *coasting) ControlDim() int { return 0 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestCoastDownMatchesClosedForm(t *testing.T) {
	// v(t) = v0 / (1 + k v0 t), x(t) = ln(1 + k v0 t) / k
	k, v0 := 0.003, 12.0
	dyn := &coasting{k: k}
	dt := 0.5
	steps := 120

	for _, name := range Names() {
		integ, err := ByName(name)
		if err != nil {
			t.Fatal(err)
		}

		x := dynamo.State{0, v0}
		for i := 0; i < steps; i++ {
			x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
		}

		T := float64(steps) * dt
		wantV := v0 / (1 + k*v0*T)
		wantX := math.Log(1+k*v0*T) / k

		tol := 1e-6
		if name == "euler" {
			tol = 0.05
		}
		if math.Abs(x[1]-wantV)/wantV > tol {
			t.Errorf("%s: speed %.6f, want %.6f", name, x[1], wantV)
		}
		if math.Abs(x[0]-wantX)/wantX > tol {
			t.Errorf("%s: distance %.6f, want %.6f", name, x[0], wantX)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

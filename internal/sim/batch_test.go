package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/physics"
)

func TestBatchMatchesSequential(t *testing.T) {
	solver := physics.NewSolver(dynamo.DefaultSolverConfig())
	r := rider()

	jobs := make([]Job, 300)
	for i := range jobs {
		env := dynamo.Environment{AirDensity: 1.2, Grade: dynamo.GradePercent(float64(i%10) - 3)}
		jobs[i] = Job{Rider: r, Env: env, Query: dynamo.Query{Kind: dynamo.SolveSpeed, Value: 100 + float64(i)}}
	}

	results := Batch(solver, jobs)
	require.Len(t, results, len(jobs))

	for i, res := range results {
		require.NoError(t, res.Err)
		want, err := solver.Solve(jobs[i].Rider, jobs[i].Env, jobs[i].Query)
		require.NoError(t, err)
		assert.InDelta(t, want.Speed, res.Solution.Speed, 1e-12)
	}
}

func TestBatchReportsPerJobErrors(t *testing.T) {
	solver := physics.NewSolver(dynamo.DefaultSolverConfig())
	env := dynamo.Environment{AirDensity: 1.2}

	results := Batch(solver, []Job{
		{Rider: rider(), Env: env, Query: dynamo.Query{Kind: dynamo.SolveSpeed, Value: 200}},
		{Rider: rider(), Env: env, Query: dynamo.Query{Kind: dynamo.SolveSpeed, Value: -10}},
	})

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, dynamo.ErrNoSolution)
}

func TestSweepPower(t *testing.T) {
	solver := physics.NewSolver(dynamo.DefaultSolverConfig())
	res := Sweep(solver, rider(), dynamo.Environment{AirDensity: 1.2}, dynamo.SolvePower, 5, 15, 1)
	require.Len(t, res, 11)
	for i := 1; i < len(res); i++ {
		assert.Greater(t, res[i].Solution.Power, res[i-1].Solution.Power)
	}
	assert.Nil(t, Sweep(solver, rider(), dynamo.Environment{}, dynamo.SolvePower, 5, 1, 1))
}

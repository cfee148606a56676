package sim

import (
	"github.com/san-kum/cycledyn/internal/dynamo"
	"github.com/san-kum/cycledyn/internal/physics"
)

// Job is one independent steady-state evaluation.
type Job struct {
	Rider dynamo.Rider
	Env   dynamo.Environment
	Query dynamo.Query
}

type JobResult struct {
	Solution dynamo.Solution
	Err      error
}

// Batch solves jobs concurrently. Results keep the order of jobs and
// failures are reported per job.
func Batch(solver *physics.Solver, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	dynamo.ParallelFor(len(jobs), 64, func(start, end int) {
		for i := start; i < end; i++ {
			j := jobs[i]
			sol, err := solver.Solve(j.Rider, j.Env, j.Query)
			results[i] = JobResult{Solution: sol, Err: err}
		}
	})
	return results
}

// Sweep evaluates one rider over a range of speeds (SolvePower) or powers
// (SolveSpeed) from lo to hi inclusive.
func Sweep(solver *physics.Solver, r dynamo.Rider, env dynamo.Environment, kind dynamo.QueryKind, lo, hi, step float64) []JobResult {
	if step <= 0 || hi < lo {
		return nil
	}
	n := int((hi-lo)/step+1e-9) + 1
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{Rider: r, Env: env, Query: dynamo.Query{Kind: kind, Value: lo + float64(i)*step}}
	}
	return Batch(solver, jobs)
}

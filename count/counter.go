// Package count realizes weighted CNF problems into numbers. It defines
// the Counter boundary the symbolic layer hands problems to, a brute-force
// reference counter, two in-process enumeration counters built on SAT
// solvers, and runners for the external DPMC, Cachet and TensorOrder
// counters. Nothing outside this package spawns processes.
package count

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"spinwmc/cnf"
)

// Problem is one weighted counting instance: a formula and a weight
// function whose domain covers the formula's variables.
type Problem struct {
	Formula cnf.CNF
	Weights *cnf.WeightFunction
}

// Result is the outcome of one counter run. Failures (timeouts, crashes,
// unparsable solver output) are reported as Success == false, never as
// panics, so batch drivers can keep going.
type Result struct {
	Success bool
	Runtime time.Duration
	Count   float64
}

// Counter produces weighted model counts. BatchModelCount returns one
// result per problem, index for index.
type Counter interface {
	ModelCount(p Problem) Result
	BatchModelCount(problems ...Problem) []Result
	Available() bool
}

// inParallel runs every problem on a bounded group. Problems are immutable
// and each goroutine writes only its own slot.
func inParallel(problems []Problem, run func(Problem) Result) []Result {
	results := make([]Result, len(problems))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range problems {
		i, p := i, p
		g.Go(func() error {
			results[i] = run(p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func failAll(n int) []Result {
	return make([]Result, n)
}

// Brute counts by exhaustive enumeration of the weight domain. It is the
// ground truth the other counters are checked against and is only usable
// on small domains.
type Brute struct{}

func (Brute) ModelCount(p Problem) Result {
	start := time.Now()
	total := p.Weights.ModelCount(p.Formula)
	return Result{Success: true, Runtime: time.Since(start), Count: total}
}

func (b Brute) BatchModelCount(problems ...Problem) []Result {
	return inParallel(problems, b.ModelCount)
}

func (Brute) Available() bool { return true }

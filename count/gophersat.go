package count

import (
	"time"

	"github.com/crillab/gophersat/solver"

	"spinwmc/cnf"
)

// Gophersat counts exactly by enumerating every model with the gophersat
// solver and summing the models' derived weights. Enumeration visits each
// of the formula's models once, so it handles moderately larger domains
// than Brute, but it is still an in-process fallback rather than a
// dedicated counter.
type Gophersat struct{}

func (g Gophersat) ModelCount(p Problem) Result {
	start := time.Now()

	if len(p.Formula) == 0 {
		// Every assignment satisfies the empty formula.
		return Result{Success: true, Runtime: time.Since(start), Count: p.Weights.FreeMass()}
	}

	index, domain := problemVars(p.Weights)
	clauses := make([][]int, 0, len(p.Formula)+len(domain))
	seen := make(map[cnf.Var]bool, len(domain))
	for _, clause := range p.Formula {
		ints := make([]int, len(clause))
		for i, lit := range clause {
			n, ok := index[lit.Var()]
			if !ok {
				return Result{}
			}
			seen[lit.Var()] = true
			if lit.IsPos() {
				ints[i] = n
			} else {
				ints[i] = -n
			}
		}
		if len(ints) == 0 {
			return Result{Success: true, Runtime: time.Since(start)}
		}
		clauses = append(clauses, ints)
	}
	// Tautologies register the unreferenced domain variables with the
	// solver so models cover the whole domain.
	for _, v := range domain {
		if !seen[v] {
			clauses = append(clauses, []int{index[v], -index[v]})
		}
	}

	pb := solver.ParseSlice(clauses)
	if pb.Status == solver.Unsat {
		return Result{Success: true, Runtime: time.Since(start)}
	}
	s := solver.New(pb)

	models := make(chan []bool)
	summed := make(chan float64, 1)
	go func() {
		total := 0.0
		for model := range models {
			weight := 1.0
			for i, v := range domain {
				weight *= p.Weights.Derived(v, model[i])
			}
			total += weight
		}
		summed <- total
	}()
	s.Enumerate(models, nil)
	total := <-summed

	return Result{Success: true, Runtime: time.Since(start), Count: total}
}

func (g Gophersat) BatchModelCount(problems ...Problem) []Result {
	return inParallel(problems, g.ModelCount)
}

func (Gophersat) Available() bool { return true }

package count

import (
	"time"

	"github.com/irifrance/gini"
	"github.com/irifrance/gini/z"

	"spinwmc/cnf"
)

// Gini counts exactly with gini's incremental interface: solve, weigh the
// model, block it with the complementary clause, repeat until unsat. Every
// assignment of the domain is visited individually, so this is for small
// domains only.
type Gini struct{}

func (g Gini) ModelCount(p Problem) Result {
	start := time.Now()

	if len(p.Formula) == 0 {
		return Result{Success: true, Runtime: time.Since(start), Count: p.Weights.FreeMass()}
	}

	index, domain := problemVars(p.Weights)
	s := gini.NewV(len(domain))
	seen := make(map[cnf.Var]bool, len(domain))
	for _, clause := range p.Formula {
		if len(clause) == 0 {
			return Result{Success: true, Runtime: time.Since(start)}
		}
		for _, lit := range clause {
			n, ok := index[lit.Var()]
			if !ok {
				return Result{}
			}
			seen[lit.Var()] = true
			if lit.IsPos() {
				s.Add(z.Var(n).Pos())
			} else {
				s.Add(z.Var(n).Neg())
			}
		}
		s.Add(0)
	}
	// Tautologies register the unreferenced domain variables so the
	// blocking clauses below may mention them.
	for _, v := range domain {
		if !seen[v] {
			s.Add(z.Var(index[v]).Pos())
			s.Add(z.Var(index[v]).Neg())
			s.Add(0)
		}
	}

	total := 0.0
	for s.Solve() == 1 {
		weight := 1.0
		for i, v := range domain {
			if s.Value(z.Var(i + 1).Pos()) {
				weight *= p.Weights.Derived(v, true)
			} else {
				weight *= p.Weights.Derived(v, false)
			}
		}
		total += weight

		// Block exactly this assignment.
		for i := range domain {
			if s.Value(z.Var(i + 1).Pos()) {
				s.Add(z.Var(i + 1).Neg())
			} else {
				s.Add(z.Var(i + 1).Pos())
			}
		}
		s.Add(0)
	}

	return Result{Success: true, Runtime: time.Since(start), Count: total}
}

func (g Gini) BatchModelCount(problems ...Problem) []Result {
	return inParallel(problems, g.ModelCount)
}

func (Gini) Available() bool { return true }

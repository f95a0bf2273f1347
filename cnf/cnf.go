package cnf

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Clause is a disjunction of literals.
type Clause []Lit

// CNF is a conjunction of clauses. The empty CNF is true; a CNF containing
// an empty clause is false. Operations return new formulas and never
// mutate their receivers, so clause slices may be shared structurally.
type CNF []Clause

// New builds a CNF from the given clauses.
func New(clauses ...Clause) CNF {
	return CNF(clauses)
}

// C builds a clause from literals.
func C(lits ...Lit) Clause {
	return Clause(lits)
}

// And is logical conjunction: the clauses of all operands concatenated.
func (f CNF) And(gs ...CNF) CNF {
	out := make(CNF, 0, len(f))
	out = append(out, f...)
	for _, g := range gs {
		out = append(out, g...)
	}
	return out
}

// Or is logical disjunction by distribution: every clause of f merged with
// every clause of g. The result has len(f)*len(g) clauses, so chained
// disjunctions grow multiplicatively; callers that need large disjunctions
// should introduce selector variables instead.
func (f CNF) Or(g CNF) CNF {
	if len(f) == 0 || len(g) == 0 {
		return CNF{}
	}
	out := make(CNF, 0, len(f)*len(g))
	for _, cf := range f {
		for _, cg := range g {
			merged := make(Clause, 0, len(cf)+len(cg))
			merged = append(merged, cf...)
			merged = append(merged, cg...)
			out = append(out, merged)
		}
	}
	return out
}

// Subst replaces every occurrence of from with to, preserving polarity.
func (f CNF) Subst(from, to Var) CNF {
	return f.BulkSubst(map[Var]Var{from: to})
}

// BulkSubst applies all replacements simultaneously, so a mapping such as
// {x: y, y: x} swaps the two variables.
func (f CNF) BulkSubst(m map[Var]Var) CNF {
	out := make(CNF, len(f))
	for i, clause := range f {
		mapped := make(Clause, len(clause))
		for j, lit := range clause {
			if to, ok := m[lit.Var()]; ok {
				if lit.IsPos() {
					mapped[j] = to.Pos()
				} else {
					mapped[j] = to.Neg()
				}
			} else {
				mapped[j] = lit
			}
		}
		out[i] = mapped
	}
	return out
}

// Eval reports whether the assignment satisfies the formula: every clause
// must contain at least one literal whose variable is assigned its
// polarity. Variables absent from the assignment count as false.
func (f CNF) Eval(assign map[Var]bool) bool {
	for _, clause := range f {
		sat := false
		for _, lit := range clause {
			if assign[lit.Var()] == lit.IsPos() {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

// Vars returns the set of variables occurring in the formula.
func (f CNF) Vars() mapset.Set[Var] {
	vars := mapset.NewSet[Var]()
	for _, clause := range f {
		for _, lit := range clause {
			vars.Add(lit.Var())
		}
	}
	return vars
}

// Copy returns a CNF with independent clause storage over the same
// variables.
func (f CNF) Copy() CNF {
	out := make(CNF, len(f))
	for i, clause := range f {
		out[i] = append(Clause(nil), clause...)
	}
	return out
}

func normalClause(c Clause) string {
	lits := append(Clause(nil), c...)
	sort.Slice(lits, func(i, j int) bool { return lits[i] < lits[j] })
	var b strings.Builder
	for _, l := range lits {
		b.WriteString(l.String())
		b.WriteByte(' ')
	}
	return b.String()
}

// Equal compares formulas as multisets of clauses, each clause as a
// multiset of literals. Clause order and literal order are irrelevant.
func (f CNF) Equal(g CNF) bool {
	if len(f) != len(g) {
		return false
	}
	counts := make(map[string]int, len(f))
	for _, c := range f {
		counts[normalClause(c)]++
	}
	for _, c := range g {
		key := normalClause(c)
		counts[key]--
		if counts[key] < 0 {
			return false
		}
	}
	return true
}

func (f CNF) String() string {
	var b strings.Builder
	for i, clause := range f {
		if i > 0 {
			b.WriteString(" & ")
		}
		b.WriteByte('(')
		for j, lit := range clause {
			if j > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(lit.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}

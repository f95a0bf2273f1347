package matrix

import (
	"errors"
	"fmt"
	"math/bits"

	"spinwmc/cnf"
)

// ErrRepMismatch reports register representations that cannot be related
// clause-wise: different encodings or different cardinalities.
var ErrRepMismatch = errors.New("incompatible register representations")

// Rep is the clause-level footprint of one register: a fixed set of
// boolean variables plus the formulas that fix, bound and relate the
// register's value.
//
// All returned formulas range over the rep's own variables (plus the
// other rep's for the Equals* forms); weights for those variables are
// the caller's concern.
type Rep interface {
	Q() int
	Encoding() Encoding
	// Vars lists the rep's variables, most significant first for the
	// Binary encoding.
	Vars() []cnf.Var
	// Equals fixes the register to a value in 0..q-1.
	Equals(value int) (cnf.CNF, error)
	// LessThanQ excludes variable patterns that do not denote any value
	// in 0..q-1. For encodings with no invalid patterns it is the empty
	// (true) formula.
	LessThanQ() cnf.CNF
	// EqualsRep forces this register and other to hold the same value.
	EqualsRep(other Rep) (cnf.CNF, error)
	// EqualsRepToVar ties target to the equality of this register and
	// other: target is true in a model exactly when the two registers
	// agree. The returned variables are the gadget's auxiliaries; the
	// caller weights them (normally 1,1) together with target.
	EqualsRepToVar(other Rep, target cnf.Var) (cnf.CNF, []cnf.Var, error)
	// Rename returns a rep of the same shape with every variable mapped
	// through m. Variables absent from m are kept.
	Rename(m map[cnf.Var]cnf.Var) Rep
}

func intLog(q int) int {
	return bits.Len(uint(q - 1))
}

// LogRep encodes a register into ceil(log2 q) variables, most
// significant bit first.
type LogRep struct {
	space *cnf.Space
	q     int
	vars  []cnf.Var
}

// NewLogRep allocates a fresh binary-coded register.
func NewLogRep(space *cnf.Space, q int) *LogRep {
	return &LogRep{space: space, q: q, vars: space.FreshVars(intLog(q))}
}

func (r *LogRep) Q() int             { return r.q }
func (r *LogRep) Encoding() Encoding { return Binary }

func (r *LogRep) Vars() []cnf.Var {
	return append([]cnf.Var(nil), r.vars...)
}

func (r *LogRep) Equals(value int) (cnf.CNF, error) {
	if value < 0 || value >= r.q {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrValueRange, value, r.q-1)
	}
	f := cnf.New()
	for i := len(r.vars) - 1; i >= 0; i-- {
		if value%2 == 1 {
			f = append(f, cnf.C(r.vars[i].Pos()))
		} else {
			f = append(f, cnf.C(r.vars[i].Neg()))
		}
		value /= 2
	}
	return f, nil
}

// LessThanQ forbids the bit patterns above q-1. For every zero bit of
// q-1 there is one clause: that bit may only be set when some more
// significant one bit of q-1 is clear.
func (r *LogRep) LessThanQ() cnf.CNF {
	max := r.q - 1
	n := len(r.vars)
	digits := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		digits[i] = max % 2
		max /= 2
	}
	f := cnf.New()
	for i, d := range digits {
		if d != 0 {
			continue
		}
		clause := cnf.Clause{r.vars[i].Neg()}
		for j := 0; j < i; j++ {
			if digits[j] == 1 {
				clause = append(clause, r.vars[j].Neg())
			}
		}
		f = append(f, clause)
	}
	return f
}

func (r *LogRep) EqualsRep(other Rep) (cnf.CNF, error) {
	o, ok := other.(*LogRep)
	if !ok || o.q != r.q {
		return nil, fmt.Errorf("%w: %T(q=%d) vs %T", ErrRepMismatch, r, r.q, other)
	}
	return varsEqual(r.vars, o.vars), nil
}

func (r *LogRep) EqualsRepToVar(other Rep, target cnf.Var) (cnf.CNF, []cnf.Var, error) {
	o, ok := other.(*LogRep)
	if !ok || o.q != r.q {
		return nil, nil, fmt.Errorf("%w: %T(q=%d) vs %T", ErrRepMismatch, r, r.q, other)
	}
	return varsEqualToVar(r.space, r.vars, o.vars, target)
}

func (r *LogRep) Rename(m map[cnf.Var]cnf.Var) Rep {
	return &LogRep{space: r.space, q: r.q, vars: renameVars(r.vars, m)}
}

// OneHotRep encodes a register into q variables, one per value.
type OneHotRep struct {
	space *cnf.Space
	q     int
	vars  []cnf.Var
}

// NewOneHotRep allocates a fresh one-hot-coded register.
func NewOneHotRep(space *cnf.Space, q int) *OneHotRep {
	return &OneHotRep{space: space, q: q, vars: space.FreshVars(q)}
}

func (r *OneHotRep) Q() int             { return r.q }
func (r *OneHotRep) Encoding() Encoding { return OneHot }

func (r *OneHotRep) Vars() []cnf.Var {
	return append([]cnf.Var(nil), r.vars...)
}

func (r *OneHotRep) Equals(value int) (cnf.CNF, error) {
	if value < 0 || value >= r.q {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrValueRange, value, r.q-1)
	}
	f := cnf.New()
	for i, v := range r.vars {
		if i == value {
			f = append(f, cnf.C(v.Pos()))
		} else {
			f = append(f, cnf.C(v.Neg()))
		}
	}
	return f, nil
}

// LessThanQ is the exactly-one constraint over the q variables.
func (r *OneHotRep) LessThanQ() cnf.CNF {
	atLeast := make(cnf.Clause, len(r.vars))
	for i, v := range r.vars {
		atLeast[i] = v.Pos()
	}
	f := cnf.New(atLeast)
	for i := 0; i < len(r.vars); i++ {
		for j := i + 1; j < len(r.vars); j++ {
			f = append(f, cnf.C(r.vars[i].Neg(), r.vars[j].Neg()))
		}
	}
	return f
}

func (r *OneHotRep) EqualsRep(other Rep) (cnf.CNF, error) {
	o, ok := other.(*OneHotRep)
	if !ok || o.q != r.q {
		return nil, fmt.Errorf("%w: %T(q=%d) vs %T", ErrRepMismatch, r, r.q, other)
	}
	return varsEqual(r.vars, o.vars), nil
}

func (r *OneHotRep) EqualsRepToVar(other Rep, target cnf.Var) (cnf.CNF, []cnf.Var, error) {
	o, ok := other.(*OneHotRep)
	if !ok || o.q != r.q {
		return nil, nil, fmt.Errorf("%w: %T(q=%d) vs %T", ErrRepMismatch, r, r.q, other)
	}
	return varsEqualToVar(r.space, r.vars, o.vars, target)
}

func (r *OneHotRep) Rename(m map[cnf.Var]cnf.Var) Rep {
	return &OneHotRep{space: r.space, q: r.q, vars: renameVars(r.vars, m)}
}

// varsEqual biconditions the two variable lists position by position.
func varsEqual(xs, ys []cnf.Var) cnf.CNF {
	f := cnf.New()
	for i := range xs {
		f = append(f,
			cnf.C(xs[i].Neg(), ys[i].Pos()),
			cnf.C(xs[i].Pos(), ys[i].Neg()))
	}
	return f
}

// varsEqualToVar defines target as the conjunction of position-wise
// equalities. One auxiliary per position holds that position's
// equality; target then requires them all.
func varsEqualToVar(space *cnf.Space, xs, ys []cnf.Var, target cnf.Var) (cnf.CNF, []cnf.Var, error) {
	f := cnf.New()
	aux := space.FreshVars(len(xs))
	for i, a := range aux {
		x, y := xs[i], ys[i]
		f = append(f,
			cnf.C(a.Neg(), x.Pos(), y.Neg()),
			cnf.C(a.Neg(), x.Neg(), y.Pos()),
			cnf.C(a.Pos(), x.Pos(), y.Pos()),
			cnf.C(a.Pos(), x.Neg(), y.Neg()))
	}
	all := make(cnf.Clause, 0, len(aux)+1)
	all = append(all, target.Pos())
	for _, a := range aux {
		all = append(all, a.Neg())
		f = append(f, cnf.C(target.Neg(), a.Pos()))
	}
	f = append(f, all)
	return f, aux, nil
}

func renameVars(vars []cnf.Var, m map[cnf.Var]cnf.Var) []cnf.Var {
	out := make([]cnf.Var, len(vars))
	for i, v := range vars {
		if nv, ok := m[v]; ok {
			out[i] = nv
		} else {
			out[i] = v
		}
	}
	return out
}

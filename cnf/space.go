// Package cnf provides propositional formulas in conjunctive normal form
// together with literal weight functions, the symbolic substrate for
// weighted model counting.
package cnf

import (
	"fmt"
	"sync/atomic"
)

// Var is a handle to a boolean variable. Handles are only meaningful within
// the Space that allocated them; they are never reused. The zero value is
// not a valid variable.
type Var uint32

// NullVar is the reserved invalid handle.
const NullVar Var = 0

// Lit is a variable together with a polarity, packed as Var<<1|sign.
// The even literal is the positive one.
type Lit uint32

func (v Var) Pos() Lit { return Lit(v << 1) }
func (v Var) Neg() Lit { return Lit(v<<1 | 1) }

// Lift turns a signed magnitude into a literal: positive n is the positive
// literal of Var(n), negative n the negative literal of Var(-n).
func Lift(n int) Lit {
	if n < 0 {
		return Var(-n).Neg()
	}
	return Var(n).Pos()
}

func (l Lit) Var() Var    { return Var(l >> 1) }
func (l Lit) IsPos() bool { return l&1 == 0 }
func (l Lit) Not() Lit    { return l ^ 1 }

func (l Lit) String() string {
	if l.IsPos() {
		return fmt.Sprintf("v%d", l.Var())
	}
	return fmt.Sprintf("-v%d", l.Var())
}

// Space allocates fresh variables. Every formula, weight function and
// matrix that may ever be composed must draw its variables from the same
// Space; the counter is atomic so concurrent construction of unrelated
// formulas stays collision free.
type Space struct {
	counter atomic.Uint32
}

func NewSpace() *Space {
	return &Space{}
}

// Fresh returns a variable that has never been handed out before.
func (s *Space) Fresh() Var {
	return Var(s.counter.Add(1))
}

// FreshVars returns n distinct fresh variables in allocation order.
func (s *Space) FreshVars(n int) []Var {
	vars := make([]Var, n)
	for i := range vars {
		vars[i] = s.Fresh()
	}
	return vars
}

// NumVars reports how many variables have been allocated so far.
func (s *Space) NumVars() int {
	return int(s.counter.Load())
}

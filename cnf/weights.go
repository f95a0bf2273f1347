package cnf

import (
	"errors"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

var (
	// ErrZeroWeightSum reports a variable whose two polarity weights sum
	// to zero, which makes normalization impossible.
	ErrZeroWeightSum = errors.New("weight pair sums to zero")
	// ErrDomainCollision reports a substitution that would map two
	// weighted variables onto the same handle.
	ErrDomainCollision = errors.New("substitution collides on weight domain")
)

type weightPair struct {
	ifFalse, ifTrue   float64
	hasFalse, hasTrue bool
}

// WeightFunction maps each variable of its domain to an optional weight
// per polarity. A variable enters the domain as soon as either polarity is
// set. Missing values resolve lazily: the complement of the other polarity
// when that one is set, 0.5 when both are missing. Every consumer of
// weights in this module resolves through the same rule.
type WeightFunction struct {
	weights map[Var]weightPair
}

func NewWeightFunction() *WeightFunction {
	return &WeightFunction{weights: make(map[Var]weightPair)}
}

// SetWeight assigns the weight used when v takes the given polarity.
func (w *WeightFunction) SetWeight(v Var, polarity bool, weight float64) {
	p := w.weights[v]
	if polarity {
		p.ifTrue = weight
		p.hasTrue = true
	} else {
		p.ifFalse = weight
		p.hasFalse = true
	}
	w.weights[v] = p
}

// SetPair assigns both polarities of v at once.
func (w *WeightFunction) SetPair(v Var, ifFalse, ifTrue float64) {
	w.weights[v] = weightPair{ifFalse: ifFalse, ifTrue: ifTrue, hasFalse: true, hasTrue: true}
}

// SetUnit gives every listed variable weight 1 for both polarities, the
// neutral weighting used for register and auxiliary variables.
func (w *WeightFunction) SetUnit(vs ...Var) {
	for _, v := range vs {
		w.SetPair(v, 1, 1)
	}
}

// Weight returns the stored weight for (v, polarity) and whether it is set.
// Variables outside the domain report unset.
func (w *WeightFunction) Weight(v Var, polarity bool) (float64, bool) {
	p, ok := w.weights[v]
	if !ok {
		return 0, false
	}
	if polarity {
		return p.ifTrue, p.hasTrue
	}
	return p.ifFalse, p.hasFalse
}

// Derived resolves (v, polarity) through the missing-value rule. A
// variable outside the domain resolves to 0.5 either way.
func (w *WeightFunction) Derived(v Var, polarity bool) float64 {
	p := w.weights[v]
	if polarity {
		if p.hasTrue {
			return p.ifTrue
		}
		if p.hasFalse {
			return 1 - p.ifFalse
		}
	} else {
		if p.hasFalse {
			return p.ifFalse
		}
		if p.hasTrue {
			return 1 - p.ifTrue
		}
	}
	return 0.5
}

// Has reports domain membership.
func (w *WeightFunction) Has(v Var) bool {
	_, ok := w.weights[v]
	return ok
}

// Fill assigns def to every missing polarity of the current domain.
func (w *WeightFunction) Fill(def float64) {
	for v, p := range w.weights {
		if !p.hasFalse {
			p.ifFalse = def
			p.hasFalse = true
		}
		if !p.hasTrue {
			p.ifTrue = def
			p.hasTrue = true
		}
		w.weights[v] = p
	}
}

// Domain returns the weighted variables in ascending handle order.
func (w *WeightFunction) Domain() []Var {
	vars := make([]Var, 0, len(w.weights))
	for v := range w.weights {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	return vars
}

// DomainSet returns the domain as a set.
func (w *WeightFunction) DomainSet() mapset.Set[Var] {
	s := mapset.NewSet[Var]()
	for v := range w.weights {
		s.Add(v)
	}
	return s
}

// Len reports the domain size.
func (w *WeightFunction) Len() int {
	return len(w.weights)
}

// Copy returns an independent weight function with the same assignments.
func (w *WeightFunction) Copy() *WeightFunction {
	out := NewWeightFunction()
	for v, p := range w.weights {
		out.weights[v] = p
	}
	return out
}

// Combine merges two weight functions over the union of their domains.
// Where both define a polarity the weights are merged with op; where only
// one side defines it that value is kept; otherwise it stays missing.
func (w *WeightFunction) Combine(other *WeightFunction, op func(a, b float64) float64) *WeightFunction {
	out := w.Copy()
	for v, p := range other.weights {
		q, ok := out.weights[v]
		if !ok {
			out.weights[v] = p
			continue
		}
		if p.hasFalse {
			if q.hasFalse {
				q.ifFalse = op(q.ifFalse, p.ifFalse)
			} else {
				q.ifFalse = p.ifFalse
				q.hasFalse = true
			}
		}
		if p.hasTrue {
			if q.hasTrue {
				q.ifTrue = op(q.ifTrue, p.ifTrue)
			} else {
				q.ifTrue = p.ifTrue
				q.hasTrue = true
			}
		}
		out.weights[v] = q
	}
	return out
}

// Subst renames from to to. See BulkSubst.
func (w *WeightFunction) Subst(from, to Var) error {
	return w.BulkSubst(map[Var]Var{from: to})
}

// BulkSubst renames domain variables simultaneously, so swaps are legal.
// Two variables ending up on the same handle is ErrDomainCollision and
// leaves the weight function unchanged.
func (w *WeightFunction) BulkSubst(m map[Var]Var) error {
	renamed := make(map[Var]weightPair, len(w.weights))
	for v, p := range w.weights {
		target := v
		if to, ok := m[v]; ok {
			target = to
		}
		if _, dup := renamed[target]; dup {
			return fmt.Errorf("%w: v%d", ErrDomainCollision, target)
		}
		renamed[target] = p
	}
	w.weights = renamed
	return nil
}

// Equal reports whether both weight functions assign the same (possibly
// missing) weights over the same domain.
func (w *WeightFunction) Equal(other *WeightFunction) bool {
	if len(w.weights) != len(other.weights) {
		return false
	}
	for v, p := range w.weights {
		q, ok := other.weights[v]
		if !ok || p != q {
			return false
		}
	}
	return true
}

// Normalize resolves every missing value, then rescales each pair to sum
// to one, returning the product of the pre-scale sums. The weighted count
// of any formula under the original weights equals the returned factor
// times its count under the normalized weights. A pair summing to zero is
// ErrZeroWeightSum.
func (w *WeightFunction) Normalize() (float64, error) {
	factor := 1.0
	for _, v := range w.Domain() {
		f := w.Derived(v, false)
		t := w.Derived(v, true)
		sum := f + t
		if sum == 0 {
			return 0, fmt.Errorf("%w: v%d", ErrZeroWeightSum, v)
		}
		w.weights[v] = weightPair{
			ifFalse: f / sum, ifTrue: t / sum,
			hasFalse: true, hasTrue: true,
		}
		factor *= sum
	}
	return factor, nil
}

// ModelCount sums, over every assignment of the domain satisfying f, the
// product of the assigned literals' derived weights. Variables of f
// outside the domain evaluate as false. It enumerates all 2^|domain|
// assignments and exists as the ground-truth oracle for small instances;
// anything serious goes through a model counter.
func (w *WeightFunction) ModelCount(f CNF) float64 {
	domain := w.Domain()
	assign := make(map[Var]bool, len(domain))
	total := 0.0
	for mask := uint64(0); mask < 1<<uint(len(domain)); mask++ {
		weight := 1.0
		for i, v := range domain {
			val := mask&(1<<uint(i)) != 0
			assign[v] = val
			weight *= w.Derived(v, val)
		}
		if f.Eval(assign) {
			total += weight
		}
	}
	return total
}

// TotalWeight is the weighted count of the empty formula: the sum of the
// products of derived weights over all assignments.
func (w *WeightFunction) TotalWeight() float64 {
	return w.ModelCount(nil)
}

// FreeMass is TotalWeight in closed form: the product over the domain of
// the two derived weights' sum.
func (w *WeightFunction) FreeMass() float64 {
	mass := 1.0
	for v := range w.weights {
		mass *= w.Derived(v, false) + w.Derived(v, true)
	}
	return mass
}

// PinnedMass is the weight of the all-false assignment: the product of the
// derived false weights over the domain.
func (w *WeightFunction) PinnedMass() float64 {
	mass := 1.0
	for v := range w.weights {
		mass *= w.Derived(v, false)
	}
	return mass
}

package matrix

import (
	"errors"
	"fmt"
	"math"

	"spinwmc/cnf"
)

// ErrGateIndex rejects gate construction over an index whose registers
// are not single boolean variables.
var ErrGateIndex = errors.New("gates need a binary-encoded two-state index")

func gateIndex(ix *Index) error {
	if ix.q != 2 || ix.enc != Binary {
		return fmt.Errorf("%w: got %s", ErrGateIndex, ix)
	}
	return nil
}

// PauliX is the bit flip [[0,1],[1,0]]: input and output variable must
// disagree.
func PauliX(ix *Index) (*WCNF, error) {
	if err := gateIndex(ix); err != nil {
		return nil, err
	}
	w := cnf.NewWeightFunction()
	in := freshUnitReps(ix, 1, w)
	out := freshUnitReps(ix, 1, w)
	x := in[0].Vars()[0]
	y := out[0].Vars()[0]
	f := cnf.New(
		cnf.C(x.Pos(), y.Pos()),
		cnf.C(x.Neg(), y.Neg()))
	return NewWCNF(ix, f, w, in, out)
}

// PauliZ is the phase flip [[1,0],[0,-1]]: a diagonal matrix carried
// entirely by the shared register's weights.
func PauliZ(ix *Index) (*WCNF, error) {
	if err := gateIndex(ix); err != nil {
		return nil, err
	}
	w := cnf.NewWeightFunction()
	rep := ix.NewRep()
	w.SetPair(rep.Vars()[0], 1, -1)
	reps := []Rep{rep}
	return NewWCNF(ix, cnf.New(), w, reps, reps)
}

// Hadamard is 1/sqrt2 [[1,1],[1,-1]]. An auxiliary variable tracks the
// conjunction of input and output and carries the sign.
func Hadamard(ix *Index) (*WCNF, error) {
	if err := gateIndex(ix); err != nil {
		return nil, err
	}
	w := cnf.NewWeightFunction()
	in := freshUnitReps(ix, 1, w)
	out := freshUnitReps(ix, 1, w)
	x := in[0].Vars()[0]
	y := out[0].Vars()[0]
	r := ix.space.Fresh()
	w.SetPair(r, 1/math.Sqrt2, -1/math.Sqrt2)
	f := cnf.New(
		cnf.C(r.Neg(), x.Pos()),
		cnf.C(r.Neg(), y.Pos()),
		cnf.C(r.Pos(), x.Neg(), y.Neg()))
	return NewWCNF(ix, f, w, in, out)
}

// ExpZ is exp(theta Z) == diag(e^theta, e^-theta).
func ExpZ(ix *Index, theta float64) (*WCNF, error) {
	if err := gateIndex(ix); err != nil {
		return nil, err
	}
	w := cnf.NewWeightFunction()
	rep := ix.NewRep()
	w.SetPair(rep.Vars()[0], math.Exp(theta), math.Exp(-theta))
	reps := []Rep{rep}
	return NewWCNF(ix, cnf.New(), w, reps, reps)
}

// ExpZZ is exp(theta Z kron Z), the two-site coupling layer: diagonal
// with e^theta on equal digits and e^-theta on differing ones. An
// auxiliary variable tracks the digit equality and carries the weights.
func ExpZZ(ix *Index, theta float64) (*WCNF, error) {
	if err := gateIndex(ix); err != nil {
		return nil, err
	}
	w := cnf.NewWeightFunction()
	reps := freshUnitReps(ix, 2, w)
	x := reps[0].Vars()[0]
	y := reps[1].Vars()[0]
	r := ix.space.Fresh()
	w.SetPair(r, math.Exp(-theta), math.Exp(theta))
	f := cnf.New(
		cnf.C(r.Neg(), x.Pos(), y.Neg()),
		cnf.C(r.Neg(), x.Neg(), y.Pos()),
		cnf.C(r.Pos(), x.Pos(), y.Pos()),
		cnf.C(r.Pos(), x.Neg(), y.Neg()))
	return NewWCNF(ix, f, w, reps, reps)
}

package matrix

import (
	"errors"
	"fmt"

	"spinwmc/cnf"
	"spinwmc/count"
)

// ErrUncoveredVar reports a formula or register variable missing from a
// matrix's weight domain.
var ErrUncoveredVar = errors.New("variable not covered by weight function")

// WCNF is a matrix represented as a weighted CNF formula: entry
// (row, col) is the weighted model count of the formula with the output
// registers fixed to row's digits and the input registers fixed to
// col's, most significant factor first.
//
// Every variable occurring in the formula or in a register lies in the
// weight domain. Distinct matrices never share variables; operations
// work on fresh renamings of their operands, so operands stay valid and
// may be reused.
type WCNF struct {
	index   *Index
	formula cnf.CNF
	weights *cnf.WeightFunction
	inputs  []Rep
	outputs []Rep
}

// NewWCNF validates and assembles a symbolic matrix. Registers must use
// the index's encoding and cardinality, and the weight domain must cover
// the formula and all registers.
func NewWCNF(ix *Index, formula cnf.CNF, weights *cnf.WeightFunction, inputs, outputs []Rep) (*WCNF, error) {
	dom := weights.DomainSet()
	for _, reps := range [][]Rep{inputs, outputs} {
		for _, r := range reps {
			if r.Encoding() != ix.enc || r.Q() != ix.q {
				return nil, fmt.Errorf("%w: %s q=%d register in %s", ErrRepMismatch, r.Encoding(), r.Q(), ix)
			}
			for _, v := range r.Vars() {
				if !dom.Contains(v) {
					return nil, fmt.Errorf("%w: register variable v%d", ErrUncoveredVar, v)
				}
			}
		}
	}
	if extra := formula.Vars().Difference(dom); extra.Cardinality() > 0 {
		v, _ := extra.Pop()
		return nil, fmt.Errorf("%w: formula variable v%d", ErrUncoveredVar, v)
	}
	return &WCNF{
		index:   ix,
		formula: formula,
		weights: weights,
		inputs:  append([]Rep(nil), inputs...),
		outputs: append([]Rep(nil), outputs...),
	}, nil
}

func (m *WCNF) Index() *Index { return m.index }

// Formula exposes the matrix's clause set. Treat it as read-only.
func (m *WCNF) Formula() cnf.CNF { return m.formula }

// Weights exposes the matrix's weight function. Treat it as read-only.
func (m *WCNF) Weights() *cnf.WeightFunction { return m.weights }

func (m *WCNF) Inputs() []Rep  { return append([]Rep(nil), m.inputs...) }
func (m *WCNF) Outputs() []Rep { return append([]Rep(nil), m.outputs...) }

func (m *WCNF) InFactors() int  { return len(m.inputs) }
func (m *WCNF) OutFactors() int { return len(m.outputs) }
func (m *WCNF) Rows() int       { return powInt(m.index.q, len(m.outputs)) }
func (m *WCNF) Cols() int       { return powInt(m.index.q, len(m.inputs)) }

func (m *WCNF) String() string {
	return fmt.Sprintf("WCNF(%dx%d, %d clauses, %d vars)", m.Rows(), m.Cols(), len(m.formula), m.weights.Len())
}

// fresh renames the whole matrix onto variables never used before.
// Register sharing within the matrix survives because shared variables
// map to one target.
func (m *WCNF) fresh() *WCNF {
	mapping := make(map[cnf.Var]cnf.Var, m.weights.Len())
	for _, v := range m.weights.Domain() {
		mapping[v] = m.index.space.Fresh()
	}
	weights := m.weights.Copy()
	if err := weights.BulkSubst(mapping); err != nil {
		// fresh targets are distinct, collisions cannot happen
		panic(err)
	}
	return &WCNF{
		index:   m.index,
		formula: m.formula.BulkSubst(mapping),
		weights: weights,
		inputs:  renameReps(m.inputs, mapping),
		outputs: renameReps(m.outputs, mapping),
	}
}

func (m *WCNF) Copy() Matrix { return m.fresh() }

func renameReps(reps []Rep, mapping map[cnf.Var]cnf.Var) []Rep {
	out := make([]Rep, len(reps))
	for i, r := range reps {
		out[i] = r.Rename(mapping)
	}
	return out
}

// freshUnitReps allocates n registers and gives their variables unit
// weights in w.
func freshUnitReps(ix *Index, n int, w *cnf.WeightFunction) []Rep {
	reps := make([]Rep, n)
	for i := range reps {
		reps[i] = ix.NewRep()
		w.SetUnit(reps[i].Vars()...)
	}
	return reps
}

// withLit adds the literal to every clause, so the formula is enforced
// exactly when the literal is false.
func withLit(f cnf.CNF, l cnf.Lit) cnf.CNF {
	return cnf.New(cnf.C(l)).Or(f)
}

func mulWeights(a, b float64) float64 { return a * b }

// Bra is the row vector selecting the given basis elements, first
// element most significant.
func Bra(elems ...BasisElement) (*WCNF, error) {
	ix, f, w, reps, err := basisReps(elems)
	if err != nil {
		return nil, err
	}
	return NewWCNF(ix, f, w, reps, nil)
}

// Ket is the column vector for the given basis elements.
func Ket(elems ...BasisElement) (*WCNF, error) {
	ix, f, w, reps, err := basisReps(elems)
	if err != nil {
		return nil, err
	}
	return NewWCNF(ix, f, w, nil, reps)
}

func basisReps(elems []BasisElement) (*Index, cnf.CNF, *cnf.WeightFunction, []Rep, error) {
	if len(elems) == 0 {
		return nil, nil, nil, nil, ErrNoOperands
	}
	ix := elems[0].index
	f := cnf.New()
	w := cnf.NewWeightFunction()
	reps := make([]Rep, len(elems))
	for i, e := range elems {
		if e.index != ix {
			return nil, nil, nil, nil, ErrIndexMismatch
		}
		reps[i] = ix.NewRep()
		w.SetUnit(reps[i].Vars()...)
		eq, err := reps[i].Equals(e.value)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		f = f.And(eq)
	}
	return ix, f, w, reps, nil
}

// Identity is the identity on n factors: input and output registers are
// the same, so fixing both to the same value is the only way to satisfy
// an entry.
func Identity(ix *Index, n int) (*WCNF, error) {
	w := cnf.NewWeightFunction()
	reps := freshUnitReps(ix, n, w)
	return NewWCNF(ix, cnf.New(), w, reps, reps)
}

// Zero is the all-zero square matrix on n factors.
func Zero(ix *Index, n int) (*WCNF, error) {
	return zeroShaped(ix, n, n)
}

// zeroShaped pins a forced gate variable to weight zero, so every entry
// counts to zero while both pinned and free mass stay one.
func zeroShaped(ix *Index, inF, outF int) (*WCNF, error) {
	w := cnf.NewWeightFunction()
	ins := freshUnitReps(ix, inF, w)
	outs := freshUnitReps(ix, outF, w)
	g := ix.space.Fresh()
	w.SetPair(g, 1, 0)
	return NewWCNF(ix, cnf.New(cnf.C(g.Pos())), w, ins, outs)
}

// Product multiplies left to right: Product(a, b, c) is the matrix abc.
func Product(ms ...*WCNF) (*WCNF, error) {
	if len(ms) == 0 {
		return nil, ErrNoOperands
	}
	result := ms[0].fresh()
	for _, next := range ms[1:] {
		var err error
		result, err = mul2(result, next)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// mul2 contracts a's inputs with b's outputs: fresh copies of both
// operands conjoined, each contracted register pair biconditioned and
// bounded to valid values.
func mul2(a, b *WCNF) (*WCNF, error) {
	if a.index != b.index {
		return nil, ErrIndexMismatch
	}
	if len(a.inputs) != len(b.outputs) {
		return nil, fmt.Errorf("%w: %dx%d times %dx%d", ErrShapeMismatch, a.Rows(), a.Cols(), b.Rows(), b.Cols())
	}
	left, right := a.fresh(), b.fresh()
	f := left.formula.And(right.formula)
	for k := range left.inputs {
		eq, err := right.outputs[k].EqualsRep(left.inputs[k])
		if err != nil {
			return nil, err
		}
		f = f.And(eq, right.outputs[k].LessThanQ())
	}
	w := left.weights.Combine(right.weights, mulWeights)
	return NewWCNF(a.index, f, w, right.inputs, left.outputs)
}

// Term is one addend of a linear combination.
type Term struct {
	Factor float64
	M      *WCNF
}

// LinearComb builds the weighted sum of its addends. One selector
// variable per addend picks which one an assignment contributes to:
// the selected addend's clauses and its links to the shared boundary
// registers are enforced, every other addend is pinned to its all-false
// assignment, and the selector's true weight divides out the pinned
// mass those frozen addends still contribute.
func LinearComb(terms ...Term) (*WCNF, error) {
	if len(terms) == 0 {
		return nil, ErrNoOperands
	}
	first := terms[0].M
	for _, t := range terms[1:] {
		if t.M.index != first.index {
			return nil, ErrIndexMismatch
		}
		if len(t.M.inputs) != len(first.inputs) || len(t.M.outputs) != len(first.outputs) {
			return nil, fmt.Errorf("%w: %dx%d plus %dx%d", ErrShapeMismatch, first.Rows(), first.Cols(), t.M.Rows(), t.M.Cols())
		}
	}
	if len(terms) == 1 {
		return terms[0].M.scaled(terms[0].Factor)
	}

	ix := first.index
	w := cnf.NewWeightFunction()
	sharedIn := freshUnitReps(ix, len(first.inputs), w)
	sharedOut := freshUnitReps(ix, len(first.outputs), w)
	selectors := ix.space.FreshVars(len(terms))

	atLeast := make(cnf.Clause, len(selectors))
	for i, s := range selectors {
		atLeast[i] = s.Pos()
	}
	f := cnf.New(atLeast)
	for i := 0; i < len(selectors); i++ {
		for j := i + 1; j < len(selectors); j++ {
			f = append(f, cnf.C(selectors[i].Neg(), selectors[j].Neg()))
		}
	}

	masses := make([]float64, len(terms))
	for k, t := range terms {
		addend := t.M.fresh()
		masses[k] = addend.weights.PinnedMass()
		gated := addend.formula
		for j, r := range addend.inputs {
			eq, err := r.EqualsRep(sharedIn[j])
			if err != nil {
				return nil, err
			}
			gated = gated.And(eq)
		}
		for j, r := range addend.outputs {
			eq, err := r.EqualsRep(sharedOut[j])
			if err != nil {
				return nil, err
			}
			gated = gated.And(eq)
		}
		f = f.And(withLit(gated, selectors[k].Neg()))
		for _, v := range addend.weights.Domain() {
			f = append(f, cnf.C(v.Neg(), selectors[k].Pos()))
		}
		w = w.Combine(addend.weights, mulWeights)
	}
	for k, t := range terms {
		div := 1.0
		for j, mass := range masses {
			if j != k {
				div *= mass
			}
		}
		if div == 0 {
			return nil, fmt.Errorf("%w: addend %d", ErrZeroPinnedMass, k)
		}
		w.SetPair(selectors[k], 1, t.Factor/div)
	}
	return NewWCNF(ix, f, w, sharedIn, sharedOut)
}

// scaled multiplies every entry by factor, preferring to fold the factor
// into an existing weight pair.
func (m *WCNF) scaled(factor float64) (*WCNF, error) {
	if factor == 0 {
		return zeroShaped(m.index, len(m.inputs), len(m.outputs))
	}
	out := m.fresh()
	if factor == 1 {
		return out, nil
	}
	domain := out.weights.Domain()
	if len(domain) == 0 {
		g := m.index.space.Fresh()
		out.formula = out.formula.And(cnf.New(cnf.C(g.Pos())))
		out.weights.SetPair(g, 1, factor)
		return out, nil
	}
	v := domain[0]
	ifFalse := out.weights.Derived(v, false)
	ifTrue := out.weights.Derived(v, true)
	out.weights.SetPair(v, ifFalse*factor, ifTrue*factor)
	return out, nil
}

// Kron is the n-ary tensor product, first operand most significant.
func Kron(ms ...*WCNF) (*WCNF, error) {
	if len(ms) == 0 {
		return nil, ErrNoOperands
	}
	ix := ms[0].index
	f := cnf.New()
	w := cnf.NewWeightFunction()
	var ins, outs []Rep
	for _, m := range ms {
		if m.index != ix {
			return nil, ErrIndexMismatch
		}
		c := m.fresh()
		f = f.And(c.formula)
		w = w.Combine(c.weights, mulWeights)
		ins = append(ins, c.inputs...)
		outs = append(outs, c.outputs...)
	}
	return NewWCNF(ix, f, w, ins, outs)
}

// permute implements Matrix.Permute for the symbolic form. Referenced
// factors are rewired by reusing their registers, the i-th -1 of src and
// dst share one fresh register, and registers no longer referenced stay
// in the formula bounded to valid values, which sums them over.
func (m *WCNF) permute(src, dst []int) (*WCNF, error) {
	srcExtra, err := checkPerm(src, len(m.inputs))
	if err != nil {
		return nil, err
	}
	dstExtra, err := checkPerm(dst, len(m.outputs))
	if err != nil {
		return nil, err
	}
	if len(srcExtra) != len(dstExtra) {
		return nil, fmt.Errorf("%w: %d fresh inputs vs %d fresh outputs", ErrShapeMismatch, len(srcExtra), len(dstExtra))
	}
	out := m.fresh()
	extras := freshUnitReps(m.index, len(srcExtra), out.weights)

	newIn := make([]Rep, len(src))
	nextExtra := 0
	usedIn := make(map[int]bool, len(src))
	for k, p := range src {
		if p == -1 {
			newIn[k] = extras[nextExtra]
			nextExtra++
			continue
		}
		newIn[k] = out.inputs[p]
		usedIn[p] = true
	}
	newOut := make([]Rep, len(dst))
	nextExtra = 0
	usedOut := make(map[int]bool, len(dst))
	for k, p := range dst {
		if p == -1 {
			newOut[k] = extras[nextExtra]
			nextExtra++
			continue
		}
		newOut[k] = out.outputs[p]
		usedOut[p] = true
	}

	f := out.formula
	for p, r := range out.inputs {
		if !usedIn[p] {
			f = f.And(r.LessThanQ())
		}
	}
	for p, r := range out.outputs {
		if !usedOut[p] {
			f = f.And(r.LessThanQ())
		}
	}
	return NewWCNF(m.index, f, out.weights, newIn, newOut)
}

// TraceFormula returns the formula and weights whose weighted count is
// the matrix's trace: every input register biconditioned to its output
// partner and bounded to valid values. The weight function is the
// matrix's own; treat both as read-only.
func (m *WCNF) TraceFormula() (cnf.CNF, *cnf.WeightFunction, error) {
	if len(m.inputs) != len(m.outputs) {
		return nil, nil, fmt.Errorf("%w: trace of %dx%d", ErrShapeMismatch, m.Rows(), m.Cols())
	}
	f := m.formula
	for k := range m.inputs {
		eq, err := m.inputs[k].EqualsRep(m.outputs[k])
		if err != nil {
			return nil, nil, err
		}
		f = f.And(eq, m.inputs[k].LessThanQ())
	}
	return f, m.weights, nil
}

// Exp is the Taylor exponential truncated after the given number of
// terms: the sum of M^k / k! for k = 0 through terms-1.
//
// The construction chains terms-1 copies of M between shared boundary
// registers. Gate variables select how many leading copies apply; a gate
// that is off turns its copy into a pass-through by biconditioning the
// surrounding boundary registers, pinning the copy's variables false and
// cancelling their pinned mass through the gate's false weight. The k-th
// gate's true weight 1/k accumulates to the 1/k! coefficient.
func (m *WCNF) Exp(terms int) (*WCNF, error) {
	if len(m.inputs) != len(m.outputs) {
		return nil, fmt.Errorf("%w: exponential of %dx%d", ErrShapeMismatch, m.Rows(), m.Cols())
	}
	if terms < 1 {
		return nil, fmt.Errorf("%w: exponential needs at least one term", ErrNoOperands)
	}
	n := len(m.inputs)
	w := cnf.NewWeightFunction()
	f := cnf.New()
	chains := make([][]Rep, terms)
	for t := range chains {
		chains[t] = freshUnitReps(m.index, n, w)
	}
	gates := m.index.space.FreshVars(terms - 1)
	for i := 1; i < terms; i++ {
		layer := m.fresh()
		g := gates[i-1]
		if i >= 2 {
			f = append(f, cnf.C(g.Neg(), gates[i-2].Pos()))
		}
		gated := layer.formula
		for k := 0; k < n; k++ {
			in, err := layer.inputs[k].EqualsRep(chains[i-1][k])
			if err != nil {
				return nil, err
			}
			out, err := layer.outputs[k].EqualsRep(chains[i][k])
			if err != nil {
				return nil, err
			}
			gated = gated.And(in, out)
		}
		f = f.And(withLit(gated, g.Neg()))
		pass := cnf.New()
		for k := 0; k < n; k++ {
			eq, err := chains[i-1][k].EqualsRep(chains[i][k])
			if err != nil {
				return nil, err
			}
			pass = pass.And(eq)
		}
		f = f.And(withLit(pass, g.Pos()))
		for _, v := range layer.weights.Domain() {
			f = append(f, cnf.C(v.Neg(), g.Pos()))
		}
		pinned := layer.weights.PinnedMass()
		if pinned == 0 {
			return nil, fmt.Errorf("%w: exponential layer %d", ErrZeroPinnedMass, i)
		}
		w = w.Combine(layer.weights, mulWeights)
		w.SetPair(g, 1/pinned, 1/float64(i))
	}
	for t := 1; t < terms-1; t++ {
		for _, r := range chains[t] {
			f = f.And(r.LessThanQ())
		}
	}
	return NewWCNF(m.index, f, w, chains[0], chains[terms-1])
}

// EntryFormula fixes the boundary registers to the entry's digits. The
// weight function is the matrix's own; treat both as read-only.
func (m *WCNF) EntryFormula(row, col int) (cnf.CNF, *cnf.WeightFunction, error) {
	rowDigits, err := digitsOf(row, m.index.q, len(m.outputs))
	if err != nil {
		return nil, nil, fmt.Errorf("row %d: %w", row, err)
	}
	colDigits, err := digitsOf(col, m.index.q, len(m.inputs))
	if err != nil {
		return nil, nil, fmt.Errorf("col %d: %w", col, err)
	}
	f := m.formula
	for k, r := range m.outputs {
		eq, err := r.Equals(rowDigits[k])
		if err != nil {
			return nil, nil, err
		}
		f = f.And(eq)
	}
	for k, r := range m.inputs {
		eq, err := r.Equals(colDigits[k])
		if err != nil {
			return nil, nil, err
		}
		f = f.And(eq)
	}
	return f, m.weights, nil
}

// Value realizes every entry through the counter in one batch.
func (m *WCNF) Value(ctr count.Counter) (*Concrete, error) {
	rows, cols := m.Rows(), m.Cols()
	problems := make([]count.Problem, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			f, w, err := m.EntryFormula(i, j)
			if err != nil {
				return nil, err
			}
			problems = append(problems, count.Problem{Formula: f, Weights: w})
		}
	}
	results := ctr.BatchModelCount(problems...)
	values := make([][]float64, rows)
	for i := range values {
		values[i] = make([]float64, cols)
	}
	for idx, res := range results {
		if !res.Success {
			return nil, fmt.Errorf("%w: entry (%d,%d)", ErrCountFailed, idx/cols, idx%cols)
		}
		values[idx/cols][idx%cols] = res.Count
	}
	return NewConcrete(m.index, values)
}

// Interface forms of the binary operations.

func (m *WCNF) otherWCNF(o Matrix) (*WCNF, error) {
	s, ok := o.(*WCNF)
	if !ok {
		return nil, fmt.Errorf("%w: %T with %T", ErrKindMismatch, m, o)
	}
	return s, nil
}

func (m *WCNF) Mul(o Matrix) (Matrix, error) {
	s, err := m.otherWCNF(o)
	if err != nil {
		return nil, err
	}
	return Product(m, s)
}

func (m *WCNF) Add(o Matrix) (Matrix, error) {
	s, err := m.otherWCNF(o)
	if err != nil {
		return nil, err
	}
	return LinearComb(Term{1, m}, Term{1, s})
}

func (m *WCNF) Scale(factor float64) (Matrix, error) {
	return m.scaled(factor)
}

func (m *WCNF) Kron(o Matrix) (Matrix, error) {
	s, err := m.otherWCNF(o)
	if err != nil {
		return nil, err
	}
	return Kron(m, s)
}

func (m *WCNF) Permute(src, dst []int) (Matrix, error) {
	return m.permute(src, dst)
}

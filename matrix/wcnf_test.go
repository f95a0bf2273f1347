package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinwmc/cnf"
	"spinwmc/count"
)

// value realizes a matrix by exhaustive enumeration.
func value(t *testing.T, m Matrix) *Concrete {
	t.Helper()
	got, err := m.Value(count.Brute{})
	require.NoError(t, err)
	return got
}

// valueSAT realizes a matrix through the SAT enumeration counter, for
// constructions whose variable count outgrows brute force.
func valueSAT(t *testing.T, m Matrix) *Concrete {
	t.Helper()
	got, err := m.Value(count.Gophersat{})
	require.NoError(t, err)
	return got
}

func pauliX(t *testing.T, ix *Index) *WCNF {
	t.Helper()
	m, err := PauliX(ix)
	require.NoError(t, err)
	return m
}

func pauliZ(t *testing.T, ix *Index) *WCNF {
	t.Helper()
	m, err := PauliZ(ix)
	require.NoError(t, err)
	return m
}

func TestBraKetValue(t *testing.T) {
	sp := cnf.NewSpace()
	ix, err := NewIndex(sp, 3)
	require.NoError(t, err)
	e1, err := ix.Basis(1)
	require.NoError(t, err)
	e2, err := ix.Basis(2)
	require.NoError(t, err)

	bra, err := Bra(e1, e2)
	require.NoError(t, err)
	assert.Equal(t, 1, bra.Rows())
	assert.Equal(t, 9, bra.Cols())
	got := value(t, bra)
	for j := 0; j < 9; j++ {
		want := 0.0
		if j == 5 {
			want = 1.0
		}
		assert.InDelta(t, want, got.At(0, j), 1e-12, "column %d", j)
	}

	ket, err := Ket(e2)
	require.NoError(t, err)
	assert.Equal(t, 3, ket.Rows())
	assert.Equal(t, 1, ket.Cols())
	kv := value(t, ket)
	assert.InDelta(t, 1.0, kv.At(2, 0), 1e-12)

	_, err = Bra()
	assert.ErrorIs(t, err, ErrNoOperands)
}

func TestBraKetContraction(t *testing.T) {
	sp := cnf.NewSpace()
	ix, err := NewIndex(sp, 3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ei, err := ix.Basis(i)
			require.NoError(t, err)
			ej, err := ix.Basis(j)
			require.NoError(t, err)
			bra, err := Bra(ei)
			require.NoError(t, err)
			ket, err := Ket(ej)
			require.NoError(t, err)
			inner, err := Product(bra, ket)
			require.NoError(t, err)

			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, value(t, inner).At(0, 0), 1e-12, "<%d|%d>", i, j)
		}
	}
}

func TestIdentityValue(t *testing.T) {
	for _, q := range []int{2, 3} {
		sp := cnf.NewSpace()
		ix, err := NewIndex(sp, q)
		require.NoError(t, err)
		id, err := Identity(ix, 1)
		require.NoError(t, err)
		assert.True(t, value(t, id).AlmostEqual(ConcreteIdentity(ix, 1), 1e-12), "q=%d", q)
	}

	sp := cnf.NewSpace()
	ix, err := NewIndex(sp, 2)
	require.NoError(t, err)
	id2, err := Identity(ix, 2)
	require.NoError(t, err)
	assert.True(t, value(t, id2).AlmostEqual(ConcreteIdentity(ix, 2), 1e-12))

	scalar, err := Identity(ix, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, value(t, scalar).At(0, 0), 1e-12)
}

func TestZeroValue(t *testing.T) {
	sp := cnf.NewSpace()
	ix, err := NewIndex(sp, 2)
	require.NoError(t, err)
	zero, err := Zero(ix, 1)
	require.NoError(t, err)
	got := value(t, zero)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, 0.0, got.At(i, j), 1e-12)
		}
	}
}

func TestProductGates(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)
	z := pauliZ(t, ix)

	xz, err := Product(x, z)
	require.NoError(t, err)
	assert.True(t, value(t, xz).AlmostEqual(dense(t, ix, [][]float64{{0, -1}, {1, 0}}), 1e-12))

	zx, err := Product(z, x)
	require.NoError(t, err)
	assert.True(t, value(t, zx).AlmostEqual(dense(t, ix, [][]float64{{0, 1}, {-1, 0}}), 1e-12))

	xx, err := Product(x, x)
	require.NoError(t, err)
	assert.True(t, value(t, xx).AlmostEqual(ConcreteIdentity(ix, 1), 1e-12))
}

func TestProductWithIdentity(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)
	id, err := Identity(ix, 1)
	require.NoError(t, err)

	right, err := Product(x, id)
	require.NoError(t, err)
	assert.True(t, value(t, right).AlmostEqual(dense(t, ix, xValues), 1e-12))

	left, err := Product(id, x)
	require.NoError(t, err)
	assert.True(t, value(t, left).AlmostEqual(dense(t, ix, xValues), 1e-12))
}

func TestProductLeavesOperandsReusable(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)

	_, err := Product(x, x)
	require.NoError(t, err)
	// the operand is still the plain bit flip
	assert.True(t, value(t, x).AlmostEqual(dense(t, ix, xValues), 1e-12))
}

func TestProductChainMatchesConcrete(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)
	z := pauliZ(t, ix)

	chain, err := Product(x, z, x)
	require.NoError(t, err)

	cx := dense(t, ix, xValues)
	cz := dense(t, ix, zValues)
	step, err := cx.Mul(cz)
	require.NoError(t, err)
	want, err := step.Mul(cx)
	require.NoError(t, err)
	assert.True(t, value(t, chain).AlmostEqual(want.(*Concrete), 1e-12))
}

func TestLinearCombGates(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)
	z := pauliZ(t, ix)

	sum, err := LinearComb(Term{1, x}, Term{1, z})
	require.NoError(t, err)
	assert.True(t, value(t, sum).AlmostEqual(dense(t, ix, [][]float64{{1, 1}, {1, -1}}), 1e-12))

	mix, err := LinearComb(Term{2, x}, Term{-3, z})
	require.NoError(t, err)
	assert.True(t, value(t, mix).AlmostEqual(dense(t, ix, [][]float64{{-3, 2}, {2, 3}}), 1e-12))
}

func TestLinearCombRebuildsDenseMatrix(t *testing.T) {
	sp := cnf.NewSpace()
	ix, err := NewIndex(sp, 3)
	require.NoError(t, err)
	grid := [][]float64{
		{0.5, 0, -1},
		{2, 1.5, 0},
		{0, 3, -0.25},
	}

	var terms []Term
	for i := range grid {
		for j, a := range grid[i] {
			ei, err := ix.Basis(i)
			require.NoError(t, err)
			ej, err := ix.Basis(j)
			require.NoError(t, err)
			ket, err := Ket(ei)
			require.NoError(t, err)
			bra, err := Bra(ej)
			require.NoError(t, err)
			outer, err := Product(ket, bra)
			require.NoError(t, err)
			terms = append(terms, Term{a, outer})
		}
	}
	m, err := LinearComb(terms...)
	require.NoError(t, err)
	assert.True(t, valueSAT(t, m).AlmostEqual(dense(t, ix, grid), 1e-9))
}

func TestLinearCombErrors(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)
	wide, err := Identity(ix, 2)
	require.NoError(t, err)

	_, err = LinearComb()
	assert.ErrorIs(t, err, ErrNoOperands)

	_, err = LinearComb(Term{1, x}, Term{1, wide})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	other := qubitIndex(t)
	_, err = LinearComb(Term{1, x}, Term{1, pauliX(t, other)})
	assert.ErrorIs(t, err, ErrIndexMismatch)
}

func TestScaleValue(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)

	scaled, err := x.Scale(2.5)
	require.NoError(t, err)
	assert.True(t, value(t, scaled).AlmostEqual(dense(t, ix, [][]float64{{0, 2.5}, {2.5, 0}}), 1e-12))

	flipped, err := x.Scale(-1)
	require.NoError(t, err)
	assert.True(t, value(t, flipped).AlmostEqual(dense(t, ix, [][]float64{{0, -1}, {-1, 0}}), 1e-12))
}

func TestScaleZeroGivesZeroMatrix(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)

	zero, err := x.Scale(0)
	require.NoError(t, err)
	got := value(t, zero)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, 0.0, got.At(i, j), 1e-12)
		}
	}

	// a zero-scaled addend must not poison a sum
	sum, err := LinearComb(Term{1, zero.(*WCNF)}, Term{1, x})
	require.NoError(t, err)
	assert.True(t, value(t, sum).AlmostEqual(dense(t, ix, xValues), 1e-12))
}

func TestScaleScalarMatrix(t *testing.T) {
	ix := qubitIndex(t)
	one, err := Identity(ix, 0)
	require.NoError(t, err)

	scaled, err := one.Scale(2.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, value(t, scaled).At(0, 0), 1e-12)
}

func TestKronValue(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)
	z := pauliZ(t, ix)

	kron, err := Kron(x, z)
	require.NoError(t, err)
	cx := dense(t, ix, xValues)
	cz := dense(t, ix, zValues)
	want, err := cx.Kron(cz)
	require.NoError(t, err)
	got := value(t, kron)
	assert.True(t, got.AlmostEqual(want.(*Concrete), 1e-12))
	assert.InDelta(t, -1.0, got.At(1, 3), 1e-12)

	triple, err := Kron(x, z, x)
	require.NoError(t, err)
	wide, err := want.Kron(cx)
	require.NoError(t, err)
	assert.True(t, value(t, triple).AlmostEqual(wide.(*Concrete), 1e-12))
}

func TestPermuteSwapValue(t *testing.T) {
	ix := qubitIndex(t)
	kron, err := Kron(pauliX(t, ix), pauliZ(t, ix))
	require.NoError(t, err)

	swapped, err := kron.Permute([]int{1, 0}, []int{1, 0})
	require.NoError(t, err)
	want, err := dense(t, ix, zValues).Kron(dense(t, ix, xValues))
	require.NoError(t, err)
	assert.True(t, value(t, swapped).AlmostEqual(want.(*Concrete), 1e-12))
}

func TestPermuteDropSumsOver(t *testing.T) {
	for _, q := range []int{2, 3} {
		sp := cnf.NewSpace()
		ix, err := NewIndex(sp, q)
		require.NoError(t, err)
		id, err := Identity(ix, 2)
		require.NoError(t, err)

		dropped, err := id.Permute([]int{0}, []int{0})
		require.NoError(t, err)
		scaledID, err := ConcreteIdentity(ix, 1).Scale(float64(q))
		require.NoError(t, err)
		assert.True(t, value(t, dropped).AlmostEqual(scaledID.(*Concrete), 1e-12), "q=%d", q)
	}
}

func TestPermuteFreshFactor(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)

	lifted, err := x.Permute([]int{0, -1}, []int{0, -1})
	require.NoError(t, err)
	want, err := dense(t, ix, xValues).Kron(ConcreteIdentity(ix, 1))
	require.NoError(t, err)
	assert.True(t, value(t, lifted).AlmostEqual(want.(*Concrete), 1e-12))

	_, err = x.Permute([]int{-1}, []int{0})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = x.Permute([]int{3}, []int{0})
	assert.ErrorIs(t, err, ErrFactorRange)
}

func traceOf(t *testing.T, m *WCNF) float64 {
	t.Helper()
	f, w, err := m.TraceFormula()
	require.NoError(t, err)
	res := count.Brute{}.ModelCount(count.Problem{Formula: f, Weights: w})
	require.True(t, res.Success)
	return res.Count
}

func TestTraceFormula(t *testing.T) {
	ix := qubitIndex(t)

	assert.InDelta(t, 0.0, traceOf(t, pauliX(t, ix)), 1e-12)
	assert.InDelta(t, 0.0, traceOf(t, pauliZ(t, ix)), 1e-12)

	id2, err := Identity(ix, 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, traceOf(t, id2), 1e-12)

	sp := cnf.NewSpace()
	ternary, err := NewIndex(sp, 3)
	require.NoError(t, err)
	id3, err := Identity(ternary, 1)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, traceOf(t, id3), 1e-12)

	e0, err := ternary.Basis(0)
	require.NoError(t, err)
	bra, err := Bra(e0)
	require.NoError(t, err)
	_, _, err = bra.TraceFormula()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTraceOfProductMatchesConcrete(t *testing.T) {
	ix := qubitIndex(t)
	h, err := Hadamard(ix)
	require.NoError(t, err)

	hh, err := Product(h, h)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, traceOf(t, hh), 1e-9)
}

func TestExpMatchesConcrete(t *testing.T) {
	ix := qubitIndex(t)
	theta := 0.6

	sx, err := pauliX(t, ix).Scale(theta)
	require.NoError(t, err)
	exp, err := sx.(*WCNF).Exp(4)
	require.NoError(t, err)

	cref, err := dense(t, ix, xValues).Scale(theta)
	require.NoError(t, err)
	want, err := cref.(*Concrete).Exp(4)
	require.NoError(t, err)
	assert.True(t, value(t, exp).AlmostEqual(want, 1e-9))
}

func TestExpDiagonalMatchesConcrete(t *testing.T) {
	ix := qubitIndex(t)
	theta := 0.5

	sz, err := pauliZ(t, ix).Scale(theta)
	require.NoError(t, err)
	exp, err := sz.(*WCNF).Exp(4)
	require.NoError(t, err)

	cref, err := dense(t, ix, zValues).Scale(theta)
	require.NoError(t, err)
	want, err := cref.(*Concrete).Exp(4)
	require.NoError(t, err)
	assert.True(t, value(t, exp).AlmostEqual(want, 1e-9))
}

func TestExpOfZeroIsIdentity(t *testing.T) {
	ix := qubitIndex(t)
	zero, err := Zero(ix, 1)
	require.NoError(t, err)

	exp, err := zero.Exp(3)
	require.NoError(t, err)
	assert.True(t, value(t, exp).AlmostEqual(ConcreteIdentity(ix, 1), 1e-12))
}

func TestExpSingleTermIsIdentity(t *testing.T) {
	ix := qubitIndex(t)
	exp, err := pauliX(t, ix).Exp(1)
	require.NoError(t, err)
	assert.True(t, value(t, exp).AlmostEqual(ConcreteIdentity(ix, 1), 1e-12))
}

func TestExpErrors(t *testing.T) {
	ix := qubitIndex(t)
	_, err := pauliX(t, ix).Exp(0)
	assert.ErrorIs(t, err, ErrNoOperands)

	e0, err := ix.Basis(0)
	require.NoError(t, err)
	bra, err := Bra(e0)
	require.NoError(t, err)
	_, err = bra.Exp(2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestCopySharesNoVariables(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)

	c := x.Copy().(*WCNF)
	shared := x.Weights().DomainSet().Intersect(c.Weights().DomainSet())
	assert.Equal(t, 0, shared.Cardinality())
	assert.True(t, value(t, c).AlmostEqual(dense(t, ix, xValues), 1e-12))
}

func TestNewWCNFValidation(t *testing.T) {
	sp := cnf.NewSpace()
	ix, err := NewIndex(sp, 2)
	require.NoError(t, err)

	rep := ix.NewRep()
	w := cnf.NewWeightFunction()
	// register variable not weighted
	_, err = NewWCNF(ix, cnf.New(), w, []Rep{rep}, []Rep{rep})
	assert.ErrorIs(t, err, ErrUncoveredVar)

	w.SetUnit(rep.Vars()...)
	loose := sp.Fresh()
	_, err = NewWCNF(ix, cnf.New(cnf.C(loose.Pos())), w, []Rep{rep}, []Rep{rep})
	assert.ErrorIs(t, err, ErrUncoveredVar)

	hot := NewOneHotRep(sp, 2)
	hw := cnf.NewWeightFunction()
	hw.SetUnit(hot.Vars()...)
	_, err = NewWCNF(ix, cnf.New(), hw, []Rep{hot}, []Rep{hot})
	assert.ErrorIs(t, err, ErrRepMismatch)
}

func TestKindMismatch(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)
	c := dense(t, ix, xValues)

	_, err := x.Mul(c)
	assert.ErrorIs(t, err, ErrKindMismatch)
	_, err = c.Mul(x)
	assert.ErrorIs(t, err, ErrKindMismatch)
	_, err = x.Add(c)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestEntryFormulaRange(t *testing.T) {
	ix := qubitIndex(t)
	x := pauliX(t, ix)

	_, _, err := x.EntryFormula(2, 0)
	assert.ErrorIs(t, err, ErrValueRange)
	_, _, err = x.EntryFormula(0, -1)
	assert.ErrorIs(t, err, ErrValueRange)
}

type failingCounter struct{}

func (failingCounter) ModelCount(count.Problem) count.Result { return count.Result{} }
func (f failingCounter) BatchModelCount(problems ...count.Problem) []count.Result {
	return make([]count.Result, len(problems))
}
func (failingCounter) Available() bool { return false }

func TestValueReportsCounterFailure(t *testing.T) {
	ix := qubitIndex(t)
	_, err := pauliX(t, ix).Value(failingCounter{})
	assert.ErrorIs(t, err, ErrCountFailed)
}

func TestOneHotIdentityAndContraction(t *testing.T) {
	sp := cnf.NewSpace()
	ix, err := NewIndexEnc(sp, 3, OneHot)
	require.NoError(t, err)

	id, err := Identity(ix, 1)
	require.NoError(t, err)
	assert.True(t, value(t, id).AlmostEqual(ConcreteIdentity(ix, 1), 1e-12))

	e1, err := ix.Basis(1)
	require.NoError(t, err)
	bra, err := Bra(e1)
	require.NoError(t, err)
	ket, err := Ket(e1)
	require.NoError(t, err)
	inner, err := Product(bra, ket)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, value(t, inner).At(0, 0), 1e-12)
}

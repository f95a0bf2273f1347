package matrix

import (
	"fmt"
	"math"
	"strings"

	"spinwmc/count"
)

// Concrete is a dense matrix over an index. It implements the same
// operations as the symbolic form directly on entries, which makes it
// both the result type of realization and the oracle the symbolic
// constructions are tested against.
type Concrete struct {
	index  *Index
	values [][]float64
	inF    int
	outF   int
}

// NewConcrete wraps a rectangular value grid. Both dimensions must be
// powers of the index cardinality.
func NewConcrete(ix *Index, values [][]float64) (*Concrete, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShapeMismatch)
	}
	cols := len(values[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrShapeMismatch)
	}
	copied := make([][]float64, len(values))
	for i, row := range values {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: ragged row %d", ErrShapeMismatch, i)
		}
		copied[i] = append([]float64(nil), row...)
	}
	outF, err := factorsOf(len(values), ix.q)
	if err != nil {
		return nil, err
	}
	inF, err := factorsOf(cols, ix.q)
	if err != nil {
		return nil, err
	}
	return &Concrete{index: ix, values: copied, inF: inF, outF: outF}, nil
}

// ConcreteBra is the dense row vector selecting the given basis
// elements, first element most significant.
func ConcreteBra(elems ...BasisElement) (*Concrete, error) {
	ix, idx, err := basisPoint(elems)
	if err != nil {
		return nil, err
	}
	row := make([]float64, powInt(ix.q, len(elems)))
	row[idx] = 1
	return &Concrete{index: ix, values: [][]float64{row}, inF: len(elems), outF: 0}, nil
}

// ConcreteKet is the dense column vector for the given basis elements.
func ConcreteKet(elems ...BasisElement) (*Concrete, error) {
	ix, idx, err := basisPoint(elems)
	if err != nil {
		return nil, err
	}
	col := make([][]float64, powInt(ix.q, len(elems)))
	for i := range col {
		col[i] = []float64{0}
	}
	col[idx][0] = 1
	return &Concrete{index: ix, values: col, inF: 0, outF: len(elems)}, nil
}

func basisPoint(elems []BasisElement) (*Index, int, error) {
	if len(elems) == 0 {
		return nil, 0, ErrNoOperands
	}
	ix := elems[0].index
	idx := 0
	for _, e := range elems {
		if e.index != ix {
			return nil, 0, ErrIndexMismatch
		}
		idx = idx*ix.q + e.value
	}
	return ix, idx, nil
}

// ConcreteIdentity is the dense identity on n factors.
func ConcreteIdentity(ix *Index, n int) *Concrete {
	dim := powInt(ix.q, n)
	values := make([][]float64, dim)
	for i := range values {
		values[i] = make([]float64, dim)
		values[i][i] = 1
	}
	return &Concrete{index: ix, values: values, inF: n, outF: n}
}

func (m *Concrete) Index() *Index   { return m.index }
func (m *Concrete) Rows() int       { return len(m.values) }
func (m *Concrete) Cols() int       { return len(m.values[0]) }
func (m *Concrete) InFactors() int  { return m.inF }
func (m *Concrete) OutFactors() int { return m.outF }

// At reads entry (row, col).
func (m *Concrete) At(row, col int) float64 {
	return m.values[row][col]
}

func (m *Concrete) clone() *Concrete {
	values := make([][]float64, len(m.values))
	for i, row := range m.values {
		values[i] = append([]float64(nil), row...)
	}
	return &Concrete{index: m.index, values: values, inF: m.inF, outF: m.outF}
}

func (m *Concrete) Copy() Matrix { return m.clone() }

func (m *Concrete) other(o Matrix) (*Concrete, error) {
	c, ok := o.(*Concrete)
	if !ok {
		return nil, fmt.Errorf("%w: %T with %T", ErrKindMismatch, m, o)
	}
	if c.index != m.index {
		return nil, ErrIndexMismatch
	}
	return c, nil
}

func (m *Concrete) Mul(o Matrix) (Matrix, error) {
	c, err := m.other(o)
	if err != nil {
		return nil, err
	}
	if m.Cols() != c.Rows() {
		return nil, fmt.Errorf("%w: %dx%d times %dx%d", ErrShapeMismatch, m.Rows(), m.Cols(), c.Rows(), c.Cols())
	}
	values := make([][]float64, m.Rows())
	for i := range values {
		values[i] = make([]float64, c.Cols())
		for j := range values[i] {
			sum := 0.0
			for k := 0; k < m.Cols(); k++ {
				sum += m.values[i][k] * c.values[k][j]
			}
			values[i][j] = sum
		}
	}
	return &Concrete{index: m.index, values: values, inF: c.inF, outF: m.outF}, nil
}

func (m *Concrete) Add(o Matrix) (Matrix, error) {
	c, err := m.other(o)
	if err != nil {
		return nil, err
	}
	if m.Rows() != c.Rows() || m.Cols() != c.Cols() {
		return nil, fmt.Errorf("%w: %dx%d plus %dx%d", ErrShapeMismatch, m.Rows(), m.Cols(), c.Rows(), c.Cols())
	}
	out := m.clone()
	for i, row := range c.values {
		for j, v := range row {
			out.values[i][j] += v
		}
	}
	return out, nil
}

func (m *Concrete) Scale(factor float64) (Matrix, error) {
	out := m.clone()
	for i := range out.values {
		for j := range out.values[i] {
			out.values[i][j] *= factor
		}
	}
	return out, nil
}

func (m *Concrete) Kron(o Matrix) (Matrix, error) {
	c, err := m.other(o)
	if err != nil {
		return nil, err
	}
	rows := m.Rows() * c.Rows()
	cols := m.Cols() * c.Cols()
	values := make([][]float64, rows)
	for i := range values {
		values[i] = make([]float64, cols)
	}
	for li, lrow := range m.values {
		for lj, lv := range lrow {
			for ri, rrow := range c.values {
				for rj, rv := range rrow {
					values[li*c.Rows()+ri][lj*c.Cols()+rj] = lv * rv
				}
			}
		}
	}
	return &Concrete{index: m.index, values: values, inF: m.inF + c.inF, outF: m.outF + c.outF}, nil
}

// Permute implements the factor rewiring of Matrix.Permute on entries:
// referenced factors are read off the result's digit tuples, factors
// referenced twice must agree, paired -1 factors must agree with each
// other, and unreferenced factors are summed over.
func (m *Concrete) Permute(src, dst []int) (Matrix, error) {
	srcExtra, err := checkPerm(src, m.inF)
	if err != nil {
		return nil, err
	}
	dstExtra, err := checkPerm(dst, m.outF)
	if err != nil {
		return nil, err
	}
	if len(srcExtra) != len(dstExtra) {
		return nil, fmt.Errorf("%w: %d fresh inputs vs %d fresh outputs", ErrShapeMismatch, len(srcExtra), len(dstExtra))
	}
	q := m.index.q
	rows := powInt(q, len(dst))
	cols := powInt(q, len(src))
	values := make([][]float64, rows)
	for rowP := 0; rowP < rows; rowP++ {
		values[rowP] = make([]float64, cols)
		dd, err := digitsOf(rowP, q, len(dst))
		if err != nil {
			return nil, err
		}
		for colP := 0; colP < cols; colP++ {
			sd, err := digitsOf(colP, q, len(src))
			if err != nil {
				return nil, err
			}
			values[rowP][colP], err = m.permEntry(src, dst, srcExtra, dstExtra, sd, dd)
			if err != nil {
				return nil, err
			}
		}
	}
	return &Concrete{index: m.index, values: values, inF: len(src), outF: len(dst)}, nil
}

func (m *Concrete) permEntry(src, dst, srcExtra, dstExtra, sd, dd []int) (float64, error) {
	for i := range srcExtra {
		if sd[srcExtra[i]] != dd[dstExtra[i]] {
			return 0, nil
		}
	}
	inDigit, ok := pinDigits(src, sd, m.inF)
	if !ok {
		return 0, nil
	}
	outDigit, ok := pinDigits(dst, dd, m.outF)
	if !ok {
		return 0, nil
	}
	free := make([]int, 0, m.inF+m.outF)
	for p, d := range inDigit {
		if d < 0 {
			free = append(free, p)
		}
	}
	nFreeIn := len(free)
	for p, d := range outDigit {
		if d < 0 {
			free = append(free, p)
		}
	}
	q := m.index.q
	sum := 0.0
	for a := 0; a < powInt(q, len(free)); a++ {
		ad, err := digitsOf(a, q, len(free))
		if err != nil {
			return 0, err
		}
		in := append([]int(nil), inDigit...)
		out := append([]int(nil), outDigit...)
		for i, p := range free[:nFreeIn] {
			in[p] = ad[i]
		}
		for i, p := range free[nFreeIn:] {
			out[p] = ad[nFreeIn+i]
		}
		sum += m.values[digitsValue(out, q)][digitsValue(in, q)]
	}
	return sum, nil
}

func checkPerm(perm []int, n int) ([]int, error) {
	extra := []int(nil)
	for k, p := range perm {
		if p == -1 {
			extra = append(extra, k)
			continue
		}
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: %d with %d factors", ErrFactorRange, p, n)
		}
	}
	return extra, nil
}

// pinDigits fixes referenced factor digits, -1 for unreferenced ones.
// Reports false when one factor is referenced with conflicting digits.
func pinDigits(perm, digits []int, n int) ([]int, bool) {
	pinned := make([]int, n)
	for p := range pinned {
		pinned[p] = -1
	}
	for k, p := range perm {
		if p < 0 {
			continue
		}
		if pinned[p] >= 0 && pinned[p] != digits[k] {
			return nil, false
		}
		pinned[p] = digits[k]
	}
	return pinned, true
}

// Trace sums the diagonal of a square matrix.
func (m *Concrete) Trace() (float64, error) {
	if m.Rows() != m.Cols() {
		return 0, fmt.Errorf("%w: trace of %dx%d", ErrShapeMismatch, m.Rows(), m.Cols())
	}
	sum := 0.0
	for i, row := range m.values {
		sum += row[i]
	}
	return sum, nil
}

// Exp is the truncated Taylor exponential, summing terms k = 0 through
// terms-1 of M^k / k!.
func (m *Concrete) Exp(terms int) (*Concrete, error) {
	if m.Rows() != m.Cols() {
		return nil, fmt.Errorf("%w: exponential of %dx%d", ErrShapeMismatch, m.Rows(), m.Cols())
	}
	if terms < 1 {
		return nil, fmt.Errorf("%w: exponential needs at least one term", ErrNoOperands)
	}
	sum := ConcreteIdentity(m.index, m.inF)
	power := Matrix(ConcreteIdentity(m.index, m.inF))
	fact := 1.0
	for k := 1; k < terms; k++ {
		next, err := power.Mul(m)
		if err != nil {
			return nil, err
		}
		power = next
		fact *= float64(k)
		scaled, err := power.Scale(1 / fact)
		if err != nil {
			return nil, err
		}
		acc, err := sum.Add(scaled)
		if err != nil {
			return nil, err
		}
		sum = acc.(*Concrete)
	}
	return sum, nil
}

// Value returns a copy of the matrix; a concrete matrix needs no
// counting.
func (m *Concrete) Value(count.Counter) (*Concrete, error) {
	return m.clone(), nil
}

// AlmostEqual compares entries within an absolute tolerance.
func (m *Concrete) AlmostEqual(o *Concrete, tol float64) bool {
	if m.Rows() != o.Rows() || m.Cols() != o.Cols() {
		return false
	}
	for i, row := range m.values {
		for j, v := range row {
			if math.Abs(v-o.values[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func (m *Concrete) String() string {
	var b strings.Builder
	for i, row := range m.values {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%v", row)
	}
	return b.String()
}

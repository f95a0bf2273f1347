package matrix

import (
	"errors"
	"fmt"

	"spinwmc/count"
)

var (
	// ErrShapeMismatch reports operand dimensions that do not fit the
	// operation.
	ErrShapeMismatch = errors.New("operand shapes do not match")
	// ErrKindMismatch reports an operation mixing symbolic and concrete
	// matrices.
	ErrKindMismatch = errors.New("operands are different matrix kinds")
	// ErrFactorRange reports a Permute source or target outside the
	// operand's factor lists.
	ErrFactorRange = errors.New("factor position out of range")
	// ErrZeroPinnedMass reports a linear combination or exponential
	// whose branch scaling would divide by a zero pinned mass. This
	// needs a weight pair whose false weight is exactly zero; Scale by
	// zero is rewritten to avoid it.
	ErrZeroPinnedMass = errors.New("addend has zero pinned mass")
	// ErrCountFailed reports a counter backend that returned no result
	// for an entry during realization.
	ErrCountFailed = errors.New("model counter failed")
	// ErrNoOperands rejects empty variadic compositions.
	ErrNoOperands = errors.New("operation needs at least one operand")
)

// Matrix is a linear operator between tensor powers of an index's
// q-state space: Cols() == q^InFactors() and Rows() == q^OutFactors().
// Composition never evaluates entries; Value realizes them through a
// model counter.
//
// Operations return fresh matrices and leave their operands untouched.
// Symbolic and concrete matrices do not mix within one operation.
type Matrix interface {
	Index() *Index
	Rows() int
	Cols() int
	InFactors() int
	OutFactors() int

	// Mul is matrix multiplication, contracting the receiver's inputs
	// with other's outputs.
	Mul(other Matrix) (Matrix, error)
	// Add is entry-wise addition of same-shape matrices.
	Add(other Matrix) (Matrix, error)
	// Scale multiplies every entry by factor.
	Scale(factor float64) (Matrix, error)
	// Kron is the tensor product; the receiver's factors become the
	// more significant ones.
	Kron(other Matrix) (Matrix, error)
	// Permute rebuilds the matrix with input factor k taken from
	// position src[k] and output factor k from dst[k]. A -1 entry
	// introduces a fresh factor; the i-th -1 of src and the i-th -1 of
	// dst denote one shared identity-wired factor. Factors named by
	// neither list are summed over.
	Permute(src, dst []int) (Matrix, error)
	// Value computes every entry with the given counter.
	Value(ctr count.Counter) (*Concrete, error)
	Copy() Matrix
}

var (
	_ Matrix = (*WCNF)(nil)
	_ Matrix = (*Concrete)(nil)
)

// digitsOf writes value in the given base over width digits, most
// significant first.
func digitsOf(value, base, width int) ([]int, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: negative value %d", ErrValueRange, value)
	}
	digits := make([]int, width)
	for i := width - 1; i >= 0; i-- {
		digits[i] = value % base
		value /= base
	}
	if value != 0 {
		return nil, fmt.Errorf("%w: value does not fit %d base-%d digits", ErrValueRange, width, base)
	}
	return digits, nil
}

// digitsValue folds big-endian digits back into a value.
func digitsValue(digits []int, base int) int {
	v := 0
	for _, d := range digits {
		v = v*base + d
	}
	return v
}

func powInt(base, exp int) int {
	v := 1
	for i := 0; i < exp; i++ {
		v *= base
	}
	return v
}

// factorsOf computes n with base^n == dim.
func factorsOf(dim, base int) (int, error) {
	n := 0
	for v := 1; v < dim; v *= base {
		n++
	}
	if powInt(base, n) != dim {
		return 0, fmt.Errorf("%w: dimension %d is not a power of %d", ErrShapeMismatch, dim, base)
	}
	return n, nil
}

// Package matrix implements symbolic linear algebra over q-state register
// spaces. Matrices are represented implicitly as weighted CNF formulas
// whose weighted model counts are the matrix entries, composed without
// ever materializing entries; realization happens through the count
// package. A dense Concrete variant serves as the correctness oracle and
// as the terminal result of realization.
package matrix

import (
	"errors"
	"fmt"
	"sync/atomic"

	"spinwmc/cnf"
)

var (
	// ErrBadCardinality rejects register spaces with fewer than two
	// states.
	ErrBadCardinality = errors.New("index cardinality must be at least 2")
	// ErrValueRange reports a basis element or digit outside 0..q-1.
	ErrValueRange = errors.New("value outside index range")
	// ErrIndexMismatch reports an operation mixing matrices, elements or
	// registers of different indices. Indices compare by identity: two
	// separately created indices never match, even with equal
	// cardinality.
	ErrIndexMismatch = errors.New("operands belong to different indices")
)

// Encoding selects how a register's value maps onto boolean variables.
type Encoding int

const (
	// Binary packs a register into ceil(log2 q) variables, most
	// significant first.
	Binary Encoding = iota
	// OneHot spends q variables per register, exactly one of them true.
	OneHot
)

func (e Encoding) String() string {
	switch e {
	case Binary:
		return "binary"
	case OneHot:
		return "onehot"
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

// Index is a q-state register space. All matrices over an index share its
// variable Space and its register encoding; matrices over distinct
// indices cannot be composed, which is what scopes composition to one
// Space without any package-level state.
type Index struct {
	space  *cnf.Space
	q      int
	enc    Encoding
	regSeq atomic.Int32
}

// NewIndex creates a q-state index with the Binary register encoding.
func NewIndex(space *cnf.Space, q int) (*Index, error) {
	return NewIndexEnc(space, q, Binary)
}

// NewIndexEnc creates a q-state index with the given register encoding.
func NewIndexEnc(space *cnf.Space, q int, enc Encoding) (*Index, error) {
	if q < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrBadCardinality, q)
	}
	if enc != Binary && enc != OneHot {
		return nil, fmt.Errorf("unknown register encoding %d", int(enc))
	}
	return &Index{space: space, q: q, enc: enc}, nil
}

func (ix *Index) Q() int             { return ix.q }
func (ix *Index) Space() *cnf.Space  { return ix.space }
func (ix *Index) Encoding() Encoding { return ix.enc }

// VarsPerReg is the number of boolean variables one register occupies.
func (ix *Index) VarsPerReg() int {
	if ix.enc == OneHot {
		return ix.q
	}
	return intLog(ix.q)
}

// NewRep allocates a fresh register representation from the index's
// Space.
func (ix *Index) NewRep() Rep {
	if ix.enc == OneHot {
		return NewOneHotRep(ix.space, ix.q)
	}
	return NewLogRep(ix.space, ix.q)
}

// Basis returns the i-th basis element of the space.
func (ix *Index) Basis(i int) (BasisElement, error) {
	if i < 0 || i >= ix.q {
		return BasisElement{}, fmt.Errorf("%w: basis %d of %d-state index", ErrValueRange, i, ix.q)
	}
	return BasisElement{index: ix, value: i}, nil
}

// Elements returns all q basis elements in order.
func (ix *Index) Elements() []BasisElement {
	elems := make([]BasisElement, ix.q)
	for i := range elems {
		elems[i] = BasisElement{index: ix, value: i}
	}
	return elems
}

func (ix *Index) String() string {
	return fmt.Sprintf("Index(q=%d, %s)", ix.q, ix.enc)
}

// BasisElement is one computational basis state of an index.
type BasisElement struct {
	index *Index
	value int
}

func (e BasisElement) Index() *Index { return e.index }
func (e BasisElement) Value() int    { return e.value }

func (e BasisElement) String() string {
	return fmt.Sprintf("|%d>", e.value)
}

// Reg is a named register of an index. Registers compare by identity and
// exist to label matrix factors, see Label.
type Reg struct {
	index *Index
	id    int32
}

// NewReg creates a register of the given index.
func NewReg(ix *Index) *Reg {
	return &Reg{index: ix, id: ix.regSeq.Add(1)}
}

// Regs creates n registers of the given index.
func Regs(ix *Index, n int) []*Reg {
	regs := make([]*Reg, n)
	for i := range regs {
		regs[i] = NewReg(ix)
	}
	return regs
}

func (r *Reg) Index() *Index { return r.index }

func (r *Reg) String() string {
	return fmt.Sprintf("r%d", r.id)
}

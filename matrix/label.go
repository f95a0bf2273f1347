package matrix

import (
	"errors"
	"fmt"

	"spinwmc/cnf"
	"spinwmc/count"
)

var (
	// ErrLabelShape reports a register list whose length does not match
	// the labeled matrix's factor count.
	ErrLabelShape = errors.New("register labels do not match factor count")
	// ErrDuplicateReg reports the same register labeling two factors on
	// one side.
	ErrDuplicateReg = errors.New("register labels one side twice")
	// ErrUnknownReg reports a register absent from a label list.
	ErrUnknownReg = errors.New("register not among labels")
)

// Label names a matrix's factors with registers. Operations align
// operands by register identity instead of factor position: factors are
// matched up by label, operands are extended with identity factors for
// registers they do not touch, and the result is labeled with the union.
type Label struct {
	mat Matrix
	src []*Reg
	dst []*Reg
}

// WithRegs labels a square matrix as an operator on the given registers,
// the same list on both sides.
func WithRegs(m Matrix, regs ...*Reg) (*Label, error) {
	return WithLabels(m, regs, regs)
}

// WithLabels labels input factors with src and output factors with dst.
func WithLabels(m Matrix, src, dst []*Reg) (*Label, error) {
	if len(src) != m.InFactors() || len(dst) != m.OutFactors() {
		return nil, fmt.Errorf("%w: %d/%d labels for %d/%d factors",
			ErrLabelShape, len(src), len(dst), m.InFactors(), m.OutFactors())
	}
	for _, side := range [][]*Reg{src, dst} {
		seen := make(map[*Reg]bool, len(side))
		for _, r := range side {
			if r.index != m.Index() {
				return nil, ErrIndexMismatch
			}
			if seen[r] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateReg, r)
			}
			seen[r] = true
		}
	}
	return &Label{
		mat: m,
		src: append([]*Reg(nil), src...),
		dst: append([]*Reg(nil), dst...),
	}, nil
}

func (l *Label) Matrix() Matrix { return l.mat }
func (l *Label) Index() *Index  { return l.mat.Index() }
func (l *Label) Src() []*Reg    { return append([]*Reg(nil), l.src...) }
func (l *Label) Dst() []*Reg    { return append([]*Reg(nil), l.dst...) }

func (l *Label) Copy() *Label {
	out := &Label{mat: l.mat.Copy()}
	out.src = append(out.src, l.src...)
	out.dst = append(out.dst, l.dst...)
	return out
}

func indexOfReg(r *Reg, regs []*Reg) int {
	for i, c := range regs {
		if c == r {
			return i
		}
	}
	return -1
}

func orderedUnion(a, b []*Reg) []*Reg {
	out := append([]*Reg(nil), a...)
	for _, r := range b {
		if indexOfReg(r, out) < 0 {
			out = append(out, r)
		}
	}
	return out
}

// alignSrc permutes l's matrix so its input factors follow regs,
// inserting shared identity factors for registers l's inputs do not
// carry. Returns the permuted matrix and its output labels, which grow
// by the inserted registers.
func (l *Label) alignSrc(regs []*Reg) (Matrix, []*Reg, error) {
	srcPerm := make([]int, len(regs))
	var missing []*Reg
	for k, r := range regs {
		srcPerm[k] = indexOfReg(r, l.src)
		if srcPerm[k] < 0 {
			missing = append(missing, r)
		}
	}
	dstPerm := make([]int, len(l.dst), len(l.dst)+len(missing))
	for i := range l.dst {
		dstPerm[i] = i
	}
	for range missing {
		dstPerm = append(dstPerm, -1)
	}
	mat, err := l.mat.Permute(srcPerm, dstPerm)
	if err != nil {
		return nil, nil, err
	}
	return mat, append(append([]*Reg(nil), l.dst...), missing...), nil
}

// alignDst is the mirror of alignSrc for the output side.
func (l *Label) alignDst(regs []*Reg) (Matrix, []*Reg, error) {
	dstPerm := make([]int, len(regs))
	var missing []*Reg
	for k, r := range regs {
		dstPerm[k] = indexOfReg(r, l.dst)
		if dstPerm[k] < 0 {
			missing = append(missing, r)
		}
	}
	srcPerm := make([]int, len(l.src), len(l.src)+len(missing))
	for i := range l.src {
		srcPerm[i] = i
	}
	for range missing {
		srcPerm = append(srcPerm, -1)
	}
	mat, err := l.mat.Permute(srcPerm, dstPerm)
	if err != nil {
		return nil, nil, err
	}
	return mat, append(append([]*Reg(nil), l.src...), missing...), nil
}

// Mul contracts by register: the left operand's inputs meet the right
// operand's outputs over the union of their registers, each side
// identity-extended to registers it does not act on.
func (l *Label) Mul(r *Label) (*Label, error) {
	if l.Index() != r.Index() {
		return nil, ErrIndexMismatch
	}
	contract := orderedUnion(l.src, r.dst)
	lm, ldst, err := l.alignSrc(contract)
	if err != nil {
		return nil, err
	}
	rm, rsrc, err := r.alignDst(contract)
	if err != nil {
		return nil, err
	}
	mat, err := lm.Mul(rm)
	if err != nil {
		return nil, err
	}
	return WithLabels(mat, rsrc, ldst)
}

// alignBoth reorders an operator-shaped label onto regs on both sides.
func (l *Label) alignBoth(regs []*Reg) (Matrix, error) {
	srcPerm := make([]int, len(regs))
	dstPerm := make([]int, len(regs))
	for k, r := range regs {
		srcPerm[k] = indexOfReg(r, l.src)
		dstPerm[k] = indexOfReg(r, l.dst)
	}
	return l.mat.Permute(srcPerm, dstPerm)
}

// Add sums by register. Operands with identical label lists add
// directly; otherwise both must be operator-shaped and are identity-
// extended onto the union of their registers.
func (l *Label) Add(r *Label) (*Label, error) {
	if l.Index() != r.Index() {
		return nil, ErrIndexMismatch
	}
	if sameRegs(l.src, r.src) && sameRegs(l.dst, r.dst) {
		mat, err := l.mat.Add(r.mat)
		if err != nil {
			return nil, err
		}
		return WithLabels(mat, l.src, l.dst)
	}
	if !sameRegSet(l.src, l.dst) || !sameRegSet(r.src, r.dst) {
		return nil, fmt.Errorf("%w: sum needs operator-shaped labels", ErrLabelShape)
	}
	union := orderedUnion(l.src, r.src)
	lm, err := l.alignBoth(union)
	if err != nil {
		return nil, err
	}
	rm, err := r.alignBoth(union)
	if err != nil {
		return nil, err
	}
	mat, err := lm.Add(rm)
	if err != nil {
		return nil, err
	}
	return WithLabels(mat, union, union)
}

func sameRegs(a, b []*Reg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameRegSet(a, b []*Reg) bool {
	if len(a) != len(b) {
		return false
	}
	for _, r := range a {
		if indexOfReg(r, b) < 0 {
			return false
		}
	}
	return true
}

// Scale multiplies every entry by factor, keeping the labels.
func (l *Label) Scale(factor float64) (*Label, error) {
	mat, err := l.mat.Scale(factor)
	if err != nil {
		return nil, err
	}
	return WithLabels(mat, l.src, l.dst)
}

// Reorder permutes an operator-shaped label onto the given register
// order on both sides.
func (l *Label) Reorder(regs ...*Reg) (*Label, error) {
	for _, r := range regs {
		if indexOfReg(r, l.src) < 0 || indexOfReg(r, l.dst) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownReg, r)
		}
	}
	if len(regs) != len(l.src) || len(regs) != len(l.dst) {
		return nil, fmt.Errorf("%w: %d registers for %d/%d factors",
			ErrLabelShape, len(regs), len(l.src), len(l.dst))
	}
	mat, err := l.alignBoth(regs)
	if err != nil {
		return nil, err
	}
	return WithRegs(mat, regs...)
}

// TraceFormula pairs input and output factors by register, not by
// position: chained multiplications may leave the two sides in
// different orders, so the label is reordered onto the output order
// before delegating to the wrapped symbolic matrix.
func (l *Label) TraceFormula() (cnf.CNF, *cnf.WeightFunction, error) {
	if len(l.src) != len(l.dst) {
		return nil, nil, fmt.Errorf("%w: trace of %v vs %v", ErrLabelShape, l.dst, l.src)
	}
	for _, r := range l.dst {
		if indexOfReg(r, l.src) < 0 {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownReg, r)
		}
	}
	aligned := l
	if !sameRegs(l.src, l.dst) {
		var err error
		aligned, err = l.Reorder(l.dst...)
		if err != nil {
			return nil, nil, err
		}
	}
	m, ok := aligned.mat.(*WCNF)
	if !ok {
		return nil, nil, fmt.Errorf("%w: trace formula of %T", ErrKindMismatch, l.mat)
	}
	return m.TraceFormula()
}

// Value realizes the wrapped matrix; rows and columns follow the current
// label order.
func (l *Label) Value(ctr count.Counter) (*Concrete, error) {
	return l.mat.Value(ctr)
}

func (l *Label) String() string {
	return fmt.Sprintf("Label(%v <- %v, %v)", l.dst, l.src, l.mat)
}

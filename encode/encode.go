// Package encode turns spin models into weighted CNF whose weighted
// model count is the model's partition function. Classical models get
// both a direct clause-level encoding and a symbolic operator encoding
// built from the matrix package; the quantum Ising model is
// trotterized into a product of rotation gates whose trace formula
// approximates Tr(exp(-beta*H)).
package encode

import (
	"spinwmc/matrix"
)

// mulLabeled attaches g to the given registers and multiplies it into
// the accumulated operator.
func mulLabeled(acc *matrix.Label, g *matrix.WCNF, regs ...*matrix.Reg) (*matrix.Label, error) {
	lg, err := matrix.WithRegs(g, regs...)
	if err != nil {
		return nil, err
	}
	return acc.Mul(lg)
}

// labeledIdentity starts an operator product: the identity spanning one
// register per site.
func labeledIdentity(ix *matrix.Index, regs []*matrix.Reg) (*matrix.Label, error) {
	ident, err := matrix.Identity(ix, len(regs))
	if err != nil {
		return nil, err
	}
	return matrix.WithRegs(ident, regs...)
}

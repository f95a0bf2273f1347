package encode

import (
	"math"

	"spinwmc/cnf"
	"spinwmc/count"
	"spinwmc/matrix"
	"spinwmc/spin"
)

// IsingCNF encodes the model directly as a weighted CNF whose weighted
// model count is Z(beta). Spin variables are true for +1; one auxiliary
// variable per coupling tracks whether its spins agree and carries the
// coupling weight e^(+-beta*J).
func IsingCNF(m *spin.IsingModel, beta float64) (count.Problem, error) {
	if err := m.Validate(); err != nil {
		return count.Problem{}, err
	}
	space := cnf.NewSpace()
	spins := space.FreshVars(m.SpinCount)
	weights := cnf.NewWeightFunction()
	for i, v := range spins {
		h := 0.0
		if i < len(m.ExternalField) {
			h = m.ExternalField[i]
		}
		weights.SetPair(v, math.Exp(-beta*h), math.Exp(beta*h))
	}
	var formula cnf.CNF
	for _, c := range m.Interaction {
		x, y := spins[c.I], spins[c.J]
		agree := space.Fresh()
		formula = formula.And(cnf.New(
			cnf.C(x.Pos(), y.Neg(), agree.Neg()),
			cnf.C(x.Pos(), y.Pos(), agree.Pos()),
			cnf.C(x.Neg(), y.Pos(), agree.Neg()),
			cnf.C(x.Neg(), y.Neg(), agree.Pos()),
		))
		weights.SetPair(agree, math.Exp(-beta*c.Strength), math.Exp(beta*c.Strength))
	}
	return count.Problem{Formula: formula, Weights: weights}, nil
}

// IsingMatrix encodes the model as a labeled operator product, one
// e^(beta*J*ZZ) rotation per coupling and one e^(beta*h*Z) rotation per
// spin with a field. All factors are diagonal, so the trace formula
// realizes Z(beta) exactly.
func IsingMatrix(m *spin.IsingModel, beta float64) (*matrix.Label, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	ix, err := matrix.NewIndex(cnf.NewSpace(), 2)
	if err != nil {
		return nil, err
	}
	regs := matrix.Regs(ix, m.SpinCount)
	acc, err := labeledIdentity(ix, regs)
	if err != nil {
		return nil, err
	}
	for _, c := range m.Interaction {
		g, err := matrix.ExpZZ(ix, beta*c.Strength)
		if err != nil {
			return nil, err
		}
		if acc, err = mulLabeled(acc, g, regs[c.I], regs[c.J]); err != nil {
			return nil, err
		}
	}
	for i, h := range m.ExternalField {
		if h == 0 {
			continue
		}
		g, err := matrix.ExpZ(ix, beta*h)
		if err != nil {
			return nil, err
		}
		if acc, err = mulLabeled(acc, g, regs[i]); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

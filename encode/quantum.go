package encode

import (
	"github.com/pkg/errors"

	"spinwmc/cnf"
	"spinwmc/matrix"
	"spinwmc/spin"
)

// QuantumIsingOperator builds the Suzuki-Trotter approximation of
// exp(-beta*H) as a labeled operator product: per layer one
// e^(beta*J*ZZ/L) rotation per coupling, one e^(beta*Gz*Z/L) rotation
// per spin and the transverse field as a Hadamard-conjugated Z
// rotation. Factors with zero strength are skipped; they are exact
// identities either way.
func QuantumIsingOperator(m *spin.QuantumIsingModel, beta float64, layers int) (*matrix.Label, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if layers < 1 {
		return nil, errors.Errorf("trotterization wants at least 1 layer, got %d", layers)
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
	step := beta / float64(layers)
	for layer := 0; layer < layers; layer++ {
		for _, c := range m.Interaction {
			if c.Strength == 0 {
				continue
			}
			g, err := matrix.ExpZZ(ix, step*c.Strength)
			if err != nil {
				return nil, err
			}
			if acc, err = mulLabeled(acc, g, regs[c.I], regs[c.J]); err != nil {
				return nil, err
			}
		}
		if m.ExternalZ != 0 {
			if acc, err = rotationRow(acc, ix, regs, step*m.ExternalZ); err != nil {
				return nil, err
			}
		}
		if m.ExternalX != 0 {
			if acc, err = hadamardRow(acc, ix, regs); err != nil {
				return nil, err
			}
			if acc, err = rotationRow(acc, ix, regs, step*m.ExternalX); err != nil {
				return nil, err
			}
			if acc, err = hadamardRow(acc, ix, regs); err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}

// QuantumIsingTrace is the trace formula of the trotterized operator;
// its weighted model count approximates Tr(exp(-beta*H)), the partition
// function at inverse temperature beta.
func QuantumIsingTrace(m *spin.QuantumIsingModel, beta float64, layers int) (cnf.CNF, *cnf.WeightFunction, error) {
	op, err := QuantumIsingOperator(m, beta, layers)
	if err != nil {
		return nil, nil, err
	}
	return op.TraceFormula()
}

func rotationRow(acc *matrix.Label, ix *matrix.Index, regs []*matrix.Reg, theta float64) (*matrix.Label, error) {
	for _, reg := range regs {
		g, err := matrix.ExpZ(ix, theta)
		if err != nil {
			return nil, err
		}
		if acc, err = mulLabeled(acc, g, reg); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func hadamardRow(acc *matrix.Label, ix *matrix.Index, regs []*matrix.Reg) (*matrix.Label, error) {
	for _, reg := range regs {
		g, err := matrix.Hadamard(ix)
		if err != nil {
			return nil, err
		}
		if acc, err = mulLabeled(acc, g, reg); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

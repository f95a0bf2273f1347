package encode

import (
	"math"

	"spinwmc/cnf"
	"spinwmc/count"
	"spinwmc/matrix"
	"spinwmc/spin"
)

// PottsCNF encodes the standard Potts model directly over one-hot
// site-state variables; the weighted model count is Z(beta). Per edge
// and state an auxiliary variable tracks whether both sites hold that
// state and carries the coupling weight e^(beta*J); field strengths
// weight the site-state variables themselves.
func PottsCNF(m *spin.PottsModel, beta float64) (count.Problem, error) {
	if err := m.Validate(); err != nil {
		return count.Problem{}, err
	}
	space := cnf.NewSpace()
	site := make([][]cnf.Var, m.Sites)
	for i := range site {
		site[i] = space.FreshVars(m.States)
	}
	weights := cnf.NewWeightFunction()
	var formula cnf.CNF
	for i, vs := range site {
		lits := make([]cnf.Lit, m.States)
		for s, v := range vs {
			lits[s] = v.Pos()
			weights.SetPair(v, 1, math.Exp(beta*m.FieldAt(i, s)))
		}
		formula = formula.And(cnf.New(cnf.C(lits...)))
		for a := 0; a < m.States; a++ {
			for b := a + 1; b < m.States; b++ {
				formula = formula.And(cnf.New(cnf.C(vs[a].Neg(), vs[b].Neg())))
			}
		}
	}
	coupling := math.Exp(beta * m.Coupling)
	for _, e := range m.Edges {
		for s := 0; s < m.States; s++ {
			x, y := site[e.I][s], site[e.J][s]
			agree := space.Fresh()
			formula = formula.And(cnf.New(
				cnf.C(x.Neg(), y.Neg(), agree.Pos()),
				cnf.C(x.Pos(), agree.Neg()),
				cnf.C(y.Pos(), agree.Neg()),
			))
			weights.SetPair(agree, 1, coupling)
		}
	}
	return count.Problem{Formula: formula, Weights: weights}, nil
}

// PottsMatrix encodes the standard Potts model as a labeled operator
// product over one q-state register per site, using the given register
// encoding: per edge a diagonal equality gadget weighing agreeing
// states by e^(beta*J), per site with a field a diagonal of the
// state weights. The trace formula realizes Z(beta).
func PottsMatrix(m *spin.PottsModel, beta float64, enc matrix.Encoding) (*matrix.Label, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	ix, err := matrix.NewIndexEnc(cnf.NewSpace(), m.States, enc)
	if err != nil {
		return nil, err
	}
	regs := matrix.Regs(ix, m.Sites)
	acc, err := labeledIdentity(ix, regs)
	if err != nil {
		return nil, err
	}
	eq, err := equalityGadget(ix, beta*m.Coupling)
	if err != nil {
		return nil, err
	}
	for _, e := range m.Edges {
		if acc, err = mulLabeled(acc, eq, regs[e.I], regs[e.J]); err != nil {
			return nil, err
		}
	}
	for i := 0; i < m.Sites; i++ {
		if !siteHasField(m, i) {
			continue
		}
		d, err := fieldDiagonal(ix, m, i, beta)
		if err != nil {
			return nil, err
		}
		if acc, err = mulLabeled(acc, d, regs[i]); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// equalityGadget is the diagonal two-register operator with entry
// e^theta where the registers agree and 1 where they differ.
func equalityGadget(ix *matrix.Index, theta float64) (*matrix.WCNF, error) {
	a, b := ix.NewRep(), ix.NewRep()
	gate := ix.Space().Fresh()
	f, aux, err := a.EqualsRepToVar(b, gate)
	if err != nil {
		return nil, err
	}
	w := cnf.NewWeightFunction()
	w.SetUnit(a.Vars()...)
	w.SetUnit(b.Vars()...)
	w.SetUnit(aux...)
	w.SetPair(gate, 1, math.Exp(theta))
	return matrix.NewWCNF(ix, f, w, []matrix.Rep{a, b}, []matrix.Rep{a, b})
}

func siteHasField(m *spin.PottsModel, site int) bool {
	for _, f := range m.ExternalField {
		if f.Site == site && f.Strength != 0 {
			return true
		}
	}
	return false
}

// fieldDiagonal sums the q state projectors of one site, each scaled by
// its field weight e^(beta*h(site, s)).
func fieldDiagonal(ix *matrix.Index, m *spin.PottsModel, site int, beta float64) (*matrix.WCNF, error) {
	terms := make([]matrix.Term, ix.Q())
	for s := 0; s < ix.Q(); s++ {
		p, err := projector(ix, s)
		if err != nil {
			return nil, err
		}
		terms[s] = matrix.Term{Factor: math.Exp(beta * m.FieldAt(site, s)), M: p}
	}
	return matrix.LinearComb(terms...)
}

// projector is the diagonal |s><s| on one register.
func projector(ix *matrix.Index, s int) (*matrix.WCNF, error) {
	a := ix.NewRep()
	f, err := a.Equals(s)
	if err != nil {
		return nil, err
	}
	w := cnf.NewWeightFunction()
	w.SetUnit(a.Vars()...)
	return matrix.NewWCNF(ix, f, w, []matrix.Rep{a}, []matrix.Rep{a})
}

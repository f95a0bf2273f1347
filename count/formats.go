package count

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"spinwmc/cnf"
)

var (
	// ErrMissingWeight reports a domain variable lacking a weight for one
	// of its polarities; solver input formats need both.
	ErrMissingWeight = errors.New("variable is missing a polarity weight")
	// ErrOutsideDomain reports a formula variable that the weight
	// function does not cover.
	ErrOutsideDomain = errors.New("formula variable outside weight domain")
)

// problemVars maps the weight domain onto the 1-based solver variables, in
// ascending handle order so output is deterministic.
func problemVars(w *cnf.WeightFunction) (map[cnf.Var]int, []cnf.Var) {
	domain := w.Domain()
	index := make(map[cnf.Var]int, len(domain))
	for i, v := range domain {
		index[v] = i + 1
	}
	return index, domain
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

func writeClauses(b *strings.Builder, f cnf.CNF, index map[cnf.Var]int) error {
	for _, clause := range f {
		for _, lit := range clause {
			n, ok := index[lit.Var()]
			if !ok {
				return errors.Wrapf(ErrOutsideDomain, "v%d", lit.Var())
			}
			if !lit.IsPos() {
				b.WriteByte('-')
			}
			b.WriteString(strconv.Itoa(n))
			b.WriteByte(' ')
		}
		b.WriteString("0\n")
	}
	return nil
}

// FormatDPMC renders the problem in the DPMC weighted model counting
// dialect: a DIMACS header, a projection line showing every variable, one
// weight line per literal, then the clauses. Every domain variable must
// have both polarity weights set.
func FormatDPMC(p Problem) (string, error) {
	index, domain := problemVars(p.Weights)
	var b strings.Builder
	fmt.Fprintf(&b, "p cnf %d %d\n", len(domain), len(p.Formula))

	b.WriteString("c p show ")
	for i := 1; i <= len(domain); i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(' ')
	}
	b.WriteString("0\n")

	for i, v := range domain {
		pos, ok := p.Weights.Weight(v, true)
		if !ok {
			return "", errors.Wrapf(ErrMissingWeight, "v%d positive", v)
		}
		neg, ok := p.Weights.Weight(v, false)
		if !ok {
			return "", errors.Wrapf(ErrMissingWeight, "v%d negative", v)
		}
		fmt.Fprintf(&b, "c p weight %d %s\n", i+1, formatWeight(pos))
		fmt.Fprintf(&b, "c p weight %d %s\n", -(i + 1), formatWeight(neg))
	}

	if err := writeClauses(&b, p.Formula, index); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// FormatCachet renders the problem in the Cachet dialect: a DIMACS header,
// one positive weight line per variable, then the clauses. Cachet derives
// the negative weight as one minus the positive one, so callers must
// normalize the weight function first.
func FormatCachet(p Problem) (string, error) {
	index, domain := problemVars(p.Weights)
	var b strings.Builder
	fmt.Fprintf(&b, "p cnf %d %d\n", len(domain), len(p.Formula))

	for i, v := range domain {
		pos, ok := p.Weights.Weight(v, true)
		if !ok {
			return "", errors.Wrapf(ErrMissingWeight, "v%d positive", v)
		}
		if _, ok := p.Weights.Weight(v, false); !ok {
			return "", errors.Wrapf(ErrMissingWeight, "v%d negative", v)
		}
		fmt.Fprintf(&b, "w %d %s\n", i+1, formatWeight(pos))
	}

	if err := writeClauses(&b, p.Formula, index); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

package count

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinwmc/cnf"
)

func TestFormatDPMC(t *testing.T) {
	sp := cnf.NewSpace()
	x, y := sp.Fresh(), sp.Fresh()

	w := cnf.NewWeightFunction()
	w.SetPair(x, 0.5, 0.5)
	w.SetPair(y, 1, 2.5)

	p := Problem{
		Formula: cnf.New(cnf.C(x.Pos(), y.Neg()), cnf.C(y.Pos())),
		Weights: w,
	}
	out, err := FormatDPMC(p)
	require.NoError(t, err)
	assert.Equal(t,
		"p cnf 2 2\n"+
			"c p show 1 2 0\n"+
			"c p weight 1 0.5\n"+
			"c p weight -1 0.5\n"+
			"c p weight 2 2.5\n"+
			"c p weight -2 1\n"+
			"1 -2 0\n"+
			"2 0",
		out)
}

func TestFormatCachet(t *testing.T) {
	sp := cnf.NewSpace()
	x, y := sp.Fresh(), sp.Fresh()

	w := cnf.NewWeightFunction()
	w.SetPair(x, 0.75, 0.25)
	w.SetPair(y, 0.5, 0.5)

	p := Problem{
		Formula: cnf.New(cnf.C(x.Neg(), y.Pos())),
		Weights: w,
	}
	out, err := FormatCachet(p)
	require.NoError(t, err)
	assert.Equal(t,
		"p cnf 2 1\n"+
			"w 1 0.25\n"+
			"w 2 0.5\n"+
			"-1 2 0",
		out)
}

func TestFormatRequiresBothPolarities(t *testing.T) {
	sp := cnf.NewSpace()
	x := sp.Fresh()

	w := cnf.NewWeightFunction()
	w.SetWeight(x, true, 0.5)
	p := Problem{Formula: cnf.New(cnf.C(x.Pos())), Weights: w}

	_, err := FormatDPMC(p)
	assert.ErrorIs(t, err, ErrMissingWeight)
	_, err = FormatCachet(p)
	assert.ErrorIs(t, err, ErrMissingWeight)
}

func TestFormatRejectsUncoveredVars(t *testing.T) {
	sp := cnf.NewSpace()
	x, stray := sp.Fresh(), sp.Fresh()

	w := cnf.NewWeightFunction()
	w.SetPair(x, 0.5, 0.5)
	p := Problem{Formula: cnf.New(cnf.C(x.Pos(), stray.Neg())), Weights: w}

	_, err := FormatDPMC(p)
	assert.ErrorIs(t, err, ErrOutsideDomain)
	_, err = FormatCachet(p)
	assert.ErrorIs(t, err, ErrOutsideDomain)
}

func TestFormatDeterministicOrder(t *testing.T) {
	sp := cnf.NewSpace()
	vars := sp.FreshVars(6)

	w := cnf.NewWeightFunction()
	// Insertion order scrambled on purpose.
	for _, i := range []int{3, 0, 5, 1, 4, 2} {
		w.SetPair(vars[i], 0.5, 0.5)
	}
	p := Problem{Formula: cnf.New(), Weights: w}

	first, err := FormatDPMC(p)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := FormatDPMC(p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinwmc/cnf"
)

// satPatterns enumerates assignments of vars satisfying f, reporting
// each as a bit pattern with vars[0] most significant.
func satPatterns(f cnf.CNF, vars []cnf.Var) []int {
	var sat []int
	n := len(vars)
	for mask := 0; mask < 1<<uint(n); mask++ {
		assign := make(map[cnf.Var]bool, n)
		for i, v := range vars {
			assign[v] = mask&(1<<uint(n-1-i)) != 0
		}
		if f.Eval(assign) {
			sat = append(sat, mask)
		}
	}
	return sat
}

func TestLogRepEquals(t *testing.T) {
	sp := cnf.NewSpace()
	rep := NewLogRep(sp, 3)
	require.Len(t, rep.Vars(), 2)

	for v := 0; v < 3; v++ {
		f, err := rep.Equals(v)
		require.NoError(t, err)
		assert.Equal(t, []int{v}, satPatterns(f, rep.Vars()), "value %d", v)
	}

	_, err := rep.Equals(3)
	assert.ErrorIs(t, err, ErrValueRange)
	_, err = rep.Equals(-1)
	assert.ErrorIs(t, err, ErrValueRange)
}

func TestLogRepLessThanQ(t *testing.T) {
	sp := cnf.NewSpace()
	cases := []struct {
		q   int
		sat []int
	}{
		{2, []int{0, 1}},
		{3, []int{0, 1, 2}},
		{4, []int{0, 1, 2, 3}},
		{5, []int{0, 1, 2, 3, 4}},
		{6, []int{0, 1, 2, 3, 4, 5}},
	}
	for _, c := range cases {
		rep := NewLogRep(sp, c.q)
		assert.Equal(t, c.sat, satPatterns(rep.LessThanQ(), rep.Vars()), "q=%d", c.q)
	}
}

func TestOneHotRepEquals(t *testing.T) {
	sp := cnf.NewSpace()
	rep := NewOneHotRep(sp, 3)
	require.Len(t, rep.Vars(), 3)

	f, err := rep.Equals(1)
	require.NoError(t, err)
	// pattern 010: only the middle variable set
	assert.Equal(t, []int{2}, satPatterns(f, rep.Vars()))

	_, err = rep.Equals(3)
	assert.ErrorIs(t, err, ErrValueRange)
}

func TestOneHotRepLessThanQ(t *testing.T) {
	sp := cnf.NewSpace()
	rep := NewOneHotRep(sp, 3)
	// exactly-one: 100, 010, 001
	assert.ElementsMatch(t, []int{4, 2, 1}, satPatterns(rep.LessThanQ(), rep.Vars()))
}

func TestEqualsRep(t *testing.T) {
	sp := cnf.NewSpace()
	a := NewLogRep(sp, 3)
	b := NewLogRep(sp, 3)
	f, err := a.EqualsRep(b)
	require.NoError(t, err)

	all := append(a.Vars(), b.Vars()...)
	var want []int
	for bits := 0; bits < 4; bits++ {
		want = append(want, bits<<2|bits)
	}
	assert.Equal(t, want, satPatterns(f, all))

	bounded := f.And(a.LessThanQ(), b.LessThanQ())
	assert.Len(t, satPatterns(bounded, all), 3)
}

func TestEqualsRepMismatch(t *testing.T) {
	sp := cnf.NewSpace()
	log3 := NewLogRep(sp, 3)
	log4 := NewLogRep(sp, 4)
	hot3 := NewOneHotRep(sp, 3)

	_, err := log3.EqualsRep(log4)
	assert.ErrorIs(t, err, ErrRepMismatch)
	_, err = log3.EqualsRep(hot3)
	assert.ErrorIs(t, err, ErrRepMismatch)
	_, err = hot3.EqualsRep(log3)
	assert.ErrorIs(t, err, ErrRepMismatch)
}

func TestEqualsRepToVar(t *testing.T) {
	sp := cnf.NewSpace()
	for _, enc := range []Encoding{Binary, OneHot} {
		a := repOf(sp, 3, enc)
		b := repOf(sp, 3, enc)
		target := sp.Fresh()
		gadget, aux, err := a.EqualsRepToVar(b, target)
		require.NoError(t, err)
		require.Len(t, aux, len(a.Vars()))

		for va := 0; va < 3; va++ {
			for vb := 0; vb < 3; vb++ {
				fa, err := a.Equals(va)
				require.NoError(t, err)
				fb, err := b.Equals(vb)
				require.NoError(t, err)
				f := gadget.And(fa, fb)

				free := append(append(a.Vars(), b.Vars()...), target)
				free = append(free, aux...)
				models := satPatterns(f, free)
				require.Len(t, models, 1, "%s %d vs %d", enc, va, vb)
				targetBit := models[0] >> uint(len(aux)) & 1
				if va == vb {
					assert.Equal(t, 1, targetBit, "%s %d vs %d", enc, va, vb)
				} else {
					assert.Equal(t, 0, targetBit, "%s %d vs %d", enc, va, vb)
				}
			}
		}
	}
}

func repOf(sp *cnf.Space, q int, enc Encoding) Rep {
	if enc == OneHot {
		return NewOneHotRep(sp, q)
	}
	return NewLogRep(sp, q)
}

func TestRepRename(t *testing.T) {
	sp := cnf.NewSpace()
	rep := NewLogRep(sp, 4)
	fresh := sp.FreshVars(2)
	mapping := map[cnf.Var]cnf.Var{
		rep.Vars()[0]: fresh[0],
		rep.Vars()[1]: fresh[1],
	}
	renamed := rep.Rename(mapping)
	assert.Equal(t, fresh, renamed.Vars())
	assert.Equal(t, rep.Q(), renamed.Q())
	// original untouched
	assert.NotEqual(t, fresh, rep.Vars())

	partial := rep.Rename(map[cnf.Var]cnf.Var{rep.Vars()[0]: fresh[0]})
	assert.Equal(t, []cnf.Var{fresh[0], rep.Vars()[1]}, partial.Vars())
}
